package translator

import (
	"encoding/json"
	"fmt"
	"regexp"
	"strconv"
	"strings"

	"github.com/MimeLyc/batch-sub-translator/pkg/jsonx"
)

var (
	numberedLineRe = regexp.MustCompile(`^\d+\s*[.)、:]\s*(.+)$`)
	quotedRe       = regexp.MustCompile(`"(.+)"`)
)

type translationsPayload struct {
	Translations []string `json:"translations"`
}

// parseTranslations extracts exactly n translations from a model reply.
// The JSON payload is preferred; numbered lines and then quoted strings are
// accepted when they yield exactly n items.
func parseTranslations(content string, n int) ([]string, error) {
	content = strings.TrimSpace(content)
	if content == "" {
		return nil, ErrEmptyResponse
	}

	got := -1
	if span, ok := jsonx.FirstObject(content); ok {
		var payload translationsPayload
		if err := json.Unmarshal([]byte(span), &payload); err == nil && payload.Translations != nil {
			if len(payload.Translations) == n {
				return decodeAll(payload.Translations), nil
			}
			got = len(payload.Translations)
		}
	}

	if lines := fallbackLines(content); len(lines) > 0 {
		if len(lines) == n {
			return decodeAll(lines), nil
		}
		if got < 0 {
			got = len(lines)
		}
	}

	if got < 0 {
		return nil, fmt.Errorf("%w: no translations found", ErrMalformedResponse)
	}
	return nil, fmt.Errorf("%w: expected %d, got %d", ErrCountMismatch, n, got)
}

func decodeAll(items []string) []string {
	out := make([]string, len(items))
	for i, item := range items {
		out[i] = decodeInline(item)
	}
	return out
}

func fallbackLines(content string) []string {
	var numbered, quoted []string
	for _, line := range strings.Split(content, "\n") {
		line = strings.TrimSpace(line)
		if line == "" || strings.HasPrefix(line, "```") || strings.HasPrefix(line, `"translations"`) {
			continue
		}
		if strings.ContainsAny(line[:1], "{}[]") {
			continue
		}
		if m := numberedLineRe.FindStringSubmatch(line); m != nil {
			numbered = append(numbered, strings.TrimSpace(m[1]))
			continue
		}
		if m := quotedRe.FindStringSubmatch(line); m != nil {
			quoted = append(quoted, unquote(m[1]))
		}
	}
	if len(numbered) > 0 {
		return numbered
	}
	return quoted
}

func unquote(s string) string {
	if v, err := strconv.Unquote(`"` + s + `"`); err == nil {
		return v
	}
	return s
}
