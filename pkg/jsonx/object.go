// Package jsonx pulls JSON objects out of free-form model replies.
package jsonx

import (
	"encoding/json"
	"errors"
	"strings"
)

// ErrNoObject is returned when a reply holds no decodable JSON object.
var ErrNoObject = errors.New("no JSON object found")

// FirstObject returns the first balanced {...} span, honouring string
// literals. An unterminated object falls back to the last closing brace.
func FirstObject(s string) (string, bool) {
	start := strings.IndexByte(s, '{')
	if start < 0 {
		return "", false
	}

	depth := 0
	inString := false
	escaped := false
	for i := start; i < len(s); i++ {
		c := s[i]
		if inString {
			switch {
			case escaped:
				escaped = false
			case c == '\\':
				escaped = true
			case c == '"':
				inString = false
			}
			continue
		}
		switch c {
		case '"':
			inString = true
		case '{':
			depth++
		case '}':
			depth--
			if depth == 0 {
				return s[start : i+1], true
			}
		}
	}

	if end := strings.LastIndexByte(s, '}'); end > start {
		return s[start : end+1], true
	}
	return "", false
}

// Unfence strips a surrounding ``` block (with optional language tag) and
// returns its body. Content without a fence is returned trimmed.
func Unfence(s string) string {
	s = strings.TrimSpace(s)
	open := strings.Index(s, "```")
	if open < 0 {
		return s
	}
	body := s[open+3:]
	if nl := strings.IndexByte(body, '\n'); nl >= 0 {
		body = body[nl+1:]
	}
	if end := strings.Index(body, "```"); end >= 0 {
		body = body[:end]
	}
	return strings.TrimSpace(body)
}

// DecodeObject decodes the JSON object in content into v. It tries the whole
// reply, then the body of a code fence, then the first embedded object.
func DecodeObject(content string, v any) error {
	content = strings.TrimSpace(content)
	candidates := []string{content, Unfence(content)}
	if span, ok := FirstObject(content); ok {
		candidates = append(candidates, span)
	}

	var lastErr error
	for _, c := range candidates {
		if !strings.HasPrefix(c, "{") {
			continue
		}
		err := json.Unmarshal([]byte(c), v)
		if err == nil {
			return nil
		}
		lastErr = err
	}
	if lastErr != nil {
		return errors.Join(ErrNoObject, lastErr)
	}
	return ErrNoObject
}
