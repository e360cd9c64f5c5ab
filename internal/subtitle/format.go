package subtitle

import (
	"errors"
	"fmt"
	"path/filepath"
	"strings"
)

// ErrUnsupportedFormat is returned when a path or name maps to no known format.
var ErrUnsupportedFormat = errors.New("unsupported subtitle format")

// Format identifies a subtitle notation.
type Format int

const (
	FormatUnknown Format = iota
	FormatSRT
	FormatVTT
	FormatASS
	FormatText
)

func (f Format) String() string {
	switch f {
	case FormatSRT:
		return "SRT"
	case FormatVTT:
		return "WebVTT"
	case FormatASS:
		return "ASS"
	case FormatText:
		return "Text"
	default:
		return "Unknown"
	}
}

// Ext returns the canonical file extension of the format.
func (f Format) Ext() string {
	switch f {
	case FormatSRT:
		return ".srt"
	case FormatVTT:
		return ".vtt"
	case FormatASS:
		return ".ass"
	case FormatText:
		return ".txt"
	default:
		return ""
	}
}

type codec struct {
	parse    func(raw string) []Entry
	generate func(entries []Entry) string
}

var codecs = map[Format]codec{
	FormatSRT:  {parse: parseSRT, generate: generateSRT},
	FormatVTT:  {parse: parseVTT, generate: generateVTT},
	FormatASS:  {parse: parseASS, generate: generateASS},
	FormatText: {parse: parseText, generate: generateText},
}

var extFormats = map[string]Format{
	".srt": FormatSRT,
	".vtt": FormatVTT,
	".ass": FormatASS,
	".ssa": FormatASS,
	".txt": FormatText,
}

// Formats lists the supported formats in a stable order.
func Formats() []Format {
	return []Format{FormatSRT, FormatVTT, FormatASS, FormatText}
}

// Extensions returns the file extensions recognised for f.
func (f Format) Extensions() []string {
	var ret []string
	for _, ext := range []string{".srt", ".vtt", ".ass", ".ssa", ".txt"} {
		if extFormats[ext] == f {
			ret = append(ret, ext)
		}
	}
	return ret
}

// FormatFromPath resolves the format from the file extension.
func FormatFromPath(path string) (Format, error) {
	ext := strings.ToLower(filepath.Ext(path))
	if f, ok := extFormats[ext]; ok {
		return f, nil
	}
	return FormatUnknown, fmt.Errorf("%w: %q", ErrUnsupportedFormat, ext)
}

// ParseFormat resolves a user supplied format name such as "srt" or "webvtt".
func ParseFormat(name string) (Format, error) {
	switch strings.ToLower(strings.TrimPrefix(strings.TrimSpace(name), ".")) {
	case "srt", "subrip":
		return FormatSRT, nil
	case "vtt", "webvtt":
		return FormatVTT, nil
	case "ass", "ssa":
		return FormatASS, nil
	case "txt", "text", "plain":
		return FormatText, nil
	default:
		return FormatUnknown, fmt.Errorf("%w: %q", ErrUnsupportedFormat, name)
	}
}

// DetectFormat sniffs the content when no extension hint is available.
func DetectFormat(content string) Format {
	switch {
	case strings.Contains(content, "WEBVTT"):
		return FormatVTT
	case strings.Contains(content, "[Events]"):
		return FormatASS
	default:
		return FormatSRT
	}
}

// Parse turns raw text into a document. Malformed blocks are skipped; an
// input with nothing usable yields an empty document, not an error.
func Parse(raw string, f Format) (*Document, error) {
	c, ok := codecs[f]
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrUnsupportedFormat, f)
	}
	entries := c.parse(normalizeNewlines(raw))
	if entries == nil {
		entries = []Entry{}
	}
	return &Document{
		Entries:  entries,
		Format:   f,
		Language: detectLanguage(entries),
	}, nil
}

// Generate renders the document in format f.
func Generate(doc *Document, f Format) (string, error) {
	c, ok := codecs[f]
	if !ok {
		return "", fmt.Errorf("%w: %s", ErrUnsupportedFormat, f)
	}
	if doc == nil {
		return "", fmt.Errorf("subtitle data is empty")
	}
	return c.generate(doc.Entries), nil
}

func normalizeNewlines(s string) string {
	s = strings.TrimPrefix(s, "\ufeff")
	s = strings.ReplaceAll(s, "\r\n", "\n")
	return strings.ReplaceAll(s, "\r", "\n")
}
