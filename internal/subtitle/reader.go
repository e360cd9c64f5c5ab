package subtitle

import (
	"errors"
	"fmt"
	"os"

	"github.com/abadojack/whatlanggo"
)

// DefaultReader reads subtitle files, picking the format from the extension
// and falling back to content sniffing for unknown extensions.
type DefaultReader struct{}

// NewReader creates a new subtitle file reader
func NewReader() Reader {
	return &DefaultReader{}
}

func (r *DefaultReader) Read(path string) (*Document, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, fmt.Errorf("subtitle file does not exist: %s: %w", path, err)
		}
		return nil, fmt.Errorf("failed to read subtitle file: %w", err)
	}
	return ReadBytes(data, path)
}

// ReadBytes parses in-memory subtitle content; path is used for the format
// hint and recorded on the document.
func ReadBytes(data []byte, path string) (*Document, error) {
	content := string(data)

	format, err := FormatFromPath(path)
	if err != nil {
		format = DetectFormat(content)
	}

	doc, err := Parse(content, format)
	if err != nil {
		return nil, err
	}
	doc.Path = path
	return doc, nil
}

// detectLanguage returns the most frequent ISO 639-1 code among entry texts.
func detectLanguage(entries []Entry) string {
	if len(entries) == 0 {
		return ""
	}

	counts := make(map[string]int)
	for _, e := range entries {
		code := whatlanggo.DetectLang(e.Text).Iso6391()
		if code == "" {
			continue
		}
		counts[code]++
	}

	var top string
	var topCount int
	for code, count := range counts {
		if count > topCount || (count == topCount && code < top) {
			top = code
			topCount = count
		}
	}
	return top
}
