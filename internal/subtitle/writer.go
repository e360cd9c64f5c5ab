package subtitle

import (
	"bufio"
	"fmt"
	"os"
	"path/filepath"
)

// DefaultWriter renders documents in the format implied by the target path.
type DefaultWriter struct {
	// Fallback is used when the target path has no extension.
	Fallback Format
}

// NewWriter creates a new subtitle file writer
func NewWriter(fallback Format) Writer {
	return &DefaultWriter{Fallback: fallback}
}

// Write creates missing parent directories and writes doc to path.
func (w *DefaultWriter) Write(path string, doc *Document) error {
	if doc == nil {
		return fmt.Errorf("subtitle data is empty")
	}

	format, err := w.formatFor(path, doc)
	if err != nil {
		return err
	}

	content, err := Generate(doc, format)
	if err != nil {
		return err
	}

	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("failed to create output directory: %w", err)
	}

	file, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("failed to create output file: %w", err)
	}
	defer file.Close()

	writer := bufio.NewWriter(file)
	if _, err := writer.WriteString(content); err != nil {
		return fmt.Errorf("failed to write output file: %w", err)
	}
	if err := writer.Flush(); err != nil {
		return fmt.Errorf("failed to write output file: %w", err)
	}
	return file.Sync()
}

func (w *DefaultWriter) formatFor(path string, doc *Document) (Format, error) {
	if filepath.Ext(path) == "" {
		if w.Fallback != FormatUnknown {
			return w.Fallback, nil
		}
		return doc.Format, nil
	}
	return FormatFromPath(path)
}
