package translator

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/MimeLyc/batch-sub-translator/internal/llm"
	"github.com/MimeLyc/batch-sub-translator/internal/termmap"
)

var (
	// ErrCountMismatch means the reply did not carry exactly one translation per input line.
	ErrCountMismatch = errors.New("translation count mismatch")
	// ErrEmptyResponse means the backend returned no content.
	ErrEmptyResponse = errors.New("empty translation response")
	// ErrMalformedResponse means no translations could be extracted at all.
	ErrMalformedResponse = errors.New("malformed translation response")
)

// Backend is the chat-completion service translations are sent to.
// *llm.Client satisfies it.
type Backend interface {
	ChatCompletion(ctx context.Context, messages []llm.Message, opts *llm.ChatCompletionOptions) (*llm.ChatResponse, error)
}

// Translator translates one batch of texts, returning exactly len(texts) strings.
type Translator interface {
	TranslateBatch(ctx context.Context, texts []string, synopsis string) ([]string, error)
}

// Summarizer produces the per-document context synopsis. It never fails;
// callers get FallbackContext when the backend cannot help.
type Summarizer interface {
	Summarize(ctx context.Context, texts []string) string
}

// Style selects the tone directive given to the model.
type Style string

const (
	StyleNatural Style = "natural"
	StyleFormal  Style = "formal"
	StyleCasual  Style = "casual"
	StyleLiteral Style = "literal"
	StyleConcise Style = "concise"
)

var styleDirectives = map[Style]string{
	StyleNatural: "Use natural, fluent expressions a native speaker would use in everyday speech",
	StyleFormal:  "Use a formal, polite register and complete sentences",
	StyleCasual:  "Use a relaxed, colloquial register that matches spoken dialogue",
	StyleLiteral: "Stay as close to the source wording as the target grammar allows",
	StyleConcise: "Keep each line short enough to read on screen, trimming filler words",
}

// Styles lists the supported styles.
func Styles() []Style {
	return []Style{StyleNatural, StyleFormal, StyleCasual, StyleLiteral, StyleConcise}
}

// ParseStyle validates a style name. Empty selects StyleNatural.
func ParseStyle(s string) (Style, error) {
	s = strings.ToLower(strings.TrimSpace(s))
	if s == "" {
		return StyleNatural, nil
	}
	if _, ok := styleDirectives[Style(s)]; !ok {
		return "", fmt.Errorf("unknown translation style %q", s)
	}
	return Style(s), nil
}

// Directive returns the prompt instruction for the style.
func (s Style) Directive() string {
	if d, ok := styleDirectives[s]; ok {
		return d
	}
	return styleDirectives[StyleNatural]
}

// Options is the immutable configuration handed to every translation call.
type Options struct {
	SourceLanguage string // display name, e.g. "English"; empty lets the model infer it
	TargetLanguage string // display name, e.g. "Traditional Chinese"
	Style          Style
	Model          string // empty uses the backend default
	Temperature    float64
	MaxTokens      int
	MaxRetries     int           // extra attempts after the first one
	RetryDelay     time.Duration // linear backoff unit
	TermMap        termmap.TermMap
}

// BatchError is returned once every attempt for a batch has failed.
type BatchError struct {
	Attempts int
	Err      error
}

func (e *BatchError) Error() string {
	return fmt.Sprintf("batch translation failed after %d attempts: %v", e.Attempts, e.Err)
}

func (e *BatchError) Unwrap() error {
	return e.Err
}
