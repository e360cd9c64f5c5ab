package translator

import (
	"context"
	"strings"

	"github.com/MimeLyc/batch-sub-translator/internal/llm"
	"github.com/MimeLyc/batch-sub-translator/pkg/log"
)

// ContextBuilder asks the backend for a synopsis of the document that is
// then shared by every batch prompt.
type ContextBuilder struct {
	backend Backend
	opts    Options
}

func NewContextBuilder(backend Backend, opts Options) *ContextBuilder {
	return &ContextBuilder{backend: backend, opts: opts}
}

// Build makes a single summarisation call over the first ContextSampleLines
// texts. Any failure yields FallbackContext.
func (b *ContextBuilder) Build(ctx context.Context, texts []string) string {
	if len(texts) == 0 {
		return FallbackContext
	}

	resp, err := b.backend.ChatCompletion(ctx,
		[]llm.Message{{Role: "user", Content: buildContextPrompt(texts, b.opts)}},
		completionOptions(b.opts, analystSystemPrompt),
	)
	if err != nil {
		log.Warn("Context analysis failed, using fallback: %v", err)
		return FallbackContext
	}

	content, err := resp.Content()
	if err != nil || strings.TrimSpace(content) == "" {
		log.Warn("Context analysis returned no content, using fallback")
		return FallbackContext
	}

	return strings.TrimSpace(content)
}

// Summarize implements Summarizer.
func (b *ContextBuilder) Summarize(ctx context.Context, texts []string) string {
	return b.Build(ctx, texts)
}
