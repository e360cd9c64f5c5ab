package translator

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/MimeLyc/batch-sub-translator/internal/llm"
	"github.com/MimeLyc/batch-sub-translator/pkg/log"
)

// BatchTranslator sends batches of subtitle texts to a Backend.
type BatchTranslator struct {
	backend Backend
	opts    Options
	sleep   func(ctx context.Context, d time.Duration) error
}

// NewBatchTranslator creates a translator. A negative MaxRetries is treated as zero.
func NewBatchTranslator(backend Backend, opts Options) *BatchTranslator {
	if opts.MaxRetries < 0 {
		opts.MaxRetries = 0
	}
	if opts.Style == "" {
		opts.Style = StyleNatural
	}
	return &BatchTranslator{
		backend: backend,
		opts:    opts,
		sleep:   sleepContext,
	}
}

// Options returns the options the translator was built with.
func (t *BatchTranslator) Options() Options {
	return t.opts
}

// TranslateBatch translates texts in one request, retrying up to MaxRetries
// times. Attempt k failing waits k*RetryDelay before the next attempt.
func (t *BatchTranslator) TranslateBatch(ctx context.Context, texts []string, synopsis string) ([]string, error) {
	if len(texts) == 0 {
		return []string{}, nil
	}

	prompt := buildBatchPrompt(texts, synopsis, t.opts)
	maxAttempts := t.opts.MaxRetries + 1

	var lastErr error
	for attempt := 1; attempt <= maxAttempts; attempt++ {
		translations, err := t.attempt(ctx, prompt, len(texts))
		if err == nil {
			return translations, nil
		}
		lastErr = err

		if ctxErr := ctx.Err(); ctxErr != nil {
			return nil, &BatchError{Attempts: attempt, Err: ctxErr}
		}
		if attempt == maxAttempts {
			break
		}

		wait := time.Duration(attempt) * t.opts.RetryDelay
		var statusErr *llm.StatusError
		if errors.As(err, &statusErr) && statusErr.RetryAfter > wait {
			wait = statusErr.RetryAfter
		}
		log.Warn("Batch attempt %d/%d failed: %v (retrying in %v)", attempt, maxAttempts, err, wait)
		if err := t.sleep(ctx, wait); err != nil {
			return nil, &BatchError{Attempts: attempt, Err: err}
		}
	}

	return nil, &BatchError{Attempts: maxAttempts, Err: lastErr}
}

func (t *BatchTranslator) attempt(ctx context.Context, prompt string, n int) ([]string, error) {
	resp, err := t.backend.ChatCompletion(ctx,
		[]llm.Message{{Role: "user", Content: prompt}},
		completionOptions(t.opts, translatorSystemPrompt).WithJSONObject(),
	)
	if err != nil {
		return nil, fmt.Errorf("chat completion: %w", err)
	}

	content, err := resp.Content()
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrEmptyResponse, err)
	}

	return parseTranslations(content, n)
}

func completionOptions(o Options, systemPrompt string) *llm.ChatCompletionOptions {
	opts := llm.NewChatCompletionOptions().WithSystemPrompt(systemPrompt)
	if o.Model != "" {
		opts = opts.WithModel(o.Model)
	}
	if o.MaxTokens > 0 {
		opts = opts.WithMaxTokens(o.MaxTokens)
	}
	if o.Temperature > 0 {
		opts = opts.WithTemperature(o.Temperature)
	}
	return opts
}

func sleepContext(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return ctx.Err()
	}
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}
