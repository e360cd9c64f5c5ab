package service

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/MimeLyc/batch-sub-translator/internal/config"
	"github.com/MimeLyc/batch-sub-translator/internal/llm"
	"github.com/MimeLyc/batch-sub-translator/internal/subtitle"
)

// mockTranslator is a testify mock for translator.Translator.
type mockTranslator struct {
	mock.Mock
}

func (m *mockTranslator) TranslateBatch(ctx context.Context, texts []string, synopsis string) ([]string, error) {
	args := m.Called(ctx, texts, synopsis)
	if v := args.Get(0); v != nil {
		return v.([]string), args.Error(1)
	}
	return nil, args.Error(1)
}

// funcTranslator adapts a function to translator.Translator and tracks concurrency.
type funcTranslator struct {
	fn       func(texts []string, synopsis string) ([]string, error)
	calls    atomic.Int64
	inFlight atomic.Int64
	maxSeen  atomic.Int64
	delay    time.Duration
}

func (f *funcTranslator) TranslateBatch(ctx context.Context, texts []string, synopsis string) ([]string, error) {
	f.calls.Add(1)
	n := f.inFlight.Add(1)
	defer f.inFlight.Add(-1)
	for {
		seen := f.maxSeen.Load()
		if n <= seen || f.maxSeen.CompareAndSwap(seen, n) {
			break
		}
	}
	if f.delay > 0 {
		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		case <-time.After(f.delay):
		}
	}
	return f.fn(texts, synopsis)
}

type staticSummarizer string

func (s staticSummarizer) Summarize(context.Context, []string) string { return string(s) }

// memoryCheckpoints is an in-memory batchCheckpointStore.
type memoryCheckpoints struct {
	mu    sync.Mutex
	items map[string][]string
	saves int
}

func newMemoryCheckpoints() *memoryCheckpoints {
	return &memoryCheckpoints{items: make(map[string][]string)}
}

func (m *memoryCheckpoints) Load(_ context.Context, texts []string) ([]string, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	v, ok := m.items[strings.Join(texts, "\x00")]
	return v, ok
}

func (m *memoryCheckpoints) Save(_ context.Context, texts []string, translated []string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.items[strings.Join(texts, "\x00")] = translated
	m.saves++
	return nil
}

func upper(texts []string, _ string) ([]string, error) {
	out := make([]string, len(texts))
	for i, t := range texts {
		out[i] = strings.ToUpper(t)
	}
	return out, nil
}

func makeDocument(n int) *subtitle.Document {
	doc := &subtitle.Document{Format: subtitle.FormatSRT}
	for i := 0; i < n; i++ {
		text := fmt.Sprintf("line %d", i+1)
		doc.Entries = append(doc.Entries, subtitle.Entry{
			Index: i + 1,
			Range: subtitle.TimeRange{
				Start: subtitle.Timestamp{Offset: time.Duration(i) * time.Second},
				End:   subtitle.Timestamp{Offset: time.Duration(i)*time.Second + 900*time.Millisecond},
			},
			Text:         text,
			OriginalText: text,
		})
	}
	return doc
}

// fakeBackend answers synopsis requests with a fixed summary and batch
// requests by prefixing every numbered subtitle line.
type fakeBackend struct {
	prefix     string
	failAll    bool
	batchCalls atomic.Int64
	ctxCalls   atomic.Int64

	mu      sync.Mutex
	prompts []string
}

func (b *fakeBackend) batchPrompts() []string {
	b.mu.Lock()
	defer b.mu.Unlock()
	return append([]string(nil), b.prompts...)
}

func (b *fakeBackend) ChatCompletion(_ context.Context, messages []llm.Message, opts *llm.ChatCompletionOptions) (*llm.ChatResponse, error) {
	prompt := messages[len(messages)-1].Content
	if !strings.Contains(prompt, "=== SUBTITLES ===") {
		b.ctxCalls.Add(1)
		return reply("A test episode."), nil
	}

	b.batchCalls.Add(1)
	b.mu.Lock()
	b.prompts = append(b.prompts, prompt)
	b.mu.Unlock()
	if b.failAll {
		return nil, &llm.StatusError{StatusCode: 503, Body: "unavailable"}
	}

	section := prompt[strings.Index(prompt, "=== SUBTITLES ===\n")+len("=== SUBTITLES ===\n"):]
	section = section[:strings.Index(section, "\n\n")]
	var out []string
	for _, line := range strings.Split(section, "\n") {
		_, text, _ := strings.Cut(line, ". ")
		out = append(out, b.prefix+text)
	}
	data, err := json.Marshal(map[string][]string{"translations": out})
	if err != nil {
		return nil, err
	}
	return reply(string(data)), nil
}

func reply(content string) *llm.ChatResponse {
	return &llm.ChatResponse{Choices: []llm.Choice{{Message: llm.Message{Role: "assistant", Content: content}}}}
}

func testConfig(t *testing.T) config.Config {
	t.Helper()
	cfg := *config.Default()
	cfg.LLM.APIKey = "test-key"
	cfg.System.DataDir = t.TempDir()
	cfg.Translate.RetryDelay = time.Millisecond
	cfg.Translate.MaxRetries = 1
	cfg.Translate.BatchSize = 2
	cfg.Translate.Concurrency = 2
	return cfg
}

var errBoom = errors.New("boom")

func requireTranslateError(t *testing.T, err error, want ErrorType) {
	t.Helper()
	require.Error(t, err)
	require.True(t, IsErrorType(err, want), "want %s, got %v", want, err)
}
