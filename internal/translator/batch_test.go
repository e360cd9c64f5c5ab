package translator

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/MimeLyc/batch-sub-translator/internal/llm"
	"github.com/MimeLyc/batch-sub-translator/internal/termmap"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

func newTestTranslator(backend Backend, opts Options) (*BatchTranslator, *[]time.Duration) {
	tr := NewBatchTranslator(backend, opts)
	var waits []time.Duration
	tr.sleep = func(ctx context.Context, d time.Duration) error {
		waits = append(waits, d)
		return ctx.Err()
	}
	return tr, &waits
}

func TestTranslateBatchSuccess(t *testing.T) {
	backend := &scriptedBackend{replies: []scriptedReply{{content: `{"translations": ["你好", "再见"]}`}}}
	tr, waits := newTestTranslator(backend, Options{TargetLanguage: "Chinese", MaxRetries: 3, RetryDelay: time.Second})

	got, err := tr.TranslateBatch(context.Background(), []string{"Hello", "Goodbye"}, "A short film")
	require.NoError(t, err)
	assert.Equal(t, []string{"你好", "再见"}, got)
	assert.Equal(t, 1, backend.calls)
	assert.Empty(t, *waits)
}

func TestTranslateBatchRetryExhaustion(t *testing.T) {
	backend := &scriptedBackend{replies: []scriptedReply{{err: errors.New("boom")}}}
	tr, waits := newTestTranslator(backend, Options{TargetLanguage: "French", MaxRetries: 3, RetryDelay: time.Second})

	_, err := tr.TranslateBatch(context.Background(), []string{"Hello"}, "")
	require.Error(t, err)

	var batchErr *BatchError
	require.ErrorAs(t, err, &batchErr)
	assert.Equal(t, 4, batchErr.Attempts)
	assert.Equal(t, 4, backend.calls)
	assert.Contains(t, err.Error(), "boom")
	assert.Equal(t, []time.Duration{time.Second, 2 * time.Second, 3 * time.Second}, *waits)
}

func TestTranslateBatchCountMismatchIsRetried(t *testing.T) {
	backend := &scriptedBackend{replies: []scriptedReply{
		{content: `{"translations": ["only one"]}`},
		{content: `{"translations": ["un", "deux"]}`},
	}}
	tr, waits := newTestTranslator(backend, Options{TargetLanguage: "French", MaxRetries: 1, RetryDelay: 10 * time.Millisecond})

	got, err := tr.TranslateBatch(context.Background(), []string{"one", "two"}, "")
	require.NoError(t, err)
	assert.Equal(t, []string{"un", "deux"}, got)
	assert.Equal(t, 2, backend.calls)
	assert.Equal(t, []time.Duration{10 * time.Millisecond}, *waits)
}

func TestTranslateBatchHonoursRetryAfter(t *testing.T) {
	backend := &scriptedBackend{replies: []scriptedReply{
		{err: &llm.StatusError{StatusCode: 429, RetryAfter: 5 * time.Second}},
		{content: `{"translations": ["salut"]}`},
	}}
	tr, waits := newTestTranslator(backend, Options{TargetLanguage: "French", MaxRetries: 2, RetryDelay: time.Second})

	got, err := tr.TranslateBatch(context.Background(), []string{"hi"}, "")
	require.NoError(t, err)
	assert.Equal(t, []string{"salut"}, got)
	assert.Equal(t, []time.Duration{5 * time.Second}, *waits)
}

func TestTranslateBatchNeverPads(t *testing.T) {
	backend := &scriptedBackend{replies: []scriptedReply{{content: `{"translations": ["a"]}`}}}
	tr, _ := newTestTranslator(backend, Options{MaxRetries: 0})

	_, err := tr.TranslateBatch(context.Background(), []string{"x", "y"}, "")
	assert.ErrorIs(t, err, ErrCountMismatch)
	assert.Equal(t, 1, backend.calls)
}

func TestTranslateBatchZeroRetriesSingleAttempt(t *testing.T) {
	backend := &scriptedBackend{replies: []scriptedReply{{err: errors.New("down")}}}
	tr, waits := newTestTranslator(backend, Options{MaxRetries: -2})

	_, err := tr.TranslateBatch(context.Background(), []string{"x"}, "")
	var batchErr *BatchError
	require.ErrorAs(t, err, &batchErr)
	assert.Equal(t, 1, batchErr.Attempts)
	assert.Empty(t, *waits)
}

func TestTranslateBatchStopsOnCancel(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	backend := &scriptedBackend{replies: []scriptedReply{{err: context.Canceled}}}
	tr := NewBatchTranslator(backend, Options{MaxRetries: 5, RetryDelay: time.Hour})

	_, err := tr.TranslateBatch(ctx, []string{"x"}, "")
	assert.ErrorIs(t, err, context.Canceled)
	assert.Equal(t, 1, backend.calls)
}

func TestTranslateBatchEmptyInput(t *testing.T) {
	backend := &MockBackend{}
	tr := NewBatchTranslator(backend, Options{})

	got, err := tr.TranslateBatch(context.Background(), nil, "")
	require.NoError(t, err)
	assert.Empty(t, got)
	backend.AssertNotCalled(t, "ChatCompletion", mock.Anything, mock.Anything, mock.Anything)
}

func TestTranslateBatchPromptContents(t *testing.T) {
	backend := &MockBackend{}
	backend.On("ChatCompletion", mock.Anything, mock.MatchedBy(func(msgs []llm.Message) bool {
		p := msgs[0].Content
		return assert.Contains(t, p, "Translate the following English subtitles into Japanese.") &&
			assert.Contains(t, p, "A detective story") &&
			assert.Contains(t, p, StyleFormal.Directive()) &&
			assert.Contains(t, p, "- Sherlock => シャーロック") &&
			assert.NotContains(t, p, "Moriarty") &&
			assert.Contains(t, p, "1. Sherlock, come here.") &&
			assert.Contains(t, p, "2. First line"+InlineBreaker+"second line") &&
			assert.Contains(t, p, "exactly 2 translated strings")
	}), mock.MatchedBy(func(opts *llm.ChatCompletionOptions) bool {
		return opts.Model == "mistral-large-latest" && opts.MaxTokens == 2000 &&
			opts.Temperature != nil && *opts.Temperature == 0.5 &&
			opts.SystemPrompt == translatorSystemPrompt && opts.JSONObject
	})).Return(response(`{"translations": ["シャーロック、来て。", "一行目%%inline_breaker%%二行目"]}`), nil).Once()

	tr := NewBatchTranslator(backend, Options{
		SourceLanguage: "English",
		TargetLanguage: "Japanese",
		Style:          StyleFormal,
		Model:          "mistral-large-latest",
		MaxTokens:      2000,
		Temperature:    0.5,
		TermMap:        termmap.TermMap{"Sherlock": "シャーロック", "Moriarty": "モリアーティ"},
	})

	got, err := tr.TranslateBatch(context.Background(), []string{"Sherlock, come here.", "First line\nsecond line"}, "A detective story")
	require.NoError(t, err)
	assert.Equal(t, []string{"シャーロック、来て。", "一行目\n二行目"}, got)
	backend.AssertExpectations(t)
}

func TestSleepContext(t *testing.T) {
	assert.NoError(t, sleepContext(context.Background(), time.Millisecond))

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	start := time.Now()
	assert.ErrorIs(t, sleepContext(ctx, time.Hour), context.Canceled)
	assert.Less(t, time.Since(start), time.Second)
}

func TestParseStyle(t *testing.T) {
	style, err := ParseStyle("")
	require.NoError(t, err)
	assert.Equal(t, StyleNatural, style)

	style, err = ParseStyle(" Concise ")
	require.NoError(t, err)
	assert.Equal(t, StyleConcise, style)

	_, err = ParseStyle("poetic")
	assert.Error(t, err)

	assert.Len(t, Styles(), 5)
	for _, s := range Styles() {
		assert.NotEmpty(t, s.Directive())
	}
}

func TestLanguageName(t *testing.T) {
	assert.Equal(t, "Traditional Chinese", LanguageName("zh-Hant"))
	assert.Equal(t, "English", LanguageName("en"))
	assert.Equal(t, "Japanese", LanguageName("ja"))
	assert.Equal(t, "", LanguageName(""))
	assert.Equal(t, "not a tag!", LanguageName("not a tag!"))
}
