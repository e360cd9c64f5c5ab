package translator

import (
	"context"
	"errors"
	"sync"

	"github.com/MimeLyc/batch-sub-translator/internal/llm"
	"github.com/stretchr/testify/mock"
)

// MockBackend is a testify mock for Backend.
type MockBackend struct {
	mock.Mock
}

func (m *MockBackend) ChatCompletion(ctx context.Context, messages []llm.Message, opts *llm.ChatCompletionOptions) (*llm.ChatResponse, error) {
	args := m.Called(ctx, messages, opts)
	if resp := args.Get(0); resp != nil {
		return resp.(*llm.ChatResponse), args.Error(1)
	}
	return nil, args.Error(1)
}

// scriptedBackend replies with the next scripted answer on every call.
type scriptedBackend struct {
	mu      sync.Mutex
	replies []scriptedReply
	calls   int
	prompts []string
	opts    []*llm.ChatCompletionOptions
}

type scriptedReply struct {
	content string
	err     error
}

func (b *scriptedBackend) ChatCompletion(_ context.Context, messages []llm.Message, opts *llm.ChatCompletionOptions) (*llm.ChatResponse, error) {
	b.mu.Lock()
	defer b.mu.Unlock()

	b.calls++
	b.prompts = append(b.prompts, messages[len(messages)-1].Content)
	b.opts = append(b.opts, opts)
	if len(b.replies) == 0 {
		return nil, errors.New("no scripted reply")
	}
	reply := b.replies[0]
	if len(b.replies) > 1 {
		b.replies = b.replies[1:]
	}
	if reply.err != nil {
		return nil, reply.err
	}
	return response(reply.content), nil
}

func response(content string) *llm.ChatResponse {
	return &llm.ChatResponse{
		Choices: []llm.Choice{{Message: llm.Message{Role: "assistant", Content: content}, FinishReason: "stop"}},
	}
}
