package llm

import (
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"
)

// ErrNoChoices is returned by ChatResponse.Content when the backend
// answered without any completion.
var ErrNoChoices = errors.New("llm: response has no choices")

// Message is one chat turn.
type Message struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

// ResponseFormat constrains the shape of the assistant reply.
type ResponseFormat struct {
	Type string `json:"type"`
}

// ChatRequest is the OpenAI-compatible request body.
type ChatRequest struct {
	Model          string          `json:"model"`
	Messages       []Message       `json:"messages"`
	MaxTokens      int             `json:"max_tokens,omitempty"`
	Temperature    float64         `json:"temperature"`
	ResponseFormat *ResponseFormat `json:"response_format,omitempty"`
}

type Choice struct {
	Index        int     `json:"index"`
	Message      Message `json:"message"`
	FinishReason string  `json:"finish_reason"`
}

type Usage struct {
	PromptTokens     int `json:"prompt_tokens"`
	CompletionTokens int `json:"completion_tokens"`
	TotalTokens      int `json:"total_tokens"`
}

// ChatResponse is the subset of the completion response the translator reads.
type ChatResponse struct {
	ID      string   `json:"id"`
	Model   string   `json:"model"`
	Choices []Choice `json:"choices"`
	Usage   Usage    `json:"usage"`
	Error   *Error   `json:"error,omitempty"`
}

// Content returns the first choice's text.
func (r *ChatResponse) Content() (string, error) {
	if r == nil || len(r.Choices) == 0 {
		return "", ErrNoChoices
	}
	return r.Choices[0].Message.Content, nil
}

// Truncated reports whether the first choice stopped at the token limit.
func (r *ChatResponse) Truncated() bool {
	return r != nil && len(r.Choices) > 0 && r.Choices[0].FinishReason == "length"
}

// Error is the error object carried in an API response body.
type Error struct {
	Message string `json:"message"`
	Type    string `json:"type"`
	Code    any    `json:"code,omitempty"`
}

func (e *Error) Error() string {
	if e.Type == "" {
		return "api error: " + e.Message
	}
	return fmt.Sprintf("api error (%s): %s", e.Type, e.Message)
}

// StatusError is a non-2xx HTTP reply.
type StatusError struct {
	StatusCode int
	Body       string
	RequestID  string
	// RetryAfter is the server's Retry-After hint, zero when absent.
	RetryAfter time.Duration
	API        *Error
}

func (e *StatusError) Error() string {
	var b strings.Builder
	fmt.Fprintf(&b, "http %d", e.StatusCode)
	if text := http.StatusText(e.StatusCode); text != "" {
		b.WriteString(" " + strings.ToLower(text))
	}
	switch {
	case e.API != nil:
		b.WriteString(": " + e.API.Message)
	case e.Body != "":
		b.WriteString(": " + e.Body)
	}
	return b.String()
}

func (e *StatusError) Unwrap() error {
	if e.API == nil {
		return nil
	}
	return e.API
}

// Retryable reports whether the request may succeed when repeated.
func (e *StatusError) Retryable() bool {
	return e.StatusCode == http.StatusTooManyRequests ||
		e.StatusCode == http.StatusRequestTimeout ||
		e.StatusCode >= 500
}

// ChatCompletionOptions overrides per-call settings; zero values keep the
// client defaults.
type ChatCompletionOptions struct {
	Model        string
	MaxTokens    int
	Temperature  *float64
	SystemPrompt string
	JSONObject   bool
}

func NewChatCompletionOptions() *ChatCompletionOptions {
	return &ChatCompletionOptions{}
}

func (o *ChatCompletionOptions) WithModel(model string) *ChatCompletionOptions {
	o.Model = model
	return o
}

func (o *ChatCompletionOptions) WithMaxTokens(n int) *ChatCompletionOptions {
	o.MaxTokens = n
	return o
}

func (o *ChatCompletionOptions) WithTemperature(t float64) *ChatCompletionOptions {
	o.Temperature = &t
	return o
}

func (o *ChatCompletionOptions) WithSystemPrompt(prompt string) *ChatCompletionOptions {
	o.SystemPrompt = prompt
	return o
}

// WithJSONObject asks the backend to reply with a single JSON object.
func (o *ChatCompletionOptions) WithJSONObject() *ChatCompletionOptions {
	o.JSONObject = true
	return o
}
