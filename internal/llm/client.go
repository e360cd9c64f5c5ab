package llm

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/MimeLyc/batch-sub-translator/pkg/log"
)

// Client calls an OpenAI-compatible chat completions endpoint. It is safe
// for concurrent use.
type Client struct {
	cfg  Config
	http *http.Client
}

func NewClient(cfg *Config) (*Client, error) {
	if cfg == nil {
		return nil, errors.New("llm: nil config")
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid llm config: %w", err)
	}
	return &Client{
		cfg:  *cfg,
		http: &http.Client{Timeout: cfg.timeout()},
	}, nil
}

// Model is the default model name sent with each request.
func (c *Client) Model() string {
	return c.cfg.Model
}

// ChatCompletion sends messages, prefixed by the options' system prompt.
func (c *Client) ChatCompletion(ctx context.Context, messages []Message, opts *ChatCompletionOptions) (*ChatResponse, error) {
	payload := c.request(messages, opts)
	requestID := uuid.NewString()

	start := time.Now()
	resp, err := c.post(ctx, requestID, payload)
	elapsed := time.Since(start).Round(time.Millisecond)
	if err != nil {
		log.Debug("chat %s failed after %s: %v", requestID[:8], elapsed, err)
		return nil, err
	}
	log.Debug("chat %s model=%s messages=%d tokens=%d+%d in %s",
		requestID[:8], payload.Model, len(payload.Messages),
		resp.Usage.PromptTokens, resp.Usage.CompletionTokens, elapsed)
	if resp.Truncated() {
		log.Warn("chat %s hit the max_tokens limit (%d)", requestID[:8], payload.MaxTokens)
	}
	return resp, nil
}

// Complete is a single-turn convenience wrapper returning the reply text.
func (c *Client) Complete(ctx context.Context, systemPrompt, prompt string) (string, error) {
	opts := NewChatCompletionOptions().WithSystemPrompt(systemPrompt)
	resp, err := c.ChatCompletion(ctx, []Message{{Role: "user", Content: prompt}}, opts)
	if err != nil {
		return "", err
	}
	return resp.Content()
}

func (c *Client) request(messages []Message, opts *ChatCompletionOptions) ChatRequest {
	if opts == nil {
		opts = NewChatCompletionOptions()
	}

	req := ChatRequest{
		Model:       c.cfg.Model,
		MaxTokens:   c.cfg.MaxTokens,
		Temperature: c.cfg.Temperature,
		Messages:    make([]Message, 0, len(messages)+1),
	}
	if opts.Model != "" {
		req.Model = opts.Model
	}
	if opts.MaxTokens > 0 {
		req.MaxTokens = opts.MaxTokens
	}
	if opts.Temperature != nil {
		req.Temperature = *opts.Temperature
	}
	if opts.JSONObject {
		req.ResponseFormat = &ResponseFormat{Type: "json_object"}
	}
	if opts.SystemPrompt != "" {
		req.Messages = append(req.Messages, Message{Role: "system", Content: opts.SystemPrompt})
	}
	req.Messages = append(req.Messages, messages...)
	return req
}

func (c *Client) post(ctx context.Context, requestID string, payload ChatRequest) (*ChatResponse, error) {
	body, err := json.Marshal(payload)
	if err != nil {
		return nil, fmt.Errorf("encode request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.cfg.endpoint(), bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("build request: %w", err)
	}
	req.Header.Set("Authorization", "Bearer "+c.cfg.APIKey)
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "application/json")
	req.Header.Set("User-Agent", userAgent)
	req.Header.Set("X-Request-ID", requestID)

	res, err := c.http.Do(req)
	if err != nil {
		return nil, fmt.Errorf("send request: %w", err)
	}
	defer res.Body.Close()

	data, err := io.ReadAll(res.Body)
	if err != nil {
		return nil, fmt.Errorf("read response: %w", err)
	}
	if res.StatusCode < 200 || res.StatusCode > 299 {
		return nil, statusError(res, requestID, data)
	}

	var out ChatResponse
	if err := json.Unmarshal(data, &out); err != nil {
		return nil, fmt.Errorf("decode response: %w", err)
	}
	if out.Error != nil && out.Error.Message != "" {
		return nil, out.Error
	}
	return &out, nil
}

func statusError(res *http.Response, requestID string, body []byte) *StatusError {
	e := &StatusError{
		StatusCode: res.StatusCode,
		RequestID:  requestID,
		RetryAfter: retryAfter(res.Header.Get("Retry-After")),
	}

	var envelope struct {
		Error *Error `json:"error"`
	}
	if json.Unmarshal(body, &envelope) == nil && envelope.Error != nil && envelope.Error.Message != "" {
		e.API = envelope.Error
	}

	text := strings.TrimSpace(string(body))
	if len(text) > maxErrorBodyLen {
		text = text[:maxErrorBodyLen] + "..."
	}
	e.Body = text
	return e
}

// retryAfter understands both delta-seconds and HTTP-date values.
func retryAfter(v string) time.Duration {
	v = strings.TrimSpace(v)
	if v == "" {
		return 0
	}
	if secs, err := strconv.Atoi(v); err == nil && secs > 0 {
		return time.Duration(secs) * time.Second
	}
	if at, err := http.ParseTime(v); err == nil {
		if d := time.Until(at); d > 0 {
			return d
		}
	}
	return 0
}
