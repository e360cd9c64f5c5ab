package llm

import (
	"errors"
	"net/url"
	"strings"
	"time"
)

const (
	DefaultAPIURL = "https://api.mistral.ai/v1"
	DefaultModel  = "mistral-small-latest"

	userAgent       = "batch-sub-translator"
	maxErrorBodyLen = 512
)

// Config describes one OpenAI-compatible chat endpoint.
type Config struct {
	APIKey      string
	APIURL      string
	Model       string
	MaxTokens   int
	Temperature float64
	// Timeout is the per-request limit in seconds.
	Timeout int
}

// Validate reports every invalid field at once.
func (c *Config) Validate() error {
	var errs []error
	if strings.TrimSpace(c.APIKey) == "" {
		errs = append(errs, errors.New("API key is required"))
	}
	if u, err := url.Parse(c.APIURL); err != nil || u.Host == "" || (u.Scheme != "http" && u.Scheme != "https") {
		errs = append(errs, errors.New("API URL must be an absolute http(s) URL"))
	}
	if strings.TrimSpace(c.Model) == "" {
		errs = append(errs, errors.New("model is required"))
	}
	if c.MaxTokens <= 0 {
		errs = append(errs, errors.New("max tokens must be positive"))
	}
	if c.Temperature < 0 || c.Temperature > 2 {
		errs = append(errs, errors.New("temperature must be within [0, 2]"))
	}
	if c.Timeout <= 0 {
		errs = append(errs, errors.New("timeout must be positive"))
	}
	return errors.Join(errs...)
}

func (c *Config) endpoint() string {
	return strings.TrimRight(c.APIURL, "/") + "/chat/completions"
}

func (c *Config) timeout() time.Duration {
	return time.Duration(c.Timeout) * time.Second
}
