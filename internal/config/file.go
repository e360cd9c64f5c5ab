package config

import (
	"fmt"
	"os"
	"time"

	"github.com/pelletier/go-toml/v2"
	"golang.org/x/text/language"
)

// fileConfig mirrors Config for the TOML file; nil fields keep the current value.
type fileConfig struct {
	LLM struct {
		APIKey      *string  `toml:"api_key"`
		APIURL      *string  `toml:"api_url"`
		Model       *string  `toml:"model"`
		MaxTokens   *int     `toml:"max_tokens"`
		Temperature *float64 `toml:"temperature"`
		Timeout     *int     `toml:"timeout"`
	} `toml:"llm"`
	Translate struct {
		SourceLanguage *string `toml:"source_language"`
		TargetLanguage *string `toml:"target_language"`
		Style          *string `toml:"style"`
		BatchSize      *int    `toml:"batch_size"`
		Concurrency    *int    `toml:"concurrency"`
		MaxRetries     *int    `toml:"max_retries"`
		RetryDelay     *string `toml:"retry_delay"`
		RequestDelay   *string `toml:"request_delay"`
		Autofix        *bool   `toml:"autofix"`
		TermMap        *string `toml:"term_map"`
	} `toml:"translate"`
	Watch struct {
		Dirs     []string `toml:"dirs"`
		Cron     *string  `toml:"cron"`
		Lookback *string  `toml:"lookback"`
		Text     *bool    `toml:"include_text"`
	} `toml:"watch"`
	System struct {
		DataDir  *string `toml:"data_dir"`
		Cache    *bool   `toml:"cache"`
		LogLevel *string `toml:"log_level"`
	} `toml:"system"`
}

func loadFile(path string, c *Config) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("read config file: %w", err)
	}
	var fc fileConfig
	if err := toml.Unmarshal(data, &fc); err != nil {
		return fmt.Errorf("parse config file %s: %w", path, err)
	}
	return fc.apply(c)
}

func (fc *fileConfig) apply(c *Config) error {
	setString(&c.LLM.APIKey, fc.LLM.APIKey)
	setString(&c.LLM.APIURL, fc.LLM.APIURL)
	setString(&c.LLM.Model, fc.LLM.Model)
	setInt(&c.LLM.MaxTokens, fc.LLM.MaxTokens)
	if fc.LLM.Temperature != nil {
		c.LLM.Temperature = *fc.LLM.Temperature
	}
	setInt(&c.LLM.Timeout, fc.LLM.Timeout)

	setString(&c.Translate.SourceLanguage, fc.Translate.SourceLanguage)
	if fc.Translate.TargetLanguage != nil {
		tag, err := language.Parse(*fc.Translate.TargetLanguage)
		if err != nil {
			return fmt.Errorf("invalid translate.target_language %q: %w", *fc.Translate.TargetLanguage, err)
		}
		c.Translate.TargetLanguage = tag
	}
	setString(&c.Translate.Style, fc.Translate.Style)
	setInt(&c.Translate.BatchSize, fc.Translate.BatchSize)
	setInt(&c.Translate.Concurrency, fc.Translate.Concurrency)
	setInt(&c.Translate.MaxRetries, fc.Translate.MaxRetries)
	if err := setDuration(&c.Translate.RetryDelay, fc.Translate.RetryDelay, "translate.retry_delay"); err != nil {
		return err
	}
	if err := setDuration(&c.Translate.RequestDelay, fc.Translate.RequestDelay, "translate.request_delay"); err != nil {
		return err
	}
	if fc.Translate.Autofix != nil {
		c.Translate.Autofix = *fc.Translate.Autofix
	}
	setString(&c.Translate.TermMapPath, fc.Translate.TermMap)

	if len(fc.Watch.Dirs) > 0 {
		c.Watch.Dirs = fc.Watch.Dirs
	}
	setString(&c.Watch.CronExpr, fc.Watch.Cron)
	if fc.Watch.Text != nil {
		c.Watch.IncludeText = *fc.Watch.Text
	}
	if err := setDuration(&c.Watch.Lookback, fc.Watch.Lookback, "watch.lookback"); err != nil {
		return err
	}

	setString(&c.System.DataDir, fc.System.DataDir)
	if fc.System.Cache != nil {
		c.System.CacheEnabled = *fc.System.Cache
	}
	setString(&c.System.LogLevel, fc.System.LogLevel)
	return nil
}

func setString(dst *string, v *string) {
	if v != nil {
		*dst = *v
	}
}

func setInt(dst *int, v *int) {
	if v != nil {
		*dst = *v
	}
}

func setDuration(dst *time.Duration, v *string, field string) error {
	if v == nil {
		return nil
	}
	d, err := parseDuration(*v)
	if err != nil {
		return fmt.Errorf("invalid %s %q: %w", field, *v, err)
	}
	*dst = d
	return nil
}
