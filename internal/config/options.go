package config

import (
	"time"

	"golang.org/x/text/language"
)

func WithAPIKey(key string) Option {
	return func(c *Config) { c.LLM.APIKey = key }
}

func WithModel(model string) Option {
	return func(c *Config) { c.LLM.Model = model }
}

func WithSourceLanguage(code string) Option {
	return func(c *Config) { c.Translate.SourceLanguage = code }
}

func WithTargetLanguage(tag language.Tag) Option {
	return func(c *Config) { c.Translate.TargetLanguage = tag }
}

func WithStyle(style string) Option {
	return func(c *Config) { c.Translate.Style = style }
}

func WithBatchSize(n int) Option {
	return func(c *Config) { c.Translate.BatchSize = n }
}

func WithConcurrency(n int) Option {
	return func(c *Config) { c.Translate.Concurrency = n }
}

func WithMaxRetries(n int) Option {
	return func(c *Config) { c.Translate.MaxRetries = n }
}

func WithRequestDelay(d time.Duration) Option {
	return func(c *Config) { c.Translate.RequestDelay = d }
}

func WithAutofix(enabled bool) Option {
	return func(c *Config) { c.Translate.Autofix = enabled }
}

// WithDryRun also lifts the credential requirement.
func WithDryRun(enabled bool) Option {
	return func(c *Config) { c.Translate.DryRun = enabled }
}

func WithTermMapPath(path string) Option {
	return func(c *Config) { c.Translate.TermMapPath = path }
}

func WithReportPath(path string) Option {
	return func(c *Config) { c.Translate.ReportPath = path }
}

func WithWatchDirs(dirs ...string) Option {
	return func(c *Config) { c.Watch.Dirs = dirs }
}

func WithCronExpr(expr string) Option {
	return func(c *Config) { c.Watch.CronExpr = expr }
}

func WithWatchText(include bool) Option {
	return func(c *Config) { c.Watch.IncludeText = include }
}

func WithDataDir(dir string) Option {
	return func(c *Config) { c.System.DataDir = dir }
}

func WithCache(enabled bool) Option {
	return func(c *Config) { c.System.CacheEnabled = enabled }
}

func WithLogLevel(level string) Option {
	return func(c *Config) { c.System.LogLevel = level }
}

// Offline skips the credential check for commands that never reach the backend.
func Offline() Option {
	return func(c *Config) { c.offline = true }
}
