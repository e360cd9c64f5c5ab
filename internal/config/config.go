package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"golang.org/x/text/language"

	"github.com/MimeLyc/batch-sub-translator/internal/llm"
	"github.com/MimeLyc/batch-sub-translator/internal/translator"
	"github.com/MimeLyc/batch-sub-translator/pkg/icron"
	"github.com/MimeLyc/batch-sub-translator/pkg/log"
)

// Config holds all application configuration.
//
// Values are resolved in this order, later wins: built-in defaults, the TOML
// file named by SUBTRANS_CONFIG, environment variables, then Options.
//
// Environment Variables:
// LLM Configuration:
// - MISTRAL_API_KEY / LLM_API_KEY: API key, first non-empty wins (required unless dry run)
// - LLM_API_URL: API endpoint URL (default: https://api.mistral.ai/v1)
// - LLM_MODEL: Model name (default: mistral-small-latest)
// - LLM_MAX_TOKENS: Maximum tokens per response (default: 4000)
// - LLM_TEMPERATURE: Sampling temperature (default: 0.3)
// - LLM_TIMEOUT: Request timeout in seconds (default: 60)
//
// Translate Configuration:
// - SOURCE_LANGUAGE: BCP 47 source code, empty to detect (default: "")
// - TARGET_LANGUAGE: BCP 47 target code (default: zh-Hant)
// - TRANSLATE_STYLE: natural, formal, casual, literal or concise (default: natural)
// - BATCH_SIZE (default: 10), CONCURRENCY (default: 5), MAX_RETRIES (default: 3)
// - RETRY_DELAY (default: 1s), REQUEST_DELAY (default: 0s); plain integers are milliseconds
// - AUTOFIX: renumber entries and report timing overlaps (default: false)
// - TERM_MAP_FILE: glossary path, empty to search next to the input (default: "")
//
// Watch Configuration:
// - WATCH_DIRS: directories separated by the OS list separator
// - CRON_EXPR: scan schedule (default: */10 * * * *)
// - WATCH_LOOKBACK: how far back the first scan looks (default: 168h)
// - WATCH_INCLUDE_TEXT: also pick up plain .txt files (default: false)
//
// System Configuration:
// - DATA_DIR: directory holding subtrans.db (default: user cache dir)
// - CACHE_ENABLED: reuse translated batches across runs (default: true)
// - LOG_LEVEL: debug, info, warn or error (default: info)
type Config struct {
	LLM       LLMConfig       `json:"llm"`
	Translate TranslateConfig `json:"translate"`
	Watch     WatchConfig     `json:"watch"`
	System    SystemConfig    `json:"system"`

	// offline commands never call the backend and need no credential
	offline bool
}

// LLMConfig holds the configuration for the chat-completion backend.
type LLMConfig struct {
	APIKey      string  `json:"api_key"`
	APIURL      string  `json:"api_url"`
	Model       string  `json:"model"`
	MaxTokens   int     `json:"max_tokens"`
	Temperature float64 `json:"temperature"`
	Timeout     int     `json:"timeout"`
}

// String hides the API key.
func (c LLMConfig) String() string {
	key := "<unset>"
	if c.APIKey != "" {
		key = "<redacted>"
	}
	return fmt.Sprintf("{APIKey:%s APIURL:%s Model:%s MaxTokens:%d Temperature:%.2f Timeout:%ds}",
		key, c.APIURL, c.Model, c.MaxTokens, c.Temperature, c.Timeout)
}

// ClientConfig converts to the llm package configuration.
func (c LLMConfig) ClientConfig() *llm.Config {
	return &llm.Config{
		APIKey:      c.APIKey,
		APIURL:      c.APIURL,
		Model:       c.Model,
		MaxTokens:   c.MaxTokens,
		Temperature: c.Temperature,
		Timeout:     c.Timeout,
	}
}

type TranslateConfig struct {
	SourceLanguage string        `json:"source_language"`
	TargetLanguage language.Tag  `json:"target_language"`
	Style          string        `json:"style"`
	BatchSize      int           `json:"batch_size"`
	Concurrency    int           `json:"concurrency"`
	MaxRetries     int           `json:"max_retries"`
	RetryDelay     time.Duration `json:"retry_delay"`
	RequestDelay   time.Duration `json:"request_delay"`
	Autofix        bool          `json:"autofix"`
	DryRun         bool          `json:"dry_run"`
	TermMapPath    string        `json:"term_map"`
	ReportPath     string        `json:"report"`
}

type WatchConfig struct {
	Dirs     []string      `json:"dirs"`
	CronExpr string        `json:"cron_expr"`
	Lookback time.Duration `json:"lookback"`
	// plain text is opt-in so READMEs and notes are left alone
	IncludeText bool `json:"include_text"`
}

type SystemConfig struct {
	DataDir      string `json:"data_dir"`
	CacheEnabled bool   `json:"cache_enabled"`
	LogLevel     string `json:"log_level"`
}

// DBPath returns the sqlite database location.
func (c *Config) DBPath() string {
	return filepath.Join(c.System.DataDir, "subtrans.db")
}

// Option is a function type for configuring Config
type Option func(*Config)

// LoadDotEnv loads .env style files into the environment. Missing files are
// ignored; existing variables are not overwritten.
func LoadDotEnv(paths ...string) error {
	if len(paths) == 0 {
		paths = []string{".env"}
	}
	for _, path := range paths {
		if err := godotenv.Load(path); err != nil && !errors.Is(err, os.ErrNotExist) {
			return fmt.Errorf("load %s: %w", path, err)
		}
	}
	return nil
}

// Default returns the built-in configuration.
func Default() *Config {
	return &Config{
		LLM: LLMConfig{
			APIURL:      llm.DefaultAPIURL,
			Model:       llm.DefaultModel,
			MaxTokens:   4000,
			Temperature: 0.3,
			Timeout:     60,
		},
		Translate: TranslateConfig{
			TargetLanguage: language.MustParse("zh-Hant"),
			Style:          string(translator.StyleNatural),
			BatchSize:      10,
			Concurrency:    5,
			MaxRetries:     3,
			RetryDelay:     time.Second,
		},
		Watch: WatchConfig{
			CronExpr: "*/10 * * * *",
			Lookback: 7 * 24 * time.Hour,
		},
		System: SystemConfig{
			DataDir:      defaultDataDir(),
			CacheEnabled: true,
			LogLevel:     "info",
		},
	}
}

// NewFromEnv creates a new Config instance with values from the optional
// SUBTRANS_CONFIG file, environment variables and options.
func NewFromEnv(opts ...Option) (*Config, error) {
	return Load(getEnvString("SUBTRANS_CONFIG", ""), opts...)
}

// Load is NewFromEnv with an explicit config file path. An empty path skips
// the file.
func Load(path string, opts ...Option) (*Config, error) {
	config := Default()

	if path != "" {
		if err := loadFile(path, config); err != nil {
			return nil, err
		}
	}

	target := getEnvString("TARGET_LANGUAGE", config.Translate.TargetLanguage.String())
	targetTag, err := language.Parse(target)
	if err != nil {
		return nil, fmt.Errorf("invalid TARGET_LANGUAGE %q: %w", target, err)
	}

	config.LLM = LLMConfig{
		APIKey:      firstNonEmpty(os.Getenv("MISTRAL_API_KEY"), os.Getenv("LLM_API_KEY"), config.LLM.APIKey),
		APIURL:      getEnvString("LLM_API_URL", config.LLM.APIURL),
		Model:       getEnvString("LLM_MODEL", config.LLM.Model),
		MaxTokens:   getEnvInt("LLM_MAX_TOKENS", config.LLM.MaxTokens),
		Temperature: getEnvFloat("LLM_TEMPERATURE", config.LLM.Temperature),
		Timeout:     getEnvInt("LLM_TIMEOUT", config.LLM.Timeout),
	}
	config.Translate = TranslateConfig{
		SourceLanguage: getEnvString("SOURCE_LANGUAGE", config.Translate.SourceLanguage),
		TargetLanguage: targetTag,
		Style:          getEnvString("TRANSLATE_STYLE", config.Translate.Style),
		BatchSize:      getEnvInt("BATCH_SIZE", config.Translate.BatchSize),
		Concurrency:    getEnvInt("CONCURRENCY", config.Translate.Concurrency),
		MaxRetries:     getEnvInt("MAX_RETRIES", config.Translate.MaxRetries),
		RetryDelay:     getEnvDuration("RETRY_DELAY", config.Translate.RetryDelay),
		RequestDelay:   getEnvDuration("REQUEST_DELAY", config.Translate.RequestDelay),
		Autofix:        getEnvBool("AUTOFIX", config.Translate.Autofix),
		DryRun:         config.Translate.DryRun,
		TermMapPath:    getEnvString("TERM_MAP_FILE", config.Translate.TermMapPath),
		ReportPath:     config.Translate.ReportPath,
	}
	config.Watch = WatchConfig{
		Dirs:     getEnvList("WATCH_DIRS", config.Watch.Dirs),
		CronExpr: getEnvString("CRON_EXPR", config.Watch.CronExpr),
		Lookback: getEnvDuration("WATCH_LOOKBACK", config.Watch.Lookback),

		IncludeText: getEnvBool("WATCH_INCLUDE_TEXT", config.Watch.IncludeText),
	}
	config.System = SystemConfig{
		DataDir:      getEnvString("DATA_DIR", config.System.DataDir),
		CacheEnabled: getEnvBool("CACHE_ENABLED", config.System.CacheEnabled),
		LogLevel:     getEnvString("LOG_LEVEL", config.System.LogLevel),
	}

	// Apply custom options
	for _, opt := range opts {
		opt(config)
	}

	log.Debug("Config: llm=%v translate=%+v watch=%+v system=%+v", config.LLM, config.Translate, config.Watch, config.System)

	// Validate required configuration
	if err := config.validate(); err != nil {
		return nil, err
	}

	return config, nil
}

// validate checks if all required configuration is properly set
func (c *Config) validate() error {
	if c.LLM.APIKey == "" && !c.Translate.DryRun && !c.offline {
		return fmt.Errorf("MISTRAL_API_KEY or LLM_API_KEY is required")
	}
	if c.LLM.MaxTokens <= 0 {
		return fmt.Errorf("max tokens must be positive, got %d", c.LLM.MaxTokens)
	}
	if c.LLM.Temperature < 0 || c.LLM.Temperature > 2 {
		return fmt.Errorf("temperature must be within [0, 2], got %.2f", c.LLM.Temperature)
	}
	if c.LLM.Timeout <= 0 {
		return fmt.Errorf("timeout must be positive, got %d", c.LLM.Timeout)
	}
	if c.Translate.BatchSize < 1 {
		return fmt.Errorf("batch size must be at least 1, got %d", c.Translate.BatchSize)
	}
	if c.Translate.Concurrency < 1 {
		return fmt.Errorf("concurrency must be at least 1, got %d", c.Translate.Concurrency)
	}
	if c.Translate.MaxRetries < 0 {
		return fmt.Errorf("max retries must not be negative, got %d", c.Translate.MaxRetries)
	}
	if c.Translate.RetryDelay < 0 || c.Translate.RequestDelay < 0 {
		return fmt.Errorf("delays must not be negative")
	}
	if _, err := translator.ParseStyle(c.Translate.Style); err != nil {
		return err
	}
	if c.Translate.SourceLanguage != "" {
		if _, err := language.Parse(c.Translate.SourceLanguage); err != nil {
			return fmt.Errorf("invalid source language %q: %w", c.Translate.SourceLanguage, err)
		}
	}
	if _, err := icron.Parse(c.Watch.CronExpr); err != nil {
		return err
	}
	return nil
}

func defaultDataDir() string {
	if dir, err := os.UserCacheDir(); err == nil {
		return filepath.Join(dir, "subtrans")
	}
	return ".subtrans"
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if strings.TrimSpace(v) != "" {
			return strings.TrimSpace(v)
		}
	}
	return ""
}

// getEnvString gets a string value from environment variables with default
func getEnvString(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

// getEnvInt gets an integer value from environment variables with default
func getEnvInt(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if intValue, err := strconv.Atoi(value); err == nil {
			return intValue
		}
		log.Warn("Ignoring invalid %s=%q", key, value)
	}
	return defaultValue
}

// getEnvFloat gets a float value from environment variables with default
func getEnvFloat(key string, defaultValue float64) float64 {
	if value := os.Getenv(key); value != "" {
		if floatValue, err := strconv.ParseFloat(value, 64); err == nil {
			return floatValue
		}
		log.Warn("Ignoring invalid %s=%q", key, value)
	}
	return defaultValue
}

func getEnvBool(key string, defaultValue bool) bool {
	if value := os.Getenv(key); value != "" {
		if boolValue, err := strconv.ParseBool(value); err == nil {
			return boolValue
		}
		log.Warn("Ignoring invalid %s=%q", key, value)
	}
	return defaultValue
}

// getEnvDuration accepts Go durations ("1.5s") or bare milliseconds ("1500").
func getEnvDuration(key string, defaultValue time.Duration) time.Duration {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}
	if d, err := parseDuration(value); err == nil {
		return d
	}
	log.Warn("Ignoring invalid %s=%q", key, value)
	return defaultValue
}

func getEnvList(key string, defaultValue []string) []string {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}
	var ret []string
	for _, item := range filepath.SplitList(value) {
		if item = strings.TrimSpace(item); item != "" {
			ret = append(ret, item)
		}
	}
	return ret
}

func parseDuration(value string) (time.Duration, error) {
	value = strings.TrimSpace(value)
	if ms, err := strconv.Atoi(value); err == nil {
		return time.Duration(ms) * time.Millisecond, nil
	}
	return time.ParseDuration(value)
}
