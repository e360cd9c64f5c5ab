package main

import (
	"os"
	"strings"

	"github.com/MimeLyc/batch-sub-translator/internal/config"
	"github.com/MimeLyc/batch-sub-translator/internal/llm"
	"github.com/MimeLyc/batch-sub-translator/internal/persistence"
	"github.com/MimeLyc/batch-sub-translator/internal/service"
	"github.com/MimeLyc/batch-sub-translator/internal/translator"
	"github.com/MimeLyc/batch-sub-translator/pkg/log"
)

type commandContext struct {
	configFlag   *string
	envFileFlag  *string
	logLevelFlag *string
	dataDirFlag  *string
}

func newCommandContext(configFlag, envFileFlag, logLevelFlag, dataDirFlag *string) *commandContext {
	return &commandContext{
		configFlag:   configFlag,
		envFileFlag:  envFileFlag,
		logLevelFlag: logLevelFlag,
		dataDirFlag:  dataDirFlag,
	}
}

// loadConfig reads .env, the config file and the environment, then applies
// the global flags and opts. The log level is set as a side effect.
func (c *commandContext) loadConfig(opts ...config.Option) (*config.Config, error) {
	if path := flagValue(c.envFileFlag); path != "" {
		if err := config.LoadDotEnv(path); err != nil {
			return nil, service.WrapError(err, service.ErrConfig, "failed to load env file").WithContext("path", path)
		}
	}

	if level := flagValue(c.logLevelFlag); level != "" {
		opts = append(opts, config.WithLogLevel(level))
	}
	if dir := flagValue(c.dataDirFlag); dir != "" {
		opts = append(opts, config.WithDataDir(dir))
	}

	path := flagValue(c.configFlag)
	if path == "" {
		path = os.Getenv("SUBTRANS_CONFIG")
	}
	cfg, err := config.Load(path, opts...)
	if err != nil {
		return nil, service.WrapError(err, service.ErrConfig, "failed to load configuration")
	}
	log.SetLevel(log.ParseLevel(cfg.System.LogLevel))
	return cfg, nil
}

func (c *commandContext) openStore(cfg *config.Config) (*persistence.SQLiteStore, error) {
	store, err := persistence.NewSQLiteStore(cfg.DBPath())
	if err != nil {
		return nil, service.WrapError(err, service.ErrConfig, "failed to open run history").WithContext("path", cfg.DBPath())
	}
	return store, nil
}

// newBackend returns nil for a dry run without credential.
func newBackend(cfg *config.Config) (translator.Backend, error) {
	if cfg.LLM.APIKey == "" && cfg.Translate.DryRun {
		return nil, nil
	}
	client, err := llm.NewClient(cfg.LLM.ClientConfig())
	if err != nil {
		return nil, service.WrapError(err, service.ErrConfig, "failed to create LLM client")
	}
	return client, nil
}

func flagValue(v *string) string {
	if v == nil {
		return ""
	}
	return strings.TrimSpace(*v)
}

func shortID(id string) string {
	if len(id) > 8 {
		return id[:8]
	}
	return id
}
