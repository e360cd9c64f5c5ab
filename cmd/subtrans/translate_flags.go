package main

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"
	"golang.org/x/text/language"

	"github.com/MimeLyc/batch-sub-translator/internal/config"
	"github.com/MimeLyc/batch-sub-translator/internal/translator"
)

// translateFlags are shared by every command that translates files.
// Only flags set on the command line override the configuration.
type translateFlags struct {
	target       string
	source       string
	style        string
	model        string
	batchSize    int
	concurrency  int
	retries      int
	requestDelay time.Duration
	autofix      bool
	dryRun       bool
	termMap      string
	report       string
	noCache      bool
}

func (f *translateFlags) register(cmd *cobra.Command) {
	flags := cmd.Flags()
	flags.StringVarP(&f.target, "target", "t", "", "Target language as a BCP 47 tag (default zh-Hant)")
	flags.StringVarP(&f.source, "source", "s", "", "Source language code, detected from the text when empty")
	flags.StringVar(&f.style, "style", "", fmt.Sprintf("Translation style %v", translator.Styles()))
	flags.StringVarP(&f.model, "model", "m", "", "Model identifier")
	flags.IntVarP(&f.batchSize, "batch-size", "b", 0, "Subtitle entries per request")
	flags.IntVarP(&f.concurrency, "concurrency", "j", 0, "Concurrent requests")
	flags.IntVar(&f.retries, "retries", 0, "Retries per batch after the first attempt")
	flags.DurationVar(&f.requestDelay, "request-delay", 0, "Delay before each request after the first batch")
	flags.BoolVar(&f.autofix, "autofix", false, "Renumber entries and report timing overlaps before translating")
	flags.BoolVar(&f.dryRun, "dry-run", false, "Parse and plan only; nothing is sent or written")
	flags.StringVar(&f.termMap, "term-map", "", "Term map JSON file (default: nearest term_map.<src>-<tgt>.json)")
	flags.StringVar(&f.report, "report", "", "Write a report file to this path")
	flags.BoolVar(&f.noCache, "no-cache", false, "Do not reuse or store translated batches")
}

func (f *translateFlags) options(cmd *cobra.Command) ([]config.Option, error) {
	flags := cmd.Flags()
	var opts []config.Option

	if flags.Changed("target") {
		tag, err := language.Parse(f.target)
		if err != nil {
			return nil, fmt.Errorf("invalid --target %q: %w", f.target, err)
		}
		opts = append(opts, config.WithTargetLanguage(tag))
	}
	if flags.Changed("source") {
		opts = append(opts, config.WithSourceLanguage(f.source))
	}
	if flags.Changed("style") {
		opts = append(opts, config.WithStyle(f.style))
	}
	if flags.Changed("model") {
		opts = append(opts, config.WithModel(f.model))
	}
	if flags.Changed("batch-size") {
		opts = append(opts, config.WithBatchSize(f.batchSize))
	}
	if flags.Changed("concurrency") {
		opts = append(opts, config.WithConcurrency(f.concurrency))
	}
	if flags.Changed("retries") {
		opts = append(opts, config.WithMaxRetries(f.retries))
	}
	if flags.Changed("request-delay") {
		opts = append(opts, config.WithRequestDelay(f.requestDelay))
	}
	if flags.Changed("autofix") {
		opts = append(opts, config.WithAutofix(f.autofix))
	}
	if flags.Changed("dry-run") {
		opts = append(opts, config.WithDryRun(f.dryRun))
	}
	if flags.Changed("term-map") {
		opts = append(opts, config.WithTermMapPath(f.termMap))
	}
	if flags.Changed("report") {
		opts = append(opts, config.WithReportPath(f.report))
	}
	if f.noCache {
		opts = append(opts, config.WithCache(false))
	}
	return opts, nil
}
