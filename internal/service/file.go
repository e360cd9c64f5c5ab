package service

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/gofrs/flock"
	"github.com/google/uuid"

	"github.com/MimeLyc/batch-sub-translator/internal/config"
	"github.com/MimeLyc/batch-sub-translator/internal/persistence"
	"github.com/MimeLyc/batch-sub-translator/internal/subtitle"
	"github.com/MimeLyc/batch-sub-translator/internal/termmap"
	"github.com/MimeLyc/batch-sub-translator/internal/translator"
	"github.com/MimeLyc/batch-sub-translator/pkg/file"
	"github.com/MimeLyc/batch-sub-translator/pkg/log"
)

// Request names one file to translate. An empty OutputPath writes
// <dir>/<name>.<target-code><ext> next to the input.
type Request struct {
	InputPath  string
	OutputPath string
}

// FileResult describes a finished file translation.
type FileResult struct {
	RunID          string
	InputPath      string
	OutputPath     string
	SourceLanguage string // BCP 47 code, empty when unknown
	TargetLanguage string
	TermMapPath    string
	ReportPath     string
	Written        bool
	Run            *RunResult
}

// FileTranslator reads, translates and writes single subtitle files.
type FileTranslator struct {
	cfg      config.Config
	backend  translator.Backend
	reader   subtitle.Reader
	store    *persistence.SQLiteStore
	progress ProgressFunc
}

// FileOption customizes a FileTranslator.
type FileOption func(*FileTranslator)

// WithStore enables run history and, when caching is on, batch checkpoints.
func WithStore(store *persistence.SQLiteStore) FileOption {
	return func(t *FileTranslator) { t.store = store }
}

// WithFileProgress forwards batch progress for every file.
func WithFileProgress(fn ProgressFunc) FileOption {
	return func(t *FileTranslator) { t.progress = fn }
}

func NewFileTranslator(cfg config.Config, backend translator.Backend, opts ...FileOption) *FileTranslator {
	t := &FileTranslator{
		cfg:     cfg,
		backend: backend,
		reader:  subtitle.NewReader(),
	}
	for _, opt := range opts {
		opt(t)
	}
	return t
}

// OutputPathFor returns the default output path for input and target
// language. An input without a subtitle extension takes the extension of
// detected, the format its content parsed as.
func OutputPathFor(inputPath, targetLang string, detected subtitle.Format) string {
	if _, err := subtitle.FormatFromPath(inputPath); err != nil && detected.Ext() != "" {
		return file.ReplaceExt(inputPath, "") + "." + targetLang + detected.Ext()
	}
	return file.WithSuffix(inputPath, targetLang)
}

// Translate runs the whole file workflow. Precondition failures are
// returned as *TranslateError before anything is read or sent.
func (t *FileTranslator) Translate(ctx context.Context, req Request) (*FileResult, error) {
	target := t.cfg.Translate.TargetLanguage.String()
	res := &FileResult{
		RunID:          uuid.NewString(),
		InputPath:      req.InputPath,
		OutputPath:     req.OutputPath,
		TargetLanguage: target,
		ReportPath:     t.cfg.Translate.ReportPath,
	}
	if err := t.checkPreconditions(res); err != nil {
		return nil, err
	}

	doc, err := t.reader.Read(res.InputPath)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, WrapError(err, ErrFileNotFound, "input file not found").WithContext("path", res.InputPath)
		}
		return nil, WrapError(err, ErrFileRead, "failed to read subtitle file").WithContext("path", res.InputPath)
	}
	if doc.Len() == 0 {
		return nil, WrapError(ErrNoSubtitles, ErrParse, "no subtitles found").WithContext("path", res.InputPath)
	}
	if res.OutputPath == "" {
		res.OutputPath = OutputPathFor(res.InputPath, res.TargetLanguage, doc.Format)
	}

	res.SourceLanguage = t.cfg.Translate.SourceLanguage
	if res.SourceLanguage == "" {
		res.SourceLanguage = doc.Language
		if res.SourceLanguage != "" {
			log.Info("Detected source language %s for %s", res.SourceLanguage, res.InputPath)
		}
	}

	terms, termPath, err := termmap.Resolve(res.InputPath, t.cfg.Translate.TermMapPath, res.SourceLanguage, target)
	if err != nil {
		return nil, WrapError(err, ErrConfig, "failed to load term map")
	}
	if termPath != "" {
		res.TermMapPath = termPath
		log.Info("Using term map %s (%d terms)", termPath, len(terms))
	}

	opts, err := t.translatorOptions(res.SourceLanguage, terms)
	if err != nil {
		return nil, WrapError(err, ErrConfig, "invalid translation options")
	}

	run := t.startRun(ctx, res)
	pipeline := t.newPipeline(res.RunID, opts)
	result, err := pipeline.Run(ctx, doc)
	if err != nil {
		t.finishRun(ctx, run, nil, err)
		if errors.Is(err, ErrLengthMismatch) {
			return nil, WrapError(err, ErrTranslation, "reassembled document is inconsistent")
		}
		return nil, err
	}
	res.Run = result

	if !result.DryRun {
		if err := t.write(ctx, res.OutputPath, result.Document); err != nil {
			t.finishRun(ctx, run, result, err)
			return nil, WrapError(err, ErrFileWrite, "failed to write output").WithContext("path", res.OutputPath)
		}
		res.Written = true
		log.Info("Wrote %s", res.OutputPath)
	}

	if res.ReportPath != "" {
		if err := SaveReport(res.ReportPath, res); err != nil {
			log.Warn("Failed to write report %s: %v", res.ReportPath, err)
		}
	}

	t.finishRun(ctx, run, result, nil)
	return res, nil
}

func (t *FileTranslator) checkPreconditions(res *FileResult) error {
	if strings.TrimSpace(res.InputPath) == "" {
		return NewError(ErrValidation, "input path is required")
	}
	if !t.cfg.Translate.DryRun && t.backend == nil {
		return NewError(ErrConfig, "translation backend is not configured")
	}

	info, err := os.Stat(res.InputPath)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return WrapError(err, ErrFileNotFound, "input file not found").WithContext("path", res.InputPath)
		}
		return WrapError(err, ErrFileRead, "cannot access input file").WithContext("path", res.InputPath)
	}
	if info.IsDir() {
		return NewError(ErrValidation, "input path is a directory").WithContext("path", res.InputPath)
	}

	if res.OutputPath != "" && filepath.Ext(res.OutputPath) != "" {
		if _, err := subtitle.FormatFromPath(res.OutputPath); err != nil {
			return WrapError(err, ErrValidation, "unsupported output format").WithContext("path", res.OutputPath)
		}
	}
	return nil
}

func (t *FileTranslator) translatorOptions(sourceLang string, terms termmap.TermMap) (translator.Options, error) {
	style, err := translator.ParseStyle(t.cfg.Translate.Style)
	if err != nil {
		return translator.Options{}, err
	}
	return translator.Options{
		SourceLanguage: translator.LanguageName(sourceLang),
		TargetLanguage: translator.LanguageName(t.cfg.Translate.TargetLanguage.String()),
		Style:          style,
		Model:          t.cfg.LLM.Model,
		Temperature:    t.cfg.LLM.Temperature,
		MaxTokens:      t.cfg.LLM.MaxTokens,
		MaxRetries:     t.cfg.Translate.MaxRetries,
		RetryDelay:     t.cfg.Translate.RetryDelay,
		TermMap:        terms,
	}, nil
}

func (t *FileTranslator) newPipeline(runID string, opts translator.Options) *Pipeline {
	var pipelineOpts []PipelineOption
	if t.progress != nil {
		pipelineOpts = append(pipelineOpts, WithProgress(t.progress))
	}
	if t.store != nil && t.cfg.System.CacheEnabled && !t.cfg.Translate.DryRun {
		cps, err := newPersistentBatchCheckpointStore(t.store, runID, checkpointScope(opts))
		if err != nil {
			log.Warn("Batch checkpoints disabled: %v", err)
		} else {
			pipelineOpts = append(pipelineOpts, WithCheckpoints(cps))
		}
	}

	var (
		tr  translator.Translator
		sum translator.Summarizer
	)
	if t.backend != nil {
		tr = translator.NewBatchTranslator(t.backend, opts)
		sum = translator.NewContextBuilder(t.backend, opts)
	}

	return NewPipeline(tr, sum, PipelineConfig{
		BatchSize:    t.cfg.Translate.BatchSize,
		Concurrency:  t.cfg.Translate.Concurrency,
		RequestDelay: t.cfg.Translate.RequestDelay,
		Autofix:      t.cfg.Translate.Autofix,
		DryRun:       t.cfg.Translate.DryRun,
	}, pipelineOpts...)
}

// checkpointScope keys cached batches by everything that changes the output
// except the texts themselves.
func checkpointScope(opts translator.Options) string {
	parts := []string{opts.SourceLanguage, opts.TargetLanguage, string(opts.Style), opts.Model}
	if len(opts.TermMap) > 0 {
		h := sha256.New()
		for _, pair := range opts.TermMap.Pairs() {
			h.Write([]byte(pair.Source + "\x00" + pair.Target + "\x00"))
		}
		parts = append(parts, hex.EncodeToString(h.Sum(nil)))
	}
	return strings.Join(parts, "|")
}

// write holds an advisory lock per output path so concurrent runs never
// interleave writes to the same file.
func (t *FileTranslator) write(ctx context.Context, outputPath string, doc *subtitle.Document) error {
	writer := subtitle.NewWriter(doc.Format)

	lockDir := filepath.Join(t.cfg.System.DataDir, "locks")
	if err := os.MkdirAll(lockDir, 0o755); err != nil {
		log.Warn("Writing %s without lock: %v", outputPath, err)
		return writer.Write(outputPath, doc)
	}

	abs, err := filepath.Abs(outputPath)
	if err != nil {
		abs = outputPath
	}
	sum := sha256.Sum256([]byte(abs))
	lock := flock.New(filepath.Join(lockDir, hex.EncodeToString(sum[:8])+".lock"))

	lockCtx, cancel := context.WithTimeout(ctx, 30*time.Second)
	defer cancel()
	locked, err := lock.TryLockContext(lockCtx, 100*time.Millisecond)
	if err != nil {
		return fmt.Errorf("acquire output lock: %w", err)
	}
	if !locked {
		return fmt.Errorf("output %s is locked by another run", outputPath)
	}
	defer func() {
		if err := lock.Unlock(); err != nil {
			log.Warn("Failed to release output lock: %v", err)
		}
	}()

	return writer.Write(outputPath, doc)
}

func (t *FileTranslator) startRun(ctx context.Context, res *FileResult) *persistence.Run {
	if t.store == nil || t.cfg.Translate.DryRun {
		return nil
	}
	run := &persistence.Run{
		ID:             res.RunID,
		InputPath:      res.InputPath,
		OutputPath:     res.OutputPath,
		TargetLanguage: res.TargetLanguage,
		Status:         persistence.RunRunning,
	}
	if abs, err := filepath.Abs(res.InputPath); err == nil {
		run.InputPath = abs
	}
	if err := t.store.UpsertRun(ctx, run); err != nil {
		log.Warn("Failed to record run %s: %v", run.ID, err)
		return nil
	}
	return run
}

func (t *FileTranslator) finishRun(ctx context.Context, run *persistence.Run, result *RunResult, runErr error) {
	if run == nil {
		return
	}
	run.Status = persistence.RunSucceeded
	if runErr != nil {
		run.Status = persistence.RunFailed
		run.Error = runErr.Error()
	}
	if result != nil {
		run.Entries = result.Stats.Entries
		run.Batches = result.Stats.Batches
		run.Succeeded = result.Stats.Succeeded
		run.Failed = result.Stats.Failed
		run.Cached = result.Stats.Cached
	}
	// the run context may already be cancelled
	if err := t.store.UpsertRun(context.WithoutCancel(ctx), run); err != nil {
		log.Warn("Failed to update run %s: %v", run.ID, err)
	}
}
