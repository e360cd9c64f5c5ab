package service

import (
	"context"
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/MimeLyc/batch-sub-translator/internal/subtitle"
	"github.com/MimeLyc/batch-sub-translator/internal/translator"
	"github.com/MimeLyc/batch-sub-translator/pkg/log"
)

// ProgressFunc is told about every finished batch. err is the batch failure,
// nil on success. Calls are serialized.
type ProgressFunc func(done, total, batchIndex int, err error)

// PipelineConfig controls chunking and scheduling.
type PipelineConfig struct {
	BatchSize    int
	Concurrency  int
	RequestDelay time.Duration
	Autofix      bool
	DryRun       bool
}

// RunResult is the outcome of Pipeline.Run.
type RunResult struct {
	// Document is the translated copy; the input document is left untouched.
	Document *subtitle.Document
	Synopsis string
	Repair   *subtitle.RepairReport
	Batches  []subtitle.BatchResult
	Stats    Stats
	DryRun   bool
}

// FailedBatches returns the results of batches that kept their original text.
func (r *RunResult) FailedBatches() []subtitle.BatchResult {
	var ret []subtitle.BatchResult
	for _, b := range r.Batches {
		if b.Err != nil {
			ret = append(ret, b)
		}
	}
	return ret
}

// PipelineOption customizes a Pipeline.
type PipelineOption func(*Pipeline)

// WithProgress registers a progress callback.
func WithProgress(fn ProgressFunc) PipelineOption {
	return func(p *Pipeline) { p.progress = fn }
}

// WithCheckpoints enables reuse of previously translated batches.
func WithCheckpoints(store batchCheckpointStore) PipelineOption {
	return func(p *Pipeline) { p.checkpoints = store }
}

// Pipeline drives one document through context building, concurrent batch
// translation and reassembly.
type Pipeline struct {
	translator  translator.Translator
	summarizer  translator.Summarizer
	cfg         PipelineConfig
	progress    ProgressFunc
	checkpoints batchCheckpointStore

	progressMu sync.Mutex
}

func NewPipeline(tr translator.Translator, summarizer translator.Summarizer, cfg PipelineConfig, opts ...PipelineOption) *Pipeline {
	if cfg.BatchSize < 1 {
		cfg.BatchSize = 1
	}
	if cfg.Concurrency < 1 {
		cfg.Concurrency = 1
	}
	p := &Pipeline{
		translator: tr,
		summarizer: summarizer,
		cfg:        cfg,
	}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

// Partition splits entries into consecutive batches of at most size entries.
func Partition(entries []subtitle.Entry, size int) []subtitle.Batch {
	if size < 1 {
		size = 1
	}
	batches := make([]subtitle.Batch, 0, (len(entries)+size-1)/size)
	for start := 0; start < len(entries); start += size {
		end := min(start+size, len(entries))
		batches = append(batches, subtitle.Batch{
			Index:   len(batches),
			Entries: entries[start:end:end],
		})
	}
	return batches
}

// Run translates doc. Failed batches keep their original text and are
// counted; only cancellation or a broken reassembly aborts the run.
func (p *Pipeline) Run(ctx context.Context, doc *subtitle.Document) (*RunResult, error) {
	start := time.Now()
	if doc == nil || doc.Len() == 0 {
		return nil, ErrNoSubtitles
	}

	work := doc.Clone()
	log.Debug("Parsed %d entries (%s)", work.Len(), work.Format)

	result := &RunResult{DryRun: p.cfg.DryRun}
	if p.cfg.Autofix {
		report := subtitle.Repair(work)
		result.Repair = &report
		log.Info("Repaired document: renumbered %d entries, %d timing anomalies", report.Renumbered, report.Anomalies)
	}

	batches := Partition(work.Entries, p.cfg.BatchSize)
	result.Stats.Batches = len(batches)

	if p.cfg.DryRun {
		log.Info("Dry run: %d entries in %d batches, nothing sent", work.Len(), len(batches))
		result.Document = work
		computeTextStats(&result.Stats, work.Entries)
		result.Stats.Elapsed = time.Since(start)
		return result, nil
	}

	result.Synopsis = translator.FallbackContext
	if p.summarizer != nil {
		result.Synopsis = p.summarizer.Summarize(ctx, work.Texts())
	}
	log.Debug("Context built (%d chars)", len(result.Synopsis))

	slots := make([]subtitle.BatchResult, len(batches))
	var succeeded, failed, cached, done atomic.Int64

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(p.cfg.Concurrency)
	log.Info("Translating %d entries in %d batches (concurrency %d)", work.Len(), len(batches), p.cfg.Concurrency)

	for _, batch := range batches {
		batch := batch // per-iteration copy for go1.21 loop semantics
		g.Go(func() error {
			slot, err := p.translateBatch(gctx, batch, result.Synopsis)
			if ctxErr := gctx.Err(); ctxErr != nil {
				return ctxErr
			}
			slots[batch.Index] = slot

			switch {
			case err != nil:
				failed.Add(1)
				log.Warn("Batch %d/%d failed, keeping original text: %v", batch.Index+1, len(batches), err)
			case slot.Cached:
				cached.Add(1)
				succeeded.Add(1)
			default:
				succeeded.Add(1)
			}
			p.report(int(done.Add(1)), len(batches), batch.Index, err)
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	entries := make([]subtitle.Entry, 0, work.Len())
	for _, slot := range slots {
		entries = append(entries, slot.Entries...)
	}
	if len(entries) != work.Len() {
		return nil, fmt.Errorf("%w: got %d, want %d", ErrLengthMismatch, len(entries), work.Len())
	}
	work.Entries = entries
	log.Info("Reassembled %d entries: %d batches succeeded, %d failed", len(entries), succeeded.Load(), failed.Load())

	result.Document = work
	result.Batches = slots
	result.Stats.Succeeded = int(succeeded.Load())
	result.Stats.Failed = int(failed.Load())
	result.Stats.Cached = int(cached.Load())
	computeTextStats(&result.Stats, entries)
	result.Stats.Elapsed = time.Since(start)
	return result, nil
}

// translateBatch always returns a filled slot; on failure it carries the
// original entries and the error.
func (p *Pipeline) translateBatch(ctx context.Context, batch subtitle.Batch, synopsis string) (subtitle.BatchResult, error) {
	slot := subtitle.BatchResult{Index: batch.Index, Entries: batch.Entries}
	texts := make([]string, len(batch.Entries))
	for i, e := range batch.Entries {
		texts[i] = e.Text
	}

	if p.checkpoints != nil {
		if translated, ok := p.checkpoints.Load(ctx, texts); ok && len(translated) == len(texts) {
			slot.Entries = applyTranslations(batch.Entries, translated)
			slot.Cached = true
			log.Debug("Batch %d served from checkpoint", batch.Index+1)
			return slot, nil
		}
	}

	if batch.Index > 0 && p.cfg.RequestDelay > 0 {
		timer := time.NewTimer(p.cfg.RequestDelay)
		select {
		case <-ctx.Done():
			timer.Stop()
			slot.Err = ctx.Err()
			return slot, slot.Err
		case <-timer.C:
		}
	}

	translated, err := p.translator.TranslateBatch(ctx, texts, synopsis)
	if err == nil && len(translated) != len(texts) {
		err = fmt.Errorf("%w: expected %d, got %d", translator.ErrCountMismatch, len(texts), len(translated))
	}
	if err != nil {
		slot.Err = err
		return slot, err
	}

	slot.Entries = applyTranslations(batch.Entries, translated)
	if p.checkpoints != nil {
		if err := p.checkpoints.Save(ctx, texts, translated); err != nil {
			log.Warn("Failed to save checkpoint for batch %d: %v", batch.Index+1, err)
		}
	}
	return slot, nil
}

func applyTranslations(entries []subtitle.Entry, translated []string) []subtitle.Entry {
	out := make([]subtitle.Entry, len(entries))
	copy(out, entries)
	for i := range out {
		out[i].Text = translated[i]
	}
	return out
}

func (p *Pipeline) report(done, total, batchIndex int, err error) {
	if p.progress == nil {
		return
	}
	p.progressMu.Lock()
	defer p.progressMu.Unlock()
	p.progress(done, total, batchIndex, err)
}
