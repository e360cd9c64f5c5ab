package service

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/robfig/cron/v3"
	"golang.org/x/sync/singleflight"

	"github.com/MimeLyc/batch-sub-translator/internal/config"
	"github.com/MimeLyc/batch-sub-translator/internal/persistence"
	"github.com/MimeLyc/batch-sub-translator/internal/subtitle"
	"github.com/MimeLyc/batch-sub-translator/pkg/file"
	"github.com/MimeLyc/batch-sub-translator/pkg/icron"
	"github.com/MimeLyc/batch-sub-translator/pkg/log"
)

// Watcher periodically scans directories for subtitle files that have no
// translated sibling yet and translates them one by one.
type Watcher struct {
	cfg   config.Config
	files *FileTranslator
	store *persistence.SQLiteStore
	cron  *cron.Cron

	mu       sync.Mutex
	lastScan time.Time
	group    singleflight.Group
	now      func() time.Time
}

func NewWatcher(cfg config.Config, files *FileTranslator, store *persistence.SQLiteStore, c *cron.Cron) *Watcher {
	if c == nil {
		c = icron.New()
	}
	return &Watcher{
		cfg:   cfg,
		files: files,
		store: store,
		cron:  c,
		now:   time.Now,
	}
}

// Schedule registers the periodic scan. Overlapping triggers share one scan.
func (w *Watcher) Schedule(ctx context.Context) error {
	if len(w.cfg.Watch.Dirs) == 0 {
		return NewError(ErrConfig, "no watch directories configured")
	}
	log.Info("Watching %v with schedule %q", w.cfg.Watch.Dirs, w.cfg.Watch.CronExpr)

	_, err := w.cron.AddFunc(w.cfg.Watch.CronExpr, func() {
		if _, err := w.ScanOnce(ctx); err != nil {
			log.Error("Scan failed: %v", err)
		}
	})
	if err != nil {
		return WrapError(err, ErrConfig, "invalid watch schedule")
	}

	if info, err := icron.GetTriggerInfo(w.cfg.Watch.CronExpr, w.now()); err == nil {
		log.Info("Next scan at %s (in %s)", info.Next.Format(time.RFC3339), info.TimeUntilNext.Round(time.Second))
	}
	return nil
}

// Run scans immediately, then on schedule until ctx is done.
func (w *Watcher) Run(ctx context.Context) error {
	if err := w.Schedule(ctx); err != nil {
		return err
	}
	if _, err := w.ScanOnce(ctx); err != nil {
		log.Error("Initial scan failed: %v", err)
	}

	w.cron.Start()
	<-ctx.Done()
	stopped := w.cron.Stop()
	<-stopped.Done()
	log.Info("Watcher stopped")
	return nil
}

// ScanOnce scans every directory once and returns the number of files
// translated. Concurrent calls wait for the scan already in flight.
func (w *Watcher) ScanOnce(ctx context.Context) (int, error) {
	v, err, _ := w.group.Do("scan", func() (any, error) {
		return w.scan(ctx)
	})
	if err != nil {
		return 0, err
	}
	return v.(int), nil
}

func (w *Watcher) scan(ctx context.Context) (int, error) {
	started := w.now()
	since := w.startTime(started)
	log.Info("Scanning for subtitles modified after %s", since.Format(time.RFC3339))

	translated := 0
	for _, dir := range w.cfg.Watch.Dirs {
		candidates, err := w.Candidates(ctx, dir, since)
		if err != nil {
			log.Error("Failed to scan dir %s: %v", dir, err)
			continue
		}
		log.Info("Found %d subtitle files to translate in %s", len(candidates), dir)

		for _, path := range candidates {
			if err := ctx.Err(); err != nil {
				return translated, err
			}
			err := SafeExecute(func() error {
				_, err := w.files.Translate(ctx, Request{InputPath: path})
				return err
			})
			if err != nil {
				NewErrorReporter().Report(err)
				continue
			}
			translated++
		}
	}

	w.mu.Lock()
	w.lastScan = started
	w.mu.Unlock()
	return translated, nil
}

// Candidates lists subtitle files under dir modified after since that are
// not translations themselves and have not been translated yet. Plain .txt
// files are only listed when Watch.IncludeText is set.
func (w *Watcher) Candidates(ctx context.Context, dir string, since time.Time) ([]string, error) {
	if info, err := os.Stat(dir); err != nil || !info.IsDir() {
		return nil, fmt.Errorf("directory %s does not exist", dir)
	}

	var exts []string
	for _, f := range subtitle.Formats() {
		if f == subtitle.FormatText && !w.cfg.Watch.IncludeText {
			continue
		}
		exts = append(exts, f.Extensions()...)
	}
	recent, err := file.FindRecentAfter(dir, since, exts...)
	if err != nil {
		return nil, fmt.Errorf("failed to find recent files: %w", err)
	}

	target := w.cfg.Translate.TargetLanguage.String()
	var ret []string
	for _, path := range recent {
		if file.HasSuffix(path, target) {
			continue
		}
		format, _ := subtitle.FormatFromPath(path)
		if file.Exists(OutputPathFor(path, target, format)) {
			continue
		}
		if w.translatedBefore(ctx, path, target) {
			log.Debug("Skipping %s: translated before and output was removed", path)
			continue
		}
		ret = append(ret, path)
	}
	return ret, nil
}

// translatedBefore reports whether a succeeded run exists that is newer than the file.
func (w *Watcher) translatedBefore(ctx context.Context, path, target string) bool {
	if w.store == nil {
		return false
	}
	abs, err := filepath.Abs(path)
	if err != nil {
		return false
	}
	run, ok, err := w.store.LastSucceededRun(ctx, abs, target)
	if err != nil || !ok {
		return false
	}
	info, err := os.Stat(path)
	if err != nil {
		return false
	}
	return run.UpdatedAt.After(info.ModTime())
}

func (w *Watcher) startTime(now time.Time) time.Time {
	w.mu.Lock()
	defer w.mu.Unlock()
	if w.lastScan.IsZero() {
		return now.Add(-w.cfg.Watch.Lookback)
	}
	return w.lastScan
}
