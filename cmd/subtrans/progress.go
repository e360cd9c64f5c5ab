package main

import (
	"fmt"
	"io"
	"os"
	"sync"

	"github.com/mattn/go-isatty"
	"github.com/schollz/progressbar/v3"

	"github.com/MimeLyc/batch-sub-translator/internal/service"
	"github.com/MimeLyc/batch-sub-translator/pkg/log"
)

// batchProgress renders a progress bar on terminals and falls back to log
// lines otherwise. A new bar is started for every file.
type batchProgress struct {
	out         io.Writer
	interactive bool

	mu     sync.Mutex
	bar    *progressbar.ProgressBar
	failed int
}

func newBatchProgress(out *os.File) *batchProgress {
	fd := out.Fd()
	return &batchProgress{
		out:         out,
		interactive: isatty.IsTerminal(fd) || isatty.IsCygwinTerminal(fd),
	}
}

func (p *batchProgress) callback() service.ProgressFunc {
	return func(done, total, batchIndex int, err error) {
		p.mu.Lock()
		defer p.mu.Unlock()

		if err != nil {
			p.failed++
		}
		if !p.interactive {
			if err != nil {
				log.Warn("Batch %d failed (%d/%d done)", batchIndex+1, done, total)
			} else {
				log.Info("Batch %d done (%d/%d)", batchIndex+1, done, total)
			}
			p.finishIfDone(done, total)
			return
		}

		if p.bar == nil {
			p.bar = progressbar.NewOptions(total,
				progressbar.OptionSetWriter(p.out),
				progressbar.OptionSetDescription("Translating"),
				progressbar.OptionShowCount(),
				progressbar.OptionClearOnFinish(),
			)
		}
		if p.failed > 0 {
			p.bar.Describe(fmt.Sprintf("Translating (%d failed)", p.failed))
		}
		_ = p.bar.Set(done)
		p.finishIfDone(done, total)
	}
}

func (p *batchProgress) finishIfDone(done, total int) {
	if done < total {
		return
	}
	if p.bar != nil {
		_ = p.bar.Finish()
		p.bar = nil
	}
	p.failed = 0
}
