package service

import (
	"time"
	"unicode/utf8"

	"github.com/MimeLyc/batch-sub-translator/internal/subtitle"
)

// Stats aggregates one run. Character counts are in runes.
type Stats struct {
	Entries   int
	Batches   int
	Succeeded int
	Failed    int
	Cached    int

	OriginalChars   int
	TranslatedChars int
	// ExpansionRatio is TranslatedChars / OriginalChars, zero for empty input.
	ExpansionRatio   float64
	AvgOriginalLen   float64
	AvgTranslatedLen float64

	Elapsed time.Duration
}

// computeTextStats fills the character statistics from OriginalText and Text.
func computeTextStats(stats *Stats, entries []subtitle.Entry) {
	stats.Entries = len(entries)
	stats.OriginalChars = 0
	stats.TranslatedChars = 0
	for _, e := range entries {
		stats.OriginalChars += utf8.RuneCountInString(e.OriginalText)
		stats.TranslatedChars += utf8.RuneCountInString(e.Text)
	}
	if stats.OriginalChars > 0 {
		stats.ExpansionRatio = float64(stats.TranslatedChars) / float64(stats.OriginalChars)
	}
	if n := len(entries); n > 0 {
		stats.AvgOriginalLen = float64(stats.OriginalChars) / float64(n)
		stats.AvgTranslatedLen = float64(stats.TranslatedChars) / float64(n)
	}
}
