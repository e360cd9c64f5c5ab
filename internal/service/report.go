package service

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/jedib0t/go-pretty/v6/text"

	"github.com/MimeLyc/batch-sub-translator/internal/subtitle"
)

const (
	reportSampleSize = 10
	reportCellWidth  = 48
)

// WriteReport renders a human readable summary: run metadata, aggregate
// statistics and a sample of original/translated pairs.
func WriteReport(w io.Writer, res *FileResult) error {
	if res == nil || res.Run == nil {
		return fmt.Errorf("nothing to report")
	}
	run := res.Run
	stats := run.Stats

	var b strings.Builder
	b.WriteString("Subtitle Translation Report\n\n")

	meta := table.NewWriter()
	meta.SetStyle(table.StyleRounded)
	meta.AppendRow(table.Row{"Run", res.RunID})
	meta.AppendRow(table.Row{"Input", res.InputPath})
	meta.AppendRow(table.Row{"Output", outputLabel(res)})
	meta.AppendRow(table.Row{"Source language", valueOr(res.SourceLanguage, "auto")})
	meta.AppendRow(table.Row{"Target language", res.TargetLanguage})
	if res.TermMapPath != "" {
		meta.AppendRow(table.Row{"Term map", res.TermMapPath})
	}
	if run.Repair != nil {
		meta.AppendRow(table.Row{"Renumbered", run.Repair.Renumbered})
		meta.AppendRow(table.Row{"Timing anomalies", run.Repair.Anomalies})
	}
	b.WriteString(meta.Render())
	b.WriteString("\n\n")

	st := table.NewWriter()
	st.SetStyle(table.StyleRounded)
	st.AppendHeader(table.Row{"Statistic", "Value"})
	st.AppendRows([]table.Row{
		{"Entries", stats.Entries},
		{"Batches", stats.Batches},
		{"Succeeded", stats.Succeeded},
		{"Failed", stats.Failed},
		{"From cache", stats.Cached},
		{"Original characters", stats.OriginalChars},
		{"Translated characters", stats.TranslatedChars},
		{"Expansion ratio", fmt.Sprintf("%.2f", stats.ExpansionRatio)},
		{"Avg original length", fmt.Sprintf("%.1f", stats.AvgOriginalLen)},
		{"Avg translated length", fmt.Sprintf("%.1f", stats.AvgTranslatedLen)},
		{"Elapsed", stats.Elapsed.Round(time.Millisecond).String()},
	})
	st.SetColumnConfigs([]table.ColumnConfig{{Number: 2, Align: text.AlignRight}})
	b.WriteString(st.Render())
	b.WriteString("\n\n")

	if run.Document != nil && run.Document.Len() > 0 {
		b.WriteString(fmt.Sprintf("Sample (first %d of %d entries)\n", min(reportSampleSize, run.Document.Len()), run.Document.Len()))
		b.WriteString(renderSample(run.Document.Entries))
		b.WriteString("\n")
	}

	if failed := run.FailedBatches(); len(failed) > 0 {
		b.WriteString("\nFailed batches (original text kept)\n")
		ft := table.NewWriter()
		ft.SetStyle(table.StyleRounded)
		ft.AppendHeader(table.Row{"Batch", "Entries", "Error"})
		for _, fb := range failed {
			ft.AppendRow(table.Row{fb.Index + 1, len(fb.Entries), truncate(fb.Err.Error(), 80)})
		}
		b.WriteString(ft.Render())
		b.WriteString("\n")
	}

	_, err := io.WriteString(w, b.String())
	return err
}

// SaveReport writes the report to path, creating its directory.
func SaveReport(path string, res *FileResult) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("create report directory: %w", err)
	}
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("create report: %w", err)
	}
	if err := WriteReport(f, res); err != nil {
		_ = f.Close()
		return err
	}
	return f.Close()
}

func renderSample(entries []subtitle.Entry) string {
	tw := table.NewWriter()
	tw.SetStyle(table.StyleRounded)
	tw.AppendHeader(table.Row{"#", "Original", "Translated"})
	for i, e := range entries {
		if i == reportSampleSize {
			break
		}
		tw.AppendRow(table.Row{e.Index, oneLine(e.OriginalText), oneLine(e.Text)})
	}
	tw.SetColumnConfigs([]table.ColumnConfig{
		{Number: 1, Align: text.AlignRight},
		{Number: 2, WidthMax: reportCellWidth},
		{Number: 3, WidthMax: reportCellWidth},
	})
	return tw.Render()
}

func outputLabel(res *FileResult) string {
	if res.Run != nil && res.Run.DryRun {
		return res.OutputPath + " (dry run, not written)"
	}
	return res.OutputPath
}

func oneLine(s string) string {
	return strings.ReplaceAll(s, "\n", " / ")
}

func truncate(s string, n int) string {
	if utf8.RuneCountInString(s) <= n {
		return s
	}
	r := []rune(s)
	return string(r[:n-1]) + "…"
}

func valueOr(s, fallback string) string {
	if s == "" {
		return fallback
	}
	return s
}
