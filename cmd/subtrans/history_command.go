package main

import (
	"fmt"
	"time"

	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/jedib0t/go-pretty/v6/text"
	"github.com/spf13/cobra"

	"github.com/MimeLyc/batch-sub-translator/internal/config"
	"github.com/MimeLyc/batch-sub-translator/internal/persistence"
	"github.com/MimeLyc/batch-sub-translator/internal/service"
)

func newHistoryCommand(ctx *commandContext) *cobra.Command {
	var limit int

	cmd := &cobra.Command{
		Use:   "history",
		Short: "Show recent translation runs",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := ctx.loadConfig(config.Offline())
			if err != nil {
				return err
			}
			store, err := ctx.openStore(cfg)
			if err != nil {
				return err
			}
			defer store.Close()

			runs, err := store.LoadRuns(cmd.Context(), limit)
			if err != nil {
				return service.WrapError(err, service.ErrUnknown, "failed to load run history")
			}
			if len(runs) == 0 {
				fmt.Fprintln(cmd.OutOrStdout(), "No runs recorded")
				return nil
			}
			fmt.Fprintln(cmd.OutOrStdout(), renderRuns(runs))
			return nil
		},
	}

	cmd.Flags().IntVarP(&limit, "limit", "n", 20, "Number of runs to show, 0 for all")
	return cmd
}

func renderRuns(runs []*persistence.Run) string {
	tw := table.NewWriter()
	tw.SetStyle(table.StyleRounded)
	tw.AppendHeader(table.Row{"Run", "Status", "Target", "Entries", "Batches", "Failed", "Cached", "Updated", "Input"})
	for _, run := range runs {
		tw.AppendRow(table.Row{
			shortID(run.ID),
			string(run.Status),
			run.TargetLanguage,
			run.Entries,
			run.Batches,
			run.Failed,
			run.Cached,
			run.UpdatedAt.Local().Format(time.DateTime),
			run.InputPath,
		})
	}
	tw.SetColumnConfigs([]table.ColumnConfig{
		{Number: 4, Align: text.AlignRight},
		{Number: 5, Align: text.AlignRight},
		{Number: 6, Align: text.AlignRight},
		{Number: 7, Align: text.AlignRight},
	})
	return tw.Render()
}

func newCacheCommand(ctx *commandContext) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "cache",
		Short: "Manage the translated batch cache",
	}

	var olderThan time.Duration
	prune := &cobra.Command{
		Use:   "prune",
		Short: "Delete cached batches older than a duration",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if olderThan < 0 {
				return service.NewError(service.ErrValidation, "--older-than must not be negative")
			}
			cfg, err := ctx.loadConfig(config.Offline())
			if err != nil {
				return err
			}
			store, err := ctx.openStore(cfg)
			if err != nil {
				return err
			}
			defer store.Close()

			n, err := store.DeleteCheckpointsBefore(cmd.Context(), time.Now().Add(-olderThan))
			if err != nil {
				return service.WrapError(err, service.ErrUnknown, "failed to prune cache")
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Deleted %d cached batches\n", n)
			return nil
		},
	}
	prune.Flags().DurationVar(&olderThan, "older-than", 30*24*time.Hour, "Minimum age of deleted entries")

	stats := &cobra.Command{
		Use:   "stats",
		Short: "Show how many batches are cached",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := ctx.loadConfig(config.Offline())
			if err != nil {
				return err
			}
			store, err := ctx.openStore(cfg)
			if err != nil {
				return err
			}
			defer store.Close()

			st, err := store.CheckpointStats(cmd.Context())
			if err != nil {
				return service.WrapError(err, service.ErrUnknown, "failed to read cache stats")
			}
			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "Cached batches: %d (%d lines)\n", st.Batches, st.Lines)
			if st.Batches > 0 {
				fmt.Fprintf(out, "Oldest: %s\nNewest: %s\n",
					st.Oldest.Local().Format(time.DateTime), st.Newest.Local().Format(time.DateTime))
			}
			fmt.Fprintf(out, "Database: %s\n", cfg.DBPath())
			return nil
		},
	}

	cmd.AddCommand(prune, stats)
	return cmd
}
