package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/MimeLyc/batch-sub-translator/internal/config"
	"github.com/MimeLyc/batch-sub-translator/internal/service"
)

func newWatchCommand(ctx *commandContext) *cobra.Command {
	var flags translateFlags
	var dirs []string
	var cronExpr string
	var once, includeText bool

	cmd := &cobra.Command{
		Use:   "watch [dir...]",
		Short: "Translate new subtitle files in directories on a schedule",
		Long: `Scan directories for subtitle files that have no translated sibling yet
and translate them one by one. The first scan runs immediately, later scans
follow the cron schedule until interrupted.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			opts, err := flags.options(cmd)
			if err != nil {
				return service.WrapError(err, service.ErrValidation, "invalid flags")
			}
			if all := append(dirs, args...); len(all) > 0 {
				opts = append(opts, config.WithWatchDirs(all...))
			}
			if cmd.Flags().Changed("cron") {
				opts = append(opts, config.WithCronExpr(cronExpr))
			}
			if cmd.Flags().Changed("include-text") {
				opts = append(opts, config.WithWatchText(includeText))
			}

			cfg, err := ctx.loadConfig(opts...)
			if err != nil {
				return err
			}
			backend, err := newBackend(cfg)
			if err != nil {
				return err
			}
			store, err := ctx.openStore(cfg)
			if err != nil {
				return err
			}
			defer store.Close()

			files := service.NewFileTranslator(*cfg, backend,
				service.WithStore(store),
				service.WithFileProgress(newBatchProgress(os.Stderr).callback()),
			)
			watcher := service.NewWatcher(*cfg, files, store, nil)

			if once {
				n, err := watcher.ScanOnce(cmd.Context())
				if err != nil {
					return err
				}
				fmt.Fprintf(cmd.OutOrStdout(), "Translated %d files\n", n)
				return nil
			}
			return watcher.Run(cmd.Context())
		},
	}

	flags.register(cmd)
	cmd.Flags().StringSliceVarP(&dirs, "dir", "d", nil, "Directory to watch (repeatable, default $WATCH_DIRS)")
	cmd.Flags().StringVar(&cronExpr, "cron", "", "Scan schedule as a cron expression or descriptor (default */10 * * * *)")
	cmd.Flags().BoolVar(&once, "once", false, "Scan once and exit")
	cmd.Flags().BoolVar(&includeText, "include-text", false, "Also translate plain .txt files")
	return cmd
}
