package main

import (
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"github.com/MimeLyc/batch-sub-translator/internal/service"
	"github.com/MimeLyc/batch-sub-translator/pkg/log"
)

func newTranslateCommand(ctx *commandContext) *cobra.Command {
	var flags translateFlags
	var quiet bool

	cmd := &cobra.Command{
		Use:   "translate <input> [output]",
		Short: "Translate one subtitle file",
		Long: `Translate one SRT, WebVTT, ASS/SSA or plain text subtitle file.

Without an output path the result is written next to the input as
<name>.<target><ext>. The output extension selects the output format.`,
		Args: cobra.RangeArgs(1, 2),
		RunE: func(cmd *cobra.Command, args []string) error {
			opts, err := flags.options(cmd)
			if err != nil {
				return service.WrapError(err, service.ErrValidation, "invalid flags")
			}
			cfg, err := ctx.loadConfig(opts...)
			if err != nil {
				return err
			}
			backend, err := newBackend(cfg)
			if err != nil {
				return err
			}

			fileOpts := []service.FileOption{
				service.WithFileProgress(newBatchProgress(os.Stderr).callback()),
			}
			if !cfg.Translate.DryRun {
				store, err := ctx.openStore(cfg)
				if err != nil {
					log.Warn("Continuing without run history: %v", err)
				} else {
					defer store.Close()
					fileOpts = append(fileOpts, service.WithStore(store))
				}
			}

			req := service.Request{InputPath: strings.TrimSpace(args[0])}
			if len(args) == 2 {
				req.OutputPath = strings.TrimSpace(args[1])
			}

			res, err := service.NewFileTranslator(*cfg, backend, fileOpts...).Translate(cmd.Context(), req)
			if err != nil {
				return err
			}
			if failed := res.Run.Stats.Failed; failed > 0 {
				log.Warn("%d of %d batches kept their original text", failed, res.Run.Stats.Batches)
			}
			if quiet {
				if res.Written {
					fmt.Fprintln(cmd.OutOrStdout(), res.OutputPath)
				}
				return nil
			}
			return service.WriteReport(cmd.OutOrStdout(), res)
		},
	}

	flags.register(cmd)
	cmd.Flags().BoolVarP(&quiet, "quiet", "q", false, "Print only the output path instead of the summary")
	return cmd
}
