package main

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"

	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/spf13/cobra"
	"golang.org/x/text/language"

	"github.com/MimeLyc/batch-sub-translator/internal/config"
	"github.com/MimeLyc/batch-sub-translator/internal/llm"
	"github.com/MimeLyc/batch-sub-translator/internal/service"
	"github.com/MimeLyc/batch-sub-translator/internal/subtitle"
	"github.com/MimeLyc/batch-sub-translator/internal/termmap"
)

func newGlossaryCommand(ctx *commandContext) *cobra.Command {
	var target string
	var source string
	var output string
	var model string

	cmd := &cobra.Command{
		Use:   "glossary <input>",
		Short: "Extract names and recurring terms into a term map",
		Long: `Ask the model for the proper nouns and recurring terminology of a subtitle
file and merge them into term_map.<src>-<tgt>.json next to the input.
Existing entries are never overwritten.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			var opts []config.Option
			if cmd.Flags().Changed("target") {
				tag, err := language.Parse(target)
				if err != nil {
					return service.WrapError(err, service.ErrValidation, "invalid --target")
				}
				opts = append(opts, config.WithTargetLanguage(tag))
			}
			if cmd.Flags().Changed("source") {
				opts = append(opts, config.WithSourceLanguage(source))
			}
			if cmd.Flags().Changed("model") {
				opts = append(opts, config.WithModel(model))
			}
			cfg, err := ctx.loadConfig(opts...)
			if err != nil {
				return err
			}

			input := args[0]
			doc, err := subtitle.NewReader().Read(input)
			if err != nil {
				if errors.Is(err, os.ErrNotExist) {
					return service.WrapError(err, service.ErrFileNotFound, "input file not found").WithContext("path", input)
				}
				return service.WrapError(err, service.ErrFileRead, "failed to read subtitle file").WithContext("path", input)
			}
			if doc.Len() == 0 {
				return service.WrapError(service.ErrNoSubtitles, service.ErrParse, "no subtitles found").WithContext("path", input)
			}

			src := cfg.Translate.SourceLanguage
			if src == "" {
				src = doc.Language
			}
			if src == "" {
				return service.NewError(service.ErrValidation, "source language could not be detected, pass --source")
			}
			tgt := cfg.Translate.TargetLanguage.String()

			path := output
			if path == "" {
				path = termmap.FilePath(filepath.Dir(input), src, tgt)
			}
			existing := termmap.TermMap{}
			if _, err := os.Stat(path); err == nil {
				if existing, err = termmap.Load(path); err != nil {
					return service.WrapError(err, service.ErrConfig, "failed to load term map").WithContext("path", path)
				}
			}

			client, err := llm.NewClient(cfg.LLM.ClientConfig())
			if err != nil {
				return service.WrapError(err, service.ErrConfig, "failed to create LLM client")
			}
			added, err := termmap.NewGenerator(client).ExtractNewTerms(cmd.Context(), doc.Texts(), existing, src, tgt)
			if err != nil {
				return service.WrapError(err, service.ErrAPI, "term extraction failed")
			}

			merged := termmap.Merge(existing, added)
			if err := termmap.Save(path, merged); err != nil {
				return service.WrapError(err, service.ErrFileWrite, "failed to save term map").WithContext("path", path)
			}

			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "%s: %d new, %d total\n", path, len(added), len(merged))
			if len(added) > 0 {
				fmt.Fprintln(out, renderTerms(added))
			}
			return nil
		},
	}

	cmd.Flags().StringVarP(&target, "target", "t", "", "Target language as a BCP 47 tag (default zh-Hant)")
	cmd.Flags().StringVarP(&source, "source", "s", "", "Source language code, detected from the text when empty")
	cmd.Flags().StringVarP(&output, "output", "o", "", "Term map path (default next to the input)")
	cmd.Flags().StringVarP(&model, "model", "m", "", "Model identifier")
	return cmd
}

func renderTerms(tm termmap.TermMap) string {
	keys := make([]string, 0, len(tm))
	for k := range tm {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	tw := table.NewWriter()
	tw.SetStyle(table.StyleRounded)
	tw.AppendHeader(table.Row{"Source", "Target"})
	for _, k := range keys {
		tw.AppendRow(table.Row{k, tm[k]})
	}
	return tw.Render()
}
