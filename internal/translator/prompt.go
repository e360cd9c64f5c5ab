package translator

import (
	"fmt"
	"strings"

	"github.com/MimeLyc/batch-sub-translator/internal/termmap"
)

// InlineBreaker stands in for line breaks inside one subtitle so that every
// numbered prompt line maps to exactly one entry.
const InlineBreaker = "%%inline_breaker%%"

const (
	// ContextSampleLines is how many leading texts feed the synopsis request.
	ContextSampleLines = 50
	// FallbackContext is used whenever a synopsis cannot be produced.
	FallbackContext = "General video content. Keep the translation natural and fluent."

	translatorSystemPrompt = "You are a professional subtitle translator. You always answer with valid JSON only."
	analystSystemPrompt    = "You are a film and television analyst who prepares briefings for subtitle translators."
)

func encodeInline(text string) string {
	return strings.ReplaceAll(text, "\n", InlineBreaker)
}

func decodeInline(text string) string {
	parts := strings.Split(text, InlineBreaker)
	for i := range parts {
		parts[i] = strings.TrimSpace(parts[i])
	}
	return strings.TrimSpace(strings.Join(parts, "\n"))
}

func buildBatchPrompt(texts []string, synopsis string, opts Options) string {
	var prompt strings.Builder

	target := opts.TargetLanguage
	if opts.SourceLanguage != "" {
		prompt.WriteString(fmt.Sprintf("Translate the following %s subtitles into %s.\n\n", opts.SourceLanguage, target))
	} else {
		prompt.WriteString(fmt.Sprintf("Translate the following subtitles into %s.\n\n", target))
	}

	prompt.WriteString("=== CONTEXT ===\n")
	if strings.TrimSpace(synopsis) == "" {
		synopsis = FallbackContext
	}
	prompt.WriteString(synopsis)
	prompt.WriteString("\n\n")

	prompt.WriteString("=== TRANSLATION GUIDELINES ===\n")
	prompt.WriteString("1. Preserve the meaning and tone of every line\n")
	prompt.WriteString("2. " + opts.Style.Directive() + "\n")
	prompt.WriteString("3. Keep names and terminology consistent across lines\n")
	prompt.WriteString("4. Adapt cultural references for a " + target + " audience where needed\n")
	prompt.WriteString("5. Keep every " + InlineBreaker + " marker in place; it is a line break inside one subtitle\n")
	prompt.WriteString("6. Translate each numbered line on its own. Do NOT merge, split, reorder or drop lines\n\n")

	if pairs := termmap.Match(opts.TermMap, texts).Pairs(); len(pairs) > 0 {
		prompt.WriteString("=== TERM MAPPINGS ===\n")
		prompt.WriteString("Use these translations for the following terms:\n")
		for _, pair := range pairs {
			prompt.WriteString(fmt.Sprintf("- %s => %s\n", pair.Source, pair.Target))
		}
		prompt.WriteString("\n")
	}

	prompt.WriteString("=== SUBTITLES ===\n")
	for i, text := range texts {
		prompt.WriteString(fmt.Sprintf("%d. %s\n", i+1, encodeInline(text)))
	}
	prompt.WriteString("\n")

	prompt.WriteString("=== OUTPUT FORMAT ===\n")
	prompt.WriteString(fmt.Sprintf("Reply with a JSON object containing exactly %d translated strings in input order:\n", len(texts)))
	prompt.WriteString(`{"translations": ["translation of line 1", "translation of line 2"]}`)
	prompt.WriteString("\nNo markdown, no numbering, no commentary.\n")

	return prompt.String()
}

func buildContextPrompt(texts []string, opts Options) string {
	if len(texts) > ContextSampleLines {
		texts = texts[:ContextSampleLines]
	}

	var prompt strings.Builder
	prompt.WriteString("Read the following subtitle excerpt and write a short briefing for a translator")
	if opts.TargetLanguage != "" {
		prompt.WriteString(" working into " + opts.TargetLanguage)
	}
	prompt.WriteString(".\n\n")
	prompt.WriteString("Cover:\n")
	prompt.WriteString("1. Topic and genre\n")
	prompt.WriteString("2. Main characters, places and recurring terminology\n")
	prompt.WriteString("3. Tone and register of the dialogue\n")
	prompt.WriteString("4. Cultural background that affects the translation\n\n")
	prompt.WriteString("Keep it under 150 words and answer in English.\n\n")
	prompt.WriteString("=== EXCERPT ===\n")
	for _, text := range texts {
		prompt.WriteString(strings.ReplaceAll(text, "\n", " "))
		prompt.WriteString("\n")
	}
	return prompt.String()
}
