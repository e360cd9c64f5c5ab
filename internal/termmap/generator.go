package termmap

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/MimeLyc/batch-sub-translator/internal/llm"
	"github.com/MimeLyc/batch-sub-translator/pkg/jsonx"
	"github.com/MimeLyc/batch-sub-translator/pkg/log"
)

// DefaultSampleChars bounds the subtitle excerpt sent for term extraction.
const DefaultSampleChars = 12000

const generatorSystemPrompt = "You build translation glossaries for subtitles. Reply with one flat JSON object and nothing else."

// Completer is the chat-completion call the generator needs.
type Completer interface {
	ChatCompletion(ctx context.Context, messages []llm.Message, opts *llm.ChatCompletionOptions) (*llm.ChatResponse, error)
}

// Generator asks a model for the names and recurring terms of an episode.
type Generator struct {
	client      Completer
	sampleChars int
}

func NewGenerator(client Completer) *Generator {
	return &Generator{client: client, sampleChars: DefaultSampleChars}
}

// Generate proposes a glossary for texts. Entries whose source term does
// not occur in texts are discarded.
func (g *Generator) Generate(ctx context.Context, texts []string, sourceLang, targetLang string) (TermMap, error) {
	if g == nil || g.client == nil {
		return nil, errors.New("term map generator has no client")
	}
	sample := sampleLines(texts, g.sampleChars)
	if len(sample) == 0 {
		return TermMap{}, nil
	}

	resp, err := g.client.ChatCompletion(ctx,
		[]llm.Message{{Role: "user", Content: generatorPrompt(sample, sourceLang, targetLang)}},
		llm.NewChatCompletionOptions().WithSystemPrompt(generatorSystemPrompt).WithJSONObject(),
	)
	if err != nil {
		return nil, fmt.Errorf("term extraction: %w", err)
	}
	content, err := resp.Content()
	if err != nil {
		return nil, fmt.Errorf("term extraction: %w", err)
	}

	proposed, err := decodeGlossary(content)
	if err != nil {
		return nil, fmt.Errorf("term extraction: %w\nraw response:\n%s", err, content)
	}

	tm := make(TermMap, len(proposed))
	for source, target := range proposed {
		if !occursIn(texts, source) {
			log.Debug("Dropping glossary entry %q: not in the subtitles", source)
			continue
		}
		tm[source] = target
	}
	return tm, nil
}

// ExtractNewTerms is Generate minus the terms existing already covers.
func (g *Generator) ExtractNewTerms(ctx context.Context, texts []string, existing TermMap, sourceLang, targetLang string) (TermMap, error) {
	if len(texts) == 0 {
		return TermMap{}, nil
	}
	proposed, err := g.Generate(ctx, texts, sourceLang, targetLang)
	if err != nil {
		return nil, err
	}
	for source := range existing {
		delete(proposed, source)
	}
	return proposed, nil
}

// sampleLines flattens and dedupes texts, then picks evenly spaced lines
// across the whole episode until limit bytes are used.
func sampleLines(texts []string, limit int) []string {
	seen := make(map[string]bool, len(texts))
	var lines []string
	total := 0
	for _, text := range texts {
		line := strings.Join(strings.Fields(text), " ")
		if line == "" || seen[line] {
			continue
		}
		seen[line] = true
		lines = append(lines, line)
		total += len(line) + 1
	}
	if total <= limit {
		return lines
	}

	stride := float64(total) / float64(limit)
	var out []string
	used := 0
	for pos := 0.0; int(pos) < len(lines); pos += stride {
		line := lines[int(pos)]
		if used+len(line)+1 > limit {
			break
		}
		out = append(out, line)
		used += len(line) + 1
	}
	return out
}

func generatorPrompt(lines []string, sourceLang, targetLang string) string {
	var b strings.Builder
	fmt.Fprintf(&b, "Below are lines from a %s subtitle file.\n", sourceLang)
	fmt.Fprintf(&b, "List the character names, place names and recurring show-specific terms, each with the %s rendering a translator should use consistently.\n", targetLang)
	b.WriteString("Leave out ordinary vocabulary.\n\n")

	b.WriteString("Reply format:\n")
	fmt.Fprintf(&b, "{\"<%s term>\": \"<%s term>\", ...}\n", sourceLang, targetLang)
	b.WriteString("- Keys are copied exactly as they are spelled in the lines.\n")
	b.WriteString("- Exactly one string value per key.\n")
	b.WriteString("- No markdown, no commentary. The reply starts with { and ends with }.\n\n")

	b.WriteString("Lines:\n")
	for _, line := range lines {
		b.WriteString(line)
		b.WriteByte('\n')
	}
	return b.String()
}

// decodeGlossary keeps the string-valued entries of the reply object.
func decodeGlossary(content string) (TermMap, error) {
	var raw map[string]any
	if err := jsonx.DecodeObject(content, &raw); err != nil {
		return nil, err
	}
	tm := make(TermMap, len(raw))
	for source, value := range raw {
		target, ok := value.(string)
		source, target = strings.TrimSpace(source), strings.TrimSpace(target)
		if !ok || source == "" || target == "" {
			continue
		}
		tm[source] = target
	}
	return tm, nil
}

func occursIn(texts []string, term string) bool {
	for _, text := range texts {
		if strings.Contains(strings.Join(strings.Fields(text), " "), term) {
			return true
		}
	}
	return false
}
