package subtitle

import (
	"regexp"
	"strings"
)

var assOverrideRe = regexp.MustCompile(`\{[^}]*\}`)

const assHeader = `[Script Info]
ScriptType: v4.00+
WrapStyle: 0
ScaledBorderAndShadow: yes
PlayResX: 1920
PlayResY: 1080

[V4+ Styles]
Format: Name, Fontname, Fontsize, PrimaryColour, SecondaryColour, OutlineColour, BackColour, Bold, Italic, Underline, StrikeOut, ScaleX, ScaleY, Spacing, Angle, BorderStyle, Outline, Shadow, Alignment, MarginL, MarginR, MarginV, Encoding
Style: Default,Arial,60,&H00FFFFFF,&H000000FF,&H00000000,&H64000000,0,0,0,0,100,100,0,0,1,2,1,2,40,40,40,1

[Events]
Format: Layer, Start, End, Style, Name, MarginL, MarginR, MarginV, Effect, Text
`

// assFields maps the Start, End and Text columns of an [Events] Format line.
type assFields struct {
	count int
	start int
	end   int
	text  int
}

func newASSFields(format string) assFields {
	f := assFields{start: -1, end: -1, text: -1}
	names := strings.Split(format, ",")
	f.count = len(names)
	for i, name := range names {
		switch strings.TrimSpace(name) {
		case "Start":
			f.start = i
		case "End":
			f.end = i
		case "Text":
			f.text = i
		}
	}
	return f
}

// parseASS scans the [Events] section only. Dialogue lines that lack any of
// the Start, End or Text columns are dropped without failing the document.
func parseASS(raw string) []Entry {
	var (
		entries  []Entry
		inEvents bool
		fields   *assFields
	)

	for _, line := range strings.Split(raw, "\n") {
		line = strings.TrimSpace(line)
		if strings.HasPrefix(line, "[") && strings.HasSuffix(line, "]") {
			inEvents = strings.EqualFold(line, "[Events]")
			continue
		}
		if !inEvents {
			continue
		}

		key, value, found := strings.Cut(line, ":")
		if !found {
			continue
		}
		switch strings.TrimSpace(key) {
		case "Format":
			f := newASSFields(value)
			fields = &f
		case "Dialogue":
			if fields == nil {
				continue
			}
			if e, ok := parseDialogue(value, *fields, len(entries)+1); ok {
				entries = append(entries, e)
			}
		}
	}
	return entries
}

func parseDialogue(value string, f assFields, index int) (Entry, bool) {
	if f.start < 0 || f.end < 0 || f.text < 0 {
		return Entry{}, false
	}
	parts := strings.SplitN(strings.TrimSpace(value), ",", f.count)
	if len(parts) <= f.start || len(parts) <= f.end || len(parts) <= f.text {
		return Entry{}, false
	}

	r := TimeRange{
		Start: ParseTimestamp(parts[f.start], FormatASS),
		End:   ParseTimestamp(parts[f.end], FormatASS),
	}
	return newEntry(index, r, cleanASSText(parts[f.text])), true
}

func cleanASSText(s string) string {
	s = assOverrideRe.ReplaceAllString(s, "")
	s = strings.ReplaceAll(s, `\N`, "\n")
	return strings.TrimSpace(s)
}

func generateASS(entries []Entry) string {
	var sb strings.Builder
	sb.WriteString(assHeader)
	for _, e := range entries {
		sb.WriteString("Dialogue: 0,")
		sb.WriteString(FormatTimestamp(e.Range.Start, FormatASS))
		sb.WriteByte(',')
		sb.WriteString(FormatTimestamp(e.Range.End, FormatASS))
		sb.WriteString(",Default,,0,0,0,,")
		sb.WriteString(strings.ReplaceAll(e.Text, "\n", `\N`))
		sb.WriteByte('\n')
	}
	return sb.String()
}
