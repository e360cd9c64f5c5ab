package subtitle

import (
	"regexp"
	"strings"
)

var (
	vttTagRe       = regexp.MustCompile(`<[^>]*>`)
	vttEntityFixes = strings.NewReplacer("&lt;", "<", "&gt;", ">", "&amp;", "&")
)

// parseVTT collects cues: any arrow line opens a cue and the following
// non-blank lines up to the next blank or arrow line are its text.
func parseVTT(raw string) []Entry {
	lines := strings.Split(raw, "\n")

	var entries []Entry
	skipBlock := false
	for i := 0; i < len(lines); i++ {
		line := strings.TrimSpace(lines[i])

		if line == "" {
			skipBlock = false
			continue
		}
		if line == "WEBVTT" || strings.HasPrefix(line, "WEBVTT ") {
			continue
		}
		if strings.HasPrefix(line, "NOTE") || strings.HasPrefix(line, "STYLE") || strings.HasPrefix(line, "REGION") {
			skipBlock = true
			continue
		}
		if skipBlock || !strings.Contains(line, timeArrow) {
			// cue identifiers and stray lines carry no text
			continue
		}

		r, _ := parseTimeLine(line, FormatVTT)

		j := i + 1
		var text []string
		for j < len(lines) {
			next := strings.TrimSpace(lines[j])
			if next == "" || strings.Contains(next, timeArrow) {
				break
			}
			text = append(text, cleanVTTText(next))
			j++
		}
		i = j - 1

		if len(text) == 0 {
			continue
		}
		entries = append(entries, newEntry(len(entries)+1, r, strings.Join(text, "\n")))
	}
	return entries
}

func cleanVTTText(s string) string {
	return vttEntityFixes.Replace(vttTagRe.ReplaceAllString(s, ""))
}

func generateVTT(entries []Entry) string {
	var sb strings.Builder
	sb.WriteString("WEBVTT\n\n")
	for _, e := range entries {
		sb.WriteString(formatTimeLine(e.Range, FormatVTT))
		sb.WriteByte('\n')
		sb.WriteString(e.Text)
		sb.WriteString("\n\n")
	}
	return sb.String()
}
