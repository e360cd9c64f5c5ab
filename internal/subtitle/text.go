package subtitle

import "strings"

// parseText makes one entry per content line. Markdown headings and code
// fences are not subtitle content.
func parseText(raw string) []Entry {
	var entries []Entry
	for _, line := range strings.Split(raw, "\n") {
		line = strings.TrimSpace(line)
		if line == "" || strings.HasPrefix(line, "#") || strings.HasPrefix(line, "```") {
			continue
		}
		entries = append(entries, newEntry(len(entries)+1, placeholder, line))
	}
	return entries
}

func generateText(entries []Entry) string {
	texts := make([]string, len(entries))
	for i, e := range entries {
		texts[i] = e.Text
	}
	if len(texts) == 0 {
		return ""
	}
	return strings.Join(texts, "\n\n") + "\n"
}
