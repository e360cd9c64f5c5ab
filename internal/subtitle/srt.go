package subtitle

import (
	"regexp"
	"strconv"
	"strings"
)

var blankLineRe = regexp.MustCompile(`\n(?:[ \t]*\n)+`)

// parseSRT reads blank-line separated blocks of index, time line and text.
// A block with fewer than three lines or without an arrow is skipped.
func parseSRT(raw string) []Entry {
	content := strings.TrimSpace(raw)
	if content == "" {
		return nil
	}

	var entries []Entry
	for pos, block := range blankLineRe.Split(content, -1) {
		lines := strings.Split(strings.TrimSpace(block), "\n")
		if len(lines) < 3 {
			continue
		}

		r, ok := parseTimeLine(lines[1], FormatSRT)
		if !ok {
			continue
		}

		index, err := strconv.Atoi(strings.TrimSpace(lines[0]))
		if err != nil || index <= 0 {
			index = pos + 1
		}

		text := make([]string, 0, len(lines)-2)
		for _, l := range lines[2:] {
			text = append(text, strings.TrimRight(l, " \t"))
		}
		entries = append(entries, newEntry(index, r, strings.TrimSpace(strings.Join(text, "\n"))))
	}
	return entries
}

func generateSRT(entries []Entry) string {
	blocks := make([]string, len(entries))
	for i, e := range entries {
		var sb strings.Builder
		sb.WriteString(strconv.Itoa(e.Index))
		sb.WriteByte('\n')
		sb.WriteString(formatTimeLine(e.Range, FormatSRT))
		sb.WriteByte('\n')
		sb.WriteString(e.Text)
		sb.WriteByte('\n')
		blocks[i] = sb.String()
	}
	return strings.Join(blocks, "\n")
}
