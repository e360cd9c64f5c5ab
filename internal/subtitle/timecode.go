package subtitle

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"
	"time"
)

const timeArrow = "-->"

var (
	srtTimeRe   = regexp.MustCompile(`^(\d{1,}):(\d{2}):(\d{2})[,.](\d{3})$`)
	vttTimeRe   = regexp.MustCompile(`^(?:(\d{1,}):)?(\d{2}):(\d{2})\.(\d{3})$`)
	assTimeRe   = regexp.MustCompile(`^(\d+):(\d{1,2}):(\d{1,2})\.(\d{1,2})$`)
	placeholder = TimeRange{
		Start: Timestamp{Offset: 0},
		End:   Timestamp{Offset: time.Second},
	}
)

// ParseTimestamp converts text in the notation of f to a Timestamp.
// Unparseable text is kept as Raw so it can be written back unchanged.
func ParseTimestamp(text string, f Format) Timestamp {
	text = strings.TrimSpace(text)
	var (
		d  time.Duration
		ok bool
	)
	switch f {
	case FormatSRT:
		d, ok = parseMillisTime(srtTimeRe, text)
	case FormatVTT:
		d, ok = parseMillisTime(vttTimeRe, text)
	case FormatASS:
		d, ok = parseCentisTime(text)
	}
	if !ok {
		return Timestamp{Raw: text}
	}
	return Timestamp{Offset: d}
}

// FormatTimestamp renders ts in the notation of f.
func FormatTimestamp(ts Timestamp, f Format) string {
	if !ts.Valid() {
		return ts.Raw
	}
	d := ts.Offset
	if d < 0 {
		d = 0
	}
	hours := int64(d / time.Hour)
	minutes := int64(d/time.Minute) % 60
	seconds := int64(d/time.Second) % 60
	millis := int64(d/time.Millisecond) % 1000

	switch f {
	case FormatSRT:
		return fmt.Sprintf("%02d:%02d:%02d,%03d", hours, minutes, seconds, millis)
	case FormatVTT:
		return fmt.Sprintf("%02d:%02d:%02d.%03d", hours, minutes, seconds, millis)
	case FormatASS:
		return fmt.Sprintf("%d:%02d:%02d.%02d", hours, minutes, seconds, millis/10)
	default:
		return fmt.Sprintf("%02d:%02d:%02d,%03d", hours, minutes, seconds, millis)
	}
}

// parseTimeLine splits "start --> end [settings]" into a TimeRange.
// ok is false when the line carries no arrow.
func parseTimeLine(line string, f Format) (TimeRange, bool) {
	start, rest, found := strings.Cut(line, timeArrow)
	if !found {
		return TimeRange{}, false
	}
	end := strings.TrimSpace(rest)
	var settings string
	if f == FormatVTT {
		end, settings, _ = strings.Cut(end, " ")
	}
	return TimeRange{
		Start:    ParseTimestamp(start, f),
		End:      ParseTimestamp(end, f),
		Settings: strings.TrimSpace(settings),
	}, true
}

func formatTimeLine(r TimeRange, f Format) string {
	line := FormatTimestamp(r.Start, f) + " " + timeArrow + " " + FormatTimestamp(r.End, f)
	if r.Settings != "" && f == FormatVTT {
		line += " " + r.Settings
	}
	return line
}

func parseMillisTime(re *regexp.Regexp, text string) (time.Duration, bool) {
	m := re.FindStringSubmatch(text)
	if m == nil {
		return 0, false
	}
	h := atoi(m[1])
	mi := atoi(m[2])
	s := atoi(m[3])
	ms := atoi(m[4])
	if mi > 59 || s > 59 {
		return 0, false
	}
	return clock(h, mi, s) + time.Duration(ms)*time.Millisecond, true
}

// parseCentisTime pads H:M:S to two digits and expands centiseconds by
// appending a zero, so "0:00:01.5" reads as 00:00:01.500.
func parseCentisTime(text string) (time.Duration, bool) {
	m := assTimeRe.FindStringSubmatch(text)
	if m == nil {
		return 0, false
	}
	h := atoi(m[1])
	mi := atoi(m[2])
	s := atoi(m[3])
	cs := m[4]
	if len(cs) == 1 {
		cs += "0"
	}
	if mi > 59 || s > 59 {
		return 0, false
	}
	return clock(h, mi, s) + time.Duration(atoi(cs+"0"))*time.Millisecond, true
}

func clock(h, m, s int) time.Duration {
	return time.Duration(h)*time.Hour +
		time.Duration(m)*time.Minute +
		time.Duration(s)*time.Second
}

func atoi(s string) int {
	if s == "" {
		return 0
	}
	n, _ := strconv.Atoi(s)
	return n
}
