package subtitle

import (
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const sampleSRT = "1\n00:00:01,000 --> 00:00:02,000\nHello\n\n2\n00:00:02,500 --> 00:00:03,000\nWorld\n"

func TestParseSRT_Example(t *testing.T) {
	doc, err := Parse(sampleSRT, FormatSRT)
	require.NoError(t, err)
	require.Len(t, doc.Entries, 2)

	assert.Equal(t, "Hello", doc.Entries[0].Text)
	assert.Equal(t, "World", doc.Entries[1].Text)
	assert.Equal(t, "Hello", doc.Entries[0].OriginalText)
	assert.Equal(t, 2500*time.Millisecond, doc.Entries[1].Range.Start.Offset)

	out, err := Generate(doc, FormatSRT)
	require.NoError(t, err)
	assert.Equal(t, sampleSRT, out)
}

func TestParseSRT_SkipsMalformedBlocks(t *testing.T) {
	raw := strings.Join([]string{
		"1\n00:00:01,000 --> 00:00:02,000\nFirst",
		"2\nno arrow here\nDropped",
		"3\n00:00:03,000 --> 00:00:04,000",
		"x\n00:00:05,000 --> 00:00:06,000\nLine one\nLine two",
	}, "\r\n\r\n")

	doc, err := Parse(raw, FormatSRT)
	require.NoError(t, err)
	require.Len(t, doc.Entries, 2)
	assert.Equal(t, 1, doc.Entries[0].Index)
	// the unparsable index falls back to block position + 1
	assert.Equal(t, 4, doc.Entries[1].Index)
	assert.Equal(t, "Line one\nLine two", doc.Entries[1].Text)
}

func TestParseSRT_RunsOfBlankLinesSeparateOnce(t *testing.T) {
	raw := "1\n00:00:01,000 --> 00:00:02,000\nA\n\n\n \t\n\nX\n00:00:03,000 --> 00:00:04,000\nB\n"

	doc, err := Parse(raw, FormatSRT)
	require.NoError(t, err)
	require.Len(t, doc.Entries, 2)
	assert.Equal(t, "A", doc.Entries[0].Text)
	assert.Equal(t, "B", doc.Entries[1].Text)
	assert.Equal(t, 2, doc.Entries[1].Index)
}

func TestParseSRT_KeepsMalformedTimestamp(t *testing.T) {
	doc, err := Parse("1\n00:00:01,000 --> soon\nHi\n", FormatSRT)
	require.NoError(t, err)
	require.Len(t, doc.Entries, 1)
	assert.False(t, doc.Entries[0].Range.End.Valid())

	out, err := Generate(doc, FormatSRT)
	require.NoError(t, err)
	assert.Equal(t, "1\n00:00:01,000 --> soon\nHi\n", out)
}

func TestParseSRT_Empty(t *testing.T) {
	doc, err := Parse("  \n\n", FormatSRT)
	require.NoError(t, err)
	assert.Equal(t, 0, doc.Len())
	assert.NotNil(t, doc.Entries)
}

func TestParseVTT(t *testing.T) {
	raw := `WEBVTT

NOTE this is a comment
that spans lines

STYLE
::cue { color: yellow }

intro
00:00:01.000 --> 00:00:02.000 align:start
<v Roger>Hello &amp; <i>welcome</i></v>
second &lt;line&gt;

00:00:03.000 --> 00:00:04.000

00:00:05.000 --> 00:00:06.000
World
`
	doc, err := Parse(raw, FormatVTT)
	require.NoError(t, err)
	require.Len(t, doc.Entries, 2)

	assert.Equal(t, "Hello & welcome\nsecond <line>", doc.Entries[0].Text)
	assert.Equal(t, "align:start", doc.Entries[0].Range.Settings)
	assert.Equal(t, "World", doc.Entries[1].Text)
	assert.Equal(t, 2, doc.Entries[1].Index)
}

func TestParseVTT_ArrowLineEndsText(t *testing.T) {
	raw := "WEBVTT\n\n00:00:01.000 --> 00:00:02.000\nA\n00:00:02.000 --> 00:00:03.000\nB\n"
	doc, err := Parse(raw, FormatVTT)
	require.NoError(t, err)
	require.Len(t, doc.Entries, 2)
	assert.Equal(t, "A", doc.Entries[0].Text)
	assert.Equal(t, "B", doc.Entries[1].Text)
}

func TestGenerateVTT(t *testing.T) {
	doc, err := Parse(sampleSRT, FormatSRT)
	require.NoError(t, err)

	out, err := Generate(doc, FormatVTT)
	require.NoError(t, err)
	assert.Equal(t, "WEBVTT\n\n00:00:01.000 --> 00:00:02.000\nHello\n\n00:00:02.500 --> 00:00:03.000\nWorld\n\n", out)
}

const sampleASS = `[Script Info]
Title: sample

[V4+ Styles]
Format: Name, Fontname
Style: Default,Arial

[Events]
Format: Layer, Start, End, Style, Name, MarginL, MarginR, MarginV, Effect, Text
Comment: 0,0:00:00.00,0:00:01.00,Default,,0,0,0,,not dialogue
Dialogue: 0,0:00:01.00,0:00:02.50,Default,,0,0,0,,{\b1}Hello{\b0}, there\Nfriend
Dialogue: 0,0:00:03.00,0:00:04.00,Default,,0,0,0,,World
`

func TestParseASS(t *testing.T) {
	doc, err := Parse(sampleASS, FormatASS)
	require.NoError(t, err)
	require.Len(t, doc.Entries, 2)

	assert.Equal(t, "Hello, there\nfriend", doc.Entries[0].Text)
	assert.Equal(t, time.Second, doc.Entries[0].Range.Start.Offset)
	assert.Equal(t, 2500*time.Millisecond, doc.Entries[0].Range.End.Offset)
	assert.Equal(t, "World", doc.Entries[1].Text)
}

func TestParseASS_IgnoresOtherSectionsAndMissingFields(t *testing.T) {
	raw := `[Script Info]
Dialogue: 0,0:00:01.00,0:00:02.00,Default,,0,0,0,,outside events

[Events]
Format: Layer, Style, Text
Dialogue: 0,Default,no timing columns
`
	doc, err := Parse(raw, FormatASS)
	require.NoError(t, err)
	assert.Equal(t, 0, doc.Len())
}

func TestGenerateASS(t *testing.T) {
	doc, err := Parse(sampleASS, FormatASS)
	require.NoError(t, err)

	out, err := Generate(doc, FormatASS)
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(out, "[Script Info]\n"))
	assert.Contains(t, out, "[V4+ Styles]\n")
	assert.Contains(t, out, "Dialogue: 0,0:00:01.00,0:00:02.50,Default,,0,0,0,,Hello, there\\Nfriend\n")
	assert.Contains(t, out, "Dialogue: 0,0:00:03.00,0:00:04.00,Default,,0,0,0,,World\n")

	again, err := Parse(out, FormatASS)
	require.NoError(t, err)
	assert.Equal(t, doc.Texts(), again.Texts())
}

func TestParseText(t *testing.T) {
	raw := "# Title\n\nFirst line\n```\nSecond line\n\n   \nThird line\n"
	doc, err := Parse(raw, FormatText)
	require.NoError(t, err)
	assert.Equal(t, []string{"First line", "Second line", "Third line"}, doc.Texts())
	for _, e := range doc.Entries {
		assert.Equal(t, time.Duration(0), e.Range.Start.Offset)
		assert.Equal(t, time.Second, e.Range.End.Offset)
	}

	out, err := Generate(doc, FormatText)
	require.NoError(t, err)
	assert.Equal(t, "First line\n\nSecond line\n\nThird line\n", out)
}

func TestCrossFormatEquivalence(t *testing.T) {
	vtt := "WEBVTT\n\n00:00:01.000 --> 00:00:02.000\nHello\n\n00:00:02.500 --> 00:00:03.000\nWorld\n"

	fromSRT, err := Parse(sampleSRT, FormatSRT)
	require.NoError(t, err)
	fromVTT, err := Parse(vtt, FormatVTT)
	require.NoError(t, err)

	assert.Equal(t, fromSRT.Texts(), fromVTT.Texts())
	require.Equal(t, fromSRT.Len(), fromVTT.Len())
	for i := range fromSRT.Entries {
		assert.Equal(t, fromSRT.Entries[i].Range.Start, fromVTT.Entries[i].Range.Start)
		assert.Equal(t, fromSRT.Entries[i].Range.End, fromVTT.Entries[i].Range.End)
	}
}

func TestSRTRoundTripPreservesEntries(t *testing.T) {
	raw := "3\n00:00:01,000 --> 00:00:02,000\nA\nB\n\n7\n00:01:00,250 --> 00:01:02,000\nC\n"
	doc, err := Parse(raw, FormatSRT)
	require.NoError(t, err)

	out, err := Generate(doc, FormatSRT)
	require.NoError(t, err)

	again, err := Parse(out, FormatSRT)
	require.NoError(t, err)
	assert.Equal(t, doc.Entries, again.Entries)
}

func TestDetectFormat(t *testing.T) {
	assert.Equal(t, FormatVTT, DetectFormat("WEBVTT\n\n"))
	assert.Equal(t, FormatASS, DetectFormat("[Script Info]\n[Events]\n"))
	assert.Equal(t, FormatSRT, DetectFormat("1\n00:00:01,000 --> 00:00:02,000\nx\n"))
}

func TestFormatFromPath(t *testing.T) {
	tests := map[string]Format{
		"a.srt":     FormatSRT,
		"b.VTT":     FormatVTT,
		"c.ass":     FormatASS,
		"d.ssa":     FormatASS,
		"dir/e.txt": FormatText,
		"f.en.srt":  FormatSRT,
	}
	for path, want := range tests {
		got, err := FormatFromPath(path)
		require.NoError(t, err, path)
		assert.Equal(t, want, got, path)
	}

	_, err := FormatFromPath("movie.mkv")
	assert.ErrorIs(t, err, ErrUnsupportedFormat)
}

func TestParseFormat(t *testing.T) {
	f, err := ParseFormat("WebVTT")
	require.NoError(t, err)
	assert.Equal(t, FormatVTT, f)

	_, err = ParseFormat("sbv")
	assert.ErrorIs(t, err, ErrUnsupportedFormat)
}
