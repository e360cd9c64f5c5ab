package subtitle

import "time"

// Reader loads a subtitle document from a path.
type Reader interface {
	Read(path string) (*Document, error)
}

// Writer stores a subtitle document at a path.
type Writer interface {
	Write(path string, doc *Document) error
}

// Timestamp is a point on the media timeline.
// Raw holds the source notation when it could not be parsed; such a
// timestamp is written back verbatim by every generator.
type Timestamp struct {
	Offset time.Duration
	Raw    string
}

// Valid reports whether the timestamp was parsed into Offset.
func (t Timestamp) Valid() bool {
	return t.Raw == ""
}

// TimeRange is the display window of one entry.
type TimeRange struct {
	Start Timestamp
	End   Timestamp
	// Settings carries WebVTT cue settings that follow the end time.
	Settings string
}

// Entry is one timed subtitle unit.
type Entry struct {
	Index        int       // sequence number, dense from 1 after repair
	Range        TimeRange // display window
	Text         string    // current text, lines joined by "\n"
	OriginalText string    // text at parse time, never translated
}

// Document is an ordered list of entries. Insertion order is display order.
type Document struct {
	Entries  []Entry
	Format   Format
	Language string // ISO 639-1 code of the dominant text language, "" if unknown
	Path     string
}

// Len returns the number of entries.
func (d *Document) Len() int {
	if d == nil {
		return 0
	}
	return len(d.Entries)
}

// Texts returns the current text of every entry in order.
func (d *Document) Texts() []string {
	ret := make([]string, len(d.Entries))
	for i, e := range d.Entries {
		ret[i] = e.Text
	}
	return ret
}

// Clone returns a deep copy of the document.
func (d *Document) Clone() *Document {
	if d == nil {
		return nil
	}
	cp := *d
	cp.Entries = append([]Entry(nil), d.Entries...)
	return &cp
}

// Batch is a contiguous run of entries translated in one request.
type Batch struct {
	Index   int
	Entries []Entry
}

// BatchResult is the outcome of one batch, addressed by its index.
type BatchResult struct {
	Index   int
	Entries []Entry
	Err     error
	Cached  bool
}

func newEntry(index int, r TimeRange, text string) Entry {
	return Entry{
		Index:        index,
		Range:        r,
		Text:         text,
		OriginalText: text,
	}
}
