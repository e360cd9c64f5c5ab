package subtitle

// RepairReport summarises what Repair changed or found.
type RepairReport struct {
	Renumbered int // entries whose Index changed
	Anomalies  int // consecutive pairs where the earlier entry ends after the next starts
}

// Repair renumbers entries densely from 1 and counts timing overlaps.
// It never reorders entries and never touches text or time ranges.
func Repair(doc *Document) RepairReport {
	var report RepairReport
	if doc == nil {
		return report
	}

	for i := range doc.Entries {
		if doc.Entries[i].Index != i+1 {
			doc.Entries[i].Index = i + 1
			report.Renumbered++
		}
	}
	report.Anomalies = CountTimingAnomalies(doc.Entries)
	return report
}

// CountTimingAnomalies counts pairs where entries[i].End > entries[i+1].Start.
// Pairs involving an unparsed timestamp are not compared.
func CountTimingAnomalies(entries []Entry) int {
	count := 0
	for i := 1; i < len(entries); i++ {
		prev := entries[i-1].Range.End
		next := entries[i].Range.Start
		if !prev.Valid() || !next.Valid() {
			continue
		}
		if prev.Offset > next.Offset {
			count++
		}
	}
	return count
}
