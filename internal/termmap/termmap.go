// Package termmap keeps per-show glossaries that pin how names and
// recurring terms are translated.
package termmap

import "sort"

// TermMap maps source language terms to target language terms.
type TermMap map[string]string

// Pair is one source => target mapping.
type Pair struct {
	Source string
	Target string
}

// Pairs lists the entries longest source first, so a longer name comes
// before any shorter term it contains. Ties sort alphabetically.
func (tm TermMap) Pairs() []Pair {
	pairs := make([]Pair, 0, len(tm))
	for source, target := range tm {
		pairs = append(pairs, Pair{Source: source, Target: target})
	}
	sort.Slice(pairs, func(i, j int) bool {
		if len(pairs[i].Source) != len(pairs[j].Source) {
			return len(pairs[i].Source) > len(pairs[j].Source)
		}
		return pairs[i].Source < pairs[j].Source
	})
	return pairs
}

// Merge adds the entries of extra that base does not have yet. base wins on conflicts.
func Merge(base, extra TermMap) TermMap {
	merged := make(TermMap, len(base)+len(extra))
	for k, v := range extra {
		merged[k] = v
	}
	for k, v := range base {
		merged[k] = v
	}
	return merged
}
