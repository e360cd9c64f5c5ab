package termmap

import (
	"strings"
	"unicode"
	"unicode/utf8"
)

// Match returns the entries of tm whose source term occurs as a whole word
// in at least one of texts. Matching is case-sensitive and blank keys never
// match.
func Match(tm TermMap, texts []string) TermMap {
	matched := make(TermMap)
	for source, target := range tm {
		if strings.TrimSpace(source) == "" {
			continue
		}
		for _, text := range texts {
			if ContainsWord(text, source) {
				matched[source] = target
				break
			}
		}
	}
	return matched
}

// ContainsWord reports whether term occurs in text without being glued to
// a neighbouring letter or digit, so "elf" is found in "an elf!" but not in
// "herself". Scripts written without spaces (Han, kana, Thai) match as
// plain substrings.
func ContainsWord(text, term string) bool {
	if term == "" {
		return false
	}
	first, _ := utf8.DecodeRuneInString(term)
	last, _ := utf8.DecodeLastRuneInString(term)

	for offset := 0; offset < len(text); {
		i := strings.Index(text[offset:], term)
		if i < 0 {
			return false
		}
		start := offset + i
		end := start + len(term)

		before, _ := utf8.DecodeLastRuneInString(text[:start])
		after, _ := utf8.DecodeRuneInString(text[end:])
		if !(glued(before, first) || glued(last, after)) {
			return true
		}
		_, size := utf8.DecodeRuneInString(text[start:])
		offset = start + size
	}
	return false
}

// ContainsWordFold is ContainsWord ignoring case.
func ContainsWordFold(text, term string) bool {
	return ContainsWord(strings.ToLower(text), strings.ToLower(term))
}

// glued reports whether a and b would read as one word.
func glued(a, b rune) bool {
	return spacedWordRune(a) && spacedWordRune(b)
}

func spacedWordRune(r rune) bool {
	if r == utf8.RuneError {
		return false
	}
	if !unicode.IsLetter(r) && !unicode.IsDigit(r) && r != '_' {
		return false
	}
	return !unicode.In(r, unicode.Han, unicode.Hiragana, unicode.Katakana, unicode.Thai)
}
