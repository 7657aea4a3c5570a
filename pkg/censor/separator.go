package censor

import (
	"strings"
	"unicode"
	"unicode/utf8"
)

// Separator describes the characters tolerated between the letters of an
// obfuscated word ("s.h.i.t", "f-u-c-k", "s h i t").
type Separator struct {
	chars  []rune
	period bool
}

// NewSeparator builds the separator description from single-character
// separators. Whitespace is always tolerated and need not be listed.
func NewSeparator(separators []string) Separator {
	var s Separator
	seen := make(map[rune]struct{}, len(separators))
	for _, sep := range separators {
		r, size := utf8.DecodeRuneInString(sep)
		if size == 0 || size != len(sep) {
			continue
		}
		if r == '.' {
			s.period = true
			continue
		}
		if unicode.IsSpace(r) {
			continue
		}
		if _, ok := seen[r]; ok {
			continue
		}
		seen[r] = struct{}{}
		s.chars = append(s.chars, r)
	}
	return s
}

// Pattern renders the lazily repeated separator group.
//
// A period is a separator only when a word character follows it. The regexp
// engine has no lookahead, so the pattern accepts any period and matches are
// checked afterwards with PeriodsGuarded.
func (s Separator) Pattern() string {
	alts := make([]string, 0, 3)
	if len(s.chars) > 0 {
		alts = append(alts, renderClass(s.chars))
	}
	if s.period {
		alts = append(alts, `\.`)
	}
	alts = append(alts, `\s`)
	return "(?:" + strings.Join(alts, "|") + ")*?"
}

// PeriodsGuarded reports whether every period inside text[start:end] is
// immediately followed by a word character.
func (s Separator) PeriodsGuarded(text string, start, end int) bool {
	if !s.period {
		return true
	}
	for i := start; i < end; i++ {
		if text[i] != '.' {
			continue
		}
		if i+1 >= len(text) {
			return false
		}
		if r, _ := utf8.DecodeRuneInString(text[i+1:]); !isWordRune(r) {
			return false
		}
	}
	return true
}

func isWordRune(r rune) bool {
	return r == '_' || unicode.IsLetter(r) || unicode.IsDigit(r) || unicode.IsMark(r)
}
