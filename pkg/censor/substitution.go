package censor

import (
	"unicode/utf8"
)

// Substitutions maps a source character (or short sequence such as "ck")
// to the fragment matching any of its lookalikes.
type Substitutions map[string]Fragment

// NewSubstitutions builds one fragment per source character. Options made of
// several characters switch the fragment to an alternation; otherwise it is a
// character class. Both repeat one or more times and end with a separator
// splice point, so "a@@a" still reads as a single "a".
func NewSubstitutions(subs map[string][]string) Substitutions {
	out := make(Substitutions, len(subs))
	for char, options := range subs {
		if len(options) == 0 {
			continue
		}
		out[char] = Fragment{substitutionNode(options), {kind: separatorNode}}
	}
	return out
}

func substitutionNode(options []string) node {
	multi := false
	for _, opt := range options {
		if utf8.RuneCountInString(opt) > 1 && !isPreEscaped(opt) {
			multi = true
			break
		}
	}

	if multi {
		n := node{kind: alternationNode}
		seen := make(map[string]struct{}, len(options))
		for _, opt := range options {
			opt = unescape(opt)
			if _, ok := seen[opt]; ok {
				continue
			}
			seen[opt] = struct{}{}
			n.options = append(n.options, opt)
		}
		return n
	}

	n := node{kind: classNode}
	seen := make(map[rune]struct{}, len(options))
	for _, opt := range options {
		r, _ := utf8.DecodeRuneInString(unescape(opt))
		if _, ok := seen[r]; ok {
			continue
		}
		seen[r] = struct{}{}
		n.runes = append(n.runes, r)
	}
	return n
}

// isPreEscaped reports options written in regexp-escaped form, like `\$`.
func isPreEscaped(opt string) bool {
	return len(opt) >= 2 && opt[0] == '\\' && utf8.RuneCountInString(opt) == 2
}

func unescape(opt string) string {
	if isPreEscaped(opt) {
		return opt[1:]
	}
	return opt
}
