package censor

import (
	"sort"
	"strings"
	"unicode/utf8"

	"censorship/pkg/lang"
)

// Compiler turns dictionary words into pattern bodies for one language.
type Compiler struct {
	sep  Separator
	subs Substitutions
	keys []substitutionKey
}

type substitutionKey struct {
	text  string
	runes []rune
}

// NewCompiler prepares the separator and substitution fragments of cfg.
// Keys are tried longest first so that "ck" wins over "c".
func NewCompiler(cfg lang.Config) *Compiler {
	c := Compiler{
		sep:  NewSeparator(cfg.Separators),
		subs: make(Substitutions, len(cfg.Substitutions)),
	}

	for key, frag := range NewSubstitutions(cfg.Substitutions) {
		plain := lang.SubstitutionKey(key)
		if plain == "" {
			continue
		}
		c.subs[plain] = frag
		c.keys = append(c.keys, substitutionKey{text: plain, runes: []rune(plain)})
	}

	sort.Slice(c.keys, func(i, j int) bool {
		if len(c.keys[i].runes) != len(c.keys[j].runes) {
			return len(c.keys[i].runes) > len(c.keys[j].runes)
		}
		return c.keys[i].text < c.keys[j].text
	})

	return &c
}

// Separator returns the separator the compiler splices into patterns.
func (c *Compiler) Separator() Separator {
	return c.sep
}

// Fragment walks word once, left to right, emitting the fragment of the
// longest substitution key found at each position or the literal character.
func (c *Compiler) Fragment(word string) Fragment {
	rs := []rune(strings.ToLower(word))
	out := make(Fragment, 0, len(rs)*2)

	for i := 0; i < len(rs); {
		key, ok := c.keyAt(rs[i:])
		if !ok {
			out = append(out, node{kind: literalNode, runes: []rune{rs[i]}})
			i++
			continue
		}
		out = append(out, c.subs[key.text]...)
		i += len(key.runes)
	}

	return out
}

// Body renders the pattern body of word with the separator spliced in.
func (c *Compiler) Body(word string) string {
	return c.Fragment(word).Render(c.sep.Pattern())
}

func (c *Compiler) keyAt(rs []rune) (substitutionKey, bool) {
	for _, k := range c.keys {
		if len(k.runes) > len(rs) {
			continue
		}
		match := true
		for j, r := range k.runes {
			if rs[j] != r {
				match = false
				break
			}
		}
		if match {
			return k, true
		}
	}
	return substitutionKey{}, false
}

func runeLen(s string) int {
	return utf8.RuneCountInString(s)
}
