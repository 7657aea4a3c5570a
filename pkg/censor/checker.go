package censor

import (
	"sort"
	"strings"
	"unicode"
	"unicode/utf8"

	"censorship/pkg/lang"
)

// DefaultMask is the character repeated over every masked match.
const DefaultMask = '*'

// Checker scans text against the compiled dictionary of one language.
// It holds no per-call state and is safe for concurrent use.
type Checker struct {
	set            *ExpressionSet
	falsePositives map[string]struct{}
	opaque         opaqueFinder
	mask           string
}

// NewChecker binds a compiled set to the false positives of its language.
func NewChecker(set *ExpressionSet, falsePositives []string, opts ...Option) *Checker {
	o := newOptions(opts)
	c := Checker{
		set:            set,
		falsePositives: make(map[string]struct{}, len(falsePositives)),
		opaque:         newOpaqueFinder(o.hexMinLength),
		mask:           string(o.mask),
	}
	for _, fp := range falsePositives {
		c.falsePositives[strings.ToLower(fp)] = struct{}{}
	}
	return &c
}

// NewCheckerFromConfig compiles cfg and returns a ready checker.
func NewCheckerFromConfig(cfg lang.Config, opts ...Option) (*Checker, error) {
	set, err := BuildSet(cfg)
	if err != nil {
		return nil, err
	}
	return NewChecker(set, cfg.FalsePositives, opts...), nil
}

func (c *Checker) Language() string {
	return c.set.Language()
}

// Set returns the compiled expression set used by the checker.
func (c *Checker) Set() *ExpressionSet {
	return c.set
}

type hit struct {
	span
	word string
}

// Check reports the profanities found in text and returns a masked copy.
func (c *Checker) Check(text string) *Result {
	if text == "" {
		return &Result{}
	}

	// text that must not be matched: identifiers, allowed spans and
	// spans already claimed by a longer word
	blocked := c.opaque.find(text)
	starts := tokenStarts(text)
	var hits []hit

	for _, e := range c.set.ordered {
		if !e.loose.MatchString(text) {
			continue
		}

		next := 0
		for _, ts := range starts {
			start := ts.offset
			if start < next {
				continue
			}
			end, ok := e.matchAt(text, start)
			if !ok {
				continue
			}
			// "it's hit" must not read as "s hit"
			if ts.elided && strings.IndexFunc(text[start:end], unicode.IsSpace) >= 0 {
				continue
			}
			s := span{start: start, end: end}
			if !c.set.sep.PeriodsGuarded(text, start, end) || overlapsAny(s, blocked) {
				continue
			}
			next = end
			blocked = append(blocked, s)

			if _, ok := c.falsePositives[strings.ToLower(text[start:end])]; ok {
				continue
			}
			hits = append(hits, hit{span: s, word: e.Word})
		}
	}

	return c.result(text, hits)
}

func (c *Checker) result(text string, hits []hit) *Result {
	r := Result{
		sourceString:     text,
		profanitiesCount: len(hits),
	}
	if len(hits) == 0 {
		r.cleanString = text
		return &r
	}

	sort.Slice(hits, func(i, j int) bool {
		return hits[i].start < hits[j].start
	})

	var sb strings.Builder
	sb.Grow(len(text))
	seen := make(map[string]struct{}, len(hits))
	prev := 0
	for _, h := range hits {
		sb.WriteString(text[prev:h.start])
		sb.WriteString(strings.Repeat(c.mask, utf8.RuneCountInString(text[h.start:h.end])))
		prev = h.end

		if _, ok := seen[h.word]; !ok {
			seen[h.word] = struct{}{}
			r.uniqueProfanitiesFound = append(r.uniqueProfanitiesFound, h.word)
		}
	}
	sb.WriteString(text[prev:])
	r.cleanString = sb.String()

	return &r
}

type tokenStart struct {
	offset int
	// elided marks a start right after an apostrophe inside a word, as in
	// "it's" or "l'enculé". A match from there must stay within the word.
	elided bool
}

// tokenStarts returns the byte offsets where a match may begin: every
// non-space rune that does not directly follow a word character.
func tokenStarts(text string) []tokenStart {
	var starts []tokenStart
	prevWord, prevApostrophe := false, false
	for i, r := range text {
		if !prevWord && !unicode.IsSpace(r) {
			starts = append(starts, tokenStart{offset: i, elided: prevApostrophe && isWordRune(r)})
		}
		prevApostrophe = prevWord && isApostrophe(r)
		prevWord = isWordRune(r)
	}
	return starts
}

func isApostrophe(r rune) bool {
	return r == '\'' || r == '\u2019'
}
