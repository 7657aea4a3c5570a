package censor

import (
	"fmt"
	"regexp"
	"sort"

	"censorship/pkg/lang"
)

// Expression is the compiled matcher of one dictionary word.
type Expression struct {
	Word string
	Body string

	// loose finds the body anywhere and is only used to skip words early.
	loose *regexp.Regexp
	// anchored matches at the start of its input and requires the match to
	// be followed by a non-word character or the end of input.
	anchored *regexp.Regexp
}

// NewExpression compiles the final case-insensitive matchers for body.
func NewExpression(word, body string) (*Expression, error) {
	loose, err := regexp.Compile("(?i)" + body)
	if err != nil {
		return nil, fmt.Errorf("failed to compile pattern for %q: %w", word, err)
	}
	anchored, err := regexp.Compile(`(?i)^(` + body + `s?)(?:[^\p{L}\p{M}\p{N}_]|$)`)
	if err != nil {
		return nil, fmt.Errorf("failed to compile pattern for %q: %w", word, err)
	}

	return &Expression{
		Word:     word,
		Body:     body,
		loose:    loose,
		anchored: anchored,
	}, nil
}

// String returns the anchored pattern source.
func (e *Expression) String() string {
	return e.anchored.String()
}

// matchAt returns the end offset of a match starting at text[start:].
func (e *Expression) matchAt(text string, start int) (int, bool) {
	loc := e.anchored.FindStringSubmatchIndex(text[start:])
	if loc == nil || loc[3] == 0 {
		return 0, false
	}
	return start + loc[3], true
}

// ExpressionSet is the compiled dictionary of one language. It is read-only
// after construction and safe for concurrent use.
type ExpressionSet struct {
	language string
	sep      Separator
	byWord   map[string]*Expression
	// ordered holds longer words first so the more specific word claims
	// overlapping text.
	ordered []*Expression
}

// BuildSet compiles every profanity of cfg.
func BuildSet(cfg lang.Config) (*ExpressionSet, error) {
	c := NewCompiler(cfg)
	bodies := make(map[string]string, len(cfg.Profanities))
	for _, word := range cfg.Profanities {
		bodies[word] = c.Body(word)
	}
	return newSet(cfg.Language, c.Separator(), bodies)
}

// RestoreSet rebuilds a set from previously rendered bodies, as kept in the
// cache. Words of cfg missing from bodies are compiled afresh.
func RestoreSet(cfg lang.Config, bodies map[string]string) (*ExpressionSet, error) {
	var c *Compiler
	all := make(map[string]string, len(cfg.Profanities))
	for _, word := range cfg.Profanities {
		body, ok := bodies[word]
		if !ok {
			if c == nil {
				c = NewCompiler(cfg)
			}
			body = c.Body(word)
		}
		all[word] = body
	}
	return newSet(cfg.Language, NewSeparator(cfg.Separators), all)
}

func newSet(language string, sep Separator, bodies map[string]string) (*ExpressionSet, error) {
	s := ExpressionSet{
		language: language,
		sep:      sep,
		byWord:   make(map[string]*Expression, len(bodies)),
		ordered:  make([]*Expression, 0, len(bodies)),
	}
	for word, body := range bodies {
		e, err := NewExpression(word, body)
		if err != nil {
			return nil, fmt.Errorf("%w: %s: %v", lang.ErrInvalidConfig, language, err)
		}
		s.byWord[word] = e
		s.ordered = append(s.ordered, e)
	}

	sort.Slice(s.ordered, func(i, j int) bool {
		li, lj := runeLen(s.ordered[i].Word), runeLen(s.ordered[j].Word)
		if li != lj {
			return li > lj
		}
		return s.ordered[i].Word < s.ordered[j].Word
	})

	return &s, nil
}

func (s *ExpressionSet) Language() string {
	return s.language
}

func (s *ExpressionSet) Len() int {
	return len(s.ordered)
}

// Expression returns the compiled expression of a dictionary word.
func (s *ExpressionSet) Expression(word string) (*Expression, bool) {
	e, ok := s.byWord[word]
	return e, ok
}

// Bodies returns the rendered body of every word, the form stored in the cache.
func (s *ExpressionSet) Bodies() map[string]string {
	out := make(map[string]string, len(s.byWord))
	for w, e := range s.byWord {
		out[w] = e.Body
	}
	return out
}
