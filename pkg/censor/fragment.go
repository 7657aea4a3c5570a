package censor

import (
	"regexp"
	"strings"
)

// Patterns are assembled in an abstract form first and rendered to regexp
// syntax only at the very end, so no stage rewrites another stage's output.

type nodeKind uint8

const (
	literalNode     nodeKind = iota // exactly one rune
	classNode                       // one or more of any member rune
	alternationNode                 // one or more of any option string
	separatorNode                   // splice point for the separator expression
)

type node struct {
	kind    nodeKind
	runes   []rune
	options []string
}

// Fragment is a pattern in abstract form.
type Fragment []node

// SeparatorPlaceholder marks separator splice points when a fragment is
// rendered on its own.
const SeparatorPlaceholder = "{!!}"

// String renders the fragment with SeparatorPlaceholder at every splice point.
func (f Fragment) String() string {
	return f.Render(SeparatorPlaceholder)
}

// Render renders the fragment, replacing every splice point with sep.
func (f Fragment) Render(sep string) string {
	var sb strings.Builder
	for _, n := range f {
		switch n.kind {
		case literalNode:
			sb.WriteString(regexp.QuoteMeta(string(n.runes)))
		case classNode:
			sb.WriteString(renderClass(n.runes))
			sb.WriteByte('+')
		case alternationNode:
			sb.WriteString("(?:")
			for i, opt := range n.options {
				if i > 0 {
					sb.WriteByte('|')
				}
				sb.WriteString(regexp.QuoteMeta(opt))
			}
			sb.WriteString(")+")
		case separatorNode:
			sb.WriteString(sep)
		}
	}
	return sb.String()
}

func renderClass(rs []rune) string {
	var sb strings.Builder
	sb.WriteByte('[')
	for _, r := range rs {
		if r < 0x80 && isASCIIPunct(r) {
			sb.WriteByte('\\')
		}
		sb.WriteRune(r)
	}
	sb.WriteByte(']')
	return sb.String()
}

func isASCIIPunct(r rune) bool {
	switch {
	case r >= '!' && r <= '/', r >= ':' && r <= '@', r >= '[' && r <= '`', r >= '{' && r <= '~':
		return true
	}
	return false
}
