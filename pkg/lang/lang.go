// Package lang holds per-language dictionaries used by the censor engine:
// profanity words, false positives, separators and character substitutions.
package lang

import (
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"
	"sort"
	"strings"
	"unicode"
	"unicode/utf8"

	"github.com/minio/sha256-simd"
)

var (
	ErrUnsupportedLanguage = errors.New("unsupported language")
	ErrInvalidConfig       = errors.New("invalid language config")
)

// Config is the resolved dictionary of a single language.
// It is treated as immutable once returned by a Catalog or a storage backend.
type Config struct {
	Language       string              `toml:"-" json:"language"`
	Profanities    []string            `toml:"profanities" json:"profanities"`
	FalsePositives []string            `toml:"false_positives" json:"false_positives"`
	Separators     []string            `toml:"separators" json:"separators"`
	Substitutions  map[string][]string `toml:"substitutions" json:"substitutions"`
}

// Validate reports the first defect that would prevent the dictionary
// from being compiled into patterns.
func (c *Config) Validate() error {
	if len(c.Profanities) == 0 {
		return fmt.Errorf("%w: %s: empty profanity list", ErrInvalidConfig, c.Language)
	}
	for _, p := range c.Profanities {
		if strings.TrimSpace(p) == "" {
			return fmt.Errorf("%w: %s: blank profanity", ErrInvalidConfig, c.Language)
		}
		if !utf8.ValidString(p) {
			return fmt.Errorf("%w: %s: profanity %q is not valid UTF-8", ErrInvalidConfig, c.Language, p)
		}
		for _, r := range p {
			if unicode.IsControl(r) {
				return fmt.Errorf("%w: %s: profanity %q contains control character", ErrInvalidConfig, c.Language, p)
			}
		}
	}
	for _, s := range c.Separators {
		if utf8.RuneCountInString(s) != 1 {
			return fmt.Errorf("%w: %s: separator %q must be a single character", ErrInvalidConfig, c.Language, s)
		}
	}
	keys := make(map[string]string, len(c.Substitutions))
	for k, opts := range c.Substitutions {
		norm := SubstitutionKey(k)
		if norm == "" {
			return fmt.Errorf("%w: %s: empty substitution key %q", ErrInvalidConfig, c.Language, k)
		}
		if other, ok := keys[norm]; ok {
			a, b := min(k, other), max(k, other)
			return fmt.Errorf("%w: %s: substitution keys %q and %q collide", ErrInvalidConfig, c.Language, a, b)
		}
		keys[norm] = k
		if len(opts) == 0 {
			return fmt.Errorf("%w: %s: substitution %q has no options", ErrInvalidConfig, c.Language, k)
		}
		for _, o := range opts {
			if o == "" {
				return fmt.Errorf("%w: %s: substitution %q has an empty option", ErrInvalidConfig, c.Language, k)
			}
		}
	}
	return nil
}

// SubstitutionKey returns key as the compiler reads it: lower-cased with
// surrounding '/' delimiters removed.
func SubstitutionKey(key string) string {
	return strings.ToLower(strings.Trim(key, "/"))
}

// Normalize lower-cases false positives and drops duplicate entries.
func (c *Config) Normalize() {
	c.Profanities = dedup(c.Profanities, false)
	c.FalsePositives = dedup(c.FalsePositives, true)
}

// Fingerprint returns a stable digest of the dictionary. Two configs with the
// same content produce the same fingerprint regardless of map iteration order.
func (c *Config) Fingerprint() string {
	keys := make([]string, 0, len(c.Substitutions))
	for k := range c.Substitutions {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	subs := make([][2]any, 0, len(keys))
	for _, k := range keys {
		subs = append(subs, [2]any{k, c.Substitutions[k]})
	}

	// encoding a slice of fixed shapes cannot fail
	b, _ := json.Marshal(struct {
		L  string
		P  []string
		FP []string
		S  []string
		SB [][2]any
	}{c.Language, c.Profanities, c.FalsePositives, c.Separators, subs})

	sum := sha256.Sum256(b)
	return hex.EncodeToString(sum[:])
}

// Clone returns a deep copy so callers can extend a config without
// touching the one owned by the catalog.
func (c Config) Clone() Config {
	out := Config{
		Language:       c.Language,
		Profanities:    append([]string(nil), c.Profanities...),
		FalsePositives: append([]string(nil), c.FalsePositives...),
		Separators:     append([]string(nil), c.Separators...),
		Substitutions:  make(map[string][]string, len(c.Substitutions)),
	}
	for k, v := range c.Substitutions {
		out.Substitutions[k] = append([]string(nil), v...)
	}
	return out
}

func dedup(words []string, lower bool) []string {
	seen := make(map[string]struct{}, len(words))
	out := make([]string, 0, len(words))
	for _, w := range words {
		w = strings.TrimSpace(w)
		if lower {
			w = strings.ToLower(w)
		}
		if w == "" {
			continue
		}
		if _, ok := seen[w]; ok {
			continue
		}
		seen[w] = struct{}{}
		out = append(out, w)
	}
	return out
}
