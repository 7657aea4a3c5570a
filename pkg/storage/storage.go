// Package storage defines the dictionary store the censor reads language
// configs from and the API extends at runtime.
package storage

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"unicode"

	"censorship/pkg/lang"
)

var (
	ErrConnectDB       = errors.New("failed to connect to database")
	ErrDBNotResponding = errors.New("database is not responding")
	ErrInvalidWordKind = errors.New("invalid word kind")
	ErrInvalidWord     = errors.New("invalid word")
	ErrNoWords         = errors.New("no words given")
)

// WordKind tells which list of a dictionary a word belongs to.
type WordKind string

const (
	Profanity     WordKind = "profanity"
	FalsePositive WordKind = "false_positive"
)

func (k WordKind) Valid() bool {
	return k == Profanity || k == FalsePositive
}

// Storage holds the dictionaries of every supported language.
// Language satisfies censor.Source.
type Storage interface {
	Languages(ctx context.Context) ([]string, error)
	Language(ctx context.Context, name string) (lang.Config, error)
	AddWords(ctx context.Context, language string, kind WordKind, words []string) error
}

// CheckWords rejects an unknown kind, an empty list and blank or control
// character words. It returns the words trimmed.
func CheckWords(kind WordKind, words []string) ([]string, error) {
	if !kind.Valid() {
		return nil, fmt.Errorf("%w: %q", ErrInvalidWordKind, kind)
	}
	if len(words) == 0 {
		return nil, ErrNoWords
	}

	out := make([]string, 0, len(words))
	for _, w := range words {
		w = strings.TrimSpace(w)
		if w == "" {
			return nil, fmt.Errorf("%w: blank word", ErrInvalidWord)
		}
		if strings.IndexFunc(w, unicode.IsControl) >= 0 {
			return nil, fmt.Errorf("%w: %q contains control character", ErrInvalidWord, w)
		}
		out = append(out, w)
	}
	return out, nil
}
