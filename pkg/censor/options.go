package censor

import "censorship/pkg/cache"

type options struct {
	mask            rune
	hexMinLength    int
	defaultLanguage string
	store           cache.Store
	indexKey        string
}

type Option func(*options)

// WithMask sets the character used to mask matches.
func WithMask(r rune) Option {
	return func(o *options) {
		if r != 0 {
			o.mask = r
		}
	}
}

// WithHexMinLength sets the shortest hexadecimal run ignored as an identifier.
func WithHexMinLength(n int) Option {
	return func(o *options) {
		if n > 0 {
			o.hexMinLength = n
		}
	}
}

// WithDefaultLanguage sets the language used when a check names none.
func WithDefaultLanguage(name string) Option {
	return func(o *options) {
		o.defaultLanguage = name
	}
}

// WithStore keeps compiled patterns in store between processes.
// Every key written is registered under indexKey so Clear removes exactly those keys.
func WithStore(store cache.Store, indexKey string) Option {
	return func(o *options) {
		o.store = store
		o.indexKey = indexKey
	}
}

func newOptions(opts []Option) options {
	o := options{
		mask:         DefaultMask,
		hexMinLength: DefaultHexMinLength,
		indexKey:     cache.DefaultIndexKey,
	}
	for _, opt := range opts {
		opt(&o)
	}
	return o
}
