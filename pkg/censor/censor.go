// Package censor detects and masks profanity in free-form text.
//
// Dictionary words are compiled into patterns that tolerate lookalike
// characters, inserted separators and repeated letters, while only matching
// whole tokens. UUIDs and long hexadecimal identifiers are never scanned.

// Important notice: Test data files contain examples of explicit language
// and offensive terms required for pattern validation. These examples:
// - Are intentionally provocative to test edge cases
// - Do not represent the author's views
// - Should be treated as technical test artifacts only
package censor

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"sync"

	log "github.com/sirupsen/logrus"
	"golang.org/x/sync/singleflight"

	"censorship/pkg/cache"
	"censorship/pkg/lang"
)

// Source supplies validated language configs.
type Source interface {
	Language(ctx context.Context, name string) (lang.Config, error)
}

// Censor owns the compiled checkers of every language requested so far.
// Checkers are built on first use and shared until Invalidate or Clear.
type Censor struct {
	src     Source
	opts    options
	tracker *cache.Tracker

	mu       sync.RWMutex
	checkers map[string]*Checker
	group    singleflight.Group
	// bumped by Invalidate and Clear; a compile started under an older
	// generation is returned to its callers but never stored
	epoch uint64
	gens  map[string]uint64
}

type generation struct {
	epoch, lang uint64
}

// New returns a Censor reading dictionaries from src.
func New(src Source, opts ...Option) *Censor {
	c := Censor{
		src:      src,
		opts:     newOptions(opts),
		checkers: make(map[string]*Checker),
		gens:     make(map[string]uint64),
	}
	if c.opts.store != nil {
		if c.opts.indexKey == "" {
			c.opts.indexKey = cache.DefaultIndexKey
		}
		c.tracker = cache.NewTracker(c.opts.store, c.opts.indexKey)
	}
	return &c
}

// DefaultLanguage returns the language used when a check names none.
// It is empty when the Source resolves the default itself.
func (c *Censor) DefaultLanguage() string {
	return c.opts.defaultLanguage
}

// Check scans text with the dictionary of language. An empty language
// selects the default one.
func (c *Censor) Check(ctx context.Context, language, text string) (*Result, error) {
	chk, err := c.Checker(ctx, language)
	if err != nil {
		return nil, err
	}
	return chk.Check(text), nil
}

// Checker returns the checker of language, compiling it on first use.
// Concurrent first callers share a single compilation.
func (c *Censor) Checker(ctx context.Context, language string) (*Checker, error) {
	name := c.resolve(language)

	c.mu.RLock()
	chk, ok := c.checkers[name]
	c.mu.RUnlock()
	if ok {
		return chk, nil
	}

	v, err, _ := c.group.Do(name, func() (any, error) {
		c.mu.Lock()
		chk, ok := c.checkers[name]
		if _, seen := c.gens[name]; !seen {
			c.gens[name] = 0
		}
		gen := c.generation(name)
		c.mu.Unlock()
		if ok {
			return chk, nil
		}

		chk, err := c.build(ctx, name)
		if err != nil {
			// unknown names must not accumulate
			c.mu.Lock()
			if c.gens[name] == 0 {
				delete(c.gens, name)
			}
			c.mu.Unlock()
			return nil, err
		}

		c.mu.Lock()
		if c.generation(name) == gen {
			c.checkers[name] = chk
		} else {
			log.Debugf("[censor][%s] dictionary changed during compile, result not kept", name)
		}
		c.mu.Unlock()
		return chk, nil
	})
	if err != nil {
		return nil, err
	}

	return v.(*Checker), nil
}

// Invalidate drops the compiled checker of language so the next check
// reloads its dictionary.
func (c *Censor) Invalidate(language string) {
	name := c.resolve(language)
	c.mu.Lock()
	delete(c.checkers, name)
	c.gens[name]++
	c.mu.Unlock()
	c.group.Forget(name)
}

// Clear drops every compiled checker and removes the cache keys this
// Censor registered in its store.
func (c *Censor) Clear(ctx context.Context) error {
	c.mu.Lock()
	// every name ever compiled, including compiles still in flight
	for name := range c.gens {
		c.group.Forget(name)
	}
	c.checkers = make(map[string]*Checker)
	c.epoch++
	c.mu.Unlock()

	if c.tracker == nil {
		return nil
	}
	if err := c.tracker.Clear(ctx); err != nil {
		return fmt.Errorf("failed to clear pattern cache: %w", err)
	}
	return nil
}

// generation must be called with mu held.
func (c *Censor) generation(name string) generation {
	return generation{epoch: c.epoch, lang: c.gens[name]}
}

func (c *Censor) resolve(language string) string {
	name := strings.ToLower(strings.TrimSpace(language))
	if name == "" {
		name = c.opts.defaultLanguage
	}
	return name
}

func (c *Censor) build(ctx context.Context, name string) (*Checker, error) {
	cfg, err := c.src.Language(ctx, name)
	if err != nil {
		return nil, err
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	key := cacheKey(cfg)
	if set := c.cached(ctx, key, cfg); set != nil {
		log.Debugf("[censor][%s] %d patterns restored from cache", cfg.Language, set.Len())
		return c.newChecker(set, cfg), nil
	}

	set, err := BuildSet(cfg)
	if err != nil {
		return nil, err
	}
	log.Debugf("[censor][%s] %d patterns compiled", cfg.Language, set.Len())

	if c.tracker != nil {
		b, err := json.Marshal(set.Bodies())
		if err == nil {
			err = c.tracker.Put(ctx, key, b)
		}
		if err != nil {
			log.Warnf("[censor][%s] failed to cache patterns: %v", cfg.Language, err)
		}
	}

	return c.newChecker(set, cfg), nil
}

// cached returns the set stored under key, or nil when it is absent or the
// store cannot be used. Store failures never fail a check.
func (c *Censor) cached(ctx context.Context, key string, cfg lang.Config) *ExpressionSet {
	if c.tracker == nil {
		return nil
	}

	b, err := c.tracker.Get(ctx, key)
	if err != nil {
		if !errors.Is(err, cache.ErrCacheMiss) {
			log.Warnf("[censor][%s] pattern cache unavailable, compiling: %v", cfg.Language, err)
		}
		return nil
	}

	var bodies map[string]string
	if err := json.Unmarshal(b, &bodies); err != nil {
		log.Warnf("[censor][%s] corrupt cache entry %s: %v", cfg.Language, key, err)
		return nil
	}
	set, err := RestoreSet(cfg, bodies)
	if err != nil {
		log.Warnf("[censor][%s] cached patterns rejected: %v", cfg.Language, err)
		return nil
	}
	return set
}

func (c *Censor) newChecker(set *ExpressionSet, cfg lang.Config) *Checker {
	return NewChecker(set, cfg.FalsePositives, WithMask(c.opts.mask), WithHexMinLength(c.opts.hexMinLength))
}

func cacheKey(cfg lang.Config) string {
	return "censor_patterns:" + cfg.Language + ":" + cfg.Fingerprint()[:16]
}
