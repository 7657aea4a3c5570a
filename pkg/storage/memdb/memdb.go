package memdb

import (
	"context"
	"sync"

	"censorship/pkg/lang"
	"censorship/pkg/storage"
)

// Store keeps dictionaries in memory, seeded from a catalog.
type Store struct {
	mu      sync.RWMutex
	catalog *lang.Catalog
	langs   map[string]lang.Config
}

func New(cat *lang.Catalog) (*Store, error) {
	db := Store{
		catalog: cat,
		langs:   make(map[string]lang.Config),
	}

	for _, name := range cat.Languages() {
		cfg, err := cat.Language(name)
		if err != nil {
			return nil, err
		}
		db.langs[name] = cfg
	}

	return &db, nil
}

func (db *Store) Languages(ctx context.Context) ([]string, error) {
	return db.catalog.Languages(), nil
}

// Language returns a copy of the dictionary of name; an empty name selects
// the catalog default.
func (db *Store) Language(ctx context.Context, name string) (lang.Config, error) {
	name, err := db.catalog.Resolve(name)
	if err != nil {
		return lang.Config{}, err
	}

	db.mu.RLock()
	defer db.mu.RUnlock()

	return db.langs[name].Clone(), nil
}

func (db *Store) AddWords(ctx context.Context, language string, kind storage.WordKind, words []string) error {
	words, err := storage.CheckWords(kind, words)
	if err != nil {
		return err
	}
	name, err := db.catalog.Resolve(language)
	if err != nil {
		return err
	}

	db.mu.Lock()
	defer db.mu.Unlock()

	cfg := db.langs[name].Clone()
	switch kind {
	case storage.Profanity:
		cfg.Profanities = append(cfg.Profanities, words...)
	case storage.FalsePositive:
		cfg.FalsePositives = append(cfg.FalsePositives, words...)
	}
	cfg.Normalize()
	db.langs[name] = cfg

	return nil
}
