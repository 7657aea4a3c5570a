package postgres

import (
	"context"

	"github.com/jackc/pgx/v4"
	"github.com/jackc/pgx/v4/pgxpool"

	"censorship/pkg/lang"
	"censorship/pkg/storage"
)

// Schema creates the table holding words added at runtime.
const Schema = `
	CREATE TABLE IF NOT EXISTS dictionary_words (
		language TEXT NOT NULL,
		kind     TEXT NOT NULL CHECK (kind IN ('profanity', 'false_positive')),
		word     TEXT NOT NULL,
		added    TIMESTAMPTZ NOT NULL DEFAULT now(),
		PRIMARY KEY (language, kind, word)
	)
`

// Store extends the dictionaries of a catalog with words kept in Postgres.
// The catalog decides which languages exist and supplies their separators
// and substitutions.
type Store struct {
	db      *pgxpool.Pool
	catalog *lang.Catalog
}

func New(ctx context.Context, conStr string, cat *lang.Catalog) (*Store, error) {
	db, err := pgxpool.Connect(ctx, conStr)
	if err != nil {
		return nil, err
	}
	s := Store{
		db:      db,
		catalog: cat,
	}

	return &s, nil
}

func (s *Store) Ping(ctx context.Context) error {
	return s.db.Ping(ctx)
}

func (s *Store) Close() {
	s.db.Close()
}

// Init creates the schema when it does not exist yet.
func (s *Store) Init(ctx context.Context) error {
	_, err := s.db.Exec(ctx, Schema)
	return err
}

func (s *Store) Languages(ctx context.Context) ([]string, error) {
	return s.catalog.Languages(), nil
}

// Language returns the catalog dictionary of name extended with the words
// stored for it.
func (s *Store) Language(ctx context.Context, name string) (lang.Config, error) {
	cfg, err := s.catalog.Language(name)
	if err != nil {
		return lang.Config{}, err
	}

	rows, err := s.db.Query(ctx, `
		SELECT kind, word
		FROM dictionary_words
		WHERE language = $1
		ORDER BY added, word
	`,
		cfg.Language,
	)
	if err != nil {
		return lang.Config{}, err
	}
	defer rows.Close()

	for rows.Next() {
		var kind, word string
		if err := rows.Scan(&kind, &word); err != nil {
			return lang.Config{}, err
		}
		switch storage.WordKind(kind) {
		case storage.Profanity:
			cfg.Profanities = append(cfg.Profanities, word)
		case storage.FalsePositive:
			cfg.FalsePositives = append(cfg.FalsePositives, word)
		}
	}
	if err := rows.Err(); err != nil {
		return lang.Config{}, err
	}

	cfg.Normalize()
	return cfg, nil
}

// AddWords inserts words for language within a single transaction.
// Words already stored are left as they are.
func (s *Store) AddWords(ctx context.Context, language string, kind storage.WordKind, words []string) error {
	words, err := storage.CheckWords(kind, words)
	if err != nil {
		return err
	}
	name, err := s.catalog.Resolve(language)
	if err != nil {
		return err
	}

	tx, err := s.db.Begin(ctx)
	if err != nil {
		return err
	}
	defer tx.Rollback(ctx)

	batch := new(pgx.Batch)
	for _, w := range words {
		batch.Queue(`
			INSERT INTO dictionary_words (language, kind, word)
			VALUES ($1, $2, $3)
			ON CONFLICT (language, kind, word) DO NOTHING
		`,
			name,
			string(kind),
			w,
		)
	}

	res := tx.SendBatch(ctx, batch)
	if err := res.Close(); err != nil {
		return err
	}

	return tx.Commit(ctx)
}
