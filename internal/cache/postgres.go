package cache

import (
	"context"
	"fmt"
	"sync"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/rs/zerolog/log"
)

const createCacheTable = `
CREATE TABLE IF NOT EXISTS renpy_translation_cache (
    source      TEXT NOT NULL,
    lang        TEXT NOT NULL,
    translated  TEXT NOT NULL,
    PRIMARY KEY (source, lang)
)`

// PostgresStore keeps the cache in PostgreSQL for setups where several
// machines share one cache. Rows are preloaded into memory at start and
// every write is upserted immediately, so Persist has nothing left to flush.
type PostgresStore struct {
	pool   *pgxpool.Pool
	mu     sync.RWMutex
	memory map[string]map[string]string
}

// NewPostgresStore creates a store backed by the given connection pool.
func NewPostgresStore(pool *pgxpool.Pool) *PostgresStore {
	return &PostgresStore{
		pool:   pool,
		memory: make(map[string]map[string]string),
	}
}

// Load ensures the cache table exists and preloads all rows into memory.
func (s *PostgresStore) Load(ctx context.Context) error {
	if _, err := s.pool.Exec(ctx, createCacheTable); err != nil {
		return fmt.Errorf("ensure cache table: %w", err)
	}

	rows, err := s.pool.Query(ctx, `SELECT source, lang, translated FROM renpy_translation_cache`)
	if err != nil {
		return fmt.Errorf("preload cache: %w", err)
	}
	defer rows.Close()

	s.mu.Lock()
	defer s.mu.Unlock()

	count := 0
	for rows.Next() {
		var source, lang, translated string
		if err := rows.Scan(&source, &lang, &translated); err != nil {
			return fmt.Errorf("scan cache row: %w", err)
		}
		langs, ok := s.memory[source]
		if !ok {
			langs = make(map[string]string)
			s.memory[source] = langs
		}
		langs[lang] = translated
		count++
	}
	if err := rows.Err(); err != nil {
		return fmt.Errorf("read cache rows: %w", err)
	}

	log.Info().Int("entries", count).Msg("Preloaded translation cache from PostgreSQL")
	return nil
}

// Get retrieves a cached translation from the preloaded memory map.
func (s *PostgresStore) Get(ctx context.Context, source, lang string) (string, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	langs, ok := s.memory[source]
	if !ok {
		return "", false
	}
	text, ok := langs[lang]
	return text, ok
}

// Put stores a translation in memory and upserts it into PostgreSQL.
func (s *PostgresStore) Put(ctx context.Context, source, lang, text string) error {
	s.mu.Lock()
	langs, ok := s.memory[source]
	if !ok {
		langs = make(map[string]string)
		s.memory[source] = langs
	}
	langs[lang] = text
	s.mu.Unlock()

	_, err := s.pool.Exec(ctx, `
		INSERT INTO renpy_translation_cache (source, lang, translated)
		VALUES ($1, $2, $3)
		ON CONFLICT (source, lang) DO UPDATE SET translated = EXCLUDED.translated`,
		source, lang, text)
	if err != nil {
		return fmt.Errorf("cache put: %w", err)
	}
	return nil
}

// Persist is a no-op: writes go to the database as they happen.
func (s *PostgresStore) Persist(ctx context.Context) error {
	return nil
}

// Close releases the connection pool.
func (s *PostgresStore) Close() {
	s.pool.Close()
}

var _ Store = (*PostgresStore)(nil)
var _ Store = (*JSONStore)(nil)
