package cache

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"sync"

	"github.com/rs/zerolog/log"
)

// JSONStore keeps the cache in a single JSON document of the shape
// {source: {language: translated}}. The whole document is loaded at start
// and written back pretty-printed at the end of a run.
type JSONStore struct {
	path    string
	mu      sync.RWMutex
	entries map[string]map[string]string
}

// NewJSONStore creates a store backed by the JSON file at path.
func NewJSONStore(path string) *JSONStore {
	return &JSONStore{
		path:    path,
		entries: make(map[string]map[string]string),
	}
}

// Load reads the cache file into memory. A missing file is an empty cache.
func (s *JSONStore) Load(ctx context.Context) error {
	data, err := os.ReadFile(s.path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil
		}
		return fmt.Errorf("read cache file: %w", err)
	}

	entries := make(map[string]map[string]string)
	if err := json.Unmarshal(data, &entries); err != nil {
		return fmt.Errorf("parse cache file %s: %w", s.path, err)
	}

	s.mu.Lock()
	s.entries = entries
	s.mu.Unlock()

	log.Info().Int("entries", len(entries)).Str("path", s.path).Msg("Loaded translation cache")
	return nil
}

// Get retrieves a cached translation.
func (s *JSONStore) Get(ctx context.Context, source, lang string) (string, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	langs, ok := s.entries[source]
	if !ok {
		return "", false
	}
	text, ok := langs[lang]
	return text, ok
}

// Put stores a translation. It merges into the per-source language map
// instead of replacing it, so translations to other languages for the same
// string survive.
func (s *JSONStore) Put(ctx context.Context, source, lang, text string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	langs, ok := s.entries[source]
	if !ok {
		langs = make(map[string]string)
		s.entries[source] = langs
	}
	langs[lang] = text
	return nil
}

// Persist writes the full cache back to its file, pretty-printed.
func (s *JSONStore) Persist(ctx context.Context) error {
	s.mu.RLock()
	data, err := json.MarshalIndent(s.entries, "", "    ")
	s.mu.RUnlock()
	if err != nil {
		return fmt.Errorf("marshal cache: %w", err)
	}

	if err := os.WriteFile(s.path, data, 0644); err != nil {
		return fmt.Errorf("write cache file: %w", err)
	}
	return nil
}

// Len returns the number of cached source strings.
func (s *JSONStore) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.entries)
}
