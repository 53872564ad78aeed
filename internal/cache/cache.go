// Package cache persists finished translations between runs so repeated
// source strings never pay for a second backend call.
package cache

import "context"

// Store is an injectable translation cache keyed by source string and
// target language. Load runs once before any lookups; Persist runs at the
// end of a run (including interrupted ones).
type Store interface {
	Get(ctx context.Context, source, lang string) (string, bool)
	Put(ctx context.Context, source, lang, text string) error
	Load(ctx context.Context) error
	Persist(ctx context.Context) error
}
