package translation

import (
	"context"
	"strings"
	"sync"
	"sync/atomic"
	"testing"
	"time"
)

// slowBackend counts calls and holds each one long enough for concurrent
// callers to pile onto the same key.
type slowBackend struct {
	calls atomic.Int32
	delay time.Duration
}

func (s *slowBackend) Translate(ctx context.Context, text, targetLang string) (string, error) {
	s.calls.Add(1)
	time.Sleep(s.delay)
	return strings.ToUpper(text), nil
}

func (s *slowBackend) Languages(ctx context.Context) ([]string, error) {
	return []string{"fr"}, nil
}

func TestDedupedCollapsesIdenticalCalls(t *testing.T) {
	backend := &slowBackend{delay: 30 * time.Millisecond}
	deduped := NewDeduped(backend)

	const callers = 10
	results := make([]string, callers)
	var wg sync.WaitGroup
	for i := 0; i < callers; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			got, err := deduped.Translate(context.Background(), "Hello world", "fr")
			if err != nil {
				t.Errorf("Translate failed: %v", err)
			}
			results[i] = got
		}(i)
	}
	wg.Wait()

	if backend.calls.Load() != 1 {
		t.Errorf("backend called %d times, want 1", backend.calls.Load())
	}
	for i, got := range results {
		if got != "HELLO WORLD" {
			t.Errorf("caller %d got %q", i, got)
		}
	}
}

func TestDedupedKeepsDistinctKeysSeparate(t *testing.T) {
	backend := &slowBackend{}
	deduped := NewDeduped(backend)
	ctx := context.Background()

	if _, err := deduped.Translate(ctx, "Hello", "fr"); err != nil {
		t.Fatalf("Translate failed: %v", err)
	}
	if _, err := deduped.Translate(ctx, "Hello", "de"); err != nil {
		t.Fatalf("Translate failed: %v", err)
	}
	if _, err := deduped.Translate(ctx, "World", "fr"); err != nil {
		t.Fatalf("Translate failed: %v", err)
	}

	if backend.calls.Load() != 3 {
		t.Errorf("backend called %d times, want 3", backend.calls.Load())
	}
}

func TestMockTranslate(t *testing.T) {
	m := NewMock()
	ctx := context.Background()

	got, err := m.Translate(ctx, "Hello world", "fr")
	if err != nil {
		t.Fatalf("Translate failed: %v", err)
	}
	if got != "Bonjour le monde" {
		t.Errorf("Translate = %q, want canned translation", got)
	}

	got, err = m.Translate(ctx, "unknown text", "fr")
	if err != nil {
		t.Fatalf("Translate failed: %v", err)
	}
	if got != "[unknown text]" {
		t.Errorf("Translate = %q, want bracketed fallback", got)
	}

	if m.Calls() != 2 {
		t.Errorf("Calls = %d, want 2", m.Calls())
	}
}
