package script

import (
	"context"
	"math"
	"strings"
	"sync"
	"testing"
	"unicode/utf8"
)

// upperTranslator fakes the backend by upper-casing, counting every call.
type upperTranslator struct {
	mu    sync.Mutex
	calls int
}

func (u *upperTranslator) Translate(ctx context.Context, text, targetLang string) (string, error) {
	u.mu.Lock()
	defer u.mu.Unlock()
	u.calls++
	return strings.ToUpper(text), nil
}

func (u *upperTranslator) Calls() int {
	u.mu.Lock()
	defer u.mu.Unlock()
	return u.calls
}

// memCache is a minimal in-memory Cache with a write counter.
type memCache struct {
	mu      sync.Mutex
	entries map[string]map[string]string
	puts    int
}

func newMemCache() *memCache {
	return &memCache{entries: make(map[string]map[string]string)}
}

func (c *memCache) Get(ctx context.Context, source, lang string) (string, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	langs, ok := c.entries[source]
	if !ok {
		return "", false
	}
	text, ok := langs[lang]
	return text, ok
}

func (c *memCache) Put(ctx context.Context, source, lang, text string) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	langs, ok := c.entries[source]
	if !ok {
		langs = make(map[string]string)
		c.entries[source] = langs
	}
	langs[lang] = text
	c.puts++
	return nil
}

func TestUnitTranslateCachesResult(t *testing.T) {
	ctx := context.Background()
	tr := &upperTranslator{}
	cache := newMemCache()

	first := NewUnit("Hello world")
	if err := first.Translate(ctx, tr, cache, "fr"); err != nil {
		t.Fatalf("Translate failed: %v", err)
	}
	second := NewUnit("Hello world")
	if err := second.Translate(ctx, tr, cache, "fr"); err != nil {
		t.Fatalf("Translate failed: %v", err)
	}

	if tr.Calls() != 1 {
		t.Errorf("backend called %d times, want 1", tr.Calls())
	}
	if first.Translation != second.Translation {
		t.Errorf("translations differ: %q vs %q", first.Translation, second.Translation)
	}
	if first.Translation != "HELLO WORLD" {
		t.Errorf("translation = %q, want %q", first.Translation, "HELLO WORLD")
	}
}

func TestUnitWhitespaceTranslatesToItself(t *testing.T) {
	ctx := context.Background()
	tr := &upperTranslator{}
	cache := newMemCache()

	for _, content := range []string{"", "   ", "\t"} {
		u := NewUnit(content)
		if err := u.Translate(ctx, tr, cache, "fr"); err != nil {
			t.Fatalf("Translate(%q) failed: %v", content, err)
		}
		if u.Translation != content {
			t.Errorf("Translation = %q, want %q", u.Translation, content)
		}
	}

	if tr.Calls() != 0 {
		t.Errorf("backend called %d times, want 0", tr.Calls())
	}
	if cache.puts != 0 {
		t.Errorf("cache written %d times, want 0", cache.puts)
	}
}

func TestUnitEstimate(t *testing.T) {
	ctx := context.Background()
	cache := newMemCache()

	u := NewUnit("Hello")
	est := u.Estimate(ctx, cache, "fr")
	if want := 5 * PricePerChar; est.Cost != want {
		t.Errorf("Cost = %v, want %v", est.Cost, want)
	}
	if est.CacheHits != 0 {
		t.Errorf("CacheHits = %d, want 0", est.CacheHits)
	}

	cache.Put(ctx, "Hello", "fr", "Bonjour")
	est = u.Estimate(ctx, cache, "fr")
	if est.Cost != 0 || est.CacheHits != 1 {
		t.Errorf("cached estimate = %+v, want cost 0 and one hit", est)
	}

	est = NewUnit("  ").Estimate(ctx, cache, "fr")
	if est.Cost != 0 || est.CacheHits != 0 {
		t.Errorf("whitespace estimate = %+v, want zero", est)
	}
}

func TestUnitEstimateCountsCharactersNotBytes(t *testing.T) {
	ctx := context.Background()
	cache := newMemCache()

	const content = "café au lait, s'il te plaît…"
	if utf8.RuneCountInString(content) == len(content) {
		t.Fatal("sample must contain multi-byte characters")
	}

	est := NewUnit(content).Estimate(ctx, cache, "fr")
	if want := float64(utf8.RuneCountInString(content)) * PricePerChar; est.Cost != want {
		t.Errorf("Cost = %v, want %v (character-based)", est.Cost, want)
	}
}

func TestLineSegmentCountIsStable(t *testing.T) {
	ctx := context.Background()
	line := NewLine(0, 0, `First line\nSecond line\nThird line`)

	if got := len(line.Units()); got != 3 {
		t.Fatalf("unit count = %d, want 3", got)
	}

	if err := line.Translate(ctx, &upperTranslator{}, newMemCache(), "fr"); err != nil {
		t.Fatalf("Translate failed: %v", err)
	}

	translated := line.TranslatedContent()
	if translated != `FIRST LINE\nSECOND LINE\nTHIRD LINE` {
		t.Errorf("TranslatedContent = %q", translated)
	}
	if got := len(strings.Split(translated, `\n`)); got != 3 {
		t.Errorf("translated segment count = %d, want 3", got)
	}
}

func TestLinePreservesMarkupTags(t *testing.T) {
	ctx := context.Background()
	line := NewLine(0, 0, `Wait {i}here{/i}\n{b}now{/b}`)

	if err := line.Translate(ctx, &upperTranslator{}, newMemCache(), "fr"); err != nil {
		t.Fatalf("Translate failed: %v", err)
	}

	want := `WAIT {i}HERE{/i}\n{b}NOW{/b}`
	if got := line.TranslatedContent(); got != want {
		t.Errorf("TranslatedContent = %q, want %q", got, want)
	}
}

func TestFileEstimateAfterTranslateIsAllHits(t *testing.T) {
	ctx := context.Background()
	tr := &upperTranslator{}
	cache := newMemCache()

	file := &File{
		Filename: "game/script.rpy",
		Blocks: []*Block{
			{
				SourceFile: "game/script.rpy",
				HeaderLine: 0,
				Lines: []*Line{
					NewLine(2, 2, "Good morning"),
					NewLine(5, 6, `Night falls.\nAll is quiet.`),
				},
			},
		},
	}

	before := file.Estimate(ctx, cache, "fr")
	var wantCost float64
	for _, s := range []string{"Good morning", "Night falls.", "All is quiet."} {
		wantCost += float64(utf8.RuneCountInString(s)) * PricePerChar
	}
	if math.Abs(before.Cost-wantCost) > 1e-12 {
		t.Errorf("Cost = %v, want %v", before.Cost, wantCost)
	}
	if before.CacheHits != 0 {
		t.Errorf("CacheHits = %d, want 0", before.CacheHits)
	}

	if err := file.Translate(ctx, tr, cache, "fr"); err != nil {
		t.Fatalf("Translate failed: %v", err)
	}

	after := file.Estimate(ctx, cache, "fr")
	if after.Cost != 0 {
		t.Errorf("post-translation Cost = %v, want 0", after.Cost)
	}
	if after.CacheHits != 3 {
		t.Errorf("post-translation CacheHits = %d, want 3", after.CacheHits)
	}
}
