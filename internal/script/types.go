// Package script models extracted Ren'Py translation files: the dialogue
// tree (file → block → line → unit), the line-oriented parser that builds
// it, and the rewriter that substitutes translated text back into a
// byte-faithful copy of the source.
package script

import (
	"context"
	"fmt"
	"strings"
	"unicode/utf8"
)

// PricePerChar is the backend's advertised rate: $20 per one million characters.
const PricePerChar = 20.0 / 1_000_000

// escapedNewline is the two-character newline escape as written in script
// files, not an actual newline byte.
const escapedNewline = `\n`

// Translator is the external machine-translation capability.
type Translator interface {
	Translate(ctx context.Context, text, targetLang string) (string, error)
}

// Cache stores finished translations keyed by source string and target
// language.
type Cache interface {
	Get(ctx context.Context, source, lang string) (string, bool)
	Put(ctx context.Context, source, lang, text string) error
}

// Estimate is a pre-translation cost summary.
type Estimate struct {
	Cost      float64
	CacheHits int
}

// Add accumulates another estimate into e.
func (e *Estimate) Add(o Estimate) {
	e.Cost += o.Cost
	e.CacheHits += o.CacheHits
}

// Unit is the smallest translatable fragment of dialogue.
type Unit struct {
	Content     string
	Translation string
}

// NewUnit creates a unit for one text fragment.
func NewUnit(content string) *Unit {
	return &Unit{Content: content}
}

// Translate resolves the unit's translation. Whitespace-only content
// translates to itself without touching the cache or the backend; cached
// content never reaches the backend.
func (u *Unit) Translate(ctx context.Context, tr Translator, cache Cache, lang string) error {
	if strings.TrimSpace(u.Content) == "" {
		u.Translation = u.Content
		return nil
	}

	if cached, ok := cache.Get(ctx, u.Content, lang); ok {
		u.Translation = cached
		return nil
	}

	translated, err := tr.Translate(ctx, u.Content, lang)
	if err != nil {
		return fmt.Errorf("translate %q: %w", u.Content, err)
	}
	u.Translation = translated

	if err := cache.Put(ctx, u.Content, lang, translated); err != nil {
		return fmt.Errorf("cache %q: %w", u.Content, err)
	}
	return nil
}

// Estimate reports what translating the unit now would cost: zero for
// cached or whitespace-only content, the per-character rate otherwise.
func (u *Unit) Estimate(ctx context.Context, cache Cache, lang string) Estimate {
	if strings.TrimSpace(u.Content) == "" {
		return Estimate{}
	}
	if _, ok := cache.Get(ctx, u.Content, lang); ok {
		return Estimate{CacheHits: 1}
	}
	return Estimate{Cost: float64(utf8.RuneCountInString(u.Content)) * PricePerChar}
}

// Line is one rewritable dialogue line: where the original text was read,
// where the translation must be written back, and the token sequences of
// its escaped-newline segments.
type Line struct {
	// SourceLine is the 0-based index the original text was read from.
	SourceLine int
	// TargetLine is the 0-based index to rewrite. It differs from
	// SourceLine when an "nvl clear" marker shifts the text one line down.
	TargetLine int
	// Original is the raw quoted content as captured by the parser.
	Original string

	segments [][]Token
}

// NewLine parses content into its unit tree once, at construction. The
// content is split on the escaped-newline delimiter and each segment is
// scanned into tag, space and text tokens.
func NewLine(sourceLine, targetLine int, content string) *Line {
	l := &Line{SourceLine: sourceLine, TargetLine: targetLine, Original: content}
	for _, seg := range strings.Split(content, escapedNewline) {
		l.segments = append(l.segments, ScanTags(seg))
	}
	return l
}

// Units returns the line's translatable fragments in order.
func (l *Line) Units() []*Unit {
	var units []*Unit
	for _, seg := range l.segments {
		for _, tok := range seg {
			if tok.Unit != nil {
				units = append(units, tok.Unit)
			}
		}
	}
	return units
}

// Translate resolves every unit of the line in order.
func (l *Line) Translate(ctx context.Context, tr Translator, cache Cache, lang string) error {
	for _, u := range l.Units() {
		if err := u.Translate(ctx, tr, cache, lang); err != nil {
			return fmt.Errorf("line %d: %w", l.SourceLine+1, err)
		}
	}
	return nil
}

// TranslatedContent reassembles the line: tags and separating spaces
// verbatim at their original positions, translations in place of their
// source fragments, segments rejoined with the escaped-newline delimiter.
// The segment count always matches the original split.
func (l *Line) TranslatedContent() string {
	parts := make([]string, len(l.segments))
	for i, seg := range l.segments {
		var b strings.Builder
		for _, tok := range seg {
			switch {
			case tok.Tag != "":
				b.WriteString(tok.Tag)
			case tok.Space:
				b.WriteByte(' ')
			default:
				b.WriteString(tok.Unit.Translation)
			}
		}
		parts[i] = b.String()
	}
	return strings.Join(parts, escapedNewline)
}

// Estimate sums the line's unit estimates.
func (l *Line) Estimate(ctx context.Context, cache Cache, lang string) Estimate {
	var est Estimate
	for _, u := range l.Units() {
		est.Add(u.Estimate(ctx, cache, lang))
	}
	return est
}

// Block groups the dialogue lines of one "translate <lang> <label>" section.
type Block struct {
	SourceFile string
	// HeaderLine is the 0-based index of the block header.
	HeaderLine int
	Lines      []*Line
}

// Translate resolves every line of the block in order.
func (b *Block) Translate(ctx context.Context, tr Translator, cache Cache, lang string) error {
	for _, l := range b.Lines {
		if err := l.Translate(ctx, tr, cache, lang); err != nil {
			return err
		}
	}
	return nil
}

// Estimate sums the block's line estimates.
func (b *Block) Estimate(ctx context.Context, cache Cache, lang string) Estimate {
	var est Estimate
	for _, l := range b.Lines {
		est.Add(l.Estimate(ctx, cache, lang))
	}
	return est
}

// File is one parsed translation file.
type File struct {
	Filename string
	Blocks   []*Block
}

// DialogueLines returns every dialogue line of the file in source order.
func (f *File) DialogueLines() []*Line {
	var lines []*Line
	for _, b := range f.Blocks {
		lines = append(lines, b.Lines...)
	}
	return lines
}

// Translate resolves every block of the file in order.
func (f *File) Translate(ctx context.Context, tr Translator, cache Cache, lang string) error {
	for _, b := range f.Blocks {
		if err := b.Translate(ctx, tr, cache, lang); err != nil {
			return fmt.Errorf("%s: %w", f.Filename, err)
		}
	}
	return nil
}

// Estimate sums the file's block estimates.
func (f *File) Estimate(ctx context.Context, cache Cache, lang string) Estimate {
	var est Estimate
	for _, b := range f.Blocks {
		est.Add(b.Estimate(ctx, cache, lang))
	}
	return est
}
