package translation

import (
	"context"

	"golang.org/x/sync/singleflight"
)

// Deduped collapses concurrent calls for the same (text, language) pair
// into a single in-flight backend request, so parallel workers never pay
// twice for an identical fragment.
type Deduped struct {
	inner Translator
	group singleflight.Group
}

// NewDeduped wraps a translator with in-flight deduplication.
func NewDeduped(inner Translator) *Deduped {
	return &Deduped{inner: inner}
}

// Translate implements Translator. Identical keys share one live call; the
// result is idempotent, so every caller gets the same text.
func (d *Deduped) Translate(ctx context.Context, text, targetLang string) (string, error) {
	v, err, _ := d.group.Do(text+"\x00"+targetLang, func() (interface{}, error) {
		return d.inner.Translate(ctx, text, targetLang)
	})
	if err != nil {
		return "", err
	}
	return v.(string), nil
}

// Languages implements Translator.
func (d *Deduped) Languages(ctx context.Context) ([]string, error) {
	return d.inner.Languages(ctx)
}

var _ Translator = (*Deduped)(nil)
