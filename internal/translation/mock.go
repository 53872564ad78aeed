package translation

import (
	"context"
	"fmt"
	"sync"
)

// Mock is a canned-translation backend for tests.
type Mock struct {
	mu           sync.Mutex
	Translations map[string]string
	Supported    []string
	CallCount    int
}

// NewMock creates a mock backend with a few default translations.
func NewMock() *Mock {
	return &Mock{
		Translations: map[string]string{
			"Hello world": "Bonjour le monde",
			"Good night":  "Bonne nuit",
		},
		Supported: []string{"de", "es", "fr"},
	}
}

// Translate returns the canned translation, or the text bracketed when no
// canned entry exists.
func (m *Mock) Translate(ctx context.Context, text, targetLang string) (string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.CallCount++
	if translated, ok := m.Translations[text]; ok {
		return translated, nil
	}
	return fmt.Sprintf("[%s]", text), nil
}

// Languages returns the configured supported set.
func (m *Mock) Languages(ctx context.Context) ([]string, error) {
	return m.Supported, nil
}

// Calls returns how many Translate calls the mock has served.
func (m *Mock) Calls() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.CallCount
}

var _ Translator = (*Mock)(nil)
