package translate

import (
	"context"
	"fmt"
)

// MockBackend tags text instead of translating it. Useful for offline runs
// and for exercising the render path without a network dependency.
type MockBackend struct{}

func (MockBackend) Translate(_ context.Context, text, sourceLang, targetLang string) (string, error) {
	return fmt.Sprintf("[TRANSLATED:%s->%s] %s", sourceLang, targetLang, text), nil
}
