// Package translate converts segment texts between languages through a
// pluggable backend. The pipeline depends on the Backend capability only,
// never on a concrete implementation.
package translate

import (
	"context"
	"strings"
)

// Backend is the capability a translation engine must provide. A failure is
// signalled by a non-nil error; returning the input unchanged is a valid
// translation, not a failure.
type Backend interface {
	Translate(ctx context.Context, text, sourceLang, targetLang string) (string, error)
}

// Translator wraps a backend with the pipeline's no-op rules: empty text and
// identical source/target languages pass through without a backend call.
type Translator struct {
	backend Backend
}

// New returns a translator over the given backend.
func New(backend Backend) *Translator {
	return &Translator{backend: backend}
}

// Translate runs one segment text through the backend.
func (t *Translator) Translate(ctx context.Context, text, sourceLang, targetLang string) (string, error) {
	if strings.TrimSpace(text) == "" {
		return text, nil
	}
	if sourceLang == targetLang {
		// Legitimate no-op, distinct from a backend failure
		return text, nil
	}
	return t.backend.Translate(ctx, text, sourceLang, targetLang)
}
