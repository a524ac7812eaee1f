// Package embed generates vector embeddings for chunked paper text.
package embed

import (
	"context"
	"errors"
)

// ErrUnavailable is returned when no embedding backend is configured.
var ErrUnavailable = errors.New("embedding provider unavailable")

// Client produces fixed-length vectors for text.
type Client interface {
	Embed(ctx context.Context, text string) ([]float32, error)
	Dimensions() int
	Model() string
}

// Placeholder is a Client that always fails. Wired when EMBEDDING_PROVIDER
// is unset so that misconfiguration surfaces as a clear error instead of
// silent empty vectors.
type Placeholder struct{}

func (Placeholder) Embed(ctx context.Context, text string) ([]float32, error) {
	return nil, ErrUnavailable
}

func (Placeholder) Dimensions() int { return 0 }

func (Placeholder) Model() string { return "placeholder" }
