// Package embedding provides text encoders producing fixed-length vectors for
// similarity ranking.
package embedding

import (
	"context"
	"errors"
)

// ErrEmptyVector is returned by encoders that received no vector from their backend.
var ErrEmptyVector = errors.New("encoder returned an empty vector")

// Encoder maps text to a vector. Implementations must be deterministic for a
// fixed model and safe for concurrent use.
type Encoder interface {
	Embed(ctx context.Context, text string) ([]float32, error)
	// Dimensions reports the vector length, or 0 when not known yet.
	Dimensions() int
}
