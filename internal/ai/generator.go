// Package ai defines the text generation backends used for cover letters.
package ai

import (
	"context"
	"errors"
	"fmt"
)

var (
	// ErrUnavailable marks a backend that cannot serve requests at all.
	ErrUnavailable = errors.New("generation backend unavailable")
	// ErrEmptyResponse is returned when the backend answered with no text.
	ErrEmptyResponse = errors.New("generation backend returned empty response")
	// ErrModelMissing means the configured model is not installed on the backend.
	ErrModelMissing = fmt.Errorf("%w: model not found", ErrUnavailable)
)

// Generator produces free text for a prompt. maxTokens bounds the output
// length; zero leaves the backend default.
type Generator interface {
	Generate(ctx context.Context, prompt string, maxTokens int) (string, error)
	Model() string
}
