// Package insight produces the narrative text attached to an analysis:
// dataset summaries, chart commentary, recommendations and chat answers.
//
// The text comes from a Generator. Its output is opaque to the rest of the
// service; callers store it verbatim and treat failures as non-fatal.
package insight

import (
	"context"
	"errors"
)

// ErrDisabled is returned by the Disabled generator.
var ErrDisabled = errors.New("insight generation is not configured")

// Generator turns a prompt into free text.
type Generator interface {
	Generate(ctx context.Context, prompt string) (string, error)
}

// GeneratorFunc adapts a function to the Generator interface.
type GeneratorFunc func(ctx context.Context, prompt string) (string, error)

// Generate calls fn(ctx, prompt).
func (fn GeneratorFunc) Generate(ctx context.Context, prompt string) (string, error) {
	return fn(ctx, prompt)
}

// Disabled is used when no API key is configured.
type Disabled struct{}

// Generate always fails with ErrDisabled.
func (Disabled) Generate(context.Context, string) (string, error) {
	return "", ErrDisabled
}

// Enabled reports whether g can produce text.
func Enabled(g Generator) bool {
	if g == nil {
		return false
	}
	_, disabled := g.(Disabled)
	return !disabled
}
