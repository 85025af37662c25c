package chat

import (
	"context"
	"fmt"

	"github.com/hyperjump/kiku/pkg/utils"
)

// MockSynthesizer is a deterministic synthesizer for development runs
// without provider credentials. It echoes the prompt tail instead of
// calling a model.
type MockSynthesizer struct{}

// NewMockSynthesizer creates a mock synthesizer.
func NewMockSynthesizer() *MockSynthesizer {
	return &MockSynthesizer{}
}

// Synthesize returns a canned answer derived from the prompt.
func (m *MockSynthesizer) Synthesize(ctx context.Context, prompt string) (string, error) {
	return fmt.Sprintf("[mock] %s", utils.Truncate(prompt, 200)), nil
}
