package chat

import "context"

// Synthesizer produces a natural-language answer from a composed prompt.
// It is an external capability: implementations talk to a language model
// provider and classify their own failures (invalid_credentials for auth
// rejections, provider_failure for everything else).
type Synthesizer interface {
	Synthesize(ctx context.Context, prompt string) (string, error)
}

const (
	apiKeyPrefix = "AIza"
	apiKeyLength = 39
)

// ValidateAPIKey reports whether key matches the expected Google API key
// shape: the "AIza" prefix and exactly 39 characters. This is a cheap local
// precondition checked before any provider round-trip.
func ValidateAPIKey(key string) bool {
	return len(key) == apiKeyLength && key[:len(apiKeyPrefix)] == apiKeyPrefix
}
