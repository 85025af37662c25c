// Package chunker splits extracted text into overlapping fixed-width windows.
package chunker

import (
	"fmt"

	"github.com/hyperjump/kiku/internal/models"
)

// Chunker splits text into greedy fixed-width rune windows that advance by
// size-overlap. Windows do not respect sentence or paragraph boundaries;
// that is a deliberate simplicity/latency tradeoff.
type Chunker struct {
	size    int
	overlap int
}

// New creates a chunker. size is the window width in runes, overlap how many
// runes consecutive windows share. Requires size > 0 and 0 <= overlap < size.
func New(size, overlap int) (*Chunker, error) {
	if size <= 0 {
		return nil, fmt.Errorf("chunk size must be positive, got %d", size)
	}
	if overlap < 0 || overlap >= size {
		return nil, fmt.Errorf("chunk overlap must be in [0, %d), got %d", size, overlap)
	}
	return &Chunker{size: size, overlap: overlap}, nil
}

// Size returns the configured window width in runes.
func (c *Chunker) Size() int { return c.size }

// Overlap returns the configured overlap in runes.
func (c *Chunker) Overlap() int { return c.overlap }

// Chunk splits text into ordered windows. Every window except possibly the
// last has exactly size runes; consecutive windows share exactly overlap
// runes. Empty text yields nil.
func (c *Chunker) Chunk(text string) []models.Chunk {
	runes := []rune(text)
	if len(runes) == 0 {
		return nil
	}
	step := c.size - c.overlap
	chunks := make([]models.Chunk, 0, (len(runes)+step-1)/step)
	for start := 0; start < len(runes); start += step {
		end := start + c.size
		if end > len(runes) {
			end = len(runes)
		}
		chunks = append(chunks, models.Chunk{
			Index: len(chunks),
			Text:  string(runes[start:end]),
		})
		if end == len(runes) {
			break
		}
	}
	return chunks
}
