package chunker

import (
	"math/rand/v2"
	"strings"
	"testing"
)

func TestNew_Validation(t *testing.T) {
	tests := []struct {
		name    string
		size    int
		overlap int
		wantErr bool
	}{
		{"valid", 2000, 200, false},
		{"zero overlap", 10, 0, false},
		{"zero size", 0, 0, true},
		{"negative size", -1, 0, true},
		{"negative overlap", 10, -1, true},
		{"overlap equals size", 10, 10, true},
		{"overlap exceeds size", 10, 11, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := New(tt.size, tt.overlap)
			if (err != nil) != tt.wantErr {
				t.Errorf("New(%d, %d) error = %v, wantErr %v", tt.size, tt.overlap, err, tt.wantErr)
			}
		})
	}
}

func TestChunk_Windows(t *testing.T) {
	c, err := New(5, 2)
	if err != nil {
		t.Fatal(err)
	}
	chunks := c.Chunk("abcdefghij")
	// step 3: [0:5] [3:8] [6:10]
	want := []string{"abcde", "defgh", "ghij"}
	if len(chunks) != len(want) {
		t.Fatalf("expected %d chunks, got %d", len(want), len(chunks))
	}
	for i, ch := range chunks {
		if ch.Text != want[i] {
			t.Errorf("chunk %d: got %q, want %q", i, ch.Text, want[i])
		}
		if ch.Index != i {
			t.Errorf("chunk %d: Index=%d", i, ch.Index)
		}
	}
}

func TestChunk_Empty(t *testing.T) {
	c, _ := New(10, 3)
	if got := c.Chunk(""); got != nil {
		t.Errorf("empty text should yield nil, got %v", got)
	}
}

func TestChunk_ShorterThanWindow(t *testing.T) {
	c, _ := New(100, 10)
	chunks := c.Chunk("short")
	if len(chunks) != 1 || chunks[0].Text != "short" {
		t.Errorf("got %v", chunks)
	}
}

func TestChunk_Unicode(t *testing.T) {
	c, _ := New(3, 1)
	chunks := c.Chunk("日本語のテキスト")
	for i, ch := range chunks {
		if !strings.HasPrefix("日本語のテキスト", chunks[0].Text) && i == 0 {
			t.Errorf("first chunk must be a prefix: %q", ch.Text)
		}
		for _, r := range ch.Text {
			if r == '�' {
				t.Errorf("chunk %d split a multibyte rune: %q", i, ch.Text)
			}
		}
	}
}

// Concatenating the first chunk with the non-overlapping tail of every later
// chunk must reconstruct the input exactly.
func TestChunk_RoundTrip(t *testing.T) {
	rng := rand.New(rand.NewPCG(1, 2))
	alphabet := []rune("abcdefghij 日本語\n")
	for trial := 0; trial < 200; trial++ {
		size := 1 + rng.IntN(50)
		overlap := rng.IntN(size)
		n := rng.IntN(500)
		runes := make([]rune, n)
		for i := range runes {
			runes[i] = alphabet[rng.IntN(len(alphabet))]
		}
		text := string(runes)

		c, err := New(size, overlap)
		if err != nil {
			t.Fatalf("New(%d, %d): %v", size, overlap, err)
		}
		chunks := c.Chunk(text)

		var b strings.Builder
		for i, ch := range chunks {
			r := []rune(ch.Text)
			if len(r) > size {
				t.Fatalf("trial %d: chunk %d longer than size: %d > %d", trial, i, len(r), size)
			}
			if i == 0 {
				b.WriteString(ch.Text)
			} else {
				b.WriteString(string(r[overlap:]))
			}
		}
		if b.String() != text {
			t.Fatalf("trial %d (size=%d overlap=%d): round-trip mismatch", trial, size, overlap)
		}
	}
}
