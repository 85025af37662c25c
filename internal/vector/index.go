// Package vector provides the chunk index and similarity retrieval.
package vector

import (
	"bufio"
	"encoding/binary"
	"fmt"
	"io"
	"math"
	"os"
	"path/filepath"
	"sort"
)

// Hit is a single retrieval result: the chunk text and its similarity score.
type Hit struct {
	Text  string  `json:"text"`
	Score float64 `json:"score"`
}

// Index maps embedded chunks to their text and answers top-k similarity
// queries. An Index is built once (via Add during construction) and then
// read-only; a changed document set produces a new Index rather than
// mutating this one.
type Index struct {
	dimensions int
	texts      []string
	vectors    [][]float32
}

// NewIndex creates an empty index for vectors of the given dimension.
func NewIndex(dimensions int) (*Index, error) {
	if dimensions <= 0 {
		return nil, fmt.Errorf("dimensions must be positive")
	}
	return &Index{dimensions: dimensions}, nil
}

// Add appends chunk texts with their vectors. Only called while building.
func (ix *Index) Add(texts []string, vectors [][]float32) error {
	if len(texts) != len(vectors) {
		return fmt.Errorf("texts and vectors length mismatch: %d != %d", len(texts), len(vectors))
	}
	for i, vec := range vectors {
		if len(vec) != ix.dimensions {
			return fmt.Errorf("vector %d dimension mismatch: got %d, expected %d", i, len(vec), ix.dimensions)
		}
		v := make([]float32, ix.dimensions)
		copy(v, vec)
		ix.texts = append(ix.texts, texts[i])
		ix.vectors = append(ix.vectors, v)
	}
	return nil
}

// Search returns up to k chunks ranked by inner product with query, highest
// first (cosine similarity for unit vectors). There is no minimum score:
// low-relevance chunks are returned when nothing better exists. An empty
// index yields an empty result.
func (ix *Index) Search(query []float32, k int) ([]Hit, error) {
	if len(query) != ix.dimensions {
		return nil, fmt.Errorf("query dimension mismatch: got %d, expected %d", len(query), ix.dimensions)
	}
	if k <= 0 || len(ix.vectors) == 0 {
		return nil, nil
	}
	hits := make([]Hit, len(ix.vectors))
	for i, vec := range ix.vectors {
		var dot float64
		for j := 0; j < ix.dimensions; j++ {
			dot += float64(query[j] * vec[j])
		}
		hits[i] = Hit{Text: ix.texts[i], Score: dot}
	}
	sort.SliceStable(hits, func(i, j int) bool { return hits[i].Score > hits[j].Score })
	if k > len(hits) {
		k = len(hits)
	}
	return hits[:k], nil
}

// Size returns the number of chunks in the index.
func (ix *Index) Size() int {
	return len(ix.texts)
}

// Dimensions returns the vector dimensionality.
func (ix *Index) Dimensions() int {
	return ix.dimensions
}

// Save writes the index to path, replacing any previous file atomically
// (temp file plus rename). Parent directories are created if needed.
// Format: dimensions (u32), count (u32), then per chunk: vector
// (dimensions*4 bytes), text length (u32), text bytes. Little-endian.
func (ix *Index) Save(path string) error {
	if path == "" {
		return nil
	}
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return fmt.Errorf("create index dir: %w", err)
	}
	tmp, err := os.CreateTemp(filepath.Dir(path), ".index-*")
	if err != nil {
		return fmt.Errorf("create temp index: %w", err)
	}
	defer os.Remove(tmp.Name())

	w := bufio.NewWriter(tmp)
	if err := ix.write(w); err != nil {
		_ = tmp.Close()
		return err
	}
	if err := w.Flush(); err != nil {
		_ = tmp.Close()
		return fmt.Errorf("flush index: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("close temp index: %w", err)
	}
	if err := os.Rename(tmp.Name(), path); err != nil {
		return fmt.Errorf("replace index: %w", err)
	}
	return nil
}

func (ix *Index) write(w *bufio.Writer) error {
	if err := binary.Write(w, binary.LittleEndian, uint32(ix.dimensions)); err != nil {
		return fmt.Errorf("write dimensions: %w", err)
	}
	if err := binary.Write(w, binary.LittleEndian, uint32(len(ix.texts))); err != nil {
		return fmt.Errorf("write count: %w", err)
	}
	var buf [4]byte
	for i, vec := range ix.vectors {
		for _, v := range vec {
			binary.LittleEndian.PutUint32(buf[:], math.Float32bits(v))
			if _, err := w.Write(buf[:]); err != nil {
				return fmt.Errorf("write vector %d: %w", i, err)
			}
		}
		text := []byte(ix.texts[i])
		if err := binary.Write(w, binary.LittleEndian, uint32(len(text))); err != nil {
			return fmt.Errorf("write text len %d: %w", i, err)
		}
		if _, err := w.Write(text); err != nil {
			return fmt.Errorf("write text %d: %w", i, err)
		}
	}
	return nil
}

// Load reads an index previously written by Save.
func Load(path string) (*Index, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open index file: %w", err)
	}
	defer f.Close()

	r := bufio.NewReader(f)
	var dim, n uint32
	if err := binary.Read(r, binary.LittleEndian, &dim); err != nil {
		return nil, fmt.Errorf("read dimensions: %w", err)
	}
	ix, err := NewIndex(int(dim))
	if err != nil {
		return nil, err
	}
	if err := binary.Read(r, binary.LittleEndian, &n); err != nil {
		return nil, fmt.Errorf("read count: %w", err)
	}
	vecBuf := make([]byte, int(dim)*4)
	for i := uint32(0); i < n; i++ {
		if _, err := io.ReadFull(r, vecBuf); err != nil {
			return nil, fmt.Errorf("read vector %d: %w", i, err)
		}
		vec := make([]float32, dim)
		for j := range vec {
			vec[j] = math.Float32frombits(binary.LittleEndian.Uint32(vecBuf[j*4 : j*4+4]))
		}
		var textLen uint32
		if err := binary.Read(r, binary.LittleEndian, &textLen); err != nil {
			return nil, fmt.Errorf("read text len %d: %w", i, err)
		}
		text := make([]byte, textLen)
		if _, err := io.ReadFull(r, text); err != nil {
			return nil, fmt.Errorf("read text %d: %w", i, err)
		}
		ix.texts = append(ix.texts, string(text))
		ix.vectors = append(ix.vectors, vec)
	}
	return ix, nil
}
