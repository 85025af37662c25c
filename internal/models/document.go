// Package models defines core data structures for documents, conversation turns, and errors.
package models

import (
	"crypto/sha256"
	"encoding/binary"
	"encoding/hex"
)

// Document is an uploaded document: raw content plus the identity metadata
// used for index caching. Identity is (Name, Size); content is deliberately
// not hashed, so two different files sharing name and size are
// indistinguishable to the cache.
type Document struct {
	Name    string `json:"name"`
	Size    int64  `json:"size"`
	Content []byte `json:"-"`
}

// DocumentSet is an ordered collection of documents processed together.
type DocumentSet []Document

// Names returns the document names in upload order.
func (s DocumentSet) Names() []string {
	names := make([]string, len(s))
	for i, d := range s {
		names[i] = d.Name
	}
	return names
}

// Fingerprint returns a stable cache key derived from the ordered
// (name, size) pairs of the set. Sets with equal fingerprints are treated
// as identical for index caching.
func (s DocumentSet) Fingerprint() string {
	h := sha256.New()
	var sizeBuf [8]byte
	for _, d := range s {
		h.Write([]byte(d.Name))
		h.Write([]byte{0})
		binary.LittleEndian.PutUint64(sizeBuf[:], uint64(d.Size))
		h.Write(sizeBuf[:])
	}
	return hex.EncodeToString(h.Sum(nil))
}

// Chunk is a bounded text window used as the unit of retrieval.
type Chunk struct {
	Index int    `json:"index"`
	Text  string `json:"text"`
}
