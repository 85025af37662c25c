// Package extract provides text extraction from uploaded document formats.
package extract

import (
	"path/filepath"
	"strings"

	"github.com/hyperjump/kiku/internal/models"
)

// Extractor extracts plain text from uploaded documents.
type Extractor struct{}

// NewExtractor returns a new Extractor.
func NewExtractor() *Extractor {
	return &Extractor{}
}

// Extract returns the text content of doc, dispatching on its file
// extension. PDF, DOCX, and XLSX are parsed from the binary format;
// everything else is treated as UTF-8 text.
func (e *Extractor) Extract(doc models.Document) (string, error) {
	ext := strings.ToLower(filepath.Ext(doc.Name))
	switch ext {
	case ".pdf":
		return extractPDF(doc.Content)
	case ".docx":
		return extractDOCX(doc.Content)
	case ".xlsx":
		return extractExcel(doc.Content)
	default:
		// .txt, .md, and unknown extensions: treat as plain text.
		return extractPlain(doc.Content)
	}
}

// ExtractAll extracts every document in set, in order, and joins the results
// with newlines. The first extraction failure aborts and is returned along
// with the offending document's name.
func (e *Extractor) ExtractAll(set models.DocumentSet) (string, error) {
	var b strings.Builder
	for _, doc := range set {
		text, err := e.Extract(doc)
		if err != nil {
			return "", models.Errorf(models.KindIngestionFailed, "extract %s: %w", doc.Name, err)
		}
		if b.Len() > 0 && text != "" {
			b.WriteByte('\n')
		}
		b.WriteString(text)
	}
	return b.String(), nil
}
