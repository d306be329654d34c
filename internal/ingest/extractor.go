// Package ingest extracts text from long-form documents and splits it into
// searchable chunks.
package ingest

import (
	"context"
	"path/filepath"
	"strings"
	"time"

	"github.com/gen2brain/go-fitz"

	"github.com/helpdesk-kb/kbresolver/internal/corpus"
)

// Extractor turns one file into a corpus.Document.
type Extractor interface {
	Extract(ctx context.Context, path string) (corpus.Document, error)
}

// PDFExtractor extracts page text with MuPDF.
type PDFExtractor struct {
	now func() time.Time
}

// NewPDFExtractor creates a PDF extractor.
func NewPDFExtractor() *PDFExtractor {
	return &PDFExtractor{now: time.Now}
}

// Extract opens path and concatenates the text of every page. The title is
// the file name without its extension.
func (e *PDFExtractor) Extract(ctx context.Context, path string) (corpus.Document, error) {
	doc, err := fitz.New(path)
	if err != nil {
		return corpus.Document{}, newError("open", path, err)
	}
	defer doc.Close()

	pageCount := doc.NumPage()
	if pageCount == 0 {
		return corpus.Document{}, newError("extract", path, ErrNoPages)
	}

	var text strings.Builder
	for pageNum := 0; pageNum < pageCount; pageNum++ {
		select {
		case <-ctx.Done():
			return corpus.Document{}, ctx.Err()
		default:
		}

		pageText, err := doc.Text(pageNum)
		if err != nil {
			return corpus.Document{}, newError("extract", path, err)
		}
		if pageNum > 0 {
			text.WriteByte('\n')
		}
		text.WriteString(pageText)
	}

	filename := filepath.Base(path)
	return corpus.Document{
		Filename:    filename,
		Title:       TitleFromFilename(filename),
		Text:        text.String(),
		Pages:       pageCount,
		ExtractedAt: e.now().UTC(),
	}, nil
}

// TitleFromFilename strips a trailing .pdf extension, case-insensitively.
func TitleFromFilename(filename string) string {
	ext := filepath.Ext(filename)
	if strings.EqualFold(ext, ".pdf") {
		return strings.TrimSuffix(filename, ext)
	}
	return filename
}
