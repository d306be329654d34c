package ingest

import (
	"fmt"
	"strings"

	"github.com/helpdesk-kb/kbresolver/internal/corpus"
)

// DefaultWordsPerChunk is used when a non-positive chunk size is requested.
const DefaultWordsPerChunk = 300

// ChunkDocument splits the document text on whitespace into consecutive runs
// of wordsPerChunk words. Chunks are numbered from 1, cover every word exactly
// once, and all carry the same TotalChunks. A document without words yields
// no chunks.
func ChunkDocument(doc corpus.Document, wordsPerChunk int) []corpus.DocumentChunk {
	if wordsPerChunk <= 0 {
		wordsPerChunk = DefaultWordsPerChunk
	}

	words := strings.Fields(doc.Text)
	if len(words) == 0 {
		return []corpus.DocumentChunk{}
	}

	total := (len(words) + wordsPerChunk - 1) / wordsPerChunk
	chunks := make([]corpus.DocumentChunk, 0, total)
	for start := 0; start < len(words); start += wordsPerChunk {
		end := min(start+wordsPerChunk, len(words))
		part := start/wordsPerChunk + 1
		chunks = append(chunks, corpus.DocumentChunk{
			Title:       fmt.Sprintf("%s - Part %d", doc.Title, part),
			Content:     strings.Join(words[start:end], " "),
			Source:      doc.Filename,
			ChunkIndex:  part,
			TotalChunks: total,
		})
	}
	return chunks
}
