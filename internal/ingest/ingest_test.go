package ingest

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"sync"
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/helpdesk-kb/kbresolver/internal/corpus"
)

func words(n int) string {
	w := make([]string, n)
	for i := range w {
		w[i] = "w" + strings.Repeat("x", i%3)
	}
	return strings.Join(w, "  \n")
}

func TestChunkDocument(t *testing.T) {
	tests := []struct {
		name      string
		wordCount int
		size      int
		wantParts int
	}{
		{"exact multiple", 600, 300, 2},
		{"remainder", 301, 300, 2},
		{"single short", 5, 300, 1},
		{"default size", 301, 0, 2},
		{"small chunks", 10, 3, 4},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			doc := corpus.Document{Filename: "guide.pdf", Title: "guide", Text: words(tt.wordCount)}
			chunks := ChunkDocument(doc, tt.size)
			require.Len(t, chunks, tt.wantParts)

			var rebuilt []string
			for i, c := range chunks {
				assert.Equal(t, i+1, c.ChunkIndex)
				assert.Equal(t, tt.wantParts, c.TotalChunks)
				assert.Equal(t, "guide.pdf", c.Source)
				assert.Equal(t, "guide - Part "+strconv.Itoa(i+1), c.Title)
				rebuilt = append(rebuilt, strings.Fields(c.Content)...)
			}
			assert.Equal(t, strings.Fields(doc.Text), rebuilt, "chunks must cover every word once, in order")
		})
	}
}

func TestChunkDocument_Empty(t *testing.T) {
	chunks := ChunkDocument(corpus.Document{Title: "blank", Text: "  \n\t "}, 300)
	assert.NotNil(t, chunks)
	assert.Empty(t, chunks)
}

func TestTitleFromFilename(t *testing.T) {
	assert.Equal(t, "User Guide", TitleFromFilename("User Guide.pdf"))
	assert.Equal(t, "SCAN", TitleFromFilename("SCAN.PDF"))
	assert.Equal(t, "notes.txt", TitleFromFilename("notes.txt"))
}

func TestError(t *testing.T) {
	base := errors.New("boom")
	err := error(newError("open", "/tmp/a.pdf", base))

	assert.Equal(t, "ingest open /tmp/a.pdf: boom", err.Error())
	assert.ErrorIs(t, err, base)

	var ingestErr *Error
	require.ErrorAs(t, err, &ingestErr)
	assert.Equal(t, "open", ingestErr.Op)
}

func TestPDFExtractor_MissingFile(t *testing.T) {
	_, err := NewPDFExtractor().Extract(context.Background(), filepath.Join(t.TempDir(), "missing.pdf"))

	var ingestErr *Error
	require.ErrorAs(t, err, &ingestErr)
	assert.Equal(t, "open", ingestErr.Op)
}

type fakeExtractor struct {
	mu       sync.Mutex
	calls    []string
	failOn   string
	inFlight atomic.Int32
	maxSeen  atomic.Int32
}

func (f *fakeExtractor) Extract(ctx context.Context, path string) (corpus.Document, error) {
	n := f.inFlight.Add(1)
	defer f.inFlight.Add(-1)
	for {
		seen := f.maxSeen.Load()
		if n <= seen || f.maxSeen.CompareAndSwap(seen, n) {
			break
		}
	}

	name := filepath.Base(path)
	f.mu.Lock()
	f.calls = append(f.calls, name)
	f.mu.Unlock()

	if name == f.failOn {
		return corpus.Document{}, newError("extract", path, ErrNoPages)
	}
	return corpus.Document{Filename: name, Title: TitleFromFilename(name), Text: "text of " + name, Pages: 1}, nil
}

func touch(t *testing.T, dir string, names ...string) {
	t.Helper()
	for _, n := range names {
		require.NoError(t, os.WriteFile(filepath.Join(dir, n), []byte("x"), 0o644))
	}
}

func TestDirectoryLoader_LoadDocuments(t *testing.T) {
	dir := t.TempDir()
	touch(t, dir, "c.pdf", "a.PDF", "b.pdf", "readme.txt")
	require.NoError(t, os.Mkdir(filepath.Join(dir, "nested.pdf"), 0o755))

	fake := &fakeExtractor{failOn: "b.pdf"}
	loader := NewDirectoryLoader(nil, dir, 2)
	loader.Extractor = fake

	var progressed atomic.Int32
	loader.OnProgress = func(string, corpus.Document, error) { progressed.Add(1) }

	docs, err := loader.LoadDocuments(context.Background())
	require.NoError(t, err)

	require.Len(t, docs, 2)
	assert.Equal(t, "a.PDF", docs[0].Filename)
	assert.Equal(t, "c.pdf", docs[1].Filename)
	assert.Equal(t, int32(3), progressed.Load())
	assert.LessOrEqual(t, fake.maxSeen.Load(), int32(2))
}

func TestDirectoryLoader_MissingDirectory(t *testing.T) {
	loader := NewDirectoryLoader(nil, filepath.Join(t.TempDir(), "absent"), 1)

	docs, err := loader.LoadDocuments(context.Background())
	require.NoError(t, err)
	assert.Empty(t, docs)
}

func TestDirectoryLoader_NotADirectory(t *testing.T) {
	dir := t.TempDir()
	touch(t, dir, "file.pdf")

	loader := NewDirectoryLoader(nil, filepath.Join(dir, "file.pdf"), 1)
	_, err := loader.LoadDocuments(context.Background())
	assert.ErrorIs(t, err, ErrNotDirectory)
}

func TestDirectoryLoader_Cancelled(t *testing.T) {
	dir := t.TempDir()
	touch(t, dir, "a.pdf")

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	loader := NewDirectoryLoader(nil, dir, 1)
	loader.Extractor = &fakeExtractor{}
	_, err := loader.LoadDocuments(ctx)
	assert.ErrorIs(t, err, context.Canceled)
}
