package corpus

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeFile(t *testing.T, dir, name, content string) string {
	t.Helper()
	p := filepath.Join(dir, name)
	require.NoError(t, os.WriteFile(p, []byte(content), 0o644))
	return p
}

type stubDocs struct {
	docs []Document
	err  error
}

func (s stubDocs) LoadDocuments(ctx context.Context) ([]Document, error) {
	return s.docs, s.err
}

func TestFileLoader_Load(t *testing.T) {
	dir := t.TempDir()
	faq := writeFile(t, dir, "faq.json", `[{"question":"How do I pay?","answer":"By card."}]`)
	legal := writeFile(t, dir, "legal.json", `[{"title":"Privacy","content":"We protect data."}]`)
	misc := writeFile(t, dir, "misc.json", `[{"question":"hi","answer":"Hello!"}]`)

	loader := NewFileLoader(nil, faq, legal, misc, stubDocs{docs: []Document{{Filename: "a.pdf", Title: "a", Text: "x"}}})
	snap, err := loader.Load(context.Background())
	require.NoError(t, err)

	assert.Equal(t, []FAQEntry{{Question: "How do I pay?", Answer: "By card."}}, snap.FAQ)
	assert.Equal(t, "Privacy", snap.Legal[0].Title)
	assert.Equal(t, "Hello!", snap.Misc[0].Answer)
	assert.Len(t, snap.Documents, 1)
}

func TestFileLoader_AbsorbsMissingAndMalformed(t *testing.T) {
	dir := t.TempDir()
	bad := writeFile(t, dir, "legal.json", `{not json`)

	loader := NewFileLoader(nil, filepath.Join(dir, "nope.json"), bad, "", stubDocs{err: errors.New("disk gone")})
	snap, err := loader.Load(context.Background())
	require.NoError(t, err)

	assert.NotNil(t, snap.FAQ)
	assert.Empty(t, snap.FAQ)
	assert.Empty(t, snap.Legal)
	assert.Empty(t, snap.Misc)
	assert.NotNil(t, snap.Documents)
	assert.Empty(t, snap.Documents)
}

func TestFileLoader_CancelledContext(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := NewFileLoader(nil, "", "", "", nil).Load(ctx)
	assert.ErrorIs(t, err, context.Canceled)
}

func TestReadJSONFile_ReportsErrors(t *testing.T) {
	dir := t.TempDir()
	bad := writeFile(t, dir, "faq.json", `[1,2`)

	_, err := ReadJSONFile[FAQEntry](bad)
	assert.Error(t, err)

	_, err = ReadJSONFile[FAQEntry](filepath.Join(dir, "missing.json"))
	assert.ErrorIs(t, err, os.ErrNotExist)
}

func TestNewCollection(t *testing.T) {
	snap := &Snapshot{
		FAQ:   []FAQEntry{{Question: "q1", Answer: "a1"}, {Question: "q2", Answer: "a2"}},
		Legal: []LegalEntry{{Title: "Terms", Content: "c"}},
		Misc:  []MiscEntry{{Question: "hello", Answer: "hi"}},
		Documents: []Document{
			{Filename: "guide.pdf", Title: "guide", Text: "one two three"},
		},
	}

	chunker := func(doc Document, n int) []DocumentChunk {
		words := strings.Fields(doc.Text)
		return []DocumentChunk{{Title: doc.Title + " - Part 1", Content: strings.Join(words, " "), Source: doc.Filename, ChunkIndex: 1, TotalChunks: 1}}
	}

	c := NewCollection(snap, chunker, 300)

	require.Len(t, c.All(), 5)
	kinds := make([]Kind, 0, len(c.All()))
	for _, e := range c.All() {
		kinds = append(kinds, e.Kind)
	}
	assert.Equal(t, []Kind{KindFAQ, KindFAQ, KindMisc, KindLegal, KindPDFChunk}, kinds)

	assert.Equal(t, "q2", c.Of(KindFAQ)[1].PrimaryText())
	assert.Equal(t, "Terms", c.Of(KindLegal)[0].PrimaryText())
	assert.Equal(t, "guide - Part 1", c.Of(KindPDFChunk)[0].PrimaryText())

	v, ok := c.Misc[0].Field("answer")
	assert.True(t, ok)
	assert.Equal(t, "hi", v)

	_, ok = c.Misc[0].Field("title")
	assert.False(t, ok)
}

func TestNewCollection_Empty(t *testing.T) {
	c := NewCollection(nil, nil, 300)
	assert.Empty(t, c.All())
	assert.NotNil(t, c.FAQ)
	assert.NotNil(t, c.Chunks)
}

func TestStaticLoader(t *testing.T) {
	snap, err := StaticLoader{}.Load(context.Background())
	require.NoError(t, err)
	assert.NotNil(t, snap.FAQ)
	assert.NotNil(t, snap.Documents)
}
