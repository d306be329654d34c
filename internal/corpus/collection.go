package corpus

// Entry is one searchable record tagged with its corpus. Exactly one of the
// payload pointers is set, matching Kind.
type Entry struct {
	Kind  Kind
	FAQ   *FAQEntry
	Legal *LegalEntry
	Misc  *MiscEntry
	Chunk *DocumentChunk
}

// PrimaryText is the field a user would recognise the entry by: the question
// for FAQ and misc entries, the title otherwise.
func (e Entry) PrimaryText() string {
	switch e.Kind {
	case KindFAQ:
		return e.FAQ.Question
	case KindMisc:
		return e.Misc.Question
	case KindLegal:
		return e.Legal.Title
	case KindPDFChunk:
		return e.Chunk.Title
	}
	return ""
}

// Field returns the named text field of the entry and whether it exists.
func (e Entry) Field(key string) (string, bool) {
	switch e.Kind {
	case KindFAQ:
		switch key {
		case "question":
			return e.FAQ.Question, true
		case "answer":
			return e.FAQ.Answer, true
		}
	case KindMisc:
		switch key {
		case "question":
			return e.Misc.Question, true
		case "answer":
			return e.Misc.Answer, true
		}
	case KindLegal:
		switch key {
		case "title":
			return e.Legal.Title, true
		case "content":
			return e.Legal.Content, true
		}
	case KindPDFChunk:
		switch key {
		case "title":
			return e.Chunk.Title, true
		case "content":
			return e.Chunk.Content, true
		case "source":
			return e.Chunk.Source, true
		}
	}
	return "", false
}

// Chunker splits a document into chunks of roughly wordsPerChunk words.
type Chunker func(doc Document, wordsPerChunk int) []DocumentChunk

// Collection is the normalized, searchable view of a snapshot.
type Collection struct {
	FAQ       []Entry
	Legal     []Entry
	Misc      []Entry
	Chunks    []Entry
	Documents []Document

	all []Entry
}

// NewCollection converts raw records into tagged entries. Document chunks
// are produced with chunk; a nil chunker yields no chunks.
func NewCollection(snap *Snapshot, chunk Chunker, wordsPerChunk int) *Collection {
	if snap == nil {
		snap = &Snapshot{}
	}
	snap.Normalize()

	c := &Collection{
		FAQ:       make([]Entry, 0, len(snap.FAQ)),
		Legal:     make([]Entry, 0, len(snap.Legal)),
		Misc:      make([]Entry, 0, len(snap.Misc)),
		Chunks:    []Entry{},
		Documents: snap.Documents,
	}

	for i := range snap.FAQ {
		c.FAQ = append(c.FAQ, Entry{Kind: KindFAQ, FAQ: &snap.FAQ[i]})
	}
	for i := range snap.Legal {
		c.Legal = append(c.Legal, Entry{Kind: KindLegal, Legal: &snap.Legal[i]})
	}
	for i := range snap.Misc {
		c.Misc = append(c.Misc, Entry{Kind: KindMisc, Misc: &snap.Misc[i]})
	}

	if chunk != nil {
		for _, doc := range snap.Documents {
			chunks := chunk(doc, wordsPerChunk)
			for i := range chunks {
				c.Chunks = append(c.Chunks, Entry{Kind: KindPDFChunk, Chunk: &chunks[i]})
			}
		}
	}

	c.all = make([]Entry, 0, len(c.FAQ)+len(c.Misc)+len(c.Legal)+len(c.Chunks))
	c.all = append(c.all, c.FAQ...)
	c.all = append(c.all, c.Misc...)
	c.all = append(c.all, c.Legal...)
	c.all = append(c.all, c.Chunks...)

	return c
}

// All returns every entry: FAQ, then misc, then legal, then chunks.
func (c *Collection) All() []Entry {
	return c.all
}

// Of returns the entries of one corpus.
func (c *Collection) Of(kind Kind) []Entry {
	switch kind {
	case KindFAQ:
		return c.FAQ
	case KindLegal:
		return c.Legal
	case KindMisc:
		return c.Misc
	case KindPDFChunk:
		return c.Chunks
	}
	return nil
}
