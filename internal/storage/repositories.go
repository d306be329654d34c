package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/google/uuid"

	"github.com/helpdesk-kb/kbresolver/internal/corpus"
	"github.com/helpdesk-kb/kbresolver/internal/observability"
)

// Common errors
var (
	ErrUnknownTable = errors.New("unknown corpus table")
)

// DB represents a database connection interface.
type DB interface {
	QueryContext(ctx context.Context, query string, args ...interface{}) (*sql.Rows, error)
	QueryRowContext(ctx context.Context, query string, args ...interface{}) *sql.Row
	ExecContext(ctx context.Context, query string, args ...interface{}) (sql.Result, error)
}

// TxDB is a DB that can start transactions.
type TxDB interface {
	DB
	BeginTx(ctx context.Context, opts *sql.TxOptions) (*sql.Tx, error)
}

// CorpusRepository reads and replaces the stored corpora. It implements
// corpus.Loader.
type CorpusRepository struct {
	db     TxDB
	logger *observability.Logger
}

// NewCorpusRepository creates a new corpus repository.
func NewCorpusRepository(db TxDB, logger *observability.Logger) *CorpusRepository {
	if logger == nil {
		logger = observability.NopLogger()
	}
	return &CorpusRepository{db: db, logger: logger.WithOperation("storage")}
}

// ReplaceFAQ swaps the FAQ corpus for entries, keeping their order.
func (r *CorpusRepository) ReplaceFAQ(ctx context.Context, entries []corpus.FAQEntry) error {
	rows := make([][2]string, len(entries))
	for i, e := range entries {
		rows[i] = [2]string{e.Question, e.Answer}
	}
	return r.replacePairs(ctx, TableFAQ, "question", "answer", rows)
}

// ReplaceLegal swaps the legal corpus for entries, keeping their order.
func (r *CorpusRepository) ReplaceLegal(ctx context.Context, entries []corpus.LegalEntry) error {
	rows := make([][2]string, len(entries))
	for i, e := range entries {
		rows[i] = [2]string{e.Title, e.Content}
	}
	return r.replacePairs(ctx, TableLegal, "title", "content", rows)
}

// ReplaceMisc swaps the misc corpus for entries, keeping their order.
func (r *CorpusRepository) ReplaceMisc(ctx context.Context, entries []corpus.MiscEntry) error {
	rows := make([][2]string, len(entries))
	for i, e := range entries {
		rows[i] = [2]string{e.Question, e.Answer}
	}
	return r.replacePairs(ctx, TableMisc, "question", "answer", rows)
}

func (r *CorpusRepository) replacePairs(ctx context.Context, table, colA, colB string, rows [][2]string) error {
	switch table {
	case TableFAQ, TableLegal, TableMisc:
	default:
		return fmt.Errorf("%w: %s", ErrUnknownTable, table)
	}

	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	if _, err := tx.ExecContext(ctx, "DELETE FROM "+table); err != nil {
		return fmt.Errorf("failed to clear %s: %w", table, err)
	}

	query := fmt.Sprintf(`INSERT INTO %s (id, position, %s, %s) VALUES ($1, $2, $3, $4)`, table, colA, colB)
	for i, row := range rows {
		if _, err := tx.ExecContext(ctx, query, uuid.NewString(), i, row[0], row[1]); err != nil {
			return fmt.Errorf("failed to insert into %s: %w", table, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit %s: %w", table, err)
	}

	r.logger.Info().Str("table", table).Int("rows", len(rows)).Msg("Replaced corpus")
	return nil
}

// UpsertDocument stores an extracted document, replacing any previous
// extraction of the same file.
func (r *CorpusRepository) UpsertDocument(ctx context.Context, doc corpus.Document) error {
	query := `
		INSERT INTO documents (filename, title, body, pages, extracted_at)
		VALUES ($1, $2, $3, $4, $5)
		ON CONFLICT (filename) DO UPDATE SET
			title = excluded.title,
			body = excluded.body,
			pages = excluded.pages,
			extracted_at = excluded.extracted_at
	`
	_, err := r.db.ExecContext(ctx, query, doc.Filename, doc.Title, doc.Text, doc.Pages, doc.ExtractedAt.UTC())
	if err != nil {
		return fmt.Errorf("failed to store document %s: %w", doc.Filename, err)
	}
	return nil
}

// ListFAQ returns the FAQ corpus in stored order.
func (r *CorpusRepository) ListFAQ(ctx context.Context) ([]corpus.FAQEntry, error) {
	var out []corpus.FAQEntry
	err := r.listPairs(ctx, TableFAQ, "question", "answer", func(a, b string) {
		out = append(out, corpus.FAQEntry{Question: a, Answer: b})
	})
	return out, err
}

// ListLegal returns the legal corpus in stored order.
func (r *CorpusRepository) ListLegal(ctx context.Context) ([]corpus.LegalEntry, error) {
	var out []corpus.LegalEntry
	err := r.listPairs(ctx, TableLegal, "title", "content", func(a, b string) {
		out = append(out, corpus.LegalEntry{Title: a, Content: b})
	})
	return out, err
}

// ListMisc returns the misc corpus in stored order.
func (r *CorpusRepository) ListMisc(ctx context.Context) ([]corpus.MiscEntry, error) {
	var out []corpus.MiscEntry
	err := r.listPairs(ctx, TableMisc, "question", "answer", func(a, b string) {
		out = append(out, corpus.MiscEntry{Question: a, Answer: b})
	})
	return out, err
}

func (r *CorpusRepository) listPairs(ctx context.Context, table, colA, colB string, add func(a, b string)) error {
	query := fmt.Sprintf(`SELECT %s, %s FROM %s ORDER BY position`, colA, colB, table)
	rows, err := r.db.QueryContext(ctx, query)
	if err != nil {
		return fmt.Errorf("failed to query %s: %w", table, err)
	}
	defer rows.Close()

	for rows.Next() {
		var a, b string
		if err := rows.Scan(&a, &b); err != nil {
			return fmt.Errorf("failed to scan %s: %w", table, err)
		}
		add(a, b)
	}
	return rows.Err()
}

// ListDocuments returns stored documents ordered by filename.
func (r *CorpusRepository) ListDocuments(ctx context.Context) ([]corpus.Document, error) {
	query := `SELECT filename, title, body, pages, extracted_at FROM documents ORDER BY filename`
	rows, err := r.db.QueryContext(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("failed to query documents: %w", err)
	}
	defer rows.Close()

	var docs []corpus.Document
	for rows.Next() {
		var doc corpus.Document
		if err := rows.Scan(&doc.Filename, &doc.Title, &doc.Text, &doc.Pages, &doc.ExtractedAt); err != nil {
			return nil, fmt.Errorf("failed to scan document: %w", err)
		}
		docs = append(docs, doc)
	}
	return docs, rows.Err()
}

// LoadDocuments implements corpus.DocumentSource.
func (r *CorpusRepository) LoadDocuments(ctx context.Context) ([]corpus.Document, error) {
	return r.ListDocuments(ctx)
}

// Load reads every corpus. A table that cannot be read is logged and
// treated as empty.
func (r *CorpusRepository) Load(ctx context.Context) (*corpus.Snapshot, error) {
	snap := &corpus.Snapshot{}
	var err error

	if snap.FAQ, err = r.ListFAQ(ctx); err != nil {
		snap.FAQ = nil
		r.absorb(TableFAQ, err)
	}
	if snap.Legal, err = r.ListLegal(ctx); err != nil {
		snap.Legal = nil
		r.absorb(TableLegal, err)
	}
	if snap.Misc, err = r.ListMisc(ctx); err != nil {
		snap.Misc = nil
		r.absorb(TableMisc, err)
	}
	if snap.Documents, err = r.ListDocuments(ctx); err != nil {
		snap.Documents = nil
		r.absorb(TableDocuments, err)
	}

	if ctxErr := ctx.Err(); ctxErr != nil {
		return nil, ctxErr
	}
	return snap.Normalize(), nil
}

func (r *CorpusRepository) absorb(table string, err error) {
	r.logger.Warn().Err(err).Str("table", table).Msg("Corpus table unreadable, using empty corpus")
}
