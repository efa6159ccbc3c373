package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	_ "modernc.org/sqlite"

	"github.com/lexilocal/lexilocal/internal/core/domain"
	"github.com/lexilocal/lexilocal/internal/core/ports"
)

// Store is the document/chunk metadata half of the index pair. It lives in
// a single SQLite file co-located with the vector artifact; the two are
// loaded together and mutated together inside one indexing transaction.
type Store struct {
	db *sql.DB
}

func Open(path string) (*Store, error) {
	db, err := sql.Open("sqlite", "file:"+path+"?_pragma=journal_mode(WAL)&_pragma=busy_timeout(5000)&_pragma=foreign_keys(1)")
	if err != nil {
		return nil, fmt.Errorf("sqlite open: %w", err)
	}
	// modernc sqlite is a single-writer engine; keep one connection to
	// serialize writers below the store API.
	db.SetMaxOpenConns(1)

	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("sqlite ping: %w", err)
	}
	return &Store{db: db}, nil
}

func (s *Store) Close() error {
	return s.db.Close()
}

func (s *Store) EnsureSchema(ctx context.Context) error {
	const query = `
CREATE TABLE IF NOT EXISTS documents (
	id TEXT PRIMARY KEY,
	title TEXT NOT NULL,
	body TEXT NOT NULL,
	citation TEXT NOT NULL DEFAULT '',
	issuer TEXT NOT NULL DEFAULT '',
	issued_at TEXT NOT NULL DEFAULT '',
	status TEXT NOT NULL,
	error_message TEXT NOT NULL DEFAULT '',
	chunk_count INTEGER NOT NULL DEFAULT 0,
	created_at TIMESTAMP NOT NULL,
	updated_at TIMESTAMP NOT NULL
);

CREATE INDEX IF NOT EXISTS idx_documents_title ON documents(title COLLATE NOCASE);
CREATE INDEX IF NOT EXISTS idx_documents_status ON documents(status);

CREATE TABLE IF NOT EXISTS chunks (
	id TEXT PRIMARY KEY,
	document_id TEXT NOT NULL REFERENCES documents(id),
	chunk_index INTEGER NOT NULL,
	start_offset INTEGER NOT NULL,
	end_offset INTEGER NOT NULL,
	text TEXT NOT NULL
);

CREATE INDEX IF NOT EXISTS idx_chunks_document ON chunks(document_id, chunk_index);

CREATE VIRTUAL TABLE IF NOT EXISTS chunks_fts USING fts5(
	document_id UNINDEXED,
	chunk_id UNINDEXED,
	text
);
`
	if _, err := s.db.ExecContext(ctx, query); err != nil {
		return fmt.Errorf("execute schema ddl: %w", err)
	}
	return nil
}

func (s *Store) Put(ctx context.Context, doc *domain.Document) error {
	_, err := s.db.ExecContext(ctx, `
INSERT INTO documents (id, title, body, citation, issuer, issued_at, status, error_message, chunk_count, created_at, updated_at)
VALUES (?,?,?,?,?,?,?,?,?,?,?)
ON CONFLICT(id) DO UPDATE SET
	title = excluded.title,
	body = excluded.body,
	citation = excluded.citation,
	issuer = excluded.issuer,
	issued_at = excluded.issued_at,
	status = excluded.status,
	error_message = excluded.error_message,
	updated_at = excluded.updated_at
`,
		doc.ID, doc.Title, doc.Text, doc.Citation, doc.Issuer, doc.IssuedAt,
		string(doc.Status), doc.Error, doc.ChunkCount, doc.CreatedAt, doc.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("insert document: %w", err)
	}
	return nil
}

func (s *Store) GetByID(ctx context.Context, id string) (*domain.Document, error) {
	return s.getDocument(ctx, `WHERE id = ?`, id)
}

// GetByTitle returns the first case-insensitive exact title match by
// ingestion order.
func (s *Store) GetByTitle(ctx context.Context, title string) (*domain.Document, error) {
	return s.getDocument(ctx, `WHERE title = ? COLLATE NOCASE ORDER BY created_at, id LIMIT 1`, title)
}

func (s *Store) getDocument(ctx context.Context, where string, arg any) (*domain.Document, error) {
	row := s.db.QueryRowContext(ctx, `
SELECT id, title, body, citation, issuer, issued_at, status, error_message, chunk_count, created_at, updated_at
FROM documents `+where, arg)

	var doc domain.Document
	var status string
	err := row.Scan(
		&doc.ID, &doc.Title, &doc.Text, &doc.Citation, &doc.Issuer, &doc.IssuedAt,
		&status, &doc.Error, &doc.ChunkCount, &doc.CreatedAt, &doc.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, domain.WrapError(domain.ErrNotFound, "get document", fmt.Errorf("%v", arg))
		}
		return nil, fmt.Errorf("scan document: %w", err)
	}
	doc.Status = domain.DocumentStatus(status)
	return &doc, nil
}

func (s *Store) UpdateStatus(ctx context.Context, id string, status domain.DocumentStatus, errMessage string, chunkCount int) error {
	res, err := s.db.ExecContext(ctx, `
UPDATE documents
SET status = ?, error_message = ?, chunk_count = ?, updated_at = ?
WHERE id = ?
`, string(status), errMessage, chunkCount, time.Now().UTC(), id)
	if err != nil {
		return fmt.Errorf("update document status: %w", err)
	}
	if affected, err := res.RowsAffected(); err == nil && affected == 0 {
		return domain.WrapError(domain.ErrNotFound, "update document status", fmt.Errorf("%s", id))
	}
	return nil
}

// GetChunk resolves a chunk id to its text plus parent document metadata.
func (s *Store) GetChunk(ctx context.Context, chunkID string) (*domain.RetrievedChunk, error) {
	row := s.db.QueryRowContext(ctx, `
SELECT c.id, c.document_id, d.title, d.citation, c.chunk_index, c.text
FROM chunks c
JOIN documents d ON d.id = c.document_id
WHERE c.id = ?
`, chunkID)

	var chunk domain.RetrievedChunk
	err := row.Scan(&chunk.ChunkID, &chunk.DocumentID, &chunk.Title, &chunk.Citation, &chunk.ChunkIndex, &chunk.Text)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, domain.WrapError(domain.ErrNotFound, "get chunk", fmt.Errorf("%s", chunkID))
		}
		return nil, fmt.Errorf("scan chunk: %w", err)
	}
	return &chunk, nil
}

// ReplaceChunks opens the chunk half of an indexing transaction: prior
// chunk rows for the document are removed and new ones staged. Nothing is
// visible until Commit, which the use case pairs with the vector batch
// commit.
func (s *Store) ReplaceChunks(ctx context.Context, documentID string) (ports.ChunkTx, error) {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, domain.WrapError(domain.ErrPersistence, "begin chunk tx", err)
	}

	if _, err := tx.ExecContext(ctx, `DELETE FROM chunks WHERE document_id = ?`, documentID); err != nil {
		_ = tx.Rollback()
		return nil, domain.WrapError(domain.ErrPersistence, "clear chunks", err)
	}
	if _, err := tx.ExecContext(ctx, `DELETE FROM chunks_fts WHERE document_id = ?`, documentID); err != nil {
		_ = tx.Rollback()
		return nil, domain.WrapError(domain.ErrPersistence, "clear chunk fts", err)
	}

	return &chunkTx{ctx: ctx, tx: tx}, nil
}

type chunkTx struct {
	ctx context.Context
	tx  *sql.Tx
}

func (t *chunkTx) Put(chunk domain.Chunk) error {
	if _, err := t.tx.ExecContext(t.ctx, `
INSERT INTO chunks (id, document_id, chunk_index, start_offset, end_offset, text)
VALUES (?,?,?,?,?,?)
`, chunk.ID, chunk.DocumentID, chunk.Index, chunk.Start, chunk.End, chunk.Text); err != nil {
		return domain.WrapError(domain.ErrPersistence, "stage chunk", err)
	}
	if _, err := t.tx.ExecContext(t.ctx, `
INSERT INTO chunks_fts (document_id, chunk_id, text) VALUES (?,?,?)
`, chunk.DocumentID, chunk.ID, chunk.Text); err != nil {
		return domain.WrapError(domain.ErrPersistence, "stage chunk fts", err)
	}
	return nil
}

func (t *chunkTx) Commit() error {
	if err := t.tx.Commit(); err != nil {
		return domain.WrapError(domain.ErrPersistence, "commit chunk tx", err)
	}
	return nil
}

func (t *chunkTx) Rollback() error {
	if err := t.tx.Rollback(); err != nil && !errors.Is(err, sql.ErrTxDone) {
		return domain.WrapError(domain.ErrPersistence, "rollback chunk tx", err)
	}
	return nil
}

// HasChunks reports whether any chunk rows exist. Bootstrap uses it to
// detect a metadata store whose vector artifact went missing.
func (s *Store) HasChunks(ctx context.Context) (bool, error) {
	var one int
	err := s.db.QueryRowContext(ctx, `SELECT 1 FROM chunks LIMIT 1`).Scan(&one)
	if errors.Is(err, sql.ErrNoRows) {
		return false, nil
	}
	if err != nil {
		return false, domain.WrapError(domain.ErrPersistence, "has chunks", err)
	}
	return true, nil
}

// SearchLexical returns BM25-ranked chunk candidates for hybrid retrieval.
// The score is negated bm25 so that larger means better, matching the
// descending-order contract of semantic search.
func (s *Store) SearchLexical(ctx context.Context, query string, limit int) ([]domain.RetrievedChunk, error) {
	match := ftsMatchQuery(query)
	if match == "" || limit <= 0 {
		return nil, nil
	}

	rows, err := s.db.QueryContext(ctx, `
SELECT c.id, c.document_id, d.title, d.citation, c.chunk_index, c.text, -bm25(chunks_fts) AS score
FROM chunks_fts
JOIN chunks c ON c.id = chunks_fts.chunk_id
JOIN documents d ON d.id = c.document_id
WHERE chunks_fts MATCH ?
ORDER BY bm25(chunks_fts)
LIMIT ?
`, match, limit)
	if err != nil {
		return nil, fmt.Errorf("fts query: %w", err)
	}
	defer rows.Close()

	var out []domain.RetrievedChunk
	for rows.Next() {
		var chunk domain.RetrievedChunk
		if err := rows.Scan(&chunk.ChunkID, &chunk.DocumentID, &chunk.Title, &chunk.Citation,
			&chunk.ChunkIndex, &chunk.Text, &chunk.Score); err != nil {
			return nil, fmt.Errorf("scan fts hit: %w", err)
		}
		out = append(out, chunk)
	}
	return out, rows.Err()
}

// ftsMatchQuery rewrites free text into a safe FTS5 OR-query of quoted
// tokens, so user punctuation cannot break the match syntax.
func ftsMatchQuery(query string) string {
	fields := strings.FieldsFunc(query, func(r rune) bool {
		return !(r >= 'a' && r <= 'z' || r >= 'A' && r <= 'Z' || r >= '0' && r <= '9')
	})
	if len(fields) == 0 {
		return ""
	}
	quoted := make([]string, 0, len(fields))
	for _, f := range fields {
		quoted = append(quoted, `"`+f+`"`)
	}
	return strings.Join(quoted, " OR ")
}
