package store

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/roach88/tripir/internal/ir"
)

// DocumentInfo summarizes a stored document.
type DocumentInfo struct {
	ID         string `json:"id"`
	StartDate  string `json:"start_date"`
	StageCount int    `json:"stage_count"`
	Seq        int64  `json:"seq"`
}

// SaveDocument stores doc under its content-addressed ID and returns the ID.
// Uses ON CONFLICT(id) DO NOTHING: saving identical content again is a no-op
// and keeps the original created_seq. inserted reports whether a row was
// added.
func (s *Store) SaveDocument(ctx context.Context, doc *ir.IR) (id string, inserted bool, err error) {
	id, err = doc.DocumentID()
	if err != nil {
		return "", false, fmt.Errorf("save document: %w", err)
	}
	body, err := doc.MarshalCanonical()
	if err != nil {
		return "", false, fmt.Errorf("save document: %w", err)
	}

	res, err := s.db.ExecContext(ctx, `
		INSERT INTO documents (id, body, start_date, stage_count, created_seq)
		VALUES (?, ?, ?, ?, (SELECT COALESCE(MAX(created_seq), 0) + 1 FROM documents))
		ON CONFLICT(id) DO NOTHING
	`, id, string(body), doc.StartDate, len(doc.Stages))
	if err != nil {
		return "", false, fmt.Errorf("save document: %w", err)
	}

	n, err := res.RowsAffected()
	if err != nil {
		return "", false, fmt.Errorf("save document: %w", err)
	}
	return id, n > 0, nil
}

// LoadDocument returns the document stored under id.
// Returns an error wrapping sql.ErrNoRows if not found.
func (s *Store) LoadDocument(ctx context.Context, id string) (*ir.IR, error) {
	var body string
	err := s.db.QueryRowContext(ctx, `SELECT body FROM documents WHERE id = ?`, id).Scan(&body)
	if err != nil {
		return nil, fmt.Errorf("load document %s: %w", id, err)
	}

	doc, err := ir.Parse([]byte(body))
	if err != nil {
		return nil, fmt.Errorf("load document %s: %w", id, err)
	}
	return doc, nil
}

// ListDocuments returns every stored document in save order.
// Returns an empty slice (not nil) when the store is empty.
func (s *Store) ListDocuments(ctx context.Context) ([]DocumentInfo, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, start_date, stage_count, created_seq
		FROM documents
		ORDER BY created_seq ASC, id COLLATE BINARY ASC
	`)
	if err != nil {
		return nil, fmt.Errorf("list documents: %w", err)
	}
	defer rows.Close()

	docs := []DocumentInfo{}
	for rows.Next() {
		var d DocumentInfo
		if err := rows.Scan(&d.ID, &d.StartDate, &d.StageCount, &d.Seq); err != nil {
			return nil, fmt.Errorf("scan document: %w", err)
		}
		docs = append(docs, d)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate documents: %w", err)
	}
	return docs, nil
}

// HasDocument reports whether id is stored.
func (s *Store) HasDocument(ctx context.Context, id string) (bool, error) {
	var n int
	err := s.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM documents WHERE id = ?`, id).Scan(&n)
	if err != nil && err != sql.ErrNoRows {
		return false, fmt.Errorf("has document: %w", err)
	}
	return n > 0, nil
}
