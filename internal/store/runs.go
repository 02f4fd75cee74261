package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"

	"github.com/roach88/tripir/internal/value"
)

// CheckRun is the stored record of one constraint check.
type CheckRun struct {
	ID         string          `json:"id"`
	DocumentID string          `json:"document_id"`
	Satisfied  bool            `json:"satisfied"`
	Candidate  json.RawMessage `json:"candidate"`
	Report     json.RawMessage `json:"report"`
	Seq        int64           `json:"seq"`
}

// WriteCheckRun inserts a check run. The referenced document must exist
// (foreign key). Candidate and Report are re-encoded as canonical JSON.
// Uses ON CONFLICT(id) DO NOTHING for idempotency.
func (s *Store) WriteCheckRun(ctx context.Context, run CheckRun) error {
	candidate, err := canonicalize(run.Candidate)
	if err != nil {
		return fmt.Errorf("write check run: candidate: %w", err)
	}
	report, err := canonicalize(run.Report)
	if err != nil {
		return fmt.Errorf("write check run: report: %w", err)
	}

	_, err = s.db.ExecContext(ctx, `
		INSERT INTO check_runs (id, document_id, satisfied, candidate, report, seq)
		VALUES (?, ?, ?, ?, ?, ?)
		ON CONFLICT(id) DO NOTHING
	`, run.ID, run.DocumentID, run.Satisfied, candidate, report, run.Seq)
	if err != nil {
		return fmt.Errorf("write check run: %w", err)
	}
	return nil
}

// ReadCheckRun returns the run stored under id.
// Returns an error wrapping sql.ErrNoRows if not found.
func (s *Store) ReadCheckRun(ctx context.Context, id string) (CheckRun, error) {
	row := s.db.QueryRowContext(ctx, `
		SELECT id, document_id, satisfied, candidate, report, seq
		FROM check_runs WHERE id = ?
	`, id)
	run, err := scanCheckRun(row)
	if err != nil {
		return CheckRun{}, fmt.Errorf("read check run %s: %w", id, err)
	}
	return run, nil
}

// ListCheckRuns returns the runs for documentID in seq order, or every run
// when documentID is empty. Returns an empty slice (not nil) if none exist.
func (s *Store) ListCheckRuns(ctx context.Context, documentID string) ([]CheckRun, error) {
	query := `
		SELECT id, document_id, satisfied, candidate, report, seq
		FROM check_runs`
	var args []any
	if documentID != "" {
		query += ` WHERE document_id = ?`
		args = append(args, documentID)
	}
	query += ` ORDER BY seq ASC, id COLLATE BINARY ASC`

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("list check runs: %w", err)
	}
	defer rows.Close()

	runs := []CheckRun{}
	for rows.Next() {
		run, err := scanCheckRun(rows)
		if err != nil {
			return nil, err
		}
		runs = append(runs, run)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate check runs: %w", err)
	}
	return runs, nil
}

// LastSeq returns the highest check run seq, or 0 for an empty store.
// The engine resumes its logical clock from here.
func (s *Store) LastSeq(ctx context.Context) (int64, error) {
	var seq sql.NullInt64
	if err := s.db.QueryRowContext(ctx, `SELECT MAX(seq) FROM check_runs`).Scan(&seq); err != nil {
		return 0, fmt.Errorf("last seq: %w", err)
	}
	return seq.Int64, nil
}

// scanner is satisfied by *sql.Row and *sql.Rows.
type scanner interface {
	Scan(dest ...any) error
}

func scanCheckRun(sc scanner) (CheckRun, error) {
	var run CheckRun
	var candidate, report string
	if err := sc.Scan(&run.ID, &run.DocumentID, &run.Satisfied, &candidate, &report, &run.Seq); err != nil {
		return CheckRun{}, err
	}
	run.Candidate = json.RawMessage(candidate)
	run.Report = json.RawMessage(report)
	return run, nil
}

// canonicalize re-encodes JSON as RFC 8785 canonical text for storage.
// Empty input is stored as "null".
func canonicalize(data []byte) (string, error) {
	if len(data) == 0 {
		return "null", nil
	}
	v, err := value.Unmarshal(data)
	if err != nil {
		return "", err
	}
	out, err := value.MarshalCanonical(v)
	if err != nil {
		return "", err
	}
	return string(out), nil
}
