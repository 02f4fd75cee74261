package store

import (
	"context"
	"errors"
	"fmt"

	"github.com/roach88/tripir/internal/expr"
	"github.com/roach88/tripir/internal/querysql"
	"github.com/roach88/tripir/internal/value"
)

// DomainRecord is the hash domain for records stored without an "id" field.
const DomainRecord = "tripir/record/v1"

// RecordID returns the ID a record is stored under: its "id" field when it
// is non-empty text, otherwise a content hash of category, city and data.
func RecordID(category, city string, r value.Record) (string, error) {
	if id, ok := r["id"].(value.Text); ok && id != "" {
		return string(id), nil
	}
	return value.HashCanonical(DomainRecord, value.Record{
		"category": value.Text(category),
		"city":     value.Text(city),
		"data":     r,
	})
}

// PutRecords upserts records under (category, city) in one transaction and
// returns how many were written. A record whose ID already exists is
// replaced.
func (s *Store) PutRecords(ctx context.Context, category, city string, records []value.Record) (int, error) {
	if category == "" || city == "" {
		return 0, fmt.Errorf("put records: category and city are required")
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return 0, fmt.Errorf("put records: begin: %w", err)
	}
	defer tx.Rollback()

	stmt, err := tx.PrepareContext(ctx, `
		INSERT INTO records (id, category, city, data)
		VALUES (?, ?, ?, ?)
		ON CONFLICT(id) DO UPDATE SET
			category = excluded.category,
			city = excluded.city,
			data = excluded.data
	`)
	if err != nil {
		return 0, fmt.Errorf("put records: prepare: %w", err)
	}
	defer stmt.Close()

	for i, r := range records {
		id, err := RecordID(category, city, r)
		if err != nil {
			return 0, fmt.Errorf("put records: record %d: %w", i, err)
		}
		data, err := value.MarshalCanonical(r)
		if err != nil {
			return 0, fmt.Errorf("put records: record %d: %w", i, err)
		}
		if _, err := stmt.ExecContext(ctx, id, category, city, string(data)); err != nil {
			return 0, fmt.Errorf("put records: record %d: %w", i, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return 0, fmt.Errorf("put records: commit: %w", err)
	}
	return len(records), nil
}

// QueryRecords returns the records under (category, city) that satisfy
// filter, ordered by ID. A nil filter returns them all.
//
// The filter is pushed down to SQL when querysql can compile it, then every
// row is re-checked with expr.EvalBool so results match the Go evaluator
// exactly. Filters outside the SQL subset are evaluated in Go only.
// Returns an empty slice (not nil) when nothing matches.
func (s *Store) QueryRecords(ctx context.Context, category, city string, filter expr.Expr) ([]value.Record, error) {
	q := querysql.Select{
		From:    "records",
		Columns: []string{"data"},
		Equals:  map[string]any{"category": category, "city": city},
		Filter:  filter,
	}

	query, params, err := s.compiler.CompileSelect(q)
	if errors.Is(err, querysql.ErrUnsupported) {
		q.Filter = nil
		query, params, err = s.compiler.CompileSelect(q)
	}
	if err != nil {
		return nil, fmt.Errorf("query records: %w", err)
	}

	rows, err := s.db.QueryContext(ctx, query, params...)
	if err != nil {
		return nil, fmt.Errorf("query records: %w", err)
	}
	defer rows.Close()

	out := []value.Record{}
	for rows.Next() {
		var data string
		if err := rows.Scan(&data); err != nil {
			return nil, fmt.Errorf("scan record: %w", err)
		}
		var r value.Record
		if err := r.UnmarshalJSON([]byte(data)); err != nil {
			return nil, fmt.Errorf("decode record: %w", err)
		}

		if expr.Deref(filter) != nil {
			keep, err := expr.EvalBool(filter, expr.ContextFromRecord(r))
			if err != nil {
				return nil, fmt.Errorf("query records: %w", err)
			}
			if !keep {
				continue
			}
		}
		out = append(out, r)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate records: %w", err)
	}
	return out, nil
}

// DeleteRecords removes every record under (category, city) and returns
// how many were removed.
func (s *Store) DeleteRecords(ctx context.Context, category, city string) (int, error) {
	res, err := s.db.ExecContext(ctx,
		`DELETE FROM records WHERE category = ? AND city = ?`,
		category, city,
	)
	if err != nil {
		return 0, fmt.Errorf("delete records: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("delete records: %w", err)
	}
	return int(n), nil
}

// CountRecords returns the number of records under (category, city).
func (s *Store) CountRecords(ctx context.Context, category, city string) (int, error) {
	var n int
	err := s.db.QueryRowContext(ctx,
		`SELECT COUNT(*) FROM records WHERE category = ? AND city = ?`,
		category, city,
	).Scan(&n)
	if err != nil {
		return 0, fmt.Errorf("count records: %w", err)
	}
	return n, nil
}
