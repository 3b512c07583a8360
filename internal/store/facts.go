package store

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/roach88/htn/internal/compiler"
	"github.com/roach88/htn/internal/factdb"
)

// FactRow is one stored fact instance with its values in text form.
type FactRow struct {
	Fact string
	Args []string
}

// WriteFacts appends rows to the facts of domain in one transaction.
// Rows are not checked against a compiled domain; LoadFacts does that.
func (s *Store) WriteFacts(ctx context.Context, domain string, rows []FactRow) error {
	return s.withTx(ctx, func(tx *sql.Tx) error {
		stmt, err := tx.PrepareContext(ctx, `INSERT INTO facts (domain, fact, args) VALUES (?, ?, ?)`)
		if err != nil {
			return fmt.Errorf("write facts: %w", err)
		}
		defer stmt.Close()

		for _, row := range rows {
			args, err := marshalStrings(row.Args)
			if err != nil {
				return fmt.Errorf("write facts: %s: %w", row.Fact, err)
			}
			if _, err := stmt.ExecContext(ctx, domain, row.Fact, args); err != nil {
				return fmt.Errorf("write facts: %w", err)
			}
		}
		return nil
	})
}

// ImportFacts appends every instance held by m under m's domain name and
// returns the number of rows written. Fact types are written in
// declaration order, instances in iteration order.
func (s *Store) ImportFacts(ctx context.Context, m *factdb.Memory) (int, error) {
	dom := m.Domain()
	var rows []FactRow
	for ft, f := range dom.Facts {
		for _, values := range m.Rows(ft) {
			args := make([]string, len(values))
			for i, v := range values {
				args[i] = v.String()
			}
			rows = append(rows, FactRow{Fact: f.Name, Args: args})
		}
	}
	if err := s.WriteFacts(ctx, dom.Name, rows); err != nil {
		return 0, err
	}
	return len(rows), nil
}

// ReadFacts returns the stored rows of domain in insertion order.
// Returns an empty slice (not nil) if there are none.
func (s *Store) ReadFacts(ctx context.Context, domain string) ([]FactRow, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT fact, args FROM facts
		WHERE domain = ?
		ORDER BY id ASC
	`, domain)
	if err != nil {
		return nil, fmt.Errorf("query facts: %w", err)
	}
	defer rows.Close()

	out := []FactRow{}
	for rows.Next() {
		var row FactRow
		var args string
		if err := rows.Scan(&row.Fact, &args); err != nil {
			return nil, fmt.Errorf("scan fact: %w", err)
		}
		if row.Args, err = unmarshalStrings(args); err != nil {
			return nil, fmt.Errorf("fact %s: %w", row.Fact, err)
		}
		out = append(out, row)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate facts: %w", err)
	}
	return out, nil
}

// LoadFacts builds an in-memory fact database for dom from the rows stored
// under dom's name.
func (s *Store) LoadFacts(ctx context.Context, dom *compiler.Domain) (*factdb.Memory, error) {
	rows, err := s.ReadFacts(ctx, dom.Name)
	if err != nil {
		return nil, err
	}

	m := factdb.NewMemory(dom)
	for i, row := range rows {
		ft, ok := dom.FactIndex(row.Fact)
		if !ok {
			return nil, fmt.Errorf("load facts: row %d: unknown fact %q", i+1, row.Fact)
		}
		values, err := parseValues(dom.Facts[ft].Params, row.Args)
		if err != nil {
			return nil, fmt.Errorf("load facts: row %d: %s: %w", i+1, row.Fact, err)
		}
		if err := m.AddRow(ft, values...); err != nil {
			return nil, fmt.Errorf("load facts: row %d: %w", i+1, err)
		}
	}
	return m, nil
}

// ClearFacts deletes the stored facts of domain and returns how many rows
// were removed.
func (s *Store) ClearFacts(ctx context.Context, domain string) (int64, error) {
	res, err := s.db.ExecContext(ctx, `DELETE FROM facts WHERE domain = ?`, domain)
	if err != nil {
		return 0, fmt.Errorf("clear facts: %w", err)
	}
	return res.RowsAffected()
}

// CountFacts returns the number of stored fact rows of domain.
func (s *Store) CountFacts(ctx context.Context, domain string) (int, error) {
	var n int
	err := s.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM facts WHERE domain = ?`, domain).Scan(&n)
	if err != nil {
		return 0, fmt.Errorf("count facts: %w", err)
	}
	return n, nil
}
