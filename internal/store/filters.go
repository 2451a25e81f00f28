package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/roach88/jiraq/internal/jql"
)

// ErrFilterNotFound is returned when no filter matches the requested name
// or ID.
var ErrFilterNotFound = errors.New("filter not found")

// Filter is a saved, translated query.
type Filter struct {
	ID          string    `json:"id"`
	Name        string    `json:"name"`
	Description string    `json:"description,omitempty"`
	Query       string    `json:"query"`
	OrderBy     string    `json:"order_by,omitempty"`
	Limit       int       `json:"limit,omitempty"`
	Source      string    `json:"source,omitempty"` // query document the filter was built from
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`
}

// Translation returns the filter as a translated query envelope.
func (f *Filter) Translation() jql.Translation {
	return jql.Translation{Query: f.Query, OrderBy: f.OrderBy, Limit: f.Limit}
}

// SaveFilter stores t under name. Saving an existing name replaces its
// query and description but keeps its ID and creation time.
func (s *Store) SaveFilter(ctx context.Context, name, description string, t jql.Translation, source string) (*Filter, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return nil, fmt.Errorf("save filter: name is required")
	}
	if t.Limit < 0 {
		return nil, fmt.Errorf("save filter: negative limit %d", t.Limit)
	}

	now := s.now().UTC()
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO filters
		(id, name, description, query, order_by, result_limit, source, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(name) DO UPDATE SET
			description = excluded.description,
			query = excluded.query,
			order_by = excluded.order_by,
			result_limit = excluded.result_limit,
			source = excluded.source,
			updated_at = excluded.updated_at
	`,
		s.newID(),
		name,
		description,
		t.Query,
		t.OrderBy,
		t.Limit,
		source,
		formatTime(now),
		formatTime(now),
	)
	if err != nil {
		return nil, fmt.Errorf("save filter: %w", err)
	}

	return s.GetFilter(ctx, name)
}

const filterColumns = `id, name, description, query, order_by, result_limit, source, created_at, updated_at`

// GetFilter returns the filter with the given name or ID.
func (s *Store) GetFilter(ctx context.Context, nameOrID string) (*Filter, error) {
	row := s.db.QueryRowContext(ctx, `
		SELECT `+filterColumns+`
		FROM filters
		WHERE name = ? OR id = ?
		ORDER BY name ASC COLLATE BINARY
		LIMIT 1
	`, nameOrID, nameOrID)

	f, err := scanFilter(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("%w: %s", ErrFilterNotFound, nameOrID)
	}
	if err != nil {
		return nil, fmt.Errorf("get filter: %w", err)
	}
	return f, nil
}

// ListFilters returns every saved filter ordered by name.
func (s *Store) ListFilters(ctx context.Context) ([]Filter, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT `+filterColumns+`
		FROM filters
		ORDER BY name ASC COLLATE BINARY
	`)
	if err != nil {
		return nil, fmt.Errorf("list filters: %w", err)
	}
	defer rows.Close()

	var out []Filter
	for rows.Next() {
		f, err := scanFilter(rows)
		if err != nil {
			return nil, fmt.Errorf("list filters: %w", err)
		}
		out = append(out, *f)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("list filters: %w", err)
	}
	return out, nil
}

// DeleteFilter removes the filter with the given name or ID.
func (s *Store) DeleteFilter(ctx context.Context, nameOrID string) error {
	res, err := s.db.ExecContext(ctx, `DELETE FROM filters WHERE name = ? OR id = ?`, nameOrID, nameOrID)
	if err != nil {
		return fmt.Errorf("delete filter: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("delete filter: %w", err)
	}
	if n == 0 {
		return fmt.Errorf("%w: %s", ErrFilterNotFound, nameOrID)
	}
	return nil
}

type scanner interface {
	Scan(dest ...any) error
}

func scanFilter(row scanner) (*Filter, error) {
	var f Filter
	var created, updated string
	if err := row.Scan(
		&f.ID,
		&f.Name,
		&f.Description,
		&f.Query,
		&f.OrderBy,
		&f.Limit,
		&f.Source,
		&created,
		&updated,
	); err != nil {
		return nil, err
	}

	var err error
	if f.CreatedAt, err = parseTime(created); err != nil {
		return nil, err
	}
	if f.UpdatedAt, err = parseTime(updated); err != nil {
		return nil, err
	}
	return &f, nil
}

func formatTime(t time.Time) string {
	return t.Format(time.RFC3339Nano)
}

func parseTime(s string) (time.Time, error) {
	t, err := time.Parse(time.RFC3339Nano, s)
	if err != nil {
		return time.Time{}, fmt.Errorf("parse timestamp %q: %w", s, err)
	}
	return t, nil
}
