// internal/profile/sql.go
//
// SQLStore reads and writes profiles directly in Postgres.  It is used when
// database.dsn is configured (self-hosted deployments, maintenance jobs) and
// bypasses row-level security, so it must only run with a trusted DSN.

package profile

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"

	"github.com/jmoiron/sqlx"
)

// SQLStore implements Store over sqlx.
type SQLStore struct{ db *sqlx.DB }

// NewSQLStore wraps an open pool.
func NewSQLStore(db *sqlx.DB) *SQLStore { return &SQLStore{db: db} }

var _ Store = (*SQLStore)(nil)

const selectRecord = `SELECT id, full_name, city, role, phone, avatar_url, departments, other_emails, created_at, updated_at FROM profiles`

const returningRecord = ` RETURNING id, full_name, city, role, phone, avatar_url, departments, other_emails, created_at, updated_at`

func (s *SQLStore) Get(ctx context.Context, id string) (*Record, error) {
	var r Record
	err := s.db.GetContext(ctx, &r, selectRecord+` WHERE id = $1`, id)
	observe("get", "sql", ignoreNoRows(err))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("profile get %s: %w", id, err)
	}
	return &r, nil
}

func (s *SQLStore) Update(ctx context.Context, id string, c Changes) (*Record, error) {
	cols := c.columns()
	if len(cols) == 0 {
		return s.Get(ctx, id)
	}
	keys := sortedColumns(cols)
	sets := make([]string, 0, len(keys)+1)
	args := make([]any, 0, len(keys)+1)
	for i, k := range keys {
		sets = append(sets, fmt.Sprintf("%s = $%d", k, i+1))
		args = append(args, cols[k])
	}
	sets = append(sets, "updated_at = now()")
	args = append(args, id)

	q := `UPDATE profiles SET ` + strings.Join(sets, ", ") +
		fmt.Sprintf(` WHERE id = $%d`, len(args)) + returningRecord

	var r Record
	err := s.db.GetContext(ctx, &r, q, args...)
	observe("update", "sql", ignoreNoRows(err))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("profile update %s: %w", id, err)
	}
	return &r, nil
}

func (s *SQLStore) Upsert(ctx context.Context, id string, c Changes) error {
	q, args := insertSQL(id, c.columns(), true)
	_, err := s.db.ExecContext(ctx, q, args...)
	observe("upsert", "sql", err)
	if err != nil {
		return fmt.Errorf("profile upsert %s: %w", id, err)
	}
	return nil
}

func (s *SQLStore) Insert(ctx context.Context, id string, c Changes) (*Record, error) {
	q, args := insertSQL(id, c.columns(), false)
	var r Record
	err := s.db.GetContext(ctx, &r, q+returningRecord, args...)
	observe("insert", "sql", err)
	if err != nil {
		return nil, fmt.Errorf("profile insert %s: %w", id, err)
	}
	return &r, nil
}

func (s *SQLStore) List(ctx context.Context) ([]Summary, error) {
	var rows []Summary
	err := s.db.SelectContext(ctx, &rows, `SELECT id, full_name, avatar_url FROM profiles ORDER BY full_name`)
	observe("list", "sql", err)
	if err != nil {
		return nil, fmt.Errorf("profile list: %w", err)
	}
	return rows, nil
}

// insertSQL builds INSERT (and optionally ON CONFLICT merge) for id + cols.
func insertSQL(id string, cols map[string]any, upsert bool) (string, []any) {
	keys := sortedColumns(cols)
	names := append([]string{"id"}, keys...)
	ph := make([]string, len(names))
	args := make([]any, 0, len(names))
	args = append(args, id)
	for i := range names {
		ph[i] = fmt.Sprintf("$%d", i+1)
	}
	for _, k := range keys {
		args = append(args, cols[k])
	}

	q := `INSERT INTO profiles (` + strings.Join(names, ", ") + `) VALUES (` + strings.Join(ph, ", ") + `)`
	if upsert {
		sets := make([]string, 0, len(keys)+1)
		for _, k := range keys {
			sets = append(sets, k+" = EXCLUDED."+k)
		}
		sets = append(sets, "updated_at = now()")
		q += ` ON CONFLICT (id) DO UPDATE SET ` + strings.Join(sets, ", ")
	}
	return q, args
}

func ignoreNoRows(err error) error {
	if errors.Is(err, sql.ErrNoRows) {
		return nil
	}
	return err
}
