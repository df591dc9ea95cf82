// internal/profile/store.go
//
// Store contract plus the uniform update helper pages call.

package profile

import (
	"context"
	"sort"
	"strings"

	"github.com/toescalado/escalado/internal/supabase"
)

// Store reads and writes profile rows.  Implementations: RESTStore (default)
// and SQLStore (direct Postgres).
type Store interface {
	// Get returns ErrNotFound when no row exists.
	Get(ctx context.Context, id string) (*Record, error)
	// Update patches one row keyed by id and returns it.
	Update(ctx context.Context, id string, c Changes) (*Record, error)
	// Upsert inserts or merges one row keyed by id.
	Upsert(ctx context.Context, id string, c Changes) error
	// Insert creates one row and returns it.
	Insert(ctx context.Context, id string, c Changes) (*Record, error)
	// List returns every row ordered by full name.
	List(ctx context.Context) ([]Summary, error)
}

// Changes lists column edits.  A nil field is left untouched.  A blank
// string or empty list is written as NULL.
type Changes struct {
	Name        *string
	City        *string
	Role        *string
	Phone       *string
	AvatarURL   *string
	Departments *StringList
	OtherEmails *StringList
}

// Empty reports whether no column would be written.
func (c Changes) Empty() bool { return len(c.columns()) == 0 }

// columns maps the set fields to column values.
func (c Changes) columns() map[string]any {
	out := map[string]any{}
	str := func(col string, p *string) {
		if p == nil {
			return
		}
		if v := strings.TrimSpace(*p); v != "" {
			out[col] = v
		} else {
			out[col] = nil
		}
	}
	list := func(col string, p *StringList) {
		if p == nil {
			return
		}
		if len(*p) > 0 {
			out[col] = *p
		} else {
			out[col] = nil
		}
	}
	str("full_name", c.Name)
	str("city", c.City)
	str("role", c.Role)
	str("phone", c.Phone)
	str("avatar_url", c.AvatarURL)
	list("departments", c.Departments)
	list("other_emails", c.OtherEmails)
	return out
}

// sortedColumns returns column names in a stable order for SQL generation.
func sortedColumns(m map[string]any) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

// UpdateResult is the uniform helper outcome.
type UpdateResult struct {
	Success bool
	Data    *Record
	Error   string
}

// UpdateProfile issues one update keyed by userID and reports the outcome
// in the uniform shape.
func UpdateProfile(ctx context.Context, s Store, userID string, c Changes) UpdateResult {
	rec, err := s.Update(ctx, userID, c)
	if err != nil {
		msg := supabase.Message(err)
		if msg == "" {
			msg = err.Error()
		}
		return UpdateResult{Success: false, Error: msg}
	}
	return UpdateResult{Success: true, Data: rec}
}
