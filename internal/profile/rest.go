// internal/profile/rest.go
//
// RESTStore talks to the profiles resource over the backend's REST
// endpoint.  Row-level security applies: the caller's access token must be
// attached to ctx with supabase.WithAccessToken, otherwise the anon key is
// used and most policies will hide the rows.

package profile

import (
	"context"

	"github.com/toescalado/escalado/internal/metrics"
	"github.com/toescalado/escalado/internal/supabase"
)

// Table is the resource name.
const Table = "profiles"

const (
	recordColumns  = "id,full_name,city,role,phone,avatar_url,departments,other_emails,created_at,updated_at"
	summaryColumns = "id,full_name,avatar_url"
)

// REST is the subset of *supabase.Client the store needs.
type REST interface {
	Select(ctx context.Context, table string, q supabase.Query, out any) error
	Update(ctx context.Context, table string, q supabase.Query, changes any, out any) error
	Insert(ctx context.Context, table string, rows any, out any) error
	Upsert(ctx context.Context, table string, rows any, out any) error
}

// RESTStore implements Store over REST.
type RESTStore struct{ api REST }

// NewRESTStore returns a store bound to api.
func NewRESTStore(api REST) *RESTStore { return &RESTStore{api: api} }

var _ Store = (*RESTStore)(nil)

func (s *RESTStore) Get(ctx context.Context, id string) (*Record, error) {
	var rows []Record
	err := s.api.Select(ctx, Table, supabase.Query{
		Select:  recordColumns,
		Filters: []supabase.Filter{supabase.Eq("id", id)},
		Limit:   1,
	}, &rows)
	observe("get", "rest", err)
	if err != nil {
		return nil, err
	}
	if len(rows) == 0 {
		return nil, ErrNotFound
	}
	return &rows[0], nil
}

func (s *RESTStore) Update(ctx context.Context, id string, c Changes) (*Record, error) {
	var rows []Record
	err := s.api.Update(ctx, Table, supabase.Query{
		Select:  recordColumns,
		Filters: []supabase.Filter{supabase.Eq("id", id)},
	}, c.columns(), &rows)
	observe("update", "rest", err)
	if err != nil {
		return nil, err
	}
	if len(rows) == 0 {
		return nil, ErrNotFound
	}
	return &rows[0], nil
}

func (s *RESTStore) Upsert(ctx context.Context, id string, c Changes) error {
	row := c.columns()
	row["id"] = id
	err := s.api.Upsert(ctx, Table, row, nil)
	observe("upsert", "rest", err)
	return err
}

func (s *RESTStore) Insert(ctx context.Context, id string, c Changes) (*Record, error) {
	row := c.columns()
	row["id"] = id
	var rows []Record
	err := s.api.Insert(ctx, Table, row, &rows)
	observe("insert", "rest", err)
	if err != nil {
		return nil, err
	}
	if len(rows) == 0 {
		return &Record{ID: id}, nil
	}
	return &rows[0], nil
}

func (s *RESTStore) List(ctx context.Context) ([]Summary, error) {
	var rows []Summary
	err := s.api.Select(ctx, Table, supabase.Query{
		Select: summaryColumns,
		Order:  "full_name.asc",
	}, &rows)
	observe("list", "rest", err)
	if err != nil {
		return nil, err
	}
	for i := range rows {
		rows[i].Email = nil
	}
	return rows, nil
}

func observe(op, store string, err error) {
	metrics.ProfileQueries.WithLabelValues(op, store, metrics.Outcome(err)).Inc()
}
