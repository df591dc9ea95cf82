package supabase

import (
	"context"
	"net/http"
	"net/url"
	"strconv"
	"strings"
)

// Filter is one PostgREST horizontal filter, e.g. {"id", "eq", "u-1"}.
type Filter struct {
	Column string
	Op     string
	Value  string
}

// Eq is shorthand for an equality filter.
func Eq(column, value string) Filter { return Filter{Column: column, Op: "eq", Value: value} }

// Query narrows a table read or write.
type Query struct {
	Select  string   // column list; "*" when empty
	Filters []Filter // ANDed
	Order   string   // e.g. "full_name.asc"
	Limit   int      // 0 = no limit
}

func (q Query) values(withSelect bool) url.Values {
	v := url.Values{}
	if withSelect {
		sel := q.Select
		if sel == "" {
			sel = "*"
		}
		v.Set("select", sel)
	}
	for _, f := range q.Filters {
		v.Add(f.Column, f.Op+"."+f.Value)
	}
	if q.Order != "" {
		v.Set("order", q.Order)
	}
	if q.Limit > 0 {
		v.Set("limit", itoa(q.Limit))
	}
	return v
}

func tablePath(table string) string { return "/rest/v1/" + url.PathEscape(table) }

// Select reads rows into out, which must point at a slice.
func (c *Client) Select(ctx context.Context, table string, q Query, out any) error {
	_, err := c.do(ctx, request{
		method: http.MethodGet,
		path:   tablePath(table),
		query:  q.values(true),
	}, out)
	return err
}

// Count returns the exact number of rows matching q.
func (c *Client) Count(ctx context.Context, table string, q Query) (int, error) {
	q.Select = "*"
	q.Limit = 1
	var sink []map[string]any
	resp, err := c.do(ctx, request{
		method:  http.MethodGet,
		path:    tablePath(table),
		query:   q.values(true),
		headers: map[string]string{"Prefer": "count=exact"},
	}, &sink)
	if err != nil {
		return 0, err
	}
	return parseContentRange(resp.Header.Get("Content-Range"), len(sink)), nil
}

// Update patches rows matching q with changes and decodes the updated rows
// into out (a slice pointer) when non-nil.
func (c *Client) Update(ctx context.Context, table string, q Query, changes any, out any) error {
	v := q.values(false)
	if out != nil {
		sel := q.Select
		if sel == "" {
			sel = "*"
		}
		v.Set("select", sel)
	}
	_, err := c.do(ctx, request{
		method:  http.MethodPatch,
		path:    tablePath(table),
		query:   v,
		body:    changes,
		headers: map[string]string{"Prefer": preferReturn(out)},
	}, out)
	return err
}

// Insert creates rows.
func (c *Client) Insert(ctx context.Context, table string, rows any, out any) error {
	_, err := c.do(ctx, request{
		method:  http.MethodPost,
		path:    tablePath(table),
		body:    rows,
		headers: map[string]string{"Prefer": preferReturn(out)},
	}, out)
	return err
}

// Upsert inserts rows or merges them into existing rows on conflict.
func (c *Client) Upsert(ctx context.Context, table string, rows any, out any) error {
	_, err := c.do(ctx, request{
		method: http.MethodPost,
		path:   tablePath(table),
		body:   rows,
		headers: map[string]string{
			"Prefer": "resolution=merge-duplicates," + preferReturn(out),
		},
	}, out)
	return err
}

func preferReturn(out any) string {
	if out == nil {
		return "return=minimal"
	}
	return "return=representation"
}

// parseContentRange reads the total from "0-4/27" or "*/0".
func parseContentRange(h string, fallback int) int {
	i := strings.LastIndexByte(h, '/')
	if i < 0 {
		return fallback
	}
	n, err := strconv.Atoi(h[i+1:])
	if err != nil {
		return fallback
	}
	return n
}

func itoa(i int) string { return strconv.Itoa(i) }
