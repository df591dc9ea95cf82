// internal/profile/directory.go
//
// Directory is the cached user listing behind the agenda participant
// picker.  Entries live for a short TTL; concurrent misses share one store
// call through singleflight.  The shared call runs detached from any one
// caller's context and is bounded by loadTimeout instead, so a waiter that
// goes away does not fail the others.

package profile

import (
	"context"
	"time"

	gocache "github.com/patrickmn/go-cache"
	"golang.org/x/sync/singleflight"
)

const (
	directoryKey = "users"
	loadTimeout  = 10 * time.Second
)

// Directory wraps a Store's List with a TTL cache.
type Directory struct {
	store Store
	cache *gocache.Cache
	group singleflight.Group
}

// NewDirectory returns a Directory caching for ttl.
func NewDirectory(s Store, ttl time.Duration) *Directory {
	return &Directory{store: s, cache: gocache.New(ttl, time.Minute)}
}

// Users returns the listing, hitting the store at most once per TTL.
func (d *Directory) Users(ctx context.Context) ([]Summary, error) {
	if v, ok := d.cache.Get(directoryKey); ok {
		return v.([]Summary), nil
	}
	ch := d.group.DoChan(directoryKey, func() (any, error) {
		lctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), loadTimeout)
		defer cancel()
		rows, err := d.store.List(lctx)
		if err != nil {
			return nil, err
		}
		d.cache.SetDefault(directoryKey, rows)
		return rows, nil
	})
	select {
	case <-ctx.Done():
		return nil, ctx.Err()
	case res := <-ch:
		if res.Err != nil {
			return nil, res.Err
		}
		return res.Val.([]Summary), nil
	}
}

// Invalidate drops the cached listing, e.g. after a profile edit.
func (d *Directory) Invalidate() { d.cache.Delete(directoryKey) }
