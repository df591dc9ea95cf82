// internal/routing/alias.go
//
// Alias-resolution cache and middleware.
//
// Context
// -------
// Friendly Portuguese paths (/perfil, /calendario, /graficos) are rewritten
// to the canonical page paths before chi sees the request.  Aliases come
// from a Source, normally the `routing.aliases` config map merged over
// DefaultAliases.
//
// Workflow
// --------
//   1. main constructs AliasCache via routing.NewAliasCache(source, ttl).
//   2. The root router wires routing.Middleware(mode, cache) early in the
//      chain.
//   3. Middleware rewrites r.URL.Path on cache hit; otherwise falls through
//      or 404s per routing mode.

package routing

import (
	"context"
	"net/http"
	"strings"
	"sync"
	"time"

	"go.uber.org/zap"
)

// DefaultAliases are always present unless a configured alias of the same
// name overrides them.
var DefaultAliases = map[string]string{
	"/perfil":     "/profile/edit",
	"/calendario": "/agenda",
	"/graficos":   "/graphics",
	"/entrar":     "/login",
	"/cadastro":   "/signup",
}

// Source returns the full alias→target map.
type Source func(ctx context.Context) (map[string]string, error)

// StaticSource serves DefaultAliases overlaid with extra.  Paths are
// normalised to a single leading slash.
func StaticSource(extra map[string]string) Source {
	merged := make(map[string]string, len(DefaultAliases)+len(extra))
	for k, v := range DefaultAliases {
		merged[k] = v
	}
	for k, v := range extra {
		merged[BuildPath(k, "")] = BuildPath(v, "")
	}
	return func(context.Context) (map[string]string, error) {
		return merged, nil
	}
}

// -----------------------------------------------------------------------------
// AliasCache
// -----------------------------------------------------------------------------

// AliasCache stores alias→target pairs plus TTL state.  Zero value is
// unusable; construct with NewAliasCache.
type AliasCache struct {
	mu       sync.RWMutex
	data     map[string]string
	loadedAt time.Time
	ttl      time.Duration
	src      Source
}

// NewAliasCache returns a ready cache with the specified TTL.  A ttl of
// zero never expires after the first load.
func NewAliasCache(src Source, ttl time.Duration) *AliasCache {
	return &AliasCache{data: map[string]string{}, src: src, ttl: ttl}
}

// Load refreshes all aliases from the source.
func (c *AliasCache) Load(ctx context.Context) error {
	fresh, err := c.src(ctx)
	if err != nil {
		return err
	}
	cp := make(map[string]string, len(fresh))
	for k, v := range fresh {
		cp[k] = v
	}

	c.mu.Lock()
	c.data = cp
	c.loadedAt = time.Now()
	c.mu.Unlock()

	zap.L().Debug("alias cache load", zap.Int("count", len(cp)))
	return nil
}

// Lookup returns the target for path.  Trailing slashes are ignored.
func (c *AliasCache) Lookup(path string) (string, bool) {
	if len(path) > 1 {
		path = strings.TrimRight(path, "/")
	}
	c.mu.RLock()
	target, ok := c.data[path]
	c.mu.RUnlock()
	return target, ok
}

func (c *AliasCache) needsRefresh() bool {
	c.mu.RLock()
	defer c.mu.RUnlock()
	if c.loadedAt.IsZero() {
		return true
	}
	return c.ttl > 0 && time.Since(c.loadedAt) > c.ttl
}

// -----------------------------------------------------------------------------
// Middleware factory
// -----------------------------------------------------------------------------

const (
	RouteModeAbsolute  = "absolute"
	RouteModeAliasOnly = "alias"
	RouteModeBoth      = "both"
)

// Middleware returns a chi middleware that rewrites alias paths.  In alias
// mode only aliased paths, static assets, and /metrics are served.
func Middleware(mode string, cache *AliasCache) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {

			if mode == RouteModeAbsolute {
				next.ServeHTTP(w, r)
				return
			}

			if cache.needsRefresh() {
				if err := cache.Load(r.Context()); err != nil {
					zap.L().Warn("alias cache reload failed", zap.Error(err))
				}
			}

			if target, ok := cache.Lookup(r.URL.Path); ok {
				original := r.URL.Path
				r.URL.Path = target
				r.URL.RawPath = ""
				r.RequestURI = r.URL.RequestURI()
				zap.L().Debug("alias rewrite",
					zap.String("from", original),
					zap.String("to", target))

				next.ServeHTTP(w, r)
				return
			}

			if mode == RouteModeAliasOnly && !passThrough(r.URL.Path) {
				http.NotFound(w, r)
				return
			}

			// mode == both and alias miss
			next.ServeHTTP(w, r)
		})
	}
}

func passThrough(p string) bool {
	return strings.HasPrefix(p, "/themes/") || p == "/metrics" || p == "/healthz"
}
