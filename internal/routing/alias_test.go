// internal/routing/alias_test.go
//
// Unit-tests for the alias middleware.
//
//   • Cache-hit rewrite in BOTH mode               → 200, path mutated
//   • Cache-miss in ALIAS-only mode                → 404
//   • ABSOLUTE routing mode leaves path untouched  → 200
//   • Source errors fall through without rewrite

package routing

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func echoPath(got *string) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		*got = r.URL.Path
		w.WriteHeader(http.StatusOK)
	})
}

func TestAliasRewrite_CacheHit(t *testing.T) {
	cache := NewAliasCache(StaticSource(map[string]string{"sobre": "about"}), time.Minute)

	var got string
	h := Middleware(RouteModeBoth, cache)(echoPath(&got))

	for alias, want := range map[string]string{
		"/perfil":      "/profile/edit",
		"/calendario/": "/agenda",
		"/sobre":       "/about",
	} {
		rr := httptest.NewRecorder()
		h.ServeHTTP(rr, httptest.NewRequest(http.MethodGet, alias+"?q=1", nil))
		assert.Equal(t, http.StatusOK, rr.Code, alias)
		assert.Equal(t, want, got, alias)
	}
}

func TestAliasRewrite_AliasOnlyMiss(t *testing.T) {
	cache := NewAliasCache(StaticSource(nil), 0)
	var got string
	h := Middleware(RouteModeAliasOnly, cache)(echoPath(&got))

	rr := httptest.NewRecorder()
	h.ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/agenda", nil))
	assert.Equal(t, http.StatusNotFound, rr.Code)

	rr = httptest.NewRecorder()
	h.ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/themes/default/assets/app.css", nil))
	assert.Equal(t, http.StatusOK, rr.Code)
}

func TestAliasRewrite_Absolute(t *testing.T) {
	called := false
	cache := NewAliasCache(func(context.Context) (map[string]string, error) {
		called = true
		return nil, nil
	}, 0)
	var got string
	h := Middleware(RouteModeAbsolute, cache)(echoPath(&got))

	rr := httptest.NewRecorder()
	h.ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/perfil", nil))
	assert.Equal(t, "/perfil", got)
	assert.False(t, called, "absolute mode must not load aliases")
}

func TestAliasRewrite_SourceError(t *testing.T) {
	cache := NewAliasCache(func(context.Context) (map[string]string, error) {
		return nil, errors.New("boom")
	}, time.Minute)
	var got string
	h := Middleware(RouteModeBoth, cache)(echoPath(&got))

	rr := httptest.NewRecorder()
	h.ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/perfil", nil))
	assert.Equal(t, http.StatusOK, rr.Code)
	assert.Equal(t, "/perfil", got)
}
