package session

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/toescalado/escalado/internal/supabase"
)

func TestMiddlewareStartsAndReloads(t *testing.T) {
	s := NewStore(Options{CookieName: "sid", TTL: time.Hour})

	var seen *Entry
	h := s.Middleware(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		seen = FromContext(r.Context())
	}))

	rr := httptest.NewRecorder()
	h.ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/", nil))
	require.NotNil(t, seen)
	first := seen

	cookies := rr.Result().Cookies()
	require.Len(t, cookies, 1)
	assert.Equal(t, "sid", cookies[0].Name)
	assert.True(t, cookies[0].HttpOnly)

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.AddCookie(cookies[0])
	h.ServeHTTP(httptest.NewRecorder(), req)
	assert.Same(t, first, seen)
	assert.Equal(t, 1, s.Len())
}

func TestUnknownCookieStartsFresh(t *testing.T) {
	s := NewStore(Options{CookieName: "sid", TTL: time.Hour})
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.AddCookie(&http.Cookie{Name: "sid", Value: "forged"})
	_, ok := s.Load(req)
	assert.False(t, ok)
}

func TestEntryFlashAndSession(t *testing.T) {
	s := NewStore(Options{})
	e := s.Start(httptest.NewRecorder())

	e.Flash("hello")
	assert.Equal(t, "hello", e.TakeFlash())
	assert.Empty(t, e.TakeFlash())

	assert.Empty(t, e.AccessToken())
	e.SetSession(&supabase.Session{AccessToken: "tok"})
	assert.Equal(t, "tok", e.AccessToken())
}

func TestDestroy(t *testing.T) {
	s := NewStore(Options{CookieName: "sid"})
	e := s.Start(httptest.NewRecorder())
	rr := httptest.NewRecorder()
	s.Destroy(rr, e)
	assert.Equal(t, 0, s.Len())
	c := rr.Result().Cookies()
	require.Len(t, c, 1)
	assert.Equal(t, -1, c[0].MaxAge)
}
