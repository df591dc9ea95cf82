// Package componenttest wires a full page stack against the in-memory
// backend so component packages can drive their handlers end to end.  The
// auth component is always mounted so tests can sign in through /login.
package componenttest

import (
	"net/http"
	"net/http/httptest"
	"net/url"
	"strconv"
	"strings"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/require"

	_ "github.com/toescalado/escalado/components/auth"
	"github.com/toescalado/escalado/internal/app"
	"github.com/toescalado/escalado/internal/authservice"
	"github.com/toescalado/escalado/internal/component"
	"github.com/toescalado/escalado/internal/form"
	"github.com/toescalado/escalado/internal/profile"
	"github.com/toescalado/escalado/internal/session"
	"github.com/toescalado/escalado/internal/supabase"
	"github.com/toescalado/escalado/internal/supabase/supabasetest"
	"github.com/toescalado/escalado/internal/theme"
)

// CookieName is the session cookie the harness uses.
const CookieName = "escalado_test"

// Harness is one browser talking to one app instance.
type Harness struct {
	t       *testing.T
	Backend *supabasetest.Server
	Deps    *component.Deps
	Handler http.Handler
	cookie  *http.Cookie
}

// New mounts every registered component with the given guard policy.
func New(t *testing.T, guard app.Guard) *Harness {
	t.Helper()
	form.SetTiming(0, time.Hour)

	srv := supabasetest.New()
	t.Cleanup(srv.Close)
	client, err := supabase.New(supabase.Options{URL: srv.URL, AnonKey: supabasetest.AnonKey})
	require.NoError(t, err)

	svc := authservice.New(client, "http://escala.test")
	store := profile.NewRESTStore(client)
	sessions := session.NewStore(session.Options{CookieName: CookieName, TTL: time.Hour})

	deps := &component.Deps{
		Auth:      svc,
		Profiles:  store,
		Directory: profile.NewDirectory(store, time.Minute),
		Router:    app.NewRouter(svc, store, guard),
		Sessions:  sessions,
		Theme:     theme.New("", ""),
	}

	r := chi.NewRouter()
	r.Use(sessions.Middleware)
	require.NoError(t, component.Mount(r, deps))

	return &Harness{t: t, Backend: srv, Deps: deps, Handler: r}
}

// Do serves req with the harness cookie and remembers any new one.
func (h *Harness) Do(req *http.Request) *httptest.ResponseRecorder {
	h.t.Helper()
	if h.cookie != nil {
		req.AddCookie(h.cookie)
	}
	rr := httptest.NewRecorder()
	h.Handler.ServeHTTP(rr, req)
	for _, c := range rr.Result().Cookies() {
		if c.Name != CookieName {
			continue
		}
		if c.MaxAge < 0 || c.Value == "" {
			h.cookie = nil
		} else {
			h.cookie = c
		}
	}
	return rr
}

// Get issues a GET.
func (h *Harness) Get(path string) *httptest.ResponseRecorder {
	h.t.Helper()
	return h.Do(httptest.NewRequest(http.MethodGet, path, nil))
}

// Post submits vals as a form, adding a valid CSRF token and timestamp.
func (h *Harness) Post(path string, vals url.Values) *httptest.ResponseRecorder {
	h.t.Helper()
	tok, err := form.GenerateToken()
	require.NoError(h.t, err)
	body := url.Values{}
	for k, v := range vals {
		body[k] = v
	}
	body.Set("csrf_token", tok)
	body.Set("render_ts", strconv.FormatInt(time.Now().Add(-5*time.Second).UnixMicro(), 10))

	req := httptest.NewRequest(http.MethodPost, path, strings.NewReader(body.Encode()))
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	return h.Do(req)
}

// Entry returns the server-side session of the harness browser.
func (h *Harness) Entry() *session.Entry {
	h.t.Helper()
	require.NotNil(h.t, h.cookie, "no session cookie yet")
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.AddCookie(h.cookie)
	e, ok := h.Deps.Sessions.Load(req)
	require.True(h.t, ok, "session not found")
	return e
}

// SignIn creates a confirmed account with a complete profile (unless
// role is empty) and logs the harness browser in.  It returns the user id.
func (h *Harness) SignIn(email, password, role string) string {
	h.t.Helper()
	id := h.Backend.AddUser(email, password, map[string]any{"full_name": "Ana Silva"})
	if role != "" {
		rows := h.Backend.Rows("profiles")
		rows = append(rows, map[string]any{
			"id": id, "full_name": "Ana Silva", "city": "Rio de Janeiro", "role": role,
		})
		h.Backend.SetRows("profiles", rows...)
	}
	rr := h.Post(app.PageLogin.Path(), url.Values{"email": {email}, "password": {password}})
	require.Equal(h.t, http.StatusSeeOther, rr.Code, rr.Body.String())
	return id
}

// Location is the redirect target of rr.
func Location(rr *httptest.ResponseRecorder) string {
	return rr.Header().Get("Location")
}
