// internal/session/session.go
//
// In-memory browser sessions.
//
// Context
//   A browser is identified by a random cookie value (uuid v4).  The value
//   keys an Entry held in a go-cache store with a sliding TTL; the Entry
//   keeps the backend tokens, the application state Holder, and a one-shot
//   flash message.  Nothing is persisted: a restart signs everybody out.
//
//------------------------------------------------------------------------------

package session

import (
	"context"
	"net/http"
	"sync"
	"time"

	"github.com/google/uuid"
	gocache "github.com/patrickmn/go-cache"

	"github.com/toescalado/escalado/internal/app"
	"github.com/toescalado/escalado/internal/metrics"
	"github.com/toescalado/escalado/internal/supabase"
)

// Entry is the server-side half of one browser session.
type Entry struct {
	ID     string
	Holder *app.Holder

	mu      sync.Mutex
	session *supabase.Session
	flash   string
}

// Session returns the backend session, or nil when signed out.
func (e *Entry) Session() *supabase.Session {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.session
}

// AccessToken is a convenience for Session().AccessToken.
func (e *Entry) AccessToken() string {
	if s := e.Session(); s != nil {
		return s.AccessToken
	}
	return ""
}

// SetSession stores (or clears, with nil) the backend session.
func (e *Entry) SetSession(s *supabase.Session) {
	e.mu.Lock()
	e.session = s
	e.mu.Unlock()
}

// Flash queues a message for the next rendered page.
func (e *Entry) Flash(msg string) {
	e.mu.Lock()
	e.flash = msg
	e.mu.Unlock()
}

// TakeFlash returns and clears the queued message.
func (e *Entry) TakeFlash() string {
	e.mu.Lock()
	defer e.mu.Unlock()
	msg := e.flash
	e.flash = ""
	return msg
}

// Options configure a Store.
type Options struct {
	CookieName string
	TTL        time.Duration
	Secure     bool
}

// Store holds entries keyed by cookie value.
type Store struct {
	opts  Options
	items *gocache.Cache
}

// NewStore returns a Store whose entries expire after opts.TTL of
// inactivity.
func NewStore(opts Options) *Store {
	if opts.CookieName == "" {
		opts.CookieName = "escalado_session"
	}
	if opts.TTL <= 0 {
		opts.TTL = 14 * 24 * time.Hour
	}
	c := gocache.New(opts.TTL, opts.TTL/4+time.Minute)
	c.OnEvicted(func(string, any) { metrics.ActiveSessions.Dec() })
	return &Store{opts: opts, items: c}
}

// Load returns the entry named by the request cookie, if it exists.
func (s *Store) Load(r *http.Request) (*Entry, bool) {
	c, err := r.Cookie(s.opts.CookieName)
	if err != nil || c.Value == "" {
		return nil, false
	}
	v, ok := s.items.Get(c.Value)
	if !ok {
		return nil, false
	}
	e := v.(*Entry)
	s.items.SetDefault(e.ID, e) // slide the TTL
	return e, true
}

// Start creates a fresh entry and sets its cookie.
func (s *Store) Start(w http.ResponseWriter) *Entry {
	e := &Entry{ID: uuid.NewString(), Holder: app.NewHolder()}
	s.items.SetDefault(e.ID, e)
	metrics.ActiveSessions.Inc()
	http.SetCookie(w, &http.Cookie{
		Name:     s.opts.CookieName,
		Value:    e.ID,
		Path:     "/",
		HttpOnly: true,
		Secure:   s.opts.Secure,
		SameSite: http.SameSiteLaxMode,
		MaxAge:   int(s.opts.TTL.Seconds()),
	})
	return e
}

// Destroy drops e and clears the cookie.  The caller signs out of the
// backend first.
func (s *Store) Destroy(w http.ResponseWriter, e *Entry) {
	if e != nil {
		s.items.Delete(e.ID) // OnEvicted fires and decrements the gauge
	}
	http.SetCookie(w, &http.Cookie{
		Name:     s.opts.CookieName,
		Value:    "",
		Path:     "/",
		MaxAge:   -1,
		HttpOnly: true,
		Secure:   s.opts.Secure,
	})
}

// Len reports the number of live entries.
func (s *Store) Len() int { return s.items.ItemCount() }

/*──────────────────────────── middleware ───────────────────────────────────*/

type ctxKey struct{}

// Middleware loads or starts the entry and attaches it to the context.
func (s *Store) Middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		e, ok := s.Load(r)
		if !ok {
			e = s.Start(w)
		}
		next.ServeHTTP(w, r.WithContext(WithEntry(r.Context(), e)))
	})
}

// WithEntry returns a child context carrying e.
func WithEntry(ctx context.Context, e *Entry) context.Context {
	return context.WithValue(ctx, ctxKey{}, e)
}

// FromContext returns the entry attached by Middleware, or nil.
func FromContext(ctx context.Context) *Entry {
	e, _ := ctx.Value(ctxKey{}).(*Entry)
	return e
}
