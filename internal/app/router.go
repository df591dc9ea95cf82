// internal/app/router.go
//
// Router implements the three application actions: Bootstrap, Navigate,
// and RefreshUser.
//
// Guard policies
// --------------
// GuardAll       Every Navigate is checked against the status: anonymous
//                users only reach public pages, signed-in users are kept
//                off public pages, and users that still need onboarding
//                are held on the onboarding page.
// GuardBootstrap Only Bootstrap decides a page; Navigate afterwards shows
//                whatever was requested.

package app

import (
	"context"
	"errors"

	"github.com/toescalado/escalado/internal/acl"
	"github.com/toescalado/escalado/internal/logger"
	"github.com/toescalado/escalado/internal/metrics"
	"github.com/toescalado/escalado/internal/profile"
	"github.com/toescalado/escalado/internal/supabase"
)

// Guard selects the navigation policy.
type Guard string

const (
	GuardAll       Guard = "all"
	GuardBootstrap Guard = "bootstrap"
)

// Identities resolves an access token to a user.  A nil user with a nil
// error means "not signed in".
type Identities interface {
	GetCurrentUser(ctx context.Context, accessToken string) (*supabase.User, error)
}

// Profiles reads profile rows.
type Profiles interface {
	Get(ctx context.Context, id string) (*profile.Record, error)
}

// Router is stateless; all state lives in the Holder passed to each action.
type Router struct {
	ids      Identities
	profiles Profiles
	guard    Guard
}

// NewRouter returns a Router.  An unknown guard falls back to GuardAll.
func NewRouter(ids Identities, profiles Profiles, guard Guard) *Router {
	if guard != GuardBootstrap {
		guard = GuardAll
	}
	return &Router{ids: ids, profiles: profiles, guard: guard}
}

// Guard returns the active policy.
func (r *Router) Guard() Guard { return r.guard }

// Bootstrap determines the initial page from the session behind
// accessToken.  Loading is set for the duration of the call.
func (r *Router) Bootstrap(ctx context.Context, h *Holder, accessToken string) (State, error) {
	ticket := h.begin(func(s *State) {
		s.Status = StatusBootstrapping
		s.Loading = true
	})

	user, status := r.resolve(ctx, accessToken)

	return h.commit(ticket, func(s *State) {
		s.User = user
		s.Status = status
		s.Loading = false
		s.Page = landing(status)
	})
}

// RefreshUser re-reads identity and profile.  The current page is kept.
func (r *Router) RefreshUser(ctx context.Context, h *Holder, accessToken string) (State, error) {
	ticket := h.begin(nil)

	user, status := r.resolve(ctx, accessToken)

	return h.commit(ticket, func(s *State) {
		s.User = user
		s.Status = status
		s.Loading = false
	})
}

// Navigate moves to page and returns the page actually shown.  While the
// holder is still loading nothing changes and the current page is
// returned.  Navigate takes no ticket: it writes only Page, so it never
// supersedes a Bootstrap or RefreshUser still fetching the user.
func (r *Router) Navigate(h *Holder, page Page) Page {
	if !page.Valid() {
		page = PageIndex
	}
	h.mu.Lock()
	defer h.mu.Unlock()

	if h.st.Loading {
		return h.st.Page
	}
	shown := page
	if r.guard == GuardAll {
		shown = allow(h.st.Status, page)
	}
	h.st.Page = shown
	metrics.Navigations.WithLabelValues(string(page), string(shown)).Inc()
	return shown
}

// resolve fetches identity and profile.  An identity fetch error counts
// as anonymous; a profile fetch error counts as a missing profile.
func (r *Router) resolve(ctx context.Context, accessToken string) (*CurrentUser, Status) {
	log := logger.FromContext(ctx)

	ident, err := r.ids.GetCurrentUser(ctx, accessToken)
	if err != nil {
		log.Warnw("identity fetch failed", "err", err)
		return nil, StatusAnonymous
	}
	if ident == nil {
		return nil, StatusAnonymous
	}
	if err := ident.Validate(); err != nil {
		log.Warnw("identity rejected", "err", err)
		return nil, StatusAnonymous
	}

	cu := &CurrentUser{Identity: ident}
	rec, err := r.profiles.Get(supabase.WithAccessToken(ctx, accessToken), ident.ID)
	switch {
	case errors.Is(err, profile.ErrNotFound):
	case err != nil:
		log.Warnw("profile fetch failed", "user", ident.ID, "err", err)
	default:
		if verr := rec.Validate(ident.ID); verr != nil {
			log.Warnw("profile rejected", "user", ident.ID, "err", verr)
		} else {
			cu.Profile = rec
			cu.Roles = acl.Parse(profile.Str(rec.Role))
		}
	}

	if profile.NeedsOnboarding(cu.Profile) {
		return cu, StatusOnboarding
	}
	return cu, StatusAuthenticated
}

func landing(s Status) Page {
	switch s {
	case StatusAuthenticated:
		return PageIndex
	case StatusOnboarding:
		return PageOnboarding
	default:
		return PageLogin
	}
}

func allow(s Status, p Page) Page {
	switch s {
	case StatusAnonymous, StatusBootstrapping:
		if p.Public() {
			return p
		}
		return PageLogin
	case StatusOnboarding:
		return PageOnboarding
	default:
		if p.Public() {
			return PageIndex
		}
		return p
	}
}
