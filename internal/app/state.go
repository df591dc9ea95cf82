// internal/app/state.go
//
// Application state and the holder that serialises its mutations.
//
// Context
// -------
// Every browser session owns one Holder.  Actions (see router.go) take a
// generation ticket before talking to the backend and commit through it
// afterwards; a commit whose ticket is older than the holder's current
// generation is dropped with ErrStale.  Only the user-fetching actions
// (Bootstrap, RefreshUser) take tickets.  Page moves are applied directly
// under the lock.  Readers only ever see whole snapshots.

package app

import (
	"errors"
	"sync"

	"github.com/toescalado/escalado/internal/acl"
	"github.com/toescalado/escalado/internal/metrics"
	"github.com/toescalado/escalado/internal/profile"
	"github.com/toescalado/escalado/internal/supabase"
)

// Status is the coarse authentication state.
type Status string

const (
	StatusBootstrapping Status = "bootstrapping"
	StatusAnonymous     Status = "anonymous"
	StatusOnboarding    Status = "onboarding-required"
	StatusAuthenticated Status = "authenticated"
)

// ErrStale is returned by an action whose result was discarded because a
// newer action started after it.
var ErrStale = errors.New("app: stale action result discarded")

// CurrentUser joins the identity with its profile row.  Profile is nil when
// no row exists yet.
type CurrentUser struct {
	Identity *supabase.User
	Profile  *profile.Record
	Roles    acl.RoleSet
}

// DisplayName prefers the profile name, then identity metadata, then email.
func (u *CurrentUser) DisplayName() string {
	if u == nil {
		return ""
	}
	if u.Profile != nil {
		if n := profile.Str(u.Profile.FullName); n != "" {
			return n
		}
	}
	if u.Identity != nil {
		return u.Identity.DisplayName()
	}
	return ""
}

// State is one consistent snapshot.
type State struct {
	Page       Page
	User       *CurrentUser
	Status     Status
	Loading    bool
	Generation uint64 // ticket of the last committed user fetch
}

// SignedIn reports whether an identity is present.
func (s State) SignedIn() bool {
	return s.Status == StatusAuthenticated || s.Status == StatusOnboarding
}

// Holder owns one State.  It is safe for concurrent use.
type Holder struct {
	mu  sync.Mutex
	st  State
	gen uint64
}

// NewHolder returns a holder that has not bootstrapped yet.
func NewHolder() *Holder {
	return &Holder{st: State{Page: PageLogin, Status: StatusBootstrapping, Loading: true}}
}

// Snapshot returns a copy of the current state.
func (h *Holder) Snapshot() State {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.st
}

// Bootstrapped reports whether a bootstrap has committed.
func (h *Holder) Bootstrapped() bool {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.st.Status != StatusBootstrapping
}

// begin issues a ticket.  prep runs under the lock with the new ticket
// already current.
func (h *Holder) begin(prep func(*State)) uint64 {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.gen++
	if prep != nil {
		prep(&h.st)
	}
	return h.gen
}

// commit applies fn if ticket is still current.
func (h *Holder) commit(ticket uint64, fn func(*State)) (State, error) {
	h.mu.Lock()
	defer h.mu.Unlock()
	if ticket != h.gen {
		metrics.StaleCommits.Inc()
		return h.st, ErrStale
	}
	fn(&h.st)
	h.st.Generation = ticket
	return h.st, nil
}
