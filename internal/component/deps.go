// internal/component/deps.go
//
// Shared resources handed to components, and the page wrapper every page
// handler runs behind.
//
// Context
// -------
// A page request goes through four steps before the component handler
// sees it:
//
//   1. Token upkeep      – an expired access token is refreshed; a dead
//                          session is dropped and the state re-bootstrapped.
//   2. Bootstrap         – the first request of a browser session decides
//                          the landing page (login, onboarding, or index).
//   3. Loading gate      – while another request is still bootstrapping the
//                          same session, a loading page is served instead.
//   4. Navigate + guard  – the requested page goes through the router; if
//                          the guard shows a different page we redirect.
//
// The handler then finds a *PageContext in its request context, plus the
// auth.Principal that acl.RequireRole checks.

package component

import (
	"context"
	"errors"
	"net/http"

	"go.uber.org/zap"

	"github.com/toescalado/escalado/internal/agenda"
	"github.com/toescalado/escalado/internal/app"
	"github.com/toescalado/escalado/internal/auth"
	"github.com/toescalado/escalado/internal/authservice"
	"github.com/toescalado/escalado/internal/logger"
	"github.com/toescalado/escalado/internal/profile"
	"github.com/toescalado/escalado/internal/requestinfo"
	"github.com/toescalado/escalado/internal/session"
	"github.com/toescalado/escalado/internal/supabase"
	"github.com/toescalado/escalado/internal/theme"
	"github.com/toescalado/escalado/internal/view"
)

// MsgUnexpected is shown when a handler hits an error it cannot explain.
const MsgUnexpected = "An unexpected error occurred"

// Directory is the cached user listing.  *profile.Directory satisfies it.
type Directory interface {
	agenda.Lister
	Invalidate()
}

// Deps exposes app-wide resources to Components during Init.
type Deps struct {
	Auth      *authservice.Service
	Profiles  profile.Store
	Directory Directory
	Router    *app.Router
	Sessions  *session.Store
	Theme     *theme.Theme
	// AuthLimit wraps the credential POST handlers; nil disables limiting.
	AuthLimit func(http.Handler) http.Handler
}

// PageContext is what a page handler works with.
type PageContext struct {
	Page  app.Page
	View  *view.Context
	Entry *session.Entry
	State app.State
}

type pageKey struct{}

// Current returns the PageContext attached by Deps.Page, or nil.
func Current(ctx context.Context) *PageContext {
	pc, _ := ctx.Value(pageKey{}).(*PageContext)
	return pc
}

// Page wraps h so it only runs when the session's state shows page p.
func (d *Deps) Page(p app.Page, h http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		e := session.FromContext(r.Context())
		if e == nil {
			logger.FromContext(r.Context()).Errorw("page served without session", "page", p)
			http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
			return
		}
		ctx := r.Context()
		log := logger.FromContext(ctx)

		d.upkeep(ctx, e)

		if !e.Holder.Bootstrapped() {
			if _, err := d.Router.Bootstrap(ctx, e.Holder, e.AccessToken()); err != nil {
				log.Debugw("bootstrap superseded", "err", err)
			}
		}

		if e.Holder.Snapshot().Loading {
			rc := view.NewContext(r, d.Theme)
			if err := view.RenderLoading(rc, w); err != nil {
				log.Errorw("loading page render failed", "err", err)
			}
			return
		}

		if shown := d.Router.Navigate(e.Holder, p); shown != p {
			http.Redirect(w, r, shown.Path(), http.StatusSeeOther)
			return
		}

		st := e.Holder.Snapshot()
		if tok := e.AccessToken(); tok != "" {
			ctx = supabase.WithAccessToken(ctx, tok)
		}
		if st.User != nil && st.User.Identity != nil {
			ctx = auth.WithUser(ctx, auth.Principal{
				ID:    st.User.Identity.ID,
				Email: st.User.Identity.Email,
				Roles: st.User.Roles.Names(),
			})
			ctx = logger.WithContext(ctx, log.With("user", st.User.Identity.ID))
		}
		r = r.WithContext(ctx)

		rc := view.NewContext(r, d.Theme)
		rc.State = st
		rc.Flash = e.TakeFlash()
		pc := &PageContext{Page: p, View: rc, Entry: e, State: st}

		h.ServeHTTP(w, r.WithContext(context.WithValue(ctx, pageKey{}, pc)))
	})
}

// upkeep refreshes an expired token.  When the backend no longer honours
// the session it is dropped and the state re-bootstrapped as anonymous.
func (d *Deps) upkeep(ctx context.Context, e *session.Entry) {
	sess := e.Session()
	if sess == nil {
		return
	}
	live, err := d.Auth.GetSession(ctx, sess)
	if err != nil {
		logger.FromContext(ctx).Warnw("session refresh failed", "err", err)
		return
	}
	if live == sess {
		return
	}
	e.SetSession(live)
	if live == nil {
		if _, err := d.Router.Bootstrap(ctx, e.Holder, ""); err != nil {
			logger.FromContext(ctx).Debugw("bootstrap superseded", "err", err)
		}
	}
}

// Render draws comp/name for the current page.  Failures are logged and
// answered with 500.
func (d *Deps) Render(w http.ResponseWriter, r *http.Request, comp, name string, data any) {
	pc := Current(r.Context())
	rc := view.NewContext(r, d.Theme)
	if pc != nil {
		rc = pc.View
	}
	if err := view.Render(rc, w, comp, name, data, view.CacheDefault); err != nil {
		logger.FromContext(r.Context()).Errorw("page render failed",
			"component", comp, "template", name, zap.Error(err))
		http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
	}
}

// Go navigates the session to page and redirects the browser to the page
// actually shown.
func (d *Deps) Go(w http.ResponseWriter, r *http.Request, page app.Page) {
	target := page
	if e := session.FromContext(r.Context()); e != nil {
		target = d.Router.Navigate(e.Holder, page)
	}
	http.Redirect(w, r, target.Path(), http.StatusSeeOther)
}

// SignIn stores sess in the entry and bootstraps from it.
func (d *Deps) SignIn(ctx context.Context, e *session.Entry, sess *supabase.Session) (app.State, error) {
	e.SetSession(sess)
	tok := ""
	if sess != nil {
		tok = sess.AccessToken
	}
	st, err := d.Router.Bootstrap(ctx, e.Holder, tok)
	if errors.Is(err, app.ErrStale) {
		logger.FromContext(ctx).Debugw("sign-in bootstrap superseded")
		return e.Holder.Snapshot(), nil
	}
	if err == nil && st.User != nil && st.User.Identity != nil {
		device := ""
		if info := requestinfo.FromContext(ctx); info != nil {
			device = info.UA.Label()
		}
		logger.FromContext(ctx).Infow("signed in", "user", st.User.Identity.ID, "status", st.Status, "device", device)
	}
	return st, err
}

// Refresh re-reads the signed-in user into the entry's state.
func (d *Deps) Refresh(ctx context.Context, e *session.Entry) app.State {
	st, err := d.Router.RefreshUser(ctx, e.Holder, e.AccessToken())
	if errors.Is(err, app.ErrStale) {
		logger.FromContext(ctx).Debugw("refresh superseded")
		return e.Holder.Snapshot()
	}
	return st
}

// ProfilesChanged drops the cached user listing after a profile write.
func (d *Deps) ProfilesChanged() {
	if d.Directory != nil {
		d.Directory.Invalidate()
	}
}

// Limit applies AuthLimit to h when configured.
func (d *Deps) Limit(h http.Handler) http.Handler {
	if d.AuthLimit == nil {
		return h
	}
	return d.AuthLimit(h)
}
