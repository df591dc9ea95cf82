// components/onboarding/onboarding.go
//
// Onboarding component: the one-time profile completion page shown while
// the signed-in user's profile lacks a city or a role.
//
// Workflow
// --------
//   1. The YAML form validates and trims the four text fields.
//   2. The comma lists are split, blank entries dropped.
//   3. One upsert keyed by the identity id; blank values become NULL.
//   4. The user is re-read so the guard sees the completed profile, then
//      the browser moves on to the index page.
//
//------------------------------------------------------------------------------

package onboarding

import (
	"embed"
	"io/fs"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/toescalado/escalado/internal/app"
	"github.com/toescalado/escalado/internal/component"
	"github.com/toescalado/escalado/internal/form"
	"github.com/toescalado/escalado/internal/logger"
	"github.com/toescalado/escalado/internal/profile"
	"github.com/toescalado/escalado/internal/supabase"
)

//go:embed templates/*.html
var templatesFS embed.FS

//go:embed forms/*.yaml
var formsFS embed.FS

const (
	MsgNoUser     = "User not found"
	MsgSaveFailed = "Failed to save profile"
)

var _ component.Component = (*Component)(nil)

// Component serves /onboarding.
type Component struct {
	deps *component.Deps
}

func (c *Component) Name() string { return "onboarding" }

func (c *Component) Init(d *component.Deps) error {
	c.deps = d
	return nil
}

func (c *Component) Templates() fs.FS { return sub(templatesFS, "templates") }
func (c *Component) Forms() fs.FS     { return sub(formsFS, "forms") }

func (c *Component) Routes(r chi.Router) {
	d := c.deps
	p := app.PageOnboarding
	r.Method(http.MethodGet, p.Path(), d.Page(p, http.HandlerFunc(c.get)))
	r.Method(http.MethodPost, p.Path(), d.Page(p, http.HandlerFunc(c.post)))
}

func init() { component.Register(&Component{}) }

func sub(fsys fs.FS, dir string) fs.FS {
	s, err := fs.Sub(fsys, dir)
	if err != nil {
		panic(err)
	}
	return s
}

func (c *Component) get(w http.ResponseWriter, r *http.Request) {
	component.Current(r.Context()).View.Head.SetTitle("Complete seu perfil")
	c.deps.Render(w, r, "onboarding", "onboarding", component.FormData{})
}

func (c *Component) post(w http.ResponseWriter, r *http.Request) {
	pc := component.Current(r.Context())
	pc.View.Head.SetTitle("Complete seu perfil")
	log := logger.FromContext(r.Context())
	fail := func(errs map[string]string) {
		c.deps.Render(w, r, "onboarding", "onboarding", component.FormData{
			Prefill: component.Prefill(r),
			Errors:  errs,
		})
	}

	data, err := form.HandleSubmit("onboarding/profile", r)
	if err != nil {
		if form.IsValidationError(err) {
			fail(form.ErrorMap(form.FieldErrors(err)))
			return
		}
		log.Errorw("onboarding form failed", "err", err)
		fail(component.FormError(component.MsgUnexpected))
		return
	}

	u := pc.State.User
	if u == nil || u.Identity == nil || u.Identity.ID == "" {
		fail(component.FormError(MsgNoUser))
		return
	}

	if err := c.deps.Profiles.Upsert(r.Context(), u.Identity.ID, Changes(data)); err != nil {
		log.Warnw("profile upsert failed", "user", u.Identity.ID, "err", err)
		fail(component.FormError(component.Fallback(supabase.Message(err), MsgSaveFailed)))
		return
	}
	c.deps.ProfilesChanged()

	c.deps.Refresh(r.Context(), pc.Entry)
	c.deps.Go(w, r, app.PageIndex)
}

// Changes maps the cleaned form values to profile columns.  Every column
// is written so a cleared field lands as NULL.
func Changes(data map[string]any) profile.Changes {
	deps := profile.SplitList(form.String(data, "departments"))
	others := profile.SplitList(form.String(data, "otherEmails"))
	return profile.Changes{
		City:        profile.Ptr(form.String(data, "city")),
		Role:        profile.Ptr(form.String(data, "role")),
		Departments: &deps,
		OtherEmails: &others,
	}
}
