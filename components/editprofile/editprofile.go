// components/editprofile/editprofile.go
//
// Edit-profile component: renames the signed-in user.
//
// Workflow
// --------
//   1. GET prefills fullName from identity metadata (full_name, then name);
//      the email is shown read-only.
//   2. POST writes full_name to the identity metadata first.  When a
//      profile row exists its full_name column is updated too, so the nav
//      header and the directory agree with the identity.
//   3. The user is re-read and the browser lands on the index page.
//
//------------------------------------------------------------------------------

package editprofile

import (
	"embed"
	"io/fs"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/toescalado/escalado/internal/app"
	"github.com/toescalado/escalado/internal/authservice"
	"github.com/toescalado/escalado/internal/component"
	"github.com/toescalado/escalado/internal/form"
	"github.com/toescalado/escalado/internal/logger"
	"github.com/toescalado/escalado/internal/profile"
)

//go:embed templates/*.html
var templatesFS embed.FS

//go:embed forms/*.yaml
var formsFS embed.FS

// MsgUpdateFailed is shown when the backend gives no message.
const MsgUpdateFailed = "Failed to update profile"

var _ component.Component = (*Component)(nil)

// Component serves /profile/edit.
type Component struct {
	deps *component.Deps
}

func (c *Component) Name() string { return "editprofile" }

func (c *Component) Init(d *component.Deps) error {
	c.deps = d
	return nil
}

func (c *Component) Templates() fs.FS { return sub(templatesFS, "templates") }
func (c *Component) Forms() fs.FS     { return sub(formsFS, "forms") }

func (c *Component) Routes(r chi.Router) {
	d := c.deps
	p := app.PageEditProfile
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

// Prefill returns the initial field values for u.
func Prefill(u *app.CurrentUser) map[string]string {
	out := map[string]string{}
	if u == nil || u.Identity == nil {
		return out
	}
	name := u.Identity.UserMetadata.FullName()
	if name == "" {
		name = u.Identity.UserMetadata.Name()
	}
	out["fullName"] = name
	out["email"] = u.Identity.Email
	return out
}

func (c *Component) get(w http.ResponseWriter, r *http.Request) {
	pc := component.Current(r.Context())
	pc.View.Head.SetTitle("Editar Perfil")
	c.deps.Render(w, r, "editprofile", "editprofile", component.FormData{
		Prefill: Prefill(pc.State.User),
	})
}

func (c *Component) post(w http.ResponseWriter, r *http.Request) {
	pc := component.Current(r.Context())
	pc.View.Head.SetTitle("Editar Perfil")
	log := logger.FromContext(r.Context())
	fail := func(errs map[string]string) {
		prefill := component.Prefill(r)
		prefill["email"] = Prefill(pc.State.User)["email"]
		c.deps.Render(w, r, "editprofile", "editprofile", component.FormData{
			Prefill: prefill,
			Errors:  errs,
		})
	}

	data, err := form.HandleSubmit("editprofile/profile", r)
	if err != nil {
		if form.IsValidationError(err) {
			fail(form.ErrorMap(form.FieldErrors(err)))
			return
		}
		log.Errorw("edit-profile form failed", "err", err)
		fail(component.FormError(component.MsgUnexpected))
		return
	}
	name := form.String(data, "fullName")

	res := c.deps.Auth.UpdateProfile(r.Context(), pc.Entry.AccessToken(), authservice.UpdateProfileInput{FullName: name})
	if !res.Success {
		fail(component.FormError(component.Fallback(res.Error, MsgUpdateFailed)))
		return
	}

	if u := pc.State.User; u != nil && u.Profile != nil {
		up := profile.UpdateProfile(r.Context(), c.deps.Profiles, u.Profile.ID, profile.Changes{Name: profile.Ptr(name)})
		if !up.Success {
			fail(component.FormError(component.Fallback(up.Error, MsgUpdateFailed)))
			return
		}
		c.deps.ProfilesChanged()
	}

	c.deps.Refresh(r.Context(), pc.Entry)
	c.deps.Go(w, r, app.PageIndex)
}
