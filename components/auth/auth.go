// components/auth/auth.go
//
// Authentication component: login, sign-up, forgot-password, and logout.
//
//------------------------------------------------------------------------------

package auth

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
	"github.com/toescalado/escalado/internal/session"
)

//go:embed templates/*.html
var templatesFS embed.FS

//go:embed forms/*.yaml
var formsFS embed.FS

// UI copy that tests and templates share.
const (
	MsgLoginFailed   = "Failed to login"
	MsgResetFailed   = "Failed to send reset email"
	MsgResetSent     = "Check your email for password reset instructions"
	MsgSignUpFailed  = "Falha ao criar conta"
	MsgSignUpDone    = "Cadastro realizado! Verifique seu email para confirmar sua conta."
	MsgSignUpCrashed = "Um erro inesperado ocorreu"
)

// Compile-time assertion: *Component satisfies component.Component.
var _ component.Component = (*Component)(nil)

// Component encapsulates the signed-out pages.
type Component struct {
	deps *component.Deps
}

/*────────────────── component.Component methods ───────────────────────────*/

// Name returns the canonical component key.
func (c *Component) Name() string { return "auth" }

// Init keeps the shared dependencies.
func (c *Component) Init(d *component.Deps) error {
	c.deps = d
	return nil
}

func (c *Component) Templates() fs.FS { return sub(templatesFS, "templates") }
func (c *Component) Forms() fs.FS     { return sub(formsFS, "forms") }

// Routes adds the auth pages to r.
func (c *Component) Routes(r chi.Router) {
	d := c.deps
	r.Method(http.MethodGet, app.PageLogin.Path(), d.Page(app.PageLogin, http.HandlerFunc(c.getLogin)))
	r.Method(http.MethodPost, app.PageLogin.Path(), d.Limit(d.Page(app.PageLogin, http.HandlerFunc(c.postLogin))))
	r.Method(http.MethodGet, app.PageSignUp.Path(), d.Page(app.PageSignUp, http.HandlerFunc(c.getSignUp)))
	r.Method(http.MethodPost, app.PageSignUp.Path(), d.Limit(d.Page(app.PageSignUp, http.HandlerFunc(c.postSignUp))))
	r.Method(http.MethodGet, app.PageForgotPass.Path(), d.Page(app.PageForgotPass, http.HandlerFunc(c.getForgot)))
	r.Method(http.MethodPost, app.PageForgotPass.Path(), d.Limit(d.Page(app.PageForgotPass, http.HandlerFunc(c.postForgot))))
	r.Post("/logout", c.postLogout)
}

// Register component at program start.
func init() { component.Register(&Component{}) }

func sub(fsys fs.FS, dir string) fs.FS {
	s, err := fs.Sub(fsys, dir)
	if err != nil {
		panic(err) // embedded paths are fixed at compile time
	}
	return s
}

/*──────────────────────────── Login ────────────────────────────────────────*/

func (c *Component) getLogin(w http.ResponseWriter, r *http.Request) {
	head := component.Current(r.Context()).View.Head
	head.SetTitle("Login")
	head.Description("Entre no Tô Escalado? para ver sua escala.")
	c.deps.Render(w, r, "auth", "login", component.FormData{})
}

func (c *Component) postLogin(w http.ResponseWriter, r *http.Request) {
	pc := component.Current(r.Context())
	pc.View.Head.SetTitle("Login")
	fail := func(errs map[string]string) {
		c.deps.Render(w, r, "auth", "login", component.FormData{
			Prefill: component.Prefill(r, "password"),
			Errors:  errs,
		})
	}

	data, err := form.HandleSubmit("auth/login", r)
	if err != nil {
		if form.IsValidationError(err) {
			fail(form.ErrorMap(form.FieldErrors(err)))
			return
		}
		logger.FromContext(r.Context()).Errorw("login form failed", "err", err)
		fail(component.FormError(component.MsgUnexpected))
		return
	}

	res := c.deps.Auth.SignIn(r.Context(), authservice.SignInInput{
		Email:    form.String(data, "email"),
		Password: form.String(data, "password"),
	})
	if !res.Success {
		fail(component.FormError(component.Fallback(res.Error, MsgLoginFailed)))
		return
	}

	st, err := c.deps.SignIn(r.Context(), pc.Entry, res.Session)
	if err != nil {
		logger.FromContext(r.Context()).Errorw("post-login bootstrap failed", "err", err)
		fail(component.FormError(component.MsgUnexpected))
		return
	}
	http.Redirect(w, r, st.Page.Path(), http.StatusSeeOther)
}

/*──────────────────────────── Sign-up ──────────────────────────────────────*/

func (c *Component) getSignUp(w http.ResponseWriter, r *http.Request) {
	component.Current(r.Context()).View.Head.SetTitle("Criar conta")
	c.deps.Render(w, r, "auth", "signup", component.FormData{})
}

func (c *Component) postSignUp(w http.ResponseWriter, r *http.Request) {
	pc := component.Current(r.Context())
	pc.View.Head.SetTitle("Criar conta")
	fail := func(errs map[string]string) {
		c.deps.Render(w, r, "auth", "signup", component.FormData{
			Prefill: component.Prefill(r, "password", "confirmPassword"),
			Errors:  errs,
		})
	}

	data, err := form.HandleSubmit("auth/signup", r)
	if err != nil {
		if form.IsValidationError(err) {
			fail(form.ErrorMap(form.FieldErrors(err)))
			return
		}
		logger.FromContext(r.Context()).Errorw("signup form failed", "err", err)
		fail(component.FormError(MsgSignUpCrashed))
		return
	}

	in := SignUpForm{
		FullName:        form.String(data, "fullName"),
		Email:           form.String(data, "email"),
		Password:        form.String(data, "password"),
		ConfirmPassword: form.String(data, "confirmPassword"),
		AcceptTerms:     form.Bool(data, "terms"),
	}
	if msg := in.Check(); msg != "" {
		fail(component.FormError(msg))
		return
	}

	res := c.deps.Auth.SignUp(r.Context(), authservice.SignUpInput{
		Email:    in.Email,
		Password: in.Password,
		FullName: in.FullName,
	})
	if !res.Success {
		fail(component.FormError(component.Fallback(res.Error, MsgSignUpFailed)))
		return
	}

	logger.FromContext(r.Context()).Infow("account created", "user", res.User.ID)
	pc.Entry.Flash(MsgSignUpDone)
	c.deps.Go(w, r, app.PageLogin)
}

/*──────────────────────────── Forgot password ──────────────────────────────*/

func (c *Component) getForgot(w http.ResponseWriter, r *http.Request) {
	component.Current(r.Context()).View.Head.SetTitle("Recuperar senha")
	c.deps.Render(w, r, "auth", "forgotpass", component.FormData{})
}

func (c *Component) postForgot(w http.ResponseWriter, r *http.Request) {
	component.Current(r.Context()).View.Head.SetTitle("Recuperar senha")
	fail := func(errs map[string]string) {
		c.deps.Render(w, r, "auth", "forgotpass", component.FormData{
			Prefill: component.Prefill(r),
			Errors:  errs,
		})
	}

	data, err := form.HandleSubmit("auth/forgotpass", r)
	if err != nil {
		if form.IsValidationError(err) {
			fail(form.ErrorMap(form.FieldErrors(err)))
			return
		}
		logger.FromContext(r.Context()).Errorw("forgot-password form failed", "err", err)
		fail(component.FormError(component.MsgUnexpected))
		return
	}

	res := c.deps.Auth.ResetPassword(r.Context(), authservice.ResetPasswordInput{
		Email:  form.String(data, "email"),
		Origin: origin(r),
	})
	if !res.Success {
		fail(component.FormError(component.Fallback(res.Error, MsgResetFailed)))
		return
	}
	// The email field is cleared on success.
	c.deps.Render(w, r, "auth", "forgotpass", component.FormData{Success: MsgResetSent})
}

func origin(r *http.Request) string {
	scheme := "http"
	if r.TLS != nil || r.Header.Get("X-Forwarded-Proto") == "https" {
		scheme = "https"
	}
	return scheme + "://" + r.Host
}

/*──────────────────────────── Logout ───────────────────────────────────────*/

// postLogout signs out of the backend, drops the browser session, and
// lands on the login page.  A backend failure is logged and ignored: the
// local session is gone either way.
func (c *Component) postLogout(w http.ResponseWriter, r *http.Request) {
	e := session.FromContext(r.Context())
	if e != nil {
		if tok := e.AccessToken(); tok != "" {
			if res := c.deps.Auth.SignOut(r.Context(), tok); !res.Success {
				logger.FromContext(r.Context()).Warnw("backend sign-out failed", "msg", res.Error)
			}
		}
		c.deps.Sessions.Destroy(w, e)
	}
	http.Redirect(w, r, app.PageLogin.Path(), http.StatusSeeOther)
}
