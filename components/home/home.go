// components/home/home.go
//
// Home component: the signed-in landing page.  The nav header and bottom
// nav widgets live in ./widgets and render from this component's
// templates.
package home

import (
	"embed"
	"io/fs"
	"net/http"

	"github.com/go-chi/chi/v5"

	_ "github.com/toescalado/escalado/components/home/widgets"
	"github.com/toescalado/escalado/internal/app"
	"github.com/toescalado/escalado/internal/component"
)

//go:embed templates/*.html
var templatesFS embed.FS

var _ component.Component = (*Component)(nil)

// Component serves the index page.
type Component struct {
	deps *component.Deps
}

func (c *Component) Name() string { return "home" }

func (c *Component) Init(d *component.Deps) error {
	c.deps = d
	return nil
}

func (c *Component) Templates() fs.FS {
	s, err := fs.Sub(templatesFS, "templates")
	if err != nil {
		panic(err)
	}
	return s
}

func (c *Component) Routes(r chi.Router) {
	r.Method(http.MethodGet, app.PageIndex.Path(), c.deps.Page(app.PageIndex, http.HandlerFunc(c.index)))
}

func init() { component.Register(&Component{}) }

// Welcome is the index card data.
type Welcome struct {
	DisplayName string
	Email       string
}

func (c *Component) index(w http.ResponseWriter, r *http.Request) {
	pc := component.Current(r.Context())
	pc.View.Head.SetTitle("Início")
	pc.View.Head.Description("Sua escala de voo e tripulação na Turma Naval.")

	var data Welcome
	if u := pc.State.User; u != nil && u.Identity != nil {
		data.DisplayName = u.Identity.DisplayName()
		data.Email = u.Identity.Email
	}
	c.deps.Render(w, r, "home", "index", data)
}
