// components/graphics/graphics.go
//
// Graphics component: a placeholder page reserved for future charts.
package graphics

import (
	"embed"
	"io/fs"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/toescalado/escalado/internal/app"
	"github.com/toescalado/escalado/internal/component"
)

//go:embed templates/*.html
var templatesFS embed.FS

var _ component.Component = (*Component)(nil)

type Component struct {
	deps *component.Deps
}

func (c *Component) Name() string { return "graphics" }

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
	p := app.PageGraphics
	r.Method(http.MethodGet, p.Path(), c.deps.Page(p, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		component.Current(r.Context()).View.Head.SetTitle("Gráficos")
		c.deps.Render(w, r, "graphics", "graphics", nil)
	})))
}

func init() { component.Register(&Component{}) }
