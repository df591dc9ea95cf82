// internal/component/registry.go
//
// Component registry (cycle-free).
//
// Each concrete component lives under components/<name> and calls
// component.Register() in an init() function.  cmd/web calls Mount once,
// which, for every component in name order, runs Init(deps) when the
// component implements Initializer, registers its embedded templates and
// YAML forms, and finally lets it add routes to the shared router.

package component

import (
	"fmt"
	"io/fs"
	"sort"
	"sync"

	"github.com/go-chi/chi/v5"

	"github.com/toescalado/escalado/internal/form"
	"github.com/toescalado/escalado/internal/view"
)

// Initializer is optional.  If a Component implements it, Mount calls
// Init(deps) before Routes.
type Initializer interface {
	Init(*Deps) error
}

// TemplateSource is optional: components with pages return an FS holding
// *.html files at its root.
type TemplateSource interface {
	Templates() fs.FS
}

// FormSource is optional: components with forms return an FS holding
// *.yaml form definitions.
type FormSource interface {
	Forms() fs.FS
}

// Component contract.
//
// Routes() adds page handlers to the shared router, e.g.:
//
//	func (c *Component) Routes(r chi.Router) {
//		r.Get("/login", c.deps.Page(app.PageLogin, http.HandlerFunc(c.getLogin)))
//	}
type Component interface {
	Name() string
	Routes(r chi.Router)
}

var (
	mu       sync.RWMutex
	registry = map[string]Component{}
)

// Register is invoked from component init() functions.
func Register(c Component) {
	mu.Lock()
	registry[c.Name()] = c
	mu.Unlock()
}

// All returns every registered component ordered by name.
func All() []Component {
	mu.RLock()
	defer mu.RUnlock()
	out := make([]Component, 0, len(registry))
	for _, c := range registry {
		out = append(out, c)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name() < out[j].Name() })
	return out
}

// Mount wires every registered component into r.
func Mount(r chi.Router, d *Deps) error {
	for _, c := range All() {
		if in, ok := c.(Initializer); ok {
			if err := in.Init(d); err != nil {
				return fmt.Errorf("component %s: init: %w", c.Name(), err)
			}
		}
		if fsrc, ok := c.(FormSource); ok {
			if err := form.RegisterFS(fsrc.Forms()); err != nil {
				return fmt.Errorf("component %s: forms: %w", c.Name(), err)
			}
		}
		if tsrc, ok := c.(TemplateSource); ok {
			view.RegisterTemplates(c.Name(), tsrc.Templates())
		}
		c.Routes(r)
	}
	return nil
}
