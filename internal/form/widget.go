// internal/form/widget.go
//
// Forms subsystem: widget integration.
//
// Templates embed form markup through the widget system:
//
//	{{ widget "auth/login" (dict "prefill" .Prefill "errors" .Errors) }}
//
// The adapter wraps RenderForm and always returns view.CacheSkip so pages
// never cache CSRF tokens.

package form

import (
	"github.com/toescalado/escalado/internal/view"
	"github.com/toescalado/escalado/internal/widget"
)

var _ widget.Widget = (*formWidget)(nil)

type formWidget struct{ id string }

// ID implements widget.Widget.
func (w *formWidget) ID() string { return w.id }

// Render converts the FormDef into HTML.  params may include "prefill"
// (map[string]string), "selected" (map[string][]string), "choices"
// (map[string][]Choice), "errors" (map[string]string), and "step" (string).
func (w *formWidget) Render(_ any, params map[string]any) (string, int, error) {
	var opts RenderOptions
	if params != nil {
		opts.Prefill, _ = params["prefill"].(map[string]string)
		opts.Selected, _ = params["selected"].(map[string][]string)
		opts.Choices, _ = params["choices"].(map[string][]Choice)
		opts.Errors, _ = params["errors"].(map[string]string)
		opts.StepID, _ = params["step"].(string)
	}

	out, err := RenderForm(w.id, opts)
	if err != nil {
		return "", int(view.CacheSkip), err
	}
	return string(out), int(view.CacheSkip), nil
}

// injectWidgetRegistration is called by definition.go after each FormDef loads.
func injectWidgetRegistration(fd *FormDef) { widget.Register(&formWidget{id: fd.ID}) }
