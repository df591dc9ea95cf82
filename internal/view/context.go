// internal/view/context.go
//
// Per-request rendering context and the template func map.

package view

import (
	"html/template"
	"net/http"
	"strings"
	"time"

	"github.com/toescalado/escalado/internal/app"
	"github.com/toescalado/escalado/internal/head"
	"github.com/toescalado/escalado/internal/requestinfo"
	"github.com/toescalado/escalado/internal/theme"
	"github.com/toescalado/escalado/internal/widget"
)

// Context is what templates and widgets see as .Ctx.
type Context struct {
	Request *http.Request
	Head    *head.Builder
	Info    *requestinfo.RequestInfo
	Theme   *theme.Theme
	State   app.State
	Flash   string
}

// NewContext builds a Context for r.  State and Flash are filled in by the
// page wrapper.
func NewContext(r *http.Request, th *theme.Theme) *Context {
	return &Context{
		Request: r,
		Head:    head.New(),
		Info:    requestinfo.FromContext(r.Context()),
		Theme:   th,
	}
}

// Page is the data handed to every page template.
type Page struct {
	Ctx  *Context
	Data any
	Body template.HTML
}

// buildFuncMap returns helpers bound to rc.  A nil rc yields inert
// placeholders so templates can be parsed ahead of any request.
func buildFuncMap(rc *Context) template.FuncMap {
	fm := template.FuncMap{
		"dict":     dict,
		"widget":   widgetFunc(rc),
		"asset":    assetFunc(rc),
		"join":     strings.Join,
		"datetime": func(t time.Time) string { return t.Local().Format("02/01/2006 15:04") },
		"date":     func(t time.Time) string { return t.Local().Format("02/01/2006") },
		"path":     func(p app.Page) string { return p.Path() },
	}
	for k, v := range infoFuncMap(rc) {
		fm[k] = v
	}
	return fm
}

// infoFuncMap exposes RequestInfo fields with short names.
func infoFuncMap(rc *Context) template.FuncMap {
	info := func() *requestinfo.RequestInfo {
		if rc == nil {
			return nil
		}
		return rc.Info
	}
	return template.FuncMap{
		"clientIP": func() string {
			if i := info(); i != nil && i.Geo.IP != nil {
				return i.Geo.IP.String()
			}
			return ""
		},
		"country": func() string {
			if i := info(); i != nil {
				return i.Geo.CountryISO
			}
			return ""
		},
		"browser": func() string {
			if i := info(); i != nil {
				return i.UA.Browser
			}
			return ""
		},
		"device": func() string {
			if i := info(); i != nil {
				return i.UA.Device
			}
			return ""
		},
		"isMobile": func() bool {
			i := info()
			return i != nil && i.UA.Device == "Mobile"
		},
	}
}

// dict builds a map in templates: {{ dict "k" 1 "k2" "v" }}.
func dict(kv ...any) map[string]any {
	m := make(map[string]any, len(kv)/2)
	for i := 0; i+1 < len(kv); i += 2 {
		key, _ := kv[i].(string)
		m[key] = kv[i+1]
	}
	return m
}

// widgetFunc renders a registered widget and returns safe HTML.  Errors are
// hidden behind <!-- comments --> so end-users never see stack traces.
func widgetFunc(rc *Context) func(string, map[string]any) template.HTML {
	return func(key string, params map[string]any) template.HTML {
		if rc == nil {
			return ""
		}
		w := widget.Lookup(key)
		if w == nil {
			return template.HTML("<!-- widget not found -->")
		}
		html, _, err := w.Render(rc, params)
		if err != nil {
			if rc.Request != nil {
				logFrom(rc).Warnw("widget render failed", "widget", key, "err", err)
			}
			return template.HTML("<!-- widget error -->")
		}
		return template.HTML(html)
	}
}

func assetFunc(rc *Context) func(string) string {
	return func(p string) string {
		if rc == nil || rc.Theme == nil {
			return "/themes/default/assets/" + p
		}
		return rc.Theme.AssetFunc(p)
	}
}
