// internal/view/render.go
//
// Central view engine: template lookup, override chain, func-map injection,
// and an LRU of parsed *template.Template* sets.
//
// Public helpers
// --------------
//   - Render         – render a page inside the base layout.
//   - RenderToString – return template.HTML (widgets).
//   - RenderLoading  – the placeholder shown while a session bootstraps.
//
// Lookup precedence (first hit wins):
//   1. <theme root>/components/<comp>/templates/<tpl>.html
//   2. templates embedded by the component (RegisterTemplates)
//
// All templates of the winning source are parsed as one set together with
// the theme layouts, so sub-templates ({{ template "row" . }}) work.
// Cached sets are parsed with placeholder funcs; every render clones the
// set and binds the request's func map.

package view

import (
	"bytes"
	"fmt"
	"html/template"
	"io/fs"
	"net/http"
	"path"
	"strings"
	"sync"

	"go.uber.org/zap"

	"github.com/toescalado/escalado/internal/cache"
	"github.com/toescalado/escalado/internal/logger"
	"github.com/toescalado/escalado/internal/metrics"
	"github.com/toescalado/escalado/internal/theme"
)

// CachePolicy hints how the caller wants this template cached.
type CachePolicy int

const (
	CacheDefault CachePolicy = iota // keep parsed set in the LRU
	CacheSkip                       // never cache
	CacheForce                      // reserved
)

// Parsed template sets keyed by theme::component::page.
var tmplLRU = newTemplateCache(256)

func newTemplateCache(n int) *cache.LRU[string, *template.Template] {
	c := cache.New[string, *template.Template](n)
	c.OnEvict = func(string, *template.Template) { metrics.TemplateCache.WithLabelValues("evict").Inc() }
	return c
}

var (
	sourcesMu sync.RWMutex
	sources   = map[string]fs.FS{}
)

// RegisterTemplates records the embedded templates of one component.
// fsys must hold *.html files at its root.
func RegisterTemplates(comp string, fsys fs.FS) {
	sourcesMu.Lock()
	sources[comp] = fsys
	sourcesMu.Unlock()
	tmplLRU.Purge()
}

// Render executes comp/name and wraps the result in the base layout.
func Render(rc *Context, w http.ResponseWriter, comp, name string, data any, policy CachePolicy) error {
	t, err := load(rc.Theme, comp, name, policy)
	if err != nil {
		return err
	}
	t, err = bind(t, rc)
	if err != nil {
		return err
	}

	page := Page{Ctx: rc, Data: data}
	var body bytes.Buffer
	if err := t.ExecuteTemplate(&body, execName(t, name), page); err != nil {
		return err
	}
	page.Body = template.HTML(body.String())

	var out bytes.Buffer
	if err := t.ExecuteTemplate(&out, "base", page); err != nil {
		return err
	}
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	_, err = out.WriteTo(w)
	return err
}

// RenderToString executes comp/name without the layout.
func RenderToString(rc *Context, comp, name string, data any) (template.HTML, CachePolicy, error) {
	t, err := load(rc.Theme, comp, name, CacheDefault)
	if err != nil {
		return "", CacheSkip, err
	}
	t, err = bind(t, rc)
	if err != nil {
		return "", CacheSkip, err
	}
	var buf bytes.Buffer
	if err := t.ExecuteTemplate(&buf, execName(t, name), Page{Ctx: rc, Data: data}); err != nil {
		return "", CacheSkip, err
	}
	return template.HTML(buf.String()), CacheDefault, nil
}

// RenderLoading writes the loading placeholder.
func RenderLoading(rc *Context, w http.ResponseWriter) error {
	t, err := layouts(rc.Theme)
	if err != nil {
		return err
	}
	t, err = bind(t, rc)
	if err != nil {
		return err
	}
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.Header().Set("Cache-Control", "no-store")
	return t.ExecuteTemplate(w, "loading", Page{Ctx: rc})
}

// -----------------------------------------------------------------------------
// internal: load
// -----------------------------------------------------------------------------

func load(th *theme.Theme, comp, name string, policy CachePolicy) (*template.Template, error) {
	if th == nil {
		th = theme.New("", "")
	}
	key := strings.Join([]string{th.Name, comp, name}, "::")
	if policy != CacheSkip {
		if t, ok := tmplLRU.Get(key); ok {
			metrics.TemplateCache.WithLabelValues("hit").Inc()
			return t, nil
		}
		metrics.TemplateCache.WithLabelValues("miss").Inc()
	}

	t, err := layouts(th)
	if err != nil {
		return nil, err
	}

	files, err := theme.CollectHTML(th.ComponentDir(comp))
	if err != nil {
		return nil, err
	}
	if hasFile(files, name+".html") {
		if t, err = t.ParseFiles(files...); err != nil {
			return nil, fmt.Errorf("view: parse %s overrides: %w", comp, err)
		}
	} else {
		sourcesMu.RLock()
		src := sources[comp]
		sourcesMu.RUnlock()
		if src == nil {
			return nil, fmt.Errorf("view: no templates for component %q: %w", comp, fs.ErrNotExist)
		}
		if _, err := fs.Stat(src, name+".html"); err != nil {
			return nil, fmt.Errorf("view: %s/%s: %w", comp, name, err)
		}
		if t, err = t.ParseFS(src, "*.html"); err != nil {
			return nil, fmt.Errorf("view: parse %s templates: %w", comp, err)
		}
	}

	if policy != CacheSkip {
		tmplLRU.Add(key, t)
	}
	return t, nil
}

// layouts parses the theme's layout set with placeholder funcs.
func layouts(th *theme.Theme) (*template.Template, error) {
	if th == nil {
		th = theme.New("", "")
	}
	t, err := template.New("layout").Funcs(buildFuncMap(nil)).ParseFS(th.Layouts, "*.html")
	if err != nil {
		return nil, fmt.Errorf("view: parse layouts: %w", err)
	}
	return t, nil
}

// bind clones t and installs rc's helpers.
func bind(t *template.Template, rc *Context) (*template.Template, error) {
	c, err := t.Clone()
	if err != nil {
		return nil, err
	}
	return c.Funcs(buildFuncMap(rc)), nil
}

// execName picks the template name to execute.
//
// Priority:
//  1. If the set has "<name>.html" (file-based template), run that.
//  2. Otherwise, fall back to "<name>" (root template defined in code).
func execName(t *template.Template, name string) string {
	if tmpl := t.Lookup(name + ".html"); tmpl != nil {
		return name + ".html"
	}
	return name
}

func hasFile(files []string, base string) bool {
	for _, f := range files {
		if path.Base(f) == base {
			return true
		}
	}
	return false
}

func logFrom(rc *Context) *zap.SugaredLogger {
	return logger.FromContext(rc.Request.Context())
}
