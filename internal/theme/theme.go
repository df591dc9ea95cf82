// Package theme holds the data structures that describe one visual theme.
// A Theme combines:
//
//   - Name      – the theme directory name (for example, “default”).
//   - Root      – optional directory on disk with overrides; empty means
//     only the embedded defaults are used.
//   - Layouts   – the base page layout templates.
//   - AssetFunc – helper injected into templates so they can resolve
//     `{{ asset "app.css" }}` to a URL.
//
// Defaults (layout, CSS, and the small share/toast script) are embedded in
// the binary.  An override directory mirrors the same layout:
//
//	<root>/layout/*.html
//	<root>/assets/*
//	<root>/components/<comp>/templates/*.html   (read by internal/view)
package theme

import (
	"embed"
	"io/fs"
	"net/http"
	"os"
	"path"
	"path/filepath"
)

//go:embed assets/* layout/*.html
var embedded embed.FS

// Theme is built once at start-up and shared by all requests.
type Theme struct {
	Name      string
	Root      string
	Layouts   fs.FS
	Assets    fs.FS
	AssetFunc func(string) string
}

// New constructs a Theme.  root may be empty.  When root contains a layout
// or assets directory those replace the embedded defaults wholesale.
func New(name, root string) *Theme {
	if name == "" {
		name = "default"
	}
	layouts, _ := fs.Sub(embedded, "layout")
	assets, _ := fs.Sub(embedded, "assets")

	if root != "" {
		if isDir(filepath.Join(root, "layout")) {
			layouts = os.DirFS(filepath.Join(root, "layout"))
		}
		if isDir(filepath.Join(root, "assets")) {
			assets = overlay{os.DirFS(filepath.Join(root, "assets")), assets}
		}
	}

	prefix := path.Join("/themes", name, "assets") + "/"
	return &Theme{
		Name:    name,
		Root:    root,
		Layouts: layouts,
		Assets:  assets,
		AssetFunc: func(p string) string {
			return prefix + p
		},
	}
}

// AssetPrefix is the URL path the asset handler must be mounted on.
func (t *Theme) AssetPrefix() string { return path.Join("/themes", t.Name, "assets") + "/" }

// AssetHandler serves theme assets; mount it at AssetPrefix().
func (t *Theme) AssetHandler() http.Handler {
	return http.StripPrefix(t.AssetPrefix(), http.FileServer(http.FS(t.Assets)))
}

// ComponentDir returns the override directory for one component's
// templates, or "" when the theme has no root.
func (t *Theme) ComponentDir(comp string) string {
	if t.Root == "" {
		return ""
	}
	return filepath.Join(t.Root, "components", comp, "templates")
}

// overlay looks in upper first and falls back to lower.
type overlay struct{ upper, lower fs.FS }

func (o overlay) Open(name string) (fs.File, error) {
	if f, err := o.upper.Open(name); err == nil {
		return f, nil
	}
	return o.lower.Open(name)
}

func isDir(p string) bool {
	st, err := os.Stat(p)
	return err == nil && st.IsDir()
}
