// internal/head/builder.go
//
// The Builder collects everything that should appear inside a page’s
// <head> element.  It is scoped to a single request.  Page handlers and
// widgets push tags into the builder, then the base layout emits each
// slice.
//
// Features
// --------
//   - SetTitle           – single <title> tag (last call wins), suffixed
//     with the site name.
//   - Description        – convenience for the description meta tag.
//   - Meta               – arbitrary meta tags with deduplication.
//   - Metas              – the layout's render helper.
package head

import (
	"html/template"
	"strings"
	"sync"
)

// SiteName is appended to every page title.
const SiteName = "Tô Escalado?"

// Builder is safe for use from the widgets of one request.
type Builder struct {
	mu sync.Mutex

	title string
	metas []string

	seen map[string]struct{}
}

func New() *Builder {
	return &Builder{seen: make(map[string]struct{})}
}

// SetTitle overrides the page <title>.  The last caller wins.
func (b *Builder) SetTitle(t string) {
	b.mu.Lock()
	b.title = t
	b.mu.Unlock()
}

// Title returns a fully formed <title> tag.
func (b *Builder) Title() template.HTML {
	b.mu.Lock()
	t := b.title
	b.mu.Unlock()
	full := SiteName
	if t != "" {
		full = t + " | " + SiteName
	}
	return template.HTML("<title>" + template.HTMLEscapeString(full) + "</title>")
}

// Description adds <meta name="description">.
func (b *Builder) Description(s string) {
	b.Meta(`<meta name="description" content="` + template.HTMLEscapeString(s) + `">`)
}

// Meta adds a pre-escaped tag once; repeats are ignored.
func (b *Builder) Meta(tag string) {
	b.mu.Lock()
	defer b.mu.Unlock()
	if _, dup := b.seen[tag]; dup {
		return
	}
	b.seen[tag] = struct{}{}
	b.metas = append(b.metas, tag)
}

// Metas joins the collected tags for the layout.
func (b *Builder) Metas() template.HTML {
	b.mu.Lock()
	defer b.mu.Unlock()
	return template.HTML(strings.Join(b.metas, ""))
}
