// internal/widget/registry.go
//
// Widget registry and lookup helpers.
//
// A **Widget** is a reusable view fragment rendered inside a page.  Each
// concrete widget lives under its component folder
// (`components/<comp>/widgets/<name>.go`) and registers itself by calling
// `widget.Register(&MyWidget{})` in an init() func.  Forms register one
// widget per definition (see internal/form/widget.go).
//
// The key used for registration is `<component>/<widget>`, e.g.
// "home/navheader", and must be returned by the widget’s `ID` method.
//
// Template authors embed a widget with:
//
//	{{ widget "home/navheader" (dict "page" .Ctx.State.Page) }}
package widget

import (
	"sort"
	"sync"
)

// Widget represents a view fragment that can be embedded inside any page
// template.  Render receives the request's *view.Context as rctx (typed as
// any to keep this package free of view imports) and returns HTML plus a
// view.CachePolicy hint.
//
// Render MUST be concurrency‑safe; multiple goroutines may call it.
type Widget interface {
	ID() string
	Render(rctx any, params map[string]any) (html string, policy int, err error)
}

var (
	mu       sync.RWMutex
	registry = map[string]Widget{}
)

// Register a widget during init().  A duplicate key overwrites the former
// entry.
func Register(w Widget) {
	mu.Lock()
	registry[w.ID()] = w
	mu.Unlock()
}

// Lookup returns the widget or nil.
func Lookup(key string) Widget {
	mu.RLock()
	defer mu.RUnlock()
	return registry[key]
}

// Keys returns the registered keys in sorted order.
func Keys() []string {
	mu.RLock()
	defer mu.RUnlock()
	out := make([]string, 0, len(registry))
	for k := range registry {
		out = append(out, k)
	}
	sort.Strings(out)
	return out
}
