package component

import (
	"net/http"

	"github.com/toescalado/escalado/internal/form"
)

// FormData is what every form page template receives as .Data.
type FormData struct {
	Prefill  map[string]string
	Selected map[string][]string
	Choices  map[string][]form.Choice
	Errors   map[string]string
	Success  string
	Extra    any
}

// Prefill copies the posted values of r for re-rendering, dropping the
// named fields (passwords) and the form plumbing.
func Prefill(r *http.Request, skip ...string) map[string]string {
	out := map[string]string{}
	drop := map[string]bool{"csrf_token": true, "render_ts": true, "current_step": true}
	for _, s := range skip {
		drop[s] = true
	}
	for k, v := range r.PostForm {
		if drop[k] || len(v) == 0 {
			continue
		}
		out[k] = v[0]
	}
	return out
}

// FormError puts msg in the form-level error slot.
func FormError(msg string) map[string]string {
	return map[string]string{"": msg}
}

// Fallback returns msg, or def when msg is blank.
func Fallback(msg, def string) string {
	if msg == "" {
		return def
	}
	return msg
}
