// internal/middleware/security.go
//
// Security-header middleware.
//
// Injects standard headers on every response:
//
//   • Strict-Transport-Security  –  forces HTTPS (2 years)
//   • Content-Security-Policy   –  self-only policy; avatars may come from
//                                  https: hosts (i.pravatar.cc fallback)
//   • X-Frame-Options           –  click-jacking defence
//   • X-Content-Type-Options    –  MIME-sniffing defence
//   • Referrer-Policy           –  drops path/query from Referer
//   • Permissions-Policy        –  disables powerful features by default
//
// Notes
// -----
// • Headers are set before next.ServeHTTP, because once a handler writes
//   the body the header map is frozen.  A handler may still override any
//   of them.

package middleware

import "net/http"

// Security sets security headers for every response.  hsts should be false
// for plain-HTTP development setups.
func Security(hsts bool) func(http.Handler) http.Handler {
	const (
		hstsVal = "max-age=63072000; includeSubDomains"
		csp     = "default-src 'self'; img-src 'self' data: https:; object-src 'none'; " +
			"base-uri 'self'; form-action 'self'; frame-ancestors 'none'"
		xfo   = "DENY"
		nosn  = "nosniff"
		refer = "strict-origin-when-cross-origin"
		perm  = "geolocation=(), microphone=(), camera=()"
	)

	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			h := w.Header()
			if hsts {
				h.Set("Strict-Transport-Security", hstsVal)
			}
			h.Set("Content-Security-Policy", csp)
			h.Set("X-Frame-Options", xfo)
			h.Set("X-Content-Type-Options", nosn)
			h.Set("Referrer-Policy", refer)
			h.Set("Permissions-Policy", perm)
			next.ServeHTTP(w, r)
		})
	}
}
