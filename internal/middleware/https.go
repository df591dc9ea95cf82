// Package middleware holds small, composable HTTP wrappers.
package middleware

import (
	"net/http"
	"strings"
)

// ForceHTTPS wraps h.  When enabled and the request arrived over plain
// HTTP for a host other than localhost, the wrapper issues a 308 Permanent
// Redirect to the HTTPS version of the same URL.  Requests that a
// TLS-terminating proxy marked with X-Forwarded-Proto: https pass through.
func ForceHTTPS(enabled bool) func(http.Handler) http.Handler {
	return func(h http.Handler) http.Handler {
		if !enabled {
			return h
		}
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if r.TLS != nil || isLocal(stripPort(r.Host)) ||
				strings.EqualFold(r.Header.Get("X-Forwarded-Proto"), "https") {
				h.ServeHTTP(w, r)
				return
			}
			target := "https://" + r.Host + r.URL.RequestURI()
			http.Redirect(w, r, target, http.StatusPermanentRedirect)
		})
	}
}

func isLocal(host string) bool {
	return host == "localhost" || host == "127.0.0.1" || host == "::1" || host == "[::1]"
}

// stripPort removes the :port suffix from Host when present.
func stripPort(h string) string {
	if strings.HasPrefix(h, "[") {
		if i := strings.Index(h, "]"); i != -1 {
			return h[:i+1]
		}
	}
	if i := strings.LastIndexByte(h, ':'); i != -1 {
		return h[:i]
	}
	return h
}
