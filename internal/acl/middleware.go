// internal/acl/middleware.go
//
// Chi middleware helpers that enforce role checks.

package acl

import (
	"net/http"

	"github.com/toescalado/escalado/internal/auth"
	"github.com/toescalado/escalado/internal/logger"
)

// RequireRole ensures the current user possesses ANY of the supplied roles.
func RequireRole(names ...string) func(http.Handler) http.Handler {
	if len(names) == 0 {
		panic("acl.RequireRole: at least one role name must be supplied")
	}
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			p, ok := auth.FromContext(r.Context())
			if !ok {
				http.Error(w, http.StatusText(http.StatusUnauthorized), http.StatusUnauthorized)
				return
			}
			if p.HasRole(names...) {
				next.ServeHTTP(w, r)
				return
			}
			logger.FromContext(r.Context()).Infow("acl denied", "user", p.ID, "need", names)
			http.Error(w, http.StatusText(http.StatusForbidden), http.StatusForbidden)
		})
	}
}
