// internal/server/timeouts.go
//
// HTTP server helper with robust timeouts.
//
// Production hardening recommends:
//
//   • ReadTimeout   – abort slow-loris headers (10 s)
//   • WriteTimeout  – cap total response time (15 s)
//   • IdleTimeout   – close keep-alives on idle clients (60 s)
//
// The values come from the `http` config block; zero values fall back to
// the defaults above so cmd/web never starts an unbounded server.

package server

import (
	"net/http"
	"time"

	"github.com/toescalado/escalado/internal/config"
)

const (
	defaultRead  = 10 * time.Second
	defaultWrite = 15 * time.Second
	defaultIdle  = 60 * time.Second
)

// New constructs an *http.Server from the http config block.
func New(cfg config.HTTP, handler http.Handler) *http.Server {
	return &http.Server{
		Addr:              cfg.ListenAddr,
		Handler:           handler,
		ReadTimeout:       orDefault(cfg.ReadTimeout, defaultRead),
		ReadHeaderTimeout: orDefault(cfg.ReadTimeout, defaultRead),
		WriteTimeout:      orDefault(cfg.WriteTimeout, defaultWrite),
		IdleTimeout:       orDefault(cfg.IdleTimeout, defaultIdle),
	}
}

func orDefault(d, def time.Duration) time.Duration {
	if d <= 0 {
		return def
	}
	return d
}
