// cmd/web/main.go
//
// Tô Escalado – HTTP entry point.
//
// Boot sequence
// -------------
//
//  1. Console logger for early boot, then configuration (conf/.env,
//     conf/global.yaml, ESCALADO_* env), resolving `vault:` references
//     when VAULT_ADDR is set.
//
//  2. Daily rotating file logger (tees to console when running in a TTY).
//
//  3. Backend client, auth service, and profile store.  The store talks
//     to Postgres directly when database.dsn is set, else to the REST
//     endpoint.
//
//  4. Session store, form secrets, and the optional GeoLite2 reader.
//
//  5. Root router:
//
//     • ForceHTTPS            – 308 to https unless local
//     • Security headers
//     • requestinfo.Enrich    – UA + geo in the request context
//     • AccessLog             – request id, zap line, Prometheus counters
//     • routing.Middleware    – friendly aliases such as /perfil
//     • sessions.Middleware   – cookie → session entry
//     • component routes      – one page per component
//
//  6. /metrics, /healthz, and theme assets sit beside the pages.
//
//  7. Serve until SIGINT/SIGTERM, then shut down gracefully.
//
// Large comment blocks are framed by blank “//” lines; inline comments use
// a single “//”.
package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"github.com/toescalado/escalado/internal/app"
	"github.com/toescalado/escalado/internal/authservice"
	"github.com/toescalado/escalado/internal/component"
	"github.com/toescalado/escalado/internal/config"
	"github.com/toescalado/escalado/internal/database"
	"github.com/toescalado/escalado/internal/form"
	"github.com/toescalado/escalado/internal/logger"
	"github.com/toescalado/escalado/internal/middleware"
	"github.com/toescalado/escalado/internal/profile"
	"github.com/toescalado/escalado/internal/requestinfo"
	"github.com/toescalado/escalado/internal/routing"
	"github.com/toescalado/escalado/internal/server"
	"github.com/toescalado/escalado/internal/session"
	"github.com/toescalado/escalado/internal/supabase"
	"github.com/toescalado/escalado/internal/theme"
	"github.com/toescalado/escalado/internal/vault"

	_ "github.com/toescalado/escalado/components/agenda"
	_ "github.com/toescalado/escalado/components/auth"
	_ "github.com/toescalado/escalado/components/editprofile"
	_ "github.com/toescalado/escalado/components/graphics"
	_ "github.com/toescalado/escalado/components/home"
	_ "github.com/toescalado/escalado/components/onboarding"
)

const (
	// authPerMinute and authBurst bound credential POSTs per client IP.
	authPerMinute = 10
	authBurst     = 5

	directoryTTL = 5 * time.Minute
	aliasTTL     = 10 * time.Minute
	shutdownWait = 15 * time.Second
)

// runningInTTY returns true when stdout is a character device.
func runningInTTY() bool {
	fi, err := os.Stdout.Stat()
	if err != nil {
		return false
	}
	return fi.Mode()&os.ModeCharDevice != 0
}

func main() {
	zap.ReplaceGlobals(logger.Console(zapcore.InfoLevel).Desugar())

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := run(ctx); err != nil {
		zap.S().Fatalw("server stopped", "err", err)
	}
}

func run(ctx context.Context) error {
	//
	// ── 1.  Configuration ───────────────────────────────────────────────
	//
	var secrets config.SecretResolver
	if vault.Enabled() {
		vc, err := vault.New(ctx)
		if err != nil {
			return err
		}
		secrets = vc
	}
	cfg, err := config.LoadFrom(ctx, config.RootDir(), secrets)
	if err != nil {
		return err
	}

	//
	// ── 2.  File logger ─────────────────────────────────────────────────
	//
	log, err := logger.New(cfg.Paths.Root, runningInTTY())
	if err != nil {
		return err
	}
	defer func() { _ = log.Sync() }()

	//
	// ── 3.  Backend, auth, profiles ─────────────────────────────────────
	//
	client, err := supabase.New(supabase.Options{
		URL:     cfg.Backend.URL,
		AnonKey: cfg.Backend.AnonKey,
		Timeout: cfg.Backend.Timeout,
	})
	if err != nil {
		return err
	}
	publicURL := cfg.HTTP.PublicURL
	auth := authservice.New(client, publicURL)

	var store profile.Store = profile.NewRESTStore(client)
	if cfg.Database.DSN != "" {
		db, err := database.OpenWithOptions(ctx, cfg.Database.DSN, cfg.Database.MaxOpen, cfg.Database.MaxIdle)
		if err != nil {
			return err
		}
		defer db.Close()
		store = profile.NewSQLStore(db)
		log.Infow("profile store", "kind", "sql")
	} else {
		log.Infow("profile store", "kind", "rest")
	}

	//
	// ── 4.  Sessions, forms, geo ────────────────────────────────────────
	//
	sessions := session.NewStore(session.Options{
		CookieName: cfg.Session.CookieName,
		TTL:        cfg.Session.TTL,
		Secure:     cfg.Session.Secure,
	})
	form.SetSecret(cfg.Forms.CSRFKey)
	form.SetTiming(cfg.Forms.MinFillTime, cfg.Forms.MaxFillTime)

	if err := requestinfo.InitGeo(cfg.GeoIP.Path); err != nil {
		log.Warnw("geo lookups disabled", "err", err)
	}
	defer requestinfo.CloseGeo()

	th := theme.New(cfg.Theme.Name, filepath.Join(cfg.Paths.Root, "themes", cfg.Theme.Name))

	aliases := routing.NewAliasCache(routing.StaticSource(cfg.Routing.Aliases), aliasTTL)
	if err := aliases.Load(ctx); err != nil {
		log.Warnw("alias load failed", "err", err)
	}

	//
	// ── 5.  Root router ─────────────────────────────────────────────────
	//
	r := chi.NewRouter()
	r.Use(
		middleware.ForceHTTPS(cfg.HTTP.ForceHTTPS),
		middleware.Security(cfg.HTTP.ForceHTTPS),
		requestinfo.Enrich,
		middleware.AccessLog(log),
		routing.Middleware(cfg.Routing.Mode, aliases),
	)

	//
	// ── 6.  Infrastructure endpoints ────────────────────────────────────
	//
	r.Handle("/metrics", promhttp.Handler())
	r.Get("/healthz", func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Content-Type", "text/plain; charset=utf-8")
		_, _ = w.Write([]byte("ok\n"))
	})
	r.Handle(th.AssetPrefix()+"*", th.AssetHandler())

	deps := &component.Deps{
		Auth:      auth,
		Profiles:  store,
		Directory: profile.NewDirectory(store, directoryTTL),
		Router:    app.NewRouter(auth, store, app.Guard(cfg.Router.Guard)),
		Sessions:  sessions,
		Theme:     th,
		AuthLimit: middleware.RateLimit(authPerMinute, authBurst, http.MethodPost),
	}
	pages := r.With(sessions.Middleware)
	if err := component.Mount(pages, deps); err != nil {
		return err
	}
	log.Infow("components mounted", "count", len(component.All()), "guard", deps.Router.Guard())

	//
	// ── 7.  Serve ───────────────────────────────────────────────────────
	//
	srv := server.New(cfg.HTTP, r)
	errc := make(chan error, 1)
	go func() {
		log.Infow("listening", "addr", srv.Addr)
		errc <- srv.ListenAndServe()
	}()

	select {
	case err := <-errc:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	case <-ctx.Done():
	}

	log.Info("shutting down")
	sctx, cancel := context.WithTimeout(context.Background(), shutdownWait)
	defer cancel()
	return srv.Shutdown(sctx)
}
