// internal/config/loader.go
//
// Configuration loader and hot-reloader.
//
/*
Context
--------
`Load()` builds one immutable `Config` struct from three layers (highest
precedence last):

  1. Optional `<root>/conf/.env`.
  2. Optional `<root>/conf/global.yaml`.
  3. Environment variables prefixed `ESCALADO_`, where `__` maps to “.”
     (e.g., `ESCALADO_BACKEND__ANON_KEY → backend.anon_key`).

Defaults are written into the struct first, the merged tree is unmarshalled
on top, compatibility variables (`SUPABASE_URL`, `VITE_SUPABASE_URL`, and
their anon-key twins) fill a still-empty backend block, `vault:` references
are resolved, and the result is validated.  Callers own the returned
*Config; nothing is cached at package level.

Instrumentation
---------------
  • DEBUG spans  – root discovery, YAML read, env overlay.
  • ERROR spans  – YAML parse, env overlay, unmarshal, validation failures.
  • WARN  span   – missing backend URL or anon key.
  • INFO  span   – final “config loaded” with key highlights.
  • Logs use the global sugared logger (`zap.S()`) so early boot issues
    surface even before the file logger is installed.

Notes
-----
  • `rootDir()` climbs the cwd tree until it finds a `conf/` directory so
    `go run ./cmd/web` works from any sub-directory.
*/
package config

import (
	"context"
	"errors"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/providers/file"
	koanf "github.com/knadh/koanf/v2"
	"go.uber.org/zap"
)

// EnvPrefix is the namespace for environment overrides.
const EnvPrefix = "ESCALADO_"

/*──────────────────────────── root discovery ───────────────────────────────*/

// rootDir resolves ESCALADO_ROOT or climbs directories until conf/ is found.
// Falls back to the executable heuristic for the production layout.
func rootDir() string {
	if r := os.Getenv(EnvPrefix + "ROOT"); r != "" {
		return r
	}

	wd, _ := os.Getwd()
	dir := wd
	for {
		if fi, err := os.Stat(filepath.Join(dir, "conf")); err == nil && fi.IsDir() {
			return dir
		}
		parent := filepath.Dir(dir)
		if parent == dir { // reached filesystem root
			break
		}
		dir = parent
	}

	exe, _ := os.Executable()
	if filepath.Base(filepath.Dir(exe)) == "bin" {
		return filepath.Dir(filepath.Dir(exe))
	}
	return wd
}

// RootDir is the directory Load reads conf/ from.
func RootDir() string { return rootDir() }

/*─────────────────────────────── defaults ─────────────────────────────────*/

func defaults() Config {
	return Config{
		HTTP: HTTP{
			ListenAddr:   ":8080",
			ReadTimeout:  10 * time.Second,
			WriteTimeout: 15 * time.Second,
			IdleTimeout:  60 * time.Second,
		},
		Backend:  Backend{Timeout: 10 * time.Second},
		Database: Database{MaxOpen: 15, MaxIdle: 5},
		Session: Session{
			CookieName: "escalado_session",
			TTL:        14 * 24 * time.Hour,
		},
		Router:  Router{Guard: "all"},
		Routing: Routing{Mode: "both"},
		Forms: Forms{
			MinFillTime: 2 * time.Second,
			MaxFillTime: 30 * time.Minute,
		},
		Theme: Theme{Name: "default"},
	}
}

/*─────────────────────────────── loader ───────────────────────────────────*/

// Load reads .env, YAML, and env overrides from the discovered root.
func Load() (*Config, error) {
	return LoadFrom(context.Background(), rootDir(), nil)
}

// LoadFrom is Load with an explicit root directory and an optional secret
// resolver for `vault:` references.  A nil resolver leaves references
// untouched and logs a warning for each one.
func LoadFrom(ctx context.Context, root string, sec SecretResolver) (*Config, error) {
	zap.S().Debugw("config root resolved", "root", root)

	// .env (optional, no error if missing)
	_ = godotenv.Load(filepath.Join(root, "conf", ".env"))

	k := koanf.New(".")

	yamlPath := filepath.Join(root, "conf", "global.yaml")
	if err := k.Load(file.Provider(yamlPath), yaml.Parser()); err != nil {
		if !errors.Is(err, fs.ErrNotExist) {
			zap.S().Errorw("config yaml load failed", "file", yamlPath, "err", err)
			return nil, err
		}
		zap.S().Debugw("config yaml absent, using defaults", "file", yamlPath)
	} else {
		zap.S().Debugw("config yaml loaded", "file", yamlPath)
	}

	// Env overrides: ESCALADO_BACKEND__ANON_KEY → backend.anon_key
	if err := k.Load(env.Provider(EnvPrefix, ".", func(s string) string {
		s = strings.TrimPrefix(s, EnvPrefix)
		return strings.ToLower(strings.ReplaceAll(s, "__", "."))
	}), nil); err != nil {
		zap.S().Errorw("config env overlay failed", "err", err)
		return nil, err
	}

	cfg := defaults()
	if err := k.Unmarshal("", &cfg); err != nil {
		zap.S().Errorw("config unmarshal failed", "err", err)
		return nil, err
	}

	applyCompatEnv(&cfg.Backend)
	if err := resolveSecrets(ctx, &cfg, sec); err != nil {
		zap.S().Errorw("config secret resolution failed", "err", err)
		return nil, err
	}

	cfg.Paths.Root = root
	if err := validateStruct(&cfg); err != nil {
		zap.S().Errorw("config validation failed", "err", err)
		return nil, err
	}

	if cfg.Backend.URL == "" || cfg.Backend.AnonKey == "" {
		zap.S().Warnw("backend url or anon key missing; backend calls will fail",
			"url_set", cfg.Backend.URL != "",
			"anon_key_set", cfg.Backend.AnonKey != "",
		)
	}

	zap.S().Infow("config loaded",
		"listen_addr", cfg.HTTP.ListenAddr,
		"force_https", cfg.HTTP.ForceHTTPS,
		"backend", cfg.Backend.URL,
		"direct_db", cfg.Database.DSN != "",
		"guard", cfg.Router.Guard,
		"root", cfg.Paths.Root,
	)
	return &cfg, nil
}

// applyCompatEnv fills an empty backend block from the variable names the
// browser build and the maintenance scripts have always used.
func applyCompatEnv(b *Backend) {
	if b.URL == "" {
		b.URL = firstEnv("SUPABASE_URL", "VITE_SUPABASE_URL")
	}
	if b.AnonKey == "" {
		b.AnonKey = firstEnv("SUPABASE_ANON_KEY", "VITE_SUPABASE_ANON_KEY")
	}
}

func firstEnv(names ...string) string {
	for _, n := range names {
		if v := strings.TrimSpace(os.Getenv(n)); v != "" {
			return v
		}
	}
	return ""
}
