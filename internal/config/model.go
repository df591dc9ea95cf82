// internal/config/model.go
//
// Typed configuration model for Tô Escalado.
//
// Context
// -------
// These structs define the shape of the configuration tree that
// `internal/config/loader.go` builds from three overlay layers:
//
//   • optional `conf/.env`                        – dotenv values,
//   • optional `conf/global.yaml`                 – primary static file,
//   • `ESCALADO_`-prefixed environment overrides  – highest precedence.
//
// Any string value that begins with `vault:` is resolved through the Vault
// client after unmarshalling (see resolve.go), so downstream code only ever
// sees plain strings.
//
// Notes
// -----
//   • Struct tags use `koanf:"…"`; Koanf ignores `yaml` tags.
//   • The `Paths` block is filled at runtime; YAML must not try to set it.

package config

import "time"

//
// HTTP section
//

// HTTP holds web-server tunables.
type HTTP struct {
	ListenAddr   string        `koanf:"listen_addr"   validate:"required,hostname_port"`
	ForceHTTPS   bool          `koanf:"force_https"`
	PublicURL    string        `koanf:"public_url"    validate:"omitempty,url"`
	ReadTimeout  time.Duration `koanf:"read_timeout"`
	WriteTimeout time.Duration `koanf:"write_timeout"`
	IdleTimeout  time.Duration `koanf:"idle_timeout"`
}

//
// Backend section
//

// Backend points at the hosted auth + REST service.  URL and AnonKey may be
// blank; the loader only warns because requests will then fail at the
// network layer, which is how the app has always behaved.
type Backend struct {
	URL     string        `koanf:"url"      validate:"omitempty,url"`
	AnonKey string        `koanf:"anon_key"`
	Timeout time.Duration `koanf:"timeout"  validate:"gte=0"`
}

//
// Database section
//

// Database is optional.  When DSN is set the profile store talks to Postgres
// directly instead of going through the REST endpoint.
type Database struct {
	DSN     string `koanf:"dsn"`
	MaxOpen int    `koanf:"max_open" validate:"gte=0"`
	MaxIdle int    `koanf:"max_idle" validate:"gte=0"`
}

//
// Session section
//

// Session controls the server-side browser session store.
type Session struct {
	CookieName string        `koanf:"cookie_name" validate:"required"`
	TTL        time.Duration `koanf:"ttl"         validate:"gt=0"`
	Secure     bool          `koanf:"secure"`
}

//
// Router section
//

// Router selects the navigation guard policy.  "all" guards every page,
// "bootstrap" only applies the initial landing decision.
type Router struct {
	Guard string `koanf:"guard" validate:"oneof=all bootstrap"`
}

//
// Routing section
//

// Routing configures friendly path aliases (e.g. /perfil → /profile/edit).
type Routing struct {
	Mode    string            `koanf:"mode"    validate:"oneof=absolute alias both"`
	Aliases map[string]string `koanf:"aliases"`
}

//
// Forms section
//

// Forms tunes the form subsystem's anti-bot checks.
type Forms struct {
	CSRFKey     string        `koanf:"csrf_key"`
	MinFillTime time.Duration `koanf:"min_fill_time" validate:"gte=0"`
	MaxFillTime time.Duration `koanf:"max_fill_time" validate:"gte=0"`
}

//
// Misc sections
//

// GeoIP points at an optional GeoLite2-City database.
type GeoIP struct {
	Path string `koanf:"path"`
}

// Theme selects the on-disk template override directory.
type Theme struct {
	Name string `koanf:"name"`
}

// Paths is resolved at runtime, never set in YAML or env.
type Paths struct {
	Root string // ESCALADO_ROOT or discovered parent
}

//
// Root aggregate
//

// Config is the aggregate returned by Load and LoadFrom.  main passes it
// down explicitly; treat it as read-only after boot.
type Config struct {
	HTTP     HTTP     `koanf:"http"`
	Backend  Backend  `koanf:"backend"`
	Database Database `koanf:"database"`
	Session  Session  `koanf:"session"`
	Router   Router   `koanf:"router"`
	Routing  Routing  `koanf:"routing"`
	Forms    Forms    `koanf:"forms"`
	GeoIP    GeoIP    `koanf:"geoip"`
	Theme    Theme    `koanf:"theme"`
	Paths    Paths    `koanf:"-"`
}
