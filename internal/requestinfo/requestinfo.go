//
//  internal/requestinfo/requestinfo.go
//
//  Lightweight types and helpers that collect per-request metadata
//  (user-agent fingerprint, IP + geolocation, URL, and timestamp).
//  These structs are inert.  They contain no pointers to database
//  handles or large buffers, so they are safe to log or JSON-encode.
//
//  Dependencies
//  • internal/ua over github.com/avct/uasurfer (UA parsing)
//  • github.com/oschwald/geoip2-golang (MaxMind lookup, optional)
//

package requestinfo

import (
	"context"
	"fmt"
	"net"
	"net/url"
	"strings"
	"time"

	"github.com/oschwald/geoip2-golang"

	"github.com/toescalado/escalado/internal/ua"
)

//
//  -----------------------------
//  Struct definitions
//  -----------------------------
//

// UA is the parsed User-Agent plus the visitor's preferred language.
// Browser, Device, IsBot, and the rest are promoted from ua.Info.
type UA struct {
	ua.Info
	PrimaryLang string // first Accept-Language tag, lower-cased ("pt-br")
}

// Geo holds IP-based geolocation hints.
// These are best-effort and may be empty if the DB has no match.
type Geo struct {
	IP         net.IP // Original client address (not X-Forwarded-For chain)
	CountryISO string // "US", "CA", "FR", ...
	City       string // "Chicago", "Paris", ...
}

// RequestInfo is attached to the request context and copied into
// view.Context, so it is visible to components, widgets, and templates.
type RequestInfo struct {
	UA        UA
	Geo       Geo
	URL       *url.URL // Pointer copy, safe to dereference read-only
	Timestamp time.Time
}

//
//  -----------------------------
//  Package-level state
//  -----------------------------
//

// geoReader is a singleton MaxMind handle.  It is safe for concurrent
// reads, which is all we ever perform.  Nil means geo lookups are off.
var geoReader *geoip2.Reader

// InitGeo opens the GeoLite2-City database named by geoip.path.  An empty
// path disables lookups; Geo then carries only the IP.
func InitGeo(dbPath string) error {
	if dbPath == "" {
		return nil
	}
	r, err := geoip2.Open(dbPath)
	if err != nil {
		return fmt.Errorf("requestinfo: open GeoLite2 DB: %w", err)
	}
	geoReader = r
	return nil
}

// CloseGeo releases the reader opened by InitGeo.
func CloseGeo() {
	if geoReader != nil {
		_ = geoReader.Close()
		geoReader = nil
	}
}

//
//  -----------------------------
//  Public helper: FromContext
//  -----------------------------
//
//  The Enrich middleware stores *RequestInfo in the request context so
//  handlers and the access log can read it without reparsing.
//

type ctxKey struct{} // unexported, collision-proof

// FromContext returns the pointer previously stored by Enrich.
// It returns nil if the middleware has not run.
func FromContext(ctx context.Context) *RequestInfo {
	v, _ := ctx.Value(ctxKey{}).(*RequestInfo)
	return v
}

//
//  -----------------------------
//  Internal helpers
//  -----------------------------
//

// parseUA converts a raw header into our UA struct.
func parseUA(uaHeader, acceptLang string) UA {
	return UA{Info: ua.Parse(uaHeader), PrimaryLang: primaryLang(acceptLang)}
}

// primaryLang extracts the first language subtag before any ";q=" rule.
func primaryLang(al string) string {
	if al == "" {
		return ""
	}
	parts := strings.Split(al, ",")
	tag := strings.TrimSpace(parts[0])
	if i := strings.Index(tag, ";"); i != -1 {
		tag = tag[:i]
	}
	return strings.ToLower(tag)
}

// lookupGeo returns best-effort Geo data using the global reader.
func lookupGeo(ip net.IP) Geo {
	if geoReader == nil || ip == nil {
		return Geo{IP: ip}
	}
	rec, err := geoReader.City(ip)
	if err != nil {
		return Geo{IP: ip}
	}
	return Geo{
		IP:         ip,
		CountryISO: rec.Country.IsoCode,
		City:       rec.City.Names["en"],
	}
}
