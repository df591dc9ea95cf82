// internal/requestinfo/middleware.go
//
// Enrich attaches a *RequestInfo to every request.
//
// Pages get the full treatment: UA and Accept-Language parsing plus a
// GeoLite2 lookup when a database is open.  Probe and asset paths
// (/healthz, /metrics, /themes/…) only get the client IP, URL, and
// timestamp, since nothing downstream of them reads UA or geo data and
// they make up most of the traffic behind a load balancer.
package requestinfo

import (
	"context"
	"net"
	"net/http"
	"strings"
	"time"

	"go.uber.org/zap"
)

// lightPrefixes skip UA parsing and geo lookups.
var lightPrefixes = []string{"/healthz", "/metrics", "/themes/", "/favicon.ico"}

func light(path string) bool {
	for _, p := range lightPrefixes {
		if strings.HasPrefix(path, p) {
			return true
		}
	}
	return false
}

// Collect builds the RequestInfo for r without touching its context.
func Collect(r *http.Request) *RequestInfo {
	ip := ClientIP(r)
	info := &RequestInfo{
		Geo:       Geo{IP: ip},
		URL:       r.URL,
		Timestamp: time.Now().UTC(),
	}
	if light(r.URL.Path) {
		return info
	}
	info.UA = parseUA(r.UserAgent(), r.Header.Get("Accept-Language"))
	info.Geo = lookupGeo(ip)
	return info
}

// Enrich stores Collect(r) in the request context.
func Enrich(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		info := Collect(r)
		if ce := zap.L().Check(zap.DebugLevel, "request info"); ce != nil {
			ce.Write(
				zap.Stringer("ip", info.Geo.IP),
				zap.String("country", info.Geo.CountryISO),
				zap.String("browser", info.UA.Browser),
				zap.String("device", info.UA.Device),
				zap.Bool("bot", info.UA.IsBot),
				zap.String("path", r.URL.Path),
			)
		}
		next.ServeHTTP(w, r.WithContext(context.WithValue(r.Context(), ctxKey{}, info)))
	})
}

// ClientIP returns the first parseable address in X-Forwarded-For, then
// X-Real-Ip, then the host part of RemoteAddr.  The rate limiter keys on
// the same value.
func ClientIP(r *http.Request) net.IP {
	for _, part := range strings.Split(r.Header.Get("X-Forwarded-For"), ",") {
		if ip := net.ParseIP(strings.TrimSpace(part)); ip != nil {
			return ip
		}
	}
	if ip := net.ParseIP(strings.TrimSpace(r.Header.Get("X-Real-Ip"))); ip != nil {
		return ip
	}
	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		return net.ParseIP(r.RemoteAddr)
	}
	return net.ParseIP(host)
}
