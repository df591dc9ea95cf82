// internal/middleware/accesslog.go
//
// Access log + request metrics.
//
// Each request gets a request_id (uuid v4) and a child logger carrying id,
// method, and path, stored in the context for handlers.  After the
// handler returns, one INFO line records status, duration, client IP,
// browser, device, and country, and the Prometheus counters are updated.
// Requires requestinfo.Enrich earlier in the chain for the UA/Geo fields.

package middleware

import (
	"net/http"
	"strconv"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/toescalado/escalado/internal/logger"
	"github.com/toescalado/escalado/internal/metrics"
	"github.com/toescalado/escalado/internal/requestinfo"
)

type statusWriter struct {
	http.ResponseWriter
	code  int
	bytes int
}

func (w *statusWriter) WriteHeader(code int) {
	if w.code == 0 {
		w.code = code
	}
	w.ResponseWriter.WriteHeader(code)
}

func (w *statusWriter) Write(b []byte) (int, error) {
	if w.code == 0 {
		w.code = http.StatusOK
	}
	n, err := w.ResponseWriter.Write(b)
	w.bytes += n
	return n, err
}

// AccessLog wraps next with request logging.  base may be nil, in which
// case the global logger is used.
func AccessLog(base *zap.SugaredLogger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			l := base
			if l == nil {
				l = zap.S()
			}
			reqID := r.Header.Get("X-Request-Id")
			if reqID == "" {
				reqID = uuid.NewString()
			}
			l = l.With("request_id", reqID, "method", r.Method, "path", r.URL.Path)
			w.Header().Set("X-Request-Id", reqID)

			sw := &statusWriter{ResponseWriter: w}
			start := time.Now()
			next.ServeHTTP(sw, r.WithContext(logger.WithContext(r.Context(), l)))
			d := time.Since(start)
			if sw.code == 0 {
				sw.code = http.StatusOK
			}

			metrics.HTTPRequests.WithLabelValues(r.Method, strconv.Itoa(sw.code/100)+"xx").Inc()
			metrics.HTTPDuration.Observe(d.Seconds())

			fields := []any{"status", sw.code, "bytes", sw.bytes, "duration", d}
			if info := requestinfo.FromContext(r.Context()); info != nil {
				fields = append(fields,
					"ip", info.Geo.IP,
					"browser", info.UA.Browser,
					"device", info.UA.Device,
					"country", info.Geo.CountryISO,
				)
			}
			l.Infow("request", fields...)
		})
	}
}
