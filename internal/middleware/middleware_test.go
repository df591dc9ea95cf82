package middleware

import (
	"crypto/tls"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"

	"github.com/toescalado/escalado/internal/logger"
	"github.com/toescalado/escalado/internal/requestinfo"
)

var okHandler = http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
	w.WriteHeader(http.StatusOK)
})

func TestForceHTTPS(t *testing.T) {
	h := ForceHTTPS(true)(okHandler)

	rr := httptest.NewRecorder()
	h.ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "http://escala.example/agenda?x=1", nil))
	assert.Equal(t, http.StatusPermanentRedirect, rr.Code)
	assert.Equal(t, "https://escala.example/agenda?x=1", rr.Header().Get("Location"))

	for _, r := range []*http.Request{
		httptest.NewRequest(http.MethodGet, "http://localhost:8080/", nil),
		func() *http.Request {
			r := httptest.NewRequest(http.MethodGet, "http://escala.example/", nil)
			r.Header.Set("X-Forwarded-Proto", "https")
			return r
		}(),
		func() *http.Request {
			r := httptest.NewRequest(http.MethodGet, "https://escala.example/", nil)
			r.TLS = &tls.ConnectionState{}
			return r
		}(),
	} {
		rr := httptest.NewRecorder()
		h.ServeHTTP(rr, r)
		assert.Equal(t, http.StatusOK, rr.Code, r.URL.String())
	}

	rr = httptest.NewRecorder()
	ForceHTTPS(false)(okHandler).ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "http://escala.example/", nil))
	assert.Equal(t, http.StatusOK, rr.Code)
}

func TestSecurityHeaders(t *testing.T) {
	rr := httptest.NewRecorder()
	Security(false)(okHandler).ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/", nil))
	assert.Equal(t, "DENY", rr.Header().Get("X-Frame-Options"))
	assert.Contains(t, rr.Header().Get("Content-Security-Policy"), "img-src 'self' data: https:")
	assert.Empty(t, rr.Header().Get("Strict-Transport-Security"))

	rr = httptest.NewRecorder()
	Security(true)(okHandler).ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/", nil))
	assert.NotEmpty(t, rr.Header().Get("Strict-Transport-Security"))
}

func TestRateLimit(t *testing.T) {
	h := RateLimit(1, 2, http.MethodPost)(okHandler)

	codes := make([]int, 0, 3)
	for i := 0; i < 3; i++ {
		r := httptest.NewRequest(http.MethodPost, "/login", nil)
		r.RemoteAddr = "192.0.2.10:1000"
		rr := httptest.NewRecorder()
		h.ServeHTTP(rr, r)
		codes = append(codes, rr.Code)
	}
	assert.Equal(t, []int{200, 200, 429}, codes)

	// Other clients and unlimited methods are unaffected.
	r := httptest.NewRequest(http.MethodPost, "/login", nil)
	r.RemoteAddr = "192.0.2.11:1000"
	rr := httptest.NewRecorder()
	h.ServeHTTP(rr, r)
	assert.Equal(t, http.StatusOK, rr.Code)

	r = httptest.NewRequest(http.MethodGet, "/login", nil)
	r.RemoteAddr = "192.0.2.10:1000"
	rr = httptest.NewRecorder()
	h.ServeHTTP(rr, r)
	assert.Equal(t, http.StatusOK, rr.Code)
}

func TestAccessLog(t *testing.T) {
	core, logs := observer.New(zapcore.InfoLevel)
	base := zap.New(core).Sugar()

	var fromCtx *zap.SugaredLogger
	h := requestinfo.Enrich(AccessLog(base)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		fromCtx = logger.FromContext(r.Context())
		w.WriteHeader(http.StatusTeapot)
	})))

	rr := httptest.NewRecorder()
	h.ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/graphics", nil))

	assert.NotNil(t, fromCtx)
	assert.NotEmpty(t, rr.Header().Get("X-Request-Id"))
	entries := logs.FilterMessage("request").All()
	if assert.Len(t, entries, 1) {
		ctx := entries[0].ContextMap()
		assert.EqualValues(t, http.StatusTeapot, ctx["status"])
		assert.Equal(t, "/graphics", ctx["path"])
	}
}
