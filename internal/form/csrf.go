// internal/form/csrf.go
//
// Forms subsystem: stateless CSRF token utilities.
//
// Context
//   Pages embed a hidden `csrf_token` input generated at render time.  The
//   server verifies this token on POST to ensure the request originated
//   from a form it rendered.  The token is stateless:
//
//      base64url( nonce | unixMicro | HMAC_SHA256(secret, nonce+unixMicro) )
//
//   Validation checks the signature and ensures the timestamp is within
//   maxAge.  No server-side storage is required.
//
// Workflow
//   •  SetSecret(key)   → called once from main with forms.csrf_key.
//   •  GenerateToken()  → returns token string for renderer.
//   •  VerifyToken(tok) → constant-time verify; false on any failure.
//
//------------------------------------------------------------------------------

package form

import (
	"crypto/hmac"
	"crypto/rand"
	"crypto/sha256"
	"encoding/base64"
	"encoding/binary"
	"sync"
	"time"

	"go.uber.org/zap"
)

const (
	tokenBytes = 16 + 8 + sha256.Size // nonce + ts + sig
	maxAge     = 2 * time.Hour
)

var (
	secretMu  sync.RWMutex
	secretKey []byte
)

// SetSecret installs the HMAC key.  Keys shorter than 32 bytes are
// rejected and a random key is used instead; that key resets on restart.
func SetSecret(key string) {
	secretMu.Lock()
	defer secretMu.Unlock()
	if b, err := base64.RawURLEncoding.DecodeString(key); err == nil && len(b) >= 32 {
		secretKey = b
		return
	}
	if len(key) >= 32 {
		secretKey = []byte(key)
		return
	}
	secretKey = randomKey()
	zap.S().Warn("forms.csrf_key not set or too short; using a random key")
}

// GenerateToken creates a new CSRF token.  Call once per form render.
func GenerateToken() (string, error) {
	sec := fetchSecret()

	nonce := make([]byte, 16)
	if _, err := rand.Read(nonce); err != nil {
		return "", err
	}

	ts := make([]byte, 8)
	binary.BigEndian.PutUint64(ts, uint64(time.Now().UnixMicro()))

	mac := hmac.New(sha256.New, sec)
	mac.Write(nonce)
	mac.Write(ts)
	sig := mac.Sum(nil)

	buf := make([]byte, 0, tokenBytes)
	buf = append(buf, nonce...)
	buf = append(buf, ts...)
	buf = append(buf, sig...)

	return base64.RawURLEncoding.EncodeToString(buf), nil
}

// VerifyToken returns true if tok passes HMAC and age checks.
func VerifyToken(tok string) bool {
	sec := fetchSecret()

	raw, err := base64.RawURLEncoding.DecodeString(tok)
	if err != nil || len(raw) != tokenBytes {
		return false
	}

	nonce := raw[:16]
	tsBytes := raw[16:24]
	sig := raw[24:]

	issued := time.UnixMicro(int64(binary.BigEndian.Uint64(tsBytes)))
	if time.Since(issued) > maxAge || time.Until(issued) > time.Minute {
		return false
	}

	mac := hmac.New(sha256.New, sec)
	mac.Write(nonce)
	mac.Write(tsBytes)
	return hmac.Equal(sig, mac.Sum(nil))
}

// fetchSecret returns the key, generating an ephemeral one on first use
// when SetSecret was never called (tests, tools).
func fetchSecret() []byte {
	secretMu.RLock()
	k := secretKey
	secretMu.RUnlock()
	if k != nil {
		return k
	}
	secretMu.Lock()
	defer secretMu.Unlock()
	if secretKey == nil {
		secretKey = randomKey()
	}
	return secretKey
}

func randomKey() []byte {
	k := make([]byte, 32)
	_, _ = rand.Read(k)
	return k
}
