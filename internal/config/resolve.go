// internal/config/resolve.go
//
// `vault:` reference resolution.
//
// A config string of the form `vault:<mount>/<path>#<key>` is replaced by
// the secret value before validation.  Only the fields that can carry
// credentials are inspected.

package config

import (
	"context"
	"fmt"
	"strings"
	"time"

	"go.uber.org/zap"
)

const vaultPrefix = "vault:"

// secretTTL caches resolved values inside the Vault client between loads.
const secretTTL = 5 * time.Minute

// SecretResolver is satisfied by *vault.Client.
type SecretResolver interface {
	GetKV(ctx context.Context, secretPath, key string, ttl time.Duration) (string, error)
}

// ParseRef splits `vault:secret/escalado#anon_key` into path and key.  ok is
// false when s is not a vault reference.
func ParseRef(s string) (path, key string, ok bool) {
	if !strings.HasPrefix(s, vaultPrefix) {
		return "", "", false
	}
	ref := strings.TrimPrefix(s, vaultPrefix)
	i := strings.LastIndexByte(ref, '#')
	if i <= 0 || i == len(ref)-1 {
		return "", "", false
	}
	return ref[:i], ref[i+1:], true
}

func resolveSecrets(ctx context.Context, c *Config, sec SecretResolver) error {
	fields := map[string]*string{
		"backend.anon_key": &c.Backend.AnonKey,
		"database.dsn":     &c.Database.DSN,
		"forms.csrf_key":   &c.Forms.CSRFKey,
	}
	for name, ptr := range fields {
		if !strings.HasPrefix(*ptr, vaultPrefix) {
			continue
		}
		path, key, ok := ParseRef(*ptr)
		if !ok {
			return fmt.Errorf("%s: malformed vault reference", name)
		}
		if sec == nil {
			zap.S().Warnw("vault reference left unresolved; VAULT_ADDR not set", "field", name)
			*ptr = ""
			continue
		}
		val, err := sec.GetKV(ctx, path, key, secretTTL)
		if err != nil {
			return fmt.Errorf("%s: %w", name, err)
		}
		*ptr = val
	}
	return nil
}
