// internal/vault/vault.go
//
// Vault client wrapper.
//
// Context
// -------
//   - Concurrency-safe wrapper around the HashiCorp Vault Go SDK.
//   - Background token renewal, a KV-v2 read helper, and per-key caching.
//   - The config loader uses it to resolve `vault:<path>#<key>` values such
//     as the backend anon key or the Postgres DSN.
//
// Public workflow
// ---------------
//  1. cli, err := vault.New(ctx)                   // during boot, only when VAULT_ADDR is set.
//  2. val, err := cli.GetKV(ctx, path, key, ttl)   // anywhere in the app.
package vault

import (
	"context"
	"errors"
	"fmt"
	"os"
	"strings"
	"sync"
	"time"

	vault "github.com/hashicorp/vault/api"
	"go.uber.org/zap"
)

// Client is safe for concurrent use.  Zero value is invalid.
type Client struct {
	api *vault.Client

	cacheMu sync.RWMutex
	cache   map[string]cached // path#key → value + expiry
}

type cached struct {
	val string
	exp time.Time
}

// Enabled reports whether the environment points at a Vault server.
func Enabled() bool { return os.Getenv("VAULT_ADDR") != "" }

// New constructs a client from VAULT_ADDR / VAULT_TOKEN and starts the
// token-renewal loop, which stops when ctx is cancelled.
func New(ctx context.Context) (*Client, error) {
	cfg := vault.DefaultConfig()
	if err := cfg.ReadEnvironment(); err != nil {
		return nil, fmt.Errorf("vault env cfg: %w", err)
	}

	apiCli, err := vault.NewClient(cfg)
	if err != nil {
		return nil, fmt.Errorf("vault api: %w", err)
	}
	if tok := os.Getenv("VAULT_TOKEN"); tok != "" {
		apiCli.SetToken(tok)
	}

	c := &Client{api: apiCli, cache: make(map[string]cached)}
	go c.renewLoop(ctx)
	return c, nil
}

// GetKV fetches a single key from a KV-v2 secret.  When ttl > 0 the value is
// cached for that long.
func (c *Client) GetKV(ctx context.Context, secretPath, key string, ttl time.Duration) (string, error) {
	if secretPath == "" || key == "" {
		return "", errors.New("secret path and key must be non-empty")
	}
	canonical := secretPath + "#" + key

	if ttl > 0 {
		c.cacheMu.RLock()
		cv, ok := c.cache[canonical]
		c.cacheMu.RUnlock()
		if ok && time.Now().Before(cv.exp) {
			return cv.val, nil
		}
	}

	mount, rel := splitMount(secretPath)
	sec, err := c.api.KVv2(mount).Get(ctx, rel)
	if err != nil {
		return "", fmt.Errorf("vault get %s: %w", secretPath, err)
	}

	raw, ok := sec.Data[key]
	if !ok {
		return "", fmt.Errorf("key %q not found in secret %q", key, secretPath)
	}
	sval, ok := raw.(string)
	if !ok {
		return "", fmt.Errorf("value at %s is not a string", canonical)
	}

	if ttl > 0 {
		c.cacheMu.Lock()
		c.cache[canonical] = cached{val: sval, exp: time.Now().Add(ttl)}
		c.cacheMu.Unlock()
	}
	return sval, nil
}

/*──────────────────────── token renewal ───────────────────────────────────*/

func (c *Client) renewLoop(ctx context.Context) {
	for ctx.Err() == nil {
		wait := c.renewOnce(ctx)
		backoff(ctx, wait)
	}
}

// renewOnce watches one renewer until it finishes and returns how long to
// wait before trying again.
func (c *Client) renewOnce(ctx context.Context) time.Duration {
	sec, err := c.api.Auth().Token().RenewSelfWithContext(ctx, 0)
	if err != nil {
		zap.S().Warnw("vault token renew-self failed", "err", err)
		return 30 * time.Second
	}
	if sec == nil || sec.Auth == nil || !sec.Auth.Renewable {
		zap.S().Debugw("vault token not renewable")
		return time.Hour
	}

	watcher, err := c.api.NewLifetimeWatcher(&vault.LifetimeWatcherInput{Secret: sec})
	if err != nil {
		zap.S().Warnw("vault lifetime watcher init failed", "err", err)
		return 30 * time.Second
	}
	go watcher.Start()
	defer watcher.Stop()

	for {
		select {
		case <-ctx.Done():
			return 0
		case err := <-watcher.DoneCh():
			if err != nil {
				zap.S().Warnw("vault token renewal stopped", "err", err)
			}
			return 15 * time.Second
		case ev := <-watcher.RenewCh():
			if ev != nil && ev.Secret != nil && ev.Secret.Auth != nil {
				zap.S().Debugw("vault token renewed", "ttl_s", ev.Secret.Auth.LeaseDuration)
			}
		}
	}
}

/*──────────────────────────── helpers ─────────────────────────────────────*/

// splitMount turns "secret/escalado/prod" into ("secret", "escalado/prod").
func splitMount(p string) (mount, rel string) {
	mount, rel, _ = strings.Cut(p, "/")
	return mount, rel
}

func backoff(ctx context.Context, d time.Duration) {
	if d <= 0 {
		return
	}
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
	case <-t.C:
	}
}
