package config

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeResolver struct {
	values map[string]string
	err    error
}

func (f fakeResolver) GetKV(_ context.Context, path, key string, _ time.Duration) (string, error) {
	if f.err != nil {
		return "", f.err
	}
	return f.values[path+"#"+key], nil
}

func writeConf(t *testing.T, yaml string) string {
	t.Helper()
	root := t.TempDir()
	require.NoError(t, os.MkdirAll(filepath.Join(root, "conf"), 0o755))
	if yaml != "" {
		require.NoError(t, os.WriteFile(filepath.Join(root, "conf", "global.yaml"), []byte(yaml), 0o644))
	}
	return root
}

func clearCompat(t *testing.T) {
	for _, k := range []string{"SUPABASE_URL", "VITE_SUPABASE_URL", "SUPABASE_ANON_KEY", "VITE_SUPABASE_ANON_KEY"} {
		t.Setenv(k, "")
	}
}

func TestLoadFrom_DefaultsWithoutYAML(t *testing.T) {
	clearCompat(t)
	root := writeConf(t, "")

	cfg, err := LoadFrom(context.Background(), root, nil)
	require.NoError(t, err)

	assert.Equal(t, ":8080", cfg.HTTP.ListenAddr)
	assert.Equal(t, "all", cfg.Router.Guard)
	assert.Equal(t, 10*time.Second, cfg.Backend.Timeout)
	assert.Equal(t, root, cfg.Paths.Root)
}

func TestLoadFrom_YAMLThenEnv(t *testing.T) {
	clearCompat(t)
	root := writeConf(t, `
http:
  listen_addr: "127.0.0.1:9000"
backend:
  url: "https://abc.supabase.co"
  anon_key: "from-yaml"
  timeout: 3s
routing:
  mode: both
  aliases:
    /perfil: /editprofile
`)
	t.Setenv("ESCALADO_BACKEND__ANON_KEY", "from-env")

	cfg, err := LoadFrom(context.Background(), root, nil)
	require.NoError(t, err)

	assert.Equal(t, "127.0.0.1:9000", cfg.HTTP.ListenAddr)
	assert.Equal(t, "https://abc.supabase.co", cfg.Backend.URL)
	assert.Equal(t, "from-env", cfg.Backend.AnonKey)
	assert.Equal(t, 3*time.Second, cfg.Backend.Timeout)
	assert.Equal(t, "/editprofile", cfg.Routing.Aliases["/perfil"])
}

func TestLoadFrom_CompatEnv(t *testing.T) {
	clearCompat(t)
	t.Setenv("VITE_SUPABASE_URL", "https://vite.supabase.co")
	t.Setenv("SUPABASE_ANON_KEY", "anon")
	root := writeConf(t, "")

	cfg, err := LoadFrom(context.Background(), root, nil)
	require.NoError(t, err)
	assert.Equal(t, "https://vite.supabase.co", cfg.Backend.URL)
	assert.Equal(t, "anon", cfg.Backend.AnonKey)
}

func TestLoadFrom_RejectsUnknownGuard(t *testing.T) {
	clearCompat(t)
	root := writeConf(t, "router:\n  guard: sometimes\n")

	_, err := LoadFrom(context.Background(), root, nil)
	require.Error(t, err)
}

func TestLoadFrom_ResolvesVaultRefs(t *testing.T) {
	clearCompat(t)
	root := writeConf(t, "backend:\n  url: https://x.supabase.co\n  anon_key: \"vault:secret/escalado#anon_key\"\n")

	cfg, err := LoadFrom(context.Background(), root, fakeResolver{values: map[string]string{
		"secret/escalado#anon_key": "s3cret",
	}})
	require.NoError(t, err)
	assert.Equal(t, "s3cret", cfg.Backend.AnonKey)

	_, err = LoadFrom(context.Background(), root, fakeResolver{err: errors.New("sealed")})
	require.Error(t, err)
}

func TestParseRef(t *testing.T) {
	cases := []struct {
		in        string
		path, key string
		ok        bool
	}{
		{"vault:secret/app#key", "secret/app", "key", true},
		{"vault:secret/a#b#c", "secret/a#b", "c", true},
		{"vault:secret/app", "", "", false},
		{"vault:#key", "", "", false},
		{"plain", "", "", false},
	}
	for _, c := range cases {
		p, k, ok := ParseRef(c.in)
		assert.Equal(t, c.ok, ok, c.in)
		assert.Equal(t, c.path, p, c.in)
		assert.Equal(t, c.key, k, c.in)
	}
}
