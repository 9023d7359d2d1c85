package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ndlib/objectstore"
	"github.com/ndlib/objectstore/store"
)

func writeFile(t *testing.T, name, content string) string {
	path := filepath.Join(t.TempDir(), name)
	require.NoError(t, os.WriteFile(path, []byte(content), 0644))
	return path
}

func TestDefaults(t *testing.T) {
	cfg := Defaults()
	assert.Equal(t, "memory", cfg.Store.Backend)
	require.NotNil(t, cfg.Engine.Overwrite)
	assert.True(t, *cfg.Engine.Overwrite)
	require.NotNil(t, cfg.Engine.LockIdentifiers)
	assert.True(t, *cfg.Engine.LockIdentifiers)
	assert.Equal(t, "text", cfg.Log.Format)
}

func TestLoadTOML(t *testing.T) {
	path := writeFile(t, "objects.toml", `
[store]
backend = "file"
path = "/var/lib/objects"
prefix = "app/"
compress = true
metrics = "noop"

[engine]
overwrite = false

[async]
workers = 3

[log]
format = "json"
debug = true
`)
	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, "file", cfg.Store.Backend)
	assert.Equal(t, "/var/lib/objects", cfg.Store.Path)
	assert.Equal(t, "app/", cfg.Store.Prefix)
	assert.True(t, cfg.Store.Compress)
	assert.Equal(t, "noop", cfg.Store.Metrics)
	assert.False(t, *cfg.Engine.Overwrite)
	assert.True(t, *cfg.Engine.LockIdentifiers, "default kept")
	assert.Equal(t, 3, cfg.Async.Workers)
	assert.Equal(t, "json", cfg.Log.Format)
	assert.Equal(t, "objectstore", cfg.Log.Label, "default kept")
	assert.True(t, cfg.Log.Debug)
}

func TestLoadYAML(t *testing.T) {
	path := writeFile(t, "objects.yaml", `
store:
  backend: redis
  redis_url: redis://localhost:6379
  prefix: app
engine:
  lock_identifiers: false
sentry:
  dsn: https://public@sentry.example.com/1
`)
	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, "redis", cfg.Store.Backend)
	assert.Equal(t, "redis://localhost:6379", cfg.Store.RedisURL)
	assert.Equal(t, "app", cfg.Store.Prefix)
	assert.False(t, *cfg.Engine.LockIdentifiers)
	assert.True(t, *cfg.Engine.Overwrite)
	assert.Equal(t, "https://public@sentry.example.com/1", cfg.Sentry.DSN)
}

func TestLoadErrors(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "missing.toml"))
	assert.Error(t, err)

	_, err = Load(writeFile(t, "objects.ini", "backend=memory"))
	assert.Error(t, err)

	_, err = Load(writeFile(t, "bad.toml", "[store\nbackend ="))
	assert.Error(t, err)

	_, err = Load(writeFile(t, "bad.yaml", "store: [unclosed"))
	assert.Error(t, err)
}

func TestMergeKeepsUnset(t *testing.T) {
	cfg := Defaults()
	cfg.Store.Path = "/original"
	cfg.Merge(&Config{Store: StoreConfig{Config: store.Config{Bucket: "b"}}})
	assert.Equal(t, "/original", cfg.Store.Path)
	assert.Equal(t, "b", cfg.Store.Bucket)
	assert.Equal(t, "memory", cfg.Store.Backend)
	assert.True(t, *cfg.Engine.Overwrite)
}

func TestNewEngine(t *testing.T) {
	no := false
	cfg := Defaults()
	cfg.Merge(&Config{Engine: EngineConfig{Overwrite: &no}})

	s, err := cfg.OpenStore()
	require.NoError(t, err)
	raw := cfg.NewEngine(s, objectstore.NewNoopLogger())
	assert.False(t, raw.OverwriteEnabled())

	stored, err := raw.Store("k", 1)
	require.NoError(t, err)
	assert.True(t, stored)
	stored, err = raw.Store("k", 2)
	require.NoError(t, err)
	assert.False(t, stored)

	ex := cfg.NewExecutor(raw, objectstore.NewNoopLogger(), nil)
	done := make(chan bool, 1)
	require.NoError(t, ex.Remove("k", func(_ string, removed bool) { done <- removed }))
	assert.True(t, <-done)
	require.NoError(t, ex.Close())
}

func TestOpenStoreMetrics(t *testing.T) {
	cfg := Defaults()
	cfg.Store.Metrics = "noop"
	s, err := cfg.OpenStore()
	require.NoError(t, err)
	require.NoError(t, s.Put("k", []byte("v")))

	cfg.Store.Metrics = "graphite"
	_, err = cfg.OpenStore()
	assert.Error(t, err)

	cfg.Store.Metrics = "none"
	cfg.Store.Backend = "tape"
	_, err = cfg.OpenStore()
	assert.Error(t, err)
}

func TestLogger(t *testing.T) {
	for _, format := range []string{"text", "json", "basic", "none", ""} {
		cfg := Defaults()
		cfg.Log.Format = format
		assert.NotNil(t, cfg.Logger(), format)
	}
}

func TestSetupSentryWithoutDSN(t *testing.T) {
	cfg := Defaults()
	assert.NoError(t, cfg.SetupSentry())
}
