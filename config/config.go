// Package config reads the settings of an object store deployment from a
// TOML or YAML file and builds the store, engine and executor they describe.
//
// A TOML file looks like
//
//	[store]
//	backend = "sqlite"
//	path = "/var/lib/app/objects.db"
//	metrics = "prometheus"
//
//	[engine]
//	overwrite = false
//
//	[log]
//	format = "json"
package config

import (
	"os"
	"path/filepath"
	"sync"

	"github.com/BurntSushi/toml"
	raven "github.com/getsentry/raven-go"
	"github.com/pkg/errors"
	"github.com/prometheus/client_golang/prometheus"
	"gopkg.in/yaml.v3"

	"github.com/ndlib/objectstore"
	"github.com/ndlib/objectstore/async"
	"github.com/ndlib/objectstore/safe"
	"github.com/ndlib/objectstore/store"
)

type Config struct {
	Store  StoreConfig  `toml:"store" yaml:"store"`
	Engine EngineConfig `toml:"engine" yaml:"engine"`
	Async  AsyncConfig  `toml:"async" yaml:"async"`
	Log    LogConfig    `toml:"log" yaml:"log"`
	Sentry SentryConfig `toml:"sentry" yaml:"sentry"`
}

type StoreConfig struct {
	store.Config `yaml:",inline"`
	// Metrics is "none", "noop" or "prometheus". Prometheus metrics go to
	// the default registerer.
	Metrics string `toml:"metrics" yaml:"metrics"`
}

// EngineConfig uses pointers so a file can turn a default off.
type EngineConfig struct {
	Overwrite       *bool `toml:"overwrite" yaml:"overwrite"`
	LockIdentifiers *bool `toml:"lock_identifiers" yaml:"lock_identifiers"`
}

type AsyncConfig struct {
	// Workers is the size of the worker pool; zero means one per CPU.
	Workers int `toml:"workers" yaml:"workers"`
}

type LogConfig struct {
	// Format is "text", "json", "basic" or "none".
	Format string `toml:"format" yaml:"format"`
	Label  string `toml:"label" yaml:"label"`
	Debug  bool   `toml:"debug" yaml:"debug"`
}

type SentryConfig struct {
	DSN string `toml:"dsn" yaml:"dsn"`
}

// Defaults returns the configuration used for anything a file leaves out:
// an in-memory store, overwriting and identifier locking on, text logging.
func Defaults() Config {
	yes := true
	lock := true
	return Config{
		Store:  StoreConfig{Config: store.Config{Backend: "memory"}, Metrics: "none"},
		Engine: EngineConfig{Overwrite: &yes, LockIdentifiers: &lock},
		Log:    LogConfig{Format: "text", Label: "objectstore"},
	}
}

// Merge copies the values set in source over those in c.
func (c *Config) Merge(source *Config) {
	c.Store.merge(&source.Store)
	if source.Engine.Overwrite != nil {
		v := *source.Engine.Overwrite
		c.Engine.Overwrite = &v
	}
	if source.Engine.LockIdentifiers != nil {
		v := *source.Engine.LockIdentifiers
		c.Engine.LockIdentifiers = &v
	}
	if source.Async.Workers > 0 {
		c.Async.Workers = source.Async.Workers
	}
	if source.Log.Format != "" {
		c.Log.Format = source.Log.Format
	}
	if source.Log.Label != "" {
		c.Log.Label = source.Log.Label
	}
	if source.Log.Debug {
		c.Log.Debug = true
	}
	if source.Sentry.DSN != "" {
		c.Sentry.DSN = source.Sentry.DSN
	}
}

func (c *StoreConfig) merge(source *StoreConfig) {
	set := func(dst *string, v string) {
		if v != "" {
			*dst = v
		}
	}
	set(&c.Backend, source.Backend)
	set(&c.Path, source.Path)
	set(&c.DSN, source.DSN)
	set(&c.RedisURL, source.RedisURL)
	set(&c.Bucket, source.Bucket)
	set(&c.Region, source.Region)
	set(&c.Endpoint, source.Endpoint)
	set(&c.Prefix, source.Prefix)
	set(&c.Metrics, source.Metrics)
	if source.Compress {
		c.Compress = true
	}
}

// Load reads filename, which must end in .toml, .yaml or .yml, and merges it
// over the defaults.
func Load(filename string) (*Config, error) {
	data, err := os.ReadFile(filename)
	if err != nil {
		return nil, errors.Wrap(err, "reading config")
	}
	var loaded Config
	switch filepath.Ext(filename) {
	case ".toml":
		_, err = toml.Decode(string(data), &loaded)
	case ".yaml", ".yml":
		err = yaml.Unmarshal(data, &loaded)
	default:
		return nil, errors.Errorf("config %s: unknown file type", filename)
	}
	if err != nil {
		return nil, errors.Wrapf(err, "parsing %s", filename)
	}
	cfg := Defaults()
	cfg.Merge(&loaded)
	return &cfg, nil
}

// Logger returns the logger described by the [log] section.
func (c *Config) Logger() objectstore.Logger {
	switch c.Log.Format {
	case "json":
		return objectstore.NewJSONLogger(c.Log.Label, c.Log.Debug)
	case "basic":
		return objectstore.NewBasicLogger(c.Log.Debug)
	case "none":
		return objectstore.NewNoopLogger()
	default:
		return objectstore.NewTextLogger(c.Log.Label, c.Log.Debug)
	}
}

var (
	promOnce     sync.Once
	promProvider *store.PrometheusProvider
)

// OpenStore creates the backend, wrapped in metrics if asked for.
func (c *Config) OpenStore() (store.Store, error) {
	s, err := store.Open(c.Store.Config)
	if err != nil {
		return nil, err
	}
	label := c.Store.Backend
	if label == "" {
		label = "memory"
	}
	switch c.Store.Metrics {
	case "", "none":
	case "noop":
		s = store.NewMetrics(s, store.NoopMetrics{}, label)
	case "prometheus":
		promOnce.Do(func() {
			promProvider = store.NewPrometheusProvider(prometheus.DefaultRegisterer)
		})
		s = store.NewMetrics(s, promProvider, label)
	default:
		store.Close(s)
		return nil, errors.Errorf("unknown metrics provider %q", c.Store.Metrics)
	}
	return s, nil
}

// NewEngine returns an engine over s using the [engine] section.
func (c *Config) NewEngine(s store.Store, log objectstore.Logger) *objectstore.Raw {
	return objectstore.NewWithOptions(s, objectstore.Options{
		DisableOverwrite: c.Engine.Overwrite != nil && !*c.Engine.Overwrite,
		DisableLocking:   c.Engine.LockIdentifiers != nil && !*c.Engine.LockIdentifiers,
		Logger:           log,
	})
}

// NewExecutor returns a worker pool over raw using the [async] section.
// Callbacks go to d, or run inline when d is nil.
func (c *Config) NewExecutor(raw *objectstore.Raw, log objectstore.Logger, d async.Dispatcher) *async.Executor {
	return async.New(safe.New(raw, log), async.Options{
		Workers:    c.Async.Workers,
		Dispatcher: d,
	})
}

// SetupSentry points raven at the configured DSN. Without one, captured
// errors are dropped.
func (c *Config) SetupSentry() error {
	if c.Sentry.DSN == "" {
		return nil
	}
	return raven.SetDSN(c.Sentry.DSN)
}
