package store

import (
	"fmt"

	"github.com/aws/aws-sdk-go/aws"
	"github.com/aws/aws-sdk-go/aws/session"
	"github.com/pkg/errors"
)

// Config describes a backend and the decorators to wrap around it. It is
// usually read from the [store] section of a configuration file.
type Config struct {
	// Backend is one of "memory", "file", "prefs", "ql", "sqlite", "mysql",
	// "bolt", "redis", "s3".
	Backend string `toml:"backend" yaml:"backend"`
	// Path is the directory for "file" and the database file for "prefs",
	// "ql", "sqlite", "bolt". The ql path "memory" keeps the database in
	// memory.
	Path string `toml:"path" yaml:"path"`
	// DSN is the MySQL data source name, e.g. "user:pass@tcp(host:3306)/db".
	DSN string `toml:"dsn" yaml:"dsn"`
	// RedisURL is the address of the redis server, e.g. "redis://localhost:6379".
	RedisURL string `toml:"redis_url" yaml:"redis_url"`
	Bucket   string `toml:"bucket" yaml:"bucket"`
	Region   string `toml:"region" yaml:"region"`
	// Endpoint overrides the S3 endpoint, for S3 compatible services.
	Endpoint string `toml:"endpoint" yaml:"endpoint"`
	// Prefix namespaces every key. For "redis" and "s3" it is handled by
	// the backend itself.
	Prefix   string `toml:"prefix" yaml:"prefix"`
	Compress bool   `toml:"compress" yaml:"compress"`
}

// Open creates the backend described by cfg.
func Open(cfg Config) (Store, error) {
	var s Store
	prefixed := false
	switch cfg.Backend {
	case "", "memory":
		s = NewMemory()
	case "file":
		if cfg.Path == "" {
			return nil, errors.New("file store needs a path")
		}
		s = NewFileSystem(cfg.Path)
	case "prefs":
		if cfg.Path == "" {
			return nil, errors.New("prefs store needs a path")
		}
		s = NewPrefs(cfg.Path)
	case "ql":
		path := cfg.Path
		if path == "" {
			path = "memory"
		}
		db, err := NewQL(path)
		if err != nil {
			return nil, err
		}
		s = db
	case "sqlite":
		if cfg.Path == "" {
			return nil, errors.New("sqlite store needs a path")
		}
		s = NewSQLite(cfg.Path)
	case "mysql":
		db, err := NewMySQL(cfg.DSN)
		if err != nil {
			return nil, err
		}
		s = db
	case "bolt":
		db, err := NewBolt(cfg.Path)
		if err != nil {
			return nil, err
		}
		s = db
	case "redis":
		s = DialRedis(cfg.RedisURL, cfg.Prefix)
		prefixed = true
	case "s3":
		awsConfig := aws.NewConfig()
		if cfg.Region != "" {
			awsConfig = awsConfig.WithRegion(cfg.Region)
		}
		if cfg.Endpoint != "" {
			awsConfig = awsConfig.WithEndpoint(cfg.Endpoint).WithS3ForcePathStyle(true)
		}
		sess, err := session.NewSession(awsConfig)
		if err != nil {
			return nil, errors.Wrap(err, "aws session")
		}
		s = NewS3(cfg.Bucket, cfg.Prefix, sess)
		prefixed = true
	default:
		return nil, fmt.Errorf("unknown store backend %q", cfg.Backend)
	}
	if cfg.Prefix != "" && !prefixed {
		s = NewWithPrefix(s, cfg.Prefix)
	}
	if cfg.Compress {
		s = NewCompressed(s)
	}
	return s, nil
}
