package store

import (
	"fmt"
	"strings"
	"time"

	"github.com/gomodule/redigo/redis"
)

// Redis is a store that keeps each value in a Redis string. Each instance
// provides access to the keys with a specific prefix; all keys read and
// written in Redis are of the form
//
//	{keyPrefix}/{key}
//
// Connections come from a redigo pool, so one Redis value may be shared by
// many goroutines.
type Redis struct {
	pool      *redis.Pool
	keyPrefix string
}

var _ Store = &Redis{}

// NewRedis creates a store using the connections in pool.
func NewRedis(pool *redis.Pool, keyPrefix string) *Redis {
	return &Redis{pool: pool, keyPrefix: keyPrefix}
}

// DialRedis creates a store with its own connection pool to the server at
// url, e.g. "redis://localhost:6379/0".
func DialRedis(url string, keyPrefix string) *Redis {
	pool := &redis.Pool{
		MaxIdle:     4,
		IdleTimeout: 5 * time.Minute,
		Dial: func() (redis.Conn, error) {
			return redis.DialURL(url)
		},
		TestOnBorrow: func(c redis.Conn, t time.Time) error {
			if time.Since(t) < time.Minute {
				return nil
			}
			_, err := c.Do("PING")
			return err
		},
	}
	return NewRedis(pool, keyPrefix)
}

func (s *Redis) getPrefixedKey(key string) string {
	return fmt.Sprintf("%s/%s", s.keyPrefix, key)
}

// Contains uses the Redis EXISTS command.
// See https://redis.io/commands/exists
func (s *Redis) Contains(key string) (bool, error) {
	conn := s.pool.Get()
	defer conn.Close()
	return redis.Bool(conn.Do("EXISTS", s.getPrefixedKey(key)))
}

// Get uses the Redis GET command.
// See https://redis.io/commands/get
func (s *Redis) Get(key string) ([]byte, error) {
	conn := s.pool.Get()
	defer conn.Close()
	value, err := redis.Bytes(conn.Do("GET", s.getPrefixedKey(key)))
	if err == redis.ErrNil {
		return nil, ErrNotExist
	}
	if err != nil {
		return nil, err
	}
	return value, nil
}

// Put uses the Redis SET command.
// See https://redis.io/commands/set
func (s *Redis) Put(key string, value []byte) error {
	if key == "" {
		return ErrEmptyKey
	}
	conn := s.pool.Get()
	defer conn.Close()
	_, err := conn.Do("SET", s.getPrefixedKey(key), value)
	return err
}

// Delete uses the Redis DEL command.
// See https://redis.io/commands/del
func (s *Redis) Delete(key string) (bool, error) {
	conn := s.pool.Get()
	defer conn.Close()
	n, err := redis.Int(conn.Do("DEL", s.getPrefixedKey(key)))
	if err != nil {
		return false, err
	}
	return n > 0, nil
}

// List returns a channel with every key under the store's prefix.
func (s *Redis) List() <-chan string {
	keys, err := s.ListPrefix("")
	return listFrom(keys, err, func(err error) {
		reportListError("Redis", err)
	})
}

// ListPrefix walks the keyspace with the Redis SCAN command. The order of the
// result is whatever Redis returns.
// See https://redis.io/commands/scan
func (s *Redis) ListPrefix(prefix string) ([]string, error) {
	conn := s.pool.Get()
	defer conn.Close()
	full := s.getPrefixedKey("")
	match := globEscaper.Replace(full+prefix) + "*"
	var result []string
	seen := make(map[string]bool)
	cursor := 0
	for {
		values, err := redis.Values(conn.Do("SCAN", cursor, "MATCH", match, "COUNT", 1000))
		if err != nil {
			return nil, err
		}
		var keys []string
		if _, err := redis.Scan(values, &cursor, &keys); err != nil {
			return nil, err
		}
		// SCAN may return a key more than once
		for _, key := range keys {
			if seen[key] {
				continue
			}
			seen[key] = true
			result = append(result, strings.TrimPrefix(key, full))
		}
		if cursor == 0 {
			break
		}
	}
	return result, nil
}

// Close closes the connection pool.
func (s *Redis) Close() error {
	return s.pool.Close()
}

var globEscaper = strings.NewReplacer(`\`, `\\`, `*`, `\*`, `?`, `\?`, `[`, `\[`, `]`, `\]`)
