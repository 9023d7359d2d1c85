//go:build mysql || redis
// +build mysql redis

package store_test

// Tests against external services. They need a running server:
//
//    docker run -d -p 3306:3306 -e MYSQL_ALLOW_EMPTY_PASSWORD=yes -e MYSQL_DATABASE=test mysql:5.7
//    docker run -d -p 6379:6379 redis
//    go test -tags "mysql redis" -run Integration ./store
//
// The environment variables MYSQL_DSN and REDIS_URL override the defaults.

import (
	"os"
	"testing"

	"github.com/google/uuid"

	"github.com/ndlib/objectstore/store"
	"github.com/ndlib/objectstore/store/storetest"
)

func getenv(name, fallback string) string {
	if v := os.Getenv(name); v != "" {
		return v
	}
	return fallback
}

func TestMySQLIntegration(t *testing.T) {
	dsn := getenv("MYSQL_DSN", "root@tcp(localhost:3306)/test")
	s, err := store.NewMySQL(dsn)
	if err != nil {
		t.Skip("no mysql server:", err)
	}
	defer s.Close()
	// clear out anything left by an earlier run
	keys, _ := s.ListPrefix("")
	for _, key := range keys {
		s.Delete(key)
	}
	storetest.Conformance(t, s)
}

func TestRedisIntegration(t *testing.T) {
	url := getenv("REDIS_URL", "redis://localhost:6379")
	// a fresh prefix keeps runs apart
	s := store.DialRedis(url, "test-"+uuid.New().String())
	defer s.Close()
	if _, err := s.Contains("x"); err != nil {
		t.Skip("no redis server:", err)
	}
	storetest.Conformance(t, s)
}
