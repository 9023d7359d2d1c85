// Package store provides a simple, goroutine safe key-value interface for
// text blobs. Every implementation maps a string key to exactly one value and
// replaces that value atomically on Put, so a reader sees either the old or
// the new value and never a mix of the two.
//
// Probably the most important implementations are the FileSystem and the
// relational ones (QL, SQLite, MySQL). The others are useful for testing or
// for more specialized deployments.
package store

import (
	"errors"
	"io"
	"log"

	raven "github.com/getsentry/raven-go"
)

// Store defines the basic keyed blob store.
//
// Contains reflects the latest committed Put or Delete. Get returns
// ErrNotExist when there is no value for the key. Delete reports whether the
// key existed before the call; deleting a missing key is not an error.
type Store interface {
	ROStore
	Put(key string, value []byte) error
	Delete(key string) (bool, error)
}

// ROStore is the read-only pieces of a Store. It allows one to list contents,
// and to retrieve data.
type ROStore interface {
	Contains(key string) (bool, error)
	Get(key string) ([]byte, error)
	List() <-chan string
	ListPrefix(prefix string) ([]string, error)
}

var (
	// ErrNotExist is returned by Get when the key has no value.
	ErrNotExist = errors.New("Key does not exist")

	// ErrEmptyKey means an empty string was used as a key.
	ErrEmptyKey = errors.New("Key is empty")
)

// Close releases any connection or file handle held by s. Stores that hold
// nothing are left alone.
func Close(s Store) error {
	if c, ok := s.(io.Closer); ok {
		return c.Close()
	}
	return nil
}

// collect drains a List channel into a slice.
func collect(c <-chan string) []string {
	var result []string
	for key := range c {
		result = append(result, key)
	}
	return result
}

// listFrom turns the result of a ListPrefix call into a List channel. Errors
// are passed to report since List has no way of returning them.
func listFrom(keys []string, err error, report func(error)) <-chan string {
	out := make(chan string)
	go func() {
		defer close(out)
		if err != nil {
			report(err)
			return
		}
		for _, key := range keys {
			out <- key
		}
	}()
	return out
}

// reportListError logs an error which a List goroutine could not return.
func reportListError(name string, err error) {
	log.Println(name, "List:", err)
	raven.CaptureError(err, map[string]string{"Store": name})
}
