package store

import (
	"fmt"
	"io"
	"strings"
	"sync"
)

// Memory implements a simple in-memory version of a store. It is intended
// mainly for testing.
type Memory struct {
	m     sync.RWMutex
	store map[string][]byte
}

var (
	// ensure Memory satisfies the Store interface
	_ Store = &Memory{}
)

// NewMemory returns a new, empty memory store.
func NewMemory() *Memory {
	return &Memory{store: make(map[string][]byte)}
}

// List returns a channel giving the id for every item in the store.
//
// The goroutine started to generate the list keeps a read lock on the
// underlying store for its duration. This may cause deadlocks.
func (ms *Memory) List() <-chan string {
	c := make(chan string)
	go func() {
		ms.m.RLock()
		for k := range ms.store {
			ms.m.RUnlock()
			c <- k
			ms.m.RLock()
		}
		ms.m.RUnlock()
		close(c)
	}()
	return c
}

// ListPrefix returns all the key entries which begin with the given prefix.
func (ms *Memory) ListPrefix(prefix string) ([]string, error) {
	var result []string
	ms.m.RLock()
	for k := range ms.store {
		if strings.HasPrefix(k, prefix) {
			result = append(result, k)
		}
	}
	ms.m.RUnlock()
	return result, nil
}

// Contains reports whether there is a value for key.
func (ms *Memory) Contains(key string) (bool, error) {
	ms.m.RLock()
	_, ok := ms.store[key]
	ms.m.RUnlock()
	return ok, nil
}

// Get returns a copy of the value stored under key.
func (ms *Memory) Get(key string) ([]byte, error) {
	ms.m.RLock()
	v, ok := ms.store[key]
	ms.m.RUnlock()
	if !ok {
		return nil, ErrNotExist
	}
	return append([]byte(nil), v...), nil
}

// Put saves a copy of value under key, replacing anything already there.
func (ms *Memory) Put(key string, value []byte) error {
	if key == "" {
		return ErrEmptyKey
	}
	v := append(make([]byte, 0, len(value)), value...)
	ms.m.Lock()
	ms.store[key] = v
	ms.m.Unlock()
	return nil
}

// Delete the given key from the store. It is not an error if the item does
// not exist in the store.
func (ms *Memory) Delete(key string) (bool, error) {
	ms.m.Lock()
	_, ok := ms.store[key]
	delete(ms.store, key)
	ms.m.Unlock()
	return ok, nil
}

// Dump writes a listing of the contents of the store to the given writer.
// This is intended for testing and debugging.
func (ms *Memory) Dump(w io.Writer) {
	ms.m.RLock()
	for k, v := range ms.store {
		s := v
		if len(s) > 300 {
			s = s[:50]
		}
		fmt.Fprintf(w, "%s: %s\n", k, string(s))
	}
	ms.m.RUnlock()
}
