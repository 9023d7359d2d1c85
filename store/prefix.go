package store

import (
	"strings"
)

// Wrap the store s by one which will prefix all its keys by prefix.
// This provides a way to namespace the keys, and to share the same underlying
// store among a group of users.
func NewWithPrefix(s Store, prefix string) Store {
	return prefixstore{s: s, p: prefix}
}

type prefixstore struct {
	s Store  // the store being wrapped
	p string // the prefix for our keys
}

func (ps prefixstore) List() <-chan string {
	out := make(chan string)
	in := ps.s.List()
	go func() {
		var plen = len(ps.p)
		for key := range in {
			if strings.HasPrefix(key, ps.p) {
				out <- key[plen:]
			}
		}
		close(out)
	}()
	return out
}

func (ps prefixstore) ListPrefix(prefix string) ([]string, error) {
	var plen = len(ps.p)
	var result []string
	keys, err := ps.s.ListPrefix(ps.p + prefix)
	for _, key := range keys {
		if strings.HasPrefix(key, ps.p) {
			result = append(result, key[plen:])
		}
	}
	return result, err
}

func (ps prefixstore) Contains(key string) (bool, error) {
	return ps.s.Contains(ps.p + key)
}

func (ps prefixstore) Get(key string) ([]byte, error) {
	return ps.s.Get(ps.p + key)
}

func (ps prefixstore) Put(key string, value []byte) error {
	if key == "" {
		return ErrEmptyKey
	}
	return ps.s.Put(ps.p+key, value)
}

func (ps prefixstore) Delete(key string) (bool, error) {
	return ps.s.Delete(ps.p + key)
}

func (ps prefixstore) Close() error {
	return Close(ps.s)
}
