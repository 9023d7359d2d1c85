package store

import (
	"encoding/base64"

	"github.com/cznic/zappy"
	"github.com/pkg/errors"
)

// NewCompressed wraps s so every value is compressed with zappy before it is
// written and decompressed after it is read. Keys are passed through
// unchanged. The compressed bytes are base64 encoded since several backends
// only hold text. A store must be read through the same wrapper that wrote it.
func NewCompressed(s Store) Store {
	return compressed{s: s}
}

type compressed struct {
	s Store
}

func (c compressed) List() <-chan string {
	return c.s.List()
}

func (c compressed) ListPrefix(prefix string) ([]string, error) {
	return c.s.ListPrefix(prefix)
}

func (c compressed) Contains(key string) (bool, error) {
	return c.s.Contains(key)
}

func (c compressed) Get(key string) ([]byte, error) {
	b, err := c.s.Get(key)
	if err != nil {
		return nil, err
	}
	z, err := base64.StdEncoding.DecodeString(string(b))
	if err != nil {
		return nil, errors.Wrapf(err, "decompress %s", key)
	}
	value, err := zappy.Decode(nil, z)
	if err != nil {
		return nil, errors.Wrapf(err, "decompress %s", key)
	}
	return value, nil
}

func (c compressed) Put(key string, value []byte) error {
	b, err := zappy.Encode(nil, value)
	if err != nil {
		return errors.Wrapf(err, "compress %s", key)
	}
	return c.s.Put(key, []byte(base64.StdEncoding.EncodeToString(b)))
}

func (c compressed) Delete(key string) (bool, error) {
	return c.s.Delete(key)
}

func (c compressed) Close() error {
	return Close(c.s)
}
