package store

import (
	"bytes"
	"time"

	"github.com/pkg/errors"
	bolt "go.etcd.io/bbolt"
)

var boltBucket = []byte("objects")

// Bolt is a store kept in a single bucket of a Bolt database file. Bolt
// serializes writers itself, and readers see a consistent snapshot.
type Bolt struct {
	db *bolt.DB
}

var _ Store = &Bolt{}

// NewBolt opens (creating if necessary) the Bolt database at path.
func NewBolt(path string) (*Bolt, error) {
	db, err := bolt.Open(path, 0600, &bolt.Options{Timeout: 5 * time.Second})
	if err != nil {
		return nil, errors.Wrapf(err, "open bolt %s", path)
	}
	err = db.Update(func(tx *bolt.Tx) error {
		_, err := tx.CreateBucketIfNotExists(boltBucket)
		return err
	})
	if err != nil {
		db.Close()
		return nil, errors.Wrapf(err, "create bucket in %s", path)
	}
	return &Bolt{db: db}, nil
}

// Contains reports whether the bucket has a value for key.
func (b *Bolt) Contains(key string) (bool, error) {
	var found bool
	err := b.db.View(func(tx *bolt.Tx) error {
		_, found = lookup(tx.Bucket(boltBucket), key)
		return nil
	})
	return found, err
}

// Get returns the value for key.
func (b *Bolt) Get(key string) ([]byte, error) {
	var result []byte
	err := b.db.View(func(tx *bolt.Tx) error {
		v, ok := lookup(tx.Bucket(boltBucket), key)
		if !ok {
			return ErrNotExist
		}
		// v is only valid inside the transaction
		result = append([]byte{}, v...)
		return nil
	})
	return result, err
}

// Put replaces the value for key.
func (b *Bolt) Put(key string, value []byte) error {
	if key == "" {
		return ErrEmptyKey
	}
	return b.db.Update(func(tx *bolt.Tx) error {
		if value == nil {
			value = []byte{}
		}
		return tx.Bucket(boltBucket).Put([]byte(key), value)
	})
}

// Delete removes key from the bucket.
func (b *Bolt) Delete(key string) (bool, error) {
	var existed bool
	err := b.db.Update(func(tx *bolt.Tx) error {
		bucket := tx.Bucket(boltBucket)
		if _, ok := lookup(bucket, key); !ok {
			return nil
		}
		existed = true
		return bucket.Delete([]byte(key))
	})
	return existed, err
}

// lookup finds key with a cursor, since Get cannot tell an empty value from
// a missing one.
func lookup(b *bolt.Bucket, key string) ([]byte, bool) {
	k, v := b.Cursor().Seek([]byte(key))
	if k == nil || string(k) != key {
		return nil, false
	}
	return v, true
}

// List returns a channel with every key in the bucket.
func (b *Bolt) List() <-chan string {
	keys, err := b.ListPrefix("")
	return listFrom(keys, err, func(err error) {
		reportListError("Bolt", err)
	})
}

// ListPrefix returns the keys starting with prefix, in byte order.
func (b *Bolt) ListPrefix(prefix string) ([]string, error) {
	var result []string
	p := []byte(prefix)
	err := b.db.View(func(tx *bolt.Tx) error {
		c := tx.Bucket(boltBucket).Cursor()
		for k, _ := c.Seek(p); k != nil && bytes.HasPrefix(k, p); k, _ = c.Next() {
			result = append(result, string(k))
		}
		return nil
	})
	return result, err
}

// Close closes the database file.
func (b *Bolt) Close() error {
	return b.db.Close()
}
