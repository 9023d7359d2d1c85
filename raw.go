package objectstore

import (
	"sort"
	"sync/atomic"

	"github.com/ndlib/objectstore/codec"
	"github.com/ndlib/objectstore/store"
)

// Raw is the synchronous engine. It encodes values with a Codec and keeps
// the text under an identifier in a store.Store. Every failure is returned
// to the caller as a *StorageError, *DecodeError, *EncodeError or
// *ProtocolError.
//
// A Raw holds no cached data; every call goes to the store. It is safe for
// use by many goroutines.
type Raw struct {
	store     store.Store
	codec     codec.Codec
	log       Logger
	overwrite atomic.Bool
	locking   bool
	locks     keyLock
}

// Options adjusts a Raw. The zero value gives the defaults: JSON encoding,
// overwriting enabled, per identifier locking, no logging.
type Options struct {
	Codec codec.Codec
	// DisableOverwrite makes the store operations leave existing entries
	// alone.
	DisableOverwrite bool
	// DisableLocking turns off the per identifier lock. Concurrent calls
	// on one identifier then race, and only the store's own atomicity
	// protects the entry.
	DisableLocking bool
	Logger         Logger
}

// New returns an engine over s with the default options.
func New(s store.Store) *Raw {
	return NewWithOptions(s, Options{})
}

// NewWithOptions returns an engine over s.
func NewWithOptions(s store.Store, opts Options) *Raw {
	r := &Raw{
		store:   s,
		codec:   opts.Codec,
		log:     opts.Logger,
		locking: !opts.DisableLocking,
	}
	if r.codec == nil {
		r.codec = codec.JSON{}
	}
	if r.log == nil {
		r.log = noopLogger{}
	}
	r.overwrite.Store(!opts.DisableOverwrite)
	return r
}

// SetOverwriteEnabled decides whether the store operations replace an
// existing entry (true) or leave it alone and report false.
func (r *Raw) SetOverwriteEnabled(enabled bool) {
	r.overwrite.Store(enabled)
}

// OverwriteEnabled returns the current overwrite setting.
func (r *Raw) OverwriteEnabled() bool {
	return r.overwrite.Load()
}

// Codec returns the codec used to encode values.
func (r *Raw) Codec() codec.Codec {
	return r.codec
}

func (r *Raw) lock(id string) func() {
	if !r.locking {
		return nopUnlock
	}
	return r.locks.Lock(id)
}

// Contains reports whether there is an entry for id.
func (r *Raw) Contains(id string) (bool, error) {
	ok, err := r.store.Contains(id)
	if err != nil {
		return false, &StorageError{Op: "contains", ID: id, Err: err}
	}
	return ok, nil
}

// Remove deletes the entry for id. It returns false if there was none.
func (r *Raw) Remove(id string) (bool, error) {
	defer r.lock(id)()
	ok, err := r.store.Delete(id)
	if err != nil {
		return false, &StorageError{Op: "remove", ID: id, Err: err}
	}
	r.log.Debugf("remove %q: %v", id, ok)
	return ok, nil
}

// Store encodes v, using its dynamic type, and saves it under id. It returns
// false without writing anything if overwriting is disabled and id already
// has an entry.
func (r *Raw) Store(id string, v interface{}) (bool, error) {
	data, err := r.codec.Marshal(v)
	if err != nil {
		return false, &EncodeError{Op: "store", ID: id, Err: err}
	}
	return r.put("store", id, data)
}

// Get decodes the entry for id into target, which must be a pointer. It
// returns false, leaving target alone, if there is no entry.
func (r *Raw) Get(id string, target interface{}) (bool, error) {
	data, found, err := r.load("get", id)
	if err != nil || !found {
		return false, err
	}
	err = r.codec.Unmarshal(data, target)
	if err != nil {
		return false, &DecodeError{Op: "get", ID: id, Err: err}
	}
	return true, nil
}

// Keys returns the identifiers beginning with prefix, sorted.
func (r *Raw) Keys(prefix string) ([]string, error) {
	keys, err := r.store.ListPrefix(prefix)
	if err != nil {
		return nil, &StorageError{Op: "keys", ID: prefix, Err: err}
	}
	sort.Strings(keys)
	return keys, nil
}

// put writes already encoded text under id, honoring the overwrite setting.
// The existence check and the write happen under the identifier's lock.
func (r *Raw) put(op, id string, data []byte) (bool, error) {
	if id == "" {
		return false, &StorageError{Op: op, ID: id, Err: store.ErrEmptyKey}
	}
	defer r.lock(id)()
	if !r.OverwriteEnabled() {
		exists, err := r.store.Contains(id)
		if err != nil {
			return false, &StorageError{Op: op, ID: id, Err: err}
		}
		if exists {
			r.log.Debugf("%s %q: entry exists and overwrite is disabled", op, id)
			return false, nil
		}
	}
	err := r.store.Put(id, data)
	if err != nil {
		return false, &StorageError{Op: op, ID: id, Err: err}
	}
	r.log.Debugf("%s %q: wrote %d bytes", op, id, len(data))
	return true, nil
}

// load reads the raw text for id. found is false if there is no entry.
func (r *Raw) load(op, id string) (data []byte, found bool, err error) {
	defer r.lock(id)()
	data, err = r.store.Get(id)
	if err == store.ErrNotExist {
		r.log.Debugf("%s %q: no entry", op, id)
		return nil, false, nil
	} else if err != nil {
		return nil, false, &StorageError{Op: op, ID: id, Err: err}
	}
	return data, true, nil
}
