// Package safe wraps the objectstore engine for callers who would rather
// not handle errors. Every failure is logged, reported to Sentry, and turned
// into the negative result of the operation: false for the boolean
// operations, nil for the ones returning a value.
//
// Callers of this package cannot tell one kind of failure from another, or a
// failure from an absent entry in the case of Get. Use objectstore.Raw
// directly when that matters.
package safe

import (
	raven "github.com/getsentry/raven-go"

	"github.com/ndlib/objectstore"
)

// Store is the error translating facade over a *objectstore.Raw.
type Store struct {
	raw *objectstore.Raw
	log objectstore.Logger
}

// New wraps raw. Failures are written to log; a nil log means the standard
// library logger.
func New(raw *objectstore.Raw, log objectstore.Logger) *Store {
	if log == nil {
		log = objectstore.NewBasicLogger(false)
	}
	return &Store{raw: raw, log: log}
}

// Raw returns the engine underneath.
func (s *Store) Raw() *objectstore.Raw {
	return s.raw
}

func (s *Store) report(op, id string, err error) {
	s.log.Errorf("%s %q: %s", op, id, err)
	raven.CaptureError(err, map[string]string{"op": op, "identifier": id})
}

// check passes result through when err is nil. Otherwise it reports err and
// returns the zero value of R.
func check[R any](s *Store, op, id string, result R, err error) R {
	if err != nil {
		s.report(op, id, err)
		var zero R
		return zero
	}
	return result
}

// SetOverwriteEnabled changes the overwrite setting of the engine.
func (s *Store) SetOverwriteEnabled(enabled bool) {
	s.raw.SetOverwriteEnabled(enabled)
}

// OverwriteEnabled returns the overwrite setting of the engine.
func (s *Store) OverwriteEnabled() bool {
	return s.raw.OverwriteEnabled()
}

// Contains reports whether id has an entry. It is false if the store fails.
func (s *Store) Contains(id string) bool {
	ok, err := s.raw.Contains(id)
	return check(s, "contains", id, ok, err)
}

// Remove deletes the entry for id, reporting whether one was deleted.
func (s *Store) Remove(id string) bool {
	ok, err := s.raw.Remove(id)
	return check(s, "remove", id, ok, err)
}

// Store saves v under id, reporting whether it was written.
func (s *Store) Store(id string, v interface{}) bool {
	ok, err := s.raw.Store(id, v)
	return check(s, "store", id, ok, err)
}

// Get decodes the entry for id into target. It is false when there is no
// entry or it could not be read.
func (s *Store) Get(id string, target interface{}) bool {
	ok, err := s.raw.Get(id, target)
	return check(s, "get", id, ok, err)
}

// Keys lists the identifiers starting with prefix, or nil on failure.
func (s *Store) Keys(prefix string) []string {
	keys, err := s.raw.Keys(prefix)
	return check(s, "keys", prefix, keys, err)
}

// Get returns the value stored under id, or nil.
func Get[T any](s *Store, id string) *T {
	v, err := objectstore.Get[T](s.raw, id)
	return check(s, "get", id, v, err)
}

// GetList returns the list stored under id. It is empty if there is no
// entry and nil on failure.
func GetList[T any](s *Store, id string) []T {
	list, err := objectstore.GetList[T](s.raw, id)
	return check(s, "getList", id, list, err)
}

// GetSet returns the set stored under id. It is empty if there is no entry
// and nil on failure.
func GetSet[T comparable](s *Store, id string) objectstore.Set[T] {
	set, err := objectstore.GetSet[T](s.raw, id)
	return check(s, "getSet", id, set, err)
}

// GetMap returns the map stored under id. It is empty if there is no entry
// and nil on failure.
func GetMap[K comparable, V any](s *Store, id string) map[K]V {
	m, err := objectstore.GetMap[K, V](s.raw, id)
	return check(s, "getMap", id, m, err)
}

func StoreList[T any](s *Store, id string, items []T) bool {
	ok, err := objectstore.StoreList(s.raw, id, items)
	return check(s, "storeList", id, ok, err)
}

func StoreSet[T comparable](s *Store, id string, set objectstore.Set[T]) bool {
	ok, err := objectstore.StoreSet(s.raw, id, set)
	return check(s, "storeSet", id, ok, err)
}

func StoreMap[K comparable, V any](s *Store, id string, m map[K]V) bool {
	ok, err := objectstore.StoreMap(s.raw, id, m)
	return check(s, "storeMap", id, ok, err)
}

// FillCollection adds the elements stored under id to c. It is false, with
// c left alone, when there is no entry or it could not be read.
func FillCollection[T any](s *Store, id string, c objectstore.Collection[T]) bool {
	ok, err := objectstore.FillCollection(s.raw, id, c)
	return check(s, "fillCollection", id, ok, err)
}

// FillMap puts the entries stored under id into m. It is false, with m left
// alone, when there is no entry or it could not be read.
func FillMap[K comparable, V any](s *Store, id string, m map[K]V) bool {
	ok, err := objectstore.FillMap(s.raw, id, m)
	return check(s, "fillMap", id, ok, err)
}
