package async

import (
	"github.com/ndlib/objectstore"
	"github.com/ndlib/objectstore/safe"
)

// StoreCallback receives the value handed to a store operation and whether
// it was written.
type StoreCallback[T any] func(id string, v T, success bool)

// GetCallback receives the result of a get operation. The value is nil when
// there was no entry or it could not be read.
type GetCallback[T any] func(id string, v T)

// FillCallback receives the collection or map handed to a fill operation and
// whether anything was put in it.
type FillCallback[T any] func(id string, target T, success bool)

// RemoveCallback receives whether an entry was removed.
type RemoveCallback func(id string, removed bool)

// Remove deletes the entry for id in the background.
func (e *Executor) Remove(id string, cb RemoveCallback) error {
	return e.submit(func() func() {
		removed := e.store.Remove(id)
		if cb == nil {
			return nil
		}
		return func() { cb(id, removed) }
	})
}

// storeWith runs a store operation and reports to cb.
func storeWith[T any](e *Executor, id string, v T, cb StoreCallback[T], op func() bool) error {
	return e.submit(func() func() {
		ok := op()
		if cb == nil {
			return nil
		}
		return func() { cb(id, v, ok) }
	})
}

// getWith runs a get operation and reports to cb.
func getWith[T any](e *Executor, id string, cb GetCallback[T], op func() T) error {
	return e.submit(func() func() {
		v := op()
		if cb == nil {
			return nil
		}
		return func() { cb(id, v) }
	})
}

// Store saves v under id in the background.
func Store[T any](e *Executor, id string, v T, cb StoreCallback[T]) error {
	return storeWith(e, id, v, cb, func() bool { return e.store.Store(id, v) })
}

func StoreList[T any](e *Executor, id string, items []T, cb StoreCallback[[]T]) error {
	return storeWith(e, id, items, cb, func() bool { return safe.StoreList(e.store, id, items) })
}

func StoreSet[T comparable](e *Executor, id string, set objectstore.Set[T], cb StoreCallback[objectstore.Set[T]]) error {
	return storeWith(e, id, set, cb, func() bool { return safe.StoreSet(e.store, id, set) })
}

func StoreMap[K comparable, V any](e *Executor, id string, m map[K]V, cb StoreCallback[map[K]V]) error {
	return storeWith(e, id, m, cb, func() bool { return safe.StoreMap(e.store, id, m) })
}

// Get reads the value stored under id in the background.
func Get[T any](e *Executor, id string, cb GetCallback[*T]) error {
	return getWith(e, id, cb, func() *T { return safe.Get[T](e.store, id) })
}

func GetList[T any](e *Executor, id string, cb GetCallback[[]T]) error {
	return getWith(e, id, cb, func() []T { return safe.GetList[T](e.store, id) })
}

func GetSet[T comparable](e *Executor, id string, cb GetCallback[objectstore.Set[T]]) error {
	return getWith(e, id, cb, func() objectstore.Set[T] { return safe.GetSet[T](e.store, id) })
}

func GetMap[K comparable, V any](e *Executor, id string, cb GetCallback[map[K]V]) error {
	return getWith(e, id, cb, func() map[K]V { return safe.GetMap[K, V](e.store, id) })
}

// FillCollection adds the elements stored under id to c in the background.
// c must not be used by anyone else until cb has run.
func FillCollection[T any, C objectstore.Collection[T]](e *Executor, id string, c C, cb FillCallback[C]) error {
	return e.submit(func() func() {
		ok := safe.FillCollection[T](e.store, id, c)
		if cb == nil {
			return nil
		}
		return func() { cb(id, c, ok) }
	})
}

// FillMap puts the entries stored under id into m in the background. m must
// not be used by anyone else until cb has run.
func FillMap[K comparable, V any](e *Executor, id string, m map[K]V, cb FillCallback[map[K]V]) error {
	return e.submit(func() func() {
		ok := safe.FillMap(e.store, id, m)
		if cb == nil {
			return nil
		}
		return func() { cb(id, m, ok) }
	})
}
