package objectstore

import (
	"github.com/ndlib/objectstore/codec"
)

// A Collection receives decoded elements, one at a time, in stored order.
type Collection[T any] interface {
	Add(v T)
}

// CollectionFunc adapts a function to the Collection interface.
type CollectionFunc[T any] func(v T)

// Add calls f(v).
func (f CollectionFunc[T]) Add(v T) { f(v) }

// List is a Collection keeping elements in the order they are added.
type List[T any] []T

// Add appends v.
func (l *List[T]) Add(v T) { *l = append(*l, v) }

// Set is a Collection keeping each distinct element once.
type Set[T comparable] map[T]struct{}

// NewSet returns a set holding vs.
func NewSet[T comparable](vs ...T) Set[T] {
	s := make(Set[T], len(vs))
	for _, v := range vs {
		s.Add(v)
	}
	return s
}

// Add puts v in the set.
func (s Set[T]) Add(v T) { s[v] = struct{}{} }

// Contains reports whether v is in the set.
func (s Set[T]) Contains(v T) bool {
	_, ok := s[v]
	return ok
}

// Slice returns the elements in no particular order. The result is never
// nil.
func (s Set[T]) Slice() []T {
	result := make([]T, 0, len(s))
	for v := range s {
		result = append(result, v)
	}
	return result
}

// Get decodes the entry for id as a T. It returns nil if there is no entry
// or the entry holds null.
func Get[T any](r *Raw, id string) (*T, error) {
	var v *T
	found, err := r.Get(id, &v)
	if err != nil || !found {
		return nil, err
	}
	return v, nil
}

// GetList returns the elements stored under id in stored order. The list is
// empty, not nil, when there is no entry; use Contains to tell the two apart.
func GetList[T any](r *Raw, id string) ([]T, error) {
	list := List[T]{}
	_, err := FillCollection[T](r, id, &list)
	if err != nil {
		return nil, err
	}
	return list, nil
}

// GetSet returns the elements stored under id as a set. The set is empty
// when there is no entry.
func GetSet[T comparable](r *Raw, id string) (Set[T], error) {
	set := Set[T]{}
	_, err := FillCollection[T](r, id, set)
	if err != nil {
		return nil, err
	}
	return set, nil
}

// StoreList saves items as one array. A nil slice is stored as an empty
// array.
func StoreList[T any](r *Raw, id string, items []T) (bool, error) {
	if items == nil {
		items = []T{}
	}
	return r.Store(id, items)
}

// StoreSet saves the elements of set as one array.
func StoreSet[T comparable](r *Raw, id string, set Set[T]) (bool, error) {
	return r.Store(id, set.Slice())
}

// FillCollection decodes each element of the array stored under id as a T
// and adds it to c. It returns false, leaving c alone, if there is no entry.
// The whole array is decoded before anything is added, so c is also left
// alone when an error is returned.
func FillCollection[T any](r *Raw, id string, c Collection[T]) (bool, error) {
	data, found, err := r.load("fillCollection", id)
	if err != nil || !found {
		return false, err
	}
	items, err := decodeArray[T](r.codec, data)
	if err != nil {
		return false, &DecodeError{Op: "fillCollection", ID: id, Err: err}
	}
	for _, item := range items {
		c.Add(item)
	}
	return true, nil
}

// decodeArray streams through an encoded array, decoding every element.
func decodeArray[T any](c codec.Codec, data []byte) ([]T, error) {
	rd := c.NewReader(data)
	if err := rd.BeginArray(); err != nil {
		return nil, err
	}
	var items []T
	for rd.HasNext() {
		var item T
		if err := rd.Decode(&item); err != nil {
			return nil, err
		}
		items = append(items, item)
	}
	if err := rd.EndArray(); err != nil {
		return nil, err
	}
	return items, rd.End()
}
