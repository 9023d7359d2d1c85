package objectstore

import (
	"bytes"
	"sort"

	"github.com/pkg/errors"

	"github.com/ndlib/objectstore/codec"
)

// Maps are stored as an array of entries, each an object with exactly two
// members, "key" then "value":
//
//	[{"key":"a","value":1},{"key":"b","value":2}]
//
// This allows keys of any type, not only strings. The member order is part
// of the format; a reader rejects entries with the members swapped, missing
// or accompanied by others.
const (
	keyMember   = "key"
	valueMember = "value"
)

// GetMap returns the map stored under id. The map is empty, not nil, when
// there is no entry.
func GetMap[K comparable, V any](r *Raw, id string) (map[K]V, error) {
	m := make(map[K]V)
	_, err := FillMap(r, id, m)
	if err != nil {
		return nil, err
	}
	return m, nil
}

// StoreMap saves m as an array of key/value entries. Keys and values are
// encoded using their dynamic types. Entries are written in the order of
// their encoded keys so the same map always gives the same text.
func StoreMap[K comparable, V any](r *Raw, id string, m map[K]V) (bool, error) {
	data, err := encodeMap(r.codec, m)
	if err != nil {
		return false, &EncodeError{Op: "storeMap", ID: id, Err: err}
	}
	return r.put("storeMap", id, data)
}

// FillMap decodes the entries stored under id and puts them into m. A key
// appearing more than once keeps its last value. It returns false, leaving m
// alone, if there is no entry. m is also left alone when an error is
// returned.
func FillMap[K comparable, V any](r *Raw, id string, m map[K]V) (bool, error) {
	data, found, err := r.load("fillMap", id)
	if err != nil || !found {
		return false, err
	}
	entries, err := decodeMap[K, V](r.codec, data, "fillMap", id)
	if err != nil {
		return false, err
	}
	for _, e := range entries {
		m[e.key] = e.value
	}
	return true, nil
}

type entry[K comparable, V any] struct {
	key   K
	value V
}

type encodedEntry struct {
	sortKey []byte
	key     interface{}
	value   interface{}
}

func encodeMap[K comparable, V any](c codec.Codec, m map[K]V) ([]byte, error) {
	entries := make([]encodedEntry, 0, len(m))
	for k, v := range m {
		b, err := c.Marshal(k)
		if err != nil {
			return nil, errors.Wrapf(err, "map key %v", k)
		}
		entries = append(entries, encodedEntry{sortKey: b, key: k, value: v})
	}
	sort.Slice(entries, func(i, j int) bool {
		return bytes.Compare(entries[i].sortKey, entries[j].sortKey) < 0
	})

	var buf bytes.Buffer
	w := c.NewWriter(&buf)
	if err := w.BeginArray(); err != nil {
		return nil, err
	}
	for _, e := range entries {
		err := w.BeginObject()
		if err == nil {
			err = w.Name(keyMember)
		}
		if err == nil {
			err = w.Encode(e.key)
		}
		if err == nil {
			err = w.Name(valueMember)
		}
		if err == nil {
			err = w.Encode(e.value)
		}
		if err == nil {
			err = w.EndObject()
		}
		if err != nil {
			return nil, errors.Wrapf(err, "map entry %s", e.sortKey)
		}
	}
	if err := w.EndArray(); err != nil {
		return nil, err
	}
	if err := w.Flush(); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

// decodeMap reads every entry of an encoded map. Syntax errors and values of
// the wrong type give a *DecodeError; entries not following the key/value
// layout give a *ProtocolError.
func decodeMap[K comparable, V any](c codec.Codec, data []byte, op, id string) ([]entry[K, V], error) {
	decodeErr := func(err error) error {
		return &DecodeError{Op: op, ID: id, Err: err}
	}
	rd := c.NewReader(data)
	if err := rd.BeginArray(); err != nil {
		return nil, decodeErr(err)
	}
	var entries []entry[K, V]
	for i := 0; rd.HasNext(); i++ {
		// classify turns a codec error inside entry i into the right kind
		classify := func(reason string, err error) error {
			var te *codec.TokenError
			if errors.As(err, &te) {
				return &ProtocolError{Op: op, ID: id, Index: i, Reason: reason, Err: err}
			}
			return decodeErr(errors.Wrapf(err, "map entry %d", i))
		}
		if err := rd.BeginObject(); err != nil {
			return nil, classify("entry is not an object", err)
		}
		var e entry[K, V]
		if err := readMember(rd, keyMember, &e.key, i, op, id, classify); err != nil {
			return nil, err
		}
		if err := readMember(rd, valueMember, &e.value, i, op, id, classify); err != nil {
			return nil, err
		}
		if err := rd.EndObject(); err != nil {
			return nil, classify("unexpected member after \""+valueMember+"\"", err)
		}
		entries = append(entries, e)
	}
	if err := rd.EndArray(); err != nil {
		return nil, decodeErr(err)
	}
	if err := rd.End(); err != nil {
		return nil, decodeErr(err)
	}
	return entries, nil
}

// readMember reads the next member of an entry, which must be called name,
// into target.
func readMember(rd codec.Reader, name string, target interface{}, i int, op, id string,
	classify func(string, error) error) error {

	reason := "expected member \"" + name + "\""
	got, err := rd.NextName()
	if err != nil {
		return classify(reason, err)
	}
	if got != name {
		return &ProtocolError{Op: op, ID: id, Index: i, Reason: reason + ", found \"" + got + "\""}
	}
	if err := rd.Decode(target); err != nil {
		return classify(reason, err)
	}
	return nil
}
