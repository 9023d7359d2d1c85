package storetest

import (
	"bytes"
	"sort"
	"testing"

	"github.com/ndlib/objectstore/store"
)

// Conformance runs the behaviour every store implementation must share
// against s. The store should be empty when passed in; it is left empty
// afterwards.
func Conformance(t *testing.T, s store.Store) {
	t.Helper()
	t.Run("Absent", func(t *testing.T) { testAbsent(t, s) })
	t.Run("PutGet", func(t *testing.T) { testPutGet(t, s) })
	t.Run("Replace", func(t *testing.T) { testReplace(t, s) })
	t.Run("Delete", func(t *testing.T) { testDelete(t, s) })
	t.Run("EmptyKey", func(t *testing.T) { testEmptyKey(t, s) })
	t.Run("EmptyValue", func(t *testing.T) { testEmptyValue(t, s) })
	t.Run("List", func(t *testing.T) { testList(t, s) })
}

func testAbsent(t *testing.T, s store.Store) {
	ok, err := s.Contains("absent")
	if err != nil || ok {
		t.Errorf("Contains(absent) = %v, %v; expected false, nil", ok, err)
	}
	_, err = s.Get("absent")
	if err != store.ErrNotExist {
		t.Errorf("Get(absent) = %v; expected %v", err, store.ErrNotExist)
	}
	ok, err = s.Delete("absent")
	if err != nil || ok {
		t.Errorf("Delete(absent) = %v, %v; expected false, nil", ok, err)
	}
}

func testPutGet(t *testing.T, s store.Store) {
	var tests = []struct {
		key   string
		value string
	}{
		{"a", `"x"`},
		{"ab", `[1,2,3]`},
		{"abc", `{"key":"a","value":1}`},
		{"hello-world", `[{"key":"a","value":1},{"key":"b","value":2}]`},
		{"unicode-é", "line1\nline2\t\"quoted\" \\ é"},
	}
	for _, test := range tests {
		err := s.Put(test.key, []byte(test.value))
		if err != nil {
			t.Errorf("Put(%q) = %s", test.key, err)
			continue
		}
		ok, err := s.Contains(test.key)
		if err != nil || !ok {
			t.Errorf("Contains(%q) = %v, %v; expected true, nil", test.key, ok, err)
		}
		result, err := s.Get(test.key)
		if err != nil {
			t.Errorf("Get(%q) = %s", test.key, err)
		} else if !bytes.Equal(result, []byte(test.value)) {
			t.Errorf("Get(%q) = %q; expected %q", test.key, result, test.value)
		}
	}
	for _, test := range tests {
		ok, err := s.Delete(test.key)
		if err != nil || !ok {
			t.Errorf("Delete(%q) = %v, %v; expected true, nil", test.key, ok, err)
		}
	}
}

func testReplace(t *testing.T, s store.Store) {
	const key = "replace"
	for _, v := range []string{"first", "second value, longer", "3"} {
		if err := s.Put(key, []byte(v)); err != nil {
			t.Fatalf("Put = %s", err)
		}
		result, err := s.Get(key)
		if err != nil {
			t.Fatalf("Get = %s", err)
		}
		if string(result) != v {
			t.Errorf("Get = %q; expected %q", result, v)
		}
	}
	keys, err := s.ListPrefix(key)
	if err != nil {
		t.Fatalf("ListPrefix = %s", err)
	}
	if len(keys) != 1 {
		t.Errorf("ListPrefix(%q) = %v; expected exactly one key", key, keys)
	}
	s.Delete(key)
}

func testDelete(t *testing.T, s store.Store) {
	const key = "delete"
	if err := s.Put(key, []byte("x")); err != nil {
		t.Fatalf("Put = %s", err)
	}
	ok, err := s.Delete(key)
	if err != nil || !ok {
		t.Errorf("first Delete = %v, %v; expected true, nil", ok, err)
	}
	ok, err = s.Delete(key)
	if err != nil || ok {
		t.Errorf("second Delete = %v, %v; expected false, nil", ok, err)
	}
	ok, err = s.Contains(key)
	if err != nil || ok {
		t.Errorf("Contains after Delete = %v, %v; expected false, nil", ok, err)
	}
	_, err = s.Get(key)
	if err != store.ErrNotExist {
		t.Errorf("Get after Delete = %v; expected %v", err, store.ErrNotExist)
	}
}

func testEmptyKey(t *testing.T, s store.Store) {
	err := s.Put("", []byte("x"))
	if err == nil {
		t.Errorf("Put with empty key succeeded")
	}
}

func testEmptyValue(t *testing.T, s store.Store) {
	const key = "empty"
	if err := s.Put(key, nil); err != nil {
		t.Fatalf("Put = %s", err)
	}
	ok, err := s.Contains(key)
	if err != nil || !ok {
		t.Errorf("Contains = %v, %v; expected true, nil", ok, err)
	}
	result, err := s.Get(key)
	if err != nil || len(result) != 0 {
		t.Errorf("Get = %q, %v; expected empty value", result, err)
	}
	s.Delete(key)
}

func testList(t *testing.T, s store.Store) {
	keys := []string{"list-a1", "list-a2", "list-b1", "other"}
	for _, key := range keys {
		if err := s.Put(key, []byte(key)); err != nil {
			t.Fatalf("Put(%q) = %s", key, err)
		}
	}
	var listed []string
	for key := range s.List() {
		listed = append(listed, key)
	}
	sort.Strings(listed)
	if !equal(listed, keys) {
		t.Errorf("List() = %v; expected %v", listed, keys)
	}
	var tests = []struct {
		prefix string
		result []string
	}{
		{"list-", []string{"list-a1", "list-a2", "list-b1"}},
		{"list-a", []string{"list-a1", "list-a2"}},
		{"list-a2", []string{"list-a2"}},
		{"missing", nil},
		{"", keys},
	}
	for _, test := range tests {
		result, err := s.ListPrefix(test.prefix)
		if err != nil {
			t.Errorf("ListPrefix(%q) = %s", test.prefix, err)
			continue
		}
		sort.Strings(result)
		if !equal(result, test.result) {
			t.Errorf("ListPrefix(%q) = %v; expected %v", test.prefix, result, test.result)
		}
	}
	for _, key := range keys {
		s.Delete(key)
	}
}

// equal compares two string slices, treating nil and empty alike.
func equal(a, b []string) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if a[i] != b[i] {
			return false
		}
	}
	return true
}
