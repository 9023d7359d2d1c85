package store

import (
	"os"
	"path/filepath"
	"sort"
	"strings"
	"testing"
)

func TestItemSubdir(t *testing.T) {
	var table = []struct{ input, output string }{
		{"x", "x_/__/"},
		{"xy", "xy/__/"},
		{"xyz", "xy/z_/"},
		{"wxyz", "wx/yz/"},
		{"vwxyz", "vw/xy/"},
		{"b930agg8z", "b9/30/"},
		{"..x", "__/x_/"},
		{"a.b.c", "a_/b_/"},
	}
	for _, s := range table {
		result := itemSubdir(s.input)
		if result != s.output {
			t.Errorf("itemSubdir(%q) = %s, expected %s", s.input, result, s.output)
		}
	}
}

func TestListPrefix(t *testing.T) {
	var files = []string{
		"ab/",
		"ab/cd/",
		"ab/cd/abcd-0001",
		"ab/cd/abcd-0002",
		"ab/cd/abcdef-0001",
		"ab/ce/",
		"ab/ce/abcez-0001",
		"ab/qw/",
		"ab/qw/abqw-0001",
		"ac/",
		"ac/zx/",
		"ac/zx/aczx-0001",
		"bc/",
		"bc/de/",
		"bc/de/bcde-0001",
		"scratch/",
		"scratch/0c1f9d34",
	}
	var table = []struct {
		prefix   string
		expected []string
	}{
		{"", []string{
			"abcd-0001",
			"abcd-0002",
			"abcdef-0001",
			"abcez-0001",
			"abqw-0001",
			"aczx-0001",
			"bcde-0001",
		}},
		{"a", []string{
			"abcd-0001",
			"abcd-0002",
			"abcdef-0001",
			"abcez-0001",
			"abqw-0001",
			"aczx-0001",
		}},
		{"ab", []string{
			"abcd-0001",
			"abcd-0002",
			"abcdef-0001",
			"abcez-0001",
			"abqw-0001",
		}},
		{"abc", []string{
			"abcd-0001",
			"abcd-0002",
			"abcdef-0001",
			"abcez-0001",
		}},
		{"abcd", []string{
			"abcd-0001",
			"abcd-0002",
			"abcdef-0001",
		}},
		{"abcde", []string{
			"abcdef-0001",
		}},
		{"zzzz", nil},
	}
	dir := makeTmpTree(t, files)
	s := NewFileSystem(dir)
	for _, tab := range table {
		t.Logf("Trying prefix %s", tab.prefix)
		result, err := s.ListPrefix(tab.prefix)
		sort.Strings(result)
		if err != nil {
			t.Errorf("Got unexpected error: %s", err.Error())
		} else if !equal(tab.expected, result) {
			t.Errorf("Got result %v, expected %v", result, tab.expected)
		}
	}
}

func TestWalkTree(t *testing.T) {
	var files = []string{
		"a/",
		"a/b/",
		"a/b/xyz-0001-1",
		"a/b/xyz-0002-1",
		"a/b/qwe-0001-2",
		"a/b/qwe-0002-1",
		"a/c/",
		"a/c/asd-0001-1",
		"a/c/asd-0002-1",
		"a/c/asd-0003-2",
		"a/toplevel",
	}
	var goal = []string{
		"xyz-0001-1",
		"xyz-0002-1",
		"qwe-0001-2",
		"qwe-0002-1",
		"asd-0001-1",
		"asd-0002-1",
		"asd-0003-2",
	}
	dir := makeTmpTree(t, files)
	c := make(chan string)
	go walkTree(c, dir, 0)
	var result []string
	for name := range c {
		result = append(result, name)
		t.Log(name)
	}
	if len(result) != len(goal) {
		t.Errorf("Got %v, expected %v", result, goal)
	}
}

func TestWalkMissingRoot(t *testing.T) {
	s := NewFileSystem(filepath.Join(t.TempDir(), "nothing-here"))
	keys, err := s.ListPrefix("")
	if err != nil || len(keys) != 0 {
		t.Errorf("Got %v, %v, expected nothing", keys, err)
	}
}

func TestFileSystemShortKeys(t *testing.T) {
	s := NewFileSystem(t.TempDir())
	keys := []string{"a", "ab", "abc", ".a", "..b"}
	for _, key := range keys {
		err := s.Put(key, []byte(key))
		if err != nil {
			t.Fatalf("Put(%q) = %s", key, err)
		}
	}
	result, _ := s.ListPrefix("")
	sort.Strings(result)
	sort.Strings(keys)
	if !equal(result, keys) {
		t.Errorf("Got %v, expected %v", result, keys)
	}
	for _, key := range keys {
		b, err := s.Get(key)
		if err != nil || string(b) != key {
			t.Errorf("Get(%q) = %q, %v", key, b, err)
		}
	}
}

func TestKeyValidation(t *testing.T) {
	var table = []struct {
		key string
		err error
	}{
		{"", ErrEmptyKey},
		{"a/b", ErrKeyContainsSlash},
		{"a b", ErrKeyContainsWhiteSpace},
		{"a\tb", ErrKeyContainsWhiteSpace},
		{"a\x01b", ErrKeyContainsControlChar},
		{"a\xffb", ErrKeyContainsNonUnicode},
		{".", ErrKeyReserved},
		{"..", ErrKeyReserved},
		{"ok-key_1.json", nil},
	}
	s := NewFileSystem(t.TempDir())
	for _, tab := range table {
		err := s.Put(tab.key, []byte("x"))
		if err != tab.err {
			t.Errorf("Put(%q) = %v, expected %v", tab.key, err, tab.err)
		}
	}
	// nothing could have been stored under a reserved key
	ok, err := s.Contains("..")
	if ok || err != nil {
		t.Errorf("Contains(..) = %v, %v", ok, err)
	}
}

func TestPutLeavesNoScratch(t *testing.T) {
	dir := t.TempDir()
	s := NewFileSystem(dir)
	for i := 0; i < 3; i++ {
		if err := s.Put("item", []byte(strings.Repeat("x", i))); err != nil {
			t.Fatal(err)
		}
	}
	entries, err := os.ReadDir(filepath.Join(dir, scratchdir))
	if err != nil {
		t.Fatal(err)
	}
	if len(entries) != 0 {
		t.Errorf("scratch directory has %d entries", len(entries))
	}
}

// returns abs path to the root of the new tree. The tree is removed when the
// test finishes.
func makeTmpTree(t *testing.T, files []string) string {
	var data []byte
	root := t.TempDir()
	for _, s := range files {
		var err error
		p := filepath.Join(root, s)
		if strings.HasSuffix(s, "/") {
			err = os.Mkdir(p, 0777)
		} else {
			err = os.WriteFile(p, data, 0666)
		}
		if err != nil {
			t.Fatal(err)
		}
	}
	return root
}

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
