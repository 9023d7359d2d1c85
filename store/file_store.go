package store

import (
	"errors"
	"io"
	"log"
	"os"
	"path/filepath"
	"strings"
	"unicode"
	"unicode/utf8"

	raven "github.com/getsentry/raven-go"
	"github.com/google/uuid"
)

// FileSystem implements the simple file system based store. Every key is
// kept in its own file.
// The keys are used as file names. This means keys should not contain a
// forward slash character '/'.
type FileSystem struct {
	root string
}

const (
	// the subdir to store files while they are being written to.
	scratchdir = "scratch"
)

var (
	// make sure it implements the Store interface
	_ Store = &FileSystem{}

	// ErrKeyContainsSlash means the key provided contains a forward slash '/'
	ErrKeyContainsSlash = errors.New("Key contains forward slash")

	// ErrKeyContainsNonUnicode means the key provided contains a Non Unicode Rune
	ErrKeyContainsNonUnicode = errors.New("Key contains Non-Unicode character")

	// ErrKeyContainsWhiteSpace  means the key provided contains WhiteSpace
	ErrKeyContainsWhiteSpace = errors.New("Key contains White Space")

	// ErrKeyContainsControlChar  means the key provided contains Control Characters
	ErrKeyContainsControlChar = errors.New("Key contains Control  Characters")

	// ErrKeyReserved means the key would collide with the scratch directory.
	ErrKeyReserved = errors.New("Key is reserved")
)

// NewFileSystem creates a new FileSystem store based at the given root path.
func NewFileSystem(root string) *FileSystem {
	return &FileSystem{root}
}

// List returns a channel listing all the keys in this store.
func (s *FileSystem) List() <-chan string {
	c := make(chan string)
	go walkTree(c, s.root, 0)
	return c
}

// Perform depth first walk of file tree at root, emitting all unique item
// keys on channel out.
//
// If level is 0, the channel is closed when the function exits.
func walkTree(out chan<- string, root string, level int) {
	if level == 0 {
		defer close(out)
	}
	f, err := os.Open(root)
	if err != nil {
		if !os.IsNotExist(err) {
			log.Println(err)
			raven.CaptureError(err, nil)
		}
		return
	}
	defer f.Close()
	for {
		entries, err := f.Readdir(1000)
		if err == io.EOF {
			return
		} else if err != nil {
			// we have no other way of passing this error back
			log.Println(err)
			raven.CaptureError(err, nil)
			return
		}
		for _, e := range entries {
			// only decend at most two directories down, and only
			// list files in the second level. 0/1/2
			if e.IsDir() {
				if level == 0 && e.Name() == scratchdir {
					continue
				}
				if level < 2 {
					p := filepath.Join(root, e.Name())
					walkTree(out, p, level+1)
				}
				continue
			}
			if level != 2 {
				continue
			}
			out <- e.Name()
		}
	}
}

// ListPrefix returns a list of all the keys beginning with the given prefix.
// Once the prefix is long enough to pick a single directory only that
// directory is read.
func (s *FileSystem) ListPrefix(prefix string) ([]string, error) {
	if len(prefix) < 4 {
		var result []string
		for key := range s.List() {
			if strings.HasPrefix(key, prefix) {
				result = append(result, key)
			}
		}
		return result, nil
	}
	entries, err := os.ReadDir(filepath.Join(s.root, itemSubdir(prefix)))
	if os.IsNotExist(err) {
		return nil, nil
	} else if err != nil {
		return nil, err
	}
	var result []string
	for _, e := range entries {
		if !e.IsDir() && strings.HasPrefix(e.Name(), prefix) {
			result = append(result, e.Name())
		}
	}
	return result, nil
}

// Contains reports whether a file exists for the given key.
func (s *FileSystem) Contains(key string) (bool, error) {
	if strings.Contains(key, "/") {
		return false, ErrKeyContainsSlash
	}
	if isKeyValid(key) != nil {
		// nothing could have been stored under it
		return false, nil
	}
	info, err := os.Stat(s.keyPath(key))
	if err == nil {
		return !info.IsDir(), nil
	}
	if os.IsNotExist(err) {
		return false, nil
	}
	return false, err
}

// Get reads the whole file for the given key.
func (s *FileSystem) Get(key string) ([]byte, error) {
	if strings.Contains(key, "/") {
		return nil, ErrKeyContainsSlash
	}
	if isKeyValid(key) != nil {
		return nil, ErrNotExist
	}
	b, err := os.ReadFile(s.keyPath(key))
	if os.IsNotExist(err) {
		return nil, ErrNotExist
	}
	return b, err
}

// Put writes value into a scratch file and then renames it over the file
// for key. The rename replaces any previous value in one step.
func (s *FileSystem) Put(key string, value []byte) error {
	// Perform Key Name Validation
	err := isKeyValid(key)
	if err != nil {
		return err
	}
	// first set up the eventual home dir of this file
	target, err := s.setupSubDir(itemSubdir(key), key)
	if err != nil {
		return err
	}
	// now set up the scratch location we will temporially save the file to.
	// The name is random so two writers of the same key do not collide.
	temp, err := s.setupSubDir(scratchdir, uuid.New().String())
	if err != nil {
		return err
	}
	// pass the O_EXCL flag explicitly to prevent overwriting
	// already existing files
	w, err := os.OpenFile(temp, os.O_RDWR|os.O_CREATE|os.O_EXCL, 0666)
	if err != nil {
		return err
	}
	_, err = w.Write(value)
	if err == nil {
		err = w.Sync()
	}
	err2 := w.Close()
	if err == nil {
		err = err2
	}
	if err == nil {
		err = os.Rename(temp, target)
	}
	if err != nil {
		os.Remove(temp)
	}
	return err
}

// setupSubDir makes sure the given subdirectory exists under the root, and
// then returns the absolute path to the keyed file, and an optional error.
func (s *FileSystem) setupSubDir(subdir, key string) (string, error) {
	dir := filepath.Join(s.root, subdir)
	err := os.MkdirAll(dir, 0775)
	return filepath.Join(dir, key), err
}

func (s *FileSystem) keyPath(key string) string {
	return filepath.Join(s.root, itemSubdir(key), key)
}

// Delete the given key from the store. It is not an error if the key doesn't
// exist.
func (s *FileSystem) Delete(key string) (bool, error) {
	if strings.Contains(key, "/") {
		return false, ErrKeyContainsSlash
	}
	if isKeyValid(key) != nil {
		return false, nil
	}
	err := os.Remove(s.keyPath(key))
	// don't report a missing file as an error
	if err != nil && os.IsNotExist(err) {
		return false, nil
	}
	return err == nil, err
}

// Given an item key, return the subdirectory the item's file are stored in
// e.g. "abcdd123" returns "ab/cd/". Short keys are padded with '_', and dots
// become '_' so no directory is named "." or "..". e.g. "a.b" returns "a_/b_/"
func itemSubdir(key string) string {
	var fan [4]byte
	for i := range fan {
		fan[i] = '_'
		if i < len(key) && key[i] != '.' {
			fan[i] = key[i]
		}
	}
	return string(fan[0:2]) + "/" + string(fan[2:4]) + "/"
}

// Some Simple Item Key Validations
func isKeyValid(key string) error {
	if key == "" {
		return ErrEmptyKey
	}

	// Valid Unicode
	if !utf8.ValidString(key) {
		return ErrKeyContainsNonUnicode
	}

	// No Slashes
	if strings.Contains(key, "/") {
		return ErrKeyContainsSlash
	}

	// keys "." and ".." would name directories, not files
	if key == "." || key == ".." {
		return ErrKeyReserved
	}

	for _, rune := range key {
		// No White Space
		if unicode.IsSpace(rune) {
			return ErrKeyContainsWhiteSpace
		}

		// No Control Characters
		if unicode.IsControl(rune) {
			return ErrKeyContainsControlChar
		}
	}

	return nil
}
