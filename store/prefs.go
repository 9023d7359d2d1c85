package store

import (
	"bytes"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"

	"github.com/BurntSushi/toml"
	"github.com/google/uuid"
	"github.com/pkg/errors"
)

// Prefs keeps every key in one flat preferences file, a TOML document
// mapping each key to its value. The file is read on first use and rewritten
// in full on every change, so it suits a small number of small values.
type Prefs struct {
	path string

	m      sync.Mutex // protects values and loaded
	loaded bool
	values map[string]string
}

var _ Store = &Prefs{}

// NewPrefs creates a preference store kept in the file at path. The file is
// created on the first Put.
func NewPrefs(path string) *Prefs {
	return &Prefs{path: path}
}

// load reads the file if that has not happened yet. Callers must hold the
// lock.
func (p *Prefs) load() error {
	if p.loaded {
		return nil
	}
	values := make(map[string]string)
	_, err := toml.DecodeFile(p.path, &values)
	if err != nil && !os.IsNotExist(err) {
		return errors.Wrapf(err, "read prefs %s", p.path)
	}
	p.values = values
	p.loaded = true
	return nil
}

// save writes the current values to a temporary file next to the
// preferences file and renames it into place. Callers must hold the lock.
func (p *Prefs) save() error {
	var buf bytes.Buffer
	err := toml.NewEncoder(&buf).Encode(p.values)
	if err != nil {
		return errors.Wrapf(err, "encode prefs %s", p.path)
	}
	temp := filepath.Join(filepath.Dir(p.path), "."+uuid.New().String()+".tmp")
	err = os.WriteFile(temp, buf.Bytes(), 0664)
	if err == nil {
		err = os.Rename(temp, p.path)
	}
	if err != nil {
		os.Remove(temp)
		return errors.Wrapf(err, "write prefs %s", p.path)
	}
	return nil
}

// Contains reports whether the file has a value for key.
func (p *Prefs) Contains(key string) (bool, error) {
	p.m.Lock()
	defer p.m.Unlock()
	if err := p.load(); err != nil {
		return false, err
	}
	_, ok := p.values[key]
	return ok, nil
}

// Get returns the value for key.
func (p *Prefs) Get(key string) ([]byte, error) {
	p.m.Lock()
	defer p.m.Unlock()
	if err := p.load(); err != nil {
		return nil, err
	}
	v, ok := p.values[key]
	if !ok {
		return nil, ErrNotExist
	}
	return []byte(v), nil
}

// Put sets the value for key and rewrites the file. If the write fails the
// in-memory value is restored.
func (p *Prefs) Put(key string, value []byte) error {
	if key == "" {
		return ErrEmptyKey
	}
	p.m.Lock()
	defer p.m.Unlock()
	if err := p.load(); err != nil {
		return err
	}
	old, had := p.values[key]
	p.values[key] = string(value)
	err := p.save()
	if err != nil {
		if had {
			p.values[key] = old
		} else {
			delete(p.values, key)
		}
	}
	return err
}

// Delete removes key and rewrites the file.
func (p *Prefs) Delete(key string) (bool, error) {
	p.m.Lock()
	defer p.m.Unlock()
	if err := p.load(); err != nil {
		return false, err
	}
	old, had := p.values[key]
	if !had {
		return false, nil
	}
	delete(p.values, key)
	if err := p.save(); err != nil {
		p.values[key] = old
		return false, err
	}
	return true, nil
}

// List returns a channel with every key in the file.
func (p *Prefs) List() <-chan string {
	keys, err := p.ListPrefix("")
	return listFrom(keys, err, func(err error) {
		reportListError("Prefs", err)
	})
}

// ListPrefix returns the keys starting with prefix, sorted.
func (p *Prefs) ListPrefix(prefix string) ([]string, error) {
	p.m.Lock()
	defer p.m.Unlock()
	if err := p.load(); err != nil {
		return nil, err
	}
	var result []string
	for k := range p.values {
		if strings.HasPrefix(k, prefix) {
			result = append(result, k)
		}
	}
	sort.Strings(result)
	return result, nil
}
