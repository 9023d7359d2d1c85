package store

import (
	"strings"
	"sync"

	"github.com/pkg/errors"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
	"gorm.io/gorm/logger"
)

// kvRow maps to the key_value_store table
type kvRow struct {
	Key   string `gorm:"column:key;primaryKey"`
	Value string `gorm:"column:value"`
}

// TableName overrides the table name to 'key_value_store'
func (kvRow) TableName() string {
	return "key_value_store"
}

// SQLite is a store kept in a single table of an SQLite database file. The
// database is opened on first use and kept open until Close.
type SQLite struct {
	path string

	m  sync.Mutex // protects db
	db *gorm.DB
}

var _ Store = &SQLite{}

// NewSQLite creates a store for the SQLite database at path. Nothing is
// opened until the store is first used.
func NewSQLite(path string) *SQLite {
	return &SQLite{path: path}
}

func (s *SQLite) database() (*gorm.DB, error) {
	s.m.Lock()
	defer s.m.Unlock()
	if s.db != nil {
		return s.db, nil
	}
	db, err := gorm.Open(sqlite.Open(s.path), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	if err != nil {
		return nil, errors.Wrapf(err, "open sqlite %s", s.path)
	}
	err = db.AutoMigrate(&kvRow{})
	if err != nil {
		return nil, errors.Wrapf(err, "migrate sqlite %s", s.path)
	}
	s.db = db
	return db, nil
}

// Contains reports whether a row exists for key.
func (s *SQLite) Contains(key string) (bool, error) {
	db, err := s.database()
	if err != nil {
		return false, err
	}
	var n int64
	result := db.Model(&kvRow{}).Where("key = ?", key).Count(&n)
	if result.Error != nil {
		return false, errors.Wrapf(result.Error, "failed to check key %s", key)
	}
	return n > 0, nil
}

// Get returns the value stored for key.
func (s *SQLite) Get(key string) ([]byte, error) {
	db, err := s.database()
	if err != nil {
		return nil, err
	}
	var row kvRow
	// Use Find instead of First to avoid "record not found" errors for a
	// plain miss
	result := db.Where("key = ?", key).Limit(1).Find(&row)
	if result.Error != nil {
		return nil, errors.Wrapf(result.Error, "failed to read key %s", key)
	}
	if result.RowsAffected == 0 {
		return nil, ErrNotExist
	}
	return []byte(row.Value), nil
}

// Put inserts the row for key, replacing the value on conflict.
func (s *SQLite) Put(key string, value []byte) error {
	if key == "" {
		return ErrEmptyKey
	}
	db, err := s.database()
	if err != nil {
		return err
	}
	row := kvRow{Key: key, Value: string(value)}
	result := db.Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "key"}},
		DoUpdates: clause.AssignmentColumns([]string{"value"}),
	}).Create(&row)
	if result.Error != nil {
		return errors.Wrapf(result.Error, "failed to write key %s", key)
	}
	return nil
}

// Delete removes the row for key.
func (s *SQLite) Delete(key string) (bool, error) {
	db, err := s.database()
	if err != nil {
		return false, err
	}
	result := db.Where("key = ?", key).Delete(&kvRow{})
	if result.Error != nil {
		return false, errors.Wrapf(result.Error, "failed to delete key %s", key)
	}
	return result.RowsAffected == 1, nil
}

// List returns a channel with every key in the table.
func (s *SQLite) List() <-chan string {
	keys, err := s.ListPrefix("")
	return listFrom(keys, err, func(err error) {
		reportListError("SQLite", err)
	})
}

// ListPrefix returns the keys starting with prefix.
func (s *SQLite) ListPrefix(prefix string) ([]string, error) {
	db, err := s.database()
	if err != nil {
		return nil, err
	}
	var keys []string
	q := db.Model(&kvRow{}).Order("key")
	if prefix != "" {
		q = q.Where(`key LIKE ? ESCAPE '\'`, escapeLike(prefix)+"%")
	}
	result := q.Pluck("key", &keys)
	if result.Error != nil {
		return nil, errors.Wrapf(result.Error, "failed to list prefix %s", prefix)
	}
	// LIKE ignores ASCII case in SQLite
	var matched []string
	for _, key := range keys {
		if strings.HasPrefix(key, prefix) {
			matched = append(matched, key)
		}
	}
	return matched, nil
}

// Close closes the database if it was opened. The store may be used again
// afterwards; it will reopen the database.
func (s *SQLite) Close() error {
	s.m.Lock()
	defer s.m.Unlock()
	if s.db == nil {
		return nil
	}
	sqlDB, err := s.db.DB()
	s.db = nil
	if err != nil {
		return err
	}
	return sqlDB.Close()
}

var likeEscaper = strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`)

// escapeLike protects the LIKE wildcards in s.
func escapeLike(s string) string {
	return likeEscaper.Replace(s)
}
