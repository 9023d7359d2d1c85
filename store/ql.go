package store

import (
	"database/sql"
	"strings"

	_ "github.com/cznic/ql/driver"
	"github.com/google/uuid"
	"github.com/pkg/errors"
)

// QL is a store kept in a single table of the QL embedded database. It is
// mostly useful for development and for tests, where it needs no external
// service and no cgo.
type QL struct {
	db *sql.DB
}

var _ Store = &QL{}

const qlInit = `
	CREATE TABLE IF NOT EXISTS key_value_store (
		id string,
		value string
	);
	CREATE UNIQUE INDEX IF NOT EXISTS key_value_store_id ON key_value_store (id);
`

// NewQL opens a QL database store. filename is the name of the file to save
// the database to. The filename "memory" means to keep everything in memory;
// every such store is independent of the others.
func NewQL(filename string) (*QL, error) {
	var db *sql.DB
	var err error
	if filename == "memory" {
		db, err = sql.Open("ql-mem", uuid.New().String()+".db")
	} else {
		db, err = sql.Open("ql", filename)
	}
	if err == nil {
		_, err = performExec(db, qlInit)
	}
	if err != nil {
		if db != nil {
			db.Close()
		}
		return nil, errors.Wrap(err, "Open QL")
	}
	return &QL{db: db}, nil
}

// Contains reports whether a row exists for key.
func (q *QL) Contains(key string) (bool, error) {
	const query = `SELECT count(*) FROM key_value_store WHERE id == ?1`

	var n int64
	err := q.db.QueryRow(query, key).Scan(&n)
	if err != nil {
		return false, err
	}
	return n > 0, nil
}

// Get returns the value stored for key.
func (q *QL) Get(key string) ([]byte, error) {
	const query = `SELECT value FROM key_value_store WHERE id == ?1 LIMIT 1`

	var value string
	err := q.db.QueryRow(query, key).Scan(&value)
	if err == sql.ErrNoRows {
		return nil, ErrNotExist
	} else if err != nil {
		return nil, err
	}
	return []byte(value), nil
}

// Put replaces the row for key. The delete and the insert happen in one
// transaction.
func (q *QL) Put(key string, value []byte) error {
	const dbDelete = `DELETE FROM key_value_store WHERE id == ?1`
	const dbInsert = `INSERT INTO key_value_store VALUES (?1, ?2)`

	if key == "" {
		return ErrEmptyKey
	}
	tx, err := q.db.Begin()
	if err != nil {
		return err
	}
	_, err = tx.Exec(dbDelete, key)
	if err == nil {
		_, err = tx.Exec(dbInsert, key, string(value))
	}
	if err != nil {
		_ = tx.Rollback()
		return err
	}
	return tx.Commit()
}

// Delete removes the row for key.
func (q *QL) Delete(key string) (bool, error) {
	const query = `DELETE FROM key_value_store WHERE id == ?1`

	result, err := performExec(q.db, query, key)
	if err != nil {
		return false, err
	}
	nrows, err := result.RowsAffected()
	if err != nil {
		return false, err
	}
	return nrows > 0, nil
}

// List returns a channel with every key in the table.
func (q *QL) List() <-chan string {
	keys, err := q.ListPrefix("")
	return listFrom(keys, err, func(err error) {
		reportListError("QL", err)
	})
}

// ListPrefix returns the keys starting with prefix.
func (q *QL) ListPrefix(prefix string) ([]string, error) {
	const query = `SELECT id FROM key_value_store ORDER BY id`

	// ql's LIKE matches regular expressions, so filter here instead of escaping
	rows, err := q.db.Query(query)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var result []string
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			return nil, err
		}
		if strings.HasPrefix(id, prefix) {
			result = append(result, id)
		}
	}
	return result, rows.Err()
}

// Close closes the database.
func (q *QL) Close() error {
	return q.db.Close()
}

// performExec runs a statement in its own transaction. ql requires every
// change to happen inside one.
func performExec(db *sql.DB, query string, args ...interface{}) (sql.Result, error) {
	tx, err := db.Begin()
	if err != nil {
		return nil, err
	}
	var result sql.Result
	result, err = tx.Exec(query, args...)
	if err != nil {
		_ = tx.Rollback()
		return nil, err
	}
	err = tx.Commit()
	return result, err
}
