package store

import (
	"database/sql"
	"log"

	"github.com/BurntSushi/migration"
	_ "github.com/go-sql-driver/mysql"
	"github.com/pkg/errors"
)

// This file contains code implementing the store interface using MySQL as a
// storage medium.

// MySQL is a store kept in a single table of a MySQL database. The key is the
// primary key, so a Put is one upsert statement.
type MySQL struct {
	db *sql.DB
}

var _ Store = &MySQL{}

// List of migrations to perform. Add new ones to the end.
// DO NOT change the order of items already in this list.
var mysqlMigrations = []migration.Migrator{
	mysqlschema1,
}

// Adapt the schema versioning for MySQL

var mysqlVersioning = dbVersion{
	GetSQL:    `SELECT max(version) FROM migration_version`,
	SetSQL:    `INSERT INTO migration_version (version, applied) VALUES (?, now())`,
	CreateSQL: `CREATE TABLE migration_version (version INTEGER, applied datetime)`,
}

// NewMySQL connects to a MySQL database, bringing the schema up to date.
func NewMySQL(dial string) (*MySQL, error) {
	db, err := migration.OpenWith(
		"mysql",
		dial,
		mysqlMigrations,
		mysqlVersioning.Get,
		mysqlVersioning.Set)
	if err != nil {
		return nil, errors.Wrap(err, "Open Mysql")
	}
	return &MySQL{db: db}, nil
}

// Contains reports whether a row exists for key.
func (ms *MySQL) Contains(key string) (bool, error) {
	const query = "SELECT count(*) FROM key_value_store WHERE `key` = ?"

	var n int64
	err := ms.db.QueryRow(query, key).Scan(&n)
	if err != nil {
		return false, err
	}
	return n > 0, nil
}

// Get returns the value stored for key.
func (ms *MySQL) Get(key string) ([]byte, error) {
	const query = "SELECT value FROM key_value_store WHERE `key` = ? LIMIT 1"

	var value string
	err := ms.db.QueryRow(query, key).Scan(&value)
	if err == sql.ErrNoRows {
		return nil, ErrNotExist
	} else if err != nil {
		return nil, err
	}
	return []byte(value), nil
}

// Put inserts or replaces the row for key.
func (ms *MySQL) Put(key string, value []byte) error {
	const stmt = "INSERT INTO key_value_store (`key`, value) VALUES (?, ?) ON DUPLICATE KEY UPDATE value = VALUES(value)"

	if key == "" {
		return ErrEmptyKey
	}
	_, err := ms.db.Exec(stmt, key, string(value))
	return err
}

// Delete removes the row for key.
func (ms *MySQL) Delete(key string) (bool, error) {
	const stmt = "DELETE FROM key_value_store WHERE `key` = ?"

	result, err := ms.db.Exec(stmt, key)
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
func (ms *MySQL) List() <-chan string {
	keys, err := ms.ListPrefix("")
	return listFrom(keys, err, func(err error) {
		reportListError("MySQL", err)
	})
}

// ListPrefix returns the keys starting with prefix.
func (ms *MySQL) ListPrefix(prefix string) ([]string, error) {
	const query = "SELECT `key` FROM key_value_store WHERE `key` LIKE ? ORDER BY `key`"

	rows, err := ms.db.Query(query, escapeLike(prefix)+"%")
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var result []string
	for rows.Next() {
		var key string
		if err := rows.Scan(&key); err != nil {
			return nil, err
		}
		result = append(result, key)
	}
	return result, rows.Err()
}

// Close closes the database connection pool.
func (ms *MySQL) Close() error {
	return ms.db.Close()
}

func mysqlschema1(tx migration.LimitedTx) error {
	var s = []string{
		"CREATE TABLE IF NOT EXISTS key_value_store (`key` varchar(255) NOT NULL PRIMARY KEY, value longtext) CHARACTER SET utf8mb4 COLLATE utf8mb4_bin",
	}
	return execlist(tx, s)
}

// execlist exec's each item in the list, return if there is an error.
func execlist(tx migration.LimitedTx, stms []string) error {
	var err error
	for _, s := range stms {
		_, err = tx.Exec(s)
		if err != nil {
			break
		}
	}
	return err
}

// we need to adapt the migration version functions to work with MySQL.
// This code is slightly modified from github.com/BurntSushi/migration

type dbVersion struct {
	// SQL to get the version of this db, returns one row and one column
	GetSQL string
	// SQL to insert a new version of this db. takes one parameter, the new
	// version
	SetSQL string
	// the SQL to create the version table for this db
	CreateSQL string
}

func (d dbVersion) Get(tx migration.LimitedTx) (int, error) {
	v, err := d.get(tx)
	if err != nil {
		// we assume error means there is no migration table
		log.Println(err.Error())
		return 0, nil
	}
	return v, nil
}

func (d dbVersion) Set(tx migration.LimitedTx, version int) error {
	if err := d.set(tx, version); err != nil {
		if err := d.createTable(tx); err != nil {
			return err
		}
		return d.set(tx, version)
	}
	return nil
}

func (d dbVersion) get(tx migration.LimitedTx) (int, error) {
	var version int
	r := tx.QueryRow(d.GetSQL)
	if err := r.Scan(&version); err != nil {
		return 0, err
	}
	return version, nil
}

func (d dbVersion) set(tx migration.LimitedTx, version int) error {
	_, err := tx.Exec(d.SetSQL, version)
	return err
}

func (d dbVersion) createTable(tx migration.LimitedTx) error {
	_, err := tx.Exec(d.CreateSQL)
	if err == nil {
		err = d.set(tx, 0)
	}
	return err
}
