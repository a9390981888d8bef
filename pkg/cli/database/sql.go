/* Copyright 2025 Trailsync Authors
 *
 * Licensed under the Apache License, Version 2.0 (the "License");
 * you may not use this file except in compliance with the License.
 * You may obtain a copy of the License at
 *
 *     http://www.apache.org/licenses/LICENSE-2.0
 *
 * Unless required by applicable law or agreed to in writing, software
 * distributed under the License is distributed on an "AS IS" BASIS,
 * WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
 * See the License for the specific language governing permissions and
 * limitations under the License.
 */

// Package database provides the local replica of the remote store: an
// embedded SQLite database mirroring routes and their children, each
// mutable row tagged with a sync status.
package database

import (
	"database/sql"
	"os"
	"path/filepath"
	"strings"

	// sqlite driver
	_ "github.com/mattn/go-sqlite3"
	"github.com/pkg/errors"
)

// ErrNestedTx is returned when a transaction is started on a transaction
var ErrNestedTx = errors.New("transaction already in progress")

// SQLCommon is the interface shared by a connection and a transaction
type SQLCommon interface {
	Exec(query string, args ...interface{}) (sql.Result, error)
	Query(query string, args ...interface{}) (*sql.Rows, error)
	QueryRow(query string, args ...interface{}) *sql.Row
}

// DB is a database connection, or a transaction started on one. Callers
// use the same methods in both cases so that a helper can run standalone
// or as part of a larger transaction.
type DB struct {
	Conn *sql.DB
	Tx   *sql.Tx
}

func withForeignKeys(dsn string) string {
	if strings.Contains(dsn, "_foreign_keys") {
		return dsn
	}
	if strings.Contains(dsn, "?") {
		return dsn + "&_foreign_keys=on"
	}

	return dsn + "?_foreign_keys=on"
}

// Open opens a connection to the database at the given path or DSN. Foreign
// key enforcement is turned on for every connection.
func Open(dsn string) (*DB, error) {
	if !strings.HasPrefix(dsn, "file:") {
		dir := filepath.Dir(dsn)
		if err := os.MkdirAll(dir, 0755); err != nil {
			return nil, errors.Wrapf(err, "creating database directory at %s", dir)
		}
	}

	conn, err := sql.Open("sqlite3", withForeignKeys(dsn))
	if err != nil {
		return nil, errors.Wrap(err, "opening db connection")
	}

	// single writer per device
	conn.SetMaxOpenConns(1)

	if err := conn.Ping(); err != nil {
		conn.Close()
		return nil, errors.Wrap(err, "connecting to db")
	}

	return &DB{Conn: conn}, nil
}

func (d *DB) common() SQLCommon {
	if d.Tx != nil {
		return d.Tx
	}

	return d.Conn
}

// Begin starts a transaction
func (d *DB) Begin() (*DB, error) {
	if d.Tx != nil {
		return nil, ErrNestedTx
	}

	tx, err := d.Conn.Begin()
	if err != nil {
		return nil, err
	}

	return &DB{Conn: d.Conn, Tx: tx}, nil
}

// Exec executes a query without returning rows
func (d *DB) Exec(query string, args ...interface{}) (sql.Result, error) {
	return d.common().Exec(query, args...)
}

// Query executes a query returning rows
func (d *DB) Query(query string, args ...interface{}) (*sql.Rows, error) {
	return d.common().Query(query, args...)
}

// QueryRow executes a query returning at most one row
func (d *DB) QueryRow(query string, args ...interface{}) *sql.Row {
	return d.common().QueryRow(query, args...)
}

// Commit commits the transaction
func (d *DB) Commit() error {
	if d.Tx == nil {
		return errors.New("no transaction in progress")
	}

	return d.Tx.Commit()
}

// Rollback rolls back the transaction. It is a no-op on a plain connection
// and after the transaction has been committed.
func (d *DB) Rollback() error {
	if d.Tx == nil {
		return nil
	}

	err := d.Tx.Rollback()
	if err == sql.ErrTxDone {
		return nil
	}

	return err
}

// Close closes the underlying connection
func (d *DB) Close() error {
	return d.Conn.Close()
}

// RunInTx runs fn inside a transaction, committing when it returns nil and
// rolling back otherwise. If d is already a transaction, fn runs on it
// directly and the caller keeps control of commit and rollback.
func RunInTx(d *DB, fn func(tx *DB) error) error {
	if d.Tx != nil {
		return fn(d)
	}

	tx, err := d.Begin()
	if err != nil {
		return errors.Wrap(err, "beginning a transaction")
	}

	if err := fn(tx); err != nil {
		tx.Rollback()
		return err
	}

	if err := tx.Commit(); err != nil {
		return errors.Wrap(err, "committing a transaction")
	}

	return nil
}
