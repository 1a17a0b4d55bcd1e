// Copyright 2018 Google Inc.
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
// https://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.


package sink

import (
	"bytes"
	"context"
	"database/sql"
	"fmt"
	"io"
	"strconv"
	"strings"

	_ "modernc.org/sqlite"
)

const (
	createObjectsTable = `
		CREATE TABLE IF NOT EXISTS objects (
			name TEXT PRIMARY KEY,
			zoom INTEGER,
			data BLOB NOT NULL
		)
	`
	insertObject = `INSERT OR REPLACE INTO objects (name, zoom, data) VALUES (?, ?, ?)`
	selectObject = `SELECT data FROM objects WHERE name = ?`
)

// SQLite stores objects as rows of a single table.  Every write happens in
// one transaction, committed by Close.
type SQLite struct {
	db   *sql.DB
	tx   *sql.Tx
	stmt *sql.Stmt
}

// NewSQLite opens (creating if needed) the database at path.
func NewSQLite(ctx context.Context, path string) (*SQLite, error) {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("opening database: %v", err)
	}
	db.SetMaxOpenConns(1)

	if _, err := db.ExecContext(ctx, createObjectsTable); err != nil {
		db.Close()
		return nil, fmt.Errorf("creating objects table: %v", err)
	}

	tx, err := db.BeginTx(ctx, nil)
	if err != nil {
		db.Close()
		return nil, fmt.Errorf("beginning transaction: %v", err)
	}
	stmt, err := tx.PrepareContext(ctx, insertObject)
	if err != nil {
		tx.Rollback()
		db.Close()
		return nil, fmt.Errorf("preparing statement: %v", err)
	}
	return &SQLite{db, tx, stmt}, nil
}

// NewObject returns a handle to the row called name.
func (s *SQLite) NewObject(name string) Object {
	return sqliteObject{s, name}
}

// Close commits every object written and closes the database.
func (s *SQLite) Close() error {
	s.stmt.Close()
	if err := s.tx.Commit(); err != nil {
		s.db.Close()
		return fmt.Errorf("committing transaction: %v", err)
	}
	return s.db.Close()
}

// ReadSQLite returns the content of the object name stored in the database
// at path.
func ReadSQLite(ctx context.Context, path, name string) ([]byte, error) {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("opening database: %v", err)
	}
	defer db.Close()

	var data []byte
	err = db.QueryRowContext(ctx, selectObject, name).Scan(&data)
	if err == sql.ErrNoRows {
		return nil, newNotFoundError("reading "+name, err)
	}
	if err != nil {
		return nil, fmt.Errorf("reading %s: %v", name, err)
	}
	return data, nil
}

type sqliteObject struct {
	s    *SQLite
	name string
}

func (o sqliteObject) NewWriter(ctx context.Context) (io.WriteCloser, error) {
	return &sqliteWriter{ctx: ctx, object: o}, nil
}

// sqliteWriter buffers an object until it is closed.
type sqliteWriter struct {
	bytes.Buffer
	ctx    context.Context
	object sqliteObject
}

func (w *sqliteWriter) Close() error {
	if _, err := w.object.s.stmt.ExecContext(w.ctx, w.object.name, zoomOf(w.object.name), w.Bytes()); err != nil {
		return fmt.Errorf("inserting %s: %v", w.object.name, err)
	}
	return nil
}

// zoomOf returns the zoom level encoded as the first segment of a tile
// name, or nil for other objects.
func zoomOf(name string) interface{} {
	first := strings.SplitN(name, "/", 2)[0]
	if zoom, err := strconv.Atoi(first); err == nil && first != name {
		return zoom
	}
	return nil
}
