// Copyright 2026 KrakLabs
//
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published
// by the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
//
// This program is distributed in the hope that it will be useful,
// but WITHOUT ANY WARRANTY; without even the implied warranty of
// MERCHANTABILITY or FITNESS FOR A PARTICULAR PURPOSE. See the
// GNU Affero General Public License for more details.
//
// You should have received a copy of the GNU Affero General Public License
// along with this program. If not, see <https://www.gnu.org/licenses/>.
//
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package store is the engine's embedded key/value + relational + FTS
// engine: the Store component. It owns the on-disk CozoDB database and
// exposes a typed relation API (put/get/delete/scan/fts_search/transaction)
// over the six relations of the atomic taxonomy: compounds, molecules,
// atoms, atom_edges, engrams, and session_state.
package store

import (
	"fmt"
	"os"
	"path/filepath"
	"sync"

	cozo "github.com/kraklabs/ece/pkg/cozodb"
	"github.com/kraklabs/ece/internal/errors"
)

// Store wraps a single CozoDB instance. It is the single point of
// serialization for writes; readers see a consistent snapshot per the
// underlying engine's MVCC semantics.
type Store struct {
	db     *cozo.CozoDB
	mu     sync.RWMutex
	closed bool
}

// Config configures the store's on-disk location and engine.
type Config struct {
	// DataDir is the directory where CozoDB stores its data.
	DataDir string

	// Engine is the CozoDB storage engine: "rocksdb", "sqlite", or "mem".
	// Defaults to "rocksdb" for persistence.
	Engine string
}

// Open creates or opens the store at cfg.DataDir and ensures its schema.
// Opening is idempotent: calling it again against the same directory is safe.
func Open(cfg Config) (*Store, error) {
	if cfg.Engine == "" {
		cfg.Engine = "rocksdb"
	}
	if cfg.DataDir == "" {
		return nil, errors.NewConfigError(
			"Cannot open the context store",
			"no data directory was configured",
			"Set db_path in the project config or pass --db-path",
			nil,
		)
	}

	if err := os.MkdirAll(filepath.Dir(cfg.DataDir), 0o755); err != nil {
		return nil, errors.NewPermissionError(
			"Cannot create store directory",
			err.Error(),
			"Check filesystem permissions on the parent directory",
			err,
		)
	}

	db, err := cozo.New(cfg.Engine, cfg.DataDir, nil)
	if err != nil {
		return nil, errors.NewDatabaseError(
			"Cannot open the context store",
			err.Error(),
			"Check that no other engine process holds the database",
			err,
		)
	}

	s := &Store{db: &db}
	if err := s.EnsureSchema(); err != nil {
		db.Close()
		return nil, err
	}
	return s, nil
}

// Close releases the database handle. Safe to call more than once.
func (s *Store) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.closed {
		return nil
	}
	s.closed = true
	s.db.Close()
	return nil
}

// IsEmpty reports whether the compounds relation holds zero rows — used by
// the boot-time auto-hydration policy (§4.Snapshot).
func (s *Store) IsEmpty() (bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	res, err := s.db.RunReadOnly(`?[count(id)] := *compounds{id}`, nil)
	if err != nil {
		return false, wrapStoreErr("check store emptiness", err)
	}
	if len(res.Rows) == 0 {
		return true, nil
	}
	n, _ := res.Rows[0][0].(float64)
	return n == 0, nil
}

// Backup streams a full database backup to destPath.
func (s *Store) Backup(destPath string) error {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if err := s.db.Backup(destPath); err != nil {
		return wrapStoreErr("backup store", err)
	}
	return nil
}

// Restore replaces the database contents with a prior Backup() output.
func (s *Store) Restore(srcPath string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.db.Restore(srcPath); err != nil {
		return wrapStoreErr("restore store", err)
	}
	return nil
}

func wrapStoreErr(action string, err error) error {
	return errors.NewStoreError(
		fmt.Sprintf("Store operation failed: %s", action),
		err.Error(),
		err,
	)
}
