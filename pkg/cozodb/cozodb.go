// Copyright 2025 KrakLabs
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
// For commercial licensing, contact: licensing@kraklabs.com
//
// SPDX-License-Identifier: AGPL-3.0-or-later

package cozodb

/*
#cgo LDFLAGS: -lcozo_c
#include <stdlib.h>
#include "cozo_c.h"
*/
import "C"

import (
	"encoding/json"
	"fmt"
	"sync"
	"unsafe"
)

// CozoDB wraps a single CozoDB instance opened via the C FFI.
//
// A CozoDB value is safe for concurrent Run/RunReadOnly calls: the
// underlying engine handles its own internal locking. Close is not
// safe to call concurrently with in-flight queries.
type CozoDB struct {
	id     C.int32_t
	once   sync.Once
	closed bool
}

// NamedRows mirrors CozoDB's tabular query result: a header row plus
// the data rows, each cell a loosely-typed Go value decoded from JSON.
type NamedRows struct {
	Headers []string `json:"headers"`
	Rows    [][]any  `json:"rows"`
	Next    *NamedRows `json:"next,omitempty"`
}

type engineResponse struct {
	OK      bool    `json:"ok"`
	Message string  `json:"message,omitempty"`
	Display string  `json:"display,omitempty"`
	NamedRows
}

// New opens (or creates) a CozoDB database at path using the given
// storage engine: "mem", "sqlite", or "rocksdb".
func New(engine, path string, options map[string]any) (CozoDB, error) {
	if engine == "" {
		engine = "mem"
	}
	optBytes, err := json.Marshal(options)
	if err != nil {
		return CozoDB{}, fmt.Errorf("marshal options: %w", err)
	}

	cEngine := C.CString(engine)
	cPath := C.CString(path)
	cOpts := C.CString(string(optBytes))
	defer C.free(unsafe.Pointer(cEngine))
	defer C.free(unsafe.Pointer(cPath))
	defer C.free(unsafe.Pointer(cOpts))

	id := C.cozo_open_db(cEngine, cPath, cOpts)
	if id < 0 {
		msg := C.GoString(C.cozo_open_db_last_error())
		return CozoDB{}, fmt.Errorf("cozo_open_db(%s, %s): %s", engine, path, msg)
	}

	return CozoDB{id: id}, nil
}

// Run executes a CozoScript statement (query or mutation) with optional
// bound parameters.
func (db *CozoDB) Run(script string, params map[string]any) (NamedRows, error) {
	return db.run(script, params, false)
}

// RunReadOnly executes script under CozoDB's immutable_query mode,
// rejecting any `:put`/`:rm`/`:create`/etc mutation at the engine level.
func (db *CozoDB) RunReadOnly(script string, params map[string]any) (NamedRows, error) {
	return db.run(script, params, true)
}

func (db *CozoDB) run(script string, params map[string]any, readOnly bool) (NamedRows, error) {
	paramBytes, err := json.Marshal(params)
	if err != nil {
		return NamedRows{}, fmt.Errorf("marshal params: %w", err)
	}

	cScript := C.CString(script)
	cParams := C.CString(string(paramBytes))
	defer C.free(unsafe.Pointer(cScript))
	defer C.free(unsafe.Pointer(cParams))

	var immutable C.int8_t
	if readOnly {
		immutable = 1
	}

	cResult := C.cozo_run_query(db.id, cScript, cParams, immutable)
	defer C.cozo_free_str(cResult)

	var resp engineResponse
	if err := json.Unmarshal([]byte(C.GoString(cResult)), &resp); err != nil {
		return NamedRows{}, fmt.Errorf("decode query response: %w", err)
	}
	if !resp.OK {
		return NamedRows{}, fmt.Errorf("cozoscript error: %s", resp.Message)
	}
	return resp.NamedRows, nil
}

// Close releases the database handle. Safe to call more than once.
func (db *CozoDB) Close() {
	db.once.Do(func() {
		C.cozo_close_db(db.id)
		db.closed = true
	})
}

// Backup writes a full database backup to destPath.
func (db *CozoDB) Backup(destPath string) error {
	cPath := C.CString(destPath)
	defer C.free(unsafe.Pointer(cPath))

	cResult := C.cozo_backup(db.id, cPath)
	defer C.cozo_free_str(cResult)

	var resp engineResponse
	if err := json.Unmarshal([]byte(C.GoString(cResult)), &resp); err != nil {
		return fmt.Errorf("decode backup response: %w", err)
	}
	if !resp.OK {
		return fmt.Errorf("backup failed: %s", resp.Message)
	}
	return nil
}

// Restore replaces the database contents with a prior Backup() output.
// Existing relations not present in the backup are left untouched.
func (db *CozoDB) Restore(srcPath string) error {
	cPath := C.CString(srcPath)
	defer C.free(unsafe.Pointer(cPath))

	cResult := C.cozo_restore(db.id, cPath)
	defer C.cozo_free_str(cResult)

	var resp engineResponse
	if err := json.Unmarshal([]byte(C.GoString(cResult)), &resp); err != nil {
		return fmt.Errorf("decode restore response: %w", err)
	}
	if !resp.OK {
		return fmt.Errorf("restore failed: %s", resp.Message)
	}
	return nil
}
