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

package store

import (
	"fmt"
	"strings"
)

// Batch accumulates a sequence of put/delete statements that Transaction
// submits to CozoDB as a single script. CozoDB executes an entire script as
// one transaction, so a multi-relation write (e.g. a Compound plus its
// Molecules and Atoms) either commits wholesale or not at all — exactly the
// atomicity §4.A's transaction(fn) calls for.
type Batch struct {
	stmts  []string
	params map[string]any
	seq    int
}

func newBatch() *Batch {
	return &Batch{params: make(map[string]any)}
}

func (b *Batch) bind(v any) string {
	name := fmt.Sprintf("b%d", b.seq)
	b.seq++
	b.params[name] = v
	return "$" + name
}

// PutCompound stages an upsert of a single Compound row.
func (b *Batch) PutCompound(c Compound) {
	stmt := fmt.Sprintf(
		`?[id, path, timestamp, hash, compound_body, provenance, molecular_signature, buckets] <- [[%s, %s, %s, %s, %s, %s, %s, %s]]
:put compounds { id, path, timestamp, hash, compound_body, provenance, molecular_signature, buckets }`,
		b.bind(c.ID), b.bind(c.Path), b.bind(c.Timestamp), b.bind(c.Hash),
		b.bind(c.CompoundBody), b.bind(string(c.Provenance)), b.bind(c.MolecularSignature), b.bind(toAny(c.Buckets)),
	)
	b.stmts = append(b.stmts, stmt)
}

// PutMolecule stages an upsert of a single Molecule row.
func (b *Batch) PutMolecule(m Molecule) {
	stmt := fmt.Sprintf(
		`?[id, compound_id, sequence, start_byte, end_byte, content, type, tags, molecular_signature] <- [[%s, %s, %s, %s, %s, %s, %s, %s, %s]]
:put molecules { id, compound_id, sequence, start_byte, end_byte, content, type, tags, molecular_signature }`,
		b.bind(m.ID), b.bind(m.CompoundID), b.bind(m.Sequence), b.bind(m.StartByte),
		b.bind(m.EndByte), b.bind(m.Content), b.bind(string(m.Type)), b.bind(toAny(m.Tags)), b.bind(m.MolecularSignature),
	)
	b.stmts = append(b.stmts, stmt)
}

// PutAtom stages an upsert of a single Atom row.
func (b *Batch) PutAtom(a Atom) {
	stmt := fmt.Sprintf(
		`?[id, label, type, weight] <- [[%s, %s, %s, %s]]
:put atoms { id, label, type, weight }`,
		b.bind(a.ID), b.bind(a.Label), b.bind(string(a.Type)), b.bind(a.Weight),
	)
	b.stmts = append(b.stmts, stmt)
}

// PutAtomEdge stages an upsert of a single AtomEdge row.
func (b *Batch) PutAtomEdge(e AtomEdge) {
	stmt := fmt.Sprintf(
		`?[from_id, to_id, weight, relation] <- [[%s, %s, %s, %s]]
:put atom_edges { from_id, to_id, weight, relation }`,
		b.bind(e.FromID), b.bind(e.ToID), b.bind(e.Weight), b.bind(e.Relation),
	)
	b.stmts = append(b.stmts, stmt)
}

// PutEngram stages an upsert of a single Engram row. Callers compute the
// merged memory-id list themselves (read-then-write) since the relation
// stores the full list, not an append-only log.
func (b *Batch) PutEngram(e Engram) {
	stmt := fmt.Sprintf(
		`?[key_digest, memory_ids] <- [[%s, %s]]
:put engrams { key_digest, memory_ids }`,
		b.bind(e.KeyDigest), b.bind(toAny(e.MemoryIDs)),
	)
	b.stmts = append(b.stmts, stmt)
}

// PutSessionState stages an upsert of the single session_state row.
func (b *Batch) PutSessionState(s SessionState) {
	stmt := fmt.Sprintf(
		`?[id, summary, updated_at] <- [[%s, %s, %s]]
:put session_state { id, summary, updated_at }`,
		b.bind(s.ID), b.bind(s.Summary), b.bind(s.UpdatedAt),
	)
	b.stmts = append(b.stmts, stmt)
}

// DeleteCompound stages removal of a Compound by id (and is not cascading —
// callers delete dependent Molecules explicitly, matching §3's "deleted
// only by explicit quarantine/remove" lifecycle note).
func (b *Batch) DeleteCompound(id string) {
	stmt := fmt.Sprintf(`?[id] <- [[%s]]
:rm compounds { id }`, b.bind(id))
	b.stmts = append(b.stmts, stmt)
}

// DeleteMolecule stages removal of a Molecule by id.
func (b *Batch) DeleteMolecule(id string) {
	stmt := fmt.Sprintf(`?[id] <- [[%s]]
:rm molecules { id }`, b.bind(id))
	b.stmts = append(b.stmts, stmt)
}

func toAny[T any](s []T) any {
	out := make([]any, len(s))
	for i, v := range s {
		out[i] = v
	}
	return out
}

// script joins every staged statement into one multi-statement CozoScript,
// each block separated by a blank line the way hand-written multi-relation
// scripts are usually formatted.
func (b *Batch) script() string {
	return strings.Join(b.stmts, "\n\n")
}

// Transaction runs fn against a fresh Batch and, if fn succeeds, submits
// every staged write as one script so it commits atomically. If fn returns
// an error, nothing staged is submitted.
func (s *Store) Transaction(fn func(b *Batch) error) error {
	b := newBatch()
	if err := fn(b); err != nil {
		return err
	}
	if len(b.stmts) == 0 {
		return nil
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if _, err := s.db.Run(b.script(), b.params); err != nil {
		return wrapStoreErr("commit transaction", err)
	}
	return nil
}
