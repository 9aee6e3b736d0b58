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

// PutCompound upserts a single Compound outside of an explicit Transaction.
func (s *Store) PutCompound(c Compound) error {
	return s.Transaction(func(b *Batch) error {
		b.PutCompound(c)
		return nil
	})
}

// GetCompoundByID looks up a Compound by its stable id.
func (s *Store) GetCompoundByID(id string) (*Compound, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	res, err := s.db.RunReadOnly(
		`?[id, path, timestamp, hash, compound_body, provenance, molecular_signature, buckets] :=
			*compounds{id, path, timestamp, hash, compound_body, provenance, molecular_signature, buckets},
			id == $id`,
		map[string]any{"id": id},
	)
	if err != nil {
		return nil, wrapStoreErr("get compound", err)
	}
	if len(res.Rows) == 0 {
		return nil, nil
	}
	return rowToCompound(res.Rows[0]), nil
}

// GetCompoundByHash looks up a Compound by its global content hash — the
// dedup check every ingest performs first.
func (s *Store) GetCompoundByHash(hash string) (*Compound, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	res, err := s.db.RunReadOnly(
		`?[id, path, timestamp, hash, compound_body, provenance, molecular_signature, buckets] :=
			*compounds{id, path, timestamp, hash, compound_body, provenance, molecular_signature, buckets},
			hash == $hash`,
		map[string]any{"hash": hash},
	)
	if err != nil {
		return nil, wrapStoreErr("get compound by hash", err)
	}
	if len(res.Rows) == 0 {
		return nil, nil
	}
	return rowToCompound(res.Rows[0]), nil
}

// GetCompoundByPath looks up a Compound by its path-stable id's source path.
func (s *Store) GetCompoundByPath(path string) (*Compound, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	res, err := s.db.RunReadOnly(
		`?[id, path, timestamp, hash, compound_body, provenance, molecular_signature, buckets] :=
			*compounds{id, path, timestamp, hash, compound_body, provenance, molecular_signature, buckets},
			path == $path`,
		map[string]any{"path": path},
	)
	if err != nil {
		return nil, wrapStoreErr("get compound by path", err)
	}
	if len(res.Rows) == 0 {
		return nil, nil
	}
	return rowToCompound(res.Rows[0]), nil
}

// DeleteCompound removes a Compound and all of its Molecules.
func (s *Store) DeleteCompound(id string) error {
	mols, err := s.ListMoleculesByCompound(id)
	if err != nil {
		return err
	}
	return s.Transaction(func(b *Batch) error {
		for _, m := range mols {
			b.DeleteMolecule(m.ID)
		}
		b.DeleteCompound(id)
		return nil
	})
}

// ListMoleculesByCompound returns every Molecule of compoundID, ordered by
// sequence.
func (s *Store) ListMoleculesByCompound(compoundID string) ([]Molecule, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	res, err := s.db.RunReadOnly(
		`?[id, compound_id, sequence, start_byte, end_byte, content, type, tags, molecular_signature] :=
			*molecules{id, compound_id, sequence, start_byte, end_byte, content, type, tags, molecular_signature},
			compound_id == $compound_id
		:order sequence`,
		map[string]any{"compound_id": compoundID},
	)
	if err != nil {
		return nil, wrapStoreErr("list molecules", err)
	}

	out := make([]Molecule, 0, len(res.Rows))
	for _, row := range res.Rows {
		out = append(out, *rowToMolecule(row))
	}
	return out, nil
}

// GetMoleculeByID looks up a single Molecule by id.
func (s *Store) GetMoleculeByID(id string) (*Molecule, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	res, err := s.db.RunReadOnly(
		`?[id, compound_id, sequence, start_byte, end_byte, content, type, tags, molecular_signature] :=
			*molecules{id, compound_id, sequence, start_byte, end_byte, content, type, tags, molecular_signature},
			id == $id`,
		map[string]any{"id": id},
	)
	if err != nil {
		return nil, wrapStoreErr("get molecule", err)
	}
	if len(res.Rows) == 0 {
		return nil, nil
	}
	return rowToMolecule(res.Rows[0]), nil
}

// GetAtom looks up an Atom by id.
func (s *Store) GetAtom(id string) (*Atom, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	res, err := s.db.RunReadOnly(
		`?[id, label, type, weight] := *atoms{id, label, type, weight}, id == $id`,
		map[string]any{"id": id},
	)
	if err != nil {
		return nil, wrapStoreErr("get atom", err)
	}
	if len(res.Rows) == 0 {
		return nil, nil
	}
	return rowToAtom(res.Rows[0]), nil
}

// GetEngram looks up an Engram by key digest.
func (s *Store) GetEngram(keyDigest string) (*Engram, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	res, err := s.db.RunReadOnly(
		`?[key_digest, memory_ids] := *engrams{key_digest, memory_ids}, key_digest == $key_digest`,
		map[string]any{"key_digest": keyDigest},
	)
	if err != nil {
		return nil, wrapStoreErr("get engram", err)
	}
	if len(res.Rows) == 0 {
		return nil, nil
	}
	return rowToEngram(res.Rows[0]), nil
}

// GetSessionState returns the current session state, or the zero value if
// none has been recorded yet.
func (s *Store) GetSessionState() (*SessionState, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	res, err := s.db.RunReadOnly(
		`?[id, summary, updated_at] := *session_state{id, summary, updated_at}, id == $id`,
		map[string]any{"id": SessionStateID},
	)
	if err != nil {
		return nil, wrapStoreErr("get session state", err)
	}
	if len(res.Rows) == 0 {
		return &SessionState{ID: SessionStateID}, nil
	}
	row := res.Rows[0]
	return &SessionState{
		ID:        asString(row[0]),
		Summary:   asString(row[1]),
		UpdatedAt: asInt64(row[2]),
	}, nil
}

// ClearSessionState resets the summary to empty.
func (s *Store) ClearSessionState() error {
	return s.Transaction(func(b *Batch) error {
		b.PutSessionState(SessionState{ID: SessionStateID, Summary: "", UpdatedAt: 0})
		return nil
	})
}

// AllBuckets returns every distinct bucket label across all Compounds,
// lexically sorted, deduplicated — the buckets() public operation.
func (s *Store) AllBuckets() ([]string, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	res, err := s.db.RunReadOnly(
		`?[bucket] := *compounds{buckets}, bucket in buckets
		:order bucket`,
		nil,
	)
	if err != nil {
		return nil, wrapStoreErr("list buckets", err)
	}

	seen := make(map[string]bool)
	var out []string
	for _, row := range res.Rows {
		b := asString(row[0])
		if !seen[b] {
			seen[b] = true
			out = append(out, b)
		}
	}
	if len(out) == 0 {
		return []string{"core"}, nil
	}
	return out, nil
}

// ScanCompounds runs filter over every Compound row, finite and single-shot.
func (s *Store) ScanCompounds(filter func(Compound) bool) ([]Compound, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	res, err := s.db.RunReadOnly(
		`?[id, path, timestamp, hash, compound_body, provenance, molecular_signature, buckets] :=
			*compounds{id, path, timestamp, hash, compound_body, provenance, molecular_signature, buckets}`,
		nil,
	)
	if err != nil {
		return nil, wrapStoreErr("scan compounds", err)
	}

	var out []Compound
	for _, row := range res.Rows {
		c := *rowToCompound(row)
		if filter == nil || filter(c) {
			out = append(out, c)
		}
	}
	return out, nil
}

// ScanMolecules runs filter over every Molecule row, finite and single-shot.
func (s *Store) ScanMolecules(filter func(Molecule) bool) ([]Molecule, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	res, err := s.db.RunReadOnly(
		`?[id, compound_id, sequence, start_byte, end_byte, content, type, tags, molecular_signature] :=
			*molecules{id, compound_id, sequence, start_byte, end_byte, content, type, tags, molecular_signature}`,
		nil,
	)
	if err != nil {
		return nil, wrapStoreErr("scan molecules", err)
	}

	var out []Molecule
	for _, row := range res.Rows {
		m := *rowToMolecule(row)
		if filter == nil || filter(m) {
			out = append(out, m)
		}
	}
	return out, nil
}

func rowToCompound(row []any) *Compound {
	return &Compound{
		ID:                 asString(row[0]),
		Path:               asString(row[1]),
		Timestamp:          asInt64(row[2]),
		Hash:               asString(row[3]),
		CompoundBody:       asString(row[4]),
		Provenance:         Provenance(asString(row[5])),
		MolecularSignature: asString(row[6]),
		Buckets:            asStringSlice(row[7]),
	}
}

func rowToMolecule(row []any) *Molecule {
	return &Molecule{
		ID:                 asString(row[0]),
		CompoundID:         asString(row[1]),
		Sequence:           int(asInt64(row[2])),
		StartByte:          int(asInt64(row[3])),
		EndByte:            int(asInt64(row[4])),
		Content:            asString(row[5]),
		Type:               MoleculeType(asString(row[6])),
		Tags:               asStringSlice(row[7]),
		MolecularSignature: asString(row[8]),
	}
}

func rowToAtom(row []any) *Atom {
	return &Atom{
		ID:     asString(row[0]),
		Label:  asString(row[1]),
		Type:   AtomType(asString(row[2])),
		Weight: asFloat64(row[3]),
	}
}

func rowToEngram(row []any) *Engram {
	return &Engram{
		KeyDigest: asString(row[0]),
		MemoryIDs: asStringSlice(row[1]),
	}
}

func asString(v any) string {
	s, _ := v.(string)
	return s
}

func asInt64(v any) int64 {
	switch n := v.(type) {
	case float64:
		return int64(n)
	case int64:
		return n
	case int:
		return int64(n)
	default:
		return 0
	}
}

func asFloat64(v any) float64 {
	switch n := v.(type) {
	case float64:
		return n
	case int64:
		return float64(n)
	case int:
		return float64(n)
	default:
		return 0
	}
}

func asStringSlice(v any) []string {
	arr, ok := v.([]any)
	if !ok {
		return nil
	}
	out := make([]string, 0, len(arr))
	for _, e := range arr {
		out = append(out, asString(e))
	}
	return out
}
