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

// SnapshotRecord is the minimal per-compound record round-tripped by
// snapshot_dump/snapshot_load: the seven fields enumerated in §6's snapshot
// file format (id, timestamp, content, source, type, hash, buckets), with
// "content"/"source"/"type" named compound_body/path/provenance here to
// match the relation's own column names, plus the compound's
// molecular_signature.
type SnapshotRecord struct {
	ID                 string
	Path               string
	Timestamp          int64
	Hash               string
	CompoundBody       string
	Provenance         Provenance
	MolecularSignature string
	Buckets            []string
}

// SnapshotDump returns every Compound as an ordered sequence of plain
// records, ordered by id for a deterministic round-trip.
func (s *Store) SnapshotDump() ([]SnapshotRecord, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	res, err := s.db.RunReadOnly(
		`?[id, path, timestamp, hash, compound_body, provenance, molecular_signature, buckets] :=
			*compounds{id, path, timestamp, hash, compound_body, provenance, molecular_signature, buckets}
		:order id`,
		nil,
	)
	if err != nil {
		return nil, wrapStoreErr("snapshot dump", err)
	}

	out := make([]SnapshotRecord, 0, len(res.Rows))
	for _, row := range res.Rows {
		c := rowToCompound(row)
		out = append(out, SnapshotRecord{
			ID:                 c.ID,
			Path:               c.Path,
			Timestamp:          c.Timestamp,
			Hash:               c.Hash,
			CompoundBody:       c.CompoundBody,
			Provenance:         c.Provenance,
			MolecularSignature: c.MolecularSignature,
			Buckets:            c.Buckets,
		})
	}
	return out, nil
}

// SnapshotLoad re-inserts every record, bypassing the dedup-by-hash check
// since hydrated records already carry their original id/hash/timestamp.
// An invalid provenance is stored as internal and an empty bucket list as
// ["core"]. All records are written in one transaction, so one failing
// record fails the whole load and the error is returned. pkg/snapshot
// hydrates record by record through the Atomizer and does not call this.
func (s *Store) SnapshotLoad(records []SnapshotRecord) error {
	return s.Transaction(func(b *Batch) error {
		for _, r := range records {
			prov := r.Provenance
			if !prov.Valid() {
				prov = ProvenanceInternal
			}
			buckets := r.Buckets
			if len(buckets) == 0 {
				buckets = []string{"core"}
			}
			b.PutCompound(Compound{
				ID:                 r.ID,
				Path:               r.Path,
				Timestamp:          r.Timestamp,
				Hash:               r.Hash,
				CompoundBody:       r.CompoundBody,
				Provenance:         prov,
				MolecularSignature: r.MolecularSignature,
				Buckets:            buckets,
			})
		}
		return nil
	})
}
