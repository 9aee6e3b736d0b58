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

// Provenance is the trust class of a stored record.
type Provenance string

const (
	ProvenanceInternal   Provenance = "internal"
	ProvenanceExternal   Provenance = "external"
	ProvenanceQuarantine Provenance = "quarantine"
)

// Valid reports whether p is one of the three recognized provenance values.
func (p Provenance) Valid() bool {
	switch p {
	case ProvenanceInternal, ProvenanceExternal, ProvenanceQuarantine:
		return true
	}
	return false
}

// MoleculeType classifies a molecule's source text.
type MoleculeType string

const (
	MoleculeProse MoleculeType = "prose"
	MoleculeCode  MoleculeType = "code"
	MoleculeData  MoleculeType = "data"
)

// AtomType classifies an atom's semantic role.
type AtomType string

const (
	AtomSystem    AtomType = "system"
	AtomConcept   AtomType = "concept"
	AtomPerson    AtomType = "person"
	AtomPlace     AtomType = "place"
	AtomDate      AtomType = "date"
	AtomTechnical AtomType = "technical"
)

// Compound is an ingested document: the full sanitized text of one file or
// one direct ingest, plus its dedup hash and bucket namespace.
type Compound struct {
	ID                 string     `json:"id"`
	Path               string     `json:"path"`
	Timestamp          int64      `json:"timestamp"`
	Hash               string     `json:"hash"`
	CompoundBody       string     `json:"compound_body"`
	Provenance         Provenance `json:"provenance"`
	MolecularSignature string     `json:"molecular_signature"`
	Buckets            []string   `json:"buckets"`
}

// Molecule is a coherent sub-document span with byte coordinates into its
// Compound's body.
type Molecule struct {
	ID                 string       `json:"id"`
	CompoundID         string       `json:"compound_id"`
	Sequence           int          `json:"sequence"`
	StartByte          int          `json:"start_byte"`
	EndByte            int          `json:"end_byte"`
	Content            string       `json:"content"`
	Type               MoleculeType `json:"type"`
	Tags               []string     `json:"tags"`
	MolecularSignature string       `json:"molecular_signature"`
}

// Atom is a normalized semantic label: a category, entity, or keyword.
type Atom struct {
	ID     string   `json:"id"`
	Label  string   `json:"label"`
	Type   AtomType `json:"type"`
	Weight float64  `json:"weight"`
}

// AtomEdge is a directed weighted relation between two atoms.
type AtomEdge struct {
	FromID   string  `json:"from_id"`
	ToID     string  `json:"to_id"`
	Weight   float64 `json:"weight"`
	Relation string  `json:"relation"`
}

// Engram is an O(1) lexical sidecar: a digest of a normalized lookup key
// mapped to the memory (molecule/compound) ids it resolves to.
type Engram struct {
	KeyDigest string   `json:"key_digest"`
	MemoryIDs []string `json:"memory_ids"`
}

// SessionStateID is the fixed id of the single process-wide session state row.
const SessionStateID = "session_state"

// SessionState is the single rolling Markovian conversation summary.
type SessionState struct {
	ID        string `json:"id"`
	Summary   string `json:"summary"`
	UpdatedAt int64  `json:"updated_at"`
}
