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

// Package atomizer is the Atomizer component: it decomposes a sanitized
// document into one Compound, an ordered list of Molecules with byte
// coordinates, and a set of Atoms, all derived deterministically from the
// document's final sanitized bytes ("Key Assassin Protocol" sanitization,
// then splitting, then signature/atom extraction).
package atomizer

import (
	"path/filepath"
	"strings"

	"github.com/kraklabs/ece/pkg/store"
)

// Result is everything the Atomizer derives from one document.
type Result struct {
	Compound  store.Compound
	Molecules []store.Molecule
	Atoms     []store.Atom
}

// Atomizer is stateless: Atomize is a pure function of its inputs, so
// re-atomizing identical bytes always yields identical ids, signatures,
// and coordinates (§4.B's determinism requirement, tested in §8 TP7).
type Atomizer struct{}

// New returns a ready-to-use Atomizer. It carries no state.
func New() *Atomizer {
	return &Atomizer{}
}

// Atomize decomposes raw document content into a Compound, its Molecules,
// and the Atoms they reference. docType may be empty, in which case it is
// inferred from sourcePath's extension. buckets defaults to ["core"] when
// empty, and timestampMillis is the caller-supplied ingest time (so the
// Atomizer itself never reads the wall clock, keeping it pure).
func (a *Atomizer) Atomize(raw, sourcePath string, provenance store.Provenance, docType store.MoleculeType, buckets []string, timestampMillis int64) Result {
	if !provenance.Valid() {
		provenance = store.ProvenanceInternal
	}
	if len(buckets) == 0 {
		buckets = []string{"core"}
	}
	if docType == "" {
		docType = InferType(sourcePath)
	}

	body := Sanitize(raw)
	compoundID := GenerateCompoundID(sourcePath)

	compound := store.Compound{
		ID:                 compoundID,
		Path:               sourcePath,
		Timestamp:          timestampMillis,
		Hash:               ContentHash(body),
		CompoundBody:       body,
		Provenance:         provenance,
		MolecularSignature: MolecularSignature(body),
		Buckets:            buckets,
	}

	spans := Split(body, docType, sourcePath)

	atomSet := make(map[string]store.Atom)
	molecules := make([]store.Molecule, 0, len(spans))
	for seq, sp := range spans {
		content := body[sp.start:sp.end]
		atoms := ExtractAtoms(content)
		tags := make([]string, 0, len(atoms))
		for _, at := range atoms {
			atomSet[at.ID] = at
			tags = append(tags, at.Label)
		}

		molecules = append(molecules, store.Molecule{
			ID:                 GenerateMoleculeID(compoundID, seq),
			CompoundID:         compoundID,
			Sequence:           seq,
			StartByte:          sp.start,
			EndByte:            sp.end,
			Content:            content,
			Type:               sp.kind,
			Tags:               tags,
			MolecularSignature: MolecularSignature(content),
		})
	}

	allAtoms := make([]store.Atom, 0, len(atomSet))
	for _, at := range atomSet {
		allAtoms = append(allAtoms, at)
	}

	return Result{Compound: compound, Molecules: molecules, Atoms: allAtoms}
}

// InferType classifies a source path into prose/code/data by extension,
// mirroring the Ingestor's own extension allow-list (§4.C).
func InferType(path string) store.MoleculeType {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".go", ".js", ".ts", ".py", ".html", ".css", ".sh", ".ps1", ".bat":
		return store.MoleculeCode
	case ".json", ".yaml", ".yml":
		return store.MoleculeData
	default:
		return store.MoleculeProse
	}
}
