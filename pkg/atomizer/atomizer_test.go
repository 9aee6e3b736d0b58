// Copyright 2026 KrakLabs
//
// SPDX-License-Identifier: AGPL-3.0-or-later

package atomizer

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/kraklabs/ece/pkg/store"
)

func TestAtomizeDeterministic(t *testing.T) {
	a := New()
	text := "The ECE stores memory in a graph. It indexes every Molecule by byte offset."

	r1 := a.Atomize(text, "notes/a.md", store.ProvenanceInternal, "", nil, 1000)
	r2 := a.Atomize(text, "notes/a.md", store.ProvenanceInternal, "", nil, 2000)

	require.Equal(t, r1.Compound.ID, r2.Compound.ID)
	require.Equal(t, r1.Compound.Hash, r2.Compound.Hash)
	require.Equal(t, r1.Compound.MolecularSignature, r2.Compound.MolecularSignature)
	require.Equal(t, len(r1.Molecules), len(r2.Molecules))
	for i := range r1.Molecules {
		require.Equal(t, r1.Molecules[i].ID, r2.Molecules[i].ID)
		require.Equal(t, r1.Molecules[i].StartByte, r2.Molecules[i].StartByte)
		require.Equal(t, r1.Molecules[i].EndByte, r2.Molecules[i].EndByte)
	}
}

func TestMoleculeContentMatchesCompoundBodySlice(t *testing.T) {
	a := New()
	text := "First sentence here. Second sentence follows! Third one too?"
	r := a.Atomize(text, "a.md", store.ProvenanceInternal, store.MoleculeProse, []string{"notes"}, 0)

	for _, m := range r.Molecules {
		require.True(t, m.StartByte >= 0)
		require.True(t, m.StartByte < m.EndByte)
		require.True(t, m.EndByte <= len(r.Compound.CompoundBody))
		require.Equal(t, r.Compound.CompoundBody[m.StartByte:m.EndByte], m.Content)
	}
}

func TestMoleculesCoverEntireBodyWithoutOverlap(t *testing.T) {
	a := New()
	text := "alpha beta gamma. delta epsilon zeta! eta theta iota?"
	r := a.Atomize(text, "a.md", store.ProvenanceInternal, store.MoleculeProse, nil, 0)

	require.NotEmpty(t, r.Molecules)
	cursor := 0
	for _, m := range r.Molecules {
		require.Equal(t, cursor, m.StartByte, "molecules must tile the body with no gap")
		cursor = m.EndByte
	}
	require.Equal(t, len(r.Compound.CompoundBody), cursor)
}

func TestAtomReferencesExistForEveryTag(t *testing.T) {
	a := New()
	text := "Our API compiles against the database server. Relationship with the client matters."
	r := a.Atomize(text, "a.md", store.ProvenanceInternal, store.MoleculeProse, nil, 0)

	atomIDs := make(map[string]bool)
	for _, at := range r.Atoms {
		atomIDs[at.ID] = true
	}
	for _, m := range r.Molecules {
		for _, tag := range m.Tags {
			id := GenerateAtomID(tag)
			require.True(t, atomIDs[id], "tag %q has no corresponding atom", tag)
		}
	}
}

func TestInvalidProvenanceDefaultsToInternal(t *testing.T) {
	a := New()
	r := a.Atomize("hello", "a.md", store.Provenance("bogus"), store.MoleculeProse, nil, 0)
	require.Equal(t, store.ProvenanceInternal, r.Compound.Provenance)
}

func TestEmptyBucketsDefaultsToCore(t *testing.T) {
	a := New()
	r := a.Atomize("hello", "a.md", store.ProvenanceInternal, store.MoleculeProse, nil, 0)
	require.Equal(t, []string{"core"}, r.Compound.Buckets)
}

func TestFencedCodeBlockBecomesSingleCodeMolecule(t *testing.T) {
	a := New()
	text := "Intro paragraph here describing things. \n```go\nfunc main() {}\n```\nOutro paragraph wraps up nicely."
	r := a.Atomize(text, "a.md", store.ProvenanceInternal, store.MoleculeProse, nil, 0)

	var sawCode bool
	for _, m := range r.Molecules {
		if m.Type == store.MoleculeCode {
			sawCode = true
			require.Contains(t, m.Content, "func main")
		}
	}
	require.True(t, sawCode)
}

func TestInferType(t *testing.T) {
	require.Equal(t, store.MoleculeCode, InferType("main.go"))
	require.Equal(t, store.MoleculeData, InferType("config.yaml"))
	require.Equal(t, store.MoleculeProse, InferType("notes.md"))
}
