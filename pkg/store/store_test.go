// Copyright 2026 KrakLabs
//
// SPDX-License-Identifier: AGPL-3.0-or-later

//go:build cozodb

// Integration tests for the Store. Run with: go test -tags=cozodb ./pkg/store/...

package store

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func newTestStore(t *testing.T) *Store {
	t.Helper()
	s, err := Open(Config{DataDir: t.TempDir(), Engine: "mem"})
	require.NoError(t, err)
	t.Cleanup(func() { _ = s.Close() })
	return s
}

func TestEnsureSchemaIdempotent(t *testing.T) {
	s := newTestStore(t)
	require.NoError(t, s.EnsureSchema())
	require.NoError(t, s.EnsureSchema())
}

func TestPutAndGetCompound(t *testing.T) {
	s := newTestStore(t)

	c := Compound{
		ID:           "compound:a",
		Path:         "a.md",
		Timestamp:    1000,
		Hash:         "deadbeef",
		CompoundBody: "The ECE stores memory in a graph.",
		Provenance:   ProvenanceInternal,
		Buckets:      []string{"notes"},
	}
	require.NoError(t, s.PutCompound(c))

	got, err := s.GetCompoundByID(c.ID)
	require.NoError(t, err)
	require.NotNil(t, got)
	require.Equal(t, c.CompoundBody, got.CompoundBody)
	require.Equal(t, c.Buckets, got.Buckets)

	byHash, err := s.GetCompoundByHash(c.Hash)
	require.NoError(t, err)
	require.NotNil(t, byHash)
	require.Equal(t, c.ID, byHash.ID)
}

func TestTransactionAtomicity(t *testing.T) {
	s := newTestStore(t)

	err := s.Transaction(func(b *Batch) error {
		b.PutCompound(Compound{ID: "c1", Path: "x.md", Hash: "h1", CompoundBody: "hello world", Provenance: ProvenanceInternal, Buckets: []string{"core"}})
		b.PutMolecule(Molecule{ID: "m1", CompoundID: "c1", Sequence: 0, StartByte: 0, EndByte: 5, Content: "hello", Type: MoleculeProse})
		return nil
	})
	require.NoError(t, err)

	mols, err := s.ListMoleculesByCompound("c1")
	require.NoError(t, err)
	require.Len(t, mols, 1)
	require.Equal(t, "hello", mols[0].Content)
}

func TestDeleteCompoundCascadesMolecules(t *testing.T) {
	s := newTestStore(t)
	require.NoError(t, s.Transaction(func(b *Batch) error {
		b.PutCompound(Compound{ID: "c1", Path: "x.md", Hash: "h1", CompoundBody: "hello", Provenance: ProvenanceInternal, Buckets: []string{"core"}})
		b.PutMolecule(Molecule{ID: "m1", CompoundID: "c1", StartByte: 0, EndByte: 5, Content: "hello"})
		return nil
	}))

	require.NoError(t, s.DeleteCompound("c1"))

	mols, err := s.ListMoleculesByCompound("c1")
	require.NoError(t, err)
	require.Empty(t, mols)
}

func TestEngramAppendDeduplicates(t *testing.T) {
	s := newTestStore(t)
	require.NoError(t, s.AppendEngram("digest1", "m1"))
	require.NoError(t, s.AppendEngram("digest1", "m2"))
	require.NoError(t, s.AppendEngram("digest1", "m1"))

	ids, err := s.EngramLookup("digest1")
	require.NoError(t, err)
	require.ElementsMatch(t, []string{"m1", "m2"}, ids)
}

func TestAllBucketsDefaultsToCore(t *testing.T) {
	s := newTestStore(t)
	buckets, err := s.AllBuckets()
	require.NoError(t, err)
	require.Equal(t, []string{"core"}, buckets)
}

func TestSnapshotRoundTrip(t *testing.T) {
	s := newTestStore(t)
	require.NoError(t, s.PutCompound(Compound{
		ID: "c1", Path: "a.md", Hash: "h1", CompoundBody: "alpha", Provenance: ProvenanceInternal, Buckets: []string{"core"},
	}))

	records, err := s.SnapshotDump()
	require.NoError(t, err)
	require.Len(t, records, 1)

	s2 := newTestStore(t)
	require.NoError(t, s2.SnapshotLoad(records))

	got, err := s2.GetCompoundByID("c1")
	require.NoError(t, err)
	require.NotNil(t, got)
	require.Equal(t, "alpha", got.CompoundBody)
}
