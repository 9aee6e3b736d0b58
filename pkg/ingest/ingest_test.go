// Copyright 2026 KrakLabs
//
// SPDX-License-Identifier: AGPL-3.0-or-later

//go:build cozodb

// Integration tests for the Ingestor. Run with: go test -tags=cozodb ./pkg/ingest/...

package ingest

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/kraklabs/ece/pkg/atomizer"
	"github.com/kraklabs/ece/pkg/store"
)

func newTestIngestor(t *testing.T) (*Ingestor, *store.Store) {
	t.Helper()
	s, err := store.Open(store.Config{DataDir: t.TempDir(), Engine: "mem"})
	require.NoError(t, err)
	require.NoError(t, s.EnsureSchema())
	t.Cleanup(func() { _ = s.Close() })

	ig := New(s, Config{WatchedDir: t.TempDir(), MaxFileBytes: 1024 * 1024}, nil, nil)
	return ig, s
}

func TestIngestContentInsertsThenDedups(t *testing.T) {
	ig, _ := newTestIngestor(t)

	r1, err := ig.IngestContent("Our server talks to the database every night.", "notes/a.md", store.MoleculeProse, []string{"notes"}, store.ProvenanceInternal)
	require.NoError(t, err)
	require.Equal(t, StatusInserted, r1.Status)

	r2, err := ig.IngestContent("Our server talks to the database every night.", "notes/a.md", store.MoleculeProse, []string{"notes"}, store.ProvenanceInternal)
	require.NoError(t, err)
	require.Equal(t, StatusSkipped, r2.Status)
	require.Equal(t, r1.ID, r2.ID)
}

func TestIngestContentRejectsEmpty(t *testing.T) {
	ig, _ := newTestIngestor(t)
	_, err := ig.IngestContent("", "a.md", store.MoleculeProse, nil, store.ProvenanceInternal)
	require.Error(t, err)
}

func TestIngestContentDefaultsBucketsAndProvenance(t *testing.T) {
	ig, st := newTestIngestor(t)

	r, err := ig.IngestContent("A short memory with no bucket supplied.", "a.md", store.MoleculeProse, nil, store.Provenance(""))
	require.NoError(t, err)
	require.Equal(t, StatusInserted, r.Status)

	c, err := st.GetCompoundByID(r.ID)
	require.NoError(t, err)
	require.NotNil(t, c)
	require.Equal(t, []string{"core"}, c.Buckets)
	require.Equal(t, store.ProvenanceInternal, c.Provenance)
}

func TestIngestContentPopulatesEngramsAndEdges(t *testing.T) {
	ig, st := newTestIngestor(t)

	r, err := ig.IngestContent(
		"Our database server depends on the client relationship. The database server is critical.",
		"infra/notes.md", store.MoleculeProse, []string{"infra"}, store.ProvenanceInternal,
	)
	require.NoError(t, err)
	require.Equal(t, StatusInserted, r.Status)

	molecules, err := st.ListMoleculesByCompound(r.ID)
	require.NoError(t, err)
	require.NotEmpty(t, molecules)

	var sawEngram bool
	for _, m := range molecules {
		for _, tag := range m.Tags {
			eng, err := st.GetEngram(atomizer.EngramDigest(store.SanitizeFTSQuery(tag)))
			require.NoError(t, err)
			if eng != nil && contains(eng.MemoryIDs, m.ID) {
				sawEngram = true
			}
		}
	}
	require.True(t, sawEngram)
}

func contains(xs []string, want string) bool {
	for _, x := range xs {
		if x == want {
			return true
		}
	}
	return false
}
