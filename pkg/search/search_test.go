// Copyright 2026 KrakLabs
//
// SPDX-License-Identifier: AGPL-3.0-or-later

//go:build cozodb

// Integration tests for the Tag-Walker. Run with: go test -tags=cozodb ./pkg/search/...

package search

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/kraklabs/ece/pkg/ingest"
	"github.com/kraklabs/ece/pkg/store"
)

func newTestSearcher(t *testing.T) (*Searcher, *ingest.Ingestor, *store.Store) {
	t.Helper()
	s, err := store.Open(store.Config{DataDir: t.TempDir(), Engine: "mem"})
	require.NoError(t, err)
	require.NoError(t, s.EnsureSchema())
	t.Cleanup(func() { _ = s.Close() })

	ig := ingest.New(s, ingest.Config{WatchedDir: t.TempDir(), MaxFileBytes: 1 << 20}, nil, nil)
	return New(s, nil, nil), ig, s
}

func TestSearchFindsExactKeywordAnchor(t *testing.T) {
	sr, ig, _ := newTestSearcher(t)

	_, err := ig.IngestContent("The database migration finished successfully overnight.", "ops/migration.md", store.MoleculeProse, []string{"ops"}, store.ProvenanceInternal)
	require.NoError(t, err)
	_, err = ig.IngestContent("Completely unrelated note about lunch plans.", "notes/lunch.md", store.MoleculeProse, []string{"notes"}, store.ProvenanceInternal)
	require.NoError(t, err)

	hits, err := sr.Search(Params{Query: "database migration", MaxChars: 2500, Provenance: ModeAll})
	require.NoError(t, err)
	require.NotEmpty(t, hits)

	var sawMigration bool
	for _, h := range hits {
		if h.Source == "ops/migration.md" {
			sawMigration = true
		}
	}
	require.True(t, sawMigration)
}

func TestSearchRespectsBucketFilter(t *testing.T) {
	sr, ig, _ := newTestSearcher(t)

	_, err := ig.IngestContent("Server outage affected the payment gateway.", "incidents/a.md", store.MoleculeProse, []string{"incidents"}, store.ProvenanceInternal)
	require.NoError(t, err)
	_, err = ig.IngestContent("Server outage affected the chat service.", "chat/b.md", store.MoleculeProse, []string{"chat"}, store.ProvenanceInternal)
	require.NoError(t, err)

	hits, err := sr.Search(Params{Query: "server outage", Buckets: []string{"incidents"}, MaxChars: 2500, Provenance: ModeAll})
	require.NoError(t, err)
	for _, h := range hits {
		require.Contains(t, h.Buckets, "incidents")
	}
}

func TestSearchProvenanceBoostOrdersInternalFirstUnderSovereignMode(t *testing.T) {
	sr, ig, _ := newTestSearcher(t)

	_, err := ig.IngestContent("Quarterly revenue planning notes from the team.", "int/a.md", store.MoleculeProse, []string{"int"}, store.ProvenanceInternal)
	require.NoError(t, err)
	_, err = ig.IngestContent("Quarterly revenue planning notes from a partner.", "ext/b.md", store.MoleculeProse, []string{"ext"}, store.ProvenanceExternal)
	require.NoError(t, err)

	hits, err := sr.Search(Params{Query: "quarterly revenue planning", MaxChars: 2500, Provenance: ModeSovereign})
	require.NoError(t, err)
	require.True(t, len(hits) >= 2)
	require.Equal(t, store.ProvenanceInternal, hits[0].Provenance)
}

func TestSearchEngramPhaseFindsTagOnlyMatch(t *testing.T) {
	sr, ig, _ := newTestSearcher(t)

	_, err := ig.IngestContent("Our server talks to the database every night.", "infra/a.md", store.MoleculeProse, []string{"infra"}, store.ProvenanceInternal)
	require.NoError(t, err)

	// "category:Technical" sanitizes to "categorytechnical" on both the
	// ingest-time tag digest and the search-time query digest — it never
	// appears verbatim in the content, so a hit can only come from the
	// Phase 1 Engram lookup, not the Phase 2 FTS anchor scan.
	hits, err := sr.Search(Params{Query: "category:Technical", MaxChars: 2500, Provenance: ModeAll})
	require.NoError(t, err)
	require.NotEmpty(t, hits)
	require.Equal(t, engramScore, hits[0].Score)
}

func TestSearchEngramPhaseRespectsBucketFilter(t *testing.T) {
	sr, ig, _ := newTestSearcher(t)

	_, err := ig.IngestContent("Our server talks to the database every night.", "infra/a.md", store.MoleculeProse, []string{"infra"}, store.ProvenanceInternal)
	require.NoError(t, err)

	hits, err := sr.Search(Params{Query: "category:Technical", Buckets: []string{"other"}, MaxChars: 2500, Provenance: ModeAll})
	require.NoError(t, err)
	require.Empty(t, hits)
}

func TestSearchEmptyQueryReturnsEmpty(t *testing.T) {
	sr, _, _ := newTestSearcher(t)
	hits, err := sr.Search(Params{Query: "", MaxChars: 2500, Provenance: ModeAll})
	require.NoError(t, err)
	require.Empty(t, hits)
}
