// Copyright 2026 KrakLabs
//
// SPDX-License-Identifier: AGPL-3.0-or-later

//go:build cozodb

package ingest

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/kraklabs/ece/pkg/store"
)

func TestDreamRetagsCoreBucketCompoundsByPath(t *testing.T) {
	ig, st := newTestIngestor(t)

	_, err := ig.IngestContent("notes about the roadmap", "projects/roadmap.md", store.MoleculeProse, []string{"core"}, store.ProvenanceInternal)
	require.NoError(t, err)
	_, err = ig.IngestContent("a reminder with no folder", "reminder.md", store.MoleculeProse, nil, store.ProvenanceInternal)
	require.NoError(t, err)

	updated, err := ig.Dream()
	require.NoError(t, err)
	require.Equal(t, 1, updated)

	c, err := st.GetCompoundByPath("projects/roadmap.md")
	require.NoError(t, err)
	require.Equal(t, []string{"projects"}, c.Buckets)

	stillCore, err := st.GetCompoundByPath("reminder.md")
	require.NoError(t, err)
	require.Equal(t, []string{"core"}, stillCore.Buckets)
}

func TestDreamIsNoopWhenNothingIsStale(t *testing.T) {
	ig, _ := newTestIngestor(t)
	_, err := ig.IngestContent("already bucketed", "teams/infra/notes.md", store.MoleculeProse, []string{"infra"}, store.ProvenanceInternal)
	require.NoError(t, err)

	updated, err := ig.Dream()
	require.NoError(t, err)
	require.Equal(t, 0, updated)
}
