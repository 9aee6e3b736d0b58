// Copyright 2026 KrakLabs
//
// SPDX-License-Identifier: AGPL-3.0-or-later

//go:build cozodb

// Integration tests for snapshot eject/hydrate. Run with:
// go test -tags=cozodb ./pkg/snapshot/...

package snapshot

import (
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/kraklabs/ece/pkg/ingest"
	"github.com/kraklabs/ece/pkg/store"
)

func newTestStore(t *testing.T) *store.Store {
	t.Helper()
	s, err := store.Open(store.Config{DataDir: t.TempDir(), Engine: "mem"})
	require.NoError(t, err)
	require.NoError(t, s.EnsureSchema())
	t.Cleanup(func() { _ = s.Close() })
	return s
}

func TestEjectThenHydrateReproducesCompounds(t *testing.T) {
	src := newTestStore(t)
	ig := ingest.New(src, ingest.Config{MaxFileBytes: 1 << 20}, nil, nil)

	_, err := ig.IngestContent("# Roadmap\n\nShip by October.", "notes/roadmap.md", store.MoleculeProse, []string{"core"}, store.ProvenanceInternal)
	require.NoError(t, err)
	_, err = ig.IngestContent("func add(a, b int) int {\n\treturn a + b\n}\n", "pkg/math.go", store.MoleculeCode, []string{"code"}, store.ProvenanceInternal)
	require.NoError(t, err)

	backupsDir := t.TempDir()
	path, err := Eject(src, backupsDir)
	require.NoError(t, err)
	require.FileExists(t, path)

	want, err := src.SnapshotDump()
	require.NoError(t, err)
	require.Len(t, want, 2)

	dst := newTestStore(t)
	hydrated, err := HydrateFile(dst, path, nil, nil)
	require.NoError(t, err)
	require.Equal(t, 2, hydrated)

	got, err := dst.SnapshotDump()
	require.NoError(t, err)
	require.Len(t, got, 2)

	for i := range want {
		require.Equal(t, want[i].ID, got[i].ID)
		require.Equal(t, want[i].Hash, got[i].Hash)
		require.Equal(t, want[i].CompoundBody, got[i].CompoundBody)
		require.Equal(t, want[i].Path, got[i].Path)
	}
}

func TestHydrateOnBootSkipsNonEmptyStore(t *testing.T) {
	src := newTestStore(t)
	ig := ingest.New(src, ingest.Config{MaxFileBytes: 1 << 20}, nil, nil)
	_, err := ig.IngestContent("hello world", "a.md", store.MoleculeProse, nil, store.ProvenanceInternal)
	require.NoError(t, err)

	backupsDir := t.TempDir()
	_, err = Eject(src, backupsDir)
	require.NoError(t, err)

	dst := newTestStore(t)
	ig2 := ingest.New(dst, ingest.Config{MaxFileBytes: 1 << 20}, nil, nil)
	_, err = ig2.IngestContent("already has data", "b.md", store.MoleculeProse, nil, store.ProvenanceInternal)
	require.NoError(t, err)

	hydrated, err := HydrateOnBoot(dst, backupsDir, nil, nil)
	require.NoError(t, err)
	require.Equal(t, 0, hydrated)
}

func TestHydrateOnBootLoadsNewestBackupIntoEmptyStore(t *testing.T) {
	src := newTestStore(t)
	ig := ingest.New(src, ingest.Config{MaxFileBytes: 1 << 20}, nil, nil)
	_, err := ig.IngestContent("hello world", "a.md", store.MoleculeProse, nil, store.ProvenanceInternal)
	require.NoError(t, err)

	backupsDir := t.TempDir()
	_, err = Eject(src, backupsDir)
	require.NoError(t, err)

	dst := newTestStore(t)
	var progressCalls int
	hydrated, err := HydrateOnBoot(dst, backupsDir, nil, func(done, total int) { progressCalls++ })
	require.NoError(t, err)
	require.Equal(t, 1, hydrated)
	require.Equal(t, 1, progressCalls)
}

func TestHydrateOnBootWithNoBackupsIsNoop(t *testing.T) {
	dst := newTestStore(t)
	hydrated, err := HydrateOnBoot(dst, filepath.Join(t.TempDir(), "missing"), nil, nil)
	require.NoError(t, err)
	require.Equal(t, 0, hydrated)
}
