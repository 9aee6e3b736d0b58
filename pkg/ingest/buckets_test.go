// Copyright 2026 KrakLabs
//
// SPDX-License-Identifier: AGPL-3.0-or-later

package ingest

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestBucketsForWatchedPath(t *testing.T) {
	require.Equal(t, []string{"core"}, bucketsForWatchedPath("notes.md"))
	require.Equal(t, []string{"core"}, bucketsForWatchedPath("./notes.md"))
	require.Equal(t, []string{"projects"}, bucketsForWatchedPath("projects/alpha/readme.md"))
	require.Equal(t, []string{"core"}, bucketsForWatchedPath("../outside.md"))
}

func TestIsSnapshotFile(t *testing.T) {
	require.True(t, isSnapshotFile("cozo_memory_snapshot_20260731.yaml"))
	require.False(t, isSnapshotFile("notes.yaml"))
}

func TestIsDotfile(t *testing.T) {
	require.True(t, isDotfile(".DS_Store"))
	require.False(t, isDotfile("notes.md"))
}
