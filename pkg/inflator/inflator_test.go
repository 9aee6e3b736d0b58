// Copyright 2026 KrakLabs
//
// SPDX-License-Identifier: AGPL-3.0-or-later

package inflator

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/kraklabs/ece/pkg/search"
)

func lookupFromMap(bodies map[string]string) bodyLookupFn {
	return func(id string) (string, error) { return bodies[id], nil }
}

func TestInflateStaysWithinBudget(t *testing.T) {
	body := strings.Repeat("word ", 2000)
	hits := []search.Hit{
		{CompoundID: "c1", StartByte: 10, EndByte: 40, Score: 90, Source: "a.md", Timestamp: 1},
		{CompoundID: "c1", StartByte: 5000, EndByte: 5040, Score: 80, Source: "a.md", Timestamp: 1},
	}

	windows, err := inflate(hits, 500, lookupFromMap(map[string]string{"c1": body}))
	require.NoError(t, err)
	require.NotEmpty(t, windows)

	// spec §8 TP3: sum(len(window.content)) <= max_chars, strictly — content
	// only, headers aren't part of the budget.
	total := 0
	for _, w := range windows {
		total += len(w.Content)
	}
	require.LessOrEqual(t, total, 500)
}

func TestInflateMergesAdjacentHitsInSameCompound(t *testing.T) {
	body := strings.Repeat("x", 5000)
	hits := []search.Hit{
		{CompoundID: "c1", StartByte: 1000, EndByte: 1100, Score: 50, Source: "a.md"},
		{CompoundID: "c1", StartByte: 1150, EndByte: 1200, Score: 60, Source: "a.md"},
	}

	windows, err := inflate(hits, 2500, lookupFromMap(map[string]string{"c1": body}))
	require.NoError(t, err)
	require.Len(t, windows, 1, "hits within MERGE_THRESHOLD of each other must merge into one window")
	require.Equal(t, 60.0, windows[0].Score, "merged window inherits the max score")
}

func TestInflateKeepsDistantHitsSeparate(t *testing.T) {
	body := strings.Repeat("x", 10000)
	hits := []search.Hit{
		{CompoundID: "c1", StartByte: 100, EndByte: 150, Score: 50, Source: "a.md"},
		{CompoundID: "c1", StartByte: 9000, EndByte: 9050, Score: 60, Source: "a.md"},
	}

	windows, err := inflate(hits, 10000, lookupFromMap(map[string]string{"c1": body}))
	require.NoError(t, err)
	require.Len(t, windows, 2)
}

func TestDensitySizeTruncatesWhenOverBudget(t *testing.T) {
	hits := make([]search.Hit, 10)
	for i := range hits {
		hits[i] = search.Hit{CompoundID: "c1", StartByte: i * 1000, EndByte: i*1000 + 10, Score: float64(i)}
	}
	window, kept := densitySize(hits, 300)
	require.Equal(t, MinViableSize, window)
	require.Equal(t, 2, len(kept), "300/MIN_VIABLE_SIZE(150) == 2")
}

func TestDensitySizeSplitsBudgetEvenlyWhenUnderCapacity(t *testing.T) {
	hits := []search.Hit{{CompoundID: "c1"}, {CompoundID: "c1"}}
	window, kept := densitySize(hits, 1000)
	require.Equal(t, 500, window)
	require.Len(t, kept, 2)
}

func TestInflateMarksIsInflated(t *testing.T) {
	body := strings.Repeat("y", 3000)
	hits := []search.Hit{{CompoundID: "c1", StartByte: 100, EndByte: 200, Score: 1, Source: "a.md"}}

	windows, err := inflate(hits, 2500, lookupFromMap(map[string]string{"c1": body}))
	require.NoError(t, err)
	require.True(t, windows[0].IsInflated)
}

func TestWindowHeaderFormat(t *testing.T) {
	w := Window{Source: "notes/a.md", Timestamp: 1700000000000}
	require.Contains(t, w.Header(), "[Source: notes/a.md]")
	require.Contains(t, w.Header(), "(Timestamp: ")
}
