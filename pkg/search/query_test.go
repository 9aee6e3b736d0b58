// Copyright 2026 KrakLabs
//
// SPDX-License-Identifier: AGPL-3.0-or-later

package search

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestParseQuerySeparatesSigils(t *testing.T) {
	q := ParseQuery(`"deploy pipeline" @last-week #infra rollback`)
	require.Equal(t, []string{"deploy pipeline"}, q.Phrases)
	require.Equal(t, []string{"last-week"}, q.Temporal)
	require.Equal(t, []string{"infra"}, q.Buckets)
	require.Equal(t, []string{"rollback"}, q.Keywords)
}

func TestParseQueryBareKeywordsOnly(t *testing.T) {
	q := ParseQuery("database outage postmortem")
	require.Empty(t, q.Phrases)
	require.Equal(t, []string{"database", "outage", "postmortem"}, q.Keywords)
}

func TestFTSTermsUnionsPhrasesAndKeywords(t *testing.T) {
	q := ParseQuery(`"root cause" timeout`)
	require.Equal(t, "root cause timeout", q.FTSTerms())
}

func TestBudgetSlots(t *testing.T) {
	require.Equal(t, 5, budgetSlots(2500))
	require.Equal(t, 5, budgetSlots(0))
	require.Equal(t, 1, budgetSlots(10))
}
