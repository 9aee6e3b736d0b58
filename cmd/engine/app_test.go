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

//go:build cozodb

package main

import (
	"context"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/kraklabs/ece/internal/config"
	"github.com/kraklabs/ece/pkg/inflator"
	"github.com/kraklabs/ece/pkg/scribe"
	"github.com/kraklabs/ece/pkg/search"
	"github.com/kraklabs/ece/pkg/store"
)

func testConfig(t *testing.T) config.Config {
	t.Helper()
	cfg := config.Defaults()
	cfg.Engine = "mem"
	cfg.DBPath = t.TempDir()
	cfg.WatchedDir = t.TempDir()
	cfg.BackupsDir = t.TempDir()
	cfg.Provider = "mock"
	return cfg
}

func TestOpenStoreNewIngestorSearchInflateRoundTrip(t *testing.T) {
	cfg := testConfig(t)

	st, reg, err := openStore(cfg)
	require.NoError(t, err)
	t.Cleanup(func() { _ = st.Close() })

	ig := newIngestor(st, cfg, nil, reg)
	_, err = ig.IngestContent("deploying the search service to staging", "notes.md", store.MoleculeProse, []string{"infra"}, store.ProvenanceInternal)
	require.NoError(t, err)

	searcher := search.New(st, nil, reg)
	hits, err := searcher.Search(search.Params{Query: "deploying search service", MaxChars: 1000})
	require.NoError(t, err)
	require.NotEmpty(t, hits)

	windows, err := inflator.Inflate(st, hits, 1000)
	require.NoError(t, err)
	require.NotEmpty(t, windows)
}

func TestNewProviderBuildsMockByDefault(t *testing.T) {
	cfg := testConfig(t)
	provider, err := newProvider(cfg)
	require.NoError(t, err)
	require.Equal(t, "mock", provider.Name())
}

func TestScribeWeaveAndUpdateStateThroughMockProvider(t *testing.T) {
	cfg := testConfig(t)
	st, reg, err := openStore(cfg)
	require.NoError(t, err)
	t.Cleanup(func() { _ = st.Close() })

	provider, err := newProvider(cfg)
	require.NoError(t, err)

	sc := scribe.New(st, provider, nil, reg)

	woven, err := sc.Weave("hello")
	require.NoError(t, err)
	require.Equal(t, "hello", woven)

	err = sc.UpdateState(context.Background(), []scribe.Turn{
		{Role: "user", Content: "hello"},
		{Role: "assistant", Content: "hi there"},
	})
	require.NoError(t, err)

	woven, err = sc.Weave("follow up")
	require.NoError(t, err)
	require.Contains(t, woven, "[SESSION STATE]")
}
