// Copyright 2026 KrakLabs
//
// SPDX-License-Identifier: AGPL-3.0-or-later

//go:build cozodb

// Integration tests for the Scribe. Run with: go test -tags=cozodb ./pkg/scribe/...

package scribe

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/kraklabs/ece/pkg/llm"
	"github.com/kraklabs/ece/pkg/store"
)

func newTestScribe(t *testing.T, provider llm.Provider) (*Scribe, *store.Store) {
	t.Helper()
	s, err := store.Open(store.Config{DataDir: t.TempDir(), Engine: "mem"})
	require.NoError(t, err)
	require.NoError(t, s.EnsureSchema())
	t.Cleanup(func() { _ = s.Close() })
	return New(s, provider, nil, nil), s
}

func TestUpdateStateReplacesExistingSummary(t *testing.T) {
	sc, _ := newTestScribe(t, &llm.MockProvider{
		GenerateFunc: func(ctx context.Context, req llm.GenerateRequest) (*llm.GenerateResponse, error) {
			return &llm.GenerateResponse{Text: "User discussed the Q3 roadmap and agreed to ship by October.", Done: true}, nil
		},
	})

	require.NoError(t, sc.UpdateState(context.Background(), []Turn{
		{Role: "user", Content: "Let's talk about the Q3 roadmap."},
		{Role: "assistant", Content: "Sure, what's the target ship date?"},
	}))

	state, err := sc.GetState()
	require.NoError(t, err)
	require.Contains(t, state, "Q3 roadmap")
}

func TestUpdateStatePreservesPreviousOnGeneratorFailure(t *testing.T) {
	calls := 0
	sc, _ := newTestScribe(t, &llm.MockProvider{
		GenerateFunc: func(ctx context.Context, req llm.GenerateRequest) (*llm.GenerateResponse, error) {
			calls++
			if calls == 1 {
				return &llm.GenerateResponse{Text: "first stable summary", Done: true}, nil
			}
			return nil, errors.New("generator unavailable")
		},
	})

	require.NoError(t, sc.UpdateState(context.Background(), []Turn{{Role: "user", Content: "hello"}}))

	err := sc.UpdateState(context.Background(), []Turn{{Role: "user", Content: "world"}})
	require.Error(t, err)

	state, getErr := sc.GetState()
	require.NoError(t, getErr)
	require.Equal(t, "first stable summary", state)
}

func TestUpdateStateEnforcesHardCap(t *testing.T) {
	long := strings.Repeat("x", HardCap+500)
	sc, _ := newTestScribe(t, &llm.MockProvider{
		GenerateFunc: func(ctx context.Context, req llm.GenerateRequest) (*llm.GenerateResponse, error) {
			return &llm.GenerateResponse{Text: long, Done: true}, nil
		},
	})

	require.NoError(t, sc.UpdateState(context.Background(), []Turn{{Role: "user", Content: "hi"}}))
	state, err := sc.GetState()
	require.NoError(t, err)
	require.LessOrEqual(t, len(state), HardCap)
}

func TestUpdateStateOnlyUsesLastMaxTurns(t *testing.T) {
	var sawCount int
	sc, _ := newTestScribe(t, &llm.MockProvider{
		GenerateFunc: func(ctx context.Context, req llm.GenerateRequest) (*llm.GenerateResponse, error) {
			sawCount = strings.Count(req.Prompt, "user:") + strings.Count(req.Prompt, "assistant:")
			return &llm.GenerateResponse{Text: "ok", Done: true}, nil
		},
	})

	turns := make([]Turn, 15)
	for i := range turns {
		turns[i] = Turn{Role: "user", Content: "turn"}
	}
	require.NoError(t, sc.UpdateState(context.Background(), turns))
	require.Equal(t, MaxTurns, sawCount)
}

func TestWeavePrependsSessionState(t *testing.T) {
	sc, st := newTestScribe(t, &llm.MockProvider{})
	require.NoError(t, st.Transaction(func(b *store.Batch) error {
		b.PutSessionState(store.SessionState{ID: store.SessionStateID, Summary: "prior context"})
		return nil
	}))

	woven, err := sc.Weave("what's next?")
	require.NoError(t, err)
	require.Equal(t, "[SESSION STATE]\nprior context\n[/SESSION STATE]\n\nwhat's next?", woven)
}

func TestWeaveWithNoStateReturnsMessageUnchanged(t *testing.T) {
	sc, _ := newTestScribe(t, &llm.MockProvider{})
	woven, err := sc.Weave("hello")
	require.NoError(t, err)
	require.Equal(t, "hello", woven)
}

func TestClearState(t *testing.T) {
	sc, st := newTestScribe(t, &llm.MockProvider{})
	require.NoError(t, st.Transaction(func(b *store.Batch) error {
		b.PutSessionState(store.SessionState{ID: store.SessionStateID, Summary: "something"})
		return nil
	}))
	require.NoError(t, sc.ClearState())
	state, err := sc.GetState()
	require.NoError(t, err)
	require.Empty(t, state)
}
