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

// Package scribe is the Markovian Scribe: a single rolling session-state
// summary that replaces itself on every update rather than accumulating
// history, keeping a bounded amount of conversational context in front of
// every generation request (Context Weaving).
package scribe

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/kraklabs/ece/internal/errors"
	"github.com/kraklabs/ece/internal/metrics"
	"github.com/kraklabs/ece/pkg/llm"
	"github.com/kraklabs/ece/pkg/store"
)

// HardCap is the maximum character length of a session-state summary.
const HardCap = 1200

// MaxTurns is the number of most recent turns update_state considers.
const MaxTurns = 10

const compressionPromptTemplate = `Compress the following conversation into a single rolling summary of at most 200 words. Preserve names, decisions, open questions, and numbers. Do not add commentary about the summarization itself. Respond with only the summary text.

Previous summary:
%s

Recent conversation:
%s`

// Turn is one (role, content) conversational turn.
type Turn struct {
	Role    string
	Content string
}

// Scribe owns the single rolling session-state row.
type Scribe struct {
	store    *store.Store
	provider llm.Provider
	logger   *slog.Logger
	metrics  *metrics.Registry
}

// New builds a Scribe. logger and reg may be nil.
func New(st *store.Store, provider llm.Provider, logger *slog.Logger, reg *metrics.Registry) *Scribe {
	if logger == nil {
		logger = slog.Default()
	}
	return &Scribe{store: st, provider: provider, logger: logger, metrics: reg}
}

// UpdateState compresses the last MaxTurns turns (older turns are dropped)
// into a new summary via the external generator, replacing the previous
// state. A generator failure preserves the previous state and returns the
// wrapped error; it never leaves the state half-written.
func (s *Scribe) UpdateState(ctx context.Context, turns []Turn) error {
	if len(turns) > MaxTurns {
		turns = turns[len(turns)-MaxTurns:]
	}

	prev, err := s.store.GetSessionState()
	if err != nil {
		return err
	}

	prompt := fmt.Sprintf(compressionPromptTemplate, prev.Summary, renderTurns(turns))

	resp, err := s.provider.Generate(ctx, llm.GenerateRequest{Prompt: prompt, MaxTokens: 400})
	if err != nil {
		s.logger.Warn("scribe.update_state.generator_failed", "err", err)
		if s.metrics != nil {
			s.metrics.ScribeFailuresTotal.Inc()
		}
		return errors.NewGeneratorError("session summary generation failed", err.Error(), err)
	}

	summary := truncate(strings.TrimSpace(resp.Text), HardCap)

	if err := s.store.Transaction(func(b *store.Batch) error {
		b.PutSessionState(store.SessionState{
			ID:        store.SessionStateID,
			Summary:   summary,
			UpdatedAt: time.Now().UnixMilli(),
		})
		return nil
	}); err != nil {
		return err
	}

	if s.metrics != nil {
		s.metrics.ScribeUpdatesTotal.Inc()
	}
	return nil
}

// GetState returns the current rolling summary, or the empty string if
// none has been recorded yet.
func (s *Scribe) GetState() (string, error) {
	st, err := s.store.GetSessionState()
	if err != nil {
		return "", err
	}
	return st.Summary, nil
}

// ClearState wipes the rolling summary.
func (s *Scribe) ClearState() error {
	return s.store.ClearSessionState()
}

// Weave prepends the current session state (if any) to userMessage using
// the fixed `[SESSION STATE]...[/SESSION STATE]` delimiter format every
// generation request through the engine uses.
func (s *Scribe) Weave(userMessage string) (string, error) {
	summary, err := s.GetState()
	if err != nil {
		return "", err
	}
	if summary == "" {
		return userMessage, nil
	}
	return fmt.Sprintf("[SESSION STATE]\n%s\n[/SESSION STATE]\n\n%s", summary, userMessage), nil
}

func renderTurns(turns []Turn) string {
	var b strings.Builder
	for _, t := range turns {
		fmt.Fprintf(&b, "%s: %s\n", t.Role, t.Content)
	}
	return b.String()
}

func truncate(s string, max int) string {
	if len(s) <= max {
		return s
	}
	return s[:max]
}
