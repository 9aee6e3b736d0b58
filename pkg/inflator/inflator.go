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

// Package inflator is the Context Inflator: it turns scattered molecule
// hits into coherent reading windows under a character budget, using the
// "Dynamic Density, Standard 085" adaptive sizing algorithm.
package inflator

import (
	"fmt"
	"sort"
	"time"

	"github.com/kraklabs/ece/pkg/search"
	"github.com/kraklabs/ece/pkg/store"
)

// Adaptive sizing constants (spec.md §4.E).
const (
	MinPadding     = 50
	MaxPadding     = 500
	MinWindowCap   = 200
	MinViableSize  = 150
	MergeThreshold = 500
	StaticFallback = 2500
)

// Window is one coherent, budget-respecting reading window.
type Window struct {
	CompoundID string
	Source     string
	Timestamp  int64
	Provenance store.Provenance
	Content    string
	Score      float64
	IsInflated bool
}

// Header renders the window's `[Source: <path>](Timestamp: <iso>)` prefix.
func (w Window) Header() string {
	return fmt.Sprintf("[Source: %s](Timestamp: %s)", w.Source, time.UnixMilli(w.Timestamp).UTC().Format(time.RFC3339))
}

// compoundBody resolves compound_body content for window hydration.
// Inflate looks bodies up through it (normally the Store); tests without a
// Store call the unexported inflate with a body-lookup function instead.
type compoundBody interface {
	GetCompoundByID(id string) (*store.Compound, error)
}

// Inflate groups hits by compound, merges adjacent ones, pads and caps
// each merged window, hydrates content from the authoritative compound
// body, and accumulates windows in score order until totalBudgetChars
// would be exceeded.
func Inflate(st compoundBody, hits []search.Hit, totalBudgetChars int) ([]Window, error) {
	bodies := make(map[string]string)
	lookup := func(compoundID string) (string, error) {
		if b, ok := bodies[compoundID]; ok {
			return b, nil
		}
		c, err := st.GetCompoundByID(compoundID)
		if err != nil {
			return "", err
		}
		if c == nil {
			return "", nil
		}
		bodies[compoundID] = c.CompoundBody
		return c.CompoundBody, nil
	}
	return inflate(hits, totalBudgetChars, lookup)
}

type bodyLookupFn func(compoundID string) (string, error)

func inflate(hits []search.Hit, totalBudgetChars int, lookup bodyLookupFn) ([]Window, error) {
	budget := totalBudgetChars
	if budget <= 0 {
		budget = StaticFallback
	}

	targetWindow, kept := densitySize(hits, budget)
	targetPadding := clampInt(targetWindow/2, MinPadding, MaxPadding)

	groups := groupByCompound(kept)

	var windows []Window
	for compoundID, group := range groups {
		body, err := lookup(compoundID)
		if err != nil {
			return nil, err
		}
		windows = append(windows, mergeCompoundHits(compoundID, body, group, targetWindow, targetPadding)...)
	}

	sort.Slice(windows, func(i, j int) bool { return windows[i].Score > windows[j].Score })

	// Budget accounting tracks window content only (spec §8 TP3): the
	// invariant is sum(len(window.content)) <= max_chars, not content plus
	// header. Checked unconditionally, including the first window, so a
	// single oversized window can never blow the budget on its own.
	var out []Window
	total := 0
	for _, w := range windows {
		cost := len(w.Content)
		if total+cost > budget {
			break
		}
		out = append(out, w)
		total += cost
	}
	return out, nil
}

// densitySize implements Dynamic Density, Standard 085: it returns the
// target window size and the (possibly truncated) hit list the rest of
// the pipeline should operate on.
func densitySize(hits []search.Hit, budget int) (int, []search.Hit) {
	n := len(hits)
	if n == 0 {
		return MinViableSize, hits
	}
	if n*MinViableSize > budget {
		keep := budget / MinViableSize
		if keep < 1 {
			keep = 1
		}
		if keep > n {
			keep = n
		}
		return MinViableSize, hits[:keep]
	}
	return budget / n, hits
}

func groupByCompound(hits []search.Hit) map[string][]search.Hit {
	groups := make(map[string][]search.Hit)
	for _, h := range hits {
		groups[h.CompoundID] = append(groups[h.CompoundID], h)
	}
	for _, group := range groups {
		sort.Slice(group, func(i, j int) bool { return group[i].StartByte < group[j].StartByte })
	}
	return groups
}

type mergedSpan struct {
	start, end int
	score      float64
	source     string
	timestamp  int64
	provenance store.Provenance
}

// mergeCompoundHits runs steps 2-6 of the merging algorithm for one
// compound's hits: linear adjacency merge, pad, cap, hydrate, mark.
func mergeCompoundHits(compoundID, body string, hits []search.Hit, targetWindow, targetPadding int) []Window {
	if len(hits) == 0 {
		return nil
	}

	var spans []mergedSpan
	cur := mergedSpan{
		start: hits[0].StartByte, end: hits[0].EndByte, score: hits[0].Score,
		source: hits[0].Source, timestamp: hits[0].Timestamp, provenance: hits[0].Provenance,
	}
	for _, h := range hits[1:] {
		if h.StartByte-cur.end < MergeThreshold {
			if h.EndByte > cur.end {
				cur.end = h.EndByte
			}
			if h.Score > cur.score {
				cur.score = h.Score
			}
			continue
		}
		spans = append(spans, cur)
		cur = mergedSpan{
			start: h.StartByte, end: h.EndByte, score: h.Score,
			source: h.Source, timestamp: h.Timestamp, provenance: h.Provenance,
		}
	}
	spans = append(spans, cur)

	bodyLen := len(body)
	windows := make([]Window, 0, len(spans))
	for _, sp := range spans {
		windowStart := sp.start - targetPadding
		if windowStart < 0 {
			windowStart = 0
		}
		windowEnd := sp.end + targetPadding
		if windowEnd > bodyLen {
			windowEnd = bodyLen
		}

		if windowEnd-windowStart > targetWindow {
			centroid := (sp.start + sp.end) / 2
			half := targetWindow / 2
			windowStart = centroid - half
			windowEnd = centroid + (targetWindow - half)
			if windowStart < 0 {
				windowEnd -= windowStart
				windowStart = 0
			}
			if windowEnd > bodyLen {
				windowStart -= windowEnd - bodyLen
				windowEnd = bodyLen
			}
			if windowStart < 0 {
				windowStart = 0
			}
		}

		content := ""
		if bodyLen > 0 && windowStart < windowEnd && windowEnd <= bodyLen {
			content = body[windowStart:windowEnd]
		}
		if windowStart > 0 {
			content = "..." + content
		}
		if windowEnd < bodyLen {
			content = content + "..."
		}
		// Ellipsis insertion can grow content past the cap already applied
		// above; re-clamp so content itself never exceeds targetWindow.
		if len(content) > targetWindow {
			content = content[:targetWindow]
		}

		windows = append(windows, Window{
			CompoundID: compoundID,
			Source:     sp.source,
			Timestamp:  sp.timestamp,
			Provenance: sp.provenance,
			Content:    content,
			Score:      sp.score,
			IsInflated: true,
		})
	}
	return windows
}

func clampInt(v, lo, hi int) int {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}
