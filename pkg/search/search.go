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

package search

import (
	"log/slog"
	"math"
	"sort"
	"strings"
	"time"

	"github.com/kraklabs/ece/internal/errors"
	"github.com/kraklabs/ece/internal/metrics"
	"github.com/kraklabs/ece/pkg/atomizer"
	"github.com/kraklabs/ece/pkg/store"
)

// Mode is the provenance-weighted ranking mode (spec'd as a `provenance`
// input alongside the storage-level Provenance enum; `sovereign` is an
// alias for the internal-biased mode).
type Mode string

const (
	ModeInternal  Mode = "internal"
	ModeSovereign Mode = "sovereign"
	ModeExternal  Mode = "external"
	ModeAll       Mode = "all"
)

func (m Mode) normalized() Mode {
	if m == ModeSovereign {
		return ModeInternal
	}
	if m == "" {
		return ModeAll
	}
	return m
}

// provenanceBoost is the Phase 2 boost table. A missing entry (quarantine
// under any mode) means "filtered out".
var provenanceBoost = map[Mode]map[store.Provenance]float64{
	ModeInternal: {store.ProvenanceInternal: 3.0, store.ProvenanceExternal: 0.5},
	ModeExternal: {store.ProvenanceInternal: 1.0, store.ProvenanceExternal: 1.5},
	ModeAll:      {store.ProvenanceInternal: 2.0, store.ProvenanceExternal: 1.0},
}

const (
	engramScore        = 100.0
	neighborBaseScore  = 50.0
	neighborTagWeight  = 10.0
	sovereignNeighborX = 1.5
	defaultFTSK        = 500
)

// Params is the Tag-Walker's input contract.
type Params struct {
	Query      string
	Buckets    []string
	ScopeTags  []string
	MaxChars   int
	Provenance Mode
}

// Hit is one ranked molecule result, hydrated with enough of its owning
// Compound for the Context Inflator to merge and pad windows.
type Hit struct {
	MoleculeID string
	CompoundID string
	StartByte  int
	EndByte    int
	Content    string
	Source     string
	Timestamp  int64
	Provenance store.Provenance
	Tags       []string
	Buckets    []string
	Score      float64
}

// Searcher runs the Tag-Walker protocol against a Store.
type Searcher struct {
	store   *store.Store
	logger  *slog.Logger
	metrics *metrics.Registry
}

// New builds a Searcher. logger and reg may be nil.
func New(st *store.Store, logger *slog.Logger, reg *metrics.Registry) *Searcher {
	if logger == nil {
		logger = slog.Default()
	}
	return &Searcher{store: st, logger: logger, metrics: reg}
}

// Search runs all four Tag-Walker phases and returns a final ranked,
// deduplicated hit list.
func (s *Searcher) Search(p Params) ([]Hit, error) {
	start := time.Now()
	defer func() {
		if s.metrics != nil {
			s.metrics.SearchLatency.Observe(time.Since(start).Seconds())
		}
	}()

	mode := p.Provenance.normalized()
	parsed := ParseQuery(p.Query)

	totalTarget := budgetSlots(p.MaxChars)
	anchorTarget := int(math.Ceil(float64(totalTarget) * 0.7))
	if anchorTarget < 1 {
		anchorTarget = 1
	}
	neighborTarget := totalTarget - anchorTarget
	if neighborTarget < 1 {
		neighborTarget = 1
	}

	byID := make(map[string]Hit)

	// Phase 1 — Engram.
	digest := atomizer.EngramDigest(store.SanitizeFTSQuery(p.Query))
	memIDs, err := s.store.EngramLookup(digest)
	if err != nil {
		s.logger.Warn("search.engram.lookup_failed", "err", err)
	}
	for _, id := range memIDs {
		h, ok := s.hydrate(id)
		if !ok {
			continue
		}
		if !passesFilters(h, p.Buckets, p.ScopeTags) {
			continue
		}
		h.Score = engramScore
		byID[h.MoleculeID] = h
	}

	// Phase 2 — Anchors (FTS, with linear-scan fallback).
	ftsQuery := parsed.FTSTerms()
	if ftsQuery == "" {
		ftsQuery = p.Query
	}
	k := defaultFTSK
	if 2*totalTarget > k {
		k = 2 * totalTarget
	}

	anchorHits, err := s.store.FTSSearch(ftsQuery, k)
	if err != nil {
		s.logger.Warn("search.fts.failed_using_fallback", "err", err)
		if s.metrics != nil {
			s.metrics.SearchFTSFallback.Inc()
		}
		anchorHits, err = s.linearScanAnchors(ftsQuery)
		if err != nil {
			return nil, errors.NewStoreError("search fallback scan failed", err.Error(), err)
		}
	}

	anchors := make([]Hit, 0, len(anchorHits))
	for _, fh := range anchorHits {
		h, ok := s.hydrate(fh.MoleculeID)
		if !ok {
			continue
		}
		if !passesFilters(h, p.Buckets, p.ScopeTags) {
			continue
		}
		boost, filtered := boostFor(mode, h.Provenance)
		if filtered {
			continue
		}
		h.Score = fh.Score * boost
		anchors = append(anchors, h)
	}
	sort.Slice(anchors, func(i, j int) bool { return anchors[i].Score > anchors[j].Score })
	keepAnchors := maxInt(10, 2*anchorTarget)
	if len(anchors) > keepAnchors {
		anchors = anchors[:keepAnchors]
	}
	for _, h := range anchors {
		if existing, ok := byID[h.MoleculeID]; !ok || h.Score > existing.Score {
			byID[h.MoleculeID] = h
		}
	}

	// Phase 3 — Tag harvest (from anchors only).
	harvested := make(map[string]bool)
	for _, h := range anchors {
		for _, t := range h.Tags {
			harvested[t] = true
		}
		for _, b := range h.Buckets {
			harvested[b] = true
		}
	}

	// Phase 4 — Neighbor walk.
	if len(harvested) > 0 {
		neighbors, err := s.neighborWalk(harvested, byID, mode, p.Buckets, p.ScopeTags, neighborTarget)
		if err != nil {
			s.logger.Warn("search.neighbor_walk.failed", "err", err)
		}
		for _, h := range neighbors {
			if existing, ok := byID[h.MoleculeID]; !ok || h.Score > existing.Score {
				byID[h.MoleculeID] = h
			}
		}
	}

	out := make([]Hit, 0, len(byID))
	for _, h := range byID {
		out = append(out, h)
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Score != out[j].Score {
			return out[i].Score > out[j].Score
		}
		return out[i].Timestamp > out[j].Timestamp
	})

	if s.metrics != nil {
		s.metrics.SearchResultsTotal.Observe(float64(len(out)))
	}
	return out, nil
}

// budgetSlots is total_target = ceil(max_chars / 500), with a sane floor
// when no budget is supplied.
func budgetSlots(maxChars int) int {
	if maxChars <= 0 {
		maxChars = 2500
	}
	return int(math.Ceil(float64(maxChars) / 500.0))
}

func boostFor(mode Mode, prov store.Provenance) (boost float64, filtered bool) {
	table, ok := provenanceBoost[mode]
	if !ok {
		table = provenanceBoost[ModeAll]
	}
	b, ok := table[prov]
	if !ok {
		return 0, true
	}
	return b, false
}

func (s *Searcher) hydrate(moleculeID string) (Hit, bool) {
	m, err := s.store.GetMoleculeByID(moleculeID)
	if err != nil || m == nil {
		return Hit{}, false
	}
	c, err := s.store.GetCompoundByID(m.CompoundID)
	if err != nil || c == nil {
		return Hit{}, false
	}
	return Hit{
		MoleculeID: m.ID,
		CompoundID: c.ID,
		StartByte:  m.StartByte,
		EndByte:    m.EndByte,
		Content:    m.Content,
		Source:     c.Path,
		Timestamp:  c.Timestamp,
		Provenance: c.Provenance,
		Tags:       m.Tags,
		Buckets:    c.Buckets,
	}, true
}

// passesFilters is the authoritative in-process bucket/scope-tag
// intersection check — the DB query only ever returns a superset.
func passesFilters(h Hit, buckets, scopeTags []string) bool {
	if len(buckets) > 0 && !intersects(h.Buckets, buckets) {
		return false
	}
	if len(scopeTags) > 0 && !intersects(h.Tags, scopeTags) {
		return false
	}
	return true
}

func intersects(a, b []string) bool {
	set := make(map[string]bool, len(b))
	for _, x := range b {
		set[x] = true
	}
	for _, x := range a {
		if set[x] {
			return true
		}
	}
	return false
}

// neighborWalk finds every molecule not already in included whose tags
// intersect harvested, scores it, and keeps the top target by score.
func (s *Searcher) neighborWalk(harvested map[string]bool, included map[string]Hit, mode Mode, buckets, scopeTags []string, target int) ([]Hit, error) {
	mols, err := s.store.ScanMolecules(func(m store.Molecule) bool {
		if _, already := included[m.ID]; already {
			return false
		}
		return intersectionSize(m.Tags, harvested) > 0
	})
	if err != nil {
		return nil, err
	}

	neighbors := make([]Hit, 0, len(mols))
	for _, m := range mols {
		c, err := s.store.GetCompoundByID(m.CompoundID)
		if err != nil || c == nil {
			continue
		}
		h := Hit{
			MoleculeID: m.ID,
			CompoundID: c.ID,
			StartByte:  m.StartByte,
			EndByte:    m.EndByte,
			Content:    m.Content,
			Source:     c.Path,
			Timestamp:  c.Timestamp,
			Provenance: c.Provenance,
			Tags:       m.Tags,
			Buckets:    c.Buckets,
		}
		if !passesFilters(h, buckets, scopeTags) {
			continue
		}
		n := intersectionSize(m.Tags, harvested)
		score := neighborBaseScore + neighborTagWeight*float64(n)
		if mode == ModeInternal {
			score *= sovereignNeighborX
		}
		h.Score = score
		neighbors = append(neighbors, h)
	}

	sort.Slice(neighbors, func(i, j int) bool { return neighbors[i].Score > neighbors[j].Score })
	if len(neighbors) > target {
		neighbors = neighbors[:target]
	}
	return neighbors, nil
}

func intersectionSize(tags []string, harvested map[string]bool) int {
	n := 0
	for _, t := range tags {
		if harvested[t] {
			n++
		}
	}
	return n
}

// linearScanAnchors is the correctness-preserving, slow fallback used when
// fts_search itself fails: a substring match against content and source.
func (s *Searcher) linearScanAnchors(query string) ([]store.FTSHit, error) {
	needle := strings.ToLower(store.SanitizeFTSQuery(query))
	if needle == "" {
		return nil, nil
	}

	mols, err := s.store.ScanMolecules(func(m store.Molecule) bool {
		if strings.Contains(strings.ToLower(m.Content), needle) {
			return true
		}
		c, err := s.store.GetCompoundByID(m.CompoundID)
		if err != nil || c == nil {
			return false
		}
		return strings.Contains(strings.ToLower(c.Path), needle)
	})
	if err != nil {
		return nil, err
	}

	out := make([]store.FTSHit, 0, len(mols))
	for _, m := range mols {
		out = append(out, store.FTSHit{MoleculeID: m.ID, CompoundID: m.CompoundID, Score: 1.0})
	}
	return out, nil
}

func maxInt(a, b int) int {
	if a > b {
		return a
	}
	return b
}
