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

package store

import "strings"

// FTSHit is one lexical search result: a molecule id with its BM25-like
// score and the owning compound id, hydrated enough for the Tag-Walker to
// do its own bucket/tag filtering.
type FTSHit struct {
	MoleculeID string
	CompoundID string
	Score      float64
}

// SanitizeFTSQuery strips every character that is not alphanumeric or a
// space, lower-cases the result, and collapses runs of whitespace — the
// injection-proofing §4.A requires before a query reaches the FTS parser.
func SanitizeFTSQuery(q string) string {
	var b strings.Builder
	lastSpace := true
	for _, r := range strings.ToLower(q) {
		switch {
		case r >= 'a' && r <= 'z', r >= '0' && r <= '9':
			b.WriteRune(r)
			lastSpace = false
		case r == ' ', r == '\t', r == '\n':
			if !lastSpace {
				b.WriteByte(' ')
				lastSpace = true
			}
		}
	}
	return strings.TrimSpace(b.String())
}

// FTSSearch runs a lexical full-text query over the molecules index and
// returns up to k hits ranked by the engine's BM25-like score. text is
// sanitized and lower-cased before being handed to the index.
func (s *Store) FTSSearch(text string, k int) ([]FTSHit, error) {
	clean := SanitizeFTSQuery(text)
	if clean == "" || k <= 0 {
		return nil, nil
	}

	s.mu.RLock()
	defer s.mu.RUnlock()

	res, err := s.db.RunReadOnly(
		`?[id, compound_id, score] :=
			~molecules:fts_idx{id, compound_id |
				query: $query,
				k: $k,
				score_kind: 'tf_idf',
				bind_score: score,
			}
		:order -score
		:limit $k`,
		map[string]any{"query": clean, "k": k},
	)
	if err != nil {
		return nil, wrapStoreErr("fts search", err)
	}

	out := make([]FTSHit, 0, len(res.Rows))
	for _, row := range res.Rows {
		out = append(out, FTSHit{
			MoleculeID: asString(row[0]),
			CompoundID: asString(row[1]),
			Score:      asFloat64(row[2]),
		})
	}
	return out, nil
}

// EngramLookup returns the memory ids recorded under keyDigest, or nil if
// no engram is recorded. The caller computes the digest (see
// atomizer.EngramDigest); nothing is hashed here.
func (s *Store) EngramLookup(keyDigest string) ([]string, error) {
	e, err := s.GetEngram(keyDigest)
	if err != nil {
		return nil, err
	}
	if e == nil {
		return nil, nil
	}
	return e.MemoryIDs, nil
}

// AppendEngram performs a read-modify-write that adds memoryID to the list
// resolved by keyDigest, deduplicating.
func (s *Store) AppendEngram(keyDigest, memoryID string) error {
	existing, err := s.GetEngram(keyDigest)
	if err != nil {
		return err
	}
	ids := []string{}
	if existing != nil {
		ids = existing.MemoryIDs
	}
	for _, id := range ids {
		if id == memoryID {
			return nil
		}
	}
	ids = append(ids, memoryID)
	return s.Transaction(func(b *Batch) error {
		b.PutEngram(Engram{KeyDigest: keyDigest, MemoryIDs: ids})
		return nil
	})
}
