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

// relationSchemas are the six relations of the atomic taxonomy. Run
// individually and in order so a partial prior schema (e.g. relations but
// no FTS index yet) still converges.
var relationSchemas = []string{
	`:create compounds {
		id: String
		=>
		path: String,
		timestamp: Int,
		hash: String,
		compound_body: String,
		provenance: String,
		molecular_signature: String,
		buckets: [String]
	}`,
	`:create molecules {
		id: String
		=>
		compound_id: String,
		sequence: Int,
		start_byte: Int,
		end_byte: Int,
		content: String,
		type: String,
		tags: [String],
		molecular_signature: String
	}`,
	`:create atoms {
		id: String
		=>
		label: String,
		type: String,
		weight: Float
	}`,
	`:create atom_edges {
		from_id: String,
		to_id: String
		=>
		weight: Float,
		relation: String
	}`,
	`:create engrams {
		key_digest: String
		=>
		memory_ids: [String]
	}`,
	`:create session_state {
		id: String
		=>
		summary: String,
		updated_at: Int
	}`,
}

// indexSchemas follow relation creation. The molecules FTS index backs
// fts_search; CozoDB's built-in `~` full-text index does whitespace
// tokenization with a lower-case filter and no stemming, matching §4.A.
var indexSchemas = []string{
	`::fts create molecules:fts_idx {
		extractor: content,
		tokenizer: Simple,
		filters: [Lowercase],
	}`,
	`::fts create compounds:fts_idx {
		extractor: compound_body,
		tokenizer: Simple,
		filters: [Lowercase],
	}`,
}

// EnsureSchema creates every relation and index idempotently. "Already
// exists" is not an error — it is swallowed exactly as the teacher's
// EnsureSchema does for cie_function/cie_type.
func (s *Store) EnsureSchema() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	for _, stmt := range relationSchemas {
		if _, err := s.db.Run(stmt, nil); err != nil && !isAlreadyExists(err) {
			return wrapStoreErr("create schema relation", err)
		}
	}
	for _, stmt := range indexSchemas {
		if _, err := s.db.Run(stmt, nil); err != nil && !isAlreadyExists(err) {
			return wrapStoreErr("create fts index", err)
		}
	}
	return nil
}

func isAlreadyExists(err error) bool {
	if err == nil {
		return false
	}
	msg := strings.ToLower(err.Error())
	return strings.Contains(msg, "already exists") || strings.Contains(msg, "already defined")
}
