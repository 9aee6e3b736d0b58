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

// Package search is the Tag-Walker: a hybrid of engram lookup, full-text
// anchoring, tag harvest, and graph neighbor expansion, with a
// provenance-weighted final ranking.
package search

import "strings"

// ParsedQuery is the Tag-Walker's query grammar: phrases in double quotes
// are preserved verbatim, `@token` is a temporal marker, `#token` is a
// bucket marker, and everything else is a bare keyword.
type ParsedQuery struct {
	Phrases  []string
	Temporal []string
	Buckets  []string
	Keywords []string
}

// FTSTerms is the union of phrases and keywords the Tag-Walker hands to
// fts_search.
func (q ParsedQuery) FTSTerms() string {
	terms := make([]string, 0, len(q.Phrases)+len(q.Keywords))
	terms = append(terms, q.Phrases...)
	terms = append(terms, q.Keywords...)
	return strings.Join(terms, " ")
}

// ParseQuery tokenizes raw on whitespace, preserving double-quoted phrases
// as a single token, then classifies each token by its leading sigil.
func ParseQuery(raw string) ParsedQuery {
	var q ParsedQuery

	for _, tok := range tokenize(raw) {
		switch {
		case len(tok) >= 2 && tok[0] == '"' && tok[len(tok)-1] == '"':
			phrase := tok[1 : len(tok)-1]
			if phrase != "" {
				q.Phrases = append(q.Phrases, phrase)
			}
		case strings.HasPrefix(tok, "@") && len(tok) > 1:
			q.Temporal = append(q.Temporal, tok[1:])
		case strings.HasPrefix(tok, "#") && len(tok) > 1:
			q.Buckets = append(q.Buckets, tok[1:])
		default:
			q.Keywords = append(q.Keywords, tok)
		}
	}
	return q
}

// tokenize splits raw on whitespace, except inside a double-quoted run,
// which is kept as one token including its quotes.
func tokenize(raw string) []string {
	var toks []string
	var cur strings.Builder
	inQuotes := false

	flush := func() {
		if cur.Len() > 0 {
			toks = append(toks, cur.String())
			cur.Reset()
		}
	}

	for _, r := range raw {
		switch {
		case r == '"':
			inQuotes = !inQuotes
			cur.WriteRune(r)
			if !inQuotes {
				flush()
			}
		case !inQuotes && (r == ' ' || r == '\t' || r == '\n'):
			flush()
		default:
			cur.WriteRune(r)
		}
	}
	flush()
	return toks
}
