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

package atomizer

import (
	"regexp"
	"strings"

	"github.com/kraklabs/ece/pkg/store"
)

// categoryRule is one (trigger_pattern -> category, weight) entry of the
// atom extraction rule table (§4.B).
type categoryRule struct {
	category string
	weight   float64
	pattern  *regexp.Regexp
}

// categoryRules classifies text spans into the eleven high-level categories
// named in §4.B. Patterns are intentionally coarse keyword/phrase triggers,
// not a full classifier — the rule table is meant to be cheap and additive.
var categoryRules = []categoryRule{
	{"Relationship", 0.6, regexp.MustCompile(`(?i)\b(friend|partner|colleague|family|spouse|relationship|married|sibling)\b`)},
	{"Narrative", 0.4, regexp.MustCompile(`(?i)\b(once upon|story|chapter|narrator|plot|character arc)\b`)},
	{"Technical", 0.7, regexp.MustCompile(`(?i)\b(function|struct|api|database|server|compile|algorithm|protocol|schema)\b`)},
	{"Industry", 0.5, regexp.MustCompile(`(?i)\b(market|industry|sector|enterprise|startup|revenue|customer)\b`)},
	{"Location", 0.5, regexp.MustCompile(`(?i)\b(city|country|street|building|room|location|address)\b`)},
	{"Emotional", 0.5, regexp.MustCompile(`(?i)\b(happy|sad|angry|afraid|excited|anxious|grateful|frustrated)\b`)},
	{"Temporal", 0.4, regexp.MustCompile(`(?i)\b(yesterday|tomorrow|today|last week|next month|(19|20)\d{2}|\bAM\b|\bPM\b)\b`)},
	{"Causal", 0.5, regexp.MustCompile(`(?i)\b(because|therefore|as a result|due to|consequently|leads to)\b`)},
	{"Professional", 0.5, regexp.MustCompile(`(?i)\b(meeting|deadline|project|manager|client|deliverable|report)\b`)},
	{"Personal", 0.4, regexp.MustCompile(`(?i)\b(i feel|my own|personally|in my life|my goal)\b`)},
	{"Knowledge", 0.5, regexp.MustCompile(`(?i)\b(learned|studied|research|according to|defines|concept of)\b`)},
}

// commonCapitalizedWords are excluded from entity extraction even though
// they appear capitalized at sentence starts.
var commonCapitalizedWords = map[string]bool{
	"The": true, "And": true, "For": true, "But": true, "Or": true, "Nor": true,
	"So": true, "Yet": true, "A": true, "An": true, "In": true, "On": true,
	"At": true, "To": true, "Of": true, "With": true, "As": true, "By": true,
	"It": true, "This": true, "That": true, "These": true, "Those": true,
}

var entityRunPattern = regexp.MustCompile(`\b[A-Z][A-Za-z0-9]*(?:\s+[A-Z][A-Za-z0-9]*)*\b`)

// ExtractAtoms classifies a molecule's text into category atoms (rule-table
// driven) and entity atoms (capitalized runs, common words excluded).
// Returns the set of atoms discovered and their labels for tagging.
func ExtractAtoms(text string) []store.Atom {
	seen := make(map[string]store.Atom)

	for _, rule := range categoryRules {
		if rule.pattern.MatchString(text) {
			label := "#category:" + rule.category
			seen[label] = store.Atom{
				ID:     GenerateAtomID(label),
				Label:  label,
				Type:   store.AtomSystem,
				Weight: rule.weight,
			}
		}
	}

	for _, match := range entityRunPattern.FindAllString(text, -1) {
		words := strings.Fields(match)
		if len(words) == 1 && commonCapitalizedWords[words[0]] {
			continue
		}
		label := "#entity:" + match
		if _, ok := seen[label]; !ok {
			seen[label] = store.Atom{
				ID:     GenerateAtomID(label),
				Label:  label,
				Type:   store.AtomConcept,
				Weight: 0.3,
			}
		}
	}

	out := make([]store.Atom, 0, len(seen))
	for _, a := range seen {
		out = append(out, a)
	}
	return out
}
