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
	"encoding/json"
	"regexp"
	"strings"
)

// logPrefixPattern matches a leading "YYYY-MM-DD HH:MM:SS [LEVEL]" wrapper
// artifact. No third-party pattern-matching library appears anywhere in the
// retrieval pack, so this one spot uses the standard library's regexp —
// see DESIGN.md.
var logPrefixPattern = regexp.MustCompile(`^\d{4}-\d{2}-\d{2} \d{2}:\d{2}:\d{2} \[[A-Za-z]+\]\s*`)

// trailingBlankRunPattern matches a run of more than two consecutive
// newlines (optionally interleaved with horizontal whitespace) at the very
// end of the text.
var trailingBlankRunPattern = regexp.MustCompile(`(?:[ \t]*\n){3,}[ \t]*$`)

// Sanitize implements the Key Assassin Protocol: strip recognizable wrapper
// artifacts before splitting, without ever touching the original file bytes
// on disk. Only the returned, stored compound_body is affected.
func Sanitize(raw string) string {
	s := stripLogPrefix(raw)
	s = unwrapJSONEnvelope(s)
	s = stripTrailingBlankRun(s)
	return s
}

func stripLogPrefix(s string) string {
	return logPrefixPattern.ReplaceAllString(s, "")
}

// unwrapJSONEnvelope strips an enclosing JSON object whose only field is
// the actual payload content, e.g. {"message": "actual text"} or
// {"log": "actual text"}. Anything with more than one field, or that isn't
// a single-field string-valued object, passes through unchanged.
func unwrapJSONEnvelope(s string) string {
	trimmed := strings.TrimSpace(s)
	if len(trimmed) < 2 || trimmed[0] != '{' || trimmed[len(trimmed)-1] != '}' {
		return s
	}

	var envelope map[string]json.RawMessage
	if err := json.Unmarshal([]byte(trimmed), &envelope); err != nil || len(envelope) != 1 {
		return s
	}

	for _, raw := range envelope {
		var payload string
		if err := json.Unmarshal(raw, &payload); err != nil {
			return s
		}
		return payload
	}
	return s
}

func stripTrailingBlankRun(s string) string {
	return trailingBlankRunPattern.ReplaceAllString(s, "\n")
}
