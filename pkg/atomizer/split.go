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
	"strings"
	"unicode/utf8"

	"github.com/kraklabs/ece/pkg/store"
)

// span is a half-open byte range into the sanitized compound body.
type span struct {
	start, end int
	kind       store.MoleculeType
}

// minFragmentBytes is the merge threshold for short prose fragments (§4.B).
const minFragmentBytes = 40

// Split partitions body into non-overlapping spans according to docType,
// carving out ```-fenced blocks as standalone code spans first regardless
// of the surrounding document's declared type. A whitespace-only stretch
// between fenced blocks, and a blank line in line-oriented data, belongs
// to no span unless a short-fragment merge absorbs it. sourcePath
// selects an opportunistic tree-sitter grammar for type=code documents;
// pass "" to always use the indentation-run fallback.
func Split(body string, docType store.MoleculeType, sourcePath string) []span {
	if body == "" {
		return nil
	}

	fenced := findFencedBlocks(body)
	gaps := invertSpans(len(body), fenced)

	var out []span
	for _, g := range gaps {
		text := body[g.start:g.end]
		if strings.TrimSpace(text) == "" {
			continue
		}
		switch docType {
		case store.MoleculeCode:
			if spans, ok := splitCodeTreeSitter(text, g.start, sourcePath); ok {
				out = append(out, spans...)
			} else {
				out = append(out, splitCode(text, g.start)...)
			}
		case store.MoleculeData:
			out = append(out, splitData(text, g.start)...)
		default:
			out = append(out, splitProse(text, g.start)...)
		}
	}
	out = append(out, fenced...)
	out = sortSpans(out)
	out = mergeShortFragments(out, body)
	return out
}

// findFencedBlocks locates ``` ... ``` regions, each becoming a single
// type=code span. An unterminated trailing fence runs to the end of body.
func findFencedBlocks(body string) []span {
	const fence = "```"
	var out []span
	pos := 0
	for {
		start := strings.Index(body[pos:], fence)
		if start < 0 {
			break
		}
		start += pos
		rest := start + len(fence)
		end := strings.Index(body[rest:], fence)
		var blockEnd int
		if end < 0 {
			blockEnd = len(body)
		} else {
			blockEnd = rest + end + len(fence)
		}
		out = append(out, span{start: start, end: blockEnd, kind: store.MoleculeCode})
		pos = blockEnd
		if pos >= len(body) {
			break
		}
	}
	return out
}

// invertSpans returns the complementary ranges of total not covered by
// covered (which must already be sorted and non-overlapping).
func invertSpans(total int, covered []span) []span {
	if len(covered) == 0 {
		return []span{{start: 0, end: total}}
	}
	sorted := sortSpans(append([]span(nil), covered...))
	var out []span
	cursor := 0
	for _, c := range sorted {
		if c.start > cursor {
			out = append(out, span{start: cursor, end: c.start})
		}
		if c.end > cursor {
			cursor = c.end
		}
	}
	if cursor < total {
		out = append(out, span{start: cursor, end: total})
	}
	return out
}

func sortSpans(spans []span) []span {
	for i := 1; i < len(spans); i++ {
		for j := i; j > 0 && spans[j-1].start > spans[j].start; j-- {
			spans[j-1], spans[j] = spans[j], spans[j-1]
		}
	}
	return spans
}

// splitProse splits at sentence terminators `. ! ?` followed by whitespace,
// preserving UTF-8 boundaries. offset is text's position within the whole
// compound body.
func splitProse(text string, offset int) []span {
	var bounds []int
	for i := 0; i < len(text); {
		r, size := utf8.DecodeRuneInString(text[i:])
		if (r == '.' || r == '!' || r == '?') && i+size < len(text) {
			next, _ := utf8.DecodeRuneInString(text[i+size:])
			if next == ' ' || next == '\t' || next == '\n' {
				bounds = append(bounds, i+size)
			}
		}
		i += size
	}

	var out []span
	prev := 0
	for _, b := range bounds {
		if b > prev {
			out = append(out, span{start: offset + prev, end: offset + b, kind: store.MoleculeProse})
			prev = b
		}
	}
	if prev < len(text) {
		out = append(out, span{start: offset + prev, end: offset + len(text), kind: store.MoleculeProse})
	}
	if len(out) == 0 {
		out = []span{{start: offset, end: offset + len(text), kind: store.MoleculeProse}}
	}
	return out
}

// splitCode splits at logical blocks: runs of consecutive lines sharing the
// same leading-whitespace indentation.
func splitCode(text string, offset int) []span {
	lines := splitLinesKeepEnds(text)
	if len(lines) == 0 {
		return nil
	}

	var out []span
	blockStart := 0
	pos := 0
	curIndent := indentOf(lines[0])
	for i, line := range lines {
		ind := indentOf(line)
		if i > 0 && ind != curIndent {
			out = append(out, span{start: offset + blockStart, end: offset + pos, kind: store.MoleculeCode})
			blockStart = pos
			curIndent = ind
		}
		pos += len(line)
	}
	out = append(out, span{start: offset + blockStart, end: offset + pos, kind: store.MoleculeCode})
	return out
}

// splitData splits line-oriented data formats by line; mapping formats
// (YAML/JSON-like, detected by a leading top-level key token) split at
// top-level key boundaries (lines with no leading whitespace before a
// ':' or similarly flush-left separator).
func splitData(text string, offset int) []span {
	lines := splitLinesKeepEnds(text)
	if len(lines) == 0 {
		return nil
	}

	isMapping := looksLikeMapping(lines)
	var out []span
	blockStart := 0
	pos := 0
	for i, line := range lines {
		isTopLevelKey := isMapping && i > 0 && indentOf(line) == 0 && strings.TrimSpace(line) != ""
		if isTopLevelKey {
			out = append(out, span{start: offset + blockStart, end: offset + pos, kind: store.MoleculeData})
			blockStart = pos
		}
		pos += len(line)
	}
	out = append(out, span{start: offset + blockStart, end: offset + pos, kind: store.MoleculeData})
	if !isMapping {
		// line-oriented: one molecule per non-empty line
		out = out[:0]
		blockStart = 0
		pos = 0
		for _, line := range lines {
			end := pos + len(line)
			if strings.TrimSpace(line) != "" {
				out = append(out, span{start: offset + pos, end: offset + end, kind: store.MoleculeData})
			}
			pos = end
		}
		_ = blockStart
	}
	return out
}

func looksLikeMapping(lines []string) bool {
	for _, l := range lines {
		t := strings.TrimSpace(l)
		if t == "" || strings.HasPrefix(t, "#") || strings.HasPrefix(t, "-") {
			continue
		}
		if strings.Contains(t, ":") {
			return true
		}
	}
	return false
}

func splitLinesKeepEnds(text string) []string {
	var out []string
	start := 0
	for i := 0; i < len(text); i++ {
		if text[i] == '\n' {
			out = append(out, text[start:i+1])
			start = i + 1
		}
	}
	if start < len(text) {
		out = append(out, text[start:])
	}
	return out
}

func indentOf(line string) int {
	n := 0
	for _, r := range line {
		if r == ' ' {
			n++
		} else if r == '\t' {
			n += 4
		} else {
			break
		}
	}
	return n
}

// mergeShortFragments merges any span shorter than minFragmentBytes into
// the previous span of the same type, per §4.B's prose-fragment rule
// (applied to code/data fragments too, avoiding degenerate
// single-character molecules at block boundaries). A span of a different
// type — e.g. a fenced code block inside prose — stays separate.
func mergeShortFragments(spans []span, body string) []span {
	if len(spans) < 2 {
		return spans
	}
	out := []span{spans[0]}
	for _, s := range spans[1:] {
		prev := out[len(out)-1]
		if s.end-s.start < minFragmentBytes && s.kind == prev.kind {
			out[len(out)-1] = span{start: prev.start, end: s.end, kind: prev.kind}
			continue
		}
		out = append(out, s)
	}
	return out
}
