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
	"crypto/md5"
	"crypto/sha256"
	"encoding/base32"
	"fmt"
	"path/filepath"
	"strings"
)

// GenerateCompoundID derives a path-stable id: base32 of the normalized
// relative path, so re-ingesting the same path always yields the same id
// (§3: "path-stable id: base32 of relative path").
func GenerateCompoundID(path string) string {
	normalized := normalizePath(path)
	enc := base32.StdEncoding.WithPadding(base32.NoPadding)
	return "compound:" + enc.EncodeToString([]byte(normalized))
}

// GenerateMoleculeID derives a Molecule's id from its Compound id and
// 0-based sequence position.
func GenerateMoleculeID(compoundID string, sequence int) string {
	return fmt.Sprintf("%s#%d", compoundID, sequence)
}

// GenerateAtomID hashes the normalized atom label to a fixed-length id.
func GenerateAtomID(label string) string {
	norm := normalizeLabel(label)
	sum := sha256.Sum256([]byte(norm))
	return "atom:" + fmt.Sprintf("%x", sum[:12])
}

// normalizeLabel canonicalizes an atom label for id generation and
// dedup comparison: trimmed and lower-cased, preserving any leading `#`
// sigil and `category:`/`project:`-style prefixes.
func normalizeLabel(label string) string {
	return strings.ToLower(strings.TrimSpace(label))
}

// EngramDigest hashes a normalized lookup key (an atom label, or a
// normalized search query) into the digest used as the engrams relation's
// primary key.
func EngramDigest(key string) string {
	sum := md5.Sum([]byte(normalizeLabel(key)))
	return fmt.Sprintf("%x", sum)
}

func normalizePath(path string) string {
	if strings.HasPrefix(path, "./") {
		path = path[2:]
	}
	path = filepath.ToSlash(filepath.Clean(path))
	path = strings.TrimPrefix(path, "/")
	return path
}
