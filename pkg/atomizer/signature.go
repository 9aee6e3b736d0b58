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
	"fmt"
	"strings"

	"github.com/cespare/xxhash/v2"
)

// ContentHash computes the Compound/Molecule content digest. MD5 is
// sufficient per §3 — collision resistance is not a security property here,
// only a dedup/near-duplicate signal.
func ContentHash(content string) string {
	sum := md5.Sum([]byte(content))
	return fmt.Sprintf("%x", sum)
}

// shingleSize is the word n-gram width fed into the SimHash fingerprint.
const shingleSize = 4

// MolecularSignature computes a 64-bit SimHash-style fingerprint of text,
// rendered as a fixed-width hex string. Near-duplicate bodies/molecules
// produce fingerprints with a small Hamming distance; xxhash gives a fast,
// well-distributed per-shingle hash (the same dependency CozoDB and the
// Prometheus client chain already pull into the module).
func MolecularSignature(text string) string {
	words := strings.Fields(text)
	if len(words) == 0 {
		return fmt.Sprintf("%016x", xxhash.Sum64String(text))
	}

	var weights [64]int
	shingles := shinglesOf(words, shingleSize)
	if len(shingles) == 0 {
		shingles = []string{text}
	}

	for _, sh := range shingles {
		h := xxhash.Sum64String(sh)
		for bit := 0; bit < 64; bit++ {
			if h&(1<<uint(bit)) != 0 {
				weights[bit]++
			} else {
				weights[bit]--
			}
		}
	}

	var fingerprint uint64
	for bit := 0; bit < 64; bit++ {
		if weights[bit] > 0 {
			fingerprint |= 1 << uint(bit)
		}
	}
	return fmt.Sprintf("%016x", fingerprint)
}

func shinglesOf(words []string, n int) []string {
	if len(words) < n {
		return []string{strings.Join(words, " ")}
	}
	out := make([]string, 0, len(words)-n+1)
	for i := 0; i+n <= len(words); i++ {
		out = append(out, strings.Join(words[i:i+n], " "))
	}
	return out
}

// HammingDistance64 counts differing bits between two hex-encoded 64-bit
// signatures — the near-duplicate comparison against a compound or
// molecule's molecular_signature (§3). Small distances flag near-duplicate
// bodies; nothing in this package calls it today, it's exposed for callers
// doing duplicate/similarity analysis over stored signatures.
func HammingDistance64(a, b string) int {
	var va, vb uint64
	fmt.Sscanf(a, "%016x", &va)
	fmt.Sscanf(b, "%016x", &vb)
	x := va ^ vb
	count := 0
	for x != 0 {
		count++
		x &= x - 1
	}
	return count
}
