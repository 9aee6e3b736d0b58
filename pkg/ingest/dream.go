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

package ingest

import "github.com/kraklabs/ece/pkg/store"

// Dream re-tags every Compound still sitting in the default bucket set
// (["core"] or empty) by re-deriving its bucket from path, the same rule
// applied at ingest time. It returns the number of Compounds updated.
func (ig *Ingestor) Dream() (int, error) {
	stale, err := ig.store.ScanCompounds(needsRetag)
	if err != nil {
		return 0, err
	}

	count := 0
	for _, c := range stale {
		buckets := bucketsForWatchedPath(c.Path)
		if len(buckets) == 1 && buckets[0] == "core" {
			continue
		}
		c.Buckets = buckets
		if err := ig.store.PutCompound(c); err != nil {
			return count, err
		}
		count++
	}
	return count, nil
}

// needsRetag reports whether a Compound's buckets are still at the
// ingest-time default, making it a candidate for re-derivation.
func needsRetag(c store.Compound) bool {
	return len(c.Buckets) == 0 || (len(c.Buckets) == 1 && c.Buckets[0] == "core")
}
