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

// Package ingest is the Ingestor component: it deduplicates by content
// hash, assigns stable ids, maps the top-level watched-root folder onto a
// bucket, and persists the Atomizer's output through the Store. It is
// invoked both by the file watcher and by a direct ingest API call.
package ingest

import (
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/kraklabs/ece/internal/errors"
	"github.com/kraklabs/ece/internal/metrics"
	"github.com/kraklabs/ece/pkg/atomizer"
	"github.com/kraklabs/ece/pkg/store"
)

// extensionAllowList is the set of extensions ingest_file accepts, plus the
// empty string for extensionless files (§4.C).
var extensionAllowList = map[string]bool{
	".txt": true, ".md": true, ".json": true, ".yaml": true, ".yml": true,
	".js": true, ".ts": true, ".py": true, ".html": true, ".css": true,
	".bat": true, ".ps1": true, ".sh": true, "": true,
}

// Config configures the Ingestor's limits.
type Config struct {
	// WatchedDir is the root directory watcher ingests are relative to,
	// used to derive the first bucket from the top-level path segment.
	WatchedDir string

	// MaxFileBytes caps ingest_file's accepted file size (§4.C, §6).
	MaxFileBytes int64
}

// Result is the outcome of one ingest call.
type Result struct {
	Status string // "inserted" or "skipped"
	ID     string
}

const (
	StatusInserted = "inserted"
	StatusSkipped  = "skipped"
)

// Ingestor ties the Atomizer's pure decomposition to the Store's
// transactional persistence.
type Ingestor struct {
	store    *store.Store
	atomizer *atomizer.Atomizer
	cfg      Config
	logger   *slog.Logger
	metrics  *metrics.Registry
}

// New builds an Ingestor. logger and reg may be nil (slog.Default() is
// used for a nil logger; metrics are simply skipped).
func New(st *store.Store, cfg Config, logger *slog.Logger, reg *metrics.Registry) *Ingestor {
	if logger == nil {
		logger = slog.Default()
	}
	return &Ingestor{
		store:    st,
		atomizer: atomizer.New(),
		cfg:      cfg,
		logger:   logger,
		metrics:  reg,
	}
}

// IngestFile reads path from disk and ingests it, applying the size cap,
// extension allow-list, and watcher-style bucket assignment.
func (ig *Ingestor) IngestFile(path string) (*Result, error) {
	ig.logger.Debug("ingest.file.start", "path", path)

	info, err := os.Stat(path)
	if err != nil {
		return nil, errors.NewStoreError("Cannot stat file", err.Error(), err)
	}

	maxBytes := ig.cfg.MaxFileBytes
	if maxBytes <= 0 {
		maxBytes = 100 * 1024 * 1024
	}
	if info.Size() > maxBytes {
		ig.logger.Warn("ingest.file.too_large", "path", path, "size", info.Size(), "max", maxBytes)
		if ig.metrics != nil {
			ig.metrics.IngestFilesTotal.WithLabelValues("skipped_too_large").Inc()
		}
		return &Result{Status: StatusSkipped}, nil
	}

	ext := strings.ToLower(filepath.Ext(path))
	if !extensionAllowList[ext] {
		ig.logger.Debug("ingest.file.extension_rejected", "path", path, "ext", ext)
		if ig.metrics != nil {
			ig.metrics.IngestFilesTotal.WithLabelValues("skipped_extension").Inc()
		}
		return &Result{Status: StatusSkipped}, nil
	}

	data, err := os.ReadFile(path)
	if err != nil {
		if ig.metrics != nil {
			ig.metrics.IngestErrorsTotal.Inc()
		}
		return nil, errors.NewStoreError("Cannot read file", err.Error(), err)
	}
	if ig.metrics != nil {
		ig.metrics.IngestBytesTotal.Add(float64(len(data)))
	}

	rel := path
	if ig.cfg.WatchedDir != "" {
		if r, err := filepath.Rel(ig.cfg.WatchedDir, path); err == nil {
			rel = r
		}
	}
	buckets := bucketsForWatchedPath(rel)

	return ig.ingest(string(data), rel, "", buckets, store.ProvenanceInternal)
}

// IngestContent is the direct-ingest API form: buckets defaults to
// ["core"] when the caller supplies none.
func (ig *Ingestor) IngestContent(content, source string, docType store.MoleculeType, buckets []string, provenance store.Provenance) (*Result, error) {
	if content == "" {
		return nil, errors.NewBadRequestError("ingest content must not be empty", "content was the empty string")
	}
	if len(buckets) == 0 {
		buckets = []string{"core"}
	}
	for _, b := range buckets {
		if b == "" {
			return nil, errors.NewBadRequestError("buckets must not contain empty labels", "one of the supplied buckets was empty")
		}
	}
	if !provenance.Valid() {
		provenance = store.ProvenanceInternal
	}
	return ig.ingest(content, source, docType, buckets, provenance)
}

func (ig *Ingestor) ingest(content, source string, docType store.MoleculeType, buckets []string, provenance store.Provenance) (*Result, error) {
	result := ig.atomizer.Atomize(content, source, provenance, docType, buckets, time.Now().UnixMilli())

	existing, err := ig.store.GetCompoundByHash(result.Compound.Hash)
	if err != nil {
		if ig.metrics != nil {
			ig.metrics.IngestErrorsTotal.Inc()
		}
		return nil, err
	}
	if existing != nil {
		ig.logger.Debug("ingest.dedup.skip", "source", source, "id", existing.ID)
		if ig.metrics != nil {
			ig.metrics.IngestDuplicatesTotal.Inc()
			ig.metrics.IngestFilesTotal.WithLabelValues("skipped_duplicate").Inc()
		}
		return &Result{Status: StatusSkipped, ID: existing.ID}, nil
	}

	// Same path, different hash: the path-stable id already matches, so
	// writing the new Compound naturally replaces the old row. Its old
	// Molecules are explicitly removed first so no stale molecule survives
	// under a sequence index the new split no longer produces.
	if err := ig.store.DeleteCompound(result.Compound.ID); err != nil {
		return nil, err
	}

	edges := coOccurringAtomEdges(result)

	err = ig.store.Transaction(func(b *store.Batch) error {
		b.PutCompound(result.Compound)
		for _, m := range result.Molecules {
			b.PutMolecule(m)
		}
		for _, a := range result.Atoms {
			b.PutAtom(a)
		}
		for _, e := range edges {
			b.PutAtomEdge(e)
		}
		return nil
	})
	if err != nil {
		if ig.metrics != nil {
			ig.metrics.IngestErrorsTotal.Inc()
		}
		return nil, err
	}

	for _, m := range result.Molecules {
		for _, tag := range m.Tags {
			// Digest over the same sanitized form the Searcher hashes its
			// query against (store.SanitizeFTSQuery strips the tag's `#`/`:`
			// sigil), or this sidecar can never produce a hit.
			digest := atomizer.EngramDigest(store.SanitizeFTSQuery(tag))
			if err := ig.store.AppendEngram(digest, m.ID); err != nil {
				ig.logger.Warn("ingest.engram.append_failed", "err", err)
			}
		}
	}

	ig.logger.Info("ingest.file.success", "source", source, "id", result.Compound.ID, "molecules", len(result.Molecules))
	if ig.metrics != nil {
		ig.metrics.IngestFilesTotal.WithLabelValues("inserted").Inc()
	}
	return &Result{Status: StatusInserted, ID: result.Compound.ID}, nil
}

// coOccurringAtomEdges links every pair of distinct atoms that share a
// molecule, weighted by how many molecules they co-occur in. This is the
// graph the Tag-Walker's neighbor-walk phase traverses.
func coOccurringAtomEdges(result atomizer.Result) []store.AtomEdge {
	type pairKey struct{ from, to string }
	weights := make(map[pairKey]float64)

	for _, m := range result.Molecules {
		ids := make([]string, 0, len(m.Tags))
		seen := make(map[string]bool, len(m.Tags))
		for _, tag := range m.Tags {
			id := atomizer.GenerateAtomID(tag)
			if seen[id] {
				continue
			}
			seen[id] = true
			ids = append(ids, id)
		}
		for i := range ids {
			for j := range ids {
				if i == j {
					continue
				}
				weights[pairKey{ids[i], ids[j]}]++
			}
		}
	}

	edges := make([]store.AtomEdge, 0, len(weights))
	for k, w := range weights {
		edges = append(edges, store.AtomEdge{
			FromID:   k.from,
			ToID:     k.to,
			Weight:   w,
			Relation: "co_occurs",
		})
	}
	return edges
}

// bucketsForWatchedPath derives the bucket list from a path relative to the
// watched root: the first path segment becomes the first bucket, or
// ["core"] when the path has no parent directory under the root.
func bucketsForWatchedPath(relPath string) []string {
	relPath = filepath.ToSlash(filepath.Clean(relPath))
	if relPath == "." || !strings.Contains(relPath, "/") {
		return []string{"core"}
	}
	first := strings.SplitN(relPath, "/", 2)[0]
	if first == "" || first == ".." {
		return []string{"core"}
	}
	return []string{first}
}

// isSnapshotFile matches backup filenames so the watcher can hard
// exclude them (§4.C).
func isSnapshotFile(name string) bool {
	return strings.HasPrefix(name, "cozo_memory_snapshot_") && strings.HasSuffix(name, ".yaml")
}

// isDotfile reports whether base is a dotfile/dotdir entry.
func isDotfile(name string) bool {
	return strings.HasPrefix(name, ".")
}
