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

// Package snapshot is the file-format layer over the Store's snapshot
// dump/load primitives: human-readable timestamped documents under
// backups/, and the boot-time auto-hydration policy.
package snapshot

import (
	"log/slog"
	"os"
	"path/filepath"
	"sort"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/kraklabs/ece/internal/errors"
	"github.com/kraklabs/ece/pkg/atomizer"
	"github.com/kraklabs/ece/pkg/store"
)

// fileNamePrefix/fileNameSuffix match the Ingestor watcher's hard
// exclusion pattern for snapshot files.
const (
	fileNamePrefix = "cozo_memory_snapshot_"
	fileNameSuffix = ".yaml"
)

// document is the on-disk YAML shape: an ordered record sequence plus a
// small header for human inspection.
type document struct {
	EjectedAt time.Time              `yaml:"ejected_at"`
	Records   []store.SnapshotRecord `yaml:"records"`
}

// ProgressFunc is called after each record during hydration so a caller
// (typically the CLI) can drive a progress bar.
type ProgressFunc func(done, total int)

// Eject dumps every Compound into a timestamped YAML document under
// backupsDir and returns the path written.
func Eject(st *store.Store, backupsDir string) (string, error) {
	records, err := st.SnapshotDump()
	if err != nil {
		return "", err
	}

	if err := os.MkdirAll(backupsDir, 0o755); err != nil {
		return "", errors.NewStoreError("cannot create backups directory", err.Error(), err)
	}

	now := time.Now().UTC()
	name := fileNamePrefix + now.Format("20060102T150405Z") + fileNameSuffix
	path := filepath.Join(backupsDir, name)

	doc := document{EjectedAt: now, Records: records}
	data, err := yaml.Marshal(doc)
	if err != nil {
		return "", errors.NewStoreError("cannot marshal snapshot", err.Error(), err)
	}

	if err := os.WriteFile(path, data, 0o644); err != nil {
		return "", errors.NewStoreError("cannot write snapshot file", err.Error(), err)
	}
	return path, nil
}

// HydrateOnBoot implements the boot-time auto-hydration policy: if st is
// non-empty, hydration is skipped; otherwise the newest backup file by
// modification time (if any) is loaded, record by record, with per-record
// failures logged and skipped rather than aborting the whole hydrate.
func HydrateOnBoot(st *store.Store, backupsDir string, logger *slog.Logger, progress ProgressFunc) (hydrated int, err error) {
	if logger == nil {
		logger = slog.Default()
	}

	empty, err := st.IsEmpty()
	if err != nil {
		return 0, err
	}
	if !empty {
		logger.Debug("snapshot.hydrate.skip_non_empty")
		return 0, nil
	}

	path, err := newestBackup(backupsDir)
	if err != nil {
		return 0, err
	}
	if path == "" {
		logger.Debug("snapshot.hydrate.no_backups_found", "dir", backupsDir)
		return 0, nil
	}

	return HydrateFile(st, path, logger, progress)
}

// HydrateFile loads and replays one snapshot document against st,
// bypassing dedup (records already carry their original id/hash/timestamp)
// and re-deriving Molecules/Atoms via the Atomizer for each record.
func HydrateFile(st *store.Store, path string, logger *slog.Logger, progress ProgressFunc) (hydrated int, err error) {
	if logger == nil {
		logger = slog.Default()
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return 0, errors.NewStoreError("cannot read snapshot file", err.Error(), err)
	}

	var doc document
	if err := yaml.Unmarshal(data, &doc); err != nil {
		return 0, errors.NewStoreError("cannot parse snapshot file", err.Error(), err)
	}

	total := len(doc.Records)
	for i, rec := range doc.Records {
		if err := hydrateRecord(st, rec); err != nil {
			logger.Warn("snapshot.hydrate.record_failed", "id", rec.ID, "path", rec.Path, "err", err)
		} else {
			hydrated++
		}
		if progress != nil {
			progress(i+1, total)
		}
	}

	logger.Info("snapshot.hydrate.complete", "file", path, "records", total, "hydrated", hydrated)
	return hydrated, nil
}

// hydrateRecord re-derives Molecules and Atoms from one record's
// compound_body via the Atomizer and persists the whole set
// transactionally, trusting the record's original id/hash/timestamp over
// whatever the Atomizer would recompute (dedup is bypassed entirely).
func hydrateRecord(st *store.Store, rec store.SnapshotRecord) error {
	result := atomizer.New().Atomize(rec.CompoundBody, rec.Path, rec.Provenance, "", rec.Buckets, rec.Timestamp)

	compound := result.Compound
	compound.ID = rec.ID
	compound.Hash = rec.Hash
	compound.MolecularSignature = rec.MolecularSignature
	for i := range result.Molecules {
		result.Molecules[i].CompoundID = rec.ID
		result.Molecules[i].ID = atomizer.GenerateMoleculeID(rec.ID, result.Molecules[i].Sequence)
	}

	err := st.Transaction(func(b *store.Batch) error {
		b.PutCompound(compound)
		for _, m := range result.Molecules {
			b.PutMolecule(m)
		}
		for _, a := range result.Atoms {
			b.PutAtom(a)
		}
		return nil
	})
	if err != nil {
		return err
	}

	for _, m := range result.Molecules {
		for _, tag := range m.Tags {
			if err := st.AppendEngram(atomizer.EngramDigest(store.SanitizeFTSQuery(tag)), m.ID); err != nil {
				return err
			}
		}
	}
	return nil
}

// newestBackup returns the path of the snapshot file in dir with the
// most recent modification time, or "" if dir has no snapshot files.
func newestBackup(dir string) (string, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		if os.IsNotExist(err) {
			return "", nil
		}
		return "", errors.NewStoreError("cannot read backups directory", err.Error(), err)
	}

	type candidate struct {
		path    string
		modTime time.Time
	}
	var candidates []candidate
	for _, e := range entries {
		if e.IsDir() || !isSnapshotName(e.Name()) {
			continue
		}
		info, err := e.Info()
		if err != nil {
			continue
		}
		candidates = append(candidates, candidate{path: filepath.Join(dir, e.Name()), modTime: info.ModTime()})
	}
	if len(candidates) == 0 {
		return "", nil
	}
	sort.Slice(candidates, func(i, j int) bool { return candidates[i].modTime.After(candidates[j].modTime) })
	return candidates[0].path, nil
}

func isSnapshotName(name string) bool {
	return len(name) > len(fileNamePrefix)+len(fileNameSuffix) &&
		name[:len(fileNamePrefix)] == fileNamePrefix &&
		name[len(name)-len(fileNameSuffix):] == fileNameSuffix
}
