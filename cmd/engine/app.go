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

package main

import (
	"fmt"
	"log/slog"
	"os"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/kraklabs/ece/internal/config"
	"github.com/kraklabs/ece/internal/errors"
	"github.com/kraklabs/ece/internal/metrics"
	"github.com/kraklabs/ece/pkg/ingest"
	"github.com/kraklabs/ece/pkg/llm"
	"github.com/kraklabs/ece/pkg/store"
)

// resolvedConfigPath returns explicit, then config.DefaultConfigPath.
func resolvedConfigPath(explicit string) string {
	if explicit != "" {
		return explicit
	}
	return config.DefaultConfigPath
}

// loadConfigOrFatal loads the project config, exiting via errors.FatalError
// on a parse failure. A missing file silently yields defaults.
func loadConfigOrFatal(configPath string, globals GlobalFlags) config.Config {
	cfg, err := config.Load(resolvedConfigPath(configPath))
	if err != nil {
		errors.FatalError(err, globals.JSON)
	}
	return cfg
}

// newLogger builds the engine's slog logger, text-handled to stdout unless
// --json is set, in which case logs still go to stderr so they never
// corrupt a piped JSON result on stdout.
func newLogger(globals GlobalFlags) *slog.Logger {
	level := slog.LevelInfo
	if globals.Verbose > 0 {
		level = slog.LevelDebug
	}
	w := os.Stdout
	if globals.JSON {
		return slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level}))
	}
	if globals.Quiet {
		level = slog.LevelWarn
	}
	return slog.New(slog.NewTextHandler(w, &slog.HandlerOptions{Level: level}))
}

// openStore opens the store at cfg.DBPath, registering a fresh Prometheus
// registry so repeated CLI invocations within a process (tests) never
// collide on the global DefaultRegisterer.
func openStore(cfg config.Config) (*store.Store, *metrics.Registry, error) {
	st, err := store.Open(store.Config{DataDir: cfg.DBPath, Engine: cfg.Engine})
	if err != nil {
		return nil, nil, err
	}
	reg := metrics.New(prometheus.NewRegistry())
	return st, reg, nil
}

// newIngestor builds an Ingestor wired against cfg's watched directory and
// file-size cap.
func newIngestor(st *store.Store, cfg config.Config, logger *slog.Logger, reg *metrics.Registry) *ingest.Ingestor {
	return ingest.New(st, ingest.Config{
		WatchedDir:   cfg.WatchedDir,
		MaxFileBytes: cfg.MaxFileBytes,
	}, logger, reg)
}

// newProvider constructs the configured llm.Provider, reading API keys and
// endpoints from the environment via llm.NewProvider.
func newProvider(cfg config.Config) (llm.Provider, error) {
	return llm.NewProvider(llm.ProviderConfig{Type: cfg.Provider})
}

// die prints a one-line fatal message and exits with status 1; used for
// argument errors that don't warrant the full EngineError ceremony.
func die(format string, args ...any) {
	fmt.Fprintf(os.Stderr, "Error: "+format+"\n", args...)
	os.Exit(1)
}
