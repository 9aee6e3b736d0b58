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
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	flag "github.com/spf13/pflag"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/kraklabs/ece/internal/errors"
	"github.com/kraklabs/ece/internal/ui"
	"github.com/kraklabs/ece/pkg/ingest"
	"github.com/kraklabs/ece/pkg/snapshot"
)

// runWatch hydrates the store from the newest backup if it's empty, then
// watches the configured directory until SIGINT/SIGTERM.
func runWatch(args []string, configPath string, globals GlobalFlags) {
	fset := flag.NewFlagSet("watch", flag.ExitOnError)
	metricsAddr := fset.String("metrics-addr", "", "HTTP listen address for Prometheus metrics (empty to disable)")
	noHydrate := fset.Bool("no-hydrate", false, "Skip boot-time snapshot hydration")

	fset.Usage = func() {
		fmt.Fprintf(os.Stderr, `Usage: engine watch [options]

Watches the configured directory and ingests files as they settle.

Options:
`)
		fset.PrintDefaults()
	}
	if err := fset.Parse(args); err != nil {
		os.Exit(1)
	}

	cfg := loadConfigOrFatal(configPath, globals)
	logger := newLogger(globals)

	st, reg, err := openStore(cfg)
	if err != nil {
		errors.FatalError(err, globals.JSON)
	}
	defer func() { _ = st.Close() }()

	if !*noHydrate {
		hydrated, err := snapshot.HydrateOnBoot(st, cfg.BackupsDir, logger, nil)
		if err != nil {
			logger.Warn("watch.hydrate_failed", "err", err)
		} else if hydrated > 0 {
			ui.Successf("Hydrated %d records from the newest snapshot", hydrated)
		}
	}

	ig := newIngestor(st, cfg, logger, reg)
	w, err := ingest.NewWatcher(ig)
	if err != nil {
		errors.FatalError(errors.NewStoreError("Cannot start file watcher", err.Error(), err), globals.JSON)
	}

	ctx, cancel := context.WithCancel(context.Background())
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, os.Interrupt, syscall.SIGTERM)
	go func() {
		<-sigCh
		logger.Info("watch.shutdown_signal")
		cancel()
	}()

	if *metricsAddr != "" {
		go func() {
			mux := http.NewServeMux()
			mux.Handle("/metrics", promhttp.Handler())
			srv := &http.Server{Addr: *metricsAddr, Handler: mux}
			logger.Info("metrics.http.start", "addr", *metricsAddr)
			if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
				logger.Warn("metrics.http.error", "err", err)
			}
		}()
	}

	if err := w.Start(ctx); err != nil {
		errors.FatalError(errors.NewStoreError("Cannot watch directory", err.Error(), err), globals.JSON)
	}
	ui.Infof("Watching %s (ctrl-c to stop)", cfg.WatchedDir)

	<-ctx.Done()
	w.Stop()
	ui.Info("Watcher stopped")
}
