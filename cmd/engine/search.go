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
	"os"
	"strings"

	flag "github.com/spf13/pflag"

	"github.com/kraklabs/ece/internal/contract"
	"github.com/kraklabs/ece/internal/errors"
	"github.com/kraklabs/ece/internal/output"
	"github.com/kraklabs/ece/internal/ui"
	"github.com/kraklabs/ece/pkg/inflator"
	"github.com/kraklabs/ece/pkg/search"
)

// searchResult mirrors the external interface's `{context, results,
// metadata}` contract.
type searchResult struct {
	Context  string         `json:"context"`
	Results  []searchWindow `json:"results"`
	Metadata searchMetadata `json:"metadata"`
}

type searchWindow struct {
	Source     string  `json:"source"`
	Timestamp  int64   `json:"timestamp"`
	Provenance string  `json:"provenance"`
	Content    string  `json:"content"`
	Score      float64 `json:"score"`
	IsInflated bool    `json:"is_inflated"`
}

type searchMetadata struct {
	HitCount    int `json:"hit_count"`
	WindowCount int `json:"window_count"`
}

func runSearch(args []string, configPath string, globals GlobalFlags) {
	fset := flag.NewFlagSet("search", flag.ExitOnError)
	bucketsFlag := fset.String("buckets", "", "Comma-separated bucket filter")
	scopeTagsFlag := fset.String("scope-tags", "", "Comma-separated scope tag filter")
	maxChars := fset.Int("max-chars", 2500, "Total character budget for inflated windows")
	provenance := fset.String("provenance", "all", "Ranking mode: sovereign, external, all")

	fset.Usage = func() {
		fmt.Fprintf(os.Stderr, `Usage: engine search <query> [options]

Runs the hybrid Tag-Walker search and prints budget-aware context windows.

Options:
`)
		fset.PrintDefaults()
	}
	if err := fset.Parse(args); err != nil {
		os.Exit(1)
	}

	rest := fset.Args()
	if len(rest) == 0 {
		die("search requires a query argument")
	}
	query := strings.Join(rest, " ")

	if v := contract.ValidateNonEmptyUTF8("query", query); !v.OK {
		errors.FatalError(errors.NewInputError("Invalid query", v.Message, "Pass a non-empty, valid UTF-8 search query"), globals.JSON)
	}
	buckets := splitCSV(*bucketsFlag)
	if v := contract.ValidateBuckets(buckets); !v.OK {
		errors.FatalError(errors.NewInputError("Invalid --buckets", v.Message, "Remove any empty entries from the comma-separated list"), globals.JSON)
	}
	if v := contract.ValidateProvenanceMode(*provenance); !v.OK {
		errors.FatalError(errors.NewInputError("Invalid --provenance", v.Message, "Use one of: sovereign, external, all"), globals.JSON)
	}

	cfg := loadConfigOrFatal(configPath, globals)
	logger := newLogger(globals)

	if v := contract.ValidateMaxChars(*maxChars, cfg.MinWindowCap); !v.OK {
		errors.FatalError(errors.NewInputError("Invalid --max-chars", v.Message, fmt.Sprintf("Pass a value >= %d", cfg.MinWindowCap)), globals.JSON)
	}

	st, reg, err := openStore(cfg)
	if err != nil {
		errors.FatalError(err, globals.JSON)
	}
	defer func() { _ = st.Close() }()

	searcher := search.New(st, logger, reg)
	hits, err := searcher.Search(search.Params{
		Query:      query,
		Buckets:    buckets,
		ScopeTags:  splitCSV(*scopeTagsFlag),
		MaxChars:   *maxChars,
		Provenance: search.Mode(*provenance),
	})
	if err != nil {
		errors.FatalError(err, globals.JSON)
	}

	windows, err := inflator.Inflate(st, hits, *maxChars)
	if err != nil {
		errors.FatalError(err, globals.JSON)
	}

	result := searchResult{
		Metadata: searchMetadata{HitCount: len(hits), WindowCount: len(windows)},
	}
	var ctx strings.Builder
	for _, w := range windows {
		fmt.Fprintf(&ctx, "%s\n%s\n\n", w.Header(), w.Content)
		result.Results = append(result.Results, searchWindow{
			Source:     w.Source,
			Timestamp:  w.Timestamp,
			Provenance: string(w.Provenance),
			Content:    w.Content,
			Score:      w.Score,
			IsInflated: w.IsInflated,
		})
	}
	result.Context = ctx.String()

	if globals.JSON {
		_ = output.JSON(result)
		return
	}

	if len(windows) == 0 {
		ui.Warning("No results.")
		return
	}
	for _, w := range windows {
		ui.SubHeader(w.Header())
		fmt.Println(w.Content)
		fmt.Println()
	}
	ui.Infof("%d hits, %d windows", len(hits), len(windows))
}

func splitCSV(s string) []string {
	if s == "" {
		return nil
	}
	parts := strings.Split(s, ",")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	return out
}
