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
	"os"
	"strings"
	"time"

	"github.com/google/uuid"
	flag "github.com/spf13/pflag"

	"github.com/kraklabs/ece/internal/contract"
	"github.com/kraklabs/ece/internal/errors"
	"github.com/kraklabs/ece/internal/output"
	"github.com/kraklabs/ece/internal/ui"
	"github.com/kraklabs/ece/pkg/llm"
	"github.com/kraklabs/ece/pkg/scribe"
)

type chatResult struct {
	Reply string `json:"reply"`
}

type stateResult struct {
	State string `json:"state"`
}

// runChat weaves the rolling session-state summary in front of the user's
// message (Context Weaving), sends the woven message through the
// configured generator, then folds the exchange back into the summary.
func runChat(args []string, configPath string, globals GlobalFlags) {
	fset := flag.NewFlagSet("chat", flag.ExitOnError)
	clearState := fset.Bool("clear", false, "Clear the rolling session state and exit")
	showState := fset.Bool("show", false, "Print the current rolling session state and exit")
	timeout := fset.Duration("timeout", 60*time.Second, "Generator call timeout")

	fset.Usage = func() {
		fmt.Fprintf(os.Stderr, `Usage: engine chat <message> [options]
       engine chat --clear
       engine chat --show

Weaves the rolling session-state summary into <message>, calls the
configured generator, then compresses the exchange into the next summary.

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

	provider, err := newProvider(cfg)
	if err != nil {
		errors.FatalError(errors.NewGeneratorError("Cannot construct generator provider", err.Error(), err), globals.JSON)
	}
	sc := scribe.New(st, provider, logger, reg)

	if *showState {
		state, err := sc.GetState()
		if err != nil {
			errors.FatalError(err, globals.JSON)
		}
		if globals.JSON {
			_ = output.JSON(stateResult{State: state})
			return
		}
		if state == "" {
			ui.Warning("No session state recorded yet.")
			return
		}
		fmt.Println(state)
		return
	}

	if *clearState {
		if err := sc.ClearState(); err != nil {
			errors.FatalError(err, globals.JSON)
		}
		ui.Success("Session state cleared")
		return
	}

	rest := fset.Args()
	if len(rest) == 0 {
		die("chat requires a message argument")
	}
	message := strings.Join(rest, " ")
	if v := contract.ValidateNonEmptyUTF8("message", message); !v.OK {
		errors.FatalError(errors.NewInputError("Invalid message", v.Message, "Pass a non-empty, valid UTF-8 message"), globals.JSON)
	}

	turnID := uuid.NewString()
	ctx, cancel := context.WithTimeout(context.Background(), *timeout)
	defer cancel()

	woven, err := sc.Weave(message)
	if err != nil {
		errors.FatalError(err, globals.JSON)
	}

	logger.Debug("chat.turn.start", "turn_id", turnID)
	resp, err := provider.Chat(ctx, llm.ChatRequest{
		Messages: []llm.Message{{Role: "user", Content: woven}},
	})
	if err != nil {
		errors.FatalError(errors.NewGeneratorError("chat generation failed", err.Error(), err), globals.JSON)
	}

	if err := sc.UpdateState(ctx, []scribe.Turn{
		{Role: "user", Content: message},
		{Role: "assistant", Content: resp.Message.Content},
	}); err != nil {
		logger.Warn("chat.update_state_failed", "turn_id", turnID, "err", err)
	}

	if globals.JSON {
		_ = output.JSON(chatResult{Reply: resp.Message.Content})
		return
	}
	fmt.Println(resp.Message.Content)
}
