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

	flag "github.com/spf13/pflag"

	"github.com/kraklabs/ece/internal/errors"
)

const bashCompletionTemplate = `#!/bin/bash

# Bash completion script for engine
# Installation:
#   source <(engine completion bash)

_engine_completion() {
    local cur prev commands
    commands="init index watch search status dream backup restore chat reset install-hook completion"

    cur="${COMP_WORDS[COMP_CWORD]}"
    prev="${COMP_WORDS[COMP_CWORD-1]}"

    if [[ ${cur} == -* ]] ; then
        COMPREPLY=( $(compgen -W "--version --json --quiet --no-color --config" -- ${cur}) )
        return 0
    fi

    if [ $COMP_CWORD -eq 1 ]; then
        COMPREPLY=( $(compgen -W "${commands}" -- ${cur}) )
        return 0
    fi

    local cmd="${COMP_WORDS[1]}"
    case "${cmd}" in
        search)
            if [[ ${cur} == -* ]] ; then
                COMPREPLY=( $(compgen -W "--buckets --scope-tags --max-chars --provenance" -- ${cur}) )
            fi
            ;;
        reset)
            if [[ ${cur} == -* ]] ; then
                COMPREPLY=( $(compgen -W "--yes --keep-backups" -- ${cur}) )
            fi
            ;;
        install-hook)
            if [[ ${cur} == -* ]] ; then
                COMPREPLY=( $(compgen -W "--force --remove" -- ${cur}) )
            fi
            ;;
        completion)
            if [ $COMP_CWORD -eq 2 ]; then
                COMPREPLY=( $(compgen -W "bash zsh fish" -- ${cur}) )
            fi
            ;;
    esac
}

complete -F _engine_completion engine
`

const zshCompletionTemplate = `#compdef engine

# Zsh completion script for engine
_engine() {
    local -a commands
    commands=(
        'init:Create .engine/project.yaml configuration'
        'index:Backfill-ingest the watched directory'
        'watch:Watch the directory and ingest on change'
        'search:Run a Tag-Walker search'
        'status:Show store counts'
        'dream:Re-tag core-bucket memories by path'
        'backup:Eject a snapshot document'
        'restore:Hydrate the store from a snapshot file'
        'chat:Weave session state and call the generator'
        'reset:Delete local store and backup data'
        'install-hook:Install git post-commit hook'
        'completion:Generate shell completion script'
    )

    _arguments -C \
        '(- *)--version[Show version and exit]' \
        '--json[Output JSON]' \
        '--quiet[Suppress progress output]' \
        '--no-color[Disable colored output]' \
        '--config[Path to .engine/project.yaml]:config file:_files -g "*.yaml"' \
        '1: :->command' \
        '*:: :->args'

    case $state in
        command)
            _describe 'command' commands
            ;;
        args)
            case $words[1] in
                search)
                    _arguments \
                        '--buckets[Comma-separated bucket filter]:buckets:' \
                        '--scope-tags[Comma-separated scope tag filter]:tags:' \
                        '--max-chars[Character budget]:chars:' \
                        '--provenance[Ranking mode]:mode:(sovereign external all)'
                    ;;
                reset)
                    _arguments \
                        '--yes[Confirm the reset]' \
                        '--keep-backups[Leave backups_dir intact]'
                    ;;
                install-hook)
                    _arguments \
                        '--force[Overwrite existing hook]' \
                        '--remove[Remove the hook]'
                    ;;
                completion)
                    _arguments \
                        '1:shell:(bash zsh fish)'
                    ;;
            esac
            ;;
    esac
}

_engine
`

const fishCompletionTemplate = `# Fish completion script for engine
# Installation:
#   engine completion fish | source

complete -c engine -f -n "__fish_use_subcommand" -a "init" -d "Create .engine/project.yaml configuration"
complete -c engine -f -n "__fish_use_subcommand" -a "index" -d "Backfill-ingest the watched directory"
complete -c engine -f -n "__fish_use_subcommand" -a "watch" -d "Watch the directory and ingest on change"
complete -c engine -f -n "__fish_use_subcommand" -a "search" -d "Run a Tag-Walker search"
complete -c engine -f -n "__fish_use_subcommand" -a "status" -d "Show store counts"
complete -c engine -f -n "__fish_use_subcommand" -a "dream" -d "Re-tag core-bucket memories by path"
complete -c engine -f -n "__fish_use_subcommand" -a "backup" -d "Eject a snapshot document"
complete -c engine -f -n "__fish_use_subcommand" -a "restore" -d "Hydrate the store from a snapshot file"
complete -c engine -f -n "__fish_use_subcommand" -a "chat" -d "Weave session state and call the generator"
complete -c engine -f -n "__fish_use_subcommand" -a "reset" -d "Delete local store and backup data (destructive!)"
complete -c engine -f -n "__fish_use_subcommand" -a "install-hook" -d "Install git post-commit hook"
complete -c engine -f -n "__fish_use_subcommand" -a "completion" -d "Generate shell completion script"

complete -c engine -l version -d "Show version and exit"
complete -c engine -l json -d "Output JSON"
complete -c engine -l quiet -d "Suppress progress output"
complete -c engine -l config -d "Path to .engine/project.yaml" -r

complete -c engine -n "__fish_seen_subcommand_from search" -l buckets -d "Comma-separated bucket filter" -r
complete -c engine -n "__fish_seen_subcommand_from search" -l scope-tags -d "Comma-separated scope tag filter" -r
complete -c engine -n "__fish_seen_subcommand_from search" -l max-chars -d "Character budget" -r
complete -c engine -n "__fish_seen_subcommand_from search" -l provenance -d "Ranking mode" -r

complete -c engine -n "__fish_seen_subcommand_from reset" -l yes -d "Confirm the reset"
complete -c engine -n "__fish_seen_subcommand_from reset" -l keep-backups -d "Leave backups_dir intact"

complete -c engine -n "__fish_seen_subcommand_from install-hook" -l force -d "Overwrite existing hook"
complete -c engine -n "__fish_seen_subcommand_from install-hook" -l remove -d "Remove the hook"

complete -c engine -n "__fish_seen_subcommand_from completion" -f -a "bash" -d "Generate bash completion script"
complete -c engine -n "__fish_seen_subcommand_from completion" -f -a "zsh" -d "Generate zsh completion script"
complete -c engine -n "__fish_seen_subcommand_from completion" -f -a "fish" -d "Generate fish completion script"
`

// runCompletion prints the requested shell's completion script to stdout.
func runCompletion(args []string) {
	fset := flag.NewFlagSet("completion", flag.ExitOnError)
	fset.Usage = func() {
		fmt.Fprintf(os.Stderr, `Usage: engine completion <shell>

Generates a shell completion script for bash, zsh, or fish.

Examples:
  source <(engine completion bash)
  engine completion zsh > "${fpath[1]}/_engine"
  engine completion fish | source
`)
	}
	if err := fset.Parse(args); err != nil {
		os.Exit(1)
	}

	if fset.NArg() != 1 {
		errors.FatalError(errors.NewInputError(
			"Invalid arguments",
			"The completion command requires exactly one argument: the shell name",
			"Run 'engine completion bash', 'engine completion zsh', or 'engine completion fish'",
		), false)
	}

	switch shell := fset.Arg(0); shell {
	case "bash":
		fmt.Print(bashCompletionTemplate)
	case "zsh":
		fmt.Print(zshCompletionTemplate)
	case "fish":
		fmt.Print(fishCompletionTemplate)
	default:
		errors.FatalError(errors.NewInputError(
			"Unsupported shell",
			fmt.Sprintf("Shell '%s' is not supported. Valid options: bash, zsh, fish", shell),
			"Run 'engine completion bash', 'engine completion zsh', or 'engine completion fish'",
		), false)
	}
}
