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
	"context"
	"path/filepath"
	"strings"

	sitter "github.com/smacker/go-tree-sitter"
	"github.com/smacker/go-tree-sitter/golang"
	"github.com/smacker/go-tree-sitter/javascript"
	"github.com/smacker/go-tree-sitter/python"
	"github.com/smacker/go-tree-sitter/typescript/typescript"

	"github.com/kraklabs/ece/pkg/store"
)

// languageFor maps a source path's extension to a tree-sitter grammar, or
// nil when no grammar in the pack covers it — the caller then falls back
// to indentation-run splitting.
func languageFor(path string) *sitter.Language {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".go":
		return golang.GetLanguage()
	case ".js":
		return javascript.GetLanguage()
	case ".ts":
		return typescript.GetLanguage()
	case ".py":
		return python.GetLanguage()
	default:
		return nil
	}
}

// topLevelNodeTypes are the node kinds treated as logical block boundaries
// across the four supported grammars.
var topLevelNodeTypes = map[string]bool{
	"function_declaration":   true,
	"method_declaration":     true,
	"type_declaration":       true,
	"class_declaration":      true,
	"function_definition":    true,
	"class_definition":       true,
	"lexical_declaration":    true,
	"interface_declaration":  true,
	"export_statement":       true,
}

// splitCodeTreeSitter attempts to find logical block boundaries for text
// (a byte range already known to be type=code) using the grammar for path.
// Returns nil, false when no grammar matches or parsing fails, signaling
// the caller should fall back to splitCode's indentation-run heuristic.
func splitCodeTreeSitter(text string, offset int, path string) ([]span, bool) {
	lang := languageFor(path)
	if lang == nil {
		return nil, false
	}

	parser := sitter.NewParser()
	parser.SetLanguage(lang)

	tree, err := parser.ParseCtx(context.Background(), nil, []byte(text))
	if err != nil || tree == nil {
		return nil, false
	}
	defer tree.Close()

	root := tree.RootNode()
	if root == nil || root.ChildCount() == 0 {
		return nil, false
	}

	var bounds []int
	for i := 0; i < int(root.ChildCount()); i++ {
		child := root.Child(i)
		if child == nil {
			continue
		}
		if topLevelNodeTypes[child.Type()] {
			bounds = append(bounds, int(child.StartByte()))
		}
	}
	if len(bounds) == 0 {
		return nil, false
	}

	var out []span
	prev := 0
	for _, b := range bounds {
		if b > prev {
			out = append(out, span{start: offset + prev, end: offset + b, kind: store.MoleculeCode})
			prev = b
		}
	}
	if prev < len(text) {
		out = append(out, span{start: offset + prev, end: offset + len(text), kind: store.MoleculeCode})
	}
	return out, len(out) > 0
}
