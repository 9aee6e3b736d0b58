// Copyright 2026 KrakLabs
//
// SPDX-License-Identifier: AGPL-3.0-or-later

package atomizer

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestContentHashStable(t *testing.T) {
	require.Equal(t, ContentHash("hello"), ContentHash("hello"))
	require.NotEqual(t, ContentHash("hello"), ContentHash("world"))
}

func TestMolecularSignatureNearDuplicatesAreClose(t *testing.T) {
	a := MolecularSignature("the quick brown fox jumps over the lazy dog")
	b := MolecularSignature("the quick brown fox jumps over the lazy cat")
	c := MolecularSignature("completely unrelated text about quarterly revenue planning")

	distAB := HammingDistance64(a, b)
	distAC := HammingDistance64(a, c)
	require.Less(t, distAB, distAC)
}

func TestMolecularSignatureDeterministic(t *testing.T) {
	text := "deterministic signature check"
	require.Equal(t, MolecularSignature(text), MolecularSignature(text))
}
