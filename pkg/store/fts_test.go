// Copyright 2026 KrakLabs
//
// SPDX-License-Identifier: AGPL-3.0-or-later

package store

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestSanitizeFTSQuery(t *testing.T) {
	require.Equal(t, "hello world", SanitizeFTSQuery("Hello, World!!!"))
	require.Equal(t, "a b", SanitizeFTSQuery("  a   b  "))
	require.Equal(t, "", SanitizeFTSQuery("!!!"))
	require.Equal(t, "ece core", SanitizeFTSQuery("#ece:core"))
}
