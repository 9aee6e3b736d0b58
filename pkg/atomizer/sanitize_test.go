// Copyright 2026 KrakLabs
//
// SPDX-License-Identifier: AGPL-3.0-or-later

package atomizer

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestStripLogPrefix(t *testing.T) {
	in := "2026-07-31 10:15:00 [INFO] server started successfully"
	require.Equal(t, "server started successfully", Sanitize(in))
}

func TestUnwrapJSONEnvelope(t *testing.T) {
	in := `{"message": "the actual payload text"}`
	require.Equal(t, "the actual payload text", Sanitize(in))
}

func TestUnwrapJSONEnvelopeIgnoresMultiField(t *testing.T) {
	in := `{"message": "text", "level": "info"}`
	require.Equal(t, in, Sanitize(in))
}

func TestStripTrailingBlankRun(t *testing.T) {
	in := "hello world\n\n\n\n\n"
	require.Equal(t, "hello world\n", Sanitize(in))
}

func TestSanitizeLeavesPlainTextUntouched(t *testing.T) {
	in := "just a normal sentence with no wrappers."
	require.Equal(t, in, Sanitize(in))
}
