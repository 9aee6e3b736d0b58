// Copyright 2025 KrakLabs
// SPDX-License-Identifier: AGPL-3.0-or-later

package contract

import (
	"os"
	"strconv"
	"unicode/utf8"
)

const (
	// DefaultSoftLimitBytes is the baseline soft limit for batch operations.
	DefaultSoftLimitBytes = 64 << 20 // 64 MiB

	// RequestIDMaxBytes is the maximum length for request_id field.
	RequestIDMaxBytes = 128
)

// SoftLimitBytes returns the effective soft limit for batch_script size.
// Controlled via env CIE_SOFT_LIMIT_BYTES; falls back to DefaultSoftLimitBytes.
func SoftLimitBytes() int {
	if v := os.Getenv("CIE_SOFT_LIMIT_BYTES"); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n > 0 {
			return n
		}
	}
	return DefaultSoftLimitBytes
}

// ValidationResult represents the result of a validation check.
type ValidationResult struct {
	OK      bool
	Message string
}

// ValidateBatchScript performs basic validation on a batch script.
// For standalone CIE, this just checks size limits.
func ValidateBatchScript(script string) *ValidationResult {
	if len(script) > SoftLimitBytes() {
		return &ValidationResult{
			OK:      false,
			Message: "batch_script exceeds soft limit",
		}
	}
	return &ValidationResult{OK: true}
}

// ValidateNonEmptyUTF8 enforces the ingress rule shared by ingest() and
// search(): string inputs must be non-empty, valid UTF-8.
func ValidateNonEmptyUTF8(field, value string) *ValidationResult {
	if value == "" {
		return &ValidationResult{OK: false, Message: field + " must not be empty"}
	}
	if !utf8.ValidString(value) {
		return &ValidationResult{OK: false, Message: field + " must be valid UTF-8"}
	}
	return &ValidationResult{OK: true}
}

// ValidateBuckets rejects a bucket list that contains an empty label.
// A nil/empty slice is valid input — callers default it to ["core"].
func ValidateBuckets(buckets []string) *ValidationResult {
	for _, b := range buckets {
		if b == "" {
			return &ValidationResult{OK: false, Message: "buckets must not contain empty labels"}
		}
	}
	return &ValidationResult{OK: true}
}

// ValidateMaxChars enforces search()'s max_chars ≥ min_window_cap rule.
func ValidateMaxChars(maxChars, minWindowCap int) *ValidationResult {
	if maxChars < minWindowCap {
		return &ValidationResult{OK: false, Message: "max_chars is below the minimum window size"}
	}
	return &ValidationResult{OK: true}
}

// Provenance query modes accepted by search().
const (
	ProvenanceSovereign = "sovereign"
	ProvenanceExternal  = "external"
	ProvenanceAll       = "all"
)

// ValidateProvenanceMode enforces search()'s provenance enum.
func ValidateProvenanceMode(mode string) *ValidationResult {
	switch mode {
	case "", ProvenanceSovereign, ProvenanceExternal, ProvenanceAll:
		return &ValidationResult{OK: true}
	default:
		return &ValidationResult{OK: false, Message: "provenance must be one of sovereign, external, all"}
	}
}
