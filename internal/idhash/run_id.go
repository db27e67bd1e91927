// Package idhash computes deterministic identifiers.
// Same inputs always produce the same ID, which keeps persisted
// results idempotent across repeated executions.
package idhash

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"
)

// ComputeRunID computes a deterministic run_id using SHA256.
// Formula: SHA256(series_name|strategy_name|starting_side|start_index|end_index)
// Returns hex-encoded hash (64 characters).
func ComputeRunID(
	seriesName string,
	strategyName string,
	startingSide string,
	startIndex int,
	endIndex int,
) string {
	data := fmt.Sprintf("%s|%s|%s|%d|%d",
		seriesName,
		strategyName,
		startingSide,
		startIndex,
		endIndex,
	)

	hash := sha256.Sum256([]byte(data))
	return hex.EncodeToString(hash[:])
}
