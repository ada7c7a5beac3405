// Package idhash computes deterministic identifiers for trades and feature
// specifications. Identical inputs always hash to identical IDs, which is
// what makes dataset caching and sweep result keys stable across runs.
package idhash

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"
)

// ComputeTradeID computes a deterministic trade_id using SHA256.
// Formula: SHA256(symbol|strategy_id|spec_id|entry_time)
// Returns hex-encoded hash (64 characters).
func ComputeTradeID(symbol, strategyID, specID string, entryTime int64) string {
	data := fmt.Sprintf("%s|%s|%s|%d", symbol, strategyID, specID, entryTime)
	hash := sha256.Sum256([]byte(data))
	return hex.EncodeToString(hash[:])
}
