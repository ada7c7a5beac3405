package idhash

import (
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"
)

// ComputeSpecID computes a deterministic identity hash for any
// JSON-serializable configuration value. Map keys are sorted by the JSON
// encoder, so two structurally equal values always produce the same ID
// regardless of construction order. Slice order is preserved: a feature list
// in a different order is a different spec, because feature order affects
// the produced columns.
//
// Returns the first 16 hex characters, which is plenty for sweep result keys
// while keeping storage paths readable.
func ComputeSpecID(v any) (string, error) {
	data, err := canonicalJSON(v)
	if err != nil {
		return "", fmt.Errorf("serialize spec: %w", err)
	}
	hash := sha256.Sum256(data)
	return hex.EncodeToString(hash[:])[:16], nil
}

// canonicalJSON round-trips v through an untyped value so struct field order
// no longer matters; encoding/json writes map keys sorted.
func canonicalJSON(v any) ([]byte, error) {
	raw, err := json.Marshal(v)
	if err != nil {
		return nil, err
	}
	var untyped any
	if err := json.Unmarshal(raw, &untyped); err != nil {
		return nil, err
	}
	return json.Marshal(untyped)
}
