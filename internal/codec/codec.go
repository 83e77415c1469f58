// Package codec serializes entity collections to and from the durable
// text encoding held by the key-value store. A blob that exists but
// cannot be decoded is reported as a corrupt record, never as an empty
// collection.
package codec

import (
	"encoding/json"
	"fmt"

	"github.com/esb/quicklist/internal/models"
)

// Encode renders a collection as a JSON blob.
func Encode[T any](value T) (string, error) {
	blob, err := json.Marshal(value)
	if err != nil {
		return "", fmt.Errorf("encoding record: %w", err)
	}
	return string(blob), nil
}

// Decode parses a JSON blob into a collection. Decode failures wrap
// models.ErrCorruptRecord so callers can distinguish a damaged store
// from an absent one.
func Decode[T any](blob string, into *T) error {
	if err := json.Unmarshal([]byte(blob), into); err != nil {
		return fmt.Errorf("%w: %v", models.ErrCorruptRecord, err)
	}
	return nil
}
