// Package snapshot holds the payload codec shared by the durable gateways.
package snapshot

import (
	"bytes"
	"encoding/json"
	"fmt"

	"exhibitcore/pkg/domain"
)

// Bucket is the state row or key under which the collection is stored.
const Bucket = "exhibits"

// Encode renders the collection as a JSON array; nil encodes as [].
func Encode(exhibits []domain.Exhibit) ([]byte, error) {
	if exhibits == nil {
		exhibits = []domain.Exhibit{}
	}
	return json.Marshal(exhibits)
}

// Decode parses a stored payload. An empty payload yields an empty collection.
func Decode(payload []byte) ([]domain.Exhibit, error) {
	if len(bytes.TrimSpace(payload)) == 0 {
		return []domain.Exhibit{}, nil
	}
	var exhibits []domain.Exhibit
	if err := json.Unmarshal(payload, &exhibits); err != nil {
		return nil, fmt.Errorf("decode %s payload: %w", Bucket, err)
	}
	if exhibits == nil {
		exhibits = []domain.Exhibit{}
	}
	return exhibits, nil
}
