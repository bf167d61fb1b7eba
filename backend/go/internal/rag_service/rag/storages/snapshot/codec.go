package snapshot

import (
	"encoding/json"
	"errors"
	"fmt"

	"docsearch/backend/go/internal/rag_service/rag/schema"
)

// ErrCorrupt wraps any failure to decode a persisted snapshot.
var ErrCorrupt = errors.New("snapshot: corrupt payload")

// Encode serializes snap to the on-disk JSON layout.
func Encode(snap *schema.Snapshot) ([]byte, error) {
	if snap == nil {
		snap = schema.NewSnapshot()
	}
	data, err := json.MarshalIndent(snap, "", "  ")
	if err != nil {
		return nil, fmt.Errorf("snapshot: encode: %w", err)
	}
	return data, nil
}

// Decode parses data into a snapshot. Maps in the result are never nil.
func Decode(data []byte) (*schema.Snapshot, error) {
	snap := schema.NewSnapshot()
	if err := json.Unmarshal(data, snap); err != nil {
		return schema.NewSnapshot(), fmt.Errorf("%w: %v", ErrCorrupt, err)
	}
	if snap.Documents == nil {
		snap.Documents = make(map[string]*schema.Document)
	}
	if snap.ChunkIndex == nil {
		snap.ChunkIndex = make(map[string]schema.ChunkRecord)
	}
	return snap, nil
}
