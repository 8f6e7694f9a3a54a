package ledger

import (
	"encoding/json"
	"fmt"
	"os"
)

// Snapshot is the JSON on-disk form of a record set, used by the settle CLI
// to work against an exported ledger state.
type Snapshot struct {
	Records []Record `json:"records"`
}

// LoadSnapshot reads a JSON snapshot file into a fresh MemStore.
func LoadSnapshot(path string, store *MemStore) error {
	raw, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("failed to read snapshot: %w", err)
	}
	var snap Snapshot
	if err := json.Unmarshal(raw, &snap); err != nil {
		return fmt.Errorf("failed to parse snapshot: %w", err)
	}
	store.mu.Lock()
	defer store.mu.Unlock()
	for _, r := range snap.Records {
		rec := r
		store.records[r.ID] = &rec
	}
	return nil
}

// SaveSnapshot writes the store's current records to a JSON snapshot file.
func SaveSnapshot(path string, store *MemStore) error {
	snap := Snapshot{Records: store.List()}
	raw, err := json.MarshalIndent(snap, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to encode snapshot: %w", err)
	}
	if err := os.WriteFile(path, raw, 0o644); err != nil {
		return fmt.Errorf("failed to write snapshot: %w", err)
	}
	return nil
}
