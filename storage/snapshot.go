package storage

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"olx-monitor/models"
)

// Snapshot file name prefixes.
const (
	PrefixInitial = "olx_offers"
	PrefixNew     = "olx_new_offers"
)

// SnapshotWriter saves each batch of offers to <dir>/<prefix>_<unix-ms>.json.
type SnapshotWriter struct {
	dir string
	now func() time.Time
}

// NewSnapshotWriter creates dir if needed.
func NewSnapshotWriter(dir string) (*SnapshotWriter, error) {
	if err := os.MkdirAll(dir, 0755); err != nil {
		return nil, fmt.Errorf("snapshot: create dir: %w", err)
	}
	return &SnapshotWriter{dir: dir, now: time.Now}, nil
}

// Save writes offers as an indented JSON array and returns the file path.
func (s *SnapshotWriter) Save(offers []models.Offer, prefix string) (string, error) {
	if offers == nil {
		offers = []models.Offer{}
	}

	data, err := json.MarshalIndent(offers, "", "  ")
	if err != nil {
		return "", fmt.Errorf("snapshot: encode: %w", err)
	}

	name := fmt.Sprintf("%s_%d.json", prefix, s.now().UnixMilli())
	path := filepath.Join(s.dir, name)
	if err := os.WriteFile(path, data, 0644); err != nil {
		return "", fmt.Errorf("snapshot: write %s: %w", path, err)
	}
	return path, nil
}
