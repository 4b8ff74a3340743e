package storage

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/bwalsh/vt-nutrition/internal/menu"
)

const snapshotFile = "dining_data.json"

// Storage handles persistence of dining data snapshots.
type Storage struct {
	dataDir string
}

// New creates a Storage rooted at dataDir, creating the directory if
// needed. A leading ~/ expands to the user's home directory.
func New(dataDir string) (*Storage, error) {
	if strings.HasPrefix(dataDir, "~/") {
		home, err := os.UserHomeDir()
		if err != nil {
			return nil, fmt.Errorf("getting home directory: %w", err)
		}
		dataDir = filepath.Join(home, dataDir[2:])
	}

	if err := os.MkdirAll(dataDir, 0755); err != nil {
		return nil, fmt.Errorf("creating data directory: %w", err)
	}

	return &Storage{
		dataDir: dataDir,
	}, nil
}

// SnapshotPath returns the path of the persisted snapshot file.
func (s *Storage) SnapshotPath() string {
	return filepath.Join(s.dataDir, snapshotFile)
}

// LoadSnapshot loads the persisted snapshot. A missing file returns
// (nil, nil): no scrape has completed yet.
func (s *Storage) LoadSnapshot() (*menu.Snapshot, error) {
	data, err := os.ReadFile(s.SnapshotPath())
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("reading snapshot: %w", err)
	}

	var snapshot menu.Snapshot
	if err := json.Unmarshal(data, &snapshot); err != nil {
		return nil, fmt.Errorf("parsing snapshot: %w", err)
	}

	return &snapshot, nil
}

// SaveSnapshot atomically replaces the persisted snapshot: the document is
// written to a temp file in the same directory and renamed over the old
// one, so concurrent readers see either the previous snapshot or the new
// one, never a partial write.
func (s *Storage) SaveSnapshot(snapshot *menu.Snapshot) error {
	data, err := json.MarshalIndent(snapshot, "", "  ")
	if err != nil {
		return fmt.Errorf("encoding snapshot: %w", err)
	}

	tmp, err := os.CreateTemp(s.dataDir, snapshotFile+".tmp-*")
	if err != nil {
		return fmt.Errorf("creating temp file: %w", err)
	}
	tmpPath := tmp.Name()

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		os.Remove(tmpPath)
		return fmt.Errorf("writing snapshot: %w", err)
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmpPath)
		return fmt.Errorf("closing temp file: %w", err)
	}

	if err := os.Rename(tmpPath, s.SnapshotPath()); err != nil {
		os.Remove(tmpPath)
		return fmt.Errorf("replacing snapshot: %w", err)
	}

	return nil
}
