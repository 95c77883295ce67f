// Package history persists dated comparison snapshots and aggregates them
// into time-series trends.
package history

import (
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/bsaid97/go-boundary-compare/compare"
	"github.com/bsaid97/go-boundary-compare/logger"
)

// Store is the snapshot history interface consumed by the pipeline.
type Store interface {
	// Load returns all readable snapshots ordered by date.
	Load() ([]compare.Snapshot, error)
	// Append persists the snapshot under its date, replacing any snapshot
	// already recorded for the same day.
	Append(compare.Snapshot) error
}

const snapshotPrefix = "snapshot_"

// FileStore keeps one JSON file per snapshot date in a directory. Snapshots
// carry only identifiers and scalar metrics, so the files stay small even
// for national datasets.
type FileStore struct {
	Dir string
	Log *slog.Logger
}

func NewFileStore(dir string) *FileStore {
	return &FileStore{Dir: dir}
}

// Load reads every snapshot file in the directory. An unreadable or
// malformed entry is skipped with a warning rather than failing the run;
// trend aggregation proceeds with whatever history remains.
func (s *FileStore) Load() ([]compare.Snapshot, error) {
	entries, err := os.ReadDir(s.Dir)
	if errors.Is(err, fs.ErrNotExist) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("read history dir %s: %w", s.Dir, err)
	}

	var snaps []compare.Snapshot
	for _, e := range entries {
		name := e.Name()
		if e.IsDir() || !strings.HasPrefix(name, snapshotPrefix) || !strings.HasSuffix(name, ".json") {
			continue
		}
		path := filepath.Join(s.Dir, name)
		data, err := os.ReadFile(path)
		if err != nil {
			s.log().Warn("skipping unreadable history entry", "path", path, "err", err)
			continue
		}
		var snap compare.Snapshot
		if err := json.Unmarshal(data, &snap); err != nil {
			s.log().Warn("skipping malformed history entry", "path", path, "err", err)
			continue
		}
		if snap.Date.IsZero() {
			s.log().Warn("skipping history entry without a date", "path", path)
			continue
		}
		snaps = append(snaps, snap)
	}

	sort.Slice(snaps, func(i, j int) bool {
		return snaps[i].Date.Before(snaps[j].Date)
	})
	return snaps, nil
}

// Append writes the snapshot for its calendar date. Re-running on the same
// day overwrites that day's snapshot instead of accumulating duplicates.
func (s *FileStore) Append(snap compare.Snapshot) error {
	if err := os.MkdirAll(s.Dir, 0o755); err != nil {
		return fmt.Errorf("create history dir %s: %w", s.Dir, err)
	}
	data, err := json.MarshalIndent(snap, "", "  ")
	if err != nil {
		return fmt.Errorf("encode snapshot %s: %w", snap.DateKey(), err)
	}
	path := filepath.Join(s.Dir, snapshotPrefix+snap.DateKey()+".json")
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("write snapshot %s: %w", path, err)
	}
	return nil
}

func (s *FileStore) log() *slog.Logger {
	if s.Log != nil {
		return s.Log
	}
	return logger.L()
}
