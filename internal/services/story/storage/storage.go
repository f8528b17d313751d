// Package storage selects where the story datasets are read from: the
// SQLite store written by the importer, or the published data directory.
package storage

import (
	"errors"
	"fmt"
	"os"
	"strings"

	"github.com/louisbranch/rentpressure/internal/services/story/dataset"
	"github.com/louisbranch/rentpressure/internal/services/story/dataset/files"
	"github.com/louisbranch/rentpressure/internal/services/story/storage/sqlite"
)

// Open returns the dataset source for the given locations. dbPath wins when
// both are set. The returned close function is never nil.
func Open(dataDir, dbPath string) (dataset.Source, func() error, error) {
	switch {
	case strings.TrimSpace(dbPath) != "":
		store, err := sqlite.Open(dbPath)
		if err != nil {
			return nil, nil, fmt.Errorf("open dataset store: %w", err)
		}
		return store, store.Close, nil
	case strings.TrimSpace(dataDir) != "":
		return files.New(os.DirFS(dataDir)), func() error { return nil }, nil
	default:
		return nil, nil, errors.New("data dir or db path is required")
	}
}
