package storage

import (
	"path/filepath"
	"testing"

	"github.com/louisbranch/rentpressure/internal/services/story/dataset/files"
	"github.com/louisbranch/rentpressure/internal/services/story/storage/sqlite"
)

func TestOpenPrefersDatabase(t *testing.T) {
	source, closeFn, err := Open(t.TempDir(), filepath.Join(t.TempDir(), "story.db"))
	if err != nil {
		t.Fatalf("open: %v", err)
	}
	defer closeFn()
	if _, ok := source.(*sqlite.Store); !ok {
		t.Fatalf("source = %T, want *sqlite.Store", source)
	}
}

func TestOpenDataDir(t *testing.T) {
	source, closeFn, err := Open(t.TempDir(), " ")
	if err != nil {
		t.Fatalf("open: %v", err)
	}
	if err := closeFn(); err != nil {
		t.Fatalf("close: %v", err)
	}
	if _, ok := source.(*files.Source); !ok {
		t.Fatalf("source = %T, want *files.Source", source)
	}
}

func TestOpenRequiresLocation(t *testing.T) {
	if _, _, err := Open("", ""); err == nil {
		t.Fatal("expected error without a location")
	}
}
