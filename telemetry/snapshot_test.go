package telemetry

import (
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/pthm-cable/creatures/config"
	"github.com/pthm-cable/creatures/genome"
	"github.com/pthm-cable/creatures/sim"
)

func testPool(t *testing.T, size, length int) *genome.Pool {
	t.Helper()
	return genome.NewRandomPool(sim.NewRand(5), size, length)
}

func TestSnapshotSaveLoad(t *testing.T) {
	tmpDir := t.TempDir()
	cfg := config.Default()
	pool := testPool(t, 12, cfg.Genome.Length)

	snapshot := NewSnapshot(cfg, 41, pool)
	snapshot.Bookmark = &Bookmark{Type: BookmarkPlateau, Generation: 41, Description: "Test bookmark"}

	path, err := SaveSnapshot(snapshot, tmpDir)
	if err != nil {
		t.Fatalf("SaveSnapshot failed: %v", err)
	}
	if filepath.Base(path) != "snapshot_gen_41_plateau.json" {
		t.Errorf("unexpected filename: %s", filepath.Base(path))
	}

	loaded, err := LoadSnapshot(path)
	if err != nil {
		t.Fatalf("LoadSnapshot failed: %v", err)
	}
	if loaded.Generation != 41 || loaded.Seed != cfg.Seed || loaded.GenomeLength != cfg.Genome.Length {
		t.Errorf("header mismatch: %+v", loaded)
	}
	if loaded.Bookmark == nil || loaded.Bookmark.Type != BookmarkPlateau {
		t.Error("bookmark not preserved")
	}

	restored, err := loaded.GenePool()
	if err != nil {
		t.Fatal(err)
	}
	if !restored.Equal(pool) {
		t.Error("restored pool differs from saved pool")
	}
}

func TestSnapshotWithoutBookmark(t *testing.T) {
	tmpDir := t.TempDir()
	cfg := config.Default()

	path, err := SaveSnapshot(NewSnapshot(cfg, 3, testPool(t, 2, cfg.Genome.Length)), tmpDir)
	if err != nil {
		t.Fatal(err)
	}
	if filepath.Base(path) != "snapshot_gen_3.json" {
		t.Errorf("unexpected filename: %s", filepath.Base(path))
	}
}

func TestSnapshotRejectsBadPool(t *testing.T) {
	tests := []struct {
		name string
		snap Snapshot
	}{
		{"bad hex", Snapshot{Version: SnapshotVersion, GenomeLength: 1, Pool: []string{"XYZ"}}},
		{"wrong length", Snapshot{Version: SnapshotVersion, GenomeLength: 2, Pool: []string{"00000000"}}},
		{"empty", Snapshot{Version: SnapshotVersion, GenomeLength: 2}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, err := tt.snap.GenePool(); err == nil {
				t.Error("expected error")
			}
		})
	}
}

func TestLoadSnapshotErrors(t *testing.T) {
	dir := t.TempDir()

	if _, err := LoadSnapshot(filepath.Join(dir, "missing.json")); err == nil {
		t.Error("expected error for missing file")
	}

	garbage := filepath.Join(dir, "garbage.json")
	if err := os.WriteFile(garbage, []byte("{not json"), 0644); err != nil {
		t.Fatal(err)
	}
	if _, err := LoadSnapshot(garbage); err == nil {
		t.Error("expected error for invalid JSON")
	}

	future := filepath.Join(dir, "future.json")
	data, _ := json.Marshal(Snapshot{Version: SnapshotVersion + 1})
	if err := os.WriteFile(future, data, 0644); err != nil {
		t.Fatal(err)
	}
	if _, err := LoadSnapshot(future); err == nil || !strings.Contains(err.Error(), "version") {
		t.Errorf("expected version error, got %v", err)
	}
}
