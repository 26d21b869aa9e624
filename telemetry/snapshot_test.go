package telemetry

import (
	"os"
	"path/filepath"
	"testing"
)

func TestSnapshotSaveLoad(t *testing.T) {
	dir := t.TempDir()

	s := &Snapshot{
		Version:     SnapshotVersion,
		Seed:        42,
		Tick:        1000,
		SimTime:     16.6,
		WorldWidth:  20,
		WorldHeight: 16,
		Creatures: []CreatureState{{
			ID:       "5b0c3c1e-7a55-4f0e-9d36-1c2a4f6b8e01",
			Kind:     "snake",
			State:    "wandering",
			Energy:   0.75,
			Satiety:  0.4,
			Segments: [][2]float64{{1, 2}, {0.7, 2}},
		}},
	}

	path, err := SaveSnapshot(s, dir)
	if err != nil {
		t.Fatalf("SaveSnapshot failed: %v", err)
	}
	if want := filepath.Join(dir, "snapshot_1000.json"); path != want {
		t.Errorf("path = %s, want %s", path, want)
	}
	if _, err := os.Stat(path); err != nil {
		t.Fatalf("snapshot file not created: %v", err)
	}

	loaded, err := LoadSnapshot(path)
	if err != nil {
		t.Fatalf("LoadSnapshot failed: %v", err)
	}
	if loaded.Seed != s.Seed || loaded.Tick != s.Tick {
		t.Errorf("header mismatch: got seed %d tick %d", loaded.Seed, loaded.Tick)
	}
	if len(loaded.Creatures) != 1 {
		t.Fatalf("creatures = %d, want 1", len(loaded.Creatures))
	}
	got := loaded.Creatures[0]
	if got.Kind != "snake" || got.State != "wandering" || got.Segments[1] != [2]float64{0.7, 2} {
		t.Errorf("creature mismatch: %+v", got)
	}
}

func TestLoadSnapshotRejectsOtherVersions(t *testing.T) {
	dir := t.TempDir()
	path, err := SaveSnapshot(&Snapshot{Version: SnapshotVersion + 1, Tick: 3}, dir)
	if err != nil {
		t.Fatalf("SaveSnapshot failed: %v", err)
	}
	if _, err := LoadSnapshot(path); err == nil {
		t.Error("expected version error")
	}
	if _, err := LoadSnapshot(filepath.Join(dir, "missing.json")); err == nil {
		t.Error("expected error for missing file")
	}
}
