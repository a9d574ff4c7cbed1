package telemetry

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/pthm-cable/creatures/config"
	"github.com/pthm-cable/creatures/genome"
)

// SnapshotVersion is incremented when the format changes.
const SnapshotVersion = 1

// Snapshot holds a breeding pool and enough context to resume a run from it.
type Snapshot struct {
	Version int    `json:"version"`
	Seed    uint64 `json:"seed"`

	// Generation is the generation that produced Pool.
	// A resumed run starts at Generation+1.
	Generation int `json:"generation"`

	GenomeLength    int `json:"genome_length"`
	InternalNeurons int `json:"internal_neurons"`

	Pool []string `json:"pool"`

	Bookmark *Bookmark `json:"bookmark,omitempty"`
}

// NewSnapshot captures pool as produced by generation.
func NewSnapshot(cfg *config.Config, generation int, pool *genome.Pool) *Snapshot {
	s := &Snapshot{
		Version:         SnapshotVersion,
		Seed:            cfg.Seed,
		Generation:      generation,
		GenomeLength:    cfg.Genome.Length,
		InternalNeurons: cfg.Genome.InternalNeurons,
		Pool:            make([]string, pool.Len()),
	}
	for i := range s.Pool {
		s.Pool[i] = pool.At(i).String()
	}
	return s
}

// GenePool decodes the snapshot's pool and checks every genome's length.
func (s *Snapshot) GenePool() (*genome.Pool, error) {
	genomes := make([]genome.Genome, len(s.Pool))
	for i, text := range s.Pool {
		g, err := genome.Parse(text)
		if err != nil {
			return nil, fmt.Errorf("snapshot pool member %d: %w", i, err)
		}
		genomes[i] = g
	}
	pool := genome.NewPool(genomes)
	if err := pool.Validate(s.GenomeLength); err != nil {
		return nil, fmt.Errorf("snapshot: %w", err)
	}
	return pool, nil
}

// SaveSnapshot writes a snapshot to disk.
// Returns the filepath where it was saved.
func SaveSnapshot(snapshot *Snapshot, dir string) (string, error) {
	if err := os.MkdirAll(dir, 0755); err != nil {
		return "", fmt.Errorf("create snapshot dir: %w", err)
	}

	name := fmt.Sprintf("snapshot_gen_%d", snapshot.Generation)
	if snapshot.Bookmark != nil {
		sanitized := strings.ReplaceAll(string(snapshot.Bookmark.Type), " ", "_")
		name = fmt.Sprintf("snapshot_gen_%d_%s", snapshot.Generation, sanitized)
	}
	name += ".json"

	path := filepath.Join(dir, name)

	data, err := json.MarshalIndent(snapshot, "", "  ")
	if err != nil {
		return "", fmt.Errorf("marshal snapshot: %w", err)
	}

	if err := os.WriteFile(path, data, 0644); err != nil {
		return "", fmt.Errorf("write snapshot: %w", err)
	}

	return path, nil
}

// LoadSnapshot reads a snapshot from disk.
func LoadSnapshot(path string) (*Snapshot, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read snapshot: %w", err)
	}

	var snapshot Snapshot
	if err := json.Unmarshal(data, &snapshot); err != nil {
		return nil, fmt.Errorf("unmarshal snapshot: %w", err)
	}
	if snapshot.Version != SnapshotVersion {
		return nil, fmt.Errorf("snapshot version %d, want %d", snapshot.Version, SnapshotVersion)
	}

	return &snapshot, nil
}
