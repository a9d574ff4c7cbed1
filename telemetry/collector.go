package telemetry

import (
	"fmt"
	"log/slog"
	"sync"

	"github.com/pthm-cable/creatures/config"
	"github.com/pthm-cable/creatures/sim"
)

// Collector turns generation reports into stats, bookmarks, perf rows and
// snapshots. It implements sim.Observer.
type Collector struct {
	cfg       *config.Config
	output    *OutputManager
	bookmarks *BookmarkDetector
	perf      *PerfCollector
	logger    *slog.Logger

	snapshotDir string
	logStats    bool

	mu      sync.Mutex
	latest  GenerationStats
	history []Bookmark
	seen    int
}

// CollectorOptions configures optional collector outputs.
type CollectorOptions struct {
	Output      *OutputManager // nil disables CSV output
	Perf        *PerfCollector // nil disables perf rows
	SnapshotDir string         // empty disables bookmark snapshots
	LogStats    bool           // log every generation's stats
	Logger      *slog.Logger
}

// NewCollector creates a collector for a run configured by cfg.
func NewCollector(cfg *config.Config, opts CollectorOptions) *Collector {
	logger := opts.Logger
	if logger == nil {
		logger = slog.Default()
	}
	return &Collector{
		cfg:         cfg,
		output:      opts.Output,
		bookmarks:   NewBookmarkDetector(cfg.Telemetry.BookmarkHistorySize, cfg.Bookmarks),
		perf:        opts.Perf,
		logger:      logger,
		snapshotDir: opts.SnapshotDir,
		logStats:    opts.LogStats,
	}
}

// ObserveGeneration records one generation.
func (c *Collector) ObserveGeneration(r sim.GenerationReport) error {
	stats := ComputeGenerationStats(r)
	if c.logStats {
		c.logger.Info("stats", "generation", stats)
	}
	if err := c.output.WriteGeneration(stats); err != nil {
		return err
	}

	bookmarks := c.bookmarks.Check(stats)
	for _, b := range bookmarks {
		c.logger.Info("bookmark", "type", string(b.Type), "generation", b.Generation, "description", b.Description)
		if err := c.output.WriteBookmark(b); err != nil {
			return err
		}
		if c.snapshotDir != "" && r.Pool != nil {
			snap := NewSnapshot(c.cfg, r.Generation, r.Pool)
			snap.Bookmark = &b
			path, err := SaveSnapshot(snap, c.snapshotDir)
			if err != nil {
				return fmt.Errorf("bookmark snapshot: %w", err)
			}
			c.logger.Info("snapshot saved", "path", path)
		}
	}

	c.mu.Lock()
	c.latest = stats
	c.history = append(c.history, bookmarks...)
	c.seen++
	seen := c.seen
	c.mu.Unlock()

	if c.perf != nil && seen%c.perfWindow() == 0 {
		ps := c.perf.Stats()
		c.logger.Info("perf", "stats", ps)
		if err := c.output.WritePerf(ps, r.Generation); err != nil {
			return err
		}
	}
	return nil
}

func (c *Collector) perfWindow() int {
	if w := c.cfg.Telemetry.PerfWindow; w > 0 {
		return w
	}
	return 1
}

// Latest returns the most recent generation stats.
func (c *Collector) Latest() GenerationStats {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.latest
}

// Bookmarks returns every bookmark seen so far.
func (c *Collector) Bookmarks() []Bookmark {
	c.mu.Lock()
	defer c.mu.Unlock()
	out := make([]Bookmark, len(c.history))
	copy(out, c.history)
	return out
}
