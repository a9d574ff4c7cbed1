package telemetry

import (
	"fmt"
	"log/slog"

	"gonum.org/v1/gonum/stat"

	"github.com/pthm-cable/creatures/config"
)

// BookmarkType identifies the type of bookmark.
type BookmarkType string

const (
	BookmarkExtinction   BookmarkType = "extinction"
	BookmarkBreakthrough BookmarkType = "breakthrough"
	BookmarkConvergence  BookmarkType = "convergence"
	BookmarkPlateau      BookmarkType = "plateau"
)

// Bookmark represents an automatically triggered bookmark.
type Bookmark struct {
	Type        BookmarkType `csv:"type" json:"type"`
	Generation  int          `csv:"generation" json:"generation"`
	Description string       `csv:"description" json:"description"`
}

// LogBookmark logs the bookmark using slog.
func (b Bookmark) LogBookmark() {
	slog.Info("bookmark",
		"type", string(b.Type),
		"generation", b.Generation,
		"description", b.Description,
	)
}

// BookmarkDetector detects interesting generations in a run.
type BookmarkDetector struct {
	cfg config.BookmarksConfig

	// Rolling history (circular buffer)
	history     []GenerationStats
	historySize int
	historyIdx  int
	historyFull bool

	// State tracking
	converged          bool // diversity is currently below the threshold
	stableWindowsCount int  // consecutive generations with flat survival
}

// NewBookmarkDetector creates a detector with the given history size.
func NewBookmarkDetector(historySize int, cfg config.BookmarksConfig) *BookmarkDetector {
	if historySize < 4 {
		historySize = 4 // minimum for plateau detection
	}
	return &BookmarkDetector{
		cfg:         cfg,
		history:     make([]GenerationStats, historySize),
		historySize: historySize,
	}
}

// Check analyzes the latest stats and returns any triggered bookmarks.
func (bd *BookmarkDetector) Check(stats GenerationStats) []Bookmark {
	var bookmarks []Bookmark

	if b := bd.checkExtinction(stats); b != nil {
		bookmarks = append(bookmarks, *b)
	}
	if b := bd.checkBreakthrough(stats); b != nil {
		bookmarks = append(bookmarks, *b)
	}
	if b := bd.checkConvergence(stats); b != nil {
		bookmarks = append(bookmarks, *b)
	}

	bd.addToHistory(stats)

	// Plateau looks at the window including the latest generation.
	if b := bd.checkPlateau(stats); b != nil {
		bookmarks = append(bookmarks, *b)
	}

	return bookmarks
}

func (bd *BookmarkDetector) addToHistory(stats GenerationStats) {
	bd.history[bd.historyIdx] = stats
	bd.historyIdx = (bd.historyIdx + 1) % bd.historySize
	if bd.historyIdx == 0 {
		bd.historyFull = true
	}
}

func (bd *BookmarkDetector) getHistory() []GenerationStats {
	if bd.historyFull {
		return bd.history
	}
	return bd.history[:bd.historyIdx]
}

func (bd *BookmarkDetector) checkExtinction(stats GenerationStats) *Bookmark {
	if stats.Survivors > 0 {
		return nil
	}
	desc := fmt.Sprintf("No survivors out of %d", stats.Population)
	if stats.Reseeded {
		desc += ", pool reseeded"
	}
	return &Bookmark{Type: BookmarkExtinction, Generation: stats.Generation, Description: desc}
}

func (bd *BookmarkDetector) checkBreakthrough(stats GenerationStats) *Bookmark {
	history := bd.getHistory()
	if len(history) < 3 {
		return nil
	}

	var total float64
	for _, h := range history {
		total += h.SurvivalRate
	}
	avg := total / float64(len(history))
	if avg == 0 {
		return nil
	}

	rate := stats.SurvivalRate
	if rate > avg*bd.cfg.Breakthrough.Multiplier && rate >= bd.cfg.Breakthrough.MinRate {
		return &Bookmark{
			Type:        BookmarkBreakthrough,
			Generation:  stats.Generation,
			Description: fmt.Sprintf("Survival rate %.3f is %.1fx average (%.3f)", rate, rate/avg, avg),
		}
	}
	return nil
}

// checkConvergence fires when pool diversity first drops below the threshold.
func (bd *BookmarkDetector) checkConvergence(stats GenerationStats) *Bookmark {
	if stats.PoolSize == 0 {
		return nil
	}
	below := stats.DistinctFraction < bd.cfg.Convergence.DistinctFraction
	defer func() { bd.converged = below }()
	if !below || bd.converged {
		return nil
	}
	return &Bookmark{
		Type:        BookmarkConvergence,
		Generation:  stats.Generation,
		Description: fmt.Sprintf("Pool converged to %d distinct genomes of %d", stats.PoolDistinct, stats.PoolSize),
	}
}

func (bd *BookmarkDetector) checkPlateau(stats GenerationStats) *Bookmark {
	history := bd.getHistory()
	if len(history) < 4 || stats.Survivors == 0 {
		bd.stableWindowsCount = 0
		return nil
	}

	recent := make([]float64, 4)
	for i := range recent {
		recent[i] = bd.history[(bd.historyIdx-4+i+bd.historySize)%bd.historySize].SurvivalRate
	}
	mean, std := stat.PopMeanStdDev(recent, nil)
	if mean > 0 && std/mean < bd.cfg.Plateau.CVThreshold {
		bd.stableWindowsCount++
	} else {
		bd.stableWindowsCount = 0
	}

	if bd.stableWindowsCount == bd.cfg.Plateau.StableWindows { // trigger exactly once per plateau
		return &Bookmark{
			Type:        BookmarkPlateau,
			Generation:  stats.Generation,
			Description: fmt.Sprintf("Survival flat at %.3f for %d generations", mean, bd.cfg.Plateau.StableWindows),
		}
	}
	return nil
}
