package telemetry

import (
	"testing"

	"github.com/pthm-cable/creatures/config"
)

func testBookmarksConfig() config.BookmarksConfig {
	return config.BookmarksConfig{
		Breakthrough: config.BreakthroughConfig{Multiplier: 1.5, MinRate: 0.05},
		Convergence:  config.ConvergenceConfig{DistinctFraction: 0.1},
		Plateau:      config.PlateauConfig{CVThreshold: 0.02, StableWindows: 3},
	}
}

func hasBookmark(bms []Bookmark, typ BookmarkType) bool {
	for _, bm := range bms {
		if bm.Type == typ {
			return true
		}
	}
	return false
}

func genStats(gen int, survivors int, distinct int) GenerationStats {
	return GenerationStats{
		Generation:       gen,
		Population:       100,
		Survivors:        survivors,
		SurvivalRate:     float64(survivors) / 100,
		PoolSize:         50,
		PoolDistinct:     distinct,
		DistinctFraction: float64(distinct) / 50,
	}
}

func TestBookmarkDetector_Extinction(t *testing.T) {
	bd := NewBookmarkDetector(10, testBookmarksConfig())
	s := genStats(0, 0, 0)
	s.PoolSize = 0
	bms := bd.Check(s)
	if !hasBookmark(bms, BookmarkExtinction) {
		t.Errorf("expected extinction bookmark, got %v", bms)
	}
	if hasBookmark(bd.Check(genStats(1, 10, 40)), BookmarkExtinction) {
		t.Error("extinction bookmark with survivors")
	}
}

func TestBookmarkDetector_Breakthrough(t *testing.T) {
	bd := NewBookmarkDetector(10, testBookmarksConfig())
	for i := 0; i < 5; i++ {
		bd.Check(genStats(i, 10, 40))
	}

	if !hasBookmark(bd.Check(genStats(5, 30, 40)), BookmarkBreakthrough) {
		t.Error("expected breakthrough bookmark")
	}

	bd = NewBookmarkDetector(10, testBookmarksConfig())
	bd.Check(genStats(0, 10, 40))
	if hasBookmark(bd.Check(genStats(1, 50, 40)), BookmarkBreakthrough) {
		t.Error("breakthrough with too little history")
	}
}

func TestBookmarkDetector_ConvergenceFiresOnce(t *testing.T) {
	bd := NewBookmarkDetector(10, testBookmarksConfig())
	bd.Check(genStats(0, 20, 40))

	if !hasBookmark(bd.Check(genStats(1, 20, 2)), BookmarkConvergence) {
		t.Fatal("expected convergence bookmark")
	}
	if hasBookmark(bd.Check(genStats(2, 20, 2)), BookmarkConvergence) {
		t.Error("convergence fired twice for the same episode")
	}
	bd.Check(genStats(3, 20, 30))
	if !hasBookmark(bd.Check(genStats(4, 20, 1)), BookmarkConvergence) {
		t.Error("expected convergence after diversity recovered")
	}
}

func TestBookmarkDetector_Plateau(t *testing.T) {
	bd := NewBookmarkDetector(10, testBookmarksConfig())

	var fired []int
	for i := 0; i < 12; i++ {
		if hasBookmark(bd.Check(genStats(i, 40, 30)), BookmarkPlateau) {
			fired = append(fired, i)
		}
	}
	// History of four is reached at generation 3; three stable checks later it fires.
	if len(fired) != 1 || fired[0] != 5 {
		t.Errorf("plateau fired at %v, want [5]", fired)
	}
}

func TestBookmarkDetector_NoPlateauWhenNoisy(t *testing.T) {
	bd := NewBookmarkDetector(10, testBookmarksConfig())
	for i := 0; i < 12; i++ {
		survivors := 20
		if i%2 == 0 {
			survivors = 60
		}
		if hasBookmark(bd.Check(genStats(i, survivors, 30)), BookmarkPlateau) {
			t.Fatalf("plateau at generation %d", i)
		}
	}
}
