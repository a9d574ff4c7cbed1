// Package telemetry provides generation statistics, bookmarking, perf tracking
// and snapshots for an evolution run.
package telemetry

import (
	"log/slog"
	"math"
	"sort"

	"gonum.org/v1/gonum/stat"

	"github.com/pthm-cable/creatures/sim"
)

// GenerationStats holds aggregated statistics for one generation.
type GenerationStats struct {
	Generation   int     `csv:"generation"`
	Population   int     `csv:"population"`
	Survivors    int     `csv:"survivors"`
	SurvivalRate float64 `csv:"survival_rate"`
	Reseeded     bool    `csv:"reseeded"`

	// Terminal position distribution
	MeanX float64 `csv:"mean_x"`
	StdX  float64 `csv:"std_x"`
	MeanY float64 `csv:"mean_y"`
	StdY  float64 `csv:"std_y"`

	// Distance from the world centre at the terminal tick
	CentreDistP10 float64 `csv:"centre_dist_p10"`
	CentreDistP50 float64 `csv:"centre_dist_p50"`
	CentreDistP90 float64 `csv:"centre_dist_p90"`

	// Breeding pool diversity
	PoolSize         int     `csv:"pool_size"`
	PoolDistinct     int     `csv:"pool_distinct"`
	DistinctFraction float64 `csv:"distinct_fraction"`

	DurationMS float64 `csv:"duration_ms"`
}

// Quantiles returns the empirical quantiles of values at each p in ps.
// Returns zeros if values is empty.
func Quantiles(values []float64, ps ...float64) []float64 {
	out := make([]float64, len(ps))
	if len(values) == 0 {
		return out
	}
	sorted := make([]float64, len(values))
	copy(sorted, values)
	sort.Float64s(sorted)
	for i, p := range ps {
		out[i] = stat.Quantile(math.Max(0, math.Min(1, p)), stat.Empirical, sorted, nil)
	}
	return out
}

// MeanStd returns the mean and the sample standard deviation of values.
// The deviation is 0 for fewer than two values.
func MeanStd(values []float64) (mean, std float64) {
	switch len(values) {
	case 0:
		return 0, 0
	case 1:
		return values[0], 0
	}
	return stat.MeanStdDev(values, nil)
}

// ComputeGenerationStats summarizes a generation report.
func ComputeGenerationStats(r sim.GenerationReport) GenerationStats {
	n := len(r.Positions)
	xs := make([]float64, n)
	ys := make([]float64, n)
	dists := make([]float64, n)
	cx, cy := float64(r.Bounds.Width)/2, float64(r.Bounds.Height)/2
	for i, p := range r.Positions {
		xs[i] = float64(p.X)
		ys[i] = float64(p.Y)
		dists[i] = math.Hypot(xs[i]-cx, ys[i]-cy)
	}

	meanX, stdX := MeanStd(xs)
	meanY, stdY := MeanStd(ys)
	q := Quantiles(dists, 0.10, 0.50, 0.90)

	s := GenerationStats{
		Generation:    r.Generation,
		Population:    len(r.Population),
		Survivors:     r.Survivors,
		SurvivalRate:  r.SurvivalRate(),
		Reseeded:      r.Reseeded,
		MeanX:         meanX,
		StdX:          stdX,
		MeanY:         meanY,
		StdY:          stdY,
		CentreDistP10: q[0],
		CentreDistP50: q[1],
		CentreDistP90: q[2],
		PoolSize:      r.Pool.Len(),
		PoolDistinct:  r.Pool.Distinct(),
		DurationMS:    float64(r.Duration.Microseconds()) / 1000,
	}
	if s.PoolSize > 0 {
		s.DistinctFraction = float64(s.PoolDistinct) / float64(s.PoolSize)
	}
	return s
}

// LogValue implements slog.LogValuer for structured logging.
func (s GenerationStats) LogValue() slog.Value {
	return slog.GroupValue(
		slog.Int("generation", s.Generation),
		slog.Int("population", s.Population),
		slog.Int("survivors", s.Survivors),
		slog.Float64("survival_rate", s.SurvivalRate),
		slog.Bool("reseeded", s.Reseeded),
		slog.Float64("mean_x", s.MeanX),
		slog.Float64("std_x", s.StdX),
		slog.Float64("mean_y", s.MeanY),
		slog.Float64("std_y", s.StdY),
		slog.Float64("centre_dist_p10", s.CentreDistP10),
		slog.Float64("centre_dist_p50", s.CentreDistP50),
		slog.Float64("centre_dist_p90", s.CentreDistP90),
		slog.Int("pool_size", s.PoolSize),
		slog.Int("pool_distinct", s.PoolDistinct),
		slog.Float64("duration_ms", s.DurationMS),
	)
}

// LogStats logs the generation stats using slog.
func (s GenerationStats) LogStats() {
	slog.Info("stats", "generation", s)
}
