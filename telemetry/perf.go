package telemetry

import (
	"log/slog"
	"sync"
	"time"
)

// Phase names for a generation. They match sim.Phase strings.
const (
	PhaseSpawning   = "spawning"
	PhaseRunning    = "running"
	PhaseEvaluating = "evaluating"
	PhaseHarvesting = "harvesting"
)

var phaseOrder = []string{PhaseSpawning, PhaseRunning, PhaseEvaluating, PhaseHarvesting}

// PerfSample holds timing data for a single generation.
type PerfSample struct {
	GenerationDuration time.Duration
	Phases             map[string]time.Duration
}

// PerfCollector tracks performance metrics over a rolling window of generations.
// It implements sim.PhaseTimer. Safe for use from the run goroutine and a viewer.
type PerfCollector struct {
	mu sync.Mutex

	windowSize    int
	samples       []PerfSample
	writeIndex    int
	sampleCount   int
	currentPhases map[string]time.Duration
	genStart      time.Time
	phaseStart    time.Time
	lastPhase     string

	// Frame timing (for graphics mode)
	lastFrameTime time.Time
	frameDuration time.Duration
}

// NewPerfCollector creates a new performance collector.
// windowSize: number of generations to average over.
func NewPerfCollector(windowSize int) *PerfCollector {
	if windowSize < 1 {
		windowSize = 10
	}
	return &PerfCollector{
		windowSize:    windowSize,
		samples:       make([]PerfSample, windowSize),
		currentPhases: make(map[string]time.Duration),
	}
}

// StartGeneration begins timing a new generation.
func (p *PerfCollector) StartGeneration() {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.genStart = time.Now()
	p.currentPhases = make(map[string]time.Duration)
	p.lastPhase = ""
}

// StartPhase begins timing a specific phase.
func (p *PerfCollector) StartPhase(phase string) {
	p.mu.Lock()
	defer p.mu.Unlock()
	now := time.Now()
	// End previous phase if any
	if p.lastPhase != "" {
		p.currentPhases[p.lastPhase] += now.Sub(p.phaseStart)
	}
	p.phaseStart = now
	p.lastPhase = phase
}

// EndGeneration finishes timing the current generation and records the sample.
func (p *PerfCollector) EndGeneration() {
	p.mu.Lock()
	defer p.mu.Unlock()
	now := time.Now()
	// End final phase
	if p.lastPhase != "" {
		p.currentPhases[p.lastPhase] += now.Sub(p.phaseStart)
		p.lastPhase = ""
	}

	p.samples[p.writeIndex] = PerfSample{
		GenerationDuration: now.Sub(p.genStart),
		Phases:             p.currentPhases,
	}
	p.writeIndex = (p.writeIndex + 1) % p.windowSize
	if p.sampleCount < p.windowSize {
		p.sampleCount++
	}
}

// RecordFrame records frame timing for graphics mode.
func (p *PerfCollector) RecordFrame() {
	p.mu.Lock()
	defer p.mu.Unlock()
	now := time.Now()
	if !p.lastFrameTime.IsZero() {
		p.frameDuration = now.Sub(p.lastFrameTime)
	}
	p.lastFrameTime = now
}

// PerfStats holds aggregated performance statistics.
type PerfStats struct {
	// Generation timing
	AvgGenerationDuration time.Duration
	MinGenerationDuration time.Duration
	MaxGenerationDuration time.Duration

	// Phase breakdown (average durations)
	PhaseAvg map[string]time.Duration

	// Phase percentages of total generation time
	PhasePct map[string]float64

	// Throughput
	GenerationsPerSecond float64

	// Frame timing (graphics mode)
	FrameDuration time.Duration
	FPS           float64
}

// Stats computes aggregated statistics over the current window.
func (p *PerfCollector) Stats() PerfStats {
	p.mu.Lock()
	defer p.mu.Unlock()

	// Frame timing is always available (independent of generation samples)
	var fps float64
	if p.frameDuration > 0 {
		fps = float64(time.Second) / float64(p.frameDuration)
	}

	if p.sampleCount == 0 {
		return PerfStats{
			PhaseAvg:      make(map[string]time.Duration),
			PhasePct:      make(map[string]float64),
			FrameDuration: p.frameDuration,
			FPS:           fps,
		}
	}

	var total, minGen, maxGen time.Duration
	phaseSum := make(map[string]time.Duration)

	for i := 0; i < p.sampleCount; i++ {
		s := p.samples[i]
		total += s.GenerationDuration

		if i == 0 || s.GenerationDuration < minGen {
			minGen = s.GenerationDuration
		}
		if s.GenerationDuration > maxGen {
			maxGen = s.GenerationDuration
		}

		for phase, dur := range s.Phases {
			phaseSum[phase] += dur
		}
	}

	avg := total / time.Duration(p.sampleCount)

	phaseAvg := make(map[string]time.Duration)
	phasePct := make(map[string]float64)
	for phase, sum := range phaseSum {
		phaseAvg[phase] = sum / time.Duration(p.sampleCount)
		if avg > 0 {
			phasePct[phase] = float64(phaseAvg[phase]) / float64(avg) * 100
		}
	}

	var perSec float64
	if avg > 0 {
		perSec = float64(time.Second) / float64(avg)
	}

	return PerfStats{
		AvgGenerationDuration: avg,
		MinGenerationDuration: minGen,
		MaxGenerationDuration: maxGen,
		PhaseAvg:              phaseAvg,
		PhasePct:              phasePct,
		GenerationsPerSecond:  perSec,
		FrameDuration:         p.frameDuration,
		FPS:                   fps,
	}
}

// LogStats logs performance statistics.
func (s PerfStats) LogStats() {
	attrs := []any{
		"avg_generation_ms", s.AvgGenerationDuration.Milliseconds(),
		"min_generation_ms", s.MinGenerationDuration.Milliseconds(),
		"max_generation_ms", s.MaxGenerationDuration.Milliseconds(),
		"generations_per_sec", s.GenerationsPerSecond,
	}

	if s.FPS > 0 {
		attrs = append(attrs, "fps", int(s.FPS))
	}

	for _, phase := range phaseOrder {
		if pct, ok := s.PhasePct[phase]; ok && pct > 0.1 {
			attrs = append(attrs, phase+"_pct", float64(int(pct*10))/10.0)
		}
	}

	slog.Info("perf", attrs...)
}

// LogValue implements slog.LogValuer for structured logging.
func (s PerfStats) LogValue() slog.Value {
	attrs := []slog.Attr{
		slog.Int64("avg_generation_ms", s.AvgGenerationDuration.Milliseconds()),
		slog.Int64("min_generation_ms", s.MinGenerationDuration.Milliseconds()),
		slog.Int64("max_generation_ms", s.MaxGenerationDuration.Milliseconds()),
		slog.Float64("generations_per_sec", s.GenerationsPerSecond),
	}

	if s.FPS > 0 {
		attrs = append(attrs, slog.Float64("fps", s.FPS))
	}

	for _, phase := range phaseOrder {
		if pct, ok := s.PhasePct[phase]; ok {
			attrs = append(attrs, slog.Float64(phase+"_pct", pct))
		}
	}

	return slog.GroupValue(attrs...)
}

// PerfStatsCSV is a flat struct for CSV export of performance stats.
type PerfStatsCSV struct {
	Generation        int     `csv:"generation"`
	AvgGenerationUS   int64   `csv:"avg_generation_us"`
	MinGenerationUS   int64   `csv:"min_generation_us"`
	MaxGenerationUS   int64   `csv:"max_generation_us"`
	GenerationsPerSec float64 `csv:"generations_per_sec"`
	SpawningPct       float64 `csv:"spawning_pct"`
	RunningPct        float64 `csv:"running_pct"`
	EvaluatingPct     float64 `csv:"evaluating_pct"`
	HarvestingPct     float64 `csv:"harvesting_pct"`
}

// ToCSV converts PerfStats to a flat CSV-friendly struct.
func (s PerfStats) ToCSV(generation int) PerfStatsCSV {
	return PerfStatsCSV{
		Generation:        generation,
		AvgGenerationUS:   s.AvgGenerationDuration.Microseconds(),
		MinGenerationUS:   s.MinGenerationDuration.Microseconds(),
		MaxGenerationUS:   s.MaxGenerationDuration.Microseconds(),
		GenerationsPerSec: s.GenerationsPerSecond,
		SpawningPct:       s.PhasePct[PhaseSpawning],
		RunningPct:        s.PhasePct[PhaseRunning],
		EvaluatingPct:     s.PhasePct[PhaseEvaluating],
		HarvestingPct:     s.PhasePct[PhaseHarvesting],
	}
}
