package main

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"sync"

	"github.com/sourcegraph/conc/pool"

	"github.com/pthm-cable/creatures/config"
	"github.com/pthm-cable/creatures/sim"
)

// tailGenerations is how many final generations are averaged per seed.
const tailGenerations = 5

// FitnessEvaluator runs headless evolutions and scores parameter vectors.
type FitnessEvaluator struct {
	params      *ParamVector
	generations int
	seeds       []uint64
	baseConfig  *config.Config
	logger      *slog.Logger

	mu        sync.Mutex
	lastScore float64
	lastExt   int
}

// NewFitnessEvaluator creates a new evaluator.
func NewFitnessEvaluator(params *ParamVector, generations int, seeds []uint64, baseCfg *config.Config) *FitnessEvaluator {
	return &FitnessEvaluator{
		params:      params,
		generations: generations,
		seeds:       seeds,
		baseConfig:  baseCfg,
		logger:      slog.New(slog.NewTextHandler(io.Discard, nil)),
	}
}

// LastScore returns the mean survival rate from the most recent evaluation.
func (fe *FitnessEvaluator) LastScore() float64 {
	fe.mu.Lock()
	defer fe.mu.Unlock()
	return fe.lastScore
}

// LastExtinctions returns how many seeds went extinct in the most recent evaluation.
func (fe *FitnessEvaluator) LastExtinctions() int {
	fe.mu.Lock()
	defer fe.mu.Unlock()
	return fe.lastExt
}

// seedResult holds the result from one seed evaluation.
type seedResult struct {
	score   float64
	extinct bool
}

// Evaluate computes fitness for a raw parameter vector (lower = better).
// Fitness is the negated survival rate averaged over the final generations
// of every seed; an extinct seed scores 0.
func (fe *FitnessEvaluator) Evaluate(x []float64) float64 {
	results := make([]seedResult, len(fe.seeds))
	p := pool.New().WithMaxGoroutines(len(fe.seeds))
	for i, seed := range fe.seeds {
		p.Go(func() {
			results[i] = fe.runSeed(x, seed)
		})
	}
	p.Wait()

	var total float64
	var extinct int
	for _, r := range results {
		total += r.score
		if r.extinct {
			extinct++
		}
	}
	score := total / float64(len(results))

	fe.mu.Lock()
	fe.lastScore = score
	fe.lastExt = extinct
	fe.mu.Unlock()

	return -score
}

// runSeed runs one evolution with x applied and returns its tail survival rate.
func (fe *FitnessEvaluator) runSeed(x []float64, seed uint64) seedResult {
	cfg := fe.baseConfig.Clone()
	fe.params.ApplyToConfig(cfg, x)
	cfg.Seed = seed
	cfg.Simulation.Generations = fe.generations
	cfg.Simulation.Workers = 1
	cfg.Evolution.OnExtinction = string(sim.ExtinctionAbort)

	loop, err := sim.NewLoop(cfg, sim.WithLogger(fe.logger))
	if err != nil {
		return seedResult{}
	}
	summaries, err := loop.Run(context.Background())
	if errors.Is(err, sim.ErrDegenerateGeneration) {
		return seedResult{extinct: true}
	}
	if err != nil {
		return seedResult{}
	}
	return seedResult{score: TailSurvival(summaries, tailGenerations)}
}

// TailSurvival averages the survival rate of the last n summaries.
func TailSurvival(summaries []sim.Summary, n int) float64 {
	if n > len(summaries) {
		n = len(summaries)
	}
	if n == 0 {
		return 0
	}
	var sum float64
	for _, s := range summaries[len(summaries)-n:] {
		if s.Population > 0 {
			sum += float64(s.Survivors) / float64(s.Population)
		}
	}
	return sum / float64(n)
}
