// Package config provides configuration loading and access for the simulation.
package config

import (
	_ "embed"
	"errors"
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

//go:embed defaults.yaml
var defaultsYAML []byte

// ErrInvalidConfig is wrapped by every validation failure.
var ErrInvalidConfig = errors.New("invalid configuration")

// Config holds all simulation configuration parameters.
type Config struct {
	Seed       uint64           `yaml:"seed"`
	World      WorldConfig      `yaml:"world"`
	Population PopulationConfig `yaml:"population"`
	Genome     GenomeConfig     `yaml:"genome"`
	Simulation SimulationConfig `yaml:"simulation"`
	Mutation   MutationConfig   `yaml:"mutation"`
	Movement   MovementConfig   `yaml:"movement"`
	Spawn      SpawnConfig      `yaml:"spawn"`
	Fitness    FitnessConfig    `yaml:"fitness"`
	Evolution  EvolutionConfig  `yaml:"evolution"`
	Telemetry  TelemetryConfig  `yaml:"telemetry"`
	Bookmarks  BookmarksConfig  `yaml:"bookmarks"`
	Output     OutputConfig     `yaml:"output"`
	Screen     ScreenConfig     `yaml:"screen"`

	// Derived values computed after loading
	Derived DerivedConfig `yaml:"-"`
}

// WorldConfig holds the world bounds, fixed for the whole run.
type WorldConfig struct {
	Width  int `yaml:"width"`
	Height int `yaml:"height"`
}

// PopulationConfig holds gene pool and population sizes.
type PopulationConfig struct {
	PoolSize int `yaml:"pool_size"` // genomes harvested per generation
	Size     int `yaml:"size"`      // creatures spawned per generation
}

// GenomeConfig holds genome structure parameters.
type GenomeConfig struct {
	Length          int `yaml:"length"`           // genes per genome, constant for the run
	InternalNeurons int `yaml:"internal_neurons"` // hidden neurons genes can address
}

// SimulationConfig holds the tick loop parameters.
type SimulationConfig struct {
	IterationsPerGeneration int `yaml:"iterations_per_generation"`
	Generations             int `yaml:"generations"`
	Workers                 int `yaml:"workers"`            // movement workers (0 = GOMAXPROCS)
	ParallelThreshold       int `yaml:"parallel_threshold"` // min population to go parallel
}

// MutationConfig holds mutation parameters.
type MutationConfig struct {
	Rate float64 `yaml:"rate"` // per-gene probability
	Mode string  `yaml:"mode"` // replace | bitflip
}

// MovementConfig holds movement decoding parameters.
type MovementConfig struct {
	MaxStep          float64 `yaml:"max_step"`          // world units per tick at full output
	OscillatorPeriod int     `yaml:"oscillator_period"` // ticks
}

// SpawnConfig holds initial placement parameters.
type SpawnConfig struct {
	Mode string  `yaml:"mode"` // random | fixed
	X    float64 `yaml:"x"`    // fixed mode position
	Y    float64 `yaml:"y"`
}

// FitnessConfig selects the built-in survival predicate.
type FitnessConfig struct {
	Kind         string  `yaml:"kind"` // region | circle | edge | always | never
	MinX         float64 `yaml:"min_x"`
	MaxX         float64 `yaml:"max_x"`
	MinY         float64 `yaml:"min_y"`
	MaxY         float64 `yaml:"max_y"`
	Radius       float64 `yaml:"radius"`        // circle
	EdgeDistance float64 `yaml:"edge_distance"` // edge
}

// EvolutionConfig holds the multi-generation policy.
type EvolutionConfig struct {
	OnExtinction string `yaml:"on_extinction"` // abort | reseed
}

// TelemetryConfig holds telemetry parameters.
type TelemetryConfig struct {
	PerfWindow          int `yaml:"perf_window"`           // generations averaged by the perf collector
	BookmarkHistorySize int `yaml:"bookmark_history_size"` // generations of history for bookmarks
}

// BookmarksConfig holds bookmark detection thresholds.
type BookmarksConfig struct {
	Breakthrough BreakthroughConfig `yaml:"breakthrough"`
	Convergence  ConvergenceConfig  `yaml:"convergence"`
	Plateau      PlateauConfig      `yaml:"plateau"`
}

// BreakthroughConfig triggers when survival jumps above the rolling mean.
type BreakthroughConfig struct {
	Multiplier float64 `yaml:"multiplier"`
	MinRate    float64 `yaml:"min_rate"`
}

// ConvergenceConfig triggers when the pool loses diversity.
type ConvergenceConfig struct {
	DistinctFraction float64 `yaml:"distinct_fraction"`
}

// PlateauConfig triggers after survival stays flat for a while.
type PlateauConfig struct {
	CVThreshold   float64 `yaml:"cv_threshold"`
	StableWindows int     `yaml:"stable_windows"`
}

// OutputConfig holds collaborator cadence settings.
type OutputConfig struct {
	FrameEvery  int `yaml:"frame_every"`  // ticks between intermediate frames (0 = terminal only)
	RenderEvery int `yaml:"render_every"` // generations between rendered images
}

// ScreenConfig holds viewer window settings.
type ScreenConfig struct {
	Width     int `yaml:"width"`
	Height    int `yaml:"height"`
	TargetFPS int `yaml:"target_fps"`
}

// DerivedConfig holds computed values derived from the loaded config.
type DerivedConfig struct {
	WorldW32 float32 // World.Width as float32
	WorldH32 float32 // World.Height as float32
	MaxStep  float32 // Movement.MaxStep as float32
}

// global holds the loaded configuration.
var global *Config

// Init loads configuration from the given path, or uses embedded defaults if path is empty.
// Must be called before Cfg().
func Init(path string) error {
	cfg, err := Load(path)
	if err != nil {
		return err
	}
	global = cfg
	return nil
}

// MustInit is like Init but panics on error.
func MustInit(path string) {
	if err := Init(path); err != nil {
		panic(fmt.Sprintf("config: failed to initialize: %v", err))
	}
}

// Cfg returns the global configuration. Panics if Init was not called.
func Cfg() *Config {
	if global == nil {
		panic("config: Cfg() called before Init()")
	}
	return global
}

// Default returns the embedded defaults.
func Default() *Config {
	cfg, err := Load("")
	if err != nil {
		panic(fmt.Sprintf("config: embedded defaults are broken: %v", err))
	}
	return cfg
}

// Load loads configuration from a YAML file, merging with embedded defaults.
// If path is empty, only embedded defaults are used.
func Load(path string) (*Config, error) {
	// Start with embedded defaults
	cfg := &Config{}
	if err := yaml.Unmarshal(defaultsYAML, cfg); err != nil {
		return nil, fmt.Errorf("parsing embedded defaults: %w", err)
	}

	// Load user config if provided
	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("reading config file: %w", err)
		}
		// Unmarshal into same struct - only overwrites fields present in file
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("parsing config file: %w", err)
		}
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	cfg.ComputeDerived()

	return cfg, nil
}

// Clone returns a deep copy of the configuration.
func (c *Config) Clone() *Config {
	clone := *c
	return &clone
}

// ComputeDerived calculates values derived from loaded config.
// Call it again after modifying a loaded config in place.
func (c *Config) ComputeDerived() {
	c.Derived.WorldW32 = float32(c.World.Width)
	c.Derived.WorldH32 = float32(c.World.Height)
	c.Derived.MaxStep = float32(c.Movement.MaxStep)
}

// WriteYAML writes the configuration to a YAML file.
func (c *Config) WriteYAML(path string) error {
	data, err := yaml.Marshal(c)
	if err != nil {
		return fmt.Errorf("marshaling config: %w", err)
	}
	if err := os.WriteFile(path, data, 0644); err != nil {
		return fmt.Errorf("writing config file: %w", err)
	}
	return nil
}
