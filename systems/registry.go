package systems

// StageInfo describes one timed stage of a generation for UI display.
type StageInfo struct {
	ID          string // Internal identifier (used for perf tracking)
	Name        string // Display name
	Description string // What this stage does
	Category    string // Grouping (e.g., "core", "selection")
}

// StageRegistry holds metadata about the timed stages of a generation.
// This centralizes naming so the viewer and perf tracker stay in sync.
type StageRegistry struct {
	stages []StageInfo
	byID   map[string]StageInfo
}

// NewStageRegistry creates a registry with all known stages.
func NewStageRegistry() *StageRegistry {
	reg := &StageRegistry{
		byID: make(map[string]StageInfo),
	}
	reg.registerDefaults()
	return reg
}

// registerDefaults adds the generation phases in execution order.
// IDs match sim.Phase names.
func (r *StageRegistry) registerDefaults() {
	r.Register(StageInfo{ID: "spawning", Name: "Spawn", Description: "Draws genomes from the pool and places creatures", Category: "core"})
	r.Register(StageInfo{ID: "running", Name: "Movement", Description: "Steps every creature once per tick", Category: "core"})
	r.Register(StageInfo{ID: "evaluating", Name: "Fitness", Description: "Applies the survival predicate to terminal states", Category: "selection"})
	r.Register(StageInfo{ID: "harvesting", Name: "Harvest", Description: "Samples survivors and mutates the next pool", Category: "selection"})
}

// Register adds a stage to the registry.
func (r *StageRegistry) Register(info StageInfo) {
	if _, ok := r.byID[info.ID]; !ok {
		r.stages = append(r.stages, info)
	}
	r.byID[info.ID] = info
}

// Get returns stage info by ID.
func (r *StageRegistry) Get(id string) (StageInfo, bool) {
	info, ok := r.byID[id]
	return info, ok
}

// GetName returns the display name for a stage ID.
// Falls back to the ID itself if not found.
func (r *StageRegistry) GetName(id string) string {
	if info, ok := r.byID[id]; ok {
		return info.Name
	}
	return id
}

// IDs returns all stage IDs in registration order.
func (r *StageRegistry) IDs() []string {
	ids := make([]string, len(r.stages))
	for i, info := range r.stages {
		ids[i] = info.ID
	}
	return ids
}
