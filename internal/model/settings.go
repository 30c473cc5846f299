package model

import "fmt"

// Settings holds packer configuration.
type Settings struct {
	// Search settings
	Hints   Hint `json:"hints" yaml:"hints" mapstructure:"hints"`       // Orderings tried besides the caller order
	Workers int  `json:"workers" yaml:"workers" mapstructure:"workers"` // Parallel attempts, 0 = one per CPU

	// Canvas settings
	MaxSide    int `json:"max_side" yaml:"max_side" mapstructure:"max_side"`          // Hard ceiling for either canvas side
	MaxGrowths int `json:"max_growths" yaml:"max_growths" mapstructure:"max_growths"` // Growth steps per attempt, 0 = unbounded
	Padding    int `json:"padding" yaml:"padding" mapstructure:"padding"`             // Empty space right of and below each rect

	// Ordering refinement (genetic search), disabled when Generations is 0
	Generations    int     `json:"generations" yaml:"generations" mapstructure:"generations"`
	PopulationSize int     `json:"population_size" yaml:"population_size" mapstructure:"population_size"`
	MutationRate   float64 `json:"mutation_rate" yaml:"mutation_rate" mapstructure:"mutation_rate"`
	Seed           int64   `json:"seed" yaml:"seed" mapstructure:"seed"`
}

// DefaultSettings returns the settings used when nothing is configured.
func DefaultSettings() Settings {
	return Settings{
		Hints:          FindBest,
		Workers:        0,
		MaxSide:        16384,
		MaxGrowths:     0,
		Padding:        0,
		Generations:    0,
		PopulationSize: 30,
		MutationRate:   0.15,
		Seed:           42,
	}
}

// Validate checks for values the engine cannot work with.
func (s Settings) Validate() error {
	if s.MaxSide <= 0 {
		return fmt.Errorf("max side must be positive, got %d", s.MaxSide)
	}
	if s.Workers < 0 || s.MaxGrowths < 0 || s.Padding < 0 || s.Generations < 0 || s.PopulationSize < 0 {
		return fmt.Errorf("workers, max growths, padding, generations and population size must not be negative")
	}
	if s.MutationRate < 0 || s.MutationRate > 1 {
		return fmt.Errorf("mutation rate must be between 0 and 1, got %g", s.MutationRate)
	}
	return nil
}
