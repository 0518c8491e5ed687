// Package preprocess drives mocap feature extraction over reference
// trajectories: it splits a trajectory into clips, replays each clip through
// a walker, and serializes the resulting features into clip datasets, with a
// merge step to consolidate per-job outputs.
package preprocess

import "github.com/pkg/errors"

// Config holds the preprocessing options.
type Config struct {
	// StartStep is the first frame of the window in single-window mode.
	StartStep int `json:"start_step"`
	// ClipLength is the maximum core length of a clip, in frames.
	ClipLength int `json:"clip_length"`
	// MaxQVel is the maximum allowed joint velocity, in rad/s.
	MaxQVel float64 `json:"max_qvel"`
	// DT is the time step between reference poses, in seconds.
	DT float64 `json:"dt"`
	// AdjustZOffset enables the ground-alignment heuristic when nonzero.
	AdjustZOffset float64 `json:"adjust_z_offset"`
	// Verbatim logs a diagnostic for every clipped value beyond the report
	// threshold.
	Verbatim bool `json:"verbatim"`
	// RefSteps are the future-frame offsets downstream consumers may
	// reference; clips carry max(RefSteps)+1 lookahead frames so a consumer
	// never reads past the clip end.
	RefSteps []int `json:"ref_steps"`
}

// DefaultConfig returns the standard preprocessing options.
func DefaultConfig() Config {
	return Config{
		StartStep:     0,
		ClipLength:    2500,
		MaxQVel:       20.0,
		DT:            0.02,
		AdjustZOffset: 0.0,
		Verbatim:      false,
		RefSteps:      []int{1, 2, 3, 4, 5, 6, 7, 8, 9, 10},
	}
}

// Validate ensures the configuration is usable.
func (c *Config) Validate() error {
	if c.StartStep < 0 {
		return errors.New("start_step must not be negative")
	}
	if c.ClipLength <= 0 {
		return errors.New("clip_length must be positive")
	}
	if c.MaxQVel <= 0 {
		return errors.New("max_qvel must be positive")
	}
	if c.DT <= 0 {
		return errors.New("dt must be positive")
	}
	if len(c.RefSteps) == 0 {
		return errors.New("ref_steps must not be empty")
	}
	for _, s := range c.RefSteps {
		if s <= 0 {
			return errors.New("ref_steps must be positive")
		}
	}
	return nil
}

// applyDefaults fills unset fields, so sparse batch-args entries inherit the
// standard options.
func (c *Config) applyDefaults() {
	def := DefaultConfig()
	if c.ClipLength == 0 {
		c.ClipLength = def.ClipLength
	}
	if c.MaxQVel == 0 {
		c.MaxQVel = def.MaxQVel
	}
	if c.DT == 0 {
		c.DT = def.DT
	}
	if c.RefSteps == nil {
		c.RefSteps = def.RefSteps
	}
}

// lookahead is the number of extra frames a clip carries beyond its core
// range.
func (c *Config) lookahead() int {
	max := 0
	for _, s := range c.RefSteps {
		if s > max {
			max = s
		}
	}
	return max + 1
}
