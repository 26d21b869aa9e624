package main

import (
	"github.com/pthm-cable/softies/config"
)

// ParamSpec defines a single optimizable parameter.
type ParamSpec struct {
	Name  string  // Human-readable name
	Path  string  // Config path for logging
	Min   float64 // Lower bound
	Max   float64 // Upper bound
	Field func(*config.Config) *float64
}

// ParamVector holds the set of all optimizable parameters.
type ParamVector struct {
	Specs []ParamSpec
}

// NewParamVector creates the standard set of optimizable parameters.
func NewParamVector() *ParamVector {
	return &ParamVector{
		Specs: []ParamSpec{
			// Snake locomotion
			{Name: "snake_speed", Path: "snake.speed", Min: 0.8, Max: 4.0,
				Field: func(c *config.Config) *float64 { return &c.Snake.Speed }},
			{Name: "snake_steer_rate", Path: "snake.steer_rate", Min: 1.0, Max: 10.0,
				Field: func(c *config.Config) *float64 { return &c.Snake.SteerRate }},
			{Name: "snake_wiggle_amplitude", Path: "snake.wiggle_amplitude", Min: 0.5, Max: 4.0,
				Field: func(c *config.Config) *float64 { return &c.Snake.WiggleAmplitude }},
			// Snake hunting
			{Name: "snake_sense_radius", Path: "snake.sense_radius", Min: 1.0, Max: 6.0,
				Field: func(c *config.Config) *float64 { return &c.Snake.SenseRadius }},
			{Name: "snake_meal_satiety", Path: "snake.meal_satiety", Min: 5, Max: 50,
				Field: func(c *config.Config) *float64 { return &c.Snake.MealSatiety }},
			// Snake metabolism
			{Name: "snake_metabolic_rate", Path: "snake.attributes.metabolic_rate", Min: 0.3, Max: 3.0,
				Field: func(c *config.Config) *float64 { return &c.Snake.Attributes.MetabolicRate }},
			{Name: "snake_recovery_rate", Path: "snake.attributes.energy_recovery_rate", Min: 1.0, Max: 10.0,
				Field: func(c *config.Config) *float64 { return &c.Snake.Attributes.EnergyRecoveryRate }},
			// Plankton evasion
			{Name: "plankton_flee_impulse", Path: "plankton.flee_impulse", Min: 0, Max: 0.08,
				Field: func(c *config.Config) *float64 { return &c.Plankton.FleeImpulse }},
			{Name: "plankton_sense_radius", Path: "plankton.sense_radius", Min: 0.5, Max: 3.0,
				Field: func(c *config.Config) *float64 { return &c.Plankton.SenseRadius }},
			{Name: "plankton_current_strength", Path: "plankton.current_strength", Min: 0, Max: 1.0,
				Field: func(c *config.Config) *float64 { return &c.Plankton.CurrentStrength }},
		},
	}
}

// Dim returns the number of parameters.
func (pv *ParamVector) Dim() int {
	return len(pv.Specs)
}

// Normalize converts raw parameter values to [0,1] range.
func (pv *ParamVector) Normalize(raw []float64) []float64 {
	normalized := make([]float64, len(pv.Specs))
	for i, spec := range pv.Specs {
		normalized[i] = (raw[i] - spec.Min) / (spec.Max - spec.Min)
	}
	return normalized
}

// Denormalize converts [0,1] values back to raw parameter values.
func (pv *ParamVector) Denormalize(normalized []float64) []float64 {
	raw := make([]float64, len(pv.Specs))
	for i, spec := range pv.Specs {
		raw[i] = spec.Min + normalized[i]*(spec.Max-spec.Min)
	}
	return raw
}

// Clamp ensures all values are within bounds.
func (pv *ParamVector) Clamp(v []float64) []float64 {
	clamped := make([]float64, len(pv.Specs))
	for i, spec := range pv.Specs {
		clamped[i] = min(spec.Max, max(spec.Min, v[i]))
	}
	return clamped
}

// ApplyToConfig writes clamped parameter values into cfg.
func (pv *ParamVector) ApplyToConfig(cfg *config.Config, values []float64) {
	for i, v := range pv.Clamp(values) {
		*pv.Specs[i].Field(cfg) = v
	}
}

// ExtractFromConfig reads the current parameter values from cfg.
func (pv *ParamVector) ExtractFromConfig(cfg *config.Config) []float64 {
	out := make([]float64, len(pv.Specs))
	for i, spec := range pv.Specs {
		out[i] = *spec.Field(cfg)
	}
	return out
}
