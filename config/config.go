// Package config provides configuration loading and access for the simulation.
package config

import (
	_ "embed"
	"fmt"
	"math"
	"os"

	"gonum.org/v1/gonum/spatial/r2"
	"gopkg.in/yaml.v3"
)

//go:embed defaults.yaml
var defaultsYAML []byte

// Config holds all simulation configuration parameters.
type Config struct {
	Screen     ScreenConfig     `yaml:"screen"`
	World      WorldConfig      `yaml:"world"`
	Physics    PhysicsConfig    `yaml:"physics"`
	Simulation SimulationConfig `yaml:"simulation"`
	Snake      SnakeConfig      `yaml:"snake"`
	Plankton   PlanktonConfig   `yaml:"plankton"`
	Telemetry  TelemetryConfig  `yaml:"telemetry"`
	Stream     StreamConfig     `yaml:"stream"`

	// Derived values computed after loading
	Derived DerivedConfig `yaml:"-"`
}

// ScreenConfig holds display settings.
type ScreenConfig struct {
	Width          int     `yaml:"width"`
	Height         int     `yaml:"height"`
	TargetFPS      int     `yaml:"target_fps"`
	PixelsPerMeter float64 `yaml:"pixels_per_meter"`
}

// WorldConfig holds the aquarium dimensions in meters.
// The world is centered on the origin with y pointing up.
type WorldConfig struct {
	Width         float64 `yaml:"width"`
	Height        float64 `yaml:"height"`
	WallThickness float64 `yaml:"wall_thickness"`
	SurfaceY      float64 `yaml:"surface_y"`   // water surface height (light source)
	LightModel    string  `yaml:"light_model"` // "depth" or "none"
	LightDepth    float64 `yaml:"light_depth"` // e-folding depth for the depth light model
}

// PhysicsConfig holds global physics world parameters.
type PhysicsConfig struct {
	DT                 float64   `yaml:"dt"`           // fixed headless step
	MaxFrameDT         float64   `yaml:"max_frame_dt"` // clamp for variable frame times
	Substeps           int       `yaml:"substeps"`
	Gravity            []float64 `yaml:"gravity"`
	SolverIterations   int       `yaml:"solver_iterations"`
	PositionIterations int       `yaml:"position_iterations"`
	GridCellSize       float64   `yaml:"grid_cell_size"`
}

// SimulationConfig holds orchestrator switches.
type SimulationConfig struct {
	ParallelDecisions bool    `yaml:"parallel_decisions"`
	ParallelThreshold int     `yaml:"parallel_threshold"` // below this, decisions stay serial
	FailsafeMargin    float64 `yaml:"failsafe_margin"`
}

// AttributesConfig holds the starting attributes for a creature kind.
type AttributesConfig struct {
	MaxEnergy          float64  `yaml:"max_energy"`
	EnergyRecoveryRate float64  `yaml:"energy_recovery_rate"`
	MaxSatiety         float64  `yaml:"max_satiety"`
	MetabolicRate      float64  `yaml:"metabolic_rate"`
	Diet               string   `yaml:"diet"`
	Size               float64  `yaml:"size"`
	PreyTags           []string `yaml:"prey_tags"`
	SelfTags           []string `yaml:"self_tags"`
}

// SnakeConfig holds the segmented chain creature's constants.
type SnakeConfig struct {
	Count           int              `yaml:"count"`
	Segments        int              `yaml:"segments"`
	SegmentRadius   float64          `yaml:"segment_radius"`
	SegmentSpacing  float64          `yaml:"segment_spacing"`
	Density         float64          `yaml:"density"`
	Friction        float64          `yaml:"friction"`
	Restitution     float64          `yaml:"restitution"`
	LinearDamping   float64          `yaml:"linear_damping"`
	AngularDamping  float64          `yaml:"angular_damping"`
	JointLimitDeg   float64          `yaml:"joint_limit_deg"`
	MotorMaxForce   float64          `yaml:"motor_max_force"`
	RestStiffness   float64          `yaml:"rest_stiffness"` // joint spring while resting
	RestDamping     float64          `yaml:"rest_damping"`
	WiggleSpeed     float64          `yaml:"wiggle_speed"`
	WiggleAmplitude float64          `yaml:"wiggle_amplitude"`
	WiggleFrequency float64          `yaml:"wiggle_frequency"`
	Speed           float64          `yaml:"speed"`
	SteerRate       float64          `yaml:"steer_rate"`
	WanderTurnRate  float64          `yaml:"wander_turn_rate"`
	SenseRadius     float64          `yaml:"sense_radius"`
	BiteRange       float64          `yaml:"bite_range"`
	MealSatiety     float64          `yaml:"meal_satiety"`
	TangentDrag     float64          `yaml:"tangent_drag"`
	NormalDrag      float64          `yaml:"normal_drag"`
	Buoyancy        BuoyancyConfig   `yaml:"buoyancy"`
	Attributes      AttributesConfig `yaml:"attributes"`
}

// PlanktonConfig holds the dual-body drifter's constants.
type PlanktonConfig struct {
	Count           int              `yaml:"count"`
	BodyRadius      float64          `yaml:"body_radius"`
	BodySpacing     float64          `yaml:"body_spacing"`
	Density         float64          `yaml:"density"`
	Friction        float64          `yaml:"friction"`
	Restitution     float64          `yaml:"restitution"`
	LinearDamping   float64          `yaml:"linear_damping"`
	Drag            float64          `yaml:"drag"`
	SenseRadius     float64          `yaml:"sense_radius"`
	SeparationDist  float64          `yaml:"separation_dist"`
	Separation      float64          `yaml:"separation"`
	Alignment       float64          `yaml:"alignment"`
	Cohesion        float64          `yaml:"cohesion"`
	FleeImpulse     float64          `yaml:"flee_impulse"`
	MaxSteer        float64          `yaml:"max_steer"`
	CurrentStrength float64          `yaml:"current_strength"`
	CurrentScale    float64          `yaml:"current_scale"`
	CurrentSpeed    float64          `yaml:"current_speed"`
	Buoyancy        BuoyancyConfig   `yaml:"buoyancy"`
	Attributes      AttributesConfig `yaml:"attributes"`
}

// BuoyancyConfig describes a restoring force toward a target depth.
type BuoyancyConfig struct {
	TargetDepth float64 `yaml:"target_depth"` // meters below the surface
	Stiffness   float64 `yaml:"stiffness"`    // force per meter of displacement per kg
	Damping     float64 `yaml:"damping"`      // vertical velocity damping per kg
	Neutral     bool    `yaml:"neutral"`      // cancel gravity
}

// TelemetryConfig holds telemetry parameters.
type TelemetryConfig struct {
	StatsWindow         float64 `yaml:"stats_window"`
	PerfCollectorWindow int     `yaml:"perf_collector_window"`
}

// StreamConfig holds remote viewer parameters.
type StreamConfig struct {
	Addr          string  `yaml:"addr"`
	FrameInterval float64 `yaml:"frame_interval"` // seconds of sim time between pushed frames
	QueueSize     int     `yaml:"queue_size"`
}

// DerivedConfig holds computed values derived from the loaded config.
type DerivedConfig struct {
	Bounds        r2.Box  // world rectangle, centered on the origin
	Gravity       r2.Vec  // Physics.Gravity as a vector
	JointLimitRad float64 // Snake.JointLimitDeg in radians
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

// Load loads configuration from a YAML file, merging with embedded defaults.
// If path is empty, only embedded defaults are used.
func Load(path string) (*Config, error) {
	cfg := &Config{}
	if err := yaml.Unmarshal(defaultsYAML, cfg); err != nil {
		return nil, fmt.Errorf("parsing embedded defaults: %w", err)
	}

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

	if err := cfg.validate(); err != nil {
		return nil, err
	}
	cfg.computeDerived()

	return cfg, nil
}

// validate rejects values the simulation cannot run with.
func (c *Config) validate() error {
	if c.World.Width <= 0 || c.World.Height <= 0 {
		return fmt.Errorf("world: width and height must be positive, got %gx%g", c.World.Width, c.World.Height)
	}
	if c.Physics.DT <= 0 {
		return fmt.Errorf("physics: dt must be positive, got %g", c.Physics.DT)
	}
	if len(c.Physics.Gravity) != 0 && len(c.Physics.Gravity) != 2 {
		return fmt.Errorf("physics: gravity must have 2 components, got %d", len(c.Physics.Gravity))
	}
	if c.Snake.Segments < 1 {
		return fmt.Errorf("snake: segments must be at least 1, got %d", c.Snake.Segments)
	}
	switch c.World.LightModel {
	case "", "depth", "none":
	default:
		return fmt.Errorf("world: unknown light_model %q", c.World.LightModel)
	}
	return nil
}

// computeDerived calculates values derived from loaded config.
func (c *Config) computeDerived() {
	hw, hh := c.World.Width/2, c.World.Height/2
	c.Derived.Bounds = r2.Box{Min: r2.Vec{X: -hw, Y: -hh}, Max: r2.Vec{X: hw, Y: hh}}

	if len(c.Physics.Gravity) == 2 {
		c.Derived.Gravity = r2.Vec{X: c.Physics.Gravity[0], Y: c.Physics.Gravity[1]}
	}
	if c.Physics.MaxFrameDT <= 0 {
		c.Physics.MaxFrameDT = 4 * c.Physics.DT
	}
	if c.Physics.Substeps < 1 {
		c.Physics.Substeps = 1
	}
	if c.Physics.GridCellSize <= 0 {
		c.Physics.GridCellSize = 1
	}
	if c.World.LightModel == "" {
		c.World.LightModel = "depth"
	}
	c.Derived.JointLimitRad = c.Snake.JointLimitDeg * math.Pi / 180
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
