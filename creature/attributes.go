package creature

import (
	"fmt"
	"math"

	"github.com/pthm-cable/softies/config"
)

// Diet classifies what a creature feeds on.
type Diet uint8

const (
	Herbivore Diet = iota
	Carnivore
	Omnivore
	// Photosynthesizer recovers energy from light and never eats.
	Photosynthesizer
)

func (d Diet) String() string {
	switch d {
	case Herbivore:
		return "herbivore"
	case Carnivore:
		return "carnivore"
	case Omnivore:
		return "omnivore"
	case Photosynthesizer:
		return "photosynthesizer"
	}
	return fmt.Sprintf("diet(%d)", uint8(d))
}

// ParseDiet parses a diet name as used in configuration files.
func ParseDiet(s string) (Diet, error) {
	switch s {
	case "herbivore":
		return Herbivore, nil
	case "carnivore":
		return Carnivore, nil
	case "omnivore":
		return Omnivore, nil
	case "photosynthesizer":
		return Photosynthesizer, nil
	}
	return 0, fmt.Errorf("unknown diet %q", s)
}

// activityDrain scales the metabolic rate into energy spent while active.
const activityDrain = 0.5

// Attributes is a creature's energy and feeding bookkeeping. Energy and
// satiety stay within [0, max] after every mutation; diet and size never
// change after construction.
type Attributes struct {
	energy     float64
	maxEnergy  float64
	recovery   float64
	satiety    float64
	maxSatiety float64
	metabolic  float64
	size       float64
	diet       Diet
	preyTags   []string
	selfTags   []string
}

// NewAttributes builds attributes from configuration, starting full.
func NewAttributes(c config.AttributesConfig) (*Attributes, error) {
	diet, err := ParseDiet(c.Diet)
	if err != nil {
		return nil, err
	}
	if c.MaxEnergy < 0 || c.MaxSatiety < 0 {
		return nil, fmt.Errorf("attributes: negative maximum (energy %g, satiety %g)", c.MaxEnergy, c.MaxSatiety)
	}
	return &Attributes{
		energy:     c.MaxEnergy,
		maxEnergy:  c.MaxEnergy,
		recovery:   c.EnergyRecoveryRate,
		satiety:    c.MaxSatiety,
		maxSatiety: c.MaxSatiety,
		metabolic:  c.MetabolicRate,
		size:       c.Size,
		diet:       diet,
		preyTags:   append([]string(nil), c.PreyTags...),
		selfTags:   append([]string(nil), c.SelfTags...),
	}, nil
}

func (a *Attributes) Energy() float64     { return a.energy }
func (a *Attributes) MaxEnergy() float64  { return a.maxEnergy }
func (a *Attributes) Satiety() float64    { return a.satiety }
func (a *Attributes) MaxSatiety() float64 { return a.maxSatiety }
func (a *Attributes) Size() float64       { return a.size }
func (a *Attributes) Diet() Diet          { return a.diet }

// SelfTags returns the tags this creature is known by. The slice must not be modified.
func (a *Attributes) SelfTags() []string { return a.selfTags }

// PreyTags returns the tags this creature hunts. The slice must not be modified.
func (a *Attributes) PreyTags() []string { return a.preyTags }

// EnergyFraction returns energy as a fraction of its maximum.
func (a *Attributes) EnergyFraction() float64 { return fraction(a.energy, a.maxEnergy) }

// SatietyFraction returns satiety as a fraction of its maximum.
func (a *Attributes) SatietyFraction() float64 { return fraction(a.satiety, a.maxSatiety) }

// SetEnergy sets energy, clamped to [0, MaxEnergy].
func (a *Attributes) SetEnergy(v float64) { a.energy = clamp(v, a.maxEnergy) }

// SetSatiety sets satiety, clamped to [0, MaxSatiety].
func (a *Attributes) SetSatiety(v float64) { a.satiety = clamp(v, a.maxSatiety) }

// ConsumeEnergy spends energy.
func (a *Attributes) ConsumeEnergy(amount float64) { a.SetEnergy(a.energy - amount) }

// GainEnergy restores energy.
func (a *Attributes) GainEnergy(amount float64) { a.SetEnergy(a.energy + amount) }

// GainSatiety records a meal.
func (a *Attributes) GainSatiety(amount float64) { a.SetSatiety(a.satiety + amount) }

// Refill restores energy and satiety to their maxima.
func (a *Attributes) Refill() {
	a.energy = a.maxEnergy
	a.satiety = a.maxSatiety
}

// UpdatePassive advances the attributes by dt seconds. Satiety always
// drains with the metabolic rate. Resting creatures recover energy, active
// ones burn it. Photosynthesizers also gain energy in proportion to light,
// a fraction in [0, 1].
func (a *Attributes) UpdatePassive(dt float64, resting bool, light float64) {
	if dt <= 0 {
		return
	}
	a.SetSatiety(a.satiety - a.metabolic*dt)
	if resting {
		a.GainEnergy(a.recovery * dt)
	} else {
		a.ConsumeEnergy(a.metabolic * activityDrain * dt)
	}
	if a.diet == Photosynthesizer {
		a.GainEnergy(a.recovery * clamp(light, 1) * dt)
	}
}

// IsHungry reports whether satiety is below half.
func (a *Attributes) IsHungry() bool { return a.satiety < a.maxSatiety*0.5 }

// IsTired reports whether energy is below a fifth.
func (a *Attributes) IsTired() bool { return a.energy < a.maxEnergy*0.2 }

// CanEat reports whether this creature would eat other: it must not be a
// herbivore or photosynthesizer, other must be at most 1.5 times its size,
// and one of its prey tags must be among other's self tags.
func (a *Attributes) CanEat(other Info) bool {
	return canEat(a.diet, a.size, a.preyTags, other)
}

// CanBeEatenBy reports whether predator would eat this creature.
func (a *Attributes) CanBeEatenBy(predator Info) bool {
	return predator.CanEat(Info{Size: a.size, SelfTags: a.selfTags})
}

func canEat(diet Diet, size float64, preyTags []string, other Info) bool {
	if diet == Herbivore || diet == Photosynthesizer {
		return false
	}
	if other.Size > size*1.5 {
		return false
	}
	for _, p := range preyTags {
		for _, s := range other.SelfTags {
			if p == s {
				return true
			}
		}
	}
	return false
}

// View returns a value copy for renderers and telemetry.
func (a *Attributes) View() AttributesView {
	return AttributesView{
		Energy:     a.energy,
		MaxEnergy:  a.maxEnergy,
		Satiety:    a.satiety,
		MaxSatiety: a.maxSatiety,
		Size:       a.size,
		Diet:       a.diet.String(),
	}
}

// AttributesView is a read-only copy of Attributes.
type AttributesView struct {
	Energy     float64 `json:"energy"`
	MaxEnergy  float64 `json:"max_energy"`
	Satiety    float64 `json:"satiety"`
	MaxSatiety float64 `json:"max_satiety"`
	Size       float64 `json:"size"`
	Diet       string  `json:"diet"`
}

func clamp(v, hi float64) float64 {
	if math.IsNaN(v) || v < 0 {
		return 0
	}
	if v > hi {
		return hi
	}
	return v
}

func fraction(v, hi float64) float64 {
	if hi <= 0 {
		return 0
	}
	return v / hi
}
