// Package creatures implements the concrete creature kinds.
package creatures

import (
	"fmt"

	"github.com/ojrac/opensimplex-go"

	"github.com/pthm-cable/softies/config"
	"github.com/pthm-cable/softies/creature"
)

// Kinds lists every creature kind in spawn order.
func Kinds() []creature.Kind {
	return []creature.Kind{creature.KindSnake, creature.KindPlankton}
}

// Factory builds creatures from configuration. Creatures built by one
// factory share its current field.
type Factory struct {
	cfg     *config.Config
	current opensimplex.Noise
}

// NewFactory creates a factory. seed drives the ocean current field.
func NewFactory(cfg *config.Config, seed int64) *Factory {
	return &Factory{cfg: cfg, current: opensimplex.New(seed)}
}

// New builds an unspawned creature of the given kind.
func (f *Factory) New(kind creature.Kind) (creature.Creature, error) {
	switch kind {
	case creature.KindSnake:
		return NewSnake(f.cfg.Snake)
	case creature.KindPlankton:
		return NewPlankton(f.cfg.Plankton, f.current)
	}
	return nil, fmt.Errorf("creatures: unknown kind %v", kind)
}

// Count returns how many creatures of kind the configuration asks for.
func (f *Factory) Count(kind creature.Kind) int {
	switch kind {
	case creature.KindSnake:
		return f.cfg.Snake.Count
	case creature.KindPlankton:
		return f.cfg.Plankton.Count
	}
	return 0
}
