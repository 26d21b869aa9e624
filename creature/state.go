package creature

import "fmt"

// State is a creature's coarse behavioral mode. Each kind decides its own
// transitions; the type is only a shared vocabulary.
type State uint8

const (
	Wandering State = iota
	SeekingTarget
	SeekingFood
	Resting
	Fleeing
	Drifting
)

var stateNames = [...]string{
	Wandering:     "wandering",
	SeekingTarget: "seeking_target",
	SeekingFood:   "seeking_food",
	Resting:       "resting",
	Fleeing:       "fleeing",
	Drifting:      "drifting",
}

// States lists every state in declaration order.
func States() []State {
	return []State{Wandering, SeekingTarget, SeekingFood, Resting, Fleeing, Drifting}
}

func (s State) String() string {
	if int(s) < len(stateNames) {
		return stateNames[s]
	}
	return fmt.Sprintf("state(%d)", uint8(s))
}

// MarshalText encodes the state by name.
func (s State) MarshalText() ([]byte, error) { return []byte(s.String()), nil }

// Kind identifies a creature kind. The set is closed.
type Kind uint8

const (
	KindSnake Kind = iota + 1
	KindPlankton
)

func (k Kind) String() string {
	switch k {
	case KindSnake:
		return "snake"
	case KindPlankton:
		return "plankton"
	}
	return fmt.Sprintf("kind(%d)", uint8(k))
}

// MarshalText encodes the kind by name.
func (k Kind) MarshalText() ([]byte, error) { return []byte(k.String()), nil }
