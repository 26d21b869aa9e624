package creature

import (
	"math/rand"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pthm-cable/softies/config"
)

func testAttributes(t *testing.T, diet string) *Attributes {
	t.Helper()
	a, err := NewAttributes(config.AttributesConfig{
		MaxEnergy:          100,
		EnergyRecoveryRate: 1,
		MaxSatiety:         100,
		MetabolicRate:      1,
		Diet:               diet,
		Size:               1,
		PreyTags:           []string{"plankton"},
		SelfTags:           []string{"snake"},
	})
	require.NoError(t, err)
	return a
}

func TestRestingRecoveryScenario(t *testing.T) {
	a := testAttributes(t, "carnivore")
	a.SetEnergy(50)

	a.UpdatePassive(10, true, 0)
	assert.Equal(t, 60.0, a.Energy())

	a.SetEnergy(95)
	a.UpdatePassive(10, true, 0)
	assert.Equal(t, 100.0, a.Energy())
}

func TestActiveDrain(t *testing.T) {
	a := testAttributes(t, "carnivore")
	a.UpdatePassive(10, false, 0)

	assert.Equal(t, 95.0, a.Energy())
	assert.Equal(t, 90.0, a.Satiety())
}

func TestPhotosynthesis(t *testing.T) {
	a := testAttributes(t, "photosynthesizer")
	a.SetEnergy(10)

	a.UpdatePassive(1, false, 1)
	// -0.5 activity drain, +1 from full light
	assert.InDelta(t, 10.5, a.Energy(), 1e-12)

	a.UpdatePassive(1, false, 0)
	assert.InDelta(t, 10.0, a.Energy(), 1e-12)

	// Light above 1 is clamped.
	a.UpdatePassive(1, false, 5)
	assert.InDelta(t, 10.5, a.Energy(), 1e-12)
}

func TestAttributesAlwaysClamped(t *testing.T) {
	a := testAttributes(t, "omnivore")
	rng := rand.New(rand.NewSource(7))

	for i := 0; i < 10000; i++ {
		v := (rng.Float64() - 0.5) * 400
		switch rng.Intn(6) {
		case 0:
			a.ConsumeEnergy(v)
		case 1:
			a.GainEnergy(v)
		case 2:
			a.GainSatiety(v)
		case 3:
			a.SetSatiety(v)
		case 4:
			a.UpdatePassive(rng.Float64()*20, rng.Intn(2) == 0, rng.Float64())
		case 5:
			a.SetEnergy(v)
		}
		require.GreaterOrEqual(t, a.Energy(), 0.0)
		require.LessOrEqual(t, a.Energy(), a.MaxEnergy())
		require.GreaterOrEqual(t, a.Satiety(), 0.0)
		require.LessOrEqual(t, a.Satiety(), a.MaxSatiety())
	}
}

func TestHungryAndTired(t *testing.T) {
	a := testAttributes(t, "carnivore")
	assert.False(t, a.IsHungry())
	assert.False(t, a.IsTired())

	a.SetSatiety(49)
	a.SetEnergy(19)
	assert.True(t, a.IsHungry())
	assert.True(t, a.IsTired())
}

func TestCanEat(t *testing.T) {
	prey := Info{Size: 0.2, SelfTags: []string{"plankton"}}
	big := Info{Size: 2, SelfTags: []string{"plankton"}}
	other := Info{Size: 0.2, SelfTags: []string{"snake"}}

	tests := []struct {
		diet  string
		other Info
		want  bool
	}{
		{"carnivore", prey, true},
		{"omnivore", prey, true},
		{"herbivore", prey, false},
		{"photosynthesizer", prey, false},
		{"carnivore", big, false},
		{"carnivore", other, false},
	}
	for _, tt := range tests {
		a := testAttributes(t, tt.diet)
		assert.Equalf(t, tt.want, a.CanEat(tt.other), "%s eating %v", tt.diet, tt.other.SelfTags)
	}
}

func TestCanBeEatenBy(t *testing.T) {
	a := testAttributes(t, "carnivore") // size 1, tagged "snake"

	tests := []struct {
		name     string
		predator Info
		want     bool
	}{
		{"matching carnivore", Info{Diet: Carnivore, Size: 1, PreyTags: []string{"snake"}}, true},
		{"matching omnivore", Info{Diet: Omnivore, Size: 0.7, PreyTags: []string{"snake"}}, true},
		{"herbivore", Info{Diet: Herbivore, Size: 1, PreyTags: []string{"snake"}}, false},
		{"too small", Info{Diet: Carnivore, Size: 0.5, PreyTags: []string{"snake"}}, false},
		{"other prey", Info{Diet: Carnivore, Size: 1, PreyTags: []string{"plankton"}}, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, a.CanBeEatenBy(tt.predator))
			assert.Equal(t, tt.want, tt.predator.CanEat(Info{Size: a.Size(), SelfTags: a.SelfTags()}))
		})
	}
}

func TestParseDiet(t *testing.T) {
	for _, d := range []Diet{Herbivore, Carnivore, Omnivore, Photosynthesizer} {
		got, err := ParseDiet(d.String())
		require.NoError(t, err)
		assert.Equal(t, d, got)
	}
	_, err := ParseDiet("lithotroph")
	assert.Error(t, err)
}
