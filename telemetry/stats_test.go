package telemetry

import (
	"math"
	"testing"

	"github.com/pthm-cable/softies/creature"
)

func TestDescribe(t *testing.T) {
	tests := []struct {
		name          string
		values        []float64
		mean, std     float64
		p10, p50, p90 float64
	}{
		{"empty", nil, 0, 0, 0, 0, 0},
		{"single", []float64{0.5}, 0.5, 0, 0.5, 0.5, 0.5},
		{"one to ten", []float64{10, 9, 8, 7, 6, 5, 4, 3, 2, 1}, 5.5, 3.0277, 1, 5, 9},
		{"constant", []float64{2, 2, 2, 2}, 2, 0, 2, 2, 2},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			d := Describe(tt.values)
			for _, c := range []struct {
				field     string
				got, want float64
			}{
				{"mean", d.Mean, tt.mean},
				{"std", d.Std, tt.std},
				{"p10", d.P10, tt.p10},
				{"p50", d.P50, tt.p50},
				{"p90", d.P90, tt.p90},
			} {
				if math.Abs(c.got-c.want) > 0.001 {
					t.Errorf("%s = %v, want %v", c.field, c.got, c.want)
				}
			}
		})
	}
}

func TestDescribeLeavesInputUnsorted(t *testing.T) {
	values := []float64{3, 1, 2}
	Describe(values)
	if values[0] != 3 || values[1] != 1 || values[2] != 2 {
		t.Errorf("input reordered: %v", values)
	}
}

func TestCollectorFlush(t *testing.T) {
	c := NewCollector(1.0, 0.1)
	if c.WindowTicks() != 10 {
		t.Fatalf("window ticks = %d, want 10", c.WindowTicks())
	}
	if c.ShouldFlush(9) {
		t.Error("flushed before the window closed")
	}
	if !c.ShouldFlush(10) {
		t.Error("window should close at tick 10")
	}

	c.RecordMeal()
	c.RecordMeal()
	c.RecordRespawn()
	c.RecordFailsafe()

	s := c.Flush(10, 1.0, []CreatureSample{
		{Kind: creature.KindSnake, State: creature.SeekingFood, Energy: 1, Satiety: 0.2},
		{Kind: creature.KindPlankton, State: creature.Drifting, Energy: 0.5, Satiety: 1},
		{Kind: creature.KindPlankton, State: creature.Fleeing, Energy: 0, Satiety: 1},
	})

	if s.WindowStart != 0 || s.WindowEnd != 10 {
		t.Errorf("window = [%d, %d], want [0, 10]", s.WindowStart, s.WindowEnd)
	}
	if s.Snakes != 1 || s.Plankton != 2 {
		t.Errorf("population = %d snakes, %d plankton", s.Snakes, s.Plankton)
	}
	if s.SeekingFood != 1 || s.Drifting != 1 || s.Fleeing != 1 || s.Resting != 0 {
		t.Errorf("unexpected state counts: %+v", s)
	}
	if s.Meals != 2 || s.Respawns != 1 || s.Despawns != 0 || s.FailsafeCorrections != 1 {
		t.Errorf("unexpected event counts: %+v", s)
	}
	if math.Abs(s.EnergyMean-0.5) > 1e-12 || s.EnergyP50 != 0.5 {
		t.Errorf("energy mean %v p50 %v, want 0.5", s.EnergyMean, s.EnergyP50)
	}

	next := c.Flush(20, 2.0, nil)
	if next.WindowStart != 10 || next.Meals != 0 || next.FailsafeCorrections != 0 {
		t.Errorf("counters not reset: %+v", next)
	}
	if c.ShouldFlush(25) {
		t.Error("window restarted at 20, should not close at 25")
	}
}
