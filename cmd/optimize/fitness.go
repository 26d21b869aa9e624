package main

import (
	"math"
	"sync"

	"golang.org/x/sync/errgroup"
	"gonum.org/v1/gonum/stat"

	"github.com/pthm-cable/softies/config"
	"github.com/pthm-cable/softies/creature"
	"github.com/pthm-cable/softies/game"
	"github.com/pthm-cable/softies/telemetry"
)

// FitnessEvaluator runs headless simulations and computes fitness.
type FitnessEvaluator struct {
	params      *ParamVector
	maxTicks    int64
	seeds       []int64
	baseConfig  *config.Config
	statsWindow float64

	mu          sync.Mutex
	lastQuality float64 // quality from most recent Evaluate call
}

// NewFitnessEvaluator creates a new evaluator.
func NewFitnessEvaluator(params *ParamVector, maxTicks int64, seeds []int64, baseCfg *config.Config) *FitnessEvaluator {
	return &FitnessEvaluator{
		params:      params,
		maxTicks:    maxTicks,
		seeds:       seeds,
		baseConfig:  baseCfg,
		statsWindow: 10.0,
	}
}

// LastQuality returns the quality score from the most recent evaluation.
func (fe *FitnessEvaluator) LastQuality() float64 {
	fe.mu.Lock()
	defer fe.mu.Unlock()
	return fe.lastQuality
}

// window is one stats window plus the snake-only figures the quality
// score needs.
type window struct {
	stats        telemetry.WindowStats
	snakeSatiety float64 // mean fraction
	snakeEnergy  float64 // mean fraction
}

// Evaluate computes fitness for a parameter vector (lower = better). All
// seeds run in parallel; fitness is the negated mean quality.
func (fe *FitnessEvaluator) Evaluate(x []float64) (float64, error) {
	qualities := make([]float64, len(fe.seeds))

	var eg errgroup.Group
	for i, seed := range fe.seeds {
		eg.Go(func() error {
			windows, err := fe.runSimulation(x, seed)
			if err != nil {
				return err
			}
			qualities[i] = computeQuality(windows)
			return nil
		})
	}
	if err := eg.Wait(); err != nil {
		return 0, err
	}

	quality := stat.Mean(qualities, nil)
	fe.mu.Lock()
	fe.lastQuality = quality
	fe.mu.Unlock()
	return -quality, nil
}

// runSimulation executes a single headless run of maxTicks.
func (fe *FitnessEvaluator) runSimulation(x []float64, seed int64) ([]window, error) {
	cfg := fe.copyConfig()
	fe.params.ApplyToConfig(cfg, x)

	g, err := game.New(cfg, game.Options{
		Seed:           seed,
		StatsWindowSec: fe.statsWindow,
		StepsPerUpdate: 1,
	})
	if err != nil {
		return nil, err
	}
	defer g.Close()

	var windows []window
	g.SetStatsCallback(func(s telemetry.WindowStats) {
		w := window{stats: s}
		var sat, en []float64
		for _, c := range g.Creatures() {
			if c.Kind() != creature.KindSnake {
				continue
			}
			sat = append(sat, c.Attributes().SatietyFraction())
			en = append(en, c.Attributes().EnergyFraction())
		}
		if len(sat) > 0 {
			w.snakeSatiety = stat.Mean(sat, nil)
			w.snakeEnergy = stat.Mean(en, nil)
		}
		windows = append(windows, w)
	})

	for g.Tick() < fe.maxTicks {
		g.UpdateHeadless()
	}
	return windows, nil
}

// copyConfig returns a copy of the base config that parameters can be
// written into. Slices are shared; nothing here writes through them.
func (fe *FitnessEvaluator) copyConfig() *config.Config {
	cfg := *fe.baseConfig
	return &cfg
}

// Quality component weights.
const (
	qualityWeightSatiety     = 0.30
	qualityWeightEnergy      = 0.20
	qualityWeightFeeding     = 0.20
	qualityWeightStability   = 0.15
	qualityWeightContainment = 0.15

	qualityWarmupWindows = 1 // skip first N windows (warmup)
)

// computeQuality scores a run in [0, 1]. Healthy tanks keep snakes
// moderately fed and rested, with steady meals and no creature escaping
// through the walls.
func computeQuality(windows []window) float64 {
	if len(windows) <= qualityWarmupWindows {
		return 0
	}
	valid := windows[qualityWarmupWindows:]

	var satietySum, energySum, feedingSum, containSum float64
	satiety := make([]float64, 0, len(valid))
	var n int
	for _, w := range valid {
		if w.stats.Snakes == 0 {
			continue
		}
		n++
		satiety = append(satiety, w.snakeSatiety)

		satietySum += gaussian(w.snakeSatiety, 0.6, 0.2)
		energySum += gaussian(w.snakeEnergy, 0.6, 0.25)

		mealsPerSnake := float64(w.stats.Meals) / float64(w.stats.Snakes)
		feedingSum += 1 - math.Exp(-mealsPerSnake/2)

		pop := float64(max(1, w.stats.Snakes+w.stats.Plankton))
		containSum += math.Exp(-float64(w.stats.FailsafeCorrections) / pop)
	}
	if n == 0 {
		return 0
	}

	stability := 0.0
	if len(satiety) >= 2 {
		c := cv(satiety)
		stability = math.Exp(-c * c)
	}

	k := float64(n)
	quality := qualityWeightSatiety*satietySum/k +
		qualityWeightEnergy*energySum/k +
		qualityWeightFeeding*feedingSum/k +
		qualityWeightStability*stability +
		qualityWeightContainment*containSum/k
	return clamp01(quality)
}

func gaussian(x, mu, sigma float64) float64 {
	d := (x - mu) / sigma
	return math.Exp(-d * d)
}

// cv computes the coefficient of variation (std/mean) for a slice of values.
func cv(values []float64) float64 {
	mean, std := stat.PopMeanStdDev(values, nil)
	if mean == 0 {
		return 0
	}
	return std / mean
}

// clamp01 clamps x to [0, 1].
func clamp01(x float64) float64 {
	return min(1, max(0, x))
}
