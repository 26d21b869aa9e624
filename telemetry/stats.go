package telemetry

import (
	"log/slog"
	"slices"

	"gonum.org/v1/gonum/stat"
)

// WindowStats holds aggregated statistics for one stats window.
type WindowStats struct {
	WindowStart int64   `csv:"-"`
	WindowEnd   int64   `csv:"window_end"`
	SimTimeSec  float64 `csv:"sim_time"`

	// Population at window end
	Snakes   int `csv:"snakes"`
	Plankton int `csv:"plankton"`

	// Behavior states at window end
	Wandering     int `csv:"wandering"`
	SeekingTarget int `csv:"seeking_target"`
	SeekingFood   int `csv:"seeking_food"`
	Resting       int `csv:"resting"`
	Fleeing       int `csv:"fleeing"`
	Drifting      int `csv:"drifting"`

	// Events during the window
	Meals               int `csv:"meals"`
	Respawns            int `csv:"respawns"`
	Despawns            int `csv:"despawns"`
	FailsafeCorrections int `csv:"failsafe"`

	// Energy and satiety as fractions of their maxima
	EnergyMean  float64 `csv:"energy_mean"`
	EnergyStd   float64 `csv:"energy_std"`
	EnergyP10   float64 `csv:"energy_p10"`
	EnergyP50   float64 `csv:"energy_p50"`
	EnergyP90   float64 `csv:"energy_p90"`
	SatietyMean float64 `csv:"satiety_mean"`
	SatietyStd  float64 `csv:"satiety_std"`
	SatietyP10  float64 `csv:"satiety_p10"`
	SatietyP50  float64 `csv:"satiety_p50"`
	SatietyP90  float64 `csv:"satiety_p90"`
}

// Distribution summarizes a sample.
type Distribution struct {
	Mean, Std     float64
	P10, P50, P90 float64
}

// Describe computes the mean, sample standard deviation and empirical
// deciles of values. An empty sample yields zeros.
func Describe(values []float64) Distribution {
	if len(values) == 0 {
		return Distribution{}
	}
	sorted := slices.Clone(values)
	slices.Sort(sorted)

	var d Distribution
	if len(sorted) > 1 {
		d.Mean, d.Std = stat.MeanStdDev(sorted, nil)
	} else {
		d.Mean = sorted[0]
	}
	d.P10 = stat.Quantile(0.1, stat.Empirical, sorted, nil)
	d.P50 = stat.Quantile(0.5, stat.Empirical, sorted, nil)
	d.P90 = stat.Quantile(0.9, stat.Empirical, sorted, nil)
	return d
}

// LogValue implements slog.LogValuer.
func (s WindowStats) LogValue() slog.Value {
	return slog.GroupValue(
		slog.Int64("window_end", s.WindowEnd),
		slog.Float64("sim_time", s.SimTimeSec),
		slog.Int("snakes", s.Snakes),
		slog.Int("plankton", s.Plankton),
		slog.Int("seeking_food", s.SeekingFood),
		slog.Int("resting", s.Resting),
		slog.Int("fleeing", s.Fleeing),
		slog.Int("meals", s.Meals),
		slog.Int("respawns", s.Respawns),
		slog.Int("despawns", s.Despawns),
		slog.Int("failsafe", s.FailsafeCorrections),
		slog.Float64("energy_mean", s.EnergyMean),
		slog.Float64("energy_p10", s.EnergyP10),
		slog.Float64("satiety_mean", s.SatietyMean),
		slog.Float64("satiety_p10", s.SatietyP10),
	)
}

// LogStats logs the window at Info level.
func (s WindowStats) LogStats() {
	slog.Info("stats", "window", s)
}
