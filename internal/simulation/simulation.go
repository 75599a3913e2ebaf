// Package simulation projects daily sales volume and unit input cost over a
// fixed horizon from bounded random draws.
package simulation

import (
	"errors"
	"fmt"
	"math"
	"math/rand/v2"

	"github.com/iwvelando/costing-forecast/pkg/constants"
	"github.com/iwvelando/costing-forecast/pkg/mathutil"
	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/stat"
	"gonum.org/v1/gonum/stat/distuv"
)

// Generator draws variates from a random source. The zero value draws from
// the global source, so successive runs have the same shape but not the same
// values.
type Generator struct {
	src rand.Source
}

// NewGenerator returns a Generator drawing from src. A nil src uses the
// global source.
func NewGenerator(src rand.Source) *Generator {
	return &Generator{src: src}
}

var defaultGenerator = &Generator{}

// SampleBoundedTriangular draws from a triangular distribution over [min, max]
// peaking at mode. The caller guarantees min <= mode <= max.
func (g *Generator) SampleBoundedTriangular(min, max, mode float64) float64 {
	if min == max {
		return min
	}
	return distuv.NewTriangle(min, max, mode, g.src).Rand()
}

// SampleClampedNormal draws once from a normal distribution and clamps the
// result at zero. It never redraws, so small means are biased upward.
func (g *Generator) SampleClampedNormal(mean, stddev float64) float64 {
	x := distuv.Normal{Mu: mean, Sigma: stddev, Src: g.src}.Rand()
	return math.Max(0, x)
}

// GenerateSeries produces days independent volume draws and days unit-cost
// draws. When any triangular bound is zero the bounds default to +/-20% of
// avgCost with avgCost as the mode. Non-positive days yields empty series.
func (g *Generator) GenerateSeries(days int, avgVolume, sigmaVolume, avgCost, minCost, maxCost, modeCost float64) ([]int, []float64) {
	if days < 0 {
		days = 0
	}
	capacity := min(days, constants.MaxSimulationDays)

	volumes := make([]int, 0, capacity)
	for i := 0; i < days; i++ {
		volumes = append(volumes, int(math.Round(g.SampleClampedNormal(avgVolume, sigmaVolume))))
	}

	if minCost == 0 || maxCost == 0 || modeCost == 0 {
		modeCost = avgCost
		minCost = avgCost * constants.TriangularLowerFactor
		maxCost = avgCost * constants.TriangularUpperFactor
		if minCost > maxCost {
			// negative average cost flips the derived band
			minCost, maxCost = maxCost, minCost
		}
	}

	costs := make([]float64, 0, capacity)
	for i := 0; i < days; i++ {
		costs = append(costs, mathutil.Round(g.SampleBoundedTriangular(minCost, maxCost, modeCost)))
	}

	return volumes, costs
}

// SampleBoundedTriangular draws from the default generator.
func SampleBoundedTriangular(min, max, mode float64) float64 {
	return defaultGenerator.SampleBoundedTriangular(min, max, mode)
}

// SampleClampedNormal draws from the default generator.
func SampleClampedNormal(mean, stddev float64) float64 {
	return defaultGenerator.SampleClampedNormal(mean, stddev)
}

// GenerateSeries draws both series from the default generator.
func GenerateSeries(days int, avgVolume, sigmaVolume, avgCost, minCost, maxCost, modeCost float64) ([]int, []float64) {
	return defaultGenerator.GenerateSeries(days, avgVolume, sigmaVolume, avgCost, minCost, maxCost, modeCost)
}

// Params configures one simulation run.
type Params struct {
	Days        int     `json:"days"`
	AvgVolume   float64 `json:"avgVolume"`
	SigmaVolume float64 `json:"sigmaVolume"`
	AvgCost     float64 `json:"avgCost"`
	MinCost     float64 `json:"minCost"`
	MaxCost     float64 `json:"maxCost"`
	ModeCost    float64 `json:"modeCost"`
}

// ErrInvalidBounds is returned for explicit cost bounds out of order.
var ErrInvalidBounds = errors.New("cost bounds must satisfy min <= mode <= max")

// ErrHorizonTooLong is returned when Days exceeds constants.MaxSimulationDays.
var ErrHorizonTooLong = fmt.Errorf("simulation days must not exceed %d", constants.MaxSimulationDays)

// Validate checks the horizon and the explicit triangular bounds. Bounds are
// only explicit when all three are non-zero; otherwise they are derived from
// AvgCost.
func (p Params) Validate() error {
	if p.Days > constants.MaxSimulationDays {
		return fmt.Errorf("%w: got %d", ErrHorizonTooLong, p.Days)
	}
	if p.MinCost == 0 || p.MaxCost == 0 || p.ModeCost == 0 {
		return nil
	}
	if p.MinCost > p.ModeCost || p.ModeCost > p.MaxCost {
		return fmt.Errorf("%w: got min %v, mode %v, max %v", ErrInvalidBounds, p.MinCost, p.ModeCost, p.MaxCost)
	}
	return nil
}

// SeriesStats summarizes one projected series.
type SeriesStats struct {
	Min  float64 `json:"min"`
	Max  float64 `json:"max"`
	Mean float64 `json:"mean"`
	Last float64 `json:"last"`
}

// SimulatedSeries holds both projected series and their summaries.
type SimulatedSeries struct {
	Volumes     []int       `json:"volumes"`
	Costs       []float64   `json:"costs"`
	VolumeStats SeriesStats `json:"volumeStats"`
	CostStats   SeriesStats `json:"costStats"`
}

// Simulate runs GenerateSeries for p and summarizes the result.
func (g *Generator) Simulate(p Params) SimulatedSeries {
	volumes, costs := g.GenerateSeries(p.Days, p.AvgVolume, p.SigmaVolume, p.AvgCost, p.MinCost, p.MaxCost, p.ModeCost)

	asFloats := make([]float64, len(volumes))
	for i, v := range volumes {
		asFloats[i] = float64(v)
	}

	return SimulatedSeries{
		Volumes:     volumes,
		Costs:       costs,
		VolumeStats: Summarize(asFloats),
		CostStats:   Summarize(costs),
	}
}

// Simulate runs a simulation on the default generator.
func Simulate(p Params) SimulatedSeries {
	return defaultGenerator.Simulate(p)
}

// Summarize returns min, max, mean and last value; an empty series yields the
// zero SeriesStats.
func Summarize(values []float64) SeriesStats {
	if len(values) == 0 {
		return SeriesStats{}
	}
	return SeriesStats{
		Min:  floats.Min(values),
		Max:  floats.Max(values),
		Mean: stat.Mean(values, nil),
		Last: values[len(values)-1],
	}
}

// LastVolume returns the final projected volume, ok is false for an empty run.
func (s SimulatedSeries) LastVolume() (int, bool) {
	if len(s.Volumes) == 0 {
		return 0, false
	}
	return s.Volumes[len(s.Volumes)-1], true
}

// LastCost returns the final projected unit cost, ok is false for an empty run.
func (s SimulatedSeries) LastCost() (float64, bool) {
	if len(s.Costs) == 0 {
		return 0, false
	}
	return s.Costs[len(s.Costs)-1], true
}
