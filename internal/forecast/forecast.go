// Package forecast defines the data structures related to a given forecast and
// includes functions for computing the forecasts.
package forecast

import (
	"fmt"
	"math/rand/v2"
	"time"

	"github.com/iwvelando/costing-forecast/internal/config"
	"github.com/iwvelando/costing-forecast/internal/costing"
	"github.com/iwvelando/costing-forecast/internal/simulation"
	"go.uber.org/zap"
)

// Forecast holds all information related to a specific forecast.
type Forecast struct {
	Name        string                      `json:"name"`
	GeneratedAt time.Time                   `json:"generatedAt"`
	Params      costing.OperatingParameters `json:"params"`
	Series      *simulation.SimulatedSeries `json:"series,omitempty"`
	Results     costing.DerivedResults      `json:"results"`
}

// GetForecast processes the Forecasts for all active Scenarios, or for the
// common parameters when none is active.
func GetForecast(logger *zap.Logger, conf config.Configuration) ([]Forecast, error) {
	if logger == nil {
		logger = zap.NewNop()
	}

	var results []Forecast
	for _, scenario := range conf.Scenarios {
		if !scenario.Active {
			logger.Debug(fmt.Sprintf("skipping scenario %s because it is inactive", scenario.Name),
				zap.String("op", "forecast.GetForecast"),
			)
		}
	}

	for _, named := range conf.ActiveParameters() {
		result, err := RunScenario(logger, named.Name, named.Params, conf.Simulation)
		if err != nil {
			return results, fmt.Errorf("scenario %s: %w", named.Name, err)
		}
		results = append(results, result)
	}

	return results, nil
}

// RunScenario computes one forecast. When the simulation is enabled the last
// simulated day replaces the daily volume and the driver ingredient's price
// before the statements are derived.
func RunScenario(logger *zap.Logger, name string, params costing.OperatingParameters, sim config.SimulationConfig) (Forecast, error) {
	if logger == nil {
		logger = zap.NewNop()
	}

	result := Forecast{
		Name:        name,
		GeneratedAt: time.Now().UTC(),
		Params:      params,
	}

	if sim.Enabled {
		simParams := sim.SimulationParams(params)
		if err := simParams.Validate(); err != nil {
			return result, err
		}

		series := NewGenerator(sim.Seed).Simulate(simParams)
		result.Series = &series
		result.Params = sim.ApplySimulation(params, series)

		logger.Debug("applied simulated volume and cost",
			zap.String("op", "forecast.RunScenario"),
			zap.String("scenario", name),
			zap.Int("days", simParams.Days),
			zap.Int("dailyVolume", result.Params.DailyVolume),
			zap.Float64("lastCost", series.CostStats.Last),
		)
	}

	if err := result.Params.Validate(); err != nil {
		logger.Warn("operating parameters break an invariant, results may be inconsistent",
			zap.String("op", "forecast.RunScenario"),
			zap.String("scenario", name),
			zap.Error(err),
		)
	}

	result.Results = costing.Recompute(result.Params)
	if result.Results.TraditionalErr != nil {
		logger.Warn("traditional statement unavailable",
			zap.String("op", "forecast.RunScenario"),
			zap.String("scenario", name),
			zap.Error(result.Results.TraditionalErr),
		)
	}

	return result, nil
}

// NewGenerator returns a generator seeded with seed, or one drawing from the
// global source when seed is 0.
func NewGenerator(seed uint64) *simulation.Generator {
	if seed == 0 {
		return simulation.NewGenerator(nil)
	}
	return simulation.NewGenerator(rand.NewPCG(seed, seed))
}
