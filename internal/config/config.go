// Package config defines the data structures related to configuration and
// includes functions for loading and validating the config.
package config

import (
	"fmt"
	"io"
	"strings"

	"github.com/iwvelando/costing-forecast/internal/costing"
	"github.com/iwvelando/costing-forecast/pkg/constants"
	"github.com/spf13/viper"
)

// Configuration holds all configuration for costing-forecast.
type Configuration struct {
	Common     Common
	Scenarios  []Scenario
	Simulation SimulationConfig `yaml:"simulation,omitempty"`
	Storage    StorageConfig    `yaml:"storage,omitempty"`
	Logging    LoggingConfig    `yaml:"logging,omitempty"`
	Output     OutputConfig     `yaml:"output,omitempty"`
}

// LoggingConfig holds logging configuration options
type LoggingConfig struct {
	Level      string `yaml:"level,omitempty"`      // debug, info, warn, error
	Format     string `yaml:"format,omitempty"`     // json, console
	OutputFile string `yaml:"outputFile,omitempty"` // optional file output
}

// OutputConfig holds output format configuration options
type OutputConfig struct {
	Format string `yaml:"format,omitempty"` // pretty, csv
}

// StorageConfig selects where computed reports are recorded.
type StorageConfig struct {
	Driver string `yaml:"driver,omitempty"` // sqlite, postgres
	DSN    string `yaml:"dsn,omitempty"`
}

// SimulationConfig drives the projected volume and cost series. Zero cost
// bounds mean a band of 80% to 120% around the driver ingredient's price.
type SimulationConfig struct {
	Enabled          bool
	Days             int
	SigmaVolume      float64
	DriverIngredient string
	MinCost          float64
	MaxCost          float64
	ModeCost         float64
	Seed             uint64 // 0 draws from the global source
}

// Common holds the operating parameters shared by all scenarios.
type Common struct {
	UnitPrice      float64
	DaysPerMonth   int
	DailyVolume    int
	BenefitsFactor float64
	TargetProfit   float64
	StaffRoles     map[string]costing.StaffRole
	Ingredients    map[string]costing.Ingredient
	Overheads      costing.Overheads
	Allocation     costing.Allocation
}

// Scenario adjusts the common parameters. Unset fields keep the common value;
// staff roles and ingredients are merged by name and overheads and allocation
// shares are overridden one field at a time.
type Scenario struct {
	Name           string
	Active         bool
	UnitPrice      *float64
	DaysPerMonth   *int
	DailyVolume    *int
	BenefitsFactor *float64
	TargetProfit   *float64
	StaffRoles     map[string]costing.StaffRole
	Ingredients    map[string]costing.Ingredient
	Overheads      OverheadOverrides
	Allocation     AllocationOverrides
}

// OverheadOverrides replaces individual common overheads.
type OverheadOverrides struct {
	Rent                    *float64
	UtilitiesRatePerServing *float64
	MunicipalTaxRate        *float64
	Depreciation            *float64
}

// AllocationOverrides replaces individual common allocation shares. Each pair
// must still sum to 1 after the override.
type AllocationOverrides struct {
	RentKitchen         *float64
	RentSales           *float64
	DepreciationKitchen *float64
	DepreciationSales   *float64
}

// LoadConfiguration takes a file path as input and loads the YAML-formatted
// configuration there.
func LoadConfiguration(configPath string) (*Configuration, error) {
	v := newViper()
	v.SetConfigFile(configPath)

	if err := v.ReadInConfig(); err != nil {
		return nil, fmt.Errorf("error reading config file, %s", err)
	}

	return decode(v)
}

// LoadConfigurationFromReader loads a YAML configuration from r, e.g. an
// uploaded document.
func LoadConfigurationFromReader(r io.Reader) (*Configuration, error) {
	v := newViper()

	if err := v.ReadConfig(r); err != nil {
		return nil, fmt.Errorf("error reading config, %s", err)
	}

	return decode(v)
}

func newViper() *viper.Viper {
	v := viper.New()
	v.SetConfigType("yml")
	v.SetEnvPrefix(constants.EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()
	setDefaults(v)
	return v
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("common.unitPrice", constants.DefaultUnitPrice)
	v.SetDefault("common.daysPerMonth", constants.DefaultDaysPerMonth)
	v.SetDefault("common.dailyVolume", constants.DefaultDailyVolume)
	v.SetDefault("common.benefitsFactor", constants.DefaultBenefitsFactor)
	v.SetDefault("common.targetProfit", constants.DefaultTargetProfit)
	v.SetDefault("common.overheads.rent", constants.DefaultRent)
	v.SetDefault("common.overheads.utilitiesRatePerServing", constants.DefaultUtilitiesRatePerServing)
	v.SetDefault("common.overheads.municipalTaxRate", constants.DefaultMunicipalTaxRate)
	v.SetDefault("common.overheads.depreciation", constants.DefaultDepreciation)
	v.SetDefault("common.allocation.rentKitchen", constants.DefaultRentKitchenShare)
	v.SetDefault("common.allocation.rentSales", 1-constants.DefaultRentKitchenShare)
	v.SetDefault("common.allocation.depreciationKitchen", constants.DefaultDepreciationKitchenShare)
	v.SetDefault("common.allocation.depreciationSales", 1-constants.DefaultDepreciationKitchenShare)

	v.SetDefault("simulation.days", constants.DefaultSimulationDays)
	v.SetDefault("simulation.sigmaVolume", constants.DefaultVolumeSigma)
	v.SetDefault("simulation.driverIngredient", constants.DefaultDriverIngredient)

	v.SetDefault("storage.driver", constants.StorageDriverSQLite)
	v.SetDefault("storage.dsn", constants.DefaultSQLiteDSN)

	v.SetDefault("output.format", constants.OutputFormatPretty)
}

func decode(v *viper.Viper) (*Configuration, error) {
	var configuration Configuration
	if err := v.Unmarshal(&configuration); err != nil {
		return nil, fmt.Errorf("unable to decode into struct, %s", err)
	}

	// Map defaults are applied after decoding so a configured map replaces
	// the default one instead of being merged with it.
	if len(configuration.Common.StaffRoles) == 0 {
		configuration.Common.StaffRoles = DefaultStaffRoles()
	}
	if len(configuration.Common.Ingredients) == 0 {
		configuration.Common.Ingredients = DefaultIngredients()
	}

	return &configuration, nil
}

// DefaultStaffRoles is the payroll of the reference operation.
func DefaultStaffRoles() map[string]costing.StaffRole {
	return map[string]costing.StaffRole{
		costing.RoleCooks:             {BaseSalary: 750000, Headcount: 1},
		costing.RoleKitchenAssistants: {BaseSalary: 600000, Headcount: 2},
		costing.RoleWaitstaff:         {BaseSalary: 300000, Headcount: 3},
		costing.RoleAdministrators:    {BaseSalary: 200000, Headcount: 1},
	}
}

// DefaultIngredients is the recipe of the reference serving.
func DefaultIngredients() map[string]costing.Ingredient {
	return map[string]costing.Ingredient{
		"rice":     {PricePerKg: 50, GramsPerServing: 45},
		"meat":     {PricePerKg: 150, GramsPerServing: 200},
		"potato":   {PricePerKg: 200, GramsPerServing: 70},
		"plantain": {PricePerKg: 75, GramsPerServing: 45},
	}
}

// ValidateConfiguration performs general validation of the configuration and returns warnings
func (c *Configuration) ValidateConfiguration() []string {
	var warnings []string

	if err := c.Common.ToOperatingParameters().Validate(); err != nil {
		for _, line := range strings.Split(err.Error(), "\n") {
			warnings = append(warnings, fmt.Sprintf("common: %s", line))
		}
	}

	names := make(map[string]bool, len(c.Scenarios))
	active := 0
	for i, scenario := range c.Scenarios {
		if scenario.Name == "" {
			warnings = append(warnings, fmt.Sprintf("scenario %d has no name", i+1))
		} else if names[scenario.Name] {
			warnings = append(warnings, fmt.Sprintf("scenario name %q is used more than once", scenario.Name))
		}
		names[scenario.Name] = true
		if !scenario.Active {
			continue
		}
		active++
		if err := c.ScenarioParameters(scenario).Validate(); err != nil {
			for _, line := range strings.Split(err.Error(), "\n") {
				warnings = append(warnings, fmt.Sprintf("scenario %q: %s", scenario.Name, line))
			}
		}
	}
	if len(c.Scenarios) > 0 && active == 0 {
		warnings = append(warnings, "no scenario is active, only the common parameters will be computed")
	}

	if c.Simulation.Enabled {
		warnings = append(warnings, c.validateSimulation()...)
	}

	return warnings
}

func (c *Configuration) validateSimulation() []string {
	var warnings []string
	sim := c.Simulation
	if sim.Days <= 0 {
		warnings = append(warnings, fmt.Sprintf("simulation days is %d, the series will be empty", sim.Days))
	}
	if sim.Days > constants.MaxSimulationDays {
		warnings = append(warnings, fmt.Sprintf("simulation days is %d, the limit is %d", sim.Days, constants.MaxSimulationDays))
	}
	if sim.SigmaVolume < 0 {
		warnings = append(warnings, fmt.Sprintf("simulation sigmaVolume %v is negative", sim.SigmaVolume))
	}
	if _, ok := c.Common.Ingredients[strings.ToLower(sim.DriverIngredient)]; !ok {
		warnings = append(warnings, fmt.Sprintf("simulation driver ingredient %q is not in the recipe", sim.DriverIngredient))
	}
	if sim.MinCost != 0 && sim.MaxCost != 0 && sim.ModeCost != 0 {
		if sim.MinCost > sim.ModeCost || sim.ModeCost > sim.MaxCost {
			warnings = append(warnings, fmt.Sprintf("simulation cost bounds must satisfy min <= mode <= max, got %v, %v, %v",
				sim.MinCost, sim.ModeCost, sim.MaxCost))
		}
	}
	return warnings
}
