// Package constants provides shared constants for the costing-forecast application.
package constants

// Financial constants
const (
	// DecimalPrecision is the precision for currency rounding (2 decimal places)
	DecimalPrecision = 100

	// GramsPerKilogram converts per-serving grams into kilograms for ingredient costing
	GramsPerKilogram = 1000.0

	// WaitstaffCommissionRate is the share of monthly revenue paid to waitstaff as commission
	WaitstaffCommissionRate = 0.01

	// AdministratorCommissionRate is the share of monthly revenue paid to administrators as commission
	AdministratorCommissionRate = 0.10

	// DefaultTargetProfit is the monthly operating profit used to back-solve target volume
	DefaultTargetProfit = 2500000.0
)

// Simulation constants
const (
	// DefaultSimulationDays is the horizon of the projected series
	DefaultSimulationDays = 100

	// MaxSimulationDays bounds the projected horizon (ten years)
	MaxSimulationDays = 3650

	// DefaultVolumeSigma is the standard deviation of daily servings sold
	DefaultVolumeSigma = 15.0

	// TriangularLowerFactor derives the triangular minimum from the average cost
	TriangularLowerFactor = 0.8

	// TriangularUpperFactor derives the triangular maximum from the average cost
	TriangularUpperFactor = 1.2

	// ChartHeadroomFactor stretches the break-even chart past the larger of
	// break-even and current volume
	ChartHeadroomFactor = 1.3

	// ChartSteps is the approximate number of intervals on the break-even chart
	ChartSteps = 10
)

// Output format constants
const (
	// OutputFormatPretty is the human-readable output format
	OutputFormatPretty = "pretty"

	// OutputFormatCSV is the CSV output format
	OutputFormatCSV = "csv"
)

// Configuration file constants
const (
	// DefaultConfigFile is the default configuration file name
	DefaultConfigFile = "config.yaml"

	// ExampleConfigFile is the example configuration file name
	ExampleConfigFile = "config.yaml.example"

	// DefaultServerConfigFile is the default server configuration file name
	DefaultServerConfigFile = "server-config.yaml"

	// EnvPrefix prefixes environment variable overrides (COSTING_OPERATIONS_UNITPRICE)
	EnvPrefix = "COSTING"
)

// Server configuration defaults
const (
	// DefaultServerAddress is the default HTTP listen address for the API
	DefaultServerAddress = ":8080"

	// DefaultMaxBodySizeBytes is the default maximum request body size (256 KB)
	DefaultMaxBodySizeBytes int64 = 256 * 1024
)

// Storage defaults
const (
	// StorageDriverSQLite selects the embedded sqlite database
	StorageDriverSQLite = "sqlite"

	// StorageDriverPostgres selects a PostgreSQL database through pgx
	StorageDriverPostgres = "postgres"

	// DefaultSQLiteDSN is the default sqlite database file
	DefaultSQLiteDSN = "./costing.db"

	// DefaultRecorderQueueSize bounds the asynchronous persistence queue
	DefaultRecorderQueueSize = 32
)

// Validation constants
const (
	// CurrencyTolerance is the tolerance for currency comparisons (1 cent)
	CurrencyTolerance = 0.01

	// AllocationTolerance is the tolerance for allocation pairs summing to 1.0
	AllocationTolerance = 1e-9

	// ChangeThreshold marks a compared line as changed
	ChangeThreshold = 0.001
)

// Default operating figures for a fresh configuration
const (
	// DefaultUnitPrice is the price of one serving
	DefaultUnitPrice = 2500.0

	// DefaultDaysPerMonth is the number of trading days per month
	DefaultDaysPerMonth = 22

	// DefaultDailyVolume is the number of servings sold per day
	DefaultDailyVolume = 120

	// DefaultBenefitsFactor is the statutory benefits load on payroll
	DefaultBenefitsFactor = 0.52

	// DefaultRent is the monthly rent
	DefaultRent = 900000.0

	// DefaultUtilitiesRatePerServing is the utilities cost per serving sold
	DefaultUtilitiesRatePerServing = 50.0

	// DefaultMunicipalTaxRate is the municipal business tax on revenue
	DefaultMunicipalTaxRate = 0.005

	// DefaultDepreciation is the monthly depreciation of kitchen and dining equipment
	DefaultDepreciation = 250000.0

	// DefaultRentKitchenShare is the share of rent absorbed by the kitchen
	DefaultRentKitchenShare = 0.20

	// DefaultDepreciationKitchenShare is the share of depreciation absorbed by the kitchen
	DefaultDepreciationKitchenShare = 0.50

	// DefaultDriverIngredient is the ingredient whose price the simulation projects
	DefaultDriverIngredient = "meat"
)
