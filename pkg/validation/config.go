package validation

import (
	"fmt"
	"strings"

	"github.com/iwvelando/costing-forecast/pkg/constants"
)

// ValidateStorageDriver checks if the storage driver is one of the supported drivers.
func ValidateStorageDriver(driver string) error {
	if driver != constants.StorageDriverSQLite && driver != constants.StorageDriverPostgres {
		return fmt.Errorf("expected storage driver of %s or %s, got %s",
			constants.StorageDriverSQLite, constants.StorageDriverPostgres, driver)
	}
	return nil
}

// ValidateLogLevel checks a log level override; empty keeps the configured level.
func ValidateLogLevel(level string) error {
	switch level {
	case "", "debug", "info", "warn", "error":
		return nil
	default:
		return fmt.Errorf("expected log level of debug, info, warn or error, got %s", level)
	}
}

// ParseComparePair splits a "base,other" pair of report identifiers.
func ParseComparePair(arg string) (string, string, error) {
	base, other, found := strings.Cut(arg, ",")
	base = strings.TrimSpace(base)
	other = strings.TrimSpace(other)
	if !found || base == "" || other == "" {
		return "", "", fmt.Errorf("expected two report identifiers separated by a comma, got %q", arg)
	}
	if base == other {
		return "", "", fmt.Errorf("cannot compare report %s with itself", base)
	}
	return base, other, nil
}
