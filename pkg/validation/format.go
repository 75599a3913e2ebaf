// Package validation checks user-supplied options before any work starts.
package validation

import (
	"fmt"
	"path/filepath"
	"strings"

	"github.com/iwvelando/costing-forecast/pkg/constants"
)

// ValidateOutputFormat accepts the statement renderings the CLI can print.
func ValidateOutputFormat(format string) error {
	switch format {
	case constants.OutputFormatPretty, constants.OutputFormatCSV:
		return nil
	default:
		return fmt.Errorf("expected output format of %s or %s, got %s",
			constants.OutputFormatPretty, constants.OutputFormatCSV, format)
	}
}

// ValidateExportPath requires a workbook path ending in .xlsx, since the
// export is always an Office Open XML spreadsheet.
func ValidateExportPath(path string) error {
	if strings.TrimSpace(path) == "" {
		return fmt.Errorf("export path is empty")
	}
	if ext := strings.ToLower(filepath.Ext(path)); ext != ".xlsx" {
		return fmt.Errorf("expected an .xlsx export path, got %s", path)
	}
	return nil
}
