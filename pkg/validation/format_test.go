package validation

import (
	"strings"
	"testing"
)

func TestValidateOutputFormat(t *testing.T) {
	tests := []struct {
		format    string
		expectErr bool
	}{
		{"pretty", false},
		{"csv", false},
		{"xlsx", true},
		{"", true},
		{"CSV", true},
		{" pretty", true},
	}

	for _, tt := range tests {
		t.Run(tt.format, func(t *testing.T) {
			err := ValidateOutputFormat(tt.format)
			if (err != nil) != tt.expectErr {
				t.Errorf("ValidateOutputFormat(%q) error = %v, expectErr %v", tt.format, err, tt.expectErr)
			}
		})
	}
}

func TestValidateOutputFormatErrorMessage(t *testing.T) {
	err := ValidateOutputFormat("yaml")
	if err == nil {
		t.Fatal("expected an error")
	}
	for _, want := range []string{"pretty", "csv", "yaml"} {
		if !strings.Contains(err.Error(), want) {
			t.Errorf("expected %q in %q", want, err.Error())
		}
	}
}

func TestValidateExportPath(t *testing.T) {
	tests := []struct {
		name      string
		path      string
		expectErr bool
	}{
		{"plain file", "report.xlsx", false},
		{"nested path", "out/june/current-prices.xlsx", false},
		{"upper case extension", "REPORT.XLSX", false},
		{"legacy excel", "report.xls", true},
		{"csv", "report.csv", true},
		{"no extension", "report", true},
		{"blank", "  ", true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := ValidateExportPath(tt.path)
			if (err != nil) != tt.expectErr {
				t.Errorf("ValidateExportPath(%q) error = %v, expectErr %v", tt.path, err, tt.expectErr)
			}
		})
	}
}
