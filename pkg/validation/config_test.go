package validation

import (
	"testing"
)

func TestValidateStorageDriver(t *testing.T) {
	tests := []struct {
		name      string
		driver    string
		expectErr bool
	}{
		{name: "sqlite", driver: "sqlite", expectErr: false},
		{name: "postgres", driver: "postgres", expectErr: false},
		{name: "cgo sqlite3 name", driver: "sqlite3", expectErr: true},
		{name: "pgx name", driver: "pgx", expectErr: true},
		{name: "empty", driver: "", expectErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := ValidateStorageDriver(tt.driver)
			if (err != nil) != tt.expectErr {
				t.Errorf("ValidateStorageDriver(%q) error = %v, expectErr %v", tt.driver, err, tt.expectErr)
			}
		})
	}
}

func TestValidateLogLevel(t *testing.T) {
	tests := []struct {
		level     string
		expectErr bool
	}{
		{"", false},
		{"debug", false},
		{"info", false},
		{"warn", false},
		{"error", false},
		{"trace", true},
		{"INFO", true},
	}

	for _, tt := range tests {
		t.Run(tt.level, func(t *testing.T) {
			err := ValidateLogLevel(tt.level)
			if (err != nil) != tt.expectErr {
				t.Errorf("ValidateLogLevel(%q) error = %v, expectErr %v", tt.level, err, tt.expectErr)
			}
		})
	}
}

func TestParseComparePair(t *testing.T) {
	tests := []struct {
		name      string
		arg       string
		wantBase  string
		wantOther string
		expectErr bool
	}{
		{name: "Two identifiers", arg: "a1,b2", wantBase: "a1", wantOther: "b2"},
		{name: "Spaces trimmed", arg: " a1 , b2 ", wantBase: "a1", wantOther: "b2"},
		{name: "Missing comma", arg: "a1", expectErr: true},
		{name: "Missing other", arg: "a1,", expectErr: true},
		{name: "Missing base", arg: ",b2", expectErr: true},
		{name: "Same report", arg: "a1,a1", expectErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			base, other, err := ParseComparePair(tt.arg)
			if tt.expectErr {
				if err == nil {
					t.Errorf("ParseComparePair(%q) expected error", tt.arg)
				}
				return
			}
			if err != nil {
				t.Fatalf("ParseComparePair(%q) error = %v", tt.arg, err)
			}
			if base != tt.wantBase || other != tt.wantOther {
				t.Errorf("ParseComparePair(%q) = %q, %q", tt.arg, base, other)
			}
		})
	}
}
