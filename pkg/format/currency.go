// Package format renders amounts, shares and counts for reports and comparisons.
package format

import (
	"fmt"
	"math"
	"strings"
)

// Currency returns a currency string with a dollar sign and thousands separators (e.g., "-$1,234.56").
func Currency(amount float64) string {
	formatted := formatPositive(math.Abs(amount), 2)
	if amount < 0 && formatted != "0.00" {
		return "-$" + formatted
	}
	return "$" + formatted
}

// SignedCurrency is Currency with an explicit sign, used for differences (e.g., "+$1,000.00").
func SignedCurrency(amount float64) string {
	if amount < 0 {
		return Currency(amount)
	}
	return "+" + Currency(amount)
}

// NumericCurrency returns a currency string without a currency symbol but with separators (e.g., "-1,234.56").
func NumericCurrency(amount float64) string {
	sign := ""
	if amount < 0 {
		sign = "-"
	}
	return sign + formatPositive(math.Abs(amount), 2)
}

// Percent renders a fraction as a percentage with two decimals (0.1234 -> "12.34 %").
func Percent(fraction float64) string {
	return fmt.Sprintf("%s %%", signedNumber(fraction*100, 2, false))
}

// SignedPercent is Percent with an explicit sign.
func SignedPercent(fraction float64) string {
	return fmt.Sprintf("%s %%", signedNumber(fraction*100, 2, true))
}

// Number renders a unit count with thousands separators and no decimals.
func Number(value float64) string {
	return signedNumber(value, 0, false)
}

// SignedNumber is Number with an explicit sign.
func SignedNumber(value float64) string {
	return signedNumber(value, 0, true)
}

func signedNumber(value float64, decimals int, forceSign bool) string {
	formatted := formatPositive(math.Abs(value), decimals)
	switch {
	case value < 0 && strings.Trim(formatted, "0.,") != "":
		return "-" + formatted
	case forceSign:
		return "+" + formatted
	default:
		return formatted
	}
}

func formatPositive(value float64, decimals int) string {
	formatted := fmt.Sprintf("%.*f", decimals, value)
	intPart, decPart, hasDecimals := strings.Cut(formatted, ".")

	if len(intPart) > 3 {
		var builder strings.Builder
		for i, digit := range intPart {
			if i > 0 && (len(intPart)-i)%3 == 0 {
				builder.WriteByte(',')
			}
			builder.WriteRune(digit)
		}
		intPart = builder.String()
	}

	if !hasDecimals {
		return intPart
	}
	return intPart + "." + decPart
}
