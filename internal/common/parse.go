// Package common provides shared utilities across the application.
package common

import (
	"fmt"
	"strings"
	"time"

	"github.com/shopspring/decimal"
)

// dividendPeriods is the closed set of dividend period values the backend accepts.
var dividendPeriods = []string{"Weekly", "Monthly", "Quarterly", "SemiAnnual", "Annual"}

// ParseSplit parses a stock split ratio string like "10.000000/1.000000"
// into its (new, old) share counts.
func ParseSplit(splitStr string) (decimal.Decimal, decimal.Decimal, error) {
	parts := strings.Split(splitStr, "/")
	if len(parts) != 2 {
		return decimal.Zero, decimal.Zero, fmt.Errorf("unable to parse split %q: expected new/old", splitStr)
	}
	newShares, err := decimal.NewFromString(parts[0])
	if err != nil {
		return decimal.Zero, decimal.Zero, fmt.Errorf("unable to parse split %q: %w", splitStr, err)
	}
	oldShares, err := decimal.NewFromString(parts[1])
	if err != nil {
		return decimal.Zero, decimal.Zero, fmt.Errorf("unable to parse split %q: %w", splitStr, err)
	}
	return newShares, oldShares, nil
}

// ParseDividendPeriod maps a provider period string onto the backend's closed
// enumeration. Matching is case-insensitive and exact; anything else,
// including the empty string, maps to "Other".
func ParseDividendPeriod(input string) string {
	if input == "" {
		return "Other"
	}
	for _, p := range dividendPeriods {
		if strings.EqualFold(input, p) {
			return p
		}
	}
	return "Other"
}

// ParseBool parses a permissive boolean from environment-style input.
// "1", "true", "t", "yes" and "y" (any case) are true, everything else is false.
func ParseBool(value string) bool {
	switch strings.ToLower(strings.TrimSpace(value)) {
	case "1", "true", "t", "yes", "y":
		return true
	}
	return false
}

// CheckDateString validates an ISO date string, returning it normalized
// or "" when it does not parse.
func CheckDateString(dateStr string) string {
	t, err := time.Parse("2006-01-02", dateStr)
	if err != nil {
		return ""
	}
	return t.Format("2006-01-02")
}
