package models

import (
	"fmt"
	"math"
	"strconv"
	"strings"

	"gopkg.in/yaml.v3"
)

// CurrencySymbol prefixes every formatted amount
const CurrencySymbol = "$"

// maxUnits is the largest whole amount whose cents still fit in an int64
const maxUnits = (math.MaxInt64 - 99) / 100

// Money is an amount in minor units (cents)
type Money int64

// Dollars builds a Money value from whole currency units
func Dollars(n int64) Money {
	return Money(n * 100)
}

// ParseMoney parses a decimal amount such as "14", "12.5" or "$8.25"
func ParseMoney(raw string) (Money, error) {
	s := strings.TrimPrefix(strings.TrimSpace(raw), CurrencySymbol)
	if s == "" {
		return 0, fmt.Errorf("empty amount")
	}
	if strings.HasPrefix(s, "-") {
		return 0, fmt.Errorf("amount %q must not be negative", raw)
	}

	whole, frac, hasFrac := strings.Cut(s, ".")
	if whole == "" {
		whole = "0"
	}
	units, err := strconv.ParseInt(whole, 10, 64)
	if err != nil {
		return 0, fmt.Errorf("invalid amount %q", raw)
	}
	if units > maxUnits {
		return 0, fmt.Errorf("amount %q too large", raw)
	}

	var cents int64
	if hasFrac {
		if len(frac) == 0 || len(frac) > 2 {
			return 0, fmt.Errorf("invalid amount %q: expected at most two decimals", raw)
		}
		if len(frac) == 1 {
			frac += "0"
		}
		cents, err = strconv.ParseInt(frac, 10, 64)
		if err != nil || cents < 0 {
			return 0, fmt.Errorf("invalid amount %q", raw)
		}
	}
	return Money(units*100 + cents), nil
}

// String formats the amount with the currency symbol; whole amounts drop the cents
func (m Money) String() string {
	sign := ""
	abs := uint64(m)
	if m < 0 {
		sign = "-"
		abs = uint64(-(m + 1)) + 1
	}
	if abs%100 == 0 {
		return fmt.Sprintf("%s%s%d", sign, CurrencySymbol, abs/100)
	}
	return fmt.Sprintf("%s%s%d.%02d", sign, CurrencySymbol, abs/100, abs%100)
}

// UnmarshalYAML accepts menu prices written as plain decimal numbers
func (m *Money) UnmarshalYAML(node *yaml.Node) error {
	if node.Kind != yaml.ScalarNode {
		return fmt.Errorf("line %d: price must be a scalar", node.Line)
	}
	v, err := ParseMoney(node.Value)
	if err != nil {
		return fmt.Errorf("line %d: %w", node.Line, err)
	}
	*m = v
	return nil
}
