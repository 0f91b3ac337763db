// Package core provides money parsing and handling utilities.
//
// Amounts are kept in minor units (cents). Parsing accepts both dot and comma
// decimal separators and rounds half-up to two decimals; display follows the
// one-decimal convention of the rial amounts shown to the user.
package core

import (
	"strings"

	"github.com/shopspring/decimal"
)

// CurrencySymbol is appended by FormatWithSymbol.
const CurrencySymbol = "ر.ع"

// maxCents keeps parsed amounts well inside int64.
var maxCents = decimal.New(1, 15)

// ParseDecimalToCents converts a decimal string to cents with half-up rounding.
//
// Examples:
//
//	ParseDecimalToCents("12.34")  -> 1234, nil
//	ParseDecimalToCents("12,34")  -> 1234, nil
//	ParseDecimalToCents("12.345") -> 1235, nil
//	ParseDecimalToCents("-1")     -> 0, ErrInvalidAmount
func ParseDecimalToCents(s string) (int64, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return 0, ErrInvalidAmount
	}
	s = strings.ReplaceAll(s, ",", ".")
	if strings.HasPrefix(s, "+") || strings.HasPrefix(s, "-") {
		return 0, ErrInvalidAmount
	}
	if strings.ContainsAny(s, "eE") {
		return 0, ErrInvalidAmount
	}
	d, err := decimal.NewFromString(s)
	if err != nil {
		return 0, ErrInvalidAmount
	}
	cents := d.Shift(2).Round(0)
	if cents.Sign() <= 0 || cents.GreaterThan(maxCents) {
		return 0, ErrInvalidAmount
	}
	return cents.IntPart(), nil
}

// ParseMoney is ParseDecimalToCents wrapped into Money.
func ParseMoney(s string) (Money, error) {
	cents, err := ParseDecimalToCents(s)
	if err != nil {
		return Money{}, err
	}
	return Money{Cents: cents}, nil
}

// MoneyFromFloat converts a JSON number to Money, rounding half away from zero.
func MoneyFromFloat(f float64) Money {
	return Money{Cents: decimal.NewFromFloat(f).Shift(2).Round(0).IntPart()}
}

// Decimal returns the amount in major units.
func (m Money) Decimal() decimal.Decimal {
	return decimal.New(m.Cents, -2)
}

// Float returns the major-unit value for JSON payloads.
func (m Money) Float() float64 {
	f, _ := m.Decimal().Float64()
	return f
}

// Format renders the amount with one decimal, e.g. "69.5".
func (m Money) Format() string {
	return m.Decimal().StringFixed(1)
}

// FormatWithSymbol renders the amount followed by the currency symbol.
func (m Money) FormatWithSymbol() string {
	return m.Format() + " " + CurrencySymbol
}
