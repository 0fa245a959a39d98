package entities

import (
	"fmt"
	"math"
	"strings"

	"github.com/shopspring/decimal"
)

// Money represents a currency amount in minor units (cents)
type Money int64

// minorUnitExp is the decimal exponent of one minor unit
const minorUnitExp = -2

// MaxMoney is the largest representable amount
const MaxMoney = Money(math.MaxInt64)

var maxCents = decimal.NewFromInt(math.MaxInt64)

// ParseMoney parses a decimal amount such as "100.01" into minor units.
// Amounts with more than two decimal places are rounded half-up to the cent.
func ParseMoney(s string) (Money, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return 0, fmt.Errorf("amount cannot be empty")
	}
	// Accept the European "1234,56" form used by the original data exports
	if strings.Count(s, ",") == 1 && !strings.Contains(s, ".") {
		s = strings.Replace(s, ",", ".", 1)
	}

	d, err := decimal.NewFromString(s)
	if err != nil {
		return 0, fmt.Errorf("invalid amount %q: %w", s, err)
	}
	return MoneyFromDecimal(d)
}

// MustParseMoney is like ParseMoney but panics on error. Intended for fixtures.
func MustParseMoney(s string) Money {
	m, err := ParseMoney(s)
	if err != nil {
		panic(err)
	}
	return m
}

// MoneyFromDecimal converts a decimal amount to minor units, rounding half-up.
// Amounts whose cent value does not fit in an int64 are rejected.
func MoneyFromDecimal(d decimal.Decimal) (Money, error) {
	cents := d.Round(-minorUnitExp).Shift(-minorUnitExp)
	if cents.Abs().GreaterThan(maxCents) {
		return 0, fmt.Errorf("%w: %s", ErrAmountOutOfRange, d.String())
	}
	return Money(cents.IntPart()), nil
}

// Decimal returns the amount as a decimal in major units
func (m Money) Decimal() decimal.Decimal {
	return decimal.New(int64(m), minorUnitExp)
}

// String formats the amount with exactly two decimal places, e.g. "25.01"
func (m Money) String() string {
	return m.Decimal().StringFixed(-minorUnitExp)
}

// Format renders the amount with the given currency code, e.g. "25.01 EUR"
func (m Money) Format(currency string) string {
	if currency == "" {
		return m.String()
	}
	return m.String() + " " + currency
}

// IsNegative reports whether the amount is below zero
func (m Money) IsNegative() bool {
	return m < 0
}

// MarshalText implements encoding.TextMarshaler
func (m Money) MarshalText() ([]byte, error) {
	return []byte(m.String()), nil
}

// UnmarshalText implements encoding.TextUnmarshaler
func (m *Money) UnmarshalText(text []byte) error {
	parsed, err := ParseMoney(string(text))
	if err != nil {
		return err
	}
	*m = parsed
	return nil
}
