// Package types provides common types used across the ledger.
package types

import (
	"errors"
	"fmt"
	"math"
	"strings"

	"github.com/shopspring/decimal"
)

// Scale is the number of fractional digits an Amount carries.
const Scale = 4

// unitsPerMajor is 10^Scale.
const unitsPerMajor int64 = 10000

// Amount is an exact, signed monetary value stored in ten-thousandths of the
// major unit. All arithmetic is integer-only.
//
// Examples:
//   - Units(15000)  = 1.5000
//   - FromMajor(42) = 42.0000
//   - Units(-1)     = -0.0001
type Amount int64

// Parse errors.
var (
	ErrAmountSyntax    = errors.New("amount: invalid syntax")
	ErrAmountPrecision = errors.New("amount: more than 4 fractional digits")
	ErrAmountRange     = errors.New("amount: out of range")
)

// Zero is the zero Amount.
const Zero Amount = 0

var (
	minUnits = decimal.NewFromInt(math.MinInt64)
	maxUnits = decimal.NewFromInt(math.MaxInt64)
)

// Units creates an Amount from a count of ten-thousandths.
func Units(n int64) Amount { return Amount(n) }

// FromMajor creates an Amount from a whole number of major units.
func FromMajor(n int64) Amount { return Amount(n * unitsPerMajor) }

// ParseAmount parses a decimal string such as "1.5", "-0.0001" or "  200 ".
// Values are never rounded: input with more significant fractional digits
// than Scale is rejected.
func ParseAmount(s string) (Amount, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return Zero, fmt.Errorf("%w: empty string", ErrAmountSyntax)
	}

	d, err := decimal.NewFromString(s)
	if err != nil {
		return Zero, fmt.Errorf("%w: %q", ErrAmountSyntax, s)
	}

	scaled := d.Shift(Scale)
	if !scaled.IsInteger() {
		return Zero, fmt.Errorf("%w: %q", ErrAmountPrecision, s)
	}
	if scaled.LessThan(minUnits) || scaled.GreaterThan(maxUnits) {
		return Zero, fmt.Errorf("%w: %q", ErrAmountRange, s)
	}

	return Amount(scaled.IntPart()), nil
}

// MustParseAmount is like ParseAmount but panics on error. Use for literals.
func MustParseAmount(s string) Amount {
	a, err := ParseAmount(s)
	if err != nil {
		panic(err)
	}
	return a
}

// Arithmetic operations

// Add returns a + other.
func (a Amount) Add(other Amount) Amount { return a + other }

// Sub returns a - other.
func (a Amount) Sub(other Amount) Amount { return a - other }

// Neg returns -a.
func (a Amount) Neg() Amount { return -a }

// CheckedAdd returns a + other and false if the sum overflows int64.
func (a Amount) CheckedAdd(other Amount) (Amount, bool) {
	sum := a + other
	if (other > 0 && sum < a) || (other < 0 && sum > a) {
		return a, false
	}
	return sum, true
}

// CheckedSub returns a - other and false if the difference overflows int64.
func (a Amount) CheckedSub(other Amount) (Amount, bool) {
	diff := a - other
	if (other > 0 && diff > a) || (other < 0 && diff < a) {
		return a, false
	}
	return diff, true
}

// Comparison methods

// IsZero returns true if the amount is zero.
func (a Amount) IsZero() bool { return a == 0 }

// IsPositive returns true if the amount is greater than zero.
func (a Amount) IsPositive() bool { return a > 0 }

// IsNegative returns true if the amount is less than zero.
func (a Amount) IsNegative() bool { return a < 0 }

// LessThan returns true if a < other.
func (a Amount) LessThan(other Amount) bool { return a < other }

// GreaterThan returns true if a > other.
func (a Amount) GreaterThan(other Amount) bool { return a > other }

// Units returns the raw count of ten-thousandths.
func (a Amount) Units() int64 { return int64(a) }

// Decimal converts the amount to a shopspring decimal.
func (a Amount) Decimal() decimal.Decimal {
	return decimal.New(int64(a), -Scale)
}

// Formatting methods

// String returns the amount with exactly Scale fractional digits:
// "1.5000" for Units(15000), "-0.0001" for Units(-1).
func (a Amount) String() string {
	units := int64(a)
	negative := units < 0

	// Work in uint64 so MinInt64 does not overflow on negation.
	abs := uint64(units)
	if negative {
		abs = uint64(-(units + 1)) + 1
	}

	major := abs / uint64(unitsPerMajor)
	minor := abs % uint64(unitsPerMajor)

	result := fmt.Sprintf("%d.%04d", major, minor)
	if negative {
		return "-" + result
	}
	return result
}

// MarshalText implements encoding.TextMarshaler.
func (a Amount) MarshalText() ([]byte, error) {
	return []byte(a.String()), nil
}

// UnmarshalText implements encoding.TextUnmarshaler.
func (a *Amount) UnmarshalText(data []byte) error {
	parsed, err := ParseAmount(string(data))
	if err != nil {
		return err
	}
	*a = parsed
	return nil
}

// Sum calculates the sum of multiple Amount values.
func Sum(values ...Amount) Amount {
	var total Amount
	for _, v := range values {
		total += v
	}
	return total
}
