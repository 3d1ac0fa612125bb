// Package timing defines the simulated time used by the scheduler.
//
// Time values are exact decimals. Task parameters are entered as decimals, and
// every instant the simulator produces is a sum of releases, deadlines, and
// execution times, so no arithmetic in a run ever needs to round.
package timing

import (
	"fmt"

	"github.com/shopspring/decimal"
)

// VTime is an instant or a duration in simulated time units. The zero value
// is time 0.
type VTime struct {
	d decimal.Decimal
}

// Zero is the origin of the timeline.
var Zero = VTime{}

// FromInt returns the integer time n.
func FromInt(n int64) VTime {
	return VTime{d: decimal.NewFromInt(n)}
}

// FromDecimal wraps a decimal value.
func FromDecimal(d decimal.Decimal) VTime {
	return VTime{d: d}
}

// FromFloat converts a float using its shortest decimal representation, so
// 0.1 becomes exactly 0.1.
func FromFloat(f float64) VTime {
	return VTime{d: decimal.NewFromFloat(f)}
}

// Parse reads a decimal literal such as "4", "0.25", or "1e3".
func Parse(s string) (VTime, error) {
	d, err := decimal.NewFromString(s)
	if err != nil {
		return Zero, fmt.Errorf("timing: invalid time %q: %w", s, err)
	}

	return VTime{d: d}, nil
}

// MustParse is Parse that panics on malformed input.
func MustParse(s string) VTime {
	t, err := Parse(s)
	if err != nil {
		panic(err)
	}

	return t
}

// Decimal returns the underlying decimal value.
func (t VTime) Decimal() decimal.Decimal {
	return t.d
}

// Add returns t + o.
func (t VTime) Add(o VTime) VTime {
	return VTime{d: t.d.Add(o.d)}
}

// Sub returns t - o.
func (t VTime) Sub(o VTime) VTime {
	return VTime{d: t.d.Sub(o.d)}
}

// MulInt returns t * n.
func (t VTime) MulInt(n int64) VTime {
	return VTime{d: t.d.Mul(decimal.NewFromInt(n))}
}

// Cmp compares exactly, without tolerance. Use Before, NotAfter, and Equal
// for scheduling decisions.
func (t VTime) Cmp(o VTime) int {
	return t.d.Cmp(o.d)
}

// Sign returns -1, 0, or 1.
func (t VTime) Sign() int {
	return t.d.Sign()
}

// Float64 returns the nearest float. Only for reporting.
func (t VTime) Float64() float64 {
	f, _ := t.d.Float64()
	return f
}

// String returns the decimal form without trailing zeros.
func (t VTime) String() string {
	return t.d.String()
}

// MarshalJSON writes the time as a bare JSON number.
func (t VTime) MarshalJSON() ([]byte, error) {
	return []byte(t.d.String()), nil
}

// UnmarshalJSON accepts both JSON numbers and quoted decimals.
func (t *VTime) UnmarshalJSON(data []byte) error {
	return t.d.UnmarshalJSON(data)
}

// Min returns the earliest of the given times. It panics with no arguments.
func Min(first VTime, rest ...VTime) VTime {
	m := first
	for _, t := range rest {
		if t.Cmp(m) < 0 {
			m = t
		}
	}

	return m
}
