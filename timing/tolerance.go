package timing

import "github.com/shopspring/decimal"

// tolerance is the one slack the scheduler allows when comparing instants.
// Two times closer than this are the same instant, and a remaining execution
// time no larger than this is finished.
//
// Arithmetic is exact, so the slack only matters for values written with
// more than nine fractional digits. Task sets whose parameters are at or
// below this scale are not simulated faithfully: their distinct instants
// collapse into one. Scale such sets up before simulating.
var tolerance = decimal.New(1, -9)

// Tolerance returns the comparison slack, 1e-9 time units.
func Tolerance() VTime {
	return VTime{d: tolerance}
}

// Equal reports whether a and b are the same instant.
func Equal(a, b VTime) bool {
	return a.d.Sub(b.d).Abs().Cmp(tolerance) <= 0
}

// Before reports whether a is strictly earlier than b by more than the
// tolerance.
func Before(a, b VTime) bool {
	return a.d.Add(tolerance).Cmp(b.d) < 0
}

// NotAfter reports whether a happens at or before b.
func NotAfter(a, b VTime) bool {
	return !Before(b, a)
}

// IsZero reports whether a duration has run out.
func IsZero(t VTime) bool {
	return t.d.Abs().Cmp(tolerance) <= 0
}
