package timing

import "fmt"

// GCD returns the greatest common divisor of two positive times, that is, the
// largest duration both are whole multiples of. Euclid's algorithm runs on
// exact decimal remainders until a remainder is exactly zero.
func GCD(a, b VTime) VTime {
	mustBePositive(a)
	mustBePositive(b)

	x, y := a.d, b.d
	for !y.IsZero() {
		x, y = y, x.Mod(y)
	}

	return VTime{d: x}
}

// LCM returns the least common multiple of two positive times.
func LCM(a, b VTime) VTime {
	g := GCD(a, b)

	// b/g is a whole number, so the quotient at precision 0 is exact.
	q, _ := b.d.QuoRem(g.d, 0)

	return VTime{d: a.d.Mul(q)}
}

func mustBePositive(t VTime) {
	if t.Sign() <= 0 {
		panic(fmt.Sprintf("timing: expected a positive time, got %s", t))
	}
}
