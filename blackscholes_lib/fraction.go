package blackscholes

import (
	"fmt"
	"math"
)

// Fraction renders z as a whole number plus a fraction in 32nds reduced to
// the smallest power of two denominator, e.g. 4.375 -> "4 3/8".
// Remainders under 1/64 are dropped and those over 63/64 roll up.
func Fraction(z float64) string {
	whole := math.Floor(z)
	n := int(math.Round((z - whole) * 32))

	switch n {
	case 0:
		return fmt.Sprintf("%.0f", whole)
	case 32:
		return fmt.Sprintf("%.0f", whole+1)
	}

	d := 32
	for n%2 == 0 {
		n /= 2
		d /= 2
	}
	return fmt.Sprintf("%.0f %d/%d", whole, n, d)
}
