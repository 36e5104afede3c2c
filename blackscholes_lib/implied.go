package blackscholes

import (
	"errors"
	"fmt"
	"math"
)

// ErrNotConverged is returned when a solver exhausts its iteration budget.
// The accompanying volatility is always 0.
var ErrNotConverged = errors.New("implied volatility did not converge")

// NewtonRaphson recovers the implied volatility, in percent, of an option
// quoted at price. The first guess is the Brenner-Subrahmanyam approximation.
func (e *Engine) NewtonRaphson(isCall bool, S, X, rate, days, price float64) (float64, error) {
	t := days / DaysPerYear
	sigma := math.Sqrt(2*math.Pi/t) * price / S

	for i := 0; i < e.solver.NewtonIterations; i++ {
		g := e.Price(isCall, S, X, rate, days, sigma*100)
		diff := g.Price - price
		if math.Abs(diff) < e.solver.NewtonTolerance {
			return sigma * 100, nil
		}
		if g.Vega == 0 || math.IsNaN(g.Vega) || math.IsInf(g.Vega, 0) {
			return 0, fmt.Errorf("newton-raphson: flat vega at %.4f%%: %w", sigma*100, ErrNotConverged)
		}
		sigma -= diff / g.Vega
	}

	return 0, fmt.Errorf("newton-raphson: %d iterations: %w", e.solver.NewtonIterations, ErrNotConverged)
}

// BisectionIterations is the number of halvings needed to shrink the
// bracket [lower, upper] below tolerance
func BisectionIterations(lower, upper, tolerance float64) int {
	return int(math.Round(math.Log2((upper-lower)/tolerance) + 1))
}

// Bisection recovers the implied volatility, in percent, by bisecting the
// configured volatility bracket. Price is increasing in volatility for calls
// and puts alike, so the sign of the pricing error picks the half to keep.
func (e *Engine) Bisection(isCall bool, S, X, rate, days, price float64) (float64, error) {
	lo, hi := e.solver.BisectionLower, e.solver.BisectionUpper
	tol := e.solver.BisectionTolerance
	n := e.solver.BisectionStepCount()

	for i := 0; i < n; i++ {
		iv := (lo + hi) / 2
		diff := e.Price(isCall, S, X, rate, days, iv).Price - price
		if math.Abs(diff) < tol {
			return iv, nil
		}
		if diff > 0 {
			hi = iv
		} else {
			lo = iv
		}
	}

	return 0, fmt.Errorf("bisection: %d iterations in [%g, %g]: %w", n, e.solver.BisectionLower, e.solver.BisectionUpper, ErrNotConverged)
}

// ImpliedVolatility is the signed solver. A price equal to the intrinsic value
// yields 0; a price above it is solved by bisection; a price below it, which no
// non-negative volatility can reach, is reflected about the intrinsic value and
// reported as a negative volatility flagging a sub-intrinsic quote.
func (e *Engine) ImpliedVolatility(isCall bool, S, X, rate, days, price float64) (float64, error) {
	intrinsic := e.Intrinsic(isCall, S, X, rate, days)
	if math.IsNaN(intrinsic) {
		// at-the-money forward, the sigma->0 limit is zero
		intrinsic = 0
	}

	if price == intrinsic {
		return 0, nil
	}
	if price > intrinsic {
		return e.Bisection(isCall, S, X, rate, days, price)
	}

	iv, err := e.Bisection(isCall, S, X, rate, days, intrinsic+(intrinsic-price))
	if err != nil {
		return 0, err
	}
	return -iv, nil
}
