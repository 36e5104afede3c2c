package blackscholes

import "math"

// ProbabilityPair is the chance, in percent truncated to 0.1, of the stock
// finishing below and above a target price
type ProbabilityPair struct {
	Below float64 `json:"below"`
	Above float64 `json:"above"`
}

// truncate5 floors v to five decimal places
func truncate5(v float64) float64 {
	return math.Floor(v*100000) / 100000
}

// ProbabilityRange estimates the probability of price finishing below and
// above target after days, given an annual volatility in percent.
//
// The CDF here is a five-decimal truncated polynomial with its own rounded
// coefficients, and both outputs are floored rather than rounded, so they
// are reproducible digit for digit and may sum to slightly under 100.
func ProbabilityRange(price, target, days, vol float64) ProbabilityPair {
	t := days / DaysPerYear
	vt := vol / 100 * math.Sqrt(t)
	d1 := math.Log(target/price) / vt

	y := truncate5(1 / (1 + 0.2316419*math.Abs(d1)))
	z := truncate5(0.3989423 * math.Exp(-(d1*d1)/2))

	y5 := 1.330274 * math.Pow(y, 5)
	y4 := 1.821256 * math.Pow(y, 4)
	y3 := 1.781478 * math.Pow(y, 3)
	y2 := 0.356538 * math.Pow(y, 2)
	y1 := 0.3193815 * y

	x := truncate5(1 - z*(y5-y4+y3-y2+y1))
	if d1 < 0 {
		x = 1 - x
	}

	return ProbabilityPair{
		Below: math.Floor(x*1000) / 10,
		Above: math.Floor((1-x)*1000) / 10,
	}
}
