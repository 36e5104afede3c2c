package blackscholes

import (
	"fmt"
	"math"
)

// DaysPerYear converts calendar days to a year fraction
const DaysPerYear = 365.0

// Greeks holds the theoretical price and sensitivities of an option.
// Theta is per calendar day; Vega and Rho are per unit (not per percent).
type Greeks struct {
	Price float64 `json:"price"`
	Delta float64 `json:"delta"`
	Gamma float64 `json:"gamma"`
	Vega  float64 `json:"vega"`
	Theta float64 `json:"theta"`
	Rho   float64 `json:"rho"`
}

// MarketInputs are the Black-Scholes inputs in the library's percent/day conventions
type MarketInputs struct {
	IsCall      bool
	StockPrice  float64
	StrikePrice float64
	RatePercent float64
	Days        float64
	VolPercent  float64
}

// Validate rejects inputs the formulas would turn into NaN or Inf.
// The pricing functions themselves never validate.
func (in MarketInputs) Validate() error {
	switch {
	case !(in.StockPrice > 0) || math.IsInf(in.StockPrice, 0):
		return fmt.Errorf("%w: stock price must be positive, got %v", ErrInvalidInput, in.StockPrice)
	case !(in.StrikePrice > 0) || math.IsInf(in.StrikePrice, 0):
		return fmt.Errorf("%w: strike price must be positive, got %v", ErrInvalidInput, in.StrikePrice)
	case !(in.Days > 0) || math.IsInf(in.Days, 0):
		return fmt.Errorf("%w: days to expiration must be positive, got %v", ErrInvalidInput, in.Days)
	case math.IsNaN(in.RatePercent) || math.IsInf(in.RatePercent, 0):
		return fmt.Errorf("%w: rate must be finite, got %v", ErrInvalidInput, in.RatePercent)
	case !(in.VolPercent >= 0) || math.IsInf(in.VolPercent, 0):
		return fmt.Errorf("%w: volatility must be non-negative, got %v", ErrInvalidInput, in.VolPercent)
	}
	return nil
}

// Price computes the Black-Scholes price and Greeks.
//
// rate and vol are percentages (5.25 means 5.25%), days are calendar days.
// A zero volatility still evaluates: d1 and d2 diverge to +/-Inf and the price
// collapses to the discounted intrinsic value, which ImpliedVolatility relies on.
func (e *Engine) Price(isCall bool, S, X, rate, days, vol float64) Greeks {
	r := rate / 100
	sigma := vol / 100
	t := days / DaysPerYear

	sqrtT := math.Sqrt(t)
	discount := math.Exp(-r * t)
	sigmaT := sigma * sqrtT

	d1 := (math.Log(S/X)+r*t)/sigmaT + 0.5*sigmaT
	d2 := d1 - sigmaT

	var nd1, nd2 float64
	if isCall {
		nd1 = e.cdf(d1)
		nd2 = e.cdf(d2)
	} else {
		nd1 = -e.cdf(-d1)
		nd2 = -e.cdf(-d2)
	}
	pdf := Density(d1)

	return Greeks{
		Price: S*nd1 - X*discount*nd2,
		Delta: nd1,
		Gamma: pdf / (S * sigmaT),
		Vega:  S * sqrtT * pdf,
		Theta: (-(S*sigma*pdf)/(2*sqrtT) - r*X*discount*nd2) / DaysPerYear,
		Rho:   X * t * discount * nd2,
	}
}

// PriceInputs is Price over a MarketInputs value
func (e *Engine) PriceInputs(in MarketInputs) Greeks {
	return e.Price(in.IsCall, in.StockPrice, in.StrikePrice, in.RatePercent, in.Days, in.VolPercent)
}

// Intrinsic returns the zero-volatility price, the floor reachable by the model
func (e *Engine) Intrinsic(isCall bool, S, X, rate, days float64) float64 {
	return e.Price(isCall, S, X, rate, days, 0).Price
}
