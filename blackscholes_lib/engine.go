package blackscholes

import (
	"errors"
	"fmt"
)

var (
	// ErrInvalidOptionType is returned for contracts that are neither 'C' nor 'P'
	ErrInvalidOptionType = errors.New("invalid option type")
	// ErrInvalidInput is returned when market inputs fall outside the model's domain
	ErrInvalidInput = errors.New("invalid market inputs")
)

// SolverConfig holds the implied volatility solver settings.
//
// BisectionTolerance is an absolute price tolerance, and the derived step
// count only narrows the bracket to about tolerance/2 volatility points, so
// bisection converges only while vega per volatility point stays below about
// 2. That holds for ordinary equity prices but not for underlyings in the
// thousands (an ATM call on S=20000 fails at the defaults). Raising the
// tolerance does not help since it also cuts the step count; set
// BisectionSteps instead, or solve on prices scaled down by a common factor,
// which leaves the implied volatility unchanged.
type SolverConfig struct {
	NewtonIterations   int     // iteration cap for Newton-Raphson
	NewtonTolerance    float64 // price tolerance for Newton-Raphson
	BisectionTolerance float64 // price tolerance for bisection
	BisectionLower     float64 // lower volatility bracket, percent
	BisectionUpper     float64 // upper volatility bracket, percent
	BisectionSteps     int     // overrides the derived bisection step count when > 0
}

// BisectionStepCount is the number of halvings Bisection performs
func (c SolverConfig) BisectionStepCount() int {
	if c.BisectionSteps > 0 {
		return c.BisectionSteps
	}
	return BisectionIterations(c.BisectionLower, c.BisectionUpper, c.BisectionTolerance)
}

// DefaultSolverConfig returns the canonical solver settings
func DefaultSolverConfig() SolverConfig {
	return SolverConfig{
		NewtonIterations:   10,
		NewtonTolerance:    0.01,
		BisectionTolerance: 0.001,
		BisectionLower:     0,
		BisectionUpper:     200,
	}
}

// withDefaults fills zero fields from DefaultSolverConfig
func (c SolverConfig) withDefaults() SolverConfig {
	d := DefaultSolverConfig()
	if c.NewtonIterations <= 0 {
		c.NewtonIterations = d.NewtonIterations
	}
	if c.NewtonTolerance <= 0 {
		c.NewtonTolerance = d.NewtonTolerance
	}
	if c.BisectionTolerance <= 0 {
		c.BisectionTolerance = d.BisectionTolerance
	}
	if c.BisectionUpper <= c.BisectionLower {
		c.BisectionLower = d.BisectionLower
		c.BisectionUpper = d.BisectionUpper
	}
	return c
}

// OptionContract represents an options contract
type OptionContract struct {
	Symbol           string
	StrikePrice      float64
	UnderlyingPrice  float64
	DaysToExpiration float64
	RiskFreeRate     float64 // percent
	Volatility       float64 // percent
	OptionType       byte    // 'C' or 'P'
	MarketPrice      float64

	// Output Greeks
	Greeks            Greeks
	ImpliedVolatility float64 // percent
	Converged         bool
}

// IsCall reports whether the contract is a call
func (c OptionContract) IsCall() bool {
	return c.OptionType == 'C'
}

func (c OptionContract) checkType() error {
	if c.OptionType != 'C' && c.OptionType != 'P' {
		return fmt.Errorf("%s: %w %q", c.Symbol, ErrInvalidOptionType, c.OptionType)
	}
	return nil
}

// Engine prices options and solves implied volatility with a fixed CDF and
// solver configuration. It holds no mutable state and is safe for concurrent use.
type Engine struct {
	cdf       CDF
	precision Precision
	solver    SolverConfig
}

// NewEngine creates an engine using the double precision CDF and the
// canonical solver settings
func NewEngine() *Engine {
	return NewEngineWithConfig(PrecisionDouble, DefaultSolverConfig())
}

// NewEngineForced creates an engine with a named CDF precision ("single" or
// "double"); unknown names use double precision
func NewEngineForced(precision string) *Engine {
	return NewEngineWithConfig(Precision(precision), DefaultSolverConfig())
}

// NewEngineWithConfig creates an engine with explicit precision and solver settings
func NewEngineWithConfig(precision Precision, solver SolverConfig) *Engine {
	cdf, p := cdfFor(precision)
	return &Engine{
		cdf:       cdf,
		precision: p,
		solver:    solver.withDefaults(),
	}
}

// Precision returns the CDF precision in use
func (e *Engine) Precision() Precision {
	return e.precision
}

// SolverConfig returns the solver settings in use
func (e *Engine) SolverConfig() SolverConfig {
	return e.solver
}

// CalculateBlackScholes prices every contract at its own volatility
func (e *Engine) CalculateBlackScholes(contracts []OptionContract) ([]OptionContract, error) {
	if len(contracts) == 0 {
		return contracts, nil
	}

	results := make([]OptionContract, len(contracts))
	for i, contract := range contracts {
		if err := contract.checkType(); err != nil {
			return nil, err
		}
		results[i] = contract
		results[i].Greeks = e.Price(contract.IsCall(), contract.UnderlyingPrice, contract.StrikePrice,
			contract.RiskFreeRate, contract.DaysToExpiration, contract.Volatility)
	}

	return results, nil
}

// CalculateImpliedVolatility solves the signed implied volatility of every
// contract from its market price and reprices its Greeks at that volatility.
// Contracts that fail to converge keep a zero volatility and Converged=false.
func (e *Engine) CalculateImpliedVolatility(contracts []OptionContract) ([]OptionContract, error) {
	if len(contracts) == 0 {
		return contracts, nil
	}

	results := make([]OptionContract, len(contracts))
	for i, contract := range contracts {
		if err := contract.checkType(); err != nil {
			return nil, err
		}
		results[i] = contract

		iv, err := e.ImpliedVolatility(contract.IsCall(), contract.UnderlyingPrice, contract.StrikePrice,
			contract.RiskFreeRate, contract.DaysToExpiration, contract.MarketPrice)
		results[i].ImpliedVolatility = iv
		results[i].Converged = err == nil
		if err != nil {
			continue
		}

		// negative volatility is a diagnostic, price the contract at its magnitude
		vol := iv
		if vol < 0 {
			vol = -vol
		}
		results[i].Volatility = vol
		results[i].Greeks = e.Price(contract.IsCall(), contract.UnderlyingPrice, contract.StrikePrice,
			contract.RiskFreeRate, contract.DaysToExpiration, vol)
	}

	return results, nil
}
