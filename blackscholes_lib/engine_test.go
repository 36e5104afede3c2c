package blackscholes

import (
	"errors"
	"math"
	"testing"
)

func TestEngineCreation(t *testing.T) {
	if p := NewEngine().Precision(); p != PrecisionDouble {
		t.Errorf("default precision = %q, want double", p)
	}
	if p := NewEngineForced("single").Precision(); p != PrecisionSingle {
		t.Errorf("forced precision = %q, want single", p)
	}
	if p := NewEngineForced("cuda").Precision(); p != PrecisionDouble {
		t.Errorf("unknown precision = %q, want double fallback", p)
	}

	cfg := NewEngineWithConfig(PrecisionDouble, SolverConfig{NewtonIterations: 25}).SolverConfig()
	want := DefaultSolverConfig()
	want.NewtonIterations = 25
	if cfg != want {
		t.Errorf("SolverConfig = %+v, want %+v", cfg, want)
	}

	inverted := NewEngineWithConfig(PrecisionDouble, SolverConfig{BisectionLower: 50, BisectionUpper: 10}).SolverConfig()
	if inverted.BisectionLower != 0 || inverted.BisectionUpper != 200 {
		t.Errorf("inverted bracket not reset: %+v", inverted)
	}
}

func TestCalculateBlackScholes(t *testing.T) {
	e := NewEngine()
	contracts := []OptionContract{
		{Symbol: "TEST", StrikePrice: 100, UnderlyingPrice: 100, DaysToExpiration: 91, RiskFreeRate: 5, Volatility: 20, OptionType: 'C'},
		{Symbol: "TEST", StrikePrice: 100, UnderlyingPrice: 100, DaysToExpiration: 91, RiskFreeRate: 5, Volatility: 20, OptionType: 'P'},
	}

	results, err := e.CalculateBlackScholes(contracts)
	if err != nil {
		t.Fatalf("CalculateBlackScholes: %v", err)
	}
	if len(results) != 2 {
		t.Fatalf("got %d results, want 2", len(results))
	}

	call, put := results[0].Greeks, results[1].Greeks
	if call.Delta <= 0 || call.Delta >= 1 {
		t.Errorf("call delta = %v, want in (0,1)", call.Delta)
	}
	if put.Delta >= 0 || put.Delta <= -1 {
		t.Errorf("put delta = %v, want in (-1,0)", put.Delta)
	}
	if call.Gamma != put.Gamma {
		t.Errorf("gamma differs between call %v and put %v", call.Gamma, put.Gamma)
	}
	if contracts[0].Greeks != (Greeks{}) {
		t.Errorf("input contract was modified")
	}
}

func TestCalculateBlackScholesRejectsType(t *testing.T) {
	_, err := NewEngine().CalculateBlackScholes([]OptionContract{{Symbol: "BAD", OptionType: 'X'}})
	if !errors.Is(err, ErrInvalidOptionType) {
		t.Errorf("err = %v, want ErrInvalidOptionType", err)
	}

	results, err := NewEngine().CalculateBlackScholes(nil)
	if err != nil || len(results) != 0 {
		t.Errorf("empty batch: got %v, %v", results, err)
	}
}

func TestCalculateImpliedVolatility(t *testing.T) {
	e := NewEngine()
	quoted := e.Price(false, 100, 105, 4, 60, 28).Price

	contracts := []OptionContract{
		{Symbol: "ROUND", StrikePrice: 105, UnderlyingPrice: 100, DaysToExpiration: 60, RiskFreeRate: 4, OptionType: 'P', MarketPrice: quoted},
		{Symbol: "RICH", StrikePrice: 100, UnderlyingPrice: 100, DaysToExpiration: 60, RiskFreeRate: 4, OptionType: 'C', MarketPrice: 500},
	}

	results, err := e.CalculateImpliedVolatility(contracts)
	if err != nil {
		t.Fatalf("CalculateImpliedVolatility: %v", err)
	}

	round := results[0]
	if !round.Converged || math.Abs(round.ImpliedVolatility-28) > 0.1 {
		t.Errorf("round trip: converged=%v iv=%v", round.Converged, round.ImpliedVolatility)
	}
	if math.Abs(round.Greeks.Price-quoted) >= e.SolverConfig().BisectionTolerance {
		t.Errorf("repriced %v, want %v", round.Greeks.Price, quoted)
	}

	rich := results[1]
	if rich.Converged || rich.ImpliedVolatility != 0 {
		t.Errorf("unreachable quote: converged=%v iv=%v", rich.Converged, rich.ImpliedVolatility)
	}
}
