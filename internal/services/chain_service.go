package services

import (
	"fmt"
	"math"
	"time"

	blackscholes "github.com/jwaldner/blackscholes/blackscholes_lib"
	"github.com/jwaldner/blackscholes/internal/logger"
)

// skewTargetDelta is the absolute delta of the risk reversal legs
const skewTargetDelta = 0.25

// VolatilitySkew is the 25-delta put IV minus the 25-delta call IV, in percent
type VolatilitySkew struct {
	Put25DIV  float64
	Call25DIV float64
	Skew      float64
	Valid     bool
}

// ChainAnalysisResult holds one analyzed chain
type ChainAnalysisResult struct {
	Symbol                string
	StockPrice            float64
	Puts                  []blackscholes.OptionContract
	Calls                 []blackscholes.OptionContract
	Skew                  VolatilitySkew
	TotalOptionsProcessed int
	Unconverged           int

	PreprocessMs   float64
	BlackScholesMs float64
	SkewMs         float64
	TotalMs        float64
}

// ChainService solves implied volatility across an option chain
type ChainService struct {
	engine *blackscholes.Engine
}

// NewChainService creates a chain service on engine
func NewChainService(engine *blackscholes.Engine) *ChainService {
	return &ChainService{engine: engine}
}

// AnalyzeChainWithTiming splits contracts into puts and calls, solves each
// contract's implied volatility from its market price, and derives the
// 25-delta skew. Each phase is timed separately.
func (cs *ChainService) AnalyzeChainWithTiming(symbol string, stockPrice float64, contracts []blackscholes.OptionContract) (*ChainAnalysisResult, error) {
	result := &ChainAnalysisResult{
		Symbol:     symbol,
		StockPrice: stockPrice,
	}

	// PHASE 1: split by type
	preprocessStart := time.Now()

	var puts, calls []blackscholes.OptionContract
	for _, option := range contracts {
		switch option.OptionType {
		case 'P':
			puts = append(puts, option)
		case 'C':
			calls = append(calls, option)
		default:
			return nil, fmt.Errorf("%w: %q", blackscholes.ErrInvalidOptionType, option.OptionType)
		}
	}
	result.PreprocessMs = elapsedMs(preprocessStart)

	logger.Debug.Printf("🔧 PREPROCESS %s: %.3fms | %d contracts → %d puts, %d calls",
		symbol, result.PreprocessMs, len(contracts), len(puts), len(calls))

	// PHASE 2: implied volatility and Greeks
	blackScholesStart := time.Now()

	var err error
	if result.Puts, err = cs.engine.CalculateImpliedVolatility(puts); err != nil {
		return nil, err
	}
	if result.Calls, err = cs.engine.CalculateImpliedVolatility(calls); err != nil {
		return nil, err
	}
	result.BlackScholesMs = elapsedMs(blackScholesStart)

	logger.Debug.Printf("⚡ BLACK-SCHOLES %s: %.3fms | %d puts + %d calls",
		symbol, result.BlackScholesMs, len(result.Puts), len(result.Calls))

	// PHASE 3: 25-delta skew
	skewStart := time.Now()
	result.Skew = Calculate25DeltaSkew(result.Puts, result.Calls)
	result.SkewMs = elapsedMs(skewStart)

	if result.Skew.Valid {
		logger.Debug.Printf("📊 SKEW CALC %s: %.3fms | %.4f skew (%.4f put - %.4f call)",
			symbol, result.SkewMs, result.Skew.Skew, result.Skew.Put25DIV, result.Skew.Call25DIV)
	}

	for _, c := range result.Puts {
		if !c.Converged {
			result.Unconverged++
		}
	}
	for _, c := range result.Calls {
		if !c.Converged {
			result.Unconverged++
		}
	}
	if result.Unconverged > 0 {
		logger.Warn.Printf("⚠️ %s: %d of %d contracts did not converge", symbol, result.Unconverged, len(contracts))
	}

	result.TotalOptionsProcessed = len(result.Puts) + len(result.Calls)
	result.TotalMs = result.PreprocessMs + result.BlackScholesMs + result.SkewMs

	logger.Info.Printf("📈 %s chain: %d contracts in %.3fms (preprocess %.3fms, black-scholes %.3fms, skew %.3fms)",
		symbol, result.TotalOptionsProcessed, result.TotalMs, result.PreprocessMs, result.BlackScholesMs, result.SkewMs)

	return result, nil
}

// Calculate25DeltaSkew picks the converged put and call whose deltas are
// closest to -0.25 and 0.25 and returns put IV minus call IV
func Calculate25DeltaSkew(puts, calls []blackscholes.OptionContract) VolatilitySkew {
	put, okPut := closestDelta(puts, -skewTargetDelta)
	call, okCall := closestDelta(calls, skewTargetDelta)
	if !okPut || !okCall {
		return VolatilitySkew{}
	}

	return VolatilitySkew{
		Put25DIV:  put.Volatility,
		Call25DIV: call.Volatility,
		Skew:      put.Volatility - call.Volatility,
		Valid:     true,
	}
}

func closestDelta(contracts []blackscholes.OptionContract, target float64) (blackscholes.OptionContract, bool) {
	var best blackscholes.OptionContract
	bestDistance := math.Inf(1)
	for _, c := range contracts {
		if !c.Converged || c.ImpliedVolatility <= 0 {
			continue
		}
		if d := math.Abs(c.Greeks.Delta - target); d < bestDistance {
			best, bestDistance = c, d
		}
	}
	return best, !math.IsInf(bestDistance, 1)
}

func elapsedMs(start time.Time) float64 {
	return time.Since(start).Seconds() * 1000
}
