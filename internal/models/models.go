package models

import (
	"math"
	"strconv"

	blackscholes "github.com/jwaldner/blackscholes/blackscholes_lib"
)

// Number is a float64 that encodes NaN and Inf as JSON null, since the
// pricing formulas pass those through for degenerate inputs
type Number float64

func (n Number) MarshalJSON() ([]byte, error) {
	f := float64(n)
	if math.IsNaN(f) || math.IsInf(f, 0) {
		return []byte("null"), nil
	}
	return []byte(strconv.FormatFloat(f, 'g', -1, 64)), nil
}

// FieldValue represents a field with both raw data and formatted display
type FieldValue struct {
	Raw     interface{} `json:"raw"`     // For CSV/sorting: 1234.56
	Display string      `json:"display"` // For UI: "$1,234.56"
	Type    string      `json:"type"`    // For CSS: "currency"
}

// FormattedResult represents a result with formatted fields
type FormattedResult map[string]FieldValue

// ResponseMetadata describes how a response was computed
type ResponseMetadata struct {
	Engine         string  `json:"engine"`
	Precision      string  `json:"precision"`
	Timestamp      string  `json:"timestamp"`
	ProcessingTime float64 `json:"processing_time"` // milliseconds
	RateSource     string  `json:"rate_source,omitempty"`
}

// ErrorResponse is returned for rejected requests
type ErrorResponse struct {
	Success bool   `json:"success"`
	Error   string `json:"error"`
}

// MarketRequest holds the market fields shared by pricing requests.
// Rate is optional (percent); Days may be replaced by ExpirationDate.
type MarketRequest struct {
	OptionType     string   `json:"option_type"` // "call" or "put"
	StockPrice     float64  `json:"stock_price"`
	StrikePrice    float64  `json:"strike_price"`
	Rate           *float64 `json:"rate,omitempty"`
	Days           float64  `json:"days,omitempty"`
	ExpirationDate string   `json:"expiration_date,omitempty"`
}

// PriceRequest asks for price and Greeks at a volatility (percent)
type PriceRequest struct {
	MarketRequest
	Volatility float64 `json:"volatility"`
}

// ImpliedVolatilityRequest asks for the volatility implied by a quoted price
type ImpliedVolatilityRequest struct {
	MarketRequest
	Price  float64 `json:"price"`
	Method string  `json:"method,omitempty"` // signed, newton, bisection
}

// ProbabilityRequest asks for the odds of finishing below/above a target
type ProbabilityRequest struct {
	Price          float64 `json:"price"`
	Target         float64 `json:"target"`
	Days           float64 `json:"days,omitempty"`
	ExpirationDate string  `json:"expiration_date,omitempty"`
	Volatility     float64 `json:"volatility"`
}

// ContractRequest is one contract in a batch or chain request
type ContractRequest struct {
	Symbol         string   `json:"symbol"`
	OptionType     string   `json:"option_type"`
	StrikePrice    float64  `json:"strike_price"`
	StockPrice     float64  `json:"stock_price,omitempty"`
	Rate           *float64 `json:"rate,omitempty"`
	Days           float64  `json:"days,omitempty"`
	ExpirationDate string   `json:"expiration_date,omitempty"`
	Volatility     float64  `json:"volatility,omitempty"`
	MarketPrice    float64  `json:"market_price,omitempty"`
}

// BatchCalculationRequest for multiple calculations
type BatchCalculationRequest struct {
	Contracts []ContractRequest `json:"contracts"`
}

// ChainRequest analyzes quoted contracts on one underlying
type ChainRequest struct {
	Symbol         string            `json:"symbol"`
	StockPrice     float64           `json:"stock_price"`
	Rate           *float64          `json:"rate,omitempty"`
	Days           float64           `json:"days,omitempty"`
	ExpirationDate string            `json:"expiration_date,omitempty"`
	Contracts      []ContractRequest `json:"contracts"`
}

// Greeks is the JSON form of blackscholes.Greeks
type Greeks struct {
	Price Number `json:"price"`
	Delta Number `json:"delta"`
	Gamma Number `json:"gamma"`
	Vega  Number `json:"vega"`
	Theta Number `json:"theta"`
	Rho   Number `json:"rho"`
}

// NewGreeks converts library Greeks for encoding
func NewGreeks(g blackscholes.Greeks) Greeks {
	return Greeks{
		Price: Number(g.Price),
		Delta: Number(g.Delta),
		Gamma: Number(g.Gamma),
		Vega:  Number(g.Vega),
		Theta: Number(g.Theta),
		Rho:   Number(g.Rho),
	}
}

// ResolvedInputs echoes the inputs actually used after defaults were applied
type ResolvedInputs struct {
	OptionType  string  `json:"option_type"`
	StockPrice  float64 `json:"stock_price"`
	StrikePrice float64 `json:"strike_price"`
	Rate        float64 `json:"rate"`
	Days        float64 `json:"days"`
	Volatility  float64 `json:"volatility,omitempty"`
}

// PriceResponse for Black-Scholes results
type PriceResponse struct {
	Success       bool             `json:"success"`
	Inputs        ResolvedInputs   `json:"inputs"`
	Greeks        Greeks           `json:"greeks"`
	Formatted     FormattedResult  `json:"formatted"`
	PriceFraction string           `json:"price_fraction"`
	Meta          ResponseMetadata `json:"meta"`
}

// ImpliedVolatilityResponse carries the solver result. A negative volatility
// flags a quote below the intrinsic value.
type ImpliedVolatilityResponse struct {
	Success           bool             `json:"success"`
	Inputs            ResolvedInputs   `json:"inputs"`
	Method            string           `json:"method"`
	ImpliedVolatility Number           `json:"implied_volatility"`
	Converged         bool             `json:"converged"`
	Intrinsic         Number           `json:"intrinsic"`
	BelowIntrinsic    bool             `json:"below_intrinsic"`
	Error             string           `json:"error,omitempty"`
	Meta              ResponseMetadata `json:"meta"`
}

// ProbabilityResponse carries the below/above percentages
type ProbabilityResponse struct {
	Success bool             `json:"success"`
	Below   Number           `json:"below"`
	Above   Number           `json:"above"`
	Days    float64          `json:"days"`
	Meta    ResponseMetadata `json:"meta"`
}

// ContractResult is one priced contract
type ContractResult struct {
	Symbol            string  `json:"symbol"`
	OptionType        string  `json:"option_type"`
	StrikePrice       float64 `json:"strike_price"`
	StockPrice        float64 `json:"stock_price"`
	Days              float64 `json:"days"`
	Rate              float64 `json:"rate"`
	Volatility        Number  `json:"volatility"`
	MarketPrice       float64 `json:"market_price,omitempty"`
	ImpliedVolatility Number  `json:"implied_volatility,omitempty"`
	Converged         bool    `json:"converged"`
	Greeks            Greeks  `json:"greeks"`
}

// BatchCalculationResponse for multiple results
type BatchCalculationResponse struct {
	Success           bool             `json:"success"`
	Results           []ContractResult `json:"results"`
	TotalCalculations int              `json:"total_calculations"`
	Meta              ResponseMetadata `json:"meta"`
}

// VolatilitySkew is the 25-delta risk reversal of a chain, in volatility percent
type VolatilitySkew struct {
	Put25DIV  Number `json:"put_25d_iv"`
	Call25DIV Number `json:"call_25d_iv"`
	Skew      Number `json:"skew"`
	Valid     bool   `json:"valid"`
}

// ChainTiming is the per-phase compute time in milliseconds
type ChainTiming struct {
	PreprocessMs   float64 `json:"preprocess_ms"`
	BlackScholesMs float64 `json:"black_scholes_ms"`
	SkewMs         float64 `json:"skew_ms"`
	TotalMs        float64 `json:"total_ms"`
}

// ChainResponse is the analysis of an option chain
type ChainResponse struct {
	Success               bool             `json:"success"`
	Symbol                string           `json:"symbol"`
	StockPrice            float64          `json:"stock_price"`
	Puts                  []ContractResult `json:"puts"`
	Calls                 []ContractResult `json:"calls"`
	Skew                  VolatilitySkew   `json:"skew"`
	TotalOptionsProcessed int              `json:"total_options_processed"`
	Unconverged           int              `json:"unconverged"`
	Timing                ChainTiming      `json:"timing"`
	Meta                  ResponseMetadata `json:"meta"`
}
