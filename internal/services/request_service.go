package services

import (
	"context"
	"encoding/json"
	"fmt"
	"math"
	"net/http"
	"strconv"
	"strings"
	"time"

	blackscholes "github.com/jwaldner/blackscholes/blackscholes_lib"
	"github.com/jwaldner/blackscholes/internal/models"
	"github.com/jwaldner/blackscholes/internal/treasury"
	"github.com/jwaldner/blackscholes/internal/utils"
)

// Rate sources reported in response metadata
const (
	RateSourceRequest = "request"
	RateSourceMarket  = "market"
)

// Solver methods accepted by the implied volatility endpoint
const (
	MethodSigned    = "signed"
	MethodNewton    = "newton"
	MethodBisection = "bisection"
)

// ResolvedMarket is a validated request in library conventions
type ResolvedMarket struct {
	blackscholes.MarketInputs
	OptionType string // "call" or "put"
	RateSource string
}

// ResolvedContract is one validated batch or chain contract
type ResolvedContract struct {
	Contract   blackscholes.OptionContract
	OptionType string
}

// RequestService handles HTTP request parsing
type RequestService struct {
	rates treasury.RateSource
	now   func() time.Time
}

// NewRequestService creates a request service that fills missing rates from rates
func NewRequestService(rates treasury.RateSource) *RequestService {
	return &RequestService{
		rates: rates,
		now:   time.Now,
	}
}

// decodePost decodes a JSON POST body into v
func decodePost(r *http.Request, v interface{}) error {
	if r.Method != http.MethodPost {
		return fmt.Errorf("method not allowed: %s", r.Method)
	}

	// Parse JSON request
	if err := json.NewDecoder(r.Body).Decode(v); err != nil {
		return fmt.Errorf("failed to decode request: %w", err)
	}
	return nil
}

// ParseOptionType maps "call"/"put" (or "C"/"P") to a call flag
func ParseOptionType(s string) (bool, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "call", "c":
		return true, nil
	case "put", "p":
		return false, nil
	}
	return false, fmt.Errorf("%w: option_type must be call or put, got %q", blackscholes.ErrInvalidOptionType, s)
}

func optionTypeName(isCall bool) string {
	if isCall {
		return "call"
	}
	return "put"
}

// ResolveDays prefers explicit days, then the expiration date, then the next
// monthly expiration
func (s *RequestService) ResolveDays(days float64, expirationDate string) (float64, error) {
	if days != 0 {
		return days, nil
	}

	now := s.now()
	if expirationDate == "" {
		expirationDate = utils.CalculateNextOptionsExpiration(now)
	}
	return utils.DaysUntil(expirationDate, now)
}

// ResolveRate returns the requested rate or the market rate when none was given
func (s *RequestService) ResolveRate(ctx context.Context, rate *float64) (float64, string) {
	if rate != nil {
		return *rate, RateSourceRequest
	}
	return s.rates.RiskFreeRate(ctx), RateSourceMarket
}

func (s *RequestService) resolveMarket(ctx context.Context, req models.MarketRequest, vol float64) (*ResolvedMarket, error) {
	isCall, err := ParseOptionType(req.OptionType)
	if err != nil {
		return nil, err
	}

	days, err := s.ResolveDays(req.Days, req.ExpirationDate)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", blackscholes.ErrInvalidInput, err)
	}

	rate, source := s.ResolveRate(ctx, req.Rate)

	market := &ResolvedMarket{
		MarketInputs: blackscholes.MarketInputs{
			IsCall:      isCall,
			StockPrice:  req.StockPrice,
			StrikePrice: req.StrikePrice,
			RatePercent: rate,
			Days:        days,
			VolPercent:  vol,
		},
		OptionType: optionTypeName(isCall),
		RateSource: source,
	}
	if err := market.Validate(); err != nil {
		return nil, err
	}
	return market, nil
}

// ParsePriceRequest parses and validates a pricing request
func (s *RequestService) ParsePriceRequest(r *http.Request) (*ResolvedMarket, error) {
	var req models.PriceRequest
	if err := decodePost(r, &req); err != nil {
		return nil, err
	}
	return s.resolveMarket(r.Context(), req.MarketRequest, req.Volatility)
}

// ParseImpliedVolatilityRequest parses an implied volatility request and
// returns the resolved market, the quoted price and the solver method
func (s *RequestService) ParseImpliedVolatilityRequest(r *http.Request) (*ResolvedMarket, float64, string, error) {
	var req models.ImpliedVolatilityRequest
	if err := decodePost(r, &req); err != nil {
		return nil, 0, "", err
	}

	// Set defaults
	method := strings.ToLower(strings.TrimSpace(req.Method))
	if method == "" {
		method = MethodSigned
	}
	switch method {
	case MethodSigned, MethodNewton, MethodBisection:
	default:
		return nil, 0, "", fmt.Errorf("%w: unknown method %q", blackscholes.ErrInvalidInput, req.Method)
	}

	if !(req.Price > 0) {
		return nil, 0, "", fmt.Errorf("%w: price must be positive, got %v", blackscholes.ErrInvalidInput, req.Price)
	}

	market, err := s.resolveMarket(r.Context(), req.MarketRequest, 0)
	if err != nil {
		return nil, 0, "", err
	}
	return market, req.Price, method, nil
}

// ParseProbabilityRequest parses a probability request and returns it with
// days resolved
func (s *RequestService) ParseProbabilityRequest(r *http.Request) (*models.ProbabilityRequest, error) {
	var req models.ProbabilityRequest
	if err := decodePost(r, &req); err != nil {
		return nil, err
	}

	days, err := s.ResolveDays(req.Days, req.ExpirationDate)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", blackscholes.ErrInvalidInput, err)
	}
	req.Days = days

	// Validate required fields
	switch {
	case !(req.Price > 0):
		return nil, fmt.Errorf("%w: price must be positive", blackscholes.ErrInvalidInput)
	case !(req.Target > 0):
		return nil, fmt.Errorf("%w: target must be positive", blackscholes.ErrInvalidInput)
	case !(req.Volatility > 0):
		return nil, fmt.Errorf("%w: volatility must be positive", blackscholes.ErrInvalidInput)
	}
	return &req, nil
}

// ResolveContracts validates batch or chain contracts. Fields a contract
// leaves empty are taken from defaults.
func (s *RequestService) ResolveContracts(ctx context.Context, contracts []models.ContractRequest, defaults models.ContractRequest) ([]ResolvedContract, error) {
	if len(contracts) == 0 {
		return nil, fmt.Errorf("%w: contracts are required", blackscholes.ErrInvalidInput)
	}

	resolved := make([]ResolvedContract, 0, len(contracts))
	for i, c := range contracts {
		if c.StockPrice == 0 {
			c.StockPrice = defaults.StockPrice
		}
		if c.Rate == nil {
			c.Rate = defaults.Rate
		}
		if c.Days == 0 && c.ExpirationDate == "" {
			c.Days = defaults.Days
			c.ExpirationDate = defaults.ExpirationDate
		}
		if c.Symbol == "" {
			c.Symbol = defaults.Symbol
		}

		market, err := s.resolveMarket(ctx, models.MarketRequest{
			OptionType:     c.OptionType,
			StockPrice:     c.StockPrice,
			StrikePrice:    c.StrikePrice,
			Rate:           c.Rate,
			Days:           c.Days,
			ExpirationDate: c.ExpirationDate,
		}, c.Volatility)
		if err != nil {
			return nil, fmt.Errorf("contract %d: %w", i, err)
		}

		optionType := byte('P')
		if market.IsCall {
			optionType = 'C'
		}
		resolved = append(resolved, ResolvedContract{
			Contract: blackscholes.OptionContract{
				Symbol:           strings.TrimSpace(strings.ToUpper(c.Symbol)),
				StrikePrice:      market.StrikePrice,
				UnderlyingPrice:  market.StockPrice,
				DaysToExpiration: market.Days,
				RiskFreeRate:     market.RatePercent,
				Volatility:       market.VolPercent,
				OptionType:       optionType,
				MarketPrice:      c.MarketPrice,
			},
			OptionType: market.OptionType,
		})
	}
	return resolved, nil
}

// ParseBatchRequest parses a batch pricing request
func (s *RequestService) ParseBatchRequest(r *http.Request) ([]ResolvedContract, error) {
	var req models.BatchCalculationRequest
	if err := decodePost(r, &req); err != nil {
		return nil, err
	}
	return s.ResolveContracts(r.Context(), req.Contracts, models.ContractRequest{})
}

// ParseChainRequest parses a chain analysis request. Every contract needs a
// market price.
func (s *RequestService) ParseChainRequest(r *http.Request) (*models.ChainRequest, []ResolvedContract, error) {
	var req models.ChainRequest
	if err := decodePost(r, &req); err != nil {
		return nil, nil, err
	}

	req.Symbol = strings.TrimSpace(strings.ToUpper(req.Symbol))
	if req.Symbol == "" {
		return nil, nil, fmt.Errorf("%w: symbol is required", blackscholes.ErrInvalidInput)
	}

	for i, c := range req.Contracts {
		if !(c.MarketPrice > 0) {
			return nil, nil, fmt.Errorf("%w: contract %d needs a market price", blackscholes.ErrInvalidInput, i)
		}
	}

	contracts, err := s.ResolveContracts(r.Context(), req.Contracts, models.ContractRequest{
		Symbol:         req.Symbol,
		StockPrice:     req.StockPrice,
		Rate:           req.Rate,
		Days:           req.Days,
		ExpirationDate: req.ExpirationDate,
	})
	if err != nil {
		return nil, nil, err
	}
	return &req, contracts, nil
}

// ParseFractionRequest reads the finite ?value= of a fraction request
func (s *RequestService) ParseFractionRequest(r *http.Request) (float64, error) {
	raw := r.URL.Query().Get("value")
	value, err := strconv.ParseFloat(raw, 64)
	if err != nil || math.IsNaN(value) || math.IsInf(value, 0) {
		return 0, fmt.Errorf("%w: value must be a number, got %q", blackscholes.ErrInvalidInput, raw)
	}
	return value, nil
}

// RateStatus describes the rate source used for requests without a rate
type RateStatus struct {
	Source      string  `json:"source"`
	Rate        float64 `json:"rate"`
	AgeSeconds  float64 `json:"age_seconds"`
	Initialized bool    `json:"initialized"`
}

type cachedRateSource interface {
	GetCacheInfo() (rate float64, age time.Duration, isInitialized bool)
}

// RateStatus reports the current fallback rate. Cached sources report the
// age of their last fetch without triggering a new one.
func (s *RequestService) RateStatus() RateStatus {
	if cached, ok := s.rates.(cachedRateSource); ok {
		rate, age, initialized := cached.GetCacheInfo()
		return RateStatus{
			Source:      "treasury",
			Rate:        rate,
			AgeSeconds:  age.Seconds(),
			Initialized: initialized,
		}
	}
	return RateStatus{
		Source:      "static",
		Rate:        s.rates.RiskFreeRate(context.Background()),
		Initialized: true,
	}
}
