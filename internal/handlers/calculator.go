package handlers

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/gorilla/mux"

	blackscholes "github.com/jwaldner/blackscholes/blackscholes_lib"
	"github.com/jwaldner/blackscholes/internal/logger"
	"github.com/jwaldner/blackscholes/internal/models"
	"github.com/jwaldner/blackscholes/internal/services"
)

const engineName = "black-scholes"

// CalculatorHandler serves the pricing, implied volatility and probability API
type CalculatorHandler struct {
	engine   *blackscholes.Engine
	requests *services.RequestService
	chains   *services.ChainService
}

// NewCalculatorHandler creates a new calculator handler
func NewCalculatorHandler(engine *blackscholes.Engine, requests *services.RequestService) *CalculatorHandler {
	return &CalculatorHandler{
		engine:   engine,
		requests: requests,
		chains:   services.NewChainService(engine),
	}
}

// RegisterRoutes mounts the API on r
func (h *CalculatorHandler) RegisterRoutes(r *mux.Router) {
	r.Use(corsMiddleware)

	api := r.PathPrefix("/api").Subrouter()
	api.HandleFunc("/price", h.PriceHandler).Methods("POST", "OPTIONS")
	api.HandleFunc("/implied-volatility", h.ImpliedVolatilityHandler).Methods("POST", "OPTIONS")
	api.HandleFunc("/probability", h.ProbabilityHandler).Methods("POST", "OPTIONS")
	api.HandleFunc("/batch", h.BatchHandler).Methods("POST", "OPTIONS")
	api.HandleFunc("/chain", h.ChainHandler).Methods("POST", "OPTIONS")
	api.HandleFunc("/fraction", h.FractionHandler).Methods("GET", "OPTIONS")

	r.HandleFunc("/health", h.HealthHandler).Methods("GET")
}

// corsMiddleware sets CORS headers and answers preflight requests
func corsMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Access-Control-Allow-Origin", "*")
		w.Header().Set("Access-Control-Allow-Methods", "GET, POST, OPTIONS")
		w.Header().Set("Access-Control-Allow-Headers", "Content-Type")

		// Handle preflight OPTIONS request
		if r.Method == http.MethodOptions {
			w.WriteHeader(http.StatusOK)
			return
		}
		next.ServeHTTP(w, r)
	})
}

// writeJSON encodes the full body before writing so an encoding failure can
// still produce a 500
func writeJSON(w http.ResponseWriter, status int, v interface{}) {
	jsonBytes, err := json.Marshal(v)
	if err != nil {
		logger.Error.Printf("❌ JSON encoding failed: %v", err)
		http.Error(w, "JSON encoding failed", http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	w.Header().Set("Content-Length", fmt.Sprintf("%d", len(jsonBytes)))
	w.WriteHeader(status)
	w.Write(jsonBytes)
}

func writeError(w http.ResponseWriter, status int, err error) {
	logger.Warn.Printf("⚠️ request rejected (%d): %v", status, err)
	writeJSON(w, status, models.ErrorResponse{Success: false, Error: err.Error()})
}

func (h *CalculatorHandler) meta(start time.Time, rateSource string) models.ResponseMetadata {
	return models.ResponseMetadata{
		Engine:         engineName,
		Precision:      string(h.engine.Precision()),
		Timestamp:      time.Now().Format(time.RFC3339),
		ProcessingTime: time.Since(start).Seconds() * 1000,
		RateSource:     rateSource,
	}
}

func resolvedInputs(m *services.ResolvedMarket) models.ResolvedInputs {
	return models.ResolvedInputs{
		OptionType:  m.OptionType,
		StockPrice:  m.StockPrice,
		StrikePrice: m.StrikePrice,
		Rate:        m.RatePercent,
		Days:        m.Days,
		Volatility:  m.VolPercent,
	}
}

// PriceHandler prices one option and returns its Greeks
func (h *CalculatorHandler) PriceHandler(w http.ResponseWriter, r *http.Request) {
	start := time.Now()

	market, err := h.requests.ParsePriceRequest(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, err)
		return
	}

	g := h.engine.PriceInputs(market.MarketInputs)
	logger.Verbose.Printf("💰 %s S=%.2f X=%.2f r=%.3f%% t=%.2fd vol=%.2f%% → %.4f",
		market.OptionType, market.StockPrice, market.StrikePrice, market.RatePercent, market.Days, market.VolPercent, g.Price)

	writeJSON(w, http.StatusOK, models.PriceResponse{
		Success:       true,
		Inputs:        resolvedInputs(market),
		Greeks:        models.NewGreeks(g),
		Formatted:     convertToFormattedResult(market.MarketInputs, g),
		PriceFraction: formatFraction(g.Price).Display,
		Meta:          h.meta(start, market.RateSource),
	})
}

// ImpliedVolatilityHandler solves the volatility implied by a quoted price.
// A solver that does not converge is reported with converged=false rather
// than as a failed request.
func (h *CalculatorHandler) ImpliedVolatilityHandler(w http.ResponseWriter, r *http.Request) {
	start := time.Now()

	market, price, method, err := h.requests.ParseImpliedVolatilityRequest(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, err)
		return
	}

	in := market.MarketInputs
	var iv float64
	switch method {
	case services.MethodNewton:
		iv, err = h.engine.NewtonRaphson(in.IsCall, in.StockPrice, in.StrikePrice, in.RatePercent, in.Days, price)
	case services.MethodBisection:
		iv, err = h.engine.Bisection(in.IsCall, in.StockPrice, in.StrikePrice, in.RatePercent, in.Days, price)
	default:
		iv, err = h.engine.ImpliedVolatility(in.IsCall, in.StockPrice, in.StrikePrice, in.RatePercent, in.Days, price)
	}

	resp := models.ImpliedVolatilityResponse{
		Success:           true,
		Inputs:            resolvedInputs(market),
		Method:            method,
		ImpliedVolatility: models.Number(iv),
		Converged:         err == nil,
		Intrinsic:         models.Number(h.engine.Intrinsic(in.IsCall, in.StockPrice, in.StrikePrice, in.RatePercent, in.Days)),
		BelowIntrinsic:    err == nil && iv < 0,
	}
	if err != nil {
		if !errors.Is(err, blackscholes.ErrNotConverged) {
			writeError(w, http.StatusInternalServerError, err)
			return
		}
		logger.Debug.Printf("🔍 %s IV for price %.4f did not converge: %v", method, price, err)
		resp.Error = err.Error()
	}
	resp.Meta = h.meta(start, market.RateSource)

	writeJSON(w, http.StatusOK, resp)
}

// ProbabilityHandler returns the odds of the underlying finishing below or
// above a target price
func (h *CalculatorHandler) ProbabilityHandler(w http.ResponseWriter, r *http.Request) {
	start := time.Now()

	req, err := h.requests.ParseProbabilityRequest(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, err)
		return
	}

	pair := blackscholes.ProbabilityRange(req.Price, req.Target, req.Days, req.Volatility)
	writeJSON(w, http.StatusOK, models.ProbabilityResponse{
		Success: true,
		Below:   models.Number(pair.Below),
		Above:   models.Number(pair.Above),
		Days:    req.Days,
		Meta:    h.meta(start, ""),
	})
}

// contractResult converts a contract for encoding. Only contracts that went
// through the solver report an implied volatility and convergence.
func contractResult(c blackscholes.OptionContract, optionType string, solved bool) models.ContractResult {
	result := models.ContractResult{
		Symbol:      c.Symbol,
		OptionType:  optionType,
		StrikePrice: c.StrikePrice,
		StockPrice:  c.UnderlyingPrice,
		Days:        c.DaysToExpiration,
		Rate:        c.RiskFreeRate,
		Volatility:  models.Number(c.Volatility),
		MarketPrice: c.MarketPrice,
		Converged:   true,
		Greeks:      models.NewGreeks(c.Greeks),
	}
	if solved {
		result.ImpliedVolatility = models.Number(c.ImpliedVolatility)
		result.Converged = c.Converged
	}
	return result
}

func contractTypeName(c blackscholes.OptionContract) string {
	if c.IsCall() {
		return "call"
	}
	return "put"
}

// BatchHandler prices many contracts. Contracts quoted with a market price
// and no volatility are solved for implied volatility first.
func (h *CalculatorHandler) BatchHandler(w http.ResponseWriter, r *http.Request) {
	start := time.Now()

	resolved, err := h.requests.ParseBatchRequest(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, err)
		return
	}

	var priced, quoted []blackscholes.OptionContract
	var order []bool // true when the i-th contract is quoted
	for _, rc := range resolved {
		isQuoted := rc.Contract.Volatility == 0 && rc.Contract.MarketPrice > 0
		if isQuoted {
			quoted = append(quoted, rc.Contract)
		} else {
			priced = append(priced, rc.Contract)
		}
		order = append(order, isQuoted)
	}

	pricedResults, err := h.engine.CalculateBlackScholes(priced)
	if err != nil {
		writeError(w, http.StatusBadRequest, err)
		return
	}
	quotedResults, err := h.engine.CalculateImpliedVolatility(quoted)
	if err != nil {
		writeError(w, http.StatusBadRequest, err)
		return
	}

	results := make([]models.ContractResult, 0, len(resolved))
	var pi, qi int
	for _, isQuoted := range order {
		var c blackscholes.OptionContract
		if isQuoted {
			c = quotedResults[qi]
			qi++
		} else {
			c = pricedResults[pi]
			pi++
		}
		results = append(results, contractResult(c, contractTypeName(c), isQuoted))
	}

	logger.Info.Printf("⚡ batch: %d priced, %d solved in %.3fms", len(priced), len(quoted), time.Since(start).Seconds()*1000)

	writeJSON(w, http.StatusOK, models.BatchCalculationResponse{
		Success:           true,
		Results:           results,
		TotalCalculations: len(results),
		Meta:              h.meta(start, ""),
	})
}

// ChainHandler solves implied volatility across a quoted chain and reports
// its 25-delta skew
func (h *CalculatorHandler) ChainHandler(w http.ResponseWriter, r *http.Request) {
	start := time.Now()

	req, resolved, err := h.requests.ParseChainRequest(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, err)
		return
	}

	contracts := make([]blackscholes.OptionContract, len(resolved))
	for i, rc := range resolved {
		contracts[i] = rc.Contract
	}

	analysis, err := h.chains.AnalyzeChainWithTiming(req.Symbol, req.StockPrice, contracts)
	if err != nil {
		writeError(w, http.StatusBadRequest, err)
		return
	}

	resp := models.ChainResponse{
		Success:               true,
		Symbol:                analysis.Symbol,
		StockPrice:            analysis.StockPrice,
		Puts:                  make([]models.ContractResult, 0, len(analysis.Puts)),
		Calls:                 make([]models.ContractResult, 0, len(analysis.Calls)),
		TotalOptionsProcessed: analysis.TotalOptionsProcessed,
		Unconverged:           analysis.Unconverged,
		Skew: models.VolatilitySkew{
			Put25DIV:  models.Number(analysis.Skew.Put25DIV),
			Call25DIV: models.Number(analysis.Skew.Call25DIV),
			Skew:      models.Number(analysis.Skew.Skew),
			Valid:     analysis.Skew.Valid,
		},
		Timing: models.ChainTiming{
			PreprocessMs:   analysis.PreprocessMs,
			BlackScholesMs: analysis.BlackScholesMs,
			SkewMs:         analysis.SkewMs,
			TotalMs:        analysis.TotalMs,
		},
	}
	for _, c := range analysis.Puts {
		resp.Puts = append(resp.Puts, contractResult(c, "put", true))
	}
	for _, c := range analysis.Calls {
		resp.Calls = append(resp.Calls, contractResult(c, "call", true))
	}
	resp.Meta = h.meta(start, "")

	writeJSON(w, http.StatusOK, resp)
}

// FractionHandler renders ?value= in 32nds
func (h *CalculatorHandler) FractionHandler(w http.ResponseWriter, r *http.Request) {
	value, err := h.requests.ParseFractionRequest(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, err)
		return
	}

	writeJSON(w, http.StatusOK, map[string]interface{}{
		"success":  true,
		"value":    value,
		"fraction": blackscholes.Fraction(value),
	})
}

// HealthHandler reports liveness, the engine configuration and the rate source
func (h *CalculatorHandler) HealthHandler(w http.ResponseWriter, r *http.Request) {
	cfg := h.engine.SolverConfig()
	writeJSON(w, http.StatusOK, map[string]interface{}{
		"status":    "ok",
		"engine":    engineName,
		"precision": string(h.engine.Precision()),
		"solver": map[string]interface{}{
			"newton_iterations":    cfg.NewtonIterations,
			"newton_tolerance":     cfg.NewtonTolerance,
			"bisection_tolerance":  cfg.BisectionTolerance,
			"bisection_iterations": cfg.BisectionStepCount(),
		},
		"rates":     h.requests.RateStatus(),
		"timestamp": time.Now().Format(time.RFC3339),
	})
}
