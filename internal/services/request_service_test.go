package services

import (
	"context"
	"errors"
	"math"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	blackscholes "github.com/jwaldner/blackscholes/blackscholes_lib"
	"github.com/jwaldner/blackscholes/internal/models"
	"github.com/jwaldner/blackscholes/internal/treasury"
)

func newTestRequestService() *RequestService {
	s := NewRequestService(treasury.StaticRate(4.25))
	s.now = func() time.Time { return time.Date(2026, 10, 19, 16, 0, 0, 0, time.UTC) }
	return s
}

func post(body string) *http.Request {
	return httptest.NewRequest(http.MethodPost, "/", strings.NewReader(body))
}

func TestParseOptionType(t *testing.T) {
	tests := []struct {
		in     string
		isCall bool
		ok     bool
	}{
		{"call", true, true},
		{"CALL", true, true},
		{" C ", true, true},
		{"put", false, true},
		{"p", false, true},
		{"straddle", false, false},
		{"", false, false},
	}

	for _, tt := range tests {
		isCall, err := ParseOptionType(tt.in)
		if (err == nil) != tt.ok {
			t.Errorf("ParseOptionType(%q) error = %v, want ok=%v", tt.in, err, tt.ok)
			continue
		}
		if !tt.ok {
			if !errors.Is(err, blackscholes.ErrInvalidOptionType) {
				t.Errorf("ParseOptionType(%q) error %v is not ErrInvalidOptionType", tt.in, err)
			}
			continue
		}
		if isCall != tt.isCall {
			t.Errorf("ParseOptionType(%q) = %v, want %v", tt.in, isCall, tt.isCall)
		}
	}
}

func TestResolveDays(t *testing.T) {
	s := newTestRequestService()

	tests := []struct {
		name       string
		days       float64
		expiration string
		want       float64
	}{
		{"explicit days", 45, "2026-11-20", 45},
		{"expiration date", 0, "2026-11-20", 32},
		{"next monthly expiration", 0, "", 32},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := s.ResolveDays(tt.days, tt.expiration)
			if err != nil {
				t.Fatalf("ResolveDays: %v", err)
			}
			if math.Abs(got-tt.want) > 1e-9 {
				t.Errorf("ResolveDays = %v, want %v", got, tt.want)
			}
		})
	}

	if _, err := s.ResolveDays(0, "2026-10-01"); err == nil {
		t.Errorf("expected error for past expiration")
	}
}

func TestResolveRate(t *testing.T) {
	s := newTestRequestService()

	rate, source := s.ResolveRate(context.Background(), nil)
	if rate != 4.25 || source != RateSourceMarket {
		t.Errorf("ResolveRate(nil) = %v, %s", rate, source)
	}

	given := 0.0
	rate, source = s.ResolveRate(context.Background(), &given)
	if rate != 0 || source != RateSourceRequest {
		t.Errorf("ResolveRate(0) = %v, %s; an explicit zero rate must be kept", rate, source)
	}
}

func TestParsePriceRequest(t *testing.T) {
	s := newTestRequestService()

	market, err := s.ParsePriceRequest(post(`{"option_type":"put","stock_price":100,"strike_price":95,"rate":5,"days":30,"volatility":25}`))
	if err != nil {
		t.Fatalf("ParsePriceRequest: %v", err)
	}

	want := blackscholes.MarketInputs{IsCall: false, StockPrice: 100, StrikePrice: 95, RatePercent: 5, Days: 30, VolPercent: 25}
	if market.MarketInputs != want {
		t.Errorf("inputs = %+v, want %+v", market.MarketInputs, want)
	}
	if market.OptionType != "put" || market.RateSource != RateSourceRequest {
		t.Errorf("resolved = %+v", market)
	}
}

func TestParsePriceRequestRejects(t *testing.T) {
	s := newTestRequestService()

	tests := []struct {
		name string
		req  *http.Request
	}{
		{"wrong method", httptest.NewRequest(http.MethodGet, "/", nil)},
		{"bad json", post(`{"option_type":`)},
		{"bad type", post(`{"option_type":"swap","stock_price":100,"strike_price":95,"days":30,"volatility":25}`)},
		{"zero stock", post(`{"option_type":"call","stock_price":0,"strike_price":95,"days":30,"volatility":25}`)},
		{"negative vol", post(`{"option_type":"call","stock_price":100,"strike_price":95,"days":30,"volatility":-5}`)},
		{"past expiration", post(`{"option_type":"call","stock_price":100,"strike_price":95,"expiration_date":"2026-01-16","volatility":25}`)},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, err := s.ParsePriceRequest(tt.req); err == nil {
				t.Errorf("expected error")
			}
		})
	}
}

func TestParseImpliedVolatilityRequest(t *testing.T) {
	s := newTestRequestService()

	market, price, method, err := s.ParseImpliedVolatilityRequest(post(`{"option_type":"call","stock_price":100,"strike_price":100,"days":30,"price":3.1}`))
	if err != nil {
		t.Fatalf("ParseImpliedVolatilityRequest: %v", err)
	}
	if price != 3.1 || method != MethodSigned {
		t.Errorf("price = %v, method = %q", price, method)
	}
	if market.RatePercent != 4.25 || market.RateSource != RateSourceMarket {
		t.Errorf("rate = %v from %s, want market 4.25", market.RatePercent, market.RateSource)
	}

	if _, _, _, err := s.ParseImpliedVolatilityRequest(post(`{"option_type":"call","stock_price":100,"strike_price":100,"days":30,"price":3.1,"method":"secant"}`)); !errors.Is(err, blackscholes.ErrInvalidInput) {
		t.Errorf("unknown method error = %v", err)
	}
	if _, _, _, err := s.ParseImpliedVolatilityRequest(post(`{"option_type":"call","stock_price":100,"strike_price":100,"days":30}`)); err == nil {
		t.Errorf("expected error for missing price")
	}
}

func TestParseProbabilityRequest(t *testing.T) {
	s := newTestRequestService()

	req, err := s.ParseProbabilityRequest(post(`{"price":100,"target":110,"expiration_date":"2026-11-20","volatility":30}`))
	if err != nil {
		t.Fatalf("ParseProbabilityRequest: %v", err)
	}
	if math.Abs(req.Days-32) > 1e-9 {
		t.Errorf("days = %v, want 32", req.Days)
	}

	if _, err := s.ParseProbabilityRequest(post(`{"price":100,"target":110,"days":30}`)); err == nil {
		t.Errorf("expected error for missing volatility")
	}
}

func TestResolveContractsDefaults(t *testing.T) {
	s := newTestRequestService()
	rate := 5.0

	resolved, err := s.ResolveContracts(context.Background(), []models.ContractRequest{
		{OptionType: "call", StrikePrice: 105, MarketPrice: 2},
		{Symbol: "qqq", OptionType: "P", StrikePrice: 95, StockPrice: 98, Days: 10, MarketPrice: 1},
	}, models.ContractRequest{Symbol: "spy", StockPrice: 100, Rate: &rate, Days: 30})
	if err != nil {
		t.Fatalf("ResolveContracts: %v", err)
	}

	first := resolved[0].Contract
	if first.Symbol != "SPY" || first.UnderlyingPrice != 100 || first.RiskFreeRate != 5 || first.DaysToExpiration != 30 || first.OptionType != 'C' {
		t.Errorf("first contract = %+v", first)
	}
	second := resolved[1].Contract
	if second.Symbol != "QQQ" || second.UnderlyingPrice != 98 || second.DaysToExpiration != 10 || second.OptionType != 'P' {
		t.Errorf("second contract = %+v", second)
	}
	if resolved[1].OptionType != "put" {
		t.Errorf("option type = %q", resolved[1].OptionType)
	}

	if _, err := s.ResolveContracts(context.Background(), nil, models.ContractRequest{}); err == nil {
		t.Errorf("expected error for empty contracts")
	}
}

func TestParseChainRequestNeedsMarketPrices(t *testing.T) {
	s := newTestRequestService()

	_, contracts, err := s.ParseChainRequest(post(`{"symbol":"spy","stock_price":100,"days":30,"contracts":[{"option_type":"put","strike_price":95,"market_price":1.2}]}`))
	if err != nil {
		t.Fatalf("ParseChainRequest: %v", err)
	}
	if len(contracts) != 1 || contracts[0].Contract.Symbol != "SPY" {
		t.Errorf("contracts = %+v", contracts)
	}

	if _, _, err := s.ParseChainRequest(post(`{"symbol":"spy","stock_price":100,"days":30,"contracts":[{"option_type":"put","strike_price":95}]}`)); err == nil {
		t.Errorf("expected error for missing market price")
	}
	if _, _, err := s.ParseChainRequest(post(`{"stock_price":100,"days":30,"contracts":[{"option_type":"put","strike_price":95,"market_price":1}]}`)); err == nil {
		t.Errorf("expected error for missing symbol")
	}
}

func TestParseFractionRequest(t *testing.T) {
	s := newTestRequestService()

	v, err := s.ParseFractionRequest(httptest.NewRequest(http.MethodGet, "/api/fraction?value=4.375", nil))
	if err != nil || v != 4.375 {
		t.Errorf("ParseFractionRequest = %v, %v", v, err)
	}

	for _, raw := range []string{"", "abc", "NaN", "Inf", "-Inf"} {
		_, err := s.ParseFractionRequest(httptest.NewRequest(http.MethodGet, "/api/fraction?value="+raw, nil))
		if !errors.Is(err, blackscholes.ErrInvalidInput) {
			t.Errorf("value=%q: err = %v, want ErrInvalidInput", raw, err)
		}
	}
}

func TestRateStatusStatic(t *testing.T) {
	status := newTestRequestService().RateStatus()
	if status.Source != "static" || status.Rate != 4.25 || !status.Initialized {
		t.Errorf("RateStatus = %+v", status)
	}
}

func TestRateStatusTreasury(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"data":[{"record_date":"2026-09-30","avg_interest_rate_amt":"3.983"}],"meta":{"count":1}}`))
	}))
	defer server.Close()

	s := NewRequestService(treasury.NewTreasuryClient(server.URL, time.Second, time.Hour, 4.5))

	before := s.RateStatus()
	if before.Source != "treasury" || before.Initialized || before.Rate != 4.5 {
		t.Errorf("before fetch: %+v", before)
	}

	if rate, source := s.ResolveRate(context.Background(), nil); rate != 3.983 || source != RateSourceMarket {
		t.Fatalf("ResolveRate = %v, %s", rate, source)
	}

	after := s.RateStatus()
	if !after.Initialized || after.Rate != 3.983 || after.AgeSeconds < 0 {
		t.Errorf("after fetch: %+v", after)
	}
}
