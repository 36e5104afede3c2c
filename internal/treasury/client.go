package treasury

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strconv"
	"sync"
	"time"

	"github.com/jwaldner/blackscholes/internal/logger"
)

// DefaultBaseURL is the US Treasury fiscal data API
const DefaultBaseURL = "https://api.fiscaldata.treasury.gov/services/api/fiscal_service"

// DefaultRetryBackoff is how long RiskFreeRate serves the last known rate
// after a failed fetch before trying the API again
const DefaultRetryBackoff = time.Minute

// RateSource supplies an annual risk-free rate in percent
type RateSource interface {
	RiskFreeRate(ctx context.Context) float64
}

// StaticRate is a RateSource that always returns the same rate
type StaticRate float64

func (s StaticRate) RiskFreeRate(context.Context) float64 {
	return float64(s)
}

type TreasuryClient struct {
	httpClient *http.Client
	baseURL    string
	maxAge     time.Duration
	backoff    time.Duration

	mu            sync.Mutex
	lastKnownRate float64
	lastFetchTime time.Time
	lastFailure   time.Time
}

type TreasuryResponse struct {
	Data []TreasuryRate `json:"data"`
	Meta struct {
		Count int `json:"count"`
	} `json:"meta"`
}

type TreasuryRate struct {
	RecordDate            string `json:"record_date"`
	SecurityDesc          string `json:"security_desc"`
	AvgInterestRateAmount string `json:"avg_interest_rate_amt"`
}

// NewTreasuryClient creates a client that falls back to fallbackRate (percent)
// until its first successful fetch. Fetched rates are reused for maxAge, and
// a failed fetch is not retried for DefaultRetryBackoff (or maxAge if shorter).
func NewTreasuryClient(baseURL string, timeout, maxAge time.Duration, fallbackRate float64) *TreasuryClient {
	if baseURL == "" {
		baseURL = DefaultBaseURL
	}
	backoff := DefaultRetryBackoff
	if maxAge < backoff {
		backoff = maxAge
	}
	return &TreasuryClient{
		httpClient: &http.Client{
			Timeout: timeout,
		},
		baseURL:       baseURL,
		maxAge:        maxAge,
		backoff:       backoff,
		lastKnownRate: fallbackRate,
	}
}

// fetchRiskFreeRate does the actual API call (internal method)
func (tc *TreasuryClient) fetchRiskFreeRate(ctx context.Context) (float64, error) {
	url := fmt.Sprintf("%s/v2/accounting/od/avg_interest_rates?fields=avg_interest_rate_amt,record_date&filter=security_desc:eq:Treasury%%20Bills&sort=-record_date&page[size]=1", tc.baseURL)

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return 0, fmt.Errorf("failed to build Treasury request: %w", err)
	}

	resp, err := tc.httpClient.Do(req)
	if err != nil {
		return 0, fmt.Errorf("failed to fetch Treasury rate: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return 0, fmt.Errorf("treasury API returned status %d", resp.StatusCode)
	}

	var treasuryResp TreasuryResponse
	if err := json.NewDecoder(resp.Body).Decode(&treasuryResp); err != nil {
		return 0, fmt.Errorf("failed to decode Treasury response: %w", err)
	}

	if len(treasuryResp.Data) == 0 {
		return 0, fmt.Errorf("no Treasury rate data returned")
	}

	// The API already reports percent ("3.983"), which is the library convention
	rateStr := treasuryResp.Data[0].AvgInterestRateAmount
	rate, err := strconv.ParseFloat(rateStr, 64)
	if err != nil {
		return 0, fmt.Errorf("failed to parse rate %s: %w", rateStr, err)
	}

	return rate, nil
}

// GetRiskFreeRate fetches the most recent Treasury Bill rate, in percent
func (tc *TreasuryClient) GetRiskFreeRate(ctx context.Context) (float64, error) {
	rate, err := tc.fetchRiskFreeRate(ctx)
	if err != nil {
		tc.mu.Lock()
		tc.lastFailure = time.Now()
		tc.mu.Unlock()
		return 0, err
	}

	tc.mu.Lock()
	tc.lastKnownRate = rate
	tc.lastFetchTime = time.Now()
	tc.mu.Unlock()

	logger.Info.Printf("📈 Fetched Treasury Bill rate: %.3f%% - updated cache", rate)
	return rate, nil
}

// RiskFreeRate returns the cached rate while it is fresh, otherwise fetches,
// and falls back to the last known rate if the fetch fails. Within the retry
// backoff of a failed fetch the last known rate is returned without a request.
func (tc *TreasuryClient) RiskFreeRate(ctx context.Context) float64 {
	tc.mu.Lock()
	rate, fetched, failed := tc.lastKnownRate, tc.lastFetchTime, tc.lastFailure
	tc.mu.Unlock()

	if !fetched.IsZero() && time.Since(fetched) < tc.maxAge {
		return rate
	}
	if !failed.IsZero() && time.Since(failed) < tc.backoff {
		return rate
	}

	fresh, err := tc.GetRiskFreeRate(ctx)
	if err == nil {
		return fresh
	}

	logger.Warn.Printf("⚠️ Treasury API failed (%v), using last known rate: %.3f%%", err, rate)
	return rate
}

// GetCacheInfo returns information about the cached rate
func (tc *TreasuryClient) GetCacheInfo() (rate float64, age time.Duration, isInitialized bool) {
	tc.mu.Lock()
	defer tc.mu.Unlock()

	if tc.lastFetchTime.IsZero() {
		return tc.lastKnownRate, 0, false
	}
	return tc.lastKnownRate, time.Since(tc.lastFetchTime), true
}
