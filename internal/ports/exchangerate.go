package ports

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"github.com/shopspring/decimal"
)

// HTTPExchangeRateProvider calls a REST exchange-rate API over plain
// net/http. No HTTP client library appears anywhere in the reference
// corpus (the teacher's only outbound HTTP caller is its own Echo server),
// so this stays on the standard library rather than adding a dependency
// with nothing in the corpus to ground it.
type HTTPExchangeRateProvider struct {
	baseURL string
	client  *http.Client
}

// NewHTTPExchangeRateProvider wires a provider against baseURL (e.g.
// "https://api.exchangerate.host").
func NewHTTPExchangeRateProvider(baseURL string) *HTTPExchangeRateProvider {
	return &HTTPExchangeRateProvider{
		baseURL: baseURL,
		client:  &http.Client{Timeout: 10 * time.Second},
	}
}

type exchangeRateResponse struct {
	Rates map[string]decimal.Decimal `json:"rates"`
}

// FetchRate requests the base->quote rate as of asOf's calendar date.
func (p *HTTPExchangeRateProvider) FetchRate(ctx context.Context, base, quote string, asOf time.Time) (decimal.Decimal, error) {
	url := fmt.Sprintf("%s/%s?base=%s&symbols=%s", p.baseURL, asOf.Format("2006-01-02"), base, quote)
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return decimal.Zero, err
	}

	resp, err := p.client.Do(req)
	if err != nil {
		return decimal.Zero, fmt.Errorf("exchange rate request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return decimal.Zero, fmt.Errorf("exchange rate request: status %d", resp.StatusCode)
	}

	var parsed exchangeRateResponse
	if err := json.NewDecoder(resp.Body).Decode(&parsed); err != nil {
		return decimal.Zero, fmt.Errorf("decode exchange rate response: %w", err)
	}

	rate, ok := parsed.Rates[quote]
	if !ok {
		return decimal.Zero, fmt.Errorf("no rate for %s in response", quote)
	}
	return rate, nil
}

// FixedExchangeRateProvider always returns the same rate; it needs no
// ExchangeRateAPIBase.
type FixedExchangeRateProvider struct {
	Rate decimal.Decimal
}

// FetchRate implements ExchangeRateProvider with a constant rate.
func (p *FixedExchangeRateProvider) FetchRate(ctx context.Context, base, quote string, asOf time.Time) (decimal.Decimal, error) {
	return p.Rate, nil
}
