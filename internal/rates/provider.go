package rates

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"time"

	"golang.org/x/time/rate"
)

// DefaultProviderURL serves open exchange rates keyed by base currency.
const DefaultProviderURL = "https://open.er-api.com/v6/latest"

// Table is a set of conversion rates from one base currency.
type Table struct {
	Base    string             `json:"base_code"`
	Rates   map[string]float64 `json:"rates"`
	Updated string             `json:"time_last_update_utc"`
}

// Provider fetches the latest rate table for a base currency.
type Provider interface {
	Latest(ctx context.Context, base string) (Table, error)
}

// HTTPProvider queries an open.er-api.com compatible endpoint.
type HTTPProvider struct {
	baseURL string
	client  *http.Client
	limiter *rate.Limiter
}

// ProviderOption configures an HTTPProvider.
type ProviderOption func(*HTTPProvider)

// WithHTTPClient overrides the HTTP client.
func WithHTTPClient(client *http.Client) ProviderOption {
	return func(p *HTTPProvider) {
		if client != nil {
			p.client = client
		}
	}
}

// WithRateLimit caps outbound requests per second; zero disables limiting.
func WithRateLimit(perSecond float64, burst int) ProviderOption {
	return func(p *HTTPProvider) {
		if perSecond <= 0 {
			p.limiter = nil
			return
		}
		if burst <= 0 {
			burst = 1
		}
		p.limiter = rate.NewLimiter(rate.Limit(perSecond), burst)
	}
}

// NewHTTPProvider builds a provider rooted at baseURL.
func NewHTTPProvider(baseURL string, opts ...ProviderOption) *HTTPProvider {
	baseURL = strings.TrimRight(strings.TrimSpace(baseURL), "/")
	if baseURL == "" {
		baseURL = DefaultProviderURL
	}
	p := &HTTPProvider{
		baseURL: baseURL,
		client:  &http.Client{Timeout: 10 * time.Second},
		limiter: rate.NewLimiter(rate.Limit(1), 3),
	}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

func (p *HTTPProvider) Latest(ctx context.Context, base string) (Table, error) {
	if p.limiter != nil {
		if err := p.limiter.Wait(ctx); err != nil {
			return Table{}, fmt.Errorf("rates: rate limit wait: %w", err)
		}
	}

	endpoint := p.baseURL + "/" + url.PathEscape(base)
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return Table{}, fmt.Errorf("rates: build request: %w", err)
	}
	req.Header.Set("Accept", "application/json")

	resp, err := p.client.Do(req)
	if err != nil {
		return Table{}, fmt.Errorf("rates: fetch %s: %w", base, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return Table{}, fmt.Errorf("rates: provider returned %d", resp.StatusCode)
	}

	var table Table
	if err := json.NewDecoder(resp.Body).Decode(&table); err != nil {
		return Table{}, fmt.Errorf("rates: decode response: %w", err)
	}
	if table.Rates == nil {
		return Table{}, errors.New("rates: provider response has no rates")
	}
	return table, nil
}
