package coingecko

import (
	"context"
	"encoding/json"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/pkg/errors"

	"github.com/code-payments/custody-server/pkg/currency"
	"github.com/code-payments/custody-server/pkg/metrics"
	"github.com/code-payments/custody-server/pkg/rate"
	"github.com/code-payments/custody-server/pkg/retry"
	"github.com/code-payments/custody-server/pkg/retry/backoff"
)

const (
	metricsStructName = "currency.coingecko.client"
)

const (
	DefaultBaseUrl = "https://api.coingecko.com/api"

	// The public API allows roughly 30 calls a minute
	DefaultRequestsPerSecond = 0.5
)

// Only the market data section is needed for spot prices
var coinQuery = url.Values{
	"localization":   {"false"},
	"tickers":        {"false"},
	"community_data": {"false"},
	"developer_data": {"false"},
	"sparkline":      {"false"},
}.Encode()

type client struct {
	baseUrl    string
	httpClient *http.Client
	retrier    retry.Retrier
	limiter    rate.Limiter
}

type Option func(c *client)

// WithBaseUrl points the client at an alternative API host
func WithBaseUrl(baseUrl string) Option {
	return func(c *client) {
		c.baseUrl = strings.TrimSuffix(baseUrl, "/")
	}
}

// WithRequestsPerSecond limits outbound requests per coin id. Zero disables
// the limit.
func WithRequestsPerSecond(limit float64) Option {
	return func(c *client) {
		c.limiter = rate.NewKeyedLimiter(limit)
	}
}

func NewClient(opts ...Option) currency.Client {
	c := &client{
		baseUrl:    DefaultBaseUrl,
		httpClient: &http.Client{Timeout: 15 * time.Second},
		retrier: retry.NewRetrier(
			retry.NonRetriableErrors(context.Canceled, context.DeadlineExceeded),
			retry.Limit(3),
			retry.BackoffWithJitter(backoff.BinaryExponential(time.Second), 10*time.Second, 0.1),
		),
		limiter: rate.NewKeyedLimiter(DefaultRequestsPerSecond),
	}

	for _, opt := range opts {
		opt(c)
	}
	return c
}

// GetCurrentRates implements currency.Client.GetCurrentRates
func (c *client) GetCurrentRates(ctx context.Context, base string) (*currency.ExchangeData, error) {
	tracer := metrics.TraceMethodCall(ctx, metricsStructName, "GetCurrentRates")
	defer tracer.End()

	data, err := c.getCoin(ctx, base)
	if err != nil {
		tracer.OnError(err)
		return nil, err
	}
	return data, nil
}

func (c *client) getCoin(ctx context.Context, id string) (*currency.ExchangeData, error) {
	if !c.limiter.Allow(id) {
		return nil, currency.ErrRateLimited
	}

	endpoint := c.baseUrl + "/v3/coins/" + url.PathEscape(id) + "?" + coinQuery

	var httpResp *http.Response
	_, err := c.retrier.Retry(func() error {
		req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, http.NoBody)
		if err != nil {
			return errors.Wrap(err, "failed to create request")
		}

		// The body is only left open on success, where it is closed below
		httpResp, err = c.httpClient.Do(req) //nolint:bodyclose
		return err
	})
	if err != nil {
		return nil, errors.Wrap(err, "failed to make request")
	}
	defer httpResp.Body.Close()

	switch httpResp.StatusCode {
	case http.StatusOK:
	case http.StatusNotFound:
		return nil, currency.ErrInvalidBase
	case http.StatusTooManyRequests:
		return nil, currency.ErrRateLimited
	default:
		return nil, errors.Errorf("unexpected status code: %d", httpResp.StatusCode)
	}

	var coin coinResponse
	if err := json.NewDecoder(httpResp.Body).Decode(&coin); err != nil {
		return nil, errors.Wrap(err, "failed to decode response")
	}
	return coin.toExchangeData(), nil
}

type coinResponse struct {
	Symbol     string `json:"symbol"`
	MarketData struct {
		CurrentPrice map[string]float64 `json:"current_price"`
	} `json:"market_data"`
	LastUpdated time.Time `json:"last_updated"`
}

// toExchangeData keeps fiat style three letter quotes only
func (r *coinResponse) toExchangeData() *currency.ExchangeData {
	rates := make(map[string]float64, len(r.MarketData.CurrentPrice))
	for symbol, price := range r.MarketData.CurrentPrice {
		if len(symbol) != 3 {
			continue
		}
		rates[strings.ToLower(symbol)] = price
	}

	return &currency.ExchangeData{
		Base:      strings.ToLower(r.Symbol),
		Rates:     rates,
		Timestamp: r.LastUpdated,
	}
}
