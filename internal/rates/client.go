package rates

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strings"
	"time"

	"golang.org/x/sync/singleflight"
	"golang.org/x/time/rate"

	"avdeck/internal/config"
	"avdeck/internal/dataprocessing"
	apperrors "avdeck/internal/errors"
	"avdeck/internal/infrastructure"
)

// Source yields the rate table quoted against a base currency
type Source interface {
	Rates(ctx context.Context, base string) (dataprocessing.ExchangeRates, error)
}

// Client fetches rate tables from an HTTP endpoint.
// It is safe for concurrent use.
type Client struct {
	endpoint   string
	httpClient *http.Client
	limiter    *rate.Limiter
	group      singleflight.Group
	cache      *Cache
	metrics    *infrastructure.DeckMetrics
	logger     *slog.Logger
}

// Option customises a Client
type Option func(*Client)

// WithHTTPClient replaces the default HTTP client
func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) { c.httpClient = hc }
}

// WithMetrics records fetch outcomes
func WithMetrics(m *infrastructure.DeckMetrics) Option {
	return func(c *Client) { c.metrics = m }
}

// WithLogger sets the client logger
func WithLogger(logger *slog.Logger) Option {
	return func(c *Client) { c.logger = logger }
}

// NewClient creates a client for the configured endpoint
func NewClient(cfg config.RatesConfig, opts ...Option) *Client {
	rps := cfg.RequestsPerSecond
	if rps <= 0 {
		rps = 1
	}
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = config.DefaultHTTPTimeout
	}

	c := &Client{
		endpoint:   cfg.Endpoint,
		httpClient: &http.Client{Timeout: timeout},
		limiter:    rate.NewLimiter(rate.Limit(rps), 1),
		cache:      NewCache(cfg.CacheTTL),
		metrics:    infrastructure.NoopDeckMetrics(),
	}
	for _, opt := range opts {
		opt(c)
	}
	c.logger = infrastructure.WithComponent(c.logger, "rates")
	return c
}

// Rates implements Source
func (c *Client) Rates(ctx context.Context, base string) (dataprocessing.ExchangeRates, error) {
	return c.Fetch(ctx, base)
}

// Fetch returns the latest rates for base, from cache when fresh.
// Concurrent calls for the same base share a single request.
func (c *Client) Fetch(ctx context.Context, base string) (dataprocessing.ExchangeRates, error) {
	base = strings.ToUpper(strings.TrimSpace(base))
	if len(base) != 3 {
		return dataprocessing.ExchangeRates{}, apperrors.NewAppValidationError(fmt.Sprintf("invalid base currency %q", base))
	}

	if cached, ok := c.cache.Get(base); ok {
		c.metrics.RecordRateFetch(ctx, base, "hit")
		return cached, nil
	}

	v, err, shared := c.group.Do(base, func() (interface{}, error) {
		return c.fetch(ctx, base)
	})
	if err != nil {
		c.metrics.RecordRateFetch(ctx, base, "error")
		return dataprocessing.ExchangeRates{}, err
	}

	c.metrics.RecordRateFetch(ctx, base, "fetched")
	if shared {
		c.logger.DebugContext(ctx, "Shared in-flight rate fetch", slog.String("base", base))
	}
	return v.(dataprocessing.ExchangeRates), nil
}

type ratesResponse struct {
	Base  string             `json:"base"`
	Date  string             `json:"date,omitempty"`
	Rates map[string]float64 `json:"rates"`
}

func (c *Client) fetch(ctx context.Context, base string) (dataprocessing.ExchangeRates, error) {
	if err := c.limiter.Wait(ctx); err != nil {
		return dataprocessing.ExchangeRates{}, apperrors.NewNetworkError("rate fetch throttled", err)
	}

	u, err := url.Parse(c.endpoint)
	if err != nil {
		return dataprocessing.ExchangeRates{}, apperrors.NewConfigError(fmt.Sprintf("invalid rates endpoint %q", c.endpoint), err)
	}
	q := u.Query()
	q.Set("base", base)
	u.RawQuery = q.Encode()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u.String(), nil)
	if err != nil {
		return dataprocessing.ExchangeRates{}, apperrors.NewNetworkError("failed to create rates request", err)
	}
	req.Header.Set("Accept", "application/json")
	req.Header.Set("User-Agent", config.AppName+"/"+config.AppVersion)

	start := time.Now()
	resp, err := c.httpClient.Do(req)
	if err != nil {
		c.logger.ErrorContext(ctx, "Rates request failed",
			slog.String("base", base),
			slog.String("error", err.Error()),
			slog.Duration("duration", time.Since(start)))
		return dataprocessing.ExchangeRates{}, apperrors.NewNetworkError("rates request failed", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		c.logger.ErrorContext(ctx, "Rates endpoint returned error status",
			slog.String("base", base),
			slog.Int("status_code", resp.StatusCode),
			slog.String("response_body", string(body)))
		return dataprocessing.ExchangeRates{}, apperrors.NewNetworkError(
			fmt.Sprintf("rates endpoint returned status %d", resp.StatusCode), nil).
			WithContext("status_code", resp.StatusCode)
	}

	var payload ratesResponse
	if err := json.NewDecoder(resp.Body).Decode(&payload); err != nil {
		return dataprocessing.ExchangeRates{}, apperrors.NewNetworkError("failed to decode rates response", err)
	}

	if payload.Base != "" && !strings.EqualFold(payload.Base, base) {
		return dataprocessing.ExchangeRates{}, apperrors.NewNetworkError(
			fmt.Sprintf("rates quoted against %s, requested %s", payload.Base, base), nil)
	}

	result := normalize(base, payload.Rates)
	c.cache.Set(result)

	c.logger.InfoContext(ctx, "Fetched exchange rates",
		slog.String("base", base),
		slog.String("date", payload.Date),
		slog.Int("currencies", len(result.Rates)),
		slog.Duration("duration", time.Since(start)))

	return result, nil
}

// normalize upper-cases currency codes
func normalize(base string, in map[string]float64) dataprocessing.ExchangeRates {
	out := make(map[string]float64, len(in))
	for code, r := range in {
		out[strings.ToUpper(strings.TrimSpace(code))] = r
	}
	return dataprocessing.ExchangeRates{Reference: strings.ToUpper(base), Rates: out}
}
