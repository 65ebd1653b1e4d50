package eodhd

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/ternarybob/arbor"
	"golang.org/x/time/rate"
)

const (
	// DefaultBaseURL is the base URL for the EODHD API.
	DefaultBaseURL = "https://eodhd.com/api"

	// DefaultImageBaseURL is the host for company logo downloads.
	DefaultImageBaseURL = "https://eodhd.com"

	// DefaultTimeout is the default HTTP timeout.
	DefaultTimeout = 60 * time.Second

	// DefaultRateLimit is the default rate limit (requests per second).
	DefaultRateLimit = 10
)

// Client is an EODHD API client.
type Client struct {
	baseURL    string
	imgBaseURL string
	apiKey     string
	httpClient *http.Client
	logger     arbor.ILogger
	limiter    *rate.Limiter
}

// ClientOption configures the Client.
type ClientOption func(*Client)

// WithBaseURL sets a custom base URL.
func WithBaseURL(baseURL string) ClientOption {
	return func(c *Client) {
		c.baseURL = baseURL
	}
}

// WithImageBaseURL sets a custom host for logo downloads.
func WithImageBaseURL(baseURL string) ClientOption {
	return func(c *Client) {
		c.imgBaseURL = baseURL
	}
}

// WithHTTPClient sets a custom HTTP client.
func WithHTTPClient(httpClient *http.Client) ClientOption {
	return func(c *Client) {
		c.httpClient = httpClient
	}
}

// WithLogger sets a logger.
func WithLogger(logger arbor.ILogger) ClientOption {
	return func(c *Client) {
		c.logger = logger
	}
}

// WithRateLimit sets a custom rate limit.
func WithRateLimit(requestsPerSecond int) ClientOption {
	return func(c *Client) {
		c.limiter = rate.NewLimiter(rate.Limit(requestsPerSecond), requestsPerSecond)
	}
}

// NewClient creates a new EODHD API client.
func NewClient(apiKey string, opts ...ClientOption) *Client {
	c := &Client{
		baseURL:    DefaultBaseURL,
		imgBaseURL: DefaultImageBaseURL,
		apiKey:     apiKey,
		httpClient: &http.Client{
			Timeout: DefaultTimeout,
		},
		limiter: rate.NewLimiter(rate.Limit(DefaultRateLimit), DefaultRateLimit),
	}

	for _, opt := range opts {
		opt(c)
	}

	return c
}

// get performs a GET request to the API.
func (c *Client) get(ctx context.Context, path string, params url.Values, result interface{}) error {
	// Wait for rate limiter
	if err := c.limiter.Wait(ctx); err != nil {
		return &RateLimitError{RetryAfter: time.Second}
	}

	// Add API token
	if params == nil {
		params = url.Values{}
	}
	params.Set("api_token", c.apiKey)
	params.Set("fmt", "json")

	// Build URL
	reqURL := fmt.Sprintf("%s%s?%s", c.baseURL, path, params.Encode())

	// Create request
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, reqURL, nil)
	if err != nil {
		return fmt.Errorf("failed to create request: %w", err)
	}

	// Log request
	if c.logger != nil {
		c.logger.Debug().
			Str("url", c.baseURL+path).
			Msg("EODHD API request")
	}

	// Execute request
	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("failed to execute request: %w", err)
	}
	defer resp.Body.Close()

	// Check status
	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(resp.Body)
		return &APIError{
			StatusCode: resp.StatusCode,
			Message:    string(body),
			Endpoint:   path,
		}
	}

	// Parse response
	if err := json.NewDecoder(resp.Body).Decode(result); err != nil {
		return fmt.Errorf("failed to decode response: %w", err)
	}

	return nil
}

// GetUser retrieves account and API usage metadata.
func (c *Client) GetUser(ctx context.Context) (*UserData, error) {
	var result UserData
	if err := c.get(ctx, "/user", nil, &result); err != nil {
		return nil, err
	}
	return &result, nil
}

// GetEOD retrieves end-of-day price data for a symbol.
// Symbol format: TICKER.EXCHANGE (e.g., "AAPL.US", "GNP.AU")
func (c *Client) GetEOD(ctx context.Context, symbol string, opts ...QueryOption) (EODResponse, error) {
	params := &queryParams{
		Period: "d",
		Order:  "a",
	}
	for _, opt := range opts {
		opt(params)
	}

	var result EODResponse
	if err := c.get(ctx, "/eod/"+strings.ToUpper(symbol), params.values(), &result); err != nil {
		return nil, err
	}

	// Parse dates
	for i := range result {
		if t, err := time.Parse("2006-01-02", result[i].DateStr); err == nil {
			result[i].Date = t
		}
	}

	return result, nil
}

// GetSplitAdjustedQuotes retrieves split-adjusted daily candles for a symbol
// via the technical indicator endpoint.
func (c *Client) GetSplitAdjustedQuotes(ctx context.Context, symbol string, opts ...QueryOption) (EODResponse, error) {
	params := &queryParams{}
	for _, opt := range opts {
		opt(params)
	}

	values := params.values()
	values.Set("function", "splitadjusted")

	var result EODResponse
	if err := c.get(ctx, "/technical/"+strings.ToUpper(symbol), values, &result); err != nil {
		return nil, err
	}

	// Parse dates
	for i := range result {
		if t, err := time.Parse("2006-01-02", result[i].DateStr); err == nil {
			result[i].Date = t
		}
	}

	return result, nil
}

// GetFundamentals retrieves fundamental data for a symbol.
// A symbol unknown to the provider yields a nil response, not an error.
func (c *Client) GetFundamentals(ctx context.Context, symbol string) (*FundamentalsResponse, error) {
	var result FundamentalsResponse
	if err := c.get(ctx, "/fundamentals/"+strings.ToUpper(symbol), nil, &result); err != nil {
		return nil, err
	}
	if result.General == nil {
		return nil, nil
	}
	return &result, nil
}

// GetDividends retrieves dividend data for a symbol.
func (c *Client) GetDividends(ctx context.Context, symbol string, opts ...QueryOption) (DividendsResponse, error) {
	params := &queryParams{}
	for _, opt := range opts {
		opt(params)
	}

	var result DividendsResponse
	if err := c.get(ctx, "/div/"+strings.ToUpper(symbol), params.values(), &result); err != nil {
		return nil, err
	}

	// Parse dates
	for i := range result {
		if t, err := time.Parse("2006-01-02", result[i].DateStr); err == nil {
			result[i].Date = t
		}
	}

	return result, nil
}

// GetSplits retrieves stock split data for a symbol.
func (c *Client) GetSplits(ctx context.Context, symbol string, opts ...QueryOption) (SplitsResponse, error) {
	params := &queryParams{}
	for _, opt := range opts {
		opt(params)
	}

	var result SplitsResponse
	if err := c.get(ctx, "/splits/"+strings.ToUpper(symbol), params.values(), &result); err != nil {
		return nil, err
	}

	// Parse dates
	for i := range result {
		if t, err := time.Parse("2006-01-02", result[i].DateStr); err == nil {
			result[i].Date = t
		}
	}

	return result, nil
}

// GetExchangeSymbolList retrieves all listed (or delisted) symbols for an exchange.
func (c *Client) GetExchangeSymbolList(ctx context.Context, exchange string, delisted bool) ([]ExchangeSymbol, error) {
	params := url.Values{}
	if delisted {
		params.Set("delisted", "1")
	}

	var result []ExchangeSymbol
	if err := c.get(ctx, "/exchange-symbol-list/"+strings.ToUpper(exchange), params, &result); err != nil {
		return nil, err
	}
	return result, nil
}

// GetBulkQuotes retrieves last-day end-of-day quotes for a whole exchange.
func (c *Client) GetBulkQuotes(ctx context.Context, exchange string, opts ...QueryOption) ([]BulkQuote, error) {
	var result []BulkQuote
	if err := c.getBulk(ctx, exchange, "", opts, &result); err != nil {
		return nil, err
	}
	return result, nil
}

// GetBulkSplits retrieves last-day splits for a whole exchange.
func (c *Client) GetBulkSplits(ctx context.Context, exchange string, opts ...QueryOption) ([]BulkSplit, error) {
	var result []BulkSplit
	if err := c.getBulk(ctx, exchange, "splits", opts, &result); err != nil {
		return nil, err
	}
	return result, nil
}

// GetBulkDividends retrieves last-day dividends for a whole exchange.
func (c *Client) GetBulkDividends(ctx context.Context, exchange string, opts ...QueryOption) ([]BulkDividend, error) {
	var result []BulkDividend
	if err := c.getBulk(ctx, exchange, "dividends", opts, &result); err != nil {
		return nil, err
	}
	return result, nil
}

// getBulk performs an eod-bulk-last-day request with an optional type and date.
func (c *Client) getBulk(ctx context.Context, exchange, bulkType string, opts []QueryOption, result interface{}) error {
	params := &queryParams{}
	for _, opt := range opts {
		opt(params)
	}

	values := url.Values{}
	if bulkType != "" {
		values.Set("type", bulkType)
	}
	if !params.Date.IsZero() {
		values.Set("date", params.Date.Format("2006-01-02"))
	}

	return c.get(ctx, "/eod-bulk-last-day/"+strings.ToUpper(exchange), values, result)
}

// DownloadLogo downloads a company logo image. The logoURL comes from the
// fundamentals payload and is host-relative, e.g. "/img/logos/US/aapl.png".
// A missing logo (404) yields nil bytes, not an error.
func (c *Client) DownloadLogo(ctx context.Context, logoURL string) ([]byte, error) {
	if err := c.limiter.Wait(ctx); err != nil {
		return nil, &RateLimitError{RetryAfter: time.Second}
	}

	reqURL := logoURL
	if !strings.HasPrefix(logoURL, "http") {
		reqURL = c.imgBaseURL + "/" + strings.TrimPrefix(logoURL, "/")
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, reqURL, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("failed to execute request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusNotFound {
		return nil, nil
	}
	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(resp.Body)
		return nil, &APIError{
			StatusCode: resp.StatusCode,
			Message:    string(body),
			Endpoint:   logoURL,
		}
	}

	return io.ReadAll(resp.Body)
}

