// Package ascentrade provides a client for the Ascentrade GraphQL write API.
// All persistence of normalized market data goes through this client.
package ascentrade

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/ternarybob/arbor"
)

const (
	// DefaultTimeout is the default HTTP timeout.
	DefaultTimeout = 60 * time.Second
)

// Client is an Ascentrade GraphQL API client.
type Client struct {
	endpoint   string
	authToken  string
	httpClient *http.Client
	logger     arbor.ILogger
}

// ClientOption configures the Client.
type ClientOption func(*Client)

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

// NewClient creates a new Ascentrade API client.
func NewClient(endpoint, authToken string, opts ...ClientOption) *Client {
	c := &Client{
		endpoint:  endpoint,
		authToken: authToken,
		httpClient: &http.Client{
			Timeout: DefaultTimeout,
		},
	}

	for _, opt := range opts {
		opt(c)
	}

	return c
}

// APIError represents a transport or GraphQL-level error from the backend.
type APIError struct {
	StatusCode int
	Message    string
	Operation  string
}

func (e *APIError) Error() string {
	return fmt.Sprintf("ascentrade API error: %s (status: %d, operation: %s)", e.Message, e.StatusCode, e.Operation)
}

type graphQLRequest struct {
	Query     string                 `json:"query"`
	Variables map[string]interface{} `json:"variables,omitempty"`
}

type graphQLResponse struct {
	Data   json.RawMessage `json:"data"`
	Errors []struct {
		Message string `json:"message"`
	} `json:"errors"`
}

// do executes a GraphQL operation and unmarshals the data envelope into result.
func (c *Client) do(ctx context.Context, operation, query string, variables map[string]interface{}, result interface{}) error {
	body, err := json.Marshal(graphQLRequest{Query: query, Variables: variables})
	if err != nil {
		return fmt.Errorf("failed to encode request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.endpoint, bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("x-auth-token", c.authToken)

	if c.logger != nil {
		c.logger.Trace().
			Str("operation", operation).
			Msg("Ascentrade API request")
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("failed to execute request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		respBody, _ := io.ReadAll(resp.Body)
		return &APIError{
			StatusCode: resp.StatusCode,
			Message:    string(respBody),
			Operation:  operation,
		}
	}

	var envelope graphQLResponse
	if err := json.NewDecoder(resp.Body).Decode(&envelope); err != nil {
		return fmt.Errorf("failed to decode response: %w", err)
	}

	if len(envelope.Errors) > 0 {
		return &APIError{
			StatusCode: resp.StatusCode,
			Message:    envelope.Errors[0].Message,
			Operation:  operation,
		}
	}

	if result != nil {
		if err := json.Unmarshal(envelope.Data, result); err != nil {
			return fmt.Errorf("failed to decode %s data: %w", operation, err)
		}
	}

	return nil
}

// Ping verifies connectivity and authentication against the backend.
func (c *Client) Ping(ctx context.Context) error {
	var result struct {
		Ping string `json:"ping"`
	}
	if err := c.do(ctx, "ping", `query { ping }`, nil, &result); err != nil {
		return err
	}
	if result.Ping != "pong" {
		return &APIError{Message: fmt.Sprintf("unexpected ping response %q", result.Ping), Operation: "ping"}
	}
	return nil
}

const allSecurityTickersQuery = `query AllSecurityTickers {
	securities {
		id
		code
		lastUpdate
		isDelisted
		exchange {
			code
			virtualExchange
		}
	}
}`

// AllSecurityTickers returns every security ticker known to the backend.
func (c *Client) AllSecurityTickers(ctx context.Context) ([]SecurityTicker, error) {
	var result struct {
		Securities []SecurityTicker `json:"securities"`
	}
	if err := c.do(ctx, "allSecurityTickers", allSecurityTickersQuery, nil, &result); err != nil {
		return nil, err
	}

	// Parse last update timestamps
	for i := range result.Securities {
		s := &result.Securities[i]
		if t, err := time.Parse(time.RFC3339, s.LastUpdateStr); err == nil {
			s.LastUpdate = t
		} else if t, err := time.Parse("2006-01-02T15:04:05", s.LastUpdateStr); err == nil {
			s.LastUpdate = t
		} else if t, err := time.Parse("2006-01-02", s.LastUpdateStr); err == nil {
			s.LastUpdate = t
		}
	}

	return result.Securities, nil
}

// mutate runs one single-field mutation and returns its MutationResult.
func (c *Client) mutate(ctx context.Context, operation, query string, input interface{}) (MutationResult, error) {
	var envelope map[string]MutationResult
	if err := c.do(ctx, operation, query, map[string]interface{}{"input": input}, &envelope); err != nil {
		return MutationResult{}, err
	}
	result, ok := envelope[operation]
	if !ok {
		return MutationResult{}, &APIError{Message: "missing mutation result", Operation: operation}
	}
	return result, nil
}

// UpdateSecurity upserts one security master record.
func (c *Client) UpdateSecurity(ctx context.Context, input SecurityInput) (MutationResult, error) {
	const query = `mutation UpdateSecurity($input: SecurityInput!) {
		updateSecurity(security: $input) { success error }
	}`
	return c.mutate(ctx, "updateSecurity", query, input)
}

// UpdateSecurityQuotes upserts daily quotes for one security.
func (c *Client) UpdateSecurityQuotes(ctx context.Context, input SecurityQuotesInput) (MutationResult, error) {
	const query = `mutation UpdateSecurityQuotes($input: SecurityQuotesInput!) {
		updateSecurityQuotes(quotes: $input) { success error }
	}`
	return c.mutate(ctx, "updateSecurityQuotes", query, input)
}

// UpdateSplits upserts stock splits for one security.
func (c *Client) UpdateSplits(ctx context.Context, input SplitsInput) (MutationResult, error) {
	const query = `mutation UpdateSplits($input: SplitsInput!) {
		updateSplits(splits: $input) { success error }
	}`
	return c.mutate(ctx, "updateSplits", query, input)
}

// UpdateDividends upserts dividends for one security.
func (c *Client) UpdateDividends(ctx context.Context, input DividendsInput) (MutationResult, error) {
	const query = `mutation UpdateDividends($input: DividendsInput!) {
		updateDividends(dividends: $input) { success error }
	}`
	return c.mutate(ctx, "updateDividends", query, input)
}

// UpdateOutstandingShares upserts the outstanding shares history for one security.
func (c *Client) UpdateOutstandingShares(ctx context.Context, input OutstandingSharesInput) (MutationResult, error) {
	const query = `mutation UpdateOutstandingShares($input: OutstandingSharesInput!) {
		updateOutstandingShares(outstandingShares: $input) { success error }
	}`
	return c.mutate(ctx, "updateOutstandingShares", query, input)
}
