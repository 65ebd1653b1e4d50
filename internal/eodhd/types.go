// Package eodhd provides a client for the EODHD (End of Day Historical Data) API.
// This package centralizes all EODHD API interactions for the application.
package eodhd

import (
	"fmt"
	"net/url"
	"time"
)

// QueryOption represents an optional parameter for API queries.
type QueryOption func(*queryParams)

// queryParams holds optional query parameters.
type queryParams struct {
	From   time.Time
	To     time.Time
	Date   time.Time // single-day selector for bulk endpoints
	Period string    // d, w, m
	Order  string    // a (asc), d (desc)
}

// values renders the common query parameters.
func (p *queryParams) values() url.Values {
	values := url.Values{}
	if !p.From.IsZero() {
		values.Set("from", p.From.Format("2006-01-02"))
	}
	if !p.To.IsZero() {
		values.Set("to", p.To.Format("2006-01-02"))
	}
	if p.Period != "" {
		values.Set("period", p.Period)
	}
	if p.Order != "" {
		values.Set("order", p.Order)
	}
	return values
}

// WithDateRange sets the date range for the query.
func WithDateRange(from, to time.Time) QueryOption {
	return func(p *queryParams) {
		p.From = from
		p.To = to
	}
}

// WithDate sets the single trading day for bulk queries.
// Zero value means the most recent trading day.
func WithDate(date time.Time) QueryOption {
	return func(p *queryParams) {
		p.Date = date
	}
}

// WithPeriod sets the period (d=daily, w=weekly, m=monthly).
func WithPeriod(period string) QueryOption {
	return func(p *queryParams) {
		p.Period = period
	}
}

// WithOrder sets the order (a=ascending, d=descending).
func WithOrder(order string) QueryOption {
	return func(p *queryParams) {
		p.Order = order
	}
}

// APIError represents an error from the EODHD API.
type APIError struct {
	StatusCode int
	Message    string
	Endpoint   string
}

func (e *APIError) Error() string {
	return fmt.Sprintf("EODHD API error: %s (status: %d, endpoint: %s)", e.Message, e.StatusCode, e.Endpoint)
}

// RateLimitError represents a rate limit error.
type RateLimitError struct {
	RetryAfter time.Duration
}

func (e *RateLimitError) Error() string {
	return fmt.Sprintf("EODHD rate limit exceeded, retry after %v", e.RetryAfter)
}
