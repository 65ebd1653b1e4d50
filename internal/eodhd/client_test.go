package eodhd

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func mustDate(t *testing.T, s string) time.Time {
	t.Helper()
	d, err := time.Parse("2006-01-02", s)
	require.NoError(t, err)
	return d
}

func TestGetUser(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/user", r.URL.Path)
		assert.Equal(t, "test-key", r.URL.Query().Get("api_token"))
		assert.Equal(t, "json", r.URL.Query().Get("fmt"))
		w.Write([]byte(`{"name":"tester","apiRequests":101,"dailyRateLimit":100000}`))
	}))
	defer server.Close()

	client := NewClient("test-key", WithBaseURL(server.URL))
	user, err := client.GetUser(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 101, user.APIRequests)
	assert.Equal(t, 100000, user.DailyRateLimit)
	assert.Equal(t, 99899, user.Remaining())
}

func TestGetFundamentals_EmptyResponseIsNil(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{}`))
	}))
	defer server.Close()

	client := NewClient("test-key", WithBaseURL(server.URL))
	fundamentals, err := client.GetFundamentals(context.Background(), "UNKNOWN.US")
	require.NoError(t, err)
	assert.Nil(t, fundamentals)
}

func TestGetFundamentals_ETFHoldings(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/fundamentals/SPY.US", r.URL.Path)
		w.Write([]byte(`{
			"General": {"Code": "SPY", "Type": "ETF", "Exchange": "NYSE ARCA"},
			"ETF_Data": {"Holdings": {
				"AAPL.US": {"Code": "AAPL", "Exchange": "US"},
				"MSFT.US": {"Code": "MSFT", "Exchange": "US"}
			}}
		}`))
	}))
	defer server.Close()

	client := NewClient("test-key", WithBaseURL(server.URL))
	fundamentals, err := client.GetFundamentals(context.Background(), "spy.us")
	require.NoError(t, err)
	require.NotNil(t, fundamentals)
	assert.Equal(t, "ETF", fundamentals.General.Type)
	require.NotNil(t, fundamentals.ETFData)
	assert.Len(t, fundamentals.ETFData.Holdings, 2)
	assert.Equal(t, "AAPL", fundamentals.ETFData.Holdings["AAPL.US"].Code)
}

func TestGetFundamentals_OutstandingSharesKeyedObject(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{
			"General": {"Code": "AAPL"},
			"outstandingShares": {
				"annual": {"0": {"dateFormatted": "2023-12-31", "shares": 15550061000}},
				"quarterly": [{"dateFormatted": "2024-03-31", "shares": 15400000000}]
			}
		}`))
	}))
	defer server.Close()

	client := NewClient("test-key", WithBaseURL(server.URL))
	fundamentals, err := client.GetFundamentals(context.Background(), "AAPL.US")
	require.NoError(t, err)
	require.NotNil(t, fundamentals.OutstandingShares)
	require.Len(t, fundamentals.OutstandingShares.Annual, 1)
	assert.Equal(t, int64(15550061000), fundamentals.OutstandingShares.Annual[0].Shares)
	require.Len(t, fundamentals.OutstandingShares.Quarterly, 1)
	assert.Equal(t, "2024-03-31", fundamentals.OutstandingShares.Quarterly[0].DateFormatted)
}

func TestGetBulkSplits(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/eod-bulk-last-day/US", r.URL.Path)
		assert.Equal(t, "splits", r.URL.Query().Get("type"))
		assert.Equal(t, "2024-04-16", r.URL.Query().Get("date"))
		w.Write([]byte(`[{"code":"NCNA","exchange":"US","date":"2024-04-16","split":"1.000000/25.000000"}]`))
	}))
	defer server.Close()

	client := NewClient("test-key", WithBaseURL(server.URL))
	splits, err := client.GetBulkSplits(context.Background(), "us", WithDate(mustDate(t, "2024-04-16")))
	require.NoError(t, err)
	require.Len(t, splits, 1)
	assert.Equal(t, "NCNA", splits[0].Code)
	assert.Equal(t, "1.000000/25.000000", splits[0].Split)
}

func TestGetExchangeSymbolList_Delisted(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/exchange-symbol-list/US", r.URL.Path)
		assert.Equal(t, "1", r.URL.Query().Get("delisted"))
		w.Write([]byte(`[{"Code":"ACCA","Name":"Acacia Diversified Holdings","Exchange":"PINK","Type":"Common Stock"}]`))
	}))
	defer server.Close()

	client := NewClient("test-key", WithBaseURL(server.URL))
	symbols, err := client.GetExchangeSymbolList(context.Background(), "US", true)
	require.NoError(t, err)
	require.Len(t, symbols, 1)
	assert.Equal(t, "Common Stock", symbols[0].Type)
}

func TestGetSplitAdjustedQuotes(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/technical/AAPL.US", r.URL.Path)
		assert.Equal(t, "splitadjusted", r.URL.Query().Get("function"))
		w.Write([]byte(`[{"date":"2024-04-16","open":171.71,"close":169.38,"volume":72646896}]`))
	}))
	defer server.Close()

	client := NewClient("test-key", WithBaseURL(server.URL))
	quotes, err := client.GetSplitAdjustedQuotes(context.Background(), "AAPL.US")
	require.NoError(t, err)
	require.Len(t, quotes, 1)
	assert.Equal(t, "2024-04-16", quotes[0].Date.Format("2006-01-02"))
}

func TestDownloadLogo_NotFound(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.NotFound(w, r)
	}))
	defer server.Close()

	client := NewClient("test-key", WithImageBaseURL(server.URL))
	data, err := client.DownloadLogo(context.Background(), "/img/logos/US/none.png")
	require.NoError(t, err)
	assert.Nil(t, data)
}

func TestDownloadLogo(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/img/logos/US/aapl.png", r.URL.Path)
		w.Write([]byte{0x89, 0x50, 0x4e, 0x47})
	}))
	defer server.Close()

	client := NewClient("test-key", WithImageBaseURL(server.URL))
	data, err := client.DownloadLogo(context.Background(), "/img/logos/US/aapl.png")
	require.NoError(t, err)
	assert.Equal(t, []byte{0x89, 0x50, 0x4e, 0x47}, data)
}
