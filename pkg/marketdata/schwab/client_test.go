package schwab

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/RobbyMo81/trade-analyst/pkg/guardrail"
)

type staticTokens string

func (s staticTokens) AccessToken(ctx context.Context) (string, error) {
	return string(s), nil
}

func newTestClient(t *testing.T, handler http.HandlerFunc) (*Client, *httptest.Server) {
	t.Helper()
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)
	client := NewClient(staticTokens("test-token"), WithBaseURL(srv.URL), WithMaxRetries(2))
	return client, srv
}

func TestPriceHistorySendsAuthHeader(t *testing.T) {
	client, _ := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, "/pricehistory", r.URL.Path)
		require.Equal(t, "Bearer test-token", r.Header.Get("Authorization"))
		require.Equal(t, "NQ", r.URL.Query().Get("symbol"))
		require.Equal(t, "daily", r.URL.Query().Get("frequencyType"))
		json.NewEncoder(w).Encode(priceHistoryResponse{
			Symbol: "NQ",
			Candles: []candle{
				{Open: 100, High: 110, Low: 95, Close: 105, Volume: 5000, Datetime: 1741910400000},
			},
		})
	})

	resp, err := client.PriceHistory(context.Background(), "NQ", "daily",
		time.Now().AddDate(0, 0, -7), time.Now())
	require.NoError(t, err)
	require.Len(t, resp.Candles, 1)
	require.Equal(t, 105.0, resp.Candles[0].Close)
}

func TestDoGetRetriesServerErrors(t *testing.T) {
	attempts := 0
	client, _ := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		attempts++
		if attempts < 3 {
			w.WriteHeader(http.StatusBadGateway)
			return
		}
		json.NewEncoder(w).Encode(quotesResponse{
			"ES": {Symbol: "ES", Quote: quoteDetail{BidPrice: 100, AskPrice: 100.25, QuoteTimeMsec: 1741910400000}},
		})
	})

	resp, err := client.Quotes(context.Background(), []string{"ES"})
	require.NoError(t, err)
	require.Equal(t, 3, attempts)
	require.Equal(t, 100.25, resp["ES"].Quote.AskPrice)
}

func TestDoGetExhaustsRetryBudget(t *testing.T) {
	client, _ := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	})

	_, err := client.Quotes(context.Background(), []string{"ES"})
	require.Error(t, err)
	require.Equal(t, guardrail.CodeProviderHTTP, guardrail.CodeOf(err))
	require.True(t, guardrail.CodeOf(err).Retryable())
}

func TestDoGetRateLimit(t *testing.T) {
	client, _ := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Retry-After", "0")
		w.WriteHeader(http.StatusTooManyRequests)
	})

	_, err := client.Quotes(context.Background(), []string{"ES"})
	require.Error(t, err)
	require.Equal(t, guardrail.CodeRateLimit, guardrail.CodeOf(err))
}

func TestDoGetAuthFailureIsNotRetried(t *testing.T) {
	attempts := 0
	client, _ := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		attempts++
		w.WriteHeader(http.StatusUnauthorized)
	})

	_, err := client.Quotes(context.Background(), []string{"ES"})
	require.Error(t, err)
	require.Equal(t, guardrail.CodeAuth, guardrail.CodeOf(err))
	require.Equal(t, 1, attempts)
}

func TestDoGetParseFailure(t *testing.T) {
	client, _ := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte("not json"))
	})

	_, err := client.Quotes(context.Background(), []string{"ES"})
	require.Error(t, err)
	require.Equal(t, guardrail.CodeProviderParse, guardrail.CodeOf(err))
}

func TestChainDecoding(t *testing.T) {
	client, _ := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		json.NewEncoder(w).Encode(chainResponse{
			Symbol: "SPY",
			PutExpDateMap: map[string]map[string][]chainContract{
				"2025-03-21:7": {"500.0": {{PutCall: "PUT", TotalVolume: 60, OpenInterest: 500}}},
			},
			CallExpDateMap: map[string]map[string][]chainContract{
				"2025-03-21:7": {"500.0": {{PutCall: "CALL", TotalVolume: 200, OpenInterest: 1900}}},
			},
		})
	})

	resp, err := client.Chain(context.Background(), "SPY")
	require.NoError(t, err)
	require.Len(t, resp.PutExpDateMap, 1)
	require.Len(t, resp.CallExpDateMap, 1)
}
