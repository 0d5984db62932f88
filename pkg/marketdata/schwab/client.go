package schwab

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/zeromicro/go-zero/core/logx"

	"github.com/RobbyMo81/trade-analyst/pkg/guardrail"
)

const (
	defaultBaseURL          = "https://api.schwabapi.com/marketdata/v1"
	defaultHTTPTimeout      = 10 * time.Second
	defaultMaxRetries       = 3
	defaultRetryBackoffBase = 150 * time.Millisecond
)

// Client wraps access to the Schwab market data endpoints. Auth headers come
// from the injected token source.
type Client struct {
	baseURL    string
	httpClient *http.Client
	maxRetries int
	userAgent  string
	tokens     TokenSource
}

// TokenSource supplies bearer tokens for API calls.
type TokenSource interface {
	AccessToken(ctx context.Context) (string, error)
}

// Option configures a new Client.
type Option func(*Client)

// WithHTTPClient injects a custom http.Client.
func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) {
		if hc != nil {
			c.httpClient = hc
		}
	}
}

// WithBaseURL overrides the default API base URL.
func WithBaseURL(url string) Option {
	return func(c *Client) {
		if url != "" {
			c.baseURL = url
		}
	}
}

// WithMaxRetries adjusts the retry budget.
func WithMaxRetries(max int) Option {
	return func(c *Client) {
		if max >= 0 {
			c.maxRetries = max
		}
	}
}

// WithUserAgent overrides the User-Agent header.
func WithUserAgent(ua string) Option {
	return func(c *Client) {
		if ua != "" {
			c.userAgent = ua
		}
	}
}

// NewClient constructs a Schwab API client.
func NewClient(tokens TokenSource, opts ...Option) *Client {
	client := &Client{
		baseURL:    defaultBaseURL,
		httpClient: &http.Client{Timeout: defaultHTTPTimeout},
		maxRetries: defaultMaxRetries,
		userAgent:  "trade-analyst",
		tokens:     tokens,
	}
	for _, opt := range opts {
		opt(client)
	}
	return client
}

// doGet performs an authenticated GET with bounded retry and decodes the
// JSON response into result.
func (c *Client) doGet(ctx context.Context, path string, query url.Values, result interface{}) error {
	token, err := c.tokens.AccessToken(ctx)
	if err != nil {
		return err
	}

	endpoint := c.baseURL + path
	if len(query) > 0 {
		endpoint += "?" + query.Encode()
	}

	var lastErr error
	backoff := defaultRetryBackoffBase
	for attempt := 0; attempt <= c.maxRetries; attempt++ {
		req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
		if err != nil {
			return guardrail.WrapError(guardrail.CodeUnknown, err, "build request", "path", path)
		}
		req.Header.Set("Authorization", "Bearer "+token)
		req.Header.Set("Accept", "application/json")
		req.Header.Set("User-Agent", c.userAgent)

		resp, err := c.httpClient.Do(req)
		if err != nil {
			if ctx.Err() != nil {
				return guardrail.WrapError(guardrail.CodeTimeout, ctx.Err(), "request cancelled", "path", path)
			}
			lastErr = guardrail.WrapError(guardrail.CodeNetwork, err, "request failed", "path", path)
			if attempt < c.maxRetries {
				c.sleep(ctx, backoff)
				backoff *= 2
				continue
			}
			return lastErr
		}

		body, readErr := io.ReadAll(resp.Body)
		resp.Body.Close()

		switch {
		case resp.StatusCode == http.StatusOK:
			if readErr != nil {
				return guardrail.WrapError(guardrail.CodeProviderParse, readErr, "read response", "path", path)
			}
			if err := json.Unmarshal(body, result); err != nil {
				return guardrail.WrapError(guardrail.CodeProviderParse, err, "decode response", "path", path)
			}
			return nil
		case resp.StatusCode == http.StatusUnauthorized || resp.StatusCode == http.StatusForbidden:
			return guardrail.NewError(guardrail.CodeAuth, "request rejected",
				"path", path, "status", resp.StatusCode)
		case resp.StatusCode == http.StatusTooManyRequests:
			lastErr = guardrail.NewError(guardrail.CodeRateLimit, "rate limited",
				"path", path, "retry_after", resp.Header.Get("Retry-After"))
			if attempt < c.maxRetries {
				c.sleep(ctx, retryAfter(resp, backoff))
				backoff *= 2
				continue
			}
			return lastErr
		case resp.StatusCode >= 500:
			lastErr = guardrail.NewError(guardrail.CodeProviderHTTP, "provider error",
				"path", path, "status", resp.StatusCode)
			if attempt < c.maxRetries {
				c.sleep(ctx, backoff)
				backoff *= 2
				continue
			}
			return lastErr
		default:
			return guardrail.NewError(guardrail.CodeProviderHTTP, "unexpected status",
				"path", path, "status", resp.StatusCode)
		}
	}
	return lastErr
}

func (c *Client) sleep(ctx context.Context, d time.Duration) {
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-ctx.Done():
	case <-timer.C:
	}
}

func retryAfter(resp *http.Response, fallback time.Duration) time.Duration {
	raw := resp.Header.Get("Retry-After")
	if raw == "" {
		return fallback
	}
	secs, err := strconv.Atoi(raw)
	if err != nil || secs <= 0 {
		return fallback
	}
	return time.Duration(secs) * time.Second
}

// PriceHistory fetches candles for the symbol. frequencyType is "daily" or
// "minute".
func (c *Client) PriceHistory(ctx context.Context, symbol, frequencyType string, start, end time.Time) (*priceHistoryResponse, error) {
	q := url.Values{}
	q.Set("symbol", symbol)
	q.Set("frequencyType", frequencyType)
	q.Set("frequency", "1")
	q.Set("startDate", strconv.FormatInt(start.UnixMilli(), 10))
	q.Set("endDate", strconv.FormatInt(end.UnixMilli(), 10))
	q.Set("needExtendedHoursData", "false")

	var out priceHistoryResponse
	if err := c.doGet(ctx, "/pricehistory", q, &out); err != nil {
		return nil, err
	}
	logx.Infow("price history fetched",
		logx.Field("symbol", symbol),
		logx.Field("freq", frequencyType),
		logx.Field("candles", len(out.Candles)))
	return &out, nil
}

// Quotes fetches NBBO snapshots for the symbols.
func (c *Client) Quotes(ctx context.Context, symbols []string) (quotesResponse, error) {
	q := url.Values{}
	q.Set("symbols", joinSymbols(symbols))

	var out quotesResponse
	if err := c.doGet(ctx, "/quotes", q, &out); err != nil {
		return nil, err
	}
	return out, nil
}

// Chain fetches the options chain for the symbol.
func (c *Client) Chain(ctx context.Context, symbol string) (*chainResponse, error) {
	q := url.Values{}
	q.Set("symbol", symbol)

	var out chainResponse
	if err := c.doGet(ctx, "/chains", q, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// TimeSales fetches the trade and quote tape for the window.
func (c *Client) TimeSales(ctx context.Context, symbol string, from, to time.Time) (*timeSalesResponse, error) {
	q := url.Values{}
	q.Set("symbol", symbol)
	q.Set("startDate", strconv.FormatInt(from.UnixMilli(), 10))
	q.Set("endDate", strconv.FormatInt(to.UnixMilli(), 10))

	var out timeSalesResponse
	if err := c.doGet(ctx, "/timesales", q, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// VolatilityHistory fetches the implied-volatility series for the symbol.
func (c *Client) VolatilityHistory(ctx context.Context, symbol string, days int) (*volHistoryResponse, error) {
	q := url.Values{}
	q.Set("symbol", symbol)
	q.Set("days", strconv.Itoa(days))

	var out volHistoryResponse
	if err := c.doGet(ctx, "/volatility/history", q, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

func joinSymbols(symbols []string) string {
	return strings.Join(symbols, ",")
}
