// Package client pushes strategy snapshots to a navwatch server.
package client

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/hashicorp/go-retryablehttp"
	"github.com/shopspring/decimal"
	"github.com/sirupsen/logrus"
	"github.com/yourusername/navwatch/internal/ingest"
)

// maxResponseBytes caps how much of a response body is read.
const maxResponseBytes = 64 << 10

// Config holds configuration for the push client
type Config struct {
	URL          string
	APIKey       string
	Timeout      time.Duration
	MaxRetries   int
	RetryWaitMin time.Duration
	RetryWaitMax time.Duration
	Logger       *logrus.Logger
}

// DefaultConfig returns recommended defaults for url
func DefaultConfig(url, apiKey string) Config {
	return Config{
		URL:          url,
		APIKey:       apiKey,
		Timeout:      10 * time.Second,
		MaxRetries:   3,
		RetryWaitMin: 200 * time.Millisecond,
		RetryWaitMax: 5 * time.Second,
	}
}

// Update is one snapshot to push. Optional fields are omitted when nil.
type Update struct {
	StrategyName          string           `json:"strategy_name"`
	Nav                   decimal.Decimal  `json:"nav"`
	NavBtc                *decimal.Decimal `json:"nav_btc,omitempty"`
	SystemToken           string           `json:"system_token,omitempty"`
	FeeCurrencyBalance    *decimal.Decimal `json:"fee_currency_balance,omitempty"`
	FeeCurrencyBalanceUSD *decimal.Decimal `json:"fee_currency_balance_usd,omitempty"`
	LastTrade             *int64           `json:"last_trade,omitempty"`
	Timestamp             string           `json:"timestamp"`
}

type request struct {
	APIKey string `json:"api_key"`
	Update
}

// APIError is a non-success answer from the server.
type APIError struct {
	StatusCode int
	Message    string
}

func (e *APIError) Error() string {
	return fmt.Sprintf("navwatch: %d %s", e.StatusCode, e.Message)
}

// Client sends updates with retries on transient failures
type Client struct {
	http   *retryablehttp.Client
	url    string
	apiKey string
}

// New creates a new push client
func New(cfg Config) (*Client, error) {
	if cfg.URL == "" {
		return nil, errors.New("client: url is required")
	}
	if cfg.APIKey == "" {
		return nil, errors.New("client: api key is required")
	}

	retryClient := retryablehttp.NewClient()
	retryClient.HTTPClient.Timeout = cfg.Timeout
	retryClient.RetryMax = cfg.MaxRetries
	retryClient.RetryWaitMin = cfg.RetryWaitMin
	retryClient.RetryWaitMax = cfg.RetryWaitMax
	retryClient.CheckRetry = retryPolicy
	retryClient.ErrorHandler = retryablehttp.PassthroughErrorHandler
	retryClient.Logger = nil
	if cfg.Logger != nil {
		retryClient.Logger = cfg.Logger.WithField("component", "client")
	}

	return &Client{http: retryClient, url: cfg.URL, apiKey: cfg.APIKey}, nil
}

// Push sends one update. A rejected update returns *APIError.
func (c *Client) Push(ctx context.Context, u Update) (*ingest.Response, error) {
	payload, err := json.Marshal(request{APIKey: c.apiKey, Update: u})
	if err != nil {
		return nil, fmt.Errorf("failed to encode update: %w", err)
	}

	req, err := retryablehttp.NewRequestWithContext(ctx, http.MethodPost, c.url, bytes.NewReader(payload))
	if err != nil {
		return nil, fmt.Errorf("failed to build request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, fmt.Errorf("failed to push update: %w", err)
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(io.LimitReader(resp.Body, maxResponseBytes))
	if err != nil {
		return nil, fmt.Errorf("failed to read response: %w", err)
	}

	var out ingest.Response
	if err := json.Unmarshal(raw, &out); err != nil {
		return nil, &APIError{StatusCode: resp.StatusCode, Message: http.StatusText(resp.StatusCode)}
	}
	if resp.StatusCode != http.StatusOK || out.Status != ingest.StatusSuccess {
		return nil, &APIError{StatusCode: resp.StatusCode, Message: out.Message}
	}

	return &out, nil
}

// Close releases idle connections
func (c *Client) Close() {
	c.http.HTTPClient.CloseIdleConnections()
}

// retryPolicy retries network errors, rate limiting and server errors. Other
// 4xx answers are final.
func retryPolicy(ctx context.Context, resp *http.Response, err error) (bool, error) {
	if ctx.Err() != nil {
		return false, ctx.Err()
	}
	if err != nil {
		return true, nil
	}

	switch resp.StatusCode {
	case http.StatusTooManyRequests, http.StatusInternalServerError, http.StatusBadGateway,
		http.StatusServiceUnavailable, http.StatusGatewayTimeout:
		return true, nil
	default:
		return false, nil
	}
}
