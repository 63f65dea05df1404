package wallet

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"
)

const (
	balancePath = "/v1/balance"
	adjustPath  = "/v1/adjust"
)

// ClientOptions parameterise the wallet service client.
type ClientOptions struct {
	BaseURL   string
	Timeout   time.Duration
	UserAgent string
}

// Client talks to the external wallet service over JSON/REST.
type Client struct {
	opts    ClientOptions
	client  *http.Client
	baseURL string
	logger  zerolog.Logger
}

// NewClient constructs a wallet service client.
func NewClient(opts ClientOptions, logger zerolog.Logger) *Client {
	timeout := opts.Timeout
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	return &Client{
		opts:    opts,
		client:  &http.Client{Timeout: timeout},
		baseURL: strings.TrimRight(opts.BaseURL, "/"),
		logger:  logger.With().Str("component", "wallet_client").Logger(),
	}
}

type balanceResponse struct {
	Balance string `json:"balance"`
	Error   string `json:"error"`
}

// GetBalance returns the user's current USDT balance.
func (c *Client) GetBalance(ctx context.Context, userID string) (decimal.Decimal, error) {
	if c.baseURL == "" {
		return decimal.Decimal{}, errors.New("wallet service base URL required")
	}

	endpoint := c.baseURL + balancePath + "?user=" + url.QueryEscape(userID)
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return decimal.Decimal{}, err
	}
	req.Header.Set("Accept", "application/json")

	return c.doBalance(req)
}

// AdjustBalance applies the signed delta to the user's balance.
func (c *Client) AdjustBalance(ctx context.Context, userID string, delta decimal.Decimal) (decimal.Decimal, error) {
	if c.baseURL == "" {
		return decimal.Decimal{}, errors.New("wallet service base URL required")
	}

	payload := map[string]string{
		"user":  userID,
		"delta": delta.String(),
	}
	body, err := json.Marshal(payload)
	if err != nil {
		return decimal.Decimal{}, err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+adjustPath, bytes.NewReader(body))
	if err != nil {
		return decimal.Decimal{}, err
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "application/json")

	newBalance, err := c.doBalance(req)
	if err != nil {
		return decimal.Decimal{}, err
	}

	c.logger.Debug().Str("user", userID).
		Str("delta", delta.String()).
		Str("balance", newBalance.String()).
		Msg("balance adjusted")
	return newBalance, nil
}

func (c *Client) doBalance(req *http.Request) (decimal.Decimal, error) {
	if ua := strings.TrimSpace(c.opts.UserAgent); ua != "" {
		req.Header.Set("User-Agent", ua)
	}

	resp, err := c.client.Do(req)
	if err != nil {
		return decimal.Decimal{}, fmt.Errorf("wallet request: %w", err)
	}
	defer resp.Body.Close()

	var parsed balanceResponse
	if err := json.NewDecoder(resp.Body).Decode(&parsed); err != nil {
		return decimal.Decimal{}, fmt.Errorf("decode wallet response: %w", err)
	}

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		if parsed.Error == "insufficient_funds" {
			return decimal.Decimal{}, ErrInsufficientFunds
		}
		if parsed.Error != "" {
			return decimal.Decimal{}, fmt.Errorf("wallet service: %s", parsed.Error)
		}
		return decimal.Decimal{}, fmt.Errorf("wallet service status %d", resp.StatusCode)
	}

	balance, err := decimal.NewFromString(parsed.Balance)
	if err != nil {
		return decimal.Decimal{}, fmt.Errorf("parse wallet balance: %w", err)
	}
	return balance, nil
}

var _ Service = (*Client)(nil)
