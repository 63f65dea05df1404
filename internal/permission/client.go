package permission

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/rs/zerolog"
)

const permissionPath = "/v1/permission"

// ClientOptions parameterise the permission service client.
type ClientOptions struct {
	BaseURL   string
	Timeout   time.Duration
	UserAgent string
}

// Client talks to the external permission service.
type Client struct {
	opts    ClientOptions
	client  *http.Client
	baseURL string
	logger  zerolog.Logger
}

// NewClient constructs a permission service client.
func NewClient(opts ClientOptions, logger zerolog.Logger) *Client {
	timeout := opts.Timeout
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	return &Client{
		opts:    opts,
		client:  &http.Client{Timeout: timeout},
		baseURL: strings.TrimRight(opts.BaseURL, "/"),
		logger:  logger.With().Str("component", "permission_client").Logger(),
	}
}

// GetPermission fetches the current grant for userID. A restricted account
// is reported as ErrRestricted rather than a transport error.
func (c *Client) GetPermission(ctx context.Context, userID string) (Grant, error) {
	if c.baseURL == "" {
		return Grant{}, errors.New("permission service base URL required")
	}

	endpoint := c.baseURL + permissionPath + "?user=" + url.QueryEscape(userID)
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return Grant{}, err
	}
	req.Header.Set("Accept", "application/json")
	if ua := strings.TrimSpace(c.opts.UserAgent); ua != "" {
		req.Header.Set("User-Agent", ua)
	}

	resp, err := c.client.Do(req)
	if err != nil {
		return Grant{}, fmt.Errorf("permission request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return Grant{}, fmt.Errorf("permission service status %d", resp.StatusCode)
	}

	var grant Grant
	if err := json.NewDecoder(resp.Body).Decode(&grant); err != nil {
		return Grant{}, fmt.Errorf("decode permission response: %w", err)
	}
	if grant.Restricted {
		return grant, ErrRestricted
	}
	if !grant.Mode.Valid() {
		return Grant{}, fmt.Errorf("permission service returned unknown mode %q", grant.Mode)
	}

	c.logger.Debug().Str("user", userID).Str("mode", string(grant.Mode)).Msg("permission fetched")
	return grant, nil
}

// Static is a fixed grant source used by the simulate command and tests.
type Static struct {
	Grant Grant
}

// GetPermission returns the fixed grant.
func (s Static) GetPermission(ctx context.Context, userID string) (Grant, error) {
	if s.Grant.Restricted {
		return s.Grant, ErrRestricted
	}
	return s.Grant, nil
}

var _ Service = (*Client)(nil)
var _ Service = Static{}
