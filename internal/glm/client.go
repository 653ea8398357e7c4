// Package glm provides a client for the GLM Coding Plan usage monitoring API.
package glm

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/theirongolddev/glm-statusline/internal/model"
)

const (
	requestTimeout = 5 * time.Second
	maxBodySize    = 1 << 20 // 1 MB
	queryLayout    = "2006-01-02 15:04:05"
	dateLayout     = "2006-01-02"
	zaiMarker      = "api.z.ai"
)

// Zhipu is the default platform (open.bigmodel.cn).
var Zhipu = Platform{
	Name:           "ZHIPU",
	BaseURL:        "https://open.bigmodel.cn",
	ModelUsagePath: "/api/monitor/usage/model-usage",
	ToolUsagePath:  "/api/monitor/usage/tool-usage",
	QuotaLimitPath: "/api/monitor/usage/quota/limit",
}

// ZAI is the international platform (api.z.ai).
var ZAI = Platform{
	Name:           "ZAI",
	BaseURL:        "https://api.z.ai",
	ModelUsagePath: "/api/monitor/usage/model-usage",
	ToolUsagePath:  "/api/monitor/usage/tool-usage",
	QuotaLimitPath: "/api/monitor/usage/quota/limit",
}

// DetectPlatform picks the platform from the configured Anthropic base URL.
func DetectPlatform(baseURL string) Platform {
	if strings.Contains(baseURL, zaiMarker) {
		return ZAI
	}
	return Zhipu
}

// Client fetches usage data from one platform. Each call issues a single
// request; retrying is left to the caller.
type Client struct {
	token    string
	platform Platform
	http     *http.Client
	now      func() time.Time
}

// Option configures a Client.
type Option func(*Client)

// WithHTTPClient replaces the underlying HTTP client.
func WithHTTPClient(h *http.Client) Option {
	return func(c *Client) { c.http = h }
}

// WithClock replaces the clock used to build query date ranges.
func WithClock(now func() time.Time) Option {
	return func(c *Client) { c.now = now }
}

// NewClient creates a client that sends token verbatim as the Authorization header.
func NewClient(token string, platform Platform, opts ...Option) *Client {
	c := &Client{
		token:    token,
		platform: platform,
		http:     &http.Client{},
		now:      time.Now,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Platform returns the platform this client talks to.
func (c *Client) Platform() Platform {
	return c.platform
}

// FetchMonthlyUsage returns token and call totals from the start of the month until now.
func (c *Client) FetchMonthlyUsage(ctx context.Context) (model.MonthlyUsage, error) {
	now := c.now()
	start := time.Date(now.Year(), now.Month(), 1, 0, 0, 0, 0, now.Location())

	body, err := c.get(ctx, c.platform.ModelUsagePath, timeRange(start, now))
	if err != nil {
		return model.MonthlyUsage{}, err
	}
	return decodeMonthly(body)
}

// FetchDailyUsage returns the tokens used today, summed from the trailing
// 24 hourly samples whose timestamp falls on today's local date.
func (c *Client) FetchDailyUsage(ctx context.Context) (model.DailyUsage, error) {
	now := c.now()
	start := time.Date(now.Year(), now.Month(), now.Day()-1, now.Hour(), 0, 0, 0, now.Location())
	end := time.Date(now.Year(), now.Month(), now.Day(), now.Hour(), 59, 59, 0, now.Location())

	body, err := c.get(ctx, c.platform.ModelUsagePath, timeRange(start, end))
	if err != nil {
		return model.DailyUsage{}, err
	}
	return decodeDaily(body, now.Format(dateLayout))
}

// FetchQuotaLimit returns the MCP and token limits for the plan.
func (c *Client) FetchQuotaLimit(ctx context.Context) (model.QuotaStatus, error) {
	body, err := c.get(ctx, c.platform.QuotaLimitPath, nil)
	if err != nil {
		return model.QuotaStatus{}, err
	}
	return decodeQuota(body)
}

func timeRange(start, end time.Time) url.Values {
	return url.Values{
		"startTime": {start.Format(queryLayout)},
		"endTime":   {end.Format(queryLayout)},
	}
}

// get performs an authenticated GET request and returns the response body.
func (c *Client) get(ctx context.Context, path string, query url.Values) ([]byte, error) {
	ctx, cancel := context.WithTimeout(ctx, requestTimeout)
	defer cancel()

	reqURL := c.platform.BaseURL + path
	if len(query) > 0 {
		reqURL += "?" + query.Encode()
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, reqURL, nil)
	if err != nil {
		return nil, fmt.Errorf("glm: creating request: %w", err)
	}

	req.Header.Set("Authorization", c.token)
	req.Header.Set("Accept-Language", "en-US,en")
	req.Header.Set("Content-Type", "application/json")

	//nolint:gosec // URL is built from a fixed platform table
	resp, err := c.http.Do(req)
	if err != nil {
		if isTimeout(err) {
			return nil, fmt.Errorf("%w: %s", ErrTimeout, path)
		}
		return nil, fmt.Errorf("glm: request failed: %w", err)
	}
	defer func() { _ = resp.Body.Close() }()

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxBodySize))
	if err != nil {
		if isTimeout(err) {
			return nil, fmt.Errorf("%w: %s", ErrTimeout, path)
		}
		return nil, fmt.Errorf("glm: reading response: %w", err)
	}

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return nil, &RequestError{Endpoint: path, StatusCode: resp.StatusCode, Body: string(body)}
	}
	return body, nil
}

func isTimeout(err error) bool {
	if errors.Is(err, context.DeadlineExceeded) {
		return true
	}
	var netErr net.Error
	return errors.As(err, &netErr) && netErr.Timeout()
}
