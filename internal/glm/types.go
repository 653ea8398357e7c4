package glm

import (
	"encoding/json"
	"errors"
	"fmt"
)

// Platform identifies one of the two monitoring API backends.
type Platform struct {
	Name           string
	BaseURL        string
	ModelUsagePath string
	ToolUsagePath  string
	QuotaLimitPath string
}

// WithBaseURL returns a copy of p pointed at a different host.
func (p Platform) WithBaseURL(baseURL string) Platform {
	p.BaseURL = baseURL
	return p
}

// ErrTimeout indicates a request exceeded its deadline.
var ErrTimeout = errors.New("glm: request timed out")

// RequestError is returned for non-2xx responses.
type RequestError struct {
	Endpoint   string
	StatusCode int
	Body       string
}

func (e *RequestError) Error() string {
	return fmt.Sprintf("glm: %s: unexpected status %d", e.Endpoint, e.StatusCode)
}

// ParseError is returned when a response body does not match the endpoint schema.
type ParseError struct {
	Endpoint string
	Err      error
}

func (e *ParseError) Error() string {
	return fmt.Sprintf("glm: parsing %s: %v", e.Endpoint, e.Err)
}

func (e *ParseError) Unwrap() error {
	return e.Err
}

// envelope is the outer shape shared by all monitor endpoints.
type envelope struct {
	Data json.RawMessage `json:"data"`
}

// modelUsageData is the data object of the model-usage endpoint.
// Numbers are decoded as float64 since the API mixes integer and decimal encodings.
type modelUsageData struct {
	TotalUsage *struct {
		TotalTokensUsage    float64 `json:"totalTokensUsage"`
		TotalModelCallCount float64 `json:"totalModelCallCount"`
	} `json:"totalUsage"`
}

// quotaResponse is the quota-limit endpoint body. Limits and level appear
// either inside data or at the top level depending on platform. Limit
// records differ in shape per type, so each is decoded on its own.
type quotaResponse struct {
	Data *struct {
		Limits []json.RawMessage `json:"limits"`
		Level  string            `json:"level"`
	} `json:"data"`
	Limits []json.RawMessage `json:"limits"`
	Level  string            `json:"level"`
}

// limitRecord is one heterogeneous entry of the limits list.
type limitRecord struct {
	Type         string            `json:"type"`
	Percentage   float64           `json:"percentage"`
	CurrentValue float64           `json:"currentValue"`
	Usage        float64           `json:"usage"`
	UsageDetails []json.RawMessage `json:"usageDetails"`
}

const (
	limitTypeTime   = "TIME_LIMIT"
	limitTypeTokens = "TOKENS_LIMIT"
)
