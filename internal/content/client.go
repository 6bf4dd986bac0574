// Package content reads site settings documents from the headless content
// store through its HTTP query API.
package content

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/summitlift/elevator-site/pkg/logging"
)

var (
	// ErrNoResult is returned by Query when the query matched nothing.
	ErrNoResult = errors.New("content: no result")
	// ErrNotConfigured is returned when the client has no project to query.
	ErrNotConfigured = errors.New("content: project not configured")
)

// ClientConfig configures the query API client.
type ClientConfig struct {
	ProjectID  string
	Dataset    string
	APIVersion string
	Token      string
	// APIHost replaces the project host, e.g. for a local mirror or tests.
	APIHost    string
	UseCDN     bool
	HTTPClient *http.Client
}

// Client runs read-only queries against the content store.
type Client struct {
	baseURL string
	dataset string
	version string
	token   string
	http    *http.Client
	logger  *logging.Logger
}

// NewClient returns a query client. The dataset and API version default to
// "production" and "2024-01-01".
func NewClient(cfg ClientConfig, logger *logging.Logger) *Client {
	if logger == nil {
		logger = logging.Default()
	}
	httpClient := cfg.HTTPClient
	if httpClient == nil {
		httpClient = &http.Client{Timeout: 10 * time.Second}
	}
	dataset := strings.TrimSpace(cfg.Dataset)
	if dataset == "" {
		dataset = "production"
	}
	version := strings.TrimPrefix(strings.TrimSpace(cfg.APIVersion), "v")
	if version == "" {
		version = "2024-01-01"
	}

	base := strings.TrimRight(strings.TrimSpace(cfg.APIHost), "/")
	if base == "" && strings.TrimSpace(cfg.ProjectID) != "" {
		host := "api.sanity.io"
		if cfg.UseCDN && cfg.Token == "" {
			host = "apicdn.sanity.io"
		}
		base = fmt.Sprintf("https://%s.%s", strings.TrimSpace(cfg.ProjectID), host)
	}

	return &Client{
		baseURL: base,
		dataset: dataset,
		version: version,
		token:   cfg.Token,
		http:    httpClient,
		logger:  logger,
	}
}

type queryResponse struct {
	Result json.RawMessage `json:"result"`
	Ms     int             `json:"ms"`
}

type apiError struct {
	Error struct {
		Description string `json:"description"`
		Type        string `json:"type"`
	} `json:"error"`
	Message string `json:"message"`
}

// Query executes a GROQ query with optional parameters and decodes the result
// into out. A null result yields ErrNoResult.
func (c *Client) Query(ctx context.Context, query string, params map[string]any, out any) error {
	if c.baseURL == "" {
		return ErrNotConfigured
	}

	values := url.Values{}
	values.Set("query", query)
	for name, value := range params {
		encoded, err := json.Marshal(value)
		if err != nil {
			return fmt.Errorf("content: encode param %s: %w", name, err)
		}
		values.Set("$"+name, string(encoded))
	}
	endpoint := fmt.Sprintf("%s/v%s/data/query/%s?%s", c.baseURL, c.version, url.PathEscape(c.dataset), values.Encode())

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return fmt.Errorf("content: build request: %w", err)
	}
	req.Header.Set("Accept", "application/json")
	if c.token != "" {
		req.Header.Set("Authorization", "Bearer "+c.token)
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return fmt.Errorf("content: query: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, 4<<20))
	if err != nil {
		return fmt.Errorf("content: read response: %w", err)
	}
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		var apiErr apiError
		msg := strings.TrimSpace(string(body))
		if json.Unmarshal(body, &apiErr) == nil {
			if apiErr.Error.Description != "" {
				msg = apiErr.Error.Description
			} else if apiErr.Message != "" {
				msg = apiErr.Message
			}
		}
		return fmt.Errorf("content: query failed with status %d: %s", resp.StatusCode, msg)
	}

	var qr queryResponse
	if err := json.Unmarshal(body, &qr); err != nil {
		return fmt.Errorf("content: decode response: %w", err)
	}
	c.logger.Debug("content query executed", "dataset", c.dataset, "ms", qr.Ms)

	if len(qr.Result) == 0 || string(qr.Result) == "null" {
		return ErrNoResult
	}
	if out == nil {
		return nil
	}
	if err := json.Unmarshal(qr.Result, out); err != nil {
		return fmt.Errorf("content: decode result: %w", err)
	}
	return nil
}
