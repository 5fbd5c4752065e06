// Package virtool provides a client for the analysis platform's HTTP API.
// It fetches raw analysis documents for formatting, retrying transient
// failures with exponential backoff.
package virtool

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"time"

	"github.com/sethvargo/go-retry"

	"github.com/rewired-gh/vtanalysis/internal/logger"
	"github.com/rewired-gh/vtanalysis/internal/models"
)

// ErrNotFound is returned when the API responds 404 for a document.
var ErrNotFound = errors.New("not found")

// ClientConfig holds tunables for the HTTP client.
type ClientConfig struct {
	Token          string
	MaxRetries     int
	RetryDelayBase time.Duration
}

// Client provides access to the analysis API
type Client struct {
	apiBaseURL     string
	token          string
	httpClient     *http.Client
	maxRetries     int
	retryDelayBase time.Duration
}

// NewClient creates a new API client
func NewClient(apiBaseURL string, timeout time.Duration, cfg ClientConfig) *Client {
	if cfg.MaxRetries < 0 {
		cfg.MaxRetries = 0
	}
	if cfg.RetryDelayBase <= 0 {
		cfg.RetryDelayBase = time.Second
	}

	return &Client{
		apiBaseURL: apiBaseURL,
		token:      cfg.Token,
		httpClient: &http.Client{
			Timeout: timeout,
		},
		maxRetries:     cfg.MaxRetries,
		retryDelayBase: cfg.RetryDelayBase,
	}
}

// FetchAnalysis retrieves a single analysis document
func (c *Client) FetchAnalysis(ctx context.Context, id string) (*models.RawAnalysis, error) {
	endpoint := fmt.Sprintf("%s/analyses/%s", c.apiBaseURL, url.PathEscape(id))

	var analysis models.RawAnalysis
	if err := c.getJSON(ctx, endpoint, &analysis); err != nil {
		return nil, fmt.Errorf("failed to fetch analysis %s: %w", id, err)
	}

	if err := analysis.Validate(); err != nil {
		return nil, fmt.Errorf("invalid analysis %s: %w", id, err)
	}

	return &analysis, nil
}

// ListSampleAnalyses retrieves the analyses of a sample. Documents in the list
// response may omit results; fetch each one to get them.
func (c *Client) ListSampleAnalyses(ctx context.Context, sampleID string) ([]models.RawAnalysis, error) {
	endpoint := fmt.Sprintf("%s/samples/%s/analyses", c.apiBaseURL, url.PathEscape(sampleID))

	var response struct {
		Documents []models.RawAnalysis `json:"documents"`
	}
	if err := c.getJSON(ctx, endpoint, &response); err != nil {
		return nil, fmt.Errorf("failed to list analyses for sample %s: %w", sampleID, err)
	}

	return response.Documents, nil
}

// statusError is an unexpected HTTP status returned by the API.
type statusError struct {
	code int
	body string
}

func (e *statusError) Error() string {
	if e.body == "" {
		return fmt.Sprintf("unexpected status: %d", e.code)
	}
	return fmt.Sprintf("unexpected status: %d: %s", e.code, e.body)
}

// getJSON performs a GET request with retry logic and decodes the body into v.
// Transport errors and 5xx responses are retried; 4xx responses are not.
func (c *Client) getJSON(ctx context.Context, endpoint string, v any) error {
	backoff := retry.WithMaxRetries(uint64(c.maxRetries), retry.NewExponential(c.retryDelayBase))

	attempt := 0
	return retry.Do(ctx, backoff, func(ctx context.Context) error {
		attempt++

		req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
		if err != nil {
			return err
		}
		req.Header.Set("Accept", "application/json")
		if c.token != "" {
			req.Header.Set("Authorization", "Bearer "+c.token)
		}

		resp, err := c.httpClient.Do(req)
		if err != nil {
			logger.Debug("Request to %s failed (attempt %d): %v", endpoint, attempt, err)
			return retry.RetryableError(err)
		}
		defer resp.Body.Close()

		switch {
		case resp.StatusCode == http.StatusNotFound:
			return ErrNotFound
		case resp.StatusCode >= 500:
			logger.Debug("Request to %s returned %d (attempt %d)", endpoint, resp.StatusCode, attempt)
			return retry.RetryableError(&statusError{code: resp.StatusCode})
		case resp.StatusCode >= 300:
			body, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
			return &statusError{code: resp.StatusCode, body: string(body)}
		}

		if err := json.NewDecoder(resp.Body).Decode(v); err != nil {
			return fmt.Errorf("failed to decode response: %w", err)
		}
		return nil
	})
}
