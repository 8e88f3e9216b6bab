// Package scraper calls the external web scraper component that renders page
// targets in a headless browser.
package scraper

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strings"

	"github.com/retrack-dev/retrack/internal/domain/model"
	apperrors "github.com/retrack-dev/retrack/internal/errors"
)

// maxErrorBodyBytes bounds how much of an error response is read back.
const maxErrorBodyBytes = 4 * 1024

// ExecuteRequest is the payload of a page extraction call.
type ExecuteRequest struct {
	// Extractor is the script executed inside the rendered page.
	Extractor string `json:"extractor"`
	// ExtractorParams is an arbitrary JSON value handed to the extractor.
	ExtractorParams json.RawMessage `json:"extractorParams,omitempty"`
	// Tags are the tracker's tags, visible to the extractor.
	Tags []string `json:"tags,omitempty"`
	// PreviousContent is the latest revision value, when one exists.
	PreviousContent *model.TrackerDataValue `json:"previousContent,omitempty"`
	UserAgent       *string                 `json:"userAgent,omitempty"`
	// AcceptInvalidCertificates disables TLS verification in the browser.
	AcceptInvalidCertificates bool `json:"acceptInvalidCertificates,omitempty"`
	// Timeout bounds the whole render-and-extract call, in milliseconds.
	Timeout model.Duration `json:"timeout,omitempty"`
	// Engine selects the browser engine used for the render, when set.
	Engine *string `json:"engine,omitempty"`
}

// ClientOptions configures the scraper client.
type ClientOptions struct {
	// BaseURL is the scraper endpoint, e.g. http://localhost:7272/.
	BaseURL    string
	HTTPClient *http.Client
	Logger     *slog.Logger
}

// Client talks to the web scraper over its JSON API.
type Client struct {
	baseURL string
	http    *http.Client
	logger  *slog.Logger
}

// NewClient creates a scraper client.
func NewClient(opts ClientOptions) *Client {
	// No client-level timeout: renders may legitimately run for minutes, so
	// callers bound each call through the request context.
	httpClient := opts.HTTPClient
	if httpClient == nil {
		httpClient = &http.Client{}
	}
	logger := opts.Logger
	if logger == nil {
		logger = slog.Default()
	}
	return &Client{
		baseURL: strings.TrimRight(opts.BaseURL, "/"),
		http:    httpClient,
		logger:  logger,
	}
}

// Execute renders a page and runs the extractor, returning its JSON result.
// A 4xx from the scraper is the user's fault (bad script, unreachable page)
// and maps to a fetch error; anything else is an internal failure.
func (c *Client) Execute(ctx context.Context, request ExecuteRequest) (json.RawMessage, error) {
	payload, err := json.Marshal(request)
	if err != nil {
		return nil, fmt.Errorf("encode scraper request: %w", err)
	}

	url := c.baseURL + "/api/web_page/execute"
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(payload))
	if err != nil {
		return nil, fmt.Errorf("build scraper request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, apperrors.Wrap(err, apperrors.ErrCodeInternal, "web scraper is unreachable")
	}
	defer func() {
		_ = resp.Body.Close()
	}()

	if resp.StatusCode >= 200 && resp.StatusCode < 300 {
		body, err := io.ReadAll(resp.Body)
		if err != nil {
			return nil, fmt.Errorf("read scraper response: %w", err)
		}
		return body, nil
	}

	body, _ := io.ReadAll(io.LimitReader(resp.Body, maxErrorBodyBytes))
	message := scraperErrorMessage(body)

	if resp.StatusCode >= 400 && resp.StatusCode < 500 {
		return nil, apperrors.Fetchf("web scraper rejected the request: %s", message)
	}

	c.logger.ErrorContext(ctx, "web scraper call failed",
		"status", resp.StatusCode, "message", message)
	return nil, apperrors.Internalf("web scraper returned status %d", resp.StatusCode)
}

// scraperErrorMessage extracts the scraper's {"message": ...} error shape,
// falling back to the raw body.
func scraperErrorMessage(body []byte) string {
	var payload struct {
		Message string `json:"message"`
	}
	if err := json.Unmarshal(body, &payload); err == nil && payload.Message != "" {
		return payload.Message
	}
	return strings.TrimSpace(string(body))
}
