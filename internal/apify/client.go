// Package apify is a thin client for the Apify v2 REST API: start an actor
// run, poll it to a terminal status, fetch the result dataset. The client is
// schema-free; dataset items come back as raw JSON objects for the normalize
// layer to interpret.
package apify

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"time"
)

// DefaultBaseURL is the public Apify API endpoint.
const DefaultBaseURL = "https://api.apify.com/v2"

// Actor IDs in the tilde form the REST API expects in URL paths.
const (
	ActorTikTokScraper        = "clockworks~tiktok-scraper"
	ActorTikTokProfileScraper = "clockworks~tiktok-profile-scraper"
	ActorInstagramScraper     = "apify~instagram-scraper"
)

// Run statuses reported by the API.
const (
	StatusSucceeded = "SUCCEEDED"
	StatusFailed    = "FAILED"
	StatusAborted   = "ABORTED"
	StatusTimedOut  = "TIMED-OUT"
)

// ErrRunTimeout reports that an actor run did not reach a terminal status
// within the wait budget. Only the wait stops; the remote run keeps going.
var ErrRunTimeout = errors.New("apify: timed out waiting for run to finish")

// APIError is a non-2xx response from the Apify API.
type APIError struct {
	StatusCode int
	Body       string
}

func (e *APIError) Error() string {
	return fmt.Sprintf("apify: unexpected status %d: %s", e.StatusCode, e.Body)
}

// RunFailedError is an actor run that ended in a terminal failure status.
type RunFailedError struct {
	RunID  string
	Status string
}

func (e *RunFailedError) Error() string {
	return fmt.Sprintf("apify: run %s ended with status %s", e.RunID, e.Status)
}

// Run describes the state of one actor run.
type Run struct {
	ID        string
	Status    string
	DatasetID string
}

// Config holds the settings for the Apify client.
type Config struct {
	// Token authenticates every request. Required.
	Token string
	// BaseURL overrides the API endpoint. Defaults to DefaultBaseURL.
	BaseURL string
	// PollInterval is the delay between run status checks. Defaults to 2s.
	PollInterval time.Duration
	// HTTPClient overrides the underlying client.
	HTTPClient *http.Client
}

// Client talks to the Apify v2 REST API.
type Client struct {
	token        string
	baseURL      string
	pollInterval time.Duration
	http         *http.Client
}

// NewClient builds a Client from cfg. A missing token is a configuration
// error; callers should refuse to start rather than retry.
func NewClient(cfg Config) (*Client, error) {
	if cfg.Token == "" {
		return nil, errors.New("apify: API token is required")
	}
	c := &Client{
		token:        cfg.Token,
		baseURL:      cfg.BaseURL,
		pollInterval: cfg.PollInterval,
		http:         cfg.HTTPClient,
	}
	if c.baseURL == "" {
		c.baseURL = DefaultBaseURL
	}
	if c.pollInterval <= 0 {
		c.pollInterval = 2 * time.Second
	}
	if c.http == nil {
		c.http = &http.Client{Timeout: 5 * time.Minute}
	}
	return c, nil
}

// StartRun submits an actor run and returns its identifier. The run executes
// asynchronously on the provider; poll it with WaitForRun.
func (c *Client) StartRun(ctx context.Context, actorID string, input any) (*Run, error) {
	body, err := json.Marshal(input)
	if err != nil {
		return nil, fmt.Errorf("apify: encode actor input: %w", err)
	}

	url := fmt.Sprintf("%s/acts/%s/runs?token=%s", c.baseURL, actorID, c.token)
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(body))
	if err != nil {
		return nil, err
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusCreated {
		return nil, readAPIError(resp)
	}
	return decodeRun(resp.Body)
}

// RunStatus fetches the current state of a run.
func (c *Client) RunStatus(ctx context.Context, runID string) (*Run, error) {
	url := fmt.Sprintf("%s/actor-runs/%s?token=%s", c.baseURL, runID, c.token)
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, err
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, readAPIError(resp)
	}
	return decodeRun(resp.Body)
}

// WaitForRun polls the run until it reaches a terminal status. A positive
// timeout bounds the wait and maps expiry to ErrRunTimeout; a terminal
// failure status maps to RunFailedError. Context cancellation propagates
// unchanged.
func (c *Client) WaitForRun(ctx context.Context, runID string, timeout time.Duration) (*Run, error) {
	if timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, timeout)
		defer cancel()
	}

	for {
		run, err := c.RunStatus(ctx, runID)
		if err != nil {
			if errors.Is(err, context.DeadlineExceeded) {
				return nil, ErrRunTimeout
			}
			return nil, err
		}

		switch run.Status {
		case StatusSucceeded:
			return run, nil
		case StatusFailed, StatusAborted, StatusTimedOut:
			return nil, &RunFailedError{RunID: runID, Status: run.Status}
		}

		select {
		case <-ctx.Done():
			if errors.Is(ctx.Err(), context.DeadlineExceeded) {
				return nil, ErrRunTimeout
			}
			return nil, ctx.Err()
		case <-time.After(c.pollInterval):
		}
	}
}

// DatasetItems downloads every record of a dataset.
func (c *Client) DatasetItems(ctx context.Context, datasetID string) ([]map[string]any, error) {
	url := fmt.Sprintf("%s/datasets/%s/items?token=%s", c.baseURL, datasetID, c.token)
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, err
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, readAPIError(resp)
	}

	var items []map[string]any
	if err := json.NewDecoder(resp.Body).Decode(&items); err != nil {
		return nil, fmt.Errorf("apify: decode dataset items: %w", err)
	}
	return items, nil
}

func decodeRun(r io.Reader) (*Run, error) {
	var payload struct {
		Data struct {
			ID               string `json:"id"`
			Status           string `json:"status"`
			DefaultDatasetID string `json:"defaultDatasetId"`
		} `json:"data"`
	}
	if err := json.NewDecoder(r).Decode(&payload); err != nil {
		return nil, fmt.Errorf("apify: decode run: %w", err)
	}
	return &Run{
		ID:        payload.Data.ID,
		Status:    payload.Data.Status,
		DatasetID: payload.Data.DefaultDatasetID,
	}, nil
}

func readAPIError(resp *http.Response) error {
	body, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
	return &APIError{StatusCode: resp.StatusCode, Body: string(bytes.TrimSpace(body))}
}
