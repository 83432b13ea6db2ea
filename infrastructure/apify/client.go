package apify

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"time"
)

const (
	defaultBaseURL = "https://api.apify.com/v2"
	// clockworks~tiktok-scraper
	tiktokActorID = "GdWCkxBtKWOsKjdch"
)

// Client talks to the Apify REST API
type Client struct {
	apiToken     string
	baseURL      string
	actorID      string
	pollInterval time.Duration
	client       *http.Client
}

// ClientOption is a functional option for configuring Client
type ClientOption func(*Client)

// WithBaseURL sets a custom API base URL (for testing)
func WithBaseURL(u string) ClientOption {
	return func(c *Client) {
		c.baseURL = u
	}
}

// WithPollInterval sets how often a running actor is checked
func WithPollInterval(d time.Duration) ClientOption {
	return func(c *Client) {
		c.pollInterval = d
	}
}

// WithHTTPClient sets a custom HTTP client
func WithHTTPClient(hc *http.Client) ClientOption {
	return func(c *Client) {
		c.client = hc
	}
}

// NewClient creates a new Apify client for the TikTok scraper actor
func NewClient(apiToken string, opts ...ClientOption) (*Client, error) {
	if apiToken == "" {
		return nil, fmt.Errorf("apify API token is required")
	}
	c := &Client{
		apiToken:     apiToken,
		baseURL:      defaultBaseURL,
		actorID:      tiktokActorID,
		pollInterval: 3 * time.Second,
		client:       &http.Client{Timeout: 5 * time.Minute},
	}

	for _, opt := range opts {
		opt(c)
	}

	return c, nil
}

// Item is one scraped TikTok post
type Item struct {
	ID          string `json:"id"`
	WebVideoURL string `json:"webVideoUrl"`
	VideoMeta   struct {
		DownloadAddr string `json:"downloadAddr"`
	} `json:"videoMeta"`
	MediaURLs []string `json:"mediaUrls"`
}

// DownloadURL returns the best direct video URL the item carries
func (i Item) DownloadURL() string {
	if len(i.MediaURLs) > 0 && i.MediaURLs[0] != "" {
		return i.MediaURLs[0]
	}
	return i.VideoMeta.DownloadAddr
}

// ScrapeProfile runs the actor for a profile and returns up to max items
func (c *Client) ScrapeProfile(ctx context.Context, username string, max int) ([]Item, error) {
	input := map[string]interface{}{
		"profiles":       []string{username},
		"resultsPerPage": max,
	}

	runID, err := c.startActorRun(ctx, input)
	if err != nil {
		return nil, fmt.Errorf("failed to start actor run: %w", err)
	}

	raw, err := c.waitAndGetResults(ctx, runID)
	if err != nil {
		return nil, fmt.Errorf("failed to get results: %w", err)
	}

	var items []Item
	if err := json.Unmarshal(raw, &items); err != nil {
		return nil, fmt.Errorf("failed to parse dataset items: %w", err)
	}
	if len(items) > max {
		items = items[:max]
	}
	return items, nil
}

func (c *Client) endpoint(path string) string {
	return fmt.Sprintf("%s%s?token=%s", c.baseURL, path, url.QueryEscape(c.apiToken))
}

func (c *Client) startActorRun(ctx context.Context, input map[string]interface{}) (string, error) {
	body, err := json.Marshal(input)
	if err != nil {
		return "", err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.endpoint("/acts/"+c.actorID+"/runs"), bytes.NewReader(body))
	if err != nil {
		return "", err
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.client.Do(req)
	if err != nil {
		return "", err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusCreated {
		respBody, _ := io.ReadAll(resp.Body)
		return "", fmt.Errorf("status %d, body: %s", resp.StatusCode, string(respBody))
	}

	var result struct {
		Data struct {
			ID string `json:"id"`
		} `json:"data"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&result); err != nil {
		return "", err
	}
	if result.Data.ID == "" {
		return "", fmt.Errorf("actor run response has no id")
	}

	return result.Data.ID, nil
}

func (c *Client) waitAndGetResults(ctx context.Context, runID string) ([]byte, error) {
	statusURL := c.endpoint("/actor-runs/" + runID)

	for {
		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		case <-time.After(c.pollInterval):
		}

		req, err := http.NewRequestWithContext(ctx, http.MethodGet, statusURL, nil)
		if err != nil {
			return nil, err
		}
		resp, err := c.client.Do(req)
		if err != nil {
			return nil, err
		}
		if resp.StatusCode != http.StatusOK {
			respBody, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
			resp.Body.Close()
			return nil, fmt.Errorf("run status: status %d, body: %s", resp.StatusCode, string(respBody))
		}

		var status struct {
			Data struct {
				Status           string `json:"status"`
				DefaultDatasetID string `json:"defaultDatasetId"`
			} `json:"data"`
		}
		err = json.NewDecoder(resp.Body).Decode(&status)
		resp.Body.Close()
		if err != nil {
			return nil, err
		}

		switch status.Data.Status {
		case "SUCCEEDED":
			return c.getDatasetItems(ctx, status.Data.DefaultDatasetID)
		case "READY", "RUNNING", "TIMING-OUT", "ABORTING":
		case "FAILED", "ABORTED", "TIMED-OUT":
			return nil, fmt.Errorf("actor run failed with status: %s", status.Data.Status)
		default:
			return nil, fmt.Errorf("actor run has unknown status %q", status.Data.Status)
		}
	}
}

func (c *Client) getDatasetItems(ctx context.Context, datasetID string) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.endpoint("/datasets/"+datasetID+"/items"), nil)
	if err != nil {
		return nil, err
	}
	resp, err := c.client.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		respBody, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
		return nil, fmt.Errorf("dataset items: status %d, body: %s", resp.StatusCode, string(respBody))
	}
	return io.ReadAll(resp.Body)
}
