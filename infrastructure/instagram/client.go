package instagram

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"net/url"
	"os"
	"path/filepath"
	"strings"
	"time"

	"reels-relay/domain/publish"
	"reels-relay/infrastructure/logging"

	gologging "github.com/op/go-logging"
)

const (
	// DefaultGraphURL is the versioned Graph API root
	DefaultGraphURL = "https://graph.facebook.com/v19.0"

	// maxResponseBytes bounds how much of a Graph response is read
	maxResponseBytes = 1 << 20
)

// PollPolicy bounds how long the client waits for a media container
type PollPolicy struct {
	MaxAttempts  int
	InitialDelay time.Duration
	MaxDelay     time.Duration
}

// DefaultPollPolicy waits for roughly five minutes in total
var DefaultPollPolicy = PollPolicy{
	MaxAttempts:  10,
	InitialDelay: 5 * time.Second,
	MaxDelay:     time.Minute,
}

// Client implements publish.Publisher with the Instagram Graph API
type Client struct {
	httpClient  *http.Client
	graphURL    string
	accountID   string
	accessToken string
	poll        PollPolicy
	sleep       func(ctx context.Context, d time.Duration) error
	log         *gologging.Logger
}

// ClientOption is a functional option for configuring Client
type ClientOption func(*Client)

// WithHTTPClient sets a custom HTTP client
func WithHTTPClient(hc *http.Client) ClientOption {
	return func(c *Client) {
		c.httpClient = hc
	}
}

// WithGraphURL sets the Graph API root (for testing or API upgrades)
func WithGraphURL(u string) ClientOption {
	return func(c *Client) {
		if u != "" {
			c.graphURL = strings.TrimRight(u, "/")
		}
	}
}

// WithAccountID sets the Instagram user id; "me" resolves from the token
func WithAccountID(id string) ClientOption {
	return func(c *Client) {
		if id != "" {
			c.accountID = id
		}
	}
}

// WithPollPolicy sets the container readiness poll bounds
func WithPollPolicy(p PollPolicy) ClientOption {
	return func(c *Client) {
		c.poll = p
	}
}

// WithLogger sets the logger used for responses and progress
func WithLogger(log *gologging.Logger) ClientOption {
	return func(c *Client) {
		c.log = log
	}
}

// NewClient creates a Graph API publisher for the given access token
func NewClient(accessToken string, opts ...ClientOption) *Client {
	c := &Client{
		httpClient:  &http.Client{Timeout: 10 * time.Minute},
		graphURL:    DefaultGraphURL,
		accountID:   "me",
		accessToken: accessToken,
		poll:        DefaultPollPolicy,
		sleep:       sleepContext,
		log:         logging.Discard(),
	}

	for _, opt := range opts {
		opt(c)
	}

	if c.poll.MaxAttempts < 1 {
		c.poll.MaxAttempts = 1
	}
	return c
}

// graphResponse is the union of the Graph payloads this client reads
type graphResponse struct {
	ID         string          `json:"id"`
	StatusCode string          `json:"status_code"`
	Status     string          `json:"status"`
	Error      json.RawMessage `json:"error"`
}

// Publish implements publish.Publisher
func (c *Client) Publish(ctx context.Context, path, caption string) (*publish.Result, error) {
	creationID, err := c.createContainer(ctx, path, caption)
	if err != nil {
		return nil, err
	}
	c.log.Infof("[IG] container %s created for %s", creationID, filepath.Base(path))

	if err := c.waitUntilReady(ctx, creationID); err != nil {
		return nil, err
	}

	postID, err := c.publishContainer(ctx, creationID)
	if err != nil {
		return nil, err
	}
	c.log.Infof("[IG] Reel published: %s", postID)

	return &publish.Result{CreationID: creationID, PostID: postID}, nil
}

// createContainer uploads the video bytes and returns the creation id
func (c *Client) createContainer(ctx context.Context, path, caption string) (string, error) {
	f, err := os.Open(path)
	if err != nil {
		return "", fmt.Errorf("failed to open %s: %w", path, err)
	}
	defer f.Close()

	pr, pw := io.Pipe()
	mw := multipart.NewWriter(pw)
	go func() {
		pw.CloseWithError(writeCreateForm(mw, f, filepath.Base(path), map[string]string{
			"media_type":   publish.MediaTypeReels,
			"caption":      caption,
			"access_token": c.accessToken,
		}))
	}()

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.graphURL+"/"+c.accountID+"/media", pr)
	if err != nil {
		pr.Close()
		return "", err
	}
	req.Header.Set("Content-Type", mw.FormDataContentType())

	resp, raw, err := c.do(req)
	if err != nil {
		return "", fmt.Errorf("create container request failed: %w", err)
	}
	if resp.ID == "" {
		c.log.Errorf("[IG] upload failed for %s: %s", filepath.Base(path), raw)
		return "", fmt.Errorf("%w: %s", publish.ErrNoCreationID, describe(resp, raw))
	}
	return resp.ID, nil
}

func writeCreateForm(mw *multipart.Writer, video io.Reader, name string, fields map[string]string) error {
	for _, key := range []string{"media_type", "caption", "access_token"} {
		if err := mw.WriteField(key, fields[key]); err != nil {
			return err
		}
	}
	part, err := mw.CreateFormFile("video", name)
	if err != nil {
		return err
	}
	if _, err := io.Copy(part, video); err != nil {
		return err
	}
	return mw.Close()
}

// waitUntilReady polls the container until it is publishable or the policy is exhausted
func (c *Client) waitUntilReady(ctx context.Context, creationID string) error {
	delay := c.poll.InitialDelay
	status := publish.StatusInProgress

	for attempt := 1; attempt <= c.poll.MaxAttempts; attempt++ {
		var err error
		status, err = c.containerStatus(ctx, creationID)
		if err != nil {
			return err
		}
		if status.Ready() {
			return nil
		}
		if status.Failed() {
			return fmt.Errorf("%w: container %s is %s", publish.ErrContainerFailed, creationID, status)
		}
		if attempt == c.poll.MaxAttempts {
			break
		}

		c.log.Debugf("[IG] container %s is %s, checking again in %s", creationID, status, delay)
		if err := c.sleep(ctx, delay); err != nil {
			return err
		}
		delay *= 2
		if c.poll.MaxDelay > 0 && delay > c.poll.MaxDelay {
			delay = c.poll.MaxDelay
		}
	}

	return fmt.Errorf("%w: container %s still %s after %d checks", publish.ErrContainerNotReady, creationID, status, c.poll.MaxAttempts)
}

func (c *Client) containerStatus(ctx context.Context, creationID string) (publish.ContainerStatus, error) {
	q := url.Values{}
	q.Set("fields", "status_code,status")
	q.Set("access_token", c.accessToken)

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.graphURL+"/"+url.PathEscape(creationID)+"?"+q.Encode(), nil)
	if err != nil {
		return "", err
	}

	resp, raw, err := c.do(req)
	if err != nil {
		return "", fmt.Errorf("container status request failed: %w", err)
	}
	if len(resp.Error) > 0 {
		return "", fmt.Errorf("container status for %s: %s", creationID, describe(resp, raw))
	}
	if resp.StatusCode == "" {
		return publish.StatusInProgress, nil
	}
	return publish.ContainerStatus(resp.StatusCode), nil
}

// publishContainer confirms the container and returns the post id
func (c *Client) publishContainer(ctx context.Context, creationID string) (string, error) {
	form := url.Values{}
	form.Set("creation_id", creationID)
	form.Set("access_token", c.accessToken)

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.graphURL+"/"+c.accountID+"/media_publish", strings.NewReader(form.Encode()))
	if err != nil {
		return "", err
	}
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")

	resp, raw, err := c.do(req)
	if err != nil {
		return "", fmt.Errorf("publish request failed: %w", err)
	}
	if resp.ID == "" {
		c.log.Errorf("[IG] publish failed for container %s: %s", creationID, raw)
		return "", fmt.Errorf("%w: %s", publish.ErrPublishRejected, describe(resp, raw))
	}
	return resp.ID, nil
}

// do sends req and decodes the JSON body regardless of HTTP status
func (c *Client) do(req *http.Request) (*graphResponse, string, error) {
	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, "", err
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxResponseBytes))
	if err != nil {
		return nil, "", fmt.Errorf("failed to read response: %w", err)
	}
	raw := strings.TrimSpace(string(body))

	var gr graphResponse
	if err := json.Unmarshal(body, &gr); err != nil {
		return nil, raw, fmt.Errorf("unexpected response (status %d): %s", resp.StatusCode, raw)
	}
	return &gr, raw, nil
}

// describe renders a Graph error for humans, falling back to the raw body
func describe(resp *graphResponse, raw string) string {
	if len(resp.Error) == 0 {
		return raw
	}

	var detail struct {
		Message string `json:"message"`
		Type    string `json:"type"`
		Code    int    `json:"code"`
	}
	if err := json.Unmarshal(resp.Error, &detail); err == nil && detail.Message != "" {
		return fmt.Sprintf("%s (type %s, code %d)", detail.Message, detail.Type, detail.Code)
	}

	var text string
	if err := json.Unmarshal(resp.Error, &text); err == nil && text != "" {
		return text
	}
	return raw
}

func sleepContext(ctx context.Context, d time.Duration) error {
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.C:
		return nil
	}
}

// Ensure Client implements publish.Publisher
var _ publish.Publisher = (*Client)(nil)
