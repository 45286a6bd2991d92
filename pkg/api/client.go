package api

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/bastiangx/bpedash/internal/logger"
	"github.com/charmbracelet/log"
)

// maxBodySize caps how much of a response body is read.
const maxBodySize = 32 << 20

// Client talks to the tokenizer-training service over HTTP/JSON.
type Client struct {
	baseURL string
	http    *http.Client
	log     *log.Logger
}

// NewClient creates a client for the service rooted at baseURL.
func NewClient(baseURL string, timeout time.Duration) *Client {
	return &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		http:    &http.Client{Timeout: timeout},
		log:     logger.New("api"),
	}
}

// BaseURL returns the service root.
func (c *Client) BaseURL() string {
	return c.baseURL
}

// Tokenize sends text to POST /tokenize.
func (c *Client) Tokenize(ctx context.Context, text string) (*TokenizeResult, error) {
	var result TokenizeResult
	if err := c.do(ctx, http.MethodPost, "/tokenize", TokenizeRequest{Text: text}, &result, DefaultTokenizeError); err != nil {
		return nil, err
	}
	if err := result.Validate(); err != nil {
		return nil, err
	}
	return &result, nil
}

// StartTraining sends POST /start-training. Any 2xx body is ignored.
func (c *Client) StartTraining(ctx context.Context, req TrainingRequest) error {
	return c.do(ctx, http.MethodPost, "/start-training", req, nil, DefaultTrainingError)
}

// TrainingProgress fetches GET /training-progress.
func (c *Client) TrainingProgress(ctx context.Context) (*ProgressState, error) {
	var state ProgressState
	if err := c.do(ctx, http.MethodGet, "/training-progress", nil, &state, "Failed to fetch training progress"); err != nil {
		return nil, err
	}
	return &state, nil
}

// TrainingStats fetches GET /training-stats.
func (c *Client) TrainingStats(ctx context.Context) (*TrainingStats, error) {
	var stats TrainingStats
	if err := c.do(ctx, http.MethodGet, "/training-stats", nil, &stats, "Failed to fetch training stats"); err != nil {
		return nil, err
	}
	return &stats, nil
}

// VocabularyStats fetches GET /vocabulary-stats.
func (c *Client) VocabularyStats(ctx context.Context) (*VocabularyStats, error) {
	var stats VocabularyStats
	if err := c.do(ctx, http.MethodGet, "/vocabulary-stats", nil, &stats, "Failed to fetch vocabulary stats"); err != nil {
		return nil, err
	}
	return &stats, nil
}

// PushURL derives the websocket URL of the push channel at path.
func (c *Client) PushURL(path string) (string, error) {
	u, err := url.Parse(c.baseURL)
	if err != nil {
		return "", fmt.Errorf("parse base url: %w", err)
	}
	switch u.Scheme {
	case "https":
		u.Scheme = "wss"
	case "http", "":
		u.Scheme = "ws"
	}
	u.Path = strings.TrimRight(u.Path, "/") + "/" + strings.TrimLeft(path, "/")
	return u.String(), nil
}

// do runs one JSON round trip. A nil out skips decoding the success body.
func (c *Client) do(ctx context.Context, method, path string, in, out any, fallback string) error {
	var body io.Reader
	if in != nil {
		data, err := json.Marshal(in)
		if err != nil {
			return fmt.Errorf("marshal %s body: %w", path, err)
		}
		body = bytes.NewReader(data)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, body)
	if err != nil {
		return fmt.Errorf("build %s request: %w", path, err)
	}
	req.Header.Set("Accept", "application/json")
	if in != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	start := time.Now()
	resp, err := c.http.Do(req)
	if err != nil {
		return fmt.Errorf("%s %s: %w", method, path, err)
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(io.LimitReader(resp.Body, maxBodySize))
	if err != nil {
		return fmt.Errorf("read %s body: %w", path, err)
	}
	c.log.Debugf("%s %s -> %d in %v", method, path, resp.StatusCode, time.Since(start))

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return &RequestError{Status: resp.StatusCode, Message: ErrorMessage(data, fallback)}
	}
	if out == nil {
		return nil
	}
	if err := json.Unmarshal(data, out); err != nil {
		return fmt.Errorf("%w: %s: %v", ErrMalformedResponse, path, err)
	}
	return nil
}
