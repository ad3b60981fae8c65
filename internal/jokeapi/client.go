// Package jokeapi fetches joke batches from the Official Joke API.
package jokeapi

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"time"

	"joke-browser/internal/config"
	"joke-browser/internal/models"
	"joke-browser/pkg/logger"
)

const DefaultTimeout = 10 * time.Second

type Client struct {
	url    string
	client *http.Client
}

func New(cfg config.APIConfig, opts ...Option) *Client {
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = DefaultTimeout
	}

	c := &Client{
		url: cfg.URL(),
		client: &http.Client{
			Timeout: timeout,
		},
	}

	for _, opt := range opts {
		opt(c)
	}

	return c
}

type Option func(*Client)

func WithHTTPClient(client *http.Client) Option {
	return func(c *Client) {
		c.client = client
	}
}

func (c *Client) URL() string {
	return c.url
}

// FetchAll issues one GET against the configured endpoint and returns the
// decoded batch. Every failure is an *Error; nothing is retried.
func (c *Client) FetchAll(ctx context.Context) ([]models.Joke, error) {
	req, err := c.newRequest(ctx)
	if err != nil {
		logger.Error("Failed to build joke request", logger.Err(err))
		return nil, requestError(err)
	}

	start := time.Now()
	resp, err := c.client.Do(req)
	if err != nil {
		logger.Warn("No response from joke API",
			logger.String("url", c.url),
			logger.Err(err),
		)
		return nil, networkError(err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		io.Copy(io.Discard, resp.Body)
		logger.Warn("Non-OK status from joke API",
			logger.String("url", c.url),
			logger.Int("status", resp.StatusCode),
		)
		return nil, statusError(resp.StatusCode)
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		logger.Warn("Joke API response cut off", logger.Err(err))
		return nil, networkError(err)
	}

	var jokes []models.Joke
	if err := json.Unmarshal(body, &jokes); err != nil {
		logger.Error("Failed to decode joke batch", logger.Err(err))
		return nil, decodeError(err)
	}

	logger.Info("Fetched jokes",
		logger.Int("count", len(jokes)),
		logger.Duration("elapsed", time.Since(start)),
	)

	return jokes, nil
}

func (c *Client) newRequest(ctx context.Context) (*http.Request, error) {
	u, err := url.Parse(c.url)
	if err != nil {
		return nil, err
	}
	if u.Scheme != "http" && u.Scheme != "https" {
		return nil, fmt.Errorf("unsupported protocol scheme %q", u.Scheme)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u.String(), nil)
	if err != nil {
		return nil, err
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "application/json")
	req.Header.Set("User-Agent", "joke-browser/1.0")

	return req, nil
}
