package fetch

import (
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/cenkalti/backoff/v4"

	"github.com/bwalsh/vt-nutrition/internal/logger"
)

const (
	// UserAgent mirrors a desktop browser; the FoodPro site serves a
	// reduced page to unrecognized clients.
	UserAgent = "Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/91.0.4472.124 Safari/537.36"

	// Timeout applies per request, not per scrape run.
	Timeout = 30 * time.Second

	// DefaultMaxRetries is the number of re-attempts after the first try.
	DefaultMaxRetries = 3

	// DefaultBaseDelay is multiplied by the attempt number between tries.
	DefaultBaseDelay = 2 * time.Second
)

// Client wraps http.Client with the retry policy used by all scraper
// fetches.
type Client struct {
	http       *http.Client
	maxRetries uint64
	baseDelay  time.Duration
}

// New creates a Client with the default timeout and retry policy.
func New() *Client {
	return NewWithPolicy(DefaultMaxRetries, DefaultBaseDelay)
}

// NewWithPolicy creates a Client with an explicit retry count and base
// delay. A zero base delay disables waiting between attempts, which tests
// rely on.
func NewWithPolicy(maxRetries int, baseDelay time.Duration) *Client {
	if maxRetries < 0 {
		maxRetries = 0
	}
	return &Client{
		http: &http.Client{
			Timeout: Timeout,
		},
		maxRetries: uint64(maxRetries),
		baseDelay:  baseDelay,
	}
}

// attemptBackOff waits baseDelay * attemptNumber between tries, matching
// the upstream site's tolerance for polite re-requests.
type attemptBackOff struct {
	base    time.Duration
	attempt int
}

func (b *attemptBackOff) NextBackOff() time.Duration {
	b.attempt++
	return b.base * time.Duration(b.attempt)
}

func (b *attemptBackOff) Reset() {
	b.attempt = 0
}

// Get fetches the URL and returns the response body. Network errors and
// non-2xx statuses are retried up to the configured maximum; when retries
// are exhausted the last error is returned and the body is nil.
func (c *Client) Get(url string) ([]byte, error) {
	var body []byte

	operation := func() error {
		b, err := c.getOnce(url)
		if err != nil {
			logger.Debug("fetch attempt failed", logger.Fields{
				"url":   url,
				"error": err.Error(),
			})
			return err
		}
		body = b
		return nil
	}

	policy := backoff.WithMaxRetries(&attemptBackOff{base: c.baseDelay}, c.maxRetries)
	if err := backoff.Retry(operation, policy); err != nil {
		logger.Warn("all fetch attempts failed", logger.Fields{"url": url})
		logger.IncrCounter("fetch.exhausted")
		return nil, fmt.Errorf("fetching %s: %w", url, err)
	}

	return body, nil
}

func (c *Client) getOnce(url string) ([]byte, error) {
	req, err := http.NewRequest("GET", url, nil)
	if err != nil {
		// A malformed URL will never succeed; give up immediately.
		return nil, backoff.Permanent(fmt.Errorf("creating request: %w", err))
	}
	req.Header.Set("User-Agent", UserAgent)

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, fmt.Errorf("request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return nil, fmt.Errorf("unexpected status code: %d", resp.StatusCode)
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("reading response body: %w", err)
	}

	return body, nil
}
