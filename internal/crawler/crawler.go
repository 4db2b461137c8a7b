// Package crawler fetches a single web page and flattens it into
// heading-annotated plain text.
package crawler

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"time"

	"github.com/jackzampolin/comply/internal/errdefs"
)

const (
	DefaultTimeout   = 30 * time.Second
	DefaultMaxBytes  = 10 * 1024 * 1024
	DefaultUserAgent = "comply/1.0 (+https://github.com/jackzampolin/comply)"
	maxRedirects     = 5
)

// Page is the text extracted from one fetch.
type Page struct {
	Body  string `json:"body"`
	Title string `json:"title,omitempty"` // empty when the page has no usable title
}

// HasTitle reports whether the page carried a non-empty title.
func (p *Page) HasTitle() bool {
	return p.Title != ""
}

// Config configures the crawler.
type Config struct {
	Timeout    time.Duration // Per-fetch timeout. Default: 30s.
	MaxBytes   int64         // Max body size read. Default: 10MB.
	UserAgent  string
	HTTPClient *http.Client // Optional (tests)
	Logger     *slog.Logger
}

func (c *Config) defaults() {
	if c.Timeout <= 0 {
		c.Timeout = DefaultTimeout
	}
	if c.MaxBytes <= 0 {
		c.MaxBytes = DefaultMaxBytes
	}
	if c.UserAgent == "" {
		c.UserAgent = DefaultUserAgent
	}
	if c.Logger == nil {
		c.Logger = slog.Default()
	}
}

// Crawler fetches pages over HTTP. No retries: one GET per Extract call.
type Crawler struct {
	client *http.Client
	config Config
}

// New creates a Crawler.
func New(cfg Config) *Crawler {
	cfg.defaults()
	client := cfg.HTTPClient
	if client == nil {
		client = &http.Client{
			Timeout: cfg.Timeout,
			CheckRedirect: func(req *http.Request, via []*http.Request) error {
				if len(via) >= maxRedirects {
					return fmt.Errorf("too many redirects (%d)", len(via))
				}
				return nil
			},
		}
	}
	return &Crawler{client: client, config: cfg}
}

// Extract fetches rawURL and returns its flattened text.
// Network failures, timeouts and non-2xx statuses return *errdefs.FetchError.
func (c *Crawler) Extract(ctx context.Context, rawURL string) (*Page, error) {
	if err := validateURL(rawURL); err != nil {
		return nil, &errdefs.FetchError{URL: rawURL, Err: err}
	}

	ctx, cancel := context.WithTimeout(ctx, c.config.Timeout)
	defer cancel()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, rawURL, nil)
	if err != nil {
		return nil, &errdefs.FetchError{URL: rawURL, Err: err}
	}
	req.Header.Set("User-Agent", c.config.UserAgent)
	req.Header.Set("Accept", "text/html,application/xhtml+xml")

	start := time.Now()
	resp, err := c.client.Do(req)
	if err != nil {
		return nil, &errdefs.FetchError{URL: rawURL, Err: err}
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		io.Copy(io.Discard, io.LimitReader(resp.Body, 4096))
		return nil, &errdefs.FetchError{URL: rawURL, StatusCode: resp.StatusCode}
	}

	page, err := ExtractHTML(io.LimitReader(resp.Body, c.config.MaxBytes))
	if err != nil {
		return nil, &errdefs.FetchError{URL: rawURL, StatusCode: resp.StatusCode, Err: err}
	}

	c.config.Logger.Debug("page extracted",
		"url", rawURL,
		"status", resp.StatusCode,
		"title", page.Title,
		"chars", len(page.Body),
		"elapsed", time.Since(start))
	return page, nil
}

func validateURL(rawURL string) error {
	u, err := url.Parse(rawURL)
	if err != nil {
		return err
	}
	if u.Scheme != "http" && u.Scheme != "https" {
		return fmt.Errorf("unsupported scheme %q", u.Scheme)
	}
	if u.Host == "" {
		return errors.New("missing host")
	}
	return nil
}
