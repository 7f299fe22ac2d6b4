package scrape

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"time"

	"go.uber.org/zap"
)

var (
	ErrUnavailable = errors.New("scrape: page unavailable")
	ErrBadStatus   = errors.New("scrape: bad status")
	ErrBadURL      = errors.New("scrape: url must be absolute http(s)")
)

const (
	defaultTimeout = 10 * time.Second
	maxPageBytes   = 8 << 20
	userAgent      = "linkcart/1.0 (+product link saver)"
)

// Client fetches product pages and parses them.
type Client struct {
	HTTP *http.Client
	Log  *zap.Logger
}

func NewClient(timeout time.Duration, log *zap.Logger) *Client {
	if timeout <= 0 {
		timeout = defaultTimeout
	}
	if log == nil {
		log = zap.NewNop()
	}
	return &Client{
		HTTP: &http.Client{Timeout: timeout},
		Log:  log,
	}
}

func (c *Client) Fetch(ctx context.Context, pageURL string) (Page, error) {
	u, err := url.Parse(pageURL)
	if err != nil || (u.Scheme != "http" && u.Scheme != "https") || u.Host == "" {
		return Page{}, ErrBadURL
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u.String(), nil)
	if err != nil {
		return Page{}, err
	}
	req.Header.Set("User-Agent", userAgent)
	req.Header.Set("Accept", "text/html,application/xhtml+xml")

	resp, err := c.HTTP.Do(req)
	if err != nil {
		c.Log.Warn("fetch page failed", zap.String("url", pageURL), zap.Error(err))
		return Page{}, fmt.Errorf("%w: %v", ErrUnavailable, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		_, _ = io.Copy(io.Discard, io.LimitReader(resp.Body, maxPageBytes))
		return Page{}, fmt.Errorf("%w: status=%d", ErrBadStatus, resp.StatusCode)
	}

	// redirects may land elsewhere; links are saved under the final url
	final := resp.Request.URL.String()

	p, err := Parse(io.LimitReader(resp.Body, maxPageBytes), final)
	if errors.Is(err, ErrNotFound) {
		c.Log.Info("no product data on page", zap.String("url", final))
	}
	return p, err
}
