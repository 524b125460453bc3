package proxy

import (
	"context"
	"fmt"
	"time"

	"github.com/go-resty/resty/v2"
	"github.com/hashicorp/go-retryablehttp"

	"github.com/lumos-edit/lumos/backend/internal/infrastructure/config"
	"github.com/lumos-edit/lumos/backend/internal/infrastructure/resilience"
)

// Page holds a fetched upstream response
type Page struct {
	Body        string
	Status      int
	ContentType string
}

// Fetcher retrieves third-party pages with retries and a circuit
// breaker in front of the upstream
type Fetcher struct {
	client  *resty.Client
	breaker *resilience.Breaker
	cfg     config.ProxyConfig
}

// NewFetcher creates a production-ready page fetcher
func NewFetcher(cfg config.ProxyConfig) *Fetcher {
	retryClient := retryablehttp.NewClient()
	retryClient.RetryMax = 2
	retryClient.RetryWaitMin = 500 * time.Millisecond
	retryClient.RetryWaitMax = 5 * time.Second
	retryClient.Logger = nil

	client := resty.New().
		SetTimeout(cfg.Timeout).
		SetTransport(retryClient.HTTPClient.Transport).
		SetHeader("User-Agent", cfg.UserAgent).
		SetHeader("Accept", "text/html,application/xhtml+xml,application/xml;q=0.9,*/*;q=0.8").
		SetHeader("Accept-Language", "en-US,en;q=0.9")

	breaker := resilience.New("proxy-upstream", resilience.Settings{
		MaxRequests: 5,
		Interval:    60 * time.Second,
		Timeout:     30 * time.Second,
		ReadyToTrip: func(counts resilience.Counts) bool {
			// External pages vary in reliability; trip only on sustained failure
			return counts.ConsecutiveFailures >= 10 ||
				(counts.Requests >= 20 && float64(counts.TotalFailures)/float64(counts.Requests) > 0.7)
		},
	})

	return &Fetcher{client: client, breaker: breaker, cfg: cfg}
}

// Fetch retrieves the page at urlStr. Any reachable upstream, 2xx or
// not, yields a Page; the caller decides how to surface the status.
func (f *Fetcher) Fetch(ctx context.Context, urlStr string) (*Page, error) {
	result, err := f.breaker.Execute(func() (interface{}, error) {
		return f.client.R().SetContext(ctx).Get(urlStr)
	})
	if err != nil {
		return nil, fmt.Errorf("fetch %s: %w", urlStr, err)
	}

	resp := result.(*resty.Response)
	body := resp.Body()
	if int64(len(body)) > f.cfg.MaxBodySize {
		return nil, fmt.Errorf("fetch %s: body exceeds %d bytes", urlStr, f.cfg.MaxBodySize)
	}

	return &Page{
		Body:        string(body),
		Status:      resp.StatusCode(),
		ContentType: resp.Header().Get("Content-Type"),
	}, nil
}
