// Package scraper fetches and parses RSS/Atom feeds.
// It uses the gofeed library wrapped with retry, circuit breaker and
// per-host rate limiting.
package scraper

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"net/url"
	"sync"

	"github.com/mmcdole/gofeed"
	"github.com/sony/gobreaker"
	"golang.org/x/time/rate"

	"feedpress/internal/resilience/circuitbreaker"
	"feedpress/internal/resilience/retry"
	"feedpress/internal/usecase/update"
)

const userAgent = "feedpress/1.0"

// RSSFetcher implements update.FeedFetcher using the gofeed library.
type RSSFetcher struct {
	client         *http.Client
	circuitBreaker *circuitbreaker.CircuitBreaker
	retryConfig    retry.Config

	// one limiter per feed host, created lazily
	limiterMu sync.Mutex
	limiters  map[string]*rate.Limiter
	hostRate  rate.Limit
	hostBurst int
}

// NewRSSFetcher creates a new RSSFetcher with the given HTTP client.
// Requests to the same host are limited to one per second with a small
// burst, so a schedule firing many feeds on one host stays polite.
func NewRSSFetcher(client *http.Client) *RSSFetcher {
	return &RSSFetcher{
		client:         client,
		circuitBreaker: circuitbreaker.New(circuitbreaker.FeedFetchConfig()),
		retryConfig:    retry.FeedFetchConfig(),
		limiters:       make(map[string]*rate.Limiter),
		hostRate:       rate.Limit(1),
		hostBurst:      3,
	}
}

// Fetch retrieves and parses a feed from the given URL.
func (f *RSSFetcher) Fetch(ctx context.Context, feedURL string) ([]update.FeedItem, error) {
	if err := f.waitForHost(ctx, feedURL); err != nil {
		return nil, err
	}

	var items []update.FeedItem
	retryErr := retry.WithBackoff(ctx, f.retryConfig, func() error {
		cbResult, err := f.circuitBreaker.Execute(func() (interface{}, error) {
			return f.doFetch(ctx, feedURL)
		})
		if err != nil {
			if errors.Is(err, gobreaker.ErrOpenState) {
				slog.Warn("feed fetch circuit breaker open, request rejected",
					slog.String("service", "feed-fetch"),
					slog.String("url", feedURL),
					slog.String("state", f.circuitBreaker.State().String()))
			}
			return err
		}

		items = cbResult.([]update.FeedItem)
		return nil
	})
	if retryErr != nil {
		return nil, retryErr
	}

	return items, nil
}

// waitForHost blocks until the per-host limiter admits a request.
func (f *RSSFetcher) waitForHost(ctx context.Context, feedURL string) error {
	parsed, err := url.Parse(feedURL)
	if err != nil {
		return err
	}

	f.limiterMu.Lock()
	limiter, ok := f.limiters[parsed.Host]
	if !ok {
		limiter = rate.NewLimiter(f.hostRate, f.hostBurst)
		f.limiters[parsed.Host] = limiter
	}
	f.limiterMu.Unlock()

	return limiter.Wait(ctx)
}

// doFetch performs the actual fetch and parse without retry or breaker.
func (f *RSSFetcher) doFetch(ctx context.Context, feedURL string) ([]update.FeedItem, error) {
	fp := gofeed.NewParser()
	fp.UserAgent = userAgent
	fp.Client = f.client

	feed, err := fp.ParseURLWithContext(feedURL, ctx)
	if err != nil {
		var httpErr gofeed.HTTPError
		if errors.As(err, &httpErr) {
			return nil, &retry.HTTPError{StatusCode: httpErr.StatusCode, Message: httpErr.Status}
		}
		if errors.Is(err, gofeed.ErrFeedTypeNotDetected) {
			return nil, &update.ParseError{URL: feedURL, Err: err}
		}
		return nil, err
	}

	items := make([]update.FeedItem, 0, len(feed.Items))
	for _, it := range feed.Items {
		// prefer full content, fall back to the item description
		content := it.Content
		if content == "" {
			content = it.Description
		}

		var author string
		if len(it.Authors) > 0 {
			author = it.Authors[0].Name
		}

		items = append(items, update.FeedItem{
			Title:       it.Title,
			URL:         it.Link,
			Author:      author,
			Summary:     it.Description,
			Content:     content,
			PublishedAt: it.PublishedParsed,
			UpdatedAt:   it.UpdatedParsed,
		})
	}

	return items, nil
}
