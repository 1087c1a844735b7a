package update

import (
	"context"
	"errors"
)

// ContentFetcher extracts clean article text from a web page.
// Implementations must prevent SSRF, enforce size limits and timeouts,
// and validate redirect targets.
type ContentFetcher interface {
	FetchContent(ctx context.Context, url string) (string, error)
}

// Sentinel errors for content fetching. Callers treat all of them as
// non-fatal and keep the feed-provided content.
var (
	// ErrInvalidURL indicates an invalid URL or unsupported scheme.
	ErrInvalidURL = errors.New("invalid URL or unsupported scheme")

	// ErrPrivateIP indicates the URL resolves to a private address.
	ErrPrivateIP = errors.New("private IP access denied")

	// ErrTooManyRedirects indicates the redirect chain exceeded the maximum.
	ErrTooManyRedirects = errors.New("too many redirects")

	// ErrBodyTooLarge indicates the response exceeded the size limit.
	ErrBodyTooLarge = errors.New("response body too large")

	// ErrTimeout indicates the request exceeded its timeout.
	ErrTimeout = errors.New("request timeout")

	// ErrReadabilityFailed indicates the extraction algorithm found no
	// readable article content.
	ErrReadabilityFailed = errors.New("content extraction failed")
)
