package entity

import (
	"fmt"
	"net/url"
)

// maxURLLength caps URL length to keep malformed subscriptions out of the DB.
const maxURLLength = 2048

// ValidateURL validates the format of a feed or site URL.
// It checks that the URL is well-formed, uses an HTTP or HTTPS scheme, and
// names a host. Network-level safety checks (private address blocking) are
// the fetcher's job and are applied at request time.
func ValidateURL(rawURL string) error {
	if rawURL == "" {
		return &ValidationError{Field: "url", Message: "URL is required"}
	}

	if len(rawURL) > maxURLLength {
		return &ValidationError{
			Field:   "url",
			Message: fmt.Sprintf("url must not exceed %d characters", maxURLLength),
		}
	}

	parsedURL, err := url.Parse(rawURL)
	if err != nil {
		return fmt.Errorf("parse URL: %w", err)
	}

	if parsedURL.Scheme != "http" && parsedURL.Scheme != "https" {
		return &ValidationError{Field: "url", Message: "URL must use http or https scheme"}
	}

	if parsedURL.Host == "" {
		return &ValidationError{Field: "url", Message: "URL must have a valid host"}
	}

	return nil
}
