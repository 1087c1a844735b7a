// Package summarizer provides AI summary providers for Claude and OpenAI,
// wrapped with retry and circuit breaker logic.
package summarizer

import (
	"fmt"
	"log/slog"
	"os"
	"strconv"
)

const (
	// minCharLimit and maxCharLimit bound the summary character limit.
	minCharLimit = 100
	maxCharLimit = 5000

	defaultCharLimit = 900
	defaultLanguage  = "english"

	// promptFormat is the shared prompt template; the final %s is the text.
	promptFormat = "Summarize the following text in %s in at most %d characters:\n%s"

	// maxInputChars caps input sent to the providers.
	maxInputChars = 10000
)

// ValidateCharacterLimit checks the summary character limit range.
func ValidateCharacterLimit(limit int) error {
	if limit < minCharLimit {
		return fmt.Errorf("character limit %d is below minimum %d", limit, minCharLimit)
	}
	if limit > maxCharLimit {
		return fmt.Errorf("character limit %d exceeds maximum %d", limit, maxCharLimit)
	}
	return nil
}

// charLimitFromEnv reads SUMMARIZER_CHAR_LIMIT, falling back to the
// default on a missing, malformed or out-of-range value.
func charLimitFromEnv() int {
	envLimit := os.Getenv("SUMMARIZER_CHAR_LIMIT")
	if envLimit == "" {
		return defaultCharLimit
	}

	parsed, err := strconv.Atoi(envLimit)
	if err != nil {
		slog.Warn("invalid SUMMARIZER_CHAR_LIMIT format, using default",
			slog.String("value", envLimit),
			slog.Int("default", defaultCharLimit),
			slog.String("error", err.Error()))
		return defaultCharLimit
	}
	if err := ValidateCharacterLimit(parsed); err != nil {
		slog.Warn("SUMMARIZER_CHAR_LIMIT out of valid range, using default",
			slog.Int("value", parsed),
			slog.Int("default", defaultCharLimit))
		return defaultCharLimit
	}
	return parsed
}

// languageFromEnv reads SUMMARIZER_LANGUAGE with a default.
func languageFromEnv() string {
	if lang := os.Getenv("SUMMARIZER_LANGUAGE"); lang != "" {
		return lang
	}
	return defaultLanguage
}

// truncateInput caps text at maxInputChars, appending a marker when it cuts.
func truncateInput(text string) string {
	if len(text) <= maxInputChars {
		return text
	}
	return text[:maxInputChars] + "...\n(truncated)"
}
