package summarizer

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"
	"unicode/utf8"

	"github.com/anthropics/anthropic-sdk-go"
	"github.com/anthropics/anthropic-sdk-go/option"
	"github.com/google/uuid"
	"github.com/sony/gobreaker"

	"feedpress/internal/resilience/circuitbreaker"
	"feedpress/internal/resilience/retry"
	"feedpress/internal/usecase/summary"
)

// ClaudeConfig holds configuration for the Claude provider.
type ClaudeConfig struct {
	// CharacterLimit is the maximum summary length in characters.
	// Loaded from SUMMARIZER_CHAR_LIMIT (range 100-5000, default 900).
	CharacterLimit int

	// Language is the target summary language, from SUMMARIZER_LANGUAGE.
	Language string

	// Model is the Claude model identifier.
	Model string

	// MaxTokens caps the API response.
	MaxTokens int

	// Timeout bounds one API call.
	Timeout time.Duration
}

// LoadClaudeConfig loads configuration from the environment, falling
// back to defaults on invalid values.
func LoadClaudeConfig() ClaudeConfig {
	return ClaudeConfig{
		CharacterLimit: charLimitFromEnv(),
		Language:       languageFromEnv(),
		Model:          string(anthropic.ModelClaudeSonnet4_5_20250929),
		MaxTokens:      1024,
		Timeout:        60 * time.Second,
	}
}

// Claude implements summary.Provider using Anthropic's Claude API.
type Claude struct {
	client          anthropic.Client
	circuitBreaker  *circuitbreaker.CircuitBreaker
	retryConfig     retry.Config
	config          ClaudeConfig
	metricsRecorder SummaryMetricsRecorder
}

// NewClaude creates a Claude provider with the given API key.
func NewClaude(apiKey string) *Claude {
	config := LoadClaudeConfig()

	slog.Info("initialized claude summarizer",
		slog.Int("character_limit", config.CharacterLimit),
		slog.String("language", config.Language),
		slog.String("model", config.Model))

	return &Claude{
		client:          anthropic.NewClient(option.WithAPIKey(apiKey)),
		circuitBreaker:  circuitbreaker.New(circuitbreaker.ClaudeAPIConfig()),
		retryConfig:     retry.AIAPIConfig(),
		config:          config,
		metricsRecorder: NewPrometheusSummaryMetrics(),
	}
}

// Model implements summary.Provider.
func (c *Claude) Model() string { return c.config.Model }

// PromptTemplate implements summary.Provider. It identifies the prompt
// for cache keying, so any prompt change invalidates stored summaries.
func (c *Claude) PromptTemplate() string {
	return fmt.Sprintf(promptFormat, c.config.Language, c.config.CharacterLimit, "")
}

// Summarize generates a summary through retry and circuit breaker logic.
func (c *Claude) Summarize(ctx context.Context, text string) (*summary.ProviderResult, error) {
	ctx, cancel := context.WithTimeout(ctx, c.config.Timeout)
	defer cancel()

	var result *summary.ProviderResult
	retryErr := retry.WithBackoff(ctx, c.retryConfig, func() error {
		cbResult, err := c.circuitBreaker.Execute(func() (interface{}, error) {
			return c.doSummarize(ctx, text)
		})
		if err != nil {
			if errors.Is(err, gobreaker.ErrOpenState) {
				slog.Warn("claude api circuit breaker open, request rejected",
					slog.String("service", "claude-api"),
					slog.String("state", c.circuitBreaker.State().String()))
				return fmt.Errorf("claude api unavailable: circuit breaker open")
			}
			return err
		}

		result = cbResult.(*summary.ProviderResult)
		return nil
	})
	if retryErr != nil {
		return nil, fmt.Errorf("claude summarize failed after retries: %w", retryErr)
	}

	return result, nil
}

func (c *Claude) buildPrompt(text string) string {
	return fmt.Sprintf(promptFormat, c.config.Language, c.config.CharacterLimit, text)
}

// doSummarize performs one API call without retry or circuit breaker.
func (c *Claude) doSummarize(ctx context.Context, inputText string) (*summary.ProviderResult, error) {
	requestID := uuid.New().String()

	truncated := truncateInput(inputText)
	if len(truncated) != len(inputText) {
		slog.Warn("text truncated for claude api",
			slog.String("request_id", requestID),
			slog.Int("original_length", len(inputText)),
			slog.Int("truncated_length", len(truncated)))
	}

	prompt := c.buildPrompt(truncated)

	slog.InfoContext(ctx, "starting summarization",
		slog.String("request_id", requestID),
		slog.Int("input_length", utf8.RuneCountInString(truncated)),
		slog.Int("character_limit", c.config.CharacterLimit))

	start := time.Now()
	message, err := c.client.Messages.New(ctx, anthropic.MessageNewParams{
		Model:     anthropic.Model(c.config.Model),
		MaxTokens: int64(c.config.MaxTokens),
		Messages: []anthropic.MessageParam{
			anthropic.NewUserMessage(
				anthropic.NewTextBlock(prompt),
			),
		},
	})
	duration := time.Since(start)

	if err != nil {
		slog.ErrorContext(ctx, "summarization failed",
			slog.String("request_id", requestID),
			slog.Duration("duration", duration),
			slog.String("error", err.Error()))
		return nil, fmt.Errorf("claude api error: %w", err)
	}

	if len(message.Content) == 0 {
		return nil, fmt.Errorf("claude api returned empty response")
	}
	textBlock, ok := message.Content[0].AsAny().(anthropic.TextBlock)
	if !ok {
		return nil, fmt.Errorf("claude api returned unexpected response type")
	}

	summaryText := textBlock.Text
	summaryLength := utf8.RuneCountInString(summaryText)
	withinLimit := summaryLength <= c.config.CharacterLimit

	slog.InfoContext(ctx, "summarization completed",
		slog.String("request_id", requestID),
		slog.Int("summary_length", summaryLength),
		slog.Bool("within_limit", withinLimit),
		slog.Duration("duration", duration))

	c.metricsRecorder.RecordLength(summaryLength)
	c.metricsRecorder.RecordDuration(duration)
	c.metricsRecorder.RecordCompliance(withinLimit)
	if !withinLimit {
		c.metricsRecorder.RecordLimitExceeded()
	}

	tokens := message.Usage.OutputTokens
	return &summary.ProviderResult{Text: summaryText, Tokens: &tokens}, nil
}
