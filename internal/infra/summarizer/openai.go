package summarizer

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"strconv"
	"time"
	"unicode/utf8"

	openai "github.com/sashabaranov/go-openai"
	"github.com/sony/gobreaker"

	"feedpress/internal/resilience/circuitbreaker"
	"feedpress/internal/resilience/retry"
	"feedpress/internal/usecase/summary"
)

// OpenAIConfig holds configuration for the OpenAI provider.
type OpenAIConfig struct {
	CharacterLimit int
	Language       string
	Model          string
	MaxTokens      int
	Timeout        time.Duration
}

// Validate checks the configuration.
func (c *OpenAIConfig) Validate() error {
	if err := ValidateCharacterLimit(c.CharacterLimit); err != nil {
		return fmt.Errorf("invalid character limit: %w", err)
	}
	if c.Language == "" {
		return fmt.Errorf("language cannot be empty")
	}
	if c.Model == "" {
		return fmt.Errorf("model cannot be empty")
	}
	if c.MaxTokens <= 0 {
		return fmt.Errorf("max tokens must be positive, got %d", c.MaxTokens)
	}
	if c.Timeout <= 0 {
		return fmt.Errorf("timeout must be positive, got %v", c.Timeout)
	}
	return nil
}

// LoadOpenAIConfig loads configuration from the environment. Unlike the
// Claude loader this fails closed: an invalid value is an error, not a
// silent fallback.
func LoadOpenAIConfig() (*OpenAIConfig, error) {
	charLimit := defaultCharLimit
	if envLimit := os.Getenv("SUMMARIZER_CHAR_LIMIT"); envLimit != "" {
		parsed, err := strconv.Atoi(envLimit)
		if err != nil {
			return nil, fmt.Errorf("invalid SUMMARIZER_CHAR_LIMIT format: %s: %w", envLimit, err)
		}
		if err := ValidateCharacterLimit(parsed); err != nil {
			return nil, fmt.Errorf("SUMMARIZER_CHAR_LIMIT out of valid range: %w", err)
		}
		charLimit = parsed
	}

	config := &OpenAIConfig{
		CharacterLimit: charLimit,
		Language:       languageFromEnv(),
		Model:          openai.GPT4oMini,
		MaxTokens:      1024,
		Timeout:        60 * time.Second,
	}
	if err := config.Validate(); err != nil {
		return nil, fmt.Errorf("invalid OpenAI configuration: %w", err)
	}
	return config, nil
}

// OpenAI implements summary.Provider using OpenAI's chat completion API.
type OpenAI struct {
	client          *openai.Client
	circuitBreaker  *circuitbreaker.CircuitBreaker
	retryConfig     retry.Config
	config          *OpenAIConfig
	metricsRecorder SummaryMetricsRecorder
}

// NewOpenAI creates an OpenAI provider with the given API key.
func NewOpenAI(apiKey string, config *OpenAIConfig) *OpenAI {
	slog.Info("initialized openai summarizer",
		slog.Int("character_limit", config.CharacterLimit),
		slog.String("language", config.Language),
		slog.String("model", config.Model))

	return &OpenAI{
		client:          openai.NewClient(apiKey),
		circuitBreaker:  circuitbreaker.New(circuitbreaker.OpenAIAPIConfig()),
		retryConfig:     retry.AIAPIConfig(),
		config:          config,
		metricsRecorder: NewPrometheusSummaryMetrics(),
	}
}

// Model implements summary.Provider.
func (o *OpenAI) Model() string { return o.config.Model }

// PromptTemplate implements summary.Provider.
func (o *OpenAI) PromptTemplate() string {
	return fmt.Sprintf(promptFormat, o.config.Language, o.config.CharacterLimit, "")
}

// Summarize generates a summary through retry and circuit breaker logic.
func (o *OpenAI) Summarize(ctx context.Context, text string) (*summary.ProviderResult, error) {
	ctx, cancel := context.WithTimeout(ctx, o.config.Timeout)
	defer cancel()

	var result *summary.ProviderResult
	retryErr := retry.WithBackoff(ctx, o.retryConfig, func() error {
		cbResult, err := o.circuitBreaker.Execute(func() (interface{}, error) {
			return o.doSummarize(ctx, text)
		})
		if err != nil {
			if errors.Is(err, gobreaker.ErrOpenState) {
				slog.Warn("openai api circuit breaker open, request rejected",
					slog.String("service", "openai-api"),
					slog.String("state", o.circuitBreaker.State().String()))
				return fmt.Errorf("openai api unavailable: circuit breaker open")
			}
			return err
		}

		result = cbResult.(*summary.ProviderResult)
		return nil
	})
	if retryErr != nil {
		return nil, fmt.Errorf("openai summarize failed after retries: %w", retryErr)
	}

	return result, nil
}

func (o *OpenAI) buildPrompt(text string) string {
	return fmt.Sprintf(promptFormat, o.config.Language, o.config.CharacterLimit, text)
}

// doSummarize performs one API call without retry or circuit breaker.
func (o *OpenAI) doSummarize(ctx context.Context, inputText string) (*summary.ProviderResult, error) {
	truncated := truncateInput(inputText)
	if len(truncated) != len(inputText) {
		slog.Warn("text truncated for openai api",
			slog.Int("original_length", len(inputText)),
			slog.Int("truncated_length", len(truncated)))
	}

	prompt := o.buildPrompt(truncated)

	slog.InfoContext(ctx, "starting summarization",
		slog.Int("input_length", utf8.RuneCountInString(truncated)),
		slog.Int("character_limit", o.config.CharacterLimit))

	start := time.Now()
	resp, err := o.client.CreateChatCompletion(ctx, openai.ChatCompletionRequest{
		Model:     o.config.Model,
		MaxTokens: o.config.MaxTokens,
		Messages: []openai.ChatCompletionMessage{{
			Role:    openai.ChatMessageRoleSystem,
			Content: prompt,
		}},
	})
	duration := time.Since(start)

	if err != nil {
		slog.ErrorContext(ctx, "summarization failed",
			slog.Duration("duration", duration),
			slog.String("error", err.Error()))
		return nil, fmt.Errorf("openai api error: %w", err)
	}

	if len(resp.Choices) == 0 {
		return nil, fmt.Errorf("openai api returned empty response")
	}

	summaryText := resp.Choices[0].Message.Content
	summaryLength := utf8.RuneCountInString(summaryText)
	withinLimit := summaryLength <= o.config.CharacterLimit

	slog.InfoContext(ctx, "summarization completed",
		slog.Int("summary_length", summaryLength),
		slog.Bool("within_limit", withinLimit),
		slog.Duration("duration", duration))

	o.metricsRecorder.RecordLength(summaryLength)
	o.metricsRecorder.RecordDuration(duration)
	o.metricsRecorder.RecordCompliance(withinLimit)
	if !withinLimit {
		o.metricsRecorder.RecordLimitExceeded()
	}

	tokens := int64(resp.Usage.CompletionTokens)
	return &summary.ProviderResult{Text: summaryText, Tokens: &tokens}, nil
}
