package summarizer

import (
	"context"

	"feedpress/internal/usecase/summary"
)

// NoOp returns the original text without calling any AI provider.
// Useful for development and for deployments without API keys.
type NoOp struct{}

// NewNoOp creates a new NoOp provider.
func NewNoOp() *NoOp {
	return &NoOp{}
}

// Summarize returns the text truncated to the first 500 bytes.
func (n *NoOp) Summarize(_ context.Context, text string) (*summary.ProviderResult, error) {
	const maxLength = 500
	if len(text) > maxLength {
		text = text[:maxLength] + "..."
	}
	return &summary.ProviderResult{Text: text}, nil
}

// Model implements summary.Provider.
func (n *NoOp) Model() string { return "noop" }

// PromptTemplate implements summary.Provider.
func (n *NoOp) PromptTemplate() string { return "identity" }
