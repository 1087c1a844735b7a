package summary

import (
	"crypto/sha256"
	"encoding/hex"
	"strings"
)

// ContentHash derives the cache key for a summary. It covers the
// normalized input text plus the model and prompt template, so changing
// either produces a fresh entry instead of serving a stale summary.
func ContentHash(text, model, prompt string) string {
	h := sha256.New()
	h.Write([]byte(normalizeText(text)))
	h.Write([]byte{0})
	h.Write([]byte(model))
	h.Write([]byte{0})
	h.Write([]byte(prompt))
	return hex.EncodeToString(h.Sum(nil))
}

// normalizeText collapses all whitespace runs to single spaces and trims
// the ends, so formatting-only differences hash identically.
func normalizeText(text string) string {
	return strings.Join(strings.Fields(text), " ")
}
