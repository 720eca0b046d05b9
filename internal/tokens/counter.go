// Package tokens provides token estimation and budget accounting for
// prompts sent to hosted models. Counts are estimates; the authoritative
// numbers come back in the provider's usage report.
package tokens

import (
	"strings"
	"unicode/utf8"
)

// DefaultCharsPerToken is the default character-to-token ratio.
// Roughly 4 characters per token holds for English prose.
const DefaultCharsPerToken = 4.0

// DefaultTokensPerWord is the default word-to-token ratio. English
// words average about 1.3 tokens under subword tokenization.
const DefaultTokensPerWord = 1.3

// Counter estimates token counts for text.
type Counter interface {
	// Count estimates the number of tokens in the given text.
	Count(text string) int

	// FitsInLimit reports whether the text fits within the token limit.
	FitsInLimit(text string, limit int) bool
}

// EstimatingCounter estimates tokens from a character-to-token ratio.
type EstimatingCounter struct {
	CharsPerToken float64
}

// NewEstimatingCounter creates a counter with the default ratio.
func NewEstimatingCounter() *EstimatingCounter {
	return &EstimatingCounter{CharsPerToken: DefaultCharsPerToken}
}

// NewEstimatingCounterWithRatio creates a counter with a custom ratio.
// Non-positive ratios fall back to the default.
func NewEstimatingCounterWithRatio(charsPerToken float64) *EstimatingCounter {
	if charsPerToken <= 0 {
		charsPerToken = DefaultCharsPerToken
	}
	return &EstimatingCounter{CharsPerToken: charsPerToken}
}

// Count estimates the number of tokens in the given text.
// Runes are counted rather than bytes so multi-byte text is not inflated.
func (c *EstimatingCounter) Count(text string) int {
	runeCount := utf8.RuneCountInString(text)
	return int(float64(runeCount)/c.CharsPerToken + 0.5)
}

// FitsInLimit reports whether the text fits within the token limit.
func (c *EstimatingCounter) FitsInLimit(text string, limit int) bool {
	return c.Count(text) <= limit
}

// WordCounter estimates tokens from whitespace-separated words. It
// tracks prose better than the character ratio on text with long words
// or heavy punctuation.
type WordCounter struct {
	TokensPerWord float64
}

// NewWordCounter creates a counter with the default ratio.
func NewWordCounter() *WordCounter {
	return &WordCounter{TokensPerWord: DefaultTokensPerWord}
}

// NewWordCounterWithRatio creates a counter with a custom ratio.
// Non-positive ratios fall back to the default.
func NewWordCounterWithRatio(tokensPerWord float64) *WordCounter {
	if tokensPerWord <= 0 {
		tokensPerWord = DefaultTokensPerWord
	}
	return &WordCounter{TokensPerWord: tokensPerWord}
}

// Count estimates the number of tokens in the given text.
func (c *WordCounter) Count(text string) int {
	words := len(strings.Fields(text))
	return int(float64(words)*c.TokensPerWord + 0.5)
}

// FitsInLimit reports whether the text fits within the token limit.
func (c *WordCounter) FitsInLimit(text string, limit int) bool {
	return c.Count(text) <= limit
}

// Estimate is a convenience wrapper using the default counter.
func Estimate(text string) int {
	return NewEstimatingCounter().Count(text)
}

// ContextWindows holds context window sizes for known hosted models.
var ContextWindows = map[string]int{
	"gpt-4o":        128000,
	"gpt-4o-mini":   128000,
	"gpt-4-turbo":   128000,
	"gpt-4":         8192,
	"gpt-3.5-turbo": 16385,

	"deepseek-chat":     64000,
	"deepseek-reasoner": 64000,

	"llama-3.1-70b-versatile": 128000,
	"llama-3.1-8b-instant":    128000,

	"default": 16000,
}

// ContextWindow returns the context window for a model, or the default
// when the model is unknown.
func ContextWindow(model string) int {
	if limit, ok := ContextWindows[model]; ok {
		return limit
	}
	return ContextWindows["default"]
}
