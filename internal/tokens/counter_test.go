package tokens

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestEstimatingCounter_Count(t *testing.T) {
	tests := []struct {
		name string
		text string
		want int
	}{
		{"empty", "", 0},
		{"four chars", "abcd", 1},
		{"eight chars", "abcdefgh", 2},
		{"rounds up", "abcdef", 2},
		{"rounds down", "abcde", 1},
		{"multibyte runes", "日本語です", 1},
	}

	c := NewEstimatingCounter()
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, c.Count(tt.text))
		})
	}
}

func TestEstimatingCounter_CustomRatio(t *testing.T) {
	c := NewEstimatingCounterWithRatio(2.0)
	assert.Equal(t, 4, c.Count("abcdefgh"))

	// Invalid ratios fall back to the default.
	c = NewEstimatingCounterWithRatio(-1)
	assert.Equal(t, DefaultCharsPerToken, c.CharsPerToken)
}

func TestWordCounter_Count(t *testing.T) {
	tests := []struct {
		name string
		text string
		want int
	}{
		{"empty", "", 0},
		{"single word", "hello", 1},
		{"ten words", "one two three four five six seven eight nine ten", 13},
		{"collapses whitespace", "  spaced\t\nout   words  ", 4},
	}

	c := NewWordCounter()
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, c.Count(tt.text))
		})
	}
}

func TestWordCounter_CustomRatio(t *testing.T) {
	c := NewWordCounterWithRatio(2.0)
	assert.Equal(t, 6, c.Count("one two three"))

	// Invalid ratios fall back to the default.
	c = NewWordCounterWithRatio(0)
	assert.Equal(t, DefaultTokensPerWord, c.TokensPerWord)
}

func TestWordCounter_FitsInLimit(t *testing.T) {
	c := NewWordCounter()
	text := strings.Repeat("word ", 10) // ~13 tokens

	assert.True(t, c.FitsInLimit(text, 13))
	assert.False(t, c.FitsInLimit(text, 12))
}

func TestEstimatingCounter_FitsInLimit(t *testing.T) {
	c := NewEstimatingCounter()
	text := strings.Repeat("a", 400) // ~100 tokens

	assert.True(t, c.FitsInLimit(text, 100))
	assert.False(t, c.FitsInLimit(text, 99))
}

func TestContextWindow(t *testing.T) {
	assert.Equal(t, 128000, ContextWindow("gpt-4o"))
	assert.Equal(t, ContextWindows["default"], ContextWindow("some-unknown-model"))
}
