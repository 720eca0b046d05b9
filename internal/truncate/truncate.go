// Package truncate trims text to fit token limits before it is placed
// into a prompt. Oversized user input is trimmed from the end, stale
// history from the start, and large file attachments from the middle so
// both the header and the trailing content survive.
package truncate

import (
	"strings"

	"aissistant/internal/tokens"
)

// Strategy selects which part of the text is removed.
type Strategy int

const (
	FromEnd Strategy = iota
	FromMiddle
	FromStart
)

// Markers inserted where content was removed.
const (
	EndMarker    = "..."
	MiddleMarker = "\n...[content trimmed]...\n"
	StartMarker  = "..."
)

// Truncator trims text to fit within token limits.
type Truncator struct {
	counter  tokens.Counter
	strategy Strategy
	marker   string
}

// New creates a truncator with the given strategy and its default marker.
func New(strategy Strategy) *Truncator {
	marker := EndMarker
	switch strategy {
	case FromMiddle:
		marker = MiddleMarker
	case FromStart:
		marker = StartMarker
	}
	return &Truncator{
		counter:  tokens.NewEstimatingCounter(),
		strategy: strategy,
		marker:   marker,
	}
}

// WithCounter sets a custom token counter.
func (t *Truncator) WithCounter(counter tokens.Counter) *Truncator {
	t.counter = counter
	return t
}

// Truncate reduces text to fit maxTokens. The second return value
// reports whether any trimming happened.
func (t *Truncator) Truncate(text string, maxTokens int) (string, bool) {
	if t.counter.FitsInLimit(text, maxTokens) {
		return text, false
	}

	switch t.strategy {
	case FromMiddle:
		return t.truncateMiddle(text, maxTokens), true
	case FromStart:
		return t.truncateStart(text, maxTokens), true
	default:
		return t.truncateEnd(text, maxTokens), true
	}
}

func (t *Truncator) truncateEnd(text string, maxTokens int) string {
	target := maxTokens - t.counter.Count(t.marker)
	if target <= 0 {
		return t.marker
	}

	runes := []rune(text)
	keep := t.prefixForTokens(runes, target)
	if keep == 0 {
		return t.marker
	}
	return string(runes[:keep]) + t.marker
}

func (t *Truncator) truncateStart(text string, maxTokens int) string {
	target := maxTokens - t.counter.Count(t.marker)
	if target <= 0 {
		return t.marker
	}

	runes := []rune(text)
	low, high := 0, len(runes)
	for low < high {
		mid := (low + high) / 2
		if t.counter.FitsInLimit(string(runes[mid:]), target) {
			high = mid
		} else {
			low = mid + 1
		}
	}
	if low >= len(runes) {
		return t.marker
	}
	return t.marker + string(runes[low:])
}

func (t *Truncator) truncateMiddle(text string, maxTokens int) string {
	target := maxTokens - t.counter.Count(t.marker)
	if target <= 0 {
		return t.marker
	}

	runes := []rune(text)
	half := target / 2
	head := t.prefixForTokens(runes, half)
	tailStart := len(runes) - head
	if tailStart < head {
		tailStart = head
	}

	var sb strings.Builder
	sb.WriteString(string(runes[:head]))
	sb.WriteString(t.marker)
	if tailStart < len(runes) {
		sb.WriteString(string(runes[tailStart:]))
	}
	return sb.String()
}

// prefixForTokens binary-searches the longest rune prefix that fits
// within maxTokens.
func (t *Truncator) prefixForTokens(runes []rune, maxTokens int) int {
	low, high := 0, len(runes)
	for low < high {
		mid := (low + high + 1) / 2
		if t.counter.FitsInLimit(string(runes[:mid]), maxTokens) {
			low = mid
		} else {
			high = mid - 1
		}
	}
	return low
}

// Tail is a convenience helper keeping the most recent content.
func Tail(text string, maxTokens int) string {
	out, _ := New(FromStart).Truncate(text, maxTokens)
	return out
}

// Head is a convenience helper keeping the leading content.
func Head(text string, maxTokens int) string {
	out, _ := New(FromEnd).Truncate(text, maxTokens)
	return out
}
