package truncate

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"aissistant/internal/tokens"
)

func TestTruncate_FitsUnchanged(t *testing.T) {
	tr := New(FromEnd)
	out, trimmed := tr.Truncate("short text", 100)

	assert.False(t, trimmed)
	assert.Equal(t, "short text", out)
}

func TestTruncate_FromEnd(t *testing.T) {
	tr := New(FromEnd)
	text := strings.Repeat("a", 4000) // ~1000 tokens

	out, trimmed := tr.Truncate(text, 100)

	require.True(t, trimmed)
	assert.True(t, strings.HasSuffix(out, EndMarker))
	assert.True(t, strings.HasPrefix(out, "aaaa"))
	counter := tokens.NewEstimatingCounter()
	assert.LessOrEqual(t, counter.Count(out), 100)
}

func TestTruncate_FromStart(t *testing.T) {
	tr := New(FromStart)
	text := strings.Repeat("x", 2000) + "recent tail"

	out, trimmed := tr.Truncate(text, 50)

	require.True(t, trimmed)
	assert.True(t, strings.HasPrefix(out, StartMarker))
	assert.True(t, strings.HasSuffix(out, "recent tail"))
}

func TestTruncate_FromMiddle(t *testing.T) {
	tr := New(FromMiddle)
	text := "HEADER " + strings.Repeat("m", 4000) + " FOOTER"

	out, trimmed := tr.Truncate(text, 100)

	require.True(t, trimmed)
	assert.True(t, strings.HasPrefix(out, "HEADER"))
	assert.True(t, strings.HasSuffix(out, "FOOTER"))
	assert.Contains(t, out, MiddleMarker)
}

func TestTruncate_TinyLimit(t *testing.T) {
	tr := New(FromEnd)
	out, trimmed := tr.Truncate(strings.Repeat("a", 100), 0)

	assert.True(t, trimmed)
	assert.Equal(t, EndMarker, out)
}

func TestTailAndHead(t *testing.T) {
	text := "old old old " + strings.Repeat("z", 1000) + " new new new"

	assert.True(t, strings.HasSuffix(Tail(text, 30), "new new new"))
	assert.True(t, strings.HasPrefix(Head(text, 30), "old old old"))
}
