package chunker

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"strings"
	"unicode"

	"aissistant/internal/domain"
	"aissistant/internal/tokens"
)

// SentenceChunker splits prose into sentences and packs consecutive
// sentences into chunks bounded by a token limit. Optionally, adjacent
// chunks that remain lexically similar are merged so a topic is not
// scattered across retrieval units.
type SentenceChunker struct {
	maxTokens      int
	minSentenceLen int
	grouping       bool
	threshold      float64
	counter        tokens.Counter
}

// NewSentenceChunker creates a chunker. maxTokens bounds each chunk,
// minSentenceLen filters out stray fragments, and threshold (0..1)
// controls similarity grouping when grouping is enabled.
func NewSentenceChunker(maxTokens, minSentenceLen int, grouping bool, threshold float64) *SentenceChunker {
	if maxTokens <= 0 {
		maxTokens = 120
	}
	return &SentenceChunker{
		maxTokens:      maxTokens,
		minSentenceLen: minSentenceLen,
		grouping:       grouping,
		threshold:      threshold,
		counter:        tokens.NewEstimatingCounter(),
	}
}

// Chunk splits content into token-bounded chunks.
// Sentences that alone exceed the token limit are skipped; sentence
// order is otherwise preserved and no sentence is duplicated.
func (c *SentenceChunker) Chunk(doc domain.Document, content string) ([]domain.Chunk, error) {
	sentences := SplitSentences(content, c.minSentenceLen)
	if len(sentences) == 0 {
		return nil, nil
	}

	packed := c.pack(sentences)
	if c.grouping {
		packed = c.groupBySimilarity(packed)
	}

	chunks := make([]domain.Chunk, 0, len(packed))
	for i, p := range packed {
		chunks = append(chunks, domain.Chunk{
			ID:      chunkID(doc.ID, i),
			DocID:   doc.ID,
			Ordinal: i,
			Tokens:  p.tokens,
			Text:    p.text,
		})
	}
	return chunks, nil
}

type packedChunk struct {
	text   string
	tokens int
	words  map[string]struct{}
}

// pack greedily groups consecutive sentences while the running token
// count stays within the limit.
func (c *SentenceChunker) pack(sentences []string) []packedChunk {
	var out []packedChunk
	var current []string
	currentTokens := 0

	flush := func() {
		if len(current) == 0 {
			return
		}
		text := strings.Join(current, " ")
		out = append(out, packedChunk{
			text:   text,
			tokens: currentTokens,
			words:  wordSet(text),
		})
		current = nil
		currentTokens = 0
	}

	for _, sentence := range sentences {
		n := c.counter.Count(sentence + " ")
		if n > c.maxTokens {
			// A single runaway sentence cannot be placed anywhere.
			continue
		}
		if currentTokens+n > c.maxTokens {
			flush()
		}
		current = append(current, sentence)
		currentTokens += n
	}
	flush()

	return out
}

// groupBySimilarity merges adjacent chunks whose word overlap stays at
// or above the threshold, without letting a merged chunk exceed the
// token limit.
func (c *SentenceChunker) groupBySimilarity(chunks []packedChunk) []packedChunk {
	if len(chunks) <= 1 {
		return chunks
	}

	out := make([]packedChunk, 0, len(chunks))
	current := chunks[0]

	for _, next := range chunks[1:] {
		if current.tokens+next.tokens <= c.maxTokens &&
			jaccard(current.words, next.words) >= c.threshold {
			current.text = current.text + " " + next.text
			current.tokens += next.tokens
			for w := range next.words {
				current.words[w] = struct{}{}
			}
			continue
		}
		out = append(out, current)
		current = next
	}
	out = append(out, current)

	return out
}

// SplitSentences splits text into sentences at terminator punctuation
// and paragraph breaks. Fragments shorter than minLen are folded into
// the preceding sentence.
func SplitSentences(text string, minLen int) []string {
	var raw []string
	var current strings.Builder

	flushAt := func(i int, runes []rune) bool {
		r := runes[i]
		if r == '\n' && i+1 < len(runes) && runes[i+1] == '\n' {
			return true
		}
		if r != '.' && r != '!' && r != '?' {
			return false
		}
		// Terminator must be followed by whitespace or end of text.
		return i+1 >= len(runes) || unicode.IsSpace(runes[i+1])
	}

	runes := []rune(text)
	for i := 0; i < len(runes); i++ {
		current.WriteRune(runes[i])
		if flushAt(i, runes) {
			if s := strings.TrimSpace(current.String()); s != "" {
				raw = append(raw, s)
			}
			current.Reset()
		}
	}
	if s := strings.TrimSpace(current.String()); s != "" {
		raw = append(raw, s)
	}

	// Fold stray fragments into their predecessor.
	var sentences []string
	for _, s := range raw {
		if len(s) < minLen && len(sentences) > 0 {
			sentences[len(sentences)-1] = sentences[len(sentences)-1] + " " + s
			continue
		}
		sentences = append(sentences, s)
	}
	return sentences
}

func chunkID(docID string, ordinal int) string {
	data := fmt.Sprintf("%s:%d", docID, ordinal)
	hash := sha256.Sum256([]byte(data))
	return hex.EncodeToString(hash[:8])
}
