package usecase

import (
	"bytes"
	"context"
	"embed"
	"fmt"
	"sort"
	"strings"
	"text/template"

	"aissistant/internal/domain"
	"aissistant/internal/port"
	"aissistant/internal/tokens"
)

// RetrieveUseCase answers similarity queries over the knowledge store
// and packs the results under a token budget.
type RetrieveUseCase struct {
	knowledge port.KnowledgeStore
	index     port.VectorIndex
	embedder  port.Embedder
	counter   tokens.Counter
	minScore  float64
}

func NewRetrieveUseCase(knowledge port.KnowledgeStore, index port.VectorIndex, embedder port.Embedder, minScore float64) *RetrieveUseCase {
	return &RetrieveUseCase{
		knowledge: knowledge,
		index:     index,
		embedder:  embedder,
		counter:   tokens.NewEstimatingCounter(),
		minScore:  minScore,
	}
}

// Retrieve embeds the query and returns the top-k chunks above the
// minimum score, best first.
func (u *RetrieveUseCase) Retrieve(ctx context.Context, query string, topK int) ([]domain.ScoredChunk, error) {
	if topK <= 0 {
		topK = 5
	}

	vectors, err := u.embedder.Embed(ctx, []string{query})
	if err != nil {
		return nil, fmt.Errorf("failed to embed query: %w", err)
	}
	if len(vectors) != 1 {
		return nil, fmt.Errorf("expected 1 query vector, got %d", len(vectors))
	}

	results, err := u.index.Search(vectors[0], topK)
	if err != nil {
		return nil, fmt.Errorf("vector search failed: %w", err)
	}

	var scored []domain.ScoredChunk
	for _, r := range results {
		if r.Score < u.minScore {
			continue
		}
		chunk, err := u.knowledge.GetChunk(r.ID)
		if err != nil {
			continue // index can briefly outlive a deleted chunk
		}
		scored = append(scored, domain.ScoredChunk{Chunk: chunk, Score: r.Score})
	}
	return scored, nil
}

// Pack selects chunks into a context bundle that fits the token budget.
// Chunks are taken by utility, the relevance score per token spent.
func (u *RetrieveUseCase) Pack(query string, chunks []domain.ScoredChunk, budget int) (domain.ContextBundle, error) {
	bundle := domain.ContextBundle{
		Query:        query,
		BudgetTokens: budget,
		Snippets:     []domain.Snippet{},
	}
	if len(chunks) == 0 {
		return bundle, nil
	}

	type rankedChunk struct {
		chunk   domain.ScoredChunk
		utility float64
		tokens  int
	}

	ranked := make([]rankedChunk, 0, len(chunks))
	for _, c := range chunks {
		n := c.Chunk.Tokens
		if n <= 0 {
			n = u.counter.Count(c.Chunk.Text)
		}
		if n == 0 {
			n = 1
		}
		ranked = append(ranked, rankedChunk{
			chunk:   c,
			utility: c.Score / float64(n),
			tokens:  n,
		})
	}
	sort.Slice(ranked, func(i, j int) bool {
		return ranked[i].utility > ranked[j].utility
	})

	for _, rc := range ranked {
		if bundle.UsedTokens+rc.tokens > budget {
			continue
		}
		doc, err := u.knowledge.GetDocument(rc.chunk.Chunk.DocID)
		if err != nil {
			continue
		}
		bundle.Snippets = append(bundle.Snippets, domain.Snippet{
			Path:  doc.Path,
			Why:   fmt.Sprintf("similarity %.2f", rc.chunk.Score),
			Text:  rc.chunk.Chunk.Text,
			Score: rc.chunk.Score,
		})
		bundle.UsedTokens += rc.tokens
	}
	return bundle, nil
}

// Query retrieves and packs in one step.
func (u *RetrieveUseCase) Query(ctx context.Context, query string, topK, budget int) (domain.ContextBundle, error) {
	scored, err := u.Retrieve(ctx, query, topK)
	if err != nil {
		return domain.ContextBundle{}, err
	}
	return u.Pack(query, scored, budget)
}

// SearchText returns retrieval results formatted for a tool reply.
func (u *RetrieveUseCase) SearchText(ctx context.Context, query string, topK int) (string, error) {
	scored, err := u.Retrieve(ctx, query, topK)
	if err != nil {
		return "", err
	}
	if len(scored) == 0 {
		return "no matching documents found", nil
	}

	var sb strings.Builder
	for _, sc := range scored {
		doc, err := u.knowledge.GetDocument(sc.Chunk.DocID)
		if err != nil {
			continue
		}
		fmt.Fprintf(&sb, "[%s] (similarity %.2f)\n%s\n\n", doc.Path, sc.Score, sc.Chunk.Text)
	}
	return strings.TrimSpace(sb.String()), nil
}

//go:embed templates/*.txt
var promptTemplates embed.FS

var groundedTmpl = template.Must(template.ParseFS(promptTemplates, "templates/*.txt"))

// FormatContext renders a bundle as a prompt section with citations.
func FormatContext(bundle domain.ContextBundle) string {
	if len(bundle.Snippets) == 0 {
		return ""
	}
	var buf bytes.Buffer
	if err := groundedTmpl.ExecuteTemplate(&buf, "grounded.txt", bundle); err != nil {
		return ""
	}
	return strings.TrimSpace(buf.String())
}
