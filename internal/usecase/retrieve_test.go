package usecase

import (
	"context"
	"strings"
	"testing"
	"time"

	"aissistant/internal/adapter/store"
	"aissistant/internal/domain"
	"aissistant/internal/port"
)

// axisEmbedder maps known texts onto fixed unit vectors so similarity
// is fully controlled by the test.
type axisEmbedder struct {
	vectors map[string][]float32
	dim     int
}

func (e *axisEmbedder) Embed(_ context.Context, texts []string) ([][]float32, error) {
	out := make([][]float32, len(texts))
	for i, text := range texts {
		if v, ok := e.vectors[text]; ok {
			out[i] = v
			continue
		}
		v := make([]float32, e.dim)
		v[0] = 1
		out[i] = v
	}
	return out, nil
}

func (e *axisEmbedder) Dimension() int    { return e.dim }
func (e *axisEmbedder) ModelName() string { return "axis" }

func seedKnowledge(t *testing.T, s *store.BoltStore, idx port.VectorIndex, emb port.Embedder) {
	t.Helper()
	doc := domain.Document{ID: "d1", Path: "notes.md", ModTime: time.Now(), Kind: "markdown"}
	chunks := []domain.Chunk{
		{ID: "c1", DocID: "d1", Ordinal: 0, Tokens: 10, Text: "go is a compiled language"},
		{ID: "c2", DocID: "d1", Ordinal: 1, Tokens: 10, Text: "cats sleep most of the day"},
		{ID: "c3", DocID: "d1", Ordinal: 2, Tokens: 200, Text: "a very long chunk about go " + strings.Repeat("filler ", 100)},
	}
	if err := s.PutDocument(doc, chunks); err != nil {
		t.Fatal(err)
	}
	texts := make([]string, len(chunks))
	for i, c := range chunks {
		texts[i] = c.Text
	}
	vectors, err := emb.Embed(context.Background(), texts)
	if err != nil {
		t.Fatal(err)
	}
	items := make([]port.VectorItem, len(chunks))
	for i, c := range chunks {
		items[i] = port.VectorItem{ID: c.ID, Vector: vectors[i]}
	}
	if err := idx.Upsert(items); err != nil {
		t.Fatal(err)
	}
}

func newTestRetriever(t *testing.T, minScore float64) (*RetrieveUseCase, *axisEmbedder) {
	t.Helper()
	s := newTestStore(t)
	idx, err := store.NewBoltVectorIndex(s.DB(), 3)
	if err != nil {
		t.Fatal(err)
	}
	emb := &axisEmbedder{
		dim: 3,
		vectors: map[string][]float32{
			"go is a compiled language":  {1, 0, 0},
			"cats sleep most of the day": {0, 1, 0},
			"tell me about go":           {0.95, 0.05, 0},
			"quantum physics":            {0, 0, 1},
		},
	}
	emb.vectors["a very long chunk about go "+strings.Repeat("filler ", 100)] = []float32{0.9, 0.1, 0}
	seedKnowledge(t, s, idx, emb)
	return NewRetrieveUseCase(s, idx, emb, minScore), emb
}

func TestRetrieve_RankedByScore(t *testing.T) {
	u, _ := newTestRetriever(t, 0)

	scored, err := u.Retrieve(context.Background(), "tell me about go", 3)
	if err != nil {
		t.Fatalf("retrieve failed: %v", err)
	}
	if len(scored) != 3 {
		t.Fatalf("expected 3 results, got %d", len(scored))
	}
	if scored[0].Chunk.ID != "c1" {
		t.Errorf("best match = %s, want c1", scored[0].Chunk.ID)
	}
	for i := 1; i < len(scored); i++ {
		if scored[i].Score > scored[i-1].Score {
			t.Error("results not sorted by score")
		}
	}
}

func TestRetrieve_MinScoreFilters(t *testing.T) {
	u, _ := newTestRetriever(t, 0.5)

	scored, err := u.Retrieve(context.Background(), "tell me about go", 3)
	if err != nil {
		t.Fatalf("retrieve failed: %v", err)
	}
	for _, sc := range scored {
		if sc.Score < 0.5 {
			t.Errorf("chunk %s below min score: %f", sc.Chunk.ID, sc.Score)
		}
		if sc.Chunk.ID == "c2" {
			t.Error("unrelated chunk survived the filter")
		}
	}
}

func TestPack_RespectsBudget(t *testing.T) {
	u, _ := newTestRetriever(t, 0)

	scored, err := u.Retrieve(context.Background(), "tell me about go", 3)
	if err != nil {
		t.Fatal(err)
	}

	bundle, err := u.Pack("tell me about go", scored, 50)
	if err != nil {
		t.Fatalf("pack failed: %v", err)
	}
	if bundle.UsedTokens > 50 {
		t.Errorf("bundle exceeds budget: %d > 50", bundle.UsedTokens)
	}
	// the 200-token chunk cannot fit a 50-token budget
	for _, s := range bundle.Snippets {
		if strings.Contains(s.Text, "filler") {
			t.Error("oversized chunk packed despite budget")
		}
	}
	if len(bundle.Snippets) == 0 {
		t.Error("expected at least one snippet within budget")
	}
	for _, s := range bundle.Snippets {
		if s.Path != "notes.md" {
			t.Errorf("snippet missing citation path: %q", s.Path)
		}
	}
}

func TestPack_EmptyInput(t *testing.T) {
	u, _ := newTestRetriever(t, 0)
	bundle, err := u.Pack("anything", nil, 100)
	if err != nil {
		t.Fatal(err)
	}
	if len(bundle.Snippets) != 0 || bundle.UsedTokens != 0 {
		t.Errorf("expected empty bundle, got %+v", bundle)
	}
}

func TestSearchText(t *testing.T) {
	u, _ := newTestRetriever(t, 0)

	out, err := u.SearchText(context.Background(), "tell me about go", 2)
	if err != nil {
		t.Fatalf("search failed: %v", err)
	}
	if !strings.Contains(out, "notes.md") {
		t.Errorf("result lacks source path: %q", out)
	}
	if !strings.Contains(out, "go is a compiled language") {
		t.Errorf("result lacks chunk text: %q", out)
	}
}

func TestSearchText_NoMatches(t *testing.T) {
	u, _ := newTestRetriever(t, 0.5)

	// orthogonal to every stored chunk
	out, err := u.SearchText(context.Background(), "quantum physics", 2)
	if err != nil {
		t.Fatal(err)
	}
	if !strings.Contains(out, "no matching documents") {
		t.Errorf("unexpected output %q", out)
	}
}

func TestFormatContext(t *testing.T) {
	if FormatContext(domain.ContextBundle{}) != "" {
		t.Error("empty bundle should format to empty string")
	}

	out := FormatContext(domain.ContextBundle{
		Snippets: []domain.Snippet{{Path: "a.md", Text: "hello"}},
	})
	if !strings.Contains(out, "a.md") || !strings.Contains(out, "hello") {
		t.Errorf("unexpected format %q", out)
	}
}
