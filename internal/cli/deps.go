package cli

import (
	"fmt"

	"aissistant/config"
	"aissistant/internal/adapter/embedding"
	"aissistant/internal/adapter/provider"
	"aissistant/internal/adapter/store"
	"aissistant/internal/model"
	"aissistant/internal/persona"
	"aissistant/internal/port"
	"aissistant/internal/tools"
	"aissistant/internal/usecase"
)

// openStore opens (creating if needed) the assistant database under the
// data directory.
func openStore() (*store.BoltStore, error) {
	if err := config.EnsureDataDir(dataDir); err != nil {
		return nil, fmt.Errorf("failed to create data directory: %w", err)
	}
	st, err := store.NewBoltStore(config.StoreDBPath(dataDir))
	if err != nil {
		return nil, fmt.Errorf("failed to open assistant store: %w", err)
	}
	return st, nil
}

func newEmbedder(ec config.EmbeddingConfig) (port.Embedder, error) {
	var (
		e   *embedding.OpenAIEmbedder
		err error
	)
	switch ec.Provider {
	case "openai":
		e, err = embedding.NewOpenAIEmbedder(ec.APIKeyEnv, ec.Model)
	case "deepseek":
		e, err = embedding.NewDeepSeekEmbedder(ec.APIKeyEnv, ec.Model)
	case "jina":
		e, err = embedding.NewJinaEmbedder(ec.APIKeyEnv, ec.Model)
	case "ollama":
		e, err = embedding.NewOllamaEmbedder(ec.Model, ec.BaseURL)
	case "mock":
		return embedding.NewMockEmbedder(ec.Dimension), nil
	default:
		return nil, fmt.Errorf("unsupported embedding provider: %s", ec.Provider)
	}
	if err != nil {
		return nil, err
	}
	return e.WithBaseURL(ec.BaseURL).WithBatchSize(ec.BatchSize), nil
}

// newVectorIndex opens the vector index sized for the embedder.
func newVectorIndex(st *store.BoltStore, embedder port.Embedder) (port.VectorIndex, error) {
	idx, err := store.NewBoltVectorIndex(st.DB(), embedder.Dimension())
	if err != nil {
		return nil, fmt.Errorf("failed to open vector index: %w", err)
	}
	return idx, nil
}

// newRetriever wires the knowledge store, vector index and embedder.
// Returns nil without error when embeddings are disabled.
func newRetriever(st *store.BoltStore) (*usecase.RetrieveUseCase, error) {
	ec := cfg.Ingest.Embedding
	if !ec.Enabled {
		return nil, nil
	}
	embedder, err := newEmbedder(ec)
	if err != nil {
		return nil, err
	}
	idx, err := newVectorIndex(st, embedder)
	if err != nil {
		return nil, err
	}
	return usecase.NewRetrieveUseCase(st, idx, embedder, cfg.Chat.MinScore), nil
}

// buildChat assembles the full orchestrator: provider, retriever,
// tools and cost tracking.
func buildChat(st *store.BoltStore) (*usecase.ChatUseCase, error) {
	prov, err := provider.New(cfg.Provider.Name, cfg.Provider)
	if err != nil {
		return nil, err
	}

	chat := usecase.NewChatUseCase(cfg, prov, st, st, model.NewCostTracker())

	var searcher tools.Searcher
	if cfg.Chat.UseKnowledge {
		retriever, err := newRetriever(st)
		if err != nil {
			return nil, err
		}
		if retriever != nil {
			chat = chat.WithRetriever(retriever)
			searcher = retriever
		}
	}
	chat = chat.WithTools(tools.NewRegistry(dataDir, searcher))

	return chat, nil
}

func loadPersona() (persona.Persona, error) {
	lib, err := persona.LoadLibrary(config.PersonasPath(dataDir))
	if err != nil {
		return persona.Persona{}, fmt.Errorf("failed to load personas: %w", err)
	}
	return lib.Get(cfg.Chat.Persona)
}
