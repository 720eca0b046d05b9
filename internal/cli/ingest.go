package cli

import (
	"context"
	"fmt"
	"os"
	"path/filepath"

	"github.com/schollz/progressbar/v3"
	"github.com/spf13/cobra"

	"aissistant/internal/adapter/chunker"
	"aissistant/internal/adapter/fs"
	"aissistant/internal/logging"
	"aissistant/internal/port"
	"aissistant/internal/usecase"
)

var ingestWatch bool

var ingestCmd = &cobra.Command{
	Use:   "ingest [path]",
	Short: "Ingest documents into the knowledge store",
	Long: `Walk the given directory (default: data directory), split text
files into token-bounded chunks and store them with embeddings for
retrieval. Unchanged files are skipped; removed files are dropped.

Examples:
  aissistant ingest ./docs
  aissistant ingest ./docs --watch   # re-ingest on file changes`,
	Args: cobra.MaximumNArgs(1),
	RunE: runIngest,
}

func init() {
	rootCmd.AddCommand(ingestCmd)
	ingestCmd.Flags().BoolVarP(&ingestWatch, "watch", "w", false, "watch for changes and re-ingest")
}

func runIngest(cmd *cobra.Command, args []string) error {
	path := dataDir
	if len(args) > 0 {
		var err error
		path, err = filepath.Abs(args[0])
		if err != nil {
			return fmt.Errorf("invalid path: %w", err)
		}
	}
	info, err := os.Stat(path)
	if err != nil {
		return fmt.Errorf("path does not exist: %w", err)
	}
	if !info.IsDir() {
		return fmt.Errorf("path is not a directory: %s", path)
	}

	st, err := openStore()
	if err != nil {
		return err
	}
	defer st.Close()

	var embedder port.Embedder
	var index port.VectorIndex
	if cfg.Ingest.Embedding.Enabled {
		embedder, err = newEmbedder(cfg.Ingest.Embedding)
		if err != nil {
			return err
		}
		index, err = newVectorIndex(st, embedder)
		if err != nil {
			return err
		}
	}

	walker := fs.NewWalker(cfg.Ingest.Includes, cfg.Ingest.Excludes, cfg.Ingest.MaxFileBytes)
	chk := chunker.NewSentenceChunker(cfg.Ingest.ChunkTokens, cfg.Ingest.MinSentenceLen,
		cfg.Ingest.SimilarityGrouping, cfg.Ingest.SimilarityThreshold)
	ingest := usecase.NewIngestUseCase(st, index, walker, chk, embedder)

	if ingestWatch {
		if _, err := runIngestOnce(cmd.Context(), ingest, path); err != nil {
			return err
		}
		logging.Infof("watching %s for changes", path)
		return ingest.Watch(cmd.Context(), path, func(result *usecase.IngestResult, err error) {
			if err != nil {
				logging.Errorf("re-ingest failed: %v", err)
				return
			}
			logging.Infof("re-ingested: %d files, %d chunks, %d removed",
				result.FilesIngested, result.ChunksCreated, result.FilesDeleted)
		})
	}

	result, err := runIngestOnce(cmd.Context(), ingest, path)
	if err != nil {
		return err
	}

	fmt.Printf("\nIngest complete:\n")
	fmt.Printf("  Files ingested: %d\n", result.FilesIngested)
	fmt.Printf("  Files skipped:  %d (unchanged)\n", result.FilesSkipped)
	fmt.Printf("  Files removed:  %d\n", result.FilesDeleted)
	fmt.Printf("  Chunks created: %d\n", result.ChunksCreated)
	if len(result.Errors) > 0 {
		fmt.Printf("\nWarnings:\n")
		for _, e := range result.Errors {
			fmt.Printf("  - %s\n", e)
		}
	}
	return nil
}

func runIngestOnce(ctx context.Context, ingest *usecase.IngestUseCase, path string) (*usecase.IngestResult, error) {
	total, err := ingest.FileCount(path)
	if err != nil {
		return nil, fmt.Errorf("failed to scan %s: %w", path, err)
	}

	bar := progressbar.NewOptions(total,
		progressbar.OptionEnableColorCodes(true),
		progressbar.OptionShowBytes(false),
		progressbar.OptionSetWidth(40),
		progressbar.OptionShowCount(),
		progressbar.OptionSetDescription("[cyan]Ingesting[reset]"),
		progressbar.OptionOnCompletion(func() {
			fmt.Println()
		}),
	)
	ingest.Progress = func(string) {
		bar.Add(1)
	}
	defer func() { ingest.Progress = nil }()

	result, err := ingest.Ingest(ctx, path)
	if err != nil {
		return nil, fmt.Errorf("ingest failed: %w", err)
	}
	return result, nil
}
