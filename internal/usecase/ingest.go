package usecase

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/fsnotify/fsnotify"

	"aissistant/internal/adapter/fs"
	"aissistant/internal/domain"
	"aissistant/internal/port"
)

// IngestUseCase walks a directory, chunks changed files and stores
// chunks with their embeddings.
type IngestUseCase struct {
	knowledge port.KnowledgeStore
	index     port.VectorIndex
	walker    port.Walker
	chunker   port.Chunker
	embedder  port.Embedder

	// Progress is called after each file is processed. Optional.
	Progress func(path string)
}

func NewIngestUseCase(knowledge port.KnowledgeStore, index port.VectorIndex, walker port.Walker, chunker port.Chunker, embedder port.Embedder) *IngestUseCase {
	return &IngestUseCase{
		knowledge: knowledge,
		index:     index,
		walker:    walker,
		chunker:   chunker,
		embedder:  embedder,
	}
}

// IngestResult summarizes one ingest run.
type IngestResult struct {
	FilesIngested int
	FilesSkipped  int
	FilesDeleted  int
	ChunksCreated int
	Errors        []string
}

// Ingest processes all files under root. Files whose modtime has not
// advanced since the last run are skipped, and documents whose files
// vanished are removed.
func (u *IngestUseCase) Ingest(ctx context.Context, root string) (*IngestResult, error) {
	result := &IngestResult{}

	files, err := u.walker.Walk(root)
	if err != nil {
		return nil, fmt.Errorf("failed to walk directory: %w", err)
	}

	existingDocs, err := u.knowledge.ListDocuments()
	if err != nil {
		return nil, fmt.Errorf("failed to list existing docs: %w", err)
	}
	existingByPath := make(map[string]domain.Document)
	for _, doc := range existingDocs {
		existingByPath[doc.Path] = doc
	}

	seen := make(map[string]bool)
	for _, file := range files {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		seen[file.Path] = true

		if existing, ok := existingByPath[file.Path]; ok && existing.ModTime.Unix() >= file.ModTime {
			result.FilesSkipped++
			if u.Progress != nil {
				u.Progress(file.Path)
			}
			continue
		}

		n, err := u.ingestFile(ctx, file)
		if err != nil {
			result.Errors = append(result.Errors, fmt.Sprintf("%s: %v", file.Path, err))
		} else {
			result.FilesIngested++
			result.ChunksCreated += n
		}
		if u.Progress != nil {
			u.Progress(file.Path)
		}
	}

	for path, doc := range existingByPath {
		if seen[path] {
			continue
		}
		if err := u.removeDocument(doc.ID); err != nil {
			result.Errors = append(result.Errors, fmt.Sprintf("delete %s: %v", path, err))
		} else {
			result.FilesDeleted++
		}
	}

	return result, nil
}

// FileCount returns how many files a run over root would visit.
func (u *IngestUseCase) FileCount(root string) (int, error) {
	files, err := u.walker.Walk(root)
	if err != nil {
		return 0, err
	}
	return len(files), nil
}

func (u *IngestUseCase) ingestFile(ctx context.Context, file port.FileInfo) (int, error) {
	content, err := fs.ReadTextFile(file.Path)
	if err != nil {
		return 0, err
	}

	doc := domain.Document{
		ID:      docID(file.Path),
		Path:    file.Path,
		ModTime: time.Unix(file.ModTime, 0),
		Kind:    fs.Kind(file.Path),
	}

	chunks, err := u.chunker.Chunk(doc, content)
	if err != nil {
		return 0, fmt.Errorf("failed to chunk: %w", err)
	}

	// drop stale vectors before storing the new chunk set
	if old, err := u.knowledge.GetChunksByDoc(doc.ID); err == nil && len(old) > 0 {
		ids := make([]string, len(old))
		for i, c := range old {
			ids[i] = c.ID
		}
		if u.index != nil {
			if err := u.index.Delete(ids); err != nil {
				return 0, fmt.Errorf("failed to drop stale vectors: %w", err)
			}
		}
	}

	if err := u.knowledge.PutDocument(doc, chunks); err != nil {
		return 0, fmt.Errorf("failed to store document: %w", err)
	}

	if u.index != nil && u.embedder != nil && len(chunks) > 0 {
		texts := make([]string, len(chunks))
		for i, c := range chunks {
			texts[i] = c.Text
		}
		vectors, err := u.embedder.Embed(ctx, texts)
		if err != nil {
			return 0, fmt.Errorf("failed to embed chunks: %w", err)
		}
		items := make([]port.VectorItem, len(chunks))
		for i, c := range chunks {
			items[i] = port.VectorItem{ID: c.ID, Vector: vectors[i]}
		}
		if err := u.index.Upsert(items); err != nil {
			return 0, fmt.Errorf("failed to index vectors: %w", err)
		}
	}

	return len(chunks), nil
}

func (u *IngestUseCase) removeDocument(id string) error {
	if u.index != nil {
		chunks, err := u.knowledge.GetChunksByDoc(id)
		if err == nil && len(chunks) > 0 {
			ids := make([]string, len(chunks))
			for i, c := range chunks {
				ids[i] = c.ID
			}
			if err := u.index.Delete(ids); err != nil {
				return err
			}
		}
	}
	return u.knowledge.DeleteDocument(id)
}

// Watch re-ingests root whenever files under it change. Bursts of
// events are coalesced with a short debounce. Blocks until ctx is done.
func (u *IngestUseCase) Watch(ctx context.Context, root string, onRun func(*IngestResult, error)) error {
	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("failed to create watcher: %w", err)
	}
	defer watcher.Close()

	err = filepath.Walk(root, func(path string, info os.FileInfo, err error) error {
		if err != nil {
			return err
		}
		if info.IsDir() {
			return watcher.Add(path)
		}
		return nil
	})
	if err != nil {
		return fmt.Errorf("failed to watch %s: %w", root, err)
	}

	const debounce = 500 * time.Millisecond
	var timer *time.Timer
	var timerC <-chan time.Time

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case ev, ok := <-watcher.Events:
			if !ok {
				return nil
			}
			if ev.Op&(fsnotify.Create|fsnotify.Write|fsnotify.Remove|fsnotify.Rename) == 0 {
				continue
			}
			if ev.Op&fsnotify.Create != 0 {
				if info, err := os.Stat(ev.Name); err == nil && info.IsDir() {
					watcher.Add(ev.Name)
				}
			}
			if timer == nil {
				timer = time.NewTimer(debounce)
				timerC = timer.C
			} else {
				timer.Reset(debounce)
			}
		case err, ok := <-watcher.Errors:
			if !ok {
				return nil
			}
			if onRun != nil {
				onRun(nil, err)
			}
		case <-timerC:
			timer = nil
			timerC = nil
			result, err := u.Ingest(ctx, root)
			if onRun != nil {
				onRun(result, err)
			}
		}
	}
}

func docID(path string) string {
	hash := sha256.Sum256([]byte(path))
	return hex.EncodeToString(hash[:8])
}
