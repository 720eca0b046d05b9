// Package fs walks directory trees for ingest, filtering by glob
// patterns and skipping binary files.
package fs

import (
	"bytes"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/bmatcuk/doublestar/v4"

	"aissistant/internal/port"
)

type Walker struct {
	includes     []string
	excludes     []string
	maxFileBytes int64
}

func NewWalker(includes, excludes []string, maxFileBytes int64) *Walker {
	if len(includes) == 0 {
		includes = []string{"**/*"}
	}
	if maxFileBytes <= 0 {
		maxFileBytes = 1 << 20
	}
	return &Walker{
		includes:     includes,
		excludes:     excludes,
		maxFileBytes: maxFileBytes,
	}
}

func (w *Walker) Walk(root string) ([]port.FileInfo, error) {
	var files []port.FileInfo

	root, err := filepath.Abs(root)
	if err != nil {
		return nil, err
	}

	err = filepath.Walk(root, func(path string, info os.FileInfo, err error) error {
		if err != nil {
			return err
		}

		relPath, err := filepath.Rel(root, path)
		if err != nil {
			return err
		}

		if info.IsDir() {
			if w.shouldExclude(relPath + "/") {
				return filepath.SkipDir
			}
			return nil
		}

		if info.Size() > w.maxFileBytes {
			return nil
		}

		if w.shouldInclude(relPath) && !w.shouldExclude(relPath) {
			files = append(files, port.FileInfo{
				Path:    path,
				ModTime: info.ModTime().Unix(),
				Size:    info.Size(),
			})
		}

		return nil
	})

	return files, err
}

func (w *Walker) shouldInclude(path string) bool {
	for _, pattern := range w.includes {
		matched, err := doublestar.Match(pattern, path)
		if err == nil && matched {
			return true
		}
	}
	return false
}

func (w *Walker) shouldExclude(path string) bool {
	for _, pattern := range w.excludes {
		matched, err := doublestar.Match(pattern, path)
		if err == nil && matched {
			return true
		}
	}
	return false
}

// ReadTextFile reads a file and rejects binary content.
func ReadTextFile(path string) (string, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return "", err
	}
	if isBinary(data) {
		return "", fmt.Errorf("binary file: %s", path)
	}
	return string(data), nil
}

// isBinary sniffs the first KB for NUL bytes.
func isBinary(data []byte) bool {
	n := len(data)
	if n > 1024 {
		n = 1024
	}
	return bytes.IndexByte(data[:n], 0) >= 0
}

// Kind guesses a document kind from the file extension.
func Kind(path string) string {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".md", ".markdown":
		return "markdown"
	case ".go":
		return "go"
	case ".py":
		return "python"
	case ".txt", ".text":
		return "text"
	case ".csv", ".tsv":
		return "tabular"
	case ".json", ".yaml", ".yml", ".toml":
		return "config"
	default:
		return "text"
	}
}

var _ port.Walker = (*Walker)(nil)
