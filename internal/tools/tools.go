// Package tools defines the assistant's built-in function-calling
// tools. Parameter schemas are reflected from Go argument structs so
// the wire schema can never drift from the executor's expectations.
package tools

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/bmatcuk/doublestar/v4"
	"github.com/invopop/jsonschema"

	"aissistant/internal/domain"
	"aissistant/internal/port"
	"aissistant/internal/truncate"
)

// maxToolResultTokens caps what a single tool result may inject into
// the conversation.
const maxToolResultTokens = 2000

// Searcher answers knowledge-base queries for the search_knowledge tool.
type Searcher interface {
	SearchText(ctx context.Context, query string, topK int) (string, error)
}

// Handler executes one tool call.
type Handler func(ctx context.Context, args json.RawMessage) (string, error)

// Registry holds the available tools and executes calls.
type Registry struct {
	workDir  string
	searcher Searcher
	tools    map[string]port.Tool
	handlers map[string]Handler
}

type readFileArgs struct {
	Path string `json:"path" jsonschema:"required,description=File path relative to the working directory"`
}

type listFilesArgs struct {
	Pattern string `json:"pattern,omitempty" jsonschema:"description=Optional doublestar glob such as **/*.go"`
}

type searchKnowledgeArgs struct {
	Query string `json:"query" jsonschema:"required,description=Natural-language query against ingested documents"`
	TopK  int    `json:"top_k,omitempty" jsonschema:"description=Number of snippets to return"`
}

// NewRegistry creates a registry rooted at workDir. searcher may be nil,
// in which case search_knowledge is not offered.
func NewRegistry(workDir string, searcher Searcher) *Registry {
	r := &Registry{
		workDir:  workDir,
		searcher: searcher,
		tools:    make(map[string]port.Tool),
		handlers: make(map[string]Handler),
	}

	r.add("read_file", "Read a text file from the working directory.",
		schemaFor(&readFileArgs{}), r.readFile)
	r.add("list_files", "List files in the working directory, optionally filtered by a glob pattern.",
		schemaFor(&listFilesArgs{}), r.listFiles)
	if searcher != nil {
		r.add("search_knowledge", "Search the user's ingested documents for relevant snippets.",
			schemaFor(&searchKnowledgeArgs{}), r.searchKnowledge)
	}
	return r
}

func (r *Registry) add(name, description string, params json.RawMessage, h Handler) {
	r.tools[name] = port.Tool{Name: name, Description: description, Parameters: params}
	r.handlers[name] = h
}

// Definitions returns all tool definitions, sorted by name.
func (r *Registry) Definitions() []port.Tool {
	defs := make([]port.Tool, 0, len(r.tools))
	for _, t := range r.tools {
		defs = append(defs, t)
	}
	sort.Slice(defs, func(i, j int) bool { return defs[i].Name < defs[j].Name })
	return defs
}

// Execute runs a tool call and returns its result text.
func (r *Registry) Execute(ctx context.Context, call domain.ToolCall) (string, error) {
	h, ok := r.handlers[call.Name]
	if !ok {
		return "", fmt.Errorf("unknown tool %q", call.Name)
	}
	out, err := h(ctx, call.Arguments)
	if err != nil {
		return "", err
	}
	out, _ = truncate.New(truncate.FromMiddle).Truncate(out, maxToolResultTokens)
	return out, nil
}

func (r *Registry) readFile(_ context.Context, raw json.RawMessage) (string, error) {
	var args readFileArgs
	if err := json.Unmarshal(raw, &args); err != nil {
		return "", fmt.Errorf("invalid read_file arguments: %w", err)
	}
	path, err := r.resolve(args.Path)
	if err != nil {
		return "", err
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return "", fmt.Errorf("read %s: %w", args.Path, err)
	}
	return string(data), nil
}

func (r *Registry) listFiles(_ context.Context, raw json.RawMessage) (string, error) {
	var args listFilesArgs
	if err := json.Unmarshal(raw, &args); err != nil {
		return "", fmt.Errorf("invalid list_files arguments: %w", err)
	}

	var paths []string
	err := filepath.Walk(r.workDir, func(path string, info os.FileInfo, err error) error {
		if err != nil {
			return err
		}
		rel, relErr := filepath.Rel(r.workDir, path)
		if relErr != nil {
			return relErr
		}
		if info.IsDir() {
			if strings.HasPrefix(filepath.Base(path), ".") && rel != "." {
				return filepath.SkipDir
			}
			return nil
		}
		if args.Pattern != "" {
			if matched, _ := doublestar.Match(args.Pattern, rel); !matched {
				return nil
			}
		}
		paths = append(paths, rel)
		return nil
	})
	if err != nil {
		return "", fmt.Errorf("list files: %w", err)
	}
	sort.Strings(paths)
	return strings.Join(paths, "\n"), nil
}

func (r *Registry) searchKnowledge(ctx context.Context, raw json.RawMessage) (string, error) {
	var args searchKnowledgeArgs
	if err := json.Unmarshal(raw, &args); err != nil {
		return "", fmt.Errorf("invalid search_knowledge arguments: %w", err)
	}
	if args.TopK <= 0 {
		args.TopK = 5
	}
	return r.searcher.SearchText(ctx, args.Query, args.TopK)
}

// resolve joins a relative path against the working directory and
// rejects escapes.
func (r *Registry) resolve(rel string) (string, error) {
	if filepath.IsAbs(rel) {
		return "", fmt.Errorf("absolute paths are not allowed: %s", rel)
	}
	path := filepath.Clean(filepath.Join(r.workDir, rel))
	root := filepath.Clean(r.workDir)
	if path != root && !strings.HasPrefix(path, root+string(filepath.Separator)) {
		return "", fmt.Errorf("path escapes working directory: %s", rel)
	}
	return path, nil
}

// schemaFor reflects an inline JSON schema from an argument struct.
func schemaFor(v any) json.RawMessage {
	reflector := jsonschema.Reflector{
		DoNotReference: true,
		ExpandedStruct: true,
	}
	schema := reflector.Reflect(v)
	schema.Version = "" // hosted APIs reject $schema in tool parameters
	data, err := json.Marshal(schema)
	if err != nil {
		panic(fmt.Sprintf("tools: reflect schema: %v", err))
	}
	return data
}
