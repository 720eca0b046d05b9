package port

// FileInfo describes a file discovered during a walk.
type FileInfo struct {
	Path    string
	ModTime int64
	Size    int64
}

// Walker discovers ingestable files under a root directory.
type Walker interface {
	Walk(root string) ([]FileInfo, error)
}
