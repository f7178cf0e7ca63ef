package wordlist

import (
	"context"
	"fmt"
	"os"
)

// FileSource reads the word list from a local file on every Load.
type FileSource struct {
	path string
}

// NewFileSource creates a file source.
func NewFileSource(path string) *FileSource {
	return &FileSource{path: path}
}

// Name returns "file".
func (s *FileSource) Name() string {
	return "file"
}

// Load reads and splits the file.
func (s *FileSource) Load(ctx context.Context) ([]string, error) {
	if s.path == "" {
		return nil, ErrNotConfigured
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	data, err := os.ReadFile(s.path)
	if err != nil {
		return nil, fmt.Errorf("read word list: %w", err)
	}

	return splitLines(string(data)), nil
}
