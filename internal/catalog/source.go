package catalog

import (
	"context"
)

// Source produces a cleaned catalog.
type Source interface {
	Load(ctx context.Context) (*Catalog, error)
	Name() string
}

// FileSource reads the catalog from a local file.
type FileSource struct {
	Path string
}

func NewFileSource(path string) *FileSource {
	return &FileSource{Path: path}
}

func (s *FileSource) Name() string {
	return s.Path
}

// Load reads and cleans the file. Errors wrap ErrDataUnavailable.
func (s *FileSource) Load(ctx context.Context) (*Catalog, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	c, err := LoadFile(s.Path)
	if err != nil {
		return nil, err
	}
	return Clean(c), nil
}
