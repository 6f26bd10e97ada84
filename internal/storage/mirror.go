package storage

import (
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	json "github.com/goccy/go-json"
)

// ErrNotMirrored is returned by Get when nothing was saved for the URL.
var ErrNotMirrored = errors.New("no mirrored copy")

// Download is a downloaded catalog file with its origin.
type Download struct {
	URL         string    `json:"url"`
	StatusCode  int       `json:"status_code"`
	ContentType string    `json:"content_type,omitempty"`
	FetchedAt   time.Time `json:"fetched_at"`
	Body        []byte    `json:"body"`
}

// Mirror keeps the last good download of each remote catalog so the service
// can start when the origin is unreachable.
type Mirror interface {
	Save(d *Download) error
	Get(url string) (*Download, error)
	Close() error
}

// FileStorage implements Mirror using the local file system
type FileStorage struct {
	baseDir string
	mu      sync.RWMutex
}

// NewFileStorage creates a new file-based mirror
func NewFileStorage(baseDir string) (*FileStorage, error) {
	if err := os.MkdirAll(baseDir, 0755); err != nil {
		return nil, fmt.Errorf("failed to create storage directory: %w", err)
	}
	return &FileStorage{
		baseDir: baseDir,
	}, nil
}

// Save writes the download to a JSON file. The write goes through a
// temporary file so a crash never leaves a truncated mirror behind.
func (fs *FileStorage) Save(d *Download) error {
	fs.mu.Lock()
	defer fs.mu.Unlock()

	data, err := json.MarshalIndent(d, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal download: %w", err)
	}

	path := fs.path(d.URL)
	tmp := path + ".tmp"
	if err := os.WriteFile(tmp, data, 0644); err != nil {
		return fmt.Errorf("failed to write file: %w", err)
	}
	if err := os.Rename(tmp, path); err != nil {
		return fmt.Errorf("failed to replace mirror: %w", err)
	}
	return nil
}

// Get retrieves the mirrored download for url
func (fs *FileStorage) Get(url string) (*Download, error) {
	fs.mu.RLock()
	defer fs.mu.RUnlock()

	data, err := os.ReadFile(fs.path(url))
	if errors.Is(err, os.ErrNotExist) {
		return nil, fmt.Errorf("%w: %s", ErrNotMirrored, url)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to read file: %w", err)
	}

	var d Download
	if err := json.Unmarshal(data, &d); err != nil {
		return nil, fmt.Errorf("failed to unmarshal download: %w", err)
	}
	return &d, nil
}

// Close is a no-op for file storage
func (fs *FileStorage) Close() error {
	return nil
}

func (fs *FileStorage) path(url string) string {
	return filepath.Join(fs.baseDir, safeFilename(url))
}

// safeFilename keeps a readable prefix of the URL and appends a short hash
// so distinct URLs never collide after sanitising.
func safeFilename(rawURL string) string {
	var sb strings.Builder
	for _, r := range rawURL {
		if (r >= 'a' && r <= 'z') || (r >= 'A' && r <= 'Z') || (r >= '0' && r <= '9') {
			sb.WriteRune(r)
		} else {
			sb.WriteByte('_')
		}
	}
	safe := sb.String()
	if len(safe) > 80 {
		safe = safe[:80]
	}
	sum := sha256.Sum256([]byte(rawURL))
	return safe + "-" + hex.EncodeToString(sum[:4]) + ".json"
}
