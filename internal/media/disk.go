package media

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"os"
	"path/filepath"
	"time"

	"github.com/google/uuid"
)

// maxAssetBytes caps downloads so a bad URL cannot fill the disk.
const maxAssetBytes = 64 << 20

var extByMime = map[string]string{
	"image/png":     ".png",
	"image/jpeg":    ".jpg",
	"image/gif":     ".gif",
	"image/webp":    ".webp",
	"image/svg+xml": ".svg",
	"video/mp4":     ".mp4",
	"video/webm":    ".webm",
}

// DiskStore keeps media assets as files under a single attachments
// directory, named by generated id.
type DiskStore struct {
	dir    string
	client *http.Client
}

// NewDiskStore creates the attachments directory if needed.
func NewDiskStore(dir string) (*DiskStore, error) {
	abs, err := filepath.Abs(dir)
	if err != nil {
		return nil, fmt.Errorf("media: resolve dir: %w", err)
	}
	if err := os.MkdirAll(abs, 0o755); err != nil {
		return nil, fmt.Errorf("media: create dir: %w", err)
	}
	return &DiskStore{
		dir:    abs,
		client: &http.Client{Timeout: 30 * time.Second},
	}, nil
}

var _ Store = (*DiskStore)(nil)

// ResolvePath maps a stored asset id to its absolute path.
func (s *DiskStore) ResolvePath(mediaID string) (string, error) {
	cleaned := filepath.Base(filepath.Clean(mediaID))
	if cleaned == "." || cleaned == ".." || cleaned == string(os.PathSeparator) {
		return "", fmt.Errorf("media: invalid id: %s", mediaID)
	}
	p := filepath.Join(s.dir, cleaned)
	if _, err := os.Stat(p); err != nil {
		return "", fmt.Errorf("media: resolve %s: %w", mediaID, err)
	}
	return p, nil
}

// Persist writes data to a new asset file, atomically.
func (s *DiskStore) Persist(data []byte, mimeType string) (Asset, error) {
	id := uuid.NewString() + extByMime[mimeType]
	dest := filepath.Join(s.dir, id)

	tmp, err := os.CreateTemp(s.dir, ".ansuz-media-*")
	if err != nil {
		return Asset{}, fmt.Errorf("media: create temp: %w", err)
	}
	tmpName := tmp.Name()

	success := false
	defer func() {
		if !success {
			_ = tmp.Close()
			_ = os.Remove(tmpName)
		}
	}()

	if _, err := tmp.Write(data); err != nil {
		return Asset{}, fmt.Errorf("media: write: %w", err)
	}
	if err := tmp.Sync(); err != nil {
		return Asset{}, fmt.Errorf("media: fsync: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return Asset{}, fmt.Errorf("media: close temp: %w", err)
	}
	if err := os.Rename(tmpName, dest); err != nil {
		return Asset{}, fmt.Errorf("media: rename: %w", err)
	}
	success = true
	return Asset{ID: id, Path: dest}, nil
}

// FetchRemote downloads url and persists the bytes locally.
func (s *DiskStore) FetchRemote(ctx context.Context, url string) (Asset, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return Asset{}, fmt.Errorf("media: build request: %w", err)
	}
	resp, err := s.client.Do(req)
	if err != nil {
		return Asset{}, fmt.Errorf("media: fetch %s: %w", url, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return Asset{}, fmt.Errorf("media: fetch %s: status %d", url, resp.StatusCode)
	}

	data, err := io.ReadAll(io.LimitReader(resp.Body, maxAssetBytes))
	if err != nil {
		return Asset{}, fmt.Errorf("media: read body: %w", err)
	}

	mime := resp.Header.Get("Content-Type")
	if mime == "" {
		mime = http.DetectContentType(data)
	}
	return s.Persist(data, mime)
}
