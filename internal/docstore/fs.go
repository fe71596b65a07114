package docstore

import (
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"github.com/starford/ansuz/internal/checksum"
)

const docExt = ".json"

// FS implements Provider backed by the local file system.
type FS struct {
	root string // absolute path to the documents directory
}

// NewFS creates a new FS provider rooted at the given directory.
// The directory must already exist.
func NewFS(root string) (*FS, error) {
	abs, err := filepath.Abs(root)
	if err != nil {
		return nil, fmt.Errorf("docstore: resolve root: %w", err)
	}
	info, err := os.Stat(abs)
	if err != nil {
		return nil, fmt.Errorf("docstore: stat root: %w", err)
	}
	if !info.IsDir() {
		return nil, fmt.Errorf("docstore: root is not a directory: %s", abs)
	}
	return &FS{root: abs}, nil
}

// safePath resolves a document id against the root and rejects any
// result that escapes it (directory traversal).
func (f *FS) safePath(id string) (string, error) {
	if id == "" {
		return f.root, nil
	}
	cleaned := filepath.Clean(id)
	if filepath.IsAbs(cleaned) {
		return "", fmt.Errorf("docstore: absolute ids not allowed: %s", id)
	}
	joined := filepath.Join(f.root, cleaned)
	abs, err := filepath.Abs(joined)
	if err != nil {
		return "", fmt.Errorf("docstore: resolve id: %w", err)
	}
	if !strings.HasPrefix(abs, f.root+string(os.PathSeparator)) && abs != f.root {
		return "", fmt.Errorf("docstore: id escapes document root: %s", id)
	}
	return abs, nil
}

func (f *FS) docPath(id string) (string, error) {
	if id == "" {
		return "", fmt.Errorf("docstore: empty document id")
	}
	return f.safePath(id + docExt)
}

// IDFromPath converts an absolute .json path under the root back to a
// document id. The second return is false for paths outside the root or
// non-document files.
func (f *FS) IDFromPath(abs string) (string, bool) {
	rel, err := filepath.Rel(f.root, abs)
	if err != nil || strings.HasPrefix(rel, "..") {
		return "", false
	}
	if !strings.HasSuffix(rel, docExt) {
		return "", false
	}
	return filepath.ToSlash(strings.TrimSuffix(rel, docExt)), true
}

// Root returns the absolute document root directory.
func (f *FS) Root() string { return f.root }

// List walks dir (relative to root) and returns metadata for every
// document file found.
func (f *FS) List(dir string) ([]DocMetadata, error) {
	base, err := f.safePath(dir)
	if err != nil {
		return nil, err
	}
	var out []DocMetadata
	err = filepath.WalkDir(base, func(p string, d fs.DirEntry, walkErr error) error {
		if walkErr != nil {
			return walkErr
		}
		if d.IsDir() || !strings.HasSuffix(d.Name(), docExt) {
			return nil
		}
		info, err := d.Info()
		if err != nil {
			return err
		}
		data, err := os.ReadFile(p)
		if err != nil {
			return err
		}
		id, ok := f.IDFromPath(p)
		if !ok {
			return nil
		}
		out = append(out, DocMetadata{
			ID:        id,
			Checksum:  checksum.Sum(data),
			UpdatedAt: info.ModTime(),
		})
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("docstore: list: %w", err)
	}
	return out, nil
}

// Read returns the raw bytes of a document.
func (f *FS) Read(id string) ([]byte, error) {
	abs, err := f.docPath(id)
	if err != nil {
		return nil, err
	}
	data, err := os.ReadFile(abs)
	if err != nil {
		return nil, fmt.Errorf("docstore: read %s: %w", id, err)
	}
	return data, nil
}

// Write atomically writes content: tmp file, fsync, rename.
func (f *FS) Write(id string, content []byte) error {
	abs, err := f.docPath(id)
	if err != nil {
		return err
	}
	dir := filepath.Dir(abs)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("docstore: mkdir: %w", err)
	}

	tmp, err := os.CreateTemp(dir, ".ansuz-tmp-*")
	if err != nil {
		return fmt.Errorf("docstore: create temp: %w", err)
	}
	tmpName := tmp.Name()

	success := false
	defer func() {
		if !success {
			_ = tmp.Close()
			_ = os.Remove(tmpName)
		}
	}()

	if _, err := tmp.Write(content); err != nil {
		return fmt.Errorf("docstore: write temp: %w", err)
	}
	if err := tmp.Sync(); err != nil {
		return fmt.Errorf("docstore: fsync: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("docstore: close temp: %w", err)
	}
	if err := os.Rename(tmpName, abs); err != nil {
		return fmt.Errorf("docstore: rename: %w", err)
	}
	success = true
	return nil
}

// Delete removes a document file.
func (f *FS) Delete(id string) error {
	abs, err := f.docPath(id)
	if err != nil {
		return err
	}
	if err := os.Remove(abs); err != nil {
		return fmt.Errorf("docstore: delete %s: %w", id, err)
	}
	return nil
}

// Move renames a document within the root.
func (f *FS) Move(oldID, newID string) error {
	absOld, err := f.docPath(oldID)
	if err != nil {
		return err
	}
	absNew, err := f.docPath(newID)
	if err != nil {
		return err
	}
	if err := os.MkdirAll(filepath.Dir(absNew), 0o755); err != nil {
		return fmt.Errorf("docstore: mkdir for move: %w", err)
	}
	if err := os.Rename(absOld, absNew); err != nil {
		return fmt.Errorf("docstore: move: %w", err)
	}
	return nil
}
