// Package docservice coordinates the document store, the block tree, and
// the search index.
package docservice

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"sync"
	"time"

	"github.com/starford/ansuz/internal/apperr"
	"github.com/starford/ansuz/internal/block"
	"github.com/starford/ansuz/internal/checksum"
	"github.com/starford/ansuz/internal/doc"
	"github.com/starford/ansuz/internal/docstore"
	"github.com/starford/ansuz/internal/index"
	"github.com/starford/ansuz/internal/markdown"
	"github.com/starford/ansuz/internal/media"
	"github.com/starford/ansuz/internal/migrate"
)

// DocDetail is the full representation of a document. Content is the
// block-tree JSON document itself.
type DocDetail struct {
	ID        string          `json:"id"`
	Title     string          `json:"title"`
	Content   json.RawMessage `json:"content"`
	Checksum  string          `json:"checksum"`
	UpdatedAt time.Time       `json:"updated_at"`
}

// DocListItem is a lightweight item in a list response.
type DocListItem struct {
	ID        string    `json:"id"`
	Title     string    `json:"title"`
	Checksum  string    `json:"checksum"`
	UpdatedAt time.Time `json:"updated_at"`
}

// Service coordinates storage, tree, and index operations. Documents that
// are being edited stay open as in-memory stores so that successive
// commands run against the same transactional tree.
type Service struct {
	store docstore.Provider
	db    *index.DB
	media *media.Manager

	mu   sync.Mutex
	open map[string]*doc.Store
}

// NewService creates a new document service. media may be nil when async
// resolution is not wanted (tests, import tools).
func NewService(store docstore.Provider, db *index.DB, mediaMgr *media.Manager) *Service {
	return &Service{
		store: store,
		db:    db,
		media: mediaMgr,
		open:  make(map[string]*doc.Store),
	}
}

// Load opens the document with the given id as a transactional store.
// On-disk content is normalized first: legacy shapes are migrated and an
// empty document becomes the default title-plus-paragraph tree. Repeated
// loads return the same open store.
func (s *Service) Load(ctx context.Context, id string) (*doc.Store, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if st, ok := s.open[id]; ok {
		return st, nil
	}

	data, err := s.store.Read(id)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, apperr.ErrNotFound
		}
		return nil, err
	}

	root, err := block.Decode(data)
	if err != nil {
		return nil, fmt.Errorf("docservice: decode %s: %w", id, err)
	}
	root = migrate.Run(root)
	if root == nil {
		root = block.NewDefaultDocument()
	}

	st, err := doc.NewStore(root)
	if err != nil {
		return nil, fmt.Errorf("docservice: open %s: %w", id, err)
	}
	s.open[id] = st

	s.resolvePending(ctx, st)
	return st, nil
}

// resolvePending schedules async resolution for every loading media node.
func (s *Service) resolvePending(ctx context.Context, st *doc.Store) {
	if s.media == nil {
		return
	}
	var keys []string
	st.Read(func(root *block.Node) {
		block.Walk(root, func(n *block.Node) bool {
			if n.Type == block.TypeMedia && n.LoadState == block.LoadLoading {
				keys = append(keys, n.Key)
			}
			return true
		})
	})
	for _, k := range keys {
		s.media.Resolve(ctx, st, k)
	}
}

// Save encodes the open store for id and persists it, updating the index.
func (s *Service) Save(ctx context.Context, id string) (*DocDetail, error) {
	s.mu.Lock()
	st, ok := s.open[id]
	s.mu.Unlock()
	if !ok {
		return nil, apperr.ErrNotFound
	}
	return s.persist(id, st.Snapshot())
}

// persist writes a tree to storage and the index.
func (s *Service) persist(id string, root *block.Node) (*DocDetail, error) {
	data, err := block.Encode(root)
	if err != nil {
		return nil, fmt.Errorf("docservice: encode %s: %w", id, err)
	}
	if err := s.store.Write(id, data); err != nil {
		return nil, err
	}
	now := time.Now().UTC()
	if err := index.IndexDocument(s.db, id, data, now); err != nil {
		return nil, err
	}
	return &DocDetail{
		ID:        id,
		Title:     index.DocumentTitle(root),
		Content:   data,
		Checksum:  checksum.Sum(data),
		UpdatedAt: now,
	}, nil
}

// Get returns the normalized document.
func (s *Service) Get(ctx context.Context, id string) (*DocDetail, error) {
	st, err := s.Load(ctx, id)
	if err != nil {
		return nil, err
	}
	root := st.Snapshot()
	data, err := block.Encode(root)
	if err != nil {
		return nil, fmt.Errorf("docservice: encode %s: %w", id, err)
	}
	row, err := s.db.GetDocument(id)
	updatedAt := time.Now().UTC()
	if err == nil {
		updatedAt = row.UpdatedAt
	}
	return &DocDetail{
		ID:        id,
		Title:     index.DocumentTitle(root),
		Content:   data,
		Checksum:  checksum.Sum(data),
		UpdatedAt: updatedAt,
	}, nil
}

// Create writes a new document. Empty content produces the default
// title-plus-paragraph document.
func (s *Service) Create(ctx context.Context, id string, content []byte) (*DocDetail, error) {
	if _, err := s.store.Read(id); err == nil {
		return nil, apperr.ErrAlreadyExists
	}

	var root *block.Node
	if len(content) == 0 {
		root = block.NewDefaultDocument()
	} else {
		decoded, err := block.Decode(content)
		if err != nil {
			return nil, fmt.Errorf("docservice: decode new document: %w", err)
		}
		root = migrate.Run(decoded)
		if root == nil {
			root = block.NewDefaultDocument()
		}
	}
	return s.persist(id, root)
}

// Update replaces a document's content with optimistic concurrency: a
// non-empty ifMatch must equal the checksum of the currently stored bytes.
func (s *Service) Update(ctx context.Context, id string, content []byte, ifMatch string) (*DocDetail, error) {
	existing, err := s.store.Read(id)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, apperr.ErrNotFound
		}
		return nil, err
	}
	if ifMatch != "" && !checksum.Match(existing, ifMatch) {
		return nil, apperr.ErrConflict
	}

	decoded, err := block.Decode(content)
	if err != nil {
		return nil, fmt.Errorf("docservice: decode update: %w", err)
	}
	root := migrate.Run(decoded)
	if root == nil {
		root = block.NewDefaultDocument()
	}

	// Replace any open store so later commands see the new tree.
	s.mu.Lock()
	delete(s.open, id)
	s.mu.Unlock()

	return s.persist(id, root)
}

// Delete removes a document from storage, index, and the open-store cache.
func (s *Service) Delete(ctx context.Context, id string) error {
	s.mu.Lock()
	delete(s.open, id)
	s.mu.Unlock()

	if err := s.store.Delete(id); err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return apperr.ErrNotFound
		}
		return err
	}
	return s.db.DeleteDocument(id)
}

// List returns paginated documents.
func (s *Service) List(ctx context.Context, limit, offset int, sort string) ([]DocListItem, int, error) {
	rows, total, err := s.db.ListDocuments(limit, offset, sort)
	if err != nil {
		return nil, 0, err
	}
	items := make([]DocListItem, len(rows))
	for i, r := range rows {
		items[i] = DocListItem{
			ID:        r.ID,
			Title:     r.Title,
			Checksum:  r.Checksum,
			UpdatedAt: r.UpdatedAt,
		}
	}
	return items, total, nil
}

// Search delegates full-text search to the index.
func (s *Service) Search(ctx context.Context, query string, limit int) ([]index.SearchResult, error) {
	return s.db.Search(query, limit)
}

// ExportMarkdown renders a document as markdown text.
func (s *Service) ExportMarkdown(ctx context.Context, id string) (string, error) {
	st, err := s.Load(ctx, id)
	if err != nil {
		return "", err
	}
	return markdown.Export(st.Snapshot()), nil
}

// ImportMarkdown creates a new document from markdown text.
func (s *Service) ImportMarkdown(ctx context.Context, id, text string) (*DocDetail, error) {
	if _, err := s.store.Read(id); err == nil {
		return nil, apperr.ErrAlreadyExists
	}
	root := markdown.Import(text)
	detail, err := s.persist(id, root)
	if err != nil {
		return nil, err
	}
	// Imported image lines start loading; open the store so they resolve.
	if _, loadErr := s.Load(ctx, id); loadErr != nil {
		return nil, loadErr
	}
	return detail, nil
}
