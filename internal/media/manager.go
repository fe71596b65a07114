package media

import (
	"context"
	"log/slog"
	"strings"
	"sync"

	"golang.org/x/sync/singleflight"

	"github.com/starford/ansuz/internal/block"
	"github.com/starford/ansuz/internal/doc"
)

// Manager resolves media nodes asynchronously. Fetches never run inside a
// document transaction; each result is applied through a new transaction
// that first re-checks the node still exists and still expects it. A stale
// result (node removed, replaced, or already resolved) is a silent no-op.
//
// In-flight work is deduplicated per node key: a second Resolve for a node
// whose fetch is still pending joins the pending call instead of issuing a
// new one.
type Manager struct {
	store   Store
	preview PreviewFetcher
	logger  *slog.Logger

	group singleflight.Group
	wg    sync.WaitGroup
}

// NewManager creates a Manager over the given collaborators.
func NewManager(store Store, preview PreviewFetcher, logger *slog.Logger) *Manager {
	return &Manager{store: store, preview: preview, logger: logger}
}

// Resolve schedules asynchronous resolution for the media node with the
// given key. It reads the node from the latest snapshot; nodes that are not
// loading media are ignored.
func (m *Manager) Resolve(ctx context.Context, st *doc.Store, key string) {
	var kind block.MediaKind
	var remoteID string
	ok := false
	st.Read(func(root *block.Node) {
		n, _, _ := block.FindByKey(root, key)
		if n == nil || n.Type != block.TypeMedia || n.LoadState != block.LoadLoading || n.RemoteID == "" {
			return
		}
		kind, remoteID = n.MediaKind, n.RemoteID
		ok = true
	})
	if !ok {
		return
	}

	m.wg.Add(1)
	go func() {
		defer m.wg.Done()
		_, _, _ = m.group.Do(key, func() (any, error) {
			m.resolve(ctx, st, key, kind, remoteID)
			return nil, nil
		})
	}()
}

// Wait blocks until every scheduled resolution has been applied (or
// discarded). Intended for shutdown and tests.
func (m *Manager) Wait() { m.wg.Wait() }

func (m *Manager) resolve(ctx context.Context, st *doc.Store, key string, kind block.MediaKind, remoteID string) {
	// A duplicate scheduled while another resolution was pending can run
	// after that one completed, when the key is no longer in flight. Skip
	// unless the node still expects a fetch; true overlap is deduplicated
	// by the singleflight group.
	stale := true
	st.Read(func(root *block.Node) {
		n, _, _ := block.FindByKey(root, key)
		stale = n == nil || n.Type != block.TypeMedia || n.LoadState != block.LoadLoading || n.RemoteID != remoteID
	})
	if stale {
		return
	}

	var asset Asset
	var prev Preview
	var fetchErr error

	switch {
	case kind == block.MediaBookmark:
		prev, fetchErr = m.preview.FetchPreview(ctx, remoteID)
	case isRemote(remoteID):
		asset, fetchErr = m.store.FetchRemote(ctx, remoteID)
	default:
		asset.ID = remoteID
		asset.Path, fetchErr = m.store.ResolvePath(remoteID)
	}

	if fetchErr != nil {
		m.logger.Warn("media: resolve failed",
			slog.String("key", key),
			slog.String("remoteId", remoteID),
			slog.String("error", fetchErr.Error()))
	}

	_, err := st.Transact(func(d *doc.Draft) error {
		n := d.Node(key)
		// The node may have been edited or removed while the fetch was in
		// flight; apply only when it still expects this exact result.
		if n == nil || n.Type != block.TypeMedia || n.LoadState != block.LoadLoading || n.RemoteID != remoteID {
			return nil
		}
		d.Update(key, func(n *block.Node) {
			if fetchErr != nil {
				n.LoadState = block.LoadError
				return
			}
			if kind == block.MediaBookmark {
				if n.Text == "" {
					n.Text = prev.Title
				}
			} else {
				n.LocalPath = asset.Path
			}
			n.LoadState = block.LoadReady
		})
		return nil
	})
	if err != nil {
		m.logger.Warn("media: apply failed", slog.String("key", key), slog.String("error", err.Error()))
	}
}

func isRemote(id string) bool {
	return strings.HasPrefix(id, "http://") || strings.HasPrefix(id, "https://")
}
