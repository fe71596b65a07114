package index

import (
	"log/slog"
	"time"

	"github.com/starford/ansuz/internal/block"
	"github.com/starford/ansuz/internal/checksum"
	"github.com/starford/ansuz/internal/docstore"
	"github.com/starford/ansuz/internal/markdown"
	"github.com/starford/ansuz/internal/migrate"
)

// Sync walks the document store and brings the index up to date:
//   - new/changed documents are decoded and upserted
//   - documents removed from disk are deleted from the index
func Sync(db *DB, store docstore.Provider, logger *slog.Logger) error {
	metas, err := store.List("")
	if err != nil {
		return err
	}

	checksums, err := db.AllChecksums()
	if err != nil {
		return err
	}

	disk := make(map[string]struct{}, len(metas))
	for _, m := range metas {
		disk[m.ID] = struct{}{}

		if checksums[m.ID] == m.Checksum {
			continue
		}

		data, err := store.Read(m.ID)
		if err != nil {
			logger.Warn("sync: read failed", slog.String("id", m.ID), slog.String("error", err.Error()))
			continue
		}
		if err := IndexDocument(db, m.ID, data, m.UpdatedAt); err != nil {
			logger.Warn("sync: index failed", slog.String("id", m.ID), slog.String("error", err.Error()))
		} else {
			logger.Debug("sync: indexed", slog.String("id", m.ID))
		}
	}

	// Remove stale entries.
	for id := range checksums {
		if _, ok := disk[id]; !ok {
			if err := db.DeleteDocument(id); err != nil {
				logger.Warn("sync: delete failed", slog.String("id", id), slog.String("error", err.Error()))
			} else {
				logger.Debug("sync: removed stale", slog.String("id", id))
			}
		}
	}

	return nil
}

// IndexDocument decodes raw document JSON and upserts it into the DB.
// The block tree is normalized before indexing so that legacy documents
// produce the same text as their migrated form.
func IndexDocument(db *DB, id string, data []byte, updatedAt time.Time) error {
	root, err := block.Decode(data)
	if err != nil {
		return err
	}
	root = migrate.Run(root)
	if root == nil {
		root = block.NewDefaultDocument()
	}

	row := DocRow{
		ID:        id,
		Title:     DocumentTitle(root),
		Checksum:  checksum.Sum(data),
		UpdatedAt: updatedAt,
	}
	return db.UpsertDocument(row, markdown.Export(root), MediaIDs(root))
}

// DocumentTitle returns the plain text of the document's title block.
func DocumentTitle(root *block.Node) string {
	for _, c := range root.Children {
		if c.Type == block.TypeTitle {
			return c.PlainText()
		}
	}
	return ""
}

// MediaIDs collects the remote ids of every media block in the tree.
func MediaIDs(root *block.Node) []string {
	var out []string
	seen := make(map[string]struct{})
	block.Walk(root, func(n *block.Node) bool {
		if n.Type != block.TypeMedia || n.RemoteID == "" {
			return true
		}
		if _, ok := seen[n.RemoteID]; ok {
			return true
		}
		seen[n.RemoteID] = struct{}{}
		out = append(out, n.RemoteID)
		return true
	})
	return out
}
