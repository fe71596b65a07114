package index

import (
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/starford/ansuz/internal/apperr"
)

// DocRow represents a row in the documents table.
type DocRow struct {
	ID        string
	Title     string
	Checksum  string
	UpdatedAt time.Time
}

// SearchResult represents one search hit.
type SearchResult struct {
	ID      string
	Title   string
	Snippet string
}

// UpsertDocument inserts or replaces a document, its FTS entry, and its
// media references within a transaction.
func (db *DB) UpsertDocument(d DocRow, text string, mediaIDs []string) error {
	tx, err := db.conn.Begin()
	if err != nil {
		return fmt.Errorf("index: begin tx: %w", err)
	}
	defer tx.Rollback() //nolint:errcheck // best-effort on failure path

	// Upsert documents table (includes text for fallback search).
	_, err = tx.Exec(`
		INSERT INTO documents (id, title, checksum, text, updated_at)
		VALUES (?, ?, ?, ?, ?)
		ON CONFLICT(id) DO UPDATE SET
			title      = excluded.title,
			checksum   = excluded.checksum,
			text       = excluded.text,
			updated_at = excluded.updated_at
	`, d.ID, d.Title, d.Checksum, text, d.UpdatedAt)
	if err != nil {
		return fmt.Errorf("index: upsert document: %w", err)
	}

	// FTS upsert (no-op when FTS5 tag is absent).
	if err := ftsUpsert(tx, d.ID, d.Title, text); err != nil {
		return err
	}

	// Replace media references: delete old then bulk insert.
	_, _ = tx.Exec(`DELETE FROM assets WHERE doc_id = ?`, d.ID)
	if len(mediaIDs) > 0 {
		stmt, err := tx.Prepare(`INSERT OR IGNORE INTO assets (doc_id, media_id) VALUES (?, ?)`)
		if err != nil {
			return fmt.Errorf("index: prepare asset insert: %w", err)
		}
		defer stmt.Close()
		for _, mid := range mediaIDs {
			if _, err := stmt.Exec(d.ID, mid); err != nil {
				return fmt.Errorf("index: insert asset: %w", err)
			}
		}
	}

	return tx.Commit()
}

// DeleteDocument removes a document, its FTS entry, and its media references.
func (db *DB) DeleteDocument(id string) error {
	tx, err := db.conn.Begin()
	if err != nil {
		return fmt.Errorf("index: begin tx: %w", err)
	}
	defer tx.Rollback() //nolint:errcheck

	ftsDelete(tx, id)
	_, _ = tx.Exec(`DELETE FROM assets WHERE doc_id = ?`, id)
	_, _ = tx.Exec(`DELETE FROM documents WHERE id = ?`, id)

	return tx.Commit()
}

// GetChecksum returns the stored checksum for a document, or empty string if not found.
func (db *DB) GetChecksum(id string) (string, error) {
	var cs string
	err := db.conn.QueryRow(`SELECT checksum FROM documents WHERE id = ?`, id).Scan(&cs)
	if err != nil {
		return "", nil // not found is fine
	}
	return cs, nil
}

// GetDocument returns the indexed row for a document.
func (db *DB) GetDocument(id string) (*DocRow, error) {
	var d DocRow
	err := db.conn.QueryRow(`
		SELECT id, title, checksum, updated_at FROM documents WHERE id = ?
	`, id).Scan(&d.ID, &d.Title, &d.Checksum, &d.UpdatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, apperr.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("index: get document: %w", err)
	}
	return &d, nil
}

// ListDocuments returns a page of documents plus the total count.
// sort is "title" or "updated" (default).
func (db *DB) ListDocuments(limit, offset int, sort string) ([]DocRow, int, error) {
	if limit <= 0 {
		limit = 50
	}
	order := "updated_at DESC"
	if sort == "title" {
		order = "title COLLATE NOCASE ASC"
	}

	var total int
	if err := db.conn.QueryRow(`SELECT COUNT(*) FROM documents`).Scan(&total); err != nil {
		return nil, 0, fmt.Errorf("index: count documents: %w", err)
	}

	rows, err := db.conn.Query(`
		SELECT id, title, checksum, updated_at FROM documents
		ORDER BY `+order+`
		LIMIT ? OFFSET ?
	`, limit, offset)
	if err != nil {
		return nil, 0, fmt.Errorf("index: list documents: %w", err)
	}
	defer rows.Close()

	var out []DocRow
	for rows.Next() {
		var d DocRow
		if err := rows.Scan(&d.ID, &d.Title, &d.Checksum, &d.UpdatedAt); err != nil {
			return nil, 0, err
		}
		out = append(out, d)
	}
	return out, total, rows.Err()
}

// DocumentsUsingMedia returns the ids of all documents that reference the
// given media asset.
func (db *DB) DocumentsUsingMedia(mediaID string) ([]string, error) {
	rows, err := db.conn.Query(`SELECT doc_id FROM assets WHERE media_id = ?`, mediaID)
	if err != nil {
		return nil, fmt.Errorf("index: documents using media: %w", err)
	}
	defer rows.Close()

	var out []string
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			return nil, err
		}
		out = append(out, id)
	}
	return out, rows.Err()
}

// AllChecksums returns every indexed document id mapped to its checksum.
func (db *DB) AllChecksums() (map[string]string, error) {
	rows, err := db.conn.Query(`SELECT id, checksum FROM documents`)
	if err != nil {
		return nil, fmt.Errorf("index: all checksums: %w", err)
	}
	defer rows.Close()
	out := make(map[string]string)
	for rows.Next() {
		var id, cs string
		if err := rows.Scan(&id, &cs); err != nil {
			return nil, err
		}
		out[id] = cs
	}
	return out, rows.Err()
}
