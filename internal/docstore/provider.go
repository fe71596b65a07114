// Package docstore defines the on-disk document storage abstraction.
// Documents are JSON trees stored one file per document id.
package docstore

import "time"

// DocMetadata is a lightweight representation returned by list operations.
type DocMetadata struct {
	ID        string    `json:"id"`
	Checksum  string    `json:"checksum"`
	UpdatedAt time.Time `json:"updated_at"`
}

// Provider is the interface for document file operations. IDs are
// slash-separated relative paths without the .json extension.
type Provider interface {
	// List returns metadata for every document under dir (relative to root).
	List(dir string) ([]DocMetadata, error)
	// Read returns the raw JSON bytes of the document with the given id.
	Read(id string) ([]byte, error)
	// Write atomically writes content for the given id.
	Write(id string, content []byte) error
	// Delete removes the document with the given id.
	Delete(id string) error
	// Move renames oldID to newID.
	Move(oldID, newID string) error
}
