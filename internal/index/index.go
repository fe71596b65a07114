package index

// DocIndex defines the interface for document indexing operations.
// Consumers should depend on this interface rather than the concrete *DB type
// to facilitate testing with mocks.
type DocIndex interface {
	UpsertDocument(d DocRow, text string, mediaIDs []string) error
	DeleteDocument(id string) error
	GetChecksum(id string) (string, error)
	GetDocument(id string) (*DocRow, error)
	ListDocuments(limit, offset int, sort string) ([]DocRow, int, error)
	Search(query string, limit int) ([]SearchResult, error)
	DocumentsUsingMedia(mediaID string) ([]string, error)
	AllChecksums() (map[string]string, error)
	Close() error
}

// Verify *DB satisfies DocIndex at compile time.
var _ DocIndex = (*DB)(nil)
