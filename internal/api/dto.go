package api

import (
	"encoding/json"

	"github.com/starford/ansuz/internal/docservice"
)

// CreateDocumentRequest is the request body for creating a document.
// Content is the block-tree JSON; when omitted the default empty document
// is created.
type CreateDocumentRequest struct {
	ID      string          `json:"id"`
	Content json.RawMessage `json:"content,omitempty"`
}

// UpdateDocumentRequest is the request body for replacing a document.
type UpdateDocumentRequest struct {
	Content json.RawMessage `json:"content"`
}

// ImportRequest is the request body for a markdown import.
type ImportRequest struct {
	ID       string `json:"id"`
	Markdown string `json:"markdown"`
}

// CommandRequest is an editor command (aliased from the domain layer).
type CommandRequest = docservice.Command

// DocDetail is the full document response type (aliased from the domain layer).
type DocDetail = docservice.DocDetail

// DocListItem is a lightweight item in a list response (aliased from the domain layer).
type DocListItem = docservice.DocListItem

// DocListResponse wraps paginated document listings.
type DocListResponse struct {
	Documents []DocListItem `json:"documents"`
	Total     int           `json:"total"`
}

// SearchResult is a single search hit in the API response.
type SearchResult struct {
	ID      string `json:"id"`
	Title   string `json:"title"`
	Snippet string `json:"snippet"`
}

// SearchResponse wraps search results.
type SearchResponse struct {
	Results []SearchResult `json:"results"`
}

// AttachmentUploadResponse is returned after a successful attachment upload.
type AttachmentUploadResponse struct {
	ID   string `json:"id"`
	Size int64  `json:"size"`
	URL  string `json:"url"`
}
