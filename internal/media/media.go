// Package media resolves the content behind media blocks: local assets,
// remote downloads, and bookmark previews. Resolution runs outside document
// transactions and applies its result through a guarded follow-up
// transaction.
package media

import "context"

// Asset is a locally stored media payload.
type Asset struct {
	ID   string
	Path string
}

// Preview is the scraped metadata for a bookmark-style embed.
type Preview struct {
	Title       string
	Description string
	ImageURL    string
	FaviconURL  string
}

// Store persists and locates media bytes.
type Store interface {
	// ResolvePath maps a local media id to its on-disk path.
	ResolvePath(mediaID string) (string, error)
	// Persist saves new media bytes and returns the stored asset.
	Persist(data []byte, mimeType string) (Asset, error)
	// FetchRemote downloads external media and stores it locally.
	FetchRemote(ctx context.Context, url string) (Asset, error)
}

// PreviewFetcher scrapes link metadata for bookmark embeds.
type PreviewFetcher interface {
	FetchPreview(ctx context.Context, url string) (Preview, error)
}
