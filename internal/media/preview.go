package media

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"regexp"
	"strings"
	"time"
)

// maxPreviewBytes bounds how much of a page is read for metadata.
const maxPreviewBytes = 1 << 20

var (
	titleRe = regexp.MustCompile(`(?is)<title[^>]*>(.*?)</title>`)
	metaRe  = regexp.MustCompile(`(?is)<meta\s+[^>]*>`)
	attrRe  = regexp.MustCompile(`(?is)(property|name|content)\s*=\s*"([^"]*)"`)
	iconRe  = regexp.MustCompile(`(?is)<link\s+[^>]*rel\s*=\s*"(?:shortcut )?icon"[^>]*href\s*=\s*"([^"]*)"`)
)

// HTTPPreviewFetcher scrapes Open Graph metadata with plain regexes. Pages
// that don't match simply produce an emptier Preview; scraping never needs
// to be exact.
type HTTPPreviewFetcher struct {
	client *http.Client
}

// NewHTTPPreviewFetcher returns a fetcher with a bounded timeout.
func NewHTTPPreviewFetcher() *HTTPPreviewFetcher {
	return &HTTPPreviewFetcher{client: &http.Client{Timeout: 15 * time.Second}}
}

var _ PreviewFetcher = (*HTTPPreviewFetcher)(nil)

// FetchPreview downloads the page at url and extracts title, description,
// preview image, and favicon.
func (f *HTTPPreviewFetcher) FetchPreview(ctx context.Context, url string) (Preview, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return Preview{}, fmt.Errorf("media: build preview request: %w", err)
	}
	resp, err := f.client.Do(req)
	if err != nil {
		return Preview{}, fmt.Errorf("media: fetch preview %s: %w", url, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return Preview{}, fmt.Errorf("media: fetch preview %s: status %d", url, resp.StatusCode)
	}

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxPreviewBytes))
	if err != nil {
		return Preview{}, fmt.Errorf("media: read preview body: %w", err)
	}
	return ParsePreview(string(body)), nil
}

// ParsePreview extracts preview metadata from raw HTML.
func ParsePreview(html string) Preview {
	var p Preview

	for _, tag := range metaRe.FindAllString(html, -1) {
		var key, content string
		for _, m := range attrRe.FindAllStringSubmatch(tag, -1) {
			switch strings.ToLower(m[1]) {
			case "property", "name":
				key = strings.ToLower(m[2])
			case "content":
				content = m[2]
			}
		}
		switch key {
		case "og:title":
			p.Title = content
		case "og:description", "description":
			if p.Description == "" {
				p.Description = content
			}
		case "og:image":
			p.ImageURL = content
		}
	}

	if p.Title == "" {
		if m := titleRe.FindStringSubmatch(html); m != nil {
			p.Title = strings.TrimSpace(m[1])
		}
	}
	if m := iconRe.FindStringSubmatch(html); m != nil {
		p.FaviconURL = m[1]
	}
	return p
}
