package api

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/starford/ansuz/internal/docservice"
	"github.com/starford/ansuz/internal/media"
	"github.com/starford/ansuz/internal/sse"
)

// NewRouter creates a chi router with all API routes mounted.
// authEnabled controls whether Bearer token auth is enforced.
// broker, if non-nil, is mounted at GET /events inside the auth group and
// receives document events from the handlers.
func NewRouter(svc *docservice.Service, authEnabled bool, token string, broker *sse.Broker, mediaStore media.Store) chi.Router {
	h := NewHandler(svc, broker)

	r := chi.NewRouter()
	r.Use(AuthMiddleware(authEnabled, token))

	// Documents CRUD.
	r.Get("/documents", h.ListDocuments)
	r.Post("/documents", h.CreateDocument)
	r.Get("/documents/*", h.GetDocument)
	r.Put("/documents/*", h.UpdateDocument)
	r.Delete("/documents/*", h.DeleteDocument)

	// Editor commands.
	r.Post("/commands/*", h.ApplyCommand)

	// Markdown in/out.
	r.Get("/markdown/*", h.ExportMarkdown)
	r.Post("/import", h.ImportMarkdown)

	// Search.
	r.Get("/search", h.Search)

	// Attachments upload (auth-protected).
	if mediaStore != nil {
		ah := NewAttachmentHandler(mediaStore)
		r.Post("/attachments", ah.Upload)
	}

	// SSE endpoint (protected by same auth middleware).
	if broker != nil {
		r.Get("/events", http.HandlerFunc(broker.ServeHTTP))
	}

	return r
}
