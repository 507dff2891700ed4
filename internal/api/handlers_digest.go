package api

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/dgallion1/feedgest/internal/digest"
)

// handleGetDigest renders a stored feed as a Markdown digest, or as
// HTML when format=html is requested.
func (s *Server) handleGetDigest(w http.ResponseWriter, r *http.Request) {
	f := s.orchestrator.Feeds().Get(chi.URLParam(r, "feedID"))
	if f == nil {
		jsonError(w, "feed not found", http.StatusNotFound)
		return
	}

	md := digest.Markdown(f, digest.Config{
		MaxItems:     s.cfg.DigestMaxItems,
		SnippetWords: s.cfg.DigestSnippetWords,
	})

	if r.URL.Query().Get("format") == "html" {
		html, err := digest.HTML(md)
		if err != nil {
			s.log.Error("digest render failed", "feed_id", f.ID, "error", err)
			jsonError(w, "digest render failed", http.StatusInternalServerError)
			return
		}
		w.Header().Set("Content-Type", "text/html; charset=utf-8")
		w.Write([]byte(html))
		return
	}

	w.Header().Set("Content-Type", "text/markdown; charset=utf-8")
	w.Write([]byte(md))
}
