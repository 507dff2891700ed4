package api

import (
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strconv"

	"github.com/go-chi/chi/v5"

	"github.com/dgallion1/feedgest/internal/pipeline"
)

// submitFeedRequest is the body for POST /api/feeds.
type submitFeedRequest struct {
	URL   string `json:"url"`
	Title string `json:"title,omitempty"`
}

func (s *Server) handleSubmitFeed(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, 64*1024)

	var req submitFeedRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		jsonError(w, "invalid request body: "+err.Error(), http.StatusBadRequest)
		return
	}
	if req.URL == "" {
		jsonError(w, "url is required", http.StatusBadRequest)
		return
	}
	u, err := url.Parse(req.URL)
	if err != nil || (u.Scheme != "http" && u.Scheme != "https") || u.Host == "" {
		jsonError(w, "url must be absolute http or https", http.StatusBadRequest)
		return
	}

	job := pipeline.NewJob(req.URL, req.Title)
	if err := s.orchestrator.Submit(job); err != nil {
		jsonError(w, err.Error(), http.StatusServiceUnavailable)
		return
	}

	// A worker may already be mutating the job; read through a snapshot.
	snap := job.Snapshot()
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusAccepted)
	json.NewEncoder(w).Encode(map[string]any{
		"job_id":   snap.ID,
		"feed_id":  snap.FeedID,
		"status":   snap.Status,
		"poll_url": fmt.Sprintf("/api/ingest/%s/status", snap.ID),
	})
}

func (s *Server) handleIngestStatus(w http.ResponseWriter, r *http.Request) {
	jobID := chi.URLParam(r, "jobID")
	job := s.orchestrator.GetJob(jobID)
	if job == nil {
		jsonError(w, "job not found", http.StatusNotFound)
		return
	}
	snap := job.Snapshot()
	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(snap)
}

func (s *Server) handleListFeeds(w http.ResponseWriter, r *http.Request) {
	feeds := s.orchestrator.Feeds().List()

	type feedSummary struct {
		ID        string `json:"feed_id"`
		URL       string `json:"url"`
		Title     string `json:"title"`
		FetchedAt string `json:"fetched_at"`
		ItemCount int    `json:"item_count"`
	}
	summaries := make([]feedSummary, 0, len(feeds))
	for _, f := range feeds {
		summaries = append(summaries, feedSummary{
			ID:        f.ID,
			URL:       f.URL,
			Title:     f.Title,
			FetchedAt: f.FetchedAt.Format("2006-01-02T15:04:05Z07:00"),
			ItemCount: len(f.Items),
		})
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(map[string]any{"feeds": summaries})
}

func (s *Server) handleGetFeed(w http.ResponseWriter, r *http.Request) {
	f := s.orchestrator.Feeds().Get(chi.URLParam(r, "feedID"))
	if f == nil {
		jsonError(w, "feed not found", http.StatusNotFound)
		return
	}
	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(f)
}

func (s *Server) handleGetItems(w http.ResponseWriter, r *http.Request) {
	f := s.orchestrator.Feeds().Get(chi.URLParam(r, "feedID"))
	if f == nil {
		jsonError(w, "feed not found", http.StatusNotFound)
		return
	}

	items := f.Items
	if v := r.URL.Query().Get("limit"); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n >= 0 && n < len(items) {
			items = items[:n]
		}
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(map[string]any{
		"feed_id": f.ID,
		"items":   items,
	})
}

func (s *Server) handleDeleteFeed(w http.ResponseWriter, r *http.Request) {
	feedID := chi.URLParam(r, "feedID")
	if !s.orchestrator.Feeds().Delete(feedID) {
		jsonError(w, "feed not found", http.StatusNotFound)
		return
	}
	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(map[string]any{"deleted": feedID})
}

func jsonError(w http.ResponseWriter, msg string, code int) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	json.NewEncoder(w).Encode(map[string]string{"error": msg})
}
