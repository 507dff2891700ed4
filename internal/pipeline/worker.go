package pipeline

import (
	"bytes"
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/dgallion1/feedgest/internal/config"
	"github.com/dgallion1/feedgest/internal/extract"
	"github.com/dgallion1/feedgest/internal/feed"
	"github.com/dgallion1/feedgest/internal/fetch"
	"github.com/dgallion1/feedgest/internal/store"
	"github.com/dgallion1/feedgest/rss"
)

// Worker processes a single feed ingestion job.
type Worker struct {
	feeds *fetch.Client
	docs  *fetch.Client
	fs    *store.FeedStore
	log   *slog.Logger
	cfg   config.Config
}

func NewWorker(feeds, docs *fetch.Client, fs *store.FeedStore, log *slog.Logger, cfg config.Config) *Worker {
	return &Worker{
		feeds: feeds,
		docs:  docs,
		fs:    fs,
		log:   log,
		cfg:   cfg,
	}
}

// Process runs the full ingest pipeline for a job.
func (w *Worker) Process(ctx context.Context, job *Job) {
	log := w.log.With("job_id", job.ID, "feed_id", job.FeedID, "url", job.URL)

	// Phase 1: Fetch
	job.SetStatus(StatusFetching, "fetching")
	var body *fetch.Body
	var err error
	for attempt := range MaxRetries {
		body, err = w.feeds.Open(ctx, job.URL)
		if err == nil || !IsRetryable(err) {
			break
		}
		log.Warn("retryable fetch error", "attempt", attempt, "error", err)
		select {
		case <-time.After(Backoff(attempt)):
		case <-ctx.Done():
			job.AddError(ctx.Err().Error())
			job.SetStatus(StatusFailed, "fetching")
			return
		}
	}
	if err != nil {
		log.Error("fetch failed", "error", err)
		job.AddError(fmt.Sprintf("fetch: %s", err))
		job.SetStatus(StatusFailed, "fetching")
		return
	}
	defer body.Close()

	// Phase 2: Parse the stream incrementally.
	job.SetStatus(StatusParsing, "parsing")
	p := rss.NewParser[feed.Item](body, rss.WithItemTag(w.cfg.ItemTag))

	var items []feed.Item
	for {
		item, ok := p.Next()
		if !ok {
			break
		}
		items = append(items, *item)
		job.IncrItemsParsed()
		if len(items) >= w.cfg.MaxItemsPerFeed {
			log.Warn("item cap reached", "cap", w.cfg.MaxItemsPerFeed)
			p.Close()
			break
		}
	}

	streamFailed := false
	if perr := p.Err(); perr != nil {
		log.Warn("feed stream ended early", "error", perr, "items", len(items))
		job.AddError(fmt.Sprintf("stream: %s", perr))
		streamFailed = true
	}
	log.Info("parsed feed", "items", len(items))

	if streamFailed && len(items) == 0 {
		job.SetStatus(StatusFailed, "parsing")
		return
	}

	// Phase 3: Extract linked documents with bounded concurrency.
	// Extraction errors are recorded on the job but do not fail it.
	if w.cfg.ExtractLinked && len(items) > 0 {
		job.SetStatus(StatusExtracting, "extracting")
		sem := make(chan struct{}, w.cfg.MaxConcurrentExtract)
		var wg sync.WaitGroup
		for i := range items {
			if items[i].Link == "" {
				continue
			}
			wg.Add(1)
			sem <- struct{}{}
			go func(i int) {
				defer wg.Done()
				defer func() { <-sem }()
				text, err := w.extractLinked(ctx, items[i].Link)
				if err != nil {
					log.Warn("extraction failed", "link", items[i].Link, "error", err)
					job.AddError(fmt.Sprintf("extract %s: %s", items[i].Link, err))
					return
				}
				items[i].Extracted = text
				job.IncrItemsExtracted()
			}(i)
		}
		wg.Wait()
	}

	// Phase 4: Store
	job.SetStatus(StatusStoring, "storing")
	w.fs.Put(&feed.Feed{
		ID:        job.FeedID,
		URL:       job.URL,
		Title:     job.Title,
		FetchedAt: time.Now(),
		Items:     items,
	})

	if streamFailed {
		job.SetStatus(StatusPartial, "done")
	} else {
		job.SetStatus(StatusCompleted, "done")
	}
	log.Info("ingestion complete", "status", job.CurrentStatus(), "items", len(items))
}

// extractLinked downloads one linked document and flattens it to text.
func (w *Worker) extractLinked(ctx context.Context, url string) (string, error) {
	data, contentType, err := w.docs.Download(ctx, url)
	if err != nil {
		return "", err
	}
	ex, err := extract.ForContent(contentType, url)
	if err != nil {
		return "", err
	}
	doc, err := ex.Extract(bytes.NewReader(data))
	if err != nil {
		return "", err
	}
	return doc.Text, nil
}
