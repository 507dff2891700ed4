// Package store keeps ingested feeds in memory.
package store

import (
	"sort"
	"sync"
	"time"

	"github.com/dgallion1/feedgest/internal/feed"
)

// FeedStore is a thread-safe in-memory feed registry with TTL eviction.
// Feeds are keyed by ID; re-ingesting a feed replaces the previous copy.
type FeedStore struct {
	mu       sync.Mutex
	feeds    map[string]*feed.Feed
	ttl      time.Duration
	maxItems int
}

func NewFeedStore(ttl time.Duration, maxItems int) *FeedStore {
	if ttl <= 0 {
		ttl = 24 * time.Hour
	}
	if maxItems <= 0 {
		maxItems = 500
	}
	return &FeedStore{
		feeds:    make(map[string]*feed.Feed),
		ttl:      ttl,
		maxItems: maxItems,
	}
}

// Put stores a feed, truncating its item list to the store's cap.
// Items keep document order; the cap drops the tail.
func (s *FeedStore) Put(f *feed.Feed) {
	if len(f.Items) > s.maxItems {
		f.Items = f.Items[:s.maxItems]
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.feeds[f.ID] = f
}

// Get returns a feed by ID, or nil when absent or expired.
func (s *FeedStore) Get(id string) *feed.Feed {
	s.mu.Lock()
	defer s.mu.Unlock()
	f := s.feeds[id]
	if f == nil {
		return nil
	}
	if time.Since(f.FetchedAt) > s.ttl {
		delete(s.feeds, id)
		return nil
	}
	return f
}

// List returns all live feeds ordered by fetch time, newest first.
func (s *FeedStore) List() []*feed.Feed {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]*feed.Feed, 0, len(s.feeds))
	now := time.Now()
	for id, f := range s.feeds {
		if now.Sub(f.FetchedAt) > s.ttl {
			delete(s.feeds, id)
			continue
		}
		out = append(out, f)
	}
	sort.Slice(out, func(i, j int) bool {
		return out[i].FetchedAt.After(out[j].FetchedAt)
	})
	return out
}

// Delete removes a feed. It reports whether the feed was present.
func (s *FeedStore) Delete(id string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	_, ok := s.feeds[id]
	delete(s.feeds, id)
	return ok
}

// Cleanup removes expired feeds.
func (s *FeedStore) Cleanup() {
	s.mu.Lock()
	defer s.mu.Unlock()
	now := time.Now()
	for id, f := range s.feeds {
		if now.Sub(f.FetchedAt) > s.ttl {
			delete(s.feeds, id)
		}
	}
}

// Len returns the number of stored feeds, including any not yet evicted.
func (s *FeedStore) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.feeds)
}
