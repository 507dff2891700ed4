package config

import (
	"fmt"
	"os"
	"strconv"
	"time"
)

type Config struct {
	Port string

	// Auth
	APIKey string

	// Worker pool
	WorkerCount  int
	MaxQueueSize int

	// Fetching
	FetchTimeout time.Duration
	MaxFeedBytes int64

	// Parsing
	ItemTag string

	// Linked document extraction
	ExtractLinked        bool
	MaxConcurrentExtract int
	MaxDocBytes          int64

	// Retention
	JobTTL          time.Duration
	FeedTTL         time.Duration
	MaxItemsPerFeed int

	// Digest
	DigestMaxItems     int
	DigestSnippetWords int
}

func Load() Config {
	cfg := Config{
		Port: envOr("PORT", "8091"),

		APIKey: os.Getenv("FEEDGEST_API_KEY"),

		WorkerCount:  envInt("WORKER_COUNT", 4),
		MaxQueueSize: envInt("MAX_QUEUE_SIZE", 100),

		FetchTimeout: envDuration("FETCH_TIMEOUT", 30*time.Second),
		MaxFeedBytes: envInt64("MAX_FEED_BYTES", 10485760), // 10MB

		ItemTag: envOr("ITEM_TAG", "item"),

		ExtractLinked:        envBool("EXTRACT_LINKED", false),
		MaxConcurrentExtract: envInt("MAX_CONCURRENT_EXTRACT", 5),
		MaxDocBytes:          envInt64("MAX_DOC_BYTES", 5242880), // 5MB

		JobTTL:          envDuration("JOB_TTL", 1*time.Hour),
		FeedTTL:         envDuration("FEED_TTL", 24*time.Hour),
		MaxItemsPerFeed: envInt("MAX_ITEMS_PER_FEED", 500),

		DigestMaxItems:     envInt("DIGEST_MAX_ITEMS", 20),
		DigestSnippetWords: envInt("DIGEST_SNIPPET_WORDS", 60),
	}

	if cfg.WorkerCount <= 0 {
		cfg.WorkerCount = 4
	}
	if cfg.MaxQueueSize <= 0 {
		cfg.MaxQueueSize = 100
	}
	if cfg.FetchTimeout <= 0 {
		cfg.FetchTimeout = 30 * time.Second
	}
	if cfg.MaxFeedBytes <= 0 {
		cfg.MaxFeedBytes = 10485760
	}
	if cfg.ItemTag == "" {
		cfg.ItemTag = "item"
	}
	if cfg.MaxConcurrentExtract <= 0 {
		cfg.MaxConcurrentExtract = 5
	}
	if cfg.MaxDocBytes <= 0 {
		cfg.MaxDocBytes = 5242880
	}
	if cfg.JobTTL <= 0 {
		cfg.JobTTL = 1 * time.Hour
	}
	if cfg.FeedTTL <= 0 {
		cfg.FeedTTL = 24 * time.Hour
	}
	if cfg.MaxItemsPerFeed <= 0 {
		cfg.MaxItemsPerFeed = 500
	}
	if cfg.DigestMaxItems <= 0 {
		cfg.DigestMaxItems = 20
	}
	if cfg.DigestSnippetWords <= 0 {
		cfg.DigestSnippetWords = 60
	}

	return cfg
}

func (c Config) Validate() error {
	if c.APIKey == "" {
		return fmt.Errorf("FEEDGEST_API_KEY is required")
	}
	return nil
}

func envOr(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func envInt(key string, fallback int) int {
	if v := os.Getenv(key); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			return n
		}
	}
	return fallback
}

func envInt64(key string, fallback int64) int64 {
	if v := os.Getenv(key); v != "" {
		if n, err := strconv.ParseInt(v, 10, 64); err == nil {
			return n
		}
	}
	return fallback
}

func envBool(key string, fallback bool) bool {
	if v := os.Getenv(key); v != "" {
		if b, err := strconv.ParseBool(v); err == nil {
			return b
		}
	}
	return fallback
}

func envDuration(key string, fallback time.Duration) time.Duration {
	if v := os.Getenv(key); v != "" {
		if d, err := time.ParseDuration(v); err == nil {
			return d
		}
	}
	return fallback
}
