package cache

import "time"

// TTLConfig holds cache lifetimes.
type TTLConfig struct {
	ListingTTL      time.Duration // non-empty upstream listings
	ListingEmptyTTL time.Duration // empty listings
	FeedTTL         time.Duration
	CleanupInterval time.Duration
}

// DefaultTTLConfig mirrors the frame HTTP cache windows so a shared cache
// never holds a listing longer than edges would.
func DefaultTTLConfig() TTLConfig {
	return TTLConfig{
		ListingTTL:      10 * time.Minute,
		ListingEmptyTTL: 60 * time.Second,
		FeedTTL:         30 * time.Minute,
		CleanupInterval: 2 * time.Minute,
	}
}
