package search

import (
	"context"
	"time"

	"courier/internal/domain"
)

// SuggestionProvider returns completions for partially typed queries
type SuggestionProvider interface {
	Suggest(ctx context.Context, text string) ([]string, error)
}

// Request is a single full-search call. Page is 1-based.
type Request struct {
	Query    string
	Filters  domain.Filters
	Page     int
	PageSize int
}

// Provider executes full searches
type Provider interface {
	Search(ctx context.Context, req Request) (domain.SearchPage, error)
}

// RecentStore persists the recent-query list
type RecentStore interface {
	Load(ctx context.Context) ([]string, error)
	Save(ctx context.Context, queries []string) error
}

// Config tunes a Session
type Config struct {
	Debounce         time.Duration
	MinSuggestLength int
	RecentLimit      int
	PageSize         int
}

// DefaultConfig returns the interactive defaults
func DefaultConfig() Config {
	return Config{
		Debounce:         300 * time.Millisecond,
		MinSuggestLength: 2,
		RecentLimit:      10,
		PageSize:         20,
	}
}

// State is a point-in-time copy of a session
type State struct {
	Query       string
	Filters     domain.Filters
	Page        int // pages loaded so far
	Results     []domain.Result
	Stats       domain.SearchStats
	HasMore     bool
	Loading     bool
	Searched    bool // at least one search has completed or failed
	Err         error
	Suggestions []string
	SuggestErr  error
	Recent      []string
}
