package providers

import (
	"context"
	"strings"
	"time"

	"github.com/hashicorp/golang-lru/v2/expirable"

	"courier/internal/search"
)

// CachedSuggester memoizes suggestion lookups for a short time. Failures
// are not cached.
type CachedSuggester struct {
	next  search.SuggestionProvider
	cache *expirable.LRU[string, []string]
}

func NewCachedSuggester(next search.SuggestionProvider, size int, ttl time.Duration) *CachedSuggester {
	if size <= 0 {
		size = 128
	}
	return &CachedSuggester{
		next:  next,
		cache: expirable.NewLRU[string, []string](size, nil, ttl),
	}
}

func (c *CachedSuggester) Suggest(ctx context.Context, text string) ([]string, error) {
	key := strings.ToLower(strings.TrimSpace(text))
	if cached, ok := c.cache.Get(key); ok {
		return append([]string(nil), cached...), nil
	}

	list, err := c.next.Suggest(ctx, text)
	if err != nil {
		return nil, err
	}
	c.cache.Add(key, append([]string(nil), list...))
	return list, nil
}

// Purge drops every cached entry
func (c *CachedSuggester) Purge() {
	c.cache.Purge()
}
