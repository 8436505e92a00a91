package search

import (
	"context"
	"strings"
	"sync"
	"unicode/utf8"

	"github.com/benbjohnson/clock"
	log "github.com/sirupsen/logrus"

	"courier/internal/domain"
	"courier/internal/eventbus"
)

// Session holds the query, filters and accumulated results of one search
// overlay activation. It is safe for concurrent use; external calls are
// made without holding the lock.
type Session struct {
	mu sync.Mutex

	cfg         Config
	suggester   SuggestionProvider
	provider    Provider
	recentStore RecentStore
	bus         eventbus.EventBus
	clock       clock.Clock
	debounce    *debouncer

	ctx    context.Context
	cancel context.CancelFunc

	query   string
	filters domain.Filters
	page    int
	results []domain.Result
	stats   domain.SearchStats
	hasMore bool
	loading int
	// bumped by every reset; responses issued under an older
	// generation are discarded
	generation uint64
	searched   bool
	err        error

	suggestions []string
	suggestErr  error
	suggestSeq  uint64

	recent []string
	// held across a snapshot of recent and its save so the store always
	// ends with the newest list
	saveMu sync.Mutex
}

// Option customises a Session
type Option func(*Session)

// WithClock replaces the clock that drives suggestion debouncing
func WithClock(c clock.Clock) Option {
	return func(s *Session) { s.clock = c }
}

// NewSession creates a session. suggester and recent may be nil.
func NewSession(cfg Config, suggester SuggestionProvider, provider Provider, recent RecentStore, bus eventbus.EventBus, opts ...Option) *Session {
	defaults := DefaultConfig()
	if cfg.Debounce <= 0 {
		cfg.Debounce = defaults.Debounce
	}
	if cfg.MinSuggestLength <= 0 {
		cfg.MinSuggestLength = defaults.MinSuggestLength
	}
	if cfg.RecentLimit <= 0 {
		cfg.RecentLimit = defaults.RecentLimit
	}
	if cfg.PageSize <= 0 {
		cfg.PageSize = defaults.PageSize
	}
	if bus == nil {
		bus = eventbus.Nop{}
	}

	s := &Session{
		cfg:         cfg,
		suggester:   suggester,
		provider:    provider,
		recentStore: recent,
		bus:         bus,
		clock:       clock.New(),
		filters:     domain.DefaultFilters(),
	}
	for _, opt := range opts {
		opt(s)
	}
	s.ctx, s.cancel = context.WithCancel(context.Background())
	s.debounce = newDebouncer(s.clock, cfg.Debounce)
	return s
}

// Close cancels any pending suggestion lookup
func (s *Session) Close() {
	s.debounce.Cancel()
	s.cancel()
}

// SetQuery updates the query text and schedules a debounced suggestion
// lookup. Text shorter than the minimum clears suggestions immediately.
func (s *Session) SetQuery(text string) {
	s.mu.Lock()
	s.query = text

	if utf8.RuneCountInString(strings.TrimSpace(text)) < s.cfg.MinSuggestLength {
		s.suggestSeq++
		changed := len(s.suggestions) > 0 || s.suggestErr != nil
		s.suggestions = nil
		s.suggestErr = nil
		s.mu.Unlock()

		s.debounce.Cancel()
		if changed {
			s.bus.Publish(domain.SuggestionsUpdatedEvent{Query: text})
		}
		return
	}
	s.mu.Unlock()

	if s.suggester == nil {
		return
	}
	s.debounce.Trigger(func() {
		s.FetchSuggestions(s.ctx, text)
	})
}

// FetchSuggestions asks the suggestion provider for completions of text.
// Only the most recently issued lookup may replace the list; a failed
// lookup keeps the previous suggestions.
func (s *Session) FetchSuggestions(ctx context.Context, text string) {
	if s.suggester == nil {
		return
	}

	s.mu.Lock()
	s.suggestSeq++
	seq := s.suggestSeq
	s.mu.Unlock()

	list, err := s.suggester.Suggest(ctx, text)

	s.mu.Lock()
	if seq != s.suggestSeq {
		s.mu.Unlock()
		log.WithField("query", text).Debug("Discarding superseded suggestions")
		return
	}
	if err != nil {
		s.suggestErr = err
		s.mu.Unlock()
		log.WithField("query", text).Warnf("Suggestion lookup failed: %v", err)
		s.bus.Publish(domain.SuggestionsFailedEvent{Query: text, Err: err})
		return
	}
	s.suggestions = append([]string(nil), list...)
	s.suggestErr = nil
	s.mu.Unlock()

	s.bus.Publish(domain.SuggestionsUpdatedEvent{Query: text, Suggestions: append([]string(nil), list...)})
}

// Search runs a full search. With reset the accumulated results are
// cleared and the first page is requested; otherwise the next page is
// appended. Failures are recorded on the session, never returned.
func (s *Session) Search(ctx context.Context, reset bool) {
	s.run(ctx, reset, false)
}

// LoadMore fetches the next page. It is a no-op while a search is in
// flight or when the last response reported no further pages.
func (s *Session) LoadMore(ctx context.Context) bool {
	return s.run(ctx, false, true)
}

func (s *Session) run(ctx context.Context, reset, guarded bool) bool {
	s.mu.Lock()
	if guarded && (s.loading > 0 || !s.hasMore) {
		s.mu.Unlock()
		return false
	}

	if reset {
		s.generation++
		s.results = nil
		s.page = 0
		s.hasMore = false
		s.err = nil
	}

	query := strings.TrimSpace(s.query)
	filters := s.filters
	if query == "" && filters.IsDefault() {
		s.mu.Unlock()
		log.Debug("Skipping search without query or filters")
		return false
	}

	gen := s.generation
	page := s.page + 1
	s.loading++
	s.mu.Unlock()

	logger := log.WithFields(log.Fields{"query": query, "page": page})
	logger.Info("Search started")
	s.bus.Publish(domain.SearchStartedEvent{Query: query, Page: page, Reset: reset})

	resp, err := s.provider.Search(ctx, Request{
		Query:    query,
		Filters:  filters,
		Page:     page,
		PageSize: s.cfg.PageSize,
	})

	s.mu.Lock()
	s.loading--
	if gen != s.generation || s.page+1 != page {
		s.mu.Unlock()
		logger.Debug("Discarding stale search response")
		return true
	}
	s.searched = true

	if err != nil {
		s.err = err
		s.mu.Unlock()
		logger.Warnf("Search failed: %v", err)
		s.bus.Publish(domain.SearchFailedEvent{Query: query, Page: page, Err: err})
		return true
	}

	s.err = nil
	s.results = append(s.results, resp.Results...)
	s.stats = domain.SearchStats{Total: resp.Total, Took: resp.Took, Facets: resp.Facets}
	s.page = page
	s.hasMore = resp.HasMore

	if query != "" {
		s.recent = pushRecent(s.recent, query, s.cfg.RecentLimit)
	}
	s.mu.Unlock()

	logger.Infof("Search completed: %d results, %d total", len(resp.Results), resp.Total)
	s.bus.Publish(domain.SearchCompletedEvent{
		Query:   query,
		Page:    page,
		Added:   len(resp.Results),
		Total:   resp.Total,
		HasMore: resp.HasMore,
	})

	if query != "" {
		s.persistRecent(ctx)
	}
	return true
}

// SetFilter changes one filter. It does not search.
func (s *Session) SetFilter(key domain.FilterKey, value string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.filters.Set(key, value)
}

// ClearFilters restores every filter to its default. It does not search.
func (s *Session) ClearFilters() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.filters = domain.DefaultFilters()
}

// Query returns the current query text
func (s *Session) Query() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.query
}

// Filters returns the current filter set
func (s *Session) Filters() domain.Filters {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.filters
}

// Suggestions returns the current suggestion list
func (s *Session) Suggestions() []string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]string(nil), s.suggestions...)
}

// Snapshot returns a copy of the whole session state
func (s *Session) Snapshot() State {
	s.mu.Lock()
	defer s.mu.Unlock()

	return State{
		Query:       s.query,
		Filters:     s.filters,
		Page:        s.page,
		Results:     append([]domain.Result(nil), s.results...),
		Stats:       s.stats,
		HasMore:     s.hasMore,
		Loading:     s.loading > 0,
		Searched:    s.searched,
		Err:         s.err,
		Suggestions: append([]string(nil), s.suggestions...),
		SuggestErr:  s.suggestErr,
		Recent:      append([]string(nil), s.recent...),
	}
}

// Recent returns the recent-query list, most recent first
func (s *Session) Recent() []string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]string(nil), s.recent...)
}

// LoadRecent reads the persisted recent-query list
func (s *Session) LoadRecent(ctx context.Context) error {
	if s.recentStore == nil {
		return nil
	}

	list, err := s.recentStore.Load(ctx)
	if err != nil {
		log.Warnf("Failed to load recent searches: %v", err)
		return err
	}

	s.mu.Lock()
	s.recent = normalizeRecent(list, s.cfg.RecentLimit)
	recent := append([]string(nil), s.recent...)
	s.mu.Unlock()

	s.bus.Publish(domain.RecentUpdatedEvent{Recent: recent})
	return nil
}

// ClearRecent empties the recent-query list and persists the empty list
func (s *Session) ClearRecent(ctx context.Context) error {
	s.mu.Lock()
	s.recent = nil
	s.mu.Unlock()
	return s.persistRecent(ctx)
}

// persistRecent publishes and saves the current recent list. Saves are
// serialized and each one snapshots the list after taking its turn, so an
// overlapping older save can never land last.
func (s *Session) persistRecent(ctx context.Context) error {
	s.saveMu.Lock()
	defer s.saveMu.Unlock()

	s.mu.Lock()
	recent := append([]string(nil), s.recent...)
	s.mu.Unlock()

	s.bus.Publish(domain.RecentUpdatedEvent{Recent: recent})
	if s.recentStore == nil {
		return nil
	}
	if err := s.recentStore.Save(ctx, recent); err != nil {
		log.Warnf("Failed to save recent searches: %v", err)
		return err
	}
	return nil
}
