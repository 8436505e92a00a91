// Package app wires configuration, providers and the two workflows
// together for both entry points.
package app

import (
	"context"
	"errors"
	"fmt"

	log "github.com/sirupsen/logrus"
	"github.com/spf13/afero"

	"courier/internal/config"
	"courier/internal/domain"
	"courier/internal/eventbus"
	"courier/internal/providers"
	"courier/internal/recent"
	"courier/internal/search"
	"courier/internal/upload"
)

// App owns the long-lived components of a courier process
type App struct {
	Config  *config.Config
	Bus     eventbus.EventBus
	Fs      afero.Fs
	Queue   *upload.Queue
	Session *search.Session

	suggester *providers.CachedSuggester
	closers   []func() error
}

// New builds the upload queue and search session described by cfg.
// The caller owns bus and must close the App when done.
func New(ctx context.Context, cfg *config.Config, fs afero.Fs, bus eventbus.EventBus) (*App, error) {
	if bus == nil {
		bus = eventbus.Nop{}
	}
	a := &App{Config: cfg, Bus: bus, Fs: fs}

	queue, err := a.newQueue(ctx)
	if err != nil {
		return nil, err
	}
	a.Queue = queue

	session, err := a.newSession(ctx)
	if err != nil {
		_ = a.Close()
		return nil, err
	}
	a.Session = session

	return a, nil
}

func (a *App) newQueue(ctx context.Context) (*upload.Queue, error) {
	u := a.Config.Upload
	maxSize, err := u.MaxFileSizeBytes()
	if err != nil {
		return nil, err
	}

	uploader, err := providers.NewUploader(ctx, a.Config.Storage, a.Fs)
	if err != nil {
		return nil, fmt.Errorf("failed to create uploader: %w", err)
	}
	log.Printf("Uploads go to %s storage", a.Config.Storage.Provider)

	cfg := upload.Config{
		MaxCount: u.MaxFiles,
		Rules: upload.Rules{
			MaxSizePerFile:    maxSize,
			AllowedCategories: u.AllowedCategories,
		},
		AutoUpload:    u.AutoUpload,
		MaxConcurrent: u.MaxConcurrent,
		Target: domain.UploadTarget{
			ChannelID:   u.ChannelID,
			ServerID:    u.ServerID,
			Description: u.Description,
		},
	}
	return upload.NewQueue(cfg, providers.MimeValidator{}, providers.NewImagePreviewer(), uploader, a.Bus), nil
}

func (a *App) newSession(ctx context.Context) (*search.Session, error) {
	s := a.Config.Search

	provider, suggester, err := a.searchBackend()
	if err != nil {
		return nil, err
	}
	if s.SuggestionCacheSize > 0 && s.SuggestionCacheTTL > 0 {
		a.suggester = providers.NewCachedSuggester(suggester, s.SuggestionCacheSize, s.SuggestionCacheTTL.Std())
		suggester = a.suggester
	}

	store, closeStore, err := recent.Open(ctx, a.Config.Recent.Backend, a.Config.Recent.Path, a.Fs)
	if err != nil {
		return nil, fmt.Errorf("failed to open recent store: %w", err)
	}
	a.closers = append(a.closers, closeStore)

	session := search.NewSession(search.Config{
		Debounce:         s.Debounce.Std(),
		MinSuggestLength: s.MinSuggestLength,
		RecentLimit:      s.RecentLimit,
		PageSize:         s.PageSize,
	}, suggester, provider, store, a.Bus)

	if err := session.LoadRecent(ctx); err != nil {
		// a broken history must not keep search from working
		log.Warnf("Failed to load recent queries: %v", err)
	}
	return session, nil
}

func (a *App) searchBackend() (search.Provider, search.SuggestionProvider, error) {
	s := a.Config.Search
	switch s.Provider {
	case "http":
		client := providers.NewAPIClient(s.APIBaseURL, s.APIToken, s.Timeout.Std())
		log.Printf("Searching %s", s.APIBaseURL)
		return client, client, nil
	case "local", "":
		index, err := providers.OpenLocalIndex(a.Fs, s.Dataset)
		if err != nil {
			return nil, nil, fmt.Errorf("failed to open local index: %w", err)
		}
		a.closers = append(a.closers, index.Close)
		log.Printf("Searching local index with %d records", index.Len())
		return index, index, nil
	default:
		return nil, nil, fmt.Errorf("%w: search %q", providers.ErrUnknownProvider, s.Provider)
	}
}

// OpenFiles resolves paths into file handles. Paths that cannot be opened
// are returned as rejections keyed by path, like validation failures.
func (a *App) OpenFiles(paths []string) ([]domain.FileHandle, map[string]string) {
	files := make([]domain.FileHandle, 0, len(paths))
	rejected := make(map[string]string)
	for _, p := range paths {
		f, err := providers.OpenFile(a.Fs, p)
		if err != nil {
			log.Warnf("Cannot open %s: %v", p, err)
			rejected[p] = err.Error()
			continue
		}
		files = append(files, f)
	}
	return files, rejected
}

// PurgeSuggestions drops cached suggestions, if caching is enabled
func (a *App) PurgeSuggestions() {
	if a.suggester != nil {
		a.suggester.Purge()
	}
}

// Close stops the session and releases stores and indexes in reverse
// order of creation
func (a *App) Close() error {
	if a.Session != nil {
		a.Session.Close()
	}
	var errs []error
	for i := len(a.closers) - 1; i >= 0; i-- {
		if err := a.closers[i](); err != nil {
			errs = append(errs, err)
		}
	}
	a.closers = nil
	return errors.Join(errs...)
}
