package upload

import (
	"context"
	"errors"
	"math"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	log "github.com/sirupsen/logrus"
	"golang.org/x/sync/errgroup"
	"golang.org/x/sync/semaphore"

	"courier/internal/domain"
	"courier/internal/eventbus"
)

type entry struct {
	item    domain.UploadItem
	attempt int
	cancel  context.CancelFunc
}

// Queue stages selected files and drives their uploads.
// It is safe for concurrent use.
type Queue struct {
	mu      sync.Mutex
	cfg     Config
	order   []string
	entries map[string]*entry

	validator Validator
	previewer PreviewGenerator
	uploader  Uploader
	bus       eventbus.EventBus
	sem       *semaphore.Weighted
	listener  func([]domain.UploadItem)

	newID func() string
	now   func() time.Time
	wg    sync.WaitGroup
}

// Option customises a Queue
type Option func(*Queue)

// WithIDGenerator overrides how item ids are minted
func WithIDGenerator(fn func() string) Option {
	return func(q *Queue) { q.newID = fn }
}

// WithClock overrides the time source used for AddedAt
func WithClock(now func() time.Time) Option {
	return func(q *Queue) { q.now = now }
}

// NewQueue creates a queue. validator and previewer may be nil.
func NewQueue(cfg Config, validator Validator, previewer PreviewGenerator, uploader Uploader, bus eventbus.EventBus, opts ...Option) *Queue {
	if bus == nil {
		bus = eventbus.Nop{}
	}

	q := &Queue{
		cfg:       cfg,
		entries:   make(map[string]*entry),
		validator: validator,
		previewer: previewer,
		uploader:  uploader,
		bus:       bus,
		newID:     uuid.NewString,
		now:       time.Now,
	}
	if cfg.MaxConcurrent > 0 {
		q.sem = semaphore.NewWeighted(int64(cfg.MaxConcurrent))
	}
	for _, opt := range opts {
		opt(q)
	}
	return q
}

// OnSelect registers the listener that receives every committed selection
func (q *Queue) OnSelect(fn func([]domain.UploadItem)) {
	q.mu.Lock()
	defer q.mu.Unlock()
	q.listener = fn
}

// SetTarget changes the destination used by subsequent uploads
func (q *Queue) SetTarget(target domain.UploadTarget) {
	q.mu.Lock()
	defer q.mu.Unlock()
	q.cfg.Target = target
}

// Config returns the queue configuration
func (q *Queue) Config() Config {
	q.mu.Lock()
	defer q.mu.Unlock()
	return q.cfg
}

// SelectFiles validates files, truncates the accepted ones to the free
// capacity, generates previews and commits them as pending items.
// Validation failures never touch queue state.
func (q *Queue) SelectFiles(ctx context.Context, files []domain.FileHandle) Selection {
	sel := Selection{Rejected: make(map[string]string)}

	valid := make([]domain.FileHandle, 0, len(files))
	for _, f := range files {
		if q.validator != nil {
			if violations := q.validator.Validate(f, q.cfg.Rules); len(violations) > 0 {
				reason := strings.Join(violations, "; ")
				sel.Rejected[f.Key()] = reason
				log.WithField("file", f.Key()).Infof("File rejected: %s", reason)
				continue
			}
		}
		valid = append(valid, f)
	}

	if room := q.Remaining(); len(valid) > room {
		sel.Dropped = len(valid) - room
		valid = valid[:room]
	}

	items := make([]domain.UploadItem, 0, len(valid))
	for _, f := range valid {
		item := domain.UploadItem{
			ID:      q.newID(),
			File:    f,
			Status:  domain.StatusPending,
			AddedAt: q.now(),
		}
		if q.previewer != nil {
			preview, err := q.previewer.CreatePreview(ctx, f)
			if err != nil {
				log.WithField("file", f.Name).Debugf("No preview: %v", err)
			} else {
				item.Preview = preview
			}
		}
		items = append(items, item)
	}

	// Capacity may have shrunk while previews were generated
	q.mu.Lock()
	if room := q.remainingLocked(); len(items) > room {
		sel.Dropped += len(items) - room
		items = items[:room]
	}
	for _, item := range items {
		q.entries[item.ID] = &entry{item: item}
		q.order = append(q.order, item.ID)
	}
	listener := q.listener
	autoUpload := q.cfg.AutoUpload
	q.mu.Unlock()

	if sel.Dropped > 0 {
		log.Warnf("Selection exceeded queue capacity, dropped %d file(s)", sel.Dropped)
	}

	sel.Accepted = items
	if listener != nil {
		listener(append([]domain.UploadItem(nil), items...))
	}
	q.bus.Publish(domain.FilesSelectedEvent{
		Items:    append([]domain.UploadItem(nil), items...),
		Rejected: sel.Rejected,
		Dropped:  sel.Dropped,
	})

	if autoUpload {
		uploadCtx := context.WithoutCancel(ctx)
		for _, item := range items {
			q.startAsync(uploadCtx, item.ID)
		}
	}

	return sel
}

// UploadOne uploads a single item. Items that are uploading or already
// uploaded are left untouched. Upload failures are recorded on the item;
// the only error returned is ErrItemNotFound.
func (q *Queue) UploadOne(ctx context.Context, id string) (domain.UploadItem, error) {
	q.mu.Lock()
	e, ok := q.entries[id]
	if !ok {
		q.mu.Unlock()
		return domain.UploadItem{}, ErrItemNotFound
	}
	if !e.item.Retryable() {
		item := e.item
		q.mu.Unlock()
		return item, nil
	}

	e.attempt++
	attempt := e.attempt
	uploadCtx, cancel := context.WithCancel(ctx)
	e.cancel = cancel
	e.item.Status = domain.StatusUploading
	e.item.Progress = 0
	e.item.RemoteURL = ""
	e.item.Error = ""
	e.item.Attempts = attempt
	file := e.item.File
	opts := Options{Target: q.cfg.Target, ContentType: file.MediaType}
	q.wg.Add(1)
	q.mu.Unlock()

	defer q.wg.Done()
	defer cancel()

	log.WithFields(log.Fields{"item": id, "file": file.Name, "attempt": attempt}).Info("Upload started")
	q.bus.Publish(domain.UploadStartedEvent{ItemID: id, Attempt: attempt})

	if q.uploader == nil {
		return q.finish(id, attempt, Result{}, ErrNoUploader)
	}

	if q.sem != nil {
		if err := q.sem.Acquire(uploadCtx, 1); err != nil {
			return q.finish(id, attempt, Result{}, err)
		}
		defer q.sem.Release(1)
	}

	var (
		res Result
		err error
	)
	if pu, ok := q.uploader.(ProgressUploader); ok {
		res, err = pu.UploadWithProgress(uploadCtx, file, opts, func(percent int) {
			q.progress(id, attempt, percent)
		})
	} else {
		res, err = q.uploader.Upload(uploadCtx, file, opts)
	}
	return q.finish(id, attempt, res, err)
}

// UploadAll uploads every pending or failed item concurrently and waits
// for them. It returns how many items were submitted.
func (q *Queue) UploadAll(ctx context.Context) int {
	q.mu.Lock()
	ids := make([]string, 0, len(q.order))
	for _, id := range q.order {
		if q.entries[id].item.Retryable() {
			ids = append(ids, id)
		}
	}
	q.mu.Unlock()

	var g errgroup.Group
	for _, id := range ids {
		g.Go(func() error {
			_, err := q.UploadOne(ctx, id)
			if errors.Is(err, ErrItemNotFound) {
				// removed while waiting
				return nil
			}
			return err
		})
	}
	if err := g.Wait(); err != nil {
		log.Errorf("Upload all: %v", err)
	}
	return len(ids)
}

// Remove deletes an item regardless of status. An in-flight transfer is
// cancelled on a best-effort basis.
func (q *Queue) Remove(id string) bool {
	q.mu.Lock()
	e, ok := q.entries[id]
	if !ok {
		q.mu.Unlock()
		return false
	}
	delete(q.entries, id)
	for i, oid := range q.order {
		if oid == id {
			q.order = append(q.order[:i:i], q.order[i+1:]...)
			break
		}
	}
	if e.cancel != nil {
		e.cancel()
	}
	q.mu.Unlock()

	q.bus.Publish(domain.ItemRemovedEvent{ItemID: id})
	return true
}

// Clear removes every item and returns how many were removed
func (q *Queue) Clear() int {
	q.mu.Lock()
	n := len(q.order)
	for _, e := range q.entries {
		if e.cancel != nil {
			e.cancel()
		}
	}
	q.entries = make(map[string]*entry)
	q.order = nil
	q.mu.Unlock()

	q.bus.Publish(domain.QueueClearedEvent{Removed: n})
	return n
}

// Items returns a snapshot of all items in selection order
func (q *Queue) Items() []domain.UploadItem {
	q.mu.Lock()
	defer q.mu.Unlock()

	items := make([]domain.UploadItem, 0, len(q.order))
	for _, id := range q.order {
		items = append(items, q.entries[id].item)
	}
	return items
}

// Get returns a snapshot of one item
func (q *Queue) Get(id string) (domain.UploadItem, bool) {
	q.mu.Lock()
	defer q.mu.Unlock()

	e, ok := q.entries[id]
	if !ok {
		return domain.UploadItem{}, false
	}
	return e.item, true
}

// Len returns the number of queued items
func (q *Queue) Len() int {
	q.mu.Lock()
	defer q.mu.Unlock()
	return len(q.order)
}

// Counts returns the number of items per status
func (q *Queue) Counts() map[domain.UploadStatus]int {
	q.mu.Lock()
	defer q.mu.Unlock()

	counts := make(map[domain.UploadStatus]int)
	for _, e := range q.entries {
		counts[e.item.Status]++
	}
	return counts
}

// Remaining returns how many more items the queue accepts
func (q *Queue) Remaining() int {
	q.mu.Lock()
	defer q.mu.Unlock()
	return q.remainingLocked()
}

// Wait blocks until every upload started so far has finished
func (q *Queue) Wait() {
	q.wg.Wait()
}

func (q *Queue) remainingLocked() int {
	if q.cfg.MaxCount <= 0 {
		return math.MaxInt
	}
	if room := q.cfg.MaxCount - len(q.order); room > 0 {
		return room
	}
	return 0
}

func (q *Queue) startAsync(ctx context.Context, id string) {
	q.wg.Add(1)
	go func() {
		defer q.wg.Done()
		if _, err := q.UploadOne(ctx, id); err != nil {
			log.WithField("item", id).Warnf("Auto upload skipped: %v", err)
		}
	}()
}

// progress applies a progress notification from the given attempt.
// Values are clamped to [0,100] and never move backwards.
func (q *Queue) progress(id string, attempt, percent int) {
	percent = min(max(percent, 0), 100)

	q.mu.Lock()
	e, ok := q.entries[id]
	if !ok || e.attempt != attempt || e.item.Status != domain.StatusUploading || percent <= e.item.Progress {
		q.mu.Unlock()
		return
	}
	e.item.Progress = percent
	q.mu.Unlock()

	q.bus.Publish(domain.UploadProgressEvent{ItemID: id, Percent: percent})
}

func (q *Queue) finish(id string, attempt int, res Result, err error) (domain.UploadItem, error) {
	q.mu.Lock()
	e, ok := q.entries[id]
	if !ok || e.attempt != attempt {
		q.mu.Unlock()
		log.WithField("item", id).Debug("Discarding result of a removed or superseded upload")
		return domain.UploadItem{}, ErrItemNotFound
	}
	e.cancel = nil

	reason := ""
	switch {
	case err != nil:
		reason = err.Error()
	case !res.Success:
		reason = res.Error
		if reason == "" {
			reason = "upload failed"
		}
	case res.URL == "":
		reason = "uploader returned no location"
	}

	if reason != "" {
		e.item.Status = domain.StatusFailed
		e.item.Error = reason
		e.item.RemoteURL = ""
	} else {
		e.item.Status = domain.StatusUploaded
		e.item.RemoteURL = res.URL
		e.item.Error = ""
		e.item.Progress = 100
	}
	item := e.item
	q.mu.Unlock()

	if reason != "" {
		log.WithFields(log.Fields{"item": id, "file": item.File.Name}).Warnf("Upload failed: %s", reason)
		q.bus.Publish(domain.UploadFailedEvent{ItemID: id, Reason: reason})
	} else {
		log.WithFields(log.Fields{"item": id, "file": item.File.Name}).Infof("Upload completed: %s", item.RemoteURL)
		q.bus.Publish(domain.UploadCompletedEvent{ItemID: id, RemoteURL: item.RemoteURL})
	}
	return item, nil
}
