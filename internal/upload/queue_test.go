package upload

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"courier/internal/domain"
	"courier/internal/eventbus"
)

type sizeValidator struct{}

func (sizeValidator) Validate(file domain.FileHandle, rules Rules) []string {
	if rules.MaxSizePerFile > 0 && file.Size > rules.MaxSizePerFile {
		return []string{fmt.Sprintf("%s exceeds %d bytes", file.Name, rules.MaxSizePerFile)}
	}
	return nil
}

type failingPreviewer struct{}

func (failingPreviewer) CreatePreview(context.Context, domain.FileHandle) (string, error) {
	return "", errors.New("decode failed")
}

type stubPreviewer struct{}

func (stubPreviewer) CreatePreview(_ context.Context, f domain.FileHandle) (string, error) {
	return "preview:" + f.Name, nil
}

// scriptedUploader resolves uploads from a queue of results and reports the
// configured progress steps before resolving.
type scriptedUploader struct {
	mu       sync.Mutex
	results  []Result
	errs     []error
	steps    []int
	calls    int
	inFlight atomic.Int32
	peak     atomic.Int32
	hold     chan struct{}
}

func (u *scriptedUploader) Upload(ctx context.Context, f domain.FileHandle, opts Options) (Result, error) {
	return u.UploadWithProgress(ctx, f, opts, func(int) {})
}

func (u *scriptedUploader) UploadWithProgress(ctx context.Context, f domain.FileHandle, _ Options, onProgress func(int)) (Result, error) {
	n := u.inFlight.Add(1)
	defer u.inFlight.Add(-1)
	for {
		p := u.peak.Load()
		if n <= p || u.peak.CompareAndSwap(p, n) {
			break
		}
	}

	if u.hold != nil {
		select {
		case <-u.hold:
		case <-ctx.Done():
			return Result{}, ctx.Err()
		}
	}

	for _, s := range u.steps {
		onProgress(s)
	}

	u.mu.Lock()
	defer u.mu.Unlock()
	i := u.calls
	u.calls++
	if i < len(u.errs) && u.errs[i] != nil {
		return Result{}, u.errs[i]
	}
	if i < len(u.results) {
		return u.results[i], nil
	}
	return Result{Success: true, URL: "https://cdn.example/" + f.Name}, nil
}

func file(name string, size int64) domain.FileHandle {
	return domain.FileHandle{Name: name, Size: size, MediaType: "image/png"}
}

func sequentialIDs() Option {
	var n int
	return WithIDGenerator(func() string {
		n++
		return fmt.Sprintf("item-%d", n)
	})
}

func TestSelectFilesRejectsInvalidFiles(t *testing.T) {
	q := NewQueue(Config{MaxCount: 10, Rules: Rules{MaxSizePerFile: 100}}, sizeValidator{}, nil, &scriptedUploader{}, nil, sequentialIDs())

	sel := q.SelectFiles(context.Background(), []domain.FileHandle{
		file("one.png", 10),
		file("two.png", 500),
		file("three.png", 20),
	})

	require.Len(t, sel.Accepted, 2)
	assert.Equal(t, "one.png", sel.Accepted[0].File.Name)
	assert.Equal(t, "three.png", sel.Accepted[1].File.Name)
	require.Len(t, sel.Rejected, 1)
	assert.Contains(t, sel.Rejected["two.png"], "exceeds")

	items := q.Items()
	require.Len(t, items, 2)
	for _, it := range items {
		assert.Equal(t, domain.StatusPending, it.Status)
		assert.NotEqual(t, "two.png", it.File.Name)
	}
}

func TestSelectFilesKeysRejectionsByPath(t *testing.T) {
	q := NewQueue(Config{MaxCount: 10, Rules: Rules{MaxSizePerFile: 100}}, sizeValidator{}, nil, &scriptedUploader{}, nil, sequentialIDs())

	first := file("big.png", 500)
	first.Path = "/a/big.png"
	second := file("big.png", 700)
	second.Path = "/b/big.png"

	sel := q.SelectFiles(context.Background(), []domain.FileHandle{first, second, file("mem.png", 900)})
	assert.Empty(t, sel.Accepted)
	require.Len(t, sel.Rejected, 3)
	assert.Contains(t, sel.Rejected["/a/big.png"], "exceeds")
	assert.Contains(t, sel.Rejected["/b/big.png"], "exceeds")
	assert.Contains(t, sel.Rejected["mem.png"], "exceeds")
}

func TestSelectFilesTruncatesToRemainingCapacity(t *testing.T) {
	q := NewQueue(Config{MaxCount: 4}, nil, nil, &scriptedUploader{}, nil, sequentialIDs())

	first := q.SelectFiles(context.Background(), []domain.FileHandle{file("a", 1), file("b", 1)})
	require.Len(t, first.Accepted, 2)

	second := q.SelectFiles(context.Background(), []domain.FileHandle{file("c", 1), file("d", 1), file("e", 1)})
	require.Len(t, second.Accepted, 2)
	assert.Equal(t, "c", second.Accepted[0].File.Name)
	assert.Equal(t, "d", second.Accepted[1].File.Name)
	assert.Equal(t, 1, second.Dropped)
	assert.Equal(t, 4, q.Len())
	assert.Equal(t, 0, q.Remaining())

	third := q.SelectFiles(context.Background(), []domain.FileHandle{file("f", 1)})
	assert.Empty(t, third.Accepted)
	assert.Equal(t, 1, third.Dropped)
}

func TestSelectFilesPreviewFailureIsNotFatal(t *testing.T) {
	q := NewQueue(Config{}, nil, failingPreviewer{}, &scriptedUploader{}, nil)

	sel := q.SelectFiles(context.Background(), []domain.FileHandle{file("a.png", 1)})
	require.Len(t, sel.Accepted, 1)
	assert.False(t, sel.Accepted[0].HasPreview())

	q = NewQueue(Config{}, nil, stubPreviewer{}, &scriptedUploader{}, nil)
	sel = q.SelectFiles(context.Background(), []domain.FileHandle{file("b.png", 1)})
	require.Len(t, sel.Accepted, 1)
	assert.Equal(t, "preview:b.png", sel.Accepted[0].Preview)
}

func TestSelectFilesNotifiesListener(t *testing.T) {
	q := NewQueue(Config{}, nil, nil, &scriptedUploader{}, nil, sequentialIDs())

	var got []domain.UploadItem
	q.OnSelect(func(items []domain.UploadItem) { got = items })

	q.SelectFiles(context.Background(), []domain.FileHandle{file("a", 1), file("b", 1)})
	require.Len(t, got, 2)
	assert.Equal(t, "item-1", got[0].ID)
	assert.Equal(t, "item-2", got[1].ID)
}

func TestUploadOneSuccess(t *testing.T) {
	up := &scriptedUploader{steps: []int{10, 50, 30, 120}}
	q := NewQueue(Config{}, nil, nil, up, nil, sequentialIDs())
	q.SelectFiles(context.Background(), []domain.FileHandle{file("a.png", 1)})

	item, err := q.UploadOne(context.Background(), "item-1")
	require.NoError(t, err)
	assert.Equal(t, domain.StatusUploaded, item.Status)
	assert.Equal(t, "https://cdn.example/a.png", item.RemoteURL)
	assert.Empty(t, item.Error)
	assert.Equal(t, 100, item.Progress)
	assert.Equal(t, 1, item.Attempts)
}

func TestUploadOneFailureThenRetry(t *testing.T) {
	up := &scriptedUploader{results: []Result{{Success: false, Error: "disk full"}}}
	q := NewQueue(Config{}, nil, nil, up, nil, sequentialIDs())
	q.SelectFiles(context.Background(), []domain.FileHandle{file("a.png", 1)})

	item, err := q.UploadOne(context.Background(), "item-1")
	require.NoError(t, err)
	assert.Equal(t, domain.StatusFailed, item.Status)
	assert.Equal(t, "disk full", item.Error)
	assert.Empty(t, item.RemoteURL)

	item, err = q.UploadOne(context.Background(), "item-1")
	require.NoError(t, err)
	assert.Equal(t, domain.StatusUploaded, item.Status)
	assert.Empty(t, item.Error)
	assert.NotEmpty(t, item.RemoteURL)
	assert.Equal(t, 2, item.Attempts)
}

func TestUploadOneUploaderError(t *testing.T) {
	up := &scriptedUploader{errs: []error{errors.New("connection reset")}}
	q := NewQueue(Config{}, nil, nil, up, nil, sequentialIDs())
	q.SelectFiles(context.Background(), []domain.FileHandle{file("a.png", 1)})

	item, err := q.UploadOne(context.Background(), "item-1")
	require.NoError(t, err)
	assert.Equal(t, domain.StatusFailed, item.Status)
	assert.Equal(t, "connection reset", item.Error)
}

func TestUploadOneSuccessWithoutLocationFails(t *testing.T) {
	up := &scriptedUploader{results: []Result{{Success: true}}}
	q := NewQueue(Config{}, nil, nil, up, nil, sequentialIDs())
	q.SelectFiles(context.Background(), []domain.FileHandle{file("a.png", 1)})

	item, err := q.UploadOne(context.Background(), "item-1")
	require.NoError(t, err)
	assert.Equal(t, domain.StatusFailed, item.Status)
	assert.Equal(t, "uploader returned no location", item.Error)
	assert.Empty(t, item.RemoteURL)
	assert.True(t, item.Retryable())
}

func TestUploadOneUnknownAndCompleted(t *testing.T) {
	up := &scriptedUploader{}
	q := NewQueue(Config{}, nil, nil, up, nil, sequentialIDs())

	_, err := q.UploadOne(context.Background(), "missing")
	require.ErrorIs(t, err, ErrItemNotFound)

	q.SelectFiles(context.Background(), []domain.FileHandle{file("a.png", 1)})
	_, err = q.UploadOne(context.Background(), "item-1")
	require.NoError(t, err)

	item, err := q.UploadOne(context.Background(), "item-1")
	require.NoError(t, err)
	assert.Equal(t, domain.StatusUploaded, item.Status)
	assert.Equal(t, 1, item.Attempts, "uploaded item must not be re-sent")
	assert.Equal(t, 1, up.calls)
}

func TestUploadOneWithoutUploaderFails(t *testing.T) {
	q := NewQueue(Config{}, nil, nil, nil, nil, sequentialIDs())
	q.SelectFiles(context.Background(), []domain.FileHandle{file("a.png", 1)})

	item, err := q.UploadOne(context.Background(), "item-1")
	require.NoError(t, err)
	assert.Equal(t, domain.StatusFailed, item.Status)
	assert.Equal(t, ErrNoUploader.Error(), item.Error)
}

func TestProgressIsMonotonicAndPublished(t *testing.T) {
	bus := eventbus.New()
	defer bus.Close()

	var (
		mu       sync.Mutex
		progress []int
	)
	bus.Subscribe(eventbus.EventUploadProgress, func(e eventbus.DomainEvent) {
		mu.Lock()
		defer mu.Unlock()
		progress = append(progress, e.(domain.UploadProgressEvent).Percent)
	})

	up := &scriptedUploader{steps: []int{-5, 20, 10, 20, 60, 150}}
	q := NewQueue(Config{}, nil, nil, up, bus, sequentialIDs())
	q.SelectFiles(context.Background(), []domain.FileHandle{file("a.png", 1)})
	_, err := q.UploadOne(context.Background(), "item-1")
	require.NoError(t, err)

	require.Eventually(t, func() bool {
		mu.Lock()
		defer mu.Unlock()
		return len(progress) == 3
	}, time.Second, 10*time.Millisecond)

	mu.Lock()
	defer mu.Unlock()
	assert.Equal(t, []int{20, 60, 100}, progress)
}

func TestProgressResetsOnRetry(t *testing.T) {
	hold := make(chan struct{})
	up := &scriptedUploader{results: []Result{{Error: "nope"}}, steps: []int{80}}
	q := NewQueue(Config{}, nil, nil, up, nil, sequentialIDs())
	q.SelectFiles(context.Background(), []domain.FileHandle{file("a.png", 1)})

	_, err := q.UploadOne(context.Background(), "item-1")
	require.NoError(t, err)

	up.hold = hold
	done := make(chan struct{})
	go func() {
		defer close(done)
		_, _ = q.UploadOne(context.Background(), "item-1")
	}()

	require.Eventually(t, func() bool {
		it, _ := q.Get("item-1")
		return it.Status == domain.StatusUploading
	}, time.Second, 5*time.Millisecond)

	it, _ := q.Get("item-1")
	assert.Equal(t, 0, it.Progress)
	assert.Empty(t, it.Error)

	close(hold)
	<-done
	it, _ = q.Get("item-1")
	assert.Equal(t, domain.StatusUploaded, it.Status)
}

func TestUploadAllSkipsUploadedItems(t *testing.T) {
	up := &scriptedUploader{results: []Result{{Success: true, URL: "u1"}, {Error: "bad"}}}
	q := NewQueue(Config{}, nil, nil, up, nil, sequentialIDs())
	q.SelectFiles(context.Background(), []domain.FileHandle{file("a", 1), file("b", 1)})

	_, err := q.UploadOne(context.Background(), "item-1")
	require.NoError(t, err)
	_, err = q.UploadOne(context.Background(), "item-2")
	require.NoError(t, err)

	n := q.UploadAll(context.Background())
	assert.Equal(t, 1, n)

	counts := q.Counts()
	assert.Equal(t, 2, counts[domain.StatusUploaded])
	assert.Zero(t, counts[domain.StatusFailed])
}

func TestUploadAllRespectsConcurrencyCap(t *testing.T) {
	up := &scriptedUploader{hold: make(chan struct{})}
	q := NewQueue(Config{MaxConcurrent: 2}, nil, nil, up, nil, sequentialIDs())
	q.SelectFiles(context.Background(), []domain.FileHandle{file("a", 1), file("b", 1), file("c", 1), file("d", 1)})

	done := make(chan int)
	go func() { done <- q.UploadAll(context.Background()) }()

	require.Eventually(t, func() bool { return up.inFlight.Load() == 2 }, time.Second, 5*time.Millisecond)
	close(up.hold)

	assert.Equal(t, 4, <-done)
	assert.Equal(t, int32(2), up.peak.Load())
	assert.Equal(t, 4, q.Counts()[domain.StatusUploaded])
}

func TestAutoUploadOnSelect(t *testing.T) {
	up := &scriptedUploader{}
	q := NewQueue(Config{AutoUpload: true}, nil, nil, up, nil, sequentialIDs())

	q.SelectFiles(context.Background(), []domain.FileHandle{file("a", 1), file("b", 1)})
	q.Wait()

	assert.Equal(t, 2, q.Counts()[domain.StatusUploaded])
}

func TestRemoveCancelsInFlightUpload(t *testing.T) {
	up := &scriptedUploader{hold: make(chan struct{})}
	q := NewQueue(Config{}, nil, nil, up, nil, sequentialIDs())
	q.SelectFiles(context.Background(), []domain.FileHandle{file("a", 1), file("b", 1)})

	errCh := make(chan error, 1)
	go func() {
		_, err := q.UploadOne(context.Background(), "item-1")
		errCh <- err
	}()
	require.Eventually(t, func() bool { return up.inFlight.Load() == 1 }, time.Second, 5*time.Millisecond)

	assert.True(t, q.Remove("item-1"))
	assert.False(t, q.Remove("item-1"))
	require.ErrorIs(t, <-errCh, ErrItemNotFound)

	items := q.Items()
	require.Len(t, items, 1)
	assert.Equal(t, "item-2", items[0].ID)
}

func TestClear(t *testing.T) {
	q := NewQueue(Config{MaxCount: 2}, nil, nil, &scriptedUploader{}, nil, sequentialIDs())
	q.SelectFiles(context.Background(), []domain.FileHandle{file("a", 1), file("b", 1)})

	assert.Equal(t, 2, q.Clear())
	assert.Zero(t, q.Len())
	assert.Equal(t, 2, q.Remaining())
}
