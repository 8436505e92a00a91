package eventbus

import (
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"courier/internal/domain"
)

func TestDeliveryIsOrdered(t *testing.T) {
	b := New()

	var (
		mu  sync.Mutex
		got []int
	)
	b.Subscribe(EventUploadProgress, func(e DomainEvent) {
		mu.Lock()
		defer mu.Unlock()
		got = append(got, e.(domain.UploadProgressEvent).Percent)
	})

	for i := 1; i <= 50; i++ {
		b.Publish(domain.UploadProgressEvent{ItemID: "a", Percent: i})
	}
	b.Close()

	mu.Lock()
	defer mu.Unlock()
	require.Len(t, got, 50)
	for i, p := range got {
		assert.Equal(t, i+1, p)
	}
}

func TestUnsubscribe(t *testing.T) {
	b := New()
	defer b.Close()

	calls := make(chan struct{}, 10)
	unsubscribe := b.Subscribe(EventQueueCleared, func(DomainEvent) { calls <- struct{}{} })

	b.Publish(domain.QueueClearedEvent{})
	require.Eventually(t, func() bool { return len(calls) == 1 }, time.Second, 5*time.Millisecond)

	unsubscribe()
	b.Publish(domain.QueueClearedEvent{})
	time.Sleep(20 * time.Millisecond)
	assert.Len(t, calls, 1)
}

func TestHandlerPanicDoesNotStopDispatch(t *testing.T) {
	b := New()

	var delivered bool
	b.Subscribe(EventError, func(DomainEvent) { panic("boom") })
	b.Subscribe(EventItemRemoved, func(DomainEvent) { delivered = true })

	b.Publish(domain.ErrorEvent{Message: "x"})
	b.Publish(domain.ItemRemovedEvent{ItemID: "a"})
	b.Close()

	assert.True(t, delivered)
}

func TestPublishAfterCloseIsDropped(t *testing.T) {
	b := New()
	b.Close()

	assert.NotPanics(t, func() { b.Publish(domain.QueueClearedEvent{}) })
}
