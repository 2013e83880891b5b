package playback

import (
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDispatcher_SerializesInOrder(t *testing.T) {
	d := NewDispatcher(16)
	defer d.Close()

	var mu sync.Mutex
	var got []int
	var wg sync.WaitGroup

	for i := 0; i < 10; i++ {
		i := i
		wg.Add(1)
		ok := d.Enqueue("press", func() error {
			defer wg.Done()
			mu.Lock()
			got = append(got, i)
			mu.Unlock()
			return nil
		})
		require.True(t, ok)
	}

	wg.Wait()
	assert.Equal(t, []int{0, 1, 2, 3, 4, 5, 6, 7, 8, 9}, got)
}

func TestDispatcher_EnqueueNeverBlocks(t *testing.T) {
	d := NewDispatcher(1)
	defer d.Close()

	block := make(chan struct{})
	started := make(chan struct{})
	d.Enqueue("slow", func() error {
		close(started)
		<-block
		return nil
	})
	<-started

	// Fill the queue, then overflow it; the overflowing press is dropped,
	// not blocked on.
	require.True(t, d.Enqueue("queued", func() error { return nil }))

	done := make(chan bool, 1)
	go func() { done <- d.Enqueue("overflow", func() error { return nil }) }()

	select {
	case accepted := <-done:
		assert.False(t, accepted)
	case <-time.After(time.Second):
		t.Fatal("Enqueue blocked on a full queue")
	}

	close(block)
}

func TestDispatcher_CloseRejectsFurtherPresses(t *testing.T) {
	d := NewDispatcher(4)
	d.Close()

	assert.False(t, d.Enqueue("late", func() error { return nil }))
}
