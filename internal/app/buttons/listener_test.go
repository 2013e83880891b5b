package buttons

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// fakeProvider feeds canned events to the listener.
type fakeProvider struct {
	ch chan Event
}

func newFakeProvider() *fakeProvider {
	return &fakeProvider{ch: make(chan Event, 16)}
}

func (f *fakeProvider) Start(ctx context.Context) error { <-ctx.Done(); return ctx.Err() }
func (f *fakeProvider) Events() <-chan Event            { return f.ch }
func (f *fakeProvider) Close() error                    { close(f.ch); return nil }

// recordingHandler counts handler invocations.
type recordingHandler struct {
	mu    sync.Mutex
	calls []string
}

func (h *recordingHandler) record(name string) error {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.calls = append(h.calls, name)
	return nil
}

func (h *recordingHandler) PlayPause() error { return h.record("play-pause") }
func (h *recordingHandler) Next() error      { return h.record("next") }
func (h *recordingHandler) Prev() error      { return h.record("prev") }

func (h *recordingHandler) snapshot() []string {
	h.mu.Lock()
	defer h.mu.Unlock()
	return append([]string(nil), h.calls...)
}

// directDispatch runs the handler inline; listener tests don't need the
// playback actor.
func directDispatch(name string, fn func() error) bool {
	_ = fn()
	return true
}

func runListener(t *testing.T, l *Listener, provider *fakeProvider, events ...Event) {
	t.Helper()
	for _, ev := range events {
		provider.ch <- ev
	}
	provider.Close()
	require.NoError(t, l.Run(context.Background()))
}

func TestListener_DispatchesByButton(t *testing.T) {
	provider := newFakeProvider()
	handler := &recordingHandler{}
	l := NewListener(provider, directDispatch, handler, 200*time.Millisecond)

	base := time.Now()
	runListener(t, l, provider,
		Event{Button: ButtonPlayPause, At: base},
		Event{Button: ButtonNext, At: base.Add(time.Second)},
		Event{Button: ButtonPrev, At: base.Add(2 * time.Second)},
	)

	assert.Equal(t, []string{"play-pause", "next", "prev"}, handler.snapshot())
}

func TestListener_GuardInterval(t *testing.T) {
	provider := newFakeProvider()
	handler := &recordingHandler{}
	l := NewListener(provider, directDispatch, handler, 200*time.Millisecond)

	base := time.Now()
	runListener(t, l, provider,
		Event{Button: ButtonPlayPause, At: base},
		// Double-fire 50ms later: suppressed.
		Event{Button: ButtonPlayPause, At: base.Add(50 * time.Millisecond)},
		// A different button inside the window is independent.
		Event{Button: ButtonNext, At: base.Add(60 * time.Millisecond)},
		// Past the window: accepted again.
		Event{Button: ButtonPlayPause, At: base.Add(250 * time.Millisecond)},
	)

	assert.Equal(t, []string{"play-pause", "next", "play-pause"}, handler.snapshot())
}

func TestListener_NeverBlocksOnDispatch(t *testing.T) {
	provider := newFakeProvider()
	handler := &recordingHandler{}

	// A dispatcher that always refuses; the listener must still drain all
	// events and return.
	refusing := func(name string, fn func() error) bool { return false }
	l := NewListener(provider, refusing, handler, 0)

	base := time.Now()
	done := make(chan struct{})
	go func() {
		defer close(done)
		runListener(t, l, provider,
			Event{Button: ButtonPlayPause, At: base},
			Event{Button: ButtonNext, At: base.Add(time.Second)},
		)
	}()

	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("listener blocked on dispatch")
	}
	assert.Empty(t, handler.snapshot())
}

func TestListener_StopsOnContextCancel(t *testing.T) {
	provider := newFakeProvider()
	l := NewListener(provider, directDispatch, &recordingHandler{}, 0)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- l.Run(ctx) }()

	cancel()
	select {
	case err := <-done:
		assert.ErrorIs(t, err, context.Canceled)
	case <-time.After(time.Second):
		t.Fatal("listener did not stop on cancel")
	}
}

func TestButton_String(t *testing.T) {
	assert.Equal(t, "play-pause", ButtonPlayPause.String())
	assert.Equal(t, "next", ButtonNext.String())
	assert.Equal(t, "prev", ButtonPrev.String())
	assert.Equal(t, "unknown", Button(99).String())
}
