package syncengine

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

type fakeAdapter struct {
	mutex sync.Mutex
	text  string
}

func (f *fakeAdapter) ReadText() (string, error) {
	f.mutex.Lock()
	defer f.mutex.Unlock()
	return f.text, nil
}

func (f *fakeAdapter) WriteText(text string) error {
	f.mutex.Lock()
	defer f.mutex.Unlock()
	f.text = text
	return nil
}

func (f *fakeAdapter) set(text string) {
	f.mutex.Lock()
	defer f.mutex.Unlock()
	f.text = text
}

func TestMonitorEmitsOnlyOnHashChange(t *testing.T) {
	adapter := &fakeAdapter{text: "hello"}
	mon := NewMonitor(adapter, 5*time.Millisecond)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	out := make(chan Change, 8)
	go mon.Run(ctx, out)

	select {
	case c := <-out:
		require.Equal(t, "hello", c.Content)
		require.True(t, c.IsLocal)
	case <-time.After(time.Second):
		t.Fatal("expected a change for the initial clipboard content")
	}

	select {
	case c := <-out:
		t.Fatalf("unexpected second change with no content change: %+v", c)
	case <-time.After(30 * time.Millisecond):
	}
}

func TestMonitorApplySuppressesNextPoll(t *testing.T) {
	adapter := &fakeAdapter{}
	mon := NewMonitor(adapter, 5*time.Millisecond)

	require.NoError(t, mon.Apply("from-peer"))

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	out := make(chan Change, 8)
	go mon.Run(ctx, out)

	select {
	case c := <-out:
		t.Fatalf("unexpected change after Apply pre-seeded the hash: %+v", c)
	case <-time.After(30 * time.Millisecond):
	}

	adapter.set("actually new")
	select {
	case c := <-out:
		require.Equal(t, "actually new", c.Content)
	case <-time.After(time.Second):
		t.Fatal("expected a change once content genuinely differs")
	}
}
