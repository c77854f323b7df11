package syncengine

import (
	"context"
	"sync"
	"time"

	"github.com/decentpaste/decentpaste/internal/cryptoprim"
)

// Adapter reads and writes the operating system's clipboard. It is a narrow
// seam deliberately left uninstantiated by this package — wiring a concrete
// adapter (X11/Wayland/AppKit/Win32) is a presentation-layer concern. Tests
// use an in-memory fake.
type Adapter interface {
	ReadText() (string, error)
	WriteText(text string) error
}

// Change describes one observed or applied clipboard value.
type Change struct {
	Content     string
	ContentHash string
	IsLocal     bool
}

// Monitor polls Adapter at PollInterval and reports a Change only when the
// observed hash differs from the last one this Monitor knows about, whether
// that value arrived locally (via Poll noticing a new clipboard write) or
// remotely (via SetLastHash after applying a synced update). This dual
// bookkeeping is the first of the two required echo-suppression mechanisms;
// EchoGuard's recent-received set is the second, and both must be consulted
// before broadcasting — dropping either reopens an echo loop.
type Monitor struct {
	adapter      Adapter
	pollInterval time.Duration

	mutex    sync.Mutex
	lastHash string
	running  bool
}

func NewMonitor(adapter Adapter, pollInterval time.Duration) *Monitor {
	return &Monitor{adapter: adapter, pollInterval: pollInterval}
}

func (m *Monitor) GetLastHash() string {
	m.mutex.Lock()
	defer m.mutex.Unlock()
	return m.lastHash
}

// SetLastHash records hash as already-known, without emitting a Change. The
// sync engine calls this immediately after writing a remotely-received
// value to the OS clipboard, so the next poll tick does not mistake that
// write for a new local change.
func (m *Monitor) SetLastHash(hash string) {
	m.mutex.Lock()
	defer m.mutex.Unlock()
	m.lastHash = hash
}

// Run polls the adapter until ctx is cancelled, sending a Change on out
// whenever the adapter's content hash differs from the last known hash.
// The channel send is blocking by design — callers are expected to keep up,
// since clipboard changes are rare relative to the poll interval.
func (m *Monitor) Run(ctx context.Context, out chan<- Change) {
	m.mutex.Lock()
	m.running = true
	m.mutex.Unlock()
	defer func() {
		m.mutex.Lock()
		m.running = false
		m.mutex.Unlock()
	}()

	ticker := time.NewTicker(m.pollInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			m.poll(ctx, out)
		}
	}
}

func (m *Monitor) poll(ctx context.Context, out chan<- Change) {
	text, err := m.adapter.ReadText()
	if err != nil || text == "" {
		return
	}
	hash := cryptoprim.HashContent(text)

	m.mutex.Lock()
	changed := hash != m.lastHash
	if changed {
		m.lastHash = hash
	}
	m.mutex.Unlock()

	if !changed {
		return
	}
	select {
	case out <- Change{Content: text, ContentHash: hash, IsLocal: true}:
	case <-ctx.Done():
	}
}

// Apply writes a remotely-received value to the OS clipboard and records its
// hash as known, suppressing the echo the next poll would otherwise see.
func (m *Monitor) Apply(content string) error {
	if err := m.adapter.WriteText(content); err != nil {
		return err
	}
	m.SetLastHash(cryptoprim.HashContent(content))
	return nil
}
