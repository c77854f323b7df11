// Package syncengine implements the parts of synchronization that are not
// wire I/O: echo suppression, chronological deduplicated history insertion,
// and the per-recipient offline buffer behind pull-based resync.
package syncengine

import (
	"sync"
	"time"
)

const (
	recentReceivedTTL      = 10 * time.Second
	recentReceivedCapacity = 100
)

// EchoGuard implements the two-mechanism echo-suppression contract: the
// hash-change check belongs to Monitor (it only emits a local-change event
// when the hash actually moved); this half is the recent-received TTL set
// and the last-broadcast hash. Removing either mechanism reopens an echo
// loop, so both must be consulted by ShouldBroadcast.
type EchoGuard struct {
	mutex            sync.Mutex
	lastBroadcast    string
	recentReceived   map[string]time.Time
}

func NewEchoGuard() *EchoGuard {
	return &EchoGuard{recentReceived: make(map[string]time.Time)}
}

// ShouldBroadcast reports whether a candidate clipboard change should be
// sent: it must be local, differ from the last hash this device broadcast,
// and not be a hash this device recently received from a peer.
func (g *EchoGuard) ShouldBroadcast(isLocal bool, hash string) bool {
	if !isLocal {
		return false
	}
	g.mutex.Lock()
	defer g.mutex.Unlock()

	if hash == g.lastBroadcast {
		return false
	}
	g.evictExpiredLocked()
	if _, recent := g.recentReceived[hash]; recent {
		return false
	}
	return true
}

// MarkBroadcast records the hash of a message this device just sent, so an
// identical subsequent local change is not re-broadcast.
func (g *EchoGuard) MarkBroadcast(hash string) {
	g.mutex.Lock()
	defer g.mutex.Unlock()
	g.lastBroadcast = hash
}

// MarkReceived records a hash just applied from a remote peer, with a 10s
// TTL, bounded to 100 entries (halved — oldest-first — on overflow).
func (g *EchoGuard) MarkReceived(hash string) {
	g.mutex.Lock()
	defer g.mutex.Unlock()

	g.evictExpiredLocked()
	if len(g.recentReceived) >= recentReceivedCapacity {
		g.halveLocked()
	}
	g.recentReceived[hash] = time.Now().Add(recentReceivedTTL)
	g.lastBroadcast = hash
}

func (g *EchoGuard) evictExpiredLocked() {
	now := time.Now()
	for h, exp := range g.recentReceived {
		if now.After(exp) {
			delete(g.recentReceived, h)
		}
	}
}

// halveLocked drops the oldest half of entries by expiry time when the set
// is at capacity, rather than rejecting new entries outright.
func (g *EchoGuard) halveLocked() {
	type kv struct {
		hash string
		exp  time.Time
	}
	all := make([]kv, 0, len(g.recentReceived))
	for h, exp := range g.recentReceived {
		all = append(all, kv{h, exp})
	}
	for i := 0; i < len(all); i++ {
		for j := i + 1; j < len(all); j++ {
			if all[j].exp.Before(all[i].exp) {
				all[i], all[j] = all[j], all[i]
			}
		}
	}
	for i := 0; i < len(all)/2; i++ {
		delete(g.recentReceived, all[i].hash)
	}
}
