package peerset

import (
	"time"

	cache "github.com/patrickmn/go-cache"
)

// backoffEntry is what a back-off timer carries: which peer it is for and
// the reputation delta to apply to the peerstore once it expires.
type backoffEntry struct {
	Peer  PeerID
	Delta int32
}

// backoffSet is the pending-deadline collection from design note §9:
// conceptually a min-heap keyed by deadline, but since each entry lives at
// most OpenFailureBackoff and peer churn is modest, an unordered,
// TTL-expiring collection is acceptable and simpler to reason about.
// go-cache's own janitor goroutine drives expiry; it hands each expired
// entry to this package's single consuming goroutine over a channel, so
// no lock guards backoffSet state beyond what go-cache already provides.
type backoffSet struct {
	cache   *cache.Cache
	expired chan backoffEntry
}

func newBackoffSet() *backoffSet {
	b := &backoffSet{
		// No default expiration: every entry sets its own TTL via
		// schedule. The janitor sweeps every second, matching the
		// allocator's own cadence.
		cache:   cache.New(cache.NoExpiration, time.Second),
		expired: make(chan backoffEntry, 4096),
	}
	b.cache.OnEvicted(func(key string, value interface{}) {
		entry, ok := value.(backoffEntry)
		if !ok {
			// A timer removed by cancel: nothing to deliver.
			return
		}
		select {
		case b.expired <- entry:
		default:
			// The channel is sized far beyond any plausible churn; a full
			// channel here means something downstream stopped draining.
		}
	})
	return b
}

// schedule arms a new back-off timer for peer, due after ttl.
func (b *backoffSet) schedule(peer PeerID, delta int32, ttl time.Duration) {
	b.cache.Set(peer.String(), backoffEntry{Peer: peer, Delta: delta}, ttl)
}

// cancel removes any pending timer for peer without applying its delta.
// Used nowhere in the current decision tables but kept as the symmetric
// counterpart to schedule for embedders that need to re-arm a timer.
func (b *backoffSet) cancel(peer PeerID) {
	// go-cache runs OnEvicted on Delete as well as on expiry, so the entry
	// is first overwritten with a marker the callback drops.
	b.cache.Set(peer.String(), struct{}{}, cache.NoExpiration)
	b.cache.Delete(peer.String())
}

// ready is the channel expired entries arrive on.
func (b *backoffSet) ready() <-chan backoffEntry {
	return b.expired
}
