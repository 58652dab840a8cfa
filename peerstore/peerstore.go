// Package peerstore provides a reference implementation of the
// peerset.Peerstore collaborator: a bounded, reputation-ordered registry
// of known peers, shared across every protocol's Peerset instance running
// on a node. Unlike the Peerset engine itself, the peerstore is a
// genuinely concurrent component — many protocols and the transport's own
// housekeeping all call into it — so every exported method here takes a
// lock.
package peerstore

import (
	"sort"
	"sync"
	"time"

	"github.com/dgraph-io/ristretto"
	lru "github.com/hashicorp/golang-lru"
	ma "github.com/multiformats/go-multiaddr"
	"github.com/paulbellamy/ratecounter"
	"github.com/pkg/errors"
	"github.com/sirupsen/logrus"

	"github.com/ortelius-network/peerset/peerset"
)

// DefaultBanDuration is how long a banned peer stays excluded from
// candidate selection and reported as banned by IsPeerBanned.
const DefaultBanDuration = 1 * time.Hour

// reputationCacheSize bounds how many peers' scores the store keeps at
// once: the peerstore hears about far more peers (via discovery, via
// every protocol's reports) than any one Peerset's slot budget needs to
// consider, so it caches rather than keeping every peer ever seen.
const reputationCacheSize = 16384

// Store is a reference Peerstore implementation.
type Store struct {
	log *logrus.Entry

	scores *lru.Cache // peerset.PeerID -> int32
	banned *ristretto.Cache
	addrs  *addrTable

	dialRate *ratecounter.RateCounter

	sinksMu sync.RWMutex
	sinks   []peerset.CommandSink
}

// New builds a Store. It returns an error only if one of the underlying
// caches fails to construct; their sizes are fixed by this package, not
// passed in by the caller.
func New() (*Store, error) {
	scores, err := lru.New(reputationCacheSize)
	if err != nil {
		return nil, errors.Wrap(err, "peerstore: allocating reputation cache")
	}
	banned, err := ristretto.NewCache(&ristretto.Config{
		NumCounters: 10 * reputationCacheSize,
		MaxCost:     reputationCacheSize,
		BufferItems: 64,
	})
	if err != nil {
		return nil, errors.Wrap(err, "peerstore: allocating ban cache")
	}
	return &Store{
		log:      logrus.WithField("component", "peerstore"),
		scores:   scores,
		banned:   banned,
		addrs:    newAddrTable(),
		dialRate: ratecounter.NewRateCounter(time.Minute),
	}, nil
}

// AddPeer records a peer's dialable address and seeds its reputation to
// zero if it is not already known. This is enrichment beyond the minimal
// Peerstore contract the Peerset consumes: a real peerstore also has to
// come from somewhere, and this is how this reference one gets peers.
func (s *Store) AddPeer(peer peerset.PeerID, addr ma.Multiaddr) {
	s.addrs.set(peer, addr)
	if _, ok := s.scores.Get(peer); !ok {
		s.scores.Add(peer, int32(0))
	}
}

// Addr returns the last known dialable address for peer, if any.
func (s *Store) Addr(peer peerset.PeerID) (ma.Multiaddr, bool) {
	return s.addrs.get(peer)
}

// Score returns peer's current reputation, defaulting to zero for a peer
// this store has never heard of.
func (s *Store) Score(peer peerset.PeerID) int32 {
	if v, ok := s.scores.Get(peer); ok {
		return v.(int32)
	}
	return 0
}

// ReportPeer implements peerset.Peerstore.
func (s *Store) ReportPeer(peer peerset.PeerID, delta int32) {
	next := s.Score(peer) + delta
	s.scores.Add(peer, next)
	s.log.WithField("peer", peer).WithField("delta", delta).WithField("score", next).Debug("reputation adjusted")
}

// Ban marks peer as banned for DefaultBanDuration and asks every
// registered protocol to disconnect it immediately.
func (s *Store) Ban(peer peerset.PeerID) {
	s.banned.SetWithTTL(peer.String(), true, 1, DefaultBanDuration)
	s.banned.Wait()
	s.sinksMu.RLock()
	defer s.sinksMu.RUnlock()
	for _, sink := range s.sinks {
		sink.Submit(&peerset.DisconnectPeerCommand{Peer: peer})
	}
}

// IsPeerBanned implements peerset.Peerstore.
func (s *Store) IsPeerBanned(peer peerset.PeerID) bool {
	_, found := s.banned.Get(peer.String())
	return found
}

// NextOutboundPeers implements peerset.Peerstore: up to limit candidates,
// excluding exclude and any banned peer, in decreasing reputation order.
func (s *Store) NextOutboundPeers(exclude map[peerset.PeerID]struct{}, limit int) []peerset.PeerID {
	if limit <= 0 {
		return nil
	}

	type scored struct {
		peer  peerset.PeerID
		score int32
	}
	var candidates []scored
	for _, key := range s.scores.Keys() {
		peer := key.(peerset.PeerID)
		if _, skip := exclude[peer]; skip {
			continue
		}
		if s.IsPeerBanned(peer) {
			continue
		}
		candidates = append(candidates, scored{peer: peer, score: s.Score(peer)})
	}
	sort.Slice(candidates, func(i, j int) bool {
		return candidates[i].score > candidates[j].score
	})
	if len(candidates) > limit {
		candidates = candidates[:limit]
	}

	out := make([]peerset.PeerID, len(candidates))
	for i, c := range candidates {
		out[i] = c.peer
	}
	s.dialRate.Incr(int64(len(out)))
	return out
}

// DialRate reports how many outbound candidates this store has handed out
// in the trailing minute, for allocator diagnostics.
func (s *Store) DialRate() int64 {
	return s.dialRate.Rate()
}

// RegisterProtocol implements peerset.Peerstore.
func (s *Store) RegisterProtocol(sink peerset.CommandSink) {
	s.sinksMu.Lock()
	defer s.sinksMu.Unlock()
	s.sinks = append(s.sinks, sink)
}
