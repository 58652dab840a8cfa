package peerstore

import (
	"sync"

	ma "github.com/multiformats/go-multiaddr"

	"github.com/ortelius-network/peerset/peerset"
)

// addrTable is a tiny concurrency-safe map from peer to its last known
// dialable address. Split out from Store mainly so Store's own fields
// read as a flat list of collaborators rather than a grab-bag of locks.
type addrTable struct {
	mu    sync.RWMutex
	addrs map[peerset.PeerID]ma.Multiaddr
}

func newAddrTable() *addrTable {
	return &addrTable{addrs: make(map[peerset.PeerID]ma.Multiaddr)}
}

func (t *addrTable) set(peer peerset.PeerID, addr ma.Multiaddr) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.addrs[peer] = addr
}

func (t *addrTable) get(peer peerset.PeerID) (ma.Multiaddr, bool) {
	t.mu.RLock()
	defer t.mu.RUnlock()
	addr, ok := t.addrs[peer]
	return addr, ok
}
