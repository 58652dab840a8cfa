package peerset

import (
	"container/list"
	"sync"
)

// Command is the sealed set of inputs application protocols and the
// peerstore submit to a Peerset's command intake. At most one Command is
// serviced per poll step (see engine.go).
type Command interface {
	isCommand()
}

// SetReservedPeersCommand replaces the reserved set wholesale. An empty
// New is ignored, as a guardrail against accidentally wiping the reserved
// set; DESIGN.md records the decision to keep it.
type SetReservedPeersCommand struct {
	New map[PeerID]struct{}
}

// AddReservedPeersCommand adds peers to the reserved set, dialing any
// newly reserved peer that has no state-table entry or is Disconnected.
type AddReservedPeersCommand struct {
	Peers []PeerID
}

// RemoveReservedPeersCommand removes peers from the reserved set,
// transitioning their connection state as needed.
type RemoveReservedPeersCommand struct {
	Peers []PeerID
}

// SetReservedOnlyCommand toggles reserved-only mode.
type SetReservedOnlyCommand struct {
	Value bool
}

// DisconnectPeerCommand asks the Peerset to drop a peer regardless of its
// reserved status; absent peers are silently ignored, since the peerstore
// broadcasts bans to every protocol whether or not it knows the peer.
type DisconnectPeerCommand struct {
	Peer PeerID
}

// GetReservedPeersCommand requests a snapshot of the reserved set,
// delivered on Reply. The engine never blocks on Reply: if the channel
// cannot take the snapshot at once (no buffer space and no waiting
// receiver), the reply is dropped and a warning is logged.
type GetReservedPeersCommand struct {
	Reply chan<- map[PeerID]struct{}
}

func (*SetReservedPeersCommand) isCommand()    {}
func (*AddReservedPeersCommand) isCommand()    {}
func (*RemoveReservedPeersCommand) isCommand() {}
func (*SetReservedOnlyCommand) isCommand()     {}
func (*DisconnectPeerCommand) isCommand()      {}
func (*GetReservedPeersCommand) isCommand()    {}

// commandQueue is the unbounded, multi-producer/single-consumer queue
// commands travel through. It is unbounded by design: producers are rate
// limited upstream and the cost of ever dropping a policy command (a ban,
// say) is worse than a transient memory spike. CommandQueueCapacityHint
// documents the size callers should expect in steady state, not a hard
// cap this type enforces.
type commandQueue struct {
	mu     sync.Mutex
	items  *list.List
	notify chan struct{}
}

func newCommandQueue() *commandQueue {
	return &commandQueue{
		items:  list.New(),
		notify: make(chan struct{}, 1),
	}
}

// Submit implements CommandSink, letting the peerstore hand in commands
// (DisconnectPeer, for bans) the same way an application protocol does.
func (q *commandQueue) Submit(cmd Command) {
	q.push(cmd)
}

func (q *commandQueue) push(cmd Command) {
	q.mu.Lock()
	q.items.PushBack(cmd)
	q.mu.Unlock()
	select {
	case q.notify <- struct{}{}:
	default:
	}
}

// pop removes and returns the oldest queued command, if any.
func (q *commandQueue) pop() (Command, bool) {
	q.mu.Lock()
	defer q.mu.Unlock()
	front := q.items.Front()
	if front == nil {
		return nil, false
	}
	q.items.Remove(front)
	return front.Value.(Command), true
}

// wait returns the channel that receives a notification whenever a
// command is pushed. It is safe to read from repeatedly: once drained the
// queue may still hold more items, so callers should loop pop() until it
// returns false before waiting again.
func (q *commandQueue) wait() <-chan struct{} {
	return q.notify
}
