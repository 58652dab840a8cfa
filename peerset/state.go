package peerset

import (
	"time"

	"github.com/libp2p/go-libp2p-core/network"
)

// Numeric constants, normative per the policy this engine implements.
const (
	DefaultBackoff           = 15 * time.Second
	OpenFailureBackoff       = 60 * time.Second
	SlotAllocationFrequency  = 1 * time.Second
	DisconnectAdjustment     = -256
	OpenFailureAdjustment    = -1024
	CommandQueueCapacityHint = 100_000
)

// Reserved records whether a peer was reserved at the moment a substream
// was initiated. It is embedded in Direction so later bookkeeping never
// depends on whether the reserved set has since changed.
type Reserved bool

const (
	ReservedNo  Reserved = false
	ReservedYes Reserved = true
)

// Direction pairs the transport's notion of substream direction with the
// peer's reserved status at the time the substream was initiated.
type Direction struct {
	Dir      network.Direction
	Reserved Reserved
}

func inbound(r Reserved) Direction  { return Direction{Dir: network.DirInbound, Reserved: r} }
func outbound(r Reserved) Direction { return Direction{Dir: network.DirOutbound, Reserved: r} }

// IsInbound reports whether this direction represents an inbound substream.
func (d Direction) IsInbound() bool { return d.Dir == network.DirInbound }

// IsOutbound reports whether this direction represents an outbound substream.
func (d Direction) IsOutbound() bool { return d.Dir == network.DirOutbound }

// StateKind enumerates the connection phase of a peer. It is deliberately
// a flat enumeration rather than a set of types implementing a common
// interface: not every (phase, direction) pair is reachable (Backoff and
// Disconnected carry no direction at all), so subtype polymorphism would
// only add indirection without adding expressiveness.
type StateKind int

const (
	// Disconnected: no active substream; the allocator may pick this peer.
	Disconnected StateKind = iota
	// Backoff: recently disconnected or failed; ignored by the allocator
	// until its timer fires.
	Backoff
	// Opening: dial/accept in flight, not yet confirmed by the transport.
	Opening
	// Connected: substream open and usable.
	Connected
	// Canceled: policy changed while Opening; the substream must be
	// closed once the transport confirms it.
	Canceled
	// Closing: local close issued, awaiting transport confirmation.
	Closing
)

func (k StateKind) String() string {
	switch k {
	case Disconnected:
		return "disconnected"
	case Backoff:
		return "backoff"
	case Opening:
		return "opening"
	case Connected:
		return "connected"
	case Canceled:
		return "canceled"
	case Closing:
		return "closing"
	default:
		return "unknown"
	}
}

// PeerState is the product of two orthogonal axes, connection phase and
// origin/reservation, flattened into six concrete variants per StateKind.
// Dir is meaningful only for Opening/Connected/Canceled/Closing; it is the
// zero value for Disconnected and Backoff.
type PeerState struct {
	Kind StateKind
	Dir  Direction
}

func disconnectedState() PeerState { return PeerState{Kind: Disconnected} }
func backoffState() PeerState      { return PeerState{Kind: Backoff} }
func openingState(d Direction) PeerState { return PeerState{Kind: Opening, Dir: d} }
func connectedState(d Direction) PeerState { return PeerState{Kind: Connected, Dir: d} }
func canceledState(d Direction) PeerState { return PeerState{Kind: Canceled, Dir: d} }
func closingState(d Direction) PeerState { return PeerState{Kind: Closing, Dir: d} }

// chargesSlot reports whether a peer in this state, with this direction,
// contributes to num_in/num_out. Reserved peers never do.
func chargesSlot(s PeerState) bool {
	switch s.Kind {
	case Opening, Connected, Canceled, Closing:
		return s.Dir.Reserved == ReservedNo
	default:
		return false
	}
}
