package peerset

import (
	"context"
	"time"

	"github.com/sirupsen/logrus"
)

// Config configures a Peerset at construction time.
type Config struct {
	// Protocol is an opaque tag identifying the notification protocol
	// this instance governs (e.g. "block-announces/1").
	Protocol string

	// MaxIn and MaxOut are the non-reserved inbound/outbound slot budgets.
	MaxIn, MaxOut int

	// ReservedOnly stops the allocator from filling outbound slots with
	// non-reserved peers. ReportInboundSubstream does not consult it: a
	// non-reserved inbound request is still accepted while inbound slots
	// remain.
	ReservedOnly bool

	// Reserved is the initial reserved set.
	Reserved []PeerID

	// Connected is the shared connected-peer gauge. If nil, a private one
	// is created.
	Connected *ConnectedGauge

	// Peerstore is the reputation/candidate collaborator. Required.
	Peerstore Peerstore

	// InboundRatePerSecond and InboundBurst tune the supplemental
	// per-peer inbound-validation-request limiter. Zero burst disables
	// the limiter entirely.
	InboundRatePerSecond float64
	InboundBurst         int64
}

// Peerset is a per-protocol connection-policy engine. See the package doc
// for the model it implements. A Peerset is not safe for concurrent use:
// exactly one goroutine must call Run, and Submit is the only method safe
// to call from other goroutines once Run is active.
type Peerset struct {
	protocol     string
	maxIn        int
	maxOut       int
	reservedOnly bool

	peers    map[PeerID]PeerState
	reserved map[PeerID]struct{}
	numIn    int
	numOut   int

	connected *ConnectedGauge
	peerstore Peerstore
	backoffs  *backoffSet
	limiter   *inboundLimiter

	cmds *commandQueue
	out  chan NotificationCommand

	log     *logrus.Entry
	metrics *protocolMetrics
}

// New builds a Peerset from cfg. It never blocks or touches the network:
// the allocator and back-off timers only start running once Run is
// called.
func New(cfg Config) *Peerset {
	p := &Peerset{
		protocol:     cfg.Protocol,
		maxIn:        cfg.MaxIn,
		maxOut:       cfg.MaxOut,
		reservedOnly: cfg.ReservedOnly,
		peers:        make(map[PeerID]PeerState),
		reserved:     make(map[PeerID]struct{}),
		connected:    cfg.Connected,
		peerstore:    cfg.Peerstore,
		backoffs:     newBackoffSet(),
		cmds:         newCommandQueue(),
		out:          make(chan NotificationCommand, 8),
		log:          logrus.WithField("protocol", cfg.Protocol),
		metrics:      newProtocolMetrics(cfg.Protocol),
	}
	if p.connected == nil {
		p.connected = NewConnectedGauge()
	}
	if cfg.InboundBurst > 0 {
		p.limiter = newInboundLimiter(cfg.InboundRatePerSecond, cfg.InboundBurst)
	}
	for _, peer := range cfg.Reserved {
		p.reserved[peer] = struct{}{}
		p.peers[peer] = disconnectedState()
	}
	if p.peerstore != nil {
		p.peerstore.RegisterProtocol(p.cmds)
	}
	return p
}

// Submit enqueues an application-protocol command. Safe to call from any
// goroutine.
func (p *Peerset) Submit(cmd Command) {
	p.cmds.push(cmd)
}

// Output returns the channel of notification commands the transport
// adapter must execute. It is closed once Run returns.
func (p *Peerset) Output() <-chan NotificationCommand {
	return p.out
}

// NumIn and NumOut report the current slot usage. They are read under no
// lock: callers outside the Run goroutine get a best-effort snapshot, the
// same guarantee the connected-peer gauge offers.
func (p *Peerset) NumIn() int  { return p.numIn }
func (p *Peerset) NumOut() int { return p.numOut }

// Peers returns a snapshot copy of the state table. Must be called from
// the same goroutine driving Run, or after Run has returned: the
// underlying map is not synchronized.
func (p *Peerset) Peers() map[PeerID]PeerState {
	out := make(map[PeerID]PeerState, len(p.peers))
	for k, v := range p.peers {
		out[k] = v
	}
	return out
}

// ReservedPeers returns a snapshot copy of the reserved set, under the
// same calling-goroutine restriction as Peers.
func (p *Peerset) ReservedPeers() map[PeerID]struct{} {
	out := make(map[PeerID]struct{}, len(p.reserved))
	for k := range p.reserved {
		out[k] = struct{}{}
	}
	return out
}

// Run drives the engine until ctx is canceled. One poll step: drain all
// ready back-offs, service at most one command, then, if the allocation
// deadline fired, run the allocator. If a step produces nothing the loop
// blocks until any of its three sources is ready.
func (p *Peerset) Run(ctx context.Context) {
	ticker := time.NewTicker(SlotAllocationFrequency)
	defer ticker.Stop()
	defer close(p.out)

	emit := func(n NotificationCommand) bool {
		if n == nil {
			return true
		}
		select {
		case p.out <- n:
			return true
		case <-ctx.Done():
			return false
		}
	}

	for {
		p.drainBackoffs()

		produced := false
		if cmd, ok := p.cmds.pop(); ok {
			if !emit(p.serviceCommand(cmd)) {
				return
			}
			produced = true
		}

		select {
		case <-ticker.C:
			if !emit(p.runAllocator()) {
				return
			}
			produced = true
		default:
		}

		if produced {
			continue
		}

		select {
		case <-ctx.Done():
			return
		case <-p.cmds.wait():
		case <-ticker.C:
			if !emit(p.runAllocator()) {
				return
			}
		case e := <-p.backoffs.ready():
			p.handleBackoffExpiry(e)
		}
	}
}

func (p *Peerset) drainBackoffs() {
	for {
		select {
		case e := <-p.backoffs.ready():
			p.handleBackoffExpiry(e)
		default:
			return
		}
	}
}

func (p *Peerset) handleBackoffExpiry(e backoffEntry) {
	if s, ok := p.peers[e.Peer]; ok && s.Kind == Backoff {
		p.setState(e.Peer, disconnectedState())
		p.log.WithField("peer", e.Peer).Debug("back-off expired")
	}
	if p.peerstore != nil {
		p.peerstore.ReportPeer(e.Peer, e.Delta)
	}
}

func (p *Peerset) setState(peer PeerID, s PeerState) {
	p.peers[peer] = s
}

func (p *Peerset) isReserved(peer PeerID) bool {
	_, ok := p.reserved[peer]
	return ok
}

func (p *Peerset) chargeIn() {
	p.numIn++
	p.metrics.numIn.Set(float64(p.numIn))
}

func (p *Peerset) chargeOut() {
	p.numOut++
	p.metrics.numOut.Set(float64(p.numOut))
}

// releaseIn decrements num_in, logging a diagnostic instead of
// underflowing if it is already zero (that would indicate a bug in the
// transport or in this engine's own bookkeeping).
func (p *Peerset) releaseIn() {
	if p.numIn == 0 {
		p.log.Warn("releasing an inbound slot that was already at zero")
		return
	}
	p.numIn--
	p.metrics.numIn.Set(float64(p.numIn))
}

func (p *Peerset) releaseOut() {
	if p.numOut == 0 {
		p.log.Warn("releasing an outbound slot that was already at zero")
		return
	}
	p.numOut--
	p.metrics.numOut.Set(float64(p.numOut))
}

func (p *Peerset) onConnected() {
	p.connected.inc()
	p.metrics.connected.Set(float64(p.connected.Load()))
}

func (p *Peerset) onDisconnected() {
	p.connected.dec()
	p.metrics.connected.Set(float64(p.connected.Load()))
}
