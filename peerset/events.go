package peerset

import "github.com/libp2p/go-libp2p-core/network"

// ValidationResult is the policy decision returned by ReportInboundSubstream.
type ValidationResult int

const (
	Reject ValidationResult = iota
	Accept
)

func (r ValidationResult) String() string {
	if r == Accept {
		return "accept"
	}
	return "reject"
}

// ReportSubstreamOpened is called by the transport adapter once a
// substream it was opening is confirmed usable. It never blocks and never
// suspends. The returned keep reports whether the caller should keep the
// substream (true) or close it immediately (false, for a peer that was
// Canceled while the dial/accept was in flight).
func (p *Peerset) ReportSubstreamOpened(peer PeerID, transportDirection network.Direction) bool {
	s, ok := p.peers[peer]
	if !ok {
		p.log.WithField("peer", peer).WithError(ErrUnknownPeer).Warn("substream opened")
		return false
	}

	switch s.Kind {
	case Opening:
		if s.Dir.Dir != transportDirection {
			p.log.WithField("peer", peer).Warn("transport direction disagrees with tracked direction")
		}
		p.setState(peer, connectedState(s.Dir))
		p.onConnected()
		return true
	case Canceled:
		p.setState(peer, closingState(s.Dir))
		p.onConnected()
		return false
	default:
		p.log.WithField("peer", peer).WithField("state", s.Kind).WithError(ErrInvalidState).Warn("substream opened")
		return false
	}
}

// ReportSubstreamClosed is called once a substream is confirmed closed,
// whether the close was local or remote.
func (p *Peerset) ReportSubstreamClosed(peer PeerID) {
	s, ok := p.peers[peer]
	if !ok {
		p.log.WithField("peer", peer).WithError(ErrUnknownPeer).Warn("substream closed")
		return
	}

	switch s.Kind {
	case Connected, Closing:
		if s.Dir.Reserved == ReservedNo {
			if s.Dir.IsInbound() {
				p.releaseIn()
			} else {
				p.releaseOut()
			}
		}
		p.onDisconnected()
		p.setState(peer, backoffState())
		p.backoffs.schedule(peer, DisconnectAdjustment, DefaultBackoff)
	default:
		p.log.WithField("peer", peer).WithField("state", s.Kind).WithError(ErrInvalidState).Warn("substream closed")
	}
}

// ReportInboundSubstream is called when the transport receives an inbound
// substream open request and needs a policy decision before continuing.
// Accept implies the transport will keep opening the substream and later
// call ReportSubstreamOpened or ReportSubstreamOpenFailure.
func (p *Peerset) ReportInboundSubstream(peer PeerID) ValidationResult {
	if !p.limiter.allow(peer) {
		p.log.WithField("peer", peer).Debug("inbound validation request rate limited")
		return Reject
	}

	reserved := p.isReserved(peer)
	s, ok := p.peers[peer]

	switch {
	case !ok || s.Kind == Disconnected:
		if reserved {
			p.setState(peer, openingState(inbound(ReservedYes)))
			return Accept
		}
		if p.numIn < p.maxIn {
			p.chargeIn()
			p.setState(peer, openingState(inbound(ReservedNo)))
			return Accept
		}
		p.setState(peer, disconnectedState())
		return Reject

	case s.Kind == Backoff:
		return Reject

	case s.Kind == Opening && s.Dir.IsOutbound() && s.Dir.Reserved == ReservedYes && reserved:
		// Transport truth overrides our own outbound attempt: the remote
		// opened an inbound substream to us first. No counter change.
		p.setState(peer, openingState(inbound(ReservedYes)))
		return Accept

	case s.Kind == Opening && s.Dir.IsOutbound() && s.Dir.Reserved == ReservedNo && !reserved:
		p.releaseOut()
		if p.numIn < p.maxIn {
			p.chargeIn()
			p.setState(peer, openingState(inbound(ReservedNo)))
			return Accept
		}
		p.setState(peer, disconnectedState())
		return Reject

	case s.Kind == Canceled && s.Dir.IsOutbound() && s.Dir.Reserved == ReservedNo:
		p.releaseOut()
		p.setState(peer, disconnectedState())
		return Reject

	case s.Kind == Canceled && s.Dir.IsOutbound() && s.Dir.Reserved == ReservedYes:
		p.setState(peer, disconnectedState())
		return Reject

	default:
		p.log.WithField("peer", peer).WithField("state", s.Kind).WithError(ErrInvalidState).Warn("inbound substream request")
		return Reject
	}
}

// ReportSubstreamOpenFailure is called when the transport failed to
// establish a substream it had been asked to open.
func (p *Peerset) ReportSubstreamOpenFailure(peer PeerID, err error) {
	s, ok := p.peers[peer]
	if !ok {
		p.log.WithField("peer", peer).WithError(ErrUnknownPeer).Warn("open failure reported")
		return
	}

	switch s.Kind {
	case Opening, Canceled:
		if s.Dir.Reserved == ReservedNo {
			if s.Dir.IsInbound() {
				p.releaseIn()
			} else {
				p.releaseOut()
			}
		}
		p.setState(peer, backoffState())
		p.backoffs.schedule(peer, OpenFailureAdjustment, OpenFailureBackoff)
		p.log.WithField("peer", peer).WithField("error", err).Debug("substream open failed")
	default:
		p.log.WithField("peer", peer).WithField("state", s.Kind).WithError(ErrInvalidState).Warn("open failure reported")
	}
}

// ReportSubstreamRejected is called when an upstream application protocol
// refused a substream this Peerset had already accepted.
func (p *Peerset) ReportSubstreamRejected(peer PeerID) {
	s, ok := p.peers[peer]
	if !ok {
		return
	}

	switch {
	case s.Kind == Opening && s.Dir.Reserved == ReservedNo:
		if s.Dir.IsInbound() {
			p.releaseIn()
		} else {
			p.releaseOut()
		}
		p.setState(peer, disconnectedState())
	case s.Kind == Opening && s.Dir.Reserved == ReservedYes:
		p.setState(peer, disconnectedState())
		p.log.WithField("peer", peer).Debug("reserved peer rejected by upstream protocol")
	default:
		p.log.WithField("peer", peer).WithField("state", s.Kind).WithError(ErrInvalidState).Warn("substream rejected")
	}
}
