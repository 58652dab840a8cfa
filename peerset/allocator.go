package peerset

// runAllocator executes one slot-allocation tick: reserved peers needing a
// dial go first, then, if slots remain and reserved-only mode is off, the
// peerstore is asked for enough high-reputation candidates to fill the
// rest. Reserved dials always precede slot-fill dials in the emitted
// batch; within slot-fill, the peerstore defines the order.
func (p *Peerset) runAllocator() NotificationCommand {
	var dialed []PeerID

	for peer := range p.reserved {
		if s, ok := p.peers[peer]; ok && s.Kind != Disconnected {
			continue
		}
		if p.peerstore != nil && p.peerstore.IsPeerBanned(peer) {
			continue
		}
		p.setState(peer, openingState(outbound(ReservedYes)))
		dialed = append(dialed, peer)
	}

	if !p.reservedOnly && p.numOut < p.maxOut && p.peerstore != nil {
		ignore := make(map[PeerID]struct{}, len(p.peers))
		for peer, s := range p.peers {
			if s.Kind != Disconnected {
				ignore[peer] = struct{}{}
			}
		}
		limit := p.maxOut - p.numOut
		for _, peer := range p.peerstore.NextOutboundPeers(ignore, limit) {
			p.chargeOut()
			p.setState(peer, openingState(outbound(ReservedNo)))
			dialed = append(dialed, peer)
		}
	}

	if len(dialed) == 0 {
		return nil
	}
	p.metrics.ticks.Inc()
	return &OpenSubstreamCommand{Peers: dialed}
}
