package peerset

// serviceCommand applies one command to the state table and returns the
// single notification it produces, if any. At most one command is
// serviced per poll step (see Run).
func (p *Peerset) serviceCommand(cmd Command) NotificationCommand {
	switch c := cmd.(type) {
	case *SetReservedPeersCommand:
		return p.handleSetReservedPeers(c)
	case *AddReservedPeersCommand:
		return p.handleAddReservedPeers(c)
	case *RemoveReservedPeersCommand:
		return p.handleRemoveReservedPeers(c)
	case *SetReservedOnlyCommand:
		return p.handleSetReservedOnly(c)
	case *DisconnectPeerCommand:
		return p.handleDisconnectPeer(c)
	case *GetReservedPeersCommand:
		return p.handleGetReservedPeers(c)
	default:
		p.log.WithField("command", cmd).Warn("unknown command type")
		return nil
	}
}

// handleSetReservedPeers replaces the reserved set wholesale. An empty New
// is a guardrail against an accidental wipe and is silently ignored — this
// was never documented upstream either; see DESIGN.md.
func (p *Peerset) handleSetReservedPeers(c *SetReservedPeersCommand) NotificationCommand {
	if len(c.New) == 0 {
		p.log.Debug("ignoring SetReservedPeers with an empty set")
		return nil
	}

	var removed []PeerID
	for peer := range p.reserved {
		if _, ok := c.New[peer]; !ok {
			removed = append(removed, peer)
		}
	}

	p.reserved = make(map[PeerID]struct{}, len(c.New))
	for peer := range c.New {
		p.reserved[peer] = struct{}{}
	}

	if len(removed) == 0 {
		return nil
	}
	// Per-peer states are left untouched here: the subsequent
	// ReportSubstreamClosed from the transport is what actually
	// transitions these peers to Backoff.
	return &CloseSubstreamCommand{Peers: removed}
}

func (p *Peerset) handleAddReservedPeers(c *AddReservedPeersCommand) NotificationCommand {
	var toOpen []PeerID
	for _, peer := range c.Peers {
		if p.isReserved(peer) {
			continue
		}
		p.reserved[peer] = struct{}{}
		s, ok := p.peers[peer]
		if !ok || s.Kind == Disconnected {
			p.setState(peer, openingState(outbound(ReservedYes)))
			toOpen = append(toOpen, peer)
		}
		// Peers already Opening/Connected/etc. are left alone: they are
		// already, or will soon be, connected.
	}
	// Always emitted, even with an empty batch: the original source's
	// on_add_reserved does the same, and the transport adapter treats an
	// empty OpenSubstream as a no-op.
	return &OpenSubstreamCommand{Peers: toOpen}
}

func (p *Peerset) handleRemoveReservedPeers(c *RemoveReservedPeersCommand) NotificationCommand {
	var toClose []PeerID
	for _, peer := range c.Peers {
		if !p.isReserved(peer) {
			continue
		}
		delete(p.reserved, peer)

		s, ok := p.peers[peer]
		if !ok {
			continue
		}
		switch s.Kind {
		case Connected:
			p.setState(peer, closingState(s.Dir))
			toClose = append(toClose, peer)
		case Opening:
			p.setState(peer, canceledState(s.Dir))
		}
		// Backoff, Disconnected, Canceled, Closing: unchanged.
	}
	// Always emitted, even with an empty batch: the original source's
	// on_remove_reserved does the same (see spec.md §8 S2, "Next poll
	// emits CloseSubstream with empty peer list").
	return &CloseSubstreamCommand{Peers: toClose}
}

func (p *Peerset) handleSetReservedOnly(c *SetReservedOnlyCommand) NotificationCommand {
	p.reservedOnly = c.Value
	if !c.Value {
		return nil
	}

	var toClose []PeerID
	for peer, s := range p.peers {
		if p.isReserved(peer) {
			continue
		}
		switch s.Kind {
		case Connected:
			p.setState(peer, closingState(s.Dir))
			toClose = append(toClose, peer)
		case Opening:
			p.setState(peer, canceledState(s.Dir))
		}
	}
	if len(toClose) == 0 {
		return nil
	}
	return &CloseSubstreamCommand{Peers: toClose}
}

func (p *Peerset) handleDisconnectPeer(c *DisconnectPeerCommand) NotificationCommand {
	s, ok := p.peers[c.Peer]
	if !ok {
		// The peerstore broadcasts bans to every protocol regardless of
		// whether this one has ever heard of the peer.
		return nil
	}
	switch s.Kind {
	case Connected:
		p.setState(c.Peer, closingState(s.Dir))
		return &CloseSubstreamCommand{Peers: []PeerID{c.Peer}}
	case Opening:
		p.setState(c.Peer, canceledState(s.Dir))
	}
	return nil
}

func (p *Peerset) handleGetReservedPeers(c *GetReservedPeersCommand) NotificationCommand {
	snapshot := make(map[PeerID]struct{}, len(p.reserved))
	for peer := range p.reserved {
		snapshot[peer] = struct{}{}
	}
	select {
	case c.Reply <- snapshot:
	default:
		p.log.Warn("GetReservedPeers reply channel was not ready")
	}
	return nil
}
