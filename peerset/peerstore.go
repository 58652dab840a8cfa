package peerset

// Peerstore is the process-wide collaborator the Peerset consults for
// reputation and candidate selection. It is deliberately a narrow
// interface: discovery, banning policy, and persistence all live on the
// other side of it. See package peerstore for a reference implementation.
type Peerstore interface {
	// ReportPeer applies a signed reputation delta to peer.
	ReportPeer(peer PeerID, delta int32)

	// IsPeerBanned reports whether peer is currently banned.
	IsPeerBanned(peer PeerID) bool

	// NextOutboundPeers returns up to limit candidate peers, excluding any
	// peer present in exclude, in decreasing reputation order.
	NextOutboundPeers(exclude map[PeerID]struct{}, limit int) []PeerID

	// RegisterProtocol lets the peerstore deliver DisconnectPeer commands
	// (e.g. for a ban) to this protocol's command intake.
	RegisterProtocol(sink CommandSink)
}

// CommandSink accepts commands produced by collaborators other than the
// owning application protocol (currently: the peerstore, for bans).
type CommandSink interface {
	Submit(cmd Command)
}
