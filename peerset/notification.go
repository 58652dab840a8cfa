package peerset

// NotificationCommand is the sealed set of outputs a Peerset emits for its
// transport adapter to execute. Batches never contain duplicate peers
// within a single emission.
type NotificationCommand interface {
	isNotificationCommand()
}

// OpenSubstreamCommand asks the transport to dial/accept substreams to Peers.
type OpenSubstreamCommand struct {
	Peers []PeerID
}

// CloseSubstreamCommand asks the transport to close substreams to Peers.
type CloseSubstreamCommand struct {
	Peers []PeerID
}

func (*OpenSubstreamCommand) isNotificationCommand()  {}
func (*CloseSubstreamCommand) isNotificationCommand() {}
