package peerset

import "errors"

// Sentinel errors attached to diagnostic log lines when event ingress
// observes a state the decision tables in spec.md §4 call a protocol
// violation. They are never returned to a caller: every ingress method
// still reports its outcome through its normal return value (Accept/
// Reject, keep/close) and logs one of these via logrus.WithError, never
// propagates it as an error value.
var (
	ErrUnknownPeer  = errors.New("peerset: event reported for a peer with no state-table entry")
	ErrInvalidState = errors.New("peerset: event reported while the peer was in an unexpected state")
)
