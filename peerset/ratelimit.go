package peerset

import (
	leakybucket "github.com/kevinms/leakybucket-go"
)

// inboundLimiter is a supplemental guard absent from the decision table in
// spec.md §4.2: a peer that floods inbound validation requests is rejected
// outright, before the request ever reaches the state-table logic, rather
// than being allowed to repeatedly churn Disconnected<->Opening<->Rejected
// transitions. The normative decision table is otherwise untouched: this
// only ever turns an Accept into a Reject, never the reverse, and a peer
// making requests at a reasonable rate never observes it.
type inboundLimiter struct {
	buckets *leakybucket.Collector
}

// newInboundLimiter allows burstsPerPeer inbound validation requests
// immediately, refilling at ratePerSecond per second thereafter.
func newInboundLimiter(ratePerSecond float64, burstsPerPeer int64) *inboundLimiter {
	return &inboundLimiter{
		buckets: leakybucket.NewCollector(ratePerSecond, burstsPerPeer, true),
	}
}

// allow reports whether peer may proceed with one more inbound validation
// request right now.
func (l *inboundLimiter) allow(peer PeerID) bool {
	if l == nil || l.buckets == nil {
		return true
	}
	// Add reports how much it actually added: zero once the bucket is full.
	return l.buckets.Add(peer.String(), 1) > 0
}
