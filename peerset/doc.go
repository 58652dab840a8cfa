// Package peerset implements a per-protocol connection-policy engine: a
// bounded, reputation-weighted population of peers for one notification
// protocol running over a libp2p-style transport.
//
// A Peerset decides which peers to dial, which inbound substreams to
// accept, which peers to evict, and when to retry after a failure. It
// enforces inbound/outbound slot budgets, prioritizes a reserved set, and
// can be restricted to reserved peers only. The engine itself never talks
// to the network: it is driven by a transport adapter that reports
// substream lifecycle events and consumes the OpenSubstream/CloseSubstream
// commands the Peerset emits.
package peerset
