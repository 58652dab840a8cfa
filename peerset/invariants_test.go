package peerset

import (
	"math/rand"
	"testing"

	"github.com/libp2p/go-libp2p-core/network"
	"github.com/stretchr/testify/require"
)

// assertInvariants checks the quantified invariants from spec.md §8 that
// must hold after every ingress event, command, and allocator tick.
func assertInvariants(t *testing.T, p *Peerset) {
	t.Helper()

	wantIn, wantOut := 0, 0
	for _, s := range p.peers {
		switch s.Kind {
		case Opening, Connected, Canceled, Closing:
			if s.Dir.Reserved == ReservedNo {
				if s.Dir.IsInbound() {
					wantIn++
				} else {
					wantOut++
				}
			}
		}
	}
	require.Equal(t, wantIn, p.numIn, "num_in counter consistency")
	require.Equal(t, wantOut, p.numOut, "num_out counter consistency")
	require.LessOrEqual(t, p.numIn, p.maxIn)
	require.LessOrEqual(t, p.numOut, p.maxOut)

	for peer := range p.reserved {
		_, ok := p.peers[peer]
		require.True(t, ok, "reserved peer %s must have a state-table entry", peer)
	}
}

// TestInvariants_HoldAcrossRandomSequence drives a fixed, seeded sequence
// of commands and transport events through a Peerset and checks the
// quantified invariants after every step. It exercises ingress and
// command-intake paths directly (no goroutine, no timers) for determinism.
func TestInvariants_HoldAcrossRandomSequence(t *testing.T) {
	rng := rand.New(rand.NewSource(42))

	peers := make([]PeerID, 12)
	for i := range peers {
		peers[i] = testPeer(byte(i + 1))
	}
	store := newFakePeerstore(peers...)
	p := newTestPeerset(4, 4, false, nil, store)
	assertInvariants(t, p)

	step := func() {
		peer := peers[rng.Intn(len(peers))]
		switch rng.Intn(8) {
		case 0:
			p.ReportInboundSubstream(peer)
		case 1:
			p.ReportSubstreamOpened(peer, network.DirInbound)
		case 2:
			p.ReportSubstreamOpened(peer, network.DirOutbound)
		case 3:
			p.ReportSubstreamClosed(peer)
		case 4:
			p.ReportSubstreamOpenFailure(peer, nil)
		case 5:
			p.ReportSubstreamRejected(peer)
		case 6:
			p.serviceCommand(&DisconnectPeerCommand{Peer: peer})
		case 7:
			p.runAllocator()
		}
		assertInvariants(t, p)
	}

	for i := 0; i < 500; i++ {
		step()
	}
}

// TestInvariants_SetReservedOnlyExcludesNonReservedConnected mirrors
// quantified invariant 4 in spec.md §8.
func TestInvariants_SetReservedOnlyExcludesNonReservedConnected(t *testing.T) {
	reserved, stranger := testPeer(1), testPeer(2)
	p := newTestPeerset(25, 25, false, []PeerID{reserved}, newFakePeerstore())
	p.setState(reserved, connectedState(outbound(ReservedYes)))
	p.setState(stranger, connectedState(outbound(ReservedNo)))
	p.numOut = 1

	p.serviceCommand(&SetReservedOnlyCommand{Value: true})

	for peer, s := range p.peers {
		if !p.isReserved(peer) {
			require.NotEqual(t, Connected, s.Kind)
		}
	}
}

// TestInvariants_AddThenRemoveReservedIsRoundTrip mirrors the round-trip
// property in spec.md §8: AddReservedPeers(S) then RemoveReservedPeers(S)
// on a fresh instance returns the reserved set to its prior (empty) value.
func TestInvariants_AddThenRemoveReservedIsRoundTrip(t *testing.T) {
	set := []PeerID{testPeer(1), testPeer(2), testPeer(3)}
	p := newTestPeerset(25, 25, true, nil, newFakePeerstore())
	require.Empty(t, p.reserved)

	p.serviceCommand(&AddReservedPeersCommand{Peers: set})
	require.Len(t, p.reserved, 3)

	p.serviceCommand(&RemoveReservedPeersCommand{Peers: set})
	require.Empty(t, p.reserved)
}

// TestInvariants_OpenThenCloseRestoresCountersAndLeavesBackoff mirrors the
// round-trip property in spec.md §8.
func TestInvariants_OpenThenCloseRestoresCountersAndLeavesBackoff(t *testing.T) {
	peer := testPeer(1)
	p := newTestPeerset(25, 25, false, nil, newFakePeerstore())
	p.setState(peer, openingState(outbound(ReservedNo)))
	p.numOut = 1
	before := p.numOut

	keep := p.ReportSubstreamOpened(peer, network.DirOutbound)
	require.True(t, keep)
	require.Equal(t, before, p.numOut)

	p.ReportSubstreamClosed(peer)
	require.Equal(t, 0, p.numOut)
	require.Equal(t, Backoff, p.peers[peer].Kind)
}

// TestInvariants_DisconnectPeerIsIdempotent mirrors the idempotence
// property in spec.md §8.
func TestInvariants_DisconnectPeerIsIdempotent(t *testing.T) {
	peer := testPeer(1)
	p := newTestPeerset(25, 25, false, nil, newFakePeerstore())
	p.setState(peer, connectedState(outbound(ReservedNo)))
	p.numOut = 1

	notif1 := p.serviceCommand(&DisconnectPeerCommand{Peer: peer})
	stateAfterFirst := p.peers[peer]
	require.NotNil(t, notif1)

	notif2 := p.serviceCommand(&DisconnectPeerCommand{Peer: peer})
	require.Nil(t, notif2)
	require.Equal(t, stateAfterFirst, p.peers[peer])
}
