package peerset

import (
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestBackoffSet_ExpiresAndDeliversDelta(t *testing.T) {
	b := newBackoffSet()
	peer := testPeer(1)
	b.schedule(peer, OpenFailureAdjustment, 30*time.Millisecond)

	select {
	case entry := <-b.ready():
		require.Equal(t, peer, entry.Peer)
		require.EqualValues(t, OpenFailureAdjustment, entry.Delta)
	case <-time.After(2 * time.Second):
		t.Fatal("timed out waiting for back-off expiry")
	}
}

func TestBackoffSet_CancelPreventsExpiry(t *testing.T) {
	b := newBackoffSet()
	peer := testPeer(1)
	b.schedule(peer, DisconnectAdjustment, 30*time.Millisecond)
	b.cancel(peer)

	select {
	case entry := <-b.ready():
		t.Fatalf("unexpected expiry after cancel: %+v", entry)
	case <-time.After(200 * time.Millisecond):
		// expected: nothing arrives
	}
}

func TestHandleBackoffExpiry_MovesBackoffToDisconnectedAndReports(t *testing.T) {
	store := newFakePeerstore()
	p := newTestPeerset(25, 25, false, nil, store)
	peer := testPeer(1)
	p.setState(peer, backoffState())

	p.handleBackoffExpiry(backoffEntry{Peer: peer, Delta: OpenFailureAdjustment})

	require.Equal(t, Disconnected, p.peers[peer].Kind)
	require.Len(t, store.reports, 1)
	require.Equal(t, peer, store.reports[0].Peer)
	require.EqualValues(t, OpenFailureAdjustment, store.reports[0].Delta)
}

func TestHandleBackoffExpiry_IgnoresIfPeerLeftBackoff(t *testing.T) {
	store := newFakePeerstore()
	p := newTestPeerset(25, 25, false, nil, store)
	peer := testPeer(1)
	p.setState(peer, connectedState(outbound(ReservedNo)))

	p.handleBackoffExpiry(backoffEntry{Peer: peer, Delta: DisconnectAdjustment})

	// State is untouched since the peer is no longer in Backoff, but the
	// reputation delta is still submitted unconditionally.
	require.Equal(t, Connected, p.peers[peer].Kind)
	require.Len(t, store.reports, 1)
}
