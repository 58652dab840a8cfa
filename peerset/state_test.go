package peerset

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestDirection_InboundOutboundHelpers(t *testing.T) {
	in := inbound(ReservedYes)
	require.True(t, in.IsInbound())
	require.False(t, in.IsOutbound())
	require.Equal(t, ReservedYes, in.Reserved)

	out := outbound(ReservedNo)
	require.True(t, out.IsOutbound())
	require.False(t, out.IsInbound())
	require.Equal(t, ReservedNo, out.Reserved)
}

func TestChargesSlot_ReservedNeverCharged(t *testing.T) {
	require.False(t, chargesSlot(connectedState(outbound(ReservedYes))))
	require.False(t, chargesSlot(openingState(inbound(ReservedYes))))
}

func TestChargesSlot_NonReservedChargedInActiveStates(t *testing.T) {
	for _, kind := range []StateKind{Opening, Connected, Canceled, Closing} {
		s := PeerState{Kind: kind, Dir: outbound(ReservedNo)}
		require.True(t, chargesSlot(s), "expected %s to charge a slot", kind)
	}
}

func TestChargesSlot_DisconnectedAndBackoffNeverCharged(t *testing.T) {
	require.False(t, chargesSlot(disconnectedState()))
	require.False(t, chargesSlot(backoffState()))
}

func TestStateKind_String(t *testing.T) {
	cases := map[StateKind]string{
		Disconnected: "disconnected",
		Backoff:      "backoff",
		Opening:      "opening",
		Connected:    "connected",
		Canceled:     "canceled",
		Closing:      "closing",
	}
	for kind, want := range cases {
		require.Equal(t, want, kind.String())
	}
}
