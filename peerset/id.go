package peerset

import "encoding/hex"

// PeerID is an opaque peer identifier. Cryptographic peer identity is out
// of scope for this package: callers are responsible for deriving a stable
// 32-byte value from whatever identity scheme the surrounding transport
// uses (a public key hash, a libp2p peer.ID digest, ...).
type PeerID [32]byte

// String renders the identifier as lowercase hex, for logging only.
func (id PeerID) String() string {
	return hex.EncodeToString(id[:])
}

// PeerIDFromBytes copies up to 32 bytes of b into a PeerID, zero-padding
// short input. It never fails: truncation/padding is a caller error the
// Peerset has no way to detect from 32 opaque bytes alone.
func PeerIDFromBytes(b []byte) PeerID {
	var id PeerID
	copy(id[:], b)
	return id
}
