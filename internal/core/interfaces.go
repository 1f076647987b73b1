package core

import "github.com/dkeye/Relay/internal/domain"

// Frame is a raw text payload (one JSON object per frame).
type Frame []byte

// SignalConnection abstracts for a system messaging transport
// Owned by the adapter; the adapter must Close() it.
type SignalConnection interface {
	TrySend(Frame) error
	Close()
}

// MemberSnap is what the registry hands out for fan-out: enough to send
// and to attribute, nothing transport-specific beyond SignalConnection.
type MemberSnap struct {
	CID     domain.ConnID
	User    domain.UserID
	Session SignalConnection
}
