// Package domain contains entity without logic, just meta-data
package domain

import "github.com/google/uuid"

type (
	// UserID is the authenticated subject identifier carried by the token.
	UserID string

	// RoomID is an opaque room identifier. Rooms have no record of their
	// own; a RoomID only exists inside connection membership sets.
	RoomID string

	// ConnID identifies one transport session. Two sessions of the same
	// user get two distinct ConnIDs.
	ConnID string
)

func NewConnID() ConnID {
	return ConnID(uuid.NewString())
}
