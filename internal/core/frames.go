package core

import "github.com/dkeye/Relay/internal/domain"

// ChatEnvelope is the outbound fan-out frame delivered to room members.
type ChatEnvelope struct {
	Type    string        `json:"type"`
	Message string        `json:"message"`
	RoomID  domain.RoomID `json:"roomId"`
	From    domain.UserID `json:"from"`
}

// ErrorEnvelope is sent back to a single sender, never broadcast.
type ErrorEnvelope struct {
	Type    string `json:"type"`
	Message string `json:"message"`
}

func NewChatEnvelope(roomID domain.RoomID, message string, from domain.UserID) ChatEnvelope {
	return ChatEnvelope{Type: "chat", Message: message, RoomID: roomID, From: from}
}

func NewErrorEnvelope(message string) ErrorEnvelope {
	return ErrorEnvelope{Type: "error", Message: message}
}
