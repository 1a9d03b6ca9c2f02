package ws

import (
	"github.com/boothsync/backend/internal/asset"
)

type MessageType string

const (
	// MsgState is pushed whenever the session state changes (event applied,
	// manual start/reset, asset file appearing or vanishing).
	MsgState MessageType = "state"
	// MsgSnapshot is the periodic full refresh, also sent on connect.
	MsgSnapshot MessageType = "snapshot"
)

type WSMessage struct {
	Type    MessageType `json:"type"`
	Payload interface{} `json:"payload"`
}

type StatePayload struct {
	State asset.View `json:"state"`
}
