package models

import "encoding/json"

// Frame types that are not message types.
const (
	FrameJoinChat = "join_chat"
	FrameJoinAck  = "join_ack"
)

// Frame is used to peek at the type of an inbound socket frame before
// decoding it fully.
type Frame struct {
	Type string `json:"type"`
}

// IsJoin reports whether the frame is a join request. Any other type is a message.
func (f Frame) IsJoin() bool {
	return f.Type == FrameJoinChat
}

type JoinEvent struct {
	Type           string `json:"type"`
	ConversationID string `json:"conversationId" conform:"trim" validate:"required"`
	Identity       string `json:"identity" conform:"trim,lower" validate:"required"`
}

type JoinAck struct {
	Type           string `json:"type"`
	ConversationID string `json:"conversationId"`
	Identity       string `json:"identity"`
}

// DecodeFrame reads the frame type and returns the raw payload untouched.
func DecodeFrame(data []byte) (Frame, error) {
	var f Frame
	if err := json.Unmarshal(data, &f); err != nil {
		return Frame{}, err
	}
	return f, nil
}
