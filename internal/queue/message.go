package queue

import "encoding/json"

// Message is the draft lifecycle event sent to downstream queue consumers
// (notification and export pipelines).
type Message struct {
	DraftID    string `json:"draftId"`
	SessionID  string `json:"sessionId"`
	Action     string `json:"action"`
	Stage      string `json:"stage"`
	Version    int    `json:"version"`
	RequestID  string `json:"requestId"`
	EnqueuedAt string `json:"enqueuedAt"`
}

// EncodeMessage returns the JSON representation of a message.
func EncodeMessage(msg Message) ([]byte, error) {
	return json.Marshal(msg)
}

// DecodeMessage parses a JSON payload into a Message.
func DecodeMessage(payload []byte) (Message, error) {
	var msg Message
	if err := json.Unmarshal(payload, &msg); err != nil {
		return Message{}, err
	}
	return msg, nil
}
