package queue

import (
	"encoding/json"
	"errors"
	"fmt"
)

// MessageVersion is the schema version written by this build. Workers refuse
// newer versions so a rolling deploy never half-reads a message.
const MessageVersion = 1

// ErrUnsupportedVersion is returned for messages written by a newer build.
var ErrUnsupportedVersion = errors.New("unsupported message version")

// Message points a worker at one processing item. ApplicationID and Priority
// are copies of the item's fields used for routing and logs; the item row
// stays the source of truth.
type Message struct {
	ItemID        string `json:"itemId"`
	ApplicationID string `json:"applicationId,omitempty"`
	Priority      int    `json:"priority,omitempty"`
	RequestID     string `json:"requestId"`
	EnqueuedAt    string `json:"enqueuedAt"`
	Version       int    `json:"version"`
}

func EncodeMessage(msg Message) ([]byte, error) {
	return json.Marshal(msg)
}

// DecodeMessage parses payload. A missing version is read as version 1.
func DecodeMessage(payload []byte) (Message, error) {
	var msg Message
	if err := json.Unmarshal(payload, &msg); err != nil {
		return Message{}, err
	}
	if msg.Version > MessageVersion {
		return msg, fmt.Errorf("%w: %d", ErrUnsupportedVersion, msg.Version)
	}
	return msg, nil
}
