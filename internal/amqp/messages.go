package amqp

import (
	"encoding/json"
	"time"
)

// ChangeMessage announces that one ledger entity changed in a diff
// round trip. It carries only the identity; the consumer fetches the
// entity body from the snapshot repository.
type ChangeMessage struct {
	Kind      string    `json:"kind"`
	ID        string    `json:"id"`
	Stamp     int64     `json:"stamp"`
	Timestamp time.Time `json:"timestamp"`
}

func NewChangeMessage(kind, id string, stamp int64) *ChangeMessage {
	return &ChangeMessage{
		Kind:      kind,
		ID:        id,
		Stamp:     stamp,
		Timestamp: time.Now(),
	}
}

// ToJSON converts the message to JSON bytes
func (m *ChangeMessage) ToJSON() ([]byte, error) {
	return json.Marshal(m)
}

// FromJSON creates a message from JSON bytes
func ChangeMessageFromJSON(data []byte) (*ChangeMessage, error) {
	var msg ChangeMessage
	if err := json.Unmarshal(data, &msg); err != nil {
		return nil, err
	}
	return &msg, nil
}
