package amqp

import (
	"encoding/json"
	"time"

	"zenbudget/internal/store"
)

// ChangeMessage announces that a user's collection changed. Consumers
// re-read the collection; the message carries no data.
type ChangeMessage struct {
	UserID     string           `json:"user_id"`
	Collection store.Collection `json:"collection"`
	Timestamp  time.Time        `json:"timestamp"`
}

// NewChangeMessage creates a message for c stamped with the current time.
func NewChangeMessage(c store.Change) *ChangeMessage {
	return &ChangeMessage{
		UserID:     c.UserID,
		Collection: c.Collection,
		Timestamp:  time.Now(),
	}
}

// Change returns the store change carried by m.
func (m *ChangeMessage) Change() store.Change {
	return store.Change{UserID: m.UserID, Collection: m.Collection}
}

// ToJSON converts the message to JSON bytes
func (m *ChangeMessage) ToJSON() ([]byte, error) {
	return json.Marshal(m)
}

// ChangeMessageFromJSON decodes a message and rejects incomplete ones.
func ChangeMessageFromJSON(data []byte) (*ChangeMessage, error) {
	var msg ChangeMessage
	if err := json.Unmarshal(data, &msg); err != nil {
		return nil, err
	}
	if msg.UserID == "" || msg.Collection == "" {
		return nil, errInvalidMessage
	}
	return &msg, nil
}
