package events

import (
	"encoding/json"
	"time"
)

// Entities and actions carried by change messages.
const (
	EntityExpense = "expense"
	EntityBudget  = "budget"

	ActionCreated  = "created"
	ActionUpdated  = "updated"
	ActionDeleted  = "deleted"
	ActionImported = "imported"
)

// ChangeMessage tells other devices that an owner's records changed and
// any fetched state is stale. It deliberately carries no record payload;
// consumers invalidate their caches and refetch from the store, so a
// lost or reordered message at worst delays convergence.
type ChangeMessage struct {
	OwnerID   string    `json:"owner_id"`
	Entity    string    `json:"entity"`
	Action    string    `json:"action"`
	RecordID  string    `json:"record_id,omitempty"`
	Timestamp time.Time `json:"timestamp"`
}

// NewChangeMessage creates a change notification for one record event
func NewChangeMessage(ownerID, entity, action, recordID string) *ChangeMessage {
	return &ChangeMessage{
		OwnerID:   ownerID,
		Entity:    entity,
		Action:    action,
		RecordID:  recordID,
		Timestamp: time.Now(),
	}
}

// ToJSON converts the message to JSON bytes
func (m *ChangeMessage) ToJSON() ([]byte, error) {
	return json.Marshal(m)
}

// ChangeMessageFromJSON creates a message from JSON bytes
func ChangeMessageFromJSON(data []byte) (*ChangeMessage, error) {
	var msg ChangeMessage
	if err := json.Unmarshal(data, &msg); err != nil {
		return nil, err
	}
	return &msg, nil
}
