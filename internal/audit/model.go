package audit

import (
	"encoding/json"
	"time"

	"github.com/google/uuid"
)

// Action kinds recorded against ledger entities.
const (
	ActionCreate  = "CREATE"
	ActionUpdate  = "UPDATE"
	ActionSubmit  = "SUBMIT"
	ActionApprove = "APPROVE"
	ActionPost    = "POST"
	ActionCancel  = "CANCEL"
	ActionDelete  = "DELETE"
)

// Record is one append-only row of the change log. Records are never
// updated or deleted; ChainHash links each record to its predecessor for
// the same (table, record) so the trail is machine-checkable.
type Record struct {
	ID         uuid.UUID
	TableName  string
	RecordID   uuid.UUID
	Action     string
	OldValues  json.RawMessage
	NewValues  json.RawMessage
	ActorID    uuid.UUID
	ChainHash  []byte
	OccurredAt time.Time
}

// Snapshot marshals a before/after value for storage. A nil value yields
// a nil snapshot, kept distinct from JSON null.
func Snapshot(v any) (json.RawMessage, error) {
	if v == nil {
		return nil, nil
	}
	return json.Marshal(v)
}
