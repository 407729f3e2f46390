package model

import (
	"time"

	"github.com/google/uuid"
)

// AuditEntry captures an operation against the control plane. ID is assigned
// once at creation so a single entry can be correlated across the local
// sqlite log, the optional fleet-wide mysql store and any HTTP response that
// surfaced it.
type AuditEntry struct {
	ID        uuid.UUID `json:"id"`
	Actor     string    `json:"actor"`
	Action    string    `json:"action"`
	Target    string    `json:"target"`
	Detail    string    `json:"detail,omitempty"`
	Timestamp time.Time `json:"timestamp"`
}

// NewAuditEntry stamps a fresh ID and timestamp.
func NewAuditEntry(actor, action, target, detail string) AuditEntry {
	return AuditEntry{
		ID:        uuid.New(),
		Actor:     actor,
		Action:    action,
		Target:    target,
		Detail:    detail,
		Timestamp: time.Now(),
	}
}
