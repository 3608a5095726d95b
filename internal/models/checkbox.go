package models

import "time"

// CheckboxState is the latest completion flag of one (owner, item) pair.
type CheckboxState struct {
	ItemID      string    `json:"rowId"`
	Checked     bool      `json:"checked"`
	LastUpdated time.Time `json:"lastUpdated"`
}

// AuditLogEntry is the latest change of one (owner, item) pair. The audit
// log keeps at most one entry per pair.
type AuditLogEntry struct {
	OwnerEmail string    `json:"userEmail"`
	ItemID     string    `json:"rowId"`
	Checked    bool      `json:"checked"`
	Timestamp  time.Time `json:"timestamp"`
}

// AuditEvent is one checkbox change in the append-only history.
type AuditEvent struct {
	ID         string    `json:"id"`
	OwnerEmail string    `json:"userEmail"`
	ItemID     string    `json:"rowId"`
	Checked    bool      `json:"checked"`
	Timestamp  time.Time `json:"timestamp"`
}

// DashboardStats summarises a user's items.
type DashboardStats struct {
	Total          int `json:"total"`
	Completed      int `json:"completed"`
	HighPriority   int `json:"high_priority"`
	CompletionRate int `json:"completion_rate"`
}

// Dashboard is everything the client needs to render a user's overview.
type Dashboard struct {
	Items  []WorkItem               `json:"items"`
	States map[string]CheckboxState `json:"states"`
	Stats  DashboardStats           `json:"stats"`
}
