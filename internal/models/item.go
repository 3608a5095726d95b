package models

import "time"

// Priority ranks a work item.
type Priority string

const (
	PriorityLow    Priority = "low"
	PriorityMedium Priority = "medium"
	PriorityHigh   Priority = "high"
)

// WorkItem is a synthetic task assigned to exactly one owner.
type WorkItem struct {
	ID          string    `json:"id"`
	Title       string    `json:"title"`
	Description string    `json:"description"`
	Category    string    `json:"category"`
	Priority    Priority  `json:"priority"`
	DueDate     time.Time `json:"dueDate"`
	OwnerEmail  string    `json:"userEmail"`
}

// ItemFilter narrows a list of work items. Empty fields and "all" match
// everything; Search is a case-insensitive substring of title or description.
type ItemFilter struct {
	Search   string `json:"search,omitempty"`
	Category string `json:"category,omitempty"`
	Priority string `json:"priority,omitempty"`
}
