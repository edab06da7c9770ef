package models

import "time"

// AdminActionLog records privileged corrections to the status history so the
// append-only ledger keeps an audit trail even when an admin rewrites it.
type AdminActionLog struct {
	ID          int64     `json:"id"`
	AdminUserID string    `json:"admin_user_id"`
	ActionType  string    `json:"action_type"`
	TargetType  string    `json:"target_type"`
	TargetID    *int64    `json:"target_id,omitempty"`
	Description string    `json:"description"`
	OldValue    *string   `json:"old_value,omitempty"`
	NewValue    *string   `json:"new_value,omitempty"`
	CreatedAt   time.Time `json:"created_at"`
}

// Admin action types for status history corrections.
const (
	ActionHistoryAdd    = "HISTORY_ADD"
	ActionHistoryEdit   = "HISTORY_EDIT"
	ActionHistoryDelete = "HISTORY_DELETE"
)
