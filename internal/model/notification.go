package model

import "time"

// NotificationKind identifies what a notification is about.
type NotificationKind string

const (
	NotifyIdeaTransition    NotificationKind = "idea_transition"
	NotifyMentorAssigned    NotificationKind = "mentor_assigned"
	NotifyMentorUnassigned  NotificationKind = "mentor_unassigned"
	NotifyNewMessage        NotificationKind = "new_message"
	NotifyPhaseAdvanced     NotificationKind = "phase_advanced"
	NotifyProgressSubmitted NotificationKind = "progress_submitted"
)

// Notification is a durable per-user notification record. Append-only;
// the recipient marks it read. Delivery beyond the stored row (push,
// email) is handled by external collaborators.
type Notification struct {
	ID        uint             `json:"id" gorm:"primaryKey"`
	UserID    uint             `json:"user_id" gorm:"index;not null"`
	Kind      NotificationKind `json:"kind" gorm:"type:varchar(40);not null"`
	Payload   string           `json:"payload" gorm:"type:jsonb"`
	Read      bool             `json:"read" gorm:"default:false"`
	CreatedAt time.Time        `json:"created_at"`
}
