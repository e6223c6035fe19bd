package model

import "time"

// MessageType distinguishes plain text messages from file references.
type MessageType string

const (
	MessageText MessageType = "text"
	MessageFile MessageType = "file"
)

// Conversation is the 1:1 mentor/student chat channel tied to an
// assignment. Exactly one exists per assignment (unique index on
// AssignmentID); when the assignment is revoked the conversation is
// archived, keeping the history readable but blocking new writes.
type Conversation struct {
	ID           uint      `json:"id" gorm:"primaryKey"`
	AssignmentID uint      `json:"assignment_id" gorm:"uniqueIndex;not null"`
	MentorID     uint      `json:"mentor_id" gorm:"index;not null"`
	StudentID    uint      `json:"student_id" gorm:"index;not null"`
	Archived     bool      `json:"archived" gorm:"default:false"`
	CreatedAt    time.Time `json:"created_at"`
	UpdatedAt    time.Time `json:"updated_at"`
}

// IsParticipant reports whether userID is one of the two members.
func (c *Conversation) IsParticipant(userID uint) bool {
	return userID == c.MentorID || userID == c.StudentID
}

// Peer returns the other participant of the conversation.
func (c *Conversation) Peer(userID uint) uint {
	if userID == c.MentorID {
		return c.StudentID
	}
	return c.MentorID
}

// Message is a single entry in a conversation. The sequence is
// append-only and ordered by (created_at, id); edits keep the row
// identity and deletes tombstone it (DeletedAt set, body cleared) so
// ordering survives for the recipient's view.
type Message struct {
	ID             uint          `json:"id" gorm:"primaryKey"`
	ConversationID uint          `json:"conversation_id" gorm:"index;not null"`
	SenderID       uint          `json:"sender_id" gorm:"index;not null"`
	Body           string        `json:"message" gorm:"type:text"`
	MessageType    MessageType   `json:"message_type" gorm:"type:varchar(10);not null;default:'text'"`
	CreatedAt      time.Time     `json:"created_at" gorm:"index"`
	EditedAt       *time.Time    `json:"edited_at,omitempty"`
	DeletedAt      *time.Time    `json:"deleted_at,omitempty"`
	Reads          []MessageRead `json:"reads,omitempty" gorm:"foreignKey:MessageID"`
}

// Deleted reports whether the message has been tombstoned.
func (m *Message) Deleted() bool {
	return m.DeletedAt != nil
}

// MessageRead records that a user has read a message. Rows are only
// ever added, never removed, so read state is monotonic.
type MessageRead struct {
	ID        uint      `json:"id" gorm:"primaryKey"`
	MessageID uint      `json:"message_id" gorm:"uniqueIndex:idx_message_reader;not null"`
	UserID    uint      `json:"user_id" gorm:"uniqueIndex:idx_message_reader;not null"`
	CreatedAt time.Time `json:"created_at"`
}
