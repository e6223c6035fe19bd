package service

import (
	"context"
	"time"

	"incubation-service/internal/model"
)

// Store interfaces consumed by the services. The GORM implementations
// live in internal/store; tests substitute in-memory fakes. Methods
// that touch more than one row are documented as transactional and the
// implementation must keep them all-or-nothing.

// IdeaStore loads ideas and applies status changes.
type IdeaStore interface {
	GetIdea(ctx context.Context, id uint) (*model.Idea, error)
	// ApplyTransition updates the idea's status, appends the audit
	// entry and, when rec is non-nil, inserts the spawned record, all
	// in one transaction. When the idea already has a record the
	// existing row is loaded into rec instead of creating a duplicate.
	ApplyTransition(ctx context.Context, idea *model.Idea, to model.IdeaStatus, entry *model.IdeaStatusLog, rec *model.PreIncubatee) error
}

// PreIncubateeStore owns the spawned project records after their
// creation inside the endorsement transaction.
type PreIncubateeStore interface {
	GetPreIncubatee(ctx context.Context, id uint) (*model.PreIncubatee, error)
	SavePreIncubatee(ctx context.Context, p *model.PreIncubatee) error
}

// AssignmentStore owns mentor assignments and capacity lookups.
type AssignmentStore interface {
	GetAssignment(ctx context.Context, id uint) (*model.MentorAssignment, error)
	// ActiveAssignmentForIdea returns apperr.ErrNotFound when the idea
	// has no active assignment.
	ActiveAssignmentForIdea(ctx context.Context, ideaID uint) (*model.MentorAssignment, error)
	CountActiveForMentor(ctx context.Context, mentorID uint) (int64, error)
	GetMentorProfile(ctx context.Context, userID uint) (*model.MentorProfile, error)
	// CreateAssignmentWithConversation persists the assignment and its
	// conversation in one transaction; if either insert fails, nothing
	// is kept.
	CreateAssignmentWithConversation(ctx context.Context, a *model.MentorAssignment) (*model.Conversation, error)
	// RevokeAssignment marks the assignment revoked and archives its
	// conversation in one transaction. Message history is untouched.
	RevokeAssignment(ctx context.Context, a *model.MentorAssignment) error
}

// ConversationStore owns conversations, messages and read state.
type ConversationStore interface {
	GetConversation(ctx context.Context, id uint) (*model.Conversation, error)
	ConversationByAssignment(ctx context.Context, assignmentID uint) (*model.Conversation, error)
	CreateMessage(ctx context.Context, m *model.Message) error
	GetMessage(ctx context.Context, id uint) (*model.Message, error)
	SaveMessage(ctx context.Context, m *model.Message) error
	// ListMessages returns messages ordered by (created_at, id),
	// tombstones included.
	ListMessages(ctx context.Context, conversationID uint, limit, offset int) ([]model.Message, error)
	// MarkRead adds reader rows for every message in the conversation
	// created at or before the cutoff and not sent by the reader.
	// Existing rows are kept, never removed.
	MarkRead(ctx context.Context, conversationID, readerID uint, until time.Time) error
}

// NotificationStore owns durable notification records.
type NotificationStore interface {
	CreateNotification(ctx context.Context, n *model.Notification) error
	ListNotifications(ctx context.Context, userID uint, unreadOnly bool) ([]model.Notification, error)
	MarkNotificationRead(ctx context.Context, id, userID uint) error
}

// Broadcaster fans an event out to every live connection of the given
// users. Implementations must not block the caller; delivery is
// best-effort and failures are invisible to the writer.
type Broadcaster interface {
	Broadcast(userIDs []uint, event string, payload interface{})
}
