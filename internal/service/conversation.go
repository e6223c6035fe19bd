package service

import (
	"context"
	"fmt"
	"strings"
	"time"

	"incubation-service/internal/apperr"
	"incubation-service/internal/model"

	"go.uber.org/zap"
)

// Event names pushed through the delivery layer. All business
// validation happens here, before a broadcast is ever triggered.
const (
	EventNewMessage     = "newMessage"
	EventMessageEdited  = "messageEdited"
	EventMessageDeleted = "messageDeleted"
)

// ConversationService owns the chat channel of an assignment: message
// posting, edits, tombstone deletes, read receipts and the ordered
// read-back. Every successful write is fanned out to both participants
// through the broadcaster; delivery failures never reach the writer.
type ConversationService struct {
	conversations ConversationStore
	assignments   AssignmentStore
	broadcaster   Broadcaster
	notifier      *NotificationService
	log           *zap.Logger
}

func NewConversationService(conversations ConversationStore, assignments AssignmentStore, broadcaster Broadcaster, notifier *NotificationService, log *zap.Logger) *ConversationService {
	return &ConversationService{
		conversations: conversations,
		assignments:   assignments,
		broadcaster:   broadcaster,
		notifier:      notifier,
		log:           log,
	}
}

// Ensure returns the conversation for an assignment, creating nothing:
// the conversation is born in the assignment transaction, so by the
// time this is callable it exists. Calling it repeatedly always yields
// the same conversation (idempotent per assignment).
func (s *ConversationService) Ensure(ctx context.Context, assignmentID uint, actor Actor) (*model.Conversation, error) {
	a, err := s.assignments.GetAssignment(ctx, assignmentID)
	if err != nil {
		return nil, err
	}
	if actor.UserID != a.MentorID && actor.UserID != a.StudentID &&
		!actor.Role.IncubationLevel() && !actor.Role.CollegeLevel() {
		return nil, fmt.Errorf("%w: not a member of this assignment", apperr.ErrNotAParticipant)
	}
	return s.conversations.ConversationByAssignment(ctx, assignmentID)
}

// Get loads a conversation the actor participates in. Archived
// conversations stay readable.
func (s *ConversationService) Get(ctx context.Context, conversationID uint, actor Actor) (*model.Conversation, error) {
	conv, err := s.conversations.GetConversation(ctx, conversationID)
	if err != nil {
		return nil, err
	}
	if !conv.IsParticipant(actor.UserID) {
		return nil, apperr.ErrNotAParticipant
	}
	return conv, nil
}

// PostMessage appends a message to the conversation and broadcasts it
// to every live connection of both participants, the sender's own
// devices included.
func (s *ConversationService) PostMessage(ctx context.Context, conversationID, senderID uint, body string, msgType model.MessageType) (*model.Message, error) {
	conv, err := s.conversations.GetConversation(ctx, conversationID)
	if err != nil {
		return nil, err
	}
	if !conv.IsParticipant(senderID) {
		return nil, apperr.ErrNotAParticipant
	}
	if conv.Archived {
		return nil, apperr.ErrConversationArchived
	}
	if strings.TrimSpace(body) == "" {
		return nil, fmt.Errorf("%w: empty message body", apperr.ErrInvalidInput)
	}
	if msgType == "" {
		msgType = model.MessageText
	}
	if msgType != model.MessageText && msgType != model.MessageFile {
		return nil, fmt.Errorf("%w: unknown message type %q", apperr.ErrInvalidInput, msgType)
	}

	m := &model.Message{
		ConversationID: conversationID,
		SenderID:       senderID,
		Body:           body,
		MessageType:    msgType,
	}
	if err := s.conversations.CreateMessage(ctx, m); err != nil {
		return nil, err
	}

	s.broadcaster.Broadcast(s.participants(conv), EventNewMessage, m)
	s.notifier.Dispatch(ctx, conv.Peer(senderID), model.NotifyNewMessage, map[string]interface{}{
		"conversation_id": conversationID,
		"message_id":      m.ID,
		"sender_id":       senderID,
	})
	return m, nil
}

// EditMessage changes the body in place, keeping the row identity.
// Only the original sender may edit, and not through an archive.
func (s *ConversationService) EditMessage(ctx context.Context, messageID, actorID uint, body string) (*model.Message, error) {
	m, conv, err := s.messageWithConversation(ctx, messageID)
	if err != nil {
		return nil, err
	}
	if m.SenderID != actorID {
		return nil, apperr.ErrNotOwner
	}
	if conv.Archived {
		return nil, apperr.ErrConversationArchived
	}
	if m.Deleted() {
		return nil, fmt.Errorf("%w: message was deleted", apperr.ErrInvalidInput)
	}
	if strings.TrimSpace(body) == "" {
		return nil, fmt.Errorf("%w: empty message body", apperr.ErrInvalidInput)
	}

	now := time.Now()
	m.Body = body
	m.EditedAt = &now
	if err := s.conversations.SaveMessage(ctx, m); err != nil {
		return nil, err
	}

	s.broadcaster.Broadcast(s.participants(conv), EventMessageEdited, m)
	return m, nil
}

// DeleteMessage tombstones the message: the row keeps its place in the
// sequence with the body cleared, so ordering survives for the
// recipient's view. Only the original sender may delete, and not
// through an archive.
func (s *ConversationService) DeleteMessage(ctx context.Context, messageID, actorID uint) (*model.Message, error) {
	m, conv, err := s.messageWithConversation(ctx, messageID)
	if err != nil {
		return nil, err
	}
	if m.SenderID != actorID {
		return nil, apperr.ErrNotOwner
	}
	if conv.Archived {
		return nil, apperr.ErrConversationArchived
	}
	if m.Deleted() {
		return m, nil
	}

	now := time.Now()
	m.Body = ""
	m.DeletedAt = &now
	if err := s.conversations.SaveMessage(ctx, m); err != nil {
		return nil, err
	}

	s.broadcaster.Broadcast(s.participants(conv), EventMessageDeleted, m)
	return m, nil
}

// MarkRead adds the reader to the read state of every message up to
// now. Read state only ever grows.
func (s *ConversationService) MarkRead(ctx context.Context, conversationID, readerID uint) error {
	conv, err := s.conversations.GetConversation(ctx, conversationID)
	if err != nil {
		return err
	}
	if !conv.IsParticipant(readerID) {
		return apperr.ErrNotAParticipant
	}
	return s.conversations.MarkRead(ctx, conversationID, readerID, time.Now())
}

// ListMessages returns the ordered page of messages, tombstones
// included. Reading is allowed on archived conversations.
func (s *ConversationService) ListMessages(ctx context.Context, conversationID uint, actor Actor, limit, offset int) ([]model.Message, error) {
	conv, err := s.conversations.GetConversation(ctx, conversationID)
	if err != nil {
		return nil, err
	}
	if !conv.IsParticipant(actor.UserID) {
		return nil, apperr.ErrNotAParticipant
	}
	if limit <= 0 || limit > 200 {
		limit = 50
	}
	if offset < 0 {
		offset = 0
	}
	return s.conversations.ListMessages(ctx, conv.ID, limit, offset)
}

func (s *ConversationService) messageWithConversation(ctx context.Context, messageID uint) (*model.Message, *model.Conversation, error) {
	m, err := s.conversations.GetMessage(ctx, messageID)
	if err != nil {
		return nil, nil, err
	}
	conv, err := s.conversations.GetConversation(ctx, m.ConversationID)
	if err != nil {
		return nil, nil, err
	}
	return m, conv, nil
}

func (s *ConversationService) participants(conv *model.Conversation) []uint {
	return []uint{conv.MentorID, conv.StudentID}
}
