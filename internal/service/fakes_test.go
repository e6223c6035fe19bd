package service

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"sync"
	"time"

	"incubation-service/internal/apperr"
	"incubation-service/internal/model"
)

// memStore is an in-memory implementation of every store interface,
// used so the services can be tested without a database.
type memStore struct {
	mu sync.Mutex

	ideas            map[uint]*model.Idea
	statusLogs       []model.IdeaStatusLog
	records          map[uint]*model.PreIncubatee
	recordByIdea     map[uint]uint
	assignments      map[uint]*model.MentorAssignment
	profiles         map[uint]*model.MentorProfile
	conversations    map[uint]*model.Conversation
	convByAssignment map[uint]uint
	messages         map[uint]*model.Message
	reads            map[uint]map[uint]bool
	notifications    []model.Notification

	nextID uint

	// failConversation makes the assignment transaction fail after the
	// capacity check, exercising the all-or-nothing contract.
	failConversation bool

	// failRecordInsert makes the endorsement transaction fail on the
	// spawned record, exercising its all-or-nothing contract.
	failRecordInsert bool
}

func newMemStore() *memStore {
	return &memStore{
		ideas:            make(map[uint]*model.Idea),
		records:          make(map[uint]*model.PreIncubatee),
		recordByIdea:     make(map[uint]uint),
		assignments:      make(map[uint]*model.MentorAssignment),
		profiles:         make(map[uint]*model.MentorProfile),
		conversations:    make(map[uint]*model.Conversation),
		convByAssignment: make(map[uint]uint),
		messages:         make(map[uint]*model.Message),
		reads:            make(map[uint]map[uint]bool),
	}
}

// id must be called with mu held.
func (s *memStore) id() uint {
	s.nextID++
	return s.nextID
}

func (s *memStore) GetIdea(ctx context.Context, id uint) (*model.Idea, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	idea, ok := s.ideas[id]
	if !ok {
		return nil, fmt.Errorf("%w: idea %d", apperr.ErrNotFound, id)
	}
	cp := *idea
	return &cp, nil
}

func (s *memStore) ApplyTransition(ctx context.Context, idea *model.Idea, to model.IdeaStatus, entry *model.IdeaStatusLog, rec *model.PreIncubatee) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	stored, ok := s.ideas[idea.ID]
	if !ok {
		return fmt.Errorf("%w: idea %d", apperr.ErrNotFound, idea.ID)
	}
	if rec != nil && s.failRecordInsert {
		return errors.New("record insert failed")
	}
	stored.Status = to
	entry.ID = s.id()
	entry.CreatedAt = time.Now()
	s.statusLogs = append(s.statusLogs, *entry)
	if rec != nil {
		if existingID, ok := s.recordByIdea[rec.IdeaID]; ok {
			*rec = *s.records[existingID]
		} else {
			rec.ID = s.id()
			cp := *rec
			s.records[rec.ID] = &cp
			s.recordByIdea[rec.IdeaID] = rec.ID
		}
	}
	idea.Status = to
	return nil
}

func (s *memStore) GetPreIncubatee(ctx context.Context, id uint) (*model.PreIncubatee, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	rec, ok := s.records[id]
	if !ok {
		return nil, fmt.Errorf("%w: pre-incubatee %d", apperr.ErrNotFound, id)
	}
	cp := *rec
	return &cp, nil
}

func (s *memStore) SavePreIncubatee(ctx context.Context, p *model.PreIncubatee) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	cp := *p
	s.records[p.ID] = &cp
	return nil
}

func (s *memStore) GetAssignment(ctx context.Context, id uint) (*model.MentorAssignment, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	a, ok := s.assignments[id]
	if !ok {
		return nil, fmt.Errorf("%w: assignment %d", apperr.ErrNotFound, id)
	}
	cp := *a
	return &cp, nil
}

func (s *memStore) ActiveAssignmentForIdea(ctx context.Context, ideaID uint) (*model.MentorAssignment, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, a := range s.assignments {
		if a.IdeaID == ideaID && a.Status == model.AssignmentActive {
			cp := *a
			return &cp, nil
		}
	}
	return nil, fmt.Errorf("%w: no active assignment for idea %d", apperr.ErrNotFound, ideaID)
}

func (s *memStore) CountActiveForMentor(ctx context.Context, mentorID uint) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var n int64
	for _, a := range s.assignments {
		if a.MentorID == mentorID && a.Status == model.AssignmentActive {
			n++
		}
	}
	return n, nil
}

func (s *memStore) GetMentorProfile(ctx context.Context, userID uint) (*model.MentorProfile, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	p, ok := s.profiles[userID]
	if !ok {
		return nil, fmt.Errorf("%w: mentor profile %d", apperr.ErrNotFound, userID)
	}
	cp := *p
	return &cp, nil
}

func (s *memStore) CreateAssignmentWithConversation(ctx context.Context, a *model.MentorAssignment) (*model.Conversation, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.failConversation {
		return nil, errors.New("conversation insert failed")
	}
	a.ID = s.id()
	cp := *a
	s.assignments[a.ID] = &cp

	conv := &model.Conversation{
		ID:           s.id(),
		AssignmentID: a.ID,
		MentorID:     a.MentorID,
		StudentID:    a.StudentID,
	}
	s.conversations[conv.ID] = conv
	s.convByAssignment[a.ID] = conv.ID
	out := *conv
	return &out, nil
}

func (s *memStore) RevokeAssignment(ctx context.Context, a *model.MentorAssignment) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	stored, ok := s.assignments[a.ID]
	if !ok {
		return fmt.Errorf("%w: assignment %d", apperr.ErrNotFound, a.ID)
	}
	stored.Status = model.AssignmentRevoked
	if convID, ok := s.convByAssignment[a.ID]; ok {
		s.conversations[convID].Archived = true
	}
	a.Status = model.AssignmentRevoked
	return nil
}

func (s *memStore) GetConversation(ctx context.Context, id uint) (*model.Conversation, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	conv, ok := s.conversations[id]
	if !ok {
		return nil, fmt.Errorf("%w: conversation %d", apperr.ErrNotFound, id)
	}
	cp := *conv
	return &cp, nil
}

func (s *memStore) ConversationByAssignment(ctx context.Context, assignmentID uint) (*model.Conversation, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	convID, ok := s.convByAssignment[assignmentID]
	if !ok {
		return nil, fmt.Errorf("%w: conversation for assignment %d", apperr.ErrNotFound, assignmentID)
	}
	cp := *s.conversations[convID]
	return &cp, nil
}

func (s *memStore) CreateMessage(ctx context.Context, m *model.Message) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	m.ID = s.id()
	if m.CreatedAt.IsZero() {
		m.CreatedAt = time.Now()
	}
	cp := *m
	s.messages[m.ID] = &cp
	return nil
}

func (s *memStore) GetMessage(ctx context.Context, id uint) (*model.Message, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	m, ok := s.messages[id]
	if !ok {
		return nil, fmt.Errorf("%w: message %d", apperr.ErrNotFound, id)
	}
	cp := *m
	return &cp, nil
}

func (s *memStore) SaveMessage(ctx context.Context, m *model.Message) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	cp := *m
	s.messages[m.ID] = &cp
	return nil
}

func (s *memStore) ListMessages(ctx context.Context, conversationID uint, limit, offset int) ([]model.Message, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var msgs []model.Message
	for _, m := range s.messages {
		if m.ConversationID == conversationID {
			msgs = append(msgs, *m)
		}
	}
	sort.Slice(msgs, func(i, j int) bool {
		if msgs[i].CreatedAt.Equal(msgs[j].CreatedAt) {
			return msgs[i].ID < msgs[j].ID
		}
		return msgs[i].CreatedAt.Before(msgs[j].CreatedAt)
	})
	if offset >= len(msgs) {
		return nil, nil
	}
	msgs = msgs[offset:]
	if limit < len(msgs) {
		msgs = msgs[:limit]
	}
	return msgs, nil
}

func (s *memStore) MarkRead(ctx context.Context, conversationID, readerID uint, until time.Time) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, m := range s.messages {
		if m.ConversationID != conversationID || m.SenderID == readerID || m.CreatedAt.After(until) {
			continue
		}
		if s.reads[m.ID] == nil {
			s.reads[m.ID] = make(map[uint]bool)
		}
		s.reads[m.ID][readerID] = true
	}
	return nil
}

func (s *memStore) CreateNotification(ctx context.Context, n *model.Notification) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	n.ID = s.id()
	n.CreatedAt = time.Now()
	s.notifications = append(s.notifications, *n)
	return nil
}

func (s *memStore) ListNotifications(ctx context.Context, userID uint, unreadOnly bool) ([]model.Notification, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []model.Notification
	for _, n := range s.notifications {
		if n.UserID != userID {
			continue
		}
		if unreadOnly && n.Read {
			continue
		}
		out = append(out, n)
	}
	return out, nil
}

func (s *memStore) MarkNotificationRead(ctx context.Context, id, userID uint) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	for i := range s.notifications {
		if s.notifications[i].ID == id && s.notifications[i].UserID == userID {
			s.notifications[i].Read = true
			return nil
		}
	}
	return fmt.Errorf("%w: notification %d", apperr.ErrNotFound, id)
}

// notificationsFor returns the kinds dispatched to userID, in order.
func (s *memStore) notificationsFor(userID uint) []model.NotificationKind {
	s.mu.Lock()
	defer s.mu.Unlock()
	var kinds []model.NotificationKind
	for _, n := range s.notifications {
		if n.UserID == userID {
			kinds = append(kinds, n.Kind)
		}
	}
	return kinds
}

// seedIdea inserts an idea owned by studentID in the given status.
func (s *memStore) seedIdea(studentID uint, status model.IdeaStatus) *model.Idea {
	s.mu.Lock()
	defer s.mu.Unlock()
	idea := &model.Idea{
		ID:        s.id(),
		StudentID: studentID,
		Title:     "solar powered irrigation",
		Status:    status,
	}
	s.ideas[idea.ID] = idea
	return idea
}

// seedMentor inserts a mentor profile with the given capacity.
func (s *memStore) seedMentor(userID uint, maxStudents int) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.profiles[userID] = &model.MentorProfile{
		ID:          s.id(),
		UserID:      userID,
		MaxStudents: maxStudents,
	}
}

// seedRecord inserts an active pre-incubation record.
func (s *memStore) seedRecord(ideaID, studentID uint, phase model.IncubationPhase, progress int) *model.PreIncubatee {
	s.mu.Lock()
	defer s.mu.Unlock()
	rec := &model.PreIncubatee{
		ID:                 s.id(),
		IdeaID:             ideaID,
		StudentID:          studentID,
		Phase:              phase,
		ProgressPercentage: progress,
		Status:             model.PreIncubateeActive,
	}
	s.records[rec.ID] = rec
	s.recordByIdea[ideaID] = rec.ID
	return rec
}

// seedConversation inserts an active assignment with its conversation.
func (s *memStore) seedConversation(ideaID, mentorID, studentID uint) (*model.MentorAssignment, *model.Conversation) {
	s.mu.Lock()
	defer s.mu.Unlock()
	a := &model.MentorAssignment{
		ID:        s.id(),
		IdeaID:    ideaID,
		MentorID:  mentorID,
		StudentID: studentID,
		Status:    model.AssignmentActive,
	}
	s.assignments[a.ID] = a
	conv := &model.Conversation{
		ID:           s.id(),
		AssignmentID: a.ID,
		MentorID:     mentorID,
		StudentID:    studentID,
	}
	s.conversations[conv.ID] = conv
	s.convByAssignment[a.ID] = conv.ID
	return a, conv
}

// broadcastCall is one captured fan-out.
type broadcastCall struct {
	userIDs []uint
	event   string
	payload interface{}
}

// fakeBroadcaster records broadcasts instead of delivering them.
type fakeBroadcaster struct {
	mu    sync.Mutex
	calls []broadcastCall
}

func (b *fakeBroadcaster) Broadcast(userIDs []uint, event string, payload interface{}) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.calls = append(b.calls, broadcastCall{userIDs: userIDs, event: event, payload: payload})
}

func (b *fakeBroadcaster) events() []string {
	b.mu.Lock()
	defer b.mu.Unlock()
	var out []string
	for _, c := range b.calls {
		out = append(out, c.event)
	}
	return out
}
