package model

import (
	"time"

	"gorm.io/gorm"
)

// IdeaStatus is the closed set of lifecycle states an idea can be in.
// Transitions between states are validated by the transition service;
// handlers never write the column directly.
type IdeaStatus string

const (
	StatusDraft            IdeaStatus = "draft"
	StatusSubmitted        IdeaStatus = "submitted"
	StatusUnderReview      IdeaStatus = "under_review"
	StatusEndorsed         IdeaStatus = "endorsed"
	StatusRejected         IdeaStatus = "rejected"
	StatusNeedsDevelopment IdeaStatus = "needs_development"
	StatusNurture          IdeaStatus = "nurture"
	StatusIncubated        IdeaStatus = "incubated"
)

// Valid reports whether s is one of the known lifecycle states.
func (s IdeaStatus) Valid() bool {
	switch s {
	case StatusDraft, StatusSubmitted, StatusUnderReview, StatusEndorsed,
		StatusRejected, StatusNeedsDevelopment, StatusNurture, StatusIncubated:
		return true
	}
	return false
}

// Terminal reports whether no further transitions are allowed from s.
func (s IdeaStatus) Terminal() bool {
	return s == StatusRejected || s == StatusIncubated
}

// Idea represents a student-submitted proposal tracked through the
// review/incubation pipeline. Ideas are never hard-deleted; they are
// only advanced or rejected through the transition service.
type Idea struct {
	ID          uint           `json:"id" gorm:"primaryKey"`
	StudentID   uint           `json:"student_id" gorm:"index;not null"`
	CollegeID   uint           `json:"college_id" gorm:"index"`
	Title       string         `json:"title" gorm:"type:varchar(255);not null"`
	Description string         `json:"description" gorm:"type:text"`
	Status      IdeaStatus     `json:"status" gorm:"type:varchar(30);index;not null;default:'draft'"`
	CreatedAt   time.Time      `json:"created_at"`
	UpdatedAt   time.Time      `json:"updated_at"`
	DeletedAt   gorm.DeletedAt `json:"-" gorm:"index"`
}

// IdeaStatusLog is the append-only audit trail for idea transitions.
// One row per applied transition, written in the same transaction.
type IdeaStatusLog struct {
	ID         uint       `json:"id" gorm:"primaryKey"`
	IdeaID     uint       `json:"idea_id" gorm:"index;not null"`
	FromStatus IdeaStatus `json:"from_status" gorm:"type:varchar(30);not null"`
	ToStatus   IdeaStatus `json:"to_status" gorm:"type:varchar(30);not null"`
	ActorID    uint       `json:"actor_id" gorm:"not null"`
	Feedback   string     `json:"feedback" gorm:"type:text"`
	CreatedAt  time.Time  `json:"created_at"`
}
