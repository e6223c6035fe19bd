package model

import (
	"time"

	"gorm.io/gorm"
)

// AssignmentStatus is the lifecycle state of a mentor assignment.
type AssignmentStatus string

const (
	AssignmentActive    AssignmentStatus = "active"
	AssignmentCompleted AssignmentStatus = "completed"
	AssignmentRevoked   AssignmentStatus = "revoked"
)

// MentorAssignment binds a mentor to an idea's student for guidance.
// At most one assignment per idea may be active at any time; revoked
// assignments are kept for history, never hard-deleted.
type MentorAssignment struct {
	ID             uint             `json:"id" gorm:"primaryKey"`
	IdeaID         uint             `json:"idea_id" gorm:"index;not null"`
	MentorID       uint             `json:"mentor_id" gorm:"index;not null"`
	StudentID      uint             `json:"student_id" gorm:"index;not null"`
	Status         AssignmentStatus `json:"status" gorm:"type:varchar(20);index;not null;default:'active'"`
	AssignmentType string           `json:"assignment_type" gorm:"type:varchar(50);default:'mentorship'"`
	AssignedBy     uint             `json:"assigned_by" gorm:"not null"`
	Reason         string           `json:"reason" gorm:"type:text"`
	CreatedAt      time.Time        `json:"created_at"`
	UpdatedAt      time.Time        `json:"updated_at"`
	DeletedAt      gorm.DeletedAt   `json:"-" gorm:"index"`
}

// MentorProfile holds a mentor's capacity limit. Current load is not
// stored; it is always derived as count(active assignments) so the two
// can never drift apart.
type MentorProfile struct {
	ID          uint           `json:"id" gorm:"primaryKey"`
	UserID      uint           `json:"user_id" gorm:"uniqueIndex;not null"`
	MaxStudents int            `json:"max_students" gorm:"not null;default:5"`
	Expertise   string         `json:"expertise" gorm:"type:varchar(255)"`
	CreatedAt   time.Time      `json:"created_at"`
	UpdatedAt   time.Time      `json:"updated_at"`
	DeletedAt   gorm.DeletedAt `json:"-" gorm:"index"`
}
