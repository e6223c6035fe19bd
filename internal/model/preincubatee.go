package model

import (
	"time"

	"gorm.io/gorm"
)

// IncubationPhase is the fixed ordered list of pre-incubation phases.
type IncubationPhase string

const (
	PhaseIdeation         IncubationPhase = "ideation"
	PhasePrototyping      IncubationPhase = "prototyping"
	PhaseMarketValidation IncubationPhase = "market_validation"
	PhaseBusinessPlanning IncubationPhase = "business_planning"
	PhaseFunding          IncubationPhase = "funding"
	PhaseLaunch           IncubationPhase = "launch"
)

// PhaseOrder lists the phases in progression order. AdvancePhase walks
// this slice; launch is final.
var PhaseOrder = []IncubationPhase{
	PhaseIdeation,
	PhasePrototyping,
	PhaseMarketValidation,
	PhaseBusinessPlanning,
	PhaseFunding,
	PhaseLaunch,
}

// NextPhase returns the phase following p and true, or p and false when
// p is the final phase (or unknown).
func NextPhase(p IncubationPhase) (IncubationPhase, bool) {
	for i, ph := range PhaseOrder {
		if ph == p && i+1 < len(PhaseOrder) {
			return PhaseOrder[i+1], true
		}
	}
	return p, false
}

// PreIncubateeStatus is the lifecycle state of a pre-incubation record.
type PreIncubateeStatus string

const (
	PreIncubateeActive    PreIncubateeStatus = "active"
	PreIncubateeCompleted PreIncubateeStatus = "completed"
	PreIncubateePaused    PreIncubateeStatus = "paused"
	PreIncubateeCancelled PreIncubateeStatus = "cancelled"
)

// Terminal reports whether the record can no longer be mutated.
func (s PreIncubateeStatus) Terminal() bool {
	return s == PreIncubateeCompleted || s == PreIncubateeCancelled
}

// PreIncubatee is the tracked project record spawned when an idea is
// endorsed. At most one exists per idea, enforced by the unique index
// on IdeaID rather than by re-checking transition history.
type PreIncubatee struct {
	ID                 uint               `json:"id" gorm:"primaryKey"`
	IdeaID             uint               `json:"idea_id" gorm:"uniqueIndex;not null"`
	StudentID          uint               `json:"student_id" gorm:"index;not null"`
	Phase              IncubationPhase    `json:"phase" gorm:"type:varchar(30);not null;default:'ideation'"`
	ProgressPercentage int                `json:"progress_percentage" gorm:"not null;default:0"`
	Status             PreIncubateeStatus `json:"status" gorm:"type:varchar(20);index;not null;default:'active'"`
	Notes              string             `json:"notes" gorm:"type:text"`
	CreatedAt          time.Time          `json:"created_at"`
	UpdatedAt          time.Time          `json:"updated_at"`
	DeletedAt          gorm.DeletedAt     `json:"-" gorm:"index"`
}
