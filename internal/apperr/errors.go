// Package apperr defines the domain error taxonomy. Every rejected
// operation surfaces one of these sentinels so callers can react to
// the specific failure instead of a generic one.
package apperr

import (
	"errors"
	"net/http"
)

var (
	// ErrInvalidTransition is returned for any status edge outside the
	// idea lifecycle graph.
	ErrInvalidTransition = errors.New("invalid status transition")

	// ErrUnauthorized is returned when the actor's role lacks permission
	// for the requested operation.
	ErrUnauthorized = errors.New("actor not authorized for this operation")

	// ErrInvalidPhaseForAssignment is returned when assigning a mentor to
	// an idea that is not in nurture or needs_development.
	ErrInvalidPhaseForAssignment = errors.New("idea status does not allow mentor assignment")

	// ErrAlreadyAssigned is returned when the idea already has an active
	// mentor assignment.
	ErrAlreadyAssigned = errors.New("idea already has an active mentor assignment")

	// ErrCapacityExceeded is returned when the mentor is at max_students.
	ErrCapacityExceeded = errors.New("mentor is at maximum student capacity")

	// ErrContended is returned when the per-key lock could not be
	// acquired within the configured timeout. Safe to retry; no partial
	// state is persisted.
	ErrContended = errors.New("operation contended, retry")

	// ErrNotAParticipant is returned when the sender is not a member of
	// the conversation.
	ErrNotAParticipant = errors.New("user is not a participant of this conversation")

	// ErrConversationArchived is returned on writes to a conversation
	// whose assignment was revoked. Reads remain allowed.
	ErrConversationArchived = errors.New("conversation is archived")

	// ErrNotOwner is returned when a non-sender tries to edit or delete
	// a message.
	ErrNotOwner = errors.New("only the sender may modify this message")

	// ErrRegressionRejected is returned when a progress update would
	// decrease the percentage within the same phase.
	ErrRegressionRejected = errors.New("progress percentage may not decrease within a phase")

	// ErrAlreadyFinalPhase is returned when advancing past launch.
	ErrAlreadyFinalPhase = errors.New("record is already in the final phase")

	// ErrNotFound is returned when the referenced entity does not exist.
	ErrNotFound = errors.New("not found")

	// ErrTerminalRecord is returned on mutations of a completed or
	// cancelled pre-incubation record.
	ErrTerminalRecord = errors.New("record is in a terminal status")

	// ErrInvalidInput is returned for malformed or out-of-range input.
	ErrInvalidInput = errors.New("invalid input")
)

// codes maps sentinels to the machine-readable code reported in error
// responses.
var codes = map[error]string{
	ErrInvalidTransition:         "InvalidTransition",
	ErrUnauthorized:              "Unauthorized",
	ErrInvalidPhaseForAssignment: "InvalidPhaseForAssignment",
	ErrAlreadyAssigned:           "AlreadyAssigned",
	ErrCapacityExceeded:          "CapacityExceeded",
	ErrContended:                 "Contended",
	ErrNotAParticipant:           "NotAParticipant",
	ErrConversationArchived:      "ConversationArchived",
	ErrNotOwner:                  "NotOwner",
	ErrRegressionRejected:        "RegressionRejected",
	ErrAlreadyFinalPhase:         "AlreadyFinalPhase",
	ErrNotFound:                  "NotFound",
	ErrTerminalRecord:            "TerminalRecord",
	ErrInvalidInput:              "InvalidInput",
}

// statuses maps sentinels to HTTP status codes.
var statuses = map[error]int{
	ErrInvalidTransition:         http.StatusUnprocessableEntity,
	ErrUnauthorized:              http.StatusForbidden,
	ErrInvalidPhaseForAssignment: http.StatusUnprocessableEntity,
	ErrAlreadyAssigned:           http.StatusConflict,
	ErrCapacityExceeded:          http.StatusConflict,
	ErrContended:                 http.StatusConflict,
	ErrNotAParticipant:           http.StatusForbidden,
	ErrConversationArchived:      http.StatusConflict,
	ErrNotOwner:                  http.StatusForbidden,
	ErrRegressionRejected:        http.StatusUnprocessableEntity,
	ErrAlreadyFinalPhase:         http.StatusUnprocessableEntity,
	ErrNotFound:                  http.StatusNotFound,
	ErrTerminalRecord:            http.StatusConflict,
	ErrInvalidInput:              http.StatusBadRequest,
}

// Code returns the taxonomy name for err, or "Internal" when err is not
// a known domain error.
func Code(err error) string {
	for sentinel, code := range codes {
		if errors.Is(err, sentinel) {
			return code
		}
	}
	return "Internal"
}

// HTTPStatus returns the HTTP status for err, defaulting to 500.
func HTTPStatus(err error) int {
	for sentinel, status := range statuses {
		if errors.Is(err, sentinel) {
			return status
		}
	}
	return http.StatusInternalServerError
}
