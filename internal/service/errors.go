package service

import (
	"errors"
	"fmt"
)

// Store contract errors.  Implementations translate their own not-found
// and unique-violation errors into these.
var (
	ErrNotFound  = errors.New("not found")
	ErrSlotTaken = errors.New("slot already booked")
	// ErrStatusChanged reports that a conditional transition found the
	// booking in a different status than expected.
	ErrStatusChanged = errors.New("booking status changed")
)

// Code classifies a reservation failure.
type Code string

const (
	CodeInvalid           Code = "invalid"
	CodeNotFound          Code = "not_found"
	CodeSlotTaken         Code = "slot_taken"
	CodeInsufficientStock Code = "insufficient_stock"
	CodeInvalidTransition Code = "invalid_transition"
)

// Step names the wizard step a caller should return to after a failure.
type Step string

const (
	StepDate      Step = "date"
	StepTimeslots Step = "timeslots"
	StepGames     Step = "games"
	StepSummary   Step = "summary"
)

// Error is a user-facing reservation failure.  Message is safe to show.
type Error struct {
	Code    Code
	Step    Step
	Message string
}

func (e *Error) Error() string { return e.Message }

func fail(code Code, step Step, format string, args ...any) *Error {
	return &Error{Code: code, Step: step, Message: fmt.Sprintf(format, args...)}
}

// CodeOf returns the Code carried by err, or "" for unexpected errors.
func CodeOf(err error) Code {
	var e *Error
	if errors.As(err, &e) {
		return e.Code
	}
	return ""
}

// IsConflict reports whether err is a recoverable booking conflict.
func IsConflict(err error) bool {
	switch CodeOf(err) {
	case CodeSlotTaken, CodeInsufficientStock:
		return true
	}
	return false
}
