package apperrors

import "errors"

var (
	ErrEventNotFound       = errors.New("event not found")
	ErrBookingNotFound     = errors.New("booking not found")
	ErrEventNotActive      = errors.New("event is not active")
	ErrEventStarted        = errors.New("event has already started")
	ErrCapacityExceeded    = errors.New("not enough tickets available")
	ErrInvalidTransition   = errors.New("invalid booking state transition")
	ErrAlreadyTerminal     = errors.New("booking is already in a terminal state")
	ErrPolicyDenied        = errors.New("cancellation denied by policy")
	ErrUnauthorized        = errors.New("actor is not allowed to perform this action")
	ErrInvalidToken        = errors.New("verification token mismatch")
	ErrInvalidInput        = errors.New("invalid input")
	ErrInternalServerError = errors.New("internal server error")
)
