package domain

import (
	"errors"
	"fmt"
)

var (
	ErrRecordNotFound            = errors.New("record not found")
	ErrEditConflict              = errors.New("edit conflict")
	ErrHoldExpired               = errors.New("seat hold has expired, please select your seats again")
	ErrSignatureInvalid          = errors.New("invalid gateway signature")
	ErrTransactionNotFound       = errors.New("payment transaction not found")
	ErrAmountMismatch            = errors.New("gateway amount does not match payment amount")
	ErrBookingAlreadyPaid        = errors.New("booking has already been paid")
	ErrDuplicateConfirmationCode = errors.New("duplicate confirmation code")
	ErrDuplicateTransactionRef   = errors.New("duplicate transaction reference")
)

type ValidationError struct {
	Field   string
	Message string
}

func (e *ValidationError) Error() string {
	if e.Field == "" {
		return e.Message
	}

	return fmt.Sprintf("%s: %s", e.Field, e.Message)
}

func NewValidationError(field, message string) *ValidationError {
	return &ValidationError{Field: field, Message: message}
}

type SeatUnavailableError struct {
	ShowtimeID string
	SeatID     string
}

func (e *SeatUnavailableError) Error() string {
	return fmt.Sprintf("seat %s is not available for showtime %s", e.SeatID, e.ShowtimeID)
}

// InconsistentStateError reports a seat that was expected to be HOLDING, usually
// because its hold expired between payment and confirmation.
type InconsistentStateError struct {
	ShowtimeID string
	SeatID     string
	State      SeatState
}

func (e *InconsistentStateError) Error() string {
	return fmt.Sprintf("seat %s of showtime %s is %s, expected %s", e.SeatID, e.ShowtimeID, e.State, SeatHolding)
}
