package apperrors

import "errors"

var (
	ErrInvalidInput         = errors.New("invalid input")
	ErrNotFound             = errors.New("not found")
	ErrAbsent               = errors.New("absent")
	ErrNoActiveReport       = errors.New("no active report")
	ErrReportInProgress     = errors.New("report already in progress")
	ErrConfirmationRequired = errors.New("confirmation required")
	ErrStorageExhausted     = errors.New("storage exhausted")
	ErrValidation           = errors.New("validation failed")
	ErrUnauthorized         = errors.New("unauthorized")
	ErrConflict             = errors.New("conflict")
)
