package services

import "fmt"

// Error handling types and constants

type ErrorCode string

const (
	ErrNotFound              ErrorCode = "NOT_FOUND"
	ErrWorkshopNotAccepting  ErrorCode = "WORKSHOP_NOT_ACCEPTING"
	ErrCapacityFull          ErrorCode = "CAPACITY_FULL"
	ErrSpotQuotaFull         ErrorCode = "SPOT_QUOTA_FULL"
	ErrDuplicateStudent      ErrorCode = "DUPLICATE_STUDENT"
	ErrInvalidOrExpiredToken ErrorCode = "INVALID_OR_EXPIRED_TOKEN"
	ErrTokenExpired          ErrorCode = "TOKEN_EXPIRED"
	ErrAlreadyMarked         ErrorCode = "ALREADY_MARKED"
	ErrValidation            ErrorCode = "VALIDATION_ERROR"
	ErrActiveConflict        ErrorCode = "ACTIVE_CONFLICT"
	ErrInvalidTransition     ErrorCode = "INVALID_TRANSITION"
	ErrDownloadLimit         ErrorCode = "DOWNLOAD_LIMIT"
	ErrWorkshopHasRecords    ErrorCode = "WORKSHOP_HAS_RECORDS"
	ErrPermissionDenied      ErrorCode = "PERMISSION_DENIED"
	ErrDatabase              ErrorCode = "DATABASE_ERROR"
)

// RegistrationError is the typed error returned by every service operation so
// handlers can branch on kind. Routine conditions (capacity full, duplicate
// student) carry distinct codes from infrastructure failures.
type RegistrationError struct {
	Message string    `json:"message"`
	Code    ErrorCode `json:"code"`
	Details error     `json:"details,omitempty"`
}

func (e *RegistrationError) Error() string {
	if e.Details != nil {
		return fmt.Sprintf("%s [%s]: %v", e.Message, e.Code, e.Details)
	}
	return fmt.Sprintf("%s [%s]", e.Message, e.Code)
}

func (e *RegistrationError) Unwrap() error {
	return e.Details
}

func NewRegistrationError(message string, code ErrorCode, details error) *RegistrationError {
	return &RegistrationError{
		Message: message,
		Code:    code,
		Details: details,
	}
}

// Helper functions for error checking

func IsRegistrationError(err error) bool {
	_, ok := err.(*RegistrationError)
	return ok
}

func GetErrorCode(err error) ErrorCode {
	if rerr, ok := err.(*RegistrationError); ok {
		return rerr.Code
	}
	return ""
}
