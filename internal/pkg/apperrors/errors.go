package apperrors

import (
	"errors"
	"fmt"
)

// Record and pipeline errors
var (
	// Input errors
	ErrValidationFailed  = errors.New("validation failed")
	ErrEmptyIdentity     = errors.New("instructor reference has neither name nor email")
	ErrMalformedQuestion = errors.New("evaluation question has a malformed count vector")
	ErrInvalidSeason     = errors.New("invalid season code")

	// Structural errors
	ErrSeasonMissing = errors.New("season data missing")
	ErrRunInProgress = errors.New("a pipeline run is already in progress")
	ErrShuttingDown  = errors.New("pipeline runs are shutting down")
)

// Service errors
var (
	ErrResourceNotFound = errors.New("resource not found")
	ErrBadRequest       = errors.New("bad request")
	ErrConflict         = errors.New("conflict")

	ErrTokenExpired      = errors.New("token expired")
	ErrTokenInvalid      = errors.New("invalid token")
	ErrPermissionDenied  = errors.New("permission denied")
	ErrInvalidPassphrase = errors.New("invalid operator passphrase")
)

// ValidationError names the field of a record that failed validation.
type ValidationError struct {
	Field  string
	Reason string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("%s: field %s %s", ErrValidationFailed, e.Field, e.Reason)
}

// Unwrap lets errors.Is match ErrValidationFailed.
func (e *ValidationError) Unwrap() error {
	return ErrValidationFailed
}

// NewValidationError creates a ValidationError for field.
func NewValidationError(field, reason string) error {
	return &ValidationError{Field: field, Reason: reason}
}

// SeasonError ties a structural failure to the season it aborted.
type SeasonError struct {
	SeasonCode string
	Err        error
}

func (e *SeasonError) Error() string {
	return fmt.Sprintf("season %s: %v", e.SeasonCode, e.Err)
}

func (e *SeasonError) Unwrap() error {
	return e.Err
}

// NewSeasonMissingError reports that the data of a whole season is absent.
func NewSeasonMissingError(seasonCode, reason string) error {
	return &SeasonError{
		SeasonCode: seasonCode,
		Err:        fmt.Errorf("%w: %s", ErrSeasonMissing, reason),
	}
}

// NewResourceNotFoundError creates a new custom error for resource not found with a message
func NewResourceNotFoundError(message string) error {
	return &CustomError{
		Err:     ErrResourceNotFound,
		Message: message,
	}
}

// NewConflictError creates a new custom error for conflict situations with a message
func NewConflictError(message string) error {
	return &CustomError{
		Err:     ErrConflict,
		Message: message,
	}
}

// NewBadRequestError creates a new custom error for bad request with a message
func NewBadRequestError(message string) error {
	return &CustomError{
		Err:     ErrBadRequest,
		Message: message,
	}
}

// Is returns whether err matches target or any of errList.
func Is(err, target error, errList ...error) bool {
	if errors.Is(err, target) {
		return true
	}

	for _, e := range errList {
		if errors.Is(err, e) {
			return true
		}
	}

	return false
}

// CustomError carries a code and details alongside an underlying error.
type CustomError struct {
	Err       error
	Message   string
	StatusMsg string
	Code      string
	Details   map[string]interface{}
}

func (e *CustomError) Error() string {
	if e.Message != "" {
		return e.Message
	}
	if e.Err != nil {
		return e.Err.Error()
	}
	return "unknown error"
}

func (e *CustomError) Unwrap() error {
	return e.Err
}

// NewCustomError creates a CustomError with underlying error
func NewCustomError(err error, message string) *CustomError {
	return &CustomError{
		Err:     err,
		Message: message,
	}
}

// WithDetails adds context details to the error
func (e *CustomError) WithDetails(details map[string]interface{}) *CustomError {
	e.Details = details
	return e
}

// WithCode adds an error code
func (e *CustomError) WithCode(code string) *CustomError {
	e.Code = code
	return e
}

// WithStatusMsg adds a user-friendly status message
func (e *CustomError) WithStatusMsg(msg string) *CustomError {
	e.StatusMsg = msg
	return e
}
