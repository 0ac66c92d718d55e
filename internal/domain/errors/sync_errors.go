package errors

import (
	"errors"
	"fmt"
	"net/http"

	pkgerrors "github.com/railroadmedia/customer-io/pkg/errors"
)

// SyncError is returned by every customer sync operation. Type says which
// part of the pipeline failed; Code maps it onto the shared error codes.
type SyncError struct {
	Type       string
	Message    string
	Account    string
	StatusCode int
	Body       string
	Cause      error
}

func (e *SyncError) Error() string {
	msg := e.Message
	if e.StatusCode != 0 {
		msg = fmt.Sprintf("%s (status %d)", msg, e.StatusCode)
	}
	if e.Cause != nil {
		return fmt.Sprintf("%s: %s: %v", e.Type, msg, e.Cause)
	}
	return fmt.Sprintf("%s: %s", e.Type, msg)
}

func (e *SyncError) Unwrap() error {
	return e.Cause
}

func (e *SyncError) Code() string {
	switch e.Type {
	case ErrTypeNotFound:
		return pkgerrors.ErrNotFound
	case ErrTypeConfiguration:
		return pkgerrors.ErrMisconfigured
	case ErrTypeRemoteAPI:
		return pkgerrors.ErrBadGateway
	case ErrTypeMerge:
		return pkgerrors.ErrConflict
	case ErrTypeValidation:
		return pkgerrors.ErrUnprocessable
	default:
		return pkgerrors.ErrInternal
	}
}

const (
	ErrTypeConfiguration  = "CONFIGURATION"
	ErrTypePersistence    = "PERSISTENCE"
	ErrTypeRemoteAPI      = "REMOTE_API"
	ErrTypeNotFound       = "NOT_FOUND"
	ErrTypeMerge          = "MERGE"
	ErrTypeFormProcessing = "FORM_PROCESSING"
	ErrTypeValidation     = "VALIDATION"
)

// NewConfigurationError reports an account name with no configuration.
func NewConfigurationError(accountName string) *SyncError {
	return &SyncError{
		Type:    ErrTypeConfiguration,
		Message: fmt.Sprintf("failed to connect to customer.io account, no config exists for account name: %s", accountName),
		Account: accountName,
	}
}

func NewPersistenceError(message string, cause error) *SyncError {
	return &SyncError{
		Type:    ErrTypePersistence,
		Message: message,
		Cause:   cause,
	}
}

// NewRemoteAPIError reports a failed remote call. statusCode is 0 when the
// request never got a response.
func NewRemoteAPIError(statusCode int, message, body string, cause error) *SyncError {
	return &SyncError{
		Type:       ErrTypeRemoteAPI,
		Message:    message,
		StatusCode: statusCode,
		Body:       body,
		Cause:      cause,
	}
}

func NewNotFoundError(message string) *SyncError {
	return &SyncError{
		Type:       ErrTypeNotFound,
		Message:    message,
		StatusCode: http.StatusNotFound,
	}
}

func NewMergeError(primaryID, secondaryID, accountName string) *SyncError {
	return &SyncError{
		Type: ErrTypeMerge,
		Message: fmt.Sprintf(
			"could not merge customer ids because one is missing from the database. primary customer id: %s - secondary customer id: %s - account name: %s",
			primaryID, secondaryID, accountName,
		),
		Account: accountName,
	}
}

func NewFormProcessingError(formName, email string, cause error) *SyncError {
	return &SyncError{
		Type:    ErrTypeFormProcessing,
		Message: fmt.Sprintf("failed to process form: %s for email address: %s", formName, email),
		Cause:   cause,
	}
}

func NewValidationError(message string) *SyncError {
	return &SyncError{
		Type:    ErrTypeValidation,
		Message: message,
	}
}

// IsType reports whether err wraps a SyncError of the given type, at any
// depth of the chain.
func IsType(err error, errType string) bool {
	var syncErr *SyncError
	if !errors.As(err, &syncErr) {
		return false
	}
	if syncErr.Type == errType {
		return true
	}
	return IsType(syncErr.Cause, errType)
}

func IsNotFound(err error) bool {
	return IsType(err, ErrTypeNotFound)
}

func IsRemoteAPI(err error) bool {
	return IsType(err, ErrTypeRemoteAPI)
}
