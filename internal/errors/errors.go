package errors

import (
	"errors"
	"fmt"
)

// ErrorCode represents a category of application error.
type ErrorCode string

const (
	// ErrCodeValidation indicates malformed or missing input caught before
	// any network call.
	ErrCodeValidation ErrorCode = "validation"
	// ErrCodeCredential indicates the identity provider rejected the
	// supplied credentials. Always surfaced with a single generic message.
	ErrCodeCredential ErrorCode = "credential"
	// ErrCodeVerificationRequired indicates valid credentials on an
	// unverified email address.
	ErrCodeVerificationRequired ErrorCode = "verification_required"
	// ErrCodeBackendContract indicates a backend response missing fields
	// the contract requires.
	ErrCodeBackendContract ErrorCode = "backend_contract"
	// ErrCodeNetwork indicates no usable response reached the caller.
	ErrCodeNetwork ErrorCode = "network"
	// ErrCodeTokenExpired indicates the backend rejected the bearer token
	// and recovery via refresh did not produce a usable replacement.
	ErrCodeTokenExpired ErrorCode = "token_expired"
	// ErrCodeConflict indicates a conflict with existing data (e.g. an
	// email already in use at registration).
	ErrCodeConflict ErrorCode = "conflict"
	// ErrCodeInternal indicates an unexpected internal failure.
	ErrCodeInternal ErrorCode = "internal"
)

// CredentialMessage is the single user-facing message for every
// provider-level credential failure. Wrong password, unknown user, and
// malformed email are deliberately indistinguishable at this boundary.
const CredentialMessage = "invalid email or password"

// AppError represents a structured application error with a code, message,
// and optional cause. It supports error wrapping and unwrapping for use
// with errors.Is and errors.As.
type AppError struct {
	// Code categorizes the error type
	Code ErrorCode
	// Message is a human-readable error message
	Message string
	// Cause is the underlying error that caused this error (optional)
	Cause error
	// Field is the specific field that caused the error (optional, for validation errors)
	Field string
}

// Error implements the error interface.
func (e *AppError) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.Cause)
	}
	return e.Message
}

// Unwrap returns the underlying cause, enabling errors.Is and errors.As.
func (e *AppError) Unwrap() error {
	return e.Cause
}

// Validation creates a new Validation error.
func Validation(message string) *AppError {
	return &AppError{
		Code:    ErrCodeValidation,
		Message: message,
	}
}

// Validationf creates a new Validation error with formatted message.
func Validationf(format string, args ...any) *AppError {
	return &AppError{
		Code:    ErrCodeValidation,
		Message: fmt.Sprintf(format, args...),
	}
}

// ValidationField creates a new Validation error for a specific field.
func ValidationField(field, message string) *AppError {
	return &AppError{
		Code:    ErrCodeValidation,
		Message: message,
		Field:   field,
	}
}

// Credential creates the normalized credential-failure error. The cause is
// retained for logging but the message never distinguishes which check failed.
func Credential(cause error) *AppError {
	return &AppError{
		Code:    ErrCodeCredential,
		Message: CredentialMessage,
		Cause:   cause,
	}
}

// VerificationRequired creates a new VerificationRequired error.
func VerificationRequired(email string) *AppError {
	return &AppError{
		Code:    ErrCodeVerificationRequired,
		Message: "email address not verified",
		Field:   email,
	}
}

// BackendContract creates a new BackendContract error.
func BackendContract(message string) *AppError {
	return &AppError{
		Code:    ErrCodeBackendContract,
		Message: message,
	}
}

// BackendContractf creates a new BackendContract error with formatted message.
func BackendContractf(format string, args ...any) *AppError {
	return &AppError{
		Code:    ErrCodeBackendContract,
		Message: fmt.Sprintf(format, args...),
	}
}

// Network creates a new Network error.
func Network(cause error) *AppError {
	return &AppError{
		Code:    ErrCodeNetwork,
		Message: "request failed, try again",
		Cause:   cause,
	}
}

// TokenExpired creates a new TokenExpired error.
func TokenExpired(cause error) *AppError {
	return &AppError{
		Code:    ErrCodeTokenExpired,
		Message: "access token expired",
		Cause:   cause,
	}
}

// Conflict creates a new Conflict error.
func Conflict(message string) *AppError {
	return &AppError{
		Code:    ErrCodeConflict,
		Message: message,
	}
}

// Internal creates a new Internal error.
func Internal(message string) *AppError {
	return &AppError{
		Code:    ErrCodeInternal,
		Message: message,
	}
}

// Internalf creates a new Internal error with formatted message.
func Internalf(format string, args ...any) *AppError {
	return &AppError{
		Code:    ErrCodeInternal,
		Message: fmt.Sprintf(format, args...),
	}
}

// Wrap wraps an existing error with an AppError, preserving the cause.
func Wrap(err error, code ErrorCode, message string) *AppError {
	if err == nil {
		return nil
	}
	return &AppError{
		Code:    code,
		Message: message,
		Cause:   err,
	}
}

// Wrapf wraps an existing error with an AppError and formatted message.
func Wrapf(err error, code ErrorCode, format string, args ...any) *AppError {
	if err == nil {
		return nil
	}
	return &AppError{
		Code:    code,
		Message: fmt.Sprintf(format, args...),
		Cause:   err,
	}
}

// isCode checks if an error has a specific error code.
func isCode(err error, code ErrorCode) bool {
	var appErr *AppError
	return errors.As(err, &appErr) && appErr.Code == code
}

// IsValidation checks if an error is a Validation error.
func IsValidation(err error) bool {
	return isCode(err, ErrCodeValidation)
}

// IsCredential checks if an error is a Credential error.
func IsCredential(err error) bool {
	return isCode(err, ErrCodeCredential)
}

// IsVerificationRequired checks if an error is a VerificationRequired error.
func IsVerificationRequired(err error) bool {
	return isCode(err, ErrCodeVerificationRequired)
}

// IsBackendContract checks if an error is a BackendContract error.
func IsBackendContract(err error) bool {
	return isCode(err, ErrCodeBackendContract)
}

// IsNetwork checks if an error is a Network error.
func IsNetwork(err error) bool {
	return isCode(err, ErrCodeNetwork)
}

// IsTokenExpired checks if an error is a TokenExpired error.
func IsTokenExpired(err error) bool {
	return isCode(err, ErrCodeTokenExpired)
}

// IsConflict checks if an error is a Conflict error.
func IsConflict(err error) bool {
	return isCode(err, ErrCodeConflict)
}

// IsInternal checks if an error is an Internal error.
func IsInternal(err error) bool {
	return isCode(err, ErrCodeInternal)
}

// GetCode returns the ErrorCode from an error, or empty string if not an AppError.
func GetCode(err error) ErrorCode {
	var appErr *AppError
	if errors.As(err, &appErr) {
		return appErr.Code
	}
	return ""
}

// GetField returns the Field from an error, or empty string if not an AppError or no field set.
func GetField(err error) string {
	var appErr *AppError
	if errors.As(err, &appErr) {
		return appErr.Field
	}
	return ""
}
