package errors

import (
	"net/http"

	"propledger/internal/errors"
)

// AppError defines the interface for application-specific errors
type AppError interface {
	error
	HTTPCode() int     // HTTP status code
	ErrorCode() string // Business error code
	Message() string   // User-friendly error message
	Details() string   // Detailed error information (optional)
}

// BaseError is a basic error structure that implements the AppError interface
type BaseError struct {
	httpCode  int
	errorCode string
	message   string
	details   string
}

// NewBaseError creates a new base error
func NewBaseError(httpCode int, errorCode, message, details string) *BaseError {
	return &BaseError{
		httpCode:  httpCode,
		errorCode: errorCode,
		message:   message,
		details:   details,
	}
}

// Error implements the error interface
func (e *BaseError) Error() string {
	if e.details != "" {
		return e.message + ": " + e.details
	}

	return e.message
}

// Is matches any BaseError carrying the same business code, so errors created
// through WithDetails still match the predefined value.
func (e *BaseError) Is(target error) bool {
	t, ok := target.(*BaseError)
	if !ok {
		return false
	}

	return t.errorCode == e.errorCode
}

// WrapMessage wraps the error with additional context message
func (e *BaseError) WrapMessage(message string) error {
	return errors.Wrap(e, message)
}

// HTTPCode returns the HTTP status code
func (e *BaseError) HTTPCode() int {
	return e.httpCode
}

// ErrorCode returns the business error code
func (e *BaseError) ErrorCode() string {
	return e.errorCode
}

// Message returns the user-friendly error message
func (e *BaseError) Message() string {
	return e.message
}

// Details returns detailed error information
func (e *BaseError) Details() string {
	return e.details
}

// WithDetails adds detailed error information
func (e *BaseError) WithDetails(details string) *BaseError {
	return &BaseError{
		httpCode:  e.httpCode,
		errorCode: e.errorCode,
		message:   e.message,
		details:   details,
	}
}

// Predefined error types
var (
	// Lifecycle errors
	ErrInvalidStateTransition = NewBaseError(
		http.StatusConflict,
		"INVALID_STATE_TRANSITION",
		"Asset cannot make this transition from its current status",
		"",
	)

	ErrUnauthorized = NewBaseError(
		http.StatusForbidden,
		"UNAUTHORIZED",
		"Your role does not permit this action",
		"",
	)

	// Trading errors
	ErrAssetNotTradeable = NewBaseError(
		http.StatusConflict,
		"ASSET_NOT_TRADEABLE",
		"Asset is not open for purchases",
		"",
	)

	ErrAssetFrozen = NewBaseError(
		http.StatusConflict,
		"ASSET_FROZEN",
		"Asset is frozen and its units cannot be moved",
		"",
	)

	ErrInsufficientFunds = NewBaseError(
		http.StatusUnprocessableEntity,
		"INSUFFICIENT_FUNDS",
		"Wallet cash balance is too low",
		"",
	)

	ErrInsufficientSupply = NewBaseError(
		http.StatusConflict,
		"INSUFFICIENT_SUPPLY",
		"Not enough unallocated units remain",
		"",
	)

	ErrInsufficientUnits = NewBaseError(
		http.StatusUnprocessableEntity,
		"INSUFFICIENT_UNITS",
		"You do not hold enough units",
		"",
	)

	ErrInsufficientFreeUnits = NewBaseError(
		http.StatusUnprocessableEntity,
		"INSUFFICIENT_FREE_UNITS",
		"You do not hold enough unlocked units",
		"",
	)

	ErrIdempotencyConflict = NewBaseError(
		http.StatusConflict,
		"IDEMPOTENCY_CONFLICT",
		"Idempotency key was already used for a different request",
		"",
	)

	// Distribution errors. ErrDistributionAlreadyApplied is never shown to users.
	ErrDistributionAlreadyApplied = NewBaseError(
		http.StatusOK,
		"DISTRIBUTION_ALREADY_APPLIED",
		"Holder was already paid for this income",
		"",
	)

	ErrIncomeAlreadyRecorded = NewBaseError(
		http.StatusConflict,
		"INCOME_ALREADY_RECORDED",
		"Rental income for this period is already recorded",
		"",
	)

	// Not found errors
	ErrUserNotFound = NewBaseError(
		http.StatusNotFound,
		"USER_NOT_FOUND",
		"User not found",
		"",
	)

	ErrAssetNotFound = NewBaseError(
		http.StatusNotFound,
		"ASSET_NOT_FOUND",
		"Asset not found",
		"",
	)

	ErrWalletNotFound = NewBaseError(
		http.StatusNotFound,
		"WALLET_NOT_FOUND",
		"Wallet not found",
		"",
	)

	ErrCollateralNotFound = NewBaseError(
		http.StatusNotFound,
		"COLLATERAL_NOT_FOUND",
		"No locked collateral for this asset",
		"",
	)

	ErrIncomeNotFound = NewBaseError(
		http.StatusNotFound,
		"INCOME_NOT_FOUND",
		"Rental income not found",
		"",
	)

	// User errors
	ErrUserAlreadyExists = NewBaseError(
		http.StatusConflict,
		"USER_ALREADY_EXISTS",
		"User is already registered",
		"",
	)

	// Validation-related errors
	ErrValidationFailed = NewBaseError(
		http.StatusBadRequest,
		"VALIDATION_FAILED",
		"Input validation failed",
		"",
	)

	// General errors
	ErrInternalError = NewBaseError(
		http.StatusInternalServerError,
		"INTERNAL_ERROR",
		"Internal error",
		"",
	)

	ErrConflict = NewBaseError(
		http.StatusConflict,
		"CONFLICT",
		"Resource conflict",
		"",
	)
)

// DatabaseExecuteError represents a database execution error, implementing the AppError interface
type DatabaseExecuteError struct {
	err     error
	details string
}

// NewDatabaseExecuteError creates a database-related error
func NewDatabaseExecuteError(err error, details string) AppError {
	return &DatabaseExecuteError{
		err:     err,
		details: details,
	}
}

// Error implements the error interface
func (e *DatabaseExecuteError) Error() string {
	return errors.Wrap(e.err, "database execution failed").Error()
}

// Unwrap exposes the driver error.
func (e *DatabaseExecuteError) Unwrap() error {
	return e.err
}

// HTTPCode returns the HTTP status code
func (e *DatabaseExecuteError) HTTPCode() int {
	return http.StatusInternalServerError
}

// ErrorCode returns the business error code
func (e *DatabaseExecuteError) ErrorCode() string {
	return "DATABASE_EXECUTE_FAILED"
}

// Message returns the user-friendly error message
func (e *DatabaseExecuteError) Message() string {
	return "Database operation failed"
}

// Details returns detailed error information
func (e *DatabaseExecuteError) Details() string {
	return e.details
}
