package domain

import (
	"errors"
	"fmt"
)

// ErrorCode categorizes every failure the hub can report so callers can
// branch programmatically on error kind.
type ErrorCode string

const (
	// ErrCodeUnauthorized means the caller is not the share-token
	// collaborator, the hub owner, or the listing seller.
	ErrCodeUnauthorized ErrorCode = "unauthorized"
	// ErrCodeInvalidState means the entity is not in a state that permits
	// the operation (asset already/not registered, listing not active).
	ErrCodeInvalidState ErrorCode = "invalid_state"
	// ErrCodeValidation means an argument is out of range (zero amounts or
	// addresses, fee above cap, insufficient shares or payment).
	ErrCodeValidation ErrorCode = "validation_failed"
	// ErrCodeTransferFailed means an external share or value transfer
	// reported failure.
	ErrCodeTransferFailed ErrorCode = "transfer_failed"
)

var (
	// ErrAssetAlreadyRegistered is returned when registering a tokenId twice
	ErrAssetAlreadyRegistered = errors.New("asset already registered")

	// ErrAssetNotRegistered is returned when an operation references an unknown tokenId
	ErrAssetNotRegistered = errors.New("asset not registered")

	// ErrListingNotFound is returned when a listingId is unknown
	ErrListingNotFound = errors.New("listing not found")

	// ErrListingNotActive is returned when a listing is cancelled or fully sold
	ErrListingNotActive = errors.New("listing not active")

	// ErrPaused is returned when mutation is attempted while the hub is paused
	ErrPaused = errors.New("hub is paused")

	// ErrReentrantCall is returned when a mutating call re-enters the hub
	// before the in-flight call has settled
	ErrReentrantCall = errors.New("reentrant call")
)

// Error is the categorized error type returned by every hub entry point.
type Error struct {
	Code    ErrorCode
	Message string
	Err     error
}

func (e *Error) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %s: %v", e.Code, e.Message, e.Err)
	}
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

func (e *Error) Unwrap() error {
	return e.Err
}

// NewAuthorizationError reports a caller that lacks the required authority.
func NewAuthorizationError(message string) *Error {
	return &Error{Code: ErrCodeUnauthorized, Message: message}
}

// NewStateError reports an operation against an entity in the wrong state.
func NewStateError(message string, cause error) *Error {
	return &Error{Code: ErrCodeInvalidState, Message: message, Err: cause}
}

// NewValidationError reports an argument out of range.
func NewValidationError(message string) *Error {
	return &Error{Code: ErrCodeValidation, Message: message}
}

// NewTransferError reports a failed external share or value transfer.
func NewTransferError(message string, cause error) *Error {
	return &Error{Code: ErrCodeTransferFailed, Message: message, Err: cause}
}

// CodeOf extracts the error code from err, or "" if err is not a hub error.
func CodeOf(err error) ErrorCode {
	var e *Error
	if errors.As(err, &e) {
		return e.Code
	}
	return ""
}
