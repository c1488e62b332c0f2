package services

import "errors"

var (
	// ErrNotFound means a referenced entity does not exist.
	ErrNotFound = errors.New("not found")
	// ErrValidation means the request is well formed but semantically rejected.
	ErrValidation = errors.New("validation failed")
)

// Error carries the user facing message of a failed operation. Kind is
// ErrNotFound or ErrValidation and can be tested with errors.Is.
type Error struct {
	Kind    error
	Message string
}

func (e *Error) Error() string { return e.Message }

func (e *Error) Unwrap() error { return e.Kind }

func notFound(msg string) error { return &Error{Kind: ErrNotFound, Message: msg} }

func invalid(msg string) error { return &Error{Kind: ErrValidation, Message: msg} }

// User facing messages.
const (
	MsgAgentNotFound      = "Agent not found"
	MsgInvalidCode        = "Invalid verification code"
	MsgZipcodeNotFound    = "Zipcode not found"
	MsgInvalidPackage     = "Invalid package or duration"
	MsgTargetTypeMismatch = "Target type does not match package type"
	MsgTermsNotAccepted   = "Terms and conditions must be accepted"
	MsgListingNotFound    = "Listing not found"
	MsgCodeVerified       = "Code verified successfully"
	MsgPaymentProcessed   = "Payment processed successfully"
)
