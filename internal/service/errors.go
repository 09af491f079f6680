package service

import "errors"

var (
	ErrValidation         = errors.New("validation failed")
	ErrNotFound           = errors.New("not found")
	ErrDuplicateEmail     = errors.New("email already registered")
	ErrDuplicateSerial    = errors.New("product with this serial number already exists")
	ErrInvalidCredentials = errors.New("invalid email or password")
	ErrOTPMismatch        = errors.New("invalid OTP")
	ErrOTPExpired         = errors.New("OTP expired")
	ErrOTPDelivery        = errors.New("failed to deliver OTP")
	ErrTooManyRequests    = errors.New("too many requests")
	ErrForbidden          = errors.New("forbidden")
)

// FieldError reports request fields that are missing or malformed.
type FieldError struct {
	Fields  []string
	Message string
}

func (e *FieldError) Error() string {
	return e.Message
}

func (e *FieldError) Unwrap() error {
	return ErrValidation
}

func missingFields(fields ...string) error {
	return &FieldError{Fields: fields, Message: "missing required fields"}
}

func invalidField(field, message string) error {
	return &FieldError{Fields: []string{field}, Message: message}
}
