package services

import (
	"errors"
	"fmt"
)

type ErrorKind string

const (
	KindValidation          ErrorKind = "ValidationError"
	KindNotFound            ErrorKind = "NotFound"
	KindInvalidTransition   ErrorKind = "InvalidTransition"
	KindInapplicable        ErrorKind = "Inapplicable"
	KindSignatureMismatch   ErrorKind = "SignatureMismatch"
	KindProviderUnavailable ErrorKind = "ProviderUnavailable"
	KindConflict            ErrorKind = "Conflict"
)

// Machine-readable codes returned to clients alongside the message.
const (
	CodeInvalidRequest      = "invalid_request"
	CodeOrderNotFound       = "order_not_found"
	CodeInvalidTransition   = "invalid_transition"
	CodeOrderConflict       = "order_conflict"
	CodeCouponNotFound      = "coupon_not_found"
	CodeCouponInactive      = "coupon_inactive"
	CodeCouponExpired       = "coupon_expired"
	CodeCouponBelowMinimum  = "coupon_below_minimum"
	CodeCouponLimitReached  = "coupon_limit_reached"
	CodeCouponExists        = "coupon_exists"
	CodeSignatureMismatch   = "payment_signature_mismatch"
	CodeAlreadyPaid         = "payment_already_settled"
	CodeProviderUnavailable = "provider_unavailable"
	CodeNotDispatchable     = "order_not_dispatchable"
)

// AppError is the error type every service returns for expected failures.
type AppError struct {
	Kind    ErrorKind
	Code    string
	Message string
	Err     error
}

func (e *AppError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.Err)
	}
	return e.Message
}

func (e *AppError) Unwrap() error {
	return e.Err
}

func newError(kind ErrorKind, code, message string, err error) *AppError {
	return &AppError{Kind: kind, Code: code, Message: message, Err: err}
}

func validationError(message string, err error) *AppError {
	return newError(KindValidation, CodeInvalidRequest, message, err)
}

// KindOf returns the kind of the first AppError in err's chain, or "" when
// err is not an AppError.
func KindOf(err error) ErrorKind {
	var appErr *AppError
	if errors.As(err, &appErr) {
		return appErr.Kind
	}
	return ""
}

// CodeOf is KindOf for the error code.
func CodeOf(err error) string {
	var appErr *AppError
	if errors.As(err, &appErr) {
		return appErr.Code
	}
	return ""
}
