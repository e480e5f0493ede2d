package apperror

import (
	stdErrors "errors"
	"fmt"
	"net/http"
)

type Code string

const (
	CodeValidation        Code = "VALIDATION_ERROR"
	CodeDuplicateKey      Code = "DUPLICATE_KEY"
	CodeNotFound          Code = "NOT_FOUND"
	CodeInvalidState      Code = "INVALID_STATE"
	CodeInsufficientStock Code = "INSUFFICIENT_STOCK"
	CodeOverReceipt       Code = "OVER_RECEIPT"
	CodePolicyViolation   Code = "POLICY_VIOLATION"
	CodeUnauthorized      Code = "UNAUTHORIZED"
	CodeForbidden         Code = "FORBIDDEN"
	CodeConflict          Code = "CONFLICT"
	CodeInternal          Code = "INTERNAL_ERROR"
)

// Metadata describes how a code is surfaced at the HTTP boundary.
type Metadata struct {
	HTTPStatus     int
	PublicMessage  string
	DetailsAllowed bool
}

var metadataByCode = map[Code]Metadata{
	CodeValidation:        {HTTPStatus: http.StatusBadRequest, PublicMessage: "validation failed", DetailsAllowed: true},
	CodeDuplicateKey:      {HTTPStatus: http.StatusConflict, PublicMessage: "resource already exists", DetailsAllowed: true},
	CodeNotFound:          {HTTPStatus: http.StatusNotFound, PublicMessage: "resource not found"},
	CodeInvalidState:      {HTTPStatus: http.StatusUnprocessableEntity, PublicMessage: "state transition disallowed", DetailsAllowed: true},
	CodeInsufficientStock: {HTTPStatus: http.StatusUnprocessableEntity, PublicMessage: "insufficient stock", DetailsAllowed: true},
	CodeOverReceipt:       {HTTPStatus: http.StatusUnprocessableEntity, PublicMessage: "receive quantity exceeds approved quantity", DetailsAllowed: true},
	CodePolicyViolation:   {HTTPStatus: http.StatusBadRequest, PublicMessage: "policy violation", DetailsAllowed: true},
	CodeUnauthorized:      {HTTPStatus: http.StatusUnauthorized, PublicMessage: "authentication required"},
	CodeForbidden:         {HTTPStatus: http.StatusForbidden, PublicMessage: "access denied"},
	CodeConflict:          {HTTPStatus: http.StatusConflict, PublicMessage: "concurrent modification detected", DetailsAllowed: true},
	CodeInternal:          {HTTPStatus: http.StatusInternalServerError, PublicMessage: "internal server error"},
}

func MetadataFor(code Code) Metadata {
	if meta, ok := metadataByCode[code]; ok {
		return meta
	}
	return metadataByCode[CodeInternal]
}

// StockShortage is attached to INSUFFICIENT_STOCK errors.
type StockShortage struct {
	Requested int `json:"requested"`
	Available int `json:"available"`
}

// ReceiptOverflow is attached to OVER_RECEIPT errors.
type ReceiptOverflow struct {
	Remaining int `json:"remaining"`
}

type Error struct {
	code    Code
	message string
	details any
	cause   error
}

func New(code Code, message string) *Error {
	return &Error{code: code, message: message}
}

func Newf(code Code, format string, args ...any) *Error {
	return &Error{code: code, message: fmt.Sprintf(format, args...)}
}

func Wrap(code Code, err error, message string) *Error {
	if err == nil {
		return New(code, message)
	}
	return &Error{code: code, message: message, cause: err}
}

func Validation(message string) *Error {
	return New(CodeValidation, message)
}

func NotFound(entity string) *Error {
	return Newf(CodeNotFound, "%s not found", entity)
}

func InvalidState(message string) *Error {
	return New(CodeInvalidState, message)
}

func PolicyViolation(message string) *Error {
	return New(CodePolicyViolation, message)
}

func InsufficientStock(requested, available int) *Error {
	return Newf(CodeInsufficientStock, "insufficient stock: requested %d, available %d", requested, available).
		WithDetails(StockShortage{Requested: requested, Available: available})
}

func OverReceipt(remaining int) *Error {
	return Newf(CodeOverReceipt, "cannot receive more than approved quantity: %d remaining", remaining).
		WithDetails(ReceiptOverflow{Remaining: remaining})
}

func Internal(err error, message string) *Error {
	return Wrap(CodeInternal, err, message)
}

func (e *Error) Code() Code {
	if e == nil {
		return CodeInternal
	}
	return e.code
}

func (e *Error) Message() string {
	if e == nil {
		return ""
	}
	return e.message
}

func (e *Error) Details() any {
	if e == nil {
		return nil
	}
	return e.details
}

func (e *Error) WithDetails(details any) *Error {
	if e == nil {
		return nil
	}
	e.details = details
	return e
}

func (e *Error) Error() string {
	if e == nil {
		return ""
	}
	if e.cause != nil {
		return fmt.Sprintf("%s: %s: %v", e.code, e.message, e.cause)
	}
	return fmt.Sprintf("%s: %s", e.code, e.message)
}

func (e *Error) Unwrap() error {
	if e == nil {
		return nil
	}
	return e.cause
}

// As extracts a typed error from the chain, or nil.
func As(err error) *Error {
	if err == nil {
		return nil
	}
	var typed *Error
	if stdErrors.As(err, &typed) {
		return typed
	}
	return nil
}

// CodeOf returns the code of err, defaulting to CodeInternal for untyped errors.
func CodeOf(err error) Code {
	if typed := As(err); typed != nil {
		return typed.Code()
	}
	return CodeInternal
}

// Is reports whether err carries the given code.
func Is(err error, code Code) bool {
	typed := As(err)
	return typed != nil && typed.code == code
}
