// Package apperr defines the error taxonomy shared by handlers and services.
package apperr

import (
	"errors"
	"fmt"
	"net/http"
)

type Kind int

const (
	KindInternal Kind = iota
	KindValidation
	KindNotFound
	KindUnauthorized
	KindConflict
	KindUnauthenticated
)

func (k Kind) String() string {
	switch k {
	case KindValidation:
		return "validation"
	case KindNotFound:
		return "not_found"
	case KindUnauthorized:
		return "unauthorized"
	case KindConflict:
		return "conflict"
	case KindUnauthenticated:
		return "unauthenticated"
	default:
		return "internal"
	}
}

// Stable codes returned to API clients.
const (
	CodeNameRequired           = "NAME_REQUIRED"
	CodeValidBudgetRequired    = "VALID_BUDGET_REQUIRED"
	CodeInvalidStatus          = "INVALID_STATUS"
	CodeProjectIDRequired      = "PROJECT_ID_REQUIRED"
	CodeValidAmountRequired    = "VALID_AMOUNT_REQUIRED"
	CodeInvalidCategory        = "INVALID_CATEGORY"
	CodeDescriptionRequired    = "DESCRIPTION_REQUIRED"
	CodeUserEmailRequired      = "USER_EMAIL_REQUIRED"
	CodeInvalidRole            = "INVALID_ROLE"
	CodeEmailAndPasswordReq    = "EMAIL_AND_PASSWORD_REQUIRED"
	CodePasswordNotValidated   = "PASSWORD_NOT_VALIDATED"
	CodeEmailOrPasswordInvalid = "EMAIL_OR_PASSWORD_INVALID"
	CodeUserAlreadyRegistered  = "USER_ALREADY_REGISTERED"
	CodeProjectNotFound        = "PROJECT_NOT_FOUND"
	CodeExpenseNotFound        = "EXPENSE_NOT_FOUND"
	CodeMemberNotFound         = "MEMBER_NOT_FOUND"
	CodeUserNotFound           = "USER_NOT_FOUND"
	CodeAlreadyMember          = "ALREADY_MEMBER"
	CodeUnauthorized           = "UNAUTHORIZED"
	CodeInvalidBody            = "INVALID_BODY"
	CodeServerError            = "SERVER_ERROR"
	CodeAuthenticationRequired = "AUTHENTICATION_REQUIRED"
)

type Error struct {
	Kind Kind
	Code string
	Err  error
}

func (e *Error) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %s: %v", e.Kind, e.Code, e.Err)
	}
	return fmt.Sprintf("%s: %s", e.Kind, e.Code)
}

func (e *Error) Unwrap() error {
	return e.Err
}

// Status maps the error kind to an HTTP status code.
func (e *Error) Status() int {
	switch e.Kind {
	case KindValidation:
		return http.StatusBadRequest
	case KindNotFound:
		return http.StatusNotFound
	case KindUnauthorized:
		return http.StatusForbidden
	case KindUnauthenticated:
		return http.StatusUnauthorized
	case KindConflict:
		return http.StatusConflict
	default:
		return http.StatusInternalServerError
	}
}

func Validation(code string) *Error {
	return &Error{Kind: KindValidation, Code: code}
}

func NotFound(code string) *Error {
	return &Error{Kind: KindNotFound, Code: code}
}

func Unauthorized() *Error {
	return &Error{Kind: KindUnauthorized, Code: CodeUnauthorized}
}

func Unauthenticated() *Error {
	return &Error{Kind: KindUnauthenticated, Code: CodeAuthenticationRequired}
}

func Conflict(code string) *Error {
	return &Error{Kind: KindConflict, Code: code}
}

func Internal(err error) *Error {
	return &Error{Kind: KindInternal, Code: CodeServerError, Err: err}
}

// From returns the *Error in err's chain, or wraps err as an internal error.
func From(err error) *Error {
	var appErr *Error
	if errors.As(err, &appErr) {
		return appErr
	}
	return Internal(err)
}

func IsKind(err error, kind Kind) bool {
	var appErr *Error
	if errors.As(err, &appErr) {
		return appErr.Kind == kind
	}
	return false
}
