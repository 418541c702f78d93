// Package apperror carries outcomes that map straight onto an HTTP response.
package apperror

import (
	"fmt"
	"net/http"
	"strings"
)

// Error is a business error with an explicit message, detail and status.
type Error struct {
	Message string
	Detail  string
	Status  int

	// Fields holds per-field violations for validation failures.
	Fields []FieldError
	Err    error
}

type FieldError struct {
	Field   string `json:"field"`
	Message string `json:"message"`
}

func (e *Error) Error() string {
	if e.Detail == "" {
		return e.Message
	}
	return e.Message + ": " + e.Detail
}

func (e *Error) Unwrap() error { return e.Err }

func New(status int, message, detail string) *Error {
	return &Error{Status: status, Message: message, Detail: detail}
}

func Wrap(err error, status int, message string) *Error {
	return &Error{Status: status, Message: message, Detail: err.Error(), Err: err}
}

func Validation(fields []FieldError) *Error {
	return &Error{
		Status:  http.StatusBadRequest,
		Message: "Validation failed",
		Detail:  JoinFields(fields),
		Fields:  fields,
	}
}

func LoanNotFound(loanID string) *Error {
	return New(http.StatusForbidden, "Loan does not exist", fmt.Sprintf("loan_id %s does not exist", loanID))
}

// JoinFields renders violations as "field: message; field: message".
func JoinFields(fields []FieldError) string {
	parts := make([]string, 0, len(fields))
	for _, f := range fields {
		parts = append(parts, f.Field+": "+f.Message)
	}
	return strings.Join(parts, "; ")
}
