/*
Copyright (c) 2026 hortator-ai
SPDX-License-Identifier: MIT
*/

// Package cferrors classifies errors once at construction, as required by
// the retry helper and the reconcilers that surface terminal failures to
// resource status.
package cferrors

import "fmt"

// Code identifies the class of an error.
type Code string

const (
	// CodeTransient covers network timeouts, store conflicts, rate limits.
	CodeTransient Code = "Transient"
	// CodeBudgetExceeded means a cell lacks funds or a mission is over cap.
	CodeBudgetExceeded Code = "BudgetExceeded"
	// CodeToolError is a user-visible tool failure.
	CodeToolError Code = "ToolError"
	// CodeLLMError is an invalid request or auth failure against a model provider.
	CodeLLMError Code = "LLMError"
	// CodeProtocolViolation means a message was rejected by the protocol enforcer.
	CodeProtocolViolation Code = "ProtocolViolation"
	// CodeValidation means a declared spec failed admission.
	CodeValidation Code = "Validation"
)

// retryable reports whether a Code is retried transparently by the retry
// helper before being escalated to a terminal status.
var retryable = map[Code]bool{
	CodeTransient:         true,
	CodeBudgetExceeded:    false,
	CodeToolError:         false,
	CodeLLMError:          false,
	CodeProtocolViolation: false,
	CodeValidation:        false,
}

// Error is a classified error carrying a code, a retryability flag fixed at
// construction, and an optional cause.
type Error struct {
	Code    Code
	Message string
	Cause   error
}

func (e *Error) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("%s: %s: %v", e.Code, e.Message, e.Cause)
	}
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

func (e *Error) Unwrap() error { return e.Cause }

// Retryable reports whether this error should be retried by the retry
// helper. It is fixed once at construction via the Code.
func (e *Error) Retryable() bool { return retryable[e.Code] }

func newf(code Code, format string, args ...any) *Error {
	return &Error{Code: code, Message: fmt.Sprintf(format, args...)}
}

// Transient constructs a retryable error.
func Transient(cause error, format string, args ...any) *Error {
	e := newf(CodeTransient, format, args...)
	e.Cause = cause
	return e
}

// BudgetExceeded constructs a terminal budget error.
func BudgetExceeded(format string, args ...any) *Error {
	return newf(CodeBudgetExceeded, format, args...)
}

// ToolError constructs a terminal tool-failure error.
func ToolError(format string, args ...any) *Error {
	return newf(CodeToolError, format, args...)
}

// LLMError constructs a terminal provider error.
func LLMError(cause error, format string, args ...any) *Error {
	e := newf(CodeLLMError, format, args...)
	e.Cause = cause
	return e
}

// ProtocolViolation constructs a terminal protocol-enforcement error.
func ProtocolViolation(format string, args ...any) *Error {
	return newf(CodeProtocolViolation, format, args...)
}

// Validation constructs a terminal admission-validation error.
func Validation(format string, args ...any) *Error {
	return newf(CodeValidation, format, args...)
}

// Retryable reports whether err should be retried, true only for errors
// constructed through this package with a retryable code. Unclassified
// errors are treated as non-retryable — the default is to fail fast rather
// than mask an unexpected error behind repeated retries.
func Retryable(err error) bool {
	var ce *Error
	if ok := asError(err, &ce); ok {
		return ce.Retryable()
	}
	return false
}

func asError(err error, target **Error) bool {
	for err != nil {
		if ce, ok := err.(*Error); ok {
			*target = ce
			return true
		}
		u, ok := err.(interface{ Unwrap() error })
		if !ok {
			return false
		}
		err = u.Unwrap()
	}
	return false
}
