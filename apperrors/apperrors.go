// Package apperrors is the error taxonomy shared by the case service, the
// analytics aggregator and the HTTP layer.
package apperrors

import (
	"errors"
	"fmt"
	"sort"
	"strings"
)

// Kind classifies a failure so callers can choose between retry and abort.
type Kind string

const (
	KindInternal          Kind = "internal"
	KindNotFound          Kind = "not_found"
	KindInvalidIdentifier Kind = "invalid_identifier"
	KindValidation        Kind = "validation"
	KindTransientStorage  Kind = "transient_storage"
	KindConflict          Kind = "conflict"
)

// Error carries a Kind, the operation that failed and an optional cause.
type Error struct {
	Kind    Kind
	Op      string
	Message string
	// Fields maps offending request fields to a reason, for validation errors.
	Fields map[string]string
	Err    error
}

func (e *Error) Error() string {
	var b strings.Builder
	if e.Op != "" {
		b.WriteString(e.Op)
		b.WriteString(": ")
	}
	b.WriteString(e.Message)
	if len(e.Fields) > 0 {
		keys := make([]string, 0, len(e.Fields))
		for k := range e.Fields {
			keys = append(keys, k)
		}
		sort.Strings(keys)
		parts := make([]string, 0, len(keys))
		for _, k := range keys {
			parts = append(parts, k+": "+e.Fields[k])
		}
		b.WriteString(" (")
		b.WriteString(strings.Join(parts, "; "))
		b.WriteString(")")
	}
	if e.Err != nil {
		b.WriteString(": ")
		b.WriteString(e.Err.Error())
	}
	return b.String()
}

func (e *Error) Unwrap() error { return e.Err }

// Retryable is true only for transient storage failures.
func (e *Error) Retryable() bool { return e.Kind == KindTransientStorage }

func NotFound(op, msg string) *Error {
	return &Error{Kind: KindNotFound, Op: op, Message: msg}
}

func InvalidIdentifier(op, id string) *Error {
	return &Error{Kind: KindInvalidIdentifier, Op: op, Message: fmt.Sprintf("invalid case ID %q", id)}
}

func Validation(op, msg string, fields map[string]string) *Error {
	return &Error{Kind: KindValidation, Op: op, Message: msg, Fields: fields}
}

func Conflict(op, msg string) *Error {
	return &Error{Kind: KindConflict, Op: op, Message: msg}
}

func Transient(op string, err error) *Error {
	return &Error{Kind: KindTransientStorage, Op: op, Message: "storage temporarily unavailable", Err: err}
}

func Internal(op string, err error) *Error {
	return &Error{Kind: KindInternal, Op: op, Message: "internal error", Err: err}
}

// KindOf returns the Kind of the first *Error in err's chain, or KindInternal.
func KindOf(err error) Kind {
	var e *Error
	if errors.As(err, &e) {
		return e.Kind
	}
	return KindInternal
}

// Is reports whether err carries kind k.
func Is(err error, k Kind) bool {
	return err != nil && KindOf(err) == k
}

// IsRetryable reports whether the caller may safely retry.
func IsRetryable(err error) bool {
	var e *Error
	if errors.As(err, &e) {
		return e.Retryable()
	}
	return false
}

// ConsistencyWarning is a non-fatal outcome: the primary write committed but
// its paired journal write did not. It is reported, never returned as error.
type ConsistencyWarning struct {
	CaseID  string `json:"case_id"`
	Message string `json:"message"`
	// Queued is true when the missing entry was handed to the reconciler.
	Queued bool `json:"queued"`
}

func (w *ConsistencyWarning) String() string {
	return fmt.Sprintf("case %s: %s (queued=%t)", w.CaseID, w.Message, w.Queued)
}
