package gateway

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/jackc/pgx/v5/pgconn"

	"github.com/cederberg/liquidsite-sub003/internal/data/contentquery"
	"github.com/cederberg/liquidsite-sub003/internal/data/record"
	"github.com/cederberg/liquidsite-sub003/internal/data/sqlq"
)

// Code classifies why a data access operation failed.
type Code string

const (
	CodeInternal   Code = "internal"
	CodeDataFormat Code = "data_format"
	CodeBinding    Code = "binding"
	CodeConflict   Code = "conflict"
	CodeConstraint Code = "constraint"
	CodeRetryable  Code = "retryable"
)

// AccessError wraps every failure surfaced by the gateway with the
// operation it happened in.
type AccessError struct {
	Op    string
	Label string
	Code  Code
	Err   error
}

func (e *AccessError) Error() string {
	if e == nil {
		return "<nil>"
	}
	label := strings.TrimSpace(e.Label)
	if label == "" {
		label = e.Op
	}
	if e.Err == nil {
		return fmt.Sprintf("%s (%s)", label, e.Code)
	}
	return fmt.Sprintf("%s: %v", label, e.Err)
}

func (e *AccessError) Unwrap() error { return e.Err }

func wrap(op string, q sqlq.Query, err error) error {
	return Wrap(op, q.Describe(), err)
}

// Wrap classifies err as an AccessError for callers that fail before a
// statement reaches the gateway, such as a query builder render.
func Wrap(op, label string, err error) error {
	if err == nil {
		return nil
	}
	var accErr *AccessError
	if errors.As(err, &accErr) {
		return err
	}
	return &AccessError{Op: op, Label: label, Code: classify(err), Err: err}
}

// IsCode reports whether err carries an AccessError with the given code.
func IsCode(err error, code Code) bool {
	return CodeOf(err) == code
}

// CodeOf extracts the code of the outermost AccessError in err's chain.
func CodeOf(err error) Code {
	var accErr *AccessError
	if !errors.As(err, &accErr) {
		return ""
	}
	return accErr.Code
}

func classify(err error) Code {
	var dataErr *record.DataFormatError
	switch {
	case errors.As(err, &dataErr):
		return CodeDataFormat
	case errors.Is(err, sqlq.ErrBinding), errors.Is(err, sqlq.ErrUnknownTemplate),
		errors.Is(err, contentquery.ErrInvalid), errors.Is(err, ErrAllocInTx):
		return CodeBinding
	case errors.Is(err, context.Canceled), errors.Is(err, context.DeadlineExceeded):
		return CodeRetryable
	}

	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		switch strings.TrimSpace(pgErr.Code) {
		case "23505":
			return CodeConflict // unique_violation
		case "23502", "23503", "23514":
			return CodeConstraint // not_null / foreign_key / check
		case "40001", "40P01", "55P03":
			return CodeRetryable // serialization / deadlock / lock_not_available
		}
	}

	msg := strings.ToLower(err.Error())
	switch {
	case strings.Contains(msg, "duplicate key"),
		strings.Contains(msg, "unique constraint"),
		strings.Contains(msg, "already exists"):
		return CodeConflict
	case strings.Contains(msg, "constraint failed"):
		return CodeConstraint
	case strings.Contains(msg, "deadlock"),
		strings.Contains(msg, "database is locked"),
		strings.Contains(msg, "serialization"):
		return CodeRetryable
	default:
		return CodeInternal
	}
}
