// Package errors is the service-wide error taxonomy.
//
// Services return *Error values (or wrap infra errors with Map); transports
// project them with HTTPStatus / GRPCStatus.
package errors

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"

	"github.com/go-sql-driver/mysql"
	"github.com/jackc/pgx/v5/pgconn"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
	"gorm.io/gorm"
)

type Kind int

const (
	KindInternal Kind = iota
	KindValidation
	KindUnauthorized
	KindForbidden
	KindNotFound
	KindConflict
	KindDeadline
	KindCanceled
)

func (k Kind) String() string {
	switch k {
	case KindValidation:
		return "validation"
	case KindUnauthorized:
		return "unauthorized"
	case KindForbidden:
		return "forbidden"
	case KindNotFound:
		return "not_found"
	case KindConflict:
		return "conflict"
	case KindDeadline:
		return "deadline"
	case KindCanceled:
		return "canceled"
	default:
		return "internal"
	}
}

// Error carries a Kind, a client-facing message and an optional cause.
type Error struct {
	Kind Kind
	Msg  string
	Err  error
}

func (e *Error) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %v", e.Msg, e.Err)
	}
	return e.Msg
}

func (e *Error) Unwrap() error { return e.Err }

// InvalidArgument creates a validation error.
// Use this in service layer for bad input validation.
func InvalidArgument(msg string) error {
	return &Error{Kind: KindValidation, Msg: msg}
}

func Unauthorized(msg string) error {
	return &Error{Kind: KindUnauthorized, Msg: msg}
}

func Forbidden(msg string) error {
	return &Error{Kind: KindForbidden, Msg: msg}
}

func NotFound(msg string) error {
	return &Error{Kind: KindNotFound, Msg: msg}
}

// AlreadyExists creates a conflict error.
func AlreadyExists(msg string) error {
	return &Error{Kind: KindConflict, Msg: msg}
}

// Map converts repo/infra errors into the taxonomy.
// Errors that already carry a Kind pass through untouched.
func Map(err error) error {
	if err == nil {
		return nil
	}

	var se *Error
	if errors.As(err, &se) {
		return err
	}

	switch {
	case errors.Is(err, gorm.ErrRecordNotFound):
		return &Error{Kind: KindNotFound, Msg: "record not found", Err: err}

	case IsDuplicateKey(err):
		return &Error{Kind: KindConflict, Msg: "already exists", Err: err}

	case errors.Is(err, context.DeadlineExceeded):
		return &Error{Kind: KindDeadline, Msg: "request timed out", Err: err}

	case errors.Is(err, context.Canceled):
		return &Error{Kind: KindCanceled, Msg: "request was canceled", Err: err}

	default:
		return &Error{Kind: KindInternal, Msg: "internal error", Err: err}
	}
}

// IsDuplicateKey reports whether err is a unique/primary key violation on
// any of the supported drivers.
func IsDuplicateKey(err error) bool {
	if err == nil {
		return false
	}
	if errors.Is(err, gorm.ErrDuplicatedKey) {
		return true
	}

	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) && pgErr.Code == "23505" {
		return true
	}

	var myErr *mysql.MySQLError
	if errors.As(err, &myErr) && myErr.Number == 1062 {
		return true
	}

	// sqlite surfaces constraint errors as plain strings
	return strings.Contains(err.Error(), "UNIQUE constraint failed")
}

// KindOf returns the Kind of err after mapping.
func KindOf(err error) Kind {
	var se *Error
	if errors.As(Map(err), &se) {
		return se.Kind
	}
	return KindInternal
}

// Is reports whether err maps to kind k.
func Is(err error, k Kind) bool {
	return err != nil && KindOf(err) == k
}

// HTTPStatus projects err onto an HTTP status code and a client-safe message.
// 5xx messages are replaced with a generic text.
func HTTPStatus(err error) (int, string) {
	var se *Error
	if !errors.As(Map(err), &se) {
		return http.StatusInternalServerError, "internal server error"
	}

	switch se.Kind {
	case KindValidation:
		return http.StatusBadRequest, se.Msg
	case KindUnauthorized:
		return http.StatusUnauthorized, se.Msg
	case KindForbidden:
		return http.StatusForbidden, se.Msg
	case KindNotFound:
		return http.StatusNotFound, se.Msg
	case KindConflict:
		return http.StatusConflict, se.Msg
	case KindDeadline:
		return http.StatusGatewayTimeout, se.Msg
	case KindCanceled:
		return 499, se.Msg
	default:
		return http.StatusInternalServerError, "internal server error"
	}
}

// GRPCStatus converts err into a gRPC status error.
func GRPCStatus(err error) error {
	if err == nil {
		return nil
	}
	var se *Error
	if !errors.As(Map(err), &se) {
		return status.Error(codes.Internal, "internal error")
	}

	switch se.Kind {
	case KindValidation:
		return status.Error(codes.InvalidArgument, se.Msg)
	case KindUnauthorized:
		return status.Error(codes.Unauthenticated, se.Msg)
	case KindForbidden:
		return status.Error(codes.PermissionDenied, se.Msg)
	case KindNotFound:
		return status.Error(codes.NotFound, se.Msg)
	case KindConflict:
		return status.Error(codes.AlreadyExists, se.Msg)
	case KindDeadline:
		return status.Error(codes.DeadlineExceeded, se.Msg)
	case KindCanceled:
		return status.Error(codes.Canceled, se.Msg)
	default:
		return status.Error(codes.Internal, "internal error")
	}
}
