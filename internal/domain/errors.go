package domain

import (
	"errors"
	"fmt"
	"net/http"
)

// Machine-readable failure reasons, stable across releases. Clients key off
// these rather than the human message.
const (
	ReasonBadRequest      = "bad_request"
	ReasonUnauthorized    = "unauthorized"
	ReasonForbidden       = "forbidden"
	ReasonNotFound        = "not_found"
	ReasonUpstreamFailure = "upstream_failure"
	ReasonRuntimeError    = "runtime_error"
)

// Error is the service-wide error type. Every failure a caller can observe
// carries an HTTP-equivalent status and a stable reason string.
type Error struct {
	Status  int
	Reason  string
	Message string

	// Service names the upstream collaborator for upstream failures.
	Service string
}

func (e *Error) Error() string {
	if e.Service != "" {
		return fmt.Sprintf("%s: %s: %s", e.Reason, e.Service, e.Message)
	}
	return fmt.Sprintf("%s: %s", e.Reason, e.Message)
}

// Is makes errors.Is match on reason, so sentinel-style checks work:
// errors.Is(err, domain.ErrNotFound).
func (e *Error) Is(target error) bool {
	var other *Error
	if !errors.As(target, &other) {
		return false
	}
	return e.Reason == other.Reason
}

// Sentinels for errors.Is checks against each reason.
var (
	ErrBadRequest      = &Error{Status: http.StatusBadRequest, Reason: ReasonBadRequest}
	ErrUnauthorized    = &Error{Status: http.StatusUnauthorized, Reason: ReasonUnauthorized}
	ErrForbidden       = &Error{Status: http.StatusForbidden, Reason: ReasonForbidden}
	ErrNotFound        = &Error{Status: http.StatusNotFound, Reason: ReasonNotFound}
	ErrUpstreamFailure = &Error{Status: http.StatusBadGateway, Reason: ReasonUpstreamFailure}
	ErrRuntime         = &Error{Status: http.StatusInternalServerError, Reason: ReasonRuntimeError}
)

// BadRequestf reports malformed or invalid caller input.
func BadRequestf(format string, args ...any) *Error {
	return &Error{Status: http.StatusBadRequest, Reason: ReasonBadRequest, Message: fmt.Sprintf(format, args...)}
}

// Unauthorizedf reports a missing, invalid or expired credential.
func Unauthorizedf(format string, args ...any) *Error {
	return &Error{Status: http.StatusUnauthorized, Reason: ReasonUnauthorized, Message: fmt.Sprintf(format, args...)}
}

// Forbiddenf reports an authenticated caller with an insufficient role.
func Forbiddenf(format string, args ...any) *Error {
	return &Error{Status: http.StatusForbidden, Reason: ReasonForbidden, Message: fmt.Sprintf(format, args...)}
}

// NotFoundf reports an absent referenced entity.
func NotFoundf(format string, args ...any) *Error {
	return &Error{Status: http.StatusNotFound, Reason: ReasonNotFound, Message: fmt.Sprintf(format, args...)}
}

// UpstreamFailuref reports a failed external service call. The service name
// travels with the error so handlers and logs can attribute the failure.
func UpstreamFailuref(service string, format string, args ...any) *Error {
	return &Error{
		Status:  http.StatusBadGateway,
		Reason:  ReasonUpstreamFailure,
		Service: service,
		Message: fmt.Sprintf(format, args...),
	}
}

// RuntimeErrorf reports a flow traversal failure (step bound exceeded or an
// invalid definition observed at run time).
func RuntimeErrorf(format string, args ...any) *Error {
	return &Error{Status: http.StatusInternalServerError, Reason: ReasonRuntimeError, Message: fmt.Sprintf(format, args...)}
}
