package repository

import (
	"errors"
	"net/http"
)

// Kind classifies a failure reported by a collaborator (identity provider or
// record store). Failures that never reached the collaborator, such as
// network errors, are not *Error values.
type Kind int

const (
	KindUnknown Kind = iota
	KindInvalidCredentials
	KindUnauthorized
	KindNotFound
	KindConflict
	KindRejected
	KindUnavailable
)

func (k Kind) String() string {
	switch k {
	case KindInvalidCredentials:
		return "invalid_credentials"
	case KindUnauthorized:
		return "unauthorized"
	case KindNotFound:
		return "not_found"
	case KindConflict:
		return "conflict"
	case KindRejected:
		return "rejected"
	case KindUnavailable:
		return "unavailable"
	default:
		return "unknown"
	}
}

// Error is a collaborator-reported failure. Message is the collaborator's own
// text and may be surfaced to API callers verbatim.
type Error struct {
	Kind    Kind
	Status  int
	Code    string
	Message string
}

func (e *Error) Error() string {
	if e.Message != "" {
		return e.Message
	}
	if e.Status != 0 {
		return http.StatusText(e.Status)
	}
	return e.Kind.String()
}

// KindFromStatus maps an HTTP status returned by a collaborator to a Kind.
func KindFromStatus(status int) Kind {
	switch {
	case status == http.StatusUnauthorized || status == http.StatusForbidden:
		return KindUnauthorized
	case status == http.StatusNotFound || status == http.StatusNotAcceptable:
		return KindNotFound
	case status == http.StatusConflict:
		return KindConflict
	case status >= 500:
		return KindUnavailable
	case status >= 400:
		return KindRejected
	default:
		return KindUnknown
	}
}

// AsError unwraps err to a collaborator *Error.
func AsError(err error) (*Error, bool) {
	var e *Error
	if errors.As(err, &e) {
		return e, true
	}
	return nil, false
}

// IsCollaborator reports whether err was reported by a collaborator.
func IsCollaborator(err error) bool {
	_, ok := AsError(err)
	return ok
}

// MessageOf returns the collaborator's message carried by err, if any.
func MessageOf(err error) string {
	if e, ok := AsError(err); ok {
		return e.Error()
	}
	return ""
}
