// Package errs defines the error-kind taxonomy shared across the search
// pipeline. Components return errors wrapped with
// github.com/Laisky/errors/v2 for stack-trace context; the MCP tool
// handlers classify failures by Kind rather than inspecting message
// strings, so a caller-facing response never depends on wording.
package errs

import (
	errors "github.com/Laisky/errors/v2"
)

// Kind identifies the category of a failure, independent of its message.
type Kind string

const (
	KindInvalidParams    Kind = "invalid_params"
	KindInvalidInput     Kind = "invalid_input"
	KindProjectNotFound  Kind = "project_not_found"
	KindInvalidRange     Kind = "invalid_range"
	KindModelUnavailable Kind = "model_unavailable"
	KindGenerationFailed Kind = "generation_failed"
	KindServerUnhealthy  Kind = "server_unhealthy"
	KindStartupTimeout   Kind = "startup_timeout"
	KindServerError      Kind = "server_error"
	KindInvalidResponse  Kind = "invalid_response"
	KindInternal         Kind = "internal_error"
)

// CodeError attaches a Kind to an underlying error.
type CodeError struct {
	Kind    Kind
	Message string
	Cause   error
}

func (e *CodeError) Error() string {
	if e.Cause != nil {
		return e.Message + ": " + e.Cause.Error()
	}
	return e.Message
}

func (e *CodeError) Unwrap() error { return e.Cause }

// New builds a CodeError of the given kind, wrapping it with a stack
// trace via errors.WithStack so callers can log full context at debug
// level without leaking it to API responses.
func New(kind Kind, message string) error {
	return errors.WithStack(&CodeError{Kind: kind, Message: message})
}

// Wrap attaches kind and message to an existing cause.
func Wrap(kind Kind, cause error, message string) error {
	if cause == nil {
		return nil
	}
	return errors.WithStack(&CodeError{Kind: kind, Message: message, Cause: cause})
}

// ServerError represents a subordinate embedding-model HTTP failure with
// a status code, used only by the external-model provider (spec §7).
type ServerError struct {
	Code    int
	Message string
}

func (e *ServerError) Error() string {
	return errors.Errorf("server error %d: %s", e.Code, e.Message).Error()
}

// KindOf extracts the Kind of err, walking wrapped causes. Unrecognized
// errors classify as KindInternal so tool handlers never leak raw
// messages or stack traces for unexpected failures.
func KindOf(err error) Kind {
	if err == nil {
		return ""
	}
	var ce *CodeError
	if errors.As(err, &ce) {
		return ce.Kind
	}
	var se *ServerError
	if errors.As(err, &se) {
		return KindServerError
	}
	return KindInternal
}

// Message returns a short, safe-to-return message for err: the CodeError
// message if present, otherwise a generic internal-error message that
// never includes the underlying cause or a stack trace.
func Message(err error) string {
	var ce *CodeError
	if errors.As(err, &ce) {
		return ce.Message
	}
	return "internal error"
}
