package store

import (
	"errors"
	"fmt"
	"log/slog"
	"strings"
)

// ErrorCode categorizes store errors.
type ErrorCode string

const (
	// ErrCodeConfig is fatal: the store or a module cannot be set up as asked.
	ErrCodeConfig ErrorCode = "CONFIG"

	// ErrCodeUnknownType means no handler is registered for a commit or
	// dispatch type. The call becomes a no-op.
	ErrCodeUnknownType ErrorCode = "UNKNOWN_TYPE"

	// ErrCodeDuplicateGetter means a getter key was registered twice. The
	// first registration stays authoritative.
	ErrCodeDuplicateGetter ErrorCode = "DUPLICATE_GETTER"

	// ErrCodeStrictMode means state changed outside a mutation handler while
	// strict mode was on. The change is not rolled back.
	ErrCodeStrictMode ErrorCode = "STRICT_MODE_VIOLATION"

	// ErrCodeHotUpdate means a hot update tried to add a module that did not
	// exist. The new module is skipped.
	ErrCodeHotUpdate ErrorCode = "HOT_UPDATE"

	// ErrCodeStaticModule means an unregister targeted a module declared at
	// construction time. Only modules added with RegisterModule can be removed.
	ErrCodeStaticModule ErrorCode = "STATIC_MODULE"

	// ErrCodeDeprecated flags use of a call option that no longer has effect.
	ErrCodeDeprecated ErrorCode = "DEPRECATED"
)

// Error is the single error type produced by the store.
//
// Fatal errors (ErrCodeConfig) are returned to the caller. Everything else
// is reported through the configured Reporter and never interrupts the call.
type Error struct {
	// Code identifies the error category.
	Code ErrorCode

	// Message is a human-readable description.
	Message string

	// Type is the qualified mutation, action or getter type, when relevant.
	Type string

	// Path is the module path, when relevant.
	Path []string
}

// Error implements the error interface.
func (e *Error) Error() string {
	switch {
	case e.Type != "":
		return fmt.Sprintf("%s: %s (type=%s)", e.Code, e.Message, e.Type)
	case len(e.Path) > 0:
		return fmt.Sprintf("%s: %s (path=%s)", e.Code, e.Message, strings.Join(e.Path, "/"))
	default:
		return fmt.Sprintf("%s: %s", e.Code, e.Message)
	}
}

// Warning reports whether the error is informational rather than a fault.
func (e *Error) Warning() bool {
	switch e.Code {
	case ErrCodeHotUpdate, ErrCodeStaticModule, ErrCodeDeprecated:
		return true
	}
	return false
}

func hasCode(err error, code ErrorCode) bool {
	var se *Error
	if errors.As(err, &se) {
		return se.Code == code
	}
	return false
}

// IsConfigError returns true if err is a fatal configuration error.
func IsConfigError(err error) bool { return hasCode(err, ErrCodeConfig) }

// IsUnknownType returns true if err reports a commit or dispatch of an
// unregistered type.
func IsUnknownType(err error) bool { return hasCode(err, ErrCodeUnknownType) }

// IsDuplicateGetter returns true if err reports a dropped getter registration.
func IsDuplicateGetter(err error) bool { return hasCode(err, ErrCodeDuplicateGetter) }

// IsStrictModeViolation returns true if err reports a write outside a mutation.
func IsStrictModeViolation(err error) bool { return hasCode(err, ErrCodeStrictMode) }

func configError(msg string, path []string) *Error {
	return &Error{Code: ErrCodeConfig, Message: msg, Path: path}
}

// Reporter receives every non-fatal error the store detects.
type Reporter interface {
	Report(err *Error)
}

// ReporterFunc adapts a function to Reporter.
type ReporterFunc func(err *Error)

// Report calls f(err).
func (f ReporterFunc) Report(err *Error) { f(err) }

// logReporter is the default Reporter: one structured log line per error.
type logReporter struct {
	logger *slog.Logger
}

func (r logReporter) Report(err *Error) {
	attrs := []any{"code", string(err.Code)}
	if err.Type != "" {
		attrs = append(attrs, "type", err.Type)
	}
	if len(err.Path) > 0 {
		attrs = append(attrs, "path", strings.Join(err.Path, "/"))
	}
	if err.Warning() {
		r.logger.Warn(err.Message, attrs...)
		return
	}
	r.logger.Error(err.Message, attrs...)
}
