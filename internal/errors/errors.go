package errors

import (
	"errors"
	"fmt"
	"os"
	"strings"

	"github.com/julianstephens/skillpulse/internal/logger"
)

// Code classifies a command failure for protocol responses.
type Code string

const (
	CodeValidation    Code = "VALIDATION"
	CodeNotFound      Code = "NOT_FOUND"
	CodeRearm         Code = "REARM"
	CodeDailyCap      Code = "DAILY_CAP"
	CodeQuotaExceeded Code = "QUOTA_EXCEEDED"
	CodeInternal      Code = "ERROR"
)

// Error is a coded failure. Its text is "<CODE>:<message>" so that code
// extraction from the plain string matches the typed value.
type Error struct {
	Code    Code
	Message string
	Err     error
}

func (e *Error) Error() string {
	return string(e.Code) + ":" + e.Message
}

func (e *Error) Unwrap() error {
	return e.Err
}

// Is matches any *Error with the same code, so errors.Is(err, &Error{Code: CodeRearm})
// works without comparing messages.
func (e *Error) Is(target error) bool {
	var t *Error
	if !errors.As(target, &t) {
		return false
	}
	return t.Code == e.Code && (t.Message == "" || t.Message == e.Message)
}

// New creates a coded error.
func New(code Code, msg string) *Error {
	return &Error{Code: code, Message: msg}
}

// Newf creates a coded error with a formatted message.
func Newf(code Code, format string, args ...interface{}) *Error {
	return &Error{Code: code, Message: fmt.Sprintf(format, args...)}
}

// Wrap attaches a code and message to an underlying cause.
func Wrap(code Code, err error, msg string) *Error {
	if err == nil {
		return nil
	}
	return &Error{Code: code, Message: fmt.Sprintf("%s: %v", msg, err), Err: err}
}

func Validation(format string, args ...interface{}) *Error {
	return Newf(CodeValidation, format, args...)
}

func NotFound(format string, args ...interface{}) *Error {
	return Newf(CodeNotFound, format, args...)
}

// Rearm reports a cooldown still in effect for the given number of hours.
func Rearm(hours int64) *Error {
	return Newf(CodeRearm, "Please wait %d more hour(s) before checking this skill again", hours)
}

func DailyCap() *Error {
	return New(CodeDailyCap, "Daily check limit reached for this skill")
}

func QuotaExceeded(key string, size, limit int) *Error {
	return Newf(CodeQuotaExceeded, "value for %q is %d bytes, over the %d byte limit", key, size, limit)
}

// HasCode reports whether err carries code.
func HasCode(err error, code Code) bool {
	c, _ := Split(err)
	return err != nil && c == code
}

// CodeOf returns the code of err, or CodeInternal when none is attached.
func CodeOf(err error) Code {
	c, _ := Split(err)
	return c
}

// Split separates err into its code and the human-readable message. Typed
// errors are unwrapped first; plain errors whose text starts with an upper-case
// identifier followed by ':' are split on that colon. Anything else is
// CodeInternal with the full text as the message.
func Split(err error) (Code, string) {
	if err == nil {
		return "", ""
	}
	var coded *Error
	if errors.As(err, &coded) {
		return coded.Code, coded.Message
	}
	msg := err.Error()
	if i := strings.IndexByte(msg, ':'); i > 0 && isCodeIdent(msg[:i]) {
		return Code(msg[:i]), strings.TrimLeft(msg[i+1:], " ")
	}
	return CodeInternal, msg
}

func isCodeIdent(s string) bool {
	for i, r := range s {
		switch {
		case r >= 'A' && r <= 'Z':
		case r == '_' && i > 0:
		case r >= '0' && r <= '9' && i > 0:
		default:
			return false
		}
	}
	return true
}

// Guidance reports whether err is an expected business-rule rejection that
// callers should present calmly rather than as a failure.
func Guidance(err error) bool {
	c := CodeOf(err)
	return c == CodeRearm || c == CodeDailyCap
}

// Format formats an error message with a consistent "Error: " prefix
func Format(err error) string {
	if err == nil {
		return ""
	}
	if code, msg := Split(err); code != CodeInternal {
		if Guidance(err) {
			return msg
		}
		return fmt.Sprintf("Error: %s", msg)
	}
	return fmt.Sprintf("Error: %v", err)
}

// Formatf formats an error message with a consistent "Error: " prefix using a format string
func Formatf(format string, args ...interface{}) string {
	return fmt.Sprintf("Error: "+format, args...)
}

// Fatal logs an error and exits the program with exit code 1
func Fatal(err error) {
	if err != nil {
		logger.Error("Command execution failed", "error", err)
		fmt.Fprintf(os.Stderr, "%s\n", Format(err))
		os.Exit(1)
	}
}

// Fatalf logs and formats an error message, then exits the program with exit code 1
func Fatalf(format string, args ...interface{}) {
	msg := fmt.Sprintf(format, args...)
	logger.Error("Command execution failed", "error", msg)
	fmt.Fprintf(os.Stderr, "%s\n", Formatf(format, args...))
	os.Exit(1)
}
