package guardrail

import (
	"errors"
	"fmt"
	"sort"
	"strings"
)

// Error is a coded error with optional key/value context. It is the only
// error type that crosses the metrics-core boundary.
type Error struct {
	Code    Code
	Message string
	Context map[string]any
	wrapped error
}

// NewError builds a coded error. kv is interpreted as alternating key/value
// pairs; a trailing odd key is ignored.
func NewError(code Code, message string, kv ...any) *Error {
	return &Error{Code: code, Message: message, Context: kvMap(kv)}
}

// WrapError attaches a code and message to an underlying error.
func WrapError(code Code, err error, message string, kv ...any) *Error {
	return &Error{Code: code, Message: message, Context: kvMap(kv), wrapped: err}
}

func kvMap(kv []any) map[string]any {
	if len(kv) < 2 {
		return nil
	}
	m := make(map[string]any, len(kv)/2)
	for i := 0; i+1 < len(kv); i += 2 {
		key, ok := kv[i].(string)
		if !ok {
			key = fmt.Sprint(kv[i])
		}
		m[key] = kv[i+1]
	}
	return m
}

func (e *Error) Error() string {
	var b strings.Builder
	b.WriteString(string(e.Code))
	b.WriteString(": ")
	b.WriteString(e.Message)
	if len(e.Context) > 0 {
		keys := make([]string, 0, len(e.Context))
		for k := range e.Context {
			keys = append(keys, k)
		}
		sort.Strings(keys)
		b.WriteString(" |")
		for _, k := range keys {
			fmt.Fprintf(&b, " %s=%v", k, e.Context[k])
		}
	}
	if e.wrapped != nil {
		fmt.Fprintf(&b, ": %v", e.wrapped)
	}
	return b.String()
}

func (e *Error) Unwrap() error { return e.wrapped }

// Is matches against another *Error by code, so callers can write
// errors.Is(err, guardrail.NewError(guardrail.CodeStubPath, "")).
func (e *Error) Is(target error) bool {
	var other *Error
	if !errors.As(target, &other) {
		return false
	}
	return e.Code == other.Code
}

// CodeOf extracts the taxonomy code from err, or E-UNKNOWN when err carries
// no coded error in its chain.
func CodeOf(err error) Code {
	var coded *Error
	if errors.As(err, &coded) {
		return coded.Code
	}
	return CodeUnknown
}

// Require asserts a precondition inline in calculation code. It returns nil
// when cond holds and a coded error otherwise.
func Require(cond bool, code Code, message string, kv ...any) error {
	if cond {
		return nil
	}
	return NewError(code, message, kv...)
}
