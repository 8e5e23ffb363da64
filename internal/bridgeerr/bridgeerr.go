// Package bridgeerr defines the error taxonomy of the script bridge.
// Errors carry a kind, a machine-readable code, a human-readable message and
// optional stderr, remediation and details.
package bridgeerr

import (
	"context"
	"errors"
	"fmt"
	"strings"
)

// Kind groups errors by where they arise.
type Kind int

const (
	// KindInput covers malformed filters and conflicting targets; never reaches the host.
	KindInput Kind = iota + 1
	// KindGeneration covers builder or template bugs.
	KindGeneration
	// KindHost covers spawn failures, nonzero exits and timeouts.
	KindHost
	// KindResponse covers unparseable or unexpected host replies.
	KindResponse
)

func (k Kind) String() string {
	switch k {
	case KindInput:
		return "input"
	case KindGeneration:
		return "generation"
	case KindHost:
		return "host"
	case KindResponse:
		return "response"
	}
	return "unknown"
}

// Error codes, stable across minor versions.
const (
	MissingRequiredField         = "MISSING_REQUIRED_FIELD"
	ConflictingTargetSpecified   = "CONFLICTING_TARGET_SPECIFIED"
	UnsupportedFilterCombination = "UNSUPPORTED_FILTER_COMBINATION"
	InvalidValue                 = "INVALID_VALUE"
	MissingTemplateParameter     = "MISSING_TEMPLATE_PARAMETER"
	UnsupportedParameterType     = "UNSUPPORTED_PARAMETER_TYPE"
	ScriptTooLarge               = "SCRIPT_TOO_LARGE"
	HostProcessError             = "HOST_PROCESS_ERROR"
	SpawnFailed                  = "SPAWN_FAILED"
	ExecutionTimeout             = "EXECUTION_TIMEOUT"
	MalformedJSONResponse        = "MALFORMED_JSON_RESPONSE"
	UnexpectedShape              = "UNEXPECTED_SHAPE"
	NotFound                     = "NOT_FOUND"
	ScriptReportedError          = "SCRIPT_REPORTED_ERROR"
)

var codeKinds = map[string]Kind{
	MissingRequiredField:         KindInput,
	ConflictingTargetSpecified:   KindInput,
	UnsupportedFilterCombination: KindInput,
	InvalidValue:                 KindInput,
	MissingTemplateParameter:     KindGeneration,
	UnsupportedParameterType:     KindGeneration,
	ScriptTooLarge:               KindGeneration,
	HostProcessError:             KindHost,
	SpawnFailed:                  KindHost,
	ExecutionTimeout:             KindHost,
	MalformedJSONResponse:        KindResponse,
	UnexpectedShape:              KindResponse,
	NotFound:                     KindResponse,
	ScriptReportedError:          KindHost,
}

// Error is a categorized bridge error.
type Error struct {
	Kind       Kind
	Code       string
	Message    string
	Stderr     string
	Suggestion string
	Details    map[string]any
	Err        error
}

// Error implements the error interface.
func (e *Error) Error() string {
	if e.Stderr != "" {
		return e.Message + ": " + strings.TrimSpace(e.Stderr)
	}
	return e.Message
}

// Unwrap returns the underlying cause.
func (e *Error) Unwrap() error { return e.Err }

// New creates an Error with the given code and message.
func New(code, message string) *Error {
	return &Error{Kind: codeKinds[code], Code: code, Message: message}
}

// Newf creates an Error with a formatted message.
func Newf(code, format string, args ...any) *Error {
	return New(code, fmt.Sprintf(format, args...))
}

// Wrap attaches a cause to a new Error.
func Wrap(code string, err error, message string) *Error {
	e := New(code, message)
	e.Err = err
	return e
}

// WithStderr records the host's stderr.
func (e *Error) WithStderr(stderr string) *Error {
	e.Stderr = stderr
	return e
}

// WithSuggestion attaches a remediation hint.
func (e *Error) WithSuggestion(s string) *Error {
	e.Suggestion = s
	return e
}

// WithDetails returns the error with the given details map attached.
func (e *Error) WithDetails(details map[string]any) *Error {
	e.Details = details
	return e
}

// As extracts a *Error from err's chain.
func As(err error) (*Error, bool) {
	var e *Error
	if errors.As(err, &e) {
		return e, true
	}
	return nil, false
}

// HasCode reports whether err carries the given code.
func HasCode(err error, code string) bool {
	e, ok := As(err)
	return ok && e.Code == code
}

// IsInput reports whether err is a caller error.
func IsInput(err error) bool {
	e, ok := As(err)
	return ok && e.Kind == KindInput
}

// fallbackMarkers are host messages with a known workaround: rerun through the
// alternate scripting entry point.
var fallbackMarkers = []string{"parameter is missing", "access not allowed"}

// IsFallbackEligible reports whether err is one of the narrow host failures that
// justify retrying the same operation through its alternate script.
func IsFallbackEligible(err error) bool {
	e, ok := As(err)
	if !ok || e.Kind != KindHost || e.Code == ExecutionTimeout {
		return false
	}
	text := strings.ToLower(e.Message + " " + e.Stderr)
	for _, m := range fallbackMarkers {
		if strings.Contains(text, m) {
			return true
		}
	}
	return false
}

// Describe returns a one-line, user-facing description of err.
func Describe(err error) string {
	if err == nil {
		return ""
	}
	if errors.Is(err, context.Canceled) {
		return "operation canceled"
	}
	e, ok := As(err)
	if !ok {
		return firstLine(err.Error())
	}
	msg := firstLine(e.Error())
	if e.Suggestion != "" {
		msg += " (" + e.Suggestion + ")"
	}
	return msg
}

func firstLine(s string) string {
	s = strings.TrimSpace(s)
	if i := strings.IndexByte(s, '\n'); i >= 0 {
		return s[:i]
	}
	return s
}

// ExitCode returns 1 for every bridge failure; the CLI contract has no finer split.
func ExitCode(err error) int {
	if err == nil {
		return 0
	}
	return 1
}
