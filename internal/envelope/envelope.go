// Package envelope wraps operation results in the response shape shared by
// the CLI's JSON output and every MCP tool.
package envelope

import (
	"context"
	"errors"
	"sort"
	"time"

	"github.com/google/uuid"

	"github.com/kutbudev/ofocus-cli/internal/bridgeerr"
)

// Error codes reported to callers.
const (
	CodeValidation = "VALIDATION_ERROR"
	CodeScript     = "SCRIPT_ERROR"
	CodeTooLarge   = "SCRIPT_TOO_LARGE"
	CodeTimeout    = "TIMEOUT"
	CodeHost       = "HOST_ERROR"
	CodeParse      = "PARSE_ERROR"
	CodeNotFound   = "NOT_FOUND"
	CodeAnalysis   = "ANALYSIS_ERROR"
	CodeInternal   = "INTERNAL_ERROR"
)

// Envelope is the response payload.
type Envelope struct {
	Success  bool           `json:"success"`
	Data     any            `json:"data,omitempty"`
	Error    *Error         `json:"error,omitempty"`
	Metadata map[string]any `json:"metadata"`
}

// Error describes a failed operation.
type Error struct {
	Code       string         `json:"code"`
	Message    string         `json:"message"`
	Suggestion string         `json:"suggestion,omitempty"`
	Details    map[string]any `json:"details,omitempty"`
}

// Timer measures one request from receipt.
type Timer struct {
	op    string
	start time.Time
	id    string
}

// Start begins timing op.
func Start(op string) *Timer {
	return &Timer{op: op, start: time.Now(), id: uuid.NewString()}
}

// Operation returns the operation name.
func (t *Timer) Operation() string { return t.op }

// RequestID returns the request's id.
func (t *Timer) RequestID() string { return t.id }

func (t *Timer) metadata(extra map[string]any) map[string]any {
	md := map[string]any{
		"operation":     t.op,
		"requestId":     t.id,
		"timestamp":     time.Now().UTC().Format(time.RFC3339),
		"query_time_ms": time.Since(t.start).Milliseconds(),
		"from_cache":    false,
	}
	for k, v := range extra {
		md[k] = v
	}
	return md
}

// Success wraps data. extra entries are merged into metadata.
func (t *Timer) Success(data any, extra map[string]any) Envelope {
	return Envelope{Success: true, Data: data, Metadata: t.metadata(extra)}
}

// Failure wraps err, mapping bridge errors to caller-facing codes.
func (t *Timer) Failure(err error, extra map[string]any) Envelope {
	return Envelope{Success: false, Error: FromError(err), Metadata: t.metadata(extra)}
}

// FromError maps an error to its envelope form.
func FromError(err error) *Error {
	if err == nil {
		return nil
	}
	if errors.Is(err, context.Canceled) {
		return &Error{Code: CodeInternal, Message: "operation canceled"}
	}
	if errors.Is(err, context.DeadlineExceeded) {
		return &Error{Code: CodeTimeout, Message: "operation deadline exceeded"}
	}
	var ae *analysisError
	if errors.As(err, &ae) {
		return &Error{Code: CodeAnalysis, Message: err.Error()}
	}
	be, ok := bridgeerr.As(err)
	if !ok {
		return &Error{Code: CodeInternal, Message: err.Error()}
	}
	e := &Error{
		Code:       codeFor(be),
		Message:    be.Message,
		Suggestion: be.Suggestion,
		Details:    be.Details,
	}
	if be.Stderr != "" {
		if e.Details == nil {
			e.Details = map[string]any{}
		} else {
			e.Details = copyMap(e.Details)
		}
		e.Details["stderr"] = be.Stderr
	}
	return e
}

type analysisError struct{ err error }

func (e *analysisError) Error() string { return "analysis failed: " + e.err.Error() }
func (e *analysisError) Unwrap() error { return e.err }

// AnalysisError marks err as a failure while aggregating results.
func AnalysisError(err error) error {
	if err == nil {
		return nil
	}
	return &analysisError{err: err}
}

func codeFor(be *bridgeerr.Error) string {
	switch be.Code {
	case bridgeerr.NotFound:
		return CodeNotFound
	case bridgeerr.ScriptTooLarge:
		return CodeTooLarge
	case bridgeerr.ExecutionTimeout:
		return CodeTimeout
	case bridgeerr.MalformedJSONResponse, bridgeerr.UnexpectedShape:
		return CodeParse
	case bridgeerr.ScriptReportedError, bridgeerr.MissingTemplateParameter, bridgeerr.UnsupportedParameterType:
		return CodeScript
	}
	switch be.Kind {
	case bridgeerr.KindInput:
		return CodeValidation
	case bridgeerr.KindHost:
		return CodeHost
	}
	return CodeInternal
}

func copyMap(m map[string]any) map[string]any {
	out := make(map[string]any, len(m))
	for k, v := range m {
		out[k] = v
	}
	return out
}

// Finding is one entry of an analytic summary.
type Finding struct {
	Name  string `json:"name"`
	Count int    `json:"count"`
}

// KeyFindings returns the top n groups ordered by count, then name.
func KeyFindings(groups map[string]int, n int) []Finding {
	out := make([]Finding, 0, len(groups))
	for name, c := range groups {
		out = append(out, Finding{Name: name, Count: c})
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Count != out[j].Count {
			return out[i].Count > out[j].Count
		}
		return out[i].Name < out[j].Name
	})
	if n > 0 && len(out) > n {
		out = out[:n]
	}
	return out
}

// Analytic wraps an analysis result with its key findings.
func (t *Timer) Analytic(data map[string]any, findings []Finding, extra map[string]any) Envelope {
	out := copyMap(data)
	out["key_findings"] = findings
	return t.Success(out, extra)
}
