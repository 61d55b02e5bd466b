// Package errors defines a structured error taxonomy of typed Report
// values with constructors for each elaboration and unification failure.
// The elaborate and unify packages do not build Reports: they return
// their own error types (and some fmt.Errorf errors), which are not
// converted to Reports.
package errors

import (
	"encoding/json"
	"errors"

	"github.com/ailang-lang/telescope/internal/ast"
)

// Error codes, grouped by the phase that raises them.
const (
	// Unification / pattern-solving (UNI###)
	UNISpineNonVar    = "UNI001" // a meta's spine contains a non-variable argument
	UNINonLinearSpine = "UNI002" // a meta's spine repeats a bound variable
	UNISpineProjection = "UNI003" // a meta's spine contains a record projection
	UNIScopeError     = "UNI004" // a solution mentions a variable outside the meta's scope
	UNIOccursCheck    = "UNI005" // a solution would refer to its own metavariable
	UNIMismatch       = "UNI006" // two values failed to unify
	UNIMismatchWhile  = "UNI007" // UNIMismatch, reported while unifying a larger pair

	// Elaboration (ELB###)
	ELBNameNotInScope   = "ELB001"
	ELBIcitMismatch     = "ELB002"
	ELBExpectedFunction = "ELB003"
)

// Fix is an optional suggested remedy attached to a Report.
type Fix struct {
	Description string `json:"description"`
	Replacement string `json:"replacement,omitempty"`
}

// Report is the canonical structured error value every phase of this
// module returns instead of a bare string.
type Report struct {
	Schema  string         `json:"schema"` // always "telescope.error/v1"
	Code    string         `json:"code"`
	Phase   string         `json:"phase"` // "unify", "elaborate", "parser", ...
	Message string         `json:"message"`
	Span    *ast.Span      `json:"span,omitempty"`
	Data    map[string]any `json:"data,omitempty"`
	Fix     *Fix           `json:"fix,omitempty"`
}

// ReportError wraps a Report as an error so it survives errors.As.
type ReportError struct {
	Rep *Report
}

func (e *ReportError) Error() string {
	if e.Rep == nil {
		return "unknown error"
	}
	return e.Rep.Code + ": " + e.Rep.Message
}

// AsReport extracts a Report from an error chain, if present.
func AsReport(err error) (*Report, bool) {
	var re *ReportError
	if errors.As(err, &re) {
		return re.Rep, true
	}
	return nil, false
}

// Wrap wraps a Report as an error.
func Wrap(r *Report) error {
	if r == nil {
		return nil
	}
	return &ReportError{Rep: r}
}

// ToJSON renders a Report as JSON, indented unless compact is set.
func (r *Report) ToJSON(compact bool) (string, error) {
	var data []byte
	var err error
	if compact {
		data, err = json.Marshal(r)
	} else {
		data, err = json.MarshalIndent(r, "", "  ")
	}
	if err != nil {
		return "", err
	}
	return string(data), nil
}

func newReport(code, phase, message string) *Report {
	return &Report{Schema: "telescope.error/v1", Code: code, Phase: phase, Message: message}
}

// SpineNonVar reports a meta spine entry that isn't a distinct bound
// variable, violating the pattern condition.
func SpineNonVar(span *ast.Span) *Report {
	r := newReport(UNISpineNonVar, "unify", "metavariable applied to a non-variable argument")
	r.Span = span
	return r
}

// NonLinearSpine reports a meta spine that applies the same bound
// variable more than once.
func NonLinearSpine(lvl int, span *ast.Span) *Report {
	r := newReport(UNINonLinearSpine, "unify", "metavariable applied to the same variable more than once")
	r.Data = map[string]any{"level": lvl}
	r.Span = span
	return r
}

// SpineProjection reports a meta spine containing a record projection.
func SpineProjection(span *ast.Span) *Report {
	r := newReport(UNISpineProjection, "unify", "metavariable spine contains a record projection")
	r.Span = span
	return r
}

// ScopeError reports a solution referring to a variable outside the
// solved metavariable's scope.
func ScopeError(lvl int, span *ast.Span) *Report {
	r := newReport(UNIScopeError, "unify", "solution mentions a variable out of the metavariable's scope")
	r.Data = map[string]any{"level": lvl}
	r.Span = span
	return r
}

// OccursCheck reports a solution that would refer to its own
// metavariable.
func OccursCheck(metaID int, span *ast.Span) *Report {
	r := newReport(UNIOccursCheck, "unify", "metavariable occurs in its own solution")
	r.Data = map[string]any{"meta": metaID}
	r.Span = span
	return r
}

// UnifyError reports a top-level conversion failure between two values,
// rendered with their printer.Val or printer.Tm forms by the caller.
func UnifyError(lhs, rhs string, span *ast.Span) *Report {
	r := newReport(UNIMismatch, "unify", "type mismatch")
	r.Data = map[string]any{"lhs": lhs, "rhs": rhs}
	r.Span = span
	return r
}

// UnifyErrorWhile wraps inner as a sub-problem of a larger unification
// between outerLhs and outerRhs.
func UnifyErrorWhile(inner *Report, outerLhs, outerRhs string, span *ast.Span) *Report {
	r := newReport(UNIMismatchWhile, "unify", "type mismatch")
	r.Data = map[string]any{"lhs": outerLhs, "rhs": outerRhs, "while": inner}
	r.Span = span
	return r
}

// NameNotInScope reports a surface variable with no FromSource binding.
func NameNotInScope(name string, span *ast.Span) *Report {
	r := newReport(ELBNameNotInScope, "elaborate", "name not in scope: "+name)
	r.Data = map[string]any{"name": name}
	r.Span = span
	return r
}

// IcitMismatch reports a surface lambda or application whose icitness
// does not match what the expected type demands.
func IcitMismatch(expected, got string, span *ast.Span) *Report {
	r := newReport(ELBIcitMismatch, "elaborate", "implicit/explicit mismatch")
	r.Data = map[string]any{"expected": expected, "got": got}
	r.Span = span
	return r
}

// ExpectedFunction reports an application whose function side elaborated
// to something that is provably not a function.
func ExpectedFunction(got string, span *ast.Span) *Report {
	r := newReport(ELBExpectedFunction, "elaborate", "expected a function type at this application")
	r.Data = map[string]any{"got": got}
	r.Span = span
	return r
}

// NewGeneric wraps an arbitrary error under phase, used for failures this
// module does not otherwise give a typed Report (e.g. file I/O in the
// CLI).
func NewGeneric(phase string, err error) *Report {
	r := newReport("GEN001", phase, err.Error())
	r.Data = map[string]any{}
	return r
}
