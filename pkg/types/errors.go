package types

import (
	"errors"
	"fmt"
	"strings"
)

// ErrorKind names a class of pipeline failure. The string values are the
// names operators see in run summaries.
type ErrorKind string

// Error kinds.
const (
	KindSchema       ErrorKind = "SchemaError"
	KindType         ErrorKind = "TypeError"
	KindConformance  ErrorKind = "ConformanceError"
	KindReferential  ErrorKind = "ReferentialIntegrityError"
	KindUniqueness   ErrorKind = "UniquenessViolation"
	KindNonNull      ErrorKind = "NonNullViolation"
	KindBusinessRule ErrorKind = "BusinessRuleViolation"
)

// Sentinels, one per error kind. StageError and ValidationError unwrap to
// these so callers can use errors.Is.
var (
	ErrSchema       = errors.New("schema error")
	ErrType         = errors.New("type error")
	ErrConformance  = errors.New("conformance error")
	ErrReferential  = errors.New("referential integrity violation")
	ErrUniqueness   = errors.New("uniqueness violation")
	ErrNonNull      = errors.New("non-null violation")
	ErrBusinessRule = errors.New("business rule violation")
)

// Pipeline and table errors.
var (
	ErrTableNotFound     = errors.New("table not found")
	ErrValidationFailed  = errors.New("validation failed")
	ErrPublisherDetached = errors.New("publisher is detached")
	ErrSessionClosed     = errors.New("publish session is closed")
)

var kindSentinels = map[ErrorKind]error{
	KindSchema:       ErrSchema,
	KindType:         ErrType,
	KindConformance:  ErrConformance,
	KindReferential:  ErrReferential,
	KindUniqueness:   ErrUniqueness,
	KindNonNull:      ErrNonNull,
	KindBusinessRule: ErrBusinessRule,
}

// Sentinel returns the sentinel error for the kind, or nil for an unknown kind.
func (k ErrorKind) Sentinel() error {
	return kindSentinels[k]
}

// StageError is a fatal, table-level failure raised by the conformance stage.
type StageError struct {
	Kind   ErrorKind
	Table  string
	Column string
	Reason string
}

// Error formats the failure as "<Kind>: <table>[.<column>]: <reason>".
func (e *StageError) Error() string {
	target := e.Table
	if e.Column != "" {
		target += "." + e.Column
	}
	return fmt.Sprintf("%s: %s: %s", e.Kind, target, e.Reason)
}

// Unwrap returns the sentinel for the error kind.
func (e *StageError) Unwrap() error {
	return e.Kind.Sentinel()
}

// Violation is one failed validation rule. Count is the number of offending
// rows; Keys holds a bounded sample of their key tuples.
type Violation struct {
	Table   string    `json:"table"`
	Rule    string    `json:"rule"`
	Kind    ErrorKind `json:"kind"`
	Columns []string  `json:"columns"`
	Count   int       `json:"count"`
	Keys    []string  `json:"keys,omitempty"`
	Message string    `json:"message,omitempty"`
}

// String renders the violation on one line.
func (v Violation) String() string {
	var b strings.Builder
	fmt.Fprintf(&b, "%s %s [%s] %d row(s)", v.Table, v.Rule, v.Kind, v.Count)
	if len(v.Keys) > 0 {
		fmt.Fprintf(&b, " e.g. %s", strings.Join(v.Keys, "; "))
	}
	if v.Message != "" {
		fmt.Fprintf(&b, ": %s", v.Message)
	}
	return b.String()
}

// ValidationError reports every violation found by the validation gate.
type ValidationError struct {
	Violations []Violation
}

// Error lists the failing table/rule pairs.
func (e *ValidationError) Error() string {
	parts := make([]string, len(e.Violations))
	for i, v := range e.Violations {
		parts[i] = v.Table + "/" + v.Rule
	}
	return fmt.Sprintf("%s: %d violation(s): %s", ErrValidationFailed, len(e.Violations), strings.Join(parts, ", "))
}

// Unwrap exposes ErrValidationFailed and the sentinel of every violated kind.
func (e *ValidationError) Unwrap() []error {
	errs := []error{ErrValidationFailed}
	seen := make(map[ErrorKind]bool)
	for _, v := range e.Violations {
		if seen[v.Kind] {
			continue
		}
		seen[v.Kind] = true
		if s := v.Kind.Sentinel(); s != nil {
			errs = append(errs, s)
		}
	}
	return errs
}
