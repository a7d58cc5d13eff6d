package analysis

import (
	"errors"
	"fmt"
)

// Kind classifies an analysis failure
type Kind string

// Failure kinds
const (
	// KindInvalidInput means the resume or target role was blank; no request was sent
	KindInvalidInput Kind = "invalid_input"
	// KindRequestFailed covers transport, credential and quota failures alike
	KindRequestFailed Kind = "request_failed"
	// KindEmptyResponse means the model answered without any text
	KindEmptyResponse Kind = "empty_response"
	// KindMalformedOutput means the text was not JSON or did not satisfy the result schema
	KindMalformedOutput Kind = "malformed_output"
)

// UserMessage is the only failure text shown to end users; diagnostics go to the log.
const UserMessage = "Failed to analyze career path. Please try again."

// AnalysisError is returned by Analyze for every failure
type AnalysisError struct {
	Kind    Kind
	Message string
	Cause   error
}

func (e *AnalysisError) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("analysis %s: %s: %v", e.Kind, e.Message, e.Cause)
	}
	return fmt.Sprintf("analysis %s: %s", e.Kind, e.Message)
}

func (e *AnalysisError) Unwrap() error {
	return e.Cause
}

// IsKind reports whether err is an AnalysisError of the given kind
func IsKind(err error, kind Kind) bool {
	var ae *AnalysisError
	return errors.As(err, &ae) && ae.Kind == kind
}

// KindOf returns the kind of an AnalysisError in err's chain, or "" when there is none
func KindOf(err error) Kind {
	var ae *AnalysisError
	if errors.As(err, &ae) {
		return ae.Kind
	}
	return ""
}
