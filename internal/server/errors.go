// Package server provides the HTTP REST API for skill-gap analysis and shared reports.
package server

import (
	"errors"
	"fmt"
	"net/http"

	"github.com/jonathan/skillbridge/internal/analysis"
	"github.com/jonathan/skillbridge/internal/reports"
	"github.com/jonathan/skillbridge/internal/schemas"
	"github.com/jonathan/skillbridge/internal/session"
)

// ErrValidation indicates request validation failure
type ErrValidation struct {
	Field   string
	Message string
}

func (e *ErrValidation) Error() string {
	return fmt.Sprintf("validation error: %s - %s", e.Field, e.Message)
}

// ErrReportNotFound indicates no report is stored under the requested identifier
type ErrReportNotFound struct {
	ID string
}

func (e *ErrReportNotFound) Error() string {
	return fmt.Sprintf("report not found: %s", e.ID)
}

// errorBody is the JSON body of every error response
type errorBody struct {
	Error   string               `json:"error"`
	Kind    string               `json:"kind,omitempty"`
	Details []schemas.FieldError `json:"details,omitempty"`
}

// HTTPStatus returns the appropriate HTTP status code for an error
func HTTPStatus(err error) int {
	var (
		validationErr *ErrValidation
		notFoundErr   *ErrReportNotFound
		schemaErr     *schemas.ValidationError
		analysisErr   *analysis.AnalysisError
		storeErr      *reports.StoreError
	)
	switch {
	case err == nil:
		return http.StatusOK
	case errors.As(err, &validationErr), errors.As(err, &schemaErr):
		return http.StatusBadRequest
	case errors.As(err, &notFoundErr), errors.Is(err, session.ErrReportNotFound):
		return http.StatusNotFound
	case errors.Is(err, session.ErrBusy):
		return http.StatusConflict
	case errors.As(err, &analysisErr):
		switch analysisErr.Kind {
		case analysis.KindInvalidInput:
			return http.StatusBadRequest
		case analysis.KindRequestFailed:
			return http.StatusBadGateway
		default:
			return http.StatusUnprocessableEntity
		}
	case errors.As(err, &storeErr):
		if storeErr.Kind == reports.KindCapacityExceeded {
			return http.StatusInsufficientStorage
		}
		return http.StatusInternalServerError
	default:
		return http.StatusInternalServerError
	}
}

// userError builds the response body for err. Diagnostics stay in the log; the
// body carries only the fixed user-facing messages.
func userError(err error) errorBody {
	var (
		validationErr *ErrValidation
		schemaErr     *schemas.ValidationError
		analysisErr   *analysis.AnalysisError
		storeErr      *reports.StoreError
	)
	switch {
	case errors.As(err, &validationErr):
		return errorBody{Error: validationErr.Error(), Kind: "invalid_request"}
	case errors.As(err, &schemaErr):
		return errorBody{Error: "report does not match the analysis schema", Kind: "invalid_report", Details: schemaErr.Errors}
	case errors.As(err, new(*ErrReportNotFound)), errors.Is(err, session.ErrReportNotFound):
		return errorBody{Error: session.MsgReportNotFound, Kind: "not_found"}
	case errors.Is(err, session.ErrBusy):
		return errorBody{Error: err.Error(), Kind: "busy"}
	case errors.As(err, &analysisErr):
		if analysisErr.Kind == analysis.KindInvalidInput {
			return errorBody{Error: session.MsgInvalidInput, Kind: string(analysisErr.Kind)}
		}
		return errorBody{Error: session.MsgAnalysisFailed, Kind: string(analysisErr.Kind)}
	case errors.As(err, &storeErr):
		if storeErr.Kind == reports.KindCapacityExceeded {
			return errorBody{Error: session.MsgStorageFull, Kind: string(storeErr.Kind)}
		}
		return errorBody{Error: session.MsgRestoreFailed, Kind: string(storeErr.Kind)}
	default:
		return errorBody{Error: "internal server error"}
	}
}
