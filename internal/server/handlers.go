package server

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strconv"

	"github.com/go-playground/validator/v10"
	"github.com/jonathan/skillbridge/internal/analysis"
	"github.com/jonathan/skillbridge/internal/reports"
	"github.com/jonathan/skillbridge/internal/schemas"
	"github.com/jonathan/skillbridge/internal/session"
	"github.com/jonathan/skillbridge/internal/types"
	"go.uber.org/zap"
)

// StateEvent is one session transition on the analysis stream
type StateEvent struct {
	State      session.State         `json:"state"`
	Error      string                `json:"error,omitempty"`
	ShareError string                `json:"share_error,omitempty"`
	ReportID   string                `json:"report_id,omitempty"`
	ShareURL   string                `json:"share_url,omitempty"`
	Result     *types.AnalysisResult `json:"result,omitempty"`
}

func newStateEvent(snap session.Snapshot, withResult bool) StateEvent {
	ev := StateEvent{
		State:      snap.State,
		Error:      snap.Error,
		ShareError: snap.ShareErr,
		ReportID:   snap.ShareID.String(),
		ShareURL:   snap.ShareURL,
	}
	if withResult {
		ev.Result = snap.Result
	}
	return ev
}

// decodeAnalyzeRequest reads and validates an AnalyzeRequest body
func decodeAnalyzeRequest(w http.ResponseWriter, r *http.Request) (*types.AnalyzeRequest, error) {
	var req types.AnalyzeRequest
	if err := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxBodyBytes)).Decode(&req); err != nil {
		return nil, &ErrValidation{Field: "body", Message: err.Error()}
	}
	if err := req.Validate(); err != nil {
		return nil, toValidationError(err)
	}
	return &req, nil
}

// toValidationError reports the first failing field of a validator error
func toValidationError(err error) error {
	var verrs validator.ValidationErrors
	if errors.As(err, &verrs) && len(verrs) > 0 {
		fe := verrs[0]
		return &ErrValidation{Field: fe.Field(), Message: fmt.Sprintf("failed %q check", fe.Tag())}
	}
	return &ErrValidation{Field: "body", Message: err.Error()}
}

// reportError turns a rejected report upload into a client error. Schema
// violations keep their field list.
func reportError(err error) error {
	var schemaErr *schemas.ValidationError
	if errors.As(err, &schemaErr) {
		return schemaErr
	}
	var verrs validator.ValidationErrors
	if errors.As(err, &verrs) {
		return toValidationError(verrs)
	}
	return &ErrValidation{Field: "body", Message: "not a JSON document"}
}

// acquireAnalysis waits for a free analysis slot. The caller must release it.
func (s *Server) acquireAnalysis(ctx context.Context) error {
	if err := s.analyses.Acquire(ctx, 1); err != nil {
		return fmt.Errorf("waiting for analysis slot: %w", err)
	}
	return nil
}

// handleAnalyze runs one analysis and returns the result
func (s *Server) handleAnalyze(w http.ResponseWriter, r *http.Request) {
	req, err := decodeAnalyzeRequest(w, r)
	if err != nil {
		s.errorResponse(w, err)
		return
	}

	if err := s.acquireAnalysis(r.Context()); err != nil {
		s.logger.Info("client left while queued", zap.Error(err))
		return
	}
	defer s.analyses.Release(1)

	result, err := s.analyzer.Analyze(r.Context(), req.ResumeText, req.TargetRole)
	if err != nil {
		s.logger.Warn("analysis failed", zap.String("role", req.TargetRole), zap.Error(err))
		s.errorResponse(w, err)
		return
	}
	s.jsonResponse(w, http.StatusOK, result)
}

// handleAnalyzeStream drives a session through an analysis and streams every
// transition. With ?share=true a successful result is also saved.
func (s *Server) handleAnalyzeStream(w http.ResponseWriter, r *http.Request) {
	req, err := decodeAnalyzeRequest(w, r)
	if err != nil {
		s.errorResponse(w, err)
		return
	}
	share, _ := strconv.ParseBool(r.URL.Query().Get("share"))

	loc, err := session.ParseLocation(s.baseURL)
	if err != nil {
		s.errorResponse(w, err)
		return
	}

	sse, err := NewSSEWriter(w)
	if err != nil {
		s.errorResponse(w, err)
		return
	}

	ctx := r.Context()
	if err := s.acquireAnalysis(ctx); err != nil {
		return
	}
	defer s.analyses.Release(1)

	sess := session.New(s.analyzer, s.store, loc, session.WithLogger(s.logger))
	updates, unsubscribe := sess.Subscribe(8)
	defer unsubscribe()

	done := make(chan struct{})
	go func() {
		defer close(done)
		if err := sess.Analyze(ctx, req.ResumeText, req.TargetRole); err != nil {
			return
		}
		if share {
			// a failed save leaves the result in place with ShareErr set
			_, _ = sess.Share(ctx)
		}
	}()

	forward := func(snap session.Snapshot) {
		if err := sse.WriteEvent("state", newStateEvent(snap, false)); err != nil {
			s.logger.Debug("stream write failed", zap.Error(err))
		}
	}
loop:
	for {
		select {
		case snap := <-updates:
			forward(snap)
		case <-done:
			break loop
		}
	}
	for drained := false; !drained; {
		select {
		case snap := <-updates:
			forward(snap)
		default:
			drained = true
		}
	}

	final := sess.Snapshot()
	if final.State == session.StateError {
		sse.WriteError(errorBody{Error: final.Error})
	}
	sse.WriteComplete(newStateEvent(final, true))
}

// handleSaveReport stores a finished report and returns its share link
func (s *Server) handleSaveReport(w http.ResponseWriter, r *http.Request) {
	body, err := io.ReadAll(http.MaxBytesReader(w, r.Body, maxBodyBytes))
	if err != nil {
		s.errorResponse(w, &ErrValidation{Field: "body", Message: err.Error()})
		return
	}
	result, err := analysis.ParseResult(string(body))
	if err != nil {
		s.errorResponse(w, reportError(err))
		return
	}

	id, err := s.store.Save(r.Context(), result)
	if err != nil {
		s.errorResponse(w, err)
		return
	}

	loc, err := session.ParseLocation(s.baseURL)
	if err != nil {
		s.errorResponse(w, err)
		return
	}
	s.jsonResponse(w, http.StatusCreated, types.ShareResponse{
		ReportID: id.String(),
		ShareURL: loc.ShareURL(id.String()),
	})
}

// handleGetReport returns a stored report
func (s *Server) handleGetReport(w http.ResponseWriter, r *http.Request) {
	id := r.PathValue("id")

	result, err := s.store.Load(r.Context(), reports.ID(id))
	if err != nil {
		s.errorResponse(w, err)
		return
	}
	if result == nil {
		s.errorResponse(w, &ErrReportNotFound{ID: id})
		return
	}
	s.jsonResponse(w, http.StatusOK, result)
}
