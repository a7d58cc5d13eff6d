// Package session sequences restoring a shared report, running a fresh analysis,
// sharing the result and resetting, with one state as the single source of truth.
package session

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"github.com/jonathan/skillbridge/internal/analysis"
	"github.com/jonathan/skillbridge/internal/reports"
	"github.com/jonathan/skillbridge/internal/types"
	"go.uber.org/zap"
)

// State is a session state
type State string

// Session states
const (
	StateIdle      State = "idle"
	StateRestoring State = "restoring"
	StateAnalyzing State = "analyzing"
	StateSharing   State = "sharing"
	StateResult    State = "result"
	StateError     State = "error"
)

// Busy reports whether an operation is in flight
func (s State) Busy() bool {
	return s == StateRestoring || s == StateAnalyzing || s == StateSharing
}

// Messages shown to the user
const (
	MsgReportNotFound = "Shared report not found. It may have expired or was created on a different device."
	MsgRestoreFailed  = "Failed to retrieve the shared report."
	MsgAnalysisFailed = analysis.UserMessage
	MsgInvalidInput   = "Please provide both a target role and your resume text."
	MsgStorageFull    = "Could not save report. Local storage might be full."
	MsgShareFailed    = "Could not generate share link. Please try again."
)

// Errors returned for rejected transitions
var (
	ErrBusy              = errors.New("an operation is already in progress")
	ErrInvalidTransition = errors.New("operation not allowed in the current state")
	ErrAlreadyStarted    = errors.New("session already started")
	ErrReportNotFound    = errors.New("shared report not found")
)

// Analyzer produces an analysis result; *analysis.Analyzer satisfies it
type Analyzer interface {
	Analyze(ctx context.Context, resumeText, targetRole string) (*types.AnalysisResult, error)
}

// Snapshot is an immutable view of the session
type Snapshot struct {
	State    State
	Result   *types.AnalysisResult
	Error    string // user-facing message in StateError
	ShareID  reports.ID
	ShareURL string
	ShareErr string // user-facing message after a failed share, state stays StateResult
}

// Session is the state machine. All methods are safe for concurrent use; operations
// block the calling goroutine until the transition they started completes.
type Session struct {
	analyzer Analyzer
	store    reports.Store
	location Location
	logger   *zap.Logger

	mu      sync.Mutex
	started bool
	pending bool // the address named a report that Start has not restored yet
	snap    Snapshot
	subs    map[int]chan Snapshot
	nextSub int
}

// Option configures a Session
type Option func(*Session)

// WithLogger sets the session logger
func WithLogger(logger *zap.Logger) Option {
	return func(s *Session) {
		if logger != nil {
			s.logger = logger
		}
	}
}

// New creates a session in StateIdle
func New(analyzer Analyzer, store reports.Store, location Location, opts ...Option) *Session {
	s := &Session{
		analyzer: analyzer,
		store:    store,
		location: location,
		logger:   zap.NewNop(),
		snap:     Snapshot{State: StateIdle},
		subs:     make(map[int]chan Snapshot),
	}
	if location != nil && location.ReportID() != "" {
		s.pending = true
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Snapshot returns the current state
func (s *Session) Snapshot() Snapshot {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.snap
}

// State returns the current state
func (s *Session) State() State {
	return s.Snapshot().State
}

// Subscribe returns a channel receiving every snapshot published after the call,
// and a function that unsubscribes and closes the channel. A subscriber that falls
// more than buffer snapshots behind misses the overflow.
func (s *Session) Subscribe(buffer int) (<-chan Snapshot, func()) {
	if buffer < 1 {
		buffer = 1
	}
	ch := make(chan Snapshot, buffer)

	s.mu.Lock()
	id := s.nextSub
	s.nextSub++
	s.subs[id] = ch
	s.mu.Unlock()

	var once sync.Once
	return ch, func() {
		once.Do(func() {
			s.mu.Lock()
			delete(s.subs, id)
			s.mu.Unlock()
			close(ch)
		})
	}
}

// setLocked replaces the snapshot and publishes it. Caller holds s.mu.
func (s *Session) setLocked(next Snapshot) {
	prev := s.snap.State
	s.snap = next
	s.logger.Debug("session transition", zap.String("from", string(prev)), zap.String("to", string(next.State)))
	for _, ch := range s.subs {
		select {
		case ch <- next:
		default:
		}
	}
}

// Start restores the shared report named by the address, if any. It may be called
// once, from StateIdle; without a share identifier the session stays idle.
func (s *Session) Start(ctx context.Context) error {
	s.mu.Lock()
	if s.started {
		s.mu.Unlock()
		return ErrAlreadyStarted
	}
	if s.snap.State.Busy() {
		s.mu.Unlock()
		return ErrBusy
	}
	if s.snap.State != StateIdle {
		s.mu.Unlock()
		return ErrInvalidTransition
	}
	s.started = true
	s.pending = false

	raw := ""
	if s.location != nil {
		raw = s.location.ReportID()
	}
	if raw == "" {
		s.mu.Unlock()
		return nil
	}
	s.setLocked(Snapshot{State: StateRestoring})
	s.mu.Unlock()

	id := reports.ID(raw)
	result, err := s.store.Load(ctx, id)

	s.mu.Lock()
	defer s.mu.Unlock()
	switch {
	case err != nil:
		s.logger.Error("failed to restore shared report", zap.String("report_id", raw), zap.Error(err))
		s.setLocked(Snapshot{State: StateError, Error: MsgRestoreFailed})
		return fmt.Errorf("failed to restore report %s: %w", raw, err)
	case result == nil:
		s.logger.Info("shared report not found", zap.String("report_id", raw))
		s.setLocked(Snapshot{State: StateError, Error: MsgReportNotFound})
		return ErrReportNotFound
	default:
		s.setLocked(Snapshot{
			State:    StateResult,
			Result:   result,
			ShareID:  id,
			ShareURL: s.location.ShareURL(raw),
		})
		return nil
	}
}

// Analyze runs a fresh analysis. Only one operation may be in flight; from any
// busy state it returns ErrBusy without changing state. While a shared report
// named by the address awaits Start it returns ErrInvalidTransition. The address
// no longer names a report once the analysis begins.
func (s *Session) Analyze(ctx context.Context, resumeText, targetRole string) error {
	s.mu.Lock()
	if s.snap.State.Busy() {
		s.mu.Unlock()
		return ErrBusy
	}
	if s.pending {
		s.mu.Unlock()
		return ErrInvalidTransition
	}
	if s.location != nil {
		s.location.ClearReportID()
	}
	s.setLocked(Snapshot{State: StateAnalyzing})
	s.mu.Unlock()

	result, err := s.analyzer.Analyze(ctx, resumeText, targetRole)

	s.mu.Lock()
	defer s.mu.Unlock()
	if err != nil {
		msg := MsgAnalysisFailed
		if analysis.IsKind(err, analysis.KindInvalidInput) {
			msg = MsgInvalidInput
		}
		s.logger.Warn("analysis failed", zap.Error(err))
		s.setLocked(Snapshot{State: StateError, Error: msg})
		return err
	}
	s.setLocked(Snapshot{State: StateResult, Result: result})
	return nil
}

// Share saves the current result and attaches the new identifier to the address.
// A failed save returns to StateResult with ShareErr set.
func (s *Session) Share(ctx context.Context) (reports.ID, error) {
	s.mu.Lock()
	if s.snap.State.Busy() {
		s.mu.Unlock()
		return "", ErrBusy
	}
	if s.snap.State != StateResult {
		s.mu.Unlock()
		return "", ErrInvalidTransition
	}
	current := s.snap
	sharing := current
	sharing.State = StateSharing
	sharing.ShareErr = ""
	s.setLocked(sharing)
	s.mu.Unlock()

	id, err := s.store.Save(ctx, current.Result)

	s.mu.Lock()
	defer s.mu.Unlock()
	next := current
	if err != nil {
		next.ShareErr = MsgShareFailed
		if reports.IsKind(err, reports.KindCapacityExceeded) {
			next.ShareErr = MsgStorageFull
		}
		s.logger.Warn("failed to share report", zap.Error(err))
		s.setLocked(next)
		return "", err
	}

	next.ShareErr = ""
	next.ShareID = id
	if s.location != nil {
		s.location.SetReportID(id.String())
		next.ShareURL = s.location.ShareURL(id.String())
	}
	s.setLocked(next)
	return id, nil
}

// Reset returns from StateResult or StateError to StateIdle and clears the share
// identifier from the address.
func (s *Session) Reset() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	switch s.snap.State {
	case StateResult, StateError:
	case StateIdle:
		return ErrInvalidTransition
	default:
		return ErrBusy
	}
	if s.location != nil {
		s.location.ClearReportID()
	}
	s.setLocked(Snapshot{State: StateIdle})
	return nil
}
