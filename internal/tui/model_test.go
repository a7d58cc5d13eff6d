package tui

import (
	"context"
	"encoding/json"
	"errors"
	"os"
	"testing"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/jonathan/skillbridge/internal/analysis"
	"github.com/jonathan/skillbridge/internal/reports"
	"github.com/jonathan/skillbridge/internal/session"
	"github.com/jonathan/skillbridge/internal/types"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type stubAnalyzer struct {
	result *types.AnalysisResult
	err    error
	calls  int
}

func (a *stubAnalyzer) Analyze(context.Context, string, string) (*types.AnalysisResult, error) {
	a.calls++
	return a.result, a.err
}

func loadResult(t *testing.T) *types.AnalysisResult {
	t.Helper()
	data, err := os.ReadFile("../../testdata/valid/analysis_result.json")
	require.NoError(t, err)
	var result types.AnalysisResult
	require.NoError(t, json.Unmarshal(data, &result))
	return &result
}

func plainRender(md string, _ int) (string, error) { return md, nil }

type harness struct {
	model    Model
	loc      *session.URLLocation
	store    *reports.MemoryStore
	analyzer *stubAnalyzer
}

func newHarness(t *testing.T, analyzer *stubAnalyzer, reportID string) *harness {
	t.Helper()
	loc, err := session.NewLocation("http://localhost:8080/", reportID)
	require.NoError(t, err)
	store := reports.NewMemoryStore(0)
	sess := session.New(analyzer, store, loc)

	m, unsubscribe := New(context.Background(), sess, WithRenderer(plainRender))
	t.Cleanup(unsubscribe)
	return &harness{model: m, loc: loc, store: store, analyzer: analyzer}
}

// send feeds msg to the model and returns the command it produced
func (h *harness) send(msg tea.Msg) tea.Cmd {
	next, cmd := h.model.Update(msg)
	h.model = next.(Model)
	return cmd
}

// run executes a session command and applies every transition it published
func (h *harness) run(t *testing.T, cmd tea.Cmd) opDoneMsg {
	t.Helper()
	require.NotNil(t, cmd)
	done, ok := cmd().(opDoneMsg)
	require.True(t, ok, "expected a session operation")
	h.drain()
	h.send(done)
	return done
}

func (h *harness) drain() {
	for {
		select {
		case snap, ok := <-h.model.updates:
			if !ok {
				return
			}
			h.send(snapshotMsg(snap))
		default:
			return
		}
	}
}

func key(s string) tea.KeyMsg {
	switch s {
	case "ctrl+s":
		return tea.KeyMsg{Type: tea.KeyCtrlS}
	case "ctrl+c":
		return tea.KeyMsg{Type: tea.KeyCtrlC}
	case "tab":
		return tea.KeyMsg{Type: tea.KeyTab}
	case "enter":
		return tea.KeyMsg{Type: tea.KeyEnter}
	}
	return tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune(s)}
}

func (h *harness) fill(role, resume string) {
	h.model.role.SetValue(role)
	h.model.resume.SetValue(resume)
}

func TestModel_InitialForm(t *testing.T) {
	h := newHarness(t, &stubAnalyzer{}, "")

	view := h.model.View()
	assert.Contains(t, view, "SkillBridge")
	assert.Contains(t, view, "Target role")
	assert.Contains(t, view, "Resume")
	assert.Contains(t, view, "ctrl+s: analyze")
}

func TestModel_SubmitRequiresBothFields(t *testing.T) {
	analyzer := &stubAnalyzer{result: loadResult(t)}
	h := newHarness(t, analyzer, "")
	h.fill("Backend Engineer", "   ")

	cmd := h.send(key("ctrl+s"))

	assert.Nil(t, cmd)
	assert.Contains(t, h.model.View(), session.MsgInvalidInput)
	assert.Zero(t, analyzer.calls)
}

func TestModel_FocusMovesBetweenFields(t *testing.T) {
	h := newHarness(t, &stubAnalyzer{}, "")
	require.Equal(t, focusRole, h.model.focus)

	h.send(key("tab"))
	assert.Equal(t, focusResume, h.model.focus)
	assert.True(t, h.model.resume.Focused())
	assert.False(t, h.model.role.Focused())

	h.send(key("tab"))
	assert.Equal(t, focusRole, h.model.focus)

	h.send(key("enter"))
	assert.Equal(t, focusResume, h.model.focus, "enter on the role field moves on")
}

func TestModel_TypingGoesToFocusedField(t *testing.T) {
	h := newHarness(t, &stubAnalyzer{}, "")

	h.send(key("SRE"))
	assert.Equal(t, "SRE", h.model.role.Value())

	h.send(key("tab"))
	h.send(key("Go"))
	assert.Equal(t, "Go", h.model.resume.Value())
	assert.Equal(t, "SRE", h.model.role.Value())
}

func TestModel_AnalyzeShareReset(t *testing.T) {
	h := newHarness(t, &stubAnalyzer{result: loadResult(t)}, "")
	h.fill("Backend Engineer", "Five years of Python services.")

	done := h.run(t, h.send(key("ctrl+s")))
	require.NoError(t, done.err)
	assert.Equal(t, session.StateResult, h.model.snap.State)

	view := h.model.View()
	assert.Contains(t, view, "Analysis Report: Backend Engineer")
	assert.Contains(t, view, "s: share")
	assert.NotContains(t, view, "Share link")

	done = h.run(t, h.send(key("s")))
	require.NoError(t, done.err)
	require.NotEmpty(t, h.model.snap.ShareID)
	assert.Equal(t, h.model.snap.ShareID.String(), h.loc.ReportID())
	assert.Contains(t, h.model.View(), "Share link:")
	assert.Contains(t, h.model.View(), "reportId="+h.model.snap.ShareID.String())
	assert.Equal(t, 1, h.store.Len())

	// sharing twice keeps the existing link
	assert.Nil(t, h.send(key("s")))
	assert.Contains(t, h.model.View(), "already shared")

	h.send(key("r"))
	h.drain()
	assert.Equal(t, session.StateIdle, h.model.snap.State)
	assert.Empty(t, h.loc.ReportID())
	assert.Empty(t, h.model.role.Value())
	assert.Empty(t, h.model.resume.Value())
	assert.Contains(t, h.model.View(), "Target role")
}

func TestModel_ShareFailureKeepsReport(t *testing.T) {
	h := newHarness(t, &stubAnalyzer{result: loadResult(t)}, "")
	h.model.sess = session.New(h.analyzer, reports.NewMemoryStore(10), h.loc)
	h.model.updates, _ = h.model.sess.Subscribe(16)
	h.fill("Backend Engineer", "resume")

	h.run(t, h.send(key("ctrl+s")))
	done := h.run(t, h.send(key("s")))

	assert.True(t, reports.IsKind(done.err, reports.KindCapacityExceeded))
	assert.Equal(t, session.StateResult, h.model.snap.State)
	view := h.model.View()
	assert.Contains(t, view, session.MsgStorageFull)
	assert.Contains(t, view, "Analysis Report")
	assert.Empty(t, h.loc.ReportID())
}

func TestModel_AnalysisFailure(t *testing.T) {
	err := &analysis.AnalysisError{Kind: analysis.KindRequestFailed, Cause: errors.New("503")}
	h := newHarness(t, &stubAnalyzer{err: err}, "")
	h.fill("SRE", "resume")

	done := h.run(t, h.send(key("ctrl+s")))

	assert.True(t, analysis.IsKind(done.err, analysis.KindRequestFailed))
	assert.Equal(t, session.StateError, h.model.snap.State)
	view := h.model.View()
	assert.Contains(t, view, session.MsgAnalysisFailed)
	assert.NotContains(t, view, "503")

	h.send(key("r"))
	assert.Equal(t, session.StateIdle, h.model.snap.State)
}

func TestModel_RestoreSharedReport(t *testing.T) {
	store := reports.NewMemoryStore(0)
	id, err := store.Save(context.Background(), loadResult(t))
	require.NoError(t, err)

	loc, err := session.NewLocation("http://localhost:8080/", id.String())
	require.NoError(t, err)
	sess := session.New(&stubAnalyzer{}, store, loc)
	m, unsubscribe := New(context.Background(), sess, WithRenderer(plainRender))
	t.Cleanup(unsubscribe)
	h := &harness{model: m, loc: loc, store: store}

	done := h.run(t, h.model.startCmd())

	require.NoError(t, done.err)
	assert.Equal(t, session.StateResult, h.model.snap.State)
	assert.Contains(t, h.model.View(), "Analysis Report: Backend Engineer")
	assert.Contains(t, h.model.View(), "reportId="+id.String())
}

func TestModel_SubmitBeforeRestoreWaits(t *testing.T) {
	store := reports.NewMemoryStore(0)
	id, err := store.Save(context.Background(), loadResult(t))
	require.NoError(t, err)

	loc, err := session.NewLocation("http://localhost:8080/", id.String())
	require.NoError(t, err)
	analyzer := &stubAnalyzer{result: loadResult(t)}
	m, unsubscribe := New(context.Background(), session.New(analyzer, store, loc), WithRenderer(plainRender))
	t.Cleanup(unsubscribe)
	h := &harness{model: m, loc: loc, store: store, analyzer: analyzer}
	h.fill("SRE", "resume")

	done := h.run(t, h.send(key("ctrl+s")))

	assert.ErrorIs(t, done.err, session.ErrInvalidTransition)
	assert.Zero(t, analyzer.calls)
	assert.Contains(t, h.model.View(), "Please wait")

	done = h.run(t, h.model.startCmd())
	require.NoError(t, done.err)
	assert.Equal(t, session.StateResult, h.model.snap.State)
	assert.Equal(t, id, h.model.snap.ShareID)
}

func TestModel_RestoreMissingReport(t *testing.T) {
	h := newHarness(t, &stubAnalyzer{}, "3f1c9a52-5d2e-4d8b-9a71-0c4b7e2f6a10")

	done := h.run(t, h.model.startCmd())

	assert.ErrorIs(t, done.err, session.ErrReportNotFound)
	assert.Equal(t, session.StateError, h.model.snap.State)
	assert.Contains(t, h.model.View(), session.MsgReportNotFound)
}

func TestModel_BusySnapshotStartsSpinner(t *testing.T) {
	h := newHarness(t, &stubAnalyzer{}, "")

	cmd := h.send(snapshotMsg(session.Snapshot{State: session.StateAnalyzing}))

	require.NotNil(t, cmd)
	assert.Contains(t, h.model.View(), "Analyzing")
	assert.Nil(t, h.send(key("ctrl+s")), "keys other than quit are ignored while busy")
}

func TestModel_SpinnerStopsWhenIdle(t *testing.T) {
	h := newHarness(t, &stubAnalyzer{}, "")
	tick := h.model.spinner.Tick()

	assert.Nil(t, h.send(tick))
}

func TestModel_WindowSize(t *testing.T) {
	h := newHarness(t, &stubAnalyzer{}, "")

	h.send(tea.WindowSizeMsg{Width: 120, Height: 40})
	assert.Equal(t, 120, h.model.width)
	assert.Equal(t, 40, h.model.height)
	assert.Equal(t, 120, h.model.viewport.Width)
	assert.Equal(t, 40-chrome, h.model.viewport.Height)

	h.send(tea.WindowSizeMsg{Width: 0, Height: -1})
	assert.Equal(t, 120, h.model.width, "non-positive sizes are ignored")
}

func TestModel_Quit(t *testing.T) {
	h := newHarness(t, &stubAnalyzer{}, "")

	cmd := h.send(key("ctrl+c"))

	require.NotNil(t, cmd)
	assert.IsType(t, tea.QuitMsg{}, cmd())
}

func TestBusyLabel(t *testing.T) {
	assert.NotEmpty(t, busyLabel(session.StateRestoring))
	assert.NotEmpty(t, busyLabel(session.StateAnalyzing))
	assert.NotEmpty(t, busyLabel(session.StateSharing))
	assert.Empty(t, busyLabel(session.StateIdle))
}
