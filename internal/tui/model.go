// Package tui is the terminal front end: an input form, progress while the session
// is busy and the rendered report with share and reset actions.
package tui

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/spinner"
	"github.com/charmbracelet/bubbles/textarea"
	"github.com/charmbracelet/bubbles/textinput"
	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/jonathan/skillbridge/internal/observability"
	"github.com/jonathan/skillbridge/internal/session"
	"go.uber.org/zap"
)

const (
	focusRole = iota
	focusResume
)

// chrome is the number of lines around the report viewport
const chrome = 5

// snapshotMsg carries a session transition into the update loop
type snapshotMsg session.Snapshot

// opDoneMsg reports the end of a session operation started by the model
type opDoneMsg struct {
	op  string
	err error
}

// RenderFunc turns a Markdown report into terminal output
type RenderFunc func(markdown string, width int) (string, error)

// Model is the bubbletea model
type Model struct {
	ctx     context.Context
	sess    *session.Session
	updates <-chan session.Snapshot
	logger  *zap.Logger
	render  RenderFunc

	width  int
	height int
	focus  int

	role     textinput.Model
	resume   textarea.Model
	spinner  spinner.Model
	viewport viewport.Model
	styles   Styles

	snap   session.Snapshot
	notice string
}

// Option configures a Model
type Option func(*Model)

// WithLogger sets the logger
func WithLogger(logger *zap.Logger) Option {
	return func(m *Model) {
		if logger != nil {
			m.logger = logger
		}
	}
}

// WithRenderer replaces the Markdown renderer
func WithRenderer(render RenderFunc) Option {
	return func(m *Model) {
		if render != nil {
			m.render = render
		}
	}
}

// New creates a model bound to sess. The returned function unsubscribes from the
// session and must be called once the program exits.
func New(ctx context.Context, sess *session.Session, opts ...Option) (Model, func()) {
	role := textinput.New()
	role.Placeholder = "e.g. Senior Backend Engineer"
	role.CharLimit = 200
	role.Focus()

	resume := textarea.New()
	resume.Placeholder = "Paste your resume here..."
	resume.ShowLineNumbers = false
	resume.CharLimit = 0
	resume.SetHeight(12)

	sp := spinner.New()
	sp.Spinner = spinner.Dot

	vp := viewport.New(80, 20)

	updates, unsubscribe := sess.Subscribe(16)
	m := Model{
		ctx:      ctx,
		sess:     sess,
		updates:  updates,
		logger:   zap.NewNop(),
		render:   observability.RenderTerminal,
		width:    80,
		height:   24,
		role:     role,
		resume:   resume,
		spinner:  sp,
		viewport: vp,
		styles:   DefaultStyles(),
		snap:     sess.Snapshot(),
	}
	m.spinner.Style = m.styles.Spinner
	for _, opt := range opts {
		opt(&m)
	}
	return m, unsubscribe
}

// Init restores a shared report, if any, and starts listening for transitions
func (m Model) Init() tea.Cmd {
	return tea.Batch(textinput.Blink, m.waitForSnapshot(), m.startCmd())
}

func (m Model) waitForSnapshot() tea.Cmd {
	ch := m.updates
	return func() tea.Msg {
		snap, ok := <-ch
		if !ok {
			return nil
		}
		return snapshotMsg(snap)
	}
}

func (m Model) startCmd() tea.Cmd {
	sess, ctx := m.sess, m.ctx
	return func() tea.Msg {
		return opDoneMsg{op: "restore", err: sess.Start(ctx)}
	}
}

func (m Model) analyzeCmd(resume, role string) tea.Cmd {
	sess, ctx := m.sess, m.ctx
	return func() tea.Msg {
		return opDoneMsg{op: "analyze", err: sess.Analyze(ctx, resume, role)}
	}
}

func (m Model) shareCmd() tea.Cmd {
	sess, ctx := m.sess, m.ctx
	return func() tea.Msg {
		_, err := sess.Share(ctx)
		return opDoneMsg{op: "share", err: err}
	}
}

// Update handles messages
func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.resize(msg.Width, msg.Height)
		return m, nil

	case snapshotMsg:
		return m.applySnapshot(session.Snapshot(msg))

	case opDoneMsg:
		if msg.err != nil {
			m.logger.Debug("session operation finished with error", zap.String("op", msg.op), zap.Error(msg.err))
			if errors.Is(msg.err, session.ErrBusy) || errors.Is(msg.err, session.ErrInvalidTransition) {
				m.notice = "Please wait for the current operation to finish."
			}
		}
		return m, nil

	case spinner.TickMsg:
		if !m.snap.State.Busy() {
			return m, nil
		}
		var cmd tea.Cmd
		m.spinner, cmd = m.spinner.Update(msg)
		return m, cmd

	case tea.KeyMsg:
		if msg.Type == tea.KeyCtrlC {
			return m, tea.Quit
		}
		switch m.snap.State {
		case session.StateIdle:
			return m.updateForm(msg)
		case session.StateResult:
			return m.updateResult(msg)
		case session.StateError:
			switch msg.String() {
			case "r", "enter":
				return m.reset()
			case "q", "esc":
				return m, tea.Quit
			}
		}
		return m, nil
	}

	return m.updateInputs(msg)
}

func (m Model) applySnapshot(snap session.Snapshot) (tea.Model, tea.Cmd) {
	wasBusy := m.snap.State.Busy()
	m.snap = snap
	cmds := []tea.Cmd{m.waitForSnapshot()}

	if snap.State.Busy() && !wasBusy {
		cmds = append(cmds, m.spinner.Tick)
	}
	if snap.State == session.StateResult {
		m.refreshReport()
	}
	if snap.State == session.StateIdle {
		m.notice = ""
	}
	return m, tea.Batch(cmds...)
}

func (m Model) updateForm(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "esc":
		return m, tea.Quit
	case "tab", "shift+tab":
		m.toggleFocus()
		return m, nil
	case "ctrl+s":
		role := strings.TrimSpace(m.role.Value())
		resume := strings.TrimSpace(m.resume.Value())
		if role == "" || resume == "" {
			m.notice = session.MsgInvalidInput
			return m, nil
		}
		m.notice = ""
		return m, m.analyzeCmd(resume, role)
	case "enter":
		if m.focus == focusRole {
			m.toggleFocus()
			return m, nil
		}
	}
	return m.updateInputs(msg)
}

func (m Model) updateResult(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "s":
		if m.snap.ShareID != "" {
			m.notice = "This report is already shared."
			return m, nil
		}
		m.notice = ""
		return m, m.shareCmd()
	case "r", "n":
		return m.reset()
	case "q", "esc":
		return m, tea.Quit
	}
	var cmd tea.Cmd
	m.viewport, cmd = m.viewport.Update(msg)
	return m, cmd
}

func (m Model) reset() (tea.Model, tea.Cmd) {
	if err := m.sess.Reset(); err != nil {
		m.logger.Debug("reset rejected", zap.Error(err))
		return m, nil
	}
	m.role.Reset()
	m.resume.Reset()
	m.focus = focusRole
	m.role.Focus()
	m.resume.Blur()
	m.viewport.SetContent("")
	m.snap = m.sess.Snapshot()
	m.notice = ""
	return m, textinput.Blink
}

func (m Model) updateInputs(msg tea.Msg) (tea.Model, tea.Cmd) {
	if m.snap.State != session.StateIdle {
		return m, nil
	}
	var cmd tea.Cmd
	if m.focus == focusRole {
		m.role, cmd = m.role.Update(msg)
	} else {
		m.resume, cmd = m.resume.Update(msg)
	}
	return m, cmd
}

func (m *Model) toggleFocus() {
	if m.focus == focusRole {
		m.focus = focusResume
		m.role.Blur()
		m.resume.Focus()
		return
	}
	m.focus = focusRole
	m.resume.Blur()
	m.role.Focus()
}

func (m *Model) resize(width, height int) {
	if width <= 0 || height <= 0 {
		return
	}
	m.width, m.height = width, height
	m.role.Width = max(10, width-4)
	m.resume.SetWidth(max(10, width-2))
	m.resume.SetHeight(max(3, height-10))
	m.viewport.Width = width
	m.viewport.Height = max(1, height-chrome)
	if m.snap.State == session.StateResult {
		m.refreshReport()
	}
}

func (m *Model) refreshReport() {
	if m.snap.Result == nil {
		return
	}
	md := observability.Markdown(m.snap.Result)
	out, err := m.render(md, m.width)
	if err != nil {
		m.logger.Warn("failed to render report", zap.Error(err))
		out = md
	}
	m.viewport.SetContent(out)
}

// View renders the current state
func (m Model) View() string {
	var b strings.Builder
	b.WriteString(m.styles.Title.Render("SkillBridge"))
	b.WriteString("\n\n")

	switch m.snap.State {
	case session.StateIdle:
		b.WriteString(m.label("Target role", m.focus == focusRole))
		b.WriteString(m.role.View() + "\n\n")
		b.WriteString(m.label("Resume", m.focus == focusResume))
		b.WriteString(m.resume.View() + "\n")
		m.writeNotice(&b)
		b.WriteString(m.styles.Help.Render("tab: switch field • ctrl+s: analyze • esc: quit"))

	case session.StateRestoring, session.StateAnalyzing:
		fmt.Fprintf(&b, "%s %s\n", m.spinner.View(), busyLabel(m.snap.State))

	case session.StateSharing, session.StateResult:
		b.WriteString(m.viewport.View() + "\n")
		switch {
		case m.snap.State == session.StateSharing:
			fmt.Fprintf(&b, "%s %s\n", m.spinner.View(), busyLabel(m.snap.State))
		case m.snap.ShareErr != "":
			b.WriteString(m.styles.Error.Render(m.snap.ShareErr) + "\n")
		case m.snap.ShareURL != "":
			b.WriteString("Share link: " + m.styles.Link.Render(m.snap.ShareURL) + "\n")
		}
		m.writeNotice(&b)
		b.WriteString(m.styles.Help.Render("s: share • r: new analysis • ↑/↓: scroll • q: quit"))

	case session.StateError:
		b.WriteString(m.styles.Error.Render(m.snap.Error) + "\n\n")
		b.WriteString(m.styles.Help.Render("r: start over • q: quit"))
	}

	return b.String()
}

func (m Model) label(text string, focused bool) string {
	if focused {
		return m.styles.Focused.Render("› "+text) + "\n"
	}
	return m.styles.Label.Render("  "+text) + "\n"
}

func (m Model) writeNotice(b *strings.Builder) {
	if m.notice != "" {
		b.WriteString(m.styles.Notice.Render(m.notice) + "\n")
	}
}

func busyLabel(s session.State) string {
	switch s {
	case session.StateRestoring:
		return "Loading shared report..."
	case session.StateAnalyzing:
		return "Analyzing your profile against the target role..."
	case session.StateSharing:
		return "Saving report..."
	default:
		return ""
	}
}

// Run starts the program on the terminal and blocks until the user quits
func Run(ctx context.Context, sess *session.Session, opts ...Option) error {
	m, unsubscribe := New(ctx, sess, opts...)
	defer unsubscribe()

	p := tea.NewProgram(m, tea.WithAltScreen(), tea.WithContext(ctx))
	if _, err := p.Run(); err != nil && !errors.Is(err, tea.ErrProgramKilled) {
		return fmt.Errorf("terminal UI failed: %w", err)
	}
	return nil
}
