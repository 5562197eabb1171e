// Package tui implements the interactive build wizard: one view per
// session stage, driving a single Builder.
package tui

import (
	"context"
	"errors"
	"strings"

	"github.com/charmbracelet/bubbles/spinner"
	"github.com/charmbracelet/bubbles/textarea"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/glamour"

	"github.com/atelierhq/atelier/internal/builder"
)

// App is the bubbletea model of the wizard.
type App struct {
	builder *builder.Builder
	snap    builder.Session

	statement    textarea.Model
	feedback     textarea.Model
	feedbackOpen bool
	form         editForm
	spin         spinner.Model
	renderer     *glamour.TermRenderer

	width  int
	height int
	acting bool

	errLine    string
	violations []string
}

// actionMsg carries the result of an orchestrator call back into Update.
type actionMsg struct {
	snap builder.Session
	err  error
}

// NewApp builds the wizard around a fresh session.
func NewApp(b *builder.Builder) *App {
	statement := textarea.New()
	statement.Placeholder = "Describe the problem you want an agent team to solve"
	statement.ShowLineNumbers = false
	statement.SetHeight(5)
	statement.Focus()

	feedback := textarea.New()
	feedback.Placeholder = "What should change?"
	feedback.ShowLineNumbers = false
	feedback.SetHeight(3)

	spin := spinner.New()
	spin.Spinner = spinner.Dot
	spin.Style = spinnerStyle

	return &App{
		builder:   b,
		snap:      b.Snapshot(),
		statement: statement,
		feedback:  feedback,
		spin:      spin,
	}
}

func (a *App) Init() tea.Cmd {
	return textarea.Blink
}

func (a *App) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		return a.handleKey(msg)

	case tea.WindowSizeMsg:
		a.width = msg.Width
		a.height = msg.Height
		w := msg.Width - 4
		if w < 20 {
			w = 20
		}
		a.statement.SetWidth(w)
		a.feedback.SetWidth(w)
		a.form.setWidth(w)
		a.renderer = nil
		return a, nil

	case spinner.TickMsg:
		if !a.acting {
			return a, nil
		}
		var cmd tea.Cmd
		a.spin, cmd = a.spin.Update(msg)
		a.snap = a.builder.Snapshot()
		return a, cmd

	case actionMsg:
		return a.handleAction(msg)
	}

	return a.updateInputs(msg)
}

func (a *App) handleAction(msg actionMsg) (tea.Model, tea.Cmd) {
	wasEditing := a.snap.EditMode
	a.acting = false
	a.snap = msg.snap

	if msg.err != nil {
		var verr *builder.ValidationError
		switch {
		case errors.As(msg.err, &verr):
			a.violations = verr.Violations
		case errors.Is(msg.err, builder.ErrBusy):
			a.errLine = "another action is still running"
		default:
			a.errLine = msg.err.Error()
		}
		return a, nil
	}

	a.errLine = ""
	a.violations = nil
	a.feedbackOpen = false
	a.feedback.Reset()
	a.feedback.Blur()

	if a.snap.EditMode && !wasEditing && a.snap.EditDraft != nil {
		var cmd tea.Cmd
		a.form, cmd = newEditForm(*a.snap.EditDraft)
		a.form.setWidth(a.width - 4)
		return a, cmd
	}
	if a.snap.Stage == builder.StageDefine && a.snap.Requirements == "" {
		a.statement.Reset()
		return a, a.statement.Focus()
	}
	return a, nil
}

func (a *App) handleKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	if msg.String() == "ctrl+c" {
		return a, tea.Quit
	}
	if a.acting {
		return a, nil
	}
	if a.snap.EditMode {
		return a.handleEditKey(msg)
	}
	if a.feedbackOpen {
		return a.handleFeedbackKey(msg)
	}
	switch a.snap.Stage {
	case builder.StageDefine:
		return a.handleDefineKey(msg)
	case builder.StageDesignReview:
		return a.handleDesignKey(msg)
	case builder.StageCraftReview:
		return a.handleCraftKey(msg)
	case builder.StageComplete:
		return a.handleCompleteKey(msg)
	}
	return a, nil
}

func (a *App) handleDefineKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "ctrl+s":
		stmt := strings.TrimSpace(a.statement.Value())
		return a, a.start(func() error {
			return a.builder.Submit(context.Background(), stmt)
		})
	default:
		var cmd tea.Cmd
		a.statement, cmd = a.statement.Update(msg)
		return a, cmd
	}
}

func (a *App) handleDesignKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "a":
		return a, a.start(func() error {
			return a.builder.Approve(context.Background())
		})
	case "r":
		a.feedbackOpen = true
		a.feedback.Reset()
		return a, a.feedback.Focus()
	case "q":
		return a, tea.Quit
	}
	return a, nil
}

func (a *App) handleCraftKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "a":
		return a, a.start(func() error {
			return a.builder.Approve(context.Background())
		})
	case "r":
		a.feedbackOpen = true
		a.feedback.Reset()
		return a, a.feedback.Focus()
	case "e":
		return a, a.start(a.builder.BeginEdit)
	case "left", "esc":
		idx := a.snap.CurrentIndex
		if idx == 0 {
			return a, a.start(a.builder.GoToDesign)
		}
		return a, a.start(func() error { return a.builder.GoToAgent(idx - 1) })
	case "right":
		idx := a.snap.CurrentIndex
		if idx+1 < len(a.snap.AgentSpecs) {
			return a, a.start(func() error { return a.builder.GoToAgent(idx + 1) })
		}
		if a.snap.Result != nil {
			return a, a.start(a.builder.GoToComplete)
		}
	case "q":
		return a, tea.Quit
	}
	return a, nil
}

func (a *App) handleCompleteKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "n":
		return a, a.start(a.builder.Reset)
	case "left", "esc":
		if n := len(a.snap.AgentSpecs); n > 0 {
			return a, a.start(func() error { return a.builder.GoToAgent(n - 1) })
		}
		return a, a.start(a.builder.GoToDesign)
	case "d":
		return a, a.start(a.builder.GoToDesign)
	case "q":
		return a, tea.Quit
	}
	return a, nil
}

func (a *App) handleFeedbackKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "ctrl+s":
		fb := strings.TrimSpace(a.feedback.Value())
		a.feedbackOpen = false
		return a, a.start(func() error {
			return a.builder.Revise(context.Background(), fb)
		})
	case "esc":
		a.feedbackOpen = false
		a.feedback.Blur()
		return a, nil
	default:
		var cmd tea.Cmd
		a.feedback, cmd = a.feedback.Update(msg)
		return a, cmd
	}
}

func (a *App) handleEditKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "ctrl+s":
		draft := a.snap.EditDraft
		if draft == nil {
			return a, nil
		}
		spec := a.form.apply(draft.Clone())
		return a, a.start(func() error {
			if err := a.builder.UpdateDraft(spec); err != nil {
				return err
			}
			return a.builder.SaveEdit()
		})
	case "esc":
		return a, a.start(a.builder.CancelEdit)
	case "tab":
		return a, a.form.focusNext()
	case "shift+tab":
		return a, a.form.focusPrev()
	default:
		var cmd tea.Cmd
		a.form, cmd = a.form.update(msg)
		return a, cmd
	}
}

// start marks an orchestrator call in flight and runs it off the UI
// goroutine. The spinner keeps ticking until the result message lands.
func (a *App) start(run func() error) tea.Cmd {
	a.acting = true
	a.errLine = ""
	a.violations = nil
	b := a.builder
	return tea.Batch(a.spin.Tick, func() tea.Msg {
		err := run()
		return actionMsg{snap: b.Snapshot(), err: err}
	})
}

// updateInputs forwards non-key messages, cursor blinks mostly, to the
// input the current view owns.
func (a *App) updateInputs(msg tea.Msg) (tea.Model, tea.Cmd) {
	var cmd tea.Cmd
	switch {
	case a.snap.EditMode:
		a.form, cmd = a.form.update(msg)
	case a.feedbackOpen:
		a.feedback, cmd = a.feedback.Update(msg)
	case a.snap.Stage == builder.StageDefine:
		a.statement, cmd = a.statement.Update(msg)
	}
	return a, cmd
}

// Run starts the wizard and blocks until the user quits.
func Run(b *builder.Builder) error {
	_, err := tea.NewProgram(NewApp(b), tea.WithAltScreen()).Run()
	return err
}
