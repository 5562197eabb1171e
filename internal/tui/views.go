package tui

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/glamour"
	"github.com/charmbracelet/lipgloss"

	"github.com/atelierhq/atelier/internal/builder"
)

var (
	titleStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color("205"))

	stageStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("229")).
			Background(lipgloss.Color("57")).
			Padding(0, 1)

	labelStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("243"))

	warnStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("220"))

	errStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("196"))

	okStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("46"))

	helpStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("241"))

	spinnerStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("205"))
)

func (a *App) View() string {
	if a.acting || a.snap.Loading {
		return a.viewWorking()
	}
	if a.snap.EditMode {
		return a.viewEdit()
	}
	switch a.snap.Stage {
	case builder.StageDefine:
		return a.viewDefine()
	case builder.StageDesignReview:
		return a.viewDesignReview()
	case builder.StageCraftReview:
		return a.viewCraftReview()
	case builder.StageComplete:
		return a.viewComplete()
	case builder.StageDesigning, builder.StageCrafting, builder.StageCreating:
		return a.viewWorking()
	}
	return ""
}

func (a *App) header() string {
	return titleStyle.Render("Atelier") + "  " + stageStyle.Render(string(a.snap.Stage)) + "\n\n"
}

// notices renders the current error or gate violations, if any.
func (a *App) notices() string {
	var s string
	if len(a.violations) > 0 {
		s += errStyle.Render("the gate rejected this:") + "\n"
		for _, v := range a.violations {
			s += errStyle.Render("  • "+v) + "\n"
		}
		s += "\n"
	}
	switch {
	case a.errLine != "":
		s += errStyle.Render(a.errLine) + "\n\n"
	case a.snap.Error != "":
		s += errStyle.Render(a.snap.Error) + "\n\n"
	}
	return s
}

func (a *App) viewDefine() string {
	s := a.header()
	s += a.notices()
	s += a.statement.View() + "\n\n"
	s += helpStyle.Render("[ctrl+s] submit  [ctrl+c] quit")
	return s
}

func (a *App) viewWorking() string {
	s := a.header()
	s += a.spin.View() + " " + a.workingLabel() + "\n"
	return s
}

func (a *App) workingLabel() string {
	snap := a.snap
	switch snap.Stage {
	case builder.StageDesigning:
		return "designing the team"
	case builder.StageCrafting:
		name := ""
		if snap.Architecture != nil && snap.CurrentIndex < len(snap.Architecture.Agents) {
			name = snap.Architecture.Agents[snap.CurrentIndex].Name + " "
		}
		return fmt.Sprintf("crafting %s(%d/%d)", name, snap.CurrentIndex+1, snap.TotalAgents())
	case builder.StageCreating:
		return "creating agents on the platform"
	}
	return "working"
}

func (a *App) viewDesignReview() string {
	s := a.header()
	s += a.notices()
	if a.snap.Architecture != nil {
		s += a.markdown(architectureMarkdown(*a.snap.Architecture))
	}
	for _, w := range a.snap.Warnings {
		s += warnStyle.Render("⚠ "+w) + "\n"
	}
	if len(a.snap.Warnings) > 0 {
		s += "\n"
	}
	if a.feedbackOpen {
		s += a.feedback.View() + "\n\n"
		s += helpStyle.Render("[ctrl+s] send  [esc] cancel")
		return s
	}
	s += helpStyle.Render("[a] approve  [r] revise  [q] quit")
	return s
}

func (a *App) viewCraftReview() string {
	s := a.header()
	s += a.notices()
	snap := a.snap
	if snap.CurrentIndex < len(snap.AgentSpecs) {
		spec := snap.AgentSpecs[snap.CurrentIndex]
		s += a.markdown(specMarkdown(spec, snap.CurrentIndex+1, snap.TotalAgents()))
	}
	if a.feedbackOpen {
		s += a.feedback.View() + "\n\n"
		s += helpStyle.Render("[ctrl+s] send  [esc] cancel")
		return s
	}
	s += helpStyle.Render("[a] approve  [r] revise  [e] edit  [←/→] browse  [q] quit")
	return s
}

func (a *App) viewEdit() string {
	s := a.header()
	s += a.notices()
	s += a.form.view()
	s += "\n" + helpStyle.Render("[tab] next field  [ctrl+s] save  [esc] cancel")
	return s
}

func (a *App) viewComplete() string {
	s := a.header()
	s += a.notices()
	res := a.snap.Result
	if res == nil {
		return s + "No build result.\n"
	}
	s += okStyle.Render("✓ blueprint created") + "\n\n"
	s += labelStyle.Render("Blueprint:   ") + res.BlueprintID + "\n"
	s += labelStyle.Render("Coordinator: ") + res.CoordinatorID + "\n"
	for i, id := range res.SpecialistIDs {
		name := ""
		if i+1 < len(a.snap.AgentSpecs) {
			name = a.snap.AgentSpecs[i+1].Name + " "
		}
		s += labelStyle.Render(fmt.Sprintf("Specialist %d: ", i+1)) + name + "(" + id + ")" + "\n"
	}
	s += "\n" + labelStyle.Render("Export it with: ") + "atelier export last\n"
	s += "\n" + helpStyle.Render("[n] new build  [←] review agents  [d] design  [q] quit")
	return s
}

// markdown renders through glamour, falling back to the raw text when the
// renderer is unavailable.
func (a *App) markdown(md string) string {
	if a.renderer == nil {
		w := a.width - 2
		if w < 20 {
			w = 78
		}
		r, err := glamour.NewTermRenderer(glamour.WithAutoStyle(), glamour.WithWordWrap(w))
		if err != nil {
			return md + "\n"
		}
		a.renderer = r
	}
	out, err := a.renderer.Render(md)
	if err != nil {
		return md + "\n"
	}
	return strings.TrimLeft(out, "\n") + "\n"
}
