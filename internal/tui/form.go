package tui

import (
	"strings"

	"github.com/charmbracelet/bubbles/textarea"
	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"

	"github.com/atelierhq/atelier/internal/blueprint"
)

const (
	fieldName = iota
	fieldRole
	fieldGoal
	fieldInstructions
	fieldUsage
	fieldCount
)

// editForm edits the fields of the agent under review that the structural
// gate checks. The remaining spec fields ride along unchanged.
type editForm struct {
	name         textinput.Model
	role         textinput.Model
	goal         textarea.Model
	instructions textarea.Model
	usage        textinput.Model
	focus        int
}

func newEditForm(spec blueprint.AgentSpec) (editForm, tea.Cmd) {
	name := textinput.New()
	name.CharLimit = 100
	name.SetValue(spec.Name)

	role := textinput.New()
	role.CharLimit = 80
	role.SetValue(spec.RoleDescription)

	goal := textarea.New()
	goal.ShowLineNumbers = false
	goal.CharLimit = 300
	goal.SetHeight(3)
	goal.SetValue(spec.Goal)

	instructions := textarea.New()
	instructions.ShowLineNumbers = false
	instructions.SetHeight(6)
	instructions.SetValue(spec.Instructions)

	usage := textinput.New()
	usage.SetValue(spec.UsageDescription)

	f := editForm{
		name:         name,
		role:         role,
		goal:         goal,
		instructions: instructions,
		usage:        usage,
	}
	cmd := f.focusField(fieldName)
	return f, cmd
}

// apply writes the form values onto the draft.
func (f editForm) apply(spec blueprint.AgentSpec) blueprint.AgentSpec {
	spec.Name = strings.TrimSpace(f.name.Value())
	spec.RoleDescription = strings.TrimSpace(f.role.Value())
	spec.Goal = strings.TrimSpace(f.goal.Value())
	spec.Instructions = strings.TrimSpace(f.instructions.Value())
	spec.UsageDescription = strings.TrimSpace(f.usage.Value())
	return spec
}

func (f *editForm) setWidth(w int) {
	if w < 20 {
		w = 20
	}
	f.name.Width = w
	f.role.Width = w
	f.goal.SetWidth(w)
	f.instructions.SetWidth(w)
	f.usage.Width = w
}

func (f *editForm) focusNext() tea.Cmd {
	return f.focusField((f.focus + 1) % fieldCount)
}

func (f *editForm) focusPrev() tea.Cmd {
	return f.focusField((f.focus + fieldCount - 1) % fieldCount)
}

func (f *editForm) focusField(i int) tea.Cmd {
	f.name.Blur()
	f.role.Blur()
	f.goal.Blur()
	f.instructions.Blur()
	f.usage.Blur()
	f.focus = i
	switch i {
	case fieldName:
		return f.name.Focus()
	case fieldRole:
		return f.role.Focus()
	case fieldGoal:
		return f.goal.Focus()
	case fieldInstructions:
		return f.instructions.Focus()
	case fieldUsage:
		return f.usage.Focus()
	}
	return nil
}

func (f editForm) update(msg tea.Msg) (editForm, tea.Cmd) {
	var cmd tea.Cmd
	switch f.focus {
	case fieldName:
		f.name, cmd = f.name.Update(msg)
	case fieldRole:
		f.role, cmd = f.role.Update(msg)
	case fieldGoal:
		f.goal, cmd = f.goal.Update(msg)
	case fieldInstructions:
		f.instructions, cmd = f.instructions.Update(msg)
	case fieldUsage:
		f.usage, cmd = f.usage.Update(msg)
	}
	return f, cmd
}

func (f editForm) view() string {
	var s strings.Builder
	s.WriteString(labelStyle.Render("Name") + "\n")
	s.WriteString(f.name.View() + "\n\n")
	s.WriteString(labelStyle.Render("Role description") + "\n")
	s.WriteString(f.role.View() + "\n\n")
	s.WriteString(labelStyle.Render("Goal") + "\n")
	s.WriteString(f.goal.View() + "\n\n")
	s.WriteString(labelStyle.Render("Instructions") + "\n")
	s.WriteString(f.instructions.View() + "\n\n")
	s.WriteString(labelStyle.Render("Usage description") + "\n")
	s.WriteString(f.usage.View() + "\n")
	return s.String()
}
