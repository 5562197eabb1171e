package tui

import (
	"fmt"
	"strings"

	"github.com/atelierhq/atelier/internal/blueprint"
)

// architectureMarkdown renders a proposal for the design review screen.
func architectureMarkdown(p blueprint.ArchitectureProposal) string {
	var b strings.Builder
	b.WriteString("# Proposed team\n\n")
	if r := strings.TrimSpace(p.Reasoning); r != "" {
		b.WriteString(r + "\n\n")
	}
	for i, agent := range p.Agents {
		role := string(blueprint.RoleSpecialist)
		if i == 0 {
			role = string(blueprint.RoleCoordinator)
		}
		fmt.Fprintf(&b, "## %d. %s\n\n", i+1, agent.Name)
		fmt.Fprintf(&b, "`%s`\n\n", role)
		fmt.Fprintf(&b, "**Role:** %s\n\n", agent.RoleDescription)
		fmt.Fprintf(&b, "**Goal:** %s\n\n", agent.Goal)
	}
	return b.String()
}

// specMarkdown renders one crafted specification for the craft review
// screen. position is 1-based.
func specMarkdown(spec blueprint.AgentSpec, position, total int) string {
	var b strings.Builder
	fmt.Fprintf(&b, "# %s (%d/%d)\n\n", spec.Name, position, total)
	fmt.Fprintf(&b, "`%s` · `%s`\n\n", spec.Role, spec.Filename)
	if spec.Description != "" {
		b.WriteString(spec.Description + "\n\n")
	}
	fmt.Fprintf(&b, "**Model:** %s (temperature %.1f)\n\n", spec.ModelID, spec.Temperature)
	fmt.Fprintf(&b, "## Role\n\n%s\n\n", spec.RoleDescription)
	fmt.Fprintf(&b, "## Goal\n\n%s\n\n", spec.Goal)
	fmt.Fprintf(&b, "## Instructions\n\n%s\n\n", spec.Instructions)
	if spec.UsageDescription != "" {
		fmt.Fprintf(&b, "## Usage\n\n%s\n\n", spec.UsageDescription)
	}
	if len(spec.FeatureFlags) > 0 {
		fmt.Fprintf(&b, "**Features:** %s\n\n", strings.Join(spec.FeatureFlags, ", "))
	}
	if len(spec.SubAgentFilenames) > 0 {
		b.WriteString("## Sub-agents\n\n")
		for _, fn := range spec.SubAgentFilenames {
			fmt.Fprintf(&b, "- `%s`\n", fn)
		}
		b.WriteString("\n")
	}
	return b.String()
}
