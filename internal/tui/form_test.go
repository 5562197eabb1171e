package tui

import (
	"testing"

	"github.com/atelierhq/atelier/internal/blueprint"
)

func draftSpec() blueprint.AgentSpec {
	return blueprint.AgentSpec{
		Filename:         "company_researcher.yaml",
		Role:             blueprint.RoleSpecialist,
		Index:            1,
		Name:             "Company Researcher",
		Description:      "Researches the companies behind inbound leads.",
		ModelID:          "groq/llama-3.3-70b-versatile",
		Temperature:      0.7,
		RoleDescription:  "Researches the lead's company background",
		Goal:             "Collect company size, industry, and funding context for every inbound lead.",
		Instructions:     "Look up the company, collect the key facts, and produce a short research brief.",
		UsageDescription: "Use when a lead needs company research.",
	}
}

func TestEditFormSeedsAndApplies(t *testing.T) {
	t.Parallel()
	spec := draftSpec()
	f, _ := newEditForm(spec)

	if got := f.name.Value(); got != spec.Name {
		t.Fatalf("name seeded with %q, want %q", got, spec.Name)
	}
	if got := f.instructions.Value(); got != spec.Instructions {
		t.Fatalf("instructions seeded with %q", got)
	}

	f.name.SetValue("  Account Researcher ")
	f.goal.SetValue("Collect account context for every inbound lead before anyone scores it.")

	out := f.apply(spec.Clone())
	if out.Name != "Account Researcher" {
		t.Fatalf("applied name = %q", out.Name)
	}
	if out.Goal != "Collect account context for every inbound lead before anyone scores it." {
		t.Fatalf("applied goal = %q", out.Goal)
	}
	if out.Description != spec.Description || out.ModelID != spec.ModelID {
		t.Fatalf("non-form fields changed: %+v", out)
	}
}

func TestEditFormFocusCycles(t *testing.T) {
	t.Parallel()
	f, _ := newEditForm(draftSpec())

	if f.focus != fieldName || !f.name.Focused() {
		t.Fatalf("initial focus = %d", f.focus)
	}
	for i := 0; i < fieldCount; i++ {
		f.focusNext()
	}
	if f.focus != fieldName {
		t.Fatalf("focus after full cycle = %d, want %d", f.focus, fieldName)
	}
	f.focusPrev()
	if f.focus != fieldUsage || !f.usage.Focused() {
		t.Fatalf("focus after prev = %d, want %d", f.focus, fieldUsage)
	}
	if f.name.Focused() {
		t.Fatal("name still focused after moving away")
	}
}
