package generate

import (
	"strings"
	"testing"

	"github.com/atelierhq/atelier/internal/blueprint"
	"github.com/atelierhq/atelier/internal/config"
)

func TestBuildCraftPrompt_CoordinatorListsSpecialists(t *testing.T) {
	t.Parallel()
	prompt := buildCraftPrompt(blueprint.CraftRequest{
		AgentName:       "Intake Coordinator",
		IsCoordinator:   true,
		SpecialistNames: []string{"Research Analyst", "Report Writer"},
	})
	if !strings.Contains(prompt, "coordinator") {
		t.Fatalf("prompt does not mention the coordinator role:\n%s", prompt)
	}
	if !strings.Contains(prompt, "Research Analyst, Report Writer") {
		t.Fatalf("prompt does not list specialists:\n%s", prompt)
	}
	if strings.Contains(prompt, "usage_description: at least 20") {
		t.Fatalf("coordinator prompt should not require usage_description:\n%s", prompt)
	}
}

func TestBuildCraftPrompt_SpecialistRequiresUsage(t *testing.T) {
	t.Parallel()
	prompt := buildCraftPrompt(blueprint.CraftRequest{
		AgentName:     "Research Analyst",
		IsCoordinator: false,
	})
	if !strings.Contains(prompt, "specialist") {
		t.Fatalf("prompt does not mention the specialist role:\n%s", prompt)
	}
	if !strings.Contains(prompt, "usage_description: at least 20") {
		t.Fatalf("specialist prompt should require usage_description:\n%s", prompt)
	}
}

func TestNew_RejectsUnknownType(t *testing.T) {
	t.Parallel()
	cfg := config.Config{Generator: config.GeneratorConfig{Type: "carrier-pigeon"}}
	if _, err := New(cfg, t.TempDir()); err == nil {
		t.Fatal("New accepted an unknown generator type")
	}
}

func TestNewExecGenerator_RequiresCmd(t *testing.T) {
	t.Parallel()
	if _, err := NewExecGenerator(t.TempDir(), config.GeneratorConfig{Type: config.GeneratorExec}, config.AgentDefaults{}); err == nil {
		t.Fatal("NewExecGenerator accepted an empty cmd")
	}
}

func TestNewStudioGenerator_RequiresAgentID(t *testing.T) {
	t.Parallel()
	if _, err := NewStudioGenerator(nil, config.GeneratorConfig{Type: config.GeneratorStudio}, config.AgentDefaults{}); err == nil {
		t.Fatal("NewStudioGenerator accepted an empty agent_id")
	}
}

func TestTaskMessage_WrapsRequest(t *testing.T) {
	t.Parallel()
	msg, err := taskMessage("architect", blueprint.ArchitectureRequest{Requirements: "triage support tickets"})
	if err != nil {
		t.Fatalf("taskMessage returned error: %v", err)
	}
	if !strings.Contains(msg, `"task":"architect"`) {
		t.Fatalf("message missing task field: %s", msg)
	}
	if !strings.Contains(msg, "triage support tickets") {
		t.Fatalf("message missing request payload: %s", msg)
	}
}
