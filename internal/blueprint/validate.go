package blueprint

import (
	"fmt"
	"strings"
	"unicode/utf8"
)

const (
	nameMaxLen           = 100
	descriptionMinLen    = 20
	roleDescMinLen       = 15
	roleDescMaxLen       = 80
	goalMinLen           = 50
	goalMaxLen           = 300
	instructionsMinLen   = 50
	instructionsMinWords = 10
	usageMinLen          = 20
)

// ValidateArchitecture inspects an architecture proposal and returns
// warnings for structural defects. Warnings are advisory: the caller logs
// them and proceeds with whatever structure is usable.
func ValidateArchitecture(p ArchitectureProposal) []string {
	if len(p.Agents) == 0 {
		return []string{"proposal contains no agents"}
	}
	var warns []string
	if strings.TrimSpace(p.Reasoning) == "" {
		warns = append(warns, "proposal has no reasoning")
	}
	for i, a := range p.Agents {
		label := outlineLabel(i, a.Name)
		if strings.TrimSpace(a.Name) == "" {
			warns = append(warns, label+": name is empty")
		}
		if strings.TrimSpace(a.RoleDescription) == "" {
			warns = append(warns, label+": role_description is empty")
		}
		if strings.TrimSpace(a.Goal) == "" {
			warns = append(warns, label+": goal is empty")
		}
	}
	return warns
}

// ValidateAgentSpec checks every per-field constraint of a single agent
// specification and returns the violations. An empty result means the spec
// passed the gate.
func ValidateAgentSpec(s AgentSpec) []string {
	var violations []string
	switch s.Role {
	case RoleCoordinator, RoleSpecialist:
	default:
		violations = append(violations, fmt.Sprintf("role must be %q or %q", RoleCoordinator, RoleSpecialist))
	}
	violations = append(violations, lengthViolations(s)...)
	if term, found := genericRoleTerm(s.RoleDescription); found {
		violations = append(violations, fmt.Sprintf("role_description contains generic term %q", term))
	}
	if s.Temperature < 0 || s.Temperature > 1 {
		violations = append(violations, "temperature must be between 0 and 1")
	}
	if s.Role == RoleSpecialist && len(s.SubAgentFilenames) > 0 {
		violations = append(violations, "sub_agent_filenames must be empty for a specialist")
	}
	return violations
}

// ValidateBlueprint checks the assembled blueprint request. This is the
// strictest gate and the last checkpoint before any remote agent is
// created, so it rechecks every agent and the hierarchy cross-references.
func ValidateBlueprint(req BlueprintRequest) []string {
	var violations []string
	if req.Coordinator.Role != RoleCoordinator {
		violations = append(violations, "coordinator role must be coordinator")
	}
	for _, v := range ValidateAgentSpec(req.Coordinator) {
		violations = append(violations, "coordinator: "+v)
	}

	seen := make(map[string]int, len(req.Specialists))
	wantRefs := make([]string, len(req.Specialists))
	for i, s := range req.Specialists {
		label := outlineLabel(i+1, s.Name)
		if s.Role != RoleSpecialist {
			violations = append(violations, label+": role must be specialist")
		}
		for _, v := range ValidateAgentSpec(s) {
			violations = append(violations, label+": "+v)
		}
		if s.Filename == "" {
			violations = append(violations, label+": filename is empty")
		}
		if prev, dup := seen[s.Filename]; dup && s.Filename != "" {
			violations = append(violations, fmt.Sprintf("%s: filename %q duplicates %s", label, s.Filename, outlineLabel(prev+1, req.Specialists[prev].Name)))
		} else {
			seen[s.Filename] = i
		}
		wantRefs[i] = s.Filename
	}

	// The reference check is set-based: order does not matter, but the
	// coordinator must name every specialist and nothing else.
	refs := make(map[string]bool, len(req.Coordinator.SubAgentFilenames))
	for _, ref := range req.Coordinator.SubAgentFilenames {
		refs[ref] = true
	}
	if len(req.Coordinator.SubAgentFilenames) != len(wantRefs) {
		violations = append(violations, fmt.Sprintf("coordinator references %d sub-agents, blueprint has %d specialists", len(req.Coordinator.SubAgentFilenames), len(wantRefs)))
	}
	for _, want := range wantRefs {
		if !refs[want] {
			violations = append(violations, fmt.Sprintf("coordinator does not reference specialist %q", want))
		}
	}
	for _, ref := range req.Coordinator.SubAgentFilenames {
		if _, ok := seen[ref]; !ok {
			violations = append(violations, fmt.Sprintf("coordinator references %q, which is not a specialist filename", ref))
		}
	}

	if want := PatternFor(len(req.Specialists)); req.Pattern != want {
		violations = append(violations, fmt.Sprintf("pattern must be %q for %d specialists", want, len(req.Specialists)))
	}
	return violations
}

// lengthViolations checks the hard size constraints shared by the agent
// gate and the quality check.
func lengthViolations(s AgentSpec) []string {
	var violations []string
	if n := charLen(s.Name); n < 1 || n > nameMaxLen {
		violations = append(violations, fmt.Sprintf("name must be 1-%d characters", nameMaxLen))
	}
	if charLen(s.Description) < descriptionMinLen {
		violations = append(violations, fmt.Sprintf("description must be at least %d characters", descriptionMinLen))
	}
	if n := charLen(s.RoleDescription); n < roleDescMinLen || n > roleDescMaxLen {
		violations = append(violations, fmt.Sprintf("role_description must be %d-%d characters", roleDescMinLen, roleDescMaxLen))
	}
	if n := charLen(s.Goal); n < goalMinLen || n > goalMaxLen {
		violations = append(violations, fmt.Sprintf("goal must be %d-%d characters", goalMinLen, goalMaxLen))
	}
	if charLen(s.Instructions) < instructionsMinLen {
		violations = append(violations, fmt.Sprintf("instructions must be at least %d characters", instructionsMinLen))
	}
	if len(strings.Fields(s.Instructions)) < instructionsMinWords {
		violations = append(violations, fmt.Sprintf("instructions must be at least %d words", instructionsMinWords))
	}
	if s.Role == RoleSpecialist && charLen(s.UsageDescription) < usageMinLen {
		violations = append(violations, fmt.Sprintf("usage_description must be at least %d characters", usageMinLen))
	}
	return violations
}

func charLen(s string) int {
	return utf8.RuneCountInString(s)
}

func outlineLabel(index int, name string) string {
	pos := "coordinator"
	if index > 0 {
		pos = fmt.Sprintf("specialist %d", index)
	}
	name = strings.TrimSpace(name)
	if name == "" {
		return pos
	}
	return fmt.Sprintf("%s (%s)", pos, name)
}
