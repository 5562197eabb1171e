// Package blueprint defines the multi-agent blueprint domain model: the
// architecture proposal, the elaborated agent specification, the assembled
// blueprint request, and the validation gates applied at stage boundaries.
package blueprint

import (
	"strings"
)

// Role distinguishes the single coordinator from its specialists.
type Role string

const (
	RoleCoordinator Role = "coordinator"
	RoleSpecialist  Role = "specialist"
)

// IsCoordinator reports whether the role is the coordinator role. Wire
// formats carry this as a boolean; internally the tagged Role is canonical.
func (r Role) IsCoordinator() bool {
	return r == RoleCoordinator
}

// RoleFor converts the wire-level coordinator flag to a Role.
func RoleFor(isCoordinator bool) Role {
	if isCoordinator {
		return RoleCoordinator
	}
	return RoleSpecialist
}

// Pattern describes the shape of a blueprint.
type Pattern string

const (
	PatternSingleAgent  Pattern = "single_agent"
	PatternHierarchical Pattern = "hierarchical"
)

// PatternFor returns the pattern implied by the specialist count.
func PatternFor(specialists int) Pattern {
	if specialists == 0 {
		return PatternSingleAgent
	}
	return PatternHierarchical
}

// AgentOutline is one agent as sketched by the architecture proposal.
type AgentOutline struct {
	Name            string `json:"name"`
	RoleDescription string `json:"role_description"`
	Goal            string `json:"goal"`
}

// ArchitectureProposal is the proposed agent hierarchy for a problem
// statement. Agents are positional: element 0 is the coordinator, the
// remainder are specialists in creation order.
type ArchitectureProposal struct {
	Reasoning string         `json:"reasoning"`
	Agents    []AgentOutline `json:"agents"`
}

// Coordinator returns the coordinator outline, if the proposal has one.
func (p ArchitectureProposal) Coordinator() (AgentOutline, bool) {
	if len(p.Agents) == 0 {
		return AgentOutline{}, false
	}
	return p.Agents[0], true
}

// Specialists returns the specialist outlines in order.
func (p ArchitectureProposal) Specialists() []AgentOutline {
	if len(p.Agents) <= 1 {
		return nil
	}
	return p.Agents[1:]
}

// SpecialistFilenames returns the derived filename for every specialist,
// preserving order.
func (p ArchitectureProposal) SpecialistFilenames() []string {
	specs := p.Specialists()
	if len(specs) == 0 {
		return nil
	}
	names := make([]string, len(specs))
	for i, a := range specs {
		names[i] = Filename(a.Name)
	}
	return names
}

// AgentSpec is the fully elaborated specification of one agent.
type AgentSpec struct {
	Filename          string   `json:"filename"`
	Role              Role     `json:"role"`
	Index             int      `json:"index"`
	Name              string   `json:"name"`
	Description       string   `json:"description"`
	ModelID           string   `json:"model_id"`
	Temperature       float64  `json:"temperature"`
	RoleDescription   string   `json:"role_description"`
	Goal              string   `json:"goal"`
	Instructions      string   `json:"instructions"`
	UsageDescription  string   `json:"usage_description,omitempty"`
	FeatureFlags      []string `json:"feature_flags,omitempty"`
	SubAgentFilenames []string `json:"sub_agent_filenames"`
}

// Clone returns a deep copy, used for edit drafts so draft mutation never
// touches the stored spec.
func (s AgentSpec) Clone() AgentSpec {
	out := s
	out.FeatureFlags = append([]string(nil), s.FeatureFlags...)
	out.SubAgentFilenames = append([]string(nil), s.SubAgentFilenames...)
	return out
}

// BlueprintRequest is the assembled hierarchy handed to the creation
// sequence after passing the blueprint gate.
type BlueprintRequest struct {
	SessionID   string      `json:"session_id"`
	Coordinator AgentSpec   `json:"coordinator"`
	Specialists []AgentSpec `json:"specialists"`
	Pattern     Pattern     `json:"pattern"`
}

// BuildResult identifies everything created remotely for one blueprint.
// SpecialistIDs preserves the specialists' order.
type BuildResult struct {
	BlueprintID   string   `json:"blueprint_id"`
	CoordinatorID string   `json:"coordinator_id"`
	SpecialistIDs []string `json:"specialist_ids"`
}

// ArchitectureRequest is the input to the architecture generation call.
type ArchitectureRequest struct {
	Requirements string `json:"requirements"`
	SessionID    string `json:"session_id,omitempty"`
}

// ArchitectureResult is the output of the architecture generation call.
type ArchitectureResult struct {
	SessionID string               `json:"session_id"`
	Proposal  ArchitectureProposal `json:"proposal"`
}

// CraftRequest is the input to the single-agent elaboration call. A
// rejected attempt is retried with the request unchanged.
type CraftRequest struct {
	SessionID       string   `json:"session_id"`
	AgentName       string   `json:"agent_name"`
	AgentPurpose    string   `json:"agent_purpose"`
	IsCoordinator   bool     `json:"is_coordinator"`
	AgentIndex      int      `json:"agent_index"`
	Context         string   `json:"context"`
	SpecialistNames []string `json:"specialist_names,omitempty"`
}

// CraftResult is the output of the single-agent elaboration call.
type CraftResult struct {
	SessionID string    `json:"session_id"`
	Spec      AgentSpec `json:"agent_spec"`
}

// RecordRequest describes the blueprint record created after all agents
// exist remotely.
type RecordRequest struct {
	Name          string            `json:"name"`
	Description   string            `json:"description"`
	CoordinatorID string            `json:"coordinator_id"`
	SpecialistIDs []string          `json:"specialist_ids"`
	GraphMetadata map[string]string `json:"graph_metadata,omitempty"`
}

// Filename derives the stable artifact filename for an agent name:
// lowercased, runs of non-alphanumerics collapsed to single underscores,
// with a .yaml suffix. The same derivation is used everywhere a specialist
// filename set is compared, so cross-references cannot drift on case or
// punctuation.
func Filename(name string) string {
	var b strings.Builder
	pendingSep := false
	for _, r := range strings.ToLower(strings.TrimSpace(name)) {
		isAlnum := (r >= 'a' && r <= 'z') || (r >= '0' && r <= '9')
		if !isAlnum {
			pendingSep = b.Len() > 0
			continue
		}
		if pendingSep {
			b.WriteByte('_')
			pendingSep = false
		}
		b.WriteRune(r)
	}
	slug := b.String()
	if slug == "" {
		slug = "agent"
	}
	return slug + ".yaml"
}
