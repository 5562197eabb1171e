package builder

import (
	"github.com/atelierhq/atelier/internal/blueprint"
)

// Stage is the session's position in the build flow.
type Stage string

const (
	StageDefine       Stage = "define"
	StageDesigning    Stage = "designing"
	StageDesignReview Stage = "design_review"
	StageCrafting     Stage = "crafting"
	StageCraftReview  Stage = "craft_review"
	StageCreating     Stage = "creating"
	StageComplete     Stage = "complete"
)

// Session is one build's full state. It is owned by its Builder and only
// observed from outside through Snapshot copies.
type Session struct {
	ID           string                          `json:"id"`
	Stage        Stage                           `json:"stage"`
	Loading      bool                            `json:"loading"`
	EditMode     bool                            `json:"edit_mode"`
	Error        string                          `json:"error,omitempty"`
	Warnings     []string                        `json:"warnings,omitempty"`
	Requirements string                          `json:"requirements,omitempty"`
	Architecture *blueprint.ArchitectureProposal `json:"architecture,omitempty"`
	AgentSpecs   []blueprint.AgentSpec           `json:"agent_specs,omitempty"`
	CurrentIndex int                             `json:"current_agent_index"`
	EditDraft    *blueprint.AgentSpec            `json:"edit_draft,omitempty"`
	Result       *blueprint.BuildResult          `json:"result,omitempty"`
}

// TotalAgents is the size of the proposed team, zero before a proposal
// exists.
func (s Session) TotalAgents() int {
	if s.Architecture == nil {
		return 0
	}
	return len(s.Architecture.Agents)
}

// Clone returns a deep copy safe to hand outside the Builder.
func (s Session) Clone() Session {
	out := s
	if s.Architecture != nil {
		arch := *s.Architecture
		arch.Agents = append([]blueprint.AgentOutline(nil), s.Architecture.Agents...)
		out.Architecture = &arch
	}
	if s.AgentSpecs != nil {
		out.AgentSpecs = make([]blueprint.AgentSpec, len(s.AgentSpecs))
		for i, spec := range s.AgentSpecs {
			out.AgentSpecs[i] = spec.Clone()
		}
	}
	if s.EditDraft != nil {
		draft := s.EditDraft.Clone()
		out.EditDraft = &draft
	}
	if s.Result != nil {
		res := *s.Result
		res.SpecialistIDs = append([]string(nil), s.Result.SpecialistIDs...)
		out.Result = &res
	}
	out.Warnings = append([]string(nil), s.Warnings...)
	return out
}
