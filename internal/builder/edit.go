package builder

import (
	"fmt"

	"github.com/atelierhq/atelier/internal/blueprint"
)

// BeginEdit opens a local draft of the agent under review.
func (b *Builder) BeginEdit() error {
	if !b.opMu.TryLock() {
		return ErrBusy
	}
	defer b.opMu.Unlock()

	b.mu.Lock()
	defer b.mu.Unlock()
	if b.s.Stage != StageCraftReview {
		return fmt.Errorf("%w: editing is available during craft review", ErrStage)
	}
	if b.s.EditMode {
		return fmt.Errorf("%w: an edit is already in progress", ErrStage)
	}
	if b.s.CurrentIndex >= len(b.s.AgentSpecs) {
		return fmt.Errorf("%w: no crafted agent at index %d", ErrStage, b.s.CurrentIndex)
	}
	draft := b.s.AgentSpecs[b.s.CurrentIndex].Clone()
	b.s.EditDraft = &draft
	b.s.EditMode = true
	return nil
}

// UpdateDraft replaces the draft's editable fields. Role and index stay
// what the session assigned; the filename follows the draft's name.
func (b *Builder) UpdateDraft(draft blueprint.AgentSpec) error {
	if !b.opMu.TryLock() {
		return ErrBusy
	}
	defer b.opMu.Unlock()

	b.mu.Lock()
	defer b.mu.Unlock()
	if !b.s.EditMode || b.s.EditDraft == nil {
		return fmt.Errorf("%w: no edit in progress", ErrStage)
	}
	stored := b.s.AgentSpecs[b.s.CurrentIndex]
	draft.Role = stored.Role
	draft.Index = stored.Index
	draft.Filename = blueprint.Filename(draft.Name)
	next := draft.Clone()
	b.s.EditDraft = &next
	return nil
}

// SaveEdit commits the draft if it passes the structural agent gate. A
// failing draft is left untouched and the session stays in edit mode.
func (b *Builder) SaveEdit() error {
	if !b.opMu.TryLock() {
		return ErrBusy
	}
	defer b.opMu.Unlock()

	b.mu.Lock()
	defer b.mu.Unlock()
	if !b.s.EditMode || b.s.EditDraft == nil {
		return fmt.Errorf("%w: no edit in progress", ErrStage)
	}
	draft := b.s.EditDraft.Clone()
	draft.Filename = blueprint.Filename(draft.Name)
	if violations := blueprint.ValidateAgentSpec(draft); len(violations) > 0 {
		return &ValidationError{Violations: violations}
	}
	b.s.AgentSpecs[b.s.CurrentIndex] = draft
	b.s.EditDraft = nil
	b.s.EditMode = false
	b.s.Error = ""
	return nil
}

// CancelEdit discards the draft.
func (b *Builder) CancelEdit() error {
	if !b.opMu.TryLock() {
		return ErrBusy
	}
	defer b.opMu.Unlock()

	b.mu.Lock()
	defer b.mu.Unlock()
	if !b.s.EditMode {
		return fmt.Errorf("%w: no edit in progress", ErrStage)
	}
	b.s.EditDraft = nil
	b.s.EditMode = false
	return nil
}
