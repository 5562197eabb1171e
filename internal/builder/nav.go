package builder

import "fmt"

// GoToDesign returns the session to design review. Crafted agents and any
// build result stay intact.
func (b *Builder) GoToDesign() error {
	if !b.opMu.TryLock() {
		return ErrBusy
	}
	defer b.opMu.Unlock()

	b.mu.Lock()
	defer b.mu.Unlock()
	if b.s.EditMode {
		return fmt.Errorf("%w: save or cancel the edit first", ErrStage)
	}
	if b.s.Architecture == nil {
		return fmt.Errorf("%w: no architecture to review", ErrStage)
	}
	b.s.Stage = StageDesignReview
	b.s.Error = ""
	return nil
}

// GoToAgent returns the session to craft review at an already crafted
// index.
func (b *Builder) GoToAgent(index int) error {
	if !b.opMu.TryLock() {
		return ErrBusy
	}
	defer b.opMu.Unlock()

	b.mu.Lock()
	defer b.mu.Unlock()
	if b.s.EditMode {
		return fmt.Errorf("%w: save or cancel the edit first", ErrStage)
	}
	if index < 0 || index >= len(b.s.AgentSpecs) {
		return fmt.Errorf("%w: agent %d is not crafted yet", ErrStage, index)
	}
	b.s.Stage = StageCraftReview
	b.s.CurrentIndex = index
	b.s.Error = ""
	return nil
}

// GoToComplete returns the session to the completed view of an existing
// build result.
func (b *Builder) GoToComplete() error {
	if !b.opMu.TryLock() {
		return ErrBusy
	}
	defer b.opMu.Unlock()

	b.mu.Lock()
	defer b.mu.Unlock()
	if b.s.EditMode {
		return fmt.Errorf("%w: save or cancel the edit first", ErrStage)
	}
	if b.s.Result == nil {
		return fmt.Errorf("%w: no completed build", ErrStage)
	}
	b.s.Stage = StageComplete
	b.s.Error = ""
	return nil
}
