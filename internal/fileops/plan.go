package fileops

import "fmt"

// Move is one source-to-destination copy inside a plan.
type Move struct {
	Src string
	Dst string
}

// Plan is an ordered set of moves for one logical operation. Each move is
// individually atomic via CopyInto.
type Plan struct {
	Moves     []Move
	Overwrite bool
}

// PlanError reports a plan that stopped partway. Promoted counts the moves
// that completed before the failure; those files stay in place.
type PlanError struct {
	Failed   Move
	Promoted int
	Total    int
	Err      error
}

func (e *PlanError) Error() string {
	return fmt.Sprintf("transaction stopped at %s (%d of %d promoted): %v",
		e.Failed.Dst, e.Promoted, e.Total, e.Err)
}

func (e *PlanError) Unwrap() error { return e.Err }

// Apply promotes every move in order. On failure it stops and returns a
// *PlanError; already-promoted destinations are intentionally kept (rerunning
// with overwrite enabled is the recovery path).
func (p *Plan) Apply() error {
	for i, move := range p.Moves {
		if err := CopyInto(move.Src, move.Dst, p.Overwrite); err != nil {
			return &PlanError{Failed: move, Promoted: i, Total: len(p.Moves), Err: err}
		}
	}
	return nil
}
