package scan

import (
	"ticket-gate/common/errs"
	"ticket-gate/model"
)

// Phase is the single tagged workflow state. Exactly one phase holds at a
// time; the ad-hoc fetching/validating/validated booleans of older gate
// builds are unrepresentable here.
type Phase int

const (
	PhaseScanning Phase = iota
	PhaseFetching
	PhaseReviewing
	PhaseValidating
	PhaseValidated
	PhaseConflict
	PhaseFailed
)

func (p Phase) String() string {
	switch p {
	case PhaseScanning:
		return "scanning"
	case PhaseFetching:
		return "fetching"
	case PhaseReviewing:
		return "reviewing"
	case PhaseValidating:
		return "validating"
	case PhaseValidated:
		return "validated"
	case PhaseConflict:
		return "conflict"
	case PhaseFailed:
		return "failed"
	}

	return "unknown"
}

// Policy selects the operating variant of a gate.
type Policy struct {
	// RequiresLookup inserts the lookup/review step between decode and
	// validation (scan-then-confirm). Without it a decode validates
	// directly.
	RequiresLookup bool

	// ConflictDisplay renders a 409 validation response as the reviewed
	// ticket instead of a failure page (direct-validate gates).
	ConflictDisplay bool
}

var (
	PolicyScanConfirm    = Policy{RequiresLookup: true}
	PolicyDirectValidate = Policy{ConflictDisplay: true}
)

// Snapshot is the controller's render state, the single source of truth for
// whatever surface displays the workflow.
type Snapshot struct {
	Phase        Phase
	Ticket       *model.TicketInfo
	Err          *errs.ScanError
	ManualEntry  string
	SeenRecently bool
}

// CanValidate reports whether the validate affordance may be offered.
func (s Snapshot) CanValidate() bool {
	return s.Phase == PhaseReviewing && s.Ticket.CanValidate()
}
