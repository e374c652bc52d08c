package policy

import (
	"fmt"

	"github.com/jonathan/applytrack/internal/types"
)

// OnlyVersionError indicates an attempt to delete a master's last version.
type OnlyVersionError struct {
	Kind types.DocumentKind
}

func (e *OnlyVersionError) Error() string {
	return fmt.Sprintf("cannot delete the only version of a %s", e.Kind)
}

// ReferencedError indicates the target is held by one or more applications
// through a required reference slot.
type ReferencedError struct {
	Blockers []types.ApplicationRef
}

func (e *ReferencedError) Error() string {
	// Blockers may be empty when the rejection comes from the storage
	// layer's constraint rather than a policy evaluation.
	if len(e.Blockers) == 0 {
		return "cannot delete: referenced by existing applications"
	}
	return fmt.Sprintf("cannot delete: used by %d application(s)", len(e.Blockers))
}

// OwnedError indicates a direct deletion attempt on a version owned by an
// application's customized slot. The owning application must be deleted
// instead.
type OwnedError struct {
	Blockers []types.ApplicationRef
}

func (e *OwnedError) Error() string {
	return fmt.Sprintf("version belongs to %d application(s); delete the application to remove it", len(e.Blockers))
}

// Err converts a rejecting decision into its typed error. Allowed decisions
// return nil.
func (d Decision) Err(kind types.DocumentKind) error {
	if d.Outcome != Reject {
		return nil
	}
	switch d.Reason {
	case ReasonOnlyVersion:
		return &OnlyVersionError{Kind: kind}
	case ReasonReferenced:
		return &ReferencedError{Blockers: d.Blockers}
	case ReasonOwned:
		return &OwnedError{Blockers: d.Blockers}
	default:
		return fmt.Errorf("deletion rejected: %s", d.Reason)
	}
}
