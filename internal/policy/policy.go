// Package policy implements the deletion policy engine for documents,
// versions, and applications. Decisions are computed from explicit reference
// snapshots rather than database constraint violations, so the rules stay
// testable independent of any storage engine and rejections can name the
// applications that block them.
package policy

import (
	"github.com/google/uuid"

	"github.com/jonathan/applytrack/internal/types"
)

// Outcome is the verdict for a deletion request.
type Outcome int

const (
	// Proceed allows the deletion with no side effects beyond the target.
	Proceed Outcome = iota
	// Cascade allows the deletion and names additional rows that go with it.
	Cascade
	// Reject blocks the deletion; Reason and Blockers explain why.
	Reject
)

// String returns the outcome name.
func (o Outcome) String() string {
	switch o {
	case Proceed:
		return "proceed"
	case Cascade:
		return "cascade"
	case Reject:
		return "reject"
	default:
		return "unknown"
	}
}

// Reason is a machine-readable rejection code.
type Reason string

const (
	// ReasonOnlyVersion: the target is the last remaining version of its
	// master. Only deleting the master can remove it.
	ReasonOnlyVersion Reason = "ONLY_VERSION"
	// ReasonReferenced: one or more applications hold a required reference
	// to the target.
	ReasonReferenced Reason = "REFERENCED_BY_APPLICATIONS"
	// ReasonOwned: the target is a customized version owned by an
	// application; it can only be removed by deleting that application.
	ReasonOwned Reason = "OWNED_BY_APPLICATION"
)

// Decision is the result of evaluating a deletion request.
type Decision struct {
	Outcome  Outcome
	Reason   Reason
	Blockers []types.ApplicationRef
	// CascadeVersionIDs lists versions that are deleted together with the
	// target when Outcome is Cascade.
	CascadeVersionIDs []uuid.UUID
}

// Allowed reports whether the deletion may be executed.
func (d Decision) Allowed() bool {
	return d.Outcome != Reject
}

// ForVersion decides whether a single version may be deleted directly.
// refs must cover every application column referencing the version;
// lastVersion reports whether the version is the only one under its master.
func ForVersion(refs []types.ApplicationRef, lastVersion bool) Decision {
	var required, owned []types.ApplicationRef
	for _, r := range refs {
		switch {
		case r.Kind.Required():
			required = append(required, r)
		case r.Kind.Owned():
			owned = append(owned, r)
		}
	}

	if len(required) > 0 {
		return Decision{Outcome: Reject, Reason: ReasonReferenced, Blockers: Dedupe(required)}
	}
	if len(owned) > 0 {
		// Owned versions are removed only through their application's
		// cascade, never by direct user action.
		return Decision{Outcome: Reject, Reason: ReasonOwned, Blockers: Dedupe(owned)}
	}
	if lastVersion {
		return Decision{Outcome: Reject, Reason: ReasonOnlyVersion}
	}
	return Decision{Outcome: Proceed}
}

// ForMaster decides whether a master and all of its versions may be deleted.
// refs must cover every application reference to every version under the
// master. Only required references block; owned references ride the cascade
// (their applications keep running with the customized slot cleared).
func ForMaster(refs []types.ApplicationRef, versionIDs []uuid.UUID) Decision {
	var required []types.ApplicationRef
	for _, r := range refs {
		if r.Kind.Required() {
			required = append(required, r)
		}
	}
	if len(required) > 0 {
		return Decision{Outcome: Reject, Reason: ReasonReferenced, Blockers: Dedupe(required)}
	}
	return Decision{Outcome: Cascade, CascadeVersionIDs: versionIDs}
}

// ForApplication decides the cascade set for deleting an application.
// Application deletion always succeeds; customized versions it owns are
// deleted with it while required references are left untouched.
func ForApplication(app *types.Application) Decision {
	var cascade []uuid.UUID
	if app.CustomizedResumeVersionID != nil {
		cascade = append(cascade, *app.CustomizedResumeVersionID)
	}
	if app.CustomizedCoverLetterVersionID != nil {
		cascade = append(cascade, *app.CustomizedCoverLetterVersionID)
	}
	if len(cascade) == 0 {
		return Decision{Outcome: Proceed}
	}
	return Decision{Outcome: Cascade, CascadeVersionIDs: cascade}
}

// Dedupe collapses refs to one entry per application, keeping first-seen
// order so rejection messages are stable.
func Dedupe(refs []types.ApplicationRef) []types.ApplicationRef {
	seen := make(map[uuid.UUID]bool, len(refs))
	out := make([]types.ApplicationRef, 0, len(refs))
	for _, r := range refs {
		if seen[r.ApplicationID] {
			continue
		}
		seen[r.ApplicationID] = true
		out = append(out, r)
	}
	return out
}
