package policy

import (
	"errors"
	"testing"

	"github.com/google/uuid"

	"github.com/jonathan/applytrack/internal/types"
)

func ref(appID uuid.UUID, kind types.ReferenceKind) types.ApplicationRef {
	return types.ApplicationRef{ApplicationID: appID, Company: "Acme", Position: "Engineer", Kind: kind}
}

func TestForVersion(t *testing.T) {
	appA := uuid.New()
	appB := uuid.New()

	tests := []struct {
		name        string
		refs        []types.ApplicationRef
		lastVersion bool
		wantOutcome Outcome
		wantReason  Reason
		wantBlocked int
	}{
		{
			name:        "unreferenced, not last",
			refs:        nil,
			lastVersion: false,
			wantOutcome: Proceed,
		},
		{
			name:        "unreferenced, last version",
			refs:        nil,
			lastVersion: true,
			wantOutcome: Reject,
			wantReason:  ReasonOnlyVersion,
		},
		{
			name:        "required reference blocks",
			refs:        []types.ApplicationRef{ref(appA, types.RefResumeOriginal)},
			wantOutcome: Reject,
			wantReason:  ReasonReferenced,
			wantBlocked: 1,
		},
		{
			name:        "cover letter required reference blocks",
			refs:        []types.ApplicationRef{ref(appA, types.RefCoverLetterOriginal)},
			wantOutcome: Reject,
			wantReason:  ReasonReferenced,
			wantBlocked: 1,
		},
		{
			name:        "owned-only reference rejects as owned",
			refs:        []types.ApplicationRef{ref(appA, types.RefResumeCustomized)},
			wantOutcome: Reject,
			wantReason:  ReasonOwned,
			wantBlocked: 1,
		},
		{
			name: "required wins over owned",
			refs: []types.ApplicationRef{
				ref(appA, types.RefResumeCustomized),
				ref(appB, types.RefResumeOriginal),
			},
			wantOutcome: Reject,
			wantReason:  ReasonReferenced,
			wantBlocked: 1,
		},
		{
			name: "required blocks even on last version",
			refs: []types.ApplicationRef{
				ref(appA, types.RefResumeOriginal),
			},
			lastVersion: true,
			wantOutcome: Reject,
			wantReason:  ReasonReferenced,
			wantBlocked: 1,
		},
		{
			name: "blockers deduplicated per application",
			refs: []types.ApplicationRef{
				ref(appA, types.RefResumeOriginal),
				ref(appA, types.RefCoverLetterOriginal),
				ref(appB, types.RefResumeOriginal),
			},
			wantOutcome: Reject,
			wantReason:  ReasonReferenced,
			wantBlocked: 2,
		},
		{
			name: "master-only references do not block version deletion",
			refs: []types.ApplicationRef{
				ref(appA, types.RefResumeMaster),
			},
			wantOutcome: Proceed,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			d := ForVersion(tt.refs, tt.lastVersion)
			if d.Outcome != tt.wantOutcome {
				t.Fatalf("Outcome = %s, expected %s", d.Outcome, tt.wantOutcome)
			}
			if d.Reason != tt.wantReason {
				t.Errorf("Reason = %q, expected %q", d.Reason, tt.wantReason)
			}
			if len(d.Blockers) != tt.wantBlocked {
				t.Errorf("len(Blockers) = %d, expected %d", len(d.Blockers), tt.wantBlocked)
			}
		})
	}
}

func TestForMaster(t *testing.T) {
	appA := uuid.New()
	v1 := uuid.New()
	v2 := uuid.New()

	t.Run("required reference rejects whole master", func(t *testing.T) {
		d := ForMaster([]types.ApplicationRef{ref(appA, types.RefResumeOriginal)}, []uuid.UUID{v1, v2})
		if d.Outcome != Reject {
			t.Fatalf("Outcome = %s, expected reject", d.Outcome)
		}
		if d.Reason != ReasonReferenced {
			t.Errorf("Reason = %q, expected %q", d.Reason, ReasonReferenced)
		}
	})

	t.Run("owned references ride the cascade", func(t *testing.T) {
		d := ForMaster([]types.ApplicationRef{ref(appA, types.RefResumeCustomized)}, []uuid.UUID{v1, v2})
		if d.Outcome != Cascade {
			t.Fatalf("Outcome = %s, expected cascade", d.Outcome)
		}
		if len(d.CascadeVersionIDs) != 2 {
			t.Errorf("len(CascadeVersionIDs) = %d, expected 2", len(d.CascadeVersionIDs))
		}
	})

	t.Run("unreferenced master cascades all versions", func(t *testing.T) {
		d := ForMaster(nil, []uuid.UUID{v1})
		if d.Outcome != Cascade {
			t.Fatalf("Outcome = %s, expected cascade", d.Outcome)
		}
	})
}

func TestForApplication(t *testing.T) {
	custResume := uuid.New()
	custCL := uuid.New()

	t.Run("no customized versions proceeds", func(t *testing.T) {
		d := ForApplication(&types.Application{ResumeVersionID: uuid.New()})
		if d.Outcome != Proceed {
			t.Fatalf("Outcome = %s, expected proceed", d.Outcome)
		}
	})

	t.Run("customized versions cascade, required refs untouched", func(t *testing.T) {
		app := &types.Application{
			ResumeVersionID:                uuid.New(),
			CustomizedResumeVersionID:      &custResume,
			CustomizedCoverLetterVersionID: &custCL,
		}
		d := ForApplication(app)
		if d.Outcome != Cascade {
			t.Fatalf("Outcome = %s, expected cascade", d.Outcome)
		}
		if len(d.CascadeVersionIDs) != 2 {
			t.Fatalf("len(CascadeVersionIDs) = %d, expected 2", len(d.CascadeVersionIDs))
		}
		for _, id := range d.CascadeVersionIDs {
			if id == app.ResumeVersionID {
				t.Errorf("cascade set includes the required version %s", id)
			}
		}
	})
}

func TestDecisionErr(t *testing.T) {
	appA := uuid.New()

	d := ForVersion([]types.ApplicationRef{ref(appA, types.RefResumeOriginal)}, false)
	var refErr *ReferencedError
	if err := d.Err(types.KindResume); !errors.As(err, &refErr) {
		t.Fatalf("expected ReferencedError, got %v", err)
	} else if len(refErr.Blockers) != 1 {
		t.Errorf("len(Blockers) = %d, expected 1", len(refErr.Blockers))
	}

	d = ForVersion(nil, true)
	var onlyErr *OnlyVersionError
	if err := d.Err(types.KindResume); !errors.As(err, &onlyErr) {
		t.Fatalf("expected OnlyVersionError, got %v", err)
	}

	d = ForVersion([]types.ApplicationRef{ref(appA, types.RefResumeCustomized)}, false)
	var ownedErr *OwnedError
	if err := d.Err(types.KindResume); !errors.As(err, &ownedErr) {
		t.Fatalf("expected OwnedError, got %v", err)
	}

	if err := ForVersion(nil, false).Err(types.KindResume); err != nil {
		t.Errorf("proceed decision returned error: %v", err)
	}
}

func TestReferencedError_MessageWithoutBlockers(t *testing.T) {
	// The storage layer raises this shape when a constraint fires without a
	// reference snapshot; the message must still read sensibly.
	err := &ReferencedError{}
	if got := err.Error(); got != "cannot delete: referenced by existing applications" {
		t.Errorf("Error() = %q", got)
	}

	withBlockers := &ReferencedError{Blockers: []types.ApplicationRef{ref(uuid.New(), types.RefResumeOriginal)}}
	if got := withBlockers.Error(); got != "cannot delete: used by 1 application(s)" {
		t.Errorf("Error() = %q", got)
	}
}
