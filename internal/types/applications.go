package types

import (
	"time"

	"github.com/google/uuid"
)

// Application statuses accepted by the binding manager.
const (
	StatusApplied      = "Applied"
	StatusInterviewing = "Interviewing"
	StatusRejected     = "Rejected"
	StatusOffer        = "Offer"
	StatusWithdrawn    = "Withdrawn"
)

// ValidStatuses lists every accepted application status.
var ValidStatuses = []string{
	StatusApplied, StatusInterviewing, StatusRejected, StatusOffer, StatusWithdrawn,
}

// ValidStatus reports whether s is an accepted application status.
func ValidStatus(s string) bool {
	for _, v := range ValidStatuses {
		if s == v {
			return true
		}
	}
	return false
}

// Application is a job application binding a resume version and, optionally,
// a cover letter version. The two required slots (ResumeID, ResumeVersionID)
// protect their targets from deletion for the life of the application. The
// customized slots reference versions owned by this application: they are
// cascade deleted with it.
type Application struct {
	ID     uuid.UUID `json:"id"`
	UserID uuid.UUID `json:"user_id"`

	ResumeID                  uuid.UUID  `json:"resume_id"`
	ResumeVersionID           uuid.UUID  `json:"resume_version_id"`
	CustomizedResumeVersionID *uuid.UUID `json:"customized_resume_version_id,omitempty"`

	CoverLetterID                  *uuid.UUID `json:"cover_letter_id,omitempty"`
	CoverLetterVersionID           *uuid.UUID `json:"cover_letter_version_id,omitempty"`
	CustomizedCoverLetterVersionID *uuid.UUID `json:"customized_cover_letter_version_id,omitempty"`

	Company                string    `json:"company"`
	Position               string    `json:"position"`
	JobDescription         string    `json:"job_description,omitempty"`
	AdditionalInstructions string    `json:"additional_instructions,omitempty"`
	Status                 string    `json:"status"`
	AppliedDate            time.Time `json:"applied_date"`
	Notes                  string    `json:"notes,omitempty"`
	CreatedAt              time.Time `json:"created_at"`
	UpdatedAt              time.Time `json:"updated_at"`
}

// ReferenceKind names the application column through which an entity is
// referenced. The two version slots per document family have different
// deletion semantics: original slots protect their target, customized slots
// make the application own it.
type ReferenceKind string

const (
	RefResumeMaster          ReferenceKind = "resume"
	RefResumeOriginal        ReferenceKind = "resume_version"
	RefResumeCustomized      ReferenceKind = "customized_resume_version"
	RefCoverLetterMaster     ReferenceKind = "cover_letter"
	RefCoverLetterOriginal   ReferenceKind = "cover_letter_version"
	RefCoverLetterCustomized ReferenceKind = "customized_cover_letter_version"
)

// Required reports whether the reference protects its target from deletion
// for as long as the application exists.
func (k ReferenceKind) Required() bool {
	return k == RefResumeOriginal || k == RefCoverLetterOriginal
}

// Owned reports whether the referenced version's lifetime is bound to the
// referencing application.
func (k ReferenceKind) Owned() bool {
	return k == RefResumeCustomized || k == RefCoverLetterCustomized
}

// ApplicationRef is one application's reference to a version or master,
// annotated with the column that matched. Company and position ride along so
// rejection diagnostics can name the blockers without a second lookup.
type ApplicationRef struct {
	ApplicationID uuid.UUID     `json:"application_id"`
	Company       string        `json:"company"`
	Position      string        `json:"position"`
	Kind          ReferenceKind `json:"reference_kind"`
}

// ApplicationFilter holds optional filters and pagination for listing
// applications. Page is 1-based; PerPage defaults to 20 when zero.
type ApplicationFilter struct {
	Status  string
	Company string
	Page    int
	PerPage int
}

// ApplicationUpdate holds optional field changes for an application. Nil
// fields are left untouched. Reference slots are immutable after creation.
type ApplicationUpdate struct {
	Company        *string    `json:"company,omitempty"`
	Position       *string    `json:"position,omitempty"`
	JobDescription *string    `json:"job_description,omitempty"`
	Status         *string    `json:"status,omitempty"`
	AppliedDate    *time.Time `json:"applied_date,omitempty"`
	Notes          *string    `json:"notes,omitempty"`
}

// ApplicationStats summarizes a user's applications by status.
type ApplicationStats struct {
	Total       int            `json:"total"`
	ByStatus    map[string]int `json:"by_status"`
	RecentMonth int            `json:"recent_month"` // applied within the last 30 days
}
