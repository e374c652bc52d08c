package types

import (
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
)

// validate is shared; the validator caches struct metadata after first use.
var validate = validator.New()

// CreateApplicationRequest is the payload for creating an application.
// ResumeID and ResumeVersionID are mandatory; cover letter references are
// optional. CustomizeResume/CustomizeCoverLetter request an AI-tailored
// version owned by the new application; GenerateCoverLetter requests a
// brand-new cover letter document when none exists yet.
type CreateApplicationRequest struct {
	Company        string `json:"company" validate:"required,min=1,max=255"`
	Position       string `json:"position" validate:"required,min=1,max=255"`
	JobDescription string `json:"job_description,omitempty"`

	ResumeID        uuid.UUID `json:"resume_id" validate:"required"`
	ResumeVersionID uuid.UUID `json:"resume_version_id" validate:"required"`
	CustomizeResume bool      `json:"customize_resume,omitempty"`

	CoverLetterID        *uuid.UUID `json:"cover_letter_id,omitempty"`
	CoverLetterVersionID *uuid.UUID `json:"cover_letter_version_id,omitempty"`
	CustomizeCoverLetter bool       `json:"customize_cover_letter,omitempty"`

	GenerateCoverLetter bool       `json:"generate_cover_letter,omitempty"`
	TemplateID          *uuid.UUID `json:"template_id,omitempty"`

	AdditionalInstructions string    `json:"additional_instructions,omitempty"`
	Status                 string    `json:"status,omitempty" validate:"omitempty,oneof=Applied Interviewing Rejected Offer Withdrawn"`
	AppliedDate            time.Time `json:"applied_date,omitempty"`
	Notes                  string    `json:"notes,omitempty"`
}

// Validate validates the CreateApplicationRequest using the validator.
func (r *CreateApplicationRequest) Validate() error {
	return validate.Struct(r)
}

// ApplicationBind groups the document rows that must be created together
// with an application. Stores apply the bind and the application row in one
// atomic unit: either every row lands or none does, so a failure partway
// through never leaves a customized version orphaned in the user's history.
type ApplicationBind struct {
	// CustomizedResume is created under Application.ResumeID and fills the
	// customized resume slot.
	CustomizedResume *VersionInput
	// CustomizedCoverLetter is created under *Application.CoverLetterID and
	// fills the customized cover letter slot.
	CustomizedCoverLetter *VersionInput
	// GeneratedCoverLetter creates a new cover letter document whose v1
	// fills the shared cover letter slots.
	GeneratedCoverLetter *MasterInput
}

// Empty reports whether the bind carries no document work.
func (b *ApplicationBind) Empty() bool {
	return b == nil || (b.CustomizedResume == nil && b.CustomizedCoverLetter == nil && b.GeneratedCoverLetter == nil)
}

// TemplateInput is the payload for creating or replacing a cover letter
// template. Content may carry {company} and {position} placeholders.
type TemplateInput struct {
	Name        string `json:"name" validate:"required,min=1,max=255"`
	Description string `json:"description,omitempty"`
	Content     string `json:"content" validate:"required,min=1"`
}

// Validate validates the TemplateInput using the validator.
func (in *TemplateInput) Validate() error {
	return validate.Struct(in)
}
