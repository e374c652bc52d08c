// Package types provides type definitions for structured data shared across
// the applytrack document lifecycle engine. Keeping entity and request types
// here avoids import cycles between the db, policy, and manager packages.
package types

import (
	"time"

	"github.com/google/uuid"
)

// DocumentKind identifies which document family a master or version belongs to.
type DocumentKind string

const (
	KindResume      DocumentKind = "resume"
	KindCoverLetter DocumentKind = "cover_letter"
)

// Valid reports whether the kind is one of the two known document families.
func (k DocumentKind) Valid() bool {
	return k == KindResume || k == KindCoverLetter
}

// Master is a named document record (a Resume or CoverLetter) owning an
// ordered set of versions. Creation order of versions defines recency.
type Master struct {
	ID        uuid.UUID    `json:"id"`
	UserID    uuid.UUID    `json:"user_id"`
	Kind      DocumentKind `json:"kind"`
	Title     string       `json:"title"`
	IsDefault bool         `json:"is_default"`
	CreatedAt time.Time    `json:"created_at"`
	UpdatedAt time.Time    `json:"updated_at"`
}

// Version is an immutable snapshot of a master's content. IsOriginal marks
// user-authored baselines; customized versions are generated for a specific
// application and carry the job description they were tailored to.
type Version struct {
	ID             uuid.UUID    `json:"id"`
	MasterID       uuid.UUID    `json:"master_id"`
	Kind           DocumentKind `json:"kind"`
	Label          string       `json:"label"` // e.g. "v1", "v3 - Acme Corp"
	Content        string       `json:"content"`
	JobDescription string       `json:"job_description,omitempty"`
	IsOriginal     bool         `json:"is_original"`
	CreatedAt      time.Time    `json:"created_at"`
}

// MasterInput is the payload for creating a master document. Every master
// starts with exactly one original version holding Content.
type MasterInput struct {
	Title   string `json:"title" validate:"required,min=1,max=255"`
	Content string `json:"content" validate:"required,min=1"`
}

// MasterUpdate holds optional metadata changes for a master. Nil fields are
// left untouched.
type MasterUpdate struct {
	Title     *string `json:"title,omitempty"`
	IsDefault *bool   `json:"is_default,omitempty"`
}

// VersionInput is the payload for creating a version under a master. When
// Label is empty the store assigns the next sequential "v{n}" label,
// appending " - {LabelSuffix}" if a suffix is supplied.
type VersionInput struct {
	Label          string `json:"label,omitempty" validate:"omitempty,max=50"`
	LabelSuffix    string `json:"label_suffix,omitempty"`
	Content        string `json:"content" validate:"required,min=1"`
	JobDescription string `json:"job_description,omitempty"`
	IsOriginal     bool   `json:"is_original"`
}

// Validate validates the MasterInput using the validator.
func (in *MasterInput) Validate() error {
	return validate.Struct(in)
}

// Validate validates the VersionInput using the validator.
func (in *VersionInput) Validate() error {
	return validate.Struct(in)
}
