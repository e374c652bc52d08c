// Package binding creates and manages job applications: it validates the
// document references an application binds, drives AI customization of the
// bound documents, and owns the application side of the deletion policy.
package binding

import (
	"context"
	"errors"
	"fmt"
	"log"

	"github.com/google/uuid"

	"github.com/jonathan/applytrack/internal/db"
	"github.com/jonathan/applytrack/internal/deps"
	"github.com/jonathan/applytrack/internal/policy"
	"github.com/jonathan/applytrack/internal/types"
)

// Customizer is the AI collaborator tailoring documents to a job description.
// Implementations must be side-effect free: the manager persists nothing
// until every customization call has succeeded.
type Customizer interface {
	CustomizeResume(ctx context.Context, content, jobDescription, instructions string) (string, error)
	CustomizeCoverLetter(ctx context.Context, content, jobDescription, company, position, instructions string) (string, error)
	GenerateCoverLetter(ctx context.Context, resumeContent, jobDescription, company, position, instructions string) (string, error)
}

// Manager exposes application operations over a store and an optional AI
// collaborator.
type Manager struct {
	store      db.Store
	resolver   *deps.Resolver
	customizer Customizer
}

// NewManager constructs a Manager. customizer may be nil, in which case
// requests asking for customization or generation are rejected.
func NewManager(store db.Store, customizer Customizer) *Manager {
	return &Manager{store: store, resolver: deps.NewResolver(store), customizer: customizer}
}

// CreateApplication validates the request's document references, runs any
// requested AI work, and persists the application with its customized
// versions. AI calls happen before any write: an upstream failure returns an
// UpstreamServiceError and leaves no state behind.
func (m *Manager) CreateApplication(ctx context.Context, userID uuid.UUID, req types.CreateApplicationRequest) (*types.Application, error) {
	if err := req.Validate(); err != nil {
		return nil, &ValidationError{Field: "request", Msg: err.Error()}
	}

	resumeVersion, err := m.resolveVersion(ctx, types.KindResume, userID, req.ResumeID, req.ResumeVersionID, "resume_version_id")
	if err != nil {
		return nil, err
	}

	var coverVersion *types.Version
	if req.CoverLetterID != nil {
		if req.CoverLetterVersionID == nil {
			return nil, &ValidationError{Field: "cover_letter_version_id", Msg: "required when cover_letter_id is set"}
		}
		coverVersion, err = m.resolveVersion(ctx, types.KindCoverLetter, userID, *req.CoverLetterID, *req.CoverLetterVersionID, "cover_letter_version_id")
		if err != nil {
			return nil, err
		}
	} else if req.CoverLetterVersionID != nil {
		return nil, &ValidationError{Field: "cover_letter_id", Msg: "required when cover_letter_version_id is set"}
	}

	// Every AI call runs up front, before the first write. Contradictory
	// flag combinations are rejected rather than silently ignored.
	var customizedResume, customizedCover, generatedCover string
	if req.CustomizeResume {
		customizedResume, err = m.customize(ctx, "resume customization", func(c Customizer) (string, error) {
			return c.CustomizeResume(ctx, resumeVersion.Content, req.JobDescription, req.AdditionalInstructions)
		})
		if err != nil {
			return nil, err
		}
	}
	if req.CustomizeCoverLetter {
		if coverVersion == nil {
			return nil, &ValidationError{Field: "customize_cover_letter", Msg: "no cover letter is bound to customize"}
		}
		customizedCover, err = m.customize(ctx, "cover letter customization", func(c Customizer) (string, error) {
			return c.CustomizeCoverLetter(ctx, coverVersion.Content, req.JobDescription, req.Company, req.Position, req.AdditionalInstructions)
		})
		if err != nil {
			return nil, err
		}
	}
	if req.GenerateCoverLetter {
		if coverVersion != nil {
			return nil, &ValidationError{Field: "generate_cover_letter", Msg: "a cover letter is already bound"}
		}
		seed := resumeVersion.Content
		if req.TemplateID != nil {
			tpl, err := m.store.GetTemplate(ctx, *req.TemplateID)
			if err != nil {
				return nil, &ValidationError{Field: "template_id", Msg: "template not found"}
			}
			seed = tpl.Render(req.Company, req.Position)
		}
		generatedCover, err = m.customize(ctx, "cover letter generation", func(c Customizer) (string, error) {
			return c.GenerateCoverLetter(ctx, seed, req.JobDescription, req.Company, req.Position, req.AdditionalInstructions)
		})
		if err != nil {
			return nil, err
		}
	}

	app := &types.Application{
		UserID:                 userID,
		ResumeID:               req.ResumeID,
		ResumeVersionID:        req.ResumeVersionID,
		CoverLetterID:          req.CoverLetterID,
		CoverLetterVersionID:   req.CoverLetterVersionID,
		Company:                req.Company,
		Position:               req.Position,
		JobDescription:         req.JobDescription,
		AdditionalInstructions: req.AdditionalInstructions,
		Status:                 req.Status,
		AppliedDate:            req.AppliedDate,
		Notes:                  req.Notes,
	}

	// AI work succeeded; the store applies the application and its document
	// rows as one unit, so a failed write cannot strand a customized
	// version. Customized versions carry the job description they were
	// tailored to and are owned by this application.
	bind := &types.ApplicationBind{}
	if customizedResume != "" {
		bind.CustomizedResume = &types.VersionInput{
			LabelSuffix:    req.Company,
			Content:        customizedResume,
			JobDescription: req.JobDescription,
		}
	}
	if customizedCover != "" {
		bind.CustomizedCoverLetter = &types.VersionInput{
			LabelSuffix:    req.Company,
			Content:        customizedCover,
			JobDescription: req.JobDescription,
		}
	}
	if generatedCover != "" {
		bind.GeneratedCoverLetter = &types.MasterInput{
			Title:   fmt.Sprintf("Cover Letter - %s", req.Company),
			Content: generatedCover,
		}
	}
	if bind.Empty() {
		bind = nil
	}

	created, err := m.store.CreateApplication(ctx, app, bind)
	if err != nil {
		return nil, fmt.Errorf("failed to create application: %w", err)
	}
	return created, nil
}

func (m *Manager) resolveVersion(ctx context.Context, kind types.DocumentKind, userID, masterID, versionID uuid.UUID, field string) (*types.Version, error) {
	if _, err := m.store.GetMaster(ctx, kind, userID, masterID); err != nil {
		if errors.Is(err, db.ErrNotFound) {
			return nil, &ValidationError{Field: field, Msg: fmt.Sprintf("%s not found", kind)}
		}
		return nil, err
	}
	v, err := m.store.GetVersion(ctx, kind, userID, versionID)
	if err != nil {
		if errors.Is(err, db.ErrNotFound) {
			return nil, &ValidationError{Field: field, Msg: fmt.Sprintf("%s version not found", kind)}
		}
		return nil, err
	}
	if v.MasterID != masterID {
		return nil, &ValidationError{Field: field, Msg: fmt.Sprintf("version does not belong to the given %s", kind)}
	}
	return v, nil
}

func (m *Manager) customize(ctx context.Context, op string, call func(Customizer) (string, error)) (string, error) {
	if m.customizer == nil {
		return "", &ValidationError{Field: "request", Msg: op + " requested but no AI service is configured"}
	}
	out, err := call(m.customizer)
	if err != nil {
		return "", &UpstreamServiceError{Op: op, Err: err}
	}
	if out == "" {
		return "", &UpstreamServiceError{Op: op, Err: fmt.Errorf("empty response")}
	}
	return out, nil
}

// GetApplication retrieves an application scoped to its owner.
func (m *Manager) GetApplication(ctx context.Context, userID, applicationID uuid.UUID) (*types.Application, error) {
	return m.store.GetApplication(ctx, userID, applicationID)
}

// ListApplications retrieves applications with optional status and company
// filters, paginated. The second return value is the total match count.
func (m *Manager) ListApplications(ctx context.Context, userID uuid.UUID, f types.ApplicationFilter) ([]types.Application, int, error) {
	if f.Status != "" && !types.ValidStatus(f.Status) {
		return nil, 0, &ValidationError{Field: "status", Msg: "unknown status"}
	}
	return m.store.ListApplications(ctx, userID, f)
}

// SearchApplications searches company, position, job description, and notes.
func (m *Manager) SearchApplications(ctx context.Context, userID uuid.UUID, query string, page, perPage int) ([]types.Application, int, error) {
	if query == "" {
		return nil, 0, &ValidationError{Field: "query", Msg: "cannot be empty"}
	}
	return m.store.SearchApplications(ctx, userID, query, page, perPage)
}

// UpdateApplication applies field changes to an application. The document
// reference slots are immutable after creation.
func (m *Manager) UpdateApplication(ctx context.Context, userID, applicationID uuid.UUID, upd types.ApplicationUpdate) (*types.Application, error) {
	if upd.Status != nil && !types.ValidStatus(*upd.Status) {
		return nil, &ValidationError{Field: "status", Msg: "unknown status"}
	}
	return m.store.UpdateApplication(ctx, userID, applicationID, upd)
}

// UpdateStatus moves an application through the status workflow.
func (m *Manager) UpdateStatus(ctx context.Context, userID, applicationID uuid.UUID, status string) (*types.Application, error) {
	return m.UpdateApplication(ctx, userID, applicationID, types.ApplicationUpdate{Status: &status})
}

// DeleteApplication deletes an application and the customized versions it
// owns. Original versions and masters it referenced survive. Returns the ids
// of the cascade-deleted versions.
func (m *Manager) DeleteApplication(ctx context.Context, userID, applicationID uuid.UUID) ([]uuid.UUID, error) {
	d, err := m.store.DeleteApplication(ctx, userID, applicationID)
	if err != nil {
		return nil, err
	}
	log.Printf("deleted application %s with %d owned version(s)", applicationID, len(d.CascadeVersionIDs))
	return d.CascadeVersionIDs, nil
}

// PreviewDelete reports what deleting an application would cascade to,
// without deleting it.
func (m *Manager) PreviewDelete(ctx context.Context, userID, applicationID uuid.UUID) (policy.Decision, error) {
	return m.resolver.PreviewApplicationDelete(ctx, userID, applicationID)
}

// BulkDeleteResult reports the outcome of one deletion in a bulk request.
type BulkDeleteResult struct {
	ApplicationID uuid.UUID `json:"application_id"`
	Deleted       bool      `json:"deleted"`
	Error         string    `json:"error,omitempty"`
}

// BulkDelete deletes several applications, continuing past individual
// failures.
func (m *Manager) BulkDelete(ctx context.Context, userID uuid.UUID, ids []uuid.UUID) []BulkDeleteResult {
	results := make([]BulkDeleteResult, 0, len(ids))
	for _, id := range ids {
		r := BulkDeleteResult{ApplicationID: id}
		if _, err := m.DeleteApplication(ctx, userID, id); err != nil {
			r.Error = err.Error()
		} else {
			r.Deleted = true
		}
		results = append(results, r)
	}
	return results
}

// Stats summarizes the user's applications by status.
func (m *Manager) Stats(ctx context.Context, userID uuid.UUID) (*types.ApplicationStats, error) {
	return m.store.ApplicationStats(ctx, userID)
}

// Recent returns the user's most recently applied applications.
func (m *Manager) Recent(ctx context.Context, userID uuid.UUID, limit int) ([]types.Application, error) {
	if limit <= 0 {
		limit = 5
	}
	apps, _, err := m.store.ListApplications(ctx, userID, types.ApplicationFilter{Page: 1, PerPage: limit})
	return apps, err
}

// CreateTemplate stores a reusable cover letter template.
func (m *Manager) CreateTemplate(ctx context.Context, in types.TemplateInput) (*types.Template, error) {
	if err := in.Validate(); err != nil {
		return nil, &ValidationError{Field: "template", Msg: err.Error()}
	}
	return m.store.CreateTemplate(ctx, in)
}

// GetTemplate retrieves a template.
func (m *Manager) GetTemplate(ctx context.Context, templateID uuid.UUID) (*types.Template, error) {
	return m.store.GetTemplate(ctx, templateID)
}

// ListTemplates retrieves all templates.
func (m *Manager) ListTemplates(ctx context.Context) ([]types.Template, error) {
	return m.store.ListTemplates(ctx)
}

// UpdateTemplate replaces a template's fields.
func (m *Manager) UpdateTemplate(ctx context.Context, templateID uuid.UUID, in types.TemplateInput) (*types.Template, error) {
	if err := in.Validate(); err != nil {
		return nil, &ValidationError{Field: "template", Msg: err.Error()}
	}
	return m.store.UpdateTemplate(ctx, templateID, in)
}

// DeleteTemplate removes a template. Applications are unaffected: templates
// never participate in the deletion policy.
func (m *Manager) DeleteTemplate(ctx context.Context, templateID uuid.UUID) error {
	return m.store.DeleteTemplate(ctx, templateID)
}

// DeleteUser removes a user's applications, masters, and versions. Account
// removal skips the deletion policy: nothing is left to protect.
func (m *Manager) DeleteUser(ctx context.Context, userID uuid.UUID) error {
	return m.store.DeleteUser(ctx, userID)
}
