package db

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/jonathan/applytrack/internal/policy"
	"github.com/jonathan/applytrack/internal/types"
)

// MemoryStore is an in-memory implementation of Store for tests. A single
// mutex serializes every operation, which trivially satisfies the same
// check-then-act atomicity the PostgreSQL store gets from row locks.
type MemoryStore struct {
	mu        sync.Mutex
	masters   map[uuid.UUID]*types.Master
	versions  map[uuid.UUID]*types.Version
	apps      map[uuid.UUID]*types.Application
	templates map[uuid.UUID]*types.Template

	// clock provides strictly increasing timestamps so creation order is
	// observable even when operations land within the same wall tick.
	clock int64
	epoch time.Time
}

// NewMemoryStore constructs an empty MemoryStore.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		masters:   make(map[uuid.UUID]*types.Master),
		versions:  make(map[uuid.UUID]*types.Version),
		apps:      make(map[uuid.UUID]*types.Application),
		templates: make(map[uuid.UUID]*types.Template),
		epoch:     time.Now().UTC(),
	}
}

func (s *MemoryStore) tick() time.Time {
	s.clock++
	return s.epoch.Add(time.Duration(s.clock) * time.Millisecond)
}

// CreateMaster creates a master with its initial original "v1" version.
func (s *MemoryStore) CreateMaster(ctx context.Context, kind types.DocumentKind, userID uuid.UUID, in types.MasterInput) (*types.Master, *types.Version, error) {
	if err := ctx.Err(); err != nil {
		return nil, nil, err
	}
	if !kind.Valid() {
		return nil, nil, fmt.Errorf("unknown document kind: %q", kind)
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	m, v := s.createMasterLocked(kind, userID, in)
	mc, vc := *m, *v
	return &mc, &vc, nil
}

func (s *MemoryStore) createMasterLocked(kind types.DocumentKind, userID uuid.UUID, in types.MasterInput) (*types.Master, *types.Version) {
	now := s.tick()
	m := &types.Master{
		ID: uuid.New(), UserID: userID, Kind: kind,
		Title: in.Title, CreatedAt: now, UpdatedAt: now,
	}
	v := &types.Version{
		ID: uuid.New(), MasterID: m.ID, Kind: kind,
		Label: "v1", Content: in.Content, IsOriginal: true, CreatedAt: now,
	}
	s.masters[m.ID] = m
	s.versions[v.ID] = v
	return m, v
}

// GetMaster retrieves a master scoped to its owner.
func (s *MemoryStore) GetMaster(ctx context.Context, kind types.DocumentKind, userID, masterID uuid.UUID) (*types.Master, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	m, err := s.master(kind, userID, masterID)
	if err != nil {
		return nil, err
	}
	mc := *m
	return &mc, nil
}

func (s *MemoryStore) master(kind types.DocumentKind, userID, masterID uuid.UUID) (*types.Master, error) {
	m, ok := s.masters[masterID]
	if !ok || m.Kind != kind || m.UserID != userID {
		return nil, ErrNotFound
	}
	return m, nil
}

// ListMasters retrieves a user's masters, newest first.
func (s *MemoryStore) ListMasters(ctx context.Context, kind types.DocumentKind, userID uuid.UUID) ([]types.Master, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	var out []types.Master
	for _, m := range s.masters {
		if m.Kind == kind && m.UserID == userID {
			out = append(out, *m)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.After(out[j].CreatedAt) })
	return out, nil
}

// UpdateMaster applies metadata changes.
func (s *MemoryStore) UpdateMaster(ctx context.Context, kind types.DocumentKind, userID, masterID uuid.UUID, upd types.MasterUpdate) (*types.Master, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	m, err := s.master(kind, userID, masterID)
	if err != nil {
		return nil, err
	}
	if upd.Title != nil {
		m.Title = *upd.Title
	}
	if upd.IsDefault != nil {
		if *upd.IsDefault {
			for _, other := range s.masters {
				if other.Kind == kind && other.UserID == userID && other.ID != masterID {
					other.IsDefault = false
				}
			}
		}
		m.IsDefault = *upd.IsDefault
	}
	m.UpdatedAt = s.tick()

	mc := *m
	return &mc, nil
}

// DeleteMaster evaluates the deletion policy, then removes the master and
// all its versions, clearing customized slots on surviving applications.
func (s *MemoryStore) DeleteMaster(ctx context.Context, kind types.DocumentKind, userID, masterID uuid.UUID) (policy.Decision, error) {
	if err := ctx.Err(); err != nil {
		return policy.Decision{}, err
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, err := s.master(kind, userID, masterID); err != nil {
		return policy.Decision{}, err
	}

	versionIDs := s.versionIDsUnder(kind, masterID)
	d := policy.ForMaster(s.refsFor(kind, userID, versionIDs), versionIDs)
	if !d.Allowed() {
		return d, nil
	}

	cascaded := make(map[uuid.UUID]bool, len(versionIDs))
	for _, id := range versionIDs {
		cascaded[id] = true
		delete(s.versions, id)
	}
	for _, app := range s.apps {
		if app.CustomizedResumeVersionID != nil && cascaded[*app.CustomizedResumeVersionID] {
			app.CustomizedResumeVersionID = nil
		}
		if app.CustomizedCoverLetterVersionID != nil && cascaded[*app.CustomizedCoverLetterVersionID] {
			app.CustomizedCoverLetterVersionID = nil
		}
		if kind == types.KindCoverLetter && app.CoverLetterID != nil && *app.CoverLetterID == masterID {
			app.CoverLetterID = nil
		}
	}
	delete(s.masters, masterID)
	return d, nil
}

// CreateVersion creates a new version under a master, assigning the next
// sequential label when in.Label is empty.
func (s *MemoryStore) CreateVersion(ctx context.Context, kind types.DocumentKind, userID, masterID uuid.UUID, in types.VersionInput) (*types.Version, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, err := s.master(kind, userID, masterID); err != nil {
		return nil, err
	}

	vc := *s.createVersionLocked(kind, masterID, in)
	return &vc, nil
}

func (s *MemoryStore) createVersionLocked(kind types.DocumentKind, masterID uuid.UUID, in types.VersionInput) *types.Version {
	label := in.Label
	if label == "" {
		label = fmt.Sprintf("v%d", len(s.versionIDsUnder(kind, masterID))+1)
		if in.LabelSuffix != "" {
			label = fmt.Sprintf("%s - %s", label, in.LabelSuffix)
		}
	}

	v := &types.Version{
		ID: uuid.New(), MasterID: masterID, Kind: kind,
		Label: label, Content: in.Content, JobDescription: in.JobDescription,
		IsOriginal: in.IsOriginal, CreatedAt: s.tick(),
	}
	s.versions[v.ID] = v
	return v
}

// GetVersion retrieves a version scoped to the owner through its master.
func (s *MemoryStore) GetVersion(ctx context.Context, kind types.DocumentKind, userID, versionID uuid.UUID) (*types.Version, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	v, err := s.version(kind, userID, versionID)
	if err != nil {
		return nil, err
	}
	vc := *v
	return &vc, nil
}

func (s *MemoryStore) version(kind types.DocumentKind, userID, versionID uuid.UUID) (*types.Version, error) {
	v, ok := s.versions[versionID]
	if !ok || v.Kind != kind {
		return nil, ErrNotFound
	}
	if _, err := s.master(kind, userID, v.MasterID); err != nil {
		return nil, ErrNotFound
	}
	return v, nil
}

// ListVersions retrieves a master's versions, newest first.
func (s *MemoryStore) ListVersions(ctx context.Context, kind types.DocumentKind, userID, masterID uuid.UUID) ([]types.Version, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, err := s.master(kind, userID, masterID); err != nil {
		return nil, err
	}

	var out []types.Version
	for _, v := range s.versions {
		if v.Kind == kind && v.MasterID == masterID {
			out = append(out, *v)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.After(out[j].CreatedAt) })
	return out, nil
}

// UpdateVersionContent mutates a draft version in place; versions referenced
// by any application are immutable.
func (s *MemoryStore) UpdateVersionContent(ctx context.Context, kind types.DocumentKind, userID, versionID uuid.UUID, content string) (*types.Version, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	v, err := s.version(kind, userID, versionID)
	if err != nil {
		return nil, err
	}
	refs := s.refsFor(kind, userID, []uuid.UUID{versionID})
	if len(refs) > 0 {
		return nil, &policy.ReferencedError{Blockers: policy.Dedupe(refs)}
	}
	v.Content = content

	vc := *v
	return &vc, nil
}

// DeleteVersion evaluates the deletion policy for a single version.
func (s *MemoryStore) DeleteVersion(ctx context.Context, kind types.DocumentKind, userID, versionID uuid.UUID) (policy.Decision, error) {
	if err := ctx.Err(); err != nil {
		return policy.Decision{}, err
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	v, err := s.version(kind, userID, versionID)
	if err != nil {
		return policy.Decision{}, err
	}

	count := len(s.versionIDsUnder(kind, v.MasterID))
	d := policy.ForVersion(s.refsFor(kind, userID, []uuid.UUID{versionID}), count <= 1)
	if !d.Allowed() {
		return d, nil
	}
	delete(s.versions, versionID)
	return d, nil
}

// VersionRefs returns every application referencing the version.
func (s *MemoryStore) VersionRefs(ctx context.Context, kind types.DocumentKind, userID, versionID uuid.UUID) ([]types.ApplicationRef, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.refsFor(kind, userID, []uuid.UUID{versionID}), nil
}

// MasterRefs returns every application referencing the master directly or
// through any of its versions.
func (s *MemoryStore) MasterRefs(ctx context.Context, kind types.DocumentKind, userID, masterID uuid.UUID) ([]types.ApplicationRef, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	refMaster := types.RefResumeMaster
	if kind == types.KindCoverLetter {
		refMaster = types.RefCoverLetterMaster
	}

	var refs []types.ApplicationRef
	for _, app := range s.sortedApps(userID) {
		direct := (kind == types.KindResume && app.ResumeID == masterID) ||
			(kind == types.KindCoverLetter && app.CoverLetterID != nil && *app.CoverLetterID == masterID)
		if direct {
			refs = append(refs, types.ApplicationRef{
				ApplicationID: app.ID, Company: app.Company, Position: app.Position, Kind: refMaster,
			})
		}
	}
	return append(refs, s.refsFor(kind, userID, s.versionIDsUnder(kind, masterID))...), nil
}

func (s *MemoryStore) versionIDsUnder(kind types.DocumentKind, masterID uuid.UUID) []uuid.UUID {
	var ids []uuid.UUID
	for _, v := range s.versions {
		if v.Kind == kind && v.MasterID == masterID {
			ids = append(ids, v.ID)
		}
	}
	return ids
}

func (s *MemoryStore) refsFor(kind types.DocumentKind, userID uuid.UUID, versionIDs []uuid.UUID) []types.ApplicationRef {
	target := make(map[uuid.UUID]bool, len(versionIDs))
	for _, id := range versionIDs {
		target[id] = true
	}

	var refs []types.ApplicationRef
	add := func(app *types.Application, k types.ReferenceKind) {
		refs = append(refs, types.ApplicationRef{
			ApplicationID: app.ID, Company: app.Company, Position: app.Position, Kind: k,
		})
	}
	for _, app := range s.sortedApps(userID) {
		switch kind {
		case types.KindResume:
			if target[app.ResumeVersionID] {
				add(app, types.RefResumeOriginal)
			}
			if app.CustomizedResumeVersionID != nil && target[*app.CustomizedResumeVersionID] {
				add(app, types.RefResumeCustomized)
			}
		case types.KindCoverLetter:
			if app.CoverLetterVersionID != nil && target[*app.CoverLetterVersionID] {
				add(app, types.RefCoverLetterOriginal)
			}
			if app.CustomizedCoverLetterVersionID != nil && target[*app.CustomizedCoverLetterVersionID] {
				add(app, types.RefCoverLetterCustomized)
			}
		}
	}
	return refs
}

func (s *MemoryStore) sortedApps(userID uuid.UUID) []*types.Application {
	var apps []*types.Application
	for _, app := range s.apps {
		if app.UserID == userID {
			apps = append(apps, app)
		}
	}
	sort.Slice(apps, func(i, j int) bool { return apps[i].CreatedAt.Before(apps[j].CreatedAt) })
	return apps
}

// CreateApplication persists a fully-resolved application together with the
// document rows in bind, in one mutex scope. Every referential check runs
// before the first mutation, so a rejected create leaves nothing behind.
func (s *MemoryStore) CreateApplication(ctx context.Context, app *types.Application, bind *types.ApplicationBind) (*types.Application, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	// Referential checks mirror the FK constraints: binding must fail
	// cleanly if any target vanished since validation, across every slot.
	if _, ok := s.masters[app.ResumeID]; !ok {
		return nil, ErrNotFound
	}
	if _, ok := s.versions[app.ResumeVersionID]; !ok {
		return nil, ErrNotFound
	}
	if app.CoverLetterID != nil {
		if _, ok := s.masters[*app.CoverLetterID]; !ok {
			return nil, ErrNotFound
		}
	}
	if app.CoverLetterVersionID != nil {
		if _, ok := s.versions[*app.CoverLetterVersionID]; !ok {
			return nil, ErrNotFound
		}
	}
	if app.CustomizedResumeVersionID != nil {
		if _, ok := s.versions[*app.CustomizedResumeVersionID]; !ok {
			return nil, ErrNotFound
		}
	}
	if app.CustomizedCoverLetterVersionID != nil {
		if _, ok := s.versions[*app.CustomizedCoverLetterVersionID]; !ok {
			return nil, ErrNotFound
		}
	}
	if bind != nil && bind.CustomizedCoverLetter != nil {
		if app.CoverLetterID == nil {
			return nil, ErrNotFound
		}
		if _, ok := s.masters[*app.CoverLetterID]; !ok {
			return nil, ErrNotFound
		}
	}

	stored := *app
	if bind != nil && bind.CustomizedResume != nil {
		v := s.createVersionLocked(types.KindResume, stored.ResumeID, *bind.CustomizedResume)
		stored.CustomizedResumeVersionID = &v.ID
	}
	if bind != nil && bind.CustomizedCoverLetter != nil {
		v := s.createVersionLocked(types.KindCoverLetter, *stored.CoverLetterID, *bind.CustomizedCoverLetter)
		stored.CustomizedCoverLetterVersionID = &v.ID
	}
	if bind != nil && bind.GeneratedCoverLetter != nil {
		m, v1 := s.createMasterLocked(types.KindCoverLetter, stored.UserID, *bind.GeneratedCoverLetter)
		stored.CoverLetterID = &m.ID
		stored.CoverLetterVersionID = &v1.ID
	}
	stored.ID = uuid.New()
	if stored.Status == "" {
		stored.Status = types.StatusApplied
	}
	now := s.tick()
	if stored.AppliedDate.IsZero() {
		stored.AppliedDate = now.Truncate(24 * time.Hour)
	}
	stored.CreatedAt = now
	stored.UpdatedAt = now
	s.apps[stored.ID] = &stored

	out := stored
	return &out, nil
}

// GetApplication retrieves an application scoped to its owner.
func (s *MemoryStore) GetApplication(ctx context.Context, userID, applicationID uuid.UUID) (*types.Application, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	app, ok := s.apps[applicationID]
	if !ok || app.UserID != userID {
		return nil, ErrNotFound
	}
	out := *app
	return &out, nil
}

// ListApplications retrieves applications with filters and pagination.
func (s *MemoryStore) ListApplications(ctx context.Context, userID uuid.UUID, f types.ApplicationFilter) ([]types.Application, int, error) {
	if err := ctx.Err(); err != nil {
		return nil, 0, err
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	match := func(app *types.Application) bool {
		if f.Status != "" && app.Status != f.Status {
			return false
		}
		if f.Company != "" && !strings.Contains(strings.ToLower(app.Company), strings.ToLower(f.Company)) {
			return false
		}
		return true
	}
	return s.page(userID, match, f.Page, f.PerPage), s.count(userID, match), nil
}

// SearchApplications searches company, position, job description, and notes.
func (s *MemoryStore) SearchApplications(ctx context.Context, userID uuid.UUID, query string, page, perPage int) ([]types.Application, int, error) {
	if err := ctx.Err(); err != nil {
		return nil, 0, err
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	q := strings.ToLower(query)
	match := func(app *types.Application) bool {
		for _, field := range []string{app.Company, app.Position, app.JobDescription, app.Notes} {
			if strings.Contains(strings.ToLower(field), q) {
				return true
			}
		}
		return false
	}
	return s.page(userID, match, page, perPage), s.count(userID, match), nil
}

func (s *MemoryStore) count(userID uuid.UUID, match func(*types.Application) bool) int {
	n := 0
	for _, app := range s.apps {
		if app.UserID == userID && match(app) {
			n++
		}
	}
	return n
}

func (s *MemoryStore) page(userID uuid.UUID, match func(*types.Application) bool, page, perPage int) []types.Application {
	var out []types.Application
	for _, app := range s.apps {
		if app.UserID == userID && match(app) {
			out = append(out, *app)
		}
	}
	sort.Slice(out, func(i, j int) bool {
		if !out[i].AppliedDate.Equal(out[j].AppliedDate) {
			return out[i].AppliedDate.After(out[j].AppliedDate)
		}
		return out[i].CreatedAt.After(out[j].CreatedAt)
	})

	if page < 1 {
		page = 1
	}
	if perPage <= 0 {
		perPage = 20
	}
	start := (page - 1) * perPage
	if start >= len(out) {
		return nil
	}
	end := start + perPage
	if end > len(out) {
		end = len(out)
	}
	return out[start:end]
}

// UpdateApplication applies field changes. Reference slots are immutable.
func (s *MemoryStore) UpdateApplication(ctx context.Context, userID, applicationID uuid.UUID, upd types.ApplicationUpdate) (*types.Application, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	app, ok := s.apps[applicationID]
	if !ok || app.UserID != userID {
		return nil, ErrNotFound
	}
	if upd.Company != nil {
		app.Company = *upd.Company
	}
	if upd.Position != nil {
		app.Position = *upd.Position
	}
	if upd.JobDescription != nil {
		app.JobDescription = *upd.JobDescription
	}
	if upd.Status != nil {
		app.Status = *upd.Status
	}
	if upd.AppliedDate != nil {
		app.AppliedDate = *upd.AppliedDate
	}
	if upd.Notes != nil {
		app.Notes = *upd.Notes
	}
	app.UpdatedAt = s.tick()

	out := *app
	return &out, nil
}

// DeleteApplication removes the application and cascade-deletes the
// customized versions it owns.
func (s *MemoryStore) DeleteApplication(ctx context.Context, userID, applicationID uuid.UUID) (policy.Decision, error) {
	if err := ctx.Err(); err != nil {
		return policy.Decision{}, err
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	app, ok := s.apps[applicationID]
	if !ok || app.UserID != userID {
		return policy.Decision{}, ErrNotFound
	}

	d := policy.ForApplication(app)
	delete(s.apps, applicationID)
	for _, id := range d.CascadeVersionIDs {
		delete(s.versions, id)
	}
	return d, nil
}

// ApplicationStats summarizes a user's applications by status.
func (s *MemoryStore) ApplicationStats(ctx context.Context, userID uuid.UUID) (*types.ApplicationStats, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	stats := &types.ApplicationStats{ByStatus: make(map[string]int)}
	cutoff := time.Now().UTC().AddDate(0, 0, -30)
	for _, app := range s.apps {
		if app.UserID != userID {
			continue
		}
		stats.Total++
		stats.ByStatus[app.Status]++
		if app.AppliedDate.After(cutoff) {
			stats.RecentMonth++
		}
	}
	return stats, nil
}

// CreateTemplate stores a new cover letter template.
func (s *MemoryStore) CreateTemplate(ctx context.Context, in types.TemplateInput) (*types.Template, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	now := s.tick()
	t := &types.Template{
		ID: uuid.New(), Name: in.Name, Description: in.Description,
		Content: in.Content, CreatedAt: now, UpdatedAt: now,
	}
	s.templates[t.ID] = t

	out := *t
	return &out, nil
}

// GetTemplate retrieves a template by id.
func (s *MemoryStore) GetTemplate(ctx context.Context, templateID uuid.UUID) (*types.Template, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	t, ok := s.templates[templateID]
	if !ok {
		return nil, ErrNotFound
	}
	out := *t
	return &out, nil
}

// ListTemplates retrieves all templates ordered by name.
func (s *MemoryStore) ListTemplates(ctx context.Context) ([]types.Template, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	var out []types.Template
	for _, t := range s.templates {
		out = append(out, *t)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out, nil
}

// UpdateTemplate replaces a template's fields.
func (s *MemoryStore) UpdateTemplate(ctx context.Context, templateID uuid.UUID, in types.TemplateInput) (*types.Template, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	t, ok := s.templates[templateID]
	if !ok {
		return nil, ErrNotFound
	}
	t.Name = in.Name
	t.Description = in.Description
	t.Content = in.Content
	t.UpdatedAt = s.tick()

	out := *t
	return &out, nil
}

// DeleteTemplate removes a template.
func (s *MemoryStore) DeleteTemplate(ctx context.Context, templateID uuid.UUID) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.templates[templateID]; !ok {
		return ErrNotFound
	}
	delete(s.templates, templateID)
	return nil
}

// DeleteUser removes everything a user owns, applications first, with no
// policy checks.
func (s *MemoryStore) DeleteUser(ctx context.Context, userID uuid.UUID) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	for id, app := range s.apps {
		if app.UserID == userID {
			delete(s.apps, id)
		}
	}
	for id, m := range s.masters {
		if m.UserID != userID {
			continue
		}
		for vid, v := range s.versions {
			if v.Kind == m.Kind && v.MasterID == id {
				delete(s.versions, vid)
			}
		}
		delete(s.masters, id)
	}
	return nil
}
