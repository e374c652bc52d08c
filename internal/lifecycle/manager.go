// Package lifecycle manages masters and their version histories: creation
// with an automatic original version, sequential labeling, draft editing, and
// policy-guarded deletion for both document families.
package lifecycle

import (
	"context"
	"fmt"
	"log"

	"github.com/google/uuid"

	"github.com/jonathan/applytrack/internal/db"
	"github.com/jonathan/applytrack/internal/deps"
	"github.com/jonathan/applytrack/internal/policy"
	"github.com/jonathan/applytrack/internal/types"
)

// Manager exposes the document lifecycle operations. All methods are scoped
// to a user and a document kind; the same manager serves both resumes and
// cover letters.
type Manager struct {
	store    db.Store
	resolver *deps.Resolver
}

// NewManager constructs a Manager over the given store.
func NewManager(store db.Store) *Manager {
	return &Manager{store: store, resolver: deps.NewResolver(store)}
}

// CreateMaster creates a master document with its initial "v1" original
// version holding the supplied content.
func (m *Manager) CreateMaster(ctx context.Context, kind types.DocumentKind, userID uuid.UUID, in types.MasterInput) (*types.Master, *types.Version, error) {
	if !kind.Valid() {
		return nil, nil, fmt.Errorf("unknown document kind: %q", kind)
	}
	if err := in.Validate(); err != nil {
		return nil, nil, fmt.Errorf("invalid %s: %w", kind, err)
	}
	return m.store.CreateMaster(ctx, kind, userID, in)
}

// GetMaster retrieves a master scoped to its owner.
func (m *Manager) GetMaster(ctx context.Context, kind types.DocumentKind, userID, masterID uuid.UUID) (*types.Master, error) {
	return m.store.GetMaster(ctx, kind, userID, masterID)
}

// ListMasters retrieves the user's masters of one kind, newest first.
func (m *Manager) ListMasters(ctx context.Context, kind types.DocumentKind, userID uuid.UUID) ([]types.Master, error) {
	return m.store.ListMasters(ctx, kind, userID)
}

// UpdateMaster applies metadata changes to a master.
func (m *Manager) UpdateMaster(ctx context.Context, kind types.DocumentKind, userID, masterID uuid.UUID, upd types.MasterUpdate) (*types.Master, error) {
	if upd.Title != nil && *upd.Title == "" {
		return nil, fmt.Errorf("title cannot be empty")
	}
	return m.store.UpdateMaster(ctx, kind, userID, masterID, upd)
}

// SetDefault marks a master as the user's default for its kind, clearing the
// flag on every other master of the same kind.
func (m *Manager) SetDefault(ctx context.Context, kind types.DocumentKind, userID, masterID uuid.UUID) (*types.Master, error) {
	isDefault := true
	return m.store.UpdateMaster(ctx, kind, userID, masterID, types.MasterUpdate{IsDefault: &isDefault})
}

// DeleteMaster deletes a master together with all of its versions. The
// deletion is rejected with a ReferencedError if any application holds a
// required reference to one of the versions. On success it returns the ids
// of the cascade-deleted versions.
func (m *Manager) DeleteMaster(ctx context.Context, kind types.DocumentKind, userID, masterID uuid.UUID) ([]uuid.UUID, error) {
	d, err := m.store.DeleteMaster(ctx, kind, userID, masterID)
	if err != nil {
		return nil, err
	}
	if err := d.Err(kind); err != nil {
		return nil, err
	}
	log.Printf("deleted %s %s with %d version(s)", kind, masterID, len(d.CascadeVersionIDs))
	return d.CascadeVersionIDs, nil
}

// CreateVersion creates a new version under a master. An empty Label gets
// the next sequential "v{n}" label.
func (m *Manager) CreateVersion(ctx context.Context, kind types.DocumentKind, userID, masterID uuid.UUID, in types.VersionInput) (*types.Version, error) {
	if err := in.Validate(); err != nil {
		return nil, fmt.Errorf("invalid %s version: %w", kind, err)
	}
	return m.store.CreateVersion(ctx, kind, userID, masterID, in)
}

// GetVersion retrieves a version scoped to its owner.
func (m *Manager) GetVersion(ctx context.Context, kind types.DocumentKind, userID, versionID uuid.UUID) (*types.Version, error) {
	return m.store.GetVersion(ctx, kind, userID, versionID)
}

// ListVersions retrieves a master's versions, newest first.
func (m *Manager) ListVersions(ctx context.Context, kind types.DocumentKind, userID, masterID uuid.UUID) ([]types.Version, error) {
	return m.store.ListVersions(ctx, kind, userID, masterID)
}

// UpdateDraft replaces a version's content. Only unreferenced versions can be
// edited; once any application binds the version it is immutable.
func (m *Manager) UpdateDraft(ctx context.Context, kind types.DocumentKind, userID, versionID uuid.UUID, content string) (*types.Version, error) {
	if content == "" {
		return nil, fmt.Errorf("content cannot be empty")
	}
	return m.store.UpdateVersionContent(ctx, kind, userID, versionID, content)
}

// DeleteVersion deletes one version. Rejections surface as OnlyVersionError,
// ReferencedError, or OwnedError depending on what blocks it.
func (m *Manager) DeleteVersion(ctx context.Context, kind types.DocumentKind, userID, versionID uuid.UUID) error {
	d, err := m.store.DeleteVersion(ctx, kind, userID, versionID)
	if err != nil {
		return err
	}
	return d.Err(kind)
}

// VersionDependents lists the applications referencing a version.
func (m *Manager) VersionDependents(ctx context.Context, kind types.DocumentKind, userID, versionID uuid.UUID) ([]types.ApplicationRef, error) {
	return m.resolver.VersionDependents(ctx, kind, userID, versionID)
}

// MasterDependents lists the applications referencing a master directly or
// through any of its versions.
func (m *Manager) MasterDependents(ctx context.Context, kind types.DocumentKind, userID, masterID uuid.UUID) ([]types.ApplicationRef, error) {
	return m.resolver.MasterDependents(ctx, kind, userID, masterID)
}

// PreviewDeleteVersion reports what deleting a version would do, without
// deleting it.
func (m *Manager) PreviewDeleteVersion(ctx context.Context, kind types.DocumentKind, userID, versionID uuid.UUID) (policy.Decision, error) {
	return m.resolver.PreviewVersionDelete(ctx, kind, userID, versionID)
}

// PreviewDeleteMaster reports what deleting a master would do, without
// deleting it.
func (m *Manager) PreviewDeleteMaster(ctx context.Context, kind types.DocumentKind, userID, masterID uuid.UUID) (policy.Decision, error) {
	return m.resolver.PreviewMasterDelete(ctx, kind, userID, masterID)
}
