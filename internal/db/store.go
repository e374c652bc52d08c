// Package db provides durable storage for masters, versions, applications,
// and cover letter templates, in two implementations: a PostgreSQL store
// backed by pgx and an in-memory store for tests. Deletion methods evaluate
// the policy engine inside the store's own mutual-exclusion scope (a
// transaction with the master row locked, or the memory store's mutex), so
// concurrent check-then-delete sequences on the same master serialize.
package db

import (
	"context"
	"errors"

	"github.com/google/uuid"

	"github.com/jonathan/applytrack/internal/policy"
	"github.com/jonathan/applytrack/internal/types"
)

// ErrNotFound indicates the entity does not exist or does not belong to the
// requesting user.
var ErrNotFound = errors.New("not found")

// ErrConflict indicates a uniqueness constraint rejected the write.
var ErrConflict = errors.New("already exists")

// Store defines persistence operations for the document lifecycle engine.
// Implemented by *DB (PostgreSQL) and *MemoryStore.
type Store interface {
	// Masters. CreateMaster persists the master together with its initial
	// original "v1" version atomically.
	CreateMaster(ctx context.Context, kind types.DocumentKind, userID uuid.UUID, in types.MasterInput) (*types.Master, *types.Version, error)
	GetMaster(ctx context.Context, kind types.DocumentKind, userID, masterID uuid.UUID) (*types.Master, error)
	ListMasters(ctx context.Context, kind types.DocumentKind, userID uuid.UUID) ([]types.Master, error)
	UpdateMaster(ctx context.Context, kind types.DocumentKind, userID, masterID uuid.UUID, upd types.MasterUpdate) (*types.Master, error)
	// DeleteMaster evaluates the deletion policy and, when allowed, removes
	// the master with all of its versions, clearing customized slots on
	// surviving applications. A rejecting decision performs no mutation.
	DeleteMaster(ctx context.Context, kind types.DocumentKind, userID, masterID uuid.UUID) (policy.Decision, error)

	// Versions. CreateVersion assigns the next sequential label when
	// in.Label is empty.
	CreateVersion(ctx context.Context, kind types.DocumentKind, userID, masterID uuid.UUID, in types.VersionInput) (*types.Version, error)
	GetVersion(ctx context.Context, kind types.DocumentKind, userID, versionID uuid.UUID) (*types.Version, error)
	ListVersions(ctx context.Context, kind types.DocumentKind, userID, masterID uuid.UUID) ([]types.Version, error)
	// UpdateVersionContent mutates a draft version in place. Versions
	// referenced by any application are immutable; the update is rejected
	// with a ReferencedError naming the blockers.
	UpdateVersionContent(ctx context.Context, kind types.DocumentKind, userID, versionID uuid.UUID, content string) (*types.Version, error)
	// DeleteVersion evaluates the deletion policy for a single version. A
	// rejecting decision performs no mutation.
	DeleteVersion(ctx context.Context, kind types.DocumentKind, userID, versionID uuid.UUID) (policy.Decision, error)

	// Reference scans for the dependency resolver. Both are pure reads.
	VersionRefs(ctx context.Context, kind types.DocumentKind, userID, versionID uuid.UUID) ([]types.ApplicationRef, error)
	MasterRefs(ctx context.Context, kind types.DocumentKind, userID, masterID uuid.UUID) ([]types.ApplicationRef, error)

	// Applications. CreateApplication persists the application together
	// with the document rows in bind (customized versions, a generated
	// cover letter) atomically; bind may be nil. The returned application
	// carries the ids of the rows the bind created.
	CreateApplication(ctx context.Context, app *types.Application, bind *types.ApplicationBind) (*types.Application, error)
	GetApplication(ctx context.Context, userID, applicationID uuid.UUID) (*types.Application, error)
	ListApplications(ctx context.Context, userID uuid.UUID, f types.ApplicationFilter) ([]types.Application, int, error)
	SearchApplications(ctx context.Context, userID uuid.UUID, query string, page, perPage int) ([]types.Application, int, error)
	UpdateApplication(ctx context.Context, userID, applicationID uuid.UUID, upd types.ApplicationUpdate) (*types.Application, error)
	// DeleteApplication removes the application and cascade-deletes the
	// customized versions it owns, atomically.
	DeleteApplication(ctx context.Context, userID, applicationID uuid.UUID) (policy.Decision, error)
	ApplicationStats(ctx context.Context, userID uuid.UUID) (*types.ApplicationStats, error)

	// Cover letter templates.
	CreateTemplate(ctx context.Context, in types.TemplateInput) (*types.Template, error)
	GetTemplate(ctx context.Context, templateID uuid.UUID) (*types.Template, error)
	ListTemplates(ctx context.Context) ([]types.Template, error)
	UpdateTemplate(ctx context.Context, templateID uuid.UUID, in types.TemplateInput) (*types.Template, error)
	DeleteTemplate(ctx context.Context, templateID uuid.UUID) error

	// DeleteUser removes the user with every application, master, and
	// version they own. Deletion policy checks do not apply: account
	// removal always fully cleans up.
	DeleteUser(ctx context.Context, userID uuid.UUID) error
}
