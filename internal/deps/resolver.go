// Package deps resolves reference relationships between applications and the
// documents they bind. Everything here is a pure read: the resolver answers
// "who depends on this" and "what would deleting this do" without mutating
// anything, so callers can present a dry-run before committing to a delete.
package deps

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"

	"github.com/jonathan/applytrack/internal/db"
	"github.com/jonathan/applytrack/internal/policy"
	"github.com/jonathan/applytrack/internal/types"
)

// Resolver answers dependency queries against a Store.
type Resolver struct {
	store db.Store
}

// NewResolver constructs a Resolver over the given store.
func NewResolver(store db.Store) *Resolver {
	return &Resolver{store: store}
}

// VersionDependents returns the applications referencing a version, one entry
// per application. Resolving the same version twice returns the same set.
func (r *Resolver) VersionDependents(ctx context.Context, kind types.DocumentKind, userID, versionID uuid.UUID) ([]types.ApplicationRef, error) {
	refs, err := r.store.VersionRefs(ctx, kind, userID, versionID)
	if err != nil {
		return nil, fmt.Errorf("failed to scan version references: %w", err)
	}
	return policy.Dedupe(refs), nil
}

// MasterDependents returns the applications referencing a master directly or
// through any of its versions, one entry per application.
func (r *Resolver) MasterDependents(ctx context.Context, kind types.DocumentKind, userID, masterID uuid.UUID) ([]types.ApplicationRef, error) {
	refs, err := r.store.MasterRefs(ctx, kind, userID, masterID)
	if err != nil {
		return nil, fmt.Errorf("failed to scan master references: %w", err)
	}
	return policy.Dedupe(refs), nil
}

// PreviewVersionDelete evaluates the deletion policy for a version without
// deleting anything. The answer is advisory: the store re-evaluates under its
// own exclusion when the delete actually runs.
func (r *Resolver) PreviewVersionDelete(ctx context.Context, kind types.DocumentKind, userID, versionID uuid.UUID) (policy.Decision, error) {
	v, err := r.store.GetVersion(ctx, kind, userID, versionID)
	if err != nil {
		return policy.Decision{}, err
	}

	var (
		refs     []types.ApplicationRef
		siblings []types.Version
	)
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		var err error
		refs, err = r.store.VersionRefs(gctx, kind, userID, versionID)
		return err
	})
	g.Go(func() error {
		var err error
		siblings, err = r.store.ListVersions(gctx, kind, userID, v.MasterID)
		return err
	})
	if err := g.Wait(); err != nil {
		return policy.Decision{}, fmt.Errorf("failed to preview version delete: %w", err)
	}

	return policy.ForVersion(refs, len(siblings) <= 1), nil
}

// PreviewMasterDelete evaluates the deletion policy for a master without
// deleting anything.
func (r *Resolver) PreviewMasterDelete(ctx context.Context, kind types.DocumentKind, userID, masterID uuid.UUID) (policy.Decision, error) {
	if _, err := r.store.GetMaster(ctx, kind, userID, masterID); err != nil {
		return policy.Decision{}, err
	}

	var (
		refs     []types.ApplicationRef
		versions []types.Version
	)
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		var err error
		refs, err = r.store.MasterRefs(gctx, kind, userID, masterID)
		return err
	})
	g.Go(func() error {
		var err error
		versions, err = r.store.ListVersions(gctx, kind, userID, masterID)
		return err
	})
	if err := g.Wait(); err != nil {
		return policy.Decision{}, fmt.Errorf("failed to preview master delete: %w", err)
	}

	ids := make([]uuid.UUID, len(versions))
	for i, v := range versions {
		ids[i] = v.ID
	}
	return policy.ForMaster(refs, ids), nil
}

// PreviewApplicationDelete reports the customized versions that would be
// cascade deleted with the application.
func (r *Resolver) PreviewApplicationDelete(ctx context.Context, userID, applicationID uuid.UUID) (policy.Decision, error) {
	app, err := r.store.GetApplication(ctx, userID, applicationID)
	if err != nil {
		return policy.Decision{}, err
	}
	return policy.ForApplication(app), nil
}
