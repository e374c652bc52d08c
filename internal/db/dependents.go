package db

import (
	"context"
	"fmt"

	"github.com/google/uuid"

	"github.com/jonathan/applytrack/internal/types"
)

// refsForColumn returns one ApplicationRef per application whose given
// column matches any of ids, annotated with the reference kind the column
// carries.
func refsForColumn(ctx context.Context, q querier, column string, kind types.ReferenceKind, userID uuid.UUID, ids []uuid.UUID) ([]types.ApplicationRef, error) {
	if len(ids) == 0 {
		return nil, nil
	}
	rows, err := q.Query(ctx, fmt.Sprintf(
		`SELECT id, company, position FROM applications
		 WHERE user_id = $1 AND %s = ANY($2)
		 ORDER BY created_at`, column),
		userID, ids,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to scan %s references: %w", column, err)
	}
	defer rows.Close()

	var refs []types.ApplicationRef
	for rows.Next() {
		r := types.ApplicationRef{Kind: kind}
		if err := rows.Scan(&r.ApplicationID, &r.Company, &r.Position); err != nil {
			return nil, fmt.Errorf("failed to scan reference: %w", err)
		}
		refs = append(refs, r)
	}
	return refs, rows.Err()
}

// refsForVersions gathers every application reference to the given versions,
// across both the required and the owned column of the document kind.
func refsForVersions(ctx context.Context, q querier, tb tables, userID uuid.UUID, versionIDs []uuid.UUID) ([]types.ApplicationRef, error) {
	required, err := refsForColumn(ctx, q, tb.appVersion, tb.refOriginal, userID, versionIDs)
	if err != nil {
		return nil, err
	}
	owned, err := refsForColumn(ctx, q, tb.appCustomized, tb.refCustomized, userID, versionIDs)
	if err != nil {
		return nil, err
	}
	return append(required, owned...), nil
}

// VersionRefs returns every application referencing the version, annotated
// with the matching column. Pure read; safe to call speculatively.
func (db *DB) VersionRefs(ctx context.Context, kind types.DocumentKind, userID, versionID uuid.UUID) ([]types.ApplicationRef, error) {
	tb, err := tablesFor(kind)
	if err != nil {
		return nil, err
	}
	return refsForVersions(ctx, db.pool, tb, userID, []uuid.UUID{versionID})
}

// MasterRefs returns every application referencing the master directly or
// through any of its versions. Pure read; safe to call speculatively.
func (db *DB) MasterRefs(ctx context.Context, kind types.DocumentKind, userID, masterID uuid.UUID) ([]types.ApplicationRef, error) {
	tb, err := tablesFor(kind)
	if err != nil {
		return nil, err
	}

	direct, err := refsForColumn(ctx, db.pool, tb.appMaster, tb.refMaster, userID, []uuid.UUID{masterID})
	if err != nil {
		return nil, err
	}

	versionIDs, err := versionIDsUnder(ctx, db.pool, tb, masterID)
	if err != nil {
		return nil, err
	}
	viaVersions, err := refsForVersions(ctx, db.pool, tb, userID, versionIDs)
	if err != nil {
		return nil, err
	}
	return append(direct, viaVersions...), nil
}
