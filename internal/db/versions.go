package db

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"

	"github.com/jonathan/applytrack/internal/policy"
	"github.com/jonathan/applytrack/internal/types"
)

// CreateVersion creates a new immutable version under a master. The master
// row is locked for the duration so label assignment stays sequential under
// concurrent requests.
func (db *DB) CreateVersion(ctx context.Context, kind types.DocumentKind, userID, masterID uuid.UUID, in types.VersionInput) (*types.Version, error) {
	tb, err := tablesFor(kind)
	if err != nil {
		return nil, err
	}

	tx, err := db.pool.Begin(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer func() { _ = tx.Rollback(ctx) }()

	if err := lockMaster(ctx, tx, tb, userID, masterID); err != nil {
		return nil, err
	}

	v, err := insertVersion(ctx, tx, tb, kind, masterID, in)
	if err != nil {
		return nil, err
	}

	if err := tx.Commit(ctx); err != nil {
		return nil, fmt.Errorf("failed to commit: %w", err)
	}
	return v, nil
}

// insertVersion assigns the next sequential label when in.Label is empty and
// inserts the row. Callers hold the master's row lock.
func insertVersion(ctx context.Context, q querier, tb tables, kind types.DocumentKind, masterID uuid.UUID, in types.VersionInput) (*types.Version, error) {
	label := in.Label
	if label == "" {
		var count int
		err := q.QueryRow(ctx, fmt.Sprintf(
			`SELECT COUNT(*) FROM %s WHERE %s = $1`, tb.version, tb.masterFK),
			masterID,
		).Scan(&count)
		if err != nil {
			return nil, fmt.Errorf("failed to count versions: %w", err)
		}
		label = fmt.Sprintf("v%d", count+1)
		if in.LabelSuffix != "" {
			label = fmt.Sprintf("%s - %s", label, in.LabelSuffix)
		}
	}

	var v types.Version
	v.Kind = kind
	err := q.QueryRow(ctx, fmt.Sprintf(
		`INSERT INTO %s (%s, label, content, job_description, is_original)
		 VALUES ($1, $2, $3, NULLIF($4, ''), $5)
		 RETURNING id, %s, label, content, COALESCE(job_description, ''), is_original, created_at`,
		tb.version, tb.masterFK, tb.masterFK),
		masterID, label, in.Content, in.JobDescription, in.IsOriginal,
	).Scan(&v.ID, &v.MasterID, &v.Label, &v.Content, &v.JobDescription, &v.IsOriginal, &v.CreatedAt)
	if err != nil {
		return nil, fmt.Errorf("failed to create version: %w", err)
	}
	return &v, nil
}

// GetVersion retrieves a version, scoped to the owner through its master.
func (db *DB) GetVersion(ctx context.Context, kind types.DocumentKind, userID, versionID uuid.UUID) (*types.Version, error) {
	tb, err := tablesFor(kind)
	if err != nil {
		return nil, err
	}
	return getVersion(ctx, db.pool, tb, kind, userID, versionID)
}

func getVersion(ctx context.Context, q querier, tb tables, kind types.DocumentKind, userID, versionID uuid.UUID) (*types.Version, error) {
	var v types.Version
	v.Kind = kind
	err := q.QueryRow(ctx, fmt.Sprintf(
		`SELECT v.id, v.%s, v.label, v.content, COALESCE(v.job_description, ''), v.is_original, v.created_at
		 FROM %s v JOIN %s m ON m.id = v.%s
		 WHERE v.id = $1 AND m.user_id = $2`,
		tb.masterFK, tb.version, tb.master, tb.masterFK),
		versionID, userID,
	).Scan(&v.ID, &v.MasterID, &v.Label, &v.Content, &v.JobDescription, &v.IsOriginal, &v.CreatedAt)
	if err != nil {
		if err == pgx.ErrNoRows {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("failed to get version: %w", err)
	}
	return &v, nil
}

// ListVersions retrieves a master's versions, newest first.
func (db *DB) ListVersions(ctx context.Context, kind types.DocumentKind, userID, masterID uuid.UUID) ([]types.Version, error) {
	tb, err := tablesFor(kind)
	if err != nil {
		return nil, err
	}

	if _, err := getMaster(ctx, db.pool, tb, kind, userID, masterID); err != nil {
		return nil, err
	}

	rows, err := db.pool.Query(ctx, fmt.Sprintf(
		`SELECT id, %s, label, content, COALESCE(job_description, ''), is_original, created_at
		 FROM %s WHERE %s = $1 ORDER BY created_at DESC, label DESC`,
		tb.masterFK, tb.version, tb.masterFK),
		masterID,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to list versions: %w", err)
	}
	defer rows.Close()

	var versions []types.Version
	for rows.Next() {
		var v types.Version
		v.Kind = kind
		if err := rows.Scan(&v.ID, &v.MasterID, &v.Label, &v.Content, &v.JobDescription, &v.IsOriginal, &v.CreatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan version: %w", err)
		}
		versions = append(versions, v)
	}
	return versions, rows.Err()
}

// UpdateVersionContent mutates a draft version in place. A version that any
// application references, through any slot, is immutable; callers fork a
// new version instead.
func (db *DB) UpdateVersionContent(ctx context.Context, kind types.DocumentKind, userID, versionID uuid.UUID, content string) (*types.Version, error) {
	tb, err := tablesFor(kind)
	if err != nil {
		return nil, err
	}

	tx, err := db.pool.Begin(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer func() { _ = tx.Rollback(ctx) }()

	// Lock order is master first everywhere; the master lock alone
	// serializes this against deletes and binds on the same document.
	v, err := getVersion(ctx, tx, tb, kind, userID, versionID)
	if err != nil {
		return nil, err
	}
	if err := lockMaster(ctx, tx, tb, userID, v.MasterID); err != nil {
		return nil, err
	}
	v, err = getVersion(ctx, tx, tb, kind, userID, versionID)
	if err != nil {
		return nil, err
	}

	refs, err := refsForVersions(ctx, tx, tb, userID, []uuid.UUID{versionID})
	if err != nil {
		return nil, err
	}
	if len(refs) > 0 {
		return nil, &policy.ReferencedError{Blockers: policy.Dedupe(refs)}
	}

	err = tx.QueryRow(ctx, fmt.Sprintf(
		`UPDATE %s SET content = $1 WHERE id = $2
		 RETURNING id, %s, label, content, COALESCE(job_description, ''), is_original, created_at`,
		tb.version, tb.masterFK),
		content, versionID,
	).Scan(&v.ID, &v.MasterID, &v.Label, &v.Content, &v.JobDescription, &v.IsOriginal, &v.CreatedAt)
	if err != nil {
		return nil, fmt.Errorf("failed to update version: %w", err)
	}

	if err := tx.Commit(ctx); err != nil {
		return nil, fmt.Errorf("failed to commit: %w", err)
	}
	return v, nil
}

// DeleteVersion evaluates the deletion policy for a single version inside
// one transaction, holding the master's row lock so two concurrent deletions
// of a master's last two versions cannot both see "not the last version".
func (db *DB) DeleteVersion(ctx context.Context, kind types.DocumentKind, userID, versionID uuid.UUID) (policy.Decision, error) {
	tb, err := tablesFor(kind)
	if err != nil {
		return policy.Decision{}, err
	}

	tx, err := db.pool.Begin(ctx)
	if err != nil {
		return policy.Decision{}, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer func() { _ = tx.Rollback(ctx) }()

	v, err := getVersion(ctx, tx, tb, kind, userID, versionID)
	if err != nil {
		return policy.Decision{}, err
	}
	if err := lockMaster(ctx, tx, tb, userID, v.MasterID); err != nil {
		return policy.Decision{}, err
	}

	var count int
	err = tx.QueryRow(ctx, fmt.Sprintf(
		`SELECT COUNT(*) FROM %s WHERE %s = $1`, tb.version, tb.masterFK),
		v.MasterID,
	).Scan(&count)
	if err != nil {
		return policy.Decision{}, fmt.Errorf("failed to count versions: %w", err)
	}

	refs, err := refsForVersions(ctx, tx, tb, userID, []uuid.UUID{versionID})
	if err != nil {
		return policy.Decision{}, err
	}

	d := policy.ForVersion(refs, count <= 1)
	if !d.Allowed() {
		return d, nil
	}

	if _, err = tx.Exec(ctx, fmt.Sprintf(
		`DELETE FROM %s WHERE id = $1`, tb.version), versionID); err != nil {
		// A reference that appeared after the policy check trips the FK
		// restriction; report it in the same shape as a policy rejection.
		if pgErrCode(err) == pgFKViolation {
			return policy.Decision{}, &policy.ReferencedError{}
		}
		return policy.Decision{}, fmt.Errorf("failed to delete version: %w", err)
	}

	if err := tx.Commit(ctx); err != nil {
		return policy.Decision{}, fmt.Errorf("failed to commit: %w", err)
	}
	return d, nil
}
