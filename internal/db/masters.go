package db

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"

	"github.com/jonathan/applytrack/internal/policy"
	"github.com/jonathan/applytrack/internal/types"
)

// querier is satisfied by both *pgxpool.Pool and pgx.Tx.
type querier interface {
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
}

// CreateMaster creates a master document together with its initial original
// version in a single transaction.
func (db *DB) CreateMaster(ctx context.Context, kind types.DocumentKind, userID uuid.UUID, in types.MasterInput) (*types.Master, *types.Version, error) {
	tb, err := tablesFor(kind)
	if err != nil {
		return nil, nil, err
	}

	tx, err := db.pool.Begin(ctx)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer func() { _ = tx.Rollback(ctx) }()

	m, v, err := insertMaster(ctx, tx, tb, kind, userID, in)
	if err != nil {
		return nil, nil, err
	}

	if err := tx.Commit(ctx); err != nil {
		return nil, nil, fmt.Errorf("failed to commit: %w", err)
	}
	return m, v, nil
}

func insertMaster(ctx context.Context, q querier, tb tables, kind types.DocumentKind, userID uuid.UUID, in types.MasterInput) (*types.Master, *types.Version, error) {
	var m types.Master
	m.Kind = kind
	err := q.QueryRow(ctx, fmt.Sprintf(
		`INSERT INTO %s (user_id, title)
		 VALUES ($1, $2)
		 RETURNING id, user_id, title, is_default, created_at, updated_at`, tb.master),
		userID, in.Title,
	).Scan(&m.ID, &m.UserID, &m.Title, &m.IsDefault, &m.CreatedAt, &m.UpdatedAt)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to create %s: %w", kind, err)
	}

	var v types.Version
	v.Kind = kind
	err = q.QueryRow(ctx, fmt.Sprintf(
		`INSERT INTO %s (%s, label, content, is_original)
		 VALUES ($1, 'v1', $2, TRUE)
		 RETURNING id, %s, label, content, COALESCE(job_description, ''), is_original, created_at`,
		tb.version, tb.masterFK, tb.masterFK),
		m.ID, in.Content,
	).Scan(&v.ID, &v.MasterID, &v.Label, &v.Content, &v.JobDescription, &v.IsOriginal, &v.CreatedAt)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to create initial version: %w", err)
	}
	return &m, &v, nil
}

// GetMaster retrieves a master scoped to its owner.
func (db *DB) GetMaster(ctx context.Context, kind types.DocumentKind, userID, masterID uuid.UUID) (*types.Master, error) {
	tb, err := tablesFor(kind)
	if err != nil {
		return nil, err
	}
	return getMaster(ctx, db.pool, tb, kind, userID, masterID)
}

func getMaster(ctx context.Context, q querier, tb tables, kind types.DocumentKind, userID, masterID uuid.UUID) (*types.Master, error) {
	var m types.Master
	m.Kind = kind
	err := q.QueryRow(ctx, fmt.Sprintf(
		`SELECT id, user_id, title, is_default, created_at, updated_at
		 FROM %s WHERE id = $1 AND user_id = $2`, tb.master),
		masterID, userID,
	).Scan(&m.ID, &m.UserID, &m.Title, &m.IsDefault, &m.CreatedAt, &m.UpdatedAt)
	if err != nil {
		if err == pgx.ErrNoRows {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("failed to get %s: %w", kind, err)
	}
	return &m, nil
}

// ListMasters retrieves a user's masters, newest first.
func (db *DB) ListMasters(ctx context.Context, kind types.DocumentKind, userID uuid.UUID) ([]types.Master, error) {
	tb, err := tablesFor(kind)
	if err != nil {
		return nil, err
	}

	rows, err := db.pool.Query(ctx, fmt.Sprintf(
		`SELECT id, user_id, title, is_default, created_at, updated_at
		 FROM %s WHERE user_id = $1 ORDER BY created_at DESC`, tb.master),
		userID,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to list %ss: %w", kind, err)
	}
	defer rows.Close()

	var masters []types.Master
	for rows.Next() {
		var m types.Master
		m.Kind = kind
		if err := rows.Scan(&m.ID, &m.UserID, &m.Title, &m.IsDefault, &m.CreatedAt, &m.UpdatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan %s: %w", kind, err)
		}
		masters = append(masters, m)
	}
	return masters, rows.Err()
}

// UpdateMaster applies metadata changes. Setting IsDefault clears the flag
// on the user's other masters of the same kind.
func (db *DB) UpdateMaster(ctx context.Context, kind types.DocumentKind, userID, masterID uuid.UUID, upd types.MasterUpdate) (*types.Master, error) {
	tb, err := tablesFor(kind)
	if err != nil {
		return nil, err
	}

	tx, err := db.pool.Begin(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer func() { _ = tx.Rollback(ctx) }()

	if upd.IsDefault != nil && *upd.IsDefault {
		_, err = tx.Exec(ctx, fmt.Sprintf(
			`UPDATE %s SET is_default = FALSE WHERE user_id = $1 AND id <> $2`, tb.master),
			userID, masterID,
		)
		if err != nil {
			return nil, fmt.Errorf("failed to clear default flags: %w", err)
		}
	}

	query := fmt.Sprintf(`UPDATE %s SET updated_at = NOW()`, tb.master)
	args := []any{}
	argNum := 1
	if upd.Title != nil {
		query += fmt.Sprintf(", title = $%d", argNum)
		args = append(args, *upd.Title)
		argNum++
	}
	if upd.IsDefault != nil {
		query += fmt.Sprintf(", is_default = $%d", argNum)
		args = append(args, *upd.IsDefault)
		argNum++
	}
	query += fmt.Sprintf(
		" WHERE id = $%d AND user_id = $%d RETURNING id, user_id, title, is_default, created_at, updated_at",
		argNum, argNum+1,
	)
	args = append(args, masterID, userID)

	var m types.Master
	m.Kind = kind
	err = tx.QueryRow(ctx, query, args...).Scan(&m.ID, &m.UserID, &m.Title, &m.IsDefault, &m.CreatedAt, &m.UpdatedAt)
	if err != nil {
		if err == pgx.ErrNoRows {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("failed to update %s: %w", kind, err)
	}

	if err := tx.Commit(ctx); err != nil {
		return nil, fmt.Errorf("failed to commit: %w", err)
	}
	return &m, nil
}

// DeleteMaster evaluates the deletion policy for the master and all of its
// versions inside one transaction. The master row is locked first so
// concurrent deletions and version creations on the same master serialize.
func (db *DB) DeleteMaster(ctx context.Context, kind types.DocumentKind, userID, masterID uuid.UUID) (policy.Decision, error) {
	tb, err := tablesFor(kind)
	if err != nil {
		return policy.Decision{}, err
	}

	tx, err := db.pool.Begin(ctx)
	if err != nil {
		return policy.Decision{}, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer func() { _ = tx.Rollback(ctx) }()

	if err := lockMaster(ctx, tx, tb, userID, masterID); err != nil {
		return policy.Decision{}, err
	}

	versionIDs, err := versionIDsUnder(ctx, tx, tb, masterID)
	if err != nil {
		return policy.Decision{}, err
	}

	refs, err := refsForVersions(ctx, tx, tb, userID, versionIDs)
	if err != nil {
		return policy.Decision{}, err
	}

	d := policy.ForMaster(refs, versionIDs)
	if !d.Allowed() {
		return d, nil
	}

	// Surviving applications referencing a cascaded customized version keep
	// running with the slot cleared (SET NULL on cascade). Only cover letter
	// masters can be referenced by applications that outlive them.
	if len(versionIDs) > 0 {
		_, err = tx.Exec(ctx, fmt.Sprintf(
			`UPDATE applications SET %s = NULL WHERE user_id = $1 AND %s = ANY($2)`,
			tb.appCustomized, tb.appCustomized),
			userID, versionIDs,
		)
		if err != nil {
			return policy.Decision{}, fmt.Errorf("failed to clear customized references: %w", err)
		}
	}
	if kind == types.KindCoverLetter {
		_, err = tx.Exec(ctx,
			`UPDATE applications SET cover_letter_id = NULL WHERE user_id = $1 AND cover_letter_id = $2`,
			userID, masterID,
		)
		if err != nil {
			return policy.Decision{}, fmt.Errorf("failed to clear cover letter references: %w", err)
		}
	}

	if _, err = tx.Exec(ctx, fmt.Sprintf(
		`DELETE FROM %s WHERE %s = $1`, tb.version, tb.masterFK), masterID); err != nil {
		if pgErrCode(err) == pgFKViolation {
			return policy.Decision{}, &policy.ReferencedError{}
		}
		return policy.Decision{}, fmt.Errorf("failed to delete versions: %w", err)
	}
	if _, err = tx.Exec(ctx, fmt.Sprintf(
		`DELETE FROM %s WHERE id = $1`, tb.master), masterID); err != nil {
		if pgErrCode(err) == pgFKViolation {
			return policy.Decision{}, &policy.ReferencedError{}
		}
		return policy.Decision{}, fmt.Errorf("failed to delete %s: %w", kind, err)
	}

	if err := tx.Commit(ctx); err != nil {
		return policy.Decision{}, fmt.Errorf("failed to commit: %w", err)
	}
	return d, nil
}

// lockMaster takes a row lock on the master, scoped to its owner. Every
// mutating flow that depends on the master's version set goes through this
// lock, closing the check-then-act race between concurrent deletions.
func lockMaster(ctx context.Context, q querier, tb tables, userID, masterID uuid.UUID) error {
	var id uuid.UUID
	err := q.QueryRow(ctx, fmt.Sprintf(
		`SELECT id FROM %s WHERE id = $1 AND user_id = $2 FOR UPDATE`, tb.master),
		masterID, userID,
	).Scan(&id)
	if err != nil {
		if err == pgx.ErrNoRows {
			return ErrNotFound
		}
		return fmt.Errorf("failed to lock master: %w", err)
	}
	return nil
}

func versionIDsUnder(ctx context.Context, q querier, tb tables, masterID uuid.UUID) ([]uuid.UUID, error) {
	rows, err := q.Query(ctx, fmt.Sprintf(
		`SELECT id FROM %s WHERE %s = $1`, tb.version, tb.masterFK), masterID)
	if err != nil {
		return nil, fmt.Errorf("failed to list version ids: %w", err)
	}
	defer rows.Close()

	var ids []uuid.UUID
	for rows.Next() {
		var id uuid.UUID
		if err := rows.Scan(&id); err != nil {
			return nil, fmt.Errorf("failed to scan version id: %w", err)
		}
		ids = append(ids, id)
	}
	return ids, rows.Err()
}
