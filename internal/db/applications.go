package db

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"

	"github.com/jonathan/applytrack/internal/policy"
	"github.com/jonathan/applytrack/internal/types"
)

const applicationColumns = `id, user_id, resume_id, resume_version_id, customized_resume_version_id,
	cover_letter_id, cover_letter_version_id, customized_cover_letter_version_id,
	company, position, COALESCE(job_description, ''), COALESCE(additional_instructions, ''),
	status, applied_date, COALESCE(notes, ''), created_at, updated_at`

func scanApplication(row pgx.Row) (*types.Application, error) {
	var a types.Application
	err := row.Scan(
		&a.ID, &a.UserID, &a.ResumeID, &a.ResumeVersionID, &a.CustomizedResumeVersionID,
		&a.CoverLetterID, &a.CoverLetterVersionID, &a.CustomizedCoverLetterVersionID,
		&a.Company, &a.Position, &a.JobDescription, &a.AdditionalInstructions,
		&a.Status, &a.AppliedDate, &a.Notes, &a.CreatedAt, &a.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	return &a, nil
}

// CreateApplication persists a fully-resolved application together with the
// document rows in bind, in one transaction. Reference validation and AI work
// happen in the binding manager before this call; a failure on any row rolls
// back the whole unit, so no customized version can outlive a failed create.
func (db *DB) CreateApplication(ctx context.Context, app *types.Application, bind *types.ApplicationBind) (*types.Application, error) {
	if app.Status == "" {
		app.Status = types.StatusApplied
	}
	if app.AppliedDate.IsZero() {
		app.AppliedDate = time.Now().UTC().Truncate(24 * time.Hour)
	}

	tx, err := db.pool.Begin(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer func() { _ = tx.Rollback(ctx) }()

	// Masters are locked resume first, then cover letter, matching every
	// other flow that touches both tables.
	if bind != nil && bind.CustomizedResume != nil {
		tb, _ := tablesFor(types.KindResume)
		if err := lockMaster(ctx, tx, tb, app.UserID, app.ResumeID); err != nil {
			return nil, err
		}
		v, err := insertVersion(ctx, tx, tb, types.KindResume, app.ResumeID, *bind.CustomizedResume)
		if err != nil {
			return nil, err
		}
		app.CustomizedResumeVersionID = &v.ID
	}
	if bind != nil && bind.CustomizedCoverLetter != nil {
		tb, _ := tablesFor(types.KindCoverLetter)
		if err := lockMaster(ctx, tx, tb, app.UserID, *app.CoverLetterID); err != nil {
			return nil, err
		}
		v, err := insertVersion(ctx, tx, tb, types.KindCoverLetter, *app.CoverLetterID, *bind.CustomizedCoverLetter)
		if err != nil {
			return nil, err
		}
		app.CustomizedCoverLetterVersionID = &v.ID
	}
	if bind != nil && bind.GeneratedCoverLetter != nil {
		tb, _ := tablesFor(types.KindCoverLetter)
		m, v1, err := insertMaster(ctx, tx, tb, types.KindCoverLetter, app.UserID, *bind.GeneratedCoverLetter)
		if err != nil {
			return nil, err
		}
		app.CoverLetterID = &m.ID
		app.CoverLetterVersionID = &v1.ID
	}

	row := tx.QueryRow(ctx, fmt.Sprintf(
		`INSERT INTO applications (
			user_id, resume_id, resume_version_id, customized_resume_version_id,
			cover_letter_id, cover_letter_version_id, customized_cover_letter_version_id,
			company, position, job_description, additional_instructions,
			status, applied_date, notes)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, NULLIF($10, ''), NULLIF($11, ''), $12, $13, NULLIF($14, ''))
		 RETURNING %s`, applicationColumns),
		app.UserID, app.ResumeID, app.ResumeVersionID, app.CustomizedResumeVersionID,
		app.CoverLetterID, app.CoverLetterVersionID, app.CustomizedCoverLetterVersionID,
		app.Company, app.Position, app.JobDescription, app.AdditionalInstructions,
		app.Status, app.AppliedDate, app.Notes,
	)
	created, err := scanApplication(row)
	if err != nil {
		// A bound document vanished between validation and insert.
		if pgErrCode(err) == pgFKViolation {
			return nil, ErrNotFound
		}
		if pgErrCode(err) == pgUniqueViolation {
			return nil, ErrConflict
		}
		return nil, fmt.Errorf("failed to create application: %w", err)
	}

	if err := tx.Commit(ctx); err != nil {
		return nil, fmt.Errorf("failed to commit: %w", err)
	}
	return created, nil
}

// GetApplication retrieves an application scoped to its owner.
func (db *DB) GetApplication(ctx context.Context, userID, applicationID uuid.UUID) (*types.Application, error) {
	return getApplication(ctx, db.pool, userID, applicationID, false)
}

// ListApplications retrieves a user's applications with optional filters and
// pagination, newest applied first. Returns the page plus the total count.
func (db *DB) ListApplications(ctx context.Context, userID uuid.UUID, f types.ApplicationFilter) ([]types.Application, int, error) {
	where := `WHERE user_id = $1`
	args := []any{userID}
	argNum := 2

	if f.Status != "" {
		where += fmt.Sprintf(" AND status = $%d", argNum)
		args = append(args, f.Status)
		argNum++
	}
	if f.Company != "" {
		where += fmt.Sprintf(" AND company ILIKE $%d", argNum)
		args = append(args, "%"+f.Company+"%")
		argNum++
	}

	return db.pageApplications(ctx, where, args, argNum, f.Page, f.PerPage)
}

// SearchApplications searches company, position, job description, and notes.
func (db *DB) SearchApplications(ctx context.Context, userID uuid.UUID, query string, page, perPage int) ([]types.Application, int, error) {
	where := `WHERE user_id = $1 AND (company ILIKE $2 OR position ILIKE $2
		OR job_description ILIKE $2 OR notes ILIKE $2)`
	args := []any{userID, "%" + query + "%"}
	return db.pageApplications(ctx, where, args, 3, page, perPage)
}

func (db *DB) pageApplications(ctx context.Context, where string, args []any, argNum, page, perPage int) ([]types.Application, int, error) {
	var total int
	err := db.pool.QueryRow(ctx, fmt.Sprintf(`SELECT COUNT(*) FROM applications %s`, where), args...).Scan(&total)
	if err != nil {
		return nil, 0, fmt.Errorf("failed to count applications: %w", err)
	}

	if page < 1 {
		page = 1
	}
	if perPage <= 0 {
		perPage = 20
	}

	query := fmt.Sprintf(
		`SELECT %s FROM applications %s ORDER BY applied_date DESC, created_at DESC LIMIT $%d OFFSET $%d`,
		applicationColumns, where, argNum, argNum+1,
	)
	args = append(args, perPage, (page-1)*perPage)

	rows, err := db.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, 0, fmt.Errorf("failed to list applications: %w", err)
	}
	defer rows.Close()

	var apps []types.Application
	for rows.Next() {
		app, err := scanApplication(rows)
		if err != nil {
			return nil, 0, fmt.Errorf("failed to scan application: %w", err)
		}
		apps = append(apps, *app)
	}
	return apps, total, rows.Err()
}

// UpdateApplication applies field changes. Reference slots are immutable.
func (db *DB) UpdateApplication(ctx context.Context, userID, applicationID uuid.UUID, upd types.ApplicationUpdate) (*types.Application, error) {
	query := `UPDATE applications SET updated_at = NOW()`
	args := []any{}
	argNum := 1

	set := func(column string, value any) {
		query += fmt.Sprintf(", %s = $%d", column, argNum)
		args = append(args, value)
		argNum++
	}
	if upd.Company != nil {
		set("company", *upd.Company)
	}
	if upd.Position != nil {
		set("position", *upd.Position)
	}
	if upd.JobDescription != nil {
		set("job_description", *upd.JobDescription)
	}
	if upd.Status != nil {
		set("status", *upd.Status)
	}
	if upd.AppliedDate != nil {
		set("applied_date", *upd.AppliedDate)
	}
	if upd.Notes != nil {
		set("notes", *upd.Notes)
	}

	query += fmt.Sprintf(" WHERE id = $%d AND user_id = $%d RETURNING %s", argNum, argNum+1, applicationColumns)
	args = append(args, applicationID, userID)

	app, err := scanApplication(db.pool.QueryRow(ctx, query, args...))
	if err != nil {
		if err == pgx.ErrNoRows {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("failed to update application: %w", err)
	}
	return app, nil
}

// DeleteApplication removes the application and cascade-deletes the
// customized versions it owns. Lock order is master first everywhere: the
// application row is read plainly to find the owned versions' masters, those
// are locked resume first, then the row is re-read under lock. The owned
// slots are immutable after creation and can only be cleared by a master
// cascade, so the re-read never needs a lock the first read did not take.
func (db *DB) DeleteApplication(ctx context.Context, userID, applicationID uuid.UUID) (policy.Decision, error) {
	tx, err := db.pool.Begin(ctx)
	if err != nil {
		return policy.Decision{}, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer func() { _ = tx.Rollback(ctx) }()

	app, err := getApplication(ctx, tx, userID, applicationID, false)
	if err != nil {
		return policy.Decision{}, err
	}

	if app.CustomizedResumeVersionID != nil {
		tb, _ := tablesFor(types.KindResume)
		if err := lockMaster(ctx, tx, tb, userID, app.ResumeID); err != nil {
			return policy.Decision{}, err
		}
	}
	if app.CustomizedCoverLetterVersionID != nil {
		tb, _ := tablesFor(types.KindCoverLetter)
		masterID, err := masterOfVersion(ctx, tx, tb, *app.CustomizedCoverLetterVersionID)
		if err != nil {
			return policy.Decision{}, err
		}
		if err := lockMaster(ctx, tx, tb, userID, masterID); err != nil {
			return policy.Decision{}, err
		}
	}

	app, err = getApplication(ctx, tx, userID, applicationID, true)
	if err != nil {
		return policy.Decision{}, err
	}

	d := policy.ForApplication(app)

	type owned struct {
		tb        tables
		versionID uuid.UUID
	}
	var cascade []owned
	if app.CustomizedResumeVersionID != nil {
		tb, _ := tablesFor(types.KindResume)
		cascade = append(cascade, owned{tb: tb, versionID: *app.CustomizedResumeVersionID})
	}
	if app.CustomizedCoverLetterVersionID != nil {
		tb, _ := tablesFor(types.KindCoverLetter)
		cascade = append(cascade, owned{tb: tb, versionID: *app.CustomizedCoverLetterVersionID})
	}

	if _, err = tx.Exec(ctx, `DELETE FROM applications WHERE id = $1`, applicationID); err != nil {
		return policy.Decision{}, fmt.Errorf("failed to delete application: %w", err)
	}
	for _, o := range cascade {
		if _, err = tx.Exec(ctx, fmt.Sprintf(
			`DELETE FROM %s WHERE id = $1`, o.tb.version), o.versionID); err != nil {
			if pgErrCode(err) == pgFKViolation {
				return policy.Decision{}, &policy.ReferencedError{}
			}
			return policy.Decision{}, fmt.Errorf("failed to cascade owned version: %w", err)
		}
	}

	if err := tx.Commit(ctx); err != nil {
		return policy.Decision{}, fmt.Errorf("failed to commit: %w", err)
	}
	return d, nil
}

func getApplication(ctx context.Context, q querier, userID, applicationID uuid.UUID, forUpdate bool) (*types.Application, error) {
	suffix := ""
	if forUpdate {
		suffix = " FOR UPDATE"
	}
	row := q.QueryRow(ctx, fmt.Sprintf(
		`SELECT %s FROM applications WHERE id = $1 AND user_id = $2%s`, applicationColumns, suffix),
		applicationID, userID,
	)
	app, err := scanApplication(row)
	if err != nil {
		if err == pgx.ErrNoRows {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("failed to get application: %w", err)
	}
	return app, nil
}

func masterOfVersion(ctx context.Context, q querier, tb tables, versionID uuid.UUID) (uuid.UUID, error) {
	var masterID uuid.UUID
	err := q.QueryRow(ctx, fmt.Sprintf(
		`SELECT %s FROM %s WHERE id = $1`, tb.masterFK, tb.version),
		versionID,
	).Scan(&masterID)
	if err != nil {
		if err == pgx.ErrNoRows {
			return uuid.Nil, ErrNotFound
		}
		return uuid.Nil, fmt.Errorf("failed to resolve version master: %w", err)
	}
	return masterID, nil
}

// ApplicationStats summarizes a user's applications by status plus the count
// applied within the last 30 days.
func (db *DB) ApplicationStats(ctx context.Context, userID uuid.UUID) (*types.ApplicationStats, error) {
	stats := &types.ApplicationStats{ByStatus: make(map[string]int)}

	rows, err := db.pool.Query(ctx,
		`SELECT status, COUNT(*) FROM applications WHERE user_id = $1 GROUP BY status`,
		userID,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to get application stats: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var status string
		var count int
		if err := rows.Scan(&status, &count); err != nil {
			return nil, fmt.Errorf("failed to scan stats: %w", err)
		}
		stats.ByStatus[status] = count
		stats.Total += count
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	err = db.pool.QueryRow(ctx,
		`SELECT COUNT(*) FROM applications WHERE user_id = $1 AND applied_date >= CURRENT_DATE - INTERVAL '30 days'`,
		userID,
	).Scan(&stats.RecentMonth)
	if err != nil {
		return nil, fmt.Errorf("failed to count recent applications: %w", err)
	}
	return stats, nil
}
