package db

import (
	"context"
	"fmt"

	"github.com/google/uuid"
)

// DeleteUser removes everything a user owns in one transaction.
// Applications go before documents so the required-reference restriction
// never fires: account removal always fully cleans up, the deletion policy
// applies only to direct user actions on documents.
func (db *DB) DeleteUser(ctx context.Context, userID uuid.UUID) error {
	tx, err := db.pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer func() { _ = tx.Rollback(ctx) }()

	statements := []string{
		`DELETE FROM applications WHERE user_id = $1`,
		`DELETE FROM resume_versions v USING resumes m WHERE v.resume_id = m.id AND m.user_id = $1`,
		`DELETE FROM resumes WHERE user_id = $1`,
		`DELETE FROM cover_letter_versions v USING cover_letters m WHERE v.cover_letter_id = m.id AND m.user_id = $1`,
		`DELETE FROM cover_letters WHERE user_id = $1`,
		`DELETE FROM users WHERE id = $1`,
	}
	for _, stmt := range statements {
		if _, err := tx.Exec(ctx, stmt, userID); err != nil {
			return fmt.Errorf("failed to delete user data: %w", err)
		}
	}

	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("failed to commit: %w", err)
	}
	return nil
}
