package db

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/jonathan/applytrack/internal/types"
)

// SQLSTATE classes for the constraint violations the schema's referential
// actions can raise. The deletion policy is evaluated before any mutation,
// so these fire only when the world changed between check and statement.
const (
	pgFKViolation     = "23503"
	pgUniqueViolation = "23505"
)

// pgErrCode returns err's SQLSTATE when a *pgconn.PgError is in its chain,
// or "" otherwise.
func pgErrCode(err error) string {
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		return pgErr.Code
	}
	return ""
}

// DB wraps a PostgreSQL connection pool and implements Store.
type DB struct {
	pool *pgxpool.Pool
}

// Connect establishes a connection pool to the database.
func Connect(ctx context.Context, databaseURL string) (*DB, error) {
	pool, err := pgxpool.New(ctx, databaseURL)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}

	// Verify connection
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}

	return &DB{pool: pool}, nil
}

// Close closes the connection pool.
func (db *DB) Close() {
	if db.pool != nil {
		db.pool.Close()
	}
}

// tables maps a document kind onto its master/version table names and the
// application columns that reference them. Table and column names are fixed
// identifiers, never user input.
type tables struct {
	master        string
	version       string
	masterFK      string // master FK column in the version table
	appMaster     string // application column referencing the master
	appVersion    string // application required-slot column
	appCustomized string // application owned-slot column

	refMaster     types.ReferenceKind
	refOriginal   types.ReferenceKind
	refCustomized types.ReferenceKind
}

func tablesFor(kind types.DocumentKind) (tables, error) {
	switch kind {
	case types.KindResume:
		return tables{
			master:        "resumes",
			version:       "resume_versions",
			masterFK:      "resume_id",
			appMaster:     "resume_id",
			appVersion:    "resume_version_id",
			appCustomized: "customized_resume_version_id",
			refMaster:     types.RefResumeMaster,
			refOriginal:   types.RefResumeOriginal,
			refCustomized: types.RefResumeCustomized,
		}, nil
	case types.KindCoverLetter:
		return tables{
			master:        "cover_letters",
			version:       "cover_letter_versions",
			masterFK:      "cover_letter_id",
			appMaster:     "cover_letter_id",
			appVersion:    "cover_letter_version_id",
			appCustomized: "customized_cover_letter_version_id",
			refMaster:     types.RefCoverLetterMaster,
			refOriginal:   types.RefCoverLetterOriginal,
			refCustomized: types.RefCoverLetterCustomized,
		}, nil
	default:
		return tables{}, fmt.Errorf("unknown document kind: %q", kind)
	}
}
