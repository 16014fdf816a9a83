package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/jmoiron/sqlx"

	"github.com/oddslock/oddslock/internal/domain"
	"github.com/oddslock/oddslock/internal/version"
)

// versionRepo implements version.Store for PostgreSQL. The current
// record lives in a single-row table; every save also appends to the
// bump history for audit.
type versionRepo struct {
	db      *sqlx.DB
	timeout time.Duration
}

// NewVersionRepo creates a PostgreSQL version store.
func NewVersionRepo(db *sqlx.DB, timeout time.Duration) version.Store {
	return &versionRepo{db: db, timeout: timeout}
}

func (r *versionRepo) Load(ctx context.Context) (*domain.VersionRecord, error) {
	ctx, cancel := context.WithTimeout(ctx, r.timeout)
	defer cancel()

	query := `
		SELECT major, minor, patch, version, updated_at, updated_by,
		       change_description, git_commit_sha
		FROM decision_version
		WHERE id = 1`

	var rec domain.VersionRecord
	if err := r.db.GetContext(ctx, &rec, query); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to load version record: %w", err)
	}
	return &rec, nil
}

func (r *versionRepo) Save(ctx context.Context, rec domain.VersionRecord) error {
	ctx, cancel := context.WithTimeout(ctx, r.timeout)
	defer cancel()

	tx, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin version save: %w", err)
	}
	defer tx.Rollback()

	upsert := `
		INSERT INTO decision_version
		(id, major, minor, patch, version, updated_at, updated_by, change_description, git_commit_sha)
		VALUES (1, $1, $2, $3, $4, $5, $6, $7, $8)
		ON CONFLICT (id) DO UPDATE SET
			major = EXCLUDED.major,
			minor = EXCLUDED.minor,
			patch = EXCLUDED.patch,
			version = EXCLUDED.version,
			updated_at = EXCLUDED.updated_at,
			updated_by = EXCLUDED.updated_by,
			change_description = EXCLUDED.change_description,
			git_commit_sha = EXCLUDED.git_commit_sha`

	if _, err := tx.ExecContext(ctx, upsert,
		rec.Major, rec.Minor, rec.Patch, rec.Version, rec.UpdatedAt,
		rec.UpdatedBy, rec.ChangeDescription, rec.GitCommitSHA); err != nil {
		return fmt.Errorf("failed to upsert version record: %w", err)
	}

	history := `
		INSERT INTO decision_version_history
		(major, minor, patch, version, updated_at, updated_by, change_description, git_commit_sha)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)`

	if _, err := tx.ExecContext(ctx, history,
		rec.Major, rec.Minor, rec.Patch, rec.Version, rec.UpdatedAt,
		rec.UpdatedBy, rec.ChangeDescription, rec.GitCommitSHA); err != nil {
		return fmt.Errorf("failed to append version history: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit version save: %w", err)
	}
	return nil
}
