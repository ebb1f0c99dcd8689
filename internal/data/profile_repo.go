package data

import (
	"context"
	"database/sql"
	"errors"
	"strings"

	"github.com/jackc/pgx/v5"

	"github.com/clinova/platform/internal/data/pgxutil"
	"github.com/clinova/platform/internal/domain/identity"
	errs "github.com/clinova/platform/internal/errors"
	"github.com/clinova/platform/internal/ports"
)

const profileColumns = `id, email, role, clinic_id, branch_id, tier, created_at, updated_at`

// ProfileRepo provides database operations for user-profile rows.
type ProfileRepo struct {
	DB           *sql.DB
	timeProvider TimeProvider
}

// NewProfileRepo creates a ProfileRepo with the real time provider.
func NewProfileRepo(db *sql.DB) *ProfileRepo {
	return &ProfileRepo{DB: db, timeProvider: &RealTimeProvider{}}
}

// NewProfileRepoWithTimeProvider creates a ProfileRepo with a custom time provider (useful for tests).
func NewProfileRepoWithTimeProvider(db *sql.DB, tp TimeProvider) *ProfileRepo {
	return &ProfileRepo{DB: db, timeProvider: tp}
}

var _ ports.ProfileStore = (*ProfileRepo)(nil)

// GetByID retrieves a profile by caller ID.
func (r *ProfileRepo) GetByID(ctx context.Context, id string) (*identity.Profile, error) {
	if strings.TrimSpace(id) == "" {
		return nil, errs.Validation("caller ID is required")
	}

	var out identity.Profile
	err := pgxutil.WithPgxConn(ctx, r.DB, func(conn *pgx.Conn) error {
		rows, err := conn.Query(ctx, `
			SELECT `+profileColumns+`
			FROM user_profiles
			WHERE id = $1
		`, id)
		if err != nil {
			return err
		}
		defer rows.Close()
		out, err = pgx.CollectOneRow(rows, pgx.RowToStructByName[identity.Profile])
		return err
	})
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ports.ErrProfileNotFound
		}
		return nil, errs.MapDBError(err)
	}
	return &out, nil
}

// Upsert inserts a minimal profile row for the caller, or returns the
// existing row when one is already present. Concurrent first-requests for
// the same new caller are safe: the conflict clause turns the second insert
// into a read of the winner's row.
func (r *ProfileRepo) Upsert(ctx context.Context, in ports.UpsertProfileInput) (*identity.Profile, error) {
	if strings.TrimSpace(in.ID) == "" {
		return nil, errs.Validation("caller ID is required")
	}
	if strings.TrimSpace(in.Email) == "" {
		return nil, errs.ProfileProvision("email is required to provision a profile")
	}

	role := in.Role
	if role == "" {
		role = "customer"
	}
	tier := identity.TierFor(identity.Normalize(role))
	now := r.timeProvider.Now().UTC()

	var out identity.Profile
	err := pgxutil.WithPgxConn(ctx, r.DB, func(conn *pgx.Conn) error {
		rows, err := conn.Query(ctx, `
			INSERT INTO user_profiles (id, email, role, clinic_id, branch_id, tier, created_at, updated_at)
			VALUES ($1, $2, $3, $4, $5, $6, $7, $7)
			ON CONFLICT (id) DO UPDATE SET updated_at = user_profiles.updated_at
			RETURNING `+profileColumns+`
		`, in.ID, strings.TrimSpace(in.Email), role, in.ClinicID, in.BranchID, tier, now)
		if err != nil {
			return err
		}
		defer rows.Close()
		out, err = pgx.CollectOneRow(rows, pgx.RowToStructByName[identity.Profile])
		return err
	})
	if err != nil {
		// A unique violation on a secondary constraint (e.g. email) means
		// another writer provisioned this caller first: re-read their row.
		if errs.IsUniqueViolation(err) {
			return r.GetByID(ctx, in.ID)
		}
		return nil, errs.MapDBError(err)
	}
	return &out, nil
}
