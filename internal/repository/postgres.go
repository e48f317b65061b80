package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/bwmarrin/snowflake"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/kasinadhsarma/vectorshift/internal/domain/connector"
)

// PostgresCredentialRepo implements CredentialRepository on a pgx pool.
type PostgresCredentialRepo struct {
	db   *pgxpool.Pool
	node *snowflake.Node
}

var _ CredentialRepository = (*PostgresCredentialRepo)(nil)

func NewPostgresCredentialRepo(pool *pgxpool.Pool, node *snowflake.Node) *PostgresCredentialRepo {
	return &PostgresCredentialRepo{db: pool, node: node}
}

// The unique index on (provider, org_id, user_id) makes the upsert a
// single-statement full-row replace: readers never observe a mix of old and
// new fields.
const upsertCredentialSQL = `INSERT INTO connector_credentials
	(id, provider, org_id, user_id, access_token, refresh_token, expires_at, scope, connected_at, updated_at)
VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)
ON CONFLICT (provider, org_id, user_id) DO UPDATE SET
	access_token = EXCLUDED.access_token,
	refresh_token = EXCLUDED.refresh_token,
	expires_at = EXCLUDED.expires_at,
	scope = EXCLUDED.scope,
	updated_at = EXCLUDED.updated_at`

func (r *PostgresCredentialRepo) Save(ctx context.Context, bundle connector.CredentialBundle) error {
	touchTimestamps(&bundle, time.Now().UTC())
	refresh := sql.NullString{}
	if bundle.RefreshToken != "" {
		refresh = sql.NullString{String: bundle.RefreshToken, Valid: true}
	}
	expires := sql.NullTime{}
	if bundle.ExpiresAt != nil {
		expires = sql.NullTime{Time: *bundle.ExpiresAt, Valid: true}
	}
	if _, err := r.db.Exec(ctx, upsertCredentialSQL,
		r.node.Generate().Int64(),
		bundle.Provider,
		bundle.OrgID,
		bundle.UserID,
		bundle.AccessToken,
		refresh,
		expires,
		bundle.Scope,
		bundle.ConnectedAt,
		bundle.UpdatedAt,
	); err != nil {
		return fmt.Errorf("save credential: %w", err)
	}
	return nil
}

const getCredentialSQL = `SELECT provider, org_id, user_id, access_token, refresh_token, expires_at, scope, connected_at, updated_at
FROM connector_credentials
WHERE provider = $1 AND org_id = $2 AND user_id = $3`

func (r *PostgresCredentialRepo) Get(ctx context.Context, provider, orgID, userID string) (*connector.CredentialBundle, error) {
	var (
		bundle  connector.CredentialBundle
		refresh sql.NullString
		expires sql.NullTime
	)
	err := r.db.QueryRow(ctx, getCredentialSQL, provider, orgID, userID).Scan(
		&bundle.Provider,
		&bundle.OrgID,
		&bundle.UserID,
		&bundle.AccessToken,
		&refresh,
		&expires,
		&bundle.Scope,
		&bundle.ConnectedAt,
		&bundle.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("get credential: %w", err)
	}
	bundle.RefreshToken = refresh.String
	if expires.Valid {
		t := expires.Time
		bundle.ExpiresAt = &t
	}
	return &bundle, nil
}

const deleteCredentialSQL = `DELETE FROM connector_credentials
WHERE provider = $1 AND org_id = $2 AND user_id = $3`

func (r *PostgresCredentialRepo) Delete(ctx context.Context, provider, orgID, userID string) error {
	if _, err := r.db.Exec(ctx, deleteCredentialSQL, provider, orgID, userID); err != nil {
		return fmt.Errorf("delete credential: %w", err)
	}
	return nil
}

// touchTimestamps backfills zero timestamps; the repo never writes zero
// values into the table.
func touchTimestamps(bundle *connector.CredentialBundle, now time.Time) {
	if bundle.ConnectedAt.IsZero() {
		bundle.ConnectedAt = now
	}
	if bundle.UpdatedAt.IsZero() {
		bundle.UpdatedAt = now
	}
}
