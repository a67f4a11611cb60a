package pgsql

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/SscSPs/ledger_sync/internal/apperrors"
	"github.com/SscSPs/ledger_sync/internal/core/domain"
	portsrepo "github.com/SscSPs/ledger_sync/internal/core/ports/repositories"
	"github.com/SscSPs/ledger_sync/internal/models"
	"github.com/SscSPs/ledger_sync/internal/platform/crypto"
	"github.com/SscSPs/ledger_sync/internal/utils/mapping"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

// PgxConnectionRepository stores accounting connections. OAuth tokens are
// sealed before they reach the database and opened on the way out.
type PgxConnectionRepository struct {
	BaseRepository
	sealer crypto.Sealer
}

func newPgxConnectionRepository(pool *pgxpool.Pool, sealer crypto.Sealer) portsrepo.ConnectionRepositoryFacade {
	return &PgxConnectionRepository{
		BaseRepository: BaseRepository{Pool: pool},
		sealer:         sealer,
	}
}

var _ portsrepo.ConnectionRepositoryFacade = (*PgxConnectionRepository)(nil)

const connectionSelect = `
SELECT
	connection_id, tenant_id, realm_id, access_token, refresh_token, access_token_expires_at,
	status, version, created_at, created_by, last_updated_at, last_updated_by
FROM accounting_connections
`

func (r *PgxConnectionRepository) findOne(ctx context.Context, filter string, args ...any) (*domain.Connection, error) {
	rows, err := r.Pool.Query(ctx, connectionSelect+filter, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query accounting connection: %w", err)
	}
	m, err := pgx.CollectExactlyOneRow(rows, pgx.RowToStructByName[models.Connection])
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, apperrors.ErrNotFound
		}
		return nil, fmt.Errorf("failed to collect accounting connection: %w", err)
	}
	return r.open(m)
}

func (r *PgxConnectionRepository) open(m models.Connection) (*domain.Connection, error) {
	access, err := r.sealer.Open(m.AccessToken)
	if err != nil {
		return nil, fmt.Errorf("open access token of connection %s: %w", m.ConnectionID, err)
	}
	refresh, err := r.sealer.Open(m.RefreshToken)
	if err != nil {
		return nil, fmt.Errorf("open refresh token of connection %s: %w", m.ConnectionID, err)
	}
	m.AccessToken, m.RefreshToken = access, refresh
	conn := mapping.ToDomainConnection(m)
	return &conn, nil
}

func (r *PgxConnectionRepository) seal(conn domain.Connection) (models.Connection, error) {
	m := mapping.ToModelConnection(conn)
	var err error
	if m.AccessToken, err = r.sealer.Seal(conn.AccessToken); err != nil {
		return models.Connection{}, fmt.Errorf("seal access token: %w", err)
	}
	if m.RefreshToken, err = r.sealer.Seal(conn.RefreshToken); err != nil {
		return models.Connection{}, fmt.Errorf("seal refresh token: %w", err)
	}
	return m, nil
}

func (r *PgxConnectionRepository) FindActiveConnection(ctx context.Context, tenantID string) (*domain.Connection, error) {
	return r.findOne(ctx, `WHERE tenant_id = $1 AND status = 'active'`, tenantID)
}

func (r *PgxConnectionRepository) FindConnectionByID(ctx context.Context, connectionID string) (*domain.Connection, error) {
	return r.findOne(ctx, `WHERE connection_id = $1`, connectionID)
}

// SaveConnection expires the tenant's current active connection, if any, and
// inserts the new one in the same transaction.
func (r *PgxConnectionRepository) SaveConnection(ctx context.Context, conn domain.Connection) error {
	m, err := r.seal(conn)
	if err != nil {
		return err
	}
	return r.withTx(ctx, func(tx pgx.Tx) error {
		_, err := tx.Exec(ctx, `
			UPDATE accounting_connections
			SET status = 'expired', version = version + 1, last_updated_at = $2, last_updated_by = $3
			WHERE tenant_id = $1 AND status = 'active'`,
			m.TenantID, m.LastUpdatedAt, m.LastUpdatedBy)
		if err != nil {
			return fmt.Errorf("failed to expire previous connection: %w", err)
		}

		_, err = tx.Exec(ctx, `
			INSERT INTO accounting_connections (
				connection_id, tenant_id, realm_id, access_token, refresh_token, access_token_expires_at,
				status, version, created_at, created_by, last_updated_at, last_updated_by
			) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12)`,
			m.ConnectionID, m.TenantID, m.RealmID, m.AccessToken, m.RefreshToken, m.AccessTokenExpiresAt,
			m.Status, m.Version, m.CreatedAt, m.CreatedBy, m.LastUpdatedAt, m.LastUpdatedBy)
		if err != nil {
			if isUniqueViolation(err) {
				return apperrors.NewAppError(http.StatusConflict, "connection "+m.ConnectionID+" already exists", apperrors.ErrDuplicate)
			}
			return fmt.Errorf("failed to insert accounting connection: %w", err)
		}
		return nil
	})
}

// UpdateTokens is a compare-and-swap on version so two refreshers cannot both
// persist a grant; the loser gets ErrConflict and re-reads.
func (r *PgxConnectionRepository) UpdateTokens(ctx context.Context, conn domain.Connection, expectedVersion int64) (*domain.Connection, error) {
	m, err := r.seal(conn)
	if err != nil {
		return nil, err
	}
	var newVersion int64
	err = r.Pool.QueryRow(ctx, `
		UPDATE accounting_connections
		SET access_token = $1, refresh_token = $2, access_token_expires_at = $3,
			version = version + 1, last_updated_at = $4, last_updated_by = $5
		WHERE connection_id = $6 AND version = $7 AND status = 'active'
		RETURNING version`,
		m.AccessToken, m.RefreshToken, m.AccessTokenExpiresAt, m.LastUpdatedAt, m.LastUpdatedBy,
		m.ConnectionID, expectedVersion,
	).Scan(&newVersion)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, apperrors.NewConflictError("connection " + conn.ConnectionID + " changed concurrently")
		}
		return nil, fmt.Errorf("failed to update connection tokens: %w", err)
	}
	conn.Version = newVersion
	return &conn, nil
}

func (r *PgxConnectionRepository) MarkExpired(ctx context.Context, connectionID string) error {
	tag, err := r.Pool.Exec(ctx, `
		UPDATE accounting_connections
		SET status = 'expired', version = version + 1, last_updated_at = $2, last_updated_by = $3
		WHERE connection_id = $1`,
		connectionID, time.Now().UTC(), domain.SystemUserID)
	if err != nil {
		return fmt.Errorf("failed to expire connection %s: %w", connectionID, err)
	}
	if tag.RowsAffected() == 0 {
		return apperrors.ErrNotFound
	}
	return nil
}
