package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/sadewadee/social-analytics/internal/domain"
)

// AccountRepository implements domain.AccountRepository for PostgreSQL
type AccountRepository struct {
	db *sql.DB
}

// NewAccountRepository creates a new AccountRepository
func NewAccountRepository(db *sql.DB) *AccountRepository {
	return &AccountRepository{db: db}
}

const accountColumns = `id, user_id, platform, handle, active, created_at, updated_at, last_synced_at, sync_error`

// GetByID retrieves an account by ID
func (r *AccountRepository) GetByID(ctx context.Context, id uuid.UUID) (*domain.SocialAccount, error) {
	query := `SELECT ` + accountColumns + ` FROM social_accounts WHERE id = $1`

	account, err := scanAccount(r.db.QueryRowContext(ctx, query, id))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, domain.ErrAccountNotFound
		}
		return nil, err
	}
	return account, nil
}

// List retrieves accounts matching the params
func (r *AccountRepository) List(ctx context.Context, params domain.AccountListParams) ([]domain.SocialAccount, error) {
	query := `SELECT ` + accountColumns + ` FROM social_accounts WHERE 1=1`
	args := []interface{}{}
	argNum := 1

	if params.UserID != nil {
		query += fmt.Sprintf(" AND user_id = $%d", argNum)
		args = append(args, *params.UserID)
		argNum++
	}
	if params.Platform != nil {
		query += fmt.Sprintf(" AND platform = $%d", argNum)
		args = append(args, string(*params.Platform))
		argNum++
	}
	if params.Active != nil {
		query += fmt.Sprintf(" AND active = $%d", argNum)
		args = append(args, *params.Active)
		argNum++
	}

	query += " ORDER BY created_at DESC"

	if params.Limit > 0 {
		query += fmt.Sprintf(" LIMIT $%d", argNum)
		args = append(args, params.Limit)
		argNum++
	}
	if params.Offset > 0 {
		query += fmt.Sprintf(" OFFSET $%d", argNum)
		args = append(args, params.Offset)
	}

	return r.queryAccounts(ctx, query, args...)
}

// ListActive retrieves all active accounts across users
func (r *AccountRepository) ListActive(ctx context.Context) ([]domain.SocialAccount, error) {
	query := `SELECT ` + accountColumns + ` FROM social_accounts WHERE active = true ORDER BY created_at`
	return r.queryAccounts(ctx, query)
}

// ListByUser retrieves all accounts for one user
func (r *AccountRepository) ListByUser(ctx context.Context, userID uuid.UUID) ([]domain.SocialAccount, error) {
	query := `SELECT ` + accountColumns + ` FROM social_accounts WHERE user_id = $1 ORDER BY created_at`
	return r.queryAccounts(ctx, query, userID)
}

// ListUserIDs returns the distinct user IDs that own active accounts
func (r *AccountRepository) ListUserIDs(ctx context.Context) ([]uuid.UUID, error) {
	query := `SELECT DISTINCT user_id FROM social_accounts WHERE active = true`

	rows, err := r.db.QueryContext(ctx, query)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var ids []uuid.UUID
	for rows.Next() {
		var id uuid.UUID
		if err := rows.Scan(&id); err != nil {
			return nil, err
		}
		ids = append(ids, id)
	}
	return ids, rows.Err()
}

// MarkSynced records a successful sync timestamp and clears the error
func (r *AccountRepository) MarkSynced(ctx context.Context, id uuid.UUID, at time.Time) error {
	query := `
		UPDATE social_accounts
		SET last_synced_at = $2, sync_error = NULL, updated_at = NOW()
		WHERE id = $1
	`
	_, err := r.db.ExecContext(ctx, query, id, at)
	return err
}

// MarkSyncError records the last sync error for an account
func (r *AccountRepository) MarkSyncError(ctx context.Context, id uuid.UUID, msg string) error {
	query := `
		UPDATE social_accounts
		SET sync_error = $2, updated_at = NOW()
		WHERE id = $1
	`
	_, err := r.db.ExecContext(ctx, query, id, msg)
	return err
}

func (r *AccountRepository) queryAccounts(ctx context.Context, query string, args ...interface{}) ([]domain.SocialAccount, error) {
	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var accounts []domain.SocialAccount
	for rows.Next() {
		account, err := scanAccount(rows)
		if err != nil {
			return nil, err
		}
		accounts = append(accounts, *account)
	}
	return accounts, rows.Err()
}

type rowScanner interface {
	Scan(dest ...interface{}) error
}

func scanAccount(row rowScanner) (*domain.SocialAccount, error) {
	var account domain.SocialAccount
	var platform string
	var lastSyncedAt sql.NullTime
	var syncError sql.NullString

	err := row.Scan(
		&account.ID,
		&account.UserID,
		&platform,
		&account.Handle,
		&account.Active,
		&account.CreatedAt,
		&account.UpdatedAt,
		&lastSyncedAt,
		&syncError,
	)
	if err != nil {
		return nil, err
	}

	account.Platform = domain.Platform(platform)
	if lastSyncedAt.Valid {
		account.LastSyncedAt = &lastSyncedAt.Time
	}
	if syncError.Valid {
		account.SyncError = &syncError.String
	}
	return &account, nil
}
