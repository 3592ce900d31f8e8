package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/sadewadee/social-analytics/internal/domain"
)

// AccountRepository implements domain.AccountRepository for SQLite
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
	query := `SELECT ` + accountColumns + ` FROM social_accounts WHERE id = ?`

	account, err := scanAccount(r.db.QueryRowContext(ctx, query, id.String()))
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

	if params.UserID != nil {
		query += " AND user_id = ?"
		args = append(args, params.UserID.String())
	}
	if params.Platform != nil {
		query += " AND platform = ?"
		args = append(args, string(*params.Platform))
	}
	if params.Active != nil {
		query += " AND active = ?"
		args = append(args, boolToInt(*params.Active))
	}

	query += " ORDER BY created_at DESC"

	if params.Limit > 0 {
		query += " LIMIT ?"
		args = append(args, params.Limit)
	}
	if params.Offset > 0 {
		query += " OFFSET ?"
		args = append(args, params.Offset)
	}

	return r.queryAccounts(ctx, query, args...)
}

// ListActive retrieves all active accounts across users
func (r *AccountRepository) ListActive(ctx context.Context) ([]domain.SocialAccount, error) {
	query := `SELECT ` + accountColumns + ` FROM social_accounts WHERE active = 1 ORDER BY created_at`
	return r.queryAccounts(ctx, query)
}

// ListByUser retrieves all accounts for one user
func (r *AccountRepository) ListByUser(ctx context.Context, userID uuid.UUID) ([]domain.SocialAccount, error) {
	query := `SELECT ` + accountColumns + ` FROM social_accounts WHERE user_id = ? ORDER BY created_at`
	return r.queryAccounts(ctx, query, userID.String())
}

// ListUserIDs returns the distinct user IDs that own active accounts
func (r *AccountRepository) ListUserIDs(ctx context.Context) ([]uuid.UUID, error) {
	rows, err := r.db.QueryContext(ctx, `SELECT DISTINCT user_id FROM social_accounts WHERE active = 1`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var ids []uuid.UUID
	for rows.Next() {
		var raw string
		if err := rows.Scan(&raw); err != nil {
			return nil, err
		}
		id, err := uuid.Parse(raw)
		if err != nil {
			return nil, fmt.Errorf("invalid user id %q: %w", raw, err)
		}
		ids = append(ids, id)
	}
	return ids, rows.Err()
}

// MarkSynced records a successful sync timestamp and clears the error
func (r *AccountRepository) MarkSynced(ctx context.Context, id uuid.UUID, at time.Time) error {
	query := `
		UPDATE social_accounts
		SET last_synced_at = ?, sync_error = NULL, updated_at = ?
		WHERE id = ?
	`
	now := time.Now().UTC().Format(time.RFC3339)
	_, err := r.db.ExecContext(ctx, query, at.UTC().Format(time.RFC3339), now, id.String())
	return err
}

// MarkSyncError records the last sync error for an account
func (r *AccountRepository) MarkSyncError(ctx context.Context, id uuid.UUID, msg string) error {
	query := `
		UPDATE social_accounts
		SET sync_error = ?, updated_at = ?
		WHERE id = ?
	`
	now := time.Now().UTC().Format(time.RFC3339)
	_, err := r.db.ExecContext(ctx, query, msg, now, id.String())
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
	var id, userID, platform string
	var active int
	var createdAt, updatedAt string
	var lastSyncedAt, syncError sql.NullString

	err := row.Scan(&id, &userID, &platform, &account.Handle, &active, &createdAt, &updatedAt, &lastSyncedAt, &syncError)
	if err != nil {
		return nil, err
	}

	if account.ID, err = uuid.Parse(id); err != nil {
		return nil, fmt.Errorf("invalid account id %q: %w", id, err)
	}
	if account.UserID, err = uuid.Parse(userID); err != nil {
		return nil, fmt.Errorf("invalid user id %q: %w", userID, err)
	}
	account.Platform = domain.Platform(platform)
	account.Active = active != 0

	if account.CreatedAt, err = parseTime(createdAt); err != nil {
		return nil, err
	}
	if account.UpdatedAt, err = parseTime(updatedAt); err != nil {
		return nil, err
	}
	if lastSyncedAt.Valid {
		t, err := parseTime(lastSyncedAt.String)
		if err != nil {
			return nil, err
		}
		account.LastSyncedAt = &t
	}
	if syncError.Valid {
		account.SyncError = &syncError.String
	}
	return &account, nil
}

func parseTime(s string) (time.Time, error) {
	t, err := time.Parse(time.RFC3339, s)
	if err != nil {
		return time.Time{}, fmt.Errorf("invalid timestamp %q: %w", s, err)
	}
	return t, nil
}

func boolToInt(b bool) int {
	if b {
		return 1
	}
	return 0
}
