package accountsrepo

import (
	"context"
	"database/sql"
	"fmt"
)

const accountsTable = "webhook_router.accounts"

// PostgresStore keeps accounts in a single table keyed by phone_id.
// It honours the same contract as FileStore.
type PostgresStore struct {
	db *sql.DB
}

// NewPostgresStore creates a PostgresStore on an already migrated database.
func NewPostgresStore(db *sql.DB) *PostgresStore {
	return &PostgresStore{db: db}
}

// List returns every stored account ordered by phone id.
func (s *PostgresStore) List(ctx context.Context) ([]Account, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT app_id, phone_id, secret, token, destination_webhook FROM `+accountsTable+` ORDER BY phone_id`)
	if err != nil {
		return nil, fmt.Errorf("failed to query accounts: %w", err)
	}
	defer rows.Close() //nolint:errcheck

	var accounts []Account
	for rows.Next() {
		var acc Account
		if err := rows.Scan(&acc.AppID, &acc.PhoneID, &acc.Secret, &acc.Token, &acc.DestinationWebhook); err != nil {
			return nil, fmt.Errorf("failed to scan account: %w", err)
		}
		accounts = append(accounts, acc)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate accounts: %w", err)
	}
	return accounts, nil
}

// Save upserts the account, replacing every column of an existing row.
func (s *PostgresStore) Save(ctx context.Context, account Account) error {
	if err := account.Validate(); err != nil {
		return err
	}
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO `+accountsTable+` (phone_id, app_id, secret, token, destination_webhook)
		VALUES ($1, $2, $3, $4, $5)
		ON CONFLICT (phone_id) DO UPDATE SET
			app_id = EXCLUDED.app_id,
			secret = EXCLUDED.secret,
			token = EXCLUDED.token,
			destination_webhook = EXCLUDED.destination_webhook,
			updated_at = NOW()`,
		account.PhoneID, account.AppID, account.Secret, account.Token, account.DestinationWebhook)
	if err != nil {
		return fmt.Errorf("failed to save account: %w", err)
	}
	return nil
}

// Delete removes the account row. Deleting a missing account is not an error.
func (s *PostgresStore) Delete(ctx context.Context, phoneID string) error {
	if phoneID == "" {
		return nil
	}
	if _, err := s.db.ExecContext(ctx, `DELETE FROM `+accountsTable+` WHERE phone_id = $1`, phoneID); err != nil {
		return fmt.Errorf("failed to delete account: %w", err)
	}
	return nil
}
