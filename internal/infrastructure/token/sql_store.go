package token

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"go.uber.org/zap"

	"github.com/garyjia/merchant-webhook/internal/application/port"
)

// SQLStore keeps merchant tokens in the access_tokens table
type SQLStore struct {
	db     *sql.DB
	logger *zap.Logger
}

// NewSQLStore creates a store over an already migrated database
func NewSQLStore(db *sql.DB, logger *zap.Logger) *SQLStore {
	return &SQLStore{db: db, logger: logger}
}

// GetAccessToken implements port.TokenLookup
func (s *SQLStore) GetAccessToken(ctx context.Context, merchantID string) (string, bool) {
	var token string
	err := s.db.QueryRowContext(ctx,
		`SELECT access_token FROM access_tokens WHERE merchant_id = ?`,
		merchantID,
	).Scan(&token)
	if errors.Is(err, sql.ErrNoRows) {
		return "", false
	}
	if err != nil {
		s.logger.Error("Failed to look up access token",
			zap.String("merchant_id", merchantID),
			zap.Error(err))
		return "", false
	}
	return token, token != ""
}

// PutAccessToken implements port.TokenStore
func (s *SQLStore) PutAccessToken(ctx context.Context, merchantID, token string) error {
	if merchantID == "" {
		return fmt.Errorf("merchant id is required")
	}

	query := `
		INSERT INTO access_tokens (merchant_id, access_token)
		VALUES (?, ?)
		ON CONFLICT(merchant_id) DO UPDATE SET
			access_token = excluded.access_token,
			updated_at = CURRENT_TIMESTAMP
	`
	if _, err := s.db.ExecContext(ctx, query, merchantID, token); err != nil {
		s.logger.Error("Failed to store access token",
			zap.String("merchant_id", merchantID),
			zap.Error(err))
		return fmt.Errorf("failed to store access token: %w", err)
	}

	s.logger.Info("Stored access token", zap.String("merchant_id", merchantID))
	return nil
}

// AccessTokens implements port.TokenStore
func (s *SQLStore) AccessTokens(ctx context.Context) (map[string]string, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT merchant_id, access_token FROM access_tokens`)
	if err != nil {
		return nil, fmt.Errorf("failed to query access tokens: %w", err)
	}
	defer rows.Close()

	tokens := make(map[string]string)
	for rows.Next() {
		var merchantID, token string
		if err := rows.Scan(&merchantID, &token); err != nil {
			return nil, fmt.Errorf("failed to scan access token: %w", err)
		}
		tokens[merchantID] = token
	}
	return tokens, rows.Err()
}

var _ port.TokenStore = (*SQLStore)(nil)
