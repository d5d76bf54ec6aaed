package repository

import (
	"context"
	"database/sql"
	"log/slog"

	"github.com/maheshrc27/postflow-suggestions/internal/models"
)

type SocialAccountRepository interface {
	GetByUserAndPlatform(ctx context.Context, userID int64, platform string) (*models.SocialAccount, bool, error)
	ListByPlatform(ctx context.Context, platform string) ([]*models.SocialAccount, error)
}

type socialAccountRepository struct {
	db *sql.DB
}

func NewSocialAccountRepository(db *sql.DB) SocialAccountRepository {
	return &socialAccountRepository{db: db}
}

func (r *socialAccountRepository) GetByUserAndPlatform(ctx context.Context, userID int64, platform string) (*models.SocialAccount, bool, error) {
	query := `
		SELECT id, user_id, platform, account_id, account_username, access_token, token_expires_at
		FROM social_accounts
		WHERE user_id = $1 AND platform = $2
		ORDER BY updated_at DESC
		LIMIT 1
	`

	var sa models.SocialAccount
	err := r.db.QueryRowContext(ctx, query, userID, platform).Scan(&sa.ID, &sa.UserID, &sa.Platform,
		&sa.AccountID, &sa.AccountUsername, &sa.AccessToken, &sa.TokenExpiresAt)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, false, nil
		}
		slog.Info(err.Error())
		return nil, false, err
	}

	return &sa, true, nil
}

func (r *socialAccountRepository) ListByPlatform(ctx context.Context, platform string) ([]*models.SocialAccount, error) {
	query := `
		SELECT id, user_id, platform, account_id, account_username, access_token, token_expires_at
		FROM social_accounts
		WHERE platform = $1 AND token_expires_at > NOW()
	`
	rows, err := r.db.QueryContext(ctx, query, platform)
	if err != nil {
		slog.Info(err.Error())
		return nil, err
	}
	defer rows.Close()

	var accounts []*models.SocialAccount
	for rows.Next() {
		var sa models.SocialAccount
		err := rows.Scan(&sa.ID, &sa.UserID, &sa.Platform, &sa.AccountID, &sa.AccountUsername,
			&sa.AccessToken, &sa.TokenExpiresAt)
		if err != nil {
			slog.Info(err.Error())
			return nil, err
		}
		accounts = append(accounts, &sa)
	}

	if err := rows.Err(); err != nil {
		slog.Info(err.Error())
		return nil, err
	}
	return accounts, nil
}
