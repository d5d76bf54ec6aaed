package repository

import (
	"context"
	"database/sql"
	"log/slog"

	"github.com/lib/pq"
	"github.com/maheshrc27/postflow-suggestions/internal/models"
)

type BusinessProfileRepository interface {
	GetByUserID(ctx context.Context, userID int64) (*models.BusinessProfile, bool, error)
}

type businessProfileRepository struct {
	db *sql.DB
}

func NewBusinessProfileRepository(db *sql.DB) BusinessProfileRepository {
	return &businessProfileRepository{db: db}
}

func (r *businessProfileRepository) GetByUserID(ctx context.Context, userID int64) (*models.BusinessProfile, bool, error) {
	query := `
		SELECT id, user_id, business_type, tone_of_voice, audience_type, marketing_goals, content_types,
			post_length, emojis_allowed, favorite_emojis, hashtags_style, keywords, custom_hashtags,
			created_at, updated_at
		FROM business_profiles
		WHERE user_id = $1
	`
	row := r.db.QueryRowContext(ctx, query, userID)

	var p models.BusinessProfile
	err := row.Scan(
		&p.ID,
		&p.UserID,
		&p.BusinessType,
		&p.ToneOfVoice,
		&p.AudienceType,
		pq.Array(&p.MarketingGoals),
		pq.Array(&p.ContentTypes),
		&p.PostLength,
		&p.EmojisAllowed,
		pq.Array(&p.FavoriteEmojis),
		&p.HashtagsStyle,
		pq.Array(&p.Keywords),
		pq.Array(&p.CustomHashtags),
		&p.CreatedAt,
		&p.UpdatedAt,
	)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, false, nil
		}
		slog.Info(err.Error())
		return nil, false, err
	}

	return &p, true, nil
}
