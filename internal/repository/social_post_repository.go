package repository

import (
	"context"
	"database/sql"
	"log/slog"

	"github.com/lib/pq"
	"github.com/maheshrc27/postflow-suggestions/internal/models"
)

type SocialPostRepository interface {
	ListByUserID(ctx context.Context, userID int64) ([]*models.SocialPost, error)
	ExistsByExternalID(ctx context.Context, userID int64, externalID string) (bool, error)
	Create(ctx context.Context, p *models.SocialPost) (int64, error)
}

type socialPostRepository struct {
	db *sql.DB
}

func NewSocialPostRepository(db *sql.DB) SocialPostRepository {
	return &socialPostRepository{db: db}
}

func (r *socialPostRepository) ListByUserID(ctx context.Context, userID int64) ([]*models.SocialPost, error) {
	query := `
		SELECT id, user_id, external_id, caption, media_type, media_url, content_type, hashtags,
			timestamp, like_count, comments_count, created_at
		FROM social_posts
		WHERE user_id = $1
		ORDER BY like_count DESC
	`
	rows, err := r.db.QueryContext(ctx, query, userID)
	if err != nil {
		slog.Info(err.Error())
		return nil, err
	}
	defer rows.Close()

	var posts []*models.SocialPost
	for rows.Next() {
		var p models.SocialPost
		err := rows.Scan(&p.ID, &p.UserID, &p.ExternalID, &p.Caption, &p.MediaType, &p.MediaURL, &p.ContentType,
			pq.Array(&p.Hashtags), &p.Timestamp, &p.LikeCount, &p.CommentsCount, &p.CreatedAt)
		if err != nil {
			slog.Info(err.Error())
			return nil, err
		}
		posts = append(posts, &p)
	}

	if err := rows.Err(); err != nil {
		slog.Info(err.Error())
		return nil, err
	}
	return posts, nil
}

func (r *socialPostRepository) ExistsByExternalID(ctx context.Context, userID int64, externalID string) (bool, error) {
	query := "SELECT 1 FROM social_posts WHERE user_id = $1 AND external_id = $2"

	var result int
	err := r.db.QueryRowContext(ctx, query, userID, externalID).Scan(&result)
	if err != nil {
		if err == sql.ErrNoRows {
			return false, nil
		}
		slog.Info(err.Error())
		return false, err
	}

	return result == 1, nil
}

// Create returns 0 when the post was already cached.
func (r *socialPostRepository) Create(ctx context.Context, p *models.SocialPost) (int64, error) {
	query := `
		INSERT INTO social_posts (user_id, external_id, caption, media_type, media_url, content_type, hashtags,
			timestamp, like_count, comments_count)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)
		ON CONFLICT (user_id, external_id) DO NOTHING
		RETURNING id
	`

	var id int64
	err := r.db.QueryRowContext(ctx, query,
		p.UserID,
		p.ExternalID,
		p.Caption,
		p.MediaType,
		p.MediaURL,
		p.ContentType,
		pq.Array(p.Hashtags),
		p.Timestamp,
		p.LikeCount,
		p.CommentsCount,
	).Scan(&id)
	if err != nil {
		if err == sql.ErrNoRows {
			return 0, nil
		}
		slog.Info(err.Error())
		return 0, err
	}

	return id, nil
}
