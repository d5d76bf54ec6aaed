package repository

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"

	"github.com/lib/pq"
	"github.com/maheshrc27/postflow-suggestions/internal/models"
)

type SuggestionRepository interface {
	ListByBucket(ctx context.Context, userID int64, source string) ([]*models.ContentSuggestion, error)
	DeleteByBucket(ctx context.Context, userID int64, source string) (int64, error)
	CreateMany(ctx context.Context, suggestions []*models.ContentSuggestion) error
	GetByID(ctx context.Context, id int64) (*models.ContentSuggestion, bool, error)
	Update(ctx context.Context, s *models.ContentSuggestion) error
}

type suggestionRepository struct {
	db *sql.DB
}

func NewSuggestionRepository(db *sql.DB) SuggestionRepository {
	return &suggestionRepository{db: db}
}

const suggestionColumns = `id, user_id, title, content, hashtags, image_urls, content_type, source, refreshed, created_at`

func scanSuggestion(row interface{ Scan(...any) error }) (*models.ContentSuggestion, error) {
	var s models.ContentSuggestion
	err := row.Scan(&s.ID, &s.UserID, &s.Title, &s.Content, pq.Array(&s.Hashtags), pq.Array(&s.ImageURLs),
		&s.ContentType, &s.Source, &s.Refreshed, &s.CreatedAt)
	if err != nil {
		return nil, err
	}
	return &s, nil
}

func (r *suggestionRepository) ListByBucket(ctx context.Context, userID int64, source string) ([]*models.ContentSuggestion, error) {
	query := `SELECT ` + suggestionColumns + ` FROM content_suggestions WHERE user_id = $1 AND source = $2 ORDER BY created_at DESC`

	rows, err := r.db.QueryContext(ctx, query, userID, source)
	if err != nil {
		slog.Info(err.Error())
		return nil, err
	}
	defer rows.Close()

	var suggestions []*models.ContentSuggestion
	for rows.Next() {
		s, err := scanSuggestion(rows)
		if err != nil {
			slog.Info(err.Error())
			return nil, err
		}
		suggestions = append(suggestions, s)
	}

	if err := rows.Err(); err != nil {
		slog.Info(err.Error())
		return nil, err
	}
	return suggestions, nil
}

func (r *suggestionRepository) DeleteByBucket(ctx context.Context, userID int64, source string) (int64, error) {
	query := `DELETE FROM content_suggestions WHERE user_id = $1 AND source = $2`
	result, err := r.db.ExecContext(ctx, query, userID, source)
	if err != nil {
		slog.Info(err.Error())
		return 0, err
	}

	affected, err := result.RowsAffected()
	if err != nil {
		slog.Info(err.Error())
		return 0, err
	}
	return affected, nil
}

// CreateMany inserts the batch in one transaction and fills in the generated ids.
func (r *suggestionRepository) CreateMany(ctx context.Context, suggestions []*models.ContentSuggestion) (err error) {
	tx, err := r.db.BeginTx(ctx, &sql.TxOptions{})
	if err != nil {
		slog.Info(err.Error())
		return err
	}
	defer func() {
		if err != nil {
			tx.Rollback()
		}
	}()

	query := `
		INSERT INTO content_suggestions (user_id, title, content, hashtags, image_urls, content_type, source, refreshed, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
		RETURNING id
	`
	for _, s := range suggestions {
		err = tx.QueryRowContext(ctx, query,
			s.UserID,
			s.Title,
			s.Content,
			pq.Array(s.Hashtags),
			pq.Array(s.ImageURLs),
			s.ContentType,
			s.Source,
			s.Refreshed,
			s.CreatedAt,
		).Scan(&s.ID)
		if err != nil {
			slog.Info(err.Error())
			return fmt.Errorf("insert suggestion %q: %w", s.Title, err)
		}
	}

	if err = tx.Commit(); err != nil {
		slog.Info(err.Error())
		return err
	}
	return nil
}

func (r *suggestionRepository) GetByID(ctx context.Context, id int64) (*models.ContentSuggestion, bool, error) {
	query := `SELECT ` + suggestionColumns + ` FROM content_suggestions WHERE id = $1`

	s, err := scanSuggestion(r.db.QueryRowContext(ctx, query, id))
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, false, nil
		}
		slog.Info(err.Error())
		return nil, false, err
	}
	return s, true, nil
}

func (r *suggestionRepository) Update(ctx context.Context, s *models.ContentSuggestion) error {
	query := `
		UPDATE content_suggestions
		SET content = $1,
			hashtags = $2,
			content_type = $3,
			image_urls = $4,
			refreshed = $5,
			created_at = $6
		WHERE id = $7
	`
	result, err := r.db.ExecContext(ctx, query,
		s.Content,
		pq.Array(s.Hashtags),
		s.ContentType,
		pq.Array(s.ImageURLs),
		s.Refreshed,
		s.CreatedAt,
		s.ID,
	)
	if err != nil {
		slog.Info(err.Error())
		return err
	}

	affected, err := result.RowsAffected()
	if err != nil {
		slog.Info(err.Error())
		return err
	}
	if affected != 1 {
		slog.Info("no rows affected; suggestion may not exist", "id", s.ID)
		return sql.ErrNoRows
	}
	return nil
}
