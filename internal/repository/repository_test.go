package repository

import (
	"context"
	"database/sql"
	"regexp"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/maheshrc27/postflow-suggestions/internal/models"
)

func newMockDB(t *testing.T) (*sql.DB, sqlmock.Sqlmock) {
	t.Helper()
	db, mock, err := sqlmock.New(sqlmock.QueryMatcherOption(sqlmock.QueryMatcherRegexp))
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })
	return db, mock
}

var suggestionRowColumns = []string{"id", "user_id", "title", "content", "hashtags", "image_urls", "content_type", "source", "refreshed", "created_at"}

func TestSuggestionListByBucketOrdersNewestFirst(t *testing.T) {
	db, mock := newMockDB(t)
	repo := NewSuggestionRepository(db)
	newest := time.Date(2026, 10, 15, 9, 0, 0, 0, time.UTC)

	mock.ExpectQuery(regexp.QuoteMeta(`FROM content_suggestions WHERE user_id = $1 AND source = $2 ORDER BY created_at DESC`)).
		WithArgs(int64(7), models.SourceBusinessProfile).
		WillReturnRows(sqlmock.NewRows(suggestionRowColumns).
			AddRow(int64(2), int64(7), "Fresh bread", "Come early", "{bakery,bread}", "{http://cdn/a.png}", "Post", "businessProfile", false, newest).
			AddRow(int64(1), int64(7), "Croissants", "Buttery", "{}", "{}", "Reel", "businessProfile", true, newest.Add(-time.Hour)))

	got, err := repo.ListByBucket(context.Background(), 7, models.SourceBusinessProfile)
	require.NoError(t, err)
	require.Len(t, got, 2)
	assert.Equal(t, int64(2), got[0].ID)
	assert.Equal(t, []string{"bakery", "bread"}, got[0].Hashtags)
	assert.Equal(t, []string{"http://cdn/a.png"}, got[0].ImageURLs)
	assert.True(t, got[1].Refreshed)
	assert.Empty(t, got[1].Hashtags)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestSuggestionDeleteByBucket(t *testing.T) {
	db, mock := newMockDB(t)
	repo := NewSuggestionRepository(db)

	mock.ExpectExec(regexp.QuoteMeta(`DELETE FROM content_suggestions WHERE user_id = $1 AND source = $2`)).
		WithArgs(int64(7), models.SourceUserProfile).
		WillReturnResult(sqlmock.NewResult(0, 3))

	n, err := repo.DeleteByBucket(context.Background(), 7, models.SourceUserProfile)
	require.NoError(t, err)
	assert.Equal(t, int64(3), n)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestSuggestionCreateManyAssignsIDsInOneTransaction(t *testing.T) {
	db, mock := newMockDB(t)
	repo := NewSuggestionRepository(db)
	now := time.Now()

	mock.ExpectBegin()
	for i := 1; i <= 3; i++ {
		mock.ExpectQuery(`INSERT INTO content_suggestions`).
			WithArgs(int64(7), sqlmock.AnyArg(), sqlmock.AnyArg(), sqlmock.AnyArg(), sqlmock.AnyArg(), "Post", "businessProfile", false, now).
			WillReturnRows(sqlmock.NewRows([]string{"id"}).AddRow(int64(100 + i)))
	}
	mock.ExpectCommit()

	batch := []*models.ContentSuggestion{
		{UserID: 7, Title: "a", Content: "a", ContentType: "Post", Source: "businessProfile", CreatedAt: now},
		{UserID: 7, Title: "b", Content: "b", ContentType: "Post", Source: "businessProfile", CreatedAt: now},
		{UserID: 7, Title: "c", Content: "c", ContentType: "Post", Source: "businessProfile", CreatedAt: now},
	}
	require.NoError(t, repo.CreateMany(context.Background(), batch))
	assert.Equal(t, int64(101), batch[0].ID)
	assert.Equal(t, int64(103), batch[2].ID)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestSuggestionCreateManyRollsBackOnFailure(t *testing.T) {
	db, mock := newMockDB(t)
	repo := NewSuggestionRepository(db)

	mock.ExpectBegin()
	mock.ExpectQuery(`INSERT INTO content_suggestions`).WillReturnError(sql.ErrConnDone)
	mock.ExpectRollback()

	err := repo.CreateMany(context.Background(), []*models.ContentSuggestion{{UserID: 7, Title: "a"}})
	require.Error(t, err)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestSuggestionGetByIDMissing(t *testing.T) {
	db, mock := newMockDB(t)
	repo := NewSuggestionRepository(db)

	mock.ExpectQuery(regexp.QuoteMeta(`FROM content_suggestions WHERE id = $1`)).
		WithArgs(int64(99)).
		WillReturnError(sql.ErrNoRows)

	s, exists, err := repo.GetByID(context.Background(), 99)
	require.NoError(t, err)
	assert.False(t, exists)
	assert.Nil(t, s)
}

func TestSuggestionUpdateRequiresExistingRow(t *testing.T) {
	db, mock := newMockDB(t)
	repo := NewSuggestionRepository(db)

	mock.ExpectExec(`UPDATE content_suggestions`).WillReturnResult(sqlmock.NewResult(0, 0))

	err := repo.Update(context.Background(), &models.ContentSuggestion{ID: 5})
	assert.ErrorIs(t, err, sql.ErrNoRows)
}

func TestSocialPostCreateSkipsDuplicates(t *testing.T) {
	db, mock := newMockDB(t)
	repo := NewSocialPostRepository(db)

	mock.ExpectQuery(`INSERT INTO social_posts`).WillReturnError(sql.ErrNoRows)

	id, err := repo.Create(context.Background(), &models.SocialPost{UserID: 7, ExternalID: "ig_1"})
	require.NoError(t, err)
	assert.Zero(t, id)
}

func TestSocialPostExistsByExternalID(t *testing.T) {
	db, mock := newMockDB(t)
	repo := NewSocialPostRepository(db)

	mock.ExpectQuery(regexp.QuoteMeta(`SELECT 1 FROM social_posts WHERE user_id = $1 AND external_id = $2`)).
		WithArgs(int64(7), "ig_1").
		WillReturnRows(sqlmock.NewRows([]string{"?column?"}).AddRow(1))
	mock.ExpectQuery(regexp.QuoteMeta(`SELECT 1 FROM social_posts WHERE user_id = $1 AND external_id = $2`)).
		WithArgs(int64(7), "ig_2").
		WillReturnError(sql.ErrNoRows)

	exists, err := repo.ExistsByExternalID(context.Background(), 7, "ig_1")
	require.NoError(t, err)
	assert.True(t, exists)

	exists, err = repo.ExistsByExternalID(context.Background(), 7, "ig_2")
	require.NoError(t, err)
	assert.False(t, exists)
}

func TestBusinessProfileGetByUserID(t *testing.T) {
	db, mock := newMockDB(t)
	repo := NewBusinessProfileRepository(db)
	now := time.Now()

	mock.ExpectQuery(`FROM business_profiles`).
		WithArgs(int64(7)).
		WillReturnRows(sqlmock.NewRows([]string{
			"id", "user_id", "business_type", "tone_of_voice", "audience_type", "marketing_goals", "content_types",
			"post_length", "emojis_allowed", "favorite_emojis", "hashtags_style", "keywords", "custom_hashtags",
			"created_at", "updated_at",
		}).AddRow(int64(1), int64(7), "Bakery", "Friendly", "Locals", "{awareness,sales}", "{Post}",
			"short", true, "{🥐}", "fewRelevant", "{sourdough}", "{bakedfresh}", now, now))

	p, exists, err := repo.GetByUserID(context.Background(), 7)
	require.NoError(t, err)
	require.True(t, exists)
	assert.Equal(t, "Bakery", p.BusinessType)
	assert.Equal(t, []string{"awareness", "sales"}, p.MarketingGoals)
	assert.Equal(t, []string{"Post"}, p.ContentTypes)
	assert.Equal(t, []string{"bakedfresh"}, p.CustomHashtags)
}

func TestSocialAccountGetByUserAndPlatformMissing(t *testing.T) {
	db, mock := newMockDB(t)
	repo := NewSocialAccountRepository(db)

	mock.ExpectQuery(`FROM social_accounts`).
		WithArgs(int64(7), models.PlatformInstagram).
		WillReturnError(sql.ErrNoRows)

	acc, exists, err := repo.GetByUserAndPlatform(context.Background(), 7, models.PlatformInstagram)
	require.NoError(t, err)
	assert.False(t, exists)
	assert.Nil(t, acc)
}
