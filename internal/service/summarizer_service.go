package service

import (
	"context"
	"fmt"
	"log/slog"
	"regexp"
	"sort"
	"strings"
	"time"

	config "github.com/maheshrc27/postflow-suggestions/configs"
	"github.com/maheshrc27/postflow-suggestions/internal/apperr"
	"github.com/maheshrc27/postflow-suggestions/internal/models"
	"github.com/maheshrc27/postflow-suggestions/internal/repository"
	"github.com/maheshrc27/postflow-suggestions/internal/transfer"
	"github.com/maheshrc27/postflow-suggestions/pkg/utils"
)

// TopPostsLimit is how many ranked posts Summarize returns.
const TopPostsLimit = 5

var hashtagPattern = regexp.MustCompile(`#(\w+)`)

// SummarizerService keeps the local social post cache current and ranks it.
type SummarizerService interface {
	AccessToken(ctx context.Context, userID int64) (string, error)
	Summarize(ctx context.Context, userID int64, accessToken string, doRefresh bool) ([]*models.SocialPost, error)
	TopPosts(ctx context.Context, userID int64, doRefresh bool) ([]*models.SocialPost, error)
	Sync(ctx context.Context, acc *models.SocialAccount) (int, error)
}

type summarizerService struct {
	cfg   config.Config
	ig    InstagramService
	posts repository.SocialPostRepository
	sa    repository.SocialAccountRepository
}

func NewSummarizerService(
	cfg config.Config,
	ig InstagramService,
	posts repository.SocialPostRepository,
	sa repository.SocialAccountRepository) SummarizerService {
	return &summarizerService{
		cfg:   cfg,
		ig:    ig,
		posts: posts,
		sa:    sa,
	}
}

// AccessToken returns the decrypted token of the user's connected Instagram
// account.
func (s *summarizerService) AccessToken(ctx context.Context, userID int64) (string, error) {
	acc, exists, err := s.sa.GetByUserAndPlatform(ctx, userID, models.PlatformInstagram)
	if err != nil {
		return "", err
	}
	if !exists {
		err = fmt.Errorf("%w: no connected instagram account", apperr.ErrNotFound)
		slog.Info(err.Error())
		return "", err
	}
	return s.decrypt(acc)
}

func (s *summarizerService) decrypt(acc *models.SocialAccount) (string, error) {
	token, err := utils.Decrypt(acc.AccessToken, []byte(s.cfg.SecretKey))
	if err != nil {
		return "", fmt.Errorf("failed to decrypt instagram token: %w", err)
	}
	return token, nil
}

// Summarize optionally refreshes the cache, then returns the cached posts
// ranked by likes, at most TopPostsLimit of them. A failed refresh falls back
// to whatever is cached.
func (s *summarizerService) Summarize(ctx context.Context, userID int64, accessToken string, doRefresh bool) ([]*models.SocialPost, error) {
	if doRefresh && accessToken != "" {
		if _, err := s.refresh(ctx, userID, accessToken); err != nil {
			slog.Warn("social post refresh failed, using cached posts", "user_id", userID, "error", err)
		}
	}

	posts, err := s.posts.ListByUserID(ctx, userID)
	if err != nil {
		return nil, err
	}
	return RankByLikes(posts, TopPostsLimit), nil
}

func (s *summarizerService) TopPosts(ctx context.Context, userID int64, doRefresh bool) ([]*models.SocialPost, error) {
	token, err := s.AccessToken(ctx, userID)
	if err != nil {
		return nil, err
	}
	return s.Summarize(ctx, userID, token, doRefresh)
}

// Sync refreshes the cache for one connected account and reports how many
// new posts were stored.
func (s *summarizerService) Sync(ctx context.Context, acc *models.SocialAccount) (int, error) {
	token, err := s.decrypt(acc)
	if err != nil {
		return 0, err
	}
	return s.refresh(ctx, acc.UserID, token)
}

func (s *summarizerService) refresh(ctx context.Context, userID int64, accessToken string) (int, error) {
	media, err := s.ig.FetchMedia(ctx, accessToken)
	if err != nil {
		return 0, err
	}

	created := 0
	for _, m := range media {
		if m.ID == "" {
			continue
		}
		exists, err := s.posts.ExistsByExternalID(ctx, userID, m.ID)
		if err != nil {
			return created, err
		}
		if exists {
			continue
		}

		id, err := s.posts.Create(ctx, NewSocialPost(userID, m))
		if err != nil {
			return created, err
		}
		if id != 0 {
			created++
		}
	}
	return created, nil
}

// NewSocialPost maps one Instagram media item onto the cached post shape.
func NewSocialPost(userID int64, m transfer.InstagramMedia) *models.SocialPost {
	mediaURL := m.MediaURL
	if m.MediaType == "VIDEO" && m.ThumbnailURL != "" {
		mediaURL = m.ThumbnailURL
	}

	ts, err := time.Parse("2006-01-02T15:04:05-0700", m.Timestamp)
	if err != nil {
		ts, err = time.Parse(time.RFC3339, m.Timestamp)
		if err != nil {
			ts = time.Time{}
		}
	}

	return &models.SocialPost{
		UserID:        userID,
		ExternalID:    m.ID,
		Caption:       m.Caption,
		MediaType:     m.MediaType,
		MediaURL:      mediaURL,
		ContentType:   ClassifyMedia(m.MediaType, m.MediaProductType),
		Hashtags:      ExtractHashtags(m.Caption),
		Timestamp:     ts,
		LikeCount:     m.LikeCount,
		CommentsCount: m.CommentsCount,
	}
}

func ClassifyMedia(mediaType, productType string) string {
	switch {
	case strings.EqualFold(productType, "STORY"):
		return models.ContentTypeStory
	case strings.EqualFold(productType, "REELS"), strings.EqualFold(mediaType, "VIDEO"):
		return models.ContentTypeReel
	default:
		return models.ContentTypePost
	}
}

// ExtractHashtags returns the caption's #tokens lowercased, without the #,
// first occurrence wins.
func ExtractHashtags(caption string) []string {
	tags := []string{}
	seen := map[string]struct{}{}
	for _, m := range hashtagPattern.FindAllStringSubmatch(caption, -1) {
		tag := strings.ToLower(m[1])
		if _, dup := seen[tag]; dup {
			continue
		}
		seen[tag] = struct{}{}
		tags = append(tags, tag)
	}
	return tags
}

// RankByLikes orders posts by likeCount descending and keeps the first limit.
func RankByLikes(posts []*models.SocialPost, limit int) []*models.SocialPost {
	ranked := make([]*models.SocialPost, len(posts))
	copy(ranked, posts)
	sort.SliceStable(ranked, func(i, j int) bool {
		return ranked[i].LikeCount > ranked[j].LikeCount
	})
	if limit >= 0 && len(ranked) > limit {
		ranked = ranked[:limit]
	}
	return ranked
}
