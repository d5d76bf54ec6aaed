package service

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"golang.org/x/sync/singleflight"

	config "github.com/maheshrc27/postflow-suggestions/configs"
	"github.com/maheshrc27/postflow-suggestions/internal/apperr"
	"github.com/maheshrc27/postflow-suggestions/internal/generation"
	"github.com/maheshrc27/postflow-suggestions/internal/metrics"
	"github.com/maheshrc27/postflow-suggestions/internal/models"
	"github.com/maheshrc27/postflow-suggestions/internal/parser"
	"github.com/maheshrc27/postflow-suggestions/internal/prompt"
	"github.com/maheshrc27/postflow-suggestions/internal/repository"
)

type SuggestionService interface {
	GetOrGenerate(ctx context.Context, userID int64, source string) ([]*models.ContentSuggestion, error)
	RefreshOne(ctx context.Context, userID, suggestionID int64) (*models.ContentSuggestion, error)
}

// Generator is the retrying front of the text and image services.
type Generator interface {
	GenerateText(ctx context.Context, parts []generation.MessagePart) (string, error)
	GenerateImages(ctx context.Context, prompt string, n int) ([]string, error)
}

type ImageMaterializer interface {
	Materialize(ctx context.Context, remoteURLs []string) []string
}

type suggestionService struct {
	gen          config.Generation
	suggestions  repository.SuggestionRepository
	profiles     repository.BusinessProfileRepository
	summarizer   SummarizerService
	generator    Generator
	materializer ImageMaterializer
	now          func() time.Time
	flight       singleflight.Group
}

func NewSuggestionService(
	gen config.Generation,
	suggestions repository.SuggestionRepository,
	profiles repository.BusinessProfileRepository,
	summarizer SummarizerService,
	generator Generator,
	materializer ImageMaterializer) SuggestionService {
	return &suggestionService{
		gen:          gen,
		suggestions:  suggestions,
		profiles:     profiles,
		summarizer:   summarizer,
		generator:    generator,
		materializer: materializer,
		now:          time.Now,
	}
}

// IsStale reports whether a bucket, ordered newest first, must be regenerated.
func IsStale(bucket []*models.ContentSuggestion, minCount int, maxAge time.Duration, now time.Time) bool {
	if len(bucket) < minCount || len(bucket) == 0 {
		return true
	}
	return now.Sub(bucket[0].CreatedAt) > maxAge
}

// GetOrGenerate serves the (user, source) bucket from the store while it is
// fresh. A stale bucket is evicted before the replacement batch is generated,
// so a failed generation leaves it empty. Concurrent calls for one bucket in
// this process share a single run.
func (s *suggestionService) GetOrGenerate(ctx context.Context, userID int64, source string) ([]*models.ContentSuggestion, error) {
	if userID <= 0 {
		return nil, fmt.Errorf("%w: invalid user id %d", apperr.ErrValidation, userID)
	}
	if !models.IsValidSource(source) {
		return nil, fmt.Errorf("%w: unknown source %q", apperr.ErrValidation, source)
	}

	key := fmt.Sprintf("%d:%s", userID, source)
	v, err, _ := s.flight.Do(key, func() (interface{}, error) {
		return s.getOrGenerate(ctx, userID, source)
	})
	if err != nil {
		return nil, err
	}
	return v.([]*models.ContentSuggestion), nil
}

func (s *suggestionService) getOrGenerate(ctx context.Context, userID int64, source string) ([]*models.ContentSuggestion, error) {
	bucket, err := s.suggestions.ListByBucket(ctx, userID, source)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", apperr.ErrStorage, err)
	}

	if !IsStale(bucket, s.gen.MinCount, s.gen.MaxAge, s.now()) {
		metrics.BucketDecisions.WithLabelValues(source, "served").Inc()
		return bucket, nil
	}
	metrics.BucketDecisions.WithLabelValues(source, "regenerated").Inc()
	slog.Info("regenerating suggestion bucket", "user_id", userID, "source", source, "cached", len(bucket))

	job, err := s.prepare(ctx, userID, source, s.gen.MinCount)
	if err != nil {
		return nil, err
	}

	deleted, err := s.suggestions.DeleteByBucket(ctx, userID, source)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", apperr.ErrStorage, err)
	}
	if deleted > 0 {
		slog.Info("evicted suggestion bucket", "user_id", userID, "source", source, "deleted", deleted)
	}

	fresh, err := s.run(ctx, job)
	if err != nil {
		metrics.GenerationFailures.WithLabelValues(apperr.Label(err)).Inc()
		slog.Warn("suggestion generation failed after eviction", "user_id", userID, "source", source, "error", err)
		return nil, err
	}

	if err := s.suggestions.CreateMany(ctx, fresh); err != nil {
		metrics.GenerationFailures.WithLabelValues(apperr.Label(apperr.ErrStorage)).Inc()
		return nil, fmt.Errorf("%w: %v", apperr.ErrStorage, err)
	}
	return fresh, nil
}

// RefreshOne regenerates a single suggestion in place, keeping its id and
// title. The new createdAt also makes it the bucket's newest item.
func (s *suggestionService) RefreshOne(ctx context.Context, userID, suggestionID int64) (*models.ContentSuggestion, error) {
	if suggestionID <= 0 {
		return nil, fmt.Errorf("%w: invalid suggestion id %d", apperr.ErrValidation, suggestionID)
	}

	current, exists, err := s.suggestions.GetByID(ctx, suggestionID)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", apperr.ErrStorage, err)
	}
	if !exists || current.UserID != userID {
		return nil, fmt.Errorf("%w: suggestion %d", apperr.ErrNotFound, suggestionID)
	}

	job, err := s.prepare(ctx, userID, current.Source, 1)
	if err != nil {
		return nil, err
	}
	generated, err := s.run(ctx, job)
	if err != nil {
		metrics.GenerationFailures.WithLabelValues(apperr.Label(err)).Inc()
		return nil, err
	}

	next := generated[0]
	updated := *current
	updated.Content = next.Content
	updated.Hashtags = next.Hashtags
	updated.ContentType = next.ContentType
	updated.ImageURLs = next.ImageURLs
	updated.CreatedAt = next.CreatedAt
	updated.Refreshed = true

	if err := s.suggestions.Update(ctx, &updated); err != nil {
		return nil, fmt.Errorf("%w: %v", apperr.ErrStorage, err)
	}
	return &updated, nil
}

// job is everything the pipeline needs that can fail with NotFound, resolved
// before anything is evicted.
type job struct {
	userID      int64
	source      string
	count       int
	profile     *models.BusinessProfile
	accessToken string
}

func (s *suggestionService) prepare(ctx context.Context, userID int64, source string, count int) (*job, error) {
	profile, exists, err := s.profiles.GetByUserID(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", apperr.ErrStorage, err)
	}
	if !exists {
		return nil, fmt.Errorf("%w: business profile for user %d", apperr.ErrNotFound, userID)
	}

	j := &job{userID: userID, source: source, count: count, profile: profile}
	if source == models.SourceUserProfile {
		token, err := s.summarizer.AccessToken(ctx, userID)
		if err != nil {
			return nil, err
		}
		j.accessToken = token
	}
	return j, nil
}

// run is the staged pipeline summarize → buildPrompt → generateText → parse →
// generateImages → materialize. It stops at the first failing stage; image
// failures degrade instead of failing.
func (s *suggestionService) run(ctx context.Context, j *job) ([]*models.ContentSuggestion, error) {
	in, err := s.summarize(ctx, j)
	if err != nil {
		return nil, err
	}

	raw, err := s.generator.GenerateText(ctx, prompt.Build(in))
	if err != nil {
		return nil, err
	}

	items, err := s.parse(raw, j)
	if err != nil {
		return nil, err
	}

	images := s.images(ctx, j.profile, items)

	createdAt := s.now().UTC()
	out := make([]*models.ContentSuggestion, len(items))
	for i, it := range items {
		out[i] = &models.ContentSuggestion{
			UserID:      j.userID,
			Title:       it.Title,
			Content:     it.Content,
			Hashtags:    []string(it.Hashtags),
			ImageURLs:   images[i],
			ContentType: it.ContentType,
			Source:      j.source,
			CreatedAt:   createdAt,
		}
	}
	return out, nil
}

func (s *suggestionService) summarize(ctx context.Context, j *job) (prompt.Input, error) {
	in := prompt.Input{Profile: j.profile, Count: j.count}
	if j.source != models.SourceUserProfile {
		return in, nil
	}

	top, err := s.summarizer.Summarize(ctx, j.userID, j.accessToken, s.gen.RefreshOnGenerate)
	if err != nil {
		return in, fmt.Errorf("%w: %v", apperr.ErrStorage, err)
	}
	in.Posts = make([]models.SocialPost, 0, len(top))
	for _, p := range top {
		in.Posts = append(in.Posts, *p)
	}
	return in, nil
}

func (s *suggestionService) parse(raw string, j *job) ([]parser.Item, error) {
	items, err := parser.Parse(raw, j.profile.ContentTypes)
	if err != nil {
		return nil, err
	}
	if len(items) == 0 {
		return nil, fmt.Errorf("%w: no usable suggestions in response", apperr.ErrMalformedGenerationResponse)
	}
	if len(items) > j.count {
		items = items[:j.count]
	} else if len(items) < j.count {
		slog.Warn("generation returned fewer suggestions than requested", "user_id", j.userID, "requested", j.count, "got", len(items))
	}
	return items, nil
}

// images generates and materializes pictures for every item with bounded
// parallelism. The result is indexed like items; failed items get an empty
// list.
func (s *suggestionService) images(ctx context.Context, profile *models.BusinessProfile, items []parser.Item) [][]string {
	out := make([][]string, len(items))
	for i := range out {
		out[i] = []string{}
	}
	if s.gen.ImagesPerSuggestion <= 0 {
		return out
	}

	limit := s.gen.ImageConcurrency
	if limit < 1 {
		limit = 1
	}
	semaphore := make(chan struct{}, limit)
	var wg sync.WaitGroup

	for i, it := range items {
		wg.Add(1)
		semaphore <- struct{}{}

		go func(i int, it parser.Item) {
			defer wg.Done()
			defer func() { <-semaphore }()

			remote, err := s.generator.GenerateImages(ctx, prompt.ImagePrompt(profile, it.Title, it.Content), s.gen.ImagesPerSuggestion)
			if err != nil {
				slog.Warn("image generation degraded", "title", it.Title, "error", err)
				return
			}
			if len(remote) > s.gen.ImagesPerSuggestion {
				remote = remote[:s.gen.ImagesPerSuggestion]
			}
			if local := s.materializer.Materialize(ctx, remote); local != nil {
				out[i] = local
			}
		}(i, it)
	}
	wg.Wait()
	return out
}
