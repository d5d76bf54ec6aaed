package service

import (
	"context"
	"sort"
	"strings"
	"sync"

	"github.com/maheshrc27/postflow-suggestions/internal/generation"
	"github.com/maheshrc27/postflow-suggestions/internal/models"
	"github.com/maheshrc27/postflow-suggestions/internal/transfer"
)

type fakeSuggestionRepo struct {
	mu      sync.Mutex
	rows    map[int64]*models.ContentSuggestion
	nextID  int64
	deletes int
	creates int
	err     error
}

func newFakeSuggestionRepo(rows ...*models.ContentSuggestion) *fakeSuggestionRepo {
	r := &fakeSuggestionRepo{rows: map[int64]*models.ContentSuggestion{}, nextID: 100}
	for _, s := range rows {
		r.rows[s.ID] = s
	}
	return r
}

func (r *fakeSuggestionRepo) ListByBucket(ctx context.Context, userID int64, source string) ([]*models.ContentSuggestion, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []*models.ContentSuggestion
	for _, s := range r.rows {
		if s.UserID == userID && s.Source == source {
			out = append(out, s)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.After(out[j].CreatedAt) })
	return out, nil
}

func (r *fakeSuggestionRepo) DeleteByBucket(ctx context.Context, userID int64, source string) (int64, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.deletes++
	var n int64
	for id, s := range r.rows {
		if s.UserID == userID && s.Source == source {
			delete(r.rows, id)
			n++
		}
	}
	return n, nil
}

func (r *fakeSuggestionRepo) CreateMany(ctx context.Context, suggestions []*models.ContentSuggestion) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.err != nil {
		return r.err
	}
	r.creates++
	for _, s := range suggestions {
		r.nextID++
		s.ID = r.nextID
		r.rows[s.ID] = s
	}
	return nil
}

func (r *fakeSuggestionRepo) GetByID(ctx context.Context, id int64) (*models.ContentSuggestion, bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	s, ok := r.rows[id]
	if !ok {
		return nil, false, nil
	}
	c := *s
	return &c, true, nil
}

func (r *fakeSuggestionRepo) Update(ctx context.Context, s *models.ContentSuggestion) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	c := *s
	r.rows[s.ID] = &c
	return nil
}

type fakeProfileRepo struct {
	profiles map[int64]*models.BusinessProfile
}

func (r *fakeProfileRepo) GetByUserID(ctx context.Context, userID int64) (*models.BusinessProfile, bool, error) {
	p, ok := r.profiles[userID]
	return p, ok, nil
}

type fakeSummarizer struct {
	token     string
	tokenErr  error
	posts     []*models.SocialPost
	refreshed []bool
}

func (f *fakeSummarizer) AccessToken(ctx context.Context, userID int64) (string, error) {
	return f.token, f.tokenErr
}

func (f *fakeSummarizer) Summarize(ctx context.Context, userID int64, accessToken string, doRefresh bool) ([]*models.SocialPost, error) {
	f.refreshed = append(f.refreshed, doRefresh)
	return f.posts, nil
}

func (f *fakeSummarizer) TopPosts(ctx context.Context, userID int64, doRefresh bool) ([]*models.SocialPost, error) {
	if f.tokenErr != nil {
		return nil, f.tokenErr
	}
	return f.posts, nil
}

func (f *fakeSummarizer) Sync(ctx context.Context, acc *models.SocialAccount) (int, error) {
	return 0, nil
}

type fakeGenerator struct {
	mu         sync.Mutex
	text       string
	textErr    error
	textCalls  int
	lastParts  []generation.MessagePart
	imageCalls int
	// prompts containing failOn get an error instead of images
	failOn string
	// when set, GenerateText signals entered and waits for release
	entered chan struct{}
	release chan struct{}
}

func (g *fakeGenerator) GenerateText(ctx context.Context, parts []generation.MessagePart) (string, error) {
	g.mu.Lock()
	g.textCalls++
	g.lastParts = parts
	text, err := g.text, g.textErr
	entered, release := g.entered, g.release
	g.mu.Unlock()

	if entered != nil {
		entered <- struct{}{}
	}
	if release != nil {
		<-release
	}
	return text, err
}

func (g *fakeGenerator) GenerateImages(ctx context.Context, prompt string, n int) ([]string, error) {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.imageCalls++
	if g.failOn != "" && strings.Contains(prompt, g.failOn) {
		return nil, generation.ErrRateLimited
	}
	urls := make([]string, n)
	for i := range urls {
		urls[i] = "https://images.example/remote.png"
	}
	return urls, nil
}

type fakeMaterializer struct{}

func (fakeMaterializer) Materialize(ctx context.Context, remoteURLs []string) []string {
	out := []string{}
	for range remoteURLs {
		out = append(out, "http://localhost:3000/uploads/abc.png")
	}
	return out
}

type fakeInstagram struct {
	media []transfer.InstagramMedia
	err   error
	calls int
}

func (f *fakeInstagram) FetchMedia(ctx context.Context, accessToken string) ([]transfer.InstagramMedia, error) {
	f.calls++
	return f.media, f.err
}

type fakePostRepo struct {
	posts []*models.SocialPost
}

func (r *fakePostRepo) ListByUserID(ctx context.Context, userID int64) ([]*models.SocialPost, error) {
	var out []*models.SocialPost
	for _, p := range r.posts {
		if p.UserID == userID {
			out = append(out, p)
		}
	}
	return out, nil
}

func (r *fakePostRepo) ExistsByExternalID(ctx context.Context, userID int64, externalID string) (bool, error) {
	for _, p := range r.posts {
		if p.UserID == userID && p.ExternalID == externalID {
			return true, nil
		}
	}
	return false, nil
}

func (r *fakePostRepo) Create(ctx context.Context, p *models.SocialPost) (int64, error) {
	p.ID = int64(len(r.posts) + 1)
	r.posts = append(r.posts, p)
	return p.ID, nil
}

type fakeAccountRepo struct {
	accounts []*models.SocialAccount
}

func (r *fakeAccountRepo) GetByUserAndPlatform(ctx context.Context, userID int64, platform string) (*models.SocialAccount, bool, error) {
	for _, a := range r.accounts {
		if a.UserID == userID && a.Platform == platform {
			return a, true, nil
		}
	}
	return nil, false, nil
}

func (r *fakeAccountRepo) ListByPlatform(ctx context.Context, platform string) ([]*models.SocialAccount, error) {
	var out []*models.SocialAccount
	for _, a := range r.accounts {
		if a.Platform == platform {
			out = append(out, a)
		}
	}
	return out, nil
}
