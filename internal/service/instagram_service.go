package service

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strings"

	"golang.org/x/oauth2"

	config "github.com/maheshrc27/postflow-suggestions/configs"
	"github.com/maheshrc27/postflow-suggestions/internal/apperr"
	"github.com/maheshrc27/postflow-suggestions/internal/generation"
	"github.com/maheshrc27/postflow-suggestions/internal/transfer"
)

const (
	instagramMediaFields = "id,caption,media_type,media_product_type,media_url,thumbnail_url,timestamp,like_count,comments_count"
	instagramPageSize    = 50
	instagramMaxPages    = 20
)

// InstagramService reads a connected account's published media.
type InstagramService interface {
	FetchMedia(ctx context.Context, accessToken string) ([]transfer.InstagramMedia, error)
}

type instagramService struct {
	graphURL string
	policy   generation.Policy
	base     *http.Client
}

func NewInstagramService(cfg config.Config, policy generation.Policy, base *http.Client) InstagramService {
	return &instagramService{
		graphURL: strings.TrimRight(cfg.InstagramGraphURL, "/"),
		policy:   policy,
		base:     base,
	}
}

// FetchMedia follows paging.next until the feed is exhausted. Rate-limited
// pages are retried with the same backoff as the generation calls.
func (ig *instagramService) FetchMedia(ctx context.Context, accessToken string) ([]transfer.InstagramMedia, error) {
	if accessToken == "" {
		return nil, fmt.Errorf("%w: missing instagram access token", apperr.ErrValidation)
	}

	if ig.base != nil {
		ctx = context.WithValue(ctx, oauth2.HTTPClient, ig.base)
	}
	client := oauth2.NewClient(ctx, oauth2.StaticTokenSource(&oauth2.Token{AccessToken: accessToken}))

	q := url.Values{}
	q.Set("fields", instagramMediaFields)
	q.Set("limit", fmt.Sprint(instagramPageSize))
	next := ig.graphURL + "/me/media?" + q.Encode()

	var media []transfer.InstagramMedia
	for page := 0; next != "" && page < instagramMaxPages; page++ {
		pageURL := next
		result, err := generation.CallWithBackoff(ctx, ig.policy, func(ctx context.Context) (*transfer.InstagramMediaPage, error) {
			return ig.fetchPage(ctx, client, pageURL)
		})
		if err != nil {
			slog.Info(err.Error())
			return nil, err
		}
		media = append(media, result.Data...)
		next = result.Paging.Next
	}
	return media, nil
}

func (ig *instagramService) fetchPage(ctx context.Context, client *http.Client, pageURL string) (*transfer.InstagramMediaPage, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, pageURL, nil)
	if err != nil {
		return nil, err
	}

	resp, err := client.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(resp.Body)
		return nil, instagramError(resp.StatusCode, body)
	}

	var page transfer.InstagramMediaPage
	if err := json.NewDecoder(resp.Body).Decode(&page); err != nil {
		return nil, fmt.Errorf("failed to decode media page: %w", err)
	}
	return &page, nil
}

// Graph API throttling arrives as HTTP 429 or as error codes 4, 17, 32 and 613.
func instagramError(status int, body []byte) error {
	var e transfer.InstagramErrorResponse
	_ = json.Unmarshal(body, &e)

	msg := e.Error.Message
	if msg == "" {
		msg = strings.TrimSpace(string(body))
	}

	switch {
	case status == http.StatusTooManyRequests:
		return fmt.Errorf("%w: instagram: %s", generation.ErrRateLimited, msg)
	case e.Error.Code == 4 || e.Error.Code == 17 || e.Error.Code == 32 || e.Error.Code == 613:
		return fmt.Errorf("%w: instagram code %d: %s", generation.ErrRateLimited, e.Error.Code, msg)
	default:
		return fmt.Errorf("instagram status %d: %s", status, msg)
	}
}
