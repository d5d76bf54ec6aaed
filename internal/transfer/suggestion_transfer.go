package transfer

import (
	"time"

	"github.com/maheshrc27/postflow-suggestions/internal/models"
)

// Suggestion is the shape handed to the dashboard.
type Suggestion struct {
	ID          int64     `json:"id"`
	Title       string    `json:"title"`
	Content     string    `json:"content"`
	Hashtags    []string  `json:"hashtags"`
	ImageURLs   []string  `json:"imageUrls"`
	ContentType string    `json:"contentType"`
	Refreshed   bool      `json:"refreshed"`
	CreatedAt   time.Time `json:"createdAt"`
}

func NewSuggestion(s *models.ContentSuggestion) Suggestion {
	hashtags := s.Hashtags
	if hashtags == nil {
		hashtags = []string{}
	}
	imageURLs := s.ImageURLs
	if imageURLs == nil {
		imageURLs = []string{}
	}
	return Suggestion{
		ID:          s.ID,
		Title:       s.Title,
		Content:     s.Content,
		Hashtags:    hashtags,
		ImageURLs:   imageURLs,
		ContentType: s.ContentType,
		Refreshed:   s.Refreshed,
		CreatedAt:   s.CreatedAt,
	}
}

func NewSuggestions(list []*models.ContentSuggestion) []Suggestion {
	out := make([]Suggestion, 0, len(list))
	for _, s := range list {
		out = append(out, NewSuggestion(s))
	}
	return out
}

type TopPost struct {
	ExternalID    string    `json:"externalId"`
	Caption       string    `json:"caption"`
	MediaType     string    `json:"mediaType"`
	MediaURL      string    `json:"mediaUrl"`
	ContentType   string    `json:"contentType"`
	Hashtags      []string  `json:"hashtags"`
	LikeCount     int       `json:"likeCount"`
	CommentsCount int       `json:"commentsCount"`
	Timestamp     time.Time `json:"timestamp"`
}

func NewTopPosts(posts []*models.SocialPost) []TopPost {
	out := make([]TopPost, 0, len(posts))
	for _, p := range posts {
		out = append(out, TopPost{
			ExternalID:    p.ExternalID,
			Caption:       p.Caption,
			MediaType:     p.MediaType,
			MediaURL:      p.MediaURL,
			ContentType:   p.ContentType,
			Hashtags:      p.Hashtags,
			LikeCount:     p.LikeCount,
			CommentsCount: p.CommentsCount,
			Timestamp:     p.Timestamp,
		})
	}
	return out
}
