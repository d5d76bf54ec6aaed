package models

import "time"

const (
	ContentTypePost       = "Post"
	ContentTypeStory      = "Story"
	ContentTypeReel       = "Reel"
	ContentTypeNewsletter = "Newsletter"
)

// ContentTypes is the full output vocabulary.
var ContentTypes = []string{ContentTypePost, ContentTypeStory, ContentTypeReel, ContentTypeNewsletter}

const (
	SourceBusinessProfile = "businessProfile"
	SourceUserProfile     = "userProfile"
)

func IsValidSource(source string) bool {
	return source == SourceBusinessProfile || source == SourceUserProfile
}

type ContentSuggestion struct {
	ID          int64     `db:"id" json:"id"`
	UserID      int64     `db:"user_id" json:"user_id"`
	Title       string    `db:"title" json:"title"`
	Content     string    `db:"content" json:"content"`
	Hashtags    []string  `db:"hashtags" json:"hashtags"`
	ImageURLs   []string  `db:"image_urls" json:"image_urls"`
	ContentType string    `db:"content_type" json:"content_type"`
	Source      string    `db:"source" json:"source"` // businessProfile, userProfile
	Refreshed   bool      `db:"refreshed" json:"refreshed"`
	CreatedAt   time.Time `db:"created_at" json:"created_at"`
}
