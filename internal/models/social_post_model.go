package models

import "time"

type SocialPost struct {
	ID            int64     `db:"id" json:"id"`
	UserID        int64     `db:"user_id" json:"user_id"`
	ExternalID    string    `db:"external_id" json:"external_id"`
	Caption       string    `db:"caption" json:"caption"`
	MediaType     string    `db:"media_type" json:"media_type"`
	MediaURL      string    `db:"media_url" json:"media_url"`
	ContentType   string    `db:"content_type" json:"content_type"`
	Hashtags      []string  `db:"hashtags" json:"hashtags"`
	Timestamp     time.Time `db:"timestamp" json:"timestamp"`
	LikeCount     int       `db:"like_count" json:"like_count"`
	CommentsCount int       `db:"comments_count" json:"comments_count"`
	CreatedAt     time.Time `db:"created_at" json:"created_at"`
}

func (p *SocialPost) Engagement() int {
	return p.LikeCount + p.CommentsCount
}
