package models

import "time"

const (
	HashtagsNone         = "none"
	HashtagsFewRelevant  = "fewRelevant"
	HashtagsManyForReach = "manyForReach"
)

type BusinessProfile struct {
	ID             int64     `db:"id" json:"id"`
	UserID         int64     `db:"user_id" json:"user_id"`
	BusinessType   string    `db:"business_type" json:"business_type"`
	ToneOfVoice    string    `db:"tone_of_voice" json:"tone_of_voice"`
	AudienceType   string    `db:"audience_type" json:"audience_type"`
	MarketingGoals []string  `db:"marketing_goals" json:"marketing_goals"`
	ContentTypes   []string  `db:"content_types" json:"content_types"`
	PostLength     string    `db:"post_length" json:"post_length"`
	EmojisAllowed  bool      `db:"emojis_allowed" json:"emojis_allowed"`
	FavoriteEmojis []string  `db:"favorite_emojis" json:"favorite_emojis"`
	HashtagsStyle  string    `db:"hashtags_style" json:"hashtags_style"` // none, fewRelevant, manyForReach
	Keywords       []string  `db:"keywords" json:"keywords"`
	CustomHashtags []string  `db:"custom_hashtags" json:"custom_hashtags"`
	CreatedAt      time.Time `db:"created_at" json:"created_at"`
	UpdatedAt      time.Time `db:"updated_at" json:"updated_at"`
}
