// Package prompt builds text-completion instructions for suggestion batches.
package prompt

import (
	"fmt"
	"strings"

	"github.com/maheshrc27/postflow-suggestions/internal/generation"
	"github.com/maheshrc27/postflow-suggestions/internal/models"
	"github.com/maheshrc27/postflow-suggestions/internal/parser"
)

const (
	StrategyProfileOnly    = "profile-only"
	StrategySocialInformed = "social-informed"

	// DigestSize is how many ranked posts the social-informed strategy embeds.
	DigestSize = 3

	captionLimit = 120
)

// Input carries everything a strategy may read. Posts is nil for the
// profile-only strategy; a non-nil (possibly empty) slice selects the
// social-informed one.
type Input struct {
	Profile *models.BusinessProfile
	Count   int
	Posts   []models.SocialPost
}

// Strategy reports which strategy Build will use for in.
func Strategy(in Input) string {
	if in.Posts != nil {
		return StrategySocialInformed
	}
	return StrategyProfileOnly
}

// Build returns the ordered message parts for one generation call.
func Build(in Input) []generation.MessagePart {
	if Strategy(in) == StrategySocialInformed {
		return SocialInformed(in.Profile, in.Posts, in.Count)
	}
	return ProfileOnly(in.Profile, in.Count)
}

func ProfileOnly(profile *models.BusinessProfile, count int) []generation.MessagePart {
	return []generation.MessagePart{
		{Role: generation.RoleSystem, Text: systemInstructions(profile)},
		{Role: generation.RoleUser, Text: request(profile, count)},
	}
}

// SocialInformed adds a digest of the best performing posts, and up to
// DigestSize of their images, as style context.
func SocialInformed(profile *models.BusinessProfile, posts []models.SocialPost, count int) []generation.MessagePart {
	top := posts
	if len(top) > DigestSize {
		top = top[:DigestSize]
	}

	parts := []generation.MessagePart{
		{Role: generation.RoleSystem, Text: systemInstructions(profile)},
		{Role: generation.RoleUser, Text: digest(top)},
	}
	for _, p := range top {
		if p.MediaURL == "" {
			continue
		}
		parts = append(parts, generation.MessagePart{Role: generation.RoleUser, ImageURL: p.MediaURL})
	}
	return append(parts, generation.MessagePart{Role: generation.RoleUser, Text: request(profile, count)})
}

// ImagePrompt describes the picture to generate for one suggestion.
func ImagePrompt(profile *models.BusinessProfile, title, content string) string {
	business := "small business"
	if profile != nil && profile.BusinessType != "" {
		business = profile.BusinessType
	}
	return fmt.Sprintf(
		"A high quality social media image for a %s. Theme: %s. Post text: %s. No text, letters or logos in the image.",
		business, title, truncate(content, 300),
	)
}

func systemInstructions(profile *models.BusinessProfile) string {
	var b strings.Builder
	b.WriteString("You are a social media content strategist writing ready-to-publish post drafts.\n\n")

	if profile != nil {
		b.WriteString("Business profile:\n")
		writeField(&b, "Business type", profile.BusinessType)
		writeField(&b, "Tone of voice", profile.ToneOfVoice)
		writeField(&b, "Audience", profile.AudienceType)
		writeList(&b, "Marketing goals (in priority order)", profile.MarketingGoals)
		writeField(&b, "Post length", profile.PostLength)
		writeList(&b, "Keywords to weave in", profile.Keywords)
		b.WriteString("\n")
		b.WriteString(emojiPolicy(profile))
		b.WriteString("\n")
		b.WriteString(hashtagPolicy(profile))
		b.WriteString("\n\n")
	}

	allowed := parser.AllowedTypes(nil)
	if profile != nil {
		allowed = parser.AllowedTypes(profile.ContentTypes)
	}

	b.WriteString("Each suggestion must be a JSON object with exactly these fields:\n")
	b.WriteString(`- "title": a short headline` + "\n")
	b.WriteString(`- "content": the full post body` + "\n")
	b.WriteString(`- "hashtags": an array of strings without the leading #` + "\n")
	fmt.Fprintf(&b, "- \"contentType\": one of %s\n\n", quoteList(allowed))
	b.WriteString("Respond with ONLY a JSON array of these objects. Do not wrap it in code fences and do not add any prose before or after the array.")
	return b.String()
}

func request(profile *models.BusinessProfile, count int) string {
	business := "the business"
	if profile != nil && profile.BusinessType != "" {
		business = "a " + profile.BusinessType
	}
	return fmt.Sprintf("Write %d distinct post suggestions for %s.", count, business)
}

func digest(posts []models.SocialPost) string {
	if len(posts) == 0 {
		return "The account has no published posts yet, so rely on the business profile alone."
	}
	var b strings.Builder
	b.WriteString("These are the account's best performing posts, ranked by likes. Match what works about their style and topics without copying them:\n")
	for i, p := range posts {
		fmt.Fprintf(&b, "%d. [%s] %q (%d likes, %d comments)\n", i+1, p.ContentType, truncate(p.Caption, captionLimit), p.LikeCount, p.CommentsCount)
	}
	return strings.TrimRight(b.String(), "\n")
}

func emojiPolicy(profile *models.BusinessProfile) string {
	if !profile.EmojisAllowed {
		return "Do not use emojis."
	}
	if len(profile.FavoriteEmojis) > 0 {
		return "Emojis are welcome; prefer these: " + strings.Join(profile.FavoriteEmojis, " ")
	}
	return "Emojis are welcome where they fit."
}

func hashtagPolicy(profile *models.BusinessProfile) string {
	var policy string
	switch profile.HashtagsStyle {
	case models.HashtagsNone:
		return "Do not use hashtags; return an empty hashtags array."
	case models.HashtagsManyForReach:
		policy = "Use 10 to 15 hashtags to maximise reach."
	default:
		policy = "Use 3 to 5 highly relevant hashtags."
	}
	if len(profile.CustomHashtags) > 0 {
		policy += " Always include: " + strings.Join(profile.CustomHashtags, ", ") + "."
	}
	return policy
}

func writeField(b *strings.Builder, label, value string) {
	if value == "" {
		return
	}
	fmt.Fprintf(b, "- %s: %s\n", label, value)
}

func writeList(b *strings.Builder, label string, values []string) {
	if len(values) == 0 {
		return
	}
	fmt.Fprintf(b, "- %s: %s\n", label, strings.Join(values, ", "))
}

func quoteList(values []string) string {
	quoted := make([]string, len(values))
	for i, v := range values {
		quoted[i] = `"` + v + `"`
	}
	return strings.Join(quoted, ", ")
}

func truncate(s string, limit int) string {
	r := []rune(strings.TrimSpace(s))
	if len(r) <= limit {
		return string(r)
	}
	return string(r[:limit]) + "…"
}
