// Package generation wraps the external text-completion and image-generation services.
package generation

import (
	"context"
	"errors"
)

// ErrRateLimited marks an upstream rate-limit signal. Clients wrap it so the
// backoff predicate can recognise retryable failures.
var ErrRateLimited = errors.New("rate limited")

const (
	RoleSystem = "system"
	RoleUser   = "user"
)

// MessagePart is one role-tagged piece of a text-completion request. Exactly
// one of Text or ImageURL is set.
type MessagePart struct {
	Role     string
	Text     string
	ImageURL string
}

type TextGenerator interface {
	GenerateText(ctx context.Context, parts []MessagePart) (string, error)
}

type ImageGenerator interface {
	GenerateImages(ctx context.Context, prompt string, n int, size string) ([]string, error)
}
