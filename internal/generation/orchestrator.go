package generation

import (
	"context"
	"log/slog"
	"time"

	"github.com/maheshrc27/postflow-suggestions/internal/metrics"
)

// Orchestrator runs every external generation call through CallWithBackoff.
type Orchestrator struct {
	text      TextGenerator
	images    ImageGenerator
	policy    Policy
	imageSize string
}

func NewOrchestrator(text TextGenerator, images ImageGenerator, policy Policy, imageSize string) *Orchestrator {
	return &Orchestrator{
		text:      text,
		images:    images,
		policy:    policy,
		imageSize: imageSize,
	}
}

func (o *Orchestrator) policyFor(service string) Policy {
	p := o.policy
	next := p.OnRetry
	p.OnRetry = func(attempt int, delay time.Duration) {
		metrics.UpstreamRetries.WithLabelValues(service).Inc()
		if next != nil {
			next(attempt, delay)
		}
	}
	return p
}

// GenerateText issues a single completion call for the whole batch.
func (o *Orchestrator) GenerateText(ctx context.Context, parts []MessagePart) (string, error) {
	return CallWithBackoff(ctx, o.policyFor("text"), func(ctx context.Context) (string, error) {
		return o.text.GenerateText(ctx, parts)
	})
}

// GenerateImages retries only the images still missing. URLs returned by a
// failed attempt are kept, so a retry never pays for them twice. If retries
// run out after some images arrived, those are returned without an error.
func (o *Orchestrator) GenerateImages(ctx context.Context, prompt string, n int) ([]string, error) {
	if n <= 0 || o.images == nil {
		return nil, nil
	}

	var collected []string
	urls, err := CallWithBackoff(ctx, o.policyFor("image"), func(ctx context.Context) ([]string, error) {
		got, err := o.images.GenerateImages(ctx, prompt, n-len(collected), o.imageSize)
		collected = append(collected, got...)
		if len(collected) > n {
			collected = collected[:n]
		}
		if err != nil {
			return nil, err
		}
		return collected, nil
	})
	if err != nil {
		if len(collected) == 0 {
			return nil, err
		}
		slog.Warn("image generation incomplete", "wanted", n, "got", len(collected), "error", err)
		return collected, nil
	}
	return urls, nil
}
