package job

import (
	"context"
	"log/slog"
	"sync"

	"github.com/maheshrc27/postflow-suggestions/internal/models"
	"github.com/maheshrc27/postflow-suggestions/internal/repository"
	"github.com/maheshrc27/postflow-suggestions/internal/service"
)

const syncConcurrency = 10

// SocialSyncJob refreshes the cached posts of every connected Instagram
// account so social-informed prompts see recent engagement.
type SocialSyncJob struct {
	sr repository.SocialAccountRepository
	ss service.SummarizerService
}

func NewSocialSyncJob(sr repository.SocialAccountRepository, ss service.SummarizerService) *SocialSyncJob {
	return &SocialSyncJob{
		sr: sr,
		ss: ss,
	}
}

func (j *SocialSyncJob) SyncPosts() {
	ctx := context.Background()

	accounts, err := j.sr.ListByPlatform(ctx, models.PlatformInstagram)
	if err != nil {
		slog.Info(err.Error())
		return
	}

	var wg sync.WaitGroup
	semaphore := make(chan struct{}, syncConcurrency)

	for _, acc := range accounts {
		wg.Add(1)
		semaphore <- struct{}{}

		go func(acc *models.SocialAccount) {
			defer wg.Done()
			defer func() { <-semaphore }()

			created, err := j.ss.Sync(ctx, acc)
			if err != nil {
				slog.Info("unable to sync instagram posts", "user_id", acc.UserID, "error", err)
				return
			}
			if created > 0 {
				slog.Info("synced instagram posts", "user_id", acc.UserID, "new", created)
			}
		}(acc)
	}
	wg.Wait()
}
