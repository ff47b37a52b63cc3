package jobs

import (
	"context"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/adventjoy/calendar-server-go/internal/repository"
)

// CleanupJob periodically sweeps access records whose TTL elapsed
// without a verify touching them. Verification already applies the
// transition lazily; the sweep keeps the admin overview honest for
// records nobody tries anymore.
type CleanupJob struct {
	accessRepo repository.AccessRepository
	interval   time.Duration
	done       chan struct{}
}

func NewCleanupJob(accessRepo repository.AccessRepository, interval time.Duration) *CleanupJob {
	return &CleanupJob{
		accessRepo: accessRepo,
		interval:   interval,
		done:       make(chan struct{}),
	}
}

func (j *CleanupJob) Start() {
	go j.run()
	log.Info().Dur("interval", j.interval).Msg("cleanup job started")
}

func (j *CleanupJob) Stop() {
	close(j.done)
	log.Info().Msg("cleanup job stopped")
}

func (j *CleanupJob) run() {
	ticker := time.NewTicker(j.interval)
	defer ticker.Stop()

	j.cleanup()

	for {
		select {
		case <-j.done:
			return
		case <-ticker.C:
			j.cleanup()
		}
	}
}

func (j *CleanupJob) cleanup() {
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	j.runCleanup(ctx, "stale access records", j.accessRepo.ExpireStale)
}

func (j *CleanupJob) runCleanup(ctx context.Context, name string, fn func(context.Context) (int64, error)) {
	count, err := fn(ctx)
	if err != nil {
		log.Error().Err(err).Msgf("failed to cleanup %s", name)
	} else if count > 0 {
		log.Info().Int64("count", count).Msgf("cleaned up %s", name)
	}
}
