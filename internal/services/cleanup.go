package services

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/robfig/cron/v3"
	"go.uber.org/zap"
)

// CleanupJob removes archived uploads older than the retention window on a cron schedule.
type CleanupJob interface {
	Start() error
	Stop()
	RunOnce(ctx context.Context) (int, error)
}

type cleanupJob struct {
	storage  UploadStorage
	maxAge   time.Duration
	schedule string
	cron     *cron.Cron
	now      func() time.Time
	log      *zap.Logger

	mu      sync.Mutex
	started bool
}

func NewCleanupJob(storage UploadStorage, maxAge time.Duration, schedule string, log *zap.Logger) CleanupJob {
	return &cleanupJob{
		storage:  storage,
		maxAge:   maxAge,
		schedule: schedule,
		cron:     cron.New(),
		now:      time.Now,
		log:      log,
	}
}

// Start implements CleanupJob.
func (j *cleanupJob) Start() error {
	j.mu.Lock()
	defer j.mu.Unlock()

	if j.started {
		return nil
	}

	_, err := j.cron.AddFunc(j.schedule, func() {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Minute)
		defer cancel()
		if _, err := j.RunOnce(ctx); err != nil {
			j.log.Warn("upload cleanup failed", zap.Error(err))
		}
	})
	if err != nil {
		return fmt.Errorf("invalid cleanup schedule %q: %w", j.schedule, err)
	}

	j.cron.Start()
	j.started = true
	j.log.Info("upload cleanup scheduled",
		zap.String("schedule", j.schedule),
		zap.Duration("retention", j.maxAge))
	return nil
}

// Stop implements CleanupJob. It waits for a running purge to finish.
func (j *cleanupJob) Stop() {
	j.mu.Lock()
	defer j.mu.Unlock()

	if !j.started {
		return
	}
	<-j.cron.Stop().Done()
	j.started = false
}

// RunOnce implements CleanupJob.
func (j *cleanupJob) RunOnce(ctx context.Context) (int, error) {
	cutoff := j.now().Add(-j.maxAge)

	removed, err := j.storage.PurgeOlderThan(ctx, cutoff)
	if err != nil {
		return removed, fmt.Errorf("failed to purge uploads: %w", err)
	}

	j.log.Info("upload cleanup completed", zap.Int("removed", removed), zap.Time("cutoff", cutoff))
	return removed, nil
}
