package scheduler

import (
	"context"
	"time"

	"github.com/robfig/cron/v3"
	"go.uber.org/zap"
)

// DefaultRefreshSpec refreshes the hospital directory every five minutes
const DefaultRefreshSpec = "@every 5m"

const refreshTimeout = 30 * time.Second

// Refresher reloads a cached view of the hospital directory
type Refresher interface {
	Refresh(ctx context.Context) error
}

// Scheduler handles periodic background jobs for the API
type Scheduler struct {
	cron      *cron.Cron
	Directory Refresher
	spec      string
}

// NewScheduler creates a new scheduler instance. An empty spec uses DefaultRefreshSpec.
func NewScheduler(directory Refresher, spec string) *Scheduler {
	if spec == "" {
		spec = DefaultRefreshSpec
	}
	return &Scheduler{
		cron:      cron.New(cron.WithLocation(time.UTC)),
		Directory: directory,
		spec:      spec,
	}
}

// Start registers the jobs and starts the cron loop
func (s *Scheduler) Start() error {
	_, err := s.cron.AddFunc(s.spec, s.refreshDirectory)
	if err != nil {
		zap.S().Errorw("failed to register directory refresh job", "spec", s.spec, "error", err)
		return err
	}

	s.cron.Start()
	zap.S().Infow("scheduler started", "directoryRefresh", s.spec)
	return nil
}

// Stop gracefully stops the scheduler
func (s *Scheduler) Stop() {
	ctx := s.cron.Stop()
	<-ctx.Done()
	zap.S().Info("scheduler stopped")
}

func (s *Scheduler) refreshDirectory() {
	ctx, cancel := context.WithTimeout(context.Background(), refreshTimeout)
	defer cancel()

	if err := s.Directory.Refresh(ctx); err != nil {
		zap.S().Errorw("directory refresh failed, keeping previous snapshot", "error", err)
	}
}
