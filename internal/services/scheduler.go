package services

import (
	"time"

	"github.com/robfig/cron/v3"

	"github.com/legaltrack-ph/legaltrack/backend/internal/logger"
)

// Scheduler runs the periodic maintenance jobs: expiring stale activation
// links and releasing elapsed login lockouts.
type Scheduler struct {
	cron  *cron.Cron
	users *UserService
}

func NewScheduler(users *UserService) *Scheduler {
	return &Scheduler{cron: cron.New(), users: users}
}

// Start registers the jobs and launches the cron loop.
func (s *Scheduler) Start() error {
	if _, err := s.cron.AddFunc("@hourly", s.expireActivations); err != nil {
		return err
	}
	if _, err := s.cron.AddFunc("@every 5m", s.clearLockouts); err != nil {
		return err
	}
	s.cron.Start()
	logger.Log().Info("Maintenance scheduler started")
	return nil
}

// Stop halts the cron loop and waits for running jobs.
func (s *Scheduler) Stop() {
	ctx := s.cron.Stop()
	<-ctx.Done()
}

func (s *Scheduler) expireActivations() {
	n, err := s.users.ExpireStaleActivations(time.Now())
	if err != nil {
		logger.Log().WithError(err).Error("Failed to expire stale activations")
		return
	}
	if n > 0 {
		logger.WithFields(map[string]interface{}{"count": n}).Info("Expired stale activations")
	}
}

func (s *Scheduler) clearLockouts() {
	n, err := s.users.ClearElapsedLockouts(time.Now())
	if err != nil {
		logger.Log().WithError(err).Error("Failed to clear elapsed lockouts")
		return
	}
	if n > 0 {
		logger.WithFields(map[string]interface{}{"count": n}).Info("Cleared elapsed lockouts")
	}
}
