package service

import (
	"fmt"
	"log/slog"
	"time"

	"github.com/robfig/cron/v3"
)

type JobService struct {
	Store       *SessionStore
	IdleTimeout time.Duration
	logger      *slog.Logger
}

func NewJobService(store *SessionStore, idleTimeout time.Duration, logger *slog.Logger) *JobService {
	if logger == nil {
		logger = slog.Default()
	}
	return &JobService{Store: store, IdleTimeout: idleTimeout, logger: logger}
}

// SweepSessions drops idle console sessions and logs out those whose API
// token has expired.
func (s *JobService) SweepSessions() {
	dropped, expired := s.Store.Sweep(s.IdleTimeout)
	if dropped == 0 && expired == 0 {
		s.logger.Debug("cron job: no console sessions to sweep")
		return
	}
	s.logger.Info("cron job: swept console sessions",
		"dropped", dropped, "expired", expired, "remaining", s.Store.Len())
}

// Schedule registers the sweep on c with a cron spec such as "@every 5m".
func (s *JobService) Schedule(c *cron.Cron, spec string) (cron.EntryID, error) {
	id, err := c.AddFunc(spec, s.SweepSessions)
	if err != nil {
		return 0, fmt.Errorf("cron job: invalid schedule %q: %w", spec, err)
	}
	return id, nil
}
