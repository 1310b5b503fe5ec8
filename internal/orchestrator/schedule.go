package orchestrator

import (
	"context"
	"time"

	"github.com/go-co-op/gocron"
	"github.com/rs/zerolog"
)

// DefaultInterval between scheduled generation passes
const DefaultInterval = 15 * time.Minute

// Schedule runs the orchestrator's targeted pass on a fixed interval.
// SingletonMode skips a tick while the previous run is still executing,
// so two passes never race over the same demand signal.
type Schedule struct {
	scheduler *gocron.Scheduler
}

// NewSchedule wires the orchestrator into a gocron scheduler
func NewSchedule(o *Orchestrator, interval time.Duration, logger zerolog.Logger) (*Schedule, error) {
	if interval <= 0 {
		interval = DefaultInterval
	}
	s := gocron.NewScheduler(time.UTC)
	_, err := s.Every(interval).SingletonMode().Do(func() {
		logger.Info().Msg("starting targeted content generation pass")
		if _, err := o.RunTargeted(context.Background()); err != nil {
			logger.Error().Err(err).Msg("targeted generation pass failed")
		}
	})
	if err != nil {
		return nil, err
	}
	return &Schedule{scheduler: s}, nil
}

// Start begins running the schedule in the background
func (s *Schedule) Start() {
	s.scheduler.StartAsync()
}

// Stop terminates the schedule
func (s *Schedule) Stop() {
	s.scheduler.Stop()
}
