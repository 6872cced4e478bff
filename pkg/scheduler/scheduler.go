// Package scheduler provides the delay sweeper: a cron-driven loop that
// resumes delayed workflows whose resume time has passed.
package scheduler

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/robfig/cron/v3"

	"github.com/flowlineio/flowline/pkg/services"
)

const defaultSchedule = "* * * * *"

// Sweeper periodically scans for delayed workflows that are due and resumes
// each one. Resumption goes through the workflow service, so it runs under
// the workflow lock and publishes the usual lifecycle events.
type Sweeper struct {
	workflows *services.Workflow
	logger    *slog.Logger
	cron      *cron.Cron
	schedule  string
}

// NewSweeper creates a sweeper. An empty schedule runs every minute.
func NewSweeper(workflows *services.Workflow, schedule string, logger *slog.Logger) (*Sweeper, error) {
	if schedule == "" {
		schedule = defaultSchedule
	}

	if _, err := cron.ParseStandard(schedule); err != nil {
		return nil, fmt.Errorf("invalid sweep schedule %q: %w", schedule, err)
	}

	return &Sweeper{
		workflows: workflows,
		logger:    logger,
		cron:      cron.New(),
		schedule:  schedule,
	}, nil
}

// Start registers the sweep job and starts the cron loop. It returns
// immediately; Stop shuts the loop down.
func (s *Sweeper) Start(ctx context.Context) error {
	_, err := s.cron.AddFunc(s.schedule, func() {
		s.Sweep(ctx)
	})
	if err != nil {
		return fmt.Errorf("failed to schedule sweep: %w", err)
	}

	s.cron.Start()
	s.logger.InfoContext(ctx, "Delay sweeper started", "schedule", s.schedule)

	return nil
}

// Stop stops the cron loop and waits for a running sweep to finish.
func (s *Sweeper) Stop() {
	<-s.cron.Stop().Done()
	s.logger.Info("Delay sweeper stopped")
}

// Sweep resumes every delayed workflow whose resume time has passed. A
// failure on one workflow is logged and does not block the rest; the next
// sweep retries it.
func (s *Sweeper) Sweep(ctx context.Context) {
	due, err := s.workflows.ListDelayedBefore(ctx)
	if err != nil {
		s.logger.ErrorContext(ctx, "Failed to list delayed workflows", "error", err)

		return
	}

	for _, wf := range due {
		_, err := s.workflows.Resume(ctx, wf.ID)
		if err != nil {
			s.logger.ErrorContext(ctx, "Failed to resume workflow",
				"workflow_id", wf.ID, "error", err)

			continue
		}

		s.logger.InfoContext(ctx, "Resumed delayed workflow", "workflow_id", wf.ID)
	}
}
