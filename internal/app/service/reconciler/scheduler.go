package reconciler

import (
	"context"
	"fmt"

	"github.com/robfig/cron/v3"
	"go.uber.org/fx"
	"go.uber.org/zap"

	"github.com/fatflowers/repricer/pkg/config"
)

var cronParser = cron.NewParser(cron.Minute | cron.Hour | cron.Dom | cron.Month | cron.Dow)

// Scheduler runs the reconciler on reconciler.schedule. An empty schedule
// leaves the HTTP trigger as the only entry point.
type Scheduler struct {
	cron     *cron.Cron
	schedule string
	svc      *Service
	log      *zap.SugaredLogger
}

func NewScheduler(cfg *config.Config, svc *Service, log *zap.SugaredLogger) (*Scheduler, error) {
	s := &Scheduler{schedule: cfg.Reconciler.Schedule, svc: svc, log: log}
	if s.schedule == "" {
		return s, nil
	}
	if _, err := cronParser.Parse(s.schedule); err != nil {
		return nil, fmt.Errorf("invalid reconciler.schedule %q: %w", s.schedule, err)
	}
	s.cron = cron.New(
		cron.WithParser(cronParser),
		cron.WithChain(cron.Recover(cron.DefaultLogger), cron.SkipIfStillRunning(cron.DefaultLogger)),
	)
	if _, err := s.cron.AddFunc(s.schedule, s.runOnce); err != nil {
		return nil, fmt.Errorf("register reconciler job: %w", err)
	}
	return s, nil
}

func (s *Scheduler) Enabled() bool { return s.cron != nil }

func (s *Scheduler) runOnce() {
	report, err := s.svc.Run(context.Background())
	if err != nil {
		s.log.Errorw("scheduled reconciliation failed", "err", err)
		return
	}
	s.log.Infow("scheduled reconciliation done",
		"applied", report.AppliedCount,
		"auto_approved", report.AutoApprovedCount,
		"failed", report.FailedCount)
}

func (s *Scheduler) Start() {
	if !s.Enabled() {
		s.log.Infow("reconciler schedule disabled")
		return
	}
	s.cron.Start()
	s.log.Infow("reconciler scheduled", "schedule", s.schedule)
}

// Stop waits for a running job to finish or ctx to expire.
func (s *Scheduler) Stop(ctx context.Context) error {
	if !s.Enabled() {
		return nil
	}
	select {
	case <-s.cron.Stop().Done():
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

func registerScheduler(lc fx.Lifecycle, s *Scheduler) {
	lc.Append(fx.Hook{
		OnStart: func(context.Context) error {
			s.Start()
			return nil
		},
		OnStop: s.Stop,
	})
}

// Module exposes the reconciler and its optional in-process schedule via Fx.
var Module = fx.Options(
	fx.Provide(NewService, NewScheduler),
	fx.Invoke(registerScheduler),
)
