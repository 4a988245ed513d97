package scheduler

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/robfig/cron/v3"

	"dailypaper/internal/domain"
)

type Runner interface {
	Run(ctx context.Context) (domain.Run, error)
}

type Config struct {
	Spec       string
	Location   *time.Location
	RunTimeout time.Duration
}

type Scheduler struct {
	ctx    context.Context
	cfg    Config
	cron   *cron.Cron
	runner Runner
	log    *slog.Logger
}

func New(ctx context.Context, cfg Config, runner Runner, log *slog.Logger) *Scheduler {
	if cfg.Location == nil {
		cfg.Location = time.UTC
	}

	c := cron.New(
		cron.WithLocation(cfg.Location),
		cron.WithChain(cron.SkipIfStillRunning(cron.DiscardLogger)),
	)

	return &Scheduler{
		ctx:    ctx,
		cfg:    cfg,
		cron:   c,
		runner: runner,
		log:    log,
	}
}

func (s *Scheduler) Start() error {
	if _, err := s.cron.AddFunc(s.cfg.Spec, s.RunDigest); err != nil {
		return fmt.Errorf("add cron func (spec = %s): %w", s.cfg.Spec, err)
	}

	s.cron.Start()

	return nil
}

// Stop waits for a running digest to finish.
func (s *Scheduler) Stop() {
	<-s.cron.Stop().Done()
}

// Next reports when the digest runs next. Zero before Start.
func (s *Scheduler) Next() time.Time {
	entries := s.cron.Entries()
	if len(entries) == 0 {
		return time.Time{}
	}

	return entries[0].Next
}

// RunDigest runs one digest under the configured timeout and logs the outcome.
func (s *Scheduler) RunDigest() {
	ctx, cancel := context.WithTimeout(s.ctx, s.cfg.RunTimeout)
	defer cancel()

	select {
	case <-ctx.Done():
		s.log.InfoContext(ctx, "Scheduler context is done",
			"error", ctx.Err())
		return
	default:
	}

	run, err := s.runner.Run(ctx)
	if err != nil {
		s.log.ErrorContext(ctx, "Failed to run digest",
			"error", err,
			"since", run.Since,
			"categoryCount", run.CategoryCount,
			"articleCount", run.ArticleCount,
			"durationSeconds", run.FinishedAt.Sub(run.StartedAt).Seconds())

		return
	}

	s.log.InfoContext(ctx, "Digest run is finished",
		"status", run.Status,
		"since", run.Since,
		"categoryCount", run.CategoryCount,
		"articleCount", run.ArticleCount,
		"durationSeconds", run.FinishedAt.Sub(run.StartedAt).Seconds())
}
