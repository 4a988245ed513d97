package paper

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"dailypaper/internal/digest"
	"dailypaper/internal/domain"
)

const recordRunTimeout = 5 * time.Second

var ErrDelivery = errors.New("deliver digest")

type Source interface {
	FetchGroups(ctx context.Context) (domain.Groups, error)
	FetchFeeds(ctx context.Context) (domain.Feeds, error)
	FetchArticles(ctx context.Context, since time.Time) ([]domain.Article, error)
}

type Sender interface {
	Send(ctx context.Context, subject string, htmlBody string) error
}

// RunStore is optional run history.
type RunStore interface {
	RecordRun(ctx context.Context, run domain.Run) (int64, error)
	LastSuccessfulRun(ctx context.Context) (*domain.Run, error)
}

type Config struct {
	CategoryIDs       []int64
	FetchDays         int
	Subject           string
	SkipEmpty         bool
	ResumeFromLastRun bool
}

type Paper struct {
	cfg      Config
	source   Source
	renderer *digest.Renderer
	sender   Sender
	store    RunStore
	now      func() time.Time
	log      *slog.Logger
}

// New builds the pipeline. store may be nil.
func New(
	cfg Config,
	source Source,
	renderer *digest.Renderer,
	sender Sender,
	store RunStore,
	log *slog.Logger,
) *Paper {
	return &Paper{
		cfg:      cfg,
		source:   source,
		renderer: renderer,
		sender:   sender,
		store:    store,
		now:      time.Now,
		log:      log,
	}
}

// WithClock replaces the clock used for the fetch window and run records.
func (p *Paper) WithClock(now func() time.Time) *Paper {
	p.now = now
	return p
}

// Run fetches, groups, renders and sends one digest.
func (p *Paper) Run(ctx context.Context) (domain.Run, error) {
	run := domain.Run{StartedAt: p.now().UTC()}

	err := p.run(ctx, &run)

	run.FinishedAt = p.now().UTC()
	if err != nil {
		run.Status = domain.RunStatusFailed
		run.Error = err.Error()
	}

	p.recordRun(ctx, run)

	return run, err
}

func (p *Paper) run(ctx context.Context, run *domain.Run) error {
	since, err := p.since(ctx, run.StartedAt)
	if err != nil {
		return err
	}
	run.Since = since

	groups, err := p.source.FetchGroups(ctx)
	if err != nil {
		return err
	}

	feeds, err := p.source.FetchFeeds(ctx)
	if err != nil {
		return err
	}

	articles, err := p.source.FetchArticles(ctx, since)
	if err != nil {
		return err
	}

	p.log.InfoContext(ctx, "Digest data is fetched",
		"since", since,
		"groupCount", len(groups),
		"feedCount", len(feeds),
		"articleCount", len(articles))

	categories, err := digest.GroupByCategory(ctx, p.log, groups, feeds, articles, p.cfg.CategoryIDs)
	if err != nil {
		return fmt.Errorf("group articles: %w", err)
	}

	run.CategoryCount = len(categories)
	run.ArticleCount = digest.ArticleCount(categories)

	if run.ArticleCount == 0 && p.cfg.SkipEmpty {
		p.log.InfoContext(ctx, "Digest is empty so sending is skipped",
			"since", since,
			"categoryCount", run.CategoryCount)

		run.Status = domain.RunStatusSkipped

		return nil
	}

	body := p.renderer.Render(ctx, categories)

	if err = p.sender.Send(ctx, p.cfg.Subject, body); err != nil {
		return fmt.Errorf("%w: %w", ErrDelivery, err)
	}

	run.Status = domain.RunStatusSent

	return nil
}

func (p *Paper) since(ctx context.Context, startedAt time.Time) (time.Time, error) {
	since := startedAt.AddDate(0, 0, -p.cfg.FetchDays)

	if !p.cfg.ResumeFromLastRun || p.store == nil {
		return since, nil
	}

	last, err := p.store.LastSuccessfulRun(ctx)
	if err != nil {
		return time.Time{}, fmt.Errorf("get last successful run: %w", err)
	}

	if last != nil && last.StartedAt.After(since) {
		return last.StartedAt, nil
	}

	return since, nil
}

func (p *Paper) recordRun(ctx context.Context, run domain.Run) {
	if p.store == nil {
		return
	}

	// Recorded even when ctx is already cancelled.
	recordCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), recordRunTimeout)
	defer cancel()

	if _, err := p.store.RecordRun(recordCtx, run); err != nil {
		p.log.ErrorContext(ctx, "Failed to record run",
			"error", err,
			"status", run.Status,
			"articleCount", run.ArticleCount)
	}
}
