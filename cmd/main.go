package main

import (
	"context"
	"log/slog"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"dailypaper/internal/config"
	"dailypaper/internal/database"
	"dailypaper/internal/digest"
	"dailypaper/internal/fever"
	"dailypaper/internal/mailer"
	"dailypaper/internal/paper"
	"dailypaper/internal/scheduler"
	"dailypaper/internal/summarizer"
)

func main() {
	if !run() {
		os.Exit(1)
	}
}

func run() bool {
	log := slog.New(slog.NewJSONHandler(os.Stdout, nil))
	slog.SetDefault(log)

	start := time.Now()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	if err := config.LoadDotEnv(); err != nil {
		log.ErrorContext(ctx, "Failed to load .env file",
			"error", err)

		return false
	}

	cfg, err := config.LoadConfig()
	if err != nil {
		log.ErrorContext(ctx, "Failed to load config",
			"error", err)

		return false
	}

	loc, err := cfg.Location()
	if err != nil {
		log.ErrorContext(ctx, "Failed to load timezone",
			"error", err,
			"timezone", cfg.Timezone)

		return false
	}

	source, err := fever.NewClient(fever.Config{
		URL:      cfg.FreshRSSURL,
		Username: cfg.APIUser,
		Password: cfg.APIPassword,
		Timeout:  cfg.HTTPTimeout,
	}, cfg.SkipRead, log)
	if err != nil {
		log.ErrorContext(ctx, "Failed to initialize Fever client",
			"error", err,
			"freshRSSURL", cfg.FreshRSSURL)

		return false
	}

	sender, err := mailer.New(mailer.Config{
		Host:     cfg.SMTPServer,
		Port:     cfg.SMTPPort,
		Username: cfg.SMTPUsername,
		Password: cfg.SMTPPassword,
		From:     cfg.FromEmail,
		To:       cfg.ToEmail,
		Timeout:  cfg.SMTPTimeout,
	}, log)
	if err != nil {
		log.ErrorContext(ctx, "Failed to initialize mailer",
			"error", err,
			"smtpServer", cfg.SMTPServer,
			"smtpPort", cfg.SMTPPort)

		return false
	}

	renderer := digest.NewRenderer(digest.RendererConfig{
		Mode:             cfg.ExcerptMode,
		MaxImageWidthPx:  cfg.MaxImageWidthPx,
		MaxExcerptLength: cfg.MaxExcerptLength,
		Location:         loc,
	}, initOpenAISummarizer(ctx, cfg, log), log)

	var store paper.RunStore
	if dbPath := strings.TrimSpace(cfg.DBPath); dbPath != "" {
		db, dbErr := database.New(ctx, dbPath, log)
		if dbErr != nil {
			log.ErrorContext(ctx, "Failed to initialize db",
				"error", dbErr,
				"dbPath", dbPath)

			return false
		}
		defer func() {
			if err = db.Close(); err != nil {
				log.ErrorContext(ctx, "Failed to close db",
					"error", err,
					"dbPath", dbPath)
			}
		}()
		log.InfoContext(ctx, "DB is initialized",
			"dbPath", dbPath)

		store = db
	}

	p := paper.New(paper.Config{
		CategoryIDs:       cfg.CategoryIDs,
		FetchDays:         cfg.FetchDays,
		Subject:           cfg.Subject,
		SkipEmpty:         cfg.SkipEmpty,
		ResumeFromLastRun: cfg.ResumeFromLastRun,
	}, source, renderer, sender, store, log)

	if cfg.RunOnce {
		return runOnce(ctx, cfg, p, log)
	}

	sched := scheduler.New(ctx, scheduler.Config{
		Spec:       cfg.Schedule,
		Location:   loc,
		RunTimeout: cfg.RunTimeout,
	}, p, log)

	if err = sched.Start(); err != nil {
		log.ErrorContext(ctx, "Failed to start scheduler",
			"error", err,
			"spec", cfg.Schedule,
			"timezone", loc.String())

		return false
	}
	log.InfoContext(ctx, "Scheduler is started",
		"spec", cfg.Schedule,
		"timezone", loc.String(),
		"nextRun", sched.Next())

	c := make(chan os.Signal, 1)
	signal.Notify(c, os.Interrupt, syscall.SIGTERM)
	sig := <-c
	log.InfoContext(ctx, "Shutdown signal is received",
		"signal", sig.String())
	cancel()

	sched.Stop()
	log.InfoContext(ctx, "Exiting...",
		"signal", sig.String(),
		"uptimeSeconds", time.Since(start).Seconds())

	return true
}

func runOnce(ctx context.Context, cfg config.Config, p *paper.Paper, log *slog.Logger) bool {
	ctx, stop := signal.NotifyContext(ctx, os.Interrupt, syscall.SIGTERM)
	defer stop()

	ctx, cancel := context.WithTimeout(ctx, cfg.RunTimeout)
	defer cancel()

	run, err := p.Run(ctx)
	if err != nil {
		log.ErrorContext(ctx, "Failed to run digest",
			"error", err,
			"since", run.Since,
			"articleCount", run.ArticleCount)

		return false
	}

	log.InfoContext(ctx, "Digest run is finished",
		"status", run.Status,
		"since", run.Since,
		"categoryCount", run.CategoryCount,
		"articleCount", run.ArticleCount)

	return true
}

func initOpenAISummarizer(ctx context.Context, cfg config.Config, log *slog.Logger) summarizer.Summarizer {
	if cfg.ExcerptMode != digest.ModeSummary {
		return nil
	}

	if cfg.OpenAIAPIKey == "" {
		log.InfoContext(ctx, "OPENAI_API_KEY is missing so excerpts will be truncated",
			"envVar", "OPENAI_API_KEY")

		return nil
	}

	s, err := summarizer.NewOpenAISummarizer(cfg.OpenAIAPIKey)
	if err != nil {
		log.ErrorContext(ctx, "Failed to create OpenAI summarizer so fallback will be used",
			"error", err,
			"envVar", "OPENAI_API_KEY")

		return nil
	}

	log.InfoContext(ctx, "OpenAI summarizer is initialized",
		"provider", "openai")

	return s
}
