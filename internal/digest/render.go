package digest

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"dailypaper/internal/domain"
	"dailypaper/internal/summarizer"
)

type Mode string

const (
	// ModeSummary shows the first image and a truncated plain-text excerpt.
	ModeSummary Mode = "summary"
	// ModeFull keeps the excerpt HTML inline with every image resized.
	ModeFull Mode = "full"

	dateLayout      = "2006-01-02"
	emptyLink       = "#"
	noSummaryNotice = "No summary available"
)

func (m Mode) Valid() bool {
	return m == ModeSummary || m == ModeFull
}

type RendererConfig struct {
	Mode             Mode
	MaxImageWidthPx  int
	MaxExcerptLength int
	Location         *time.Location
}

type Renderer struct {
	cfg          RendererConfig
	summarizer   summarizer.Summarizer
	summaryCache *summaryCache
	now          func() time.Time
	log          *slog.Logger
}

// NewRenderer builds a renderer. s may be nil, in which case summary mode
// falls back to plain truncation.
func NewRenderer(cfg RendererConfig, s summarizer.Summarizer, log *slog.Logger) *Renderer {
	if !cfg.Mode.Valid() {
		cfg.Mode = ModeSummary
	}
	if cfg.Location == nil {
		cfg.Location = time.UTC
	}

	r := &Renderer{
		cfg:        cfg,
		summarizer: s,
		now:        time.Now,
		log:        log,
	}
	if s != nil {
		r.summaryCache = newSummaryCache(summaryCacheMaxEntries, summaryCacheTTL)
	}

	return r
}

// WithClock replaces the clock used for the date stamp and cache expiry.
func (r *Renderer) WithClock(now func() time.Time) *Renderer {
	r.now = now
	return r
}

// Render builds the digest HTML. Categories without articles are omitted.
func (r *Renderer) Render(ctx context.Context, categories []domain.CategoryArticles) string {
	if n := r.summaryCache.purgeExpired(r.now()); n > 0 {
		r.log.DebugContext(ctx, "Expired summaries are purged",
			"count", n)
	}

	var b strings.Builder

	fmt.Fprintf(&b, "<p>Date: %s</p>", r.now().In(r.cfg.Location).Format(dateLayout))

	for _, c := range categories {
		if len(c.Articles) == 0 {
			continue
		}

		fmt.Fprintf(&b, "<h1>%s</h1>", c.Category.Title)

		for _, article := range c.Articles {
			r.writeArticle(ctx, &b, article)
		}
	}

	return b.String()
}

func (r *Renderer) writeArticle(ctx context.Context, b *strings.Builder, article domain.Article) {
	link := article.URL
	if link == "" {
		link = emptyLink
	}

	fmt.Fprintf(b, "\n<h2><a href=\"%s\">%s (%s)</a></h2>", link, article.Title, article.FeedName)

	switch r.cfg.Mode {
	case ModeFull:
		fmt.Fprintf(b, "\n<div>%s</div>", r.fullExcerpt(article.Excerpt))
	default:
		if src, ok := ExtractFirstImage(article.Excerpt); ok {
			fmt.Fprintf(b, "\n<div>%s</div>", imageTag(src, r.cfg.MaxImageWidthPx))
		}
		fmt.Fprintf(b, "\n<div>%s</div>", r.summaryExcerpt(ctx, article))
	}
}

func (r *Renderer) fullExcerpt(excerpt string) string {
	if strings.TrimSpace(excerpt) == "" {
		return noSummaryNotice
	}

	return ReformatImages(excerpt, r.cfg.MaxImageWidthPx)
}

func (r *Renderer) summaryExcerpt(ctx context.Context, article domain.Article) string {
	text := strings.TrimSpace(StripTags(article.Excerpt))
	if text == "" {
		return ""
	}

	if r.summarizer == nil {
		return Truncate(text, r.cfg.MaxExcerptLength)
	}

	now := r.now()
	key, cacheable := newSummaryKey(article.URL, text)

	if cacheable {
		if summary, ok := r.summaryCache.get(key, now); ok {
			return Truncate(summary, r.cfg.MaxExcerptLength)
		}
	}

	summary, err := r.summarizer.Summarize(ctx, summarizer.Input{
		Text:      text,
		Title:     article.Title,
		SourceURL: article.URL,
	})
	if err == nil {
		summary = strings.TrimSpace(summary)
	}
	if err != nil || summary == "" {
		r.log.WarnContext(ctx, "Failed to summarize article so fallback will be used",
			"error", err,
			"articleURL", article.URL,
			"feedID", article.FeedID,
			"textLen", len(text))

		return Truncate(text, r.cfg.MaxExcerptLength)
	}

	if cacheable {
		r.summaryCache.set(key, summary, now)
	}

	return Truncate(summary, r.cfg.MaxExcerptLength)
}
