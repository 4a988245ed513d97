package digest_test

import (
	"context"
	"log/slog"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"dailypaper/internal/digest"
	"dailypaper/internal/domain"
)

func fixedClock() time.Time {
	return time.Date(2026, 10, 14, 23, 30, 0, 0, time.UTC)
}

func newRenderer(mode digest.Mode) *digest.Renderer {
	return digest.NewRenderer(digest.RendererConfig{
		Mode:             mode,
		MaxImageWidthPx:  600,
		MaxExcerptLength: 10,
	}, nil, slog.Default()).WithClock(fixedClock)
}

func TestRenderEndToEnd(t *testing.T) {
	groups := domain.Groups{1: {ID: 1, Title: "Tech", FeedIDs: []int64{10}}}
	feeds := domain.Feeds{10: {ID: 10, Title: "BlogX", URL: "http://blogx", GroupIDs: []int64{1}}}
	articles := []domain.Article{
		{Title: "Post", Author: "A", FeedID: 10, Excerpt: "<p>hi</p>", URL: "http://x"},
	}

	categories, err := digest.GroupByCategory(context.Background(), slog.Default(), groups, feeds, articles, []int64{1, 2})
	require.NoError(t, err)

	got := newRenderer(digest.ModeSummary).Render(context.Background(), categories)

	want := "<p>Date: 2026-10-14</p>" +
		"<h1>Tech</h1>" +
		"\n<h2><a href=\"http://x\">Post (BlogX)</a></h2>" +
		"\n<div>hi</div>"
	assert.Equal(t, want, got)
}

func TestRenderOmitsEmptyCategories(t *testing.T) {
	categories := []domain.CategoryArticles{
		{Category: domain.Group{ID: 1, Title: "Tech"}, Articles: []domain.Article{{Title: "Post", FeedName: "BlogX"}}},
		{Category: domain.Group{ID: 2, Title: "Second"}},
	}

	got := newRenderer(digest.ModeSummary).Render(context.Background(), categories)

	assert.Contains(t, got, "<h1>Tech</h1>")
	assert.NotContains(t, got, "Second")
}

func TestRenderEmptyDigestHasDateOnly(t *testing.T) {
	got := newRenderer(digest.ModeSummary).Render(context.Background(), nil)

	assert.Equal(t, "<p>Date: 2026-10-14</p>", got)
}

func TestRenderUsesLocationForDate(t *testing.T) {
	r := digest.NewRenderer(digest.RendererConfig{
		Mode:     digest.ModeSummary,
		Location: time.FixedZone("UTC+9", 9*60*60),
	}, nil, slog.Default()).WithClock(fixedClock)

	assert.Equal(t, "<p>Date: 2026-10-15</p>", r.Render(context.Background(), nil))
}

func TestRenderSummaryMode(t *testing.T) {
	categories := []domain.CategoryArticles{{
		Category: domain.Group{Title: "Tech"},
		Articles: []domain.Article{
			{
				Title:    "Long",
				FeedName: "Feed",
				Excerpt:  `<p><img class="x" src="http://x/1.png">Some long article <b>text</b></p><img src="http://x/2.png">`,
			},
			{Title: "Blank", FeedName: "Feed", Excerpt: "<p> </p>", URL: "http://blank"},
		},
	}}

	got := newRenderer(digest.ModeSummary).Render(context.Background(), categories)

	assert.Contains(t, got, `<h2><a href="#">Long (Feed)</a></h2>`)
	assert.Contains(t, got, `<div><img src="http://x/1.png" style="max-width: 600px"/></div>`)
	assert.NotContains(t, got, "2.png")
	assert.Contains(t, got, "<div>Some long [...]</div>")
	assert.Contains(t, got, "<h2><a href=\"http://blank\">Blank (Feed)</a></h2>\n<div></div>")
}

func TestRenderFullMode(t *testing.T) {
	categories := []domain.CategoryArticles{{
		Category: domain.Group{Title: "Tech"},
		Articles: []domain.Article{
			{Title: "Images", FeedName: "Feed", URL: "http://i", Excerpt: `<p>a<img src="1.png" alt="1">b<img src="1.png" alt="1"></p>`},
			{Title: "Empty", FeedName: "Feed", URL: "http://e"},
		},
	}}

	got := newRenderer(digest.ModeFull).Render(context.Background(), categories)

	img := `<img src="1.png" style="max-width: 600px"/>`
	assert.Contains(t, got, "<div><p>a"+img+"b"+img+"</p></div>")
	assert.Contains(t, got, "<div>No summary available</div>")
	assert.Equal(t, 1, strings.Count(got, "<h1>Tech</h1>"))
}

func TestRenderInsertsUpstreamTextVerbatim(t *testing.T) {
	categories := []domain.CategoryArticles{{
		Category: domain.Group{Title: "R&D <i>lab</i>"},
		Articles: []domain.Article{{Title: "A & B", FeedName: "<Feed>", URL: "http://x?a=1&b=2"}},
	}}

	got := newRenderer(digest.ModeSummary).Render(context.Background(), categories)

	assert.Contains(t, got, "<h1>R&D <i>lab</i></h1>")
	assert.Contains(t, got, `<a href="http://x?a=1&b=2">A & B (<Feed>)</a>`)
}

func TestModeValid(t *testing.T) {
	assert.True(t, digest.ModeSummary.Valid())
	assert.True(t, digest.ModeFull.Valid())
	assert.False(t, digest.Mode("compact").Valid())
}
