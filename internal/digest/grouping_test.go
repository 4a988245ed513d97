package digest_test

import (
	"bytes"
	"context"
	"errors"
	"log/slog"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"dailypaper/internal/digest"
	"dailypaper/internal/domain"
)

func fixture() (domain.Groups, domain.Feeds, []domain.Article) {
	groups := domain.Groups{
		1: {ID: 1, Title: "Tech", FeedIDs: []int64{10, 11}},
		2: {ID: 2, Title: "News", FeedIDs: []int64{11, 12}},
		3: {ID: 3, Title: "Empty", FeedIDs: []int64{99}},
	}
	feeds := domain.Feeds{
		10: {ID: 10, Title: "BlogX", GroupIDs: []int64{1}},
		11: {ID: 11, Title: "Daily", GroupIDs: []int64{1, 2}},
		12: {ID: 12, Title: "Wire", GroupIDs: []int64{2}},
		99: {ID: 99, Title: "Quiet", GroupIDs: []int64{3}},
	}
	articles := []domain.Article{
		{Title: "A", FeedID: 10, URL: "http://a"},
		{Title: "B", FeedID: 11, URL: "http://b"},
		{Title: "C", FeedID: 12, URL: "http://c"},
		{Title: "D", FeedID: 10, URL: "http://d"},
	}

	return groups, feeds, articles
}

func titles(articles []domain.Article) []string {
	out := make([]string, 0, len(articles))
	for _, a := range articles {
		out = append(out, a.Title+"/"+a.FeedName)
	}

	return out
}

func TestGroupByCategoryOrderAndSelection(t *testing.T) {
	groups, feeds, articles := fixture()

	got, err := digest.GroupByCategory(context.Background(), slog.Default(), groups, feeds, articles, []int64{2, 1})
	require.NoError(t, err)
	require.Len(t, got, 2)

	assert.Equal(t, "News", got[0].Category.Title)
	assert.Equal(t, []string{"B/Daily", "C/Wire"}, titles(got[0].Articles))

	assert.Equal(t, "Tech", got[1].Category.Title)
	assert.Equal(t, []string{"A/BlogX", "B/Daily", "D/BlogX"}, titles(got[1].Articles))
}

func TestGroupByCategoryKeepsEmptyCategories(t *testing.T) {
	groups, feeds, articles := fixture()

	got, err := digest.GroupByCategory(context.Background(), slog.Default(), groups, feeds, articles, []int64{3})
	require.NoError(t, err)
	require.Len(t, got, 1)

	assert.Equal(t, "Empty", got[0].Category.Title)
	assert.Empty(t, got[0].Articles)
}

func TestGroupByCategoryWarnsOnMissingCategory(t *testing.T) {
	groups, feeds, articles := fixture()

	var buf bytes.Buffer
	log := slog.New(slog.NewJSONHandler(&buf, nil))

	got, err := digest.GroupByCategory(context.Background(), log, groups, feeds, articles, []int64{42, 1})
	require.NoError(t, err)
	require.Len(t, got, 1)
	assert.Equal(t, int64(1), got[0].Category.ID)

	assert.Contains(t, buf.String(), `"level":"WARN"`)
	assert.Contains(t, buf.String(), `"msg":"Category is not found"`)
	assert.Contains(t, buf.String(), `"categoryID":42`)
}

func TestGroupByCategoryFailsOnUnknownFeed(t *testing.T) {
	groups, feeds, articles := fixture()
	delete(feeds, 12)

	got, err := digest.GroupByCategory(context.Background(), slog.Default(), groups, feeds, articles, []int64{1, 2})
	require.Error(t, err)
	assert.Nil(t, got)
	assert.True(t, errors.Is(err, digest.ErrUnknownFeed))

	var unknown *digest.UnknownFeedError
	require.ErrorAs(t, err, &unknown)
	assert.Equal(t, int64(2), unknown.CategoryID)
	assert.Equal(t, int64(12), unknown.FeedID)
	assert.Equal(t, "C", unknown.ArticleTitle)
}

func TestGroupByCategoryIsIdempotent(t *testing.T) {
	groups, feeds, articles := fixture()
	ids := []int64{1, 2, 3}

	first, err := digest.GroupByCategory(context.Background(), slog.Default(), groups, feeds, articles, ids)
	require.NoError(t, err)

	second, err := digest.GroupByCategory(context.Background(), slog.Default(), groups, feeds, articles, ids)
	require.NoError(t, err)

	assert.Equal(t, first, second)
}

func TestGroupByCategoryDoesNotMutateInput(t *testing.T) {
	groups, feeds, articles := fixture()

	_, err := digest.GroupByCategory(context.Background(), slog.Default(), groups, feeds, articles, []int64{1, 2})
	require.NoError(t, err)

	for _, a := range articles {
		assert.Empty(t, a.FeedName)
	}
}

func TestGroupByCategoryEmptyInputs(t *testing.T) {
	got, err := digest.GroupByCategory(context.Background(), slog.Default(), nil, nil, nil, []int64{1})
	require.NoError(t, err)
	assert.Empty(t, got)
}

func TestArticleCount(t *testing.T) {
	categories := []domain.CategoryArticles{
		{Articles: make([]domain.Article, 2)},
		{},
		{Articles: make([]domain.Article, 3)},
	}

	assert.Equal(t, 5, digest.ArticleCount(categories))
}
