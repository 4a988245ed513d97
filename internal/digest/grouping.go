package digest

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"slices"

	"dailypaper/internal/domain"
)

var ErrUnknownFeed = errors.New("article references unknown feed")

// UnknownFeedError reports an article whose feed was not fetched.
type UnknownFeedError struct {
	CategoryID   int64
	FeedID       int64
	ArticleTitle string
}

func (e *UnknownFeedError) Error() string {
	return fmt.Sprintf("%s (categoryID = %d, feedID = %d, article = %q)",
		ErrUnknownFeed, e.CategoryID, e.FeedID, e.ArticleTitle)
}

func (e *UnknownFeedError) Unwrap() error {
	return ErrUnknownFeed
}

// GroupByCategory selects the articles of every configured category in
// categoryIDs order. Categories missing from groups are logged and skipped.
// The articles slice is not modified; each category receives its own copies
// with FeedName resolved.
func GroupByCategory(
	ctx context.Context,
	log *slog.Logger,
	groups domain.Groups,
	feeds domain.Feeds,
	articles []domain.Article,
	categoryIDs []int64,
) ([]domain.CategoryArticles, error) {
	categories := make([]domain.CategoryArticles, 0, len(categoryIDs))

	for _, categoryID := range categoryIDs {
		category, ok := groups[categoryID]
		if !ok {
			log.WarnContext(ctx, "Category is not found",
				"categoryID", categoryID,
				"groupCount", len(groups))

			continue
		}

		selected, err := selectArticles(category, feeds, articles)
		if err != nil {
			return nil, err
		}

		categories = append(categories, domain.CategoryArticles{
			Category: category,
			Articles: selected,
		})
	}

	return categories, nil
}

func selectArticles(
	category domain.Group,
	feeds domain.Feeds,
	articles []domain.Article,
) ([]domain.Article, error) {
	selected := make([]domain.Article, 0)

	for _, article := range articles {
		if !slices.Contains(category.FeedIDs, article.FeedID) {
			continue
		}

		feed, ok := feeds[article.FeedID]
		if !ok {
			return nil, &UnknownFeedError{
				CategoryID:   category.ID,
				FeedID:       article.FeedID,
				ArticleTitle: article.Title,
			}
		}

		article.FeedName = feed.Title
		selected = append(selected, article)
	}

	return selected, nil
}

// ArticleCount sums the articles across categories.
func ArticleCount(categories []domain.CategoryArticles) int {
	var n int
	for _, c := range categories {
		n += len(c.Articles)
	}

	return n
}
