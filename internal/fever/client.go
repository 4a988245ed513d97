package fever

import (
	"context"
	"crypto/md5" //nolint:gosec // Fever derives its API key from MD5.
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"net/url"
	"strings"
	"time"

	"dailypaper/internal/domain"
)

const (
	apiPath = "/api/fever.php"

	// Fever returns at most this many items per request.
	itemsPageSize = 50
	maxItemPages  = 200
)

var ErrUnauthorized = errors.New("fever API rejected credentials")

type Config struct {
	URL      string
	Username string
	Password string
	Timeout  time.Duration
}

type Client struct {
	baseURL    string
	apiKey     string
	skipRead   bool
	httpClient *http.Client
	log        *slog.Logger
}

// NewClient builds a client. When skipRead is true FetchArticles drops
// items already marked as read.
func NewClient(cfg Config, skipRead bool, log *slog.Logger) (*Client, error) {
	baseURL := strings.TrimRight(strings.TrimSpace(cfg.URL), "/")
	if baseURL == "" {
		return nil, errors.New("fever URL is empty")
	}

	if _, err := url.Parse(baseURL); err != nil {
		return nil, fmt.Errorf("parse fever URL: %w", err)
	}

	return &Client{
		baseURL:    baseURL,
		apiKey:     APIKey(cfg.Username, cfg.Password),
		skipRead:   skipRead,
		httpClient: &http.Client{Timeout: cfg.Timeout},
		log:        log,
	}, nil
}

// APIKey derives the Fever api_key from the username and API password.
func APIKey(username string, password string) string {
	sum := md5.Sum([]byte(username + ":" + password)) //nolint:gosec // Fever protocol.
	return hex.EncodeToString(sum[:])
}

func (c *Client) FetchGroups(ctx context.Context) (domain.Groups, error) {
	var resp groupsResponse
	if err := c.call(ctx, "groups", &resp); err != nil {
		return nil, fmt.Errorf("fetch groups: %w", err)
	}

	groups := make(domain.Groups, len(resp.Groups))
	for _, g := range resp.Groups {
		groups[int64(g.ID)] = domain.Group{
			ID:      int64(g.ID),
			Title:   strings.TrimSpace(g.Title),
			FeedIDs: []int64{},
		}
	}

	for _, fg := range resp.FeedsGroups {
		feedIDs, err := ParseIDList(fg.FeedIDs)
		if err != nil {
			return nil, fmt.Errorf("parse feed IDs (groupID = %d): %w", fg.GroupID, err)
		}

		group, ok := groups[int64(fg.GroupID)]
		if !ok {
			c.log.WarnContext(ctx, "Skipping membership of unknown group",
				"groupID", int64(fg.GroupID),
				"feedCount", len(feedIDs))

			continue
		}

		group.FeedIDs = feedIDs
		groups[group.ID] = group
	}

	return groups, nil
}

func (c *Client) FetchFeeds(ctx context.Context) (domain.Feeds, error) {
	var resp feedsResponse
	if err := c.call(ctx, "feeds", &resp); err != nil {
		return nil, fmt.Errorf("fetch feeds: %w", err)
	}

	feeds := make(domain.Feeds, len(resp.Feeds))
	for _, f := range resp.Feeds {
		feeds[int64(f.ID)] = domain.Feed{
			ID:       int64(f.ID),
			Title:    strings.TrimSpace(f.Title),
			URL:      strings.TrimSpace(f.SiteURL),
			GroupIDs: []int64{},
		}
	}

	for _, fg := range resp.FeedsGroups {
		feedIDs, err := ParseIDList(fg.FeedIDs)
		if err != nil {
			return nil, fmt.Errorf("parse feed IDs (groupID = %d): %w", fg.GroupID, err)
		}

		for _, feedID := range feedIDs {
			feed, ok := feeds[feedID]
			if !ok {
				c.log.WarnContext(ctx, "Skipping membership of unknown feed",
					"feedID", feedID,
					"groupID", int64(fg.GroupID))

				continue
			}

			feed.GroupIDs = append(feed.GroupIDs, int64(fg.GroupID))
			feeds[feedID] = feed
		}
	}

	return feeds, nil
}

// FetchArticles returns the items created after since, following pages until
// Fever returns a short page.
func (c *Client) FetchArticles(ctx context.Context, since time.Time) ([]domain.Article, error) {
	sinceID := since.UnixMicro()
	var articles []domain.Article

	for page := 0; ; page++ {
		if page >= maxItemPages {
			c.log.WarnContext(ctx, "Item page limit is reached",
				"pages", page,
				"articleCount", len(articles),
				"sinceID", sinceID)

			break
		}

		var resp itemsResponse
		if err := c.call(ctx, fmt.Sprintf("items&since_id=%d", sinceID), &resp); err != nil {
			return nil, fmt.Errorf("fetch items (sinceID = %d): %w", sinceID, err)
		}

		for _, item := range resp.Items {
			sinceID = max(sinceID, int64(item.ID))

			if c.skipRead && bool(item.IsRead) {
				continue
			}

			articles = append(articles, item.article())
		}

		if len(resp.Items) < itemsPageSize {
			break
		}
	}

	return articles, nil
}

func (c *Client) call(ctx context.Context, path string, out authenticated) error {
	endpoint := c.baseURL + apiPath + "?api&" + path

	form := url.Values{}
	form.Set("api_key", c.apiKey)

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, strings.NewReader(form.Encode()))
	if err != nil {
		return fmt.Errorf("create request: %w", err)
	}

	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	req.Header.Set("Accept", "application/json")

	resp, err := c.httpClient.Do(req) //nolint:gosec // Configured Fever URL.
	if err != nil {
		return fmt.Errorf("do request: %w", err)
	}
	defer func() {
		if err = resp.Body.Close(); err != nil {
			c.log.ErrorContext(ctx, "Failed to close response body",
				"error", err,
				"endpoint", endpoint)
		}
	}()

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("do request: unexpected status: %d", resp.StatusCode)
	}

	if err = json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("decode response: %w", err)
	}

	if !out.authorized() {
		return ErrUnauthorized
	}

	return nil
}
