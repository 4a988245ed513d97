package fever

import (
	"bytes"
	"fmt"
	"strconv"
	"strings"
	"time"

	"dailypaper/internal/domain"
)

// flexInt accepts both JSON numbers and numeric strings. FreshRSS encodes
// item IDs as strings, other Fever servers use numbers.
type flexInt int64

func (i *flexInt) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	if bytes.Equal(data, []byte("null")) {
		*i = 0
		return nil
	}

	s := strings.Trim(string(data), `"`)
	if s == "" {
		*i = 0
		return nil
	}

	v, err := strconv.ParseInt(s, 10, 64)
	if err != nil {
		return fmt.Errorf("parse integer %s: %w", data, err)
	}

	*i = flexInt(v)

	return nil
}

// flexBool accepts 0/1, "0"/"1" and true/false.
type flexBool bool

func (b *flexBool) UnmarshalJSON(data []byte) error {
	switch strings.Trim(string(bytes.TrimSpace(data)), `"`) {
	case "1", "true":
		*b = true
	case "0", "false", "", "null":
		*b = false
	default:
		return fmt.Errorf("parse boolean %s", data)
	}

	return nil
}

type authenticated interface {
	authorized() bool
}

type baseResponse struct {
	APIVersion int     `json:"api_version"`
	Auth       flexInt `json:"auth"`
}

func (r *baseResponse) authorized() bool {
	return r.Auth == 1
}

type feedsGroup struct {
	GroupID flexInt `json:"group_id"`
	FeedIDs string  `json:"feed_ids"`
}

type group struct {
	ID    flexInt `json:"id"`
	Title string  `json:"title"`
}

type groupsResponse struct {
	baseResponse
	Groups      []group      `json:"groups"`
	FeedsGroups []feedsGroup `json:"feeds_groups"`
}

type feed struct {
	ID      flexInt `json:"id"`
	Title   string  `json:"title"`
	URL     string  `json:"url"`
	SiteURL string  `json:"site_url"`
}

type feedsResponse struct {
	baseResponse
	Feeds       []feed       `json:"feeds"`
	FeedsGroups []feedsGroup `json:"feeds_groups"`
}

type item struct {
	ID            flexInt  `json:"id"`
	FeedID        flexInt  `json:"feed_id"`
	Title         string   `json:"title"`
	Author        string   `json:"author"`
	HTML          string   `json:"html"`
	URL           string   `json:"url"`
	IsSaved       flexBool `json:"is_saved"`
	IsRead        flexBool `json:"is_read"`
	CreatedOnTime flexInt  `json:"created_on_time"`
}

type itemsResponse struct {
	baseResponse
	Items      []item  `json:"items"`
	TotalItems flexInt `json:"total_items"`
}

func (it item) article() domain.Article {
	var createdAt time.Time
	if it.CreatedOnTime > 0 {
		createdAt = time.Unix(int64(it.CreatedOnTime), 0).UTC()
	}

	return domain.Article{
		ID:        int64(it.ID),
		Title:     it.Title,
		Author:    it.Author,
		FeedID:    int64(it.FeedID),
		Excerpt:   it.HTML,
		URL:       strings.TrimSpace(it.URL),
		CreatedAt: createdAt,
		IsRead:    bool(it.IsRead),
	}
}

// ParseIDList parses a comma-separated ID list such as "3,1,2", keeping order.
// Blank entries are ignored.
func ParseIDList(raw string) ([]int64, error) {
	ids := []int64{}

	for part := range strings.SplitSeq(raw, ",") {
		part = strings.TrimSpace(part)
		if part == "" {
			continue
		}

		id, err := strconv.ParseInt(part, 10, 64)
		if err != nil {
			return nil, fmt.Errorf("parse ID %q: %w", part, err)
		}

		ids = append(ids, id)
	}

	return ids, nil
}
