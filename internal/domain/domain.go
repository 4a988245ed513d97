package domain

import "time"

type Group struct {
	ID      int64
	Title   string
	FeedIDs []int64
}

type Feed struct {
	ID       int64
	Title    string
	URL      string
	GroupIDs []int64
}

// Article is one fetched item. FeedName is empty until grouping resolves it.
type Article struct {
	ID        int64
	Title     string
	Author    string
	FeedID    int64
	FeedName  string
	Excerpt   string
	URL       string
	CreatedAt time.Time
	IsRead    bool
}

type (
	Groups map[int64]Group
	Feeds  map[int64]Feed
)

type CategoryArticles struct {
	Category Group
	Articles []Article
}

type RunStatus string

const (
	RunStatusSent    RunStatus = "sent"
	RunStatusSkipped RunStatus = "skipped"
	RunStatusFailed  RunStatus = "failed"
)

type Run struct {
	ID            int64
	StartedAt     time.Time
	FinishedAt    time.Time
	Since         time.Time
	CategoryCount int
	ArticleCount  int
	Status        RunStatus
	Error         string
}
