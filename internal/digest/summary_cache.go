package digest

import (
	"container/list"
	"crypto/sha256"
	"strings"
	"sync"
	"time"
)

const (
	summaryCacheMaxEntries = 1024
	// Long enough to cover a re-run of the previous days' digests.
	summaryCacheTTL = 72 * time.Hour
)

// summaryKey identifies one version of an article's text. An edited excerpt
// under the same URL gets a new key.
type summaryKey struct {
	articleURL string
	textSum    [sha256.Size]byte
}

func newSummaryKey(articleURL string, text string) (summaryKey, bool) {
	articleURL = strings.TrimSpace(articleURL)
	text = strings.TrimSpace(text)
	if articleURL == "" || text == "" {
		return summaryKey{}, false
	}

	return summaryKey{
		articleURL: articleURL,
		textSum:    sha256.Sum256([]byte(text)),
	}, true
}

type summaryEntry struct {
	key       summaryKey
	summary   string
	expiresAt time.Time
}

// summaryCache holds untruncated LLM summaries, least recently used first
// out once maxEntries is exceeded.
type summaryCache struct {
	mu         sync.Mutex
	entries    map[summaryKey]*list.Element
	order      *list.List
	maxEntries int
	ttl        time.Duration
}

func newSummaryCache(maxEntries int, ttl time.Duration) *summaryCache {
	if maxEntries <= 0 || ttl <= 0 {
		return nil
	}

	return &summaryCache{
		entries:    make(map[summaryKey]*list.Element, maxEntries),
		order:      list.New(),
		maxEntries: maxEntries,
		ttl:        ttl,
	}
}

func (c *summaryCache) get(key summaryKey, now time.Time) (string, bool) {
	if c == nil {
		return "", false
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	elem, ok := c.entries[key]
	if !ok {
		return "", false
	}

	entry := elem.Value.(*summaryEntry)
	if now.After(entry.expiresAt) {
		c.remove(elem)
		return "", false
	}

	c.order.MoveToFront(elem)

	return entry.summary, true
}

func (c *summaryCache) set(key summaryKey, summary string, now time.Time) {
	if c == nil || summary == "" {
		return
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	expiresAt := now.Add(c.ttl)

	if elem, ok := c.entries[key]; ok {
		entry := elem.Value.(*summaryEntry)
		entry.summary = summary
		entry.expiresAt = expiresAt
		c.order.MoveToFront(elem)

		return
	}

	c.entries[key] = c.order.PushFront(&summaryEntry{
		key:       key,
		summary:   summary,
		expiresAt: expiresAt,
	})

	for elem := c.order.Back(); elem != nil && len(c.entries) > c.maxEntries; {
		prev := elem.Prev()
		c.remove(elem)
		elem = prev
	}
}

// purgeExpired drops every expired entry and reports how many were removed.
func (c *summaryCache) purgeExpired(now time.Time) int {
	if c == nil {
		return 0
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	var removed int
	for elem := c.order.Back(); elem != nil; {
		prev := elem.Prev()
		if now.After(elem.Value.(*summaryEntry).expiresAt) {
			c.remove(elem)
			removed++
		}
		elem = prev
	}

	return removed
}

func (c *summaryCache) remove(elem *list.Element) {
	delete(c.entries, elem.Value.(*summaryEntry).key)
	c.order.Remove(elem)
}
