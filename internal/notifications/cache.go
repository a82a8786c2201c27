package notifications

import (
	"sort"
	"sync"
	"time"

	"github.com/avelasquez/taskflow-backend/pkg/db/models"
	humanize "github.com/dustin/go-humanize"
)

// MaxGroups caps how many post-groups the cache retains per user.
const MaxGroups = 10

// Cache is the fast read path for grouped notifications, keyed by
// (userID, postID) with a per-user recency index. It is best-effort and
// non-transactional; Prime rebuilds it from the durable store on cold reads.
//
// All operations take the cache lock, so concurrent pushes from separate
// requests cannot lose updates.
type Cache struct {
	mu        sync.Mutex
	users     map[int64]*userGroups
	maxGroups int
	seq       int64
	now       func() time.Time
}

type userGroups struct {
	groups map[int64]*cacheGroup
}

// cacheGroup holds one post's raw notifications, most-recent-first.
type cacheGroup struct {
	postID   int64
	items    []models.Notification
	seenAt   *time.Time
	lastPush time.Time
	seq      int64
}

func NewCache(maxGroups int) *Cache {
	if maxGroups <= 0 {
		maxGroups = MaxGroups
	}
	return &Cache{
		users:     map[int64]*userGroups{},
		maxGroups: maxGroups,
		now:       time.Now,
	}
}

// Push prepends a notification to the user's group for the post, clearing
// the group's seen marker (new activity un-reads the group), bumping it to
// the front of the recency index and evicting past the cap.
func (c *Cache) Push(userID, postID int64, n models.Notification) {
	c.mu.Lock()
	defer c.mu.Unlock()

	ug := c.users[userID]
	if ug == nil {
		ug = &userGroups{groups: map[int64]*cacheGroup{}}
		c.users[userID] = ug
	}

	g := ug.groups[postID]
	if g == nil {
		g = &cacheGroup{postID: postID}
		ug.groups[postID] = g
	}

	g.items = append([]models.Notification{n}, g.items...)
	g.seenAt = nil
	g.lastPush = c.now()
	c.seq++
	g.seq = c.seq

	c.enforceLimitLocked(ug)
}

// enforceLimitLocked evicts the least-recently-touched groups until the
// user is back at the cap. Equal timestamps fall back to insertion order.
func (c *Cache) enforceLimitLocked(ug *userGroups) {
	for len(ug.groups) > c.maxGroups {
		var oldest *cacheGroup
		for _, g := range ug.groups {
			if oldest == nil || g.olderThan(oldest) {
				oldest = g
			}
		}
		delete(ug.groups, oldest.postID)
	}
}

func (g *cacheGroup) olderThan(other *cacheGroup) bool {
	if !g.lastPush.Equal(other.lastPush) {
		return g.lastPush.Before(other.lastPush)
	}
	return g.seq < other.seq
}

// Read returns the user's groups newest-first. The most recently pushed
// notification of each group is the primary; the relative time string is
// computed here, never stored.
func (c *Cache) Read(userID int64) []DisplayGroup {
	c.mu.Lock()
	defer c.mu.Unlock()

	ug := c.users[userID]
	if ug == nil || len(ug.groups) == 0 {
		return nil
	}

	ordered := make([]*cacheGroup, 0, len(ug.groups))
	for _, g := range ug.groups {
		ordered = append(ordered, g)
	}
	sort.Slice(ordered, func(i, j int) bool {
		return ordered[j].olderThan(ordered[i])
	})

	groups := make([]DisplayGroup, 0, len(ordered))
	for _, g := range ordered {
		primary := g.items[0]
		groups = append(groups, DisplayGroup{
			ID:              primary.ID,
			Type:            primary.Type,
			Content:         primary.Content,
			PostID:          g.postID,
			CreatedAt:       primary.CreatedAt,
			AdditionalCount: len(g.items) - 1,
			Seen:            g.seenAt != nil && !g.seenAt.Before(primary.CreatedAt),
			TimeAgo:         humanize.Time(primary.CreatedAt),
		})
	}
	return groups
}

// MarkSeen records a seen timestamp for one group only.
func (c *Cache) MarkSeen(userID, postID int64) {
	c.mu.Lock()
	defer c.mu.Unlock()

	ug := c.users[userID]
	if ug == nil {
		return
	}
	g := ug.groups[postID]
	if g == nil {
		return
	}
	now := c.now()
	g.seenAt = &now
}

// ClearUser drops every cached group for the user.
func (c *Cache) ClearUser(userID int64) {
	c.mu.Lock()
	defer c.mu.Unlock()
	delete(c.users, userID)
}

// ClearPostGroup drops a single group.
func (c *Cache) ClearPostGroup(userID, postID int64) {
	c.mu.Lock()
	defer c.mu.Unlock()

	ug := c.users[userID]
	if ug == nil {
		return
	}
	delete(ug.groups, postID)
}

// GroupCount reports how many groups the user currently holds.
func (c *Cache) GroupCount(userID int64) int {
	c.mu.Lock()
	defer c.mu.Unlock()

	ug := c.users[userID]
	if ug == nil {
		return 0
	}
	return len(ug.groups)
}

// Prime rebuilds the user's cache from a chronologically ascending
// durable-store read, then re-enforces the cap. This is the reconciliation
// path after eviction or restart.
func (c *Cache) Prime(userID int64, notifs []models.Notification, window time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()

	ug := &userGroups{groups: map[int64]*cacheGroup{}}
	c.users[userID] = ug

	for _, n := range notifs {
		g := ug.groups[n.PostID]
		join := g != nil && n.CreatedAt.Sub(g.items[0].CreatedAt) <= window
		if !join {
			g = &cacheGroup{postID: n.PostID}
			ug.groups[n.PostID] = g
		}
		g.items = append([]models.Notification{n}, g.items...)
		g.lastPush = n.CreatedAt
		c.seq++
		g.seq = c.seq
		if n.SeenAt != nil {
			g.seenAt = n.SeenAt
		}
	}

	c.enforceLimitLocked(ug)
}
