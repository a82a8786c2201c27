package notifications

import (
	"sort"
	"time"

	"github.com/avelasquez/taskflow-backend/pkg/db/models"
	"github.com/avelasquez/taskflow-backend/pkg/enums"
)

// DefaultGroupWindow bounds how far apart two notifications on the same
// post may be while still collapsing into one visual group.
const DefaultGroupWindow = 5 * time.Minute

// DisplayGroup is one rendered entry in the notification bell: the earliest
// notification of a burst plus a count of the ones folded behind it.
type DisplayGroup struct {
	ID              int64                  `json:"id"`
	Type            enums.NotificationType `json:"type"`
	Content         string                 `json:"content"`
	PostID          int64                  `json:"post_id"`
	CreatedAt       time.Time              `json:"created_at"`
	AdditionalCount int                    `json:"additional_count"`
	Seen            bool                   `json:"seen"`
	TimeAgo         string                 `json:"time_ago,omitempty"`
}

// Group collapses a chronologically ascending notification history into
// display groups. A notification joins its post's open group when it falls
// within window of the last notification added to that group; otherwise it
// starts a new group for that post. The result is sorted most recent group
// first across all posts.
//
// This is a pure function: the same input always yields the same output.
func Group(notifs []models.Notification, window time.Duration) []DisplayGroup {
	type openGroup struct {
		first   models.Notification
		last    time.Time
		size    int
		ordinal int
	}

	open := map[int64]*openGroup{}
	var closed []*openGroup
	ordinal := 0

	for _, n := range notifs {
		current := open[n.PostID]
		if current != nil && n.CreatedAt.Sub(current.last) <= window {
			current.size++
			current.last = n.CreatedAt
			continue
		}
		if current != nil {
			closed = append(closed, current)
		}
		ordinal++
		open[n.PostID] = &openGroup{first: n, last: n.CreatedAt, size: 1, ordinal: ordinal}
	}
	for _, g := range open {
		closed = append(closed, g)
	}

	// Ordinal keeps ties deterministic; recency decides otherwise.
	sort.Slice(closed, func(i, j int) bool {
		if !closed[i].first.CreatedAt.Equal(closed[j].first.CreatedAt) {
			return closed[i].first.CreatedAt.After(closed[j].first.CreatedAt)
		}
		return closed[i].ordinal > closed[j].ordinal
	})

	groups := make([]DisplayGroup, 0, len(closed))
	for _, g := range closed {
		groups = append(groups, DisplayGroup{
			ID:              g.first.ID,
			Type:            g.first.Type,
			Content:         g.first.Content,
			PostID:          g.first.PostID,
			CreatedAt:       g.first.CreatedAt,
			AdditionalCount: g.size - 1,
			Seen:            g.first.SeenAt != nil,
		})
	}
	return groups
}
