package notifications

import (
	"github.com/avelasquez/taskflow-backend/pkg/db/models"
	"github.com/avelasquez/taskflow-backend/pkg/enums"
	"github.com/avelasquez/taskflow-backend/pkg/realtime"
)

// parseOutput is everything a single event yields: notification rows and
// feed rows to persist, rich-text rewrites with consumed mention markers,
// and an optional realtime broadcast.
type parseOutput struct {
	Notifications []models.Notification
	FeedRows      []models.NewsFeedItem
	CommentUpdate *contentUpdate
	PostUpdate    *contentUpdate
	Broadcast     *realtime.PostEvent
}

type contentUpdate struct {
	ID   int64
	HTML string
}

func (o parseOutput) empty() bool {
	return len(o.Notifications) == 0 &&
		len(o.FeedRows) == 0 &&
		o.CommentUpdate == nil &&
		o.PostUpdate == nil &&
		o.Broadcast == nil
}

// notificationRow builds one persistable row.
func notificationRow(actorID int64, kind enums.NotificationType, content string, postID int64, boardID int64, userID int64, isMention bool) models.Notification {
	board := boardID
	return models.Notification{
		CreatedBy: actorID,
		Type:      kind,
		Content:   content,
		PostID:    postID,
		BoardID:   &board,
		UserID:    userID,
		IsMention: isMention,
	}
}

// personalFeedRow targets one viewer; overviewFeedRow targets the board.
func personalFeedRow(category enums.FeedCategory, content string, postID, boardID, viewerID, actorID int64) models.NewsFeedItem {
	viewer := viewerID
	return models.NewsFeedItem{
		Mode:      enums.FeedModePersonal,
		Category:  category,
		Content:   content,
		PostID:    postID,
		BoardID:   boardID,
		UserID:    &viewer,
		CreatedBy: actorID,
	}
}

func overviewFeedRow(category enums.FeedCategory, content string, postID, boardID, actorID int64) models.NewsFeedItem {
	return models.NewsFeedItem{
		Mode:      enums.FeedModeOverview,
		Category:  category,
		Content:   content,
		PostID:    postID,
		BoardID:   boardID,
		CreatedBy: actorID,
	}
}

// recipientSet is an insertion-ordered set of user ids; recipients are a
// set, never a list, so nobody is notified twice for one event.
type recipientSet struct {
	order []int64
	seen  map[int64]bool
}

func newRecipientSet() *recipientSet {
	return &recipientSet{seen: map[int64]bool{}}
}

func (s *recipientSet) add(ids ...int64) {
	for _, id := range ids {
		if id <= 0 || s.seen[id] {
			continue
		}
		s.seen[id] = true
		s.order = append(s.order, id)
	}
}

func (s *recipientSet) addPtr(id *int64) {
	if id != nil {
		s.add(*id)
	}
}

func (s *recipientSet) remove(id int64) {
	if !s.seen[id] {
		return
	}
	delete(s.seen, id)
	for i, existing := range s.order {
		if existing == id {
			s.order = append(s.order[:i], s.order[i+1:]...)
			break
		}
	}
}

func (s *recipientSet) ids() []int64 {
	return append([]int64(nil), s.order...)
}
