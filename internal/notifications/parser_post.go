package notifications

import (
	"context"
	"fmt"

	"github.com/avelasquez/taskflow-backend/internal/changes"
	"github.com/avelasquez/taskflow-backend/internal/mentions"
	"github.com/avelasquez/taskflow-backend/pkg/enums"
	pkgerrors "github.com/avelasquez/taskflow-backend/pkg/errors"
	"github.com/avelasquez/taskflow-backend/pkg/realtime"
)

// parsePost turns a post mutation into change notifications for the post's
// audience plus mention notifications for the changed description. The
// actor is excluded from their own action unless the post was just created,
// they are a party to an assignee handoff, or the notify-self override is
// set.
func (s *service) parsePost(ctx context.Context, event PostChanged) (parseOutput, error) {
	post := event.Post
	curr := changes.SnapshotOf(post)
	created := event.Created || (event.Previous == nil && changes.IsFresh(post.CreatedAt, s.now()))

	prev := event.Previous
	if created {
		prev = nil
	}
	classified, err := s.classifier.Classify(ctx, prev, curr)
	if err != nil {
		return parseOutput{}, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "classify post change")
	}

	recipients := newRecipientSet()
	recipients.addPtr(post.AssigneeID)
	recipients.add(post.CreatedBy)
	if prev != nil {
		// An assignee change concerns the outgoing assignee too.
		recipients.addPtr(prev.AssigneeID)
	}
	watchers, err := s.posts.WatcherIDs(ctx, post.ID)
	if err != nil {
		return parseOutput{}, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load post watchers")
	}
	recipients.add(watchers...)

	// Both parties of an assignment handoff hear about it, even the one who
	// caused it.
	assigneeChanged := prev != nil && !assigneeEqual(prev.AssigneeID, curr.AssigneeID)
	actorPartyToHandoff := assigneeChanged &&
		(assigneeIs(prev.AssigneeID, event.ActorID) || assigneeIs(classified.NewAssigneeID, event.ActorID))
	if !created && !actorPartyToHandoff && !event.NotifySelf {
		recipients.remove(event.ActorID)
	}

	var out parseOutput
	for _, message := range classified.Messages {
		for _, userID := range recipients.ids() {
			out.Notifications = append(out.Notifications, notificationRow(
				event.ActorID, enums.NotificationTypePost, message,
				post.ID, post.FidBoard, userID, false))
		}
	}

	descChanged := created || (prev != nil && prev.Desc != curr.Desc)
	if descChanged {
		extracted, err := s.extractor.Parse(ctx, mentions.ParseInput{
			HTML:         post.Desc,
			Type:         enums.NotificationTypePost,
			ContextLabel: post.Title,
		})
		if err != nil {
			return parseOutput{}, err
		}

		var notifiedIDs []int64
		for _, mention := range extracted.Mentions {
			if mention.UserID == event.ActorID {
				continue
			}
			notifiedIDs = append(notifiedIDs, mention.UserID)
			out.Notifications = append(out.Notifications, notificationRow(
				event.ActorID, enums.NotificationTypePost, mention.Content,
				post.ID, post.FidBoard, mention.UserID, true))
			out.FeedRows = append(out.FeedRows, personalFeedRow(
				enums.FeedCategoryTaggedIn, mention.Content,
				post.ID, post.FidBoard, mention.UserID, event.ActorID))
		}
		if len(notifiedIDs) > 0 {
			html, err := mentions.MarkNotified(post.Desc, notifiedIDs)
			if err != nil {
				return parseOutput{}, err
			}
			out.PostUpdate = &contentUpdate{ID: post.ID, HTML: html}
		}
	}

	if created {
		out.FeedRows = append(out.FeedRows, personalFeedRow(
			enums.FeedCategoryCreated, fmt.Sprintf("You created %q", post.Title),
			post.ID, post.FidBoard, event.ActorID, event.ActorID))
	}
	for _, message := range classified.Messages {
		out.FeedRows = append(out.FeedRows, overviewFeedRow(
			enums.FeedCategoryActivityOn, message,
			post.ID, post.FidBoard, event.ActorID))
	}
	if !created && len(classified.Messages) > 0 {
		out.FeedRows = append(out.FeedRows, personalFeedRow(
			enums.FeedCategoryWorkedOn, fmt.Sprintf("You updated %q", post.Title),
			post.ID, post.FidBoard, event.ActorID, event.ActorID))
	}

	if created || changes.VisibleChanged(prev, curr) {
		action := "updated"
		if created {
			action = "created"
		}
		out.Broadcast = &realtime.PostEvent{
			PostID:  post.ID,
			BoardID: post.FidBoard,
			ActorID: event.ActorID,
			Action:  action,
		}
	}

	return out, nil
}

func assigneeEqual(a, b *int64) bool {
	if a == nil || b == nil {
		return a == b
	}
	return *a == *b
}

func assigneeIs(id *int64, userID int64) bool {
	return id != nil && *id == userID
}
