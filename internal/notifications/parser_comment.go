package notifications

import (
	"context"
	"fmt"

	"github.com/avelasquez/taskflow-backend/internal/mentions"
	"github.com/avelasquez/taskflow-backend/pkg/enums"
	pkgerrors "github.com/avelasquez/taskflow-backend/pkg/errors"
)

// parseComment notifies the post's assignee and author about a new comment,
// plus anyone mentioned in the comment body. Mentioned users are removed
// from the regular recipient set so they only receive the mention row.
func (s *service) parseComment(ctx context.Context, event CommentCreated) (parseOutput, error) {
	post, err := s.posts.FindByID(ctx, event.Comment.PostID)
	if err != nil {
		return parseOutput{}, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load commented post")
	}
	if post == nil {
		return parseOutput{}, pkgerrors.Newf(pkgerrors.CodeContract,
			"comment %d references missing post %d", event.Comment.ID, event.Comment.PostID)
	}

	recipients := newRecipientSet()
	recipients.addPtr(post.AssigneeID)
	recipients.add(post.CreatedBy)
	recipients.remove(event.ActorID)

	extracted, err := s.extractor.Parse(ctx, mentions.ParseInput{
		HTML:         event.Comment.Content,
		Type:         enums.NotificationTypeComment,
		ContextLabel: post.Title,
	})
	if err != nil {
		return parseOutput{}, err
	}

	var out parseOutput
	var notifiedIDs []int64
	for _, mention := range extracted.Mentions {
		if mention.UserID == event.ActorID {
			continue
		}
		recipients.remove(mention.UserID)
		notifiedIDs = append(notifiedIDs, mention.UserID)
		out.Notifications = append(out.Notifications, notificationRow(
			event.ActorID, enums.NotificationTypeComment, mention.Content,
			post.ID, post.FidBoard, mention.UserID, true))
		out.FeedRows = append(out.FeedRows, personalFeedRow(
			enums.FeedCategoryTaggedIn, mention.Content,
			post.ID, post.FidBoard, mention.UserID, event.ActorID))
	}

	content := fmt.Sprintf("New comment on %q", post.Title)
	for _, userID := range recipients.ids() {
		out.Notifications = append(out.Notifications, notificationRow(
			event.ActorID, enums.NotificationTypeComment, content,
			post.ID, post.FidBoard, userID, false))
	}

	if len(notifiedIDs) > 0 {
		html, err := mentions.MarkNotified(event.Comment.Content, notifiedIDs)
		if err != nil {
			return parseOutput{}, err
		}
		out.CommentUpdate = &contentUpdate{ID: event.Comment.ID, HTML: html}
	}

	out.FeedRows = append(out.FeedRows, personalFeedRow(
		enums.FeedCategoryCommentedOn, fmt.Sprintf("You commented on %q", post.Title),
		post.ID, post.FidBoard, event.ActorID, event.ActorID))

	return out, nil
}
