package notifications

import (
	"context"
	"fmt"

	"github.com/avelasquez/taskflow-backend/pkg/enums"
	pkgerrors "github.com/avelasquez/taskflow-backend/pkg/errors"
)

// parseLink notifies everyone attached to either end of a post link and
// appends the pending feed rows: a personal "you linked" row for the actor
// and an overview activity row for the board.
func (s *service) parseLink(ctx context.Context, event IssueLinked) (parseOutput, error) {
	origin, err := s.posts.FindByID(ctx, event.Link.PostID)
	if err != nil {
		return parseOutput{}, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load link origin post")
	}
	linked, err := s.posts.FindByID(ctx, event.Link.LinkedPostID)
	if err != nil {
		return parseOutput{}, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load linked post")
	}
	if origin == nil || linked == nil {
		return parseOutput{}, pkgerrors.Newf(pkgerrors.CodeContract,
			"link %d references missing post", event.Link.ID)
	}

	var content, personal string
	relation := fmt.Sprintf("%q %s %q", origin.Title, event.Link.Status, linked.Title)
	switch event.Lifecycle {
	case LinkCreated:
		content = fmt.Sprintf("Issue link added: %s", relation)
		personal = fmt.Sprintf("You linked %q to %q (%s)", origin.Title, linked.Title, event.Link.Status)
	case LinkUpdated:
		content = fmt.Sprintf("Issue link updated: %s", relation)
		personal = fmt.Sprintf("You updated the link between %q and %q", origin.Title, linked.Title)
	case LinkDeleted:
		content = fmt.Sprintf("Issue link removed: %s", relation)
		personal = fmt.Sprintf("You removed the link between %q and %q", origin.Title, linked.Title)
	default:
		// Lifecycle outside the known set warrants nothing.
		return parseOutput{}, nil
	}

	// The linking user is part of the audience here; links touch two posts
	// and the actor's own board context changes with them.
	recipients := newRecipientSet()
	recipients.add(event.ActorID)
	recipients.addPtr(origin.AssigneeID)
	recipients.add(origin.CreatedBy)
	recipients.addPtr(linked.AssigneeID)
	recipients.add(linked.CreatedBy)
	watchers, err := s.posts.WatcherIDs(ctx, origin.ID)
	if err != nil {
		return parseOutput{}, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load origin watchers")
	}
	recipients.add(watchers...)

	var out parseOutput
	for _, userID := range recipients.ids() {
		out.Notifications = append(out.Notifications, notificationRow(
			event.ActorID, enums.NotificationTypeLinkedIssue, content,
			origin.ID, origin.FidBoard, userID, false))
	}

	out.FeedRows = append(out.FeedRows,
		personalFeedRow(enums.FeedCategoryWorkedOn, personal,
			origin.ID, origin.FidBoard, event.ActorID, event.ActorID),
		overviewFeedRow(enums.FeedCategoryActivityOn, content,
			origin.ID, origin.FidBoard, event.ActorID),
	)

	return out, nil
}
