package notifications

import (
	"context"
	"fmt"

	"github.com/avelasquez/taskflow-backend/pkg/db/models"
	"github.com/avelasquez/taskflow-backend/pkg/enums"
	pkgerrors "github.com/avelasquez/taskflow-backend/pkg/errors"
)

type queueEventKind string

const (
	queueEventSubmitted        queueEventKind = "submitted"
	queueEventRetriesExhausted queueEventKind = "retries_exhausted"
	queueEventSucceeded        queueEventKind = "succeeded"
	queueEventFailed           queueEventKind = "failed"
	queueEventUnknown          queueEventKind = ""
)

// classifyQueueEvent inspects what changed between the snapshots. An
// unrecognized transition is not an error; it just warrants no notification.
func classifyQueueEvent(prev *models.QueueEntry, curr models.QueueEntry) queueEventKind {
	if prev == nil {
		return queueEventSubmitted
	}
	if curr.Status == enums.QueueStatusFailed && curr.Attempts >= models.QueueEntryMaxAttempts {
		return queueEventRetriesExhausted
	}
	if curr.Outcome != nil && (prev.Outcome == nil || *prev.Outcome != *curr.Outcome) {
		switch *curr.Outcome {
		case enums.QueueOutcomeSuccess:
			return queueEventSucceeded
		case enums.QueueOutcomeFailure:
			return queueEventFailed
		}
	}
	return queueEventUnknown
}

// parseQueue notifies the post's audience about a generated branch moving
// through the PR queue.
func (s *service) parseQueue(ctx context.Context, event QueueUpdated) (parseOutput, error) {
	post, err := s.posts.FindByID(ctx, event.Entry.PostID)
	if err != nil {
		return parseOutput{}, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load queue entry post")
	}
	if post == nil {
		return parseOutput{}, pkgerrors.Newf(pkgerrors.CodeContract,
			"queue entry %d references missing post %d", event.Entry.ID, event.Entry.PostID)
	}

	var content string
	switch classifyQueueEvent(event.Previous, event.Entry) {
	case queueEventSubmitted:
		content = fmt.Sprintf("Branch %q was submitted to the queue", event.Entry.BranchName)
	case queueEventRetriesExhausted:
		content = fmt.Sprintf("Branch %q failed after %d attempts", event.Entry.BranchName, event.Entry.Attempts)
	case queueEventSucceeded:
		content = fmt.Sprintf("Branch %q finished successfully", event.Entry.BranchName)
	case queueEventFailed:
		content = fmt.Sprintf("Branch %q failed", event.Entry.BranchName)
	default:
		return parseOutput{}, nil
	}

	recipients := newRecipientSet()
	recipients.addPtr(post.AssigneeID)
	recipients.add(event.ActorID)
	watchers, err := s.posts.WatcherIDs(ctx, post.ID)
	if err != nil {
		return parseOutput{}, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load post watchers")
	}
	recipients.add(watchers...)

	var out parseOutput
	for _, userID := range recipients.ids() {
		out.Notifications = append(out.Notifications, notificationRow(
			event.ActorID, enums.NotificationTypeBranch, content,
			post.ID, post.FidBoard, userID, false))
	}

	out.FeedRows = append(out.FeedRows, overviewFeedRow(
		enums.FeedCategoryGeneratedBranches, content,
		post.ID, post.FidBoard, event.ActorID))
	if post.AssigneeID != nil {
		out.FeedRows = append(out.FeedRows, personalFeedRow(
			enums.FeedCategoryGeneratedBranches, content,
			post.ID, post.FidBoard, *post.AssigneeID, event.ActorID))
	}

	return out, nil
}
