package changes

import (
	"context"
	"fmt"
	"time"

	"github.com/avelasquez/taskflow-backend/internal/boards"
	"github.com/avelasquez/taskflow-backend/internal/users"
	"github.com/avelasquez/taskflow-backend/pkg/db/models"
	"github.com/avelasquez/taskflow-backend/pkg/logger"
)

// CreationWindow is how long after creation a post still counts as fresh,
// bypassing field diffing in favor of a single creation message.
const CreationWindow = 5 * time.Minute

// Snapshot is an explicit copy of a post's user-facing fields. Callers pass
// the previous and current snapshots instead of relying on ORM dirty
// tracking, which keeps the diff testable in isolation.
type Snapshot struct {
	Title      string
	Desc       string
	Column     string
	AssigneeID *int64
	FidBoard   int64
	Deadline   *time.Time
	Priority   string
	Pinned     bool
	CreatedAt  time.Time
	UpdatedAt  time.Time
}

// SnapshotOf captures the classifiable fields of a post.
func SnapshotOf(p models.Post) Snapshot {
	return Snapshot{
		Title:      p.Title,
		Desc:       p.Desc,
		Column:     p.Column,
		AssigneeID: p.AssigneeID,
		FidBoard:   p.FidBoard,
		Deadline:   p.Deadline,
		Priority:   p.Priority,
		Pinned:     p.Pinned,
		CreatedAt:  p.CreatedAt,
		UpdatedAt:  p.UpdatedAt,
	}
}

// IsFresh reports whether a post created at createdAt still falls inside the
// creation window at now.
func IsFresh(createdAt, now time.Time) bool {
	return now.Sub(createdAt) <= CreationWindow
}

// Result is the classified outcome of one change event.
type Result struct {
	Messages []string
	// NewAssigneeID is set when the event handed the post to a new assignee.
	NewAssigneeID *int64
}

// Classifier turns snapshot pairs into human-readable change messages.
type Classifier struct {
	directory users.Directory
	boards    boards.Resolver
	logg      *logger.Logger
}

func NewClassifier(directory users.Directory, boardResolver boards.Resolver, logg *logger.Logger) *Classifier {
	return &Classifier{directory: directory, boards: boardResolver, logg: logg}
}

// Classify diffs prev against curr and returns one message per changed
// field, in a fixed field order. A nil prev means creation and yields the
// single creation message. An updated_at-only diff yields nothing.
//
// When an assignee change is present and either side's name cannot be
// resolved, the entire message batch is discarded and the anomaly logged.
// A single bad lookup therefore suppresses every message for the event,
// not just the assignee one; that matches the legacy behavior on purpose.
func (c *Classifier) Classify(ctx context.Context, prev *Snapshot, curr Snapshot) (Result, error) {
	if prev == nil {
		return Result{Messages: []string{"created a new post"}}, nil
	}

	var result Result
	if prev.Title != curr.Title {
		result.Messages = append(result.Messages,
			fmt.Sprintf("Title changed from %q to %q", prev.Title, curr.Title))
	}
	if prev.Desc != curr.Desc {
		result.Messages = append(result.Messages, "Description was updated")
	}
	if prev.Column != curr.Column {
		result.Messages = append(result.Messages,
			fmt.Sprintf("Moved from %q to %q", prev.Column, curr.Column))
	}

	if !sameID(prev.AssigneeID, curr.AssigneeID) {
		msg, ok := c.assigneeMessage(ctx, prev.AssigneeID, curr.AssigneeID)
		if !ok {
			// Lookup failed for an id that should exist; treat the whole
			// event as inconsistent and notify nobody about it.
			return Result{}, nil
		}
		result.Messages = append(result.Messages, msg)
		result.NewAssigneeID = curr.AssigneeID
	}

	if prev.FidBoard != curr.FidBoard {
		if msg, ok := c.boardMessage(ctx, curr.FidBoard); ok {
			result.Messages = append(result.Messages, msg)
		}
	}

	if !sameTime(prev.Deadline, curr.Deadline) {
		result.Messages = append(result.Messages, deadlineMessage(curr.Deadline))
	}
	if prev.Priority != curr.Priority {
		result.Messages = append(result.Messages,
			fmt.Sprintf("Priority changed to %q", curr.Priority))
	}
	if prev.Pinned != curr.Pinned {
		if curr.Pinned {
			result.Messages = append(result.Messages, "Pinned to board")
		} else {
			result.Messages = append(result.Messages, "Unpinned from board")
		}
	}

	return result, nil
}

func (c *Classifier) assigneeMessage(ctx context.Context, oldID, newID *int64) (string, bool) {
	var lookup []int64
	if oldID != nil {
		lookup = append(lookup, *oldID)
	}
	if newID != nil {
		lookup = append(lookup, *newID)
	}

	names := map[int64]string{}
	if len(lookup) > 0 {
		resolved, err := c.directory.NamesByIDs(ctx, lookup)
		if err != nil {
			c.warn(ctx, "assignee name lookup failed", lookup)
			return "", false
		}
		names = resolved
	}

	oldName, ok := resolveName(names, oldID, "Unassigned")
	if !ok {
		c.warn(ctx, "previous assignee does not resolve", lookup)
		return "", false
	}
	newName, ok := resolveName(names, newID, "Unassigned")
	if !ok {
		c.warn(ctx, "new assignee does not resolve", lookup)
		return "", false
	}

	return fmt.Sprintf("Assignee changed from %s to %s", oldName, newName), true
}

func (c *Classifier) boardMessage(ctx context.Context, boardID int64) (string, bool) {
	title, err := c.boards.TitleByID(ctx, boardID)
	if err != nil || title == "" {
		c.warn(ctx, "destination board does not resolve", []int64{boardID})
		return "", false
	}
	return fmt.Sprintf("Moved to board %q", title), true
}

func (c *Classifier) warn(ctx context.Context, msg string, ids []int64) {
	if c.logg == nil {
		return
	}
	c.logg.Warn(c.logg.WithField(ctx, "lookup_ids", ids), msg)
}

func resolveName(names map[int64]string, id *int64, fallback string) (string, bool) {
	if id == nil {
		return fallback, true
	}
	name, ok := names[*id]
	if !ok || name == "" {
		return "", false
	}
	return name, true
}

func deadlineMessage(deadline *time.Time) string {
	if deadline == nil {
		return "Deadline removed"
	}
	return fmt.Sprintf("Deadline set to %s", deadline.Format("Jan 2, 2006"))
}

func sameID(a, b *int64) bool {
	if a == nil || b == nil {
		return a == b
	}
	return *a == *b
}

func sameTime(a, b *time.Time) bool {
	if a == nil || b == nil {
		return a == b
	}
	return a.Equal(*b)
}

// VisibleChanged reports whether any field that board subscribers can see
// changed between the snapshots. Used to gate the realtime broadcast.
func VisibleChanged(prev *Snapshot, curr Snapshot) bool {
	if prev == nil {
		return true
	}
	return prev.Title != curr.Title ||
		prev.Desc != curr.Desc ||
		prev.Column != curr.Column ||
		!sameID(prev.AssigneeID, curr.AssigneeID) ||
		!sameTime(prev.Deadline, curr.Deadline) ||
		prev.Priority != curr.Priority ||
		prev.Pinned != curr.Pinned
}
