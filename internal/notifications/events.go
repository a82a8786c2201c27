package notifications

import (
	"github.com/avelasquez/taskflow-backend/internal/changes"
	"github.com/avelasquez/taskflow-backend/pkg/db/models"
)

// Event is the sealed set of domain mutations that can generate
// notifications. Notify dispatches on the concrete type; anything outside
// this set is a caller bug.
type Event interface {
	isEvent()
}

// CommentCreated fires after a comment row has been persisted.
type CommentCreated struct {
	Comment models.Comment
	ActorID int64
}

func (CommentCreated) isEvent() {}

// PostChanged fires after a post has been created or updated. Previous is
// nil on creation; NotifySelf forces the actor into the recipient set (used
// when a board move changes the actor's own board context).
type PostChanged struct {
	Post       models.Post
	Previous   *changes.Snapshot
	ActorID    int64
	Created    bool
	NotifySelf bool
}

func (PostChanged) isEvent() {}

// LinkLifecycle tells the linked-issue parser which mutation occurred.
type LinkLifecycle string

const (
	LinkCreated LinkLifecycle = "created"
	LinkUpdated LinkLifecycle = "updated"
	LinkDeleted LinkLifecycle = "deleted"
)

// IssueLinked fires after a linked-issue row has been created, updated or
// deleted.
type IssueLinked struct {
	Link      models.LinkedIssue
	ActorID   int64
	Lifecycle LinkLifecycle
}

func (IssueLinked) isEvent() {}

// QueueUpdated fires after a PR-queue entry changes. Previous is nil when
// the entry was just submitted.
type QueueUpdated struct {
	Entry    models.QueueEntry
	Previous *models.QueueEntry
	ActorID  int64
}

func (QueueUpdated) isEvent() {}

// BoardConfigChanged is accepted but produces nothing. Board-level
// notifications are intentionally unimplemented; the explicit variant keeps
// the dispatch exhaustive without guessing future behavior.
type BoardConfigChanged struct {
	BoardID int64
	ActorID int64
}

func (BoardConfigChanged) isEvent() {}
