package notifications

import (
	"context"
	"strings"
	"testing"
	"time"

	"github.com/avelasquez/taskflow-backend/internal/changes"
	"github.com/avelasquez/taskflow-backend/pkg/db/models"
	"github.com/avelasquez/taskflow-backend/pkg/enums"
	pkgerrors "github.com/avelasquez/taskflow-backend/pkg/errors"
)

func mentionMarker(id, label string) string {
	return `<span data-type="mention" data-id="` + id + `" data-label="` + label + `" data-notified="false">@` + label + `</span>`
}

func intPtr(v int64) *int64 { return &v }

func rowsFor(rows []models.Notification, userID int64) []models.Notification {
	var out []models.Notification
	for _, row := range rows {
		if row.UserID == userID {
			out = append(out, row)
		}
	}
	return out
}

func feedRows(rows []models.NewsFeedItem, category enums.FeedCategory) []models.NewsFeedItem {
	var out []models.NewsFeedItem
	for _, row := range rows {
		if row.Category == category {
			out = append(out, row)
		}
	}
	return out
}

// Comment by the user who is both assignee and author, mentioning someone
// else: the actor gets no notification, the mentioned user gets exactly one
// mention row, and the consumed marker is flipped in the stored comment.
func TestNotifyCommentActorIsAssigneeAndAuthor(t *testing.T) {
	body := "<p>" + mentionMarker("9", "Bo") + " please review</p>"
	env := newTestEnv(t, &fakePosts{
		posts: map[int64]*models.Post{
			100: {ID: 100, Title: "Launch", AssigneeID: intPtr(5), CreatedBy: 5, FidBoard: 7},
		},
		watchers: map[int64][]int64{},
	}, map[int64]string{5: "Ana", 9: "Bo"})

	err := env.svc.Notify(context.Background(), CommentCreated{
		Comment: models.Comment{ID: 1, PostID: 100, Content: body, CreatedBy: 5},
		ActorID: 5,
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	all := env.repo.allCreated()
	if len(all) != 1 {
		t.Fatalf("expected exactly one notification, got %d", len(all))
	}
	row := all[0]
	if row.UserID != 9 || !row.IsMention {
		t.Fatalf("expected a mention row for user 9, got %+v", row)
	}
	if row.Content != "You were mentioned in Launch" {
		t.Fatalf("unexpected mention content %q", row.Content)
	}
	if row.Type != enums.NotificationTypeComment || row.CreatedBy != 5 {
		t.Fatalf("unexpected row metadata %+v", row)
	}

	html, ok := env.content.commentHTML[1]
	if !ok {
		t.Fatal("expected the comment body rewritten")
	}
	if !strings.Contains(html, `data-notified="true"`) {
		t.Fatalf("mention marker not consumed: %s", html)
	}

	if tagged := feedRows(env.feed.allCreated(), enums.FeedCategoryTaggedIn); len(tagged) != 1 || *tagged[0].UserID != 9 {
		t.Fatalf("expected one tagged_in row for user 9, got %+v", tagged)
	}
	if commented := feedRows(env.feed.allCreated(), enums.FeedCategoryCommentedOn); len(commented) != 1 || *commented[0].UserID != 5 {
		t.Fatalf("expected one commented_on row for the actor, got %+v", commented)
	}
}

func TestNotifyCommentNotifiesAssigneeAndAuthor(t *testing.T) {
	env := newTestEnv(t, &fakePosts{
		posts: map[int64]*models.Post{
			100: {ID: 100, Title: "Launch", AssigneeID: intPtr(5), CreatedBy: 9, FidBoard: 7},
		},
		watchers: map[int64][]int64{},
	}, map[int64]string{})

	err := env.svc.Notify(context.Background(), CommentCreated{
		Comment: models.Comment{ID: 1, PostID: 100, Content: "<p>plain comment</p>"},
		ActorID: 3,
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	all := env.repo.allCreated()
	if len(all) != 2 {
		t.Fatalf("expected rows for assignee and author, got %d", len(all))
	}
	for _, row := range all {
		if row.Content != `New comment on "Launch"` {
			t.Fatalf("unexpected content %q", row.Content)
		}
		if row.IsMention {
			t.Fatal("regular comment rows must not be mention rows")
		}
	}
	if len(rowsFor(all, 5)) != 1 || len(rowsFor(all, 9)) != 1 {
		t.Fatalf("unexpected recipients: %+v", all)
	}
}

// A mentioned assignee receives only the mention row, never a duplicate
// regular row for the same event.
func TestNotifyCommentMentionSupersedesRegularRow(t *testing.T) {
	body := "<p>" + mentionMarker("5", "Ana") + "</p>"
	env := newTestEnv(t, &fakePosts{
		posts: map[int64]*models.Post{
			100: {ID: 100, Title: "Launch", AssigneeID: intPtr(5), CreatedBy: 9, FidBoard: 7},
		},
		watchers: map[int64][]int64{},
	}, map[int64]string{5: "Ana"})

	err := env.svc.Notify(context.Background(), CommentCreated{
		Comment: models.Comment{ID: 1, PostID: 100, Content: body},
		ActorID: 3,
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	assigneeRows := rowsFor(env.repo.allCreated(), 5)
	if len(assigneeRows) != 1 {
		t.Fatalf("expected exactly one row for the mentioned assignee, got %d", len(assigneeRows))
	}
	if !assigneeRows[0].IsMention {
		t.Fatal("the surviving row should be the mention")
	}
}

func TestNotifyCommentMissingPostIsContractViolation(t *testing.T) {
	env := newTestEnv(t, nil, nil)

	err := env.svc.Notify(context.Background(), CommentCreated{
		Comment: models.Comment{ID: 1, PostID: 404},
		ActorID: 3,
	})
	if !pkgerrors.IsCode(err, pkgerrors.CodeContract) {
		t.Fatalf("expected contract violation, got %v", err)
	}
}

func TestNotifyPostCreatedIncludesActor(t *testing.T) {
	post := models.Post{
		ID:        100,
		Title:     "Launch",
		Column:    "To Do",
		CreatedBy: 5,
		FidBoard:  7,
		CreatedAt: time.Now(),
	}
	env := newTestEnv(t, &fakePosts{
		posts:    map[int64]*models.Post{100: &post},
		watchers: map[int64][]int64{100: {8}},
	}, map[int64]string{5: "Ana", 8: "Kim"})

	err := env.svc.Notify(context.Background(), PostChanged{Post: post, ActorID: 5, Created: true})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	all := env.repo.allCreated()
	if len(rowsFor(all, 5)) != 1 {
		t.Fatal("the creator should be notified about their own creation")
	}
	if len(rowsFor(all, 8)) != 1 {
		t.Fatal("watchers should be notified")
	}
	for _, row := range all {
		if row.Content != "created a new post" {
			t.Fatalf("unexpected content %q", row.Content)
		}
	}

	if created := feedRows(env.feed.allCreated(), enums.FeedCategoryCreated); len(created) != 1 || *created[0].UserID != 5 {
		t.Fatalf("expected one personal created row, got %+v", created)
	}
	if activity := feedRows(env.feed.allCreated(), enums.FeedCategoryActivityOn); len(activity) != 1 {
		t.Fatalf("expected one overview activity row, got %+v", activity)
	}

	if len(env.broadcast.events) != 1 || env.broadcast.events[0].Action != "created" {
		t.Fatalf("expected a created broadcast, got %+v", env.broadcast.events)
	}
}

func TestNotifyPostUpdateExcludesActor(t *testing.T) {
	post := models.Post{
		ID:        100,
		Title:     "Launch v2",
		Column:    "To Do",
		CreatedBy: 5,
		FidBoard:  7,
		CreatedAt: time.Now().Add(-time.Hour),
	}
	prev := changes.SnapshotOf(post)
	prev.Title = "Launch"

	env := newTestEnv(t, &fakePosts{
		posts:    map[int64]*models.Post{100: &post},
		watchers: map[int64][]int64{100: {8}},
	}, map[int64]string{5: "Ana", 8: "Kim"})

	err := env.svc.Notify(context.Background(), PostChanged{Post: post, Previous: &prev, ActorID: 5})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	all := env.repo.allCreated()
	if len(rowsFor(all, 5)) != 0 {
		t.Fatal("the actor must not hear about their own update")
	}
	if len(rowsFor(all, 8)) != 1 {
		t.Fatalf("watcher should get the title change, got %+v", all)
	}
	if all[0].Content != `Title changed from "Launch" to "Launch v2"` {
		t.Fatalf("unexpected content %q", all[0].Content)
	}

	if worked := feedRows(env.feed.allCreated(), enums.FeedCategoryWorkedOn); len(worked) != 1 || *worked[0].UserID != 5 {
		t.Fatalf("expected the actor's worked_on row, got %+v", worked)
	}
	if len(env.broadcast.events) != 1 || env.broadcast.events[0].Action != "updated" {
		t.Fatalf("expected an updated broadcast, got %+v", env.broadcast.events)
	}
}

// Handing the post to the actor keeps them in the recipient set even though
// they caused the change.
func TestNotifyPostAssignmentToActorOverridesSelfExclusion(t *testing.T) {
	post := models.Post{
		ID:         100,
		Title:      "Launch",
		Column:     "To Do",
		AssigneeID: intPtr(5),
		CreatedBy:  9,
		FidBoard:   7,
		CreatedAt:  time.Now().Add(-time.Hour),
	}
	prev := changes.SnapshotOf(post)
	prev.AssigneeID = nil

	env := newTestEnv(t, &fakePosts{
		posts:    map[int64]*models.Post{100: &post},
		watchers: map[int64][]int64{},
	}, map[int64]string{5: "Ana", 9: "Bo"})

	err := env.svc.Notify(context.Background(), PostChanged{Post: post, Previous: &prev, ActorID: 5})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	all := env.repo.allCreated()
	if len(rowsFor(all, 5)) != 1 {
		t.Fatalf("the new assignee should be notified even as actor, got %+v", all)
	}
	if all[0].Content != "Assignee changed from Unassigned to Ana" {
		t.Fatalf("unexpected content %q", all[0].Content)
	}
}

// Reassigning a post from yourself to someone else notifies both of you:
// the outgoing assignee is party to the handoff even as the actor.
func TestNotifyPostAssigneeHandoffNotifiesBothParties(t *testing.T) {
	post := models.Post{
		ID:         10,
		Title:      "Launch",
		Column:     "To Do",
		AssigneeID: intPtr(4),
		CreatedBy:  3,
		FidBoard:   7,
		CreatedAt:  time.Now().Add(-time.Hour),
	}
	prev := changes.SnapshotOf(post)
	prev.AssigneeID = intPtr(3)

	env := newTestEnv(t, &fakePosts{
		posts:    map[int64]*models.Post{10: &post},
		watchers: map[int64][]int64{},
	}, map[int64]string{3: "Maya", 4: "Tom"})

	err := env.svc.Notify(context.Background(), PostChanged{Post: post, Previous: &prev, ActorID: 3})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	all := env.repo.allCreated()
	if len(all) != 2 {
		t.Fatalf("expected one row per party, got %+v", all)
	}
	for _, userID := range []int64{3, 4} {
		rows := rowsFor(all, userID)
		if len(rows) != 1 {
			t.Fatalf("expected one row for user %d, got %d", userID, len(rows))
		}
		if rows[0].Content != "Assignee changed from Maya to Tom" {
			t.Fatalf("unexpected content %q", rows[0].Content)
		}
		if rows[0].Type != enums.NotificationTypePost {
			t.Fatalf("unexpected type %q", rows[0].Type)
		}
	}
}

func TestNotifyPostReassignmentByThirdPartyNotifiesOutgoingAssignee(t *testing.T) {
	post := models.Post{
		ID:         10,
		Title:      "Launch",
		Column:     "To Do",
		AssigneeID: intPtr(4),
		CreatedBy:  9,
		FidBoard:   7,
		CreatedAt:  time.Now().Add(-time.Hour),
	}
	prev := changes.SnapshotOf(post)
	prev.AssigneeID = intPtr(3)

	env := newTestEnv(t, &fakePosts{
		posts:    map[int64]*models.Post{10: &post},
		watchers: map[int64][]int64{},
	}, map[int64]string{3: "Maya", 4: "Tom"})

	err := env.svc.Notify(context.Background(), PostChanged{Post: post, Previous: &prev, ActorID: 9})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	all := env.repo.allCreated()
	if len(rowsFor(all, 3)) != 1 {
		t.Fatalf("the outgoing assignee should be notified, got %+v", all)
	}
	if len(rowsFor(all, 4)) != 1 {
		t.Fatalf("the new assignee should be notified, got %+v", all)
	}
	if len(rowsFor(all, 9)) != 0 {
		t.Fatal("a third-party actor must not hear about their own change")
	}
}

func TestNotifyPostNotifySelfOverride(t *testing.T) {
	post := models.Post{
		ID:        100,
		Title:     "Launch",
		Column:    "Doing",
		CreatedBy: 5,
		FidBoard:  7,
		CreatedAt: time.Now().Add(-time.Hour),
	}
	prev := changes.SnapshotOf(post)
	prev.Column = "To Do"

	env := newTestEnv(t, &fakePosts{
		posts:    map[int64]*models.Post{100: &post},
		watchers: map[int64][]int64{},
	}, map[int64]string{5: "Ana"})

	err := env.svc.Notify(context.Background(), PostChanged{Post: post, Previous: &prev, ActorID: 5, NotifySelf: true})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(rowsFor(env.repo.allCreated(), 5)) != 1 {
		t.Fatal("notify-self should keep the actor in the recipient set")
	}
}

func TestNotifyPostDescriptionMentions(t *testing.T) {
	post := models.Post{
		ID:        100,
		Title:     "Launch",
		Desc:      "<p>" + mentionMarker("9", "Bo") + "</p>",
		Column:    "To Do",
		CreatedBy: 5,
		FidBoard:  7,
		CreatedAt: time.Now().Add(-time.Hour),
	}
	prev := changes.SnapshotOf(post)
	prev.Desc = "<p>old</p>"

	env := newTestEnv(t, &fakePosts{
		posts:    map[int64]*models.Post{100: &post},
		watchers: map[int64][]int64{},
	}, map[int64]string{5: "Ana", 9: "Bo"})

	err := env.svc.Notify(context.Background(), PostChanged{Post: post, Previous: &prev, ActorID: 5})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	all := env.repo.allCreated()
	if len(all) != 1 {
		t.Fatalf("expected only the mention row, got %+v", all)
	}
	if all[0].UserID != 9 || !all[0].IsMention {
		t.Fatalf("expected a mention row for user 9, got %+v", all[0])
	}

	html, ok := env.content.postHTML[100]
	if !ok {
		t.Fatal("expected the description rewritten")
	}
	if !strings.Contains(html, `data-notified="true"`) {
		t.Fatalf("mention marker not consumed: %s", html)
	}

	if tagged := feedRows(env.feed.allCreated(), enums.FeedCategoryTaggedIn); len(tagged) != 1 || *tagged[0].UserID != 9 {
		t.Fatalf("expected one tagged_in row for user 9, got %+v", tagged)
	}
}

func TestNotifyLinkIncludesActorInAudience(t *testing.T) {
	origin := models.Post{ID: 100, Title: "API", AssigneeID: intPtr(5), CreatedBy: 6, FidBoard: 7}
	linked := models.Post{ID: 200, Title: "UI", AssigneeID: intPtr(8), CreatedBy: 9, FidBoard: 7}
	env := newTestEnv(t, &fakePosts{
		posts:    map[int64]*models.Post{100: &origin, 200: &linked},
		watchers: map[int64][]int64{100: {11}},
	}, nil)

	err := env.svc.Notify(context.Background(), IssueLinked{
		Link:      models.LinkedIssue{ID: 1, PostID: 100, LinkedPostID: 200, Status: enums.LinkStatusBlocks},
		ActorID:   3,
		Lifecycle: LinkCreated,
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	all := env.repo.allCreated()
	wantContent := `Issue link added: "API" blocks "UI"`
	for _, userID := range []int64{3, 5, 6, 8, 9, 11} {
		rows := rowsFor(all, userID)
		if len(rows) != 1 {
			t.Fatalf("expected one row for user %d, got %d", userID, len(rows))
		}
		if rows[0].Content != wantContent {
			t.Fatalf("unexpected content %q", rows[0].Content)
		}
		if rows[0].Type != enums.NotificationTypeLinkedIssue {
			t.Fatalf("unexpected type %q", rows[0].Type)
		}
	}
	if len(all) != 6 {
		t.Fatalf("expected 6 rows total, got %d", len(all))
	}

	if worked := feedRows(env.feed.allCreated(), enums.FeedCategoryWorkedOn); len(worked) != 1 || *worked[0].UserID != 3 {
		t.Fatalf("expected the actor's personal link row, got %+v", worked)
	}
	if activity := feedRows(env.feed.allCreated(), enums.FeedCategoryActivityOn); len(activity) != 1 {
		t.Fatalf("expected one overview activity row, got %+v", activity)
	}
}

func TestNotifyLinkDeleted(t *testing.T) {
	origin := models.Post{ID: 100, Title: "API", CreatedBy: 6, FidBoard: 7}
	linked := models.Post{ID: 200, Title: "UI", CreatedBy: 6, FidBoard: 7}
	env := newTestEnv(t, &fakePosts{
		posts:    map[int64]*models.Post{100: &origin, 200: &linked},
		watchers: map[int64][]int64{},
	}, nil)

	err := env.svc.Notify(context.Background(), IssueLinked{
		Link:      models.LinkedIssue{ID: 1, PostID: 100, LinkedPostID: 200, Status: enums.LinkStatusRelatesTo},
		ActorID:   6,
		Lifecycle: LinkDeleted,
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	all := env.repo.allCreated()
	if len(all) == 0 {
		t.Fatal("expected link removal rows")
	}
	if all[0].Content != `Issue link removed: "API" relates to "UI"` {
		t.Fatalf("unexpected content %q", all[0].Content)
	}
}

func TestNotifyLinkMissingPostIsContractViolation(t *testing.T) {
	origin := models.Post{ID: 100, Title: "API", CreatedBy: 6, FidBoard: 7}
	env := newTestEnv(t, &fakePosts{
		posts:    map[int64]*models.Post{100: &origin},
		watchers: map[int64][]int64{},
	}, nil)

	err := env.svc.Notify(context.Background(), IssueLinked{
		Link:      models.LinkedIssue{ID: 1, PostID: 100, LinkedPostID: 404, Status: enums.LinkStatusBlocks},
		ActorID:   3,
		Lifecycle: LinkCreated,
	})
	if !pkgerrors.IsCode(err, pkgerrors.CodeContract) {
		t.Fatalf("expected contract violation, got %v", err)
	}
}

func TestClassifyQueueEvent(t *testing.T) {
	success := enums.QueueOutcomeSuccess
	failure := enums.QueueOutcomeFailure

	tests := []struct {
		name string
		prev *models.QueueEntry
		curr models.QueueEntry
		want queueEventKind
	}{
		{
			name: "first sighting is a submission",
			curr: models.QueueEntry{Status: enums.QueueStatusPending},
			want: queueEventSubmitted,
		},
		{
			name: "failed at the retry ceiling",
			prev: &models.QueueEntry{Status: enums.QueueStatusRunning, Attempts: 2},
			curr: models.QueueEntry{Status: enums.QueueStatusFailed, Attempts: models.QueueEntryMaxAttempts},
			want: queueEventRetriesExhausted,
		},
		{
			name: "new success outcome",
			prev: &models.QueueEntry{Status: enums.QueueStatusRunning},
			curr: models.QueueEntry{Status: enums.QueueStatusDone, Outcome: &success},
			want: queueEventSucceeded,
		},
		{
			name: "new failure outcome below the ceiling",
			prev: &models.QueueEntry{Status: enums.QueueStatusRunning, Attempts: 1},
			curr: models.QueueEntry{Status: enums.QueueStatusRunning, Attempts: 1, Outcome: &failure},
			want: queueEventFailed,
		},
		{
			name: "unchanged outcome is silent",
			prev: &models.QueueEntry{Status: enums.QueueStatusDone, Outcome: &success},
			curr: models.QueueEntry{Status: enums.QueueStatusDone, Outcome: &success},
			want: queueEventUnknown,
		},
		{
			name: "ordinary progress is silent",
			prev: &models.QueueEntry{Status: enums.QueueStatusPending},
			curr: models.QueueEntry{Status: enums.QueueStatusRunning},
			want: queueEventUnknown,
		},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			if got := classifyQueueEvent(tc.prev, tc.curr); got != tc.want {
				t.Fatalf("want %q, got %q", tc.want, got)
			}
		})
	}
}

func TestNotifyQueueSubmitted(t *testing.T) {
	post := models.Post{ID: 100, Title: "Launch", AssigneeID: intPtr(5), CreatedBy: 9, FidBoard: 7}
	env := newTestEnv(t, &fakePosts{
		posts:    map[int64]*models.Post{100: &post},
		watchers: map[int64][]int64{100: {8}},
	}, nil)

	err := env.svc.Notify(context.Background(), QueueUpdated{
		Entry:   models.QueueEntry{ID: 1, PostID: 100, BranchName: "feature/login", Status: enums.QueueStatusPending},
		ActorID: 3,
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	all := env.repo.allCreated()
	wantContent := `Branch "feature/login" was submitted to the queue`
	for _, userID := range []int64{5, 3, 8} {
		rows := rowsFor(all, userID)
		if len(rows) != 1 || rows[0].Content != wantContent {
			t.Fatalf("unexpected rows for user %d: %+v", userID, rows)
		}
		if rows[0].Type != enums.NotificationTypeBranch {
			t.Fatalf("unexpected type %q", rows[0].Type)
		}
	}

	branches := feedRows(env.feed.allCreated(), enums.FeedCategoryGeneratedBranches)
	if len(branches) != 2 {
		t.Fatalf("expected overview plus assignee personal rows, got %+v", branches)
	}
	var sawOverview, sawPersonal bool
	for _, row := range branches {
		if row.Mode == enums.FeedModeOverview && row.UserID == nil {
			sawOverview = true
		}
		if row.Mode == enums.FeedModePersonal && row.UserID != nil && *row.UserID == 5 {
			sawPersonal = true
		}
	}
	if !sawOverview || !sawPersonal {
		t.Fatalf("digest rows incomplete: %+v", branches)
	}
}

func TestNotifyQueueSilentTransitionProducesNothing(t *testing.T) {
	post := models.Post{ID: 100, Title: "Launch", CreatedBy: 9, FidBoard: 7}
	env := newTestEnv(t, &fakePosts{
		posts:    map[int64]*models.Post{100: &post},
		watchers: map[int64][]int64{},
	}, nil)

	prev := models.QueueEntry{ID: 1, PostID: 100, Status: enums.QueueStatusPending}
	err := env.svc.Notify(context.Background(), QueueUpdated{
		Entry:    models.QueueEntry{ID: 1, PostID: 100, Status: enums.QueueStatusRunning},
		Previous: &prev,
		ActorID:  3,
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(env.repo.created) != 0 || len(env.feed.created) != 0 {
		t.Fatal("a silent queue transition should produce nothing")
	}
}

func TestNotifyQueueMissingPostIsContractViolation(t *testing.T) {
	env := newTestEnv(t, nil, nil)

	err := env.svc.Notify(context.Background(), QueueUpdated{
		Entry:   models.QueueEntry{ID: 1, PostID: 404, Status: enums.QueueStatusPending},
		ActorID: 3,
	})
	if !pkgerrors.IsCode(err, pkgerrors.CodeContract) {
		t.Fatalf("expected contract violation, got %v", err)
	}
}
