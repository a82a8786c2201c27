package feed

import (
	"context"
	"time"

	"github.com/avelasquez/taskflow-backend/internal/posts"
	"github.com/avelasquez/taskflow-backend/pkg/db/models"
	"github.com/avelasquez/taskflow-backend/pkg/enums"
	pkgerrors "github.com/avelasquez/taskflow-backend/pkg/errors"
)

// UntitledFallback is shown when a feed row's post no longer exists.
const UntitledFallback = "Untitled"

// PostFeed collects one post's feed entries within a category.
type PostFeed struct {
	ID            int64      `json:"id"`
	Notifications []string   `json:"notifications"`
	Deadline      *time.Time `json:"deadline"`
}

// CategoryMap always contains every expected category key for its mode,
// even when empty; callers only check whether a category's post map is
// empty, never whether the key exists.
type CategoryMap map[enums.FeedCategory]map[string]*PostFeed

// Result is the two-mode feed payload.
type Result struct {
	Personal CategoryMap `json:"personal"`
	Overview CategoryMap `json:"overview"`
}

// Params scope a feed read.
type Params struct {
	BoardID  int64
	ViewerID int64
	From     time.Time
	To       time.Time
}

// Service aggregates persisted feed rows with live post data.
type Service interface {
	GetFeed(ctx context.Context, params Params) (*Result, error)
}

type service struct {
	repo  Repository
	posts posts.Reader
}

// NewService wires feed dependencies.
func NewService(repo Repository, postReader posts.Reader) (Service, error) {
	if repo == nil {
		return nil, pkgerrors.New(pkgerrors.CodeDependency, "feed repository required")
	}
	if postReader == nil {
		return nil, pkgerrors.New(pkgerrors.CodeDependency, "post reader required")
	}
	return &service{repo: repo, posts: postReader}, nil
}

func (s *service) GetFeed(ctx context.Context, params Params) (*Result, error) {
	if params.BoardID <= 0 {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "board id required")
	}
	if params.To.Before(params.From) {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "date range is inverted")
	}

	personalRows, err := s.repo.Query(ctx, QueryParams{
		BoardID:  params.BoardID,
		Mode:     enums.FeedModePersonal,
		ViewerID: params.ViewerID,
		From:     params.From,
		To:       params.To,
	})
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "query personal feed")
	}

	overviewRows, err := s.repo.Query(ctx, QueryParams{
		BoardID: params.BoardID,
		Mode:    enums.FeedModeOverview,
		From:    params.From,
		To:      params.To,
	})
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "query overview feed")
	}

	displays, err := s.resolveDisplays(ctx, personalRows, overviewRows)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "resolve post titles")
	}

	return &Result{
		Personal: buildCategoryMap(enums.FeedModePersonal, personalRows, displays),
		Overview: buildCategoryMap(enums.FeedModeOverview, overviewRows, displays),
	}, nil
}

func (s *service) resolveDisplays(ctx context.Context, rowSets ...[]models.NewsFeedItem) (map[int64]posts.Display, error) {
	seen := map[int64]bool{}
	var ids []int64
	for _, rows := range rowSets {
		for _, row := range rows {
			if !seen[row.PostID] {
				seen[row.PostID] = true
				ids = append(ids, row.PostID)
			}
		}
	}
	return s.posts.DisplayByIDs(ctx, ids)
}

// buildCategoryMap groups rows by category then post. Row contents keep
// query order (descending by creation time). Every expected category for
// the mode is present even when empty.
func buildCategoryMap(mode enums.FeedMode, rows []models.NewsFeedItem, displays map[int64]posts.Display) CategoryMap {
	out := CategoryMap{}
	for _, category := range enums.FeedCategoriesFor(mode) {
		out[category] = map[string]*PostFeed{}
	}

	for _, row := range rows {
		byPost, ok := out[row.Category]
		if !ok {
			// Rows with a category outside the mode's expected set are
			// skipped rather than invented into the response shape.
			continue
		}

		display, found := displays[row.PostID]
		title := display.Title
		if !found || title == "" {
			title = UntitledFallback
		}

		entry := byPost[title]
		if entry == nil {
			entry = &PostFeed{ID: row.PostID}
			if found {
				entry.Deadline = display.Deadline
			}
			byPost[title] = entry
		}
		entry.Notifications = append(entry.Notifications, row.Content)
	}
	return out
}
