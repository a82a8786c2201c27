package cron

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/avelasquez/taskflow-backend/internal/feed"
	"github.com/avelasquez/taskflow-backend/internal/posts"
	"github.com/avelasquez/taskflow-backend/pkg/db/models"
	"github.com/avelasquez/taskflow-backend/pkg/enums"
	"github.com/avelasquez/taskflow-backend/pkg/logger"
	"github.com/dustin/go-humanize"
	"gorm.io/gorm"
)

// digestCategories are the overview categories derived from live board state
// rather than from events. The digest job owns these rows and rewrites them
// wholesale each cycle.
var digestCategories = []enums.FeedCategory{
	enums.FeedCategoryUpcomingDeadlines,
	enums.FeedCategoryBlocked,
	enums.FeedCategoryDoneThisWeek,
}

// FeedDigestJob rebuilds the state-derived overview feed categories from the
// current post and link tables.
type FeedDigestJob struct {
	posts   *posts.Repository
	feed    feed.Repository
	tx      txRunner
	logg    *logger.Logger
	horizon time.Duration
	now     func() time.Time
}

// FeedDigestParams configure the digest job.
type FeedDigestParams struct {
	Posts   *posts.Repository
	Feed    feed.Repository
	Tx      txRunner
	Logger  *logger.Logger
	Horizon time.Duration
}

// NewFeedDigestJob builds the digest job.
func NewFeedDigestJob(params FeedDigestParams) (*FeedDigestJob, error) {
	if params.Posts == nil {
		return nil, errors.New("posts repository required")
	}
	if params.Feed == nil {
		return nil, errors.New("feed repository required")
	}
	if params.Tx == nil {
		return nil, errors.New("transaction runner required")
	}
	if params.Logger == nil {
		return nil, errors.New("logger required")
	}
	if params.Horizon <= 0 {
		return nil, errors.New("horizon must be positive")
	}
	return &FeedDigestJob{
		posts:   params.Posts,
		feed:    params.Feed,
		tx:      params.Tx,
		logg:    params.Logger,
		horizon: params.Horizon,
		now:     time.Now,
	}, nil
}

func (j *FeedDigestJob) Name() string { return "feed-digest" }

func (j *FeedDigestJob) Run(ctx context.Context) error {
	now := j.now().UTC()

	upcoming, err := j.posts.UpcomingDeadlines(ctx, now, now.Add(j.horizon))
	if err != nil {
		return fmt.Errorf("load upcoming deadlines: %w", err)
	}
	done, err := j.posts.DoneSince(ctx, now.Add(-j.horizon))
	if err != nil {
		return fmt.Errorf("load done posts: %w", err)
	}
	blocked, err := j.posts.Blocked(ctx)
	if err != nil {
		return fmt.Errorf("load blocked posts: %w", err)
	}

	rows := make([]models.NewsFeedItem, 0, len(upcoming)+len(done)+len(blocked))
	for _, post := range upcoming {
		content := "Due soon"
		if post.Deadline != nil {
			content = "Due " + humanize.Time(*post.Deadline)
		}
		rows = append(rows, digestRow(post, enums.FeedCategoryUpcomingDeadlines, content))
	}
	for _, post := range done {
		rows = append(rows, digestRow(post, enums.FeedCategoryDoneThisWeek, "Moved to done"))
	}
	for _, post := range blocked {
		rows = append(rows, digestRow(post, enums.FeedCategoryBlocked, "Blocked by a linked issue"))
	}

	// Delete and rewrite in one transaction so a failed cycle never leaves
	// the digest half-replaced.
	err = j.tx.WithTx(ctx, func(tx *gorm.DB) error {
		if _, err := j.feed.WithTx(tx).DeleteByCategories(ctx, enums.FeedModeOverview, digestCategories); err != nil {
			return err
		}
		return j.feed.WithTx(tx).CreateBatch(ctx, rows)
	})
	if err != nil {
		return fmt.Errorf("rewrite digest rows: %w", err)
	}

	ctx = j.logg.WithField(ctx, "rows", len(rows))
	j.logg.Info(ctx, "feed digest rebuilt")
	return nil
}

func digestRow(post models.Post, category enums.FeedCategory, content string) models.NewsFeedItem {
	return models.NewsFeedItem{
		Mode:      enums.FeedModeOverview,
		Category:  category,
		Content:   content,
		PostID:    post.ID,
		BoardID:   post.FidBoard,
		CreatedBy: post.CreatedBy,
	}
}
