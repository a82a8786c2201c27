package posts

import (
	"context"
	"errors"
	"time"

	"github.com/avelasquez/taskflow-backend/pkg/db/models"
	"github.com/avelasquez/taskflow-backend/pkg/enums"
	"gorm.io/gorm"
)

// Reader is the post read surface notification and feed code depends on.
type Reader interface {
	FindByID(ctx context.Context, id int64) (*models.Post, error)
	WatcherIDs(ctx context.Context, postID int64) ([]int64, error)
	DisplayByIDs(ctx context.Context, ids []int64) (map[int64]Display, error)
}

// Display is the live post data joined into feed output. Posts that have
// been deleted since the row was written resolve to the zero value.
type Display struct {
	Title    string
	Deadline *time.Time
}

// Repository exposes post persistence operations.
type Repository struct {
	db *gorm.DB
}

func NewRepository(db *gorm.DB) *Repository {
	return &Repository{db: db}
}

// WithTx rebinds the repository to a transaction.
func (r *Repository) WithTx(tx *gorm.DB) *Repository {
	if tx == nil {
		return r
	}
	return &Repository{db: tx}
}

// UpdateDesc rewrites a post's rich-text description. Used after mention
// markers have been flagged notified.
func (r *Repository) UpdateDesc(ctx context.Context, id int64, html string) error {
	return r.db.WithContext(ctx).
		Model(&models.Post{}).
		Where("id = ?", id).
		UpdateColumn("description", html).Error
}

// FindByID loads a post by id.
func (r *Repository) FindByID(ctx context.Context, id int64) (*models.Post, error) {
	var post models.Post
	if err := r.db.WithContext(ctx).First(&post, "id = ?", id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &post, nil
}

// WatcherIDs returns the ids of users watching the given post.
func (r *Repository) WatcherIDs(ctx context.Context, postID int64) ([]int64, error) {
	var ids []int64
	err := r.db.WithContext(ctx).
		Model(&models.PostWatcher{}).
		Where("post_id = ?", postID).
		Pluck("user_id", &ids).Error
	if err != nil {
		return nil, err
	}
	return ids, nil
}

// UpcomingDeadlines returns posts whose deadline falls inside [now, until].
func (r *Repository) UpcomingDeadlines(ctx context.Context, now, until time.Time) ([]models.Post, error) {
	var rows []models.Post
	err := r.db.WithContext(ctx).
		Where("deadline IS NOT NULL AND deadline >= ? AND deadline <= ?", now, until).
		Order("deadline ASC, id ASC").
		Find(&rows).Error
	if err != nil {
		return nil, err
	}
	return rows, nil
}

// DoneSince returns posts sitting in the done column whose last update is at
// or after since.
func (r *Repository) DoneSince(ctx context.Context, since time.Time) ([]models.Post, error) {
	var rows []models.Post
	err := r.db.WithContext(ctx).
		Where("LOWER(board_column) = ? AND updated_at >= ?", "done", since).
		Order("updated_at DESC, id ASC").
		Find(&rows).Error
	if err != nil {
		return nil, err
	}
	return rows, nil
}

// Blocked returns posts that currently carry a "blocked by" link.
func (r *Repository) Blocked(ctx context.Context) ([]models.Post, error) {
	var rows []models.Post
	err := r.db.WithContext(ctx).
		Where("id IN (?)", r.db.
			Model(&models.LinkedIssue{}).
			Select("post_id").
			Where("status = ?", enums.LinkStatusBlockedBy)).
		Order("id ASC").
		Find(&rows).Error
	if err != nil {
		return nil, err
	}
	return rows, nil
}

// DisplayByIDs resolves live titles and deadlines for feed rendering.
// Missing posts are absent from the map; callers fall back to "Untitled".
func (r *Repository) DisplayByIDs(ctx context.Context, ids []int64) (map[int64]Display, error) {
	displays := make(map[int64]Display, len(ids))
	if len(ids) == 0 {
		return displays, nil
	}

	var rows []models.Post
	if err := r.db.WithContext(ctx).
		Select("id", "title", "deadline").
		Where("id IN ?", ids).
		Find(&rows).Error; err != nil {
		return nil, err
	}
	for _, row := range rows {
		displays[row.ID] = Display{Title: row.Title, Deadline: row.Deadline}
	}
	return displays, nil
}
