package feed

import (
	"context"
	"time"

	"github.com/avelasquez/taskflow-backend/pkg/db/models"
	"github.com/avelasquez/taskflow-backend/pkg/enums"
	"gorm.io/gorm"
)

// Repository exposes persistence helpers for news feed rows.
type Repository interface {
	WithTx(tx *gorm.DB) Repository
	CreateBatch(ctx context.Context, rows []models.NewsFeedItem) error
	Query(ctx context.Context, params QueryParams) ([]models.NewsFeedItem, error)
	// DeleteByCategories removes every row of the given mode and categories.
	// The digest job uses it to rewrite state-derived categories wholesale.
	DeleteByCategories(ctx context.Context, mode enums.FeedMode, categories []enums.FeedCategory) (int64, error)
}

// QueryParams filters feed rows for one mode. ViewerID is only applied to
// personal rows.
type QueryParams struct {
	BoardID  int64
	Mode     enums.FeedMode
	ViewerID int64
	From     time.Time
	To       time.Time
}

type repositoryImpl struct {
	db *gorm.DB
}

// NewRepository returns a feed repository bound to the provided database.
func NewRepository(db *gorm.DB) Repository {
	return &repositoryImpl{db: db}
}

func (r *repositoryImpl) WithTx(tx *gorm.DB) Repository {
	if tx == nil {
		return r
	}
	return &repositoryImpl{db: tx}
}

func (r *repositoryImpl) CreateBatch(ctx context.Context, rows []models.NewsFeedItem) error {
	if len(rows) == 0 {
		return nil
	}
	return r.db.WithContext(ctx).Create(&rows).Error
}

func (r *repositoryImpl) DeleteByCategories(ctx context.Context, mode enums.FeedMode, categories []enums.FeedCategory) (int64, error) {
	if len(categories) == 0 {
		return 0, nil
	}
	result := r.db.WithContext(ctx).
		Where("mode = ? AND category IN ?", mode, categories).
		Delete(&models.NewsFeedItem{})
	if result.Error != nil {
		return 0, result.Error
	}
	return result.RowsAffected, nil
}

func (r *repositoryImpl) Query(ctx context.Context, params QueryParams) ([]models.NewsFeedItem, error) {
	query := r.db.WithContext(ctx).
		Model(&models.NewsFeedItem{}).
		Where("board_id = ?", params.BoardID).
		Where("mode = ?", params.Mode).
		Where("created_at >= ? AND created_at <= ?", params.From, params.To)
	if params.Mode == enums.FeedModePersonal {
		query = query.Where("user_id = ?", params.ViewerID)
	}

	var rows []models.NewsFeedItem
	if err := query.Order("created_at DESC, id DESC").Find(&rows).Error; err != nil {
		return nil, err
	}
	return rows, nil
}
