package boards

import (
	"context"

	"github.com/avelasquez/taskflow-backend/pkg/db/models"
	"gorm.io/gorm"
)

// Resolver looks up board titles for change-message formatting.
type Resolver interface {
	TitleByID(ctx context.Context, id int64) (string, error)
}

// Repository exposes board persistence operations.
type Repository struct {
	db *gorm.DB
}

func NewRepository(db *gorm.DB) *Repository {
	return &Repository{db: db}
}

// FindByID loads a board by id.
func (r *Repository) FindByID(ctx context.Context, id int64) (*models.Board, error) {
	var board models.Board
	if err := r.db.WithContext(ctx).First(&board, "id = ?", id).Error; err != nil {
		return nil, err
	}
	return &board, nil
}

// TitleByID resolves a board's title.
func (r *Repository) TitleByID(ctx context.Context, id int64) (string, error) {
	var title string
	err := r.db.WithContext(ctx).
		Model(&models.Board{}).
		Where("id = ?", id).
		Pluck("title", &title).Error
	if err != nil {
		return "", err
	}
	return title, nil
}
