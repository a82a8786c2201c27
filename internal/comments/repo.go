package comments

import (
	"context"

	"github.com/avelasquez/taskflow-backend/pkg/db/models"
	"gorm.io/gorm"
)

// Repository exposes comment persistence operations.
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

// FindByID loads a comment by id.
func (r *Repository) FindByID(ctx context.Context, id int64) (*models.Comment, error) {
	var comment models.Comment
	if err := r.db.WithContext(ctx).First(&comment, "id = ?", id).Error; err != nil {
		return nil, err
	}
	return &comment, nil
}

// UpdateContent rewrites a comment's rich-text body. Used after mention
// markers have been flagged notified.
func (r *Repository) UpdateContent(ctx context.Context, id int64, html string) error {
	return r.db.WithContext(ctx).
		Model(&models.Comment{}).
		Where("id = ?", id).
		UpdateColumn("content", html).Error
}
