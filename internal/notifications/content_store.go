package notifications

import (
	"context"

	"github.com/avelasquez/taskflow-backend/internal/comments"
	"github.com/avelasquez/taskflow-backend/internal/posts"
	"gorm.io/gorm"
)

// GormContentStore rewrites rich-text bodies through the caller's
// transaction so mention flags commit atomically with their notifications.
type GormContentStore struct{}

func (GormContentStore) UpdateCommentContent(ctx context.Context, tx *gorm.DB, id int64, html string) error {
	return comments.NewRepository(tx).UpdateContent(ctx, id, html)
}

func (GormContentStore) UpdatePostDesc(ctx context.Context, tx *gorm.DB, id int64, html string) error {
	return posts.NewRepository(tx).UpdateDesc(ctx, id, html)
}
