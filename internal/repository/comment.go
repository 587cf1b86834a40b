package repository

import (
	"context"
	"errors"

	"blogsys/models"

	"gorm.io/gorm"
)

// CommentRepository defines persistence operations for post comments.
type CommentRepository interface {
	ListByPost(ctx context.Context, postID string, page, perPage int) ([]models.Comment, int64, error)
	Create(ctx context.Context, postID, author, content string) (uint, error)
	GetByID(ctx context.Context, id uint) (*models.Comment, error)
	Like(ctx context.Context, id uint) (likes int, found bool, err error)
	Delete(ctx context.Context, id uint) (bool, error)
}

type commentRepository struct {
	db *gorm.DB
}

// NewCommentRepository creates a new CommentRepository
func NewCommentRepository(db *gorm.DB) CommentRepository {
	return &commentRepository{db: db}
}

// ListByPost returns one page of comments, newest first, and the number of
// comments on the post. page is 1-based and perPage positive; pages past the
// end are empty.
func (r *commentRepository) ListByPost(ctx context.Context, postID string, page, perPage int) ([]models.Comment, int64, error) {
	var total int64
	if err := r.db.WithContext(ctx).Model(&models.Comment{}).
		Where("post_id = ?", postID).
		Count(&total).Error; err != nil {
		return nil, 0, models.NewInternalError(err)
	}

	comments := make([]models.Comment, 0, perPage)
	if total == 0 || int64(page-1) > (total-1)/int64(perPage) {
		return comments, total, nil
	}
	if err := r.db.WithContext(ctx).
		Where("post_id = ?", postID).
		Order("date DESC").Order("id DESC").
		Limit(perPage).
		Offset((page - 1) * perPage).
		Find(&comments).Error; err != nil {
		return nil, 0, models.NewInternalError(err)
	}
	return comments, total, nil
}

func (r *commentRepository) Create(ctx context.Context, postID, author, content string) (uint, error) {
	comment := models.Comment{PostID: postID, Author: author, Content: content}
	if err := r.db.WithContext(ctx).Create(&comment).Error; err != nil {
		return 0, models.NewInternalError(err)
	}
	return comment.ID, nil
}

func (r *commentRepository) GetByID(ctx context.Context, id uint) (*models.Comment, error) {
	var comment models.Comment
	if err := r.db.WithContext(ctx).First(&comment, id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, models.NewInternalError(err)
	}
	return &comment, nil
}

// Like increments the like counter and reads back the new value in one
// transaction, so concurrent likes are never lost.
func (r *commentRepository) Like(ctx context.Context, id uint) (int, bool, error) {
	var likes int
	found := false

	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		res := tx.Model(&models.Comment{}).
			Where("id = ?", id).
			UpdateColumn("likes", gorm.Expr("likes + ?", 1))
		if res.Error != nil {
			return res.Error
		}
		if res.RowsAffected == 0 {
			return nil
		}
		found = true
		return tx.Model(&models.Comment{}).
			Select("likes").
			Where("id = ?", id).
			Scan(&likes).Error
	})
	if err != nil {
		return 0, false, models.NewInternalError(err)
	}
	return likes, found, nil
}

func (r *commentRepository) Delete(ctx context.Context, id uint) (bool, error) {
	result := r.db.WithContext(ctx).Delete(&models.Comment{}, id)
	if result.Error != nil {
		return false, models.NewInternalError(result.Error)
	}
	return result.RowsAffected > 0, nil
}
