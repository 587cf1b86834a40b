package service

import (
	"context"
	"math"
	"strings"

	"blogsys/internal/observability"
	"blogsys/internal/repository"
	blogvalidation "blogsys/internal/validation"
	"blogsys/models"

	"github.com/jellydator/validation"
)

// Pagination bounds for comment listings.
const (
	DefaultPage    = 1
	DefaultPerPage = 5
	MaxPerPage     = 50

	// MaxPage keeps (page-1)*perPage within int.
	MaxPage = math.MaxInt / MaxPerPage
)

// CreateCommentInput is the payload of a new comment.
type CreateCommentInput struct {
	PostID  string `json:"postId"`
	Author  string `json:"author"`
	Content string `json:"content"`
}

func (in CreateCommentInput) Validate() error {
	if err := validation.ValidateStruct(&in,
		validation.Field(&in.PostID, validation.Required),
		validation.Field(&in.Author, validation.Required),
		validation.Field(&in.Content, validation.Required),
	); err != nil {
		return models.NewValidationError("Missing required fields")
	}
	if err := validation.Validate(in.Content, blogvalidation.CommentContent); err != nil {
		return models.NewValidationError(err.Error())
	}
	if err := validation.Validate(in.Author, blogvalidation.CommentAuthor); err != nil {
		return models.NewValidationError(err.Error())
	}
	return nil
}

type CommentService struct {
	comments repository.CommentRepository
}

func NewCommentService(comments repository.CommentRepository) *CommentService {
	return &CommentService{comments: comments}
}

// NormalizePage clamps caller-supplied pagination to sane values: pages start
// at 1 and perPage falls back to the default below 1 and is capped above.
func NormalizePage(page, perPage int) (int, int) {
	if page < 1 {
		page = DefaultPage
	}
	if page > MaxPage {
		page = MaxPage
	}
	if perPage < 1 {
		perPage = DefaultPerPage
	}
	if perPage > MaxPerPage {
		perPage = MaxPerPage
	}
	return page, perPage
}

// ListComments returns one page of a post's comments, newest first.
func (s *CommentService) ListComments(ctx context.Context, postID string, page, perPage int) (*models.CommentPage, error) {
	postID = strings.TrimSpace(postID)
	if postID == "" {
		return nil, models.NewValidationError("Post ID is required")
	}
	page, perPage = NormalizePage(page, perPage)

	comments, total, err := s.comments.ListByPost(ctx, postID, page, perPage)
	if err != nil {
		return nil, err
	}
	if comments == nil {
		comments = []models.Comment{}
	}
	return &models.CommentPage{
		Comments: comments,
		Total:    total,
		Page:     page,
		PerPage:  perPage,
	}, nil
}

// AddComment stores a comment and returns its ID. Whitespace-only fields
// count as missing.
func (s *CommentService) AddComment(ctx context.Context, in CreateCommentInput) (id uint, err error) {
	ctx, span := observability.StartSpan(ctx, "CommentService.AddComment")
	defer func() { observability.EndSpan(span, err) }()

	in.PostID = strings.TrimSpace(in.PostID)
	in.Author = strings.TrimSpace(in.Author)
	in.Content = strings.TrimSpace(in.Content)
	if err := in.Validate(); err != nil {
		return 0, err
	}

	id, err = s.comments.Create(ctx, in.PostID, in.Author, in.Content)
	if err != nil {
		return 0, err
	}
	observability.RecordComment("create")
	return id, nil
}

// LikeComment adds one like and returns the new total.
func (s *CommentService) LikeComment(ctx context.Context, commentID uint) (likes int, err error) {
	ctx, span := observability.StartSpan(ctx, "CommentService.LikeComment")
	defer func() { observability.EndSpan(span, err) }()

	if commentID == 0 {
		return 0, models.NewValidationError("Comment ID is required")
	}
	likes, found, err := s.comments.Like(ctx, commentID)
	if err != nil {
		return 0, err
	}
	if !found {
		return 0, models.NewNotFoundError("Comment", commentID)
	}
	observability.RecordComment("like")
	return likes, nil
}

// DeleteComment removes a comment, reporting whether it existed.
func (s *CommentService) DeleteComment(ctx context.Context, commentID uint) (bool, error) {
	if commentID == 0 {
		return false, models.NewValidationError("Comment ID is required")
	}
	removed, err := s.comments.Delete(ctx, commentID)
	if err != nil {
		return false, err
	}
	if removed {
		observability.RecordComment("delete")
	}
	return removed, nil
}

// GetComment loads one comment or returns a NotFound error.
func (s *CommentService) GetComment(ctx context.Context, commentID uint) (*models.Comment, error) {
	c, err := s.comments.GetByID(ctx, commentID)
	if err != nil {
		return nil, err
	}
	if c == nil {
		return nil, models.NewNotFoundError("Comment", commentID)
	}
	return c, nil
}
