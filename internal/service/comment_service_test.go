package service

import (
	"context"
	"errors"
	"math"
	"strings"
	"testing"

	"blogsys/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// commentRepoStub is a stub for repository.CommentRepository.
type commentRepoStub struct {
	listByPostFn func(context.Context, string, int, int) ([]models.Comment, int64, error)
	createFn     func(context.Context, string, string, string) (uint, error)
	getByIDFn    func(context.Context, uint) (*models.Comment, error)
	likeFn       func(context.Context, uint) (int, bool, error)
	deleteFn     func(context.Context, uint) (bool, error)
}

func (s *commentRepoStub) ListByPost(ctx context.Context, postID string, page, perPage int) ([]models.Comment, int64, error) {
	return s.listByPostFn(ctx, postID, page, perPage)
}
func (s *commentRepoStub) Create(ctx context.Context, postID, author, content string) (uint, error) {
	return s.createFn(ctx, postID, author, content)
}
func (s *commentRepoStub) GetByID(ctx context.Context, id uint) (*models.Comment, error) {
	return s.getByIDFn(ctx, id)
}
func (s *commentRepoStub) Like(ctx context.Context, id uint) (int, bool, error) {
	return s.likeFn(ctx, id)
}
func (s *commentRepoStub) Delete(ctx context.Context, id uint) (bool, error) {
	return s.deleteFn(ctx, id)
}

func noopCommentRepo() *commentRepoStub {
	return &commentRepoStub{
		listByPostFn: func(context.Context, string, int, int) ([]models.Comment, int64, error) { return nil, 0, nil },
		createFn:     func(context.Context, string, string, string) (uint, error) { return 1, nil },
		getByIDFn:    func(context.Context, uint) (*models.Comment, error) { return nil, nil },
		likeFn:       func(context.Context, uint) (int, bool, error) { return 1, true, nil },
		deleteFn:     func(context.Context, uint) (bool, error) { return true, nil },
	}
}

func assertAppError(t *testing.T, err error, code string) {
	t.Helper()
	var appErr *models.AppError
	require.True(t, errors.As(err, &appErr), "expected AppError, got %v", err)
	assert.Equal(t, code, appErr.Code)
}

func TestNormalizePage(t *testing.T) {
	t.Parallel()
	tests := []struct {
		page, perPage         int
		wantPage, wantPerPage int
	}{
		{1, 5, 1, 5},
		{0, 0, 1, 5},
		{-3, -1, 1, 5},
		{4, 50, 4, 50},
		{2, 51, 2, 50},
		{7, 1000000, 7, 50},
		{math.MaxInt, 50, MaxPage, 50},
	}
	for _, tt := range tests {
		p, pp := NormalizePage(tt.page, tt.perPage)
		assert.Equal(t, tt.wantPage, p)
		assert.Equal(t, tt.wantPerPage, pp)
	}
}

func TestCommentService_ListComments(t *testing.T) {
	t.Parallel()
	ctx := context.Background()

	t.Run("requires post id", func(t *testing.T) {
		t.Parallel()
		_, err := NewCommentService(noopCommentRepo()).ListComments(ctx, "  ", 1, 5)
		assertAppError(t, err, models.CodeValidation)
	})

	t.Run("clamps and echoes pagination", func(t *testing.T) {
		t.Parallel()
		repo := noopCommentRepo()
		var gotPage, gotPerPage int
		repo.listByPostFn = func(_ context.Context, postID string, page, perPage int) ([]models.Comment, int64, error) {
			gotPage, gotPerPage = page, perPage
			return []models.Comment{{ID: 1, PostID: postID}}, 11, nil
		}
		out, err := NewCommentService(repo).ListComments(ctx, "post-a", 0, 500)
		require.NoError(t, err)
		assert.Equal(t, 1, gotPage)
		assert.Equal(t, MaxPerPage, gotPerPage)
		assert.Equal(t, int64(11), out.Total)
		assert.Equal(t, 1, out.Page)
		assert.Equal(t, MaxPerPage, out.PerPage)
		assert.Len(t, out.Comments, 1)
	})

	t.Run("empty page is an empty slice", func(t *testing.T) {
		t.Parallel()
		out, err := NewCommentService(noopCommentRepo()).ListComments(ctx, "post-a", 3, 5)
		require.NoError(t, err)
		assert.NotNil(t, out.Comments)
	})

	t.Run("repository error propagates", func(t *testing.T) {
		t.Parallel()
		repo := noopCommentRepo()
		repoErr := models.NewInternalError(errors.New("db down"))
		repo.listByPostFn = func(context.Context, string, int, int) ([]models.Comment, int64, error) {
			return nil, 0, repoErr
		}
		_, err := NewCommentService(repo).ListComments(ctx, "post-a", 1, 5)
		assert.ErrorIs(t, err, repoErr)
	})
}

func TestCommentService_AddComment(t *testing.T) {
	t.Parallel()
	ctx := context.Background()

	invalid := map[string]CreateCommentInput{
		"missing post":     {Author: "Tom", Content: "hi"},
		"missing author":   {PostID: "p", Content: "hi"},
		"whitespace body":  {PostID: "p", Author: "Tom", Content: "   "},
		"content too long": {PostID: "p", Author: "Tom", Content: strings.Repeat("x", 10001)},
		"author too long":  {PostID: "p", Author: strings.Repeat("a", 65), Content: "hi"},
	}
	for name, in := range invalid {
		t.Run(name, func(t *testing.T) {
			t.Parallel()
			_, err := NewCommentService(noopCommentRepo()).AddComment(ctx, in)
			assertAppError(t, err, models.CodeValidation)
		})
	}

	t.Run("trims and stores", func(t *testing.T) {
		t.Parallel()
		repo := noopCommentRepo()
		repo.createFn = func(_ context.Context, postID, author, content string) (uint, error) {
			assert.Equal(t, "post-a", postID)
			assert.Equal(t, "Tom", author)
			assert.Equal(t, "Nice post!", content)
			return 42, nil
		}
		id, err := NewCommentService(repo).AddComment(ctx, CreateCommentInput{
			PostID: " post-a ", Author: " Tom", Content: "Nice post!\n",
		})
		require.NoError(t, err)
		assert.Equal(t, uint(42), id)
	})
}

func TestCommentService_LikeComment(t *testing.T) {
	t.Parallel()
	ctx := context.Background()

	_, err := NewCommentService(noopCommentRepo()).LikeComment(ctx, 0)
	assertAppError(t, err, models.CodeValidation)

	repo := noopCommentRepo()
	repo.likeFn = func(context.Context, uint) (int, bool, error) { return 0, false, nil }
	_, err = NewCommentService(repo).LikeComment(ctx, 9)
	assertAppError(t, err, models.CodeNotFound)

	repo.likeFn = func(context.Context, uint) (int, bool, error) { return 3, true, nil }
	likes, err := NewCommentService(repo).LikeComment(ctx, 9)
	require.NoError(t, err)
	assert.Equal(t, 3, likes)
}

func TestCommentService_DeleteAndGet(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	repo := noopCommentRepo()
	svc := NewCommentService(repo)

	_, err := svc.DeleteComment(ctx, 0)
	assertAppError(t, err, models.CodeValidation)

	removed, err := svc.DeleteComment(ctx, 5)
	require.NoError(t, err)
	assert.True(t, removed)

	_, err = svc.GetComment(ctx, 5)
	assertAppError(t, err, models.CodeNotFound)
}
