package seed

import (
	"context"
	"testing"

	"blogsys/internal/testutil"
	"blogsys/internal/validation"
	"blogsys/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFactory_Comments(t *testing.T) {
	db := testutil.NewTestDB(t)
	f := NewFactory(db, Options{Count: 12, PostIDs: []string{"a", "b", "c"}, MaxLikes: 10, Seed: 42})

	created, err := f.Comments(context.Background())
	require.NoError(t, err)
	require.Len(t, created, 12)

	for _, c := range created {
		assert.NotZero(t, c.ID)
		assert.Contains(t, []string{"a", "b", "c"}, c.PostID)
		assert.NotEmpty(t, c.Author)
		assert.LessOrEqual(t, len(c.Author), validation.MaxAuthorLen)
		assert.NotEmpty(t, c.Content)
		assert.GreaterOrEqual(t, c.Likes, 0)
		assert.LessOrEqual(t, c.Likes, 10)
	}

	var count int64
	require.NoError(t, db.Model(&models.Comment{}).Where("post_id = ?", "a").Count(&count).Error)
	assert.Equal(t, int64(4), count)
}

func TestFactory_RandomPosts(t *testing.T) {
	db := testutil.NewTestDB(t)
	f := NewFactory(db, Options{Count: 5, Seed: 7})

	created, err := f.Comments(context.Background())
	require.NoError(t, err)

	seen := map[string]bool{}
	for _, c := range created {
		seen[c.PostID] = true
	}
	assert.NotEmpty(t, seen)
	assert.LessOrEqual(t, len(seen), 5)
}

func TestFactory_Deterministic(t *testing.T) {
	a := NewFactory(nil, Options{Seed: 1}).BuildComment("p")
	b := NewFactory(nil, Options{Seed: 1}).BuildComment("p")
	assert.Equal(t, a.Author, b.Author)
	assert.Equal(t, a.Content, b.Content)
}

func TestFactory_RejectsZeroCount(t *testing.T) {
	_, err := NewFactory(nil, Options{}).Comments(context.Background())
	assert.Error(t, err)
}
