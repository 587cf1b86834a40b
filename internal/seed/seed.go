// Package seed creates demo comments for development databases. It is not
// used by the API server.
package seed

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"blogsys/internal/validation"
	"blogsys/models"

	"github.com/brianvoe/gofakeit/v6"
	"gorm.io/gorm"
)

// Options controls how much data is generated.
type Options struct {
	// Count is the number of comments to create.
	Count int
	// PostIDs are the post slugs comments are spread over. Random slugs are
	// generated when empty.
	PostIDs []string
	// MaxDays bounds how far back comment dates go.
	MaxDays int
	// MaxLikes bounds the random like count.
	MaxLikes int
	// Seed makes the output reproducible when non-zero.
	Seed int64
	// BatchSize is the number of rows per INSERT.
	BatchSize int
}

// Factory builds comments with gofakeit and persists them.
type Factory struct {
	db    *gorm.DB
	faker *gofakeit.Faker
	opts  Options
}

// NewFactory returns a Factory bound to db.
func NewFactory(db *gorm.DB, opts Options) *Factory {
	seed := opts.Seed
	if seed == 0 {
		seed = time.Now().UnixNano()
	}
	if opts.MaxDays <= 0 {
		opts.MaxDays = 90
	}
	if opts.MaxLikes < 0 {
		opts.MaxLikes = 0
	}
	if opts.BatchSize <= 0 {
		opts.BatchSize = 100
	}
	return &Factory{db: db, faker: gofakeit.New(seed), opts: opts}
}

// BuildComment returns an unsaved comment on postID with a random author,
// body, date and like count.
func (f *Factory) BuildComment(postID string) models.Comment {
	author := f.faker.Username()
	if len(author) > validation.MaxAuthorLen {
		author = author[:validation.MaxAuthorLen]
	}

	content := f.faker.Paragraph(1, f.faker.Number(1, 4), 12, " ")
	if len(content) > validation.MaxCommentLen {
		content = content[:validation.MaxCommentLen]
	}

	back := time.Duration(f.faker.Number(0, f.opts.MaxDays*24*60)) * time.Minute
	likes := 0
	if f.opts.MaxLikes > 0 {
		likes = f.faker.Number(0, f.opts.MaxLikes)
	}

	return models.Comment{
		PostID:  postID,
		Author:  author,
		Content: content,
		Date:    time.Now().UTC().Add(-back),
		Likes:   likes,
	}
}

func (f *Factory) postIDs() []string {
	if len(f.opts.PostIDs) > 0 {
		return f.opts.PostIDs
	}
	ids := make([]string, 0, 5)
	for i := 0; i < 5; i++ {
		ids = append(ids, strings.ToLower(fmt.Sprintf("%s-%s", f.faker.Word(), f.faker.Word())))
	}
	return ids
}

// Comments creates opts.Count comments spread over the configured posts and
// returns them with their generated IDs.
func (f *Factory) Comments(ctx context.Context) ([]models.Comment, error) {
	if f.opts.Count <= 0 {
		return nil, errors.New("seed count must be positive")
	}

	posts := f.postIDs()
	out := make([]models.Comment, 0, f.opts.Count)
	for i := 0; i < f.opts.Count; i++ {
		out = append(out, f.BuildComment(posts[i%len(posts)]))
	}

	if err := f.db.WithContext(ctx).CreateInBatches(&out, f.opts.BatchSize).Error; err != nil {
		return nil, fmt.Errorf("failed to seed comments: %w", err)
	}
	return out, nil
}
