package repository

import (
	"context"
	"errors"

	"prismic/internal/cache"
	"prismic/internal/models"

	"gorm.io/gorm"
)

// SummaryPostRepository defines persistence operations for shared summaries.
type SummaryPostRepository interface {
	Create(ctx context.Context, post *models.SummaryPost) error
	List(ctx context.Context, limit, offset int) ([]models.SummaryPost, error)
	GetByID(ctx context.Context, id uint) (*models.SummaryPost, error)
}

type summaryPostRepository struct {
	db *gorm.DB
}

// NewSummaryPostRepository returns a new SummaryPostRepository implementation.
func NewSummaryPostRepository(db *gorm.DB) SummaryPostRepository {
	return &summaryPostRepository{db: db}
}

func (r *summaryPostRepository) Create(ctx context.Context, post *models.SummaryPost) error {
	if err := r.db.WithContext(ctx).Create(post).Error; err != nil {
		return models.NewInternalError(err)
	}
	cache.InvalidateSummaryList(ctx)
	return nil
}

func (r *summaryPostRepository) List(ctx context.Context, limit, offset int) ([]models.SummaryPost, error) {
	var posts []models.SummaryPost
	// Only the first page is cached; deeper pages go straight to the DB.
	if offset == 0 {
		err := cache.Aside(ctx, cache.SummaryListKey(), &posts, cache.SummaryListTTL, func() error {
			return r.listFromDB(ctx, limit, offset, &posts)
		})
		if err != nil {
			return nil, models.NewInternalError(err)
		}
		return posts, nil
	}
	if err := r.listFromDB(ctx, limit, offset, &posts); err != nil {
		return nil, models.NewInternalError(err)
	}
	return posts, nil
}

func (r *summaryPostRepository) listFromDB(ctx context.Context, limit, offset int, dest *[]models.SummaryPost) error {
	return r.db.WithContext(ctx).
		Order("id DESC").
		Limit(limit).
		Offset(offset).
		Find(dest).Error
}

func (r *summaryPostRepository) GetByID(ctx context.Context, id uint) (*models.SummaryPost, error) {
	var post models.SummaryPost
	if err := r.db.WithContext(ctx).First(&post, id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, models.NewNotFoundError("Summary", id)
		}
		return nil, models.NewInternalError(err)
	}
	return &post, nil
}
